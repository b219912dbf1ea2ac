package port

import "time"

// FileRecord remembers a file that came out of a run with nothing left to do.
type FileRecord struct {
	Hash        string
	RuleSetHash string
	CheckedAt   time.Time
}

// RunRecord is one entry of the run history.
type RunRecord struct {
	ID         uint64
	Started    time.Time
	Duration   time.Duration
	Root       string
	DryRun     bool
	Scanned    int
	Modified   int
	Cached     int
	Fixes      int
	Unresolved int
	Failures   int
}

type StateStore interface {
	GetFile(rel string) (FileRecord, bool, error)

	PutFile(rel string, rec FileRecord) error

	DeleteFile(rel string) error

	AddRun(run RunRecord) (uint64, error)

	ListRuns(limit int) ([]RunRecord, error)

	Close() error
}
