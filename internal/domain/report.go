package domain

import (
	"sort"
	"sync"
)

// IssueKind classifies an unresolved problem left in a file.
type IssueKind string

const (
	IssueUnresolvedOrphan IssueKind = "unresolved_orphan"
	IssueSuppressedRef    IssueKind = "suppressed_reference"
	IssueLegacyMarker     IssueKind = "legacy_orphan_marker"
)

// Issue is something the engine could not repair without guessing.
type Issue struct {
	Kind    IssueKind `json:"kind"`
	Line    int       `json:"line"`
	Name    string    `json:"name,omitempty"`
	Message string    `json:"message"`
}

// TransformReport holds the per-file counters and unresolved issues.
type TransformReport struct {
	Counters map[string]int `json:"counters"`
	Issues   []Issue        `json:"issues,omitempty"`
}

func NewTransformReport() *TransformReport {
	return &TransformReport{Counters: make(map[string]int)}
}

// Register makes a counter visible even if it never fires.
func (r *TransformReport) Register(names ...string) {
	for _, n := range names {
		if _, ok := r.Counters[n]; !ok {
			r.Counters[n] = 0
		}
	}
}

func (r *TransformReport) Add(name string, n int) {
	r.Counters[name] += n
}

func (r *TransformReport) AddIssue(is Issue) {
	r.Issues = append(r.Issues, is)
}

// Fixes is the sum of every counter.
func (r *TransformReport) Fixes() int {
	total := 0
	for _, n := range r.Counters {
		total += n
	}
	return total
}

// IsZero reports whether no counter fired and no issue was recorded.
func (r *TransformReport) IsZero() bool {
	return r.Fixes() == 0 && len(r.Issues) == 0
}

// FileChange describes one file whose content changed.
type FileChange struct {
	Path  string
	Fixes int
	Diff  string
}

// FileFailure records a file the run could not finish.
type FileFailure struct {
	Path string
	Err  error
}

// FileResult is what the engine exposes per processed file.
type FileResult struct {
	Path       string
	Rel        string
	Lines      []string
	Categories []Category
	Report     *TransformReport
	Changed    bool
	Cached     bool
}

// Summary is the process-wide aggregate of a run.
type Summary struct {
	mu sync.Mutex

	FilesScanned  int
	FilesModified int
	FilesCached   int
	TotalFixes    int
	Unresolved    int
	RuleTotals    map[string]int
	Changes       []FileChange
	Failures      []FileFailure
	Results       []FileResult
}

func NewSummary() *Summary {
	return &Summary{RuleTotals: make(map[string]int)}
}

// RegisterRules lists rules in RuleTotals before any file reports, so a
// rule that never matches still shows up with a zero count.
func (s *Summary) RegisterRules(names ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, n := range names {
		if _, ok := s.RuleTotals[n]; !ok {
			s.RuleTotals[n] = 0
		}
	}
}

// Merge folds one finished file into the summary. It is the only
// place worker results meet.
func (s *Summary) Merge(res FileResult, change *FileChange) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.FilesScanned++
	if res.Cached {
		s.FilesCached++
	}
	if res.Report != nil {
		for name, n := range res.Report.Counters {
			s.RuleTotals[name] += n
		}
		s.TotalFixes += res.Report.Fixes()
		s.Unresolved += len(res.Report.Issues)
	}
	if change != nil {
		s.FilesModified++
		s.Changes = append(s.Changes, *change)
	}
	s.Results = append(s.Results, res)
}

// Fail records a per-file failure.
func (s *Summary) Fail(path string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.FilesScanned++
	s.Failures = append(s.Failures, FileFailure{Path: path, Err: err})
}

// Sort orders changes, failures and results by path for stable output.
func (s *Summary) Sort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	sort.Slice(s.Changes, func(i, j int) bool { return s.Changes[i].Path < s.Changes[j].Path })
	sort.Slice(s.Failures, func(i, j int) bool { return s.Failures[i].Path < s.Failures[j].Path })
	sort.Slice(s.Results, func(i, j int) bool { return s.Results[i].Path < s.Results[j].Path })
}
