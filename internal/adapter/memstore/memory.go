package memstore

import (
	"sync"

	"gdmigrate/internal/port"
)

// MemoryStore is a StateStore that forgets everything on exit. Dry runs and
// --no-cache use it so nothing touches the project's state database.
type MemoryStore struct {
	mu    sync.RWMutex
	files map[string]port.FileRecord
	runs  []port.RunRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		files: make(map[string]port.FileRecord),
	}
}

func (s *MemoryStore) GetFile(rel string) (port.FileRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.files[rel]
	return rec, ok, nil
}

func (s *MemoryStore) PutFile(rel string, rec port.FileRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[rel] = rec
	return nil
}

func (s *MemoryStore) DeleteFile(rel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, rel)
	return nil
}

func (s *MemoryStore) AddRun(run port.RunRecord) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.ID = uint64(len(s.runs) + 1)
	s.runs = append(s.runs, run)
	return run.ID, nil
}

func (s *MemoryStore) ListRuns(limit int) ([]port.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []port.RunRecord
	for i := len(s.runs) - 1; i >= 0; i-- {
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, s.runs[i])
	}
	return out, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

var _ port.StateStore = (*MemoryStore)(nil)
