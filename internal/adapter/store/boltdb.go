package store

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/vmihailenco/msgpack/v5"
	"go.etcd.io/bbolt"

	"gdmigrate/internal/port"
)

var (
	bucketFiles = []byte("files")
	bucketRuns  = []byte("runs")
	bucketMeta  = []byte("meta")
)

// BoltStore keeps the clean-file cache and the run history in one bbolt file.
type BoltStore struct {
	db *bbolt.DB
}

func NewBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketFiles, bucketRuns, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

type fileMeta struct {
	Hash        string `msgpack:"hash"`
	RuleSetHash string `msgpack:"rules"`
	CheckedAt   int64  `msgpack:"checked_at"`
}

type runMeta struct {
	Started    int64  `msgpack:"started"`
	DurationMS int64  `msgpack:"duration_ms"`
	Root       string `msgpack:"root"`
	DryRun     bool   `msgpack:"dry_run"`
	Scanned    int    `msgpack:"scanned"`
	Modified   int    `msgpack:"modified"`
	Cached     int    `msgpack:"cached"`
	Fixes      int    `msgpack:"fixes"`
	Unresolved int    `msgpack:"unresolved"`
	Failures   int    `msgpack:"failures"`
}

func (s *BoltStore) GetFile(rel string) (port.FileRecord, bool, error) {
	var rec port.FileRecord
	found := false
	err := s.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketFiles).Get([]byte(rel))
		if data == nil {
			return nil
		}
		var meta fileMeta
		if err := msgpack.Unmarshal(data, &meta); err != nil {
			return fmt.Errorf("failed to decode file record %s: %w", rel, err)
		}
		rec = port.FileRecord{
			Hash:        meta.Hash,
			RuleSetHash: meta.RuleSetHash,
			CheckedAt:   time.Unix(meta.CheckedAt, 0),
		}
		found = true
		return nil
	})
	return rec, found, err
}

func (s *BoltStore) PutFile(rel string, rec port.FileRecord) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		data, err := msgpack.Marshal(fileMeta{
			Hash:        rec.Hash,
			RuleSetHash: rec.RuleSetHash,
			CheckedAt:   rec.CheckedAt.Unix(),
		})
		if err != nil {
			return err
		}
		return tx.Bucket(bucketFiles).Put([]byte(rel), data)
	})
}

func (s *BoltStore) DeleteFile(rel string) error {
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketFiles).Delete([]byte(rel))
	})
}

func (s *BoltStore) AddRun(run port.RunRecord) (uint64, error) {
	var id uint64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRuns)
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		id = seq
		data, err := msgpack.Marshal(runMeta{
			Started:    run.Started.Unix(),
			DurationMS: run.Duration.Milliseconds(),
			Root:       run.Root,
			DryRun:     run.DryRun,
			Scanned:    run.Scanned,
			Modified:   run.Modified,
			Cached:     run.Cached,
			Fixes:      run.Fixes,
			Unresolved: run.Unresolved,
			Failures:   run.Failures,
		})
		if err != nil {
			return err
		}
		return b.Put(runKey(id), data)
	})
	return id, err
}

// ListRuns returns up to limit runs, newest first. A limit of zero or less
// returns all of them.
func (s *BoltStore) ListRuns(limit int) ([]port.RunRecord, error) {
	var runs []port.RunRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket(bucketRuns).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(runs) >= limit {
				break
			}
			var meta runMeta
			if err := msgpack.Unmarshal(v, &meta); err != nil {
				continue
			}
			runs = append(runs, port.RunRecord{
				ID:         binary.BigEndian.Uint64(k),
				Started:    time.Unix(meta.Started, 0),
				Duration:   time.Duration(meta.DurationMS) * time.Millisecond,
				Root:       meta.Root,
				DryRun:     meta.DryRun,
				Scanned:    meta.Scanned,
				Modified:   meta.Modified,
				Cached:     meta.Cached,
				Fixes:      meta.Fixes,
				Unresolved: meta.Unresolved,
				Failures:   meta.Failures,
			})
		}
		return nil
	})
	return runs, err
}

// CountFiles returns the number of cached clean files.
func (s *BoltStore) CountFiles() (int, error) {
	n := 0
	err := s.db.View(func(tx *bbolt.Tx) error {
		n = tx.Bucket(bucketFiles).Stats().KeyN
		return nil
	})
	return n, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}

func runKey(id uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, id)
	return k
}
