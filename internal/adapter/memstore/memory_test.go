package memstore

import (
	"sync"
	"testing"

	"gdmigrate/internal/port"
)

func TestMemoryStoreFiles(t *testing.T) {
	s := NewMemoryStore()

	if _, found, _ := s.GetFile("a.gd"); found {
		t.Fatal("expected empty store")
	}
	if err := s.PutFile("a.gd", port.FileRecord{Hash: "h1"}); err != nil {
		t.Fatal(err)
	}
	rec, found, err := s.GetFile("a.gd")
	if err != nil || !found || rec.Hash != "h1" {
		t.Fatalf("got %+v found=%v err=%v", rec, found, err)
	}
	if err := s.DeleteFile("a.gd"); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := s.GetFile("a.gd"); found {
		t.Error("expected record to be deleted")
	}
}

func TestMemoryStoreRuns(t *testing.T) {
	s := NewMemoryStore()
	for i := 0; i < 3; i++ {
		if _, err := s.AddRun(port.RunRecord{Fixes: i}); err != nil {
			t.Fatal(err)
		}
	}
	runs, err := s.ListRuns(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(runs) != 2 || runs[0].ID != 3 || runs[0].Fixes != 2 {
		t.Errorf("unexpected runs: %+v", runs)
	}
}

func TestMemoryStoreConcurrentPut(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.PutFile(string(rune('a'+i%26))+".gd", port.FileRecord{Hash: "x"})
		}(i)
	}
	wg.Wait()
	if len(s.files) != 26 {
		t.Errorf("expected 26 files, got %d", len(s.files))
	}
}
