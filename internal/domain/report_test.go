package domain

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

func TestTransformReport(t *testing.T) {
	r := NewTransformReport()
	r.Register("a", "b")
	if !r.IsZero() {
		t.Fatal("registered counters should not count as fixes")
	}
	if len(r.Counters) != 2 {
		t.Fatalf("expected 2 counters, got %d", len(r.Counters))
	}

	r.Add("a", 2)
	r.Add("c", 1)
	if r.Fixes() != 3 {
		t.Errorf("Fixes() = %d, want 3", r.Fixes())
	}

	r = NewTransformReport()
	r.AddIssue(Issue{Kind: IssueUnresolvedOrphan, Line: 4})
	if r.IsZero() {
		t.Error("an issue makes the report non-zero")
	}
}

func TestSummaryMergeConcurrent(t *testing.T) {
	s := NewSummary()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			path := fmt.Sprintf("f%02d.gd", 19-i)
			if i%5 == 0 {
				s.Fail(path, errors.New("boom"))
				return
			}
			r := NewTransformReport()
			r.Add("rule", 1)
			var change *FileChange
			if i%2 == 0 {
				change = &FileChange{Path: path, Fixes: 1}
			}
			s.Merge(FileResult{Path: path, Report: r}, change)
		}(i)
	}
	wg.Wait()
	s.Sort()

	if s.FilesScanned != 20 {
		t.Errorf("FilesScanned = %d", s.FilesScanned)
	}
	if len(s.Failures) != 4 {
		t.Errorf("Failures = %d", len(s.Failures))
	}
	if s.TotalFixes != 16 || s.RuleTotals["rule"] != 16 {
		t.Errorf("TotalFixes = %d, rule = %d", s.TotalFixes, s.RuleTotals["rule"])
	}
	if s.FilesModified != len(s.Changes) {
		t.Errorf("modified %d, changes %d", s.FilesModified, len(s.Changes))
	}
	for i := 1; i < len(s.Results); i++ {
		if s.Results[i-1].Path > s.Results[i].Path {
			t.Fatalf("results not sorted at %d", i)
		}
	}
}

func TestFileErrorKind(t *testing.T) {
	base := errors.New("disk full")
	err := fmt.Errorf("saving: %w", &FileError{Kind: WriteError, Path: "a.gd", Err: base})

	if KindOf(err) != WriteError {
		t.Errorf("KindOf = %s", KindOf(err))
	}
	if !errors.Is(err, base) {
		t.Error("FileError should unwrap to its cause")
	}
	if KindOf(base) != PreconditionViolation {
		t.Error("unknown errors are contract errors")
	}
	if got := (&FileError{Kind: ReadError, Path: "b.gd", Err: base}).Error(); got != "read error on b.gd: disk full" {
		t.Errorf("Error() = %q", got)
	}
}
