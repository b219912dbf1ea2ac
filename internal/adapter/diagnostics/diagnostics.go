// Package diagnostics turns what the engine exposes per file into
// line-addressed findings and prints them.
package diagnostics

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"fortio.org/safecast"

	"gdmigrate/internal/domain"
)

type Severity int

const (
	Info Severity = iota
	Warning
	Error
)

func (s Severity) String() string {
	switch s {
	case Warning:
		return "warning"
	case Error:
		return "error"
	default:
		return "info"
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ParseSeverity accepts the names String produces.
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(name) {
	case "info":
		return Info, nil
	case "warning", "warn":
		return Warning, nil
	case "error":
		return Error, nil
	}
	return Info, fmt.Errorf("unknown severity %q", name)
}

type Record struct {
	File     string   `json:"file"`
	Line     uint32   `json:"line"`
	Severity Severity `json:"severity"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
}

// Collector gathers records from concurrent workers.
type Collector struct {
	mu      sync.Mutex
	records []Record
	// MinSeverity drops anything below it.
	MinSeverity Severity
}

func NewCollector() *Collector {
	return &Collector{}
}

// Consume records the file's unresolved issues and runs the legacy syntax
// check over its final text.
func (c *Collector) Consume(res domain.FileResult) {
	file := res.Rel
	if file == "" {
		file = res.Path
	}

	var recs []Record
	if res.Report != nil {
		for _, is := range res.Report.Issues {
			recs = append(recs, Record{
				File:     file,
				Line:     lineNumber(is.Line),
				Severity: Warning,
				Code:     string(is.Kind),
				Message:  is.Message,
			})
		}
	}
	recs = append(recs, LegacySyntaxCheck(file, res.Lines, res.Categories)...)

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range recs {
		if r.Severity >= c.MinSeverity {
			c.records = append(c.records, r)
		}
	}
}

// Add appends a record directly, e.g. for a file that failed to process.
func (c *Collector) Add(r Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if r.Severity >= c.MinSeverity {
		c.records = append(c.records, r)
	}
}

// Records returns the collected records sorted by file, line and
// severity, with exact duplicates removed.
func (c *Collector) Records() []Record {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Record, len(c.records))
	copy(out, c.records)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		if a.Severity != b.Severity {
			return a.Severity > b.Severity
		}
		return a.Code < b.Code
	})

	deduped := out[:0]
	for i, r := range out {
		if i > 0 && r == out[i-1] {
			continue
		}
		deduped = append(deduped, r)
	}
	return deduped
}

// Counts returns the number of records per severity.
func (c *Collector) Counts() map[Severity]int {
	counts := make(map[Severity]int)
	for _, r := range c.Records() {
		counts[r.Severity]++
	}
	return counts
}

// HasProblems reports whether any warning or error was collected.
func (c *Collector) HasProblems() bool {
	counts := c.Counts()
	return counts[Warning] > 0 || counts[Error] > 0
}

func lineNumber(n int) uint32 {
	v, err := safecast.Conv[uint32](n)
	if err != nil {
		return 0
	}
	return v
}
