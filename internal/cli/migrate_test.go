package cli

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"gdmigrate/internal/domain"
)

func TestPrintSummaryListsIdleRules(t *testing.T) {
	s := domain.NewSummary()
	s.RegisterRules("signal_emit_rewrite", "suspension_rewrite", "orphan_wrap")
	r := domain.NewTransformReport()
	r.Register("signal_emit_rewrite", "suspension_rewrite", "orphan_wrap")
	r.Add("signal_emit_rewrite", 2)
	s.Merge(domain.FileResult{Path: "a.gd", Report: r}, nil)

	var buf bytes.Buffer
	printSummary(&buf, s, false, false)
	out := buf.String()

	for _, row := range []string{
		fmt.Sprintf("  %-28s %d\n", "signal_emit_rewrite", 2),
		fmt.Sprintf("  %-28s %d\n", "suspension_rewrite", 0),
		fmt.Sprintf("  %-28s %d\n", "orphan_wrap", 0),
	} {
		if !strings.Contains(out, row) {
			t.Errorf("summary missing row %q:\n%s", row, out)
		}
	}
	if strings.Index(out, "orphan_wrap") > strings.Index(out, "suspension_rewrite") {
		t.Error("rules should be listed by name")
	}
}

func TestPrintSummaryWithoutFixes(t *testing.T) {
	s := domain.NewSummary()
	s.RegisterRules("tool_directive_rewrite")

	var buf bytes.Buffer
	printSummary(&buf, s, true, false)
	out := buf.String()

	if !strings.Contains(out, "Dry run complete") {
		t.Errorf("missing dry-run heading:\n%s", out)
	}
	if !strings.Contains(out, fmt.Sprintf("  %-28s %d\n", "tool_directive_rewrite", 0)) {
		t.Errorf("zero-count rule not reported:\n%s", out)
	}
}
