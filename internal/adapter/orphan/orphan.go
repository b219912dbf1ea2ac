// Package orphan finds statements stranded at file scope and either
// wraps them in a synthesized method or comments them out.
package orphan

import (
	"fmt"
	"strings"

	"gdmigrate/internal/adapter/classify"
	"gdmigrate/internal/adapter/gdscript"
	"gdmigrate/internal/domain"
)

const (
	CounterWrap     = "orphan_wrap"
	CounterSuppress = "orphan_suppress"

	// SuppressPrefix marks a suppressed line. Removing it gives back the
	// line exactly as it was.
	SuppressPrefix = "# orphaned: "

	DefaultWrapperName = "_migrated_init"
)

// Run is an inclusive span of lines forming one orphaned unit.
type Run struct {
	Start, End int
}

// Repairer resolves every orphan run in a file.
type Repairer struct {
	WrapperName string
}

func (Repairer) Name() string { return "orphan" }

func (r Repairer) Apply(sf *domain.SourceFile) error {
	sf.Report.Register(CounterWrap, CounterSuppress)
	wrapper := r.WrapperName
	if wrapper == "" {
		wrapper = DefaultWrapperName
	}

	suppressedAt := seedMarkers(sf)
	runs := Detect(sf)
	if len(runs) > 0 {
		taken := methodNames(sf)
		names := make([]string, len(runs))
		for i, rn := range runs {
			if safeRun(sf.Lines[rn.Start : rn.End+1]) {
				names[i] = nextWrapperName(wrapper, taken)
			}
		}
		// Work from the bottom so earlier spans keep their indices.
		for i := len(runs) - 1; i >= 0; i-- {
			rn := runs[i]
			if names[i] != "" {
				wrap(sf, rn, names[i])
				continue
			}
			for l, name := range suppress(sf, rn) {
				suppressedAt[l] = name
			}
		}
		classify.Refresh(sf)
	}
	flagReferences(sf, suppressedAt)
	return nil
}

// Detect marks orphaned statements and returns the runs they form. A run
// starts at a stranded statement and takes in its nested lines,
// continuation lines and any comments between two of its members.
func Detect(sf *domain.SourceFile) []Run {
	lines := sf.Lines
	var runs []Run
	for i := 0; i < len(lines); i++ {
		if !isLead(lines[i]) {
			continue
		}
		end := i
		for j := i + 1; j < len(lines); j++ {
			l := lines[j]
			if !l.Continuation && l.Category.IsTrivia() {
				continue
			}
			if l.Continuation || l.Scope == domain.ScopeBlock || isLead(l) {
				end = j
				continue
			}
			break
		}
		for k := i; k <= end; k++ {
			if l := lines[k]; !l.Continuation && !l.Category.IsTrivia() {
				l.Category = domain.Orphan
			}
		}
		runs = append(runs, Run{Start: i, End: end})
		i = end
	}
	return runs
}

func isLead(l *domain.Line) bool {
	if l.Continuation || l.Annotation || l.Scope != domain.ScopeFile {
		return false
	}
	switch l.Category {
	case domain.Other, domain.ControlFlow, domain.Orphan:
	default:
		return false
	}
	return !classify.IsInnerClassHeader(classify.CodeOf(l))
}

func wrap(sf *domain.SourceFile, rn Run, name string) {
	lead := sf.Lines[rn.Start]
	header := &domain.Line{
		Text:  sf.Indent.Prefix(lead.Depth) + "func " + name + "():",
		Depth: lead.Depth,
		Opens: true,
	}
	for _, l := range sf.Lines[rn.Start : rn.End+1] {
		l.Scope = domain.ScopeMethod
		if strings.TrimSpace(l.Text) == "" || l.InString {
			continue
		}
		l.Text = sf.Indent.Prefix(1) + l.Text
	}
	lines := make([]*domain.Line, 0, len(sf.Lines)+1)
	lines = append(lines, sf.Lines[:rn.Start]...)
	lines = append(lines, header)
	lines = append(lines, sf.Lines[rn.Start:]...)
	sf.Lines = lines
	sf.Report.Add(CounterWrap, 1)
}

// suppress comments out every non-blank line of the run and returns the
// names the run declared, keyed by the declaring line.
func suppress(sf *domain.SourceFile, rn Run) map[*domain.Line]string {
	declared := make(map[*domain.Line]string)
	for idx := rn.Start; idx <= rn.End; idx++ {
		l := sf.Lines[idx]
		if strings.TrimSpace(l.Text) == "" {
			continue
		}
		statement := l.Category == domain.Orphan
		if statement {
			sf.Report.Add(CounterSuppress, 1)
			sf.Report.AddIssue(domain.Issue{
				Kind:    domain.IssueUnresolvedOrphan,
				Line:    l.Number,
				Message: "statement outside any method was commented out: " + strings.TrimSpace(l.Text),
			})
			if name := declaredName(l.Text); name != "" {
				declared[l] = name
				if _, ok := sf.Suppressed[name]; !ok {
					sf.Suppressed[name] = l.Number
				}
			}
		}
		l.Text = SuppressPrefix + l.Text
		l.Category = domain.Comment
	}
	return declared
}

// Recover returns the text a suppressed line had before suppression.
func Recover(text string) (string, bool) {
	return strings.CutPrefix(text, SuppressPrefix)
}

func methodNames(sf *domain.SourceFile) map[string]bool {
	names := make(map[string]bool)
	for _, l := range sf.Lines {
		if !l.Category.IsMethod() {
			continue
		}
		if name := funcName(classify.CodeOf(l)); name != "" {
			names[name] = true
		}
	}
	return names
}

func nextWrapperName(base string, taken map[string]bool) string {
	name := base
	for n := 2; taken[name]; n++ {
		name = fmt.Sprintf("%s_%d", base, n)
	}
	taken[name] = true
	return name
}

func funcName(code string) string {
	toks := gdscript.Identifiers(code)
	for i, tok := range toks {
		if tok.Text == "func" && i+1 < len(toks) {
			return toks[i+1].Text
		}
	}
	return ""
}
