package classify

import (
	"strings"

	"gdmigrate/internal/adapter/gdscript"
	"gdmigrate/internal/domain"
)

// Refresh recomputes depth, continuation and category for every line of
// sf from its current text. Stages call it after editing text so no line
// leaves a stage with a stale category.
func Refresh(sf *domain.SourceFile) {
	if sf.Indent.IsZero() {
		sf.Indent = gdscript.DetectIndent(sf.Texts())
	}
	st := State{Unit: sf.Indent}
	inString := ""
	open := 0
	backslash := false
	head := -1

	for i, l := range sf.Lines {
		continuing := inString != "" || open > 0 || backslash
		sc := gdscript.ScanLine(l.Text, inString)

		l.Depth = sf.Indent.Depth(l.Text)
		l.Continuation = continuing
		l.InString = inString != ""
		l.Opens = false
		l.Annotation = false

		if continuing {
			l.Category = domain.Other
		} else {
			l.Category, l.Annotation = classify(l.Text, st)
			if !l.Category.IsTrivia() {
				head = i
			}
		}

		inString = sc.OpenString
		open += sc.Delta
		if open < 0 {
			open = 0
		}
		backslash = sc.Backslash

		if head < 0 || (!continuing && l.Category.IsTrivia()) {
			continue
		}
		if inString == "" && open == 0 && !backslash {
			opens := gdscript.OpensBlock(sc.Code)
			sf.Lines[head].Opens = opens
			hl := sf.Lines[head]
			st.Prev = hl.Category
			st.PrevOpens = opens
			st.PrevAnnotation = hl.Annotation
			head = -1
		}
	}
}

// Stage is the first pipeline stage: it settles the indentation unit and
// labels every line.
type Stage struct {
	IndentStyle string
	IndentWidth int
}

func (s Stage) Name() string { return "classify" }

func (s Stage) Apply(sf *domain.SourceFile) error {
	sf.Indent = gdscript.ResolveIndent(s.IndentStyle, s.IndentWidth, sf.Texts())
	Refresh(sf)
	return nil
}

// CodeOf returns the code part of a line without indentation or comment.
func CodeOf(l *domain.Line) string {
	if l.Continuation {
		return strings.TrimSpace(l.Text)
	}
	return strings.TrimSpace(gdscript.ScanLine(l.Text, "").Code)
}
