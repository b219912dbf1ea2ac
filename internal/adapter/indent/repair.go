// Package indent rebuilds block nesting from line categories.
package indent

import (
	"strings"

	"gdmigrate/internal/adapter/classify"
	"gdmigrate/internal/domain"
)

// CounterRepair counts lines whose leading whitespace was rewritten.
const CounterRepair = "indent_repair"

type frameKind int

const (
	frameControl frameKind = iota
	frameMethod
	frameClass
)

// frame is one open block. depth is where its body belongs; raw is the
// depth its first body line actually had, -1 until that line is seen.
type frame struct {
	kind      frameKind
	depth     int
	raw       int
	headerRaw int
}

// begin records the raw depth of the first body line. An over-indented
// first line does not raise the bar for the lines after it.
func (f *frame) begin(raw int) {
	if f.raw < 0 {
		f.raw = min(raw, f.headerRaw+1)
	}
}

type stack []frame

func (s stack) top() *frame {
	if len(s) == 0 {
		return nil
	}
	return &s[len(s)-1]
}

// toClassScope pops everything down to the innermost class frame whose
// header sits above raw.
func (s stack) toClassScope(raw int) stack {
	for len(s) > 0 {
		f := s[len(s)-1]
		if f.kind == frameClass && raw > f.headerRaw {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}

func (s stack) scope() domain.Scope {
	sc := domain.ScopeFile
	for _, f := range s {
		switch f.kind {
		case frameMethod:
			return domain.ScopeMethod
		case frameControl:
			sc = domain.ScopeBlock
		case frameClass:
			if sc == domain.ScopeFile {
				sc = domain.ScopeClass
			}
		}
	}
	return sc
}

// Repairer trusts categories over whitespace. Declarations snap back to
// class scope, method headers open a body one level deeper, and every
// other statement takes the depth of the block it lands in.
type Repairer struct{}

func (Repairer) Name() string { return "indent" }

func (Repairer) Apply(sf *domain.SourceFile) error {
	sf.Report.Register(CounterRepair)
	unit := sf.Indent
	var frames stack
	shift := 0
	changed := 0

	for _, l := range sf.Lines {
		if l.Continuation {
			l.Scope = frames.scope()
			if shift != 0 && !l.InString {
				if text := shiftLine(l.Text, shift, unit); text != l.Text {
					l.Text = text
					changed++
				}
			}
			continue
		}
		if l.Category.IsTrivia() {
			l.Scope = frames.scope()
			continue
		}

		raw := l.Depth
		code := classify.CodeOf(l)
		innerClass := classify.IsInnerClassHeader(code)
		var target int
		if l.Category.IsClassLevel() || l.Category.IsMethod() || innerClass {
			frames = frames.toClassScope(raw)
			if f := frames.top(); f != nil {
				target = f.depth
				f.begin(raw)
			}
		} else {
			target = place(&frames, raw)
		}

		l.Scope = frames.scope()
		shift = target - raw
		if text := unit.Reindent(l.Text, target); text != l.Text {
			l.Text = text
			changed++
		}

		if l.Opens {
			kind := frameControl
			switch {
			case l.Category.IsMethod():
				kind = frameMethod
			case innerClass:
				kind = frameClass
			}
			frames = append(frames, frame{kind: kind, depth: target + 1, raw: -1, headerRaw: raw})
		}
	}

	if changed > 0 {
		sf.Report.Add(CounterRepair, changed)
		classify.Refresh(sf)
	}
	return nil
}

// place finds the depth of a plain statement at raw depth.
func place(frames *stack, raw int) int {
	f := frames.top()
	if f != nil && f.raw < 0 {
		f.begin(raw)
		return f.depth
	}
	for len(*frames) > 0 && raw < (*frames)[len(*frames)-1].raw {
		*frames = (*frames)[:len(*frames)-1]
	}
	if f := frames.top(); f != nil {
		return f.depth
	}
	return 0
}

// shiftLine moves a continuation line by the same number of levels as
// the statement it belongs to.
func shiftLine(text string, levels int, unit domain.IndentUnit) string {
	if levels > 0 {
		return unit.Prefix(levels) + text
	}
	for ; levels < 0; levels++ {
		switch {
		case strings.HasPrefix(text, "\t"):
			text = text[1:]
		case !unit.Tab && unit.Width > 0 && strings.HasPrefix(text, strings.Repeat(" ", unit.Width)):
			text = text[unit.Width:]
		default:
			return text
		}
	}
	return text
}
