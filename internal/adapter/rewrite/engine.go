// Package rewrite applies the table of legacy-syntax rewrite rules.
package rewrite

import (
	"gdmigrate/internal/adapter/classify"
	"gdmigrate/internal/domain"
)

// Context is what a rule sees: one line and at most Window neighbours on
// each side, nearest last in Before and nearest first in After.
type Context struct {
	Text   string
	Before []string
	After  []string
}

// Prev returns the nearest preceding line, or "".
func (c Context) Prev() string {
	if len(c.Before) == 0 {
		return ""
	}
	return c.Before[len(c.Before)-1]
}

// Rule rewrites one deprecated form. Apply returns nil when the line does
// not match, otherwise the replacement lines and the number of
// replacements made.
type Rule struct {
	Name   string
	Window int
	Apply  func(ctx Context) ([]string, int)
}

// Engine runs rules one at a time over the whole file, so each rule sees
// what earlier rules produced.
type Engine struct {
	rules []Rule
}

// NewEngine builds an engine over the default rule table minus disabled names.
func NewEngine(disabled []string) *Engine {
	off := make(map[string]bool, len(disabled))
	for _, name := range disabled {
		off[name] = true
	}
	e := &Engine{}
	for _, r := range DefaultRules() {
		if !off[r.Name] {
			e.rules = append(e.rules, r)
		}
	}
	return e
}

// NewEngineWith builds an engine over an explicit rule list.
func NewEngineWith(rules ...Rule) *Engine {
	return &Engine{rules: rules}
}

// Names lists the active rule names in application order.
func (e *Engine) Names() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name
	}
	return names
}

func (e *Engine) Name() string { return "rewrite" }

func (e *Engine) Apply(sf *domain.SourceFile) error {
	sf.Report.Register(e.Names()...)
	for _, r := range e.rules {
		e.applyRule(sf, r)
	}
	return nil
}

func (e *Engine) applyRule(sf *domain.SourceFile, r Rule) {
	texts := sf.Texts()
	out := make([]*domain.Line, 0, len(sf.Lines))
	changed := false

	for i, l := range sf.Lines {
		if l.Continuation || l.Category.IsTrivia() {
			out = append(out, l)
			continue
		}
		ctx := Context{Text: l.Text}
		if r.Window > 0 {
			lo := max(0, i-r.Window)
			hi := min(len(texts), i+1+r.Window)
			ctx.Before = texts[lo:i]
			ctx.After = texts[i+1 : hi]
		}
		repl, n := r.Apply(ctx)
		if repl == nil {
			out = append(out, l)
			continue
		}
		changed = true
		sf.Report.Add(r.Name, n)
		l.Text = repl[0]
		out = append(out, l)
		for _, extra := range repl[1:] {
			out = append(out, &domain.Line{Number: l.Number, Text: extra})
		}
	}

	if changed {
		sf.Lines = out
		classify.Refresh(sf)
	}
}
