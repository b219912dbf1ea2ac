package rewrite

import (
	"strings"

	"gdmigrate/internal/adapter/gdscript"
)

// Rule names double as report counter keys.
const (
	RuleToolDirective = "tool_directive_rewrite"
	RulePreloadPrefix = "preload_prefix_rewrite"
	RuleDeferredInit  = "deferred_init_rewrite"
	RuleExportedField = "exported_field_rewrite"
	RuleConnect       = "signal_connect_rewrite"
	RuleDisconnect    = "signal_disconnect_rewrite"
	RuleIsConnected   = "signal_is_connected_rewrite"
	RuleEmit          = "signal_emit_rewrite"
	RuleSuspension    = "suspension_rewrite"
)

// maxCallRewrites bounds repeated call rewrites on one line.
const maxCallRewrites = 32

// DefaultRules is the rule table in application order.
func DefaultRules() []Rule {
	return []Rule{
		{Name: RuleToolDirective, Apply: toolDirective},
		{Name: RulePreloadPrefix, Apply: preloadPrefix},
		{Name: RuleExportedField, Window: 1, Apply: exportedField},
		{Name: RuleDeferredInit, Window: 1, Apply: deferredInit},
		{Name: RuleConnect, Apply: signalCall("connect", true)},
		{Name: RuleDisconnect, Apply: signalCall("disconnect", false)},
		{Name: RuleIsConnected, Apply: signalCall("is_connected", false)},
		{Name: RuleEmit, Apply: emitSignal},
		{Name: RuleSuspension, Apply: suspension},
	}
}

// parts splits a line into indentation, code and trailing comment. The
// code keeps any spacing that separated it from the comment.
type parts struct {
	indent, code, comment string
}

func split(text string) parts {
	sc := gdscript.ScanLine(text, "")
	indent := gdscript.LeadingIndent(sc.Code)
	return parts{indent: indent, code: sc.Code[len(indent):], comment: sc.Comment}
}

func (p parts) join(code string) string {
	return p.indent + code + p.comment
}

// trailing returns the whitespace at the end of the code part.
func (p parts) trailing() string {
	return p.code[len(strings.TrimRight(p.code, " \t")):]
}

func toolDirective(ctx Context) ([]string, int) {
	p := split(ctx.Text)
	if strings.TrimSpace(p.code) != "tool" {
		return nil, 0
	}
	return []string{p.join("@tool" + p.trailing())}, 1
}

func isStutteredPreload(name string) bool {
	prefix, ok := strings.CutSuffix(name, "preload")
	if !ok || prefix == "" || len(prefix)%3 != 0 {
		return false
	}
	return prefix == strings.Repeat("pre", len(prefix)/3)
}

func preloadPrefix(ctx Context) ([]string, int) {
	p := split(ctx.Text)
	calls := gdscript.FindCalls(p.code, isStutteredPreload)
	if len(calls) == 0 {
		return nil, 0
	}
	code := p.code
	for i := len(calls) - 1; i >= 0; i-- {
		c := calls[i]
		code = code[:c.Start] + "preload" + code[c.Start+len(c.Name):]
	}
	return []string{p.join(code)}, len(calls)
}

// isBareAnnotation reports whether text is exactly one annotation line
// whose name satisfies match.
func isBareAnnotation(text string, match func(string) bool) bool {
	code := strings.TrimSpace(split(text).code)
	if !strings.HasPrefix(code, "@") {
		return false
	}
	name, rest := gdscript.FirstWord(code[1:])
	if !match(name) {
		return false
	}
	rest = strings.TrimSpace(rest)
	if strings.HasPrefix(rest, "(") {
		end := gdscript.MatchParen(rest, 0)
		return end == len(rest)-1
	}
	return rest == ""
}

func deferredInit(ctx Context) ([]string, int) {
	p := split(ctx.Text)
	word, after := gdscript.FirstWord(p.code)
	if word != "onready" {
		return nil, 0
	}
	decl := strings.TrimLeft(after, " \t")
	if next, _ := gdscript.FirstWord(decl); next != "var" {
		return nil, 0
	}
	if isBareAnnotation(ctx.Prev(), func(n string) bool { return n == "onready" }) {
		return []string{p.join(decl)}, 1
	}
	return []string{p.indent + "@onready", p.join(decl)}, 1
}

// exportedField also takes the combined legacy forms "export onready var"
// and "onready export var". It keeps the onready keyword on the
// declaration for deferredInit, which runs next.
func exportedField(ctx Context) ([]string, int) {
	p := split(ctx.Text)
	word, after := gdscript.FirstWord(p.code)
	onready := ""
	if word == "onready" {
		onready = "onready "
		word, after = gdscript.FirstWord(strings.TrimLeft(after, " \t"))
	}
	if word != "export" {
		return nil, 0
	}
	rest := strings.TrimLeft(after, " \t")
	var args []string
	if strings.HasPrefix(rest, "(") {
		end := gdscript.MatchParen(rest, 0)
		if end < 0 {
			return nil, 0
		}
		args = gdscript.SplitArgs(rest[1:end])
		rest = strings.TrimLeft(rest[end+1:], " \t")
	}
	if next, tail := gdscript.FirstWord(rest); next == "onready" && onready == "" {
		onready = "onready "
		rest = strings.TrimLeft(tail, " \t")
	}
	if next, _ := gdscript.FirstWord(rest); next != "var" {
		return nil, 0
	}

	if isBareAnnotation(ctx.Prev(), func(n string) bool { return strings.HasPrefix(n, "export") }) {
		return []string{p.join(onready + rest)}, 1
	}
	annotation, typ := exportAnnotation(args)
	return []string{p.indent + annotation, p.join(onready + withType(rest, typ))}, 1
}

// signalCall rewrites obj.method("sig", target, "handler"[, binds[, flags]])
// into obj.sig.method(target.handler...). Only connect carries binds
// and flags.
func signalCall(method string, extras bool) func(Context) ([]string, int) {
	return func(ctx Context) ([]string, int) {
		return rewriteCalls(ctx.Text, method, func(args []string) (string, bool) {
			if len(args) < 3 || (!extras && len(args) > 3) || len(args) > 5 {
				return "", false
			}
			sig, ok := gdscript.StringLiteral(args[0])
			if !ok || !gdscript.IsIdentifier(sig) {
				return "", false
			}
			handler, ok := gdscript.StringLiteral(args[2])
			if !ok || !gdscript.IsIdentifier(handler) {
				return "", false
			}
			callable := handler
			if target := args[1]; target != "self" {
				callable = target + "." + handler
			}
			if len(args) >= 4 {
				binds := strings.TrimSpace(args[3])
				if !strings.HasPrefix(binds, "[") || !strings.HasSuffix(binds, "]") {
					return "", false
				}
				if inner := strings.TrimSpace(binds[1 : len(binds)-1]); inner != "" {
					callable += ".bind(" + inner + ")"
				}
			}
			call := sig + "." + method + "(" + callable
			if len(args) == 5 {
				call += ", " + args[4]
			}
			return call + ")", true
		})
	}
}

func emitSignal(ctx Context) ([]string, int) {
	return rewriteCalls(ctx.Text, "emit_signal", func(args []string) (string, bool) {
		if len(args) == 0 {
			return "", false
		}
		sig, ok := gdscript.StringLiteral(args[0])
		if !ok || !gdscript.IsIdentifier(sig) {
			return "", false
		}
		return sig + ".emit(" + strings.Join(args[1:], ", ") + ")", true
	})
}

func suspension(ctx Context) ([]string, int) {
	return rewriteCalls(ctx.Text, "yield", func(args []string) (string, bool) {
		switch len(args) {
		case 1:
			return "await " + args[0], true
		case 2:
			sig, ok := gdscript.StringLiteral(args[1])
			if !ok || !gdscript.IsIdentifier(sig) {
				return "", false
			}
			switch {
			case sig == "completed":
				return "await " + args[0], true
			case args[0] == "self":
				return "await " + sig, true
			}
			return "await " + args[0] + "." + sig, true
		}
		return "", false
	})
}

// rewriteCalls replaces each complete call to name on the line, one at a
// time, until none qualifies. build returns the replacement for the
// callee and its argument list.
func rewriteCalls(text, name string, build func(args []string) (string, bool)) ([]string, int) {
	p := split(text)
	code := p.code
	n := 0
	skip := 0
	for n < maxCallRewrites {
		calls := gdscript.FindCalls(code, func(s string) bool { return s == name })
		if skip >= len(calls) {
			break
		}
		c := calls[skip]
		repl, ok := build(c.Args(code))
		if !ok {
			skip++
			continue
		}
		code = code[:c.Start] + repl + code[c.Close+1:]
		n++
	}
	if n == 0 {
		return nil, 0
	}
	return []string{p.join(code)}, n
}
