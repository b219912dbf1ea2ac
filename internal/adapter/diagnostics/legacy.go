package diagnostics

import (
	"strings"

	"gdmigrate/internal/adapter/gdscript"
	"gdmigrate/internal/domain"
)

const (
	CodeLegacyEmit    = "legacy_emit_signal"
	CodeLegacyYield   = "legacy_yield"
	CodeLegacySetget  = "legacy_setget"
	CodeLegacyExport  = "legacy_export"
	CodeLegacyConnect = "legacy_connect"
)

// LegacySyntaxCheck flags old-dialect constructs still present in the
// final text, i.e. forms no rewrite rule could translate. It only reads
// code: comments and string contents are ignored.
func LegacySyntaxCheck(file string, lines []string, cats []domain.Category) []Record {
	var out []Record
	inString := ""
	for i, text := range lines {
		scan := gdscript.ScanLine(text, inString)
		inString = scan.OpenString
		if i < len(cats) && cats[i].IsTrivia() {
			continue
		}
		code := strings.TrimSpace(scan.Code)
		if code == "" {
			continue
		}

		add := func(codeName, msg string) {
			out = append(out, Record{
				File:     file,
				Line:     lineNumber(i + 1),
				Severity: Info,
				Code:     codeName,
				Message:  msg,
			})
		}

		for _, call := range gdscript.FindCalls(code, isLegacyCall) {
			args := call.Args(code)
			switch call.Name {
			case "emit_signal":
				add(CodeLegacyEmit, "emit_signal with a non-literal signal name was left in place")
			case "yield":
				add(CodeLegacyYield, "yield could not be translated to await")
			case "connect", "disconnect", "is_connected":
				if len(args) > 0 {
					if _, ok := gdscript.StringLiteral(args[0]); ok {
						add(CodeLegacyConnect, call.Name+" with a signal name string was left in place")
					}
				}
			}
		}

		for _, tok := range gdscript.Identifiers(code) {
			if tok.Text == "setget" {
				add(CodeLegacySetget, "setget has no direct equivalent; use property accessors")
				break
			}
		}

		if word, rest := gdscript.FirstWord(code); word == "export" || word == "onready" {
			r := strings.TrimSpace(rest)
			next, _ := gdscript.FirstWord(r)
			if r == "" || r[0] == '(' || next == "var" || next == "export" || next == "onready" {
				add(CodeLegacyExport, "legacy "+word+" keyword was left in place")
			}
		}
	}
	return out
}

func isLegacyCall(name string) bool {
	switch name {
	case "emit_signal", "yield", "connect", "disconnect", "is_connected":
		return true
	}
	return false
}
