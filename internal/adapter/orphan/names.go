package orphan

import (
	"fmt"
	"regexp"
	"strings"

	"gdmigrate/internal/adapter/classify"
	"gdmigrate/internal/adapter/gdscript"
	"gdmigrate/internal/domain"
)

// Markers left by earlier fixer scripts. Their payload is the code they
// commented out.
var legacyMarkers = []string{
	"# FIXME: Orphaned code - ",
	"# FIXED: Orphaned code - ",
	"# ORPHANED REF: ",
}

var (
	assignRe = regexp.MustCompile(`^([A-Za-z_]\w*)\s*(?::\s*[\w\[\], ]*)?(=|:=|\+=|-=|\*=|/=)\s*(.*)$`)
	declRe   = regexp.MustCompile(`^(?:static\s+)?(?:var|const)\s+([A-Za-z_]\w*)`)
)

// Calls that only compute a value. Capitalized callees are constructors
// and count as pure too.
var pureFuncs = map[string]bool{
	"preload": true, "load": true, "get_node": true, "str": true, "int": true,
	"float": true, "bool": true, "len": true, "range": true, "abs": true,
	"min": true, "max": true, "clamp": true, "lerp": true, "sign": true,
	"floor": true, "ceil": true, "round": true, "sqrt": true, "pow": true,
	"deg2rad": true, "rad2deg": true, "deg_to_rad": true, "rad_to_deg": true,
	"randf": true, "randi": true, "randf_range": true, "randi_range": true,
	"typeof": true, "char": true,
}

var pureMethods = map[string]bool{
	"get_node": true, "duplicate": true, "get": true, "length": true,
	"normalized": true, "size": true, "keys": true, "values": true,
	"has": true, "find": true, "to_lower": true, "to_upper": true,
}

// safeRun reports whether a run only assigns values: its first statement
// binds a name and no statement calls anything with side effects.
func safeRun(lines []*domain.Line) bool {
	lead := classify.CodeOf(lines[0])
	m := assignRe.FindStringSubmatch(lead)
	if m == nil || strings.HasPrefix(m[3], "=") {
		return false
	}
	for _, l := range lines {
		if l.Category.IsTrivia() {
			continue
		}
		if !pure(classify.CodeOf(l)) {
			return false
		}
	}
	return true
}

func pure(code string) bool {
	for _, tok := range gdscript.Identifiers(code) {
		switch tok.Text {
		case "await", "yield", "emit_signal", "queue_free", "free":
			return false
		}
	}
	for _, c := range gdscript.FindCalls(code, func(string) bool { return true }) {
		if c.HasDotRecv {
			if !pureMethods[c.Name] {
				return false
			}
			continue
		}
		if !pureFuncs[c.Name] && !(c.Name[0] >= 'A' && c.Name[0] <= 'Z') {
			return false
		}
	}
	return true
}

// declaredName returns the name a statement introduces or binds.
func declaredName(text string) string {
	code := strings.TrimSpace(gdscript.ScanLine(text, "").Code)
	if m := declRe.FindStringSubmatch(code); m != nil {
		return m[1]
	}
	if m := assignRe.FindStringSubmatch(code); m != nil && !strings.HasPrefix(m[3], "=") {
		return m[1]
	}
	return ""
}

// seedMarkers picks up lines suppressed by earlier runs, ours or older
// tools', and reports them again since they are still unresolved.
func seedMarkers(sf *domain.SourceFile) map[*domain.Line]string {
	seeded := make(map[*domain.Line]string)
	for _, l := range sf.Lines {
		if l.Category != domain.Comment {
			continue
		}
		trimmed := strings.TrimLeft(l.Text, " \t")
		payload, kind, ok := markerPayload(trimmed)
		if !ok {
			continue
		}
		stmt := strings.TrimSpace(payload)
		if stmt == "" || strings.HasPrefix(stmt, "#") {
			continue
		}
		msg := "previously suppressed statement is still unresolved: " + stmt
		if kind == domain.IssueLegacyMarker {
			msg = "orphan marker left by an earlier tool: " + stmt
		}
		sf.Report.AddIssue(domain.Issue{Kind: kind, Line: l.Number, Message: msg})
		if name := declaredName(payload); name != "" {
			seeded[l] = name
			if _, ok := sf.Suppressed[name]; !ok {
				sf.Suppressed[name] = l.Number
			}
		}
	}
	return seeded
}

func markerPayload(trimmed string) (string, domain.IssueKind, bool) {
	if rest, ok := strings.CutPrefix(trimmed, SuppressPrefix); ok {
		return rest, domain.IssueUnresolvedOrphan, true
	}
	for _, m := range legacyMarkers {
		if rest, ok := strings.CutPrefix(trimmed, m); ok {
			return rest, domain.IssueLegacyMarker, true
		}
	}
	return "", "", false
}

// liveNames collects every name declared by code that is still active.
func liveNames(sf *domain.SourceFile) map[string]bool {
	live := make(map[string]bool)
	for _, l := range sf.Lines {
		if l.Continuation || l.Category.IsTrivia() {
			continue
		}
		code := classify.CodeOf(l)
		toks := gdscript.Identifiers(code)
		for i, tok := range toks {
			switch tok.Text {
			case "var", "const", "signal", "enum", "class", "class_name", "for":
				if i+1 < len(toks) {
					live[toks[i+1].Text] = true
				}
			case "func":
				for _, p := range params(code, toks, i) {
					live[p] = true
				}
			}
		}
	}
	return live
}

// params returns the function name and parameter names of a header.
func params(code string, toks []gdscript.Token, funcAt int) []string {
	if funcAt+1 >= len(toks) {
		return nil
	}
	name := toks[funcAt+1]
	out := []string{name.Text}
	open := strings.IndexByte(code[name.End:], '(')
	if open < 0 {
		return out
	}
	open += name.End
	end := gdscript.MatchParen(code, open)
	if end < 0 {
		end = len(code)
	}
	for _, arg := range gdscript.SplitArgs(code[open+1 : end]) {
		if p, _ := gdscript.FirstWord(arg); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// flagReferences reports the first use of each name that only suppressed
// code declared. The text is left as it is.
func flagReferences(sf *domain.SourceFile, declaredBy map[*domain.Line]string) {
	if len(declaredBy) == 0 {
		return
	}
	live := liveNames(sf)
	active := make(map[string]int)
	flagged := make(map[string]bool)

	for _, l := range sf.Lines {
		if name, ok := declaredBy[l]; ok && !live[name] {
			if _, seen := active[name]; !seen {
				active[name] = sf.Suppressed[name]
			}
			continue
		}
		if len(active) == 0 || l.Category.IsTrivia() {
			continue
		}
		code := classify.CodeOf(l)
		for _, tok := range gdscript.Identifiers(code) {
			declLine, ok := active[tok.Text]
			if !ok || flagged[tok.Text] || !bareOrSelf(code, tok) {
				continue
			}
			flagged[tok.Text] = true
			sf.Report.AddIssue(domain.Issue{
				Kind:    domain.IssueSuppressedRef,
				Line:    l.Number,
				Name:    tok.Text,
				Message: fmt.Sprintf("%q is only declared by suppressed code (line %d)", tok.Text, declLine),
			})
		}
	}
}

// bareOrSelf reports whether tok is a plain name or a member of self.
func bareOrSelf(code string, tok gdscript.Token) bool {
	before := strings.TrimRight(code[:tok.Start], " ")
	if !strings.HasSuffix(before, ".") {
		return true
	}
	return strings.HasSuffix(strings.TrimRight(before[:len(before)-1], " "), "self")
}
