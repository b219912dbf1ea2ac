package classify

import (
	"strings"

	"gdmigrate/internal/adapter/gdscript"
)

type annotKind int

const (
	annotNone annotKind = iota
	annotOther
	annotOnready
	annotExport
	annotHeader
)

// stripAnnotations peels leading @annotations off code. The strongest
// annotation seen wins: header, then export, then onready.
func stripAnnotations(code string) (annotKind, string, bool) {
	kind := annotNone
	found := false
	for strings.HasPrefix(code, "@") {
		name, rest := gdscript.FirstWord(code[1:])
		if name == "" {
			break
		}
		found = true
		consumed := len(code) - len(rest)
		if strings.HasPrefix(rest, "(") {
			end := gdscript.MatchParen(code, consumed)
			if end < 0 {
				return kind, "", true
			}
			consumed = end + 1
		}
		code = strings.TrimSpace(code[consumed:])

		k := annotOther
		switch {
		case headerAnnotations[name]:
			k = annotHeader
		case strings.HasPrefix(name, "export"):
			k = annotExport
		case name == "onready":
			k = annotOnready
		}
		if k > kind {
			kind = k
		}
	}
	return kind, code, found
}

// IsAnnotationOnly reports whether code holds annotations and nothing else.
func IsAnnotationOnly(code string) bool {
	kind, rest, found := stripAnnotations(strings.TrimSpace(code))
	return found && rest == "" && kind != annotHeader
}
