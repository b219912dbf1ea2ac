// Package classify labels script lines with structural categories.
package classify

import (
	"strings"

	"gdmigrate/internal/adapter/gdscript"
	"gdmigrate/internal/domain"
)

// State is the bounded context the classifier sees: the category of the
// previous significant line and two facts about it. Comments are not
// significant.
type State struct {
	Unit domain.IndentUnit
	Prev domain.Category
	// PrevOpens is set when the previous statement ended with ':'.
	PrevOpens bool
	// PrevAnnotation is set when the previous line held only annotations.
	PrevAnnotation bool
}

var lifecycle = map[string]bool{
	"_init": true, "_ready": true, "_process": true, "_physics_process": true,
	"_input": true, "_unhandled_input": true, "_unhandled_key_input": true,
	"_shortcut_input": true, "_enter_tree": true, "_exit_tree": true,
	"_notification": true, "_draw": true, "_gui_input": true,
	"_integrate_forces": true, "_to_string": true, "_static_init": true,
	"_get": true, "_set": true, "_get_property_list": true,
	"_get_configuration_warnings": true,
}

var controlFlow = map[string]bool{
	"if": true, "elif": true, "else": true, "for": true, "while": true,
	"match": true, "return": true, "break": true, "continue": true,
	"pass": true, "breakpoint": true,
}

// legacy network modifiers that may prefix var and func.
var rpcModifiers = map[string]bool{
	"remote": true, "master": true, "puppet": true, "remotesync": true,
	"mastersync": true, "puppetsync": true, "sync": true,
}

var headerAnnotations = map[string]bool{
	"tool": true, "icon": true, "static_unload": true,
}

// IsLifecycle reports whether name is an engine callback.
func IsLifecycle(name string) bool {
	return lifecycle[name]
}

// Classify returns the category of one physical line. It never fails;
// anything it does not recognize is Other.
func Classify(text string, st State) domain.Category {
	cat, _ := classify(text, st)
	return cat
}

// classify also reports whether the line holds only annotations.
func classify(text string, st State) (domain.Category, bool) {
	if strings.TrimSpace(text) == "" {
		return domain.Blank, false
	}
	sc := gdscript.ScanLine(text, "")
	code := strings.TrimSpace(sc.Code)
	if code == "" || isLoneString(code) {
		return domain.Comment, false
	}
	depth := st.Unit.Depth(text)

	kind, rest, annotated := stripAnnotations(code)
	if annotated && rest == "" {
		switch {
		case kind == annotHeader:
			return domain.ClassHeader, false
		case kind == annotExport || (st.PrevAnnotation && st.Prev == domain.ExportedField):
			return domain.ExportedField, true
		case kind == annotOnready || (st.PrevAnnotation && st.Prev == domain.DeferredInitField):
			return domain.DeferredInitField, true
		}
		return domain.Other, true
	}
	if !annotated && st.PrevAnnotation {
		switch st.Prev {
		case domain.ExportedField:
			kind = annotExport
		case domain.DeferredInitField:
			kind = annotOnready
		}
	}
	return keyword(rest, depth, kind, st), false
}

func keyword(code string, depth int, kind annotKind, st State) domain.Category {
	word, after := gdscript.FirstWord(code)
	switch word {
	case "tool":
		if strings.TrimSpace(after) == "" {
			return domain.ClassHeader
		}
	case "class_name", "extends":
		return domain.ClassHeader
	case "signal":
		return domain.Signal
	case "enum":
		return domain.Enum
	case "const":
		if depth > 0 && !classLevel(st) {
			return domain.Other
		}
		return domain.Constant
	case "export":
		if rest := strings.TrimSpace(after); rest == "" || rest[0] == '(' || strings.HasPrefix(rest, "var ") || strings.HasPrefix(rest, "onready ") {
			return domain.ExportedField
		}
	case "onready":
		rest := strings.TrimSpace(after)
		if strings.HasPrefix(rest, "var") {
			return domain.DeferredInitField
		}
		if next, _ := gdscript.FirstWord(rest); next == "export" {
			return domain.ExportedField
		}
	case "static":
		return keyword(strings.TrimSpace(after), depth, kind, st)
	case "var":
		return field(after, depth, kind, st)
	case "func":
		return method(after)
	}
	if rpcModifiers[word] {
		if next, _ := gdscript.FirstWord(after); next == "func" || next == "var" {
			return keyword(strings.TrimSpace(after), depth, kind, st)
		}
	}
	if controlFlow[word] {
		return domain.ControlFlow
	}
	return domain.Other
}

func field(after string, depth int, kind annotKind, st State) domain.Category {
	if st.PrevOpens {
		return domain.Other
	}
	if depth > 0 && !classLevel(st) && kind == annotNone {
		return domain.Other
	}
	switch kind {
	case annotExport:
		return domain.ExportedField
	case annotOnready:
		return domain.DeferredInitField
	}
	name, _ := gdscript.FirstWord(after)
	if strings.HasPrefix(name, "_") {
		return domain.PrivateField
	}
	return domain.PublicField
}

func method(after string) domain.Category {
	trimmed := strings.TrimLeft(after, " \t")
	if trimmed == "" || trimmed[0] == '(' {
		return domain.Other
	}
	name, _ := gdscript.FirstWord(trimmed)
	switch {
	case name == "":
		return domain.Other
	case lifecycle[name]:
		return domain.LifecycleMethod
	case strings.HasPrefix(name, "_"):
		return domain.PrivateMethod
	}
	return domain.PublicMethod
}

// classLevel reports whether the previous statement leaves the reader at
// class scope, so an indented declaration is a misplaced member rather
// than a local.
func classLevel(st State) bool {
	return st.Prev.IsClassLevel() && !st.PrevOpens
}

func isLoneString(code string) bool {
	if code[0] != '"' && code[0] != '\'' {
		return false
	}
	if strings.HasPrefix(code, `"""`) || strings.HasPrefix(code, `'''`) {
		q := code[:3]
		end := strings.Index(code[3:], q)
		return end < 0 || strings.TrimSpace(code[3+end+3:]) == ""
	}
	_, ok := gdscript.StringLiteral(code)
	return ok
}

// IsInnerClassHeader reports whether code declares a nested class.
func IsInnerClassHeader(code string) bool {
	word, _ := gdscript.FirstWord(strings.TrimSpace(code))
	return word == "class" && gdscript.OpensBlock(code)
}
