package rewrite

import (
	"strconv"
	"strings"

	"gdmigrate/internal/adapter/gdscript"
)

// Types that exist under the same name on both sides of the migration.
// Anything else is left off the declaration rather than guessed.
var stableTypes = map[string]bool{
	"int": true, "float": true, "bool": true, "String": true,
	"Vector2": true, "Vector3": true, "Color": true, "NodePath": true,
	"Array": true, "Dictionary": true, "Rect2": true, "Transform2D": true,
	"Basis": true, "Plane": true, "AABB": true,
}

var layerHints = map[string]string{
	"LAYERS_2D_RENDER":  "@export_flags_2d_render",
	"LAYERS_2D_PHYSICS": "@export_flags_2d_physics",
	"LAYERS_3D_RENDER":  "@export_flags_3d_render",
	"LAYERS_3D_PHYSICS": "@export_flags_3d_physics",
}

// exportAnnotation maps a legacy export hint list to an annotation and
// the type the hint pins down, if any. Unknown hints give a bare @export.
func exportAnnotation(args []string) (string, string) {
	if len(args) == 0 {
		return "@export", ""
	}
	typ, hints := args[0], args[1:]
	if len(hints) == 0 {
		if stableTypes[typ] {
			return "@export", typ
		}
		return "@export", ""
	}

	switch typ {
	case "int", "float":
		if a, ok := numericHint(typ, hints); ok {
			return a, typ
		}
		if typ == "int" {
			if hints[0] == "FLAGS" && allStrings(hints[1:]) && len(hints) > 1 {
				return "@export_flags(" + strings.Join(hints[1:], ", ") + ")", typ
			}
			if a, ok := layerHints[hints[0]]; ok && len(hints) == 1 {
				return a, typ
			}
			if allStrings(hints) {
				return "@export_enum(" + strings.Join(hints, ", ") + ")", typ
			}
		}
	case "String":
		switch hints[0] {
		case "FILE", "DIR":
			name := "@export_" + strings.ToLower(hints[0])
			filters := hints[1:]
			if len(filters) > 0 && filters[0] == "GLOBAL" {
				name = "@export_global_" + strings.ToLower(hints[0])
				filters = filters[1:]
			}
			if !allStrings(filters) {
				return "@export", ""
			}
			if len(filters) > 0 {
				name += "(" + strings.Join(filters, ", ") + ")"
			}
			return name, typ
		case "MULTILINE":
			if len(hints) == 1 {
				return "@export_multiline", typ
			}
		default:
			if allStrings(hints) {
				return "@export_enum(" + strings.Join(hints, ", ") + ")", typ
			}
		}
	case "Color":
		if len(hints) == 1 && hints[0] == "RGB" {
			return "@export_color_no_alpha", typ
		}
	}
	return "@export", ""
}

// numericHint handles the range forms: (max), (min, max), (min, max,
// step) and the EXP and EASE float hints.
func numericHint(typ string, hints []string) (string, bool) {
	if typ == "float" {
		switch hints[0] {
		case "EASE":
			if len(hints) == 1 {
				return "@export_exp_easing", true
			}
			return "", false
		case "EXP":
			nums := hints[1:]
			if len(nums) < 2 || len(nums) > 3 || !allNumbers(nums) {
				return "", false
			}
			return "@export_range(" + strings.Join(nums, ", ") + `, "exp")`, true
		}
	}
	if len(hints) > 3 || !allNumbers(hints) {
		return "", false
	}
	if len(hints) == 1 {
		return "@export_range(0, " + hints[0] + ")", true
	}
	return "@export_range(" + strings.Join(hints, ", ") + ")", true
}

func allNumbers(xs []string) bool {
	for _, x := range xs {
		if _, err := strconv.ParseFloat(x, 64); err != nil {
			return false
		}
	}
	return true
}

func allStrings(xs []string) bool {
	for _, x := range xs {
		if _, ok := gdscript.StringLiteral(x); !ok {
			return false
		}
	}
	return true
}

// withType adds ": typ" after the declared name unless the declaration
// already carries a type or an inferred type.
func withType(decl, typ string) string {
	if typ == "" {
		return decl
	}
	_, after := gdscript.FirstWord(decl)
	after = strings.TrimLeft(after, " \t")
	name, rest := gdscript.FirstWord(after)
	if name == "" || strings.HasPrefix(strings.TrimLeft(rest, " \t"), ":") {
		return decl
	}
	return "var " + name + ": " + typ + rest
}
