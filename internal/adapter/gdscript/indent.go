package gdscript

import (
	"strings"

	"gdmigrate/internal/domain"
)

// DetectIndent guesses the indentation unit of a script. Tabs win if any
// statement starts with one; otherwise the most common step taken after a
// block opener decides the space width. Files with no nesting get tabs.
func DetectIndent(lines []string) domain.IndentUnit {
	steps := make(map[int]int)
	inString := ""
	open := 0
	cont := false
	prevOpenerSpaces := -1

	for _, line := range lines {
		continuing := inString != "" || open > 0 || cont
		sc := ScanLine(line, inString)
		inString = sc.OpenString
		open += sc.Delta
		if open < 0 {
			open = 0
		}
		cont = sc.Backslash
		if continuing || strings.TrimSpace(sc.Code) == "" {
			continue
		}
		ws := LeadingIndent(line)
		if strings.HasPrefix(ws, "\t") {
			return domain.TabIndent
		}
		n := len(ws)
		if prevOpenerSpaces >= 0 && n > prevOpenerSpaces {
			steps[n-prevOpenerSpaces]++
		}
		prevOpenerSpaces = -1
		if OpensBlock(sc.Code) && open == 0 && inString == "" {
			prevOpenerSpaces = n
		}
	}

	best, bestCount := 0, 0
	for w, c := range steps {
		if c > bestCount || (c == bestCount && w < best) {
			best, bestCount = w, c
		}
	}
	if best == 0 {
		return domain.TabIndent
	}
	return domain.IndentUnit{Width: best}
}

// ResolveIndent applies a configured style on top of detection.
func ResolveIndent(style string, width int, lines []string) domain.IndentUnit {
	switch style {
	case "tab":
		return domain.TabIndent
	case "space":
		if width <= 0 {
			width = 4
		}
		return domain.IndentUnit{Width: width}
	}
	return DetectIndent(lines)
}
