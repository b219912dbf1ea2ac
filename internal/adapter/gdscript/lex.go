// Package gdscript holds the lexical helpers shared by the migration
// stages. It knows about strings, comments, brackets and identifiers and
// nothing about grammar.
package gdscript

import "strings"

// Scan is the lexical summary of one physical line.
type Scan struct {
	Code    string
	Comment string
	// Delta is the bracket depth change across the line.
	Delta int
	// OpenString is the delimiter of a string left open at end of line.
	OpenString string
	// Backslash is set when the code ends with a line continuation.
	Backslash bool
}

// ScanLine splits a line into code and comment. inString carries a
// multiline string delimiter left open by the previous line.
func ScanLine(line, inString string) Scan {
	var s Scan
	quote := inString
	i := 0
	for i < len(line) {
		c := line[i]
		if quote != "" {
			if c == '\\' {
				i += 2
				continue
			}
			if strings.HasPrefix(line[i:], quote) {
				i += len(quote)
				quote = ""
				continue
			}
			i++
			continue
		}
		switch c {
		case '#':
			s.Code = line[:i]
			s.Comment = line[i:]
			s.finish()
			return s
		case '"', '\'':
			if strings.HasPrefix(line[i:], `"""`) || strings.HasPrefix(line[i:], `'''`) {
				quote = line[i : i+3]
				i += 3
				continue
			}
			quote = string(c)
		case '(', '[', '{':
			s.Delta++
		case ')', ']', '}':
			s.Delta--
		}
		i++
	}
	s.Code = line
	if len(quote) == 3 {
		s.OpenString = quote
	}
	s.finish()
	return s
}

func (s *Scan) finish() {
	trimmed := strings.TrimRight(s.Code, " \t")
	s.Backslash = s.OpenString == "" && strings.HasSuffix(trimmed, `\`)
}

// OpensBlock reports whether code ends a statement with the block marker.
func OpensBlock(code string) bool {
	return strings.HasSuffix(strings.TrimRight(code, " \t"), ":")
}

// LeadingIndent returns the leading whitespace of text.
func LeadingIndent(text string) string {
	return text[:len(text)-len(strings.TrimLeft(text, " \t"))]
}

// IsIdentStart reports whether c may start an identifier.
func IsIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c >= 0x80
}

// IsIdentChar reports whether c may continue an identifier.
func IsIdentChar(c byte) bool {
	return IsIdentStart(c) || (c >= '0' && c <= '9')
}

// IsIdentifier reports whether s is a single identifier.
func IsIdentifier(s string) bool {
	if s == "" || !IsIdentStart(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		if !IsIdentChar(s[i]) {
			return false
		}
	}
	return true
}

// Token is an identifier found outside string literals.
type Token struct {
	Text       string
	Start, End int
}

// Identifiers lists identifiers of code that are not inside strings.
// Numeric literals are skipped.
func Identifiers(code string) []Token {
	var out []Token
	quote := byte(0)
	for i := 0; i < len(code); {
		c := code[i]
		if quote != 0 {
			if c == '\\' {
				i += 2
				continue
			}
			if c == quote {
				quote = 0
			}
			i++
			continue
		}
		switch {
		case c == '"' || c == '\'':
			quote = c
			i++
		case c >= '0' && c <= '9':
			for i < len(code) && IsIdentChar(code[i]) {
				i++
			}
		case IsIdentStart(c):
			start := i
			for i < len(code) && IsIdentChar(code[i]) {
				i++
			}
			out = append(out, Token{Text: code[start:i], Start: start, End: i})
		default:
			i++
		}
	}
	return out
}

// MatchParen returns the index of the bracket closing the one at open,
// or -1 when it is not closed on this line.
func MatchParen(code string, open int) int {
	depth := 0
	quote := byte(0)
	for i := open; i < len(code); i++ {
		c := code[i]
		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// SplitArgs splits a call argument list on top-level commas.
func SplitArgs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	depth := 0
	quote := byte(0)
	start := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(out, strings.TrimSpace(s[start:]))
}

// StringLiteral unquotes a simple string or StringName literal.
func StringLiteral(s string) (string, bool) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "&")
	if len(s) < 2 {
		return "", false
	}
	q := s[0]
	if (q != '"' && q != '\'') || s[len(s)-1] != q {
		return "", false
	}
	body := s[1 : len(s)-1]
	if strings.ContainsRune(body, rune(q)) || strings.Contains(body, `\`) {
		return "", false
	}
	return body, true
}

// Call is a call site found by FindCalls.
type Call struct {
	Name       string
	Start      int // first byte of the name
	Open       int // the '('
	Close      int // the matching ')'
	HasDotRecv bool
}

// Args returns the split argument list of the call.
func (c Call) Args(code string) []string {
	return SplitArgs(code[c.Open+1 : c.Close])
}

// FindCalls locates complete calls whose callee identifier satisfies match.
func FindCalls(code string, match func(name string) bool) []Call {
	var out []Call
	for _, tok := range Identifiers(code) {
		if !match(tok.Text) {
			continue
		}
		j := tok.End
		for j < len(code) && code[j] == ' ' {
			j++
		}
		if j >= len(code) || code[j] != '(' {
			continue
		}
		closeIdx := MatchParen(code, j)
		if closeIdx < 0 {
			continue
		}
		k := tok.Start - 1
		for k >= 0 && code[k] == ' ' {
			k--
		}
		out = append(out, Call{
			Name:       tok.Text,
			Start:      tok.Start,
			Open:       j,
			Close:      closeIdx,
			HasDotRecv: k >= 0 && code[k] == '.',
		})
	}
	return out
}

// FirstWord returns the leading identifier of s and the remainder.
func FirstWord(s string) (word, rest string) {
	s = strings.TrimLeft(s, " \t")
	i := 0
	for i < len(s) && IsIdentChar(s[i]) {
		i++
	}
	return s[:i], s[i:]
}
