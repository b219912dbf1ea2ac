package domain

import "strings"

// Scope describes what encloses a line after block repair.
type Scope uint8

const (
	// ScopeFile means no enclosing block.
	ScopeFile Scope = iota
	// ScopeMethod means the line sits inside a method body.
	ScopeMethod
	// ScopeClass means the line sits in an inner class, outside its methods.
	ScopeClass
	// ScopeBlock means the line sits in a block opened outside any method.
	ScopeBlock
)

// Line is one physical line of a script.
type Line struct {
	// Number is the 1-based position in the input, 0 for synthesized lines.
	Number   int
	Original string
	Text     string
	Depth    int
	Category Category

	// Continuation is set when the line continues an open bracket, a
	// backslash or a multiline string from the line above.
	Continuation bool
	// InString is set on continuation lines inside a multiline string.
	InString bool
	// Opens is set on the first line of a statement that ends in ':'.
	Opens bool
	// Annotation is set on a line holding only annotations.
	Annotation bool
	Scope      Scope
}

// IndentUnit is the indentation step used by a file.
type IndentUnit struct {
	Tab   bool
	Width int
}

// TabIndent is the engine default.
var TabIndent = IndentUnit{Tab: true, Width: 1}

// IsZero reports whether the unit has not been detected yet.
func (u IndentUnit) IsZero() bool {
	return !u.Tab && u.Width == 0
}

// Prefix returns the whitespace for depth levels.
func (u IndentUnit) Prefix(depth int) string {
	if depth <= 0 {
		return ""
	}
	if u.Tab || u.Width <= 0 {
		return strings.Repeat("\t", depth)
	}
	return strings.Repeat(" ", depth*u.Width)
}

// Depth counts indentation levels in the leading whitespace of text.
// Partial space runs round up so a two-space slip still reads as nested.
func (u IndentUnit) Depth(text string) int {
	tabs, spaces := 0, 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '\t':
			tabs++
		case ' ':
			spaces++
		default:
			return tabs + u.spaceLevels(spaces)
		}
	}
	return 0
}

func (u IndentUnit) spaceLevels(spaces int) int {
	if spaces == 0 {
		return 0
	}
	w := u.Width
	if u.Tab || w <= 0 {
		w = 4
	}
	return (spaces + w - 1) / w
}

// Reindent replaces the leading whitespace of text with depth levels.
func (u IndentUnit) Reindent(text string, depth int) string {
	return u.Prefix(depth) + strings.TrimLeft(text, " \t")
}

// SourceFile is one script moving through the pipeline.
type SourceFile struct {
	Path   string
	Lines  []*Line
	Report *TransformReport
	Indent IndentUnit

	// Suppressed maps names declared only by suppressed code to the line
	// number that declared them.
	Suppressed map[string]int

	TrailingNewline bool
	CRLF            bool

	// BOM is set when the content started with a UTF-8 byte order mark.
	BOM bool
}

const byteOrderMark = "\ufeff"

// NewSourceFile splits content into lines.
func NewSourceFile(path, content string) *SourceFile {
	sf := &SourceFile{
		Path:       path,
		Report:     NewTransformReport(),
		Suppressed: make(map[string]int),
	}
	if strings.HasPrefix(content, byteOrderMark) {
		sf.BOM = true
		content = content[len(byteOrderMark):]
	}
	if strings.Contains(content, "\r\n") {
		sf.CRLF = true
		content = strings.ReplaceAll(content, "\r\n", "\n")
	}
	if content == "" {
		return sf
	}
	if strings.HasSuffix(content, "\n") {
		sf.TrailingNewline = true
		content = content[:len(content)-1]
	}
	for i, text := range strings.Split(content, "\n") {
		sf.Lines = append(sf.Lines, &Line{Number: i + 1, Original: text, Text: text})
	}
	return sf
}

// Texts returns the current text of every line.
func (sf *SourceFile) Texts() []string {
	out := make([]string, len(sf.Lines))
	for i, l := range sf.Lines {
		out[i] = l.Text
	}
	return out
}

// Categories returns the category sequence of the file.
func (sf *SourceFile) Categories() []Category {
	out := make([]Category, len(sf.Lines))
	for i, l := range sf.Lines {
		out[i] = l.Category
	}
	return out
}

// Render joins the lines back into file content.
func (sf *SourceFile) Render() string {
	var out string
	if len(sf.Lines) > 0 {
		nl := "\n"
		if sf.CRLF {
			nl = "\r\n"
		}
		out = strings.Join(sf.Texts(), nl)
		if sf.TrailingNewline {
			out += nl
		}
	}
	if sf.BOM {
		out = byteOrderMark + out
	}
	return out
}
