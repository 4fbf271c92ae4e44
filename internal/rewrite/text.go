package rewrite

import (
	"strings"

	"github.com/danieljhkim/reorg/internal/model"
)

func lineStart(src string, off int) int {
	return strings.LastIndexByte(src[:off], '\n') + 1
}

// lineEnd returns the offset of the newline ending the line containing off, or
// len(src) on the last line.
func lineEnd(src string, off int) int {
	if i := strings.IndexByte(src[off:], '\n'); i >= 0 {
		return off + i
	}
	return len(src)
}

// lineIndent returns the leading whitespace of the line containing off.
func lineIndent(src string, off int) string {
	ls := lineStart(src, off)
	end := ls
	for end < len(src) && (src[end] == ' ' || src[end] == '\t') {
		end++
	}
	return src[ls:end]
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// indentUnit guesses one level of indentation for a source file.
func indentUnit(src string) string {
	for _, line := range strings.Split(src, "\n") {
		if strings.HasPrefix(line, "\t") {
			return "\t"
		}
	}
	return "    "
}

// Deindent strips indent from every line but the first. Lines indented less
// than indent lose their leading whitespace only.
func Deindent(text, indent string) string {
	if indent == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if strings.HasPrefix(lines[i], indent) {
			lines[i] = lines[i][len(indent):]
		} else {
			lines[i] = strings.TrimLeft(lines[i], " \t")
		}
	}
	return strings.Join(lines, "\n")
}

// Indent prefixes every non-empty line but the first with indent.
func Indent(text, indent string) string {
	if indent == "" {
		return text
	}
	lines := strings.Split(text, "\n")
	for i := 1; i < len(lines); i++ {
		if lines[i] != "" {
			lines[i] = indent + lines[i]
		}
	}
	return strings.Join(lines, "\n")
}

// Reindent moves text from one indentation level to another.
func Reindent(text, from, to string) string {
	return Indent(Deindent(text, from), to)
}

// CopyText returns the verbatim source of an element, de-indented to column
// zero. A fragment of a multi-declarator field is rebuilt from the shared
// modifiers and type plus its own declarator. An enum constant with a class
// body keeps its header and body.
func CopyText(e *model.Element) string {
	src := e.Unit().Source
	var doc string
	if !e.DocRange.IsZero() {
		doc = src[e.DocRange.Offset:e.DocRange.End()] + "\n"
	}
	var text string
	start := e.SourceRange().Offset
	switch {
	case e.IsFragment():
		text = doc + src[e.TypeRange.Offset:e.TypeRange.End()] + " " + src[e.Range.Offset:e.Range.End()] + ";"
		start = e.DeclRange.Offset
		if !e.DocRange.IsZero() {
			start = e.DocRange.Offset
		}
	case e.EnumConstant && len(e.Types()) == 1:
		body := e.Types()[0]
		header := strings.TrimSpace(src[e.Range.Offset:body.Range.Offset])
		text = doc + header + " " + src[body.Range.Offset:body.Range.End()]
	default:
		text = src[start:e.Range.End()]
	}
	return Deindent(text, lineIndent(src, start))
}
