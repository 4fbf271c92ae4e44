package change

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/danieljhkim/reorg/internal/status"
)

// TextEdit replaces Length bytes at Offset with Text. A zero Length inserts.
type TextEdit struct {
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	Text   string `json:"text"`
}

// End returns the offset one past the replaced range.
func (e TextEdit) End() int {
	return e.Offset + e.Length
}

// SortEdits orders edits by offset. Insertions sort before a replacement at the
// same offset and otherwise keep their relative order.
func SortEdits(edits []TextEdit) []TextEdit {
	sorted := append([]TextEdit(nil), edits...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Offset != sorted[j].Offset {
			return sorted[i].Offset < sorted[j].Offset
		}
		return sorted[i].Length == 0 && sorted[j].Length != 0
	})
	return sorted
}

// ApplyEdits applies edits to source. Overlapping edits are rejected.
func ApplyEdits(source string, edits []TextEdit) (string, error) {
	sorted := SortEdits(edits)
	var b strings.Builder
	pos := 0
	for _, e := range sorted {
		if e.Offset < 0 || e.End() > len(source) {
			return "", fmt.Errorf("%w: edit [%d,%d) outside of text of length %d", status.ErrInvariant, e.Offset, e.End(), len(source))
		}
		if e.Offset < pos {
			return "", fmt.Errorf("%w: overlapping edit at offset %d", status.ErrInvariant, e.Offset)
		}
		b.WriteString(source[pos:e.Offset])
		b.WriteString(e.Text)
		pos = e.End()
	}
	b.WriteString(source[pos:])
	return b.String(), nil
}

// Preview renders a line diff between before and after, prefixing added lines
// with "+", removed lines with "-" and unchanged lines with a space.
func Preview(path, before, after string) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(before, after)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var out strings.Builder
	fmt.Fprintf(&out, "--- %s\n+++ %s\n", path, path)
	for _, d := range diffs {
		prefix := " "
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			prefix = "+"
		case diffmatchpatch.DiffDelete:
			prefix = "-"
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			out.WriteString(prefix)
			out.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				out.WriteString("\n")
			}
		}
	}
	return out.String()
}
