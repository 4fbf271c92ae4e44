// Package rewrite stages source edits for members relocated between
// compilation units.
//
// A Script collects insertions keyed by (parent, list property, index) and
// removals of existing elements for one unit, then resolves them to text
// edits. Placement is line based: whole-line declarations are inserted and
// removed as whole lines, re-indented to the destination.
package rewrite

import (
	"fmt"
	"sort"
	"strings"

	"github.com/danieljhkim/reorg/internal/change"
	"github.com/danieljhkim/reorg/internal/model"
	"github.com/danieljhkim/reorg/internal/status"
)

// Property names a child list of a declaration.
type Property int

const (
	BodyDeclarations Property = iota + 1
	EnumConstants
	Types
	Imports
	Statements
	SwitchStatements
	AnonymousBody
	PackageDeclaration
)

func (p Property) String() string {
	switch p {
	case BodyDeclarations:
		return "bodyDeclarations"
	case EnumConstants:
		return "enumConstants"
	case Types:
		return "types"
	case Imports:
		return "imports"
	case Statements:
		return "statements"
	case SwitchStatements:
		return "switchStatements"
	case AnonymousBody:
		return "anonymousBody"
	case PackageDeclaration:
		return "packageDeclaration"
	default:
		return "unknown"
	}
}

// Key addresses an insertion point.
type Key struct {
	Parent   string
	Property Property
	Index    int
}

// Script is the edit script of one compilation unit.
type Script struct {
	Unit   *model.Element
	Source string

	inserts []staged
	removed []*model.Element
	imports []string
	unit    string
}

type staged struct {
	key  Key
	edit change.TextEdit
}

// NewScript creates an empty script for unit.
func NewScript(unit *model.Element, source string) *Script {
	return &Script{Unit: unit, Source: source, unit: indentUnit(source)}
}

// IsEmpty reports whether nothing has been staged.
func (s *Script) IsEmpty() bool {
	return len(s.inserts) == 0 && len(s.removed) == 0 && len(s.imports) == 0
}

// Keys returns the insertion keys in staging order.
func (s *Script) Keys() []Key {
	keys := make([]Key, len(s.inserts))
	for i, in := range s.inserts {
		keys[i] = in.key
	}
	return keys
}

// Items returns the elements of parent's list property in source order. The
// fragments of one field declaration count as one item.
func Items(parent *model.Element, prop Property) []*model.Element {
	switch prop {
	case BodyDeclarations, AnonymousBody:
		var out []*model.Element
		decls := make(map[model.Range]bool)
		for _, c := range parent.ChildrenOfKind(model.KindType, model.KindField, model.KindMethod, model.KindInitializer) {
			if c.EnumConstant {
				continue
			}
			if c.IsFragment() {
				if decls[c.DeclRange] {
					continue
				}
				decls[c.DeclRange] = true
			}
			out = append(out, c)
		}
		return out
	case EnumConstants:
		var out []*model.Element
		for _, c := range parent.ChildrenOfKind(model.KindField) {
			if c.EnumConstant {
				out = append(out, c)
			}
		}
		return out
	case Types:
		return parent.Types()
	case Imports:
		if parent.Kind == model.KindImportContainer {
			return parent.ChildrenOfKind(model.KindImportDeclaration)
		}
		return parent.Imports()
	case Statements:
		return parent.Types()
	case SwitchStatements:
		var out []*model.Element
		for _, t := range parent.Types() {
			if t.InSwitch {
				out = append(out, t)
			}
		}
		return out
	case PackageDeclaration:
		if pd := parent.PackageDeclaration(); pd != nil {
			return []*model.Element{pd}
		}
	}
	return nil
}

// span returns the range an item occupies, including its doc comment. A
// fragment stands for its whole declaration.
func span(e *model.Element) model.Range {
	r := e.Range
	if e.IsFragment() {
		r = e.DeclRange
	}
	if !e.DocRange.IsZero() && e.DocRange.Offset < r.Offset {
		return model.Range{Offset: e.DocRange.Offset, Length: r.End() - e.DocRange.Offset}
	}
	return r
}

// Insert stages text into parent's list property before index. An index equal
// to the list length appends.
func (s *Script) Insert(parent *model.Element, prop Property, index int, text string) error {
	items := Items(parent, prop)
	if index < 0 || index > len(items) {
		return fmt.Errorf("%w: index %d out of range for %s of %s", status.ErrInvariant, index, prop, parent.Handle)
	}
	var edit change.TextEdit
	switch {
	case prop == EnumConstants:
		edit = s.insertConstant(parent, items, index, text)
	case prop == PackageDeclaration && len(items) > 0:
		pd := items[0]
		edit = change.TextEdit{Offset: pd.Range.Offset, Length: pd.Range.Length, Text: text}
	case prop == PackageDeclaration:
		edit = change.TextEdit{Offset: 0, Text: text + "\n\n"}
	case index < len(items):
		edit = s.insertBefore(items[index], spaced(prop), text)
	case len(items) > 0:
		edit = s.insertAfter(items[len(items)-1], text)
	default:
		edit = s.insertEmpty(parent, prop, text)
	}
	key := Key{Parent: parent.Handle, Property: prop, Index: index}
	// consecutive declarations appended at one point are kept apart
	if index == len(items) && spaced(prop) && !(prop == Types && len(items) == 0) &&
		strings.HasSuffix(edit.Text, "\n") && s.hasInsert(key) {
		edit.Text = "\n" + edit.Text
	}
	s.inserts = append(s.inserts, staged{key: key, edit: edit})
	return nil
}

// spaced reports whether declarations of prop are separated by blank lines.
func spaced(prop Property) bool {
	return prop == BodyDeclarations || prop == AnonymousBody || prop == Types
}

func (s *Script) hasInsert(key Key) bool {
	for _, in := range s.inserts {
		if in.key == key {
			return true
		}
	}
	return false
}

// insertBefore places text on its own lines above item. When sep is set and a
// blank line precedes item, one follows the inserted text as well.
func (s *Script) insertBefore(item *model.Element, sep bool, text string) change.TextEdit {
	start := span(item).Offset
	ls := lineStart(s.Source, start)
	indent := lineIndent(s.Source, start)
	if isBlank(s.Source[ls:start]) {
		tail := "\n"
		if sep && ls > 0 && isBlank(s.Source[lineStart(s.Source, ls-1):ls]) {
			tail = "\n\n"
		}
		return change.TextEdit{Offset: ls, Text: indent + Indent(text, indent) + tail}
	}
	return change.TextEdit{Offset: start, Text: Indent(text, indent) + " "}
}

func (s *Script) insertAfter(item *model.Element, text string) change.TextEdit {
	r := span(item)
	end := r.End()
	le := lineEnd(s.Source, end)
	indent := lineIndent(s.Source, r.Offset)
	if !isBlank(s.Source[end:le]) {
		return change.TextEdit{Offset: end, Text: " " + Indent(text, indent)}
	}
	if le == len(s.Source) {
		return change.TextEdit{Offset: le, Text: "\n" + indent + Indent(text, indent)}
	}
	return change.TextEdit{Offset: le + 1, Text: indent + Indent(text, indent) + "\n"}
}

func (s *Script) insertEmpty(parent *model.Element, prop Property, text string) change.TextEdit {
	switch prop {
	case Types:
		if s.Source == "" {
			return change.TextEdit{Text: text + "\n"}
		}
		prefix := "\n"
		if !strings.HasSuffix(s.Source, "\n") {
			prefix = "\n\n"
		}
		return change.TextEdit{Offset: len(s.Source), Text: prefix + text + "\n"}
	case Imports:
		unit := parent.Unit()
		if pd := unit.PackageDeclaration(); pd != nil {
			le := lineEnd(s.Source, pd.Range.End())
			if le == len(s.Source) {
				return change.TextEdit{Offset: le, Text: "\n\n" + text}
			}
			return change.TextEdit{Offset: le + 1, Text: "\n" + text + "\n"}
		}
		return change.TextEdit{Offset: 0, Text: text + "\n"}
	}

	body := parent.BodyRange
	closing := body.End()
	ls := lineStart(s.Source, closing)
	if ls > body.Offset && isBlank(s.Source[ls:closing]) {
		indent := s.Source[ls:closing] + s.unit
		return change.TextEdit{Offset: ls, Text: indent + Indent(text, indent) + "\n"}
	}
	braceIndent := lineIndent(s.Source, closing)
	indent := braceIndent + s.unit
	return change.TextEdit{
		Offset: closing,
		Text:   "\n" + indent + Indent(text, indent) + "\n" + braceIndent,
	}
}

func (s *Script) insertConstant(enum *model.Element, constants []*model.Element, index int, text string) change.TextEdit {
	switch {
	case index < len(constants):
		return change.TextEdit{Offset: constants[index].Range.Offset, Text: text + ", "}
	case len(constants) > 0:
		return change.TextEdit{Offset: constants[len(constants)-1].Range.End(), Text: ", " + text}
	}
	text = " " + text
	if len(Items(enum, BodyDeclarations)) > 0 {
		text += ";"
	}
	return change.TextEdit{Offset: enum.BodyRange.Offset, Text: text}
}

// Remove stages the removal of an existing element of the unit.
func (s *Script) Remove(e *model.Element) {
	for _, r := range s.removed {
		if r == e {
			return
		}
	}
	s.removed = append(s.removed, e)
}

// AddImport stages an import declaration for a fully qualified type name.
func (s *Script) AddImport(fqn string) {
	for _, imp := range s.imports {
		if imp == fqn {
			return
		}
	}
	s.imports = append(s.imports, fqn)
}

// PendingImports returns the staged import names.
func (s *Script) PendingImports() []string {
	return append([]string(nil), s.imports...)
}

// Edits resolves the script to non-overlapping text edits in offset order.
func (s *Script) Edits() ([]change.TextEdit, error) {
	var edits []change.TextEdit
	for _, in := range s.inserts {
		edits = append(edits, in.edit)
	}
	if len(s.imports) > 0 {
		names := append([]string(nil), s.imports...)
		sort.Strings(names)
		lines := make([]string, len(names))
		for i, n := range names {
			lines[i] = "import " + n + ";"
		}
		text := strings.Join(lines, "\n")
		if imports := s.Unit.Imports(); len(imports) > 0 {
			edits = append(edits, s.insertAfter(imports[len(imports)-1], text))
		} else {
			edits = append(edits, s.insertEmpty(s.Unit, Imports, text))
		}
	}
	edits = append(edits, s.removals()...)

	sorted := change.SortEdits(edits)
	if _, err := change.ApplyEdits(s.Source, sorted); err != nil {
		return nil, fmt.Errorf("failed to resolve edits for %s: %w", s.Unit.Handle, err)
	}
	return sorted, nil
}

// Apply returns the rewritten source.
func (s *Script) Apply() (string, error) {
	edits, err := s.Edits()
	if err != nil {
		return "", err
	}
	return change.ApplyEdits(s.Source, edits)
}

func (s *Script) removals() []change.TextEdit {
	removed := make(map[*model.Element]bool, len(s.removed))
	for _, e := range s.removed {
		removed[e] = true
	}
	covered := func(e *model.Element) bool {
		for cur := e.Parent; cur != nil; cur = cur.Parent {
			if removed[cur] {
				return true
			}
		}
		return false
	}

	var edits []change.TextEdit
	var lines []model.Range
	lists := make(map[string]bool)
	for _, e := range s.removed {
		if covered(e) {
			continue
		}
		switch {
		case e.IsFragment():
			key := fmt.Sprintf("%s@%d", e.Parent.Handle, e.DeclRange.Offset)
			if lists[key] {
				continue
			}
			lists[key] = true
			fragments := e.Fragments()
			if allRemoved(fragments, removed) {
				lines = append(lines, span(e))
			} else {
				edits = append(edits, removeFromList(fragments, removed)...)
			}
		case e.EnumConstant:
			key := e.Parent.Handle + "@constants"
			if lists[key] {
				continue
			}
			lists[key] = true
			edits = append(edits, removeFromList(Items(e.Parent, EnumConstants), removed)...)
		default:
			lines = append(lines, span(e))
		}
	}
	for _, r := range s.joinBlank(lines) {
		edits = append(edits, s.removeLines(r))
	}
	return edits
}

// joinBlank merges ranges separated only by whitespace, so that removing
// neighbouring declarations does not claim the blank line between them twice.
func (s *Script) joinBlank(ranges []model.Range) []model.Range {
	sort.Slice(ranges, func(i, j int) bool { return ranges[i].Offset < ranges[j].Offset })
	var out []model.Range
	for _, r := range ranges {
		if n := len(out); n > 0 {
			last := &out[n-1]
			if r.Offset <= last.End() || isBlank(s.Source[last.End():r.Offset]) {
				if end := r.End(); end > last.End() {
					last.Length = end - last.Offset
				}
				continue
			}
		}
		out = append(out, r)
	}
	return out
}

func allRemoved(items []*model.Element, removed map[*model.Element]bool) bool {
	for _, it := range items {
		if !removed[it] {
			return false
		}
	}
	return true
}

// removeLines deletes r, taking its whole lines when nothing else shares them.
func (s *Script) removeLines(r model.Range) change.TextEdit {
	ls := lineStart(s.Source, r.Offset)
	le := lineEnd(s.Source, r.End())
	if isBlank(s.Source[ls:r.Offset]) && isBlank(s.Source[r.End():le]) {
		if le < len(s.Source) {
			le++
		}
		// do not leave two blank lines, or a blank line before a closing brace
		if ls > 0 && le < len(s.Source) {
			prev := lineStart(s.Source, ls-1)
			next := lineEnd(s.Source, le)
			following := strings.TrimSpace(s.Source[le:next])
			switch {
			case !isBlank(s.Source[prev:ls]):
			case following == "" && next < len(s.Source):
				le = next + 1
			case strings.HasPrefix(following, "}"):
				ls = prev
			}
		}
		return change.TextEdit{Offset: ls, Length: le - ls}
	}
	return change.TextEdit{Offset: r.Offset, Length: r.Length}
}

// removeFromList deletes runs of removed items from a comma separated list,
// taking the separator that follows a run, or the one preceding a trailing run.
func removeFromList(items []*model.Element, removed map[*model.Element]bool) []change.TextEdit {
	var edits []change.TextEdit
	for i := 0; i < len(items); {
		if !removed[items[i]] {
			i++
			continue
		}
		j := i
		for j < len(items) && removed[items[j]] {
			j++
		}
		switch {
		case j < len(items):
			start := items[i].Range.Offset
			edits = append(edits, change.TextEdit{Offset: start, Length: items[j].Range.Offset - start})
		case i > 0:
			start := items[i-1].Range.End()
			edits = append(edits, change.TextEdit{Offset: start, Length: items[j-1].Range.End() - start})
		default:
			start := items[0].Range.Offset
			edits = append(edits, change.TextEdit{Offset: start, Length: items[j-1].Range.End() - start})
		}
		i = j
	}
	return edits
}
