package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MemberOption configures a member added to a compilation unit.
type MemberOption func(*memberOptions)

type memberOptions struct {
	marker    string
	iface     bool
	enum      bool
	anonymous bool
	inSwitch  bool
	readOnly  bool
	refs      []string
}

// At locates the member at the first occurrence of marker after the previously
// added sibling.
func At(marker string) MemberOption {
	return func(o *memberOptions) { o.marker = marker }
}

// Interface marks a type as an interface.
func Interface() MemberOption {
	return func(o *memberOptions) { o.iface = true }
}

// Enum marks a type as an enum.
func Enum() MemberOption {
	return func(o *memberOptions) { o.enum = true }
}

// Anonymous marks a type as an anonymous class body.
func Anonymous() MemberOption {
	return func(o *memberOptions) { o.anonymous = true }
}

// InSwitch marks a local type declared in a switch statement group.
func InSwitch() MemberOption {
	return func(o *memberOptions) { o.inSwitch = true }
}

// ReadOnly marks the member read-only.
func ReadOnly() MemberOption {
	return func(o *memberOptions) { o.readOnly = true }
}

// References records the fully qualified type names the member refers to.
func References(fqns ...string) MemberOption {
	return func(o *memberOptions) { o.refs = append(o.refs, fqns...) }
}

func applyOptions(opts []MemberOption) memberOptions {
	var o memberOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Err returns the annotation failures recorded while building the workspace.
func (w *Workspace) Err() error {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return errors.Join(w.errs...)
}

func (w *Workspace) fail(format string, args ...any) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errs = append(w.errs, fmt.Errorf(format, args...))
}

// AddType adds a type declared in a compilation unit, a type, or a method or
// initializer body. The default marker is "class Name", "interface Name" or
// "enum Name".
func (w *Workspace) AddType(parent *Element, name string, opts ...MemberOption) *Element {
	o := applyOptions(opts)
	t := &Element{
		Kind:       KindType,
		Name:       name,
		Parent:     parent,
		Interface:  o.iface,
		Enum:       o.enum,
		Anonymous:  o.anonymous,
		InSwitch:   o.inSwitch,
		ReadOnly:   o.readOnly,
		References: o.refs,
	}
	handleName := name
	if o.anonymous {
		t.Name = ""
		handleName = anonymousTypeName + strconv.Itoa(len(parent.ChildrenOfKind(KindType))+1)
	}
	t.Handle = w.uniqueHandle(childHandle(parent, KindType, handleName))

	marker := o.marker
	if marker == "" {
		switch {
		case o.iface:
			marker = "interface " + name
		case o.enum:
			marker = "enum " + name
		default:
			marker = "class " + name
		}
	}
	src := parent.Unit().Source
	idx, ok := w.locate(parent, marker)
	if !ok {
		w.fail("type %s: marker %q not found in %s", name, marker, parent.Handle)
		return w.register(t)
	}
	start := idx
	if !o.anonymous {
		start = declarationStart(src, idx, w.bodyStart(parent))
	}
	open := indexTopLevel(src, idx+len(marker)-1, "{")
	if open < 0 {
		w.fail("type %s: no body in %s", name, parent.Handle)
		return w.register(t)
	}
	closing := matchBrace(src, open)
	if closing < 0 {
		w.fail("type %s: unbalanced braces in %s", name, parent.Handle)
		return w.register(t)
	}
	t.Range = Range{Offset: start, Length: closing + 1 - start}
	t.BodyRange = Range{Offset: open + 1, Length: closing - open - 1}
	t.DocRange = docBefore(src, start, w.bodyStart(parent))
	if name != "" {
		if at := indexIdent(src[:open], name, idx); at >= 0 {
			t.NameRange = Range{Offset: at, Length: len(name)}
		}
	}
	w.advance(parent, t.Range.End())
	return w.register(t)
}

// AddMethod adds a method to a type. The default marker is "name(".
func (w *Workspace) AddMethod(parent *Element, name string, opts ...MemberOption) *Element {
	o := applyOptions(opts)
	m := &Element{
		Handle:     w.uniqueHandle(childHandle(parent, KindMethod, name)),
		Kind:       KindMethod,
		Name:       name,
		Parent:     parent,
		ReadOnly:   o.readOnly,
		References: o.refs,
	}
	marker := o.marker
	if marker == "" {
		marker = name + "("
	}
	src := parent.Unit().Source
	idx, ok := w.locate(parent, marker)
	if !ok {
		w.fail("method %s: marker %q not found in %s", name, marker, parent.Handle)
		return w.register(m)
	}
	start := declarationStart(src, idx, w.bodyStart(parent))
	if at := indexIdent(src, name, idx); at >= 0 {
		m.NameRange = Range{Offset: at, Length: len(name)}
	}
	paren := strings.IndexByte(src[idx:], '(')
	from := idx
	if paren >= 0 {
		if closeParen := matchPair(src, idx+paren, '(', ')'); closeParen >= 0 {
			from = closeParen + 1
		}
	}
	end := indexTopLevel(src, from, "{;")
	switch {
	case end < 0:
		w.fail("method %s: no body in %s", name, parent.Handle)
		return w.register(m)
	case src[end] == ';':
		m.Range = Range{Offset: start, Length: end + 1 - start}
	default:
		closing := matchBrace(src, end)
		if closing < 0 {
			w.fail("method %s: unbalanced braces in %s", name, parent.Handle)
			return w.register(m)
		}
		m.Range = Range{Offset: start, Length: closing + 1 - start}
		m.BodyRange = Range{Offset: end + 1, Length: closing - end - 1}
	}
	m.DocRange = docBefore(src, start, w.bodyStart(parent))
	w.advance(parent, m.Range.End())
	return w.register(m)
}

// AddInitializer adds an initializer block to a type. The default marker is "static {".
func (w *Workspace) AddInitializer(parent *Element, opts ...MemberOption) *Element {
	o := applyOptions(opts)
	name := strconv.Itoa(len(parent.ChildrenOfKind(KindInitializer)) + 1)
	init := &Element{
		Handle:     childHandle(parent, KindInitializer, name),
		Kind:       KindInitializer,
		Name:       name,
		Parent:     parent,
		ReadOnly:   o.readOnly,
		References: o.refs,
	}
	marker := o.marker
	if marker == "" {
		marker = "static {"
	}
	src := parent.Unit().Source
	idx, ok := w.locate(parent, marker)
	if !ok {
		w.fail("initializer: marker %q not found in %s", marker, parent.Handle)
		return w.register(init)
	}
	start := declarationStart(src, idx, w.bodyStart(parent))
	open := indexTopLevel(src, idx, "{")
	closing := -1
	if open >= 0 {
		closing = matchBrace(src, open)
	}
	if closing < 0 {
		w.fail("initializer: unbalanced braces in %s", parent.Handle)
		return w.register(init)
	}
	init.Range = Range{Offset: start, Length: closing + 1 - start}
	init.BodyRange = Range{Offset: open + 1, Length: closing - open - 1}
	init.DocRange = docBefore(src, start, w.bodyStart(parent))
	w.advance(parent, init.Range.End())
	return w.register(init)
}

// AddField adds a field declaration located by marker, which must start at the
// declared type (e.g. "int a"). A declaration with several declarators yields
// one fragment per declarator.
func (w *Workspace) AddField(parent *Element, marker string, opts ...MemberOption) []*Element {
	o := applyOptions(opts)
	src := parent.Unit().Source
	idx, ok := w.locate(parent, marker)
	if !ok {
		w.fail("field: marker %q not found in %s", marker, parent.Handle)
		return nil
	}
	start := declarationStart(src, idx, w.bodyStart(parent))
	semi := indexTopLevel(src, idx, ";")
	if semi < 0 {
		w.fail("field: unterminated declaration %q in %s", marker, parent.Handle)
		return nil
	}
	decl := Range{Offset: start, Length: semi + 1 - start}
	doc := docBefore(src, start, w.bodyStart(parent))
	pieces := splitTopLevel(src, idx, semi)

	// the first piece holds modifiers, type and the first declarator
	first := pieces[0]
	lhsEnd := first.End()
	if eq := indexTopLevel(src[:first.End()], first.Offset, "="); eq >= 0 {
		lhsEnd = eq
	}
	nameStart, _ := trailingIdent(src, first.Offset, lhsEnd)
	typeEnd := nameStart
	for typeEnd > start && isSpace(src[typeEnd-1]) {
		typeEnd--
	}
	pieces[0] = Range{Offset: nameStart, Length: first.End() - nameStart}

	var fields []*Element
	for _, p := range pieces {
		nameEnd := p.Offset
		for nameEnd < p.End() && isIdentChar(src[nameEnd]) {
			nameEnd++
		}
		name := src[p.Offset:nameEnd]
		f := &Element{
			Handle:     w.uniqueHandle(childHandle(parent, KindField, name)),
			Kind:       KindField,
			Name:       name,
			Parent:     parent,
			ReadOnly:   o.readOnly,
			References: o.refs,
			DocRange:   doc,
			NameRange:  Range{Offset: p.Offset, Length: nameEnd - p.Offset},
			DeclRange:  decl,
			TypeRange:  Range{Offset: start, Length: typeEnd - start},
			Range:      decl,
		}
		if len(pieces) > 1 {
			f.Range = p
		}
		fields = append(fields, w.register(f))
	}
	w.advance(parent, decl.End())
	return fields
}

// AddEnumConstant adds an enum constant. A constant with a class body gets an
// anonymous type child covering that body.
func (w *Workspace) AddEnumConstant(enum *Element, name string, opts ...MemberOption) *Element {
	o := applyOptions(opts)
	c := &Element{
		Handle:       w.uniqueHandle(childHandle(enum, KindField, name)),
		Kind:         KindField,
		Name:         name,
		Parent:       enum,
		EnumConstant: true,
		ReadOnly:     o.readOnly,
		References:   o.refs,
	}
	src := enum.Unit().Source
	from := w.searchFrom(enum)
	end := enum.BodyRange.End()
	at := indexIdent(src[:end], name, from)
	if at < 0 {
		w.fail("enum constant %s not found in %s", name, enum.Handle)
		return w.register(c)
	}
	c.NameRange = Range{Offset: at, Length: len(name)}
	pos := skipSpace(src, at+len(name))
	if pos < end && src[pos] == '(' {
		if closeParen := matchPair(src, pos, '(', ')'); closeParen >= 0 {
			pos = skipSpace(src, closeParen+1)
		}
	}
	var body *Element
	stop := at + len(name)
	if pos < end && src[pos] == '{' {
		closing := matchBrace(src, pos)
		if closing < 0 {
			w.fail("enum constant %s: unbalanced braces", name)
			return w.register(c)
		}
		body = &Element{
			Kind:      KindType,
			Parent:    c,
			Anonymous: true,
			Range:     Range{Offset: pos, Length: closing + 1 - pos},
			BodyRange: Range{Offset: pos + 1, Length: closing - pos - 1},
		}
		stop = closing + 1
	} else if pos > stop {
		stop = pos
		for stop > at && isSpace(src[stop-1]) {
			stop--
		}
	}
	c.Range = Range{Offset: at, Length: stop - at}
	c.DocRange = docBefore(src, at, enum.BodyRange.Offset)
	w.advance(enum, c.Range.End())
	w.register(c)
	if body != nil {
		body.Handle = childHandle(c, KindType, anonymousTypeName+"1")
		w.register(body)
	}
	return c
}

func (w *Workspace) uniqueHandle(h string) string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if _, taken := w.elements[h]; !taken {
		return h
	}
	for n := 2; ; n++ {
		candidate := h + "!" + strconv.Itoa(n)
		if _, taken := w.elements[candidate]; !taken {
			return candidate
		}
	}
}

func (w *Workspace) bodyStart(parent *Element) int {
	if parent.Kind == KindCompilationUnit {
		return 0
	}
	return parent.BodyRange.Offset
}

func (w *Workspace) bodyEnd(parent *Element) int {
	if parent.Kind == KindCompilationUnit {
		return len(parent.Source)
	}
	return parent.BodyRange.End()
}

func (w *Workspace) searchFrom(parent *Element) int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	from := w.bodyStart(parent)
	if c, ok := w.cursors[parent]; ok && c > from {
		from = c
	}
	return from
}

func (w *Workspace) advance(parent *Element, to int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cursors[parent] = to
}

func (w *Workspace) locate(parent *Element, marker string) (int, bool) {
	unit := parent.Unit()
	if unit == nil {
		return 0, false
	}
	from := w.searchFrom(parent)
	end := w.bodyEnd(parent)
	if from > end {
		return 0, false
	}
	idx := strings.Index(unit.Source[from:end], marker)
	if idx < 0 {
		return 0, false
	}
	return from + idx, true
}

// annotateHeader registers the package declaration and imports of a unit.
func (w *Workspace) annotateHeader(unit *Element) {
	src := unit.Source
	var imports []*Element
	for off := 0; off < len(src); {
		lineEnd := strings.IndexByte(src[off:], '\n')
		next := len(src)
		if lineEnd >= 0 {
			next = off + lineEnd + 1
		}
		line := src[off:next]
		trimmed := strings.TrimSpace(line)
		lead := off + strings.Index(line, trimmed)
		semi := strings.IndexByte(trimmed, ';')
		switch {
		case strings.HasPrefix(trimmed, "package ") && semi > 0:
			name := strings.TrimSpace(trimmed[len("package "):semi])
			w.register(&Element{
				Handle: childHandle(unit, KindPackageDeclaration, name),
				Kind:   KindPackageDeclaration,
				Name:   name,
				Parent: unit,
				Range:  Range{Offset: lead, Length: semi + 1},
			})
		case strings.HasPrefix(trimmed, "import ") && semi > 0:
			name := strings.TrimSpace(trimmed[len("import "):semi])
			name = strings.TrimSpace(strings.TrimPrefix(name, "static "))
			imports = append(imports, &Element{
				Kind:  KindImportDeclaration,
				Name:  name,
				Range: Range{Offset: lead, Length: semi + 1},
			})
		case strings.Contains(trimmed, "{"):
			off = len(src)
			continue
		}
		off = next
	}
	if len(imports) == 0 {
		return
	}
	container := w.register(&Element{
		Handle: childHandle(unit, KindImportContainer, ""),
		Kind:   KindImportContainer,
		Parent: unit,
		Range: Range{
			Offset: imports[0].Range.Offset,
			Length: imports[len(imports)-1].Range.End() - imports[0].Range.Offset,
		},
	})
	for _, imp := range imports {
		imp.Parent = container
		imp.Handle = childHandle(container, KindImportDeclaration, imp.Name)
		w.register(imp)
	}
	w.advance(unit, container.Range.End())
}

// declarationStart walks back from a marker over modifiers, annotations and
// type text to the start of the declaration.
func declarationStart(src string, idx, floor int) int {
	start := idx
	for start > floor && isDeclChar(src[start-1]) {
		start--
	}
	for {
		for start < idx && isSpace(src[start]) {
			start++
		}
		ls := strings.LastIndexByte(src[:start], '\n') + 1
		if ls < floor {
			ls = floor
		}
		if !strings.Contains(src[ls:start], "//") {
			return start
		}
		// the walk crossed into a line comment
		nl := strings.IndexByte(src[start:idx], '\n')
		if nl < 0 {
			return idx
		}
		start += nl + 1
	}
}

func isDeclChar(c byte) bool {
	if isIdentChar(c) || isSpace(c) {
		return true
	}
	switch c {
	case '@', '<', '>', ',', '[', ']', '.', '?':
		return true
	}
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func skipSpace(src string, pos int) int {
	for pos < len(src) && isSpace(src[pos]) {
		pos++
	}
	return pos
}

// docBefore returns the range of a "/** */" comment directly preceding start.
func docBefore(src string, start, floor int) Range {
	j := start
	for j > floor && isSpace(src[j-1]) {
		j--
	}
	if j-2 < floor || src[j-2:j] != "*/" {
		return Range{}
	}
	k := strings.LastIndex(src[:j-2], "/**")
	if k < floor {
		return Range{}
	}
	return Range{Offset: k, Length: j - k}
}

// indexIdent finds name at identifier boundaries at or after from.
func indexIdent(src, name string, from int) int {
	for from <= len(src)-len(name) {
		i := strings.Index(src[from:], name)
		if i < 0 {
			return -1
		}
		at := from + i
		end := at + len(name)
		if (at == 0 || !isIdentChar(src[at-1])) && (end >= len(src) || !isIdentChar(src[end])) {
			return at
		}
		from = at + 1
	}
	return -1
}

// trailingIdent returns the bounds of the last identifier before end.
func trailingIdent(src string, from, end int) (int, int) {
	for end > from && (isSpace(src[end-1]) || src[end-1] == ']' || src[end-1] == '[') {
		end--
	}
	start := end
	for start > from && isIdentChar(src[start-1]) {
		start--
	}
	return start, end
}

// scanner skips string literals and comments while walking source text.
type scanner struct {
	src string
	pos int
}

// next advances past the current character, string or comment and reports the
// code character it stepped over, or 0 for skipped text.
func (s *scanner) next() byte {
	c := s.src[s.pos]
	switch {
	case c == '"' || c == '\'':
		s.pos++
		for s.pos < len(s.src) && s.src[s.pos] != c {
			if s.src[s.pos] == '\\' {
				s.pos++
			}
			s.pos++
		}
		s.pos++
		return 0
	case c == '/' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '/':
		if nl := strings.IndexByte(s.src[s.pos:], '\n'); nl >= 0 {
			s.pos += nl
		} else {
			s.pos = len(s.src)
		}
		return 0
	case c == '/' && s.pos+1 < len(s.src) && s.src[s.pos+1] == '*':
		if end := strings.Index(s.src[s.pos+2:], "*/"); end >= 0 {
			s.pos += end + 4
		} else {
			s.pos = len(s.src)
		}
		return 0
	}
	s.pos++
	return c
}

func matchBrace(src string, open int) int {
	return matchPair(src, open, '{', '}')
}

func matchPair(src string, open int, left, right byte) int {
	depth := 0
	s := scanner{src: src, pos: open}
	for s.pos < len(src) {
		at := s.pos
		switch s.next() {
		case left:
			depth++
		case right:
			depth--
			if depth == 0 {
				return at
			}
		}
	}
	return -1
}

// indexTopLevel returns the first character of chars at nesting depth zero.
func indexTopLevel(src string, from int, chars string) int {
	depth := 0
	s := scanner{src: src, pos: from}
	for s.pos < len(src) {
		at := s.pos
		c := s.next()
		if c == 0 {
			continue
		}
		if depth == 0 && strings.IndexByte(chars, c) >= 0 {
			return at
		}
		switch c {
		case '(', '[':
			depth++
		case ')', ']':
			depth--
		case '{':
			depth++
		case '}':
			if depth == 0 {
				return -1
			}
			depth--
		}
	}
	return -1
}

// splitTopLevel splits [from, end) on commas outside brackets and generic type
// arguments, returning trimmed pieces.
func splitTopLevel(src string, from, end int) []Range {
	var pieces []Range
	depth, angle := 0, 0
	assigned := false
	pieceStart := from
	s := scanner{src: src[:end], pos: from}
	emit := func(to int) {
		a, b := pieceStart, to
		for a < b && isSpace(src[a]) {
			a++
		}
		for b > a && isSpace(src[b-1]) {
			b--
		}
		pieces = append(pieces, Range{Offset: a, Length: b - a})
	}
	for s.pos < end {
		at := s.pos
		switch s.next() {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '<':
			if !assigned {
				angle++
			}
		case '>':
			if !assigned && angle > 0 {
				angle--
			}
		case '=':
			if depth == 0 {
				assigned = true
			}
		case ',':
			if depth == 0 && angle == 0 {
				emit(at)
				pieceStart = at + 1
				assigned = false
			}
		}
	}
	emit(end)
	return pieces
}
