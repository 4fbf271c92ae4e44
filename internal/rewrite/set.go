package rewrite

import (
	"fmt"
	"strings"

	"github.com/danieljhkim/reorg/internal/model"
)

// SourceFunc loads the text of a compilation unit.
type SourceFunc func(unit *model.Element) (string, error)

// Set hands out one script per unit, so a unit that is both source and
// destination of an operation is rewritten by a single script.
type Set struct {
	source SourceFunc
	byUnit map[*model.Element]*Script
	order  []*Script
}

// NewSet creates an empty script set.
func NewSet(source SourceFunc) *Set {
	return &Set{source: source, byUnit: make(map[*model.Element]*Script)}
}

// For returns the script of unit, creating it on first use.
func (s *Set) For(unit *model.Element) (*Script, error) {
	if sc, ok := s.byUnit[unit]; ok {
		return sc, nil
	}
	src, err := s.source(unit)
	if err != nil {
		return nil, fmt.Errorf("failed to read source of %s: %w", unit.Handle, err)
	}
	sc := NewScript(unit, src)
	s.byUnit[unit] = sc
	s.order = append(s.order, sc)
	return sc, nil
}

// Scripts returns the scripts in creation order.
func (s *Set) Scripts() []*Script {
	return append([]*Script(nil), s.order...)
}

// MissingImports returns the referenced types that are not visible in unit:
// not in java.lang, not in the unit's package, not declared by the unit and
// not imported by name or on demand.
func MissingImports(unit *model.Element, refs []string) []string {
	pkg := ""
	if p := unit.Package(); p != nil {
		pkg = p.Name
	}
	imported := make(map[string]bool)
	for _, imp := range unit.Imports() {
		imported[imp.Name] = true
	}
	declared := make(map[string]bool)
	for _, t := range unit.Types() {
		declared[t.FullyQualifiedName()] = true
	}

	var missing []string
	seen := make(map[string]bool)
	for _, ref := range refs {
		dot := strings.LastIndexByte(ref, '.')
		if dot < 0 || seen[ref] {
			continue
		}
		seen[ref] = true
		refPkg := ref[:dot]
		switch {
		case refPkg == "java.lang", refPkg == pkg:
		case declared[ref], imported[ref], imported[refPkg+".*"]:
		default:
			missing = append(missing, ref)
		}
	}
	return missing
}

// References collects the type references of e and all its descendants.
func References(e *model.Element) []string {
	var refs []string
	var visit func(*model.Element)
	visit = func(cur *model.Element) {
		refs = append(refs, cur.References...)
		for _, c := range cur.Children {
			visit(c)
		}
	}
	visit(e)
	return refs
}
