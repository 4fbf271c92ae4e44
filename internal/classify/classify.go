// Package classify reduces a raw selection to its canonical form.
package classify

import "github.com/danieljhkim/reorg/internal/model"

// Result is a canonical selection: deduplicated elements and resources in
// their original order.
type Result struct {
	Elements  []*model.Element
	Resources []*model.Resource
}

// IsEmpty reports whether nothing is selected.
func (r Result) IsEmpty() bool {
	return len(r.Elements) == 0 && len(r.Resources) == 0
}

// Selection canonicalizes a raw selection. Nil entries and duplicates are
// dropped. A top-level type that is the only type of its compilation unit is
// replaced by the unit, and an element below another selected element is
// dropped. A resource whose element was selected is dropped as well.
func Selection(elements []*model.Element, resources []*model.Resource) Result {
	var candidates []*model.Element
	seen := make(map[*model.Element]bool, len(elements))
	for _, e := range elements {
		if e == nil {
			continue
		}
		if unit := soleTypeUnit(e); unit != nil {
			e = unit
		}
		if seen[e] {
			continue
		}
		seen[e] = true
		candidates = append(candidates, e)
	}

	var out Result
	for _, e := range candidates {
		if !hasSelectedAncestor(e, seen) {
			out.Elements = append(out.Elements, e)
		}
	}
	seenRes := make(map[*model.Resource]bool, len(resources))
	for _, r := range resources {
		if r == nil || seenRes[r] {
			continue
		}
		seenRes[r] = true
		if r.Element != nil && seen[r.Element] {
			continue
		}
		out.Resources = append(out.Resources, r)
	}
	return out
}

func hasSelectedAncestor(e *model.Element, selected map[*model.Element]bool) bool {
	for cur := e.Parent; cur != nil; cur = cur.Parent {
		if selected[cur] {
			return true
		}
	}
	return false
}

// soleTypeUnit returns the unit of a top-level type that is the only type of
// that unit.
func soleTypeUnit(e *model.Element) *model.Element {
	if e.Kind != model.KindType || e.Parent == nil || e.Parent.Kind != model.KindCompilationUnit {
		return nil
	}
	if len(e.Parent.Types()) != 1 {
		return nil
	}
	return e.Parent
}
