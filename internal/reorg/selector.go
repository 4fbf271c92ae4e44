package reorg

import (
	"github.com/danieljhkim/reorg/internal/classify"
	"github.com/danieljhkim/reorg/internal/model"
)

// NewCopyPolicy chooses the copy policy for a raw selection.
func NewCopyPolicy(m model.Model, elements []*model.Element, resources []*model.Resource, opts ...Option) *Policy {
	return selectPolicy(OpCopy, m, elements, resources, opts)
}

// NewMovePolicy chooses the move policy for a raw selection.
func NewMovePolicy(m model.Model, elements []*model.Element, resources []*model.Resource, opts ...Option) *Policy {
	return selectPolicy(OpMove, m, elements, resources, opts)
}

// NewPolicy chooses the policy for op.
func NewPolicy(op Operation, m model.Model, elements []*model.Element, resources []*model.Resource, opts ...Option) *Policy {
	return selectPolicy(op, m, elements, resources, opts)
}

func selectPolicy(op Operation, m model.Model, elements []*model.Element, resources []*model.Resource, opts []Option) *Policy {
	p := newPolicy(m, opts)
	kind, sel, reason := choose(op, elements, resources)
	p.kind = kind
	p.sel = sel
	p.reason = reason
	entry := p.logf().WithField("items", sel.Len())
	if reason != "" {
		entry = entry.WithField("reason", reason)
	}
	entry.Debug("selected policy")
	return p
}

func reject(op Operation) Kind {
	if op == OpCopy {
		return KindNoCopy
	}
	return KindNoMove
}

// choose applies the selection rules in order; the first match wins.
func choose(op Operation, elements []*model.Element, resources []*model.Resource) (Kind, Selection, string) {
	for _, e := range elements {
		if e == nil {
			return reject(op), Selection{}, "selection contains an unresolved element"
		}
	}
	for _, r := range resources {
		if r == nil {
			return reject(op), Selection{}, "selection contains an unresolved resource"
		}
	}

	canon := classify.Selection(elements, resources)
	if canon.IsEmpty() {
		return reject(op), Selection{}, "selection is empty"
	}
	for _, e := range canon.Elements {
		switch e.Kind {
		case model.KindModel, model.KindProject:
			return reject(op), Selection{}, "projects and the model cannot be " + pastTense(op)
		}
		// contents of archives can be copied out but not moved
		if op == OpMove && e.Kind != model.KindPackageRoot {
			if root := e.PackageRoot(); root != nil && (root.Archive || root.External) {
				return reject(op), Selection{}, "elements of archives cannot be moved"
			}
		}
	}
	for _, r := range canon.Resources {
		switch r.Kind {
		case model.ResourceProject, model.ResourceWorkspaceRoot:
			return reject(op), Selection{}, "projects and the workspace root cannot be " + pastTense(op)
		}
	}
	if !haveCommonParent(canon.Elements, canon.Resources) {
		return reject(op), Selection{}, "selected items do not have a common parent"
	}

	sel := split(canon)
	res := len(canon.Resources) > 0
	switch {
	case !res && len(canon.Elements) == len(sel.Packages):
		return pick(op, KindCopyPackages, KindMovePackages), sel, ""
	case !res && len(canon.Elements) == len(sel.Roots):
		return pick(op, KindCopyPackageRoots, KindMovePackageRoots), sel, ""
	case len(canon.Elements) == len(sel.Units):
		return pick(op, KindCopyResources, KindMoveResources), sel, ""
	case !res && allOf(canon.Elements, isClassMember):
		return pick(op, KindCopyMembers, KindMoveMembers), sel, ""
	case !res && allOf(canon.Elements, isKind(model.KindImportDeclaration)):
		return pick(op, KindCopyMembers, KindMoveImports), sel, ""
	case op == OpCopy && !res && allOf(canon.Elements, isCopyableSubUnit):
		return KindCopyMembers, sel, ""
	}
	return reject(op), Selection{}, "the selected items cannot be " + pastTense(op) + " together"
}

func pick(op Operation, copyKind, moveKind Kind) Kind {
	if op == OpCopy {
		return copyKind
	}
	return moveKind
}

func pastTense(op Operation) string {
	if op == OpCopy {
		return "copied"
	}
	return "moved"
}

func split(c classify.Result) Selection {
	var sel Selection
	for _, r := range c.Resources {
		if r.Kind == model.ResourceFile {
			sel.Files = append(sel.Files, r)
		} else {
			sel.Folders = append(sel.Folders, r)
		}
	}
	for _, e := range c.Elements {
		switch {
		case e.Kind == model.KindCompilationUnit:
			sel.Units = append(sel.Units, e)
		case e.Kind == model.KindPackage:
			sel.Packages = append(sel.Packages, e)
		case e.Kind == model.KindPackageRoot:
			sel.Roots = append(sel.Roots, e)
		case e.Kind.IsSmallerThanUnit():
			sel.Members = append(sel.Members, e)
		}
	}
	return sel
}

// haveCommonParent reports whether all elements share a parent, all resources
// share a parent, and both parents denote the same container.
func haveCommonParent(elements []*model.Element, resources []*model.Resource) bool {
	var elParent *model.Element
	for i, e := range elements {
		if i == 0 {
			elParent = e.Parent
		} else if e.Parent != elParent {
			return false
		}
	}
	var resParent *model.Resource
	for i, r := range resources {
		if i == 0 {
			resParent = r.Parent
		} else if r.Parent != resParent {
			return false
		}
	}
	if len(elements) > 0 && len(resources) > 0 {
		return elParent != nil && elParent.Resource != nil && elParent.Resource == resParent
	}
	return true
}

func allOf(elements []*model.Element, pred func(*model.Element) bool) bool {
	for _, e := range elements {
		if !pred(e) {
			return false
		}
	}
	return len(elements) > 0
}

func isKind(kinds ...model.Kind) func(*model.Element) bool {
	return func(e *model.Element) bool {
		for _, k := range kinds {
			if e.Kind == k {
				return true
			}
		}
		return false
	}
}

func isClassMember(e *model.Element) bool {
	return e.Kind.IsMember() && !e.Anonymous
}

func isCopyableSubUnit(e *model.Element) bool {
	return e.Kind.IsSmallerThanUnit() && e.Kind != model.KindPackageDeclaration && !e.Anonymous
}
