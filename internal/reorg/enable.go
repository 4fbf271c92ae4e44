package reorg

import "github.com/danieljhkim/reorg/internal/model"

// CanEnable reports whether the policy can run on its selection at all,
// independent of any destination.
func (p *Policy) CanEnable() bool {
	if p.kind.IsReject() || p.sel.Len() == 0 {
		return false
	}
	for _, r := range p.sel.Resources() {
		if !r.Exists() || r.Inaccessible {
			return false
		}
	}
	for _, e := range p.sel.Elements() {
		if !e.Exists() {
			return false
		}
		if e.Resource != nil && (e.Resource.Phantom || e.Resource.Inaccessible) {
			return false
		}
	}

	switch p.kind {
	case KindCopyResources, KindMoveResources:
		return p.canEnableResources()
	case KindCopyPackages, KindMovePackages:
		return p.canEnablePackages()
	case KindCopyPackageRoots, KindMovePackageRoots:
		return p.canEnableRoots()
	case KindCopyMembers, KindMoveMembers, KindMoveImports:
		return p.canEnableMembers()
	default:
		return false
	}
}

func (p *Policy) canEnableResources() bool {
	for _, u := range p.sel.Units {
		if u.Resource == nil {
			// units of archives have no file to move or copy
			return false
		}
	}
	return true
}

func (p *Policy) canEnablePackages() bool {
	for _, pkg := range p.sel.Packages {
		if pkg.IsDefaultPackage() || pkg.IsReadOnly() {
			return false
		}
		if root := pkg.PackageRoot(); root == nil || !root.IsSourceRoot() {
			return false
		}
	}
	return true
}

func (p *Policy) canEnableRoots() bool {
	for _, root := range p.sel.Roots {
		if !root.IsSourceRoot() && !(root.Archive && !root.External) {
			return false
		}
		if isProjectRoot(root) {
			return false
		}
		if p.Operation() == OpMove && root.IsReadOnly() {
			return false
		}
	}
	return true
}

func (p *Policy) canEnableMembers() bool {
	for _, m := range p.sel.Members {
		unit := m.Unit()
		if unit == nil {
			return false
		}
		if p.Operation() == OpMove {
			if root := m.PackageRoot(); root == nil || !root.IsSourceRoot() {
				return false
			}
			if m.IsReadOnly() {
				return false
			}
			continue
		}
		if _, err := p.model.Source(unit); err != nil {
			return false
		}
	}
	return true
}

// isProjectRoot reports whether a package root is the project folder itself.
func isProjectRoot(root *model.Element) bool {
	project := root.Project()
	return root.Kind == model.KindPackageRoot && project != nil && root.Resource != nil && root.Resource == project.Resource
}
