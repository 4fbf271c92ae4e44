package reorg

import (
	"context"

	"github.com/danieljhkim/reorg/internal/model"
	"github.com/danieljhkim/reorg/internal/status"
)

// VerifyDestination checks whether d is a legal destination for the
// selection. Problems are reported in the returned status; the error is only
// set when ctx is cancelled. It does not change the policy and may be called
// repeatedly.
func (p *Policy) VerifyDestination(ctx context.Context, d Destination) (*status.Status, error) {
	if err := ctx.Err(); err != nil {
		return nil, status.Cancelled(err)
	}
	if p.kind.IsReject() {
		return status.Fatal("policy.reject", "%s", p.reason), nil
	}
	if d.IsZero() {
		return status.Fatal("dest.none", "no destination selected"), nil
	}

	st := p.verifyCommon(d)
	if st.HasFatal() {
		return st, nil
	}

	var more *status.Status
	var err error
	switch p.kind {
	case KindCopyResources, KindMoveResources:
		more, err = p.verifyResources(ctx, d)
	case KindCopyPackages, KindMovePackages:
		more, err = p.verifyPackages(ctx, d)
	case KindCopyPackageRoots, KindMovePackageRoots:
		more, err = p.verifyRoots(ctx, d)
	case KindCopyMembers, KindMoveMembers, KindMoveImports:
		more, err = p.verifyMembers(ctx, d)
	default:
		more = status.Fatal("policy.unknown", "unknown policy %s", p.kind)
	}
	if err != nil {
		return nil, err
	}
	st.Merge(more)

	p.logf().WithField("destination", d.String()).WithField("severity", st.Severity().String()).Debug("verified destination")
	return st, nil
}

func (p *Policy) verifyCommon(d Destination) *status.Status {
	st := status.New()
	var res *model.Resource
	if e := d.Element; e != nil {
		switch {
		case !e.Exists() && p.flags.CheckDestination:
			st.AddFatal("dest.missing", "the destination %s does not exist", e.Handle)
		case e.Kind == model.KindModel:
			st.AddFatal("dest.model", "the workspace model is not a valid destination")
		case e.IsReadOnly():
			st.AddFatal("dest.readOnly", "the destination %s is read-only", e.Handle)
		case inArchive(e):
			st.AddFatal("dest.archive", "the destination %s is inside an archive", e.Handle)
		}
		res = e.Resource
	} else {
		r := d.Resource
		switch {
		case r.Phantom && p.flags.CheckDestination:
			st.AddFatal("dest.missing", "the destination %s does not exist", r.Path)
		case r.Inaccessible:
			st.AddFatal("dest.inaccessible", "the destination %s is not accessible", r.Path)
		case r.Kind == model.ResourceWorkspaceRoot:
			st.AddFatal("dest.workspaceRoot", "the workspace root is not a valid destination")
		case r.ReadOnly:
			st.AddFatal("dest.readOnly", "the destination %s is read-only", r.Path)
		}
		res = r
	}
	if st.HasFatal() || res == nil {
		return st
	}
	for _, c := range p.selectedContainers() {
		if res == c || res.IsDescendantOf(c) {
			st.AddFatal("dest.descendant", "the destination %s is inside the selected %s", res.Path, c.Path)
			break
		}
	}
	return st
}

func inArchive(e *model.Element) bool {
	root := e.PackageRoot()
	return root != nil && (root.Archive || root.External)
}

// selectedContainers returns the resources of selected folders, packages and roots.
func (p *Policy) selectedContainers() []*model.Resource {
	var out []*model.Resource
	out = append(out, p.sel.Folders...)
	for _, e := range p.sel.Packages {
		if e.Resource != nil {
			out = append(out, e.Resource)
		}
	}
	for _, e := range p.sel.Roots {
		if e.Resource != nil && e.Resource.IsContainer() {
			out = append(out, e.Resource)
		}
	}
	return out
}

// unitTarget is the resolved destination of files, folders and units.
type unitTarget struct {
	// pkg is the destination package, nil when items go to a plain container.
	pkg *model.Element
	// createPackage names a package of root to create first.
	createPackage string
	root          *model.Element
	container     *model.Resource
	// bareRoot marks a drop on a package root or project rather than a package.
	bareRoot bool
}

// packageHandle returns the handle of the destination package, including one
// still to be created.
func (t unitTarget) packageHandle() string {
	if t.pkg != nil {
		return t.pkg.Handle
	}
	if t.createPackage != "" {
		return model.ChildHandle(t.root, model.KindPackage, t.createPackage)
	}
	return ""
}

func (t unitTarget) packageName() string {
	if t.pkg != nil {
		return t.pkg.Name
	}
	return t.createPackage
}

func (p *Policy) resolveUnitTarget(d Destination) (unitTarget, *status.Status) {
	e := d.Element
	if e == nil {
		r := d.Resource
		if r.Kind == model.ResourceFile {
			r = r.Parent
		}
		if r.Element == nil {
			return unitTarget{container: r}, nil
		}
		e = r.Element
	}
	switch e.Kind {
	case model.KindPackage:
		if root := e.PackageRoot(); root == nil || !root.IsSourceRoot() {
			return unitTarget{}, status.Fatal("dest.binary", "%s is not in a source folder", e.Handle)
		}
		return unitTarget{pkg: e, root: e.PackageRoot(), container: e.Resource}, nil
	case model.KindPackageRoot:
		return p.resolveRootTarget(e)
	case model.KindProject:
		if root := projectRoot(e); root != nil {
			return p.resolveRootTarget(root)
		}
		return unitTarget{container: e.Resource}, nil
	case model.KindModel:
		return unitTarget{}, status.Fatal("dest.model", "the workspace model is not a valid destination")
	default:
		return unitTarget{}, status.Fatal("dest.insideUnit", "%s is not a package or folder", e.Handle)
	}
}

func (p *Policy) resolveRootTarget(root *model.Element) (unitTarget, *status.Status) {
	if !root.IsSourceRoot() {
		return unitTarget{}, status.Fatal("dest.binary", "%s is not a source folder", root.Handle)
	}
	t := unitTarget{root: root, container: root.Resource, bareRoot: true}
	// a single unit dropped on a root keeps its package name
	if p.Operation() == OpMove && len(p.sel.Units) == 1 && p.sel.Len() == 1 {
		name := p.sel.Units[0].Package().Name
		if existing := root.Child(model.KindPackage, name); existing != nil {
			t.pkg = existing
			t.container = existing.Resource
		} else {
			t.createPackage = name
		}
		return t, nil
	}
	t.pkg = root.Child(model.KindPackage, "")
	return t, nil
}

// projectRoot returns the package root that is the project folder itself.
func projectRoot(project *model.Element) *model.Element {
	for _, root := range project.ChildrenOfKind(model.KindPackageRoot) {
		if isProjectRoot(root) {
			return root
		}
	}
	return nil
}

func (p *Policy) verifyResources(ctx context.Context, d Destination) (*status.Status, error) {
	t, st := p.resolveUnitTarget(d)
	if st != nil {
		return st, nil
	}
	st = status.New()
	if t.container == nil && t.createPackage == "" {
		st.AddFatal("dest.invalid", "%s cannot hold files", d.Handle())
		return st, nil
	}

	if p.Operation() == OpMove {
		for _, r := range p.sel.Resources() {
			if err := ctx.Err(); err != nil {
				return nil, status.Cancelled(err)
			}
			if r.Parent == t.container && t.createPackage == "" {
				st.AddFatal("dest.parent", "the destination is the current parent of %s", r.Path)
				return st, nil
			}
		}
		for _, u := range p.sel.Units {
			if err := ctx.Err(); err != nil {
				return nil, status.Cancelled(err)
			}
			if (t.pkg != nil && u.Parent == t.pkg) || (t.pkg == nil && t.createPackage == "" && u.Resource.Parent == t.container) {
				st.AddFatal("dest.parent", "the destination is the current parent of %s", u.Name)
				return st, nil
			}
		}
	}

	if len(p.sel.Units) > 0 {
		plain := t.pkg == nil && t.createPackage == ""
		if p.flags.UpdateReferences && (plain || t.packageName() == "") {
			st.AddInfo("refs.skipped", "references will not be updated for this destination")
		}
		if p.flags.UpdateQualifiedNames && (plain || t.packageName() == "" || t.bareRoot) {
			st.AddInfo("qualified.skipped", "fully qualified names will not be updated for this destination")
		}
	}
	return st, nil
}

// packageRootTarget resolves the root a package selection goes into.
func packageRootTarget(d Destination) *model.Element {
	e := d.Element
	if e == nil {
		e = d.Resource.Element
	}
	if e == nil {
		return nil
	}
	switch e.Kind {
	case model.KindPackageRoot:
		return e
	case model.KindPackage:
		return e.PackageRoot()
	case model.KindProject:
		return projectRoot(e)
	}
	return nil
}

func (p *Policy) verifyPackages(ctx context.Context, d Destination) (*status.Status, error) {
	root := packageRootTarget(d)
	if root == nil || !root.IsSourceRoot() {
		return status.Fatal("dest.notSourceRoot", "packages can only be placed in source folders"), nil
	}
	st := status.New()
	if p.Operation() == OpMove {
		for _, pkg := range p.sel.Packages {
			if err := ctx.Err(); err != nil {
				return nil, status.Cancelled(err)
			}
			if pkg.Parent == root {
				st.AddFatal("dest.parent", "the destination is the current parent of %s", pkg.Name)
				return st, nil
			}
			if root.Resource != nil && pkg.Resource != nil && root.Resource.IsPrefixOf(pkg.Resource) {
				st.AddFatal("dest.ancestor", "the destination %s contains package %s", root.Resource.Path, pkg.Name)
				return st, nil
			}
		}
	}
	return st, nil
}

func (p *Policy) verifyRoots(ctx context.Context, d Destination) (*status.Status, error) {
	project := d.Element
	if project == nil {
		project = d.Resource.Element
	}
	if project == nil || project.Kind != model.KindProject {
		return status.Fatal("dest.notProject", "package roots can only be placed in projects"), nil
	}
	st := status.New()
	for _, root := range p.sel.Roots {
		if err := ctx.Err(); err != nil {
			return nil, status.Cancelled(err)
		}
		switch {
		case isProjectRoot(root) && root.Project() == project:
			st.AddFatal("dest.selfRoot", "project %s is itself a selected root", project.Name)
		case p.Operation() == OpMove && root.Parent == project:
			st.AddFatal("dest.parent", "the destination is the current parent of %s", root.Name)
		case project.Child(model.KindPackageRoot, root.Name) != nil:
			st.AddFatal("dest.exists", "project %s already has a package root %s", project.Name, root.Name)
		}
		if st.HasFatal() {
			return st, nil
		}
	}
	return st, nil
}
