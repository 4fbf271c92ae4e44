package reorg

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/danieljhkim/reorg/internal/model"
	"github.com/danieljhkim/reorg/internal/status"
)

// Modification is the move or copy argument of one selected item.
type Modification struct {
	Item      Item
	Operation Operation
	// Target is the handle of the package, root, project or element the item
	// goes into, or the path of a plain container.
	Target string
	// NewName is set when a copy into its own container must be renamed.
	NewName   string
	Overwrite bool
}

// placement is where a whole item lands and how its name collides there.
type placement struct {
	item   Item
	target string
	// taken reports whether a name is in use at the target.
	taken func(name string) bool
	// same marks an item that already lives in the target container.
	same bool
	// extension is set for names with a file extension.
	extension bool
}

func (pl placement) collides() bool {
	return pl.taken != nil && pl.taken(pl.item.Name())
}

// Modifications returns the per-item arguments of the operation. They are
// built on first use and cached until the destination or the selection changes.
func (p *Policy) Modifications(ctx context.Context) ([]Modification, error) {
	if !p.destSet {
		return nil, ErrNoDestination
	}
	if p.modsBuilt {
		return p.mods, nil
	}
	placements, err := p.placements()
	if err != nil {
		return nil, err
	}
	mods := make([]Modification, 0, len(placements))
	for _, pl := range placements {
		if err := ctx.Err(); err != nil {
			return nil, status.Cancelled(err)
		}
		m := Modification{Item: pl.item, Operation: p.Operation(), Target: pl.target}
		if p.Operation() == OpCopy && pl.same && pl.collides() {
			m.NewName = p.names.ProposeName(pl.item.Name(), pl.extension, pl.taken)
		}
		m.Overwrite = p.overwrite[pl.item]
		mods = append(mods, m)
	}
	p.mods = mods
	p.modsBuilt = true
	return mods, nil
}

// placements resolves the target of every selected item against the
// effective destination.
func (p *Policy) placements() ([]placement, error) {
	d := p.target
	switch p.kind {
	case KindCopyResources, KindMoveResources:
		t, st := p.resolveUnitTarget(d)
		if st != nil {
			return nil, st.Err()
		}
		return p.unitPlacements(t), nil
	case KindCopyPackages, KindMovePackages:
		root := packageRootTarget(d)
		if root == nil {
			return nil, fmt.Errorf("%w: no package root for %s", status.ErrInvariant, d)
		}
		var out []placement
		for _, pkg := range p.sel.Packages {
			out = append(out, placement{
				item:   Item{Element: pkg},
				target: root.Handle,
				taken:  func(name string) bool { return root.Child(model.KindPackage, name) != nil },
				same:   pkg.Parent == root,
			})
		}
		return out, nil
	case KindCopyPackageRoots, KindMovePackageRoots:
		project := d.Element
		if project == nil {
			project = d.Resource.Element
		}
		if project == nil {
			return nil, fmt.Errorf("%w: no project for %s", status.ErrInvariant, d)
		}
		var out []placement
		for _, root := range p.sel.Roots {
			out = append(out, placement{
				item:   Item{Element: root},
				target: project.Handle,
				taken:  func(name string) bool { return project.Child(model.KindPackageRoot, name) != nil },
				same:   root.Parent == project,
			})
		}
		return out, nil
	case KindCopyMembers, KindMoveMembers, KindMoveImports:
		var out []placement
		for _, m := range p.sel.Members {
			out = append(out, placement{item: Item{Element: m}, target: d.Handle()})
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s has no placements", ErrNotEnabled, p.kind)
}

func (p *Policy) unitPlacements(t unitTarget) []placement {
	var out []placement
	containerTaken := func(name string) bool {
		return t.container != nil && t.container.Child(name) != nil
	}
	for _, r := range p.sel.Resources() {
		out = append(out, placement{
			item:      Item{Resource: r},
			target:    containerPath(t),
			taken:     containerTaken,
			same:      r.Parent == t.container,
			extension: r.Kind == model.ResourceFile,
		})
	}
	for _, u := range p.sel.Units {
		pl := placement{item: Item{Element: u}, extension: true}
		switch {
		case t.pkg != nil:
			pkg := t.pkg
			pl.target = pkg.Handle
			pl.taken = func(name string) bool {
				if pkg.Child(model.KindCompilationUnit, name) != nil {
					return true
				}
				return pkg.Resource != nil && pkg.Resource.Child(name) != nil
			}
			pl.same = u.Parent == pkg
		case t.createPackage != "":
			pl.target = t.packageHandle()
		default:
			pl.target = containerPath(t)
			pl.taken = containerTaken
			pl.same = u.Resource != nil && u.Resource.Parent == t.container
		}
		out = append(out, pl)
	}
	return out
}

// containerPath returns the path files land in, including the folder of a
// package still to be created.
func containerPath(t unitTarget) string {
	if t.createPackage != "" && t.root != nil && t.root.Resource != nil {
		return path.Join(t.root.Resource.Path, packageFolder(t.createPackage))
	}
	if t.container != nil {
		return t.container.Path
	}
	return ""
}

func packageFolder(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}
