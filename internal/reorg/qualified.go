package reorg

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/danieljhkim/reorg/internal/change"
	"github.com/danieljhkim/reorg/internal/model"
	"github.com/danieljhkim/reorg/internal/status"
)

// CanUpdateReferences reports whether references to the moved items can be
// updated for the current destination.
func (p *Policy) CanUpdateReferences() bool {
	switch p.kind {
	case KindMovePackages:
		return true
	case KindMoveResources:
		if len(p.sel.Units) == 0 || !p.destSet {
			return false
		}
		t, st := p.resolveUnitTarget(p.target)
		return st == nil && t.packageName() != ""
	default:
		return false
	}
}

// CanUpdateQualifiedNames reports whether fully qualified names of moved
// units can be rewritten in non-unit files. The destination must be a named
// package different from the package of at least one moved unit, and not a
// bare package root.
func (p *Policy) CanUpdateQualifiedNames() bool {
	if p.kind != KindMoveResources || len(p.sel.Units) == 0 || !p.destSet {
		return false
	}
	t, st := p.resolveUnitTarget(p.target)
	if st != nil || t.bareRoot || t.packageName() == "" {
		return false
	}
	for _, u := range p.sel.Units {
		if pkg := u.Package(); pkg != nil && pkg.Name != t.packageName() {
			return true
		}
	}
	return false
}

// filePatterns compiles a comma separated list of globs. The returned filter
// accepts non-unit files whose name matches any pattern, or every non-unit
// file when the list is empty.
func filePatterns(patterns string) (func(*model.Resource) bool, error) {
	var globs []glob.Glob
	for _, raw := range strings.Split(patterns, ",") {
		pattern := strings.TrimSpace(raw)
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid file pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	return func(r *model.Resource) bool {
		if r.Element != nil {
			return false
		}
		if len(globs) == 0 {
			return true
		}
		for _, g := range globs {
			if g.Match(r.Name) {
				return true
			}
		}
		return false
	}, nil
}

// qualifiedNameChanges replaces the old fully qualified names of every
// top-level type of the moved units, grouped into one text change per file.
func (p *Policy) qualifiedNameChanges(ctx context.Context, newPackage string) (*change.Composite, error) {
	accept, err := filePatterns(p.flags.FilePatterns)
	if err != nil {
		return nil, err
	}
	byFile := make(map[string][]change.TextEdit)
	for _, u := range p.sel.Units {
		if pkg := u.Package(); pkg == nil || pkg.Name == "" || pkg.Name == newPackage {
			continue
		}
		for _, t := range u.Types() {
			oldName := t.FullyQualifiedName()
			newName := newPackage + "." + t.Name
			matches, err := p.model.SearchQualifiedName(ctx, oldName, accept)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					return nil, status.Cancelled(err)
				}
				return nil, fmt.Errorf("%w: failed to search for %s: %w", status.ErrModelAccess, oldName, err)
			}
			for _, m := range matches {
				byFile[m.File.Path] = append(byFile[m.File.Path], change.TextEdit{Offset: m.Offset, Length: m.Length, Text: newName})
			}
		}
	}

	paths := make([]string, 0, len(byFile))
	for path := range byFile {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	comp := change.NewComposite("Update fully qualified names")
	for _, path := range paths {
		comp.Add(&change.TextFile{Path: path, Label: "Update qualified names in", Edits: change.SortEdits(byFile[path])})
	}
	return comp, nil
}
