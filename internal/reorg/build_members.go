package reorg

import (
	"context"
	"fmt"

	"github.com/danieljhkim/reorg/internal/change"
	"github.com/danieljhkim/reorg/internal/model"
	"github.com/danieljhkim/reorg/internal/rewrite"
	"github.com/danieljhkim/reorg/internal/status"
)

// memberTarget is the list a member is inserted into.
type memberTarget struct {
	parent *model.Element
	prop   rewrite.Property
	index  int
}

// resolveMemberTarget maps a destination and location to the container list
// that receives m.
func resolveMemberTarget(dest *model.Element, loc Location, m *model.Element) (memberTarget, error) {
	switch dest.Kind {
	case model.KindCompilationUnit:
		switch m.Kind {
		case model.KindType:
			return appendTo(dest, rewrite.Types), nil
		case model.KindImportDeclaration:
			if ic := dest.ImportContainer(); ic != nil {
				return appendTo(ic, rewrite.Imports), nil
			}
			return appendTo(dest, rewrite.Imports), nil
		case model.KindImportContainer:
			return appendTo(dest, rewrite.Imports), nil
		case model.KindPackageDeclaration:
			return memberTarget{parent: dest, prop: rewrite.PackageDeclaration}, nil
		}
		main := dest.MainType()
		if main == nil {
			return memberTarget{}, fmt.Errorf("%w: %s has no primary type", status.ErrInvariant, dest.Handle)
		}
		return typeTarget(main, m), nil
	case model.KindImportContainer:
		switch loc {
		case Before:
			return memberTarget{parent: dest.Parent, prop: rewrite.Imports}, nil
		case After:
			return appendTo(dest.Parent, rewrite.Imports), nil
		}
		return appendTo(dest, rewrite.Imports), nil
	case model.KindType:
		if loc == On {
			return typeTarget(dest, m), nil
		}
	}
	if m.EnumConstant && !dest.EnumConstant {
		return appendTo(dest.Parent, rewrite.EnumConstants), nil
	}
	if loc == On {
		// pasting a member onto itself places the copy right after it
		loc = After
	}
	return siblingTarget(dest, loc)
}

func appendTo(parent *model.Element, prop rewrite.Property) memberTarget {
	return memberTarget{parent: parent, prop: prop, index: len(rewrite.Items(parent, prop))}
}

func typeTarget(t, m *model.Element) memberTarget {
	switch {
	case m.EnumConstant && t.Enum:
		return appendTo(t, rewrite.EnumConstants)
	case t.Anonymous:
		return appendTo(t, rewrite.AnonymousBody)
	default:
		return appendTo(t, rewrite.BodyDeclarations)
	}
}

// listProperty returns the list of its parent that e belongs to.
func listProperty(e *model.Element) rewrite.Property {
	switch {
	case e.Kind == model.KindImportDeclaration:
		return rewrite.Imports
	case e.EnumConstant:
		return rewrite.EnumConstants
	case e.Parent.Kind == model.KindCompilationUnit:
		return rewrite.Types
	case e.Parent.Kind == model.KindType && e.Parent.Anonymous:
		return rewrite.AnonymousBody
	case e.Parent.Kind == model.KindType:
		return rewrite.BodyDeclarations
	case e.InSwitch:
		return rewrite.SwitchStatements
	default:
		return rewrite.Statements
	}
}

func siblingTarget(dest *model.Element, loc Location) (memberTarget, error) {
	prop := listProperty(dest)
	items := rewrite.Items(dest.Parent, prop)
	idx := -1
	for i, it := range items {
		if it == dest || (dest.IsFragment() && it.DeclRange == dest.DeclRange) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return memberTarget{}, fmt.Errorf("%w: %s not found in %s of %s", status.ErrInvariant, dest.Handle, prop, dest.Parent.Handle)
	}
	if loc == After {
		idx++
	}
	return memberTarget{parent: dest.Parent, prop: prop, index: idx}, nil
}

// buildMembers stages every selected member into the destination unit's edit
// script and, for moves, its removal from the source script. Moving every
// top-level type of another unit deletes that unit instead.
func (p *Policy) buildMembers(ctx context.Context) (*change.Composite, error) {
	dest := p.target.Element
	if dest == nil {
		dest = p.target.Resource.Element
	}
	destUnit := dest.Unit()
	if destUnit == nil {
		return nil, fmt.Errorf("%w: destination %s is not inside a compilation unit", status.ErrInvariant, dest.Handle)
	}

	set := rewrite.NewSet(p.model.Source)
	destScript, err := set.For(destUnit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", status.ErrModelAccess, err)
	}

	for _, m := range p.sel.Members {
		if err := ctx.Err(); err != nil {
			return nil, status.Cancelled(err)
		}
		target, err := resolveMemberTarget(dest, p.target.Location, m)
		if err != nil {
			return nil, err
		}
		if err := destScript.Insert(target.parent, target.prop, target.index, rewrite.CopyText(m)); err != nil {
			return nil, fmt.Errorf("failed to stage %s: %w", m.Handle, err)
		}
		srcUnit := m.Unit()
		if srcUnit != destUnit {
			for _, imp := range rewrite.MissingImports(destUnit, rewrite.References(m)) {
				destScript.AddImport(imp)
			}
		}
		if p.Operation() == OpMove {
			srcScript, err := set.For(srcUnit)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", status.ErrModelAccess, err)
			}
			srcScript.Remove(m)
		}
		p.log.MarkProcessed(m.Handle)
	}

	root := change.NewComposite(p.label())
	var deletes []change.Change
	for _, sc := range set.Scripts() {
		if sc.IsEmpty() {
			continue
		}
		if p.Operation() == OpMove && sc.Unit != destUnit && p.movesAllTypes(sc.Unit) {
			deletes = append(deletes, &change.DeleteUnit{Unit: sc.Unit.Handle})
			continue
		}
		edits, err := sc.Edits()
		if err != nil {
			return nil, err
		}
		root.Add(&change.TextFile{Path: unitPath(sc.Unit), Edits: edits})
	}
	root.Add(deletes...)
	return root, nil
}

// movesAllTypes reports whether every top-level type of unit is moved.
func (p *Policy) movesAllTypes(unit *model.Element) bool {
	types := unit.Types()
	if len(types) == 0 {
		return false
	}
	moved := make(map[*model.Element]bool, len(p.sel.Members))
	for _, m := range p.sel.Members {
		moved[m] = true
	}
	for _, t := range types {
		if !moved[t] {
			return false
		}
	}
	return true
}

func unitPath(unit *model.Element) string {
	if unit.Resource != nil {
		return unit.Resource.Path
	}
	return unit.Handle
}
