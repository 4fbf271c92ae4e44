package reorg

import (
	"context"
	"fmt"

	"github.com/danieljhkim/reorg/internal/change"
	"github.com/danieljhkim/reorg/internal/model"
	"github.com/danieljhkim/reorg/internal/status"
)

// CreateChange builds the change tree of the operation. It re-validates the
// destination first and may be called only once per policy. On error no
// partial change is returned.
func (p *Policy) CreateChange(ctx context.Context) (*change.Composite, error) {
	if !p.destSet {
		return nil, ErrNoDestination
	}
	if p.executed {
		return nil, ErrAlreadyExecuted
	}
	if !p.CanEnable() {
		return nil, ErrNotEnabled
	}
	st, err := p.VerifyDestination(ctx, p.target)
	if err != nil {
		return nil, err
	}
	if e, ok := st.FirstFatal(); ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDestination, e.Message)
	}
	mods, err := p.Modifications(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compute modifications: %w", err)
	}

	var root *change.Composite
	switch p.kind {
	case KindCopyResources, KindMoveResources:
		root, err = p.buildResources(ctx, mods)
	case KindCopyPackages, KindMovePackages:
		root, err = p.buildPackages(ctx, mods)
	case KindCopyPackageRoots, KindMovePackageRoots:
		root, err = p.buildRoots(ctx, mods)
	case KindCopyMembers, KindMoveMembers, KindMoveImports:
		root, err = p.buildMembers(ctx)
	default:
		err = fmt.Errorf("%w: %s", ErrNotEnabled, p.kind)
	}
	if err != nil {
		return nil, err
	}
	p.executed = true
	p.logf().WithField("changes", root.Len()).Debug("created change")
	return root, nil
}

func (p *Policy) label() string {
	verb := "Copy"
	if p.Operation() == OpMove {
		verb = "Move"
	}
	items := p.sel.Items()
	if len(items) == 1 {
		return fmt.Sprintf("%s %s", verb, items[0].Name())
	}
	return fmt.Sprintf("%s %d elements", verb, len(items))
}

func (p *Policy) record(m Modification, newName string) {
	if newName != "" {
		p.log.MarkRenamed(m.Item.Handle(), newName)
		return
	}
	p.log.MarkProcessed(m.Item.Handle())
}

func (p *Policy) buildResources(ctx context.Context, mods []Modification) (*change.Composite, error) {
	t, st := p.resolveUnitTarget(p.target)
	if st != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDestination, st.Err())
	}
	root := change.NewComposite(p.label())
	if t.createPackage != "" {
		root.Add(&change.CreatePackage{Root: t.root.Handle, Name: t.createPackage})
	}
	toPackage := t.pkg != nil || t.createPackage != ""
	for _, m := range mods {
		if err := ctx.Err(); err != nil {
			return nil, status.Cancelled(err)
		}
		var ch change.Change
		switch {
		case m.Item.Resource != nil:
			ch = resourceChange(m, m.Item.Resource.Path)
		case toPackage:
			var err error
			ch, err = p.unitChange(m)
			if err != nil {
				return nil, err
			}
		default:
			ch = resourceChange(m, m.Item.Element.Resource.Path)
		}
		root.Add(ch)
		p.record(m, m.NewName)
	}

	if p.flags.UpdateQualifiedNames && p.CanUpdateQualifiedNames() {
		qualified, err := p.qualifiedNameChanges(ctx, t.packageName())
		if err != nil {
			return nil, err
		}
		if len(qualified.Children) > 0 {
			root.Add(qualified)
		}
	}
	return root, nil
}

func resourceChange(m Modification, path string) change.Change {
	if m.Operation == OpMove {
		return &change.MoveResource{Path: path, Destination: m.Target}
	}
	return &change.CopyResource{Path: path, Destination: m.Target, NewName: m.NewName, Overwrite: m.Overwrite}
}

// unitChange moves or copies a compilation unit into a package. A copy that
// needs a new name becomes a new unit whose primary type is renamed as well.
func (p *Policy) unitChange(m Modification) (change.Change, error) {
	u := m.Item.Element
	if m.Operation == OpMove {
		return &change.MoveUnit{
			Unit:             u.Handle,
			Package:          m.Target,
			UpdateReferences: p.flags.UpdateReferences && p.CanUpdateReferences(),
			Overwrite:        m.Overwrite,
		}, nil
	}
	if m.NewName == "" {
		return &change.CopyUnit{Unit: u.Handle, Package: m.Target, Overwrite: m.Overwrite}, nil
	}
	src, err := p.model.Source(u)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", status.ErrModelAccess, err)
	}
	contents := src
	if main := u.MainType(); main != nil && !main.NameRange.IsZero() {
		contents, err = change.ApplyEdits(src, []change.TextEdit{{
			Offset: main.NameRange.Offset,
			Length: main.NameRange.Length,
			Text:   model.UnitBaseName(m.NewName),
		}})
		if err != nil {
			return nil, fmt.Errorf("failed to rename primary type of %s: %w", u.Handle, err)
		}
	}
	return &change.CreateUnit{Package: m.Target, Name: m.NewName, Contents: contents}, nil
}

func (p *Policy) buildPackages(ctx context.Context, mods []Modification) (*change.Composite, error) {
	root := change.NewComposite(p.label())
	for _, m := range mods {
		if err := ctx.Err(); err != nil {
			return nil, status.Cancelled(err)
		}
		if m.Operation == OpMove {
			root.Add(&change.MovePackage{Package: m.Item.Handle(), Root: m.Target})
		} else {
			root.Add(&change.CopyPackage{Package: m.Item.Handle(), Root: m.Target, NewName: m.NewName})
		}
		p.record(m, m.NewName)
	}
	return root, nil
}

func (p *Policy) buildRoots(ctx context.Context, mods []Modification) (*change.Composite, error) {
	root := change.NewComposite(p.label())
	for _, m := range mods {
		if err := ctx.Err(); err != nil {
			return nil, status.Cancelled(err)
		}
		if m.Operation == OpMove {
			root.Add(&change.MovePackageRoot{Root: m.Item.Handle(), Project: m.Target})
		} else {
			root.Add(&change.CopyPackageRoot{Root: m.Item.Handle(), Project: m.Target, NewName: m.NewName})
		}
		p.record(m, m.NewName)
	}
	return root, nil
}
