package reorg

import (
	"context"
	"fmt"

	"github.com/danieljhkim/reorg/internal/model"
	"github.com/danieljhkim/reorg/internal/status"
)

// Confirmer answers the questions a policy asks before it builds changes.
type Confirmer interface {
	// ConfirmReadOnly asks whether read-only items may be moved.
	ConfirmReadOnly(title, question string) bool

	// ConfirmOverwrite returns the subset of candidates that may overwrite an
	// existing item at the destination.
	ConfirmOverwrite(candidates []Item) []Item

	// CreateTargetIfMissing creates a missing destination and returns the
	// handle of the created target, or false when it was not created.
	CreateTargetIfMissing(dest Destination) (string, bool)
}

// AlwaysConfirm approves every question and creates nothing.
type AlwaysConfirm struct{}

func (AlwaysConfirm) ConfirmReadOnly(string, string) bool       { return true }
func (AlwaysConfirm) ConfirmOverwrite(candidates []Item) []Item { return candidates }
func (AlwaysConfirm) CreateTargetIfMissing(Destination) (string, bool) {
	return "", false
}

// Confirm resolves a missing destination, asks about read-only items for
// moves and about overwriting existing items. Items whose overwrite is
// declined are dropped from the selection. Declining any other question
// returns an error wrapping status.ErrCancelled.
func (p *Policy) Confirm(ctx context.Context, c Confirmer) error {
	if !p.destSet {
		return ErrNoDestination
	}
	if !p.CanEnable() {
		return ErrNotEnabled
	}
	if c == nil {
		c = AlwaysConfirm{}
	}

	if !p.target.Exists() {
		if err := p.createTarget(c); err != nil {
			return err
		}
	}

	if p.Operation() == OpMove {
		found, err := p.hasReadOnly(ctx)
		if err != nil {
			return err
		}
		if found && !c.ConfirmReadOnly("Confirm Move of Read-Only Elements",
			"The selected elements contain read-only resources. Do you still want to move them?") {
			return fmt.Errorf("%w: read-only move declined", status.ErrCancelled)
		}
	}

	pruned, err := p.confirmOverwrite(ctx, c)
	if err != nil {
		return err
	}
	p.invalidate()
	if pruned > 0 {
		p.logf().WithField("pruned", pruned).Warn("dropped items whose overwrite was declined")
	}
	return nil
}

// createTarget asks the confirmer to create the missing destination, or
// reuses the target recorded in the execution log.
func (p *Policy) createTarget(c Confirmer) error {
	destHandle := p.dest.Handle()
	created, ok := p.log.Created(destHandle)
	if !ok {
		created, ok = c.CreateTargetIfMissing(p.dest)
		if !ok {
			return fmt.Errorf("%w: destination %s was not created", status.ErrCancelled, destHandle)
		}
	}
	target, err := p.resolveDestination(created, p.dest.Location)
	if err != nil {
		return err
	}
	p.target = target
	p.log.SetCreated(destHandle, created)
	return nil
}

func (p *Policy) resolveDestination(handle string, loc Location) (Destination, error) {
	if model.IsResourceHandle(handle) {
		r, ok := p.model.Resource(handle)
		if !ok {
			return Destination{}, fmt.Errorf("%w: resource %s not found", status.ErrModelAccess, handle)
		}
		return ResourceDestination(r), nil
	}
	e, ok := p.model.Element(handle)
	if !ok {
		return Destination{}, fmt.Errorf("%w: element %s not found", status.ErrModelAccess, handle)
	}
	return ElementDestination(e, loc), nil
}

// hasReadOnly walks every selected item and its descendants. Linked
// resources are skipped since they are never moved physically. A package
// covers the files of its folder but not the folders of nested packages.
func (p *Policy) hasReadOnly(ctx context.Context) (bool, error) {
	found := false
	visit := func(r *model.Resource) bool {
		if found || r.Linked {
			return false
		}
		if r.ReadOnly {
			found = true
		}
		return !found
	}
	for _, r := range p.sel.Resources() {
		if err := ctx.Err(); err != nil {
			return false, status.Cancelled(err)
		}
		r.Walk(visit)
		if found {
			return true, nil
		}
	}
	for _, e := range p.sel.Elements() {
		if err := ctx.Err(); err != nil {
			return false, status.Cancelled(err)
		}
		if e.IsReadOnly() || elementHasReadOnly(e) {
			return true, nil
		}
		switch {
		case e.Resource == nil:
		case e.Kind == model.KindPackage:
			for _, r := range e.Resource.Children {
				if !r.IsContainer() {
					visit(r)
				}
			}
		default:
			e.Resource.Walk(visit)
		}
		if found {
			return true, nil
		}
	}
	return false, nil
}

func elementHasReadOnly(e *model.Element) bool {
	for _, c := range e.Children {
		if c.ReadOnly || (c.Resource != nil && c.Resource.ReadOnly && !c.Resource.Linked) {
			return true
		}
		if elementHasReadOnly(c) {
			return true
		}
	}
	return false
}

// confirmOverwrite asks about items that collide at the destination. Copies
// into their own container are renamed later and are not asked about. It
// returns the number of pruned items.
func (p *Policy) confirmOverwrite(ctx context.Context, c Confirmer) (int, error) {
	switch p.kind {
	case KindCopyResources, KindMoveResources, KindCopyPackages, KindMovePackages:
	default:
		return 0, nil
	}
	placements, err := p.placements()
	if err != nil {
		return 0, err
	}
	var candidates []Item
	for _, pl := range placements {
		if err := ctx.Err(); err != nil {
			return 0, status.Cancelled(err)
		}
		if !pl.collides() || (p.Operation() == OpCopy && pl.same) {
			continue
		}
		candidates = append(candidates, pl.item)
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	approved := make(map[Item]bool)
	for _, it := range c.ConfirmOverwrite(candidates) {
		approved[it] = true
	}
	drop := make(map[Item]bool)
	for _, it := range candidates {
		if approved[it] {
			p.overwrite[it] = true
		} else {
			drop[it] = true
		}
	}
	if len(drop) == 0 {
		return 0, nil
	}
	p.sel = p.sel.without(drop)
	if p.sel.Len() == 0 {
		return len(drop), fmt.Errorf("%w: no items left after declining overwrites", status.ErrCancelled)
	}
	return len(drop), nil
}
