package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/danieljhkim/reorg/internal/change"
	"github.com/danieljhkim/reorg/internal/history"
	"github.com/danieljhkim/reorg/internal/model"
	"github.com/danieljhkim/reorg/internal/reorg"
)

// Plan chooses a policy for the selection, validates the destination, runs
// confirmation and builds the change tree. Nothing is applied to the model.
//
// When the selection or destination is rejected the result still carries the
// policy and status, and the error wraps ErrValidation.
func (e *Engine) Plan(ctx context.Context, req *PlanRequest) (*PlanResult, error) {
	op, err := reorg.ParseOperation(req.Operation)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	loc, err := reorg.ParseLocation(req.Location)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if len(req.Select) == 0 {
		return nil, fmt.Errorf("%w: nothing selected", ErrValidation)
	}
	if req.Destination == "" {
		return nil, fmt.Errorf("%w: no destination given", ErrValidation)
	}

	ws, err := e.loadModel(req.ModelPath)
	if err != nil {
		return nil, err
	}
	elements, resources, err := resolveSelection(ws, req.Select)
	if err != nil {
		return nil, err
	}

	p := reorg.NewPolicy(op, ws, elements, resources, reorg.WithLogger(e.logger), reorg.WithFlags(e.flags(req)))
	result := &PlanResult{
		Policy:      p.ID(),
		Operation:   op.String(),
		Selection:   handles(p.Selection()),
		Destination: req.Destination,
	}
	e.logger.WithField("policy", p.ID()).WithField("items", len(result.Selection)).Debug("selected policy")

	if !p.Kind().IsReject() && !p.CanEnable() {
		return result, fmt.Errorf("%w: %s cannot be executed on the selection", ErrValidation, p.ID())
	}
	dest, err := resolveDestination(ws, req.Destination, loc)
	if err != nil {
		return result, err
	}
	if err := p.SetDestination(dest); err != nil {
		return result, fmt.Errorf("failed to set destination: %w", err)
	}

	st, err := p.VerifyDestination(ctx, dest)
	if err != nil {
		return result, err
	}
	result.Status = st.Entries()
	if st.HasFatal() {
		return result, validationError(st)
	}

	confirmer := req.Confirmer
	if confirmer == nil {
		confirmer = reorg.AlwaysConfirm{}
	}
	if req.CreateMissing {
		confirmer = &targetCreator{Confirmer: confirmer, ws: ws}
	}
	if err := e.build(ctx, ws, p, confirmer, req.Preview, result); err != nil {
		return result, err
	}

	if req.Save {
		d := p.Descriptor()
		rec := &history.Record{
			Policy:    d.Policy,
			Label:     result.Label,
			Model:     req.ModelPath,
			Arguments: d.Arguments,
		}
		if err := e.history.Save(rec); err != nil {
			return result, fmt.Errorf("failed to save descriptor: %w", err)
		}
		result.HistoryID = rec.ID
		e.logger.WithField("id", rec.ID).Info("saved descriptor")
	}
	return result, nil
}

// build confirms and builds the changes of a validated policy into result.
func (e *Engine) build(ctx context.Context, ws *model.Workspace, p *reorg.Policy, c reorg.Confirmer, preview bool, result *PlanResult) error {
	if err := p.Confirm(ctx, c); err != nil {
		return err
	}
	result.Selection = handles(p.Selection())

	ch, err := p.CreateChange(ctx)
	if err != nil {
		if errors.Is(err, reorg.ErrInvalidDestination) {
			return fmt.Errorf("%w: %w", ErrValidation, err)
		}
		return fmt.Errorf("failed to build changes: %w", err)
	}
	result.Label = ch.Label
	result.Tree = change.Format(ch)
	change.Walk(ch, func(c change.Change, depth int) {
		result.Changes = append(result.Changes, ChangeInfo{Kind: c.Kind(), Description: c.Description(), Depth: depth})
	})

	if preview {
		previews, err := previewChanges(ws, ch)
		if err != nil {
			return err
		}
		result.Previews = previews
	}

	e.logger.WithField("policy", p.ID()).WithField("changes", ch.Len()).Debug("built changes")
	return nil
}

// targetCreator creates a missing destination in the in-memory model once
// the wrapped confirmer approves it.
type targetCreator struct {
	reorg.Confirmer
	ws *model.Workspace
}

func (t *targetCreator) CreateTargetIfMissing(dest reorg.Destination) (string, bool) {
	el := dest.Element
	if el == nil && dest.Resource != nil {
		el = dest.Resource.Element
	}
	if el == nil {
		return "", false
	}
	handle, ok := t.Confirmer.CreateTargetIfMissing(dest)
	if !ok {
		return "", false
	}
	t.ws.Restore(el)
	if handle == "" {
		handle = dest.Handle()
	}
	return handle, true
}
