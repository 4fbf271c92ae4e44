package engine

import (
	"context"
	"fmt"

	"github.com/danieljhkim/reorg/internal/model"
	"github.com/danieljhkim/reorg/internal/reorg"
)

// Replay rebuilds a saved descriptor against the model and builds its changes
// again. Targets the descriptor recorded as created are restored in the model
// first, so the confirmer is not asked to create them a second time.
func (e *Engine) Replay(ctx context.Context, req *ReplayRequest) (*PlanResult, error) {
	rec, err := e.history.Load(req.ID)
	if err != nil {
		return nil, historyError(err)
	}
	modelPath := req.ModelPath
	if modelPath == "" {
		modelPath = rec.Model
	}
	ws, err := e.loadModel(modelPath)
	if err != nil {
		return nil, err
	}

	if err := e.restoreCreated(ws, rec.Arguments); err != nil {
		return nil, err
	}
	d := &reorg.Descriptor{Policy: rec.Policy, Arguments: rec.Arguments}
	p, st, err := reorg.FromDescriptor(ctx, ws, d, reorg.WithLogger(e.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to restore descriptor %s: %w", rec.ID, err)
	}
	result := &PlanResult{Policy: rec.Policy, HistoryID: rec.ID}
	if st != nil {
		result.Status = st.Entries()
	}
	if p == nil {
		return result, validationError(st)
	}
	result.Operation = p.Operation().String()
	result.Selection = handles(p.Selection())
	if dest, ok := p.Destination(); ok {
		result.Destination = dest.Handle()
	}

	confirmer := req.Confirmer
	if confirmer == nil {
		confirmer = reorg.AlwaysConfirm{}
	}
	if err := e.build(ctx, ws, p, confirmer, req.Preview, result); err != nil {
		return result, err
	}
	e.logger.WithField("id", rec.ID).Debug("replayed descriptor")
	return result, nil
}

// restoreCreated marks the target recorded as created for the descriptor's
// destination as existing. A freshly loaded model still lists it as missing.
func (e *Engine) restoreCreated(ws *model.Workspace, args map[string]string) error {
	raw, ok := args[reorg.ArgLog]
	if !ok {
		return nil
	}
	log, err := reorg.DecodeLog(raw)
	if err != nil {
		// FromDescriptor reports the broken log as a status entry.
		return nil
	}
	dest, ok := args[reorg.ArgDestination]
	if !ok {
		dest = args[reorg.ArgTarget]
	}
	created, ok := log.Created(dest)
	if !ok {
		return nil
	}
	var el *model.Element
	if model.IsResourceHandle(created) {
		if r, found := ws.Resource(created); found {
			el = r.Element
		}
	} else {
		el, _ = ws.Element(created)
	}
	if el == nil {
		return fmt.Errorf("%w: created target %s", ErrNotFound, created)
	}
	if !el.Exists() {
		ws.Restore(el)
		e.logger.WithField("target", created).Debug("restored created target")
	}
	return nil
}
