// Package engine provides the operations behind the reorg commands.
//
// The engine loads a workspace model, lets the reorg package choose and
// validate a policy for the selection, runs confirmation and change building,
// and records descriptors in the history so an operation can be replayed.
//
// Key components:
//   - Engine: Main orchestrator called by the CLI
//   - Plan: Classify, validate, confirm and build changes for a selection
//   - Replay: Rebuild a saved descriptor against the current model
//   - History: List, show and delete saved descriptors
package engine

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/danieljhkim/reorg/internal/config"
	"github.com/danieljhkim/reorg/internal/history"
	"github.com/danieljhkim/reorg/internal/model"
	"github.com/danieljhkim/reorg/internal/reorg"
	"github.com/danieljhkim/reorg/internal/status"
)

// ModelLoader loads a workspace model from a file.
type ModelLoader func(path string) (*model.Workspace, error)

// Engine orchestrates all reorg operations.
// It is the main API surface called by the CLI.
type Engine struct {
	history  history.Store
	load     ModelLoader
	settings config.Settings
	logger   logrus.FieldLogger
}

// New creates a new Engine with the given dependencies.
func New(store history.Store, load ModelLoader, settings config.Settings, logger logrus.FieldLogger) *Engine {
	return &Engine{
		history:  store,
		load:     load,
		settings: settings,
		logger:   logger,
	}
}

func (e *Engine) loadModel(path string) (*model.Workspace, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no model file given", ErrValidation)
	}
	ws, err := e.load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	return ws, nil
}

// flags merges the configured defaults with the overrides of a request.
func (e *Engine) flags(req *PlanRequest) reorg.Flags {
	f := reorg.DefaultFlags()
	f.UpdateReferences = e.settings.UpdateReferences
	f.UpdateQualifiedNames = e.settings.UpdateQualifiedNames
	f.FilePatterns = e.settings.FilePatterns
	if req.UpdateReferences != nil {
		f.UpdateReferences = *req.UpdateReferences
	}
	if req.UpdateQualifiedNames != nil {
		f.UpdateQualifiedNames = *req.UpdateQualifiedNames
	}
	if req.FilePatterns != nil {
		f.FilePatterns = *req.FilePatterns
	}
	if req.CreateMissing {
		f.CheckDestination = false
	}
	return f
}

// resolveSelection splits handles into elements and resources.
func resolveSelection(ws *model.Workspace, handles []string) ([]*model.Element, []*model.Resource, error) {
	var elements []*model.Element
	var resources []*model.Resource
	for _, h := range handles {
		if model.IsResourceHandle(h) {
			r, ok := ws.Resource(h)
			if !ok {
				return nil, nil, fmt.Errorf("%w: resource %s", ErrNotFound, h)
			}
			resources = append(resources, r)
			continue
		}
		el, ok := ws.Element(h)
		if !ok {
			return nil, nil, fmt.Errorf("%w: element %s", ErrNotFound, h)
		}
		elements = append(elements, el)
	}
	return elements, resources, nil
}

func resolveDestination(ws *model.Workspace, handle string, loc reorg.Location) (reorg.Destination, error) {
	if model.IsResourceHandle(handle) {
		r, ok := ws.Resource(handle)
		if !ok {
			return reorg.Destination{}, fmt.Errorf("%w: destination %s", ErrNotFound, handle)
		}
		return reorg.ResourceDestination(r), nil
	}
	el, ok := ws.Element(handle)
	if !ok {
		return reorg.Destination{}, fmt.Errorf("%w: destination %s", ErrNotFound, handle)
	}
	return reorg.ElementDestination(el, loc), nil
}

// validationError turns the first fatal entry of st into an ErrValidation error.
func validationError(st *status.Status) error {
	entry, ok := st.FirstFatal()
	if !ok {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrValidation, entry.Message)
}

// historyError maps history sentinels to engine sentinels.
func historyError(err error) error {
	if errors.Is(err, history.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if errors.Is(err, history.ErrAmbiguous) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}
	return err
}

func handles(s reorg.Selection) []string {
	items := s.Items()
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Handle())
	}
	return out
}
