package engine

import "github.com/danieljhkim/reorg/internal/reorg"

// PlanRequest represents a request to plan a copy or move.
type PlanRequest struct {
	// ModelPath is the workspace model file
	ModelPath string

	// Operation is "copy" or "move"
	Operation string

	// Select holds element handles and resource paths
	Select []string

	// Destination is an element handle or resource path
	Destination string

	// Location places member destinations: "on", "before" or "after"
	Location string

	// UpdateReferences overrides the configured default when set
	UpdateReferences *bool

	// UpdateQualifiedNames overrides the configured default when set
	UpdateQualifiedNames *bool

	// FilePatterns overrides the configured default when set
	FilePatterns *string

	// CreateMissing allows a destination that does not exist yet; the
	// confirmer is asked before it is created
	CreateMissing bool

	// Confirmer answers read-only, overwrite and create questions. Nil
	// approves everything.
	Confirmer reorg.Confirmer

	// Preview renders diffs of text changes
	Preview bool

	// Save stores the descriptor in the history
	Save bool
}

// ReplayRequest represents a request to rebuild a saved operation.
type ReplayRequest struct {
	// ID is a history id or unique id prefix
	ID string

	// ModelPath overrides the model file recorded with the descriptor
	ModelPath string

	// Confirmer answers confirmation questions. Nil approves everything.
	Confirmer reorg.Confirmer

	// Preview renders diffs of text changes
	Preview bool
}
