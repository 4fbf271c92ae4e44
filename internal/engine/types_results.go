package engine

import (
	"time"

	"github.com/danieljhkim/reorg/internal/status"
)

// PlanResult represents the result of planning or replaying an operation.
type PlanResult struct {
	// Policy is the stable policy identifier
	Policy string `json:"policy"`

	// Operation is "copy" or "move"
	Operation string `json:"operation"`

	// Selection holds the handles of the items the policy operates on, after
	// classification and any items pruned during confirmation
	Selection []string `json:"selection"`

	// Destination is the destination as given
	Destination string `json:"destination,omitempty"`

	// Status holds the validation entries
	Status []status.Entry `json:"status,omitempty"`

	// Label is the description of the root change
	Label string `json:"label,omitempty"`

	// Tree is the indented change tree
	Tree string `json:"tree,omitempty"`

	// Changes is the change tree flattened in walk order
	Changes []ChangeInfo `json:"changes,omitempty"`

	// Previews holds one diff per changed or created file
	Previews []FilePreview `json:"previews,omitempty"`

	// HistoryID is set when the descriptor was saved
	HistoryID string `json:"historyId,omitempty"`
}

// ChangeInfo describes one node of the change tree.
type ChangeInfo struct {
	Kind        string `json:"kind"`
	Description string `json:"description"`
	Depth       int    `json:"depth"`
}

// FilePreview is the diff of one file.
type FilePreview struct {
	Path string `json:"path"`
	Diff string `json:"diff"`
}

// HistoryInfo summarizes a saved descriptor.
type HistoryInfo struct {
	ID        string    `json:"id"`
	Policy    string    `json:"policy"`
	Label     string    `json:"label,omitempty"`
	Model     string    `json:"model,omitempty"`
	Items     int       `json:"items"`
	CreatedAt time.Time `json:"createdAt"`
}
