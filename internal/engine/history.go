package engine

import (
	"context"
	"strconv"

	"github.com/danieljhkim/reorg/internal/history"
	"github.com/danieljhkim/reorg/internal/reorg"
)

// ListHistory returns the saved descriptors, oldest first.
func (e *Engine) ListHistory(ctx context.Context) ([]HistoryInfo, error) {
	records, err := e.history.List()
	if err != nil {
		return nil, err
	}
	infos := make([]HistoryInfo, 0, len(records))
	for _, r := range records {
		infos = append(infos, HistoryInfo{
			ID:        r.ID,
			Policy:    r.Policy,
			Label:     r.Label,
			Model:     r.Model,
			Items:     itemCount(r.Arguments),
			CreatedAt: r.CreatedAt,
		})
	}
	return infos, nil
}

// ShowHistory returns one saved descriptor.
func (e *Engine) ShowHistory(ctx context.Context, id string) (*history.Record, error) {
	r, err := e.history.Load(id)
	if err != nil {
		return nil, historyError(err)
	}
	return r, nil
}

// DeleteHistory removes a saved descriptor.
func (e *Engine) DeleteHistory(ctx context.Context, id string) error {
	if err := e.history.Delete(id); err != nil {
		return historyError(err)
	}
	return nil
}

func itemCount(args map[string]string) int {
	total := 0
	for _, key := range []string{reorg.ArgFiles, reorg.ArgFolders, reorg.ArgUnits, reorg.ArgFragments, reorg.ArgRoots, reorg.ArgMembers} {
		if n, err := strconv.Atoi(args[key]); err == nil {
			total += n
		}
	}
	return total
}
