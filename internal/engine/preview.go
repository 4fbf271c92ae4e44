package engine

import (
	"fmt"
	"path"

	"github.com/danieljhkim/reorg/internal/change"
	"github.com/danieljhkim/reorg/internal/model"
	"github.com/danieljhkim/reorg/internal/status"
)

// previewChanges renders a diff for every text change and created unit.
func previewChanges(ws *model.Workspace, ch change.Change) ([]FilePreview, error) {
	var previews []FilePreview
	var walkErr error
	change.Walk(ch, func(c change.Change, _ int) {
		if walkErr != nil {
			return
		}
		switch c := c.(type) {
		case *change.TextFile:
			before, err := fileText(ws, c.Path)
			if err != nil {
				walkErr = err
				return
			}
			after, err := change.ApplyEdits(before, c.Edits)
			if err != nil {
				walkErr = fmt.Errorf("failed to apply edits to %s: %w", c.Path, err)
				return
			}
			previews = append(previews, FilePreview{Path: c.Path, Diff: change.Preview(c.Path, before, after)})
		case *change.CreateUnit:
			p := unitPath(ws, c.Package, c.Name)
			previews = append(previews, FilePreview{Path: p, Diff: change.Preview(p, "", c.Contents)})
		}
	})
	if walkErr != nil {
		return nil, walkErr
	}
	return previews, nil
}

func fileText(ws *model.Workspace, p string) (string, error) {
	r, ok := ws.Resource(p)
	if !ok {
		return "", fmt.Errorf("%w: file %s not in model", status.ErrInvariant, p)
	}
	if r.Element != nil && r.Element.Kind == model.KindCompilationUnit {
		return ws.Source(r.Element)
	}
	return r.Content, nil
}

// unitPath returns the file path of a unit to be created in the package with
// the given handle, or the handle itself when the package has no folder.
func unitPath(ws *model.Workspace, pkgHandle, name string) string {
	if pkg, ok := ws.Element(pkgHandle); ok && pkg.Resource != nil {
		return path.Join(pkg.Resource.Path, name)
	}
	return pkgHandle + "/" + name
}
