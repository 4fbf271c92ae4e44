// Package change describes the workspace edits produced by a reorg operation.
//
// Changes form a tree: a Composite groups atomic resource changes (moves,
// copies, creations and deletions of files, units, packages and package roots)
// and text changes. Nothing in this package touches the workspace; an external
// change engine executes and undoes the tree.
package change

import (
	"fmt"
	"strings"
)

// Change is a node of the change tree.
type Change interface {
	// Kind is a stable identifier of the change type.
	Kind() string

	// Description is a one-line human readable summary.
	Description() string
}

// Composite groups child changes, executed in order.
type Composite struct {
	Label    string
	Children []Change
}

// NewComposite creates an empty composite change.
func NewComposite(label string) *Composite {
	return &Composite{Label: label}
}

// Add appends changes, flattening nested composites without a label.
func (c *Composite) Add(changes ...Change) {
	for _, ch := range changes {
		if nested, ok := ch.(*Composite); ok && nested.Label == "" {
			c.Children = append(c.Children, nested.Children...)
			continue
		}
		c.Children = append(c.Children, ch)
	}
}

// Len returns the number of atomic changes in the tree.
func (c *Composite) Len() int {
	n := 0
	Walk(c, func(ch Change, _ int) {
		if _, ok := ch.(*Composite); !ok {
			n++
		}
	})
	return n
}

func (c *Composite) Kind() string        { return "composite" }
func (c *Composite) Description() string { return c.Label }

// Walk visits ch and its descendants depth first.
func Walk(ch Change, fn func(ch Change, depth int)) {
	walk(ch, 0, fn)
}

func walk(ch Change, depth int, fn func(Change, int)) {
	fn(ch, depth)
	if c, ok := ch.(*Composite); ok {
		for _, child := range c.Children {
			walk(child, depth+1, fn)
		}
	}
}

// MoveResource moves a file or folder into a container.
type MoveResource struct {
	Path        string
	Destination string
}

func (m *MoveResource) Kind() string { return "move-resource" }
func (m *MoveResource) Description() string {
	return fmt.Sprintf("Move %s to %s", m.Path, m.Destination)
}

// CopyResource copies a file or folder into a container, optionally renaming it.
type CopyResource struct {
	Path        string
	Destination string
	NewName     string
	Overwrite   bool
}

func (c *CopyResource) Kind() string { return "copy-resource" }
func (c *CopyResource) Description() string {
	d := fmt.Sprintf("Copy %s to %s", c.Path, c.Destination)
	if c.NewName != "" {
		d += " as " + c.NewName
	}
	if c.Overwrite {
		d += " (overwrite)"
	}
	return d
}

// MoveUnit moves a compilation unit into a package.
type MoveUnit struct {
	Unit             string
	Package          string
	UpdateReferences bool
	Overwrite        bool
}

func (m *MoveUnit) Kind() string { return "move-unit" }
func (m *MoveUnit) Description() string {
	d := fmt.Sprintf("Move unit %s to %s", m.Unit, m.Package)
	if m.UpdateReferences {
		d += " (update references)"
	}
	return d
}

// CopyUnit copies a compilation unit into a package under its own name.
type CopyUnit struct {
	Unit      string
	Package   string
	Overwrite bool
}

func (c *CopyUnit) Kind() string { return "copy-unit" }
func (c *CopyUnit) Description() string {
	d := fmt.Sprintf("Copy unit %s to %s", c.Unit, c.Package)
	if c.Overwrite {
		d += " (overwrite)"
	}
	return d
}

// CreateUnit creates a compilation unit with the given contents.
type CreateUnit struct {
	Package  string
	Name     string
	Contents string
}

func (c *CreateUnit) Kind() string { return "create-unit" }
func (c *CreateUnit) Description() string {
	return fmt.Sprintf("Create unit %s in %s", c.Name, c.Package)
}

// DeleteUnit deletes a compilation unit.
type DeleteUnit struct {
	Unit string
}

func (d *DeleteUnit) Kind() string        { return "delete-unit" }
func (d *DeleteUnit) Description() string { return "Delete unit " + d.Unit }

// MovePackage moves a package into a package root.
type MovePackage struct {
	Package string
	Root    string
}

func (m *MovePackage) Kind() string { return "move-package" }
func (m *MovePackage) Description() string {
	return fmt.Sprintf("Move package %s to %s", m.Package, m.Root)
}

// CopyPackage copies a package into a package root, optionally renaming it.
type CopyPackage struct {
	Package string
	Root    string
	NewName string
}

func (c *CopyPackage) Kind() string { return "copy-package" }
func (c *CopyPackage) Description() string {
	d := fmt.Sprintf("Copy package %s to %s", c.Package, c.Root)
	if c.NewName != "" {
		d += " as " + c.NewName
	}
	return d
}

// CreatePackage creates a package in a package root.
type CreatePackage struct {
	Root string
	Name string
}

func (c *CreatePackage) Kind() string { return "create-package" }
func (c *CreatePackage) Description() string {
	return fmt.Sprintf("Create package %s in %s", c.Name, c.Root)
}

// MovePackageRoot moves a package root into another project.
type MovePackageRoot struct {
	Root    string
	Project string
}

func (m *MovePackageRoot) Kind() string { return "move-root" }
func (m *MovePackageRoot) Description() string {
	return fmt.Sprintf("Move package root %s to %s", m.Root, m.Project)
}

// CopyPackageRoot copies a package root into a project, optionally renaming it.
type CopyPackageRoot struct {
	Root    string
	Project string
	NewName string
}

func (c *CopyPackageRoot) Kind() string { return "copy-root" }
func (c *CopyPackageRoot) Description() string {
	d := fmt.Sprintf("Copy package root %s to %s", c.Root, c.Project)
	if c.NewName != "" {
		d += " as " + c.NewName
	}
	return d
}

// TextFile is a set of text edits against a single file.
type TextFile struct {
	Path  string
	Label string
	Edits []TextEdit
}

func (t *TextFile) Kind() string { return "text" }
func (t *TextFile) Description() string {
	label := t.Label
	if label == "" {
		label = "Edit"
	}
	return fmt.Sprintf("%s %s (%d %s)", label, t.Path, len(t.Edits), plural(len(t.Edits), "edit", "edits"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

// Format renders the tree as indented lines.
func Format(ch Change) string {
	var b strings.Builder
	Walk(ch, func(c Change, depth int) {
		if depth == 0 {
			if comp, ok := c.(*Composite); ok && comp.Label == "" {
				return
			}
		}
		fmt.Fprintf(&b, "%s%s\n", strings.Repeat("  ", depth), c.Description())
	})
	return b.String()
}
