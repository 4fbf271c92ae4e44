package model

import "strings"

// ResourceKind identifies the category of a resource.
type ResourceKind int

const (
	ResourceFile ResourceKind = iota + 1
	ResourceFolder
	ResourceProject
	ResourceWorkspaceRoot
)

func (k ResourceKind) String() string {
	switch k {
	case ResourceFile:
		return "file"
	case ResourceFolder:
		return "folder"
	case ResourceProject:
		return "project"
	case ResourceWorkspaceRoot:
		return "workspace root"
	default:
		return "unknown"
	}
}

// Resource is a node of the resource tree.
type Resource struct {
	// Path is the workspace path, e.g. "/P/src/p/A.java". The workspace root is "/".
	Path string

	Kind ResourceKind
	Name string

	Parent   *Resource
	Children []*Resource

	// Element is the corresponding program element, nil for plain resources.
	Element *Element

	ReadOnly bool
	// Linked resources point outside their parent on disk and are never moved physically.
	Linked bool
	// Phantom resources are known to the workspace but do not exist.
	Phantom bool
	// Inaccessible resources exist but cannot be opened (e.g. closed projects).
	Inaccessible bool

	// Location is the file-system location. Empty means it follows Path.
	Location string

	// Content is the text of a file.
	Content string
}

// IsContainer reports whether the resource can hold children.
func (r *Resource) IsContainer() bool {
	return r.Kind != ResourceFile
}

// Exists reports whether the resource exists.
func (r *Resource) Exists() bool {
	return r != nil && !r.Phantom
}

// FileLocation returns the file-system location of the resource.
func (r *Resource) FileLocation() string {
	if r.Location != "" {
		return r.Location
	}
	return r.Path
}

// IsDescendantOf reports whether r lies strictly below other in the workspace tree.
func (r *Resource) IsDescendantOf(other *Resource) bool {
	if r == nil || other == nil {
		return false
	}
	for cur := r.Parent; cur != nil; cur = cur.Parent {
		if cur == other {
			return true
		}
	}
	return false
}

// IsPrefixOf reports whether r is an ancestor of or equal to other, either in the
// workspace or on disk.
func (r *Resource) IsPrefixOf(other *Resource) bool {
	if r == other {
		return true
	}
	if other.IsDescendantOf(r) {
		return true
	}
	return pathHasPrefix(other.FileLocation(), r.FileLocation())
}

// Child returns the direct child with the given name.
func (r *Resource) Child(name string) *Resource {
	for _, c := range r.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// Walk calls fn for r and every descendant, depth first. Returning false from fn
// skips the children of that resource.
func (r *Resource) Walk(fn func(*Resource) bool) {
	if !fn(r) {
		return
	}
	for _, c := range r.Children {
		c.Walk(fn)
	}
}

func (r *Resource) String() string {
	if r == nil {
		return "<nil>"
	}
	return r.Path
}

func pathHasPrefix(p, prefix string) bool {
	if p == prefix {
		return true
	}
	if prefix == "/" {
		return strings.HasPrefix(p, "/")
	}
	return strings.HasPrefix(p, strings.TrimSuffix(prefix, "/")+"/")
}
