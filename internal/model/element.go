// Package model holds the program-structure model the reorg engine operates on.
//
// The model is a tree of program elements (projects, package roots, packages,
// compilation units and their members) mirrored by a tree of resources (the
// workspace root, projects, folders and files). Elements carry the source
// ranges an external parser would report; the engine never parses source
// itself, it only reads those ranges.
//
// Key components:
//   - Element: a program element addressed by a stable handle string
//   - Resource: a file-system item addressed by its workspace path
//   - Workspace: an in-memory Model implementation with a builder API
//   - Load: reads a Workspace from a YAML model file
package model

import (
	"path"
	"strings"
)

// Kind identifies the category of a program element.
type Kind int

const (
	KindModel Kind = iota + 1
	KindProject
	KindPackageRoot
	KindPackage
	KindCompilationUnit
	KindPackageDeclaration
	KindImportContainer
	KindImportDeclaration
	KindType
	KindField
	KindMethod
	KindInitializer
)

var kindNames = map[Kind]string{
	KindModel:              "model",
	KindProject:            "project",
	KindPackageRoot:        "package root",
	KindPackage:            "package",
	KindCompilationUnit:    "compilation unit",
	KindPackageDeclaration: "package declaration",
	KindImportContainer:    "import container",
	KindImportDeclaration:  "import declaration",
	KindType:               "type",
	KindField:              "field",
	KindMethod:             "method",
	KindInitializer:        "initializer",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// IsMember reports whether the kind is a class member (type, field, method or initializer).
func (k Kind) IsMember() bool {
	switch k {
	case KindType, KindField, KindMethod, KindInitializer:
		return true
	}
	return false
}

// IsSmallerThanUnit reports whether elements of this kind live inside a compilation unit.
func (k Kind) IsSmallerThanUnit() bool {
	return k.IsMember() || k == KindPackageDeclaration || k == KindImportContainer || k == KindImportDeclaration
}

// RootKind tells source roots from binary (class folder or archive) roots.
type RootKind int

const (
	RootSource RootKind = iota
	RootBinary
)

// Range is a half-open byte range within a compilation unit's source.
type Range struct {
	Offset int
	Length int
}

// End returns the offset one past the last byte of the range.
func (r Range) End() int {
	return r.Offset + r.Length
}

// IsZero reports whether the range is unset.
func (r Range) IsZero() bool {
	return r.Offset == 0 && r.Length == 0
}

// Contains reports whether o lies entirely within r.
func (r Range) Contains(o Range) bool {
	return o.Offset >= r.Offset && o.End() <= r.End()
}

// Element is a node of the program model.
type Element struct {
	// Handle is the stable identifier of the element (see handle.go).
	Handle string

	// Kind is the element category
	Kind Kind

	// Name is the simple name. Packages use the dotted name, the default package is "".
	Name string

	Parent   *Element
	Children []*Element

	// Resource is the corresponding resource: project, root folder or archive,
	// package folder, or unit file. Nil for sub-unit elements.
	Resource *Resource

	// Missing marks a handle that no longer resolves to an existing element.
	Missing  bool
	ReadOnly bool

	// Package root attributes
	RootKind RootKind
	Archive  bool
	External bool

	// Type attributes
	Interface bool
	Enum      bool
	Anonymous bool
	// InSwitch marks a local type declared inside a switch statement group.
	InSwitch bool

	// EnumConstant marks a field that is an enum constant.
	EnumConstant bool

	// Range covers the declaration without its doc comment. For a fragment of a
	// multi-fragment field declaration it covers only the declarator.
	Range Range
	// DocRange covers the doc comment preceding the declaration.
	DocRange Range
	// NameRange covers the declared identifier.
	NameRange Range
	// BodyRange covers the text between the braces of a type body.
	BodyRange Range
	// DeclRange covers the whole field declaration a fragment belongs to, and
	// TypeRange its modifiers and type.
	DeclRange Range
	TypeRange Range

	// References lists the fully qualified type names the declaration refers to.
	References []string

	// Source is the text of a compilation unit.
	Source string
}

// Exists reports whether the element exists.
func (e *Element) Exists() bool {
	return e != nil && !e.Missing
}

// Ancestor returns the closest ancestor of the given kind, including e itself.
func (e *Element) Ancestor(kind Kind) *Element {
	for cur := e; cur != nil; cur = cur.Parent {
		if cur.Kind == kind {
			return cur
		}
	}
	return nil
}

// Unit returns the enclosing compilation unit.
func (e *Element) Unit() *Element {
	return e.Ancestor(KindCompilationUnit)
}

// PackageRoot returns the enclosing package root.
func (e *Element) PackageRoot() *Element {
	return e.Ancestor(KindPackageRoot)
}

// Package returns the enclosing package.
func (e *Element) Package() *Element {
	return e.Ancestor(KindPackage)
}

// Project returns the enclosing project.
func (e *Element) Project() *Element {
	return e.Ancestor(KindProject)
}

// IsDescendantOf reports whether e lies strictly below other.
func (e *Element) IsDescendantOf(other *Element) bool {
	if e == nil || other == nil {
		return false
	}
	for cur := e.Parent; cur != nil; cur = cur.Parent {
		if cur == other {
			return true
		}
	}
	return false
}

// ChildrenOfKind returns the direct children of the given kinds in declaration order.
func (e *Element) ChildrenOfKind(kinds ...Kind) []*Element {
	var out []*Element
	for _, c := range e.Children {
		for _, k := range kinds {
			if c.Kind == k {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// Child returns the direct child with the given kind and name.
func (e *Element) Child(kind Kind, name string) *Element {
	for _, c := range e.Children {
		if c.Kind == kind && c.Name == name {
			return c
		}
	}
	return nil
}

// Types returns the top-level types of a compilation unit, or the member types of a type.
func (e *Element) Types() []*Element {
	return e.ChildrenOfKind(KindType)
}

// ImportContainer returns the import container of a compilation unit.
func (e *Element) ImportContainer() *Element {
	for _, c := range e.Children {
		if c.Kind == KindImportContainer {
			return c
		}
	}
	return nil
}

// Imports returns the import declarations of a compilation unit.
func (e *Element) Imports() []*Element {
	if ic := e.ImportContainer(); ic != nil {
		return ic.ChildrenOfKind(KindImportDeclaration)
	}
	return nil
}

// PackageDeclaration returns the package declaration of a compilation unit.
func (e *Element) PackageDeclaration() *Element {
	for _, c := range e.Children {
		if c.Kind == KindPackageDeclaration {
			return c
		}
	}
	return nil
}

// MainType returns the top-level type named after the compilation unit, or nil.
func (e *Element) MainType() *Element {
	if e.Kind != KindCompilationUnit {
		return nil
	}
	base := strings.TrimSuffix(e.Name, path.Ext(e.Name))
	for _, t := range e.Types() {
		if t.Name == base {
			return t
		}
	}
	return nil
}

// DeclaringType returns the type that declares a member, or nil for top-level elements.
func (e *Element) DeclaringType() *Element {
	if e.Parent != nil && e.Parent.Kind == KindType {
		return e.Parent
	}
	return nil
}

// IsDefaultPackage reports whether e is a default (unnamed) package.
func (e *Element) IsDefaultPackage() bool {
	return e.Kind == KindPackage && e.Name == ""
}

// IsSourceRoot reports whether e is a source package root.
func (e *Element) IsSourceRoot() bool {
	return e.Kind == KindPackageRoot && e.RootKind == RootSource && !e.Archive
}

// IsReadOnly reports whether the element or its resource is read-only. Elements
// of binary roots are read-only as a whole.
func (e *Element) IsReadOnly() bool {
	if e.ReadOnly {
		return true
	}
	if e.Resource != nil && e.Resource.ReadOnly {
		return true
	}
	if root := e.PackageRoot(); root != nil && root != e && (root.RootKind == RootBinary || root.Archive) {
		return true
	}
	return false
}

// FullyQualifiedName returns the dotted name of a type, including enclosing types.
func (e *Element) FullyQualifiedName() string {
	if e.Kind != KindType {
		return e.Name
	}
	var parts []string
	for cur := e; cur != nil && cur.Kind == KindType; cur = cur.Parent {
		parts = append([]string{cur.Name}, parts...)
	}
	if pkg := e.Package(); pkg != nil && pkg.Name != "" {
		parts = append([]string{pkg.Name}, parts...)
	}
	return strings.Join(parts, ".")
}

// SourceRange returns the range covering the doc comment and the declaration.
func (e *Element) SourceRange() Range {
	start := e.Range.Offset
	if !e.DocRange.IsZero() && e.DocRange.Offset < start {
		start = e.DocRange.Offset
	}
	return Range{Offset: start, Length: e.Range.End() - start}
}

// IsFragment reports whether a field shares its declaration with other fragments.
func (e *Element) IsFragment() bool {
	return e.Kind == KindField && !e.DeclRange.IsZero() && e.DeclRange != e.Range
}

// Fragments returns the fields declared by the same declaration as e, in order.
func (e *Element) Fragments() []*Element {
	if !e.IsFragment() || e.Parent == nil {
		return []*Element{e}
	}
	var out []*Element
	for _, c := range e.Parent.Children {
		if c.Kind == KindField && c.DeclRange == e.DeclRange {
			out = append(out, c)
		}
	}
	return out
}

func (e *Element) String() string {
	if e == nil {
		return "<nil>"
	}
	return e.Handle
}
