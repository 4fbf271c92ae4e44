package model

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
)

// ErrNoSource is returned when a compilation unit has no source text available.
var ErrNoSource = errors.New("no source available")

// Model is the program model consumed by the reorg engine.
type Model interface {
	// Root returns the model root element.
	Root() *Element

	// WorkspaceRoot returns the workspace root resource.
	WorkspaceRoot() *Resource

	// Element resolves an element handle.
	Element(handle string) (*Element, bool)

	// Resource resolves a workspace path.
	Resource(path string) (*Resource, bool)

	// Source returns the source text of a compilation unit.
	Source(unit *Element) (string, error)

	// SearchQualifiedName finds textual occurrences of a dotted name at identifier
	// boundaries in every file accepted by accept.
	SearchQualifiedName(ctx context.Context, name string, accept func(*Resource) bool) ([]TextMatch, error)
}

// TextMatch is one occurrence found by SearchQualifiedName.
type TextMatch struct {
	File   *Resource
	Offset int
	Length int
}

// Workspace is an in-memory Model. Construction methods are not meant to be
// called while policies read the workspace.
type Workspace struct {
	mu        sync.RWMutex
	root      *Element
	wsRoot    *Resource
	elements  map[string]*Element
	resources map[string]*Resource
	// cursors remember where the annotator stopped inside each parent.
	cursors map[*Element]int
	errs    []error
}

// NewWorkspace creates an empty workspace.
func NewWorkspace() *Workspace {
	w := &Workspace{
		root:      &Element{Handle: handleModel, Kind: KindModel},
		wsRoot:    &Resource{Path: "/", Kind: ResourceWorkspaceRoot},
		elements:  make(map[string]*Element),
		resources: make(map[string]*Resource),
		cursors:   make(map[*Element]int),
	}
	w.elements[w.root.Handle] = w.root
	w.resources[w.wsRoot.Path] = w.wsRoot
	return w
}

// Root returns the model root element.
func (w *Workspace) Root() *Element {
	return w.root
}

// WorkspaceRoot returns the workspace root resource.
func (w *Workspace) WorkspaceRoot() *Resource {
	return w.wsRoot
}

// Element resolves an element handle.
func (w *Workspace) Element(handle string) (*Element, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	e, ok := w.elements[handle]
	return e, ok
}

// Resource resolves a workspace path.
func (w *Workspace) Resource(p string) (*Resource, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	r, ok := w.resources[p]
	return r, ok
}

// Source returns the source text of a compilation unit.
func (w *Workspace) Source(unit *Element) (string, error) {
	if unit == nil || unit.Kind != KindCompilationUnit {
		return "", fmt.Errorf("%v is not a compilation unit", unit)
	}
	if !unit.Exists() {
		return "", fmt.Errorf("compilation unit %s does not exist", unit.Handle)
	}
	if root := unit.PackageRoot(); root != nil && root.RootKind == RootBinary && unit.Source == "" {
		return "", fmt.Errorf("%w for %s", ErrNoSource, unit.Handle)
	}
	return unit.Source, nil
}

// Files returns every file resource in path order.
func (w *Workspace) Files() []*Resource {
	w.mu.RLock()
	defer w.mu.RUnlock()
	var files []*Resource
	for _, r := range w.resources {
		if r.Kind == ResourceFile && !r.Phantom {
			files = append(files, r)
		}
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files
}

// SearchQualifiedName finds occurrences of name in accepted files. An occurrence
// must not be preceded by an identifier character or a dot, and must not be
// followed by an identifier character.
func (w *Workspace) SearchQualifiedName(ctx context.Context, name string, accept func(*Resource) bool) ([]TextMatch, error) {
	if name == "" {
		return nil, nil
	}
	var matches []TextMatch
	for _, f := range w.Files() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if accept != nil && !accept(f) {
			continue
		}
		content := f.Content
		for from := 0; from < len(content); {
			idx := strings.Index(content[from:], name)
			if idx < 0 {
				break
			}
			at := from + idx
			end := at + len(name)
			before := at == 0 || !(isIdentChar(content[at-1]) || content[at-1] == '.')
			after := end >= len(content) || !isIdentChar(content[end])
			if before && after {
				matches = append(matches, TextMatch{File: f, Offset: at, Length: len(name)})
			}
			from = at + 1
		}
	}
	return matches, nil
}

func isIdentChar(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func (w *Workspace) register(e *Element) *Element {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.elements[e.Handle] = e
	if e.Parent != nil {
		e.Parent.Children = append(e.Parent.Children, e)
	}
	return e
}

func (w *Workspace) registerResource(r *Resource) *Resource {
	w.mu.Lock()
	defer w.mu.Unlock()
	if existing, ok := w.resources[r.Path]; ok {
		return existing
	}
	w.resources[r.Path] = r
	if r.Parent != nil {
		r.Parent.Children = append(r.Parent.Children, r)
	}
	return r
}

func childPath(parent *Resource, name string) string {
	if parent.Path == "/" {
		return "/" + name
	}
	return parent.Path + "/" + name
}

// AddProject adds a project and its project resource.
func (w *Workspace) AddProject(name string) *Element {
	res := w.registerResource(&Resource{
		Path:   childPath(w.wsRoot, name),
		Kind:   ResourceProject,
		Name:   name,
		Parent: w.wsRoot,
	})
	project := w.register(&Element{
		Handle:   childHandle(w.root, KindProject, name),
		Kind:     KindProject,
		Name:     name,
		Parent:   w.root,
		Resource: res,
	})
	res.Element = project
	return project
}

// AddFolder adds a plain folder below parent, creating it only once.
func (w *Workspace) AddFolder(parent *Resource, name string) *Resource {
	return w.registerResource(&Resource{
		Path:   childPath(parent, name),
		Kind:   ResourceFolder,
		Name:   name,
		Parent: parent,
	})
}

// AddFile adds a plain file below parent.
func (w *Workspace) AddFile(parent *Resource, name, content string) *Resource {
	return w.registerResource(&Resource{
		Path:    childPath(parent, name),
		Kind:    ResourceFile,
		Name:    name,
		Parent:  parent,
		Content: content,
	})
}

// AddSourceRoot adds a source root. An empty folder makes the project itself the root.
func (w *Workspace) AddSourceRoot(project *Element, folder string) *Element {
	return w.addRoot(project, folder, RootSource, false, false)
}

// AddBinaryRoot adds a class-folder root.
func (w *Workspace) AddBinaryRoot(project *Element, folder string) *Element {
	return w.addRoot(project, folder, RootBinary, false, false)
}

// AddArchiveRoot adds an archive root. External archives have no workspace resource.
func (w *Workspace) AddArchiveRoot(project *Element, file string, external bool) *Element {
	return w.addRoot(project, file, RootBinary, true, external)
}

func (w *Workspace) addRoot(project *Element, name string, kind RootKind, archive, external bool) *Element {
	root := &Element{
		Handle:   childHandle(project, KindPackageRoot, name),
		Kind:     KindPackageRoot,
		Name:     name,
		Parent:   project,
		RootKind: kind,
		Archive:  archive,
		External: external,
	}
	switch {
	case external:
		// lives outside the workspace
	case name == "":
		root.Resource = project.Resource
	case archive:
		root.Resource = w.AddFile(project.Resource, name, "")
	default:
		root.Resource = w.addFolderPath(project.Resource, name)
	}
	if root.Resource != nil && root.Resource.Element == nil {
		root.Resource.Element = root
	}
	w.register(root)
	w.addPackageElement(root, "")
	return root
}

func (w *Workspace) addFolderPath(parent *Resource, rel string) *Resource {
	cur := parent
	for _, seg := range strings.Split(rel, "/") {
		if seg == "" {
			continue
		}
		cur = w.AddFolder(cur, seg)
	}
	return cur
}

// DefaultPackage returns the default package of a root.
func (w *Workspace) DefaultPackage(root *Element) *Element {
	return root.Child(KindPackage, "")
}

// AddPackage adds a named package to a root, creating its folders.
func (w *Workspace) AddPackage(root *Element, name string) *Element {
	if existing := root.Child(KindPackage, name); existing != nil {
		return existing
	}
	return w.addPackageElement(root, name)
}

func (w *Workspace) addPackageElement(root *Element, name string) *Element {
	pkg := &Element{
		Handle: childHandle(root, KindPackage, name),
		Kind:   KindPackage,
		Name:   name,
		Parent: root,
	}
	if root.Resource != nil && !root.Archive {
		if name == "" {
			pkg.Resource = root.Resource
		} else {
			pkg.Resource = w.addFolderPath(root.Resource, strings.ReplaceAll(name, ".", "/"))
			pkg.Resource.Element = pkg
		}
	}
	return w.register(pkg)
}

// AddUnit adds a compilation unit and annotates its package and import declarations.
func (w *Workspace) AddUnit(pkg *Element, name, source string) *Element {
	unit := &Element{
		Handle: childHandle(pkg, KindCompilationUnit, name),
		Kind:   KindCompilationUnit,
		Name:   name,
		Parent: pkg,
		Source: source,
		Range:  Range{Offset: 0, Length: len(source)},
	}
	if pkg.Resource != nil {
		unit.Resource = w.AddFile(pkg.Resource, name, source)
		unit.Resource.Element = unit
	}
	w.register(unit)
	w.annotateHeader(unit)
	return unit
}

// MarkMissing records that an element no longer exists.
func (w *Workspace) MarkMissing(e *Element) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e.Missing = true
	if e.Resource != nil && e.Resource.Element == e {
		e.Resource.Phantom = true
	}
}

// UnitBaseName strips the extension from a unit or file name.
func UnitBaseName(name string) string {
	return strings.TrimSuffix(name, path.Ext(name))
}

// Restore marks a missing element as existing again.
func (w *Workspace) Restore(e *Element) {
	w.mu.Lock()
	defer w.mu.Unlock()
	e.Missing = false
	if e.Resource != nil && e.Resource.Element == e {
		e.Resource.Phantom = false
	}
}
