package model

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the YAML description of a workspace.
type File struct {
	Projects []ProjectSpec `yaml:"projects"`
}

// ProjectSpec describes a project, its package roots and its plain folders.
type ProjectSpec struct {
	Name         string       `yaml:"name"`
	Inaccessible bool         `yaml:"inaccessible,omitempty"`
	Roots        []RootSpec   `yaml:"roots,omitempty"`
	Folders      []FolderSpec `yaml:"folders,omitempty"`
	Files        []FileSpec   `yaml:"files,omitempty"`
}

// RootSpec describes a package root. Kind is one of source, binary, archive or
// external; an empty path makes the project itself the root.
type RootSpec struct {
	Path     string        `yaml:"path"`
	Kind     string        `yaml:"kind,omitempty"`
	ReadOnly bool          `yaml:"readOnly,omitempty"`
	Packages []PackageSpec `yaml:"packages,omitempty"`
}

// PackageSpec describes a package. The default package has an empty name.
// A missing package is known to the model but does not exist yet.
type PackageSpec struct {
	Name     string     `yaml:"name"`
	ReadOnly bool       `yaml:"readOnly,omitempty"`
	Missing  bool       `yaml:"missing,omitempty"`
	Units    []UnitSpec `yaml:"units,omitempty"`
	Files    []FileSpec `yaml:"files,omitempty"`
}

// UnitSpec describes a compilation unit and the members declared in it, in
// source order.
type UnitSpec struct {
	Name     string       `yaml:"name"`
	ReadOnly bool         `yaml:"readOnly,omitempty"`
	Source   string       `yaml:"source"`
	Members  []MemberSpec `yaml:"members,omitempty"`
}

// MemberSpec describes one member. Exactly one of Type, Method, Field, Constant
// or Initializer is set; Field and Initializer hold the marker text.
type MemberSpec struct {
	Type        string       `yaml:"type,omitempty"`
	Method      string       `yaml:"method,omitempty"`
	Field       string       `yaml:"field,omitempty"`
	Constant    string       `yaml:"constant,omitempty"`
	Initializer string       `yaml:"initializer,omitempty"`
	At          string       `yaml:"at,omitempty"`
	Interface   bool         `yaml:"interface,omitempty"`
	Enum        bool         `yaml:"enum,omitempty"`
	Anonymous   bool         `yaml:"anonymous,omitempty"`
	InSwitch    bool         `yaml:"inSwitch,omitempty"`
	ReadOnly    bool         `yaml:"readOnly,omitempty"`
	References  []string     `yaml:"references,omitempty"`
	Members     []MemberSpec `yaml:"members,omitempty"`
}

// FolderSpec describes a plain folder.
type FolderSpec struct {
	Name     string       `yaml:"name"`
	ReadOnly bool         `yaml:"readOnly,omitempty"`
	Linked   string       `yaml:"linked,omitempty"`
	Folders  []FolderSpec `yaml:"folders,omitempty"`
	Files    []FileSpec   `yaml:"files,omitempty"`
}

// FileSpec describes a plain file.
type FileSpec struct {
	Name     string `yaml:"name"`
	ReadOnly bool   `yaml:"readOnly,omitempty"`
	Content  string `yaml:"content,omitempty"`
}

// Load reads a workspace description from a YAML file.
func Load(path string) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}
	return Parse(data)
}

// Parse builds a workspace from YAML.
func Parse(data []byte) (*Workspace, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse model file: %w", err)
	}
	return Build(&f)
}

// Build creates a workspace from a parsed description.
func Build(f *File) (*Workspace, error) {
	w := NewWorkspace()
	for _, ps := range f.Projects {
		if ps.Name == "" {
			return nil, fmt.Errorf("project name is required")
		}
		project := w.AddProject(ps.Name)
		project.Resource.Inaccessible = ps.Inaccessible
		for _, rs := range ps.Roots {
			if err := w.buildRoot(project, rs); err != nil {
				return nil, err
			}
		}
		for _, fs := range ps.Folders {
			w.buildFolder(project.Resource, fs)
		}
		for _, fs := range ps.Files {
			w.buildFile(project.Resource, fs)
		}
	}
	if err := w.Err(); err != nil {
		return nil, fmt.Errorf("failed to annotate model: %w", err)
	}
	return w, nil
}

func (w *Workspace) buildRoot(project *Element, rs RootSpec) error {
	var root *Element
	switch strings.ToLower(rs.Kind) {
	case "", "source":
		root = w.AddSourceRoot(project, rs.Path)
	case "binary":
		root = w.AddBinaryRoot(project, rs.Path)
	case "archive":
		root = w.AddArchiveRoot(project, rs.Path, false)
	case "external":
		root = w.AddArchiveRoot(project, rs.Path, true)
	default:
		return fmt.Errorf("unknown root kind %q for %s/%s", rs.Kind, project.Name, rs.Path)
	}
	root.ReadOnly = rs.ReadOnly
	for _, pkgSpec := range rs.Packages {
		pkg := w.AddPackage(root, pkgSpec.Name)
		pkg.ReadOnly = pkgSpec.ReadOnly
		if pkgSpec.Missing {
			w.MarkMissing(pkg)
		}
		for _, us := range pkgSpec.Units {
			unit := w.AddUnit(pkg, us.Name, us.Source)
			unit.ReadOnly = us.ReadOnly
			w.buildMembers(unit, us.Members)
		}
		if pkg.Resource != nil {
			for _, fs := range pkgSpec.Files {
				w.buildFile(pkg.Resource, fs)
			}
		}
	}
	return nil
}

func (w *Workspace) buildMembers(parent *Element, members []MemberSpec) {
	for _, ms := range members {
		opts := []MemberOption{References(ms.References...)}
		if ms.At != "" {
			opts = append(opts, At(ms.At))
		}
		if ms.ReadOnly {
			opts = append(opts, ReadOnly())
		}
		switch {
		case ms.Type != "" || ms.Anonymous:
			if ms.Interface {
				opts = append(opts, Interface())
			}
			if ms.Enum {
				opts = append(opts, Enum())
			}
			if ms.Anonymous {
				opts = append(opts, Anonymous())
			}
			if ms.InSwitch {
				opts = append(opts, InSwitch())
			}
			t := w.AddType(parent, ms.Type, opts...)
			w.buildMembers(t, ms.Members)
		case ms.Method != "":
			m := w.AddMethod(parent, ms.Method, opts...)
			w.buildMembers(m, ms.Members)
		case ms.Field != "":
			w.AddField(parent, ms.Field, opts...)
		case ms.Constant != "":
			w.AddEnumConstant(parent, ms.Constant, opts...)
		case ms.Initializer != "":
			init := w.AddInitializer(parent, append(opts, At(ms.Initializer))...)
			w.buildMembers(init, ms.Members)
		default:
			w.fail("member of %s has no kind", parent.Handle)
		}
	}
}

func (w *Workspace) buildFolder(parent *Resource, fs FolderSpec) {
	folder := w.AddFolder(parent, fs.Name)
	folder.ReadOnly = fs.ReadOnly
	if fs.Linked != "" {
		folder.Linked = true
		folder.Location = fs.Linked
	}
	for _, sub := range fs.Folders {
		w.buildFolder(folder, sub)
	}
	for _, f := range fs.Files {
		w.buildFile(folder, f)
	}
}

func (w *Workspace) buildFile(parent *Resource, fs FileSpec) {
	file := w.AddFile(parent, fs.Name, fs.Content)
	file.ReadOnly = fs.ReadOnly
}
