// Package reorg decides how a selection of program-structure items may be
// copied or moved and produces the changes that carry the operation out.
//
// A Policy is chosen for a selection by NewCopyPolicy or NewMovePolicy. The
// caller then sets a destination, checks it with VerifyDestination, asks for
// confirmation with Confirm and builds the change tree with CreateChange. A
// Descriptor captures the whole operation so FromDescriptor can rebuild and
// re-validate it later.
//
// Key components:
//   - Selector: maps a canonical selection to exactly one policy kind
//   - Validator: per-kind destination rules
//   - Confirm: overwrite and read-only confirmation, pruning declined items
//   - CreateChange: resource moves and copies, or edit scripts for members
//   - ExecutionLog and Descriptor: replayable record of the operation
package reorg

import (
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/danieljhkim/reorg/internal/model"
)

var (
	// ErrDestinationAlreadySet indicates SetDestination was called twice.
	ErrDestinationAlreadySet = errors.New("destination already set")

	// ErrNoDestination indicates an operation needs a destination that was never set.
	ErrNoDestination = errors.New("no destination set")

	// ErrAlreadyExecuted indicates CreateChange was called twice.
	ErrAlreadyExecuted = errors.New("policy already executed")

	// ErrNotEnabled indicates the policy cannot run on its selection.
	ErrNotEnabled = errors.New("policy not enabled")

	// ErrInvalidDestination indicates the destination failed validation when changes were built.
	ErrInvalidDestination = errors.New("invalid destination")
)

// Operation is copy or move.
type Operation int

const (
	OpCopy Operation = iota + 1
	OpMove
)

func (o Operation) String() string {
	switch o {
	case OpCopy:
		return "copy"
	case OpMove:
		return "move"
	default:
		return "unknown"
	}
}

// ParseOperation parses "copy" or "move".
func ParseOperation(s string) (Operation, error) {
	switch s {
	case "copy":
		return OpCopy, nil
	case "move":
		return OpMove, nil
	default:
		return 0, fmt.Errorf("invalid operation %q: must be copy or move", s)
	}
}

// Kind is the closed set of policy variants.
type Kind int

const (
	KindNoCopy Kind = iota + 1
	KindNoMove
	KindCopyResources
	KindCopyPackages
	KindCopyPackageRoots
	KindCopyMembers
	KindMoveResources
	KindMovePackages
	KindMovePackageRoots
	KindMoveMembers
	KindMoveImports
)

var kindIDs = map[Kind]string{
	KindNoCopy:           "copy.none",
	KindNoMove:           "move.none",
	KindCopyResources:    "copy.resources",
	KindCopyPackages:     "copy.packages",
	KindCopyPackageRoots: "copy.roots",
	KindCopyMembers:      "copy.members",
	KindMoveResources:    "move.resources",
	KindMovePackages:     "move.packages",
	KindMovePackageRoots: "move.roots",
	KindMoveMembers:      "move.members",
	KindMoveImports:      "move.imports",
}

// ID returns the stable policy identifier stored in descriptors.
func (k Kind) ID() string {
	if id, ok := kindIDs[k]; ok {
		return id
	}
	return "unknown"
}

func (k Kind) String() string {
	return k.ID()
}

// ParseKind resolves a policy identifier.
func ParseKind(id string) (Kind, bool) {
	for k, v := range kindIDs {
		if v == id {
			return k, true
		}
	}
	return 0, false
}

// Operation returns whether the kind copies or moves.
func (k Kind) Operation() Operation {
	switch k {
	case KindNoCopy, KindCopyResources, KindCopyPackages, KindCopyPackageRoots, KindCopyMembers:
		return OpCopy
	default:
		return OpMove
	}
}

// IsReject reports whether the kind refuses its selection.
func (k Kind) IsReject() bool {
	return k == KindNoCopy || k == KindNoMove
}

// IsSubUnit reports whether the kind edits the inside of compilation units.
func (k Kind) IsSubUnit() bool {
	return k == KindCopyMembers || k == KindMoveMembers || k == KindMoveImports
}

// Location places a member destination relative to its target element.
type Location int

const (
	On Location = iota
	Before
	After
)

func (l Location) String() string {
	switch l {
	case On:
		return "on"
	case Before:
		return "before"
	case After:
		return "after"
	default:
		return "unknown"
	}
}

// ParseLocation parses "on", "before" or "after". The empty string means on.
func ParseLocation(s string) (Location, error) {
	switch s {
	case "", "on":
		return On, nil
	case "before":
		return Before, nil
	case "after":
		return After, nil
	default:
		return 0, fmt.Errorf("invalid location %q: must be on, before or after", s)
	}
}

// Destination is either an element with a location or a resource container.
type Destination struct {
	Element  *model.Element
	Location Location
	Resource *model.Resource
}

// ElementDestination targets a program element.
func ElementDestination(e *model.Element, loc Location) Destination {
	return Destination{Element: e, Location: loc}
}

// ResourceDestination targets a resource.
func ResourceDestination(r *model.Resource) Destination {
	return Destination{Resource: r}
}

// IsZero reports whether no target is set.
func (d Destination) IsZero() bool {
	return d.Element == nil && d.Resource == nil
}

// Handle returns the element handle or resource path of the target.
func (d Destination) Handle() string {
	if d.Element != nil {
		return d.Element.Handle
	}
	if d.Resource != nil {
		return d.Resource.Path
	}
	return ""
}

// Exists reports whether the target exists.
func (d Destination) Exists() bool {
	if d.Element != nil {
		return d.Element.Exists()
	}
	return d.Resource.Exists()
}

func (d Destination) String() string {
	if d.Element != nil {
		return fmt.Sprintf("%s %s", d.Location, d.Element.Handle)
	}
	return d.Handle()
}

// Item is one selected element or resource.
type Item struct {
	Element  *model.Element
	Resource *model.Resource
}

// Handle returns the element handle or resource path.
func (i Item) Handle() string {
	if i.Element != nil {
		return i.Element.Handle
	}
	if i.Resource != nil {
		return i.Resource.Path
	}
	return ""
}

// Name returns the simple name of the item.
func (i Item) Name() string {
	if i.Element != nil {
		return i.Element.Name
	}
	return i.Resource.Name
}

func (i Item) String() string {
	return i.Handle()
}

// Selection is the canonical selection a policy operates on, split by category.
type Selection struct {
	Files    []*model.Resource
	Folders  []*model.Resource
	Units    []*model.Element
	Packages []*model.Element
	Roots    []*model.Element
	Members  []*model.Element
}

// Elements returns the selected elements: units, packages, roots, then members.
func (s Selection) Elements() []*model.Element {
	var out []*model.Element
	out = append(out, s.Units...)
	out = append(out, s.Packages...)
	out = append(out, s.Roots...)
	out = append(out, s.Members...)
	return out
}

// Resources returns the selected files, then folders.
func (s Selection) Resources() []*model.Resource {
	var out []*model.Resource
	out = append(out, s.Files...)
	out = append(out, s.Folders...)
	return out
}

// Items returns every selected item in descriptor order.
func (s Selection) Items() []Item {
	var out []Item
	for _, r := range s.Resources() {
		out = append(out, Item{Resource: r})
	}
	for _, e := range s.Elements() {
		out = append(out, Item{Element: e})
	}
	return out
}

// Len returns the number of selected items.
func (s Selection) Len() int {
	return len(s.Files) + len(s.Folders) + len(s.Units) + len(s.Packages) + len(s.Roots) + len(s.Members)
}

// without returns a copy of s minus the dropped items.
func (s Selection) without(drop map[Item]bool) Selection {
	filterRes := func(in []*model.Resource) []*model.Resource {
		var out []*model.Resource
		for _, r := range in {
			if !drop[Item{Resource: r}] {
				out = append(out, r)
			}
		}
		return out
	}
	filterEl := func(in []*model.Element) []*model.Element {
		var out []*model.Element
		for _, e := range in {
			if !drop[Item{Element: e}] {
				out = append(out, e)
			}
		}
		return out
	}
	return Selection{
		Files:    filterRes(s.Files),
		Folders:  filterRes(s.Folders),
		Units:    filterEl(s.Units),
		Packages: filterEl(s.Packages),
		Roots:    filterEl(s.Roots),
		Members:  filterEl(s.Members),
	}
}

// Flags are the user options of a policy.
type Flags struct {
	UpdateReferences     bool
	UpdateQualifiedNames bool
	// FilePatterns is a comma separated list of file name globs restricting the
	// qualified name search. Empty means all non-unit files.
	FilePatterns string
	// CheckDestination requires the destination to exist.
	CheckDestination bool
}

// DefaultFlags returns the flags a new policy starts with.
func DefaultFlags() Flags {
	return Flags{CheckDestination: true}
}

// Option configures a policy.
type Option func(*Policy)

// WithLogger sets the logger used for debug output.
func WithLogger(l logrus.FieldLogger) Option {
	return func(p *Policy) { p.logger = l }
}

// WithFlags sets the initial flags.
func WithFlags(f Flags) Option {
	return func(p *Policy) { p.flags = f }
}

// Policy is one (operation, category) strategy bound to a selection.
type Policy struct {
	kind   Kind
	model  model.Model
	sel    Selection
	reason string

	dest    Destination
	destSet bool
	flags   Flags

	// target is dest, or the target created for it during confirmation.
	target Destination

	mods      []Modification
	modsBuilt bool
	overwrite map[Item]bool
	names     *NameProposer
	log       *ExecutionLog
	executed  bool

	logger logrus.FieldLogger
}

func newPolicy(m model.Model, opts []Option) *Policy {
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	p := &Policy{
		model:     m,
		flags:     DefaultFlags(),
		overwrite: make(map[Item]bool),
		names:     NewNameProposer(),
		log:       NewExecutionLog(),
		logger:    discard,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Kind returns the policy variant.
func (p *Policy) Kind() Kind { return p.kind }

// ID returns the stable policy identifier.
func (p *Policy) ID() string { return p.kind.ID() }

// Operation returns copy or move.
func (p *Policy) Operation() Operation { return p.kind.Operation() }

// Selection returns the current selection.
func (p *Policy) Selection() Selection { return p.sel }

// RejectReason explains why a reject policy was chosen.
func (p *Policy) RejectReason() string { return p.reason }

// Flags returns the current flags.
func (p *Policy) Flags() Flags { return p.flags }

// Log returns the execution log.
func (p *Policy) Log() *ExecutionLog { return p.log }

// Destination returns the destination and whether it was set.
func (p *Policy) Destination() (Destination, bool) { return p.dest, p.destSet }

// SetUpdateReferences toggles reference updating.
func (p *Policy) SetUpdateReferences(v bool) { p.flags.UpdateReferences = v }

// SetUpdateQualifiedNames toggles qualified-name updating in non-unit files.
func (p *Policy) SetUpdateQualifiedNames(v bool) { p.flags.UpdateQualifiedNames = v }

// SetFilePatterns sets the comma separated file name patterns.
func (p *Policy) SetFilePatterns(patterns string) { p.flags.FilePatterns = patterns }

// SetCheckDestination toggles the destination existence check.
func (p *Policy) SetCheckDestination(v bool) { p.flags.CheckDestination = v }

// SetDestination fixes the destination. It may be called only once.
func (p *Policy) SetDestination(d Destination) error {
	if p.destSet {
		return ErrDestinationAlreadySet
	}
	if d.IsZero() {
		return fmt.Errorf("invalid destination: no element or resource")
	}
	p.dest = d
	p.target = d
	p.destSet = true
	p.invalidate()
	return nil
}

func (p *Policy) invalidate() {
	p.mods = nil
	p.modsBuilt = false
}

func (p *Policy) logf() *logrus.Entry {
	return p.logger.WithField("policy", p.ID())
}
