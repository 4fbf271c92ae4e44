package reorg

import (
	"context"
	"fmt"
	"strconv"

	"github.com/danieljhkim/reorg/internal/model"
	"github.com/danieljhkim/reorg/internal/status"
)

// Descriptor argument keys.
const (
	ArgPolicy      = "policy"
	ArgFiles       = "files"
	ArgFolders     = "folders"
	ArgUnits       = "units"
	ArgFragments   = "fragments"
	ArgRoots       = "roots"
	ArgMembers     = "members"
	ArgElement     = "element"
	ArgDestination = "destination"
	ArgTarget      = "target"
	ArgLocation    = "location"
	ArgReferences  = "references"
	ArgQualified   = "qualified"
	ArgPatterns    = "patterns"
	ArgCheck       = "check"
	ArgLog         = "log"
)

// Descriptor is the persistable form of a policy: its identifier and a flat
// string map from which the selection, destination and flags are rebuilt.
type Descriptor struct {
	Policy    string            `json:"policy"`
	Arguments map[string]string `json:"arguments"`
}

// Descriptor captures the policy, including the execution log when changes
// were built. Packages are counted under "fragments".
func (p *Policy) Descriptor() *Descriptor {
	args := map[string]string{
		ArgPolicy:    p.ID(),
		ArgFiles:     strconv.Itoa(len(p.sel.Files)),
		ArgFolders:   strconv.Itoa(len(p.sel.Folders)),
		ArgUnits:     strconv.Itoa(len(p.sel.Units)),
		ArgFragments: strconv.Itoa(len(p.sel.Packages)),
		ArgRoots:     strconv.Itoa(len(p.sel.Roots)),
		ArgMembers:   strconv.Itoa(len(p.sel.Members)),
	}
	for i, it := range p.sel.Items() {
		args[ArgElement+strconv.Itoa(i+1)] = it.Handle()
	}
	if p.destSet {
		if p.dest.Element != nil {
			args[ArgDestination] = p.dest.Element.Handle
			args[ArgLocation] = p.dest.Location.String()
		} else {
			args[ArgTarget] = p.dest.Resource.Path
		}
	}
	args[ArgReferences] = strconv.FormatBool(p.flags.UpdateReferences)
	args[ArgQualified] = strconv.FormatBool(p.flags.UpdateQualifiedNames)
	args[ArgCheck] = strconv.FormatBool(p.flags.CheckDestination)
	if p.flags.FilePatterns != "" {
		args[ArgPatterns] = p.flags.FilePatterns
	}
	if !p.log.IsEmpty() {
		args[ArgLog] = p.log.Encode()
	}
	return &Descriptor{Policy: p.ID(), Arguments: args}
}

// FromDescriptor rebuilds a policy against m and re-validates it. Problems
// such as handles that no longer resolve or a selection that now maps to a
// different policy are reported as fatal status entries; the policy is nil
// in that case.
func FromDescriptor(ctx context.Context, m model.Model, d *Descriptor, opts ...Option) (*Policy, *status.Status, error) {
	kind, ok := ParseKind(d.Policy)
	if !ok || kind.IsReject() {
		return nil, status.Fatal("descriptor.policy", "unknown policy %q", d.Policy), nil
	}
	args := d.Arguments
	count := func(key string) (int, *status.Status) {
		v, ok := args[key]
		if !ok {
			return 0, nil
		}
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return 0, status.Fatal("descriptor.invalid", "invalid %s count %q", key, v)
		}
		return n, nil
	}

	var resourceCount, elementCount int
	for _, key := range []string{ArgFiles, ArgFolders} {
		n, st := count(key)
		if st != nil {
			return nil, st, nil
		}
		resourceCount += n
	}
	for _, key := range []string{ArgUnits, ArgFragments, ArgRoots, ArgMembers} {
		n, st := count(key)
		if st != nil {
			return nil, st, nil
		}
		elementCount += n
	}

	var resources []*model.Resource
	var elements []*model.Element
	for i := 1; i <= resourceCount+elementCount; i++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, status.Cancelled(err)
		}
		key := ArgElement + strconv.Itoa(i)
		h, ok := args[key]
		if !ok {
			return nil, status.Fatal("descriptor.invalid", "missing argument %s", key), nil
		}
		if i <= resourceCount {
			r, ok := m.Resource(h)
			if !ok || !r.Exists() {
				return nil, status.Fatal("descriptor.missing", "resource %s does not exist", h), nil
			}
			resources = append(resources, r)
			continue
		}
		e, ok := m.Element(h)
		if !ok || !e.Exists() {
			return nil, status.Fatal("descriptor.missing", "element %s does not exist", h), nil
		}
		elements = append(elements, e)
	}

	p := NewPolicy(kind.Operation(), m, elements, resources, opts...)
	if p.Kind() != kind {
		return nil, status.Fatal("descriptor.policy", "the selection now maps to %s instead of %s", p.Kind(), kind), nil
	}

	flags := DefaultFlags()
	flags.UpdateReferences = args[ArgReferences] == "true"
	flags.UpdateQualifiedNames = args[ArgQualified] == "true"
	flags.FilePatterns = args[ArgPatterns]
	if v, ok := args[ArgCheck]; ok {
		flags.CheckDestination = v == "true"
	}
	p.flags = flags

	if raw, ok := args[ArgLog]; ok {
		log, err := DecodeLog(raw)
		if err != nil {
			return nil, status.Fatal("descriptor.invalid", "%v", err), nil
		}
		p.log = log
	}

	dest, st := destinationFrom(m, args)
	if st != nil {
		return nil, st, nil
	}
	if err := p.SetDestination(dest); err != nil {
		return nil, nil, fmt.Errorf("failed to set destination: %w", err)
	}
	if created, ok := p.log.Created(dest.Handle()); ok && !dest.Exists() {
		target, err := p.resolveDestination(created, dest.Location)
		if err != nil {
			return nil, status.FromError(err), nil
		}
		p.target = target
	}

	if !p.CanEnable() {
		return nil, status.Fatal("descriptor.disabled", "%s cannot be executed on the selection", p.ID()), nil
	}
	st, err := p.VerifyDestination(ctx, p.target)
	if err != nil {
		return nil, nil, err
	}
	if st.HasFatal() {
		return nil, st, nil
	}
	return p, st, nil
}

func destinationFrom(m model.Model, args map[string]string) (Destination, *status.Status) {
	if h, ok := args[ArgDestination]; ok {
		e, found := m.Element(h)
		if !found {
			return Destination{}, status.Fatal("descriptor.missing", "destination %s does not exist", h)
		}
		loc, err := ParseLocation(args[ArgLocation])
		if err != nil {
			return Destination{}, status.Fatal("descriptor.invalid", "%v", err)
		}
		return ElementDestination(e, loc), nil
	}
	if h, ok := args[ArgTarget]; ok {
		r, found := m.Resource(h)
		if !found {
			return Destination{}, status.Fatal("descriptor.missing", "destination %s does not exist", h)
		}
		return ResourceDestination(r), nil
	}
	return Destination{}, status.Fatal("descriptor.invalid", "descriptor has no destination")
}
