package reorg

import (
	"context"

	"github.com/danieljhkim/reorg/internal/model"
	"github.com/danieljhkim/reorg/internal/rewrite"
	"github.com/danieljhkim/reorg/internal/status"
)

var (
	classMemberKinds = []model.Kind{model.KindField, model.KindInitializer, model.KindMethod, model.KindType}
	unitLevelKinds   = []model.Kind{model.KindType, model.KindPackageDeclaration, model.KindImportContainer, model.KindImportDeclaration}
)

func (p *Policy) onlyKinds(kinds ...model.Kind) bool {
	return allOf(p.sel.Members, isKind(kinds...))
}

// verifyMembers runs the destination state machine for sub-unit selections,
// keyed by the destination kind and location.
func (p *Policy) verifyMembers(ctx context.Context, d Destination) (*status.Status, error) {
	dest := d.Element
	if dest == nil {
		if d.Resource.Element == nil || d.Resource.Element.Kind != model.KindCompilationUnit {
			return status.Fatal("dest.notElement", "members can only be placed in compilation units or types"), nil
		}
		dest = d.Resource.Element
	}
	loc := d.Location

	if p.Operation() == OpMove {
		for _, m := range p.sel.Members {
			if err := ctx.Err(); err != nil {
				return nil, status.Cancelled(err)
			}
			if dest == m || dest.IsDescendantOf(m) {
				return status.Fatal("dest.descendant", "%s cannot be moved into itself", m.Name), nil
			}
		}
	}

	if st := p.verifyMemberShape(dest, loc); st != nil {
		return st, nil
	}

	for _, m := range p.sel.Members {
		if err := ctx.Err(); err != nil {
			return nil, status.Cancelled(err)
		}
		target, err := resolveMemberTarget(dest, loc, m)
		if err != nil {
			return status.Fatal("dest.illegal", "%v", err), nil
		}
		if st := verifyMemberTarget(p.Operation(), m, loc, target); st != nil {
			return st, nil
		}
	}
	return status.New(), nil
}

func (p *Policy) verifyMemberShape(dest *model.Element, loc Location) *status.Status {
	illegal := func() *status.Status {
		return status.Fatal("dest.illegal", "the selection cannot be placed %s %s", loc, dest.Handle)
	}
	switch dest.Kind {
	case model.KindCompilationUnit:
		if loc != On {
			return illegal()
		}
		if !p.onlyKinds(unitLevelKinds...) {
			if dest.MainType() == nil {
				return status.Fatal("dest.noMainType", "%s has no primary type", dest.Name)
			}
			if !p.onlyKinds(classMemberKinds...) {
				return illegal()
			}
		}
	case model.KindPackageDeclaration:
		return illegal()
	case model.KindImportContainer:
		if loc == On && !p.onlyKinds(model.KindImportDeclaration) {
			return illegal()
		}
		if loc != On && !p.onlyKinds(model.KindImportContainer) {
			return illegal()
		}
	case model.KindImportDeclaration:
		if loc == On || !p.onlyKinds(model.KindImportDeclaration) {
			return illegal()
		}
	case model.KindField, model.KindInitializer, model.KindMethod:
		if loc == On {
			if len(p.sel.Members) != 1 || p.sel.Members[0] != dest {
				return illegal()
			}
		} else if !p.onlyKinds(classMemberKinds...) {
			return illegal()
		}
	case model.KindType:
		if loc != On && dest.Parent != nil && dest.Parent.Kind == model.KindMethod {
			return illegal()
		}
		if !p.onlyKinds(classMemberKinds...) {
			return illegal()
		}
	default:
		return status.Fatal("dest.kind", "a %s is not a valid destination for members", dest.Kind)
	}
	return nil
}

func verifyMemberTarget(op Operation, m *model.Element, loc Location, t memberTarget) *status.Status {
	intoConstants := t.prop == rewrite.EnumConstants
	switch {
	case m.EnumConstant && (!intoConstants || !t.parent.Enum):
		return status.Fatal("dest.enum", "enum constant %s can only be placed in an enum", m.Name)
	case !m.EnumConstant && intoConstants:
		return status.Fatal("dest.enum", "%s cannot be placed among enum constants", m.Name)
	}
	if op != OpMove {
		return nil
	}
	if loc == On && m.Parent == t.parent {
		return status.Fatal("dest.parent", "the destination is the current parent of %s", m.Name)
	}
	if decl := m.DeclaringType(); decl != nil && decl.Interface && !t.parent.Interface {
		return status.Fatal("dest.interface", "members of interface %s can only be moved to interfaces", decl.Name)
	}
	return nil
}
