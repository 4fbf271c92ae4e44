package reorg

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danieljhkim/reorg/internal/model"
)

func TestNewPolicy_SelectsOneKind(t *testing.T) {
	ws := newWorkspace(t)

	tests := []struct {
		name      string
		op        Operation
		elements  []*model.Element
		resources []*model.Resource
		want      Kind
	}{
		{"unit", OpMove, elements(ws.unitA), nil, KindMoveResources},
		{"sole type collapses to unit", OpMove, elements(ws.typeA), nil, KindMoveResources},
		{"unit and its sole type", OpMove, elements(ws.unitA, ws.typeA), nil, KindMoveResources},
		{"file", OpCopy, nil, resources(ws.readme), KindCopyResources},
		{"files and folder", OpMove, nil, resources(ws.readme, ws.sub), KindMoveResources},
		{"package", OpMove, elements(ws.p), nil, KindMovePackages},
		{"package root", OpCopy, elements(ws.src), nil, KindCopyPackageRoots},
		{"method", OpMove, elements(ws.foo), nil, KindMoveMembers},
		{"fields and method", OpCopy, elements(ws.fieldX, ws.fieldY, ws.foo), nil, KindCopyMembers},
		{"import move", OpMove, elements(ws.importList), nil, KindMoveImports},
		{"import copy", OpCopy, elements(ws.importList), nil, KindCopyMembers},
		{"import container copy", OpCopy, elements(ws.unitA.ImportContainer()), nil, KindCopyMembers},
		{"import container move", OpMove, elements(ws.unitA.ImportContainer()), nil, KindNoMove},
		{"package declaration", OpCopy, elements(ws.unitA.PackageDeclaration()), nil, KindNoCopy},
		{"package and file", OpMove, elements(ws.p), resources(ws.readme), KindNoMove},
		{"project", OpMove, elements(ws.project), nil, KindNoMove},
		{"project resource", OpCopy, nil, resources(ws.project.Resource), KindNoCopy},
		{"archive package", OpMove, elements(ws.x), nil, KindNoMove},
		{"archive package copy", OpCopy, elements(ws.x), nil, KindCopyPackages},
		{"no common parent", OpMove, elements(ws.foo, ws.unitB), nil, KindNoMove},
		{"nil element", OpCopy, elements(nil), nil, KindNoCopy},
		{"empty", OpMove, nil, nil, KindNoMove},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := NewPolicy(tt.op, ws.w, tt.elements, tt.resources)
			if first.Kind() != tt.want {
				t.Fatalf("Kind() = %s, want %s (reason %q)", first.Kind(), tt.want, first.RejectReason())
			}
			second := NewPolicy(tt.op, ws.w, tt.elements, tt.resources)
			if second.Kind() != first.Kind() {
				t.Errorf("selection is not deterministic: %s then %s", first.Kind(), second.Kind())
			}
			if diff := cmp.Diff(itemHandles(first.Selection()), itemHandles(second.Selection())); diff != "" {
				t.Errorf("selection differs between runs (-first +second):\n%s", diff)
			}
			if first.Kind().Operation() != tt.op {
				t.Errorf("Operation() = %s, want %s", first.Kind().Operation(), tt.op)
			}
		})
	}
}

// TestNewPolicy_ReSelectingCanonicalSelection checks that feeding a policy's
// selection back into the selector picks the same policy.
func TestNewPolicy_ReSelectingCanonicalSelection(t *testing.T) {
	ws := newWorkspace(t)
	p := NewMovePolicy(ws.w, elements(ws.typeA, ws.unitB), resources(ws.unitA.Resource))
	again := NewMovePolicy(ws.w, p.Selection().Elements(), p.Selection().Resources())
	if again.Kind() != p.Kind() {
		t.Fatalf("Kind() = %s, want %s", again.Kind(), p.Kind())
	}
	want := []string{ws.unitA.Handle, ws.unitB.Handle}
	if diff := cmp.Diff(want, itemHandles(again.Selection())); diff != "" {
		t.Errorf("selection mismatch (-want +got):\n%s", diff)
	}
}

func TestCanEnable(t *testing.T) {
	ws := newWorkspace(t)

	tests := []struct {
		name string
		p    *Policy
		want bool
	}{
		{"move unit", NewMovePolicy(ws.w, elements(ws.unitA), nil), true},
		{"package and file rejected", NewMovePolicy(ws.w, elements(ws.p), resources(ws.readme)), false},
		{"default package", NewMovePolicy(ws.w, elements(ws.w.DefaultPackage(ws.src)), nil), false},
		{"archive root copy", NewCopyPolicy(ws.w, elements(ws.lib), nil), true},
		{"archive root move", NewMovePolicy(ws.w, elements(ws.lib), nil), true},
		{"copy member", NewCopyPolicy(ws.w, elements(ws.foo), nil), true},
		{"archive package copy", NewCopyPolicy(ws.w, elements(ws.x), nil), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.CanEnable(); got != tt.want {
				t.Errorf("CanEnable() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestCanEnable_ArchiveMembers checks that members of an archive with
// attached source can be copied out but not moved.
func TestCanEnable_ArchiveMembers(t *testing.T) {
	ws := newWorkspace(t)
	unit := ws.w.AddUnit(ws.x, "X.java", "package x;\n\npublic class X {\n    void m() {\n    }\n}\n")
	m := ws.w.AddMethod(ws.w.AddType(unit, "X"), "m")
	if err := ws.w.Err(); err != nil {
		t.Fatal(err)
	}

	if p := NewCopyPolicy(ws.w, elements(m), nil); p.Kind() != KindCopyMembers || !p.CanEnable() {
		t.Errorf("copy: Kind() = %s, CanEnable() = %v", p.Kind(), p.CanEnable())
	}
	if p := NewMovePolicy(ws.w, elements(m), nil); p.Kind() != KindNoMove || p.CanEnable() {
		t.Errorf("move: Kind() = %s, CanEnable() = %v", p.Kind(), p.CanEnable())
	}
}

func TestCanEnable_MissingResource(t *testing.T) {
	ws := newWorkspace(t)
	p := NewMovePolicy(ws.w, elements(ws.unitB), nil)
	ws.w.MarkMissing(ws.unitB)
	if p.CanEnable() {
		t.Error("CanEnable() = true for a missing unit")
	}
}

func TestParseKind(t *testing.T) {
	for k := range kindIDs {
		got, ok := ParseKind(k.ID())
		if !ok || got != k {
			t.Errorf("ParseKind(%q) = %s, %v", k.ID(), got, ok)
		}
	}
	if _, ok := ParseKind("copy.everything"); ok {
		t.Error("expected unknown id to fail")
	}
}
