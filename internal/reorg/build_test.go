package reorg

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danieljhkim/reorg/internal/change"
	"github.com/danieljhkim/reorg/internal/model"
)

// execute sets the destination, confirms with c and builds the change.
func execute(t *testing.T, p *Policy, d Destination, c Confirmer) *change.Composite {
	t.Helper()
	ctx := context.Background()
	if err := p.SetDestination(d); err != nil {
		t.Fatalf("SetDestination failed: %v", err)
	}
	st, err := p.VerifyDestination(ctx, d)
	if err != nil {
		t.Fatalf("VerifyDestination failed: %v", err)
	}
	if st.HasFatal() {
		t.Fatalf("unexpected fatal status: %s", st)
	}
	if err := p.Confirm(ctx, c); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	ch, err := p.CreateChange(ctx)
	if err != nil {
		t.Fatalf("CreateChange failed: %v", err)
	}
	return ch
}

// textFiles returns the text changes of the tree in order.
func textFiles(ch change.Change) []*change.TextFile {
	var out []*change.TextFile
	change.Walk(ch, func(c change.Change, _ int) {
		if tf, ok := c.(*change.TextFile); ok {
			out = append(out, tf)
		}
	})
	return out
}

func applyTo(t *testing.T, source string, tf *change.TextFile) string {
	t.Helper()
	got, err := change.ApplyEdits(source, tf.Edits)
	if err != nil {
		t.Fatalf("ApplyEdits on %s failed: %v", tf.Path, err)
	}
	return got
}

// TestCreateChange_MoveUnitUpdatesQualifiedNames moves A.java with its sole
// type to package q and rewrites "p.A" in non-unit files.
func TestCreateChange_MoveUnitUpdatesQualifiedNames(t *testing.T) {
	ws := newWorkspace(t)
	p := NewMovePolicy(ws.w, elements(ws.unitA, ws.typeA), nil)
	if p.Kind() != KindMoveResources {
		t.Fatalf("Kind() = %s, want %s", p.Kind(), KindMoveResources)
	}
	p.SetUpdateQualifiedNames(true)
	p.SetFilePatterns("*.xml, *.properties")

	ch := execute(t, p, ElementDestination(ws.q, On), AlwaysConfirm{})

	want := `Move A.java
  Move unit =P/src<p{A.java to =P/src<q
  Update fully qualified names
    Update qualified names in /P/docs/config.xml (1 edit)
`
	if diff := cmp.Diff(want, change.Format(ch)); diff != "" {
		t.Errorf("change tree mismatch (-want +got):\n%s", diff)
	}
	files := textFiles(ch)
	if got := applyTo(t, ws.config.Content, files[0]); got != `<bean class="q.A"/>`+"\n" {
		t.Errorf("config.xml = %q", got)
	}
	if !p.Log().IsProcessed(ws.unitA.Handle) {
		t.Error("expected the unit to be logged as processed")
	}

	if _, err := p.CreateChange(context.Background()); !errors.Is(err, ErrAlreadyExecuted) {
		t.Errorf("second CreateChange error = %v, want ErrAlreadyExecuted", err)
	}
}

func TestCreateChange_MoveUnitWithoutQualifiedNames(t *testing.T) {
	ws := newWorkspace(t)
	p := NewMovePolicy(ws.w, elements(ws.unitA), nil)
	p.SetUpdateReferences(true)

	ch := execute(t, p, ElementDestination(ws.q, On), AlwaysConfirm{})
	if ch.Len() != 1 {
		t.Fatalf("expected a single change, got:\n%s", change.Format(ch))
	}
	mv, ok := ch.Children[0].(*change.MoveUnit)
	if !ok {
		t.Fatalf("expected MoveUnit, got %T", ch.Children[0])
	}
	if !mv.UpdateReferences {
		t.Error("expected references to be updated")
	}
}

// TestCreateChange_MoveMethodToType relocates foo() into an empty type and
// adds the import it needs.
func TestCreateChange_MoveMethodToType(t *testing.T) {
	ws := newWorkspace(t)
	p := NewMovePolicy(ws.w, elements(ws.foo), nil)
	if p.Kind() != KindMoveMembers {
		t.Fatalf("Kind() = %s, want %s", p.Kind(), KindMoveMembers)
	}

	ch := execute(t, p, ElementDestination(ws.typeT2, On), AlwaysConfirm{})
	files := textFiles(ch)
	if len(files) != 2 {
		t.Fatalf("expected 2 text changes, got:\n%s", change.Format(ch))
	}
	if files[0].Path != "/P/src/q/T2.java" || files[1].Path != "/P/src/p/A.java" {
		t.Fatalf("unexpected order: %s, %s", files[0].Path, files[1].Path)
	}

	wantT2 := `package q;

import java.util.Map;
import java.util.List;

public class T2 {
    public void foo() {
        List<String> l = null;
    }
}
`
	if diff := cmp.Diff(wantT2, applyTo(t, sourceT2, files[0])); diff != "" {
		t.Errorf("T2.java mismatch (-want +got):\n%s", diff)
	}

	wantA := `package p;

import java.util.List;
import java.util.Map;

public class A {
    private int x, y;

    static class Inner {
        void bar() {
        }
    }
}
`
	if diff := cmp.Diff(wantA, applyTo(t, sourceA, files[1])); diff != "" {
		t.Errorf("A.java mismatch (-want +got):\n%s", diff)
	}
}

// TestCreateChange_MoveNeighbouringMembers moves two adjacent members of one
// type, which share the blank line between them.
func TestCreateChange_MoveNeighbouringMembers(t *testing.T) {
	ws := newWorkspace(t)
	p := NewMovePolicy(ws.w, elements(ws.foo, ws.inner), nil)

	ch := execute(t, p, ElementDestination(ws.typeT2, On), AlwaysConfirm{})
	files := textFiles(ch)
	if len(files) != 2 {
		t.Fatalf("expected 2 text changes, got:\n%s", change.Format(ch))
	}

	wantT2 := `package q;

import java.util.Map;
import java.util.List;

public class T2 {
    public void foo() {
        List<String> l = null;
    }

    static class Inner {
        void bar() {
        }
    }
}
`
	if diff := cmp.Diff(wantT2, applyTo(t, sourceT2, files[0])); diff != "" {
		t.Errorf("T2.java mismatch (-want +got):\n%s", diff)
	}

	wantA := `package p;

import java.util.List;
import java.util.Map;

public class A {
    private int x, y;
}
`
	if diff := cmp.Diff(wantA, applyTo(t, sourceA, files[1])); diff != "" {
		t.Errorf("A.java mismatch (-want +got):\n%s", diff)
	}
}

// TestCreateChange_ReorderBeforeSibling moves a member type above a method of
// the same type and keeps the blank line between them.
func TestCreateChange_ReorderBeforeSibling(t *testing.T) {
	ws := newWorkspace(t)
	p := NewMovePolicy(ws.w, elements(ws.inner), nil)

	ch := execute(t, p, ElementDestination(ws.foo, Before), AlwaysConfirm{})
	files := textFiles(ch)
	if len(files) != 1 || files[0].Path != "/P/src/p/A.java" {
		t.Fatalf("expected one change to A.java, got:\n%s", change.Format(ch))
	}
	want := `package p;

import java.util.List;
import java.util.Map;

public class A {
    private int x, y;

    static class Inner {
        void bar() {
        }
    }

    public void foo() {
        List<String> l = null;
    }
}
`
	if diff := cmp.Diff(want, applyTo(t, sourceA, files[0])); diff != "" {
		t.Errorf("A.java mismatch (-want +got):\n%s", diff)
	}
}

// TestCreateChange_MoveImportBeforeImport places an import right before an
// existing import of another unit.
func TestCreateChange_MoveImportBeforeImport(t *testing.T) {
	ws := newWorkspace(t)
	p := NewMovePolicy(ws.w, elements(ws.importList), nil)

	st, err := p.VerifyDestination(context.Background(), ElementDestination(ws.typeT2, On))
	if err != nil {
		t.Fatal(err)
	}
	if !st.HasFatal() {
		t.Error("expected an import to be rejected on a type")
	}

	ch := execute(t, p, ElementDestination(ws.importMap, Before), AlwaysConfirm{})
	files := textFiles(ch)
	if len(files) != 2 {
		t.Fatalf("expected 2 text changes, got:\n%s", change.Format(ch))
	}
	got := applyTo(t, sourceT2, files[0])
	if !strings.Contains(got, "import java.util.List;\nimport java.util.Map;\n") {
		t.Errorf("expected List before Map, got:\n%s", got)
	}
	wantA := strings.Replace(sourceA, "import java.util.List;\n", "", 1)
	if diff := cmp.Diff(wantA, applyTo(t, sourceA, files[1])); diff != "" {
		t.Errorf("A.java mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateChange_CopyFragment(t *testing.T) {
	ws := newWorkspace(t)
	p := NewCopyPolicy(ws.w, elements(ws.fieldY), nil)

	ch := execute(t, p, ElementDestination(ws.typeT2, On), AlwaysConfirm{})
	files := textFiles(ch)
	if len(files) != 1 {
		t.Fatalf("copy must only touch the destination, got:\n%s", change.Format(ch))
	}
	got := applyTo(t, sourceT2, files[0])
	if !strings.Contains(got, "public class T2 {\n    private int y;\n}") {
		t.Errorf("expected the fragment as its own declaration, got:\n%s", got)
	}
}

// TestCreateChange_MoveAllTypesDeletesUnit checks that moving every top-level
// type of a unit deletes the unit instead of emptying it.
func TestCreateChange_MoveAllTypesDeletesUnit(t *testing.T) {
	ws := newWorkspace(t)
	types := ws.unitC.Types()
	p := NewMovePolicy(ws.w, types, nil)
	if p.Kind() != KindMoveMembers {
		t.Fatalf("Kind() = %s, want %s", p.Kind(), KindMoveMembers)
	}

	ch := execute(t, p, ElementDestination(ws.typeT2, On), AlwaysConfirm{})
	var kinds []string
	for _, c := range ch.Children {
		kinds = append(kinds, c.Kind())
	}
	if diff := cmp.Diff([]string{"text", "delete-unit"}, kinds); diff != "" {
		t.Fatalf("change kinds mismatch (-want +got):\n%s", diff)
	}
	if del := ch.Children[1].(*change.DeleteUnit); del.Unit != ws.unitC.Handle {
		t.Errorf("deleted %s, want %s", del.Unit, ws.unitC.Handle)
	}
	got := applyTo(t, sourceT2, textFiles(ch)[0])
	if strings.Index(got, "class C {") > strings.Index(got, "class D {") {
		t.Errorf("expected C before D, got:\n%s", got)
	}
}

// TestCreateChange_CopyUnitIntoOwnPackage renames the copy and its primary
// type.
func TestCreateChange_CopyUnitIntoOwnPackage(t *testing.T) {
	ws := newWorkspace(t)
	p := NewCopyPolicy(ws.w, elements(ws.unitB), nil)

	ch := execute(t, p, ElementDestination(ws.p, On), AlwaysConfirm{})
	want := &change.CreateUnit{
		Package:  ws.p.Handle,
		Name:     "B2.java",
		Contents: "package p;\n\npublic class B2 {\n}\n",
	}
	if diff := cmp.Diff([]change.Change{want}, ch.Children); diff != "" {
		t.Errorf("change mismatch (-want +got):\n%s", diff)
	}
	if name, ok := p.Log().NewName(ws.unitB.Handle); !ok || name != "B2.java" {
		t.Errorf("NewName() = %q, %v", name, ok)
	}
}

func TestCreateChange_SingleUnitToBareRootCreatesPackage(t *testing.T) {
	ws := newWorkspace(t)
	p := NewMovePolicy(ws.w, elements(ws.unitB), nil)

	ch := execute(t, p, ElementDestination(ws.javaQ, On), AlwaysConfirm{})
	want := []change.Change{
		&change.CreatePackage{Root: ws.javaQ.Handle, Name: "p"},
		&change.MoveUnit{Unit: ws.unitB.Handle, Package: model.ChildHandle(ws.javaQ, model.KindPackage, "p")},
	}
	if diff := cmp.Diff(want, ch.Children); diff != "" {
		t.Errorf("change mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateChange_WholeItems(t *testing.T) {
	ws := newWorkspace(t)

	tests := []struct {
		name string
		p    *Policy
		d    Destination
		want []change.Change
	}{
		{
			name: "copy package into own root",
			p:    NewCopyPolicy(ws.w, elements(ws.p), nil),
			d:    ElementDestination(ws.src, On),
			want: []change.Change{&change.CopyPackage{Package: ws.p.Handle, Root: ws.src.Handle, NewName: "p2"}},
		},
		{
			name: "move package",
			p:    NewMovePolicy(ws.w, elements(ws.q), nil),
			d:    ElementDestination(ws.javaQ, On),
			want: []change.Change{&change.MovePackage{Package: ws.q.Handle, Root: ws.javaQ.Handle}},
		},
		{
			name: "move root",
			p:    NewMovePolicy(ws.w, elements(ws.src), nil),
			d:    ElementDestination(ws.projectQ, On),
			want: []change.Change{&change.MovePackageRoot{Root: ws.src.Handle, Project: ws.projectQ.Handle}},
		},
		{
			name: "move files to folder",
			p:    NewMovePolicy(ws.w, nil, resources(ws.config)),
			d:    ResourceDestination(ws.other),
			want: []change.Change{&change.MoveResource{Path: ws.config.Path, Destination: ws.other.Path}},
		},
		{
			name: "copy file into own folder",
			p:    NewCopyPolicy(ws.w, nil, resources(ws.readme)),
			d:    ResourceDestination(ws.docs),
			want: []change.Change{&change.CopyResource{Path: ws.readme.Path, Destination: ws.docs.Path, NewName: "readme2.txt"}},
		},
		{
			name: "unit to plain folder",
			p:    NewCopyPolicy(ws.w, elements(ws.unitB), nil),
			d:    ResourceDestination(ws.docs),
			want: []change.Change{&change.CopyResource{Path: ws.unitB.Resource.Path, Destination: ws.docs.Path}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ch := execute(t, tt.p, tt.d, AlwaysConfirm{})
			if diff := cmp.Diff(tt.want, ch.Children); diff != "" {
				t.Errorf("change mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCreateChange_Errors(t *testing.T) {
	ws := newWorkspace(t)
	ctx := context.Background()

	if _, err := NewMovePolicy(ws.w, elements(ws.unitA), nil).CreateChange(ctx); !errors.Is(err, ErrNoDestination) {
		t.Errorf("error = %v, want ErrNoDestination", err)
	}

	rejected := NewMovePolicy(ws.w, elements(ws.p), resources(ws.readme))
	if err := rejected.SetDestination(ElementDestination(ws.q, On)); err != nil {
		t.Fatal(err)
	}
	if _, err := rejected.CreateChange(ctx); !errors.Is(err, ErrNotEnabled) {
		t.Errorf("error = %v, want ErrNotEnabled", err)
	}

	invalid := NewMovePolicy(ws.w, elements(ws.unitA), nil)
	if err := invalid.SetDestination(ElementDestination(ws.p, On)); err != nil {
		t.Fatal(err)
	}
	if _, err := invalid.CreateChange(ctx); !errors.Is(err, ErrInvalidDestination) {
		t.Errorf("error = %v, want ErrInvalidDestination", err)
	}
	if err := invalid.SetDestination(ElementDestination(ws.q, On)); !errors.Is(err, ErrDestinationAlreadySet) {
		t.Errorf("error = %v, want ErrDestinationAlreadySet", err)
	}
}

func TestCreateChange_Cancelled(t *testing.T) {
	ws := newWorkspace(t)
	p := NewMovePolicy(ws.w, elements(ws.foo), nil)
	if err := p.SetDestination(ElementDestination(ws.typeT2, On)); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.CreateChange(ctx); err == nil {
		t.Fatal("expected cancellation")
	}
	if _, err := p.CreateChange(context.Background()); err != nil {
		t.Errorf("a cancelled run must not mark the policy executed: %v", err)
	}
}
