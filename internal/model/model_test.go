package model

import (
	"context"
	"strings"
	"testing"
)

const unitA = `package p;

import java.util.List;
import java.util.Map;

/** Doc for A. */
public class A {
    private int x, y = 2;

    /** Says foo. */
    public void foo() {
        System.out.println("}");
    }

    // helper
    static class Inner {
    }
}
`

func text(src string, r Range) string {
	return src[r.Offset:r.End()]
}

func buildA(t *testing.T) (*Workspace, *Element) {
	t.Helper()
	w := NewWorkspace()
	project := w.AddProject("P")
	root := w.AddSourceRoot(project, "src")
	pkg := w.AddPackage(root, "p")
	unit := w.AddUnit(pkg, "A.java", unitA)
	a := w.AddType(unit, "A")
	w.AddField(a, "int x")
	w.AddMethod(a, "foo")
	w.AddType(a, "Inner")
	if err := w.Err(); err != nil {
		t.Fatalf("annotation failed: %v", err)
	}
	return w, unit
}

func TestAnnotateHeader(t *testing.T) {
	_, unit := buildA(t)

	decl := unit.PackageDeclaration()
	if decl == nil {
		t.Fatal("expected package declaration")
	}
	if got := text(unitA, decl.Range); got != "package p;" {
		t.Errorf("package declaration = %q", got)
	}

	imports := unit.Imports()
	if len(imports) != 2 {
		t.Fatalf("expected 2 imports, got %d", len(imports))
	}
	if imports[0].Name != "java.util.List" || imports[1].Name != "java.util.Map" {
		t.Errorf("unexpected import names: %s, %s", imports[0].Name, imports[1].Name)
	}
	if got := text(unitA, imports[1].Range); got != "import java.util.Map;" {
		t.Errorf("import range = %q", got)
	}
	container := unit.ImportContainer()
	if got := text(unitA, container.Range); got != "import java.util.List;\nimport java.util.Map;" {
		t.Errorf("import container range = %q", got)
	}
}

func TestAnnotateMembers(t *testing.T) {
	_, unit := buildA(t)

	a := unit.MainType()
	if a == nil || a.Name != "A" {
		t.Fatalf("expected main type A, got %v", a)
	}
	if got := text(unitA, a.Range); !strings.HasPrefix(got, "public class A {") || !strings.HasSuffix(got, "}") {
		t.Errorf("type range = %q", got)
	}
	if got := text(unitA, a.DocRange); got != "/** Doc for A. */" {
		t.Errorf("type doc = %q", got)
	}
	if got := text(unitA, a.NameRange); got != "A" {
		t.Errorf("type name range = %q", got)
	}

	x := a.Child(KindField, "x")
	y := a.Child(KindField, "y")
	if x == nil || y == nil {
		t.Fatal("expected fields x and y")
	}
	if !x.IsFragment() || !y.IsFragment() {
		t.Error("expected x and y to be fragments")
	}
	if got := text(unitA, x.TypeRange); got != "private int" {
		t.Errorf("type range = %q", got)
	}
	if got := text(unitA, x.Range); got != "x" {
		t.Errorf("x range = %q", got)
	}
	if got := text(unitA, y.Range); got != "y = 2" {
		t.Errorf("y range = %q", got)
	}
	if got := text(unitA, x.DeclRange); got != "private int x, y = 2;" {
		t.Errorf("declaration range = %q", got)
	}
	if len(x.Fragments()) != 2 {
		t.Errorf("expected 2 fragments, got %d", len(x.Fragments()))
	}

	foo := a.Child(KindMethod, "foo")
	got := text(unitA, foo.Range)
	if !strings.HasPrefix(got, "public void foo() {") || !strings.HasSuffix(got, "    }") {
		t.Errorf("method range = %q", got)
	}
	if got := text(unitA, foo.DocRange); got != "/** Says foo. */" {
		t.Errorf("method doc = %q", got)
	}

	inner := a.Child(KindType, "Inner")
	if got := text(unitA, inner.Range); !strings.HasPrefix(got, "static class Inner {") {
		t.Errorf("inner range = %q", got)
	}
	if !inner.DocRange.IsZero() {
		t.Error("line comment must not be taken as doc comment")
	}
	if inner.FullyQualifiedName() != "p.A.Inner" {
		t.Errorf("FullyQualifiedName() = %q", inner.FullyQualifiedName())
	}
}

func TestAnnotateEnum(t *testing.T) {
	src := "package p;\n\npublic enum Color {\n    RED, GREEN(1), BLUE {\n        void m() {}\n    };\n}\n"
	w := NewWorkspace()
	root := w.AddSourceRoot(w.AddProject("P"), "src")
	unit := w.AddUnit(w.AddPackage(root, "p"), "Color.java", src)
	color := w.AddType(unit, "Color", Enum())
	red := w.AddEnumConstant(color, "RED")
	green := w.AddEnumConstant(color, "GREEN")
	blue := w.AddEnumConstant(color, "BLUE")
	if err := w.Err(); err != nil {
		t.Fatalf("annotation failed: %v", err)
	}

	if got := text(src, red.Range); got != "RED" {
		t.Errorf("RED range = %q", got)
	}
	if got := text(src, green.Range); got != "GREEN(1)" {
		t.Errorf("GREEN range = %q", got)
	}
	if got := text(src, blue.Range); !strings.HasPrefix(got, "BLUE {") || !strings.HasSuffix(got, "}") {
		t.Errorf("BLUE range = %q", got)
	}
	body := blue.ChildrenOfKind(KindType)
	if len(body) != 1 || !body[0].Anonymous {
		t.Fatalf("expected anonymous body type, got %v", body)
	}
}

func TestHandlesResolve(t *testing.T) {
	w, unit := buildA(t)

	for _, e := range []*Element{unit, unit.MainType(), unit.Package(), unit.PackageRoot(), unit.Project()} {
		got, ok := w.Element(e.Handle)
		if !ok || got != e {
			t.Errorf("Element(%q) did not resolve", e.Handle)
		}
		if err := ValidateHandle(e.Handle); err != nil {
			t.Errorf("ValidateHandle(%q): %v", e.Handle, err)
		}
	}

	res, ok := w.Resource("/P/src/p/A.java")
	if !ok || res.Element != unit {
		t.Fatalf("expected unit resource, got %v", res)
	}
	if _, ok := w.Resource("/P/src/p"); !ok {
		t.Error("expected package folder")
	}
}

func TestHandleValidation(t *testing.T) {
	tests := []struct {
		handle  string
		wantErr bool
	}{
		{"=P/src<p{A.java", false},
		{"/P/src/p/A.java", false},
		{"", true},
		{"a\tb", true},
		{"a\nb", true},
	}
	for _, tt := range tests {
		err := ValidateHandle(tt.handle)
		if (err != nil) != tt.wantErr {
			t.Errorf("ValidateHandle(%q) error = %v, wantErr %v", tt.handle, err, tt.wantErr)
		}
	}
}

func TestReadOnlyInsideBinaryRoot(t *testing.T) {
	w := NewWorkspace()
	project := w.AddProject("P")
	lib := w.AddArchiveRoot(project, "lib.jar", false)
	pkg := w.AddPackage(lib, "x")
	if !pkg.IsReadOnly() {
		t.Error("packages of archives must be read-only")
	}
	if lib.IsSourceRoot() {
		t.Error("archive must not be a source root")
	}
	src := w.AddSourceRoot(project, "src")
	if w.AddPackage(src, "p").IsReadOnly() {
		t.Error("source package must not be read-only")
	}
}

func TestSearchQualifiedName(t *testing.T) {
	w, _ := buildA(t)
	project, _ := w.Resource("/P")
	content := `<bean class="p.A"/> <x>p.AB</x> q.p.A p.A`
	w.AddFile(project, "config.xml", content)
	w.AddFile(project, "notes.txt", "p.A")

	matches, err := w.SearchQualifiedName(context.Background(), "p.A", func(r *Resource) bool {
		return strings.HasSuffix(r.Name, ".xml")
	})
	if err != nil {
		t.Fatalf("SearchQualifiedName failed: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	if matches[0].Offset != strings.Index(content, "p.A") {
		t.Errorf("first match offset = %d", matches[0].Offset)
	}
	if matches[1].Offset != strings.LastIndex(content, "p.A") {
		t.Errorf("second match offset = %d", matches[1].Offset)
	}
}

func TestSearchQualifiedNameCancelled(t *testing.T) {
	w, _ := buildA(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := w.SearchQualifiedName(ctx, "p.A", nil); err == nil {
		t.Error("expected cancellation error")
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
projects:
  - name: P
    roots:
      - path: src
        packages:
          - name: p
            units:
              - name: A.java
                source: |
                  package p;

                  public class A {
                      void foo() {}
                  }
                members:
                  - type: A
                    members:
                      - method: foo
      - path: lib.jar
        kind: archive
    folders:
      - name: docs
        files:
          - name: readme.txt
            content: hello
`)
	w, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	unit, ok := w.Element("=P/src<p{A.java")
	if !ok {
		t.Fatal("expected unit handle to resolve")
	}
	if unit.MainType().Child(KindMethod, "foo") == nil {
		t.Error("expected method foo")
	}
	if _, ok := w.Resource("/P/docs/readme.txt"); !ok {
		t.Error("expected docs/readme.txt")
	}
	lib, ok := w.Element("=P/lib.jar")
	if !ok || !lib.Archive {
		t.Error("expected archive root")
	}
}

func TestParseReportsMissingMarker(t *testing.T) {
	data := []byte(`
projects:
  - name: P
    roots:
      - path: src
        packages:
          - name: p
            units:
              - name: A.java
                source: "package p;\n"
                members:
                  - type: Missing
`)
	if _, err := Parse(data); err == nil {
		t.Error("expected error for missing marker")
	}
}
