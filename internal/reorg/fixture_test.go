package reorg

import (
	"testing"

	"github.com/danieljhkim/reorg/internal/model"
)

const sourceA = `package p;

import java.util.List;
import java.util.Map;

public class A {
    private int x, y;

    public void foo() {
        List<String> l = null;
    }

    static class Inner {
        void bar() {
        }
    }
}
`

const sourceB = `package p;

public class B {
}
`

const sourceC = `package p;

class C {
}

class D {
}
`

const sourceT2 = `package q;

import java.util.Map;

public class T2 {
}
`

const sourceI = `package q;

public interface I {
    void run();
}
`

// workspace is the shared test model:
//
//	P/src/p: A.java, B.java, C.java (types C and D)
//	P/src/q: T2.java, I.java (interface I)
//	P/lib.jar: package x
//	P/docs: readme.txt, config.xml, sub/
//	P/other: readme.txt
//	Q/java
type workspace struct {
	w *model.Workspace

	project, projectQ *model.Element
	src, lib, javaQ   *model.Element
	p, q, x           *model.Element

	unitA, unitB, unitC, unitT2, unitI *model.Element
	typeA, inner, typeT2, typeI        *model.Element
	fieldX, fieldY, foo, bar, run      *model.Element
	importList, importMap              *model.Element

	docs, sub, other *model.Resource
	readme, config   *model.Resource
	otherReadme      *model.Resource
}

func newWorkspace(t *testing.T) *workspace {
	t.Helper()
	w := model.NewWorkspace()
	ws := &workspace{w: w}

	ws.project = w.AddProject("P")
	ws.src = w.AddSourceRoot(ws.project, "src")
	ws.p = w.AddPackage(ws.src, "p")
	ws.q = w.AddPackage(ws.src, "q")

	ws.unitA = w.AddUnit(ws.p, "A.java", sourceA)
	ws.typeA = w.AddType(ws.unitA, "A")
	fields := w.AddField(ws.typeA, "int x")
	ws.foo = w.AddMethod(ws.typeA, "foo", model.References("java.util.List", "java.lang.String"))
	ws.inner = w.AddType(ws.typeA, "Inner")
	ws.bar = w.AddMethod(ws.inner, "bar")

	ws.unitB = w.AddUnit(ws.p, "B.java", sourceB)
	w.AddType(ws.unitB, "B")

	ws.unitC = w.AddUnit(ws.p, "C.java", sourceC)
	w.AddType(ws.unitC, "C")
	w.AddType(ws.unitC, "D")

	ws.unitT2 = w.AddUnit(ws.q, "T2.java", sourceT2)
	ws.typeT2 = w.AddType(ws.unitT2, "T2")

	ws.unitI = w.AddUnit(ws.q, "I.java", sourceI)
	ws.typeI = w.AddType(ws.unitI, "I", model.Interface())
	ws.run = w.AddMethod(ws.typeI, "run")

	ws.lib = w.AddArchiveRoot(ws.project, "lib.jar", false)
	ws.x = w.AddPackage(ws.lib, "x")

	ws.docs = w.AddFolder(ws.project.Resource, "docs")
	ws.readme = w.AddFile(ws.docs, "readme.txt", "hello")
	ws.config = w.AddFile(ws.docs, "config.xml", `<bean class="p.A"/>`+"\n")
	ws.sub = w.AddFolder(ws.docs, "sub")
	ws.other = w.AddFolder(ws.project.Resource, "other")
	ws.otherReadme = w.AddFile(ws.other, "readme.txt", "old")

	ws.projectQ = w.AddProject("Q")
	ws.javaQ = w.AddSourceRoot(ws.projectQ, "java")

	if err := w.Err(); err != nil {
		t.Fatalf("fixture: %v", err)
	}
	if len(fields) != 2 {
		t.Fatalf("fixture: expected 2 fragments, got %d", len(fields))
	}
	ws.fieldX, ws.fieldY = fields[0], fields[1]
	imports := ws.unitA.Imports()
	ws.importList = imports[0]
	ws.importMap = ws.unitT2.Imports()[0]
	return ws
}

func elements(es ...*model.Element) []*model.Element { return es }

func resources(rs ...*model.Resource) []*model.Resource { return rs }

func itemHandles(s Selection) []string {
	var out []string
	for _, it := range s.Items() {
		out = append(out, it.Handle())
	}
	return out
}

// fakeConfirmer records questions and answers them from its fields.
type fakeConfirmer struct {
	readOnly      bool
	approve       func([]Item) []Item
	create        func(Destination) (string, bool)
	readOnlyAsked int
	overwrite     [][]Item
}

func (f *fakeConfirmer) ConfirmReadOnly(title, question string) bool {
	f.readOnlyAsked++
	return f.readOnly
}

func (f *fakeConfirmer) ConfirmOverwrite(candidates []Item) []Item {
	f.overwrite = append(f.overwrite, candidates)
	if f.approve == nil {
		return nil
	}
	return f.approve(candidates)
}

func (f *fakeConfirmer) CreateTargetIfMissing(dest Destination) (string, bool) {
	if f.create == nil {
		return "", false
	}
	return f.create(dest)
}
