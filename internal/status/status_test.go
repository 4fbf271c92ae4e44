package status

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

func TestSeverityOrdering(t *testing.T) {
	s := New()
	if !s.IsOK() || s.Severity() != SeverityOK {
		t.Fatalf("new status should be OK, got %s", s.Severity())
	}

	s.AddInfo("refs.skipped", "references will not be updated")
	if !s.IsOK() {
		t.Error("info entries must keep the status OK")
	}

	s.AddWarning("w", "warning")
	if s.IsOK() || s.Severity() != SeverityWarning {
		t.Errorf("expected warning severity, got %s", s.Severity())
	}

	s.AddFatal("dest.parent", "destination is the current parent of %s", "A.java")
	if !s.HasFatal() {
		t.Error("expected fatal")
	}
	e, ok := s.FirstFatal()
	if !ok || e.Message != "destination is the current parent of A.java" {
		t.Errorf("unexpected first fatal: %+v", e)
	}
	if err := s.Err(); err == nil {
		t.Error("expected error from fatal status")
	}
}

func TestMergeKeepsOrder(t *testing.T) {
	a := New()
	a.AddInfo("one", "first")
	b := New()
	b.AddError("two", "second")
	a.Merge(b)
	a.Merge(nil)

	entries := a.Entries()
	if len(entries) != 2 || entries[0].Code != "one" || entries[1].Code != "two" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if !a.HasCode("two") || a.HasCode("three") {
		t.Error("HasCode mismatch")
	}
}

func TestFromError(t *testing.T) {
	s := FromError(errors.New("boom"))
	if !s.HasFatal() || !s.HasCode("model.access") {
		t.Errorf("expected model access fatal, got %s", s)
	}
}

func TestCancelled(t *testing.T) {
	err := Cancelled(context.Canceled)
	if !errors.Is(err, ErrCancelled) {
		t.Error("expected ErrCancelled")
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("expected context.Canceled")
	}
}

func TestSeverityJSON(t *testing.T) {
	for _, sev := range []Severity{SeverityOK, SeverityInfo, SeverityWarning, SeverityError, SeverityFatal} {
		data, err := json.Marshal(Entry{Severity: sev, Code: "c", Message: "m"})
		if err != nil {
			t.Fatalf("Marshal(%s) failed: %v", sev, err)
		}
		var got Entry
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Unmarshal(%s) failed: %v", data, err)
		}
		if got.Severity != sev {
			t.Errorf("severity %s came back as %s", sev, got.Severity)
		}
	}

	var e Entry
	if err := json.Unmarshal([]byte(`{"severity":"severe"}`), &e); err == nil {
		t.Error("expected an error for an unknown severity name")
	}
}
