package memory

import "testing"

func TestEquivalencesResolve(t *testing.T) {
	e := NewEquivalences()
	e.Add("c000000-a", "c000000-a")
	e.Add("clip0/p1", "c000000-a")

	got, ok := e.Resolve("clip0/p1")
	if !ok {
		t.Fatal("expected alias to resolve")
	}
	if got != "c000000-a" {
		t.Errorf("expected c000000-a, got %s", got)
	}

	if _, ok := e.Resolve("clip9/p9"); ok {
		t.Error("unknown alias should not resolve")
	}
}

func TestEquivalencesMergeSmallerRootWins(t *testing.T) {
	e := NewEquivalences()
	e.Add("c000000-a", "c000000-a")
	e.Add("clip0/p1", "c000000-a")
	e.Add("c000001-b", "c000001-b")
	e.Add("clip1/p1", "c000001-b")

	if !e.Merge("c000000-a", "c000001-b") {
		t.Fatal("merge of known aliases should succeed")
	}

	for _, alias := range []string{"clip0/p1", "clip1/p1", "c000001-b"} {
		got, ok := e.Resolve(alias)
		if !ok || got != "c000000-a" {
			t.Errorf("alias %s resolved to %q (ok=%v), want c000000-a", alias, got, ok)
		}
	}
}

func TestEquivalencesMergeUnknown(t *testing.T) {
	e := NewEquivalences()
	e.Add("c000000-a", "c000000-a")
	if e.Merge("c000000-a", "missing") {
		t.Error("merge with unknown alias should report false")
	}
}

func TestEquivalencesAddExistingAliasUnions(t *testing.T) {
	e := NewEquivalences()
	e.Add("clip0/p1", "c000000-a")
	e.Add("clip0/p1", "c000001-b")

	a, _ := e.Resolve("c000000-a")
	b, _ := e.Resolve("c000001-b")
	if a != b {
		t.Errorf("rebinding an alias should union the sets, got %s and %s", a, b)
	}
	if a != "c000000-a" {
		t.Errorf("canonical should be the smaller root, got %s", a)
	}
}

func TestEquivalencesTransitive(t *testing.T) {
	e := NewEquivalences()
	e.Add("a1", "c000000-x")
	e.Add("a2", "c000001-y")
	e.Add("a3", "c000002-z")
	e.Merge("c000001-y", "c000002-z")
	e.Merge("c000000-x", "c000002-z")

	for _, alias := range []string{"a1", "a2", "a3"} {
		got, _ := e.Resolve(alias)
		if got != "c000000-x" {
			t.Errorf("alias %s resolved to %s, want c000000-x", alias, got)
		}
	}
}
