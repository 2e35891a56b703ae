package store

import (
	"encoding/json"
	"testing"
)

func TestGroupsMarshalKeepsInsertionOrder(t *testing.T) {
	g := newGroups[[]int]()
	g.set("zeta", []int{1})
	g.set("alpha", []int{2})
	g.set("zeta", append(g.Get("zeta"), 3))

	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if want := `{"zeta":[1,3],"alpha":[2]}`; string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}
	if g.Len() != 2 {
		t.Errorf("Len = %d, want 2", g.Len())
	}
}

func TestGroupsNested(t *testing.T) {
	g := newGroups[*Groups[[]string]]()
	g.child("b", newGroups[[]string]).set("y", []string{"one"})
	g.child("a", newGroups[[]string]).set("x", []string{"two"})
	g.child("b", newGroups[[]string]).set("w", []string{"three"})

	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if want := `{"b":{"y":["one"],"w":["three"]},"a":{"x":["two"]}}`; string(data) != want {
		t.Errorf("Marshal = %s, want %s", data, want)
	}

	if got := g.Get("missing").Get("x"); got != nil {
		t.Errorf("lookup through a missing group = %v, want nil", got)
	}
	if keys := g.Get("missing").Keys(); keys != nil {
		t.Errorf("Keys of a missing group = %v, want nil", keys)
	}
}

func TestEmptyGroupsMarshal(t *testing.T) {
	data, err := json.Marshal(newGroups[[]int]())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("Marshal = %s, want {}", data)
	}
}
