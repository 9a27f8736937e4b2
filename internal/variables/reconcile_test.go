package variables

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func slotsOf(names ...string) []Slot {
	slots := make([]Slot, 0, len(names))
	for _, name := range names {
		slots = append(slots, Slot{Name: name})
	}
	return slots
}

func TestReconcilePreviousWinsOverCache(t *testing.T) {
	previous := []Slot{{Name: "x", Value: "7"}}
	cache := NewMemoryCache(map[string]string{"x": "stale", "y": "42"})

	got := Reconcile(slotsOf("x", "y"), previous, cache)
	want := []Slot{{Name: "x", Value: "7"}, {Name: "y", Value: "42"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Reconcile mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileDefaultsToEmpty(t *testing.T) {
	got := Reconcile(slotsOf("fresh"), nil, NewMemoryCache(nil))
	want := []Slot{{Name: "fresh", Value: ""}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Reconcile mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileNilInputs(t *testing.T) {
	if got := Reconcile(nil, nil, nil); got == nil || len(got) != 0 {
		t.Fatalf("Reconcile(nil, nil, nil) = %#v, want empty slice", got)
	}

	got := Reconcile(slotsOf("a"), nil, nil)
	if diff := cmp.Diff([]Slot{{Name: "a"}}, got); diff != "" {
		t.Fatalf("Reconcile with nil cache mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileKeepsExtractionOrder(t *testing.T) {
	previous := []Slot{{Name: "c", Value: "3"}, {Name: "a", Value: "1"}}
	got := Reconcile(slotsOf("a", "b", "c"), previous, nil)
	if diff := cmp.Diff([]string{"a", "b", "c"}, Names(got)); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileDropsRemovedNames(t *testing.T) {
	previous := []Slot{{Name: "gone", Value: "v"}, {Name: "kept", Value: "k"}}
	got := Reconcile(slotsOf("kept"), previous, nil)
	if diff := cmp.Diff([]Slot{{Name: "kept", Value: "k"}}, got); diff != "" {
		t.Fatalf("Reconcile mismatch (-want +got):\n%s", diff)
	}
}

func TestReconcileDoesNotWriteCache(t *testing.T) {
	cache := NewMemoryCache(nil)
	Reconcile(slotsOf("x"), []Slot{{Name: "x", Value: "typed"}}, cache)
	if cache.Len() != 0 {
		t.Fatalf("cache has %d entries, want 0", cache.Len())
	}
}

func TestMemoryCacheSnapshotIsCopy(t *testing.T) {
	seed := map[string]string{"a": "1"}
	cache := NewMemoryCache(seed)
	seed["a"] = "changed"

	snap := cache.Snapshot()
	snap["a"] = "mutated"

	if v, _ := cache.Get("a"); v != "1" {
		t.Fatalf("cache value = %q, want %q", v, "1")
	}
	if diff := cmp.Diff([]string{"a"}, cache.Keys()); diff != "" {
		t.Fatalf("Keys mismatch (-want +got):\n%s", diff)
	}
}
