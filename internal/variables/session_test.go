package variables

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSessionEditSurvivesTextChange(t *testing.T) {
	s := NewSession(nil)
	s.Load("Hello {{name}}")
	s.SetValue("name", "Ada")

	got := s.SetText("Hello {{name}}, welcome to {{place}}")
	want := []Slot{{Name: "name", Value: "Ada"}, {Name: "place", Value: ""}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("SetText mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionInSessionValueBeatsCache(t *testing.T) {
	cache := NewMemoryCache(map[string]string{"topic": "cached"})
	s := NewSession(cache)
	s.Load("{{topic}}")

	// Simulate a value held in the slot list that never reached the cache.
	s.slots[0].Value = "typed"
	got := s.SetText("{{topic}} and more")
	if diff := cmp.Diff([]Slot{{Name: "topic", Value: "typed"}}, got); diff != "" {
		t.Fatalf("SetText mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionValuesFollowNameAcrossTemplates(t *testing.T) {
	s := NewSession(NewMemoryCache(nil))
	s.Load("Summarize {{topic}} for {{audience}}")
	s.SetValue("topic", "Go generics")

	got := s.Load("Write a poem about {{topic}}")
	if diff := cmp.Diff([]Slot{{Name: "topic", Value: "Go generics"}}, got); diff != "" {
		t.Fatalf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionLoadKeepsPreviousSlotValues(t *testing.T) {
	s := NewSession(NewMemoryCache(map[string]string{"x": "cached", "y": "from cache"}))
	s.Load("{{x}}")
	s.slots[0].Value = "current"

	got := s.Load("{{x}} and {{y}}")
	want := []Slot{{Name: "x", Value: "current"}, {Name: "y", Value: "from cache"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionLoadAfterClearKeepsEmptyValues(t *testing.T) {
	s := NewSession(NewMemoryCache(nil))
	s.Load("{{a}} {{b}}")
	s.SetValue("a", "1")
	s.ClearValues()

	got := s.Load("{{a}}")
	if diff := cmp.Diff([]Slot{{Name: "a", Value: ""}}, got); diff != "" {
		t.Fatalf("Load mismatch (-want +got):\n%s", diff)
	}
}

func TestSessionSetValueWritesCacheWithoutSlot(t *testing.T) {
	cache := NewMemoryCache(nil)
	s := NewSession(cache)
	s.Load("{{a}}")

	if s.SetValue("b", "2") {
		t.Fatal("SetValue reported a match for unknown slot")
	}
	if v, ok := cache.Get("b"); !ok || v != "2" {
		t.Fatalf("cache b = %q, %v; want %q, true", v, ok, "2")
	}
}

func TestSessionClearValues(t *testing.T) {
	cache := NewMemoryCache(map[string]string{"other": "keep"})
	s := NewSession(cache)
	s.Load("{{a}} {{b}}")
	s.SetValue("a", "1")
	s.SetValue("b", "2")

	cleared := s.ClearValues()
	if diff := cmp.Diff([]string{"a", "b"}, cleared); diff != "" {
		t.Fatalf("cleared mismatch (-want +got):\n%s", diff)
	}
	for _, slot := range s.Slots() {
		if slot.Value != "" {
			t.Fatalf("slot %q = %q after clear, want empty", slot.Name, slot.Value)
		}
	}

	// Re-extraction from a fresh template load must not resurrect the values.
	got := s.Load("{{a}} {{b}}")
	if diff := cmp.Diff([]Slot{{Name: "a"}, {Name: "b"}}, got); diff != "" {
		t.Fatalf("Load after clear mismatch (-want +got):\n%s", diff)
	}
	if v, _ := cache.Get("other"); v != "keep" {
		t.Fatalf("unrelated cache entry = %q, want %q", v, "keep")
	}
}

func TestSessionRender(t *testing.T) {
	s := NewSession(nil)
	s.Load("A: {{a}}, B: {{ b }}")
	s.SetValue("a", "1")
	s.SetValue("b", "2")

	if got := s.Render(); got != "A: 1, B: 2" {
		t.Fatalf("Render() = %q, want %q", got, "A: 1, B: 2")
	}
	if got := s.Text(); got != "A: {{a}}, B: {{ b }}" {
		t.Fatalf("Text() = %q", got)
	}
}

func TestSessionSlotsReturnsCopy(t *testing.T) {
	s := NewSession(nil)
	s.Load("{{a}}")
	slots := s.Slots()
	slots[0].Value = "mutated"

	if v, _ := s.Value("a"); v != "" {
		t.Fatalf("session value = %q after mutating copy, want empty", v)
	}
}
