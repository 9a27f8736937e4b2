package variables

// Session is the editing state for the active template: its text, its slots and
// the cache that lets values follow a variable name across templates.
//
// Session is not safe for concurrent use; the host sequences every call.
type Session struct {
	cache Cache
	text  string
	slots []Slot
}

// NewSession creates an empty session backed by cache. A nil cache is replaced
// with an empty MemoryCache.
func NewSession(cache Cache) *Session {
	if cache == nil {
		cache = NewMemoryCache(nil)
	}
	return &Session{cache: cache, slots: []Slot{}}
}

// Cache returns the session's cache.
func (s *Session) Cache() Cache {
	return s.cache
}

// Text returns the current template text.
func (s *Session) Text() string {
	return s.text
}

// SetText re-extracts slots after the template text changed, keeping the values of
// names that survive the edit. It returns the reconciled slots.
func (s *Session) SetText(text string) []Slot {
	s.text = text
	s.slots = Reconcile(Extract(text), s.slots, s.cache)
	return s.Slots()
}

// Load switches to a different template. It reconciles exactly like SetText,
// so a name shared with the previous template keeps its current value.
func (s *Session) Load(text string) []Slot {
	return s.SetText(text)
}

// Slots returns a copy of the current slots.
func (s *Session) Slots() []Slot {
	out := make([]Slot, len(s.slots))
	copy(out, s.slots)
	return out
}

// Value returns the current value for name.
func (s *Session) Value(name string) (string, bool) {
	for _, slot := range s.slots {
		if slot.Name == name {
			return slot.Value, true
		}
	}
	return "", false
}

// SetValue records a direct edit. The live slot is updated when present and the
// value is always written to the cache. It reports whether a slot matched.
func (s *Session) SetValue(name, value string) bool {
	s.cache.Set(name, value)
	for i := range s.slots {
		if s.slots[i].Name == name {
			s.slots[i].Value = value
			return true
		}
	}
	return false
}

// ClearValues empties every current slot and drops those names from the cache.
// Cache entries for names not in the current template are kept.
func (s *Session) ClearValues() []string {
	cleared := make([]string, 0, len(s.slots))
	for i := range s.slots {
		s.slots[i].Value = ""
		s.cache.Delete(s.slots[i].Name)
		cleared = append(cleared, s.slots[i].Name)
	}
	return cleared
}

// Render interpolates the current slots into the current text.
func (s *Session) Render() string {
	return Interpolate(s.text, s.slots)
}

