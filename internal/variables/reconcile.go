package variables

// Reconcile fills in values for freshly extracted slots.
//
// A name present in previous keeps its in-session value. Any other name is seeded
// from cache, falling back to the empty string. Reconcile never writes to cache.
func Reconcile(extracted, previous []Slot, cache Cache) []Slot {
	if cache == nil {
		cache = nopCache{}
	}

	current := make(map[string]string, len(previous))
	for _, slot := range previous {
		current[slot.Name] = slot.Value
	}

	slots := make([]Slot, 0, len(extracted))
	for _, slot := range extracted {
		if value, ok := current[slot.Name]; ok {
			slots = append(slots, Slot{Name: slot.Name, Value: value})
			continue
		}
		value, _ := cache.Get(slot.Name)
		slots = append(slots, Slot{Name: slot.Name, Value: value})
	}

	return slots
}
