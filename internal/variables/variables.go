// Package variables extracts {{name}} placeholders from template text, reconciles
// slot values across edits and template switches, and interpolates final text.
package variables

// Slot is a runtime name/value pair derived from a placeholder.
type Slot struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Names returns the slot names in order.
func Names(slots []Slot) []string {
	names := make([]string, 0, len(slots))
	for _, slot := range slots {
		names = append(names, slot.Name)
	}
	return names
}

// Values returns the slots as a name to value map.
func Values(slots []Slot) map[string]string {
	values := make(map[string]string, len(slots))
	for _, slot := range slots {
		values[slot.Name] = slot.Value
	}
	return values
}
