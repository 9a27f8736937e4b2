package variables

import (
	"regexp"
	"strings"
)

// A placeholder never spans a line terminator.
var placeholderPattern = regexp.MustCompile(`\{\{([^\n\r\x{2028}\x{2029}]*?)\}\}`)

// Extract returns the distinct placeholder names in text, in first-occurrence order.
// Values are left empty; Reconcile fills them in.
func Extract(text string) []Slot {
	matches := placeholderPattern.FindAllStringSubmatch(text, -1)
	slots := make([]Slot, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))

	for _, match := range matches {
		name := strings.TrimSpace(match[1])
		if name == "" {
			continue
		}
		if _, exists := seen[name]; exists {
			continue
		}
		seen[name] = struct{}{}
		slots = append(slots, Slot{Name: name})
	}

	return slots
}

// ExtractAny is Extract for untyped input such as decoded JSON.
// Anything that is not a string yields an empty result.
func ExtractAny(v any) []Slot {
	switch text := v.(type) {
	case string:
		return Extract(text)
	case []byte:
		return Extract(string(text))
	default:
		return []Slot{}
	}
}
