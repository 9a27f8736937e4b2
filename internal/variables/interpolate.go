package variables

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Interpolate substitutes slot values into text in a single pass per slot.
//
// Whitespace inside the delimiters is tolerated. Placeholders without a matching
// slot are left verbatim. Values are inserted literally and are never expanded,
// even when they contain placeholder-shaped text.
func Interpolate(text string, slots []Slot) string {
	if len(slots) == 0 {
		return text
	}

	// Replacements are collected against the original text first so a value
	// inserted for one slot is never rescanned by a later slot.
	type span struct {
		start, end int
		value      string
	}
	var spans []span
	taken := make([]bool, len(text))

	for _, slot := range slots {
		for _, loc := range findPlaceholders(text, slot.Name) {
			if overlaps(taken, loc[0], loc[1]) {
				continue
			}
			for i := loc[0]; i < loc[1]; i++ {
				taken[i] = true
			}
			spans = append(spans, span{start: loc[0], end: loc[1], value: slot.Value})
		}
	}
	if len(spans) == 0 {
		return text
	}

	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })

	out := make([]byte, 0, len(text))
	last := 0
	for _, s := range spans {
		out = append(out, text[last:s.start]...)
		out = append(out, s.value...)
		last = s.end
	}
	out = append(out, text[last:]...)
	return string(out)
}

// Unresolved returns placeholder names in text that have no slot.
func Unresolved(text string, slots []Slot) []string {
	known := make(map[string]struct{}, len(slots))
	for _, slot := range slots {
		known[slot.Name] = struct{}{}
	}

	var missing []string
	for _, slot := range Extract(text) {
		if _, ok := known[slot.Name]; !ok {
			missing = append(missing, slot.Name)
		}
	}
	return missing
}

// findPlaceholders returns the byte ranges of every non-overlapping
// "{{ name }}" in text, scanning left to right. Padding is any run of runes
// strings.TrimSpace would remove. Names are compared byte for byte, so text
// and names need not be valid UTF-8.
func findPlaceholders(text, name string) [][2]int {
	var locs [][2]int
	for i := 0; i < len(text); {
		open := strings.Index(text[i:], "{{")
		if open < 0 {
			break
		}
		start := i + open
		if end, ok := matchPlaceholder(text, start+2, name); ok {
			locs = append(locs, [2]int{start, end})
			i = end
			continue
		}
		i = start + 1
	}
	return locs
}

// matchPlaceholder matches padding, name, padding and "}}" at pos and returns
// the end offset.
func matchPlaceholder(text string, pos int, name string) (int, bool) {
	// Every boundary in the leading padding is a candidate, longest first, so
	// a name that itself starts with a space still matches.
	starts := []int{pos}
	for j := pos; j < len(text); {
		r, size := utf8.DecodeRuneInString(text[j:])
		if !unicode.IsSpace(r) {
			break
		}
		j += size
		starts = append(starts, j)
	}

	for k := len(starts) - 1; k >= 0; k-- {
		rest := text[starts[k]:]
		if !strings.HasPrefix(rest, name) {
			continue
		}
		j := starts[k] + len(name)
		j += len(rest[len(name):]) - len(strings.TrimLeftFunc(rest[len(name):], unicode.IsSpace))
		if strings.HasPrefix(text[j:], "}}") {
			return j + 2, true
		}
	}
	return 0, false
}

func overlaps(taken []bool, start, end int) bool {
	for i := start; i < end; i++ {
		if taken[i] {
			return true
		}
	}
	return false
}
