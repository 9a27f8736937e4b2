package templates

import (
	"strings"

	"github.com/opencode-ai/promptpad/internal/models"
	"github.com/sahilm/fuzzy"
)

// Filter keeps templates carrying any of tags and, when category is set, in that
// category. Matching ignores case.
func Filter(items []*models.Template, tags []string, category string) []*models.Template {
	category = strings.TrimSpace(category)
	out := make([]*models.Template, 0, len(items))
	for _, tmpl := range items {
		if category != "" && !strings.EqualFold(tmpl.Category, category) {
			continue
		}
		if len(tags) > 0 && !hasAnyTag(tmpl, tags) {
			continue
		}
		out = append(out, tmpl)
	}
	return out
}

// Categories returns the distinct non-empty categories in first-seen order.
func Categories(items []*models.Template) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, tmpl := range items {
		key := strings.ToLower(tmpl.Category)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tmpl.Category)
	}
	return out
}

// Search ranks templates by fuzzy match of query against name, category, tags and
// description. An empty query returns items unchanged.
func Search(items []*models.Template, query string) []*models.Template {
	query = strings.TrimSpace(query)
	if query == "" {
		return items
	}

	matches := fuzzy.FindFrom(query, searchSource(items))
	out := make([]*models.Template, 0, len(matches))
	for _, match := range matches {
		out = append(out, items[match.Index])
	}
	return out
}

type searchSource []*models.Template

func (s searchSource) String(i int) string {
	tmpl := s[i]
	return strings.Join([]string{tmpl.Name, tmpl.Category, strings.Join(tmpl.Tags, " "), tmpl.Description}, " ")
}

func (s searchSource) Len() int {
	return len(s)
}

func hasAnyTag(tmpl *models.Template, tags []string) bool {
	for _, tag := range tags {
		if tmpl.HasTag(strings.TrimSpace(tag)) {
			return true
		}
	}
	return false
}
