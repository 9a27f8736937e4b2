package models

import (
	"strings"
	"time"
)

// Template sources.
const (
	TemplateSourceBuiltin = "builtin"
	TemplateSourceUser    = "user"
)

// Template is a prompt template with {{name}} placeholders.
type Template struct {
	// ID is stable: the slug for builtin and file templates, a UUID for user templates.
	ID string `json:"id" yaml:"id"`

	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description,omitempty" yaml:"description"`
	Category    string   `json:"category,omitempty" yaml:"category"`
	Content     string   `json:"content" yaml:"content"`
	Tags        []string `json:"tags,omitempty" yaml:"tags,omitempty"`

	// Source is "builtin", "user" or the file the template was loaded from.
	Source string `json:"source" yaml:"-"`

	CreatedAt time.Time `json:"created_at,omitempty" yaml:"-"`
	UpdatedAt time.Time `json:"updated_at,omitempty" yaml:"-"`
}

// Validate checks required template fields.
func (t *Template) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(t.Name) == "" {
		validation.AddMessage("name", "template name is required")
	}
	if strings.TrimSpace(t.Content) == "" {
		validation.AddMessage("content", "template content is required")
	}
	return validation.Err()
}

// IsBuiltin reports whether the template is immutable seed data.
func (t *Template) IsBuiltin() bool {
	return t.Source == TemplateSourceBuiltin
}

// HasTag reports whether the template carries tag, ignoring case.
func (t *Template) HasTag(tag string) bool {
	for _, candidate := range t.Tags {
		if strings.EqualFold(candidate, tag) {
			return true
		}
	}
	return false
}

// NormalizeTags trims, drops empties and dedupes tags while keeping order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}
