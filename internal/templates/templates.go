// Package templates provides prompt template loading, lookup and rendering.
package templates

import (
	"errors"
	"strings"

	"github.com/opencode-ai/promptpad/internal/models"
)

var (
	// ErrTemplateNotFound is returned when no template matches an id or name.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrReadOnlyTemplate is returned when saving or deleting a builtin template.
	ErrReadOnlyTemplate = errors.New("builtin templates are read-only")
)

// Find returns the template whose ID matches exactly, else whose name matches
// ignoring case, else nil.
func Find(items []*models.Template, ref string) *models.Template {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil
	}
	for _, tmpl := range items {
		if tmpl.ID == ref {
			return tmpl
		}
	}
	for _, tmpl := range items {
		if strings.EqualFold(tmpl.Name, ref) {
			return tmpl
		}
	}
	return nil
}

// Slug derives a stable file-style id from a template name.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case !dash && b.Len() > 0:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
