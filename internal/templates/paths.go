package templates

import (
	"os"
	"path/filepath"

	"github.com/opencode-ai/promptpad/internal/models"
)

// TemplateSearchPaths returns template search directories in precedence order.
// Extra directories come first.
func TemplateSearchPaths(projectDir string, extra ...string) []string {
	paths := make([]string, 0, len(extra)+2)
	paths = append(paths, extra...)
	if projectDir != "" {
		paths = append(paths, filepath.Join(projectDir, ".promptpad", "templates"))
	}

	if home, err := os.UserHomeDir(); err == nil && home != "" {
		paths = append(paths, filepath.Join(home, ".config", "promptpad", "templates"))
	}

	return paths
}

// LoadTemplatesFromSearchPaths loads file templates and builtins with first-hit
// precedence by id.
func LoadTemplatesFromSearchPaths(projectDir string, extra ...string) ([]*models.Template, error) {
	seen := make(map[string]*models.Template)
	order := make([]string, 0)

	add := func(items []*models.Template) {
		for _, tmpl := range items {
			if _, exists := seen[tmpl.ID]; exists {
				continue
			}
			seen[tmpl.ID] = tmpl
			order = append(order, tmpl.ID)
		}
	}

	for _, path := range TemplateSearchPaths(projectDir, extra...) {
		items, err := LoadTemplatesFromDir(path)
		if err != nil {
			return nil, err
		}
		add(items)
	}

	builtins, err := LoadBuiltinTemplates()
	if err != nil {
		return nil, err
	}
	add(builtins)

	resolved := make([]*models.Template, 0, len(order))
	for _, id := range order {
		resolved = append(resolved, seen[id])
	}

	return resolved, nil
}
