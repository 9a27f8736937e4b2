package templates

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/opencode-ai/promptpad/internal/models"
	"gopkg.in/yaml.v3"
)

// LoadTemplate reads a single template from disk.
func LoadTemplate(path string) (*models.Template, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("template path is required")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}

	tmpl, err := parseTemplate(data)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", path, err)
	}
	tmpl.Source = path
	return tmpl, nil
}

// LoadTemplatesFromDir loads all templates from a directory.
func LoadTemplatesFromDir(dir string) ([]*models.Template, error) {
	if strings.TrimSpace(dir) == "" {
		return []*models.Template{}, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []*models.Template{}, nil
		}
		return nil, fmt.Errorf("read templates dir %s: %w", dir, err)
	}

	templates := make([]*models.Template, 0)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		tmpl, err := LoadTemplate(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}

	sort.Slice(templates, func(i, j int) bool {
		return templates[i].Name < templates[j].Name
	})

	return templates, nil
}

// MarshalTemplate encodes a template in the on-disk YAML format.
func MarshalTemplate(tmpl *models.Template) ([]byte, error) {
	return yaml.Marshal(tmpl)
}

func parseTemplate(data []byte) (*models.Template, error) {
	var tmpl models.Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, err
	}

	tmpl.Name = strings.TrimSpace(tmpl.Name)
	tmpl.Description = strings.TrimSpace(tmpl.Description)
	tmpl.Category = strings.TrimSpace(tmpl.Category)
	tmpl.Tags = models.NormalizeTags(tmpl.Tags)
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}

	tmpl.ID = strings.TrimSpace(tmpl.ID)
	if tmpl.ID == "" {
		tmpl.ID = Slug(tmpl.Name)
	}

	return &tmpl, nil
}
