package templates

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/opencode-ai/promptpad/internal/models"
	"github.com/opencode-ai/promptpad/internal/variables"
)

func TestLoadTemplate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "example.yaml")

	yaml := `name: Example Prompt
description: Example template
category: demo
content: |
  Hello {{ name }}
tags: [demo, " Demo "]
`

	if err := os.WriteFile(path, []byte(yaml), 0644); err != nil {
		t.Fatalf("write template: %v", err)
	}

	tmpl, err := LoadTemplate(path)
	if err != nil {
		t.Fatalf("LoadTemplate: %v", err)
	}

	if tmpl.ID != "example-prompt" {
		t.Fatalf("expected slug id, got %q", tmpl.ID)
	}
	if tmpl.Source != path {
		t.Fatalf("expected source %q, got %q", path, tmpl.Source)
	}
	if len(tmpl.Tags) != 1 || tmpl.Tags[0] != "demo" {
		t.Fatalf("unexpected tags: %+v", tmpl.Tags)
	}
}

func TestLoadTemplateRequiresContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("name: bad\n"), 0644); err != nil {
		t.Fatalf("write template: %v", err)
	}
	if _, err := LoadTemplate(path); err == nil {
		t.Fatal("expected error for template without content")
	}
}

func TestLoadTemplatesFromDirSkipsOtherFiles(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.yaml":    "name: bravo\ncontent: \"{{x}}\"\n",
		"a.yml":     "name: alpha\ncontent: \"{{y}}\"\n",
		"notes.txt": "ignored",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	items, err := LoadTemplatesFromDir(dir)
	if err != nil {
		t.Fatalf("LoadTemplatesFromDir: %v", err)
	}
	if len(items) != 2 || items[0].Name != "alpha" || items[1].Name != "bravo" {
		t.Fatalf("unexpected templates: %+v", items)
	}

	missing, err := LoadTemplatesFromDir(filepath.Join(dir, "missing"))
	if err != nil || len(missing) != 0 {
		t.Fatalf("missing dir: got %v, %v", missing, err)
	}
}

func TestLoadBuiltinTemplates(t *testing.T) {
	templates, err := LoadBuiltinTemplates()
	if err != nil {
		t.Fatalf("LoadBuiltinTemplates: %v", err)
	}
	if len(templates) != 17 {
		t.Fatalf("expected 17 builtin templates, got %d", len(templates))
	}

	for _, tmpl := range templates {
		if tmpl.Source != models.TemplateSourceBuiltin {
			t.Fatalf("expected builtin source, got %q", tmpl.Source)
		}
		if tmpl.ID == "" || tmpl.Name == "" {
			t.Fatalf("builtin template missing id or name: %+v", tmpl)
		}
		if len(variables.Extract(tmpl.Content)) == 0 {
			t.Fatalf("builtin template %q has no placeholders", tmpl.ID)
		}
	}

	email := Find(templates, "marketing-email")
	if email == nil {
		t.Fatal("marketing-email template missing")
	}
	got := strings.Join(variables.Names(variables.Extract(email.Content)), ",")
	if got != "email_type,product_name,target_audience,value_prop" {
		t.Fatalf("marketing-email variables = %s", got)
	}
	if Find(templates, "ELI5 (Explain Like I'm 5)") == nil {
		t.Fatal("expected lookup by display name")
	}
}

func TestLoadTemplatesFromSearchPathsPrecedence(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	extra := t.TempDir()
	override := "id: chain-of-thought\nname: My reasoning\ncontent: \"{{doc}}\"\n"
	if err := os.WriteFile(filepath.Join(extra, "reasoning.yaml"), []byte(override), 0644); err != nil {
		t.Fatalf("write override: %v", err)
	}

	items, err := LoadTemplatesFromSearchPaths("", extra)
	if err != nil {
		t.Fatalf("LoadTemplatesFromSearchPaths: %v", err)
	}

	tmpl := Find(items, "chain-of-thought")
	if tmpl == nil || tmpl.Name != "My reasoning" {
		t.Fatalf("expected file template to win, got %+v", tmpl)
	}
	if Find(items, "unit-test-generator") == nil {
		t.Fatal("expected builtins to be included")
	}
}

func TestFind(t *testing.T) {
	items := []*models.Template{
		{ID: "a1", Name: "Bugfix"},
		{ID: "feature", Name: "Feature"},
		{ID: "bugfix", Name: "Other"},
	}

	tests := []struct {
		name   string
		ref    string
		wantID string
	}{
		{"id wins over name", "bugfix", "bugfix"},
		{"case insensitive name", "FEATURE", "feature"},
		{"name", "BugFix", "a1"},
		{"not found", "nope", ""},
		{"empty", " ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Find(items, tt.ref)
			if tt.wantID == "" {
				if got != nil {
					t.Fatalf("Find(%q) = %+v, want nil", tt.ref, got)
				}
				return
			}
			if got == nil || got.ID != tt.wantID {
				t.Fatalf("Find(%q) = %+v, want id %q", tt.ref, got, tt.wantID)
			}
		})
	}
}

func TestSlug(t *testing.T) {
	tests := map[string]string{
		"Code Review":      "code-review",
		"  Hello, World! ": "hello-world",
		"already-slugged":  "already-slugged",
		"***":              "",
	}
	for in, want := range tests {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestRender(t *testing.T) {
	tmpl := &models.Template{
		ID:      "greet",
		Content: "Hello {{ name }}, meet {{friend}}",
	}
	session := variables.NewSession(variables.NewMemoryCache(map[string]string{"friend": "Bo"}))

	rendered, err := Render(tmpl, session, map[string]string{"name": "Ada"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if rendered != "Hello Ada, meet Bo" {
		t.Fatalf("unexpected render result: %q", rendered)
	}

	if _, err := Render(nil, session, nil); err == nil {
		t.Fatal("expected error for nil template")
	}
}

func TestEmptySlots(t *testing.T) {
	got := EmptySlots([]variables.Slot{{Name: "a"}, {Name: "b", Value: "x"}, {Name: "c"}})
	if len(got) != 2 || got[0] != "a" || got[1] != "c" {
		t.Fatalf("EmptySlots() = %v", got)
	}
}
