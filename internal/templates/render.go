package templates

import (
	"fmt"

	"github.com/opencode-ai/promptpad/internal/models"
	"github.com/opencode-ai/promptpad/internal/variables"
)

// Render switches session to tmpl, applies values as direct edits and returns the
// interpolated text. Values for names the template does not use still reach the
// session cache.
func Render(tmpl *models.Template, session *variables.Session, values map[string]string) (string, error) {
	if tmpl == nil {
		return "", fmt.Errorf("template is required")
	}
	if session == nil {
		return "", fmt.Errorf("session is required")
	}

	session.Load(tmpl.Content)
	for name, value := range values {
		session.SetValue(name, value)
	}

	return session.Render(), nil
}

// EmptySlots returns the names whose value is still empty.
func EmptySlots(slots []variables.Slot) []string {
	var names []string
	for _, slot := range slots {
		if slot.Value == "" {
			names = append(names, slot.Name)
		}
	}
	return names
}
