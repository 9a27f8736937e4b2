package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/opencode-ai/promptpad/internal/models"
	"github.com/opencode-ai/promptpad/internal/templates"
	"github.com/opencode-ai/promptpad/internal/variables"
	"github.com/spf13/cobra"
)

var (
	renderVars []string
	renderText string
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringArrayVar(&renderVars, "var", nil, "variable value as name=value (repeatable)")
	renderCmd.Flags().StringVar(&renderText, "text", "", "render inline text instead of a stored template")
}

var renderCmd = &cobra.Command{
	Use:   "render [template]",
	Short: "Fill in a template and print the result",
	Long: `Fill in a template's variables and print the resulting prompt.

Values come from --var, then from earlier values in the session. On a terminal,
promptpad asks for any variable that is still empty.`,
	Example: `  promptpad render meeting-summarizer --var meeting_notes="$(cat notes.md)"
  promptpad render --text "Translate {{text}} into {{language}}" --var language=French`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		values, err := parseVars(renderVars)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		tmpl, err := a.resolveTemplate(ctx, args, renderText)
		if err != nil {
			return err
		}
		session, cache, err := a.loadSession(ctx)
		if err != nil {
			return err
		}

		rendered, err := renderPrompt(tmpl, session, values, interactivePrompter())
		if err != nil {
			return err
		}
		if err := a.saveSession(ctx, cache); err != nil {
			return err
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, rendered)
		}
		warnRendered(os.Stderr, rendered)
		fmt.Println(rendered.Text)
		return nil
	},
}

// renderedPrompt is a filled-in template.
type renderedPrompt struct {
	TemplateID string           `json:"template_id,omitempty"`
	Text       string           `json:"text"`
	Variables  []variables.Slot `json:"variables"`
	Empty      []string         `json:"empty,omitempty"`
	Unused     []string         `json:"unused,omitempty"`
}

// prompter asks the user for missing values.
type prompter func(session *variables.Session) error

func interactivePrompter() prompter {
	if IsNonInteractive() {
		return nil
	}
	return func(session *variables.Session) error {
		return promptForEmpty(session, os.Stdin, os.Stderr)
	}
}

// renderPrompt switches the session to tmpl, applies values as direct edits,
// asks for the rest when ask is set and interpolates.
func renderPrompt(tmpl *models.Template, session *variables.Session, values map[string]string, ask prompter) (*renderedPrompt, error) {
	text, err := templates.Render(tmpl, session, values)
	if err != nil {
		return nil, err
	}

	if ask != nil && len(templates.EmptySlots(session.Slots())) > 0 {
		if err := ask(session); err != nil {
			return nil, err
		}
		text = session.Render()
	}

	slots := session.Slots()
	used := make(map[string]bool, len(slots))
	for _, slot := range slots {
		used[slot.Name] = true
	}
	var unused []string
	for name := range values {
		if !used[name] {
			unused = append(unused, name)
		}
	}
	sort.Strings(unused)

	return &renderedPrompt{
		TemplateID: tmpl.ID,
		Text:       text,
		Variables:  slots,
		Empty:      templates.EmptySlots(slots),
		Unused:     unused,
	}, nil
}

func warnRendered(out io.Writer, rendered *renderedPrompt) {
	if len(rendered.Empty) > 0 {
		fmt.Fprintf(out, "Warning: no value for %s\n", strings.Join(rendered.Empty, ", "))
	}
	if len(rendered.Unused) > 0 {
		fmt.Fprintf(out, "Warning: template does not use %s\n", strings.Join(rendered.Unused, ", "))
	}
}

// resolveTemplate returns the stored template named by args, or an unsaved
// template holding inline text.
func (a *app) resolveTemplate(ctx context.Context, args []string, inline string) (*models.Template, error) {
	switch {
	case len(args) > 0 && inline != "":
		return nil, fmt.Errorf("pass either a template or --text, not both")
	case len(args) > 0:
		return a.store.Get(ctx, args[0])
	case strings.TrimSpace(inline) != "":
		return &models.Template{Name: "inline", Content: inline}, nil
	default:
		return nil, fmt.Errorf("a template or --text is required")
	}
}
