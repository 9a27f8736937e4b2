package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/opencode-ai/promptpad/internal/events"
	"github.com/opencode-ai/promptpad/internal/variables"
	"github.com/spf13/cobra"
)

var varsExtractJSON bool

func init() {
	rootCmd.AddCommand(varsCmd)
	varsCmd.AddCommand(varsSetCmd)
	varsCmd.AddCommand(varsClearCmd)
	varsCmd.AddCommand(varsResetCmd)
	varsCmd.AddCommand(varsExtractCmd)

	varsExtractCmd.Flags().BoolVar(&varsExtractJSON, "stdin-json", false, "read a JSON document and extract from its content field")
}

var varsCmd = &cobra.Command{
	Use:     "vars <template>",
	Aliases: []string{"variables"},
	Short:   "Show and edit template variables",
	Long: `Show the variables of a template with the values the session would use.

A variable keeps the value it was last given in this session, in any
template. Use --session to work with a separate set of values.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		tmpl, err := a.store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		session, _, err := a.loadSession(ctx)
		if err != nil {
			return err
		}

		return printSlots(os.Stdout, session.Load(tmpl.Content))
	},
}

var varsSetCmd = &cobra.Command{
	Use:   "set <template> <name=value>...",
	Short: "Set variable values",
	Long: `Set variable values for a template. Values are remembered for the session
and reused by every template with a variable of the same name.`,
	Example: `  promptpad vars set creative-storyteller tone=whimsical story_premise="a lighthouse keeper"`,
	Args:    cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		values, err := parseVars(args[1:])
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		tmpl, err := a.store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		session, cache, err := a.loadSession(ctx)
		if err != nil {
			return err
		}

		session.Load(tmpl.Content)
		unused := applyValues(session, values)
		if err := a.saveSession(ctx, cache); err != nil {
			return err
		}

		for _, name := range unused {
			fmt.Fprintf(os.Stderr, "Warning: %s does not use %q; value saved for other templates\n", tmpl.Name, name)
		}
		return printSlots(os.Stdout, session.Slots())
	},
}

var varsClearCmd = &cobra.Command{
	Use:   "clear <template>",
	Short: "Clear the values of a template's variables",
	Long: `Clear every variable of a template. The cleared names are also forgotten
by the session, so other templates stop offering them. Values of names the
template does not use are kept.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		tmpl, err := a.store.Get(ctx, args[0])
		if err != nil {
			return err
		}
		session, cache, err := a.loadSession(ctx)
		if err != nil {
			return err
		}

		session.Load(tmpl.Content)
		cleared := session.ClearValues()
		if err := a.saveSession(ctx, cache); err != nil {
			return err
		}
		if err := events.LogVariablesCleared(ctx, a.events, a.sessionID, tmpl.ID, cleared); err != nil {
			a.logger.Warn().Err(err).Msg("failed to record clear event")
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, map[string]any{
				"template_id": tmpl.ID,
				"cleared":     cleared,
			})
		}
		fmt.Printf("Cleared %d variable(s) in %s\n", len(cleared), tmpl.Name)
		return nil
	},
}

var varsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Forget every value in the session",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		removed, err := a.vars.Reset(ctx, a.sessionID)
		if err != nil {
			return err
		}
		if err := events.LogVariablesReset(ctx, a.events, a.sessionID); err != nil {
			a.logger.Warn().Err(err).Msg("failed to record reset event")
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, map[string]any{
				"session": a.sessionID,
				"removed": removed,
			})
		}
		fmt.Printf("Removed %d cached value(s) from session %s\n", removed, a.sessionID)
		return nil
	},
}

var varsExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "List the variables in text read from stdin",
	Example: `  echo 'Hi {{name}}' | promptpad vars extract
  promptpad templates show meeting-summarizer --json | promptpad vars extract --stdin-json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}

		var slots []variables.Slot
		if varsExtractJSON {
			slots, err = extractFromJSON(data)
			if err != nil {
				return err
			}
		} else {
			slots = variables.Extract(string(data))
		}

		names := variables.Names(slots)
		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, names)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return nil
	},
}

// extractFromJSON extracts names from a JSON document. The text is taken from a
// top-level or template-nested "content" field, or the document itself when it
// is a string. Any other shape yields no names.
func extractFromJSON(data []byte) ([]variables.Slot, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON on stdin: %w", err)
	}

	if obj, ok := doc.(map[string]any); ok {
		if nested, ok := obj["template"].(map[string]any); ok {
			obj = nested
		}
		return variables.ExtractAny(obj["content"]), nil
	}
	return variables.ExtractAny(doc), nil
}

// parseVars parses name=value pairs. Names are trimmed; values are kept as given
// and may contain '='.
func parseVars(values []string) (map[string]string, error) {
	result := make(map[string]string, len(values))
	for _, pair := range values {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid variable %q (expected name=value)", pair)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid variable %q: empty name", pair)
		}
		result[name] = value
	}
	return result, nil
}

// applyValues sets each value on the session and returns the names the current
// template does not use, sorted.
func applyValues(session *variables.Session, values map[string]string) []string {
	var unused []string
	for name, value := range values {
		if !session.SetValue(name, value) {
			unused = append(unused, name)
		}
	}
	sort.Strings(unused)
	return unused
}

func printSlots(out io.Writer, slots []variables.Slot) error {
	if IsJSONOutput() || IsJSONLOutput() {
		return WriteOutput(out, slots)
	}

	if len(slots) == 0 {
		fmt.Fprintln(out, "No variables.")
		return nil
	}
	rows := make([][]string, 0, len(slots))
	for _, slot := range slots {
		value := slot.Value
		if value == "" {
			value = "(empty)"
		}
		rows = append(rows, []string{slot.Name, truncate(value, 60)})
	}
	return writeTable(out, []string{"NAME", "VALUE"}, rows)
}
