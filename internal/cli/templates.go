package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencode-ai/promptpad/internal/events"
	"github.com/opencode-ai/promptpad/internal/models"
	"github.com/opencode-ai/promptpad/internal/templates"
	"github.com/opencode-ai/promptpad/internal/variables"
	"github.com/spf13/cobra"
)

var (
	// templates list flags
	templatesListTags     []string
	templatesListCategory string

	// templates save flags
	templatesSaveFile        string
	templatesSaveID          string
	templatesSaveName        string
	templatesSaveDesc        string
	templatesSaveCategory    string
	templatesSaveContent     string
	templatesSaveContentFile string
	templatesSaveTags        []string
)

func init() {
	rootCmd.AddCommand(templatesCmd)
	templatesCmd.AddCommand(templatesListCmd)
	templatesCmd.AddCommand(templatesShowCmd)
	templatesCmd.AddCommand(templatesSearchCmd)
	templatesCmd.AddCommand(templatesSaveCmd)
	templatesCmd.AddCommand(templatesDeleteCmd)

	templatesListCmd.Flags().StringSliceVar(&templatesListTags, "tag", nil, "filter by tag (any match)")
	templatesListCmd.Flags().StringVar(&templatesListCategory, "category", "", "filter by category")

	templatesSaveCmd.Flags().StringVarP(&templatesSaveFile, "file", "f", "", "read the template from a YAML file")
	templatesSaveCmd.Flags().StringVar(&templatesSaveID, "id", "", "template id to update (default: new id)")
	templatesSaveCmd.Flags().StringVar(&templatesSaveName, "name", "", "template name")
	templatesSaveCmd.Flags().StringVar(&templatesSaveDesc, "description", "", "template description")
	templatesSaveCmd.Flags().StringVar(&templatesSaveCategory, "category", "", "template category")
	templatesSaveCmd.Flags().StringVar(&templatesSaveContent, "content", "", "template content")
	templatesSaveCmd.Flags().StringVar(&templatesSaveContentFile, "content-file", "", "read template content from a file")
	templatesSaveCmd.Flags().StringSliceVar(&templatesSaveTags, "tag", nil, "template tag (repeatable)")
}

var templatesCmd = &cobra.Command{
	Use:     "templates",
	Aliases: []string{"tpl", "template"},
	Short:   "Manage prompt templates",
	Long: `Manage prompt templates.

Templates come from three places: built-in templates shipped with promptpad,
YAML files in .promptpad/templates and ~/.config/promptpad/templates, and
user templates saved in the database. Built-in templates are read-only.`,
}

var templatesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List templates",
	Example: `  promptpad templates list
  promptpad templates list --tag writing --category email`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		all, err := a.store.List(ctx)
		if err != nil {
			return err
		}
		items := templates.Filter(all, templatesListTags, templatesListCategory)

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, items)
		}

		if len(items) == 0 {
			fmt.Println("No templates found.")
			return nil
		}
		return writeTemplateTable(items)
	},
}

var templatesShowCmd = &cobra.Command{
	Use:   "show <id|name>",
	Short: "Show a template and its variables",
	Args:  cobra.ExactArgs(1),
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
		names := variables.Names(variables.Extract(tmpl.Content))

		history, err := a.events.ListByEntity(ctx, models.EntityTypeTemplate, tmpl.ID, 10)
		if err != nil {
			return err
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, templateDetail{
				Template:  tmpl,
				Variables: names,
				Events:    history,
			})
		}

		fmt.Printf("ID:          %s\n", tmpl.ID)
		fmt.Printf("Name:        %s\n", tmpl.Name)
		if tmpl.Description != "" {
			fmt.Printf("Description: %s\n", tmpl.Description)
		}
		if tmpl.Category != "" {
			fmt.Printf("Category:    %s\n", tmpl.Category)
		}
		if len(tmpl.Tags) > 0 {
			fmt.Printf("Tags:        %s\n", strings.Join(tmpl.Tags, ", "))
		}
		fmt.Printf("Source:      %s\n", templateSourceLabel(tmpl.Source))
		fmt.Printf("Read-only:   %s\n", formatYesNo(tmpl.IsBuiltin()))
		if len(names) > 0 {
			fmt.Printf("Variables:   %s\n", strings.Join(names, ", "))
		}
		fmt.Println()
		fmt.Println(tmpl.Content)

		if len(history) > 0 {
			fmt.Println()
			fmt.Println("Recent changes:")
			for _, event := range history {
				fmt.Printf("  %s  %s\n", formatTimestamp(event.Timestamp), event.Type)
			}
		}
		return nil
	},
}

var templatesSearchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Fuzzy search templates",
	Long:  "Fuzzy search templates by name, description, category and tags. Best matches come first.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		all, err := a.store.List(ctx)
		if err != nil {
			return err
		}
		items := templates.Search(all, strings.Join(args, " "))

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, items)
		}

		if len(items) == 0 {
			fmt.Println("No matching templates.")
			return nil
		}
		return writeTemplateTable(items)
	},
}

var templatesSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Create or update a user template",
	Example: `  # Save from a YAML file
  promptpad templates save --file standup.yaml

  # Save from flags
  promptpad templates save --name "Standup" --content "Yesterday: {{yesterday}}\nToday: {{today}}"

  # Update an existing user template
  promptpad templates save --id 7f1c... --content-file standup.txt`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		tmpl, err := templateFromFlags()
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		created, err := a.store.Save(ctx, tmpl)
		if err != nil {
			if errors.Is(err, templates.ErrReadOnlyTemplate) {
				return fmt.Errorf("template %q is built-in and cannot be changed; save it under a new --id", tmpl.ID)
			}
			return err
		}

		names := variables.Names(variables.Extract(tmpl.Content))
		if err := events.LogTemplateSaved(ctx, a.events, tmpl, created, names); err != nil {
			a.logger.Warn().Err(err).Str("template_id", tmpl.ID).Msg("failed to record template event")
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, map[string]any{
				"created":   created,
				"template":  tmpl,
				"variables": names,
			})
		}

		verb := "Updated"
		if created {
			verb = "Created"
		}
		fmt.Printf("%s template %s (%s)\n", verb, tmpl.Name, tmpl.ID)
		if len(names) > 0 {
			fmt.Printf("Variables: %s\n", strings.Join(names, ", "))
		}
		return nil
	},
}

var templatesDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a user template",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		id := args[0]
		if err := a.store.Delete(ctx, id); err != nil {
			if errors.Is(err, templates.ErrReadOnlyTemplate) {
				return fmt.Errorf("template %q is built-in and cannot be deleted", id)
			}
			return err
		}
		if err := events.LogTemplateDeleted(ctx, a.events, id); err != nil {
			a.logger.Warn().Err(err).Str("template_id", id).Msg("failed to record template event")
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, map[string]any{"deleted": true, "id": id})
		}
		fmt.Printf("Deleted template %s\n", id)
		return nil
	},
}

type templateDetail struct {
	Template  *models.Template `json:"template"`
	Variables []string         `json:"variables"`
	Events    []*models.Event  `json:"events,omitempty"`
}

// templateFromFlags builds the template to save from --file or the field flags.
// Field flags override values read from the file.
func templateFromFlags() (*models.Template, error) {
	tmpl := &models.Template{}
	if templatesSaveFile != "" {
		loaded, err := templates.LoadTemplate(templatesSaveFile)
		if err != nil {
			return nil, err
		}
		tmpl = loaded
		tmpl.Source = models.TemplateSourceUser
	}

	if templatesSaveID != "" {
		tmpl.ID = templatesSaveID
	}
	if templatesSaveName != "" {
		tmpl.Name = templatesSaveName
	}
	if templatesSaveDesc != "" {
		tmpl.Description = templatesSaveDesc
	}
	if templatesSaveCategory != "" {
		tmpl.Category = templatesSaveCategory
	}
	if len(templatesSaveTags) > 0 {
		tmpl.Tags = models.NormalizeTags(templatesSaveTags)
	}

	switch {
	case templatesSaveContent != "" && templatesSaveContentFile != "":
		return nil, fmt.Errorf("--content and --content-file are mutually exclusive")
	case templatesSaveContent != "":
		tmpl.Content = templatesSaveContent
	case templatesSaveContentFile != "":
		data, err := os.ReadFile(templatesSaveContentFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read content file: %w", err)
		}
		tmpl.Content = string(data)
	}

	if tmpl.Source == "" {
		tmpl.Source = models.TemplateSourceUser
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return tmpl, nil
}

func writeTemplateTable(items []*models.Template) error {
	rows := make([][]string, 0, len(items))
	for _, tmpl := range items {
		rows = append(rows, []string{
			tmpl.ID,
			tmpl.Name,
			tmpl.Category,
			strings.Join(tmpl.Tags, ","),
			fmt.Sprintf("%d", len(variables.Extract(tmpl.Content))),
			templateSourceLabel(tmpl.Source),
		})
	}
	return writeTable(os.Stdout, []string{"ID", "NAME", "CATEGORY", "TAGS", "VARS", "SOURCE"}, rows)
}

// templateSourceLabel shortens a template source for display.
func templateSourceLabel(source string) string {
	switch source {
	case models.TemplateSourceBuiltin, models.TemplateSourceUser:
		return source
	case "":
		return models.TemplateSourceUser
	}

	if strings.Contains(filepath.ToSlash(source), "/.promptpad/templates/") {
		return "project"
	}
	return "file"
}
