package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/opencode-ai/promptpad/internal/events"
	"github.com/opencode-ai/promptpad/internal/llm"
	"github.com/opencode-ai/promptpad/internal/models"
	"github.com/spf13/cobra"
)

var (
	optimizeTier string
	optimizeSave bool
)

func init() {
	rootCmd.AddCommand(optimizeCmd)

	optimizeCmd.Flags().StringVar(&optimizeTier, "tier", "", "model tier used to optimize (default from config)")
	optimizeCmd.Flags().BoolVar(&optimizeSave, "save", false, "save the optimized template")
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize <template>",
	Short: "Ask the model to improve a template",
	Long: `Ask the model to rewrite a template as a clearer prompt. The model is told to
keep every {{variable}}; placeholders it dropped or added are reported.

With --save, a user template is updated in place. Built-in and file
templates are saved as a new user template.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		tier, err := resolveTier(optimizeTier)
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
		client, err := a.newModelClient(ctx)
		if err != nil {
			return err
		}

		step := startModelCall(os.Stderr, "Optimizing "+tmpl.Name+" with", a.tierLabel(tier, ""))
		result, saved, err := a.optimizeTemplate(ctx, client, tmpl, tier, optimizeSave)
		if err != nil {
			step.Fail(err)
			return err
		}
		step.Done()

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, map[string]any{
				"template_id":  tmpl.ID,
				"optimization": result,
				"saved":        saved,
			})
		}

		fmt.Println(result.Optimized)
		if len(result.Dropped) > 0 {
			fmt.Fprintf(os.Stderr, "Warning: dropped %s\n", strings.Join(result.Dropped, ", "))
		}
		if len(result.Added) > 0 {
			fmt.Fprintf(os.Stderr, "Warning: added %s\n", strings.Join(result.Added, ", "))
		}
		if saved != nil {
			fmt.Fprintf(os.Stderr, "Saved as %s (%s)\n", saved.Name, saved.ID)
		}
		return nil
	},
}

// optimizeTemplate runs the optimizer and, when save is set, stores the result.
// Read-only templates are copied to a new user template.
func (a *app) optimizeTemplate(ctx context.Context, client llm.Client, tmpl *models.Template, tier models.Tier, save bool) (*llm.Optimization, *models.Template, error) {
	result, err := llm.NewOptimizer(client).Optimize(ctx, tmpl.Content, tier)
	if err != nil {
		return nil, nil, err
	}

	var saved *models.Template
	if save {
		saved = optimizedCopy(tmpl, result.Optimized)
		if saved.ID == "" {
			// Re-optimizing a read-only template overwrites the earlier copy.
			if existing, err := a.store.Get(ctx, saved.Name); err == nil && existing.Source == models.TemplateSourceUser {
				saved.ID = existing.ID
			}
		}
		created, err := a.store.Save(ctx, saved)
		if err != nil {
			return result, nil, fmt.Errorf("failed to save optimized template: %w", err)
		}
		if err := events.LogTemplateSaved(ctx, a.events, saved, created, nil); err != nil {
			a.logger.Warn().Err(err).Str("template_id", saved.ID).Msg("failed to record template event")
		}
	}

	payload := models.PromptOptimizedPayload{
		Tier:    tier,
		Dropped: result.Dropped,
		Added:   result.Added,
		Saved:   saved != nil,
	}
	if err := events.LogPromptOptimized(ctx, a.events, tmpl.ID, payload); err != nil {
		a.logger.Warn().Err(err).Str("template_id", tmpl.ID).Msg("failed to record optimize event")
	}
	return result, saved, nil
}

func optimizedCopy(tmpl *models.Template, content string) *models.Template {
	next := *tmpl
	next.Tags = append([]string(nil), tmpl.Tags...)
	next.Content = content

	if tmpl.Source != models.TemplateSourceUser {
		next.ID = ""
		next.Name = tmpl.Name + " (optimized)"
		next.Source = models.TemplateSourceUser
	}
	return &next
}
