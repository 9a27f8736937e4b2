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
	compareVars  []string
	compareText  string
	compareTiers []string
)

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringArrayVar(&compareVars, "var", nil, "variable value as name=value (repeatable)")
	compareCmd.Flags().StringVar(&compareText, "text", "", "send inline text instead of a stored template")
	compareCmd.Flags().StringSliceVar(&compareTiers, "tiers", []string{"fast", "pro", "thinking"}, "tiers to compare")
}

var compareCmd = &cobra.Command{
	Use:   "compare [template]",
	Short: "Send the same prompt to several model tiers",
	Long: `Fill in a template once and send it to several model tiers at the same time.
Each tier's answer is recorded as its own run. A failing tier does not stop
the others.`,
	Example: `  promptpad compare swot-analysis --tiers fast,pro`,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		values, err := parseVars(compareVars)
		if err != nil {
			return err
		}
		tiers, err := parseTiers(compareTiers)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		tmpl, err := a.resolveTemplate(ctx, args, compareText)
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
		if !IsJSONOutput() && !IsJSONLOutput() {
			warnRendered(os.Stderr, rendered)
		}

		client, err := a.newModelClient(ctx)
		if err != nil {
			return err
		}

		labels := make([]string, len(tiers))
		for i, tier := range tiers {
			labels[i] = a.tierLabel(tier, "")
		}
		step := startModelCall(os.Stderr, "Comparing", labels...)
		runs, failed := a.compareTiers(ctx, client, tmpl.ID, rendered.Text, tiers)
		if failed == len(runs) {
			step.Fail(fmt.Errorf("all tiers failed"))
		} else {
			step.Done(runs...)
		}

		if IsJSONOutput() || IsJSONLOutput() {
			if err := WriteOutput(os.Stdout, runs); err != nil {
				return err
			}
		} else {
			printComparison(runs)
		}

		if failed == len(runs) {
			return fmt.Errorf("all %d tiers failed", failed)
		}
		return nil
	},
}

// compareTiers sends text to every tier and records one run per tier. It
// returns the runs in tier order and how many failed.
func (a *app) compareTiers(ctx context.Context, client llm.Client, templateID, text string, tiers []models.Tier) ([]*models.Run, int) {
	settings := llm.SettingsFromConfig(a.cfg.Model)
	results := llm.Compare(ctx, client, llm.Request{Prompt: text}, tiers)

	runs := make([]*models.Run, 0, len(results))
	failed := 0
	for _, result := range results {
		model, _, _ := settings.Resolve(&llm.Request{Tier: result.Tier})
		run := &models.Run{
			TemplateID: templateID,
			SessionID:  a.sessionID,
			Tier:       result.Tier,
			Model:      model,
			Prompt:     text,
			Duration:   result.Duration,
		}
		if result.Err != nil {
			run.Error = result.Err.Error()
			failed++
		} else {
			run.Response = result.Response.Text
			run.InputTokens = result.Response.InputTokens
			run.OutputTokens = result.Response.OutputTokens
			if result.Response.Model != "" {
				run.Model = result.Response.Model
			}
		}

		if err := a.runs.Create(ctx, run); err != nil {
			a.logger.Warn().Err(err).Str("tier", string(result.Tier)).Msg("failed to record run")
		} else if err := events.LogRun(ctx, a.events, run); err != nil {
			a.logger.Warn().Err(err).Str("run_id", run.ID).Msg("failed to record run event")
		}
		runs = append(runs, run)
	}
	return runs, failed
}

func printComparison(runs []*models.Run) {
	for i, run := range runs {
		if i > 0 {
			fmt.Println()
		}
		fmt.Printf("=== %s (%s) · %s · %s\n", run.Tier, run.Model, formatRunStatus(run), formatDuration(run.Duration))
		if run.Succeeded() {
			fmt.Println(run.Response)
		} else {
			fmt.Printf("error: %s\n", run.Error)
		}
	}
}

// parseTiers parses tier names, dropping duplicates.
func parseTiers(values []string) ([]models.Tier, error) {
	seen := make(map[models.Tier]bool, len(values))
	tiers := make([]models.Tier, 0, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		tier, err := models.ParseTier(value)
		if err != nil {
			return nil, err
		}
		if seen[tier] {
			continue
		}
		seen[tier] = true
		tiers = append(tiers, tier)
	}
	if len(tiers) == 0 {
		return nil, fmt.Errorf("at least one tier is required")
	}
	return tiers, nil
}
