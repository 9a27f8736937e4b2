package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/opencode-ai/promptpad/internal/events"
	"github.com/opencode-ai/promptpad/internal/llm"
	"github.com/opencode-ai/promptpad/internal/models"
	"github.com/spf13/cobra"
)

var (
	runVars     []string
	runText     string
	runTier     string
	runModel    string
	runContinue string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringArrayVar(&runVars, "var", nil, "variable value as name=value (repeatable)")
	runCmd.Flags().StringVar(&runText, "text", "", "send inline text instead of a stored template")
	runCmd.Flags().StringVar(&runTier, "tier", "", "model tier: fast, pro or thinking (default from config)")
	runCmd.Flags().StringVar(&runModel, "model", "", "model name, overriding the tier's model")
	runCmd.Flags().StringVar(&runContinue, "continue", "", "continue the conversation ending at this run id")
}

var runCmd = &cobra.Command{
	Use:   "run [template]",
	Short: "Fill in a template and send it to the model",
	Long: `Fill in a template, send it to the model and print the response.

Every run is recorded in the history. Use --continue with a run id to send the
earlier turns of that conversation along with the new prompt.`,
	Example: `  promptpad run eli5 --var complex_topic=goroutines
  promptpad run python-bug-fixer --tier thinking --var broken_code="$(cat main.py)"
  promptpad run --continue 3b2e... --text "Now shorten it to one paragraph"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		values, err := parseVars(runVars)
		if err != nil {
			return err
		}
		tier, err := resolveTier(runTier)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		tmpl, err := a.resolveTemplate(ctx, args, runText)
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
		// Values typed for this prompt are kept even if the model call fails.
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

		step := startModelCall(os.Stderr, "Sending to", a.tierLabel(tier, runModel))
		run, err := a.sendPrompt(ctx, client, tmpl.ID, rendered.Text, sendOptions{
			Tier:       tier,
			Model:      runModel,
			ContinueID: runContinue,
		})
		if err != nil {
			step.Fail(err)
			if run != nil && IsJSONOutput() {
				_ = WriteOutput(os.Stdout, run)
			}
			return err
		}
		step.Done(run)

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, run)
		}
		fmt.Println(run.Response)
		fmt.Fprintf(os.Stderr, "\nrun %s · %s · %s · tokens %s\n", run.ID, run.Model, formatDuration(run.Duration), formatTokens(run))
		return nil
	},
}

type sendOptions struct {
	Tier       models.Tier
	Model      string
	ContinueID string
}

// sendPrompt invokes the model and records the run, failed or not. The run is
// returned alongside a model error once it has been recorded.
func (a *app) sendPrompt(ctx context.Context, client llm.Client, templateID, text string, opts sendOptions) (*models.Run, error) {
	req := &llm.Request{
		Prompt: text,
		Tier:   opts.Tier,
		Model:  opts.Model,
	}
	if opts.ContinueID != "" {
		thread, err := a.runs.Thread(ctx, opts.ContinueID)
		if err != nil {
			return nil, fmt.Errorf("failed to load conversation %s: %w", opts.ContinueID, err)
		}
		req.History = llm.HistoryFromRuns(thread)
	}

	model, _, err := llm.SettingsFromConfig(a.cfg.Model).Resolve(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, genErr := client.Generate(ctx, req)

	run := &models.Run{
		ParentID:   opts.ContinueID,
		TemplateID: templateID,
		SessionID:  a.sessionID,
		Tier:       opts.Tier,
		Model:      model,
		Prompt:     text,
		Duration:   time.Since(start),
	}
	if genErr != nil {
		run.Error = genErr.Error()
	} else {
		run.Response = resp.Text
		run.InputTokens = resp.InputTokens
		run.OutputTokens = resp.OutputTokens
		if resp.Model != "" {
			run.Model = resp.Model
		}
	}

	if err := a.runs.Create(ctx, run); err != nil {
		return nil, err
	}
	if err := events.LogRun(ctx, a.events, run); err != nil {
		a.logger.Warn().Err(err).Str("run_id", run.ID).Msg("failed to record run event")
	}

	if genErr != nil {
		return run, fmt.Errorf("model call failed (run %s): %w", run.ID, genErr)
	}
	return run, nil
}

// resolveTier parses value, falling back to the configured default tier.
func resolveTier(value string) (models.Tier, error) {
	if value == "" {
		value = GetConfig().Model.DefaultTier
	}
	if value == "" {
		return models.TierFast, nil
	}
	return models.ParseTier(value)
}
