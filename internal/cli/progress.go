package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/opencode-ai/promptpad/internal/llm"
	"github.com/opencode-ai/promptpad/internal/models"
)

// modelCall reports a request to the model while it is in flight. A nil
// *modelCall is valid and prints nothing.
type modelCall struct {
	out     io.Writer
	started time.Time
	now     func() time.Time
}

// startModelCall prints "<action> <target>, <target>... " and returns nil when
// progress output is disabled.
func startModelCall(out io.Writer, action string, targets ...string) *modelCall {
	if !progressEnabled() {
		return nil
	}
	return newModelCall(out, time.Now, action, targets...)
}

func newModelCall(out io.Writer, now func() time.Time, action string, targets ...string) *modelCall {
	fmt.Fprintf(out, "%s %s... ", action, strings.Join(targets, ", "))
	return &modelCall{out: out, started: now(), now: now}
}

// Done ends the line with the elapsed time and the tokens the runs used.
func (c *modelCall) Done(runs ...*models.Run) {
	if c == nil {
		return
	}
	var in, out int64
	for _, run := range runs {
		if run == nil {
			continue
		}
		in += run.InputTokens
		out += run.OutputTokens
	}

	elapsed := formatDuration(c.now().Sub(c.started))
	if in == 0 && out == 0 {
		fmt.Fprintf(c.out, "done in %s\n", elapsed)
		return
	}
	fmt.Fprintf(c.out, "done in %s, tokens %s/%s\n", elapsed, formatCount(in), formatCount(out))
}

func (c *modelCall) Fail(err error) {
	if c == nil {
		return
	}
	elapsed := formatDuration(c.now().Sub(c.started))
	if err != nil {
		fmt.Fprintf(c.out, "failed after %s: %v\n", elapsed, err)
		return
	}
	fmt.Fprintf(c.out, "failed after %s\n", elapsed)
}

// tierLabel names a tier with the model it resolves to, e.g. "pro (gemini-3-pro-preview)".
func (a *app) tierLabel(tier models.Tier, override string) string {
	model, _, err := llm.SettingsFromConfig(a.cfg.Model).Resolve(&llm.Request{Tier: tier, Model: override})
	if err != nil {
		return string(tier)
	}
	return fmt.Sprintf("%s (%s)", tier, model)
}

func progressEnabled() bool {
	if IsJSONOutput() || IsJSONLOutput() {
		return false
	}
	if noProgress {
		return false
	}
	if _, ok := os.LookupEnv("PROMPTPAD_NO_PROGRESS"); ok {
		return false
	}
	if _, ok := os.LookupEnv("NO_PROGRESS"); ok {
		return false
	}
	return true
}

func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return d.String()
	}
	if d < time.Second {
		return d.Round(10 * time.Millisecond).String()
	}
	return d.Round(100 * time.Millisecond).String()
}
