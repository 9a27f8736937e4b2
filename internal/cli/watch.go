package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opencode-ai/promptpad/internal/variables"
	"github.com/opencode-ai/promptpad/internal/watch"
	"github.com/spf13/cobra"
)

var (
	watchRender   bool
	watchDebounce time.Duration
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVar(&watchRender, "render", false, "also print the filled-in text after each change")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", watch.DefaultDebounce, "wait this long after a change before re-reading")
}

var watchCmd = &cobra.Command{
	Use:   "watch <file>",
	Short: "Follow a template file while you edit it",
	Long: `Re-read a template file every time it is saved and print its variables.

Variables keep their values while you edit: renaming or adding a placeholder
does not lose the values of the others. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		session, _, err := a.loadSession(ctx)
		if err != nil {
			return err
		}

		watcher, err := watch.New(args[0], watchDebounce)
		if err != nil {
			return err
		}

		if !IsJSONOutput() && !IsJSONLOutput() {
			fmt.Fprintf(os.Stderr, "Watching %s (Ctrl-C to stop)\n", watcher.Path())
		}
		return watcher.Run(ctx, func(text string) {
			if err := printWatchUpdate(os.Stdout, session, text, watchRender); err != nil {
				a.logger.Warn().Err(err).Msg("failed to print update")
			}
		})
	},
}

type watchUpdate struct {
	Time      time.Time        `json:"time"`
	Variables []variables.Slot `json:"variables"`
	Text      string           `json:"text,omitempty"`
}

// printWatchUpdate re-extracts text into the session, keeping the values of
// names that survive the edit, and prints the result.
func printWatchUpdate(out io.Writer, session *variables.Session, text string, render bool) error {
	update := watchUpdate{
		Time:      time.Now(),
		Variables: session.SetText(text),
	}
	if render {
		update.Text = session.Render()
	}

	if IsJSONOutput() || IsJSONLOutput() {
		return WriteOutput(out, update)
	}

	fmt.Fprintf(out, "\n[%s]\n", update.Time.Format("15:04:05"))
	if err := printSlots(out, update.Variables); err != nil {
		return err
	}
	if render {
		fmt.Fprintln(out)
		fmt.Fprintln(out, update.Text)
	}
	return nil
}
