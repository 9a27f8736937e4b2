package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/opencode-ai/promptpad/internal/db"
	"github.com/opencode-ai/promptpad/internal/models"
	"github.com/spf13/cobra"
)

var (
	historyTemplate   string
	historyAllSession bool
	historyLimit      int
	historyCursor     string
	historySince      string

	eventsType  string
	eventsLimit int
	eventsSince  string
	eventsCursor string
)

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyShowCmd)
	rootCmd.AddCommand(eventsCmd)

	historyCmd.Flags().StringVar(&historyTemplate, "template", "", "only runs of this template (id or name)")
	historyCmd.Flags().BoolVar(&historyAllSession, "all-sessions", false, "include runs from every session")
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum runs to show")
	historyCmd.Flags().StringVar(&historyCursor, "cursor", "", "continue after this run id")
	historyCmd.Flags().StringVar(&historySince, "since", "", "only runs newer than a duration (e.g. 2h, 3d) or RFC3339 time")

	eventsCmd.Flags().StringVar(&eventsType, "type", "", "filter by event type (e.g. prompt.sent)")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 50, "maximum events to show")
	eventsCmd.Flags().StringVar(&eventsCursor, "cursor", "", "continue after this event id")
	eventsCmd.Flags().StringVar(&eventsSince, "since", "", "only events newer than a duration (e.g. 2h, 3d) or RFC3339 time")
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent runs",
	Long:  "List runs of the current session, newest first.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		since, err := parseSince(historySince, time.Now())
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		query := db.RunQuery{
			Since:  since,
			Cursor: historyCursor,
			Limit:  historyLimit,
		}
		if historyTemplate != "" {
			templateID := historyTemplate
			if tmpl, err := a.store.Get(ctx, historyTemplate); err == nil {
				templateID = tmpl.ID
			}
			query.TemplateID = &templateID
		}
		if !historyAllSession {
			query.SessionID = &a.sessionID
		}

		page, err := a.runs.Query(ctx, query)
		if err != nil {
			return err
		}

		if IsJSONOutput() || IsJSONLOutput() {
			if IsJSONLOutput() {
				return WriteOutput(os.Stdout, page.Runs)
			}
			return WriteOutput(os.Stdout, map[string]any{
				"runs":        page.Runs,
				"next_cursor": page.NextCursor,
			})
		}

		if len(page.Runs) == 0 {
			fmt.Println("No runs found.")
			return nil
		}

		rows := make([][]string, 0, len(page.Runs))
		for _, run := range page.Runs {
			rows = append(rows, []string{
				run.ID,
				formatTimestamp(run.CreatedAt),
				string(run.Tier),
				run.Model,
				formatRunStatus(run),
				formatTokens(run),
				truncate(run.Prompt, 40),
			})
		}
		if err := writeTable(os.Stdout, []string{"ID", "CREATED", "TIER", "MODEL", "STATUS", "TOKENS", "PROMPT"}, rows); err != nil {
			return err
		}
		if page.NextCursor != "" {
			fmt.Printf("\nMore runs: promptpad history --cursor %s\n", page.NextCursor)
		}
		return nil
	},
}

var historyShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run and the conversation leading to it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		thread, err := a.runs.Thread(ctx, args[0])
		if err != nil {
			return err
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, thread)
		}

		for i, run := range thread {
			if i > 0 {
				fmt.Println()
			}
			fmt.Printf("--- %s  %s  %s (%s)  %s\n", run.ID, formatTimestamp(run.CreatedAt), run.Tier, run.Model, formatRunStatus(run))
			fmt.Printf("> %s\n\n", run.Prompt)
			if run.Succeeded() {
				fmt.Println(run.Response)
			} else {
				fmt.Printf("error: %s\n", run.Error)
			}
		}
		return nil
	},
}

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "List recorded events",
	Long:  "List the event log oldest first. Events cover template changes, prompts, optimizations and cleared values.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		since, err := parseSince(eventsSince, time.Now())
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		query := db.EventQuery{Since: since, Cursor: eventsCursor, Limit: eventsLimit}
		if eventsType != "" {
			eventType := models.EventType(eventsType)
			query.Type = &eventType
		}

		page, err := a.events.Query(ctx, query)
		if err != nil {
			return err
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, page.Events)
		}
		if len(page.Events) == 0 {
			fmt.Println("No events found.")
			return nil
		}

		rows := make([][]string, 0, len(page.Events))
		for _, event := range page.Events {
			rows = append(rows, []string{
				formatTimestamp(event.Timestamp),
				string(event.Type),
				string(event.EntityType),
				event.EntityID,
				truncate(string(event.Payload), 60),
			})
		}
		if err := writeTable(os.Stdout, []string{"TIME", "TYPE", "ENTITY", "ID", "DETAILS"}, rows); err != nil {
			return err
		}
		if page.NextCursor != "" {
			fmt.Printf("\nMore events: promptpad events --cursor %s\n", page.NextCursor)
		}
		return nil
	},
}

// parseSince accepts a duration ("90m", "2h", "3d") or an RFC3339 timestamp.
// An empty value means no lower bound.
func parseSince(value string, now time.Time) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}

	if d, err := parseDurationWithDays(value); err == nil {
		if d < 0 {
			return nil, fmt.Errorf("invalid --since %q: duration must be positive", value)
		}
		t := now.Add(-d)
		return &t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	return nil, fmt.Errorf("invalid --since %q: use a duration like 2h or 3d, or an RFC3339 time", value)
}

func parseDurationWithDays(value string) (time.Duration, error) {
	if n := len(value); n > 1 && value[n-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(value[:n-1], "%d", &days); err != nil {
			return 0, err
		}
		if fmt.Sprintf("%d", days) != value[:n-1] {
			return 0, fmt.Errorf("invalid day count %q", value)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}
	return time.ParseDuration(value)
}
