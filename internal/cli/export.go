package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/opencode-ai/promptpad/internal/db"
	"github.com/opencode-ai/promptpad/internal/models"
	"github.com/spf13/cobra"
)

var exportRunLimit int

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.AddCommand(exportStatusCmd)

	exportStatusCmd.Flags().IntVar(&exportRunLimit, "runs", 100, "maximum recent runs to include")
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export promptpad data",
	Long:  "Export promptpad state for backup or automation.",
}

var exportStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Export user templates, session values and recent runs",
	Long:  "Export user templates, cached variable values for every session and recent runs as JSON.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		status, err := a.exportStatus(ctx, exportRunLimit)
		if err != nil {
			return err
		}

		if IsJSONOutput() || IsJSONLOutput() {
			return WriteOutput(os.Stdout, status)
		}

		writer := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
		fmt.Fprintf(writer, "Database:\t%s\n", a.db.Path())
		fmt.Fprintf(writer, "User templates:\t%d\n", len(status.Templates))
		fmt.Fprintf(writer, "Sessions:\t%d\n", len(status.Sessions))
		fmt.Fprintf(writer, "Recent runs:\t%d\n", len(status.Runs))
		if err := writer.Flush(); err != nil {
			return err
		}

		fmt.Println("Use --json or --jsonl for full export output.")
		return nil
	},
}

// ExportStatus is the payload returned by `promptpad export status`.
type ExportStatus struct {
	Templates []*models.Template           `json:"templates"`
	Sessions  map[string]map[string]string `json:"sessions"`
	Runs      []*models.Run                `json:"runs"`
}

func (a *app) exportStatus(ctx context.Context, runLimit int) (*ExportStatus, error) {
	userTemplates, err := db.NewTemplateRepository(a.db).List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}

	sessionIDs, err := a.vars.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	sessions := make(map[string]map[string]string, len(sessionIDs))
	for _, id := range sessionIDs {
		values, err := a.vars.Load(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to load session %s: %w", id, err)
		}
		sessions[id] = values
	}

	page, err := a.runs.Query(ctx, db.RunQuery{Limit: runLimit})
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}

	return &ExportStatus{
		Templates: userTemplates,
		Sessions:  sessions,
		Runs:      page.Runs,
	}, nil
}
