package cli

import (
	"fmt"
	"strconv"

	"github.com/opencode-ai/promptpad/internal/models"
)

func formatRunStatus(run *models.Run) string {
	if run.Succeeded() {
		return "ok"
	}
	return "failed"
}

func formatTokens(run *models.Run) string {
	if run.InputTokens == 0 && run.OutputTokens == 0 {
		return "-"
	}
	return formatCount(run.InputTokens) + "/" + formatCount(run.OutputTokens)
}

func formatCount(n int64) string {
	switch {
	case n >= 1_000_000:
		return fmt.Sprintf("%.1fM", float64(n)/1_000_000)
	case n >= 10_000:
		return fmt.Sprintf("%.1fk", float64(n)/1_000)
	default:
		return strconv.FormatInt(n, 10)
	}
}
