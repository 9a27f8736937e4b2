package llm

import (
	"context"
	"time"

	"github.com/opencode-ai/promptpad/internal/models"
	"golang.org/x/sync/errgroup"
)

// TierResult is one tier's outcome in a comparison.
type TierResult struct {
	Tier     models.Tier
	Response *Response
	Err      error
	Duration time.Duration
}

// Compare sends the same request to each tier concurrently. A failing tier does
// not cancel the others; results keep the order of tiers.
func Compare(ctx context.Context, client Client, req Request, tiers []models.Tier) []TierResult {
	results := make([]TierResult, len(tiers))

	var g errgroup.Group
	for i, tier := range tiers {
		g.Go(func() error {
			tierReq := req
			tierReq.Tier = tier
			// A per-tier model override would send every tier to the same model.
			tierReq.Model = ""

			start := time.Now()
			resp, err := client.Generate(ctx, &tierReq)
			results[i] = TierResult{Tier: tier, Response: resp, Err: err, Duration: time.Since(start)}
			return nil
		})
	}
	// Goroutines always return nil; each tier's error is kept in its TierResult.
	_ = g.Wait()

	return results
}
