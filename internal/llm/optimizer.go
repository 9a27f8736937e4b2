package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/opencode-ai/promptpad/internal/models"
	"github.com/opencode-ai/promptpad/internal/variables"
)

const optimizerSystem = `You are an expert prompt engineer. Rewrite the prompt template you are given so it is
clearer, more specific and more likely to produce a high quality answer.

Rules:
- Keep every placeholder of the form {{name}} exactly as written, including its name.
- Do not invent new placeholders and do not fill placeholders in.
- Keep the original intent, language and output format requirements.
- Return only the rewritten template, with no preamble, explanation or code fences.`

// Optimization is the outcome of an optimizer round trip.
type Optimization struct {
	Original  string   `json:"original"`
	Optimized string   `json:"optimized"`
	Model     string   `json:"model"`
	Dropped   []string `json:"dropped,omitempty"`
	Added     []string `json:"added,omitempty"`
}

// Preserved reports whether the optimized text uses exactly the original placeholders.
func (o *Optimization) Preserved() bool {
	return len(o.Dropped) == 0 && len(o.Added) == 0
}

// Optimizer asks the model to improve a template.
type Optimizer struct {
	client Client
}

// NewOptimizer creates an Optimizer.
func NewOptimizer(client Client) *Optimizer {
	return &Optimizer{client: client}
}

// Optimize sends the raw template content, not interpolated text, so the model
// can see and keep the placeholders.
func (o *Optimizer) Optimize(ctx context.Context, content string, tier models.Tier) (*Optimization, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("template content is required")
	}

	resp, err := o.client.Generate(ctx, &Request{
		System: optimizerSystem,
		Prompt: "Prompt template to improve:\n\n" + content,
		Tier:   tier,
	})
	switch {
	case errors.Is(err, ErrEmptyResponse):
		resp = &Response{}
	case err != nil:
		return nil, fmt.Errorf("optimize prompt: %w", err)
	}

	// An empty rewrite leaves the template unchanged.
	optimized := stripFences(resp.Text)
	if optimized == "" {
		optimized = content
	}

	return &Optimization{
		Original:  content,
		Optimized: optimized,
		Model:     resp.Model,
		Dropped:   variables.Unresolved(content, variables.Extract(optimized)),
		Added:     variables.Unresolved(optimized, variables.Extract(content)),
	}, nil
}

// stripFences removes a single surrounding markdown code fence.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") || !strings.HasSuffix(text, "```") || len(text) < 6 {
		return text
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(text, "```"), "```")
	if i := strings.IndexByte(inner, '\n'); i >= 0 && !strings.Contains(inner[:i], " ") {
		inner = inner[i+1:]
	}
	return strings.TrimSpace(inner)
}
