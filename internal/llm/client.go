// Package llm sends interpolated prompts to the hosted model service.
package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/opencode-ai/promptpad/internal/config"
	"github.com/opencode-ai/promptpad/internal/models"
)

var (
	// ErrEmptyResponse is returned when the model produced no usable text.
	ErrEmptyResponse = errors.New("model returned no text")
	// ErrMissingAPIKey is returned when no API key is configured.
	ErrMissingAPIKey = errors.New("model API key is not configured")
)

// Role identifies the author of a conversation turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one earlier message in a conversation.
type Turn struct {
	Role Role
	Text string
}

// Request is a single generation request.
type Request struct {
	Prompt  string
	System  string
	History []Turn
	Tier    models.Tier
	// Model overrides the tier's configured model when set.
	Model string
}

// Response is the model's reply.
type Response struct {
	Text         string
	Model        string
	InputTokens  int64
	OutputTokens int64
}

// Client invokes a model.
type Client interface {
	Generate(ctx context.Context, req *Request) (*Response, error)
}

// TierSettings resolves a tier to a model name and reasoning budget.
type TierSettings struct {
	Models         map[models.Tier]string
	ThinkingBudget int
}

// SettingsFromConfig builds tier settings from configuration.
func SettingsFromConfig(cfg config.ModelConfig) TierSettings {
	return TierSettings{
		Models: map[models.Tier]string{
			models.TierFast:     cfg.FastModel,
			models.TierPro:      cfg.ProModel,
			models.TierThinking: cfg.ThinkingModel,
		},
		ThinkingBudget: cfg.ThinkingBudget,
	}
}

// Resolve returns the model for a request and the thinking budget to apply.
// A nil budget leaves the provider default in place.
func (s TierSettings) Resolve(req *Request) (string, *int32, error) {
	tier := req.Tier
	if tier == "" {
		tier = models.TierFast
	}
	if _, err := models.ParseTier(string(tier)); err != nil {
		return "", nil, err
	}

	model := req.Model
	if model == "" {
		model = s.Models[tier]
	}
	if model == "" {
		return "", nil, fmt.Errorf("no model configured for tier %q", tier)
	}

	if tier != models.TierThinking {
		return model, nil, nil
	}
	budget := int32(s.ThinkingBudget)
	return model, &budget, nil
}

// HistoryFromRuns converts a run thread into conversation turns. Failed runs are
// skipped since the model never answered them.
func HistoryFromRuns(thread []*models.Run) []Turn {
	turns := make([]Turn, 0, len(thread)*2)
	for _, run := range thread {
		if !run.Succeeded() || run.Response == "" {
			continue
		}
		turns = append(turns, Turn{Role: RoleUser, Text: run.Prompt}, Turn{Role: RoleModel, Text: run.Response})
	}
	return turns
}
