package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/opencode-ai/promptpad/internal/config"
	"github.com/opencode-ai/promptpad/internal/logging"
	"github.com/rs/zerolog"
	"google.golang.org/genai"
)

// GenAIClient implements Client against the Gemini API.
type GenAIClient struct {
	client      *genai.Client
	settings    TierSettings
	temperature float32
	timeout     time.Duration
	logger      zerolog.Logger
}

// NewGenAIClient creates a client from model configuration.
func NewGenAIClient(ctx context.Context, cfg config.ModelConfig) (*GenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIClient{
		client:      client,
		settings:    SettingsFromConfig(cfg),
		temperature: float32(cfg.Temperature),
		timeout:     cfg.Timeout,
		logger:      logging.Component("llm"),
	}, nil
}

// Generate sends req and returns the model's text.
func (c *GenAIClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	if req == nil || strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	model, budget, err := c.settings.Resolve(req)
	if err != nil {
		return nil, err
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline && c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	c.logger.Debug().
		Str("model", model).
		Str("tier", string(req.Tier)).
		Int("prompt_len", len(req.Prompt)).
		Int("history", len(req.History)).
		Msg("generating")

	result, err := c.client.Models.GenerateContent(ctx, model, buildContents(req), buildConfig(req, c.temperature, budget))
	if err != nil {
		return nil, fmt.Errorf("generate with %s: %w", model, err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return nil, ErrEmptyResponse
	}

	resp := &Response{Text: text, Model: model}
	if usage := result.UsageMetadata; usage != nil {
		resp.InputTokens = int64(usage.PromptTokenCount)
		resp.OutputTokens = int64(usage.CandidatesTokenCount) + int64(usage.ThoughtsTokenCount)
	}

	c.logger.Debug().
		Str("model", model).
		Dur("elapsed", time.Since(start)).
		Int("response_len", len(text)).
		Msg("generation complete")

	return resp, nil
}

func buildContents(req *Request) []*genai.Content {
	contents := make([]*genai.Content, 0, len(req.History)+1)
	for _, turn := range req.History {
		role := genai.RoleUser
		if turn.Role == RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(turn.Text, role))
	}
	return append(contents, genai.NewContentFromText(req.Prompt, genai.RoleUser))
}

func buildConfig(req *Request, temperature float32, budget *int32) *genai.GenerateContentConfig {
	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(temperature),
	}
	if strings.TrimSpace(req.System) != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if budget != nil {
		cfg.ThinkingConfig = &genai.ThinkingConfig{ThinkingBudget: budget}
	}
	return cfg
}
