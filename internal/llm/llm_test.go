package llm

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/opencode-ai/promptpad/internal/config"
	"github.com/opencode-ai/promptpad/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeClient struct {
	mu       sync.Mutex
	requests []Request
	reply    func(req *Request) (*Response, error)
}

func (f *fakeClient) Generate(ctx context.Context, req *Request) (*Response, error) {
	f.mu.Lock()
	f.requests = append(f.requests, *req)
	f.mu.Unlock()
	return f.reply(req)
}

func testSettings() TierSettings {
	return SettingsFromConfig(config.ModelConfig{
		FastModel:      "flash",
		ProModel:       "pro",
		ThinkingModel:  "pro-thinking",
		ThinkingBudget: 2048,
	})
}

func TestTierSettingsResolve(t *testing.T) {
	settings := testSettings()

	tests := []struct {
		name       string
		req        Request
		wantModel  string
		wantBudget int32
		wantErr    bool
	}{
		{"default tier", Request{}, "flash", 0, false},
		{"pro", Request{Tier: models.TierPro}, "pro", 0, false},
		{"thinking", Request{Tier: models.TierThinking}, "pro-thinking", 2048, false},
		{"override", Request{Tier: models.TierPro, Model: "custom"}, "custom", 0, false},
		{"unknown tier", Request{Tier: "ultra"}, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model, budget, err := settings.Resolve(&tt.req)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantModel, model)
			if tt.wantBudget == 0 {
				assert.Nil(t, budget)
			} else {
				require.NotNil(t, budget)
				assert.Equal(t, tt.wantBudget, *budget)
			}
		})
	}
}

func TestTierSettingsMissingModel(t *testing.T) {
	settings := TierSettings{Models: map[models.Tier]string{}}
	_, _, err := settings.Resolve(&Request{Tier: models.TierFast})
	require.Error(t, err)
}

func TestBuildContentsAndConfig(t *testing.T) {
	req := &Request{
		Prompt:  "and now?",
		System:  "be brief",
		History: []Turn{{Role: RoleUser, Text: "hi"}, {Role: RoleModel, Text: "hello"}},
	}

	contents := buildContents(req)
	require.Len(t, contents, 3)
	assert.Equal(t, string(genai.RoleUser), contents[0].Role)
	assert.Equal(t, string(genai.RoleModel), contents[1].Role)
	assert.Equal(t, "and now?", contents[2].Parts[0].Text)

	budget := int32(512)
	cfg := buildConfig(req, 0.5, &budget)
	require.NotNil(t, cfg.SystemInstruction)
	assert.Equal(t, "be brief", cfg.SystemInstruction.Parts[0].Text)
	require.NotNil(t, cfg.ThinkingConfig)
	assert.Equal(t, int32(512), *cfg.ThinkingConfig.ThinkingBudget)
	assert.Equal(t, float32(0.5), *cfg.Temperature)

	plain := buildConfig(&Request{Prompt: "x"}, 0.5, nil)
	assert.Nil(t, plain.SystemInstruction)
	assert.Nil(t, plain.ThinkingConfig)
}

func TestNewGenAIClientRequiresKey(t *testing.T) {
	_, err := NewGenAIClient(context.Background(), config.ModelConfig{})
	require.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestHistoryFromRuns(t *testing.T) {
	thread := []*models.Run{
		{Prompt: "q1", Response: "a1"},
		{Prompt: "q2", Error: "boom"},
		{Prompt: "q3", Response: "a3"},
	}

	turns := HistoryFromRuns(thread)
	require.Len(t, turns, 4)
	assert.Equal(t, Turn{Role: RoleUser, Text: "q1"}, turns[0])
	assert.Equal(t, Turn{Role: RoleModel, Text: "a3"}, turns[3])
}

func TestOptimizerReportsPlaceholderChanges(t *testing.T) {
	client := &fakeClient{reply: func(req *Request) (*Response, error) {
		return &Response{Text: "```markdown\nPlease summarize {{ text }} for {{reader}}.\n```", Model: "flash"}, nil
	}}

	result, err := NewOptimizer(client).Optimize(context.Background(), "Summarize {{text}} for {{audience}}", models.TierFast)
	require.NoError(t, err)

	assert.Equal(t, "Please summarize {{ text }} for {{reader}}.", result.Optimized)
	assert.Equal(t, []string{"audience"}, result.Dropped)
	assert.Equal(t, []string{"reader"}, result.Added)
	assert.False(t, result.Preserved())

	require.Len(t, client.requests, 1)
	assert.Equal(t, optimizerSystem, client.requests[0].System)
	assert.True(t, strings.HasSuffix(client.requests[0].Prompt, "Summarize {{text}} for {{audience}}"))
}

func TestOptimizerErrors(t *testing.T) {
	failing := &fakeClient{reply: func(*Request) (*Response, error) { return nil, errors.New("unavailable") }}
	_, err := NewOptimizer(failing).Optimize(context.Background(), "{{x}}", models.TierFast)
	require.Error(t, err)

	_, err = NewOptimizer(failing).Optimize(context.Background(), "   ", models.TierFast)
	require.Error(t, err)

}

func TestOptimizerKeepsOriginalOnEmptyReply(t *testing.T) {
	replies := map[string]func(*Request) (*Response, error){
		"empty fence": func(*Request) (*Response, error) { return &Response{Text: "``````", Model: "flash"}, nil },
		"blank":       func(*Request) (*Response, error) { return &Response{Text: "  \n"}, nil },
		"no text":     func(*Request) (*Response, error) { return nil, ErrEmptyResponse },
	}
	for name, reply := range replies {
		t.Run(name, func(t *testing.T) {
			result, err := NewOptimizer(&fakeClient{reply: reply}).Optimize(context.Background(), "Explain {{x}}", models.TierFast)
			require.NoError(t, err)
			assert.Equal(t, "Explain {{x}}", result.Optimized)
			assert.Equal(t, result.Original, result.Optimized)
			assert.True(t, result.Preserved())
		})
	}
}

func TestStripFences(t *testing.T) {
	tests := map[string]string{
		"plain":                     "plain",
		"```\nbody\n```":            "body",
		"```text\nline1\nline2\n```": "line1\nline2",
		"```inline code```":         "inline code",
	}
	for in, want := range tests {
		assert.Equal(t, want, stripFences(in), "stripFences(%q)", in)
	}
}

func TestCompareCollectsEveryTier(t *testing.T) {
	client := &fakeClient{reply: func(req *Request) (*Response, error) {
		if req.Tier == models.TierPro {
			return nil, errors.New("quota exceeded")
		}
		return &Response{Text: "answer from " + string(req.Tier), Model: string(req.Tier)}, nil
	}}

	results := Compare(context.Background(), client, Request{Prompt: "p", Model: "ignored"}, models.Tiers)
	require.Len(t, results, 3)

	assert.Equal(t, models.TierFast, results[0].Tier)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "answer from fast", results[0].Response.Text)

	assert.Equal(t, models.TierPro, results[1].Tier)
	require.Error(t, results[1].Err)

	assert.Equal(t, models.TierThinking, results[2].Tier)
	require.NoError(t, results[2].Err)

	for _, req := range client.requests {
		assert.Empty(t, req.Model)
	}
}
