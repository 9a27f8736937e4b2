package models

import (
	"fmt"
	"strings"
	"time"
)

// Tier selects the class of model a prompt is sent to.
type Tier string

const (
	// TierFast is the low-latency model.
	TierFast Tier = "fast"
	// TierPro is the high-capability model.
	TierPro Tier = "pro"
	// TierThinking is the high-capability model with an extended reasoning budget.
	TierThinking Tier = "thinking"
)

// Tiers lists every tier in ascending capability.
var Tiers = []Tier{TierFast, TierPro, TierThinking}

// ParseTier parses a tier name, ignoring case and surrounding space.
func ParseTier(value string) (Tier, error) {
	switch tier := Tier(strings.ToLower(strings.TrimSpace(value))); tier {
	case TierFast, TierPro, TierThinking:
		return tier, nil
	default:
		return "", fmt.Errorf("unknown tier %q (want fast, pro or thinking)", value)
	}
}

// Run records one prompt sent to the model and its outcome.
type Run struct {
	// ID is the unique identifier for the run.
	ID string `json:"id"`

	// ParentID links a follow-up turn to the run it continues.
	ParentID string `json:"parent_id,omitempty"`

	// TemplateID is the template the prompt was rendered from (optional).
	TemplateID string `json:"template_id,omitempty"`

	// SessionID is the editing session whose values were used.
	SessionID string `json:"session_id"`

	// Tier and Model identify where the prompt was sent.
	Tier  Tier   `json:"tier"`
	Model string `json:"model"`

	// Prompt is the fully interpolated text.
	Prompt string `json:"prompt"`

	// Response is the model output, empty on failure.
	Response string `json:"response,omitempty"`

	// Error holds the failure message when the call did not succeed.
	Error string `json:"error,omitempty"`

	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`

	// Duration is how long the model call took.
	Duration time.Duration `json:"duration"`

	// CreatedAt is when the run was recorded.
	CreatedAt time.Time `json:"created_at"`
}

// Succeeded reports whether the run produced a response.
func (r *Run) Succeeded() bool {
	return r.Error == ""
}
