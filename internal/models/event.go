package models

import (
	"encoding/json"
	"strings"
	"time"
)

// EventType categorizes events in the system.
type EventType string

const (
	// Template events
	EventTypeTemplateCreated EventType = "template.created"
	EventTypeTemplateUpdated EventType = "template.updated"
	EventTypeTemplateDeleted EventType = "template.deleted"

	// Prompt events
	EventTypePromptSent      EventType = "prompt.sent"
	EventTypePromptFailed    EventType = "prompt.failed"
	EventTypePromptOptimized EventType = "prompt.optimized"

	// Variable events
	EventTypeVariablesCleared EventType = "variables.cleared"
	EventTypeVariablesReset   EventType = "variables.reset"
)

// EntityType identifies the type of entity an event relates to.
type EntityType string

const (
	EntityTypeTemplate EntityType = "template"
	EntityTypeRun      EntityType = "run"
	EntityTypeSession  EntityType = "session"
)

// Event represents an append-only log entry.
type Event struct {
	// ID is the unique identifier for the event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type categorizes the event.
	Type EventType `json:"type"`

	// EntityType identifies what kind of entity this event relates to.
	EntityType EntityType `json:"entity_type"`

	// EntityID is the ID of the related entity.
	EntityID string `json:"entity_id"`

	// Payload contains event-specific data.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Metadata contains additional context.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate checks if the event is valid.
func (e *Event) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(string(e.Type)) == "" {
		validation.AddMessage("type", "event type is required")
	}
	if strings.TrimSpace(string(e.EntityType)) == "" {
		validation.AddMessage("entity_type", "entity_type is required")
	}
	if strings.TrimSpace(e.EntityID) == "" {
		validation.AddMessage("entity_id", "entity_id is required")
	}
	return validation.Err()
}

// TemplateChangedPayload is the payload for template.* events.
type TemplateChangedPayload struct {
	Name      string   `json:"name"`
	Variables []string `json:"variables,omitempty"`
}

// PromptSentPayload is the payload for prompt.sent events.
type PromptSentPayload struct {
	RunID      string `json:"run_id"`
	TemplateID string `json:"template_id,omitempty"`
	Tier       Tier   `json:"tier"`
	Model      string `json:"model"`
	Duration   string `json:"duration"`
}

// PromptFailedPayload is the payload for prompt.failed events.
type PromptFailedPayload struct {
	RunID      string `json:"run_id"`
	TemplateID string `json:"template_id,omitempty"`
	Tier       Tier   `json:"tier"`
	Error      string `json:"error"`
}

// PromptOptimizedPayload is the payload for prompt.optimized events.
type PromptOptimizedPayload struct {
	TemplateID string   `json:"template_id,omitempty"`
	Tier       Tier     `json:"tier"`
	Dropped    []string `json:"dropped,omitempty"`
	Added      []string `json:"added,omitempty"`
	Saved      bool     `json:"saved"`
}

// VariablesClearedPayload is the payload for variables.cleared events.
type VariablesClearedPayload struct {
	TemplateID string   `json:"template_id,omitempty"`
	Names      []string `json:"names"`
}
