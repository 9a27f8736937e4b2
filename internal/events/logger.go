// Package events provides helper functions for logging promptpad events.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opencode-ai/promptpad/internal/models"
)

// Repository is the minimal interface needed to write events.
type Repository interface {
	Create(ctx context.Context, event *models.Event) error
}

// LogTemplateSaved records a template create or update.
func LogTemplateSaved(ctx context.Context, repo Repository, tmpl *models.Template, created bool, variables []string) error {
	if tmpl == nil || tmpl.ID == "" {
		return fmt.Errorf("template id is required")
	}

	eventType := models.EventTypeTemplateUpdated
	if created {
		eventType = models.EventTypeTemplateCreated
	}
	return logEvent(ctx, repo, eventType, models.EntityTypeTemplate, tmpl.ID, models.TemplateChangedPayload{
		Name:      tmpl.Name,
		Variables: variables,
	})
}

// LogTemplateDeleted records a template deletion.
func LogTemplateDeleted(ctx context.Context, repo Repository, templateID string) error {
	if templateID == "" {
		return fmt.Errorf("template id is required")
	}
	return logEvent(ctx, repo, models.EventTypeTemplateDeleted, models.EntityTypeTemplate, templateID, nil)
}

// LogRun records the outcome of a prompt run.
func LogRun(ctx context.Context, repo Repository, run *models.Run) error {
	if run == nil || run.ID == "" {
		return fmt.Errorf("run id is required")
	}

	if !run.Succeeded() {
		return logEvent(ctx, repo, models.EventTypePromptFailed, models.EntityTypeRun, run.ID, models.PromptFailedPayload{
			RunID:      run.ID,
			TemplateID: run.TemplateID,
			Tier:       run.Tier,
			Error:      run.Error,
		})
	}
	return logEvent(ctx, repo, models.EventTypePromptSent, models.EntityTypeRun, run.ID, models.PromptSentPayload{
		RunID:      run.ID,
		TemplateID: run.TemplateID,
		Tier:       run.Tier,
		Model:      run.Model,
		Duration:   run.Duration.String(),
	})
}

// LogPromptOptimized records an optimizer round trip for a template.
func LogPromptOptimized(ctx context.Context, repo Repository, templateID string, payload models.PromptOptimizedPayload) error {
	if templateID == "" {
		return fmt.Errorf("template id is required")
	}
	payload.TemplateID = templateID
	return logEvent(ctx, repo, models.EventTypePromptOptimized, models.EntityTypeTemplate, templateID, payload)
}

// LogVariablesCleared records a clear-values action in a session.
func LogVariablesCleared(ctx context.Context, repo Repository, sessionID, templateID string, names []string) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	return logEvent(ctx, repo, models.EventTypeVariablesCleared, models.EntityTypeSession, sessionID, models.VariablesClearedPayload{
		TemplateID: templateID,
		Names:      names,
	})
}

// LogVariablesReset records that a session's cache was dropped.
func LogVariablesReset(ctx context.Context, repo Repository, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session id is required")
	}
	return logEvent(ctx, repo, models.EventTypeVariablesReset, models.EntityTypeSession, sessionID, nil)
}

func logEvent(ctx context.Context, repo Repository, eventType models.EventType, entityType models.EntityType, entityID string, payload any) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}

	event := &models.Event{
		Type:       eventType,
		EntityType: entityType,
		EntityID:   entityID,
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal %s payload: %w", eventType, err)
		}
		event.Payload = data
	}

	return repo.Create(ctx, event)
}
