package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/opencode-ai/promptpad/internal/models"
)

type fakeRepo struct {
	last *models.Event
}

func (r *fakeRepo) Create(ctx context.Context, event *models.Event) error {
	r.last = event
	return nil
}

func TestLogTemplateSaved(t *testing.T) {
	repo := &fakeRepo{}
	tmpl := &models.Template{ID: "tmpl-1", Name: "greet"}

	if err := LogTemplateSaved(context.Background(), repo, tmpl, true, []string{"name"}); err != nil {
		t.Fatalf("LogTemplateSaved failed: %v", err)
	}
	if repo.last == nil {
		t.Fatal("expected event to be created")
	}
	if repo.last.Type != models.EventTypeTemplateCreated {
		t.Fatalf("unexpected event type: %q", repo.last.Type)
	}

	var payload models.TemplateChangedPayload
	if err := json.Unmarshal(repo.last.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.Name != "greet" || len(payload.Variables) != 1 {
		t.Fatalf("unexpected payload: %+v", payload)
	}

	if err := LogTemplateSaved(context.Background(), repo, tmpl, false, nil); err != nil {
		t.Fatalf("LogTemplateSaved failed: %v", err)
	}
	if repo.last.Type != models.EventTypeTemplateUpdated {
		t.Fatalf("unexpected event type: %q", repo.last.Type)
	}
}

func TestLogRun(t *testing.T) {
	repo := &fakeRepo{}
	run := &models.Run{ID: "run-1", Tier: models.TierPro, Model: "pro", Duration: time.Second}

	if err := LogRun(context.Background(), repo, run); err != nil {
		t.Fatalf("LogRun failed: %v", err)
	}
	if repo.last.Type != models.EventTypePromptSent || repo.last.EntityID != "run-1" {
		t.Fatalf("unexpected event: %+v", repo.last)
	}

	run.Error = "quota"
	if err := LogRun(context.Background(), repo, run); err != nil {
		t.Fatalf("LogRun failed: %v", err)
	}
	if repo.last.Type != models.EventTypePromptFailed {
		t.Fatalf("unexpected event type: %q", repo.last.Type)
	}
}

func TestLogRequiresRepoAndIDs(t *testing.T) {
	ctx := context.Background()
	if err := LogTemplateDeleted(ctx, nil, "x"); err == nil {
		t.Fatal("expected error for nil repository")
	}
	if err := LogTemplateDeleted(ctx, &fakeRepo{}, ""); err == nil {
		t.Fatal("expected error for empty template id")
	}
	if err := LogVariablesCleared(ctx, &fakeRepo{}, "", "t", nil); err == nil {
		t.Fatal("expected error for empty session id")
	}
	if err := LogRun(ctx, &fakeRepo{}, &models.Run{}); err == nil {
		t.Fatal("expected error for run without id")
	}
}

func TestLogVariablesClearedAndReset(t *testing.T) {
	repo := &fakeRepo{}
	if err := LogVariablesCleared(context.Background(), repo, "default", "summarize", []string{"a", "b"}); err != nil {
		t.Fatalf("LogVariablesCleared failed: %v", err)
	}
	if repo.last.EntityType != models.EntityTypeSession || repo.last.Type != models.EventTypeVariablesCleared {
		t.Fatalf("unexpected event: %+v", repo.last)
	}

	if err := LogVariablesReset(context.Background(), repo, "default"); err != nil {
		t.Fatalf("LogVariablesReset failed: %v", err)
	}
	if repo.last.Type != models.EventTypeVariablesReset || repo.last.Payload != nil {
		t.Fatalf("unexpected event: %+v", repo.last)
	}
}

func TestLogPromptOptimized(t *testing.T) {
	repo := &fakeRepo{}
	err := LogPromptOptimized(context.Background(), repo, "summarize", models.PromptOptimizedPayload{Tier: models.TierFast, Saved: true})
	if err != nil {
		t.Fatalf("LogPromptOptimized failed: %v", err)
	}

	var payload models.PromptOptimizedPayload
	if err := json.Unmarshal(repo.last.Payload, &payload); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if payload.TemplateID != "summarize" || !payload.Saved {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}
