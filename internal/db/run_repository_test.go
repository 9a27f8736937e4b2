package db

import (
	"context"
	"testing"
	"time"

	"github.com/opencode-ai/promptpad/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRun(session, prompt string, at time.Time) *models.Run {
	return &models.Run{
		SessionID: session,
		Tier:      models.TierFast,
		Model:     "gemini-2.5-flash",
		Prompt:    prompt,
		Response:  "ok",
		CreatedAt: at,
	}
}

func TestRunRepositoryCreateGet(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(openTestDB(t))

	run := newRun("default", "hello", time.Time{})
	run.TemplateID = "summarize"
	run.Duration = 1500 * time.Millisecond
	run.InputTokens = 12
	require.NoError(t, repo.Create(ctx, run))
	require.NotEmpty(t, run.ID)
	require.False(t, run.CreatedAt.IsZero())

	got, err := repo.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "summarize", got.TemplateID)
	assert.Equal(t, models.TierFast, got.Tier)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)
	assert.Equal(t, int64(12), got.InputTokens)
	assert.True(t, got.CreatedAt.Equal(run.CreatedAt))
	assert.True(t, got.Succeeded())

	_, err = repo.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrRunNotFound)
}

func TestRunRepositoryRejectsInvalid(t *testing.T) {
	repo := NewRunRepository(openTestDB(t))
	err := repo.Create(context.Background(), &models.Run{SessionID: "s"})
	require.ErrorIs(t, err, ErrInvalidRun)
}

func TestRunRepositoryQueryPagination(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(openTestDB(t))

	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var ids []string
	for i := 0; i < 5; i++ {
		run := newRun("s1", "p", base.Add(time.Duration(i)*time.Millisecond))
		require.NoError(t, repo.Create(ctx, run))
		ids = append(ids, run.ID)
	}
	require.NoError(t, repo.Create(ctx, newRun("s2", "other", base)))

	session := "s1"
	page, err := repo.Query(ctx, RunQuery{SessionID: &session, Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Runs, 2)
	assert.Equal(t, ids[4], page.Runs[0].ID)
	assert.Equal(t, ids[3], page.Runs[1].ID)
	require.NotEmpty(t, page.NextCursor)

	page, err = repo.Query(ctx, RunQuery{SessionID: &session, Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Runs, 2)
	assert.Equal(t, ids[2], page.Runs[0].ID)

	page, err = repo.Query(ctx, RunQuery{SessionID: &session, Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, page.Runs, 1)
	assert.Empty(t, page.NextCursor)
}

func TestRunRepositoryThread(t *testing.T) {
	ctx := context.Background()
	repo := NewRunRepository(openTestDB(t))

	first := newRun("s", "first", time.Time{})
	require.NoError(t, repo.Create(ctx, first))
	second := newRun("s", "second", time.Time{})
	second.ParentID = first.ID
	require.NoError(t, repo.Create(ctx, second))
	third := newRun("s", "third", time.Time{})
	third.ParentID = second.ID
	require.NoError(t, repo.Create(ctx, third))

	thread, err := repo.Thread(ctx, third.ID)
	require.NoError(t, err)
	require.Len(t, thread, 3)
	assert.Equal(t, "first", thread[0].Prompt)
	assert.Equal(t, "third", thread[2].Prompt)

	_, err = repo.Thread(ctx, "missing")
	require.ErrorIs(t, err, ErrRunNotFound)
}
