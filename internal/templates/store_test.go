package templates

import (
	"context"
	"testing"

	"github.com/opencode-ai/promptpad/internal/db"
	"github.com/opencode-ai/promptpad/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	database, err := db.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	_, err = database.MigrateUp(context.Background())
	require.NoError(t, err)

	seed, err := LoadBuiltinTemplates()
	require.NoError(t, err)
	return NewStore(seed, db.NewTemplateRepository(database))
}

func TestStoreSaveCreatesAndUpdates(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	tmpl := &models.Template{Name: "Standup", Category: "work", Content: "Yesterday {{done}}, today {{plan}}"}
	created, err := store.Save(ctx, tmpl)
	require.NoError(t, err)
	assert.True(t, created)
	require.NotEmpty(t, tmpl.ID)

	got, err := store.Get(ctx, "standup")
	require.NoError(t, err)
	assert.Equal(t, tmpl.ID, got.ID)

	got.Content = "Blockers: {{blockers}}"
	created, err = store.Save(ctx, got)
	require.NoError(t, err)
	assert.False(t, created)

	again, err := store.Get(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "Blockers: {{blockers}}", again.Content)
}

func TestStoreSaveDefaultsTagsOnCreate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	plain := &models.Template{Name: "Plain", Content: "{{a}}"}
	_, err := store.Save(ctx, plain)
	require.NoError(t, err)
	got, err := store.Get(ctx, plain.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultTag}, got.Tags)

	tagged := &models.Template{Name: "Tagged", Content: "{{a}}", Tags: []string{"work"}}
	_, err = store.Save(ctx, tagged)
	require.NoError(t, err)
	got, err = store.Get(ctx, tagged.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"work"}, got.Tags)

	// Updates keep whatever tags the caller sends.
	got.Tags = nil
	_, err = store.Save(ctx, got)
	require.NoError(t, err)
	got, err = store.Get(ctx, tagged.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
}

func TestStoreSaveWithExplicitNewID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	created, err := store.Save(ctx, &models.Template{ID: "mine", Name: "Mine", Content: "{{a}}"})
	require.NoError(t, err)
	assert.True(t, created)

	got, err := store.Get(ctx, "mine")
	require.NoError(t, err)
	assert.Equal(t, models.TemplateSourceUser, got.Source)
}

func TestStoreBuiltinsAreReadOnly(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Save(ctx, &models.Template{ID: "chain-of-thought", Name: "x", Content: "{{y}}"})
	require.ErrorIs(t, err, ErrReadOnlyTemplate)
	require.ErrorIs(t, store.Delete(ctx, "chain-of-thought"), ErrReadOnlyTemplate)
}

func TestStoreListMergesSeedAndUser(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	before, err := store.List(ctx)
	require.NoError(t, err)

	_, err = store.Save(ctx, &models.Template{Name: "aaa first", Content: "{{x}}"})
	require.NoError(t, err)

	after, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)
	assert.Equal(t, "aaa first", after[0].Name)
}

func TestStoreDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	tmpl := &models.Template{Name: "temp", Content: "{{x}}"}
	_, err := store.Save(ctx, tmpl)
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, tmpl.ID))
	_, err = store.Get(ctx, tmpl.ID)
	require.ErrorIs(t, err, ErrTemplateNotFound)
	require.ErrorIs(t, store.Delete(ctx, tmpl.ID), ErrTemplateNotFound)
}

func TestStoreWithoutRepository(t *testing.T) {
	seed, err := LoadBuiltinTemplates()
	require.NoError(t, err)
	store := NewStore(seed, nil)

	items, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, len(seed))

	_, err = store.Save(context.Background(), &models.Template{Name: "x", Content: "y"})
	require.Error(t, err)
}
