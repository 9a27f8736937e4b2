package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/opencode-ai/promptpad/internal/config"
	"github.com/opencode-ai/promptpad/internal/db"
	"github.com/opencode-ai/promptpad/internal/llm"
	"github.com/opencode-ai/promptpad/internal/logging"
	"github.com/opencode-ai/promptpad/internal/templates"
	"github.com/opencode-ai/promptpad/internal/variables"
	"github.com/rs/zerolog"
)

// app bundles the repositories a command works with.
type app struct {
	cfg       *config.Config
	db        *db.DB
	store     *templates.Store
	vars      *db.VariableRepository
	runs      *db.RunRepository
	events    *db.EventRepository
	sessionID string
	logger    zerolog.Logger
}

func openApp() (*app, error) {
	database, err := openDatabase()
	if err != nil {
		return nil, err
	}

	projectDir, _ := os.Getwd()
	a, err := newApp(GetConfig(), database, projectDir, SessionID())
	if err != nil {
		database.Close()
		return nil, err
	}
	return a, nil
}

func newApp(cfg *config.Config, database *db.DB, projectDir, sessionID string) (*app, error) {
	seed, err := templates.LoadTemplatesFromSearchPaths(projectDir, cfg.Templates.Dirs...)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	return &app{
		cfg:       cfg,
		db:        database,
		store:     templates.NewStore(seed, db.NewTemplateRepository(database)),
		vars:      db.NewVariableRepository(database),
		runs:      db.NewRunRepository(database),
		events:    db.NewEventRepository(database),
		sessionID: sessionID,
		logger:    logging.Component("cli"),
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// loadSession restores the session's variable cache from the database.
func (a *app) loadSession(ctx context.Context) (*variables.Session, *variables.MemoryCache, error) {
	values, err := a.vars.Load(ctx, a.sessionID)
	if err != nil {
		return nil, nil, err
	}
	cache := variables.NewMemoryCache(values)
	a.logger.Debug().Str("session", a.sessionID).Int("cached", cache.Len()).Msg("session loaded")
	return variables.NewSession(cache), cache, nil
}

// saveSession writes the cache back, replacing the stored rows.
func (a *app) saveSession(ctx context.Context, cache *variables.MemoryCache) error {
	if err := a.vars.Replace(ctx, a.sessionID, cache.Snapshot()); err != nil {
		return fmt.Errorf("failed to save session %s: %w", a.sessionID, err)
	}
	a.logger.Debug().Str("session", a.sessionID).Int("cached", cache.Len()).Msg("session saved")
	return nil
}

// newModelClient builds the model client, failing early when no key is set.
func (a *app) newModelClient(ctx context.Context) (llm.Client, error) {
	client, err := llm.NewGenAIClient(ctx, a.cfg.Model)
	if err != nil {
		if errors.Is(err, llm.ErrMissingAPIKey) {
			return nil, &PreflightError{
				Message:  "no model API key configured",
				Hint:     "Set GEMINI_API_KEY or model.api_key in the config file",
				NextStep: "export GEMINI_API_KEY=<key>",
				Err:      err,
			}
		}
		return nil, err
	}
	return client, nil
}
