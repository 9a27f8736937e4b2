package templates

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/opencode-ai/promptpad/internal/db"
	"github.com/opencode-ai/promptpad/internal/logging"
	"github.com/opencode-ai/promptpad/internal/models"
	"github.com/rs/zerolog"
)

// DefaultTag is given to user templates created without tags.
const DefaultTag = "custom"

// Repository persists user templates.
type Repository interface {
	Create(ctx context.Context, tmpl *models.Template) error
	Get(ctx context.Context, id string) (*models.Template, error)
	List(ctx context.Context) ([]*models.Template, error)
	Update(ctx context.Context, tmpl *models.Template) error
	Delete(ctx context.Context, id string) error
}

// Store merges immutable seed templates (builtin and file) with user templates.
type Store struct {
	seed   []*models.Template
	repo   Repository
	logger zerolog.Logger
}

// NewStore creates a store over seed templates and a user template repository.
func NewStore(seed []*models.Template, repo Repository) *Store {
	return &Store{
		seed:   seed,
		repo:   repo,
		logger: logging.Component("templates"),
	}
}

// List returns every available template ordered by name. User templates replace
// seed templates with the same id.
func (s *Store) List(ctx context.Context) ([]*models.Template, error) {
	byID := make(map[string]*models.Template, len(s.seed))
	for _, tmpl := range s.seed {
		byID[tmpl.ID] = tmpl
	}

	if s.repo != nil {
		user, err := s.repo.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list user templates: %w", err)
		}
		for _, tmpl := range user {
			if existing, ok := byID[tmpl.ID]; ok && existing.IsBuiltin() {
				s.logger.Warn().Str("template_id", tmpl.ID).Msg("user template shadows builtin id; ignoring")
				continue
			}
			byID[tmpl.ID] = tmpl
		}
	}

	all := make([]*models.Template, 0, len(byID))
	for _, tmpl := range byID {
		all = append(all, tmpl)
	}
	sort.Slice(all, func(i, j int) bool {
		a, b := strings.ToLower(all[i].Name), strings.ToLower(all[j].Name)
		if a == b {
			return all[i].ID < all[j].ID
		}
		return a < b
	})
	return all, nil
}

// Get resolves a template by id or name.
func (s *Store) Get(ctx context.Context, ref string) (*models.Template, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	if tmpl := Find(all, ref); tmpl != nil {
		return tmpl, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, ref)
}

// Save creates or updates a user template keyed by id and reports whether it
// was created.
func (s *Store) Save(ctx context.Context, tmpl *models.Template) (bool, error) {
	if tmpl == nil {
		return false, fmt.Errorf("template is required")
	}
	if s.repo == nil {
		return false, fmt.Errorf("template repository is not configured")
	}
	if s.isBuiltin(tmpl.ID) {
		return false, ErrReadOnlyTemplate
	}

	if tmpl.ID != "" {
		_, err := s.repo.Get(ctx, tmpl.ID)
		switch {
		case err == nil:
			if err := s.repo.Update(ctx, tmpl); err != nil {
				return false, err
			}
			s.logger.Info().Str("template_id", tmpl.ID).Msg("template updated")
			return false, nil
		case !errors.Is(err, db.ErrTemplateNotFound):
			return false, err
		}
	}

	if len(models.NormalizeTags(tmpl.Tags)) == 0 {
		tmpl.Tags = []string{DefaultTag}
	}
	if err := s.repo.Create(ctx, tmpl); err != nil {
		return false, err
	}
	s.logger.Info().Str("template_id", tmpl.ID).Str("name", tmpl.Name).Msg("template created")
	return true, nil
}

// Delete removes a user template by id.
func (s *Store) Delete(ctx context.Context, id string) error {
	if s.isBuiltin(id) {
		return ErrReadOnlyTemplate
	}
	if s.repo == nil {
		return fmt.Errorf("template repository is not configured")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, db.ErrTemplateNotFound) {
			return fmt.Errorf("%w: %s", ErrTemplateNotFound, id)
		}
		return err
	}
	s.logger.Info().Str("template_id", id).Msg("template deleted")
	return nil
}

func (s *Store) isBuiltin(id string) bool {
	if id == "" {
		return false
	}
	for _, tmpl := range s.seed {
		if tmpl.ID == id && tmpl.IsBuiltin() {
			return true
		}
	}
	return false
}
