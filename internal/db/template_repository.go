package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/opencode-ai/promptpad/internal/models"
)

// Template repository errors.
var (
	ErrTemplateNotFound = errors.New("template not found")
	ErrTemplateExists   = errors.New("template with this name already exists")
)

// TemplateRepository persists user-created templates.
type TemplateRepository struct {
	db *DB
}

// NewTemplateRepository creates a new TemplateRepository.
func NewTemplateRepository(db *DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

const templateColumns = `id, name, description, category, content, tags_json, created_at, updated_at`

// Create inserts a new template, assigning an ID when empty.
func (r *TemplateRepository) Create(ctx context.Context, tmpl *models.Template) error {
	if err := tmpl.Validate(); err != nil {
		return err
	}

	if tmpl.ID == "" {
		tmpl.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	tmpl.CreatedAt = now
	tmpl.UpdatedAt = now
	tmpl.Source = models.TemplateSourceUser
	tmpl.Tags = models.NormalizeTags(tmpl.Tags)

	tagsJSON, err := marshalTags(tmpl.Tags)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO templates (`+templateColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		tmpl.ID,
		strings.TrimSpace(tmpl.Name),
		nullString(tmpl.Description),
		nullString(tmpl.Category),
		tmpl.Content,
		tagsJSON,
		formatTime(tmpl.CreatedAt),
		formatTime(tmpl.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTemplateExists
		}
		return fmt.Errorf("failed to insert template: %w", err)
	}

	return nil
}

// Get retrieves a template by ID.
func (r *TemplateRepository) Get(ctx context.Context, id string) (*models.Template, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM templates WHERE id = ?`, id)
	return r.scanTemplate(row)
}

// GetByName retrieves a template by name, ignoring case.
func (r *TemplateRepository) GetByName(ctx context.Context, name string) (*models.Template, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+templateColumns+` FROM templates WHERE name = ? COLLATE NOCASE`, strings.TrimSpace(name))
	return r.scanTemplate(row)
}

// List returns all user templates ordered by name.
func (r *TemplateRepository) List(ctx context.Context) ([]*models.Template, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+templateColumns+` FROM templates ORDER BY name COLLATE NOCASE`)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var templates []*models.Template
	for rows.Next() {
		tmpl, err := r.scanTemplate(rows)
		if err != nil {
			return nil, err
		}
		templates = append(templates, tmpl)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	return templates, nil
}

// Update replaces a template's editable fields.
func (r *TemplateRepository) Update(ctx context.Context, tmpl *models.Template) error {
	if err := tmpl.Validate(); err != nil {
		return err
	}

	tmpl.UpdatedAt = time.Now().UTC()
	tmpl.Tags = models.NormalizeTags(tmpl.Tags)
	tagsJSON, err := marshalTags(tmpl.Tags)
	if err != nil {
		return err
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE templates
		SET name = ?, description = ?, category = ?, content = ?, tags_json = ?, updated_at = ?
		WHERE id = ?
	`,
		strings.TrimSpace(tmpl.Name),
		nullString(tmpl.Description),
		nullString(tmpl.Category),
		tmpl.Content,
		tagsJSON,
		formatTime(tmpl.UpdatedAt),
		tmpl.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTemplateExists
		}
		return fmt.Errorf("failed to update template: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrTemplateNotFound
	}
	tmpl.Source = models.TemplateSourceUser

	return nil
}

// Delete removes a template by ID.
func (r *TemplateRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return ErrTemplateNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *TemplateRepository) scanTemplate(row rowScanner) (*models.Template, error) {
	var tmpl models.Template
	var description, category, tagsJSON sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(
		&tmpl.ID,
		&tmpl.Name,
		&description,
		&category,
		&tmpl.Content,
		&tagsJSON,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to scan template: %w", err)
	}

	tmpl.Description = description.String
	tmpl.Category = category.String
	tmpl.Source = models.TemplateSourceUser
	tmpl.CreatedAt = parseTime(createdAt)
	tmpl.UpdatedAt = parseTime(updatedAt)

	if tagsJSON.Valid {
		if err := json.Unmarshal([]byte(tagsJSON.String), &tmpl.Tags); err != nil {
			r.db.logger.Warn().Err(err).Str("template_id", tmpl.ID).Msg("failed to parse template tags")
		}
	}

	return &tmpl, nil
}

func marshalTags(tags []string) (*string, error) {
	if len(tags) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	s := string(data)
	return &s, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
