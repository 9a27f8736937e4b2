package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/opencode-ai/promptpad/internal/models"
)

// Run repository errors.
var (
	ErrRunNotFound = errors.New("run not found")
	ErrInvalidRun  = errors.New("invalid run")
)

// maxThreadDepth bounds parent walks so a corrupted chain cannot loop forever.
const maxThreadDepth = 256

// RunRepository handles prompt run history.
type RunRepository struct {
	db *DB
}

// NewRunRepository creates a new RunRepository.
func NewRunRepository(db *DB) *RunRepository {
	return &RunRepository{db: db}
}

// RunQuery defines filters for querying runs.
type RunQuery struct {
	TemplateID *string    // Filter by template
	SessionID  *string    // Filter by session
	Since      *time.Time // Runs at or after this time (inclusive)
	Cursor     string     // Pagination cursor (run ID)
	Limit      int        // Max results to return
}

// RunPage represents a page of query results.
type RunPage struct {
	Runs       []*models.Run
	NextCursor string
}

const runColumns = `id, parent_id, template_id, session_id, tier, model, prompt, response,
	error_message, input_tokens, output_tokens, duration_ms, created_at`

// Create records a run, assigning ID and timestamp when empty.
func (r *RunRepository) Create(ctx context.Context, run *models.Run) error {
	if run.SessionID == "" || run.Tier == "" || run.Prompt == "" {
		return ErrInvalidRun
	}

	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	} else {
		run.CreatedAt = run.CreatedAt.UTC()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO runs (`+runColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		nullString(run.ParentID),
		nullString(run.TemplateID),
		run.SessionID,
		string(run.Tier),
		run.Model,
		run.Prompt,
		nullString(run.Response),
		nullString(run.Error),
		run.InputTokens,
		run.OutputTokens,
		run.Duration.Milliseconds(),
		formatTime(run.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID.
func (r *RunRepository) Get(ctx context.Context, id string) (*models.Run, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	return r.scanRun(row)
}

// Query retrieves runs matching the given filters, newest first, with cursor-based pagination.
func (r *RunRepository) Query(ctx context.Context, q RunQuery) (*RunPage, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}

	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	args := []any{}

	if q.TemplateID != nil {
		query += ` AND template_id = ?`
		args = append(args, *q.TemplateID)
	}
	if q.SessionID != nil {
		query += ` AND session_id = ?`
		args = append(args, *q.SessionID)
	}
	if q.Since != nil {
		query += ` AND created_at >= ?`
		args = append(args, formatTime(*q.Since))
	}
	if q.Cursor != "" {
		query += ` AND (created_at, id) < (SELECT created_at, id FROM runs WHERE id = ?)`
		args = append(args, q.Cursor)
	}

	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, limit+1)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	page := &RunPage{}
	if len(runs) > limit {
		page.Runs = runs[:limit]
		page.NextCursor = runs[limit-1].ID
	} else {
		page.Runs = runs
	}

	return page, nil
}

// Thread returns the conversation ending at id, oldest turn first.
func (r *RunRepository) Thread(ctx context.Context, id string) ([]*models.Run, error) {
	var thread []*models.Run
	seen := make(map[string]struct{})

	for current := id; current != ""; {
		if _, loop := seen[current]; loop || len(thread) >= maxThreadDepth {
			return nil, fmt.Errorf("run thread for %s is cyclic or too deep", id)
		}
		seen[current] = struct{}{}

		run, err := r.Get(ctx, current)
		if err != nil {
			return nil, err
		}
		thread = append(thread, run)
		current = run.ParentID
	}

	for i, j := 0, len(thread)-1; i < j; i, j = i+1, j-1 {
		thread[i], thread[j] = thread[j], thread[i]
	}
	return thread, nil
}

func (r *RunRepository) scanRun(row rowScanner) (*models.Run, error) {
	var run models.Run
	var parentID, templateID, response, errMsg sql.NullString
	var tier, createdAt string
	var durationMs int64

	err := row.Scan(
		&run.ID,
		&parentID,
		&templateID,
		&run.SessionID,
		&tier,
		&run.Model,
		&run.Prompt,
		&response,
		&errMsg,
		&run.InputTokens,
		&run.OutputTokens,
		&durationMs,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	run.ParentID = parentID.String
	run.TemplateID = templateID.String
	run.Response = response.String
	run.Error = errMsg.String
	run.Tier = models.Tier(tier)
	run.Duration = time.Duration(durationMs) * time.Millisecond
	run.CreatedAt = parseTime(createdAt)

	return &run, nil
}
