package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Tiliavir/worktime/internal/model"
	"github.com/Tiliavir/worktime/internal/timecalc"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// EntryFilter narrows ListEntries. Start times are bounded by [From, To).
type EntryFilter struct {
	UserID    string
	ProjectID string
	From      *time.Time
	To        *time.Time
}

const entryColumns = `id, user_id, project_id, task, comment, tags, start_ms, end_ms,
	duration_seconds, is_running, source, external_id, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*model.TimeEntry, error) {
	var (
		e          model.TimeEntry
		comment    sql.NullString
		tags       string
		startMs    sql.NullInt64
		endMs      sql.NullInt64
		duration   sql.NullInt64
		running    int
		createdAt  int64
		modifiedAt int64
	)
	err := row.Scan(&e.ID, &e.UserID, &e.ProjectID, &e.Task, &comment, &tags,
		&startMs, &endMs, &duration, &running, &e.Source, &e.ExternalID, &createdAt, &modifiedAt)
	if err != nil {
		return nil, err
	}
	if comment.Valid {
		c := comment.String
		e.Comment = &c
	}
	if err := json.Unmarshal([]byte(tags), &e.Tags); err != nil {
		return nil, fmt.Errorf("corrupt tags on entry %s: %w", e.ID, err)
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	if startMs.Valid {
		e.Start = fromMillis(startMs.Int64)
	}
	if endMs.Valid {
		end := fromMillis(endMs.Int64)
		e.End = &end
	}
	if duration.Valid {
		d := duration.Int64
		e.DurationSeconds = &d
	}
	e.IsRunning = running == 1
	e.CreatedAt = fromMillis(createdAt)
	e.UpdatedAt = fromMillis(modifiedAt)
	return &e, nil
}

func encodeTags(tags []string) (string, error) {
	clean := make([]string, 0, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			clean = append(clean, t)
		}
	}
	data, err := json.Marshal(clean)
	if err != nil {
		return "", fmt.Errorf("encoding tags: %w", err)
	}
	return string(data), nil
}

// validateEntry fills derived fields and rejects impossible entries.
func validateEntry(e *model.TimeEntry) error {
	if e.UserID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if e.ProjectID == "" {
		return fmt.Errorf("%w: project id is required", ErrInvalidInput)
	}
	if e.Start.IsZero() {
		return fmt.Errorf("%w: start time is required", ErrInvalidInput)
	}
	if e.End != nil {
		if e.End.Before(e.Start) {
			return fmt.Errorf("%w: end time precedes start time", ErrInvalidInput)
		}
		if e.DurationSeconds == nil {
			d := int64(e.End.Sub(e.Start) / time.Second)
			e.DurationSeconds = &d
		}
	}
	e.IsRunning = e.End == nil
	if e.Source == "" {
		e.Source = model.SourceManual
	}
	if e.Tags == nil {
		e.Tags = []string{}
	}
	return nil
}

func insertEntry(ctx context.Context, q querier, e *model.TimeEntry) error {
	tags, err := encodeTags(e.Tags)
	if err != nil {
		return err
	}
	var duration sql.NullInt64
	if e.DurationSeconds != nil {
		duration = sql.NullInt64{Int64: *e.DurationSeconds, Valid: true}
	}
	var startMs sql.NullInt64
	if !e.Start.IsZero() {
		startMs = sql.NullInt64{Int64: toMillis(e.Start), Valid: true}
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO time_entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.UserID, e.ProjectID, e.Task, e.Comment, tags, startMs, nullMillis(e.End),
		duration, boolInt(e.IsRunning), e.Source, e.ExternalID,
		toMillis(e.CreatedAt), toMillis(e.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %s already has a running timer", ErrConflict, e.UserID)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: unknown project %s", ErrInvalidInput, e.ProjectID)
		}
		return fmt.Errorf("failed to create entry: %w", err)
	}
	return nil
}

func updateEntry(ctx context.Context, q querier, e *model.TimeEntry) error {
	tags, err := encodeTags(e.Tags)
	if err != nil {
		return err
	}
	var duration sql.NullInt64
	if e.DurationSeconds != nil {
		duration = sql.NullInt64{Int64: *e.DurationSeconds, Valid: true}
	}

	res, err := q.ExecContext(ctx, `
		UPDATE time_entries
		SET project_id = ?, task = ?, comment = ?, tags = ?, start_ms = ?, end_ms = ?,
		    duration_seconds = ?, is_running = ?, source = ?, external_id = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		e.ProjectID, e.Task, e.Comment, tags, toMillis(e.Start), nullMillis(e.End),
		duration, boolInt(e.IsRunning), e.Source, e.ExternalID, toMillis(e.UpdatedAt),
		e.ID, e.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: user %s already has a running timer", ErrConflict, e.UserID)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: unknown project %s", ErrInvalidInput, e.ProjectID)
		}
		return fmt.Errorf("failed to update entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func getEntry(ctx context.Context, q querier, userID, id string) (*model.TimeEntry, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE id = ? AND user_id = ?`, id, userID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entry: %w", err)
	}
	return e, nil
}

func findRunning(ctx context.Context, q querier, userID string) (*model.TimeEntry, error) {
	row := q.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE user_id = ? AND is_running = 1`, userID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find running entry: %w", err)
	}
	return e, nil
}

// CreateEntry validates and inserts e. An empty ID is generated.
func (s *Store) CreateEntry(ctx context.Context, e *model.TimeEntry) error {
	if err := validateEntry(e); err != nil {
		return err
	}
	now := s.now()
	if e.ID == "" {
		e.ID = timecalc.GenerateID(e.Start)
	}
	e.CreatedAt, e.UpdatedAt = now, now
	return insertEntry(ctx, s.db, e)
}

// GetEntry returns the entry id owned by userID.
func (s *Store) GetEntry(ctx context.Context, userID, id string) (*model.TimeEntry, error) {
	return getEntry(ctx, s.db, userID, id)
}

// UpdateEntry replaces the mutable fields of an existing entry.
func (s *Store) UpdateEntry(ctx context.Context, e *model.TimeEntry) error {
	if err := validateEntry(e); err != nil {
		return err
	}
	e.UpdatedAt = s.now()
	return updateEntry(ctx, s.db, e)
}

// DeleteEntry removes the entry id owned by userID.
func (s *Store) DeleteEntry(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM time_entries WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListEntries returns a user's entries ordered by start time.
func (s *Store) ListEntries(ctx context.Context, f EntryFilter) ([]model.TimeEntry, error) {
	if f.UserID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	query := `SELECT ` + entryColumns + ` FROM time_entries WHERE user_id = ?`
	args := []any{f.UserID}
	if f.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, f.ProjectID)
	}
	if f.From != nil {
		query += ` AND start_ms >= ?`
		args = append(args, toMillis(*f.From))
	}
	if f.To != nil {
		query += ` AND start_ms < ?`
		args = append(args, toMillis(*f.To))
	}
	query += ` ORDER BY start_ms ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	defer rows.Close()

	entries := []model.TimeEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list entries: %w", err)
	}
	return entries, nil
}

// FindRunning returns the user's running entry, or ErrNotFound.
func (s *Store) FindRunning(ctx context.Context, userID string) (*model.TimeEntry, error) {
	return findRunning(ctx, s.db, userID)
}

// FindByExternalID returns the user's entry imported under externalID.
func (s *Store) FindByExternalID(ctx context.Context, userID, externalID string) (*model.TimeEntry, error) {
	if externalID == "" {
		return nil, ErrNotFound
	}
	row := s.db.QueryRowContext(ctx,
		`SELECT `+entryColumns+` FROM time_entries WHERE user_id = ? AND external_id = ?`, userID, externalID)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find entry by external id: %w", err)
	}
	return e, nil
}
