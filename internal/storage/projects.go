package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Tiliavir/worktime/internal/model"
)

const projectColumns = `id, user_id, name, color, description, archived, created_at`

func scanProject(row scanner) (*model.Project, error) {
	var (
		p         model.Project
		archived  int
		createdAt int64
	)
	if err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.Color, &p.Description, &archived, &createdAt); err != nil {
		return nil, err
	}
	p.Archived = archived == 1
	p.CreatedAt = fromMillis(createdAt)
	return &p, nil
}

// CreateProject inserts p. An empty ID is generated.
func (s *Store) CreateProject(ctx context.Context, p *model.Project) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.UserID == "" || p.Name == "" {
		return fmt.Errorf("%w: project needs a user and a name", ErrInvalidInput)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = s.now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, p.Color, p.Description, boolInt(p.Archived), toMillis(p.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: project %q already exists", ErrConflict, p.Name)
		}
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetProject returns the project id owned by userID.
func (s *Store) GetProject(ctx context.Context, userID, id string) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE id = ? AND user_id = ?`, id, userID)
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// ProjectByName returns the user's project called name.
func (s *Store) ProjectByName(ctx context.Context, userID, name string) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = ? AND name = ?`, userID, strings.TrimSpace(name))
	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return p, nil
}

// EnsureProject returns the user's project called name, creating it if needed.
func (s *Store) EnsureProject(ctx context.Context, userID, name string) (*model.Project, error) {
	p, err := s.ProjectByName(ctx, userID, name)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	p = &model.Project{UserID: userID, Name: name}
	if err := s.CreateProject(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ListProjects returns the user's projects by name.
func (s *Store) ListProjects(ctx context.Context, userID string) ([]model.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+projectColumns+` FROM projects WHERE user_id = ? ORDER BY name ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer rows.Close()

	projects := []model.Project{}
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// UpdateProject replaces name, color, description and archived.
func (s *Store) UpdateProject(ctx context.Context, p *model.Project) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return fmt.Errorf("%w: project name is required", ErrInvalidInput)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE projects SET name = ?, color = ?, description = ?, archived = ?
		WHERE id = ? AND user_id = ?`,
		p.Name, p.Color, p.Description, boolInt(p.Archived), p.ID, p.UserID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: project %q already exists", ErrConflict, p.Name)
		}
		return fmt.Errorf("failed to update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProject removes a project that has no time entries.
func (s *Store) DeleteProject(ctx context.Context, userID, id string) error {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM time_entries WHERE project_id = ?`, id).Scan(&n); err != nil {
		return fmt.Errorf("failed to count project entries: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: project has %d time entries", ErrConflict, n)
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
