package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Tiliavir/worktime/internal/model"
)

const userColumns = `id, email, display_name, role, created_at`

func scanUser(row scanner) (*model.User, error) {
	var (
		u         model.User
		role      string
		createdAt int64
	)
	if err := row.Scan(&u.ID, &u.Email, &u.DisplayName, &role, &createdAt); err != nil {
		return nil, err
	}
	u.Role = model.Role(role)
	u.CreatedAt = fromMillis(createdAt)
	return &u, nil
}

// UpsertUser records an identity seen at the identity provider. Email and
// display name are refreshed; the stored role is never downgraded here.
// When the user is new, u.Role (default user) is stored. u is updated with
// the stored record.
func (s *Store) UpsertUser(ctx context.Context, u *model.User) error {
	if u.ID == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	if !u.Role.Valid() {
		u.Role = model.RoleUser
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		    email = CASE WHEN excluded.email != '' THEN excluded.email ELSE users.email END,
		    display_name = CASE WHEN excluded.display_name != '' THEN excluded.display_name ELSE users.display_name END,
		    role = CASE WHEN excluded.role = 'admin' THEN 'admin' ELSE users.role END`,
		u.ID, u.Email, u.DisplayName, string(u.Role), toMillis(s.now()),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	stored, err := s.GetUser(ctx, u.ID)
	if err != nil {
		return err
	}
	*u = *stored
	return nil
}

// GetUser returns the user id.
func (s *Store) GetUser(ctx context.Context, id string) (*model.User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// ListUsers returns all users by creation time.
func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// SetUserRole changes a user's role.
func (s *Store) SetUserRole(ctx context.Context, id string, role model.Role) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidInput, role)
	}
	res, err := s.db.ExecContext(ctx, `UPDATE users SET role = ? WHERE id = ?`, string(role), id)
	if err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	s.logger.Info().Str("user", id).Str("role", string(role)).Msg("user role changed")
	return nil
}
