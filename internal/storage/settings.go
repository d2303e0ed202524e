package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/Tiliavir/worktime/internal/model"
	"github.com/Tiliavir/worktime/internal/timecalc"
)

// GetSettings returns the site settings, or the defaults when none are stored.
func (s *Store) GetSettings(ctx context.Context) (model.SiteSettings, error) {
	var (
		st        model.SiteSettings
		updatedAt int64
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT work_hours_per_day, work_hours_per_week, updated_at, updated_by
		FROM site_settings WHERE id = 1`).Scan(&st.WorkHoursPerDay, &st.WorkHoursPerWeek, &updatedAt, &st.UpdatedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DefaultSiteSettings(), nil
	}
	if err != nil {
		return model.DefaultSiteSettings(), fmt.Errorf("failed to get settings: %w", err)
	}
	st.UpdatedAt = fromMillis(updatedAt)
	return st, nil
}

// PutSettings validates and stores the site settings.
func (s *Store) PutSettings(ctx context.Context, st *model.SiteSettings) error {
	if _, err := timecalc.ParseHHMM(st.WorkHoursPerDay); err != nil {
		return fmt.Errorf("%w: work hours per day: %v", ErrInvalidInput, err)
	}
	if _, err := timecalc.ParseHHMM(st.WorkHoursPerWeek); err != nil {
		return fmt.Errorf("%w: work hours per week: %v", ErrInvalidInput, err)
	}
	st.UpdatedAt = s.now()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO site_settings (id, work_hours_per_day, work_hours_per_week, updated_at, updated_by)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
		    work_hours_per_day = excluded.work_hours_per_day,
		    work_hours_per_week = excluded.work_hours_per_week,
		    updated_at = excluded.updated_at,
		    updated_by = excluded.updated_by`,
		st.WorkHoursPerDay, st.WorkHoursPerWeek, toMillis(st.UpdatedAt), st.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	s.logger.Info().Str("per_day", st.WorkHoursPerDay).Str("per_week", st.WorkHoursPerWeek).Str("by", st.UpdatedBy).Msg("site settings updated")
	return nil
}
