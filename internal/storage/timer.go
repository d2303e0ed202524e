package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/Tiliavir/worktime/internal/model"
	"github.com/Tiliavir/worktime/internal/timecalc"
)

// closeEntry stops a running entry at at. Time accumulated before a resume is
// carried in the stored duration.
func closeEntry(e *model.TimeEntry, at time.Time) {
	if at.Before(e.Start) {
		at = e.Start
	}
	elapsed := int64(at.Sub(e.Start) / time.Second)
	if e.DurationSeconds != nil {
		elapsed += *e.DurationSeconds
	}
	end := at
	e.End = &end
	e.DurationSeconds = &elapsed
	e.IsRunning = false
	e.UpdatedAt = at
}

// carriedSeconds is the part of the stored duration that was accumulated
// before the entry's current start.
func carriedSeconds(e *model.TimeEntry) int64 {
	if e.DurationSeconds == nil {
		return 0
	}
	carried := *e.DurationSeconds
	if e.End != nil {
		if span := int64(e.End.Sub(e.Start) / time.Second); span > 0 {
			carried -= span
		}
	}
	if carried < 0 {
		return 0
	}
	return carried
}

// Reschedule moves the bounds of e to start and end, where nil keeps the
// current bound. Time carried over from before a resume is kept. Setting an
// end on a running entry closes it.
func Reschedule(e *model.TimeEntry, start, end *time.Time) {
	if start == nil && end == nil {
		return
	}
	carried := carriedSeconds(e)
	if start != nil {
		e.Start = *start
	}
	if end != nil {
		t := *end
		e.End = &t
	}
	if e.End == nil {
		if carried > 0 || e.DurationSeconds != nil {
			e.DurationSeconds = &carried
		}
		return
	}
	d := carried
	if span := int64(e.End.Sub(e.Start) / time.Second); span > 0 {
		d += span
	}
	e.DurationSeconds = &d
	e.IsRunning = false
}

func appendComment(e *model.TimeEntry, comment *string) {
	if comment == nil || *comment == "" {
		return
	}
	if e.Comment != nil && *e.Comment != "" {
		merged := *e.Comment + "\n" + *comment
		e.Comment = &merged
		return
	}
	c := *comment
	e.Comment = &c
}

// withTx runs fn inside a transaction.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: concurrent timer start", ErrConflict)
		}
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// stopRunningTx closes the user's running entry inside tx, if any.
func stopRunningTx(ctx context.Context, tx *sql.Tx, userID string, at time.Time) (*model.TimeEntry, error) {
	running, err := findRunning(ctx, tx, userID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	closeEntry(running, at)
	if err := updateEntry(ctx, tx, running); err != nil {
		return nil, err
	}
	return running, nil
}

// StartTimer stops the user's running timer, if any, and inserts e as the new
// running entry in one transaction. A zero e.Start means now. The stopped
// entry is returned, or nil when nothing was running.
//
// The partial unique index on running entries turns a lost race with another
// writer into ErrConflict instead of a second running timer.
func (s *Store) StartTimer(ctx context.Context, e *model.TimeEntry) (*model.TimeEntry, error) {
	if e.Start.IsZero() {
		e.Start = s.now()
	}
	e.End = nil
	e.DurationSeconds = nil
	if e.Source == "" {
		e.Source = model.SourceTimer
	}
	if err := validateEntry(e); err != nil {
		return nil, err
	}
	if e.ID == "" {
		e.ID = timecalc.GenerateID(e.Start)
	}
	e.CreatedAt, e.UpdatedAt = e.Start, e.Start

	var stopped *model.TimeEntry
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		stopped, err = stopRunningTx(ctx, tx, e.UserID, e.Start)
		if err != nil {
			return err
		}
		return insertEntry(ctx, tx, e)
	})
	if err != nil {
		return nil, err
	}

	log := s.logger.Info().Str("user", e.UserID).Str("entry", e.ID).Str("project", e.ProjectID)
	if stopped != nil {
		log = log.Str("stopped", stopped.ID)
	}
	log.Msg("timer started")
	return stopped, nil
}

// StopTimer closes the user's running timer at at, appending comment.
func (s *Store) StopTimer(ctx context.Context, userID string, at time.Time, comment *string) (*model.TimeEntry, error) {
	var stopped *model.TimeEntry
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		running, err := findRunning(ctx, tx, userID)
		if err != nil {
			return err
		}
		appendComment(running, comment)
		closeEntry(running, at)
		if err := updateEntry(ctx, tx, running); err != nil {
			return err
		}
		stopped = running
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user", userID).Str("entry", stopped.ID).Int64("duration_seconds", *stopped.DurationSeconds).Msg("timer stopped")
	return stopped, nil
}

// ResumeTimer reopens the closed entry id at at, keeping its accumulated
// duration. Any other running timer of the user is stopped first.
func (s *Store) ResumeTimer(ctx context.Context, userID, id string, at time.Time) (*model.TimeEntry, error) {
	var resumed *model.TimeEntry
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		e, err := getEntry(ctx, tx, userID, id)
		if err != nil {
			return err
		}
		if e.IsRunning {
			resumed = e
			return nil
		}
		if _, err := stopRunningTx(ctx, tx, userID, at); err != nil {
			return err
		}

		var carried int64
		if e.DurationSeconds != nil {
			carried = *e.DurationSeconds
		} else if e.End != nil {
			carried = int64(e.End.Sub(e.Start) / time.Second)
		}
		e.Start = at
		e.End = nil
		e.DurationSeconds = &carried
		e.IsRunning = true
		e.UpdatedAt = at
		if err := updateEntry(ctx, tx, e); err != nil {
			return err
		}
		resumed = e
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("user", userID).Str("entry", id).Msg("timer resumed")
	return resumed, nil
}

// PauseTimer closes the user's running timer at at so that it can later be
// picked up again with ResumeTimer. The paused entry is returned.
func (s *Store) PauseTimer(ctx context.Context, userID string, at time.Time) (*model.TimeEntry, error) {
	paused, err := s.StopTimer(ctx, userID, at, nil)
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("user", userID).Str("entry", paused.ID).Msg("timer paused")
	return paused, nil
}
