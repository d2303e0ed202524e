package msgraph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tiliavir/worktime/internal/model"
	"github.com/Tiliavir/worktime/internal/storage"
	"github.com/Tiliavir/worktime/internal/timecalc"
)

// EntryStore is the persistence a sync needs. *storage.Store implements it.
type EntryStore interface {
	FindByExternalID(ctx context.Context, userID, externalID string) (*model.TimeEntry, error)
	CreateEntry(ctx context.Context, e *model.TimeEntry) error
	UpdateEntry(ctx context.Context, e *model.TimeEntry) error
}

// SyncResult holds counters for a sync operation.
type SyncResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
	Updated  int `json:"updated"`
	Filtered int `json:"filtered"`
	Errors   int `json:"errors"`
}

// SyncOptions configures a sync run.
type SyncOptions struct {
	UserID    string
	ProjectID string
	// Timezone interprets zone-less Graph times. Empty means UTC.
	Timezone string
	DryRun   bool
	// Out receives one progress line per event. Nil discards them.
	Out    io.Writer
	Logger zerolog.Logger
}

// parseGraphTime parses a Graph API dateTime string in the given timezone.
// Graph returns times like "2026-02-27T09:00:00.0000000" without a zone suffix
// when a Prefer: outlook.timezone header is set.
func parseGraphTime(dt, tz string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, time.RFC3339Nano} {
		if t, err := time.Parse(layout, dt); err == nil {
			return t, nil
		}
	}

	loc := time.UTC
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	for _, layout := range []string{
		"2006-01-02T15:04:05.0000000",
		"2006-01-02T15:04:05",
	} {
		if t, err := time.ParseInLocation(layout, dt, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse graph time %q", dt)
}

// buildComment combines bodyPreview and location into a comment string.
func buildComment(event CalendarEvent) *string {
	parts := []string{}
	if event.BodyPreview != "" {
		parts = append(parts, event.BodyPreview)
	}
	if event.Location.DisplayName != "" {
		parts = append(parts, event.Location.DisplayName)
	}
	if len(parts) == 0 {
		return nil
	}
	s := strings.Join(parts, "\n")
	return &s
}

// ShouldSkip reports whether an event is never imported: cancelled, all-day,
// private, shown as free, or without times.
func ShouldSkip(event CalendarEvent) bool {
	switch {
	case event.IsCancelled, event.IsAllDay:
		return true
	case event.Sensitivity == "private", event.ShowAs == "free":
		return true
	case event.Start.DateTime == "" || event.End.DateTime == "":
		return true
	}
	return false
}

// MapEventToEntry converts a Graph CalendarEvent into a closed time entry
// of userID on projectID.
func MapEventToEntry(event CalendarEvent, timezone, userID, projectID string) (model.TimeEntry, error) {
	startTime, err := parseGraphTime(event.Start.DateTime, timezone)
	if err != nil {
		return model.TimeEntry{}, fmt.Errorf("parsing start time: %w", err)
	}
	endTime, err := parseGraphTime(event.End.DateTime, timezone)
	if err != nil {
		return model.TimeEntry{}, fmt.Errorf("parsing end time: %w", err)
	}
	if endTime.Before(startTime) {
		return model.TimeEntry{}, fmt.Errorf("event ends before it starts")
	}

	dur := int64(endTime.Sub(startTime) / time.Second)
	return model.TimeEntry{
		ID:              timecalc.GenerateID(startTime),
		UserID:          userID,
		ProjectID:       projectID,
		Task:            event.Subject,
		Comment:         buildComment(event),
		Tags:            []string{model.SourceOutlook},
		Start:           startTime,
		End:             &endTime,
		DurationSeconds: &dur,
		Source:          model.SourceOutlook,
		ExternalID:      event.ID,
	}, nil
}

// unchanged reports whether an imported entry already matches the event.
func unchanged(found, entry *model.TimeEntry) bool {
	return found.Task == entry.Task &&
		found.ProjectID == entry.ProjectID &&
		found.Start.Equal(entry.Start) &&
		found.End != nil && entry.End != nil && found.End.Equal(*entry.End)
}

func durationSuffix(e model.TimeEntry) string {
	if e.DurationSeconds == nil {
		return ""
	}
	return fmt.Sprintf(" (%s)", timecalc.FormatDuration(*e.DurationSeconds))
}

// SyncEvents imports events into store, keyed by their Graph ID so repeated
// runs neither duplicate entries nor touch entries from other sources.
// Per-event failures are counted, not returned; the error is reserved for a
// cancelled context.
func SyncEvents(ctx context.Context, store EntryStore, events []CalendarEvent, opts SyncOptions) (SyncResult, error) {
	var result SyncResult
	out := opts.Out
	if out == nil {
		out = io.Discard
	}
	logger := opts.Logger.With().Str("component", "msgraph").Logger()

	for _, event := range events {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if ShouldSkip(event) {
			result.Filtered++
			continue
		}

		entry, err := MapEventToEntry(event, opts.Timezone, opts.UserID, opts.ProjectID)
		if err != nil {
			fmt.Fprintf(out, "  ! Error mapping event %q: %v\n", event.Subject, err)
			logger.Warn().Err(err).Str("event", event.ID).Msg("mapping event failed")
			result.Errors++
			continue
		}

		found, err := store.FindByExternalID(ctx, opts.UserID, event.ID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			fmt.Fprintf(out, "  ! Error looking up %q: %v\n", event.Subject, err)
			logger.Warn().Err(err).Str("event", event.ID).Msg("lookup failed")
			result.Errors++
			continue
		}

		if found != nil {
			if unchanged(found, &entry) {
				fmt.Fprintf(out, "  - Skipped:  %s (already exists)\n", event.Subject)
				result.Skipped++
				continue
			}
			entry.ID = found.ID
			entry.CreatedAt = found.CreatedAt
			if !opts.DryRun {
				if err := store.UpdateEntry(ctx, &entry); err != nil {
					fmt.Fprintf(out, "  ! Error updating %q: %v\n", event.Subject, err)
					logger.Warn().Err(err).Str("event", event.ID).Msg("update failed")
					result.Errors++
					continue
				}
			}
			fmt.Fprintf(out, "  ^ Updated:  %s%s\n", event.Subject, durationSuffix(entry))
			result.Updated++
			continue
		}

		if !opts.DryRun {
			if err := store.CreateEntry(ctx, &entry); err != nil {
				fmt.Fprintf(out, "  ! Error saving %q: %v\n", event.Subject, err)
				logger.Warn().Err(err).Str("event", event.ID).Msg("create failed")
				result.Errors++
				continue
			}
		}
		fmt.Fprintf(out, "  + Imported: %s%s\n", event.Subject, durationSuffix(entry))
		result.Imported++
	}

	logger.Info().
		Int("imported", result.Imported).
		Int("updated", result.Updated).
		Int("skipped", result.Skipped).
		Int("filtered", result.Filtered).
		Int("errors", result.Errors).
		Bool("dry_run", opts.DryRun).
		Msg("outlook sync finished")
	return result, nil
}
