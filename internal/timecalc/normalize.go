package timecalc

import (
	"errors"
	"time"

	"github.com/Tiliavir/worktime/internal/model"
)

// ErrMalformedEntry is returned for entries that cannot be placed on a
// timeline because their start time is missing.
var ErrMalformedEntry = errors.New("malformed entry: missing start time")

// Interval is the canonical view of a time entry used by every aggregation.
// It is rebuilt on each pass and never persisted.
type Interval struct {
	ID              string     `json:"id"`
	ProjectID       string     `json:"project_id"`
	Task            string     `json:"task"`
	DayKey          string     `json:"day"`
	Start           time.Time  `json:"start"`
	End             *time.Time `json:"end"`
	DurationSeconds int64      `json:"duration_seconds"`
}

// Running reports whether the interval has no end yet.
func (iv Interval) Running() bool {
	return iv.End == nil
}

// Normalize converts a stored entry into an Interval as seen at now.
//
// Closed entries keep their stored duration when it is present and
// non-negative. Running entries add the elapsed wall-clock time to any stored
// duration carried over from a pause. Negative spans (clock skew) count as
// zero; for running entries only the elapsed part is clamped, so carried time
// survives a start in the future. The day key is the start's calendar day in loc; entries
// crossing midnight are not split.
func Normalize(e model.TimeEntry, now time.Time, loc *time.Location) (Interval, error) {
	if e.Start.IsZero() {
		return Interval{}, ErrMalformedEntry
	}

	var dur int64
	if e.End != nil {
		if e.DurationSeconds != nil && *e.DurationSeconds >= 0 {
			dur = *e.DurationSeconds
		} else {
			dur = max(wholeSeconds(e.End.Sub(e.Start)), 0)
		}
	} else {
		dur = max(wholeSeconds(now.Sub(e.Start)), 0)
		if e.DurationSeconds != nil && *e.DurationSeconds > 0 {
			dur += *e.DurationSeconds
		}
	}

	iv := Interval{
		ID:              e.ID,
		ProjectID:       e.ProjectID,
		Task:            e.Task,
		DayKey:          DayKeyOf(e.Start, loc),
		Start:           e.Start,
		DurationSeconds: dur,
	}
	if e.End != nil {
		end := *e.End
		iv.End = &end
	}
	return iv, nil
}

// NormalizeAll normalizes entries in order. Malformed entries are left out
// and their IDs returned so the caller can log them.
func NormalizeAll(entries []model.TimeEntry, now time.Time, loc *time.Location) ([]Interval, []string) {
	out := make([]Interval, 0, len(entries))
	var skipped []string
	for _, e := range entries {
		iv, err := Normalize(e, now, loc)
		if err != nil {
			skipped = append(skipped, e.ID)
			continue
		}
		out = append(out, iv)
	}
	return out, skipped
}

// wholeSeconds floors d to whole seconds.
func wholeSeconds(d time.Duration) int64 {
	s := int64(d / time.Second)
	if d < 0 && d%time.Second != 0 {
		s--
	}
	return s
}
