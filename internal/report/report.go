// Package report composes the timecalc engine into the daily and weekly
// summaries served by the stats endpoint and printed by the CLI.
package report

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tiliavir/worktime/internal/model"
	"github.com/Tiliavir/worktime/internal/timecalc"
)

// DefaultThresholdHours is used when Options.ThresholdHours is nil.
const DefaultThresholdHours = 10

// Range kinds accepted by Window.
const (
	RangeDay  = "day"
	RangeWeek = "week"
)

// Targets are the resolved work targets in decimal hours.
type Targets struct {
	PerDay       string  `json:"work_hours_per_day"`
	PerWeek      string  `json:"work_hours_per_week"`
	PerDayHours  float64 `json:"per_day_hours"`
	PerWeekHours float64 `json:"per_week_hours"`
}

// ResolveTargets converts site settings into decimal targets. A value that
// does not parse falls back to its default and is logged; it never fails.
func ResolveTargets(st model.SiteSettings, logger zerolog.Logger) Targets {
	t := Targets{PerDay: st.WorkHoursPerDay, PerWeek: st.WorkHoursPerWeek}

	h, err := timecalc.ParseHHMM(t.PerDay)
	if err != nil {
		logger.Warn().Err(err).Str("fallback", model.DefaultWorkHoursPerDay).Msg("invalid work hours per day, using default")
		t.PerDay = model.DefaultWorkHoursPerDay
		h, _ = timecalc.ParseHHMM(t.PerDay)
	}
	t.PerDayHours = h

	h, err = timecalc.ParseHHMM(t.PerWeek)
	if err != nil {
		logger.Warn().Err(err).Str("fallback", model.DefaultWorkHoursPerWeek).Msg("invalid work hours per week, using default")
		t.PerWeek = model.DefaultWorkHoursPerWeek
		h, _ = timecalc.ParseHHMM(t.PerWeek)
	}
	t.PerWeekHours = h
	return t
}

// Options controls Build.
type Options struct {
	// Now is the clock reading used for running entries. Zero means time.Now.
	Now time.Time
	// Location decides day boundaries. Nil means time.Local.
	Location *time.Location
	// ThresholdHours flags days worked strictly longer. Nil means
	// DefaultThresholdHours; zero flags any day with worked time.
	ThresholdHours *float64
	Settings       model.SiteSettings
	// From and To bound the report as [From, To), usually from Window. Days in the window
	// without entries are still reported with their targets. When either is
	// zero, only days that have entries are reported.
	From   time.Time
	To     time.Time
	Logger zerolog.Logger
}

// DayReport is the aggregate of a single calendar day.
type DayReport struct {
	Day                  string            `json:"day"`
	Weekday              string            `json:"weekday"`
	TotalDurationSeconds int64             `json:"total_duration_seconds"`
	Hours                float64           `json:"hours"`
	EntryCount           int               `json:"entry_count"`
	IsRunning            bool              `json:"is_running"`
	Progress             timecalc.Progress `json:"progress"`
	OverlapIDs           []string          `json:"overlap_ids"`
	OverlapPairs         int               `json:"overlap_pairs"`
	LongDay              bool              `json:"long_day"`
	Groups               []timecalc.Group  `json:"groups"`
}

// Summary is the aggregate of a report window.
type Summary struct {
	From                 string             `json:"from,omitempty"`
	To                   string             `json:"to,omitempty"`
	Week                 string             `json:"week,omitempty"`
	GeneratedAt          time.Time          `json:"generated_at"`
	TotalDurationSeconds int64              `json:"total_duration_seconds"`
	TotalHours           float64            `json:"total_hours"`
	EntryCount           int                `json:"entry_count"`
	IsRunning            bool               `json:"is_running"`
	Targets              Targets            `json:"targets"`
	ThresholdHours       float64            `json:"threshold_hours"`
	// Progress compares the total against the summed daily targets.
	Progress timecalc.Progress `json:"progress"`
	// WeekProgress compares the total against the weekly target.
	WeekProgress timecalc.Progress  `json:"week_progress"`
	Days         []DayReport        `json:"days"`
	Groups       []timecalc.Group   `json:"groups"`
	LongDays     []timecalc.LongDay `json:"long_days"`
	OverlapPairs int                `json:"overlap_pairs"`
	Skipped      []string           `json:"skipped"`
}

// Window returns the half-open bounds [from, to) of the day or ISO week
// containing date in loc.
func Window(kind string, date time.Time, loc *time.Location) (time.Time, time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	d := date.In(loc)
	switch kind {
	case RangeDay, "":
		return timecalc.StartOfDay(d), timecalc.NextDay(d), nil
	case RangeWeek:
		from, to := timecalc.WeekRange(d)
		return from, to, nil
	default:
		return time.Time{}, time.Time{}, fmt.Errorf("unknown range %q (want day or week)", kind)
	}
}

// Build aggregates entries into a Summary. Malformed entries are skipped and
// logged, so one bad record never blanks a report.
func Build(entries []model.TimeEntry, opts Options) Summary {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	threshold := float64(DefaultThresholdHours)
	if opts.ThresholdHours != nil {
		threshold = *opts.ThresholdHours
	}
	bounded := !opts.From.IsZero() && !opts.To.IsZero()

	ivs, skipped := timecalc.NormalizeAll(entries, now, loc)
	for _, id := range skipped {
		opts.Logger.Warn().Str("entry", id).Msg("skipping malformed entry")
	}

	var fromKey, toKey string
	if bounded {
		fromKey = timecalc.DayKeyOf(opts.From, loc)
		toKey = timecalc.DayKeyOf(lastInstant(opts.To), loc)
		ivs = inWindow(ivs, fromKey, toKey)
	}

	targets := ResolveTargets(opts.Settings, opts.Logger)
	byDay := timecalc.GroupByDay(ivs)
	totals := timecalc.DailyTotals(byDay)

	keys := timecalc.DayKeys(byDay)
	if bounded {
		all := timecalc.DaysBetween(opts.From, lastInstant(opts.To), loc)
		keys = make([]string, 0, len(all))
		for i := len(all) - 1; i >= 0; i-- {
			keys = append(keys, all[i])
		}
	}

	s := Summary{
		From:           fromKey,
		To:             toKey,
		GeneratedAt:    now,
		Targets:        targets,
		ThresholdHours: threshold,
		Days:           make([]DayReport, 0, len(keys)),
		Groups:         timecalc.GroupByProjectAndTask(ivs),
		LongDays:       timecalc.DetectLongDays(totals, threshold),
		Skipped:        skipped,
	}
	if bounded {
		s.Week = timecalc.ISOWeekLabel(opts.From.In(loc))
	}
	if s.LongDays == nil {
		s.LongDays = []timecalc.LongDay{}
	}
	if s.Skipped == nil {
		s.Skipped = []string{}
	}

	var targetSum float64
	for _, key := range keys {
		dr := buildDay(key, byDay[key], targets, threshold, loc)
		targetSum += dr.Progress.TargetHours
		s.TotalDurationSeconds += dr.TotalDurationSeconds
		s.EntryCount += dr.EntryCount
		s.OverlapPairs += dr.OverlapPairs
		if dr.IsRunning {
			s.IsRunning = true
		}
		s.Days = append(s.Days, dr)
	}
	s.TotalHours = hours(s.TotalDurationSeconds)
	s.Progress = timecalc.ComputeProgress(s.TotalHours, targetSum)
	s.WeekProgress = timecalc.ComputeProgress(s.TotalHours, targets.PerWeekHours)
	return s
}

func buildDay(key string, g timecalc.Group, targets Targets, threshold float64, loc *time.Location) DayReport {
	dr := DayReport{
		Day:                  key,
		TotalDurationSeconds: g.TotalDurationSeconds,
		Hours:                hours(g.TotalDurationSeconds),
		EntryCount:           g.EntryCount,
		IsRunning:            g.IsRunning,
		Groups:               timecalc.GroupByProjectAndTask(g.Entries),
	}

	target := targets.PerDayHours
	if t, err := timecalc.ParseDayKey(key, loc); err == nil {
		dr.Weekday = t.Weekday().String()
		target = timecalc.DailyTarget(t.Weekday(), targets.PerDayHours)
	}
	dr.Progress = timecalc.ComputeProgress(dr.Hours, target)

	pairs := timecalc.OverlapPairs(g.Entries)
	dr.OverlapPairs = len(pairs)
	dr.OverlapIDs = timecalc.SortedIDs(timecalc.DetectOverlaps(g.Entries))
	dr.LongDay = dr.Hours > threshold
	return dr
}

// inWindow keeps the intervals whose day key lies in [from, to].
func inWindow(ivs []timecalc.Interval, from, to string) []timecalc.Interval {
	out := ivs[:0:0]
	for _, iv := range ivs {
		if iv.DayKey >= from && iv.DayKey <= to {
			out = append(out, iv)
		}
	}
	return out
}

// lastInstant is the latest time inside a window ending at the exclusive to.
func lastInstant(to time.Time) time.Time {
	return to.Add(-time.Nanosecond)
}

func hours(seconds int64) float64 {
	return float64(seconds) / 3600
}
