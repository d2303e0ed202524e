package server

import (
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Tiliavir/worktime/internal/report"
	"github.com/Tiliavir/worktime/internal/storage"
	"github.com/Tiliavir/worktime/internal/timecalc"
)

// stats handles GET /api/v1/time-entries/stats.
//
// Query: range=day|week (default week), date=YYYY-MM-DD (default today),
// project, threshold (hours) and tz (IANA zone).
func (s *Server) stats(c *fiber.Ctx) error {
	loc := s.config.Location
	if tz := c.Query("tz"); tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return badRequest(c, "invalid_tz", "Unknown time zone: "+tz)
		}
		loc = l
	}

	now := s.now()
	date := now
	if d := c.Query("date"); d != "" {
		t, err := timecalc.ParseDayKey(d, loc)
		if err != nil {
			return badRequest(c, "invalid_date", err.Error())
		}
		date = t
	}

	from, to, err := report.Window(c.Query("range", report.RangeWeek), date, loc)
	if err != nil {
		return badRequest(c, "invalid_range", err.Error())
	}

	threshold := s.config.ThresholdHours
	if v := c.Query("threshold"); v != "" {
		h, err := strconv.ParseFloat(v, 64)
		if err != nil || h < 0 || math.IsNaN(h) || math.IsInf(h, 0) {
			return badRequest(c, "invalid_threshold", "threshold must be a non-negative number of hours")
		}
		threshold = &h
	}

	user := currentUser(c)
	entries, err := s.store.ListEntries(c.UserContext(), storage.EntryFilter{
		UserID:    user.ID,
		ProjectID: c.Query("project"),
		From:      &from,
		To:        &to,
	})
	if err != nil {
		// A failed fetch degrades to an empty report.
		s.logger.Warn().Err(err).Str("user", user.ID).Msg("stats: listing entries failed")
		s.metrics.RecordError("stats", "list_entries")
		entries = nil
	}

	settings, err := s.store.GetSettings(c.UserContext())
	if err != nil {
		s.logger.Warn().Err(err).Msg("stats: settings unavailable, using defaults")
	}

	summary := report.Build(entries, report.Options{
		Now:            now,
		Location:       loc,
		ThresholdHours: threshold,
		Settings:       settings,
		From:           from,
		To:             to,
		Logger:         s.logger,
	})
	s.metrics.RecordReport(len(summary.Skipped), summary.OverlapPairs)
	return c.JSON(summary)
}
