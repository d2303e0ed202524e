package server

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Tiliavir/worktime/internal/model"
	"github.com/Tiliavir/worktime/internal/storage"
	"github.com/Tiliavir/worktime/internal/timecalc"
)

// entryRequest is the body of entry creation and update. Absent fields are
// left unchanged on update.
type entryRequest struct {
	ProjectID *string    `json:"project_id"`
	Task      *string    `json:"task"`
	Comment   *string    `json:"comment"`
	Tags      []string   `json:"tags"`
	Start     *time.Time `json:"start"`
	End       *time.Time `json:"end"`
}

func (r entryRequest) apply(e *model.TimeEntry) {
	if r.ProjectID != nil {
		e.ProjectID = *r.ProjectID
	}
	if r.Task != nil {
		e.Task = *r.Task
	}
	if r.Comment != nil {
		e.Comment = r.Comment
	}
	if r.Tags != nil {
		e.Tags = r.Tags
	}
	storage.Reschedule(e, r.Start, r.End)
}

type timerRequest struct {
	ProjectID string     `json:"project_id"`
	Project   string     `json:"project"`
	Task      string     `json:"task"`
	Comment   *string    `json:"comment"`
	Tags      []string   `json:"tags"`
	At        *time.Time `json:"at"`
}

type runningResponse struct {
	Entry          *model.TimeEntry `json:"entry"`
	ElapsedSeconds int64            `json:"elapsed_seconds"`
}

type startResponse struct {
	Entry   *model.TimeEntry `json:"entry"`
	Stopped *model.TimeEntry `json:"stopped,omitempty"`
}

// parseOptionalBody parses the body into out unless it is empty.
func parseOptionalBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(out)
}

// checkProject verifies that the caller owns projectID.
func (s *Server) checkProject(c *fiber.Ctx, projectID string) error {
	if projectID == "" {
		return badRequest(c, "missing_project", "project_id is required")
	}
	if _, err := s.store.GetProject(c.UserContext(), currentUser(c).ID, projectID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return badRequest(c, "unknown_project", "Unknown project: "+projectID)
		}
		return s.storeError(c, err)
	}
	return nil
}

// parseBound parses a from/to query value: a day key in loc or RFC 3339.
// The upper bound is exclusive, so a day key as upper bound includes the
// whole day.
func parseBound(value string, loc *time.Location, upper bool) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := timecalc.ParseDayKey(value, loc)
	if err != nil {
		return nil, err
	}
	if upper {
		t = timecalc.NextDay(t)
	}
	return &t, nil
}

// listEntries handles GET /api/v1/time-entries.
func (s *Server) listEntries(c *fiber.Ctx) error {
	from, err := parseBound(c.Query("from"), s.config.Location, false)
	if err != nil {
		return badRequest(c, "invalid_from", err.Error())
	}
	to, err := parseBound(c.Query("to"), s.config.Location, true)
	if err != nil {
		return badRequest(c, "invalid_to", err.Error())
	}

	entries, err := s.store.ListEntries(c.UserContext(), storage.EntryFilter{
		UserID:    currentUser(c).ID,
		ProjectID: c.Query("project"),
		From:      from,
		To:        to,
	})
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(entries)
}

// createEntry handles POST /api/v1/time-entries.
func (s *Server) createEntry(c *fiber.Ctx) error {
	var req entryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	e := &model.TimeEntry{UserID: currentUser(c).ID, Source: model.SourceManual}
	req.apply(e)
	if err := s.checkProject(c, e.ProjectID); err != nil {
		return err
	}
	if err := s.store.CreateEntry(c.UserContext(), e); err != nil {
		return s.storeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(e)
}

// getEntry handles GET /api/v1/time-entries/:id.
func (s *Server) getEntry(c *fiber.Ctx) error {
	e, err := s.store.GetEntry(c.UserContext(), currentUser(c).ID, c.Params("id"))
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(e)
}

// updateEntry handles PATCH /api/v1/time-entries/:id.
func (s *Server) updateEntry(c *fiber.Ctx) error {
	var req entryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}

	e, err := s.store.GetEntry(c.UserContext(), currentUser(c).ID, c.Params("id"))
	if err != nil {
		return s.storeError(c, err)
	}
	req.apply(e)
	if req.ProjectID != nil {
		if err := s.checkProject(c, e.ProjectID); err != nil {
			return err
		}
	}
	if err := s.store.UpdateEntry(c.UserContext(), e); err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(e)
}

// deleteEntry handles DELETE /api/v1/time-entries/:id.
func (s *Server) deleteEntry(c *fiber.Ctx) error {
	if err := s.store.DeleteEntry(c.UserContext(), currentUser(c).ID, c.Params("id")); err != nil {
		return s.storeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// runningEntry handles GET /api/v1/time-entries/running.
func (s *Server) runningEntry(c *fiber.Ctx) error {
	e, err := s.store.FindRunning(c.UserContext(), currentUser(c).ID)
	if errors.Is(err, storage.ErrNotFound) {
		return c.JSON(runningResponse{})
	}
	if err != nil {
		return s.storeError(c, err)
	}
	resp := runningResponse{Entry: e}
	if iv, err := timecalc.Normalize(*e, s.now(), s.config.Location); err == nil {
		resp.ElapsedSeconds = iv.DurationSeconds
	}
	return c.JSON(resp)
}

// startTimer handles POST /api/v1/time-entries/start.
func (s *Server) startTimer(c *fiber.Ctx) error {
	var req timerRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	user := currentUser(c)

	if req.ProjectID == "" && req.Project != "" {
		p, err := s.store.EnsureProject(c.UserContext(), user.ID, req.Project)
		if err != nil {
			return s.storeError(c, err)
		}
		req.ProjectID = p.ID
	}
	if err := s.checkProject(c, req.ProjectID); err != nil {
		return err
	}

	e := &model.TimeEntry{
		UserID:    user.ID,
		ProjectID: req.ProjectID,
		Task:      req.Task,
		Comment:   req.Comment,
		Tags:      req.Tags,
		Source:    model.SourceTimer,
	}
	if req.At != nil {
		e.Start = *req.At
	}
	stopped, err := s.store.StartTimer(c.UserContext(), e)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			s.metrics.TimerConflicts.Inc()
		}
		return s.storeError(c, err)
	}
	s.metrics.TimersStarted.Inc()
	return c.Status(fiber.StatusCreated).JSON(startResponse{Entry: e, Stopped: stopped})
}

// stopTimer handles POST /api/v1/time-entries/stop.
func (s *Server) stopTimer(c *fiber.Ctx) error {
	var req timerRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	at := s.now()
	if req.At != nil {
		at = *req.At
	}
	e, err := s.store.StopTimer(c.UserContext(), currentUser(c).ID, at, req.Comment)
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(e)
}

// pauseTimer handles POST /api/v1/time-entries/pause.
func (s *Server) pauseTimer(c *fiber.Ctx) error {
	var req timerRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	at := s.now()
	if req.At != nil {
		at = *req.At
	}
	e, err := s.store.PauseTimer(c.UserContext(), currentUser(c).ID, at)
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(e)
}

// resumeTimer handles POST /api/v1/time-entries/:id/resume.
func (s *Server) resumeTimer(c *fiber.Ctx) error {
	var req timerRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	at := s.now()
	if req.At != nil {
		at = *req.At
	}
	e, err := s.store.ResumeTimer(c.UserContext(), currentUser(c).ID, c.Params("id"), at)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			s.metrics.TimerConflicts.Inc()
		}
		return s.storeError(c, err)
	}
	return c.JSON(e)
}
