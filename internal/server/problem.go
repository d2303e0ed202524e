package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"github.com/Tiliavir/worktime/internal/storage"
)

// ProblemDetail is an RFC 7807 error body.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}

// problemResponse returns an RFC 7807 Problem Detail error response.
func problemResponse(c *fiber.Ctx, status int, errType, title, detail string) error {
	return c.Status(status).JSON(ProblemDetail{
		Type:     errType,
		Title:    title,
		Status:   status,
		Detail:   detail,
		Instance: c.Path(),
	}, "application/problem+json")
}

func statusTitle(code int) string {
	return utils.StatusMessage(code)
}

func badRequest(c *fiber.Ctx, errType, detail string) error {
	return problemResponse(c, fiber.StatusBadRequest, errType, "Bad Request", detail)
}

// storeError translates storage errors into problem responses.
func (s *Server) storeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return problemResponse(c, fiber.StatusNotFound, "not_found", "Not Found", err.Error())
	case errors.Is(err, storage.ErrConflict):
		s.metrics.RecordError("storage", "conflict")
		return problemResponse(c, fiber.StatusConflict, "conflict", "Conflict", err.Error())
	case errors.Is(err, storage.ErrInvalidInput):
		return badRequest(c, "invalid_input", err.Error())
	default:
		s.metrics.RecordError("storage", "internal")
		s.logger.Error().Err(err).Str("path", c.Path()).Str("request_id", requestID(c)).Msg("storage error")
		return problemResponse(c, fiber.StatusInternalServerError, "internal_error", "Internal Server Error",
			"An internal error occurred")
	}
}
