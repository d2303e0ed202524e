package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Tiliavir/worktime/internal/model"
)

// me handles GET /api/v1/me.
func (s *Server) me(c *fiber.Ctx) error {
	return c.JSON(currentUser(c))
}

// getSettings handles GET /api/v1/settings.
func (s *Server) getSettings(c *fiber.Ctx) error {
	st, err := s.store.GetSettings(c.UserContext())
	if err != nil {
		// Defaults are still usable.
		s.logger.Warn().Err(err).Msg("settings unavailable, serving defaults")
	}
	return c.JSON(st)
}

// putSettings handles PUT /api/v1/settings.
func (s *Server) putSettings(c *fiber.Ctx) error {
	var req model.SiteSettings
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	req.UpdatedBy = currentUser(c).ID
	if err := s.store.PutSettings(c.UserContext(), &req); err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(req)
}

// listUsers handles GET /api/v1/users.
func (s *Server) listUsers(c *fiber.Ctx) error {
	users, err := s.store.ListUsers(c.UserContext())
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(users)
}

type roleRequest struct {
	Role model.Role `json:"role"`
}

// setUserRole handles PATCH /api/v1/users/:id/role.
func (s *Server) setUserRole(c *fiber.Ctx) error {
	var req roleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	id := c.Params("id")
	if err := s.store.SetUserRole(c.UserContext(), id, req.Role); err != nil {
		return s.storeError(c, err)
	}
	u, err := s.store.GetUser(c.UserContext(), id)
	if err != nil {
		return s.storeError(c, err)
	}
	s.logger.Info().Str("by", currentUser(c).ID).Str("user", id).Str("role", string(u.Role)).Msg("role updated")
	return c.JSON(u)
}
