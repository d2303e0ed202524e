package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Tiliavir/worktime/internal/model"
)

type projectRequest struct {
	Name        *string `json:"name"`
	Color       *string `json:"color"`
	Description *string `json:"description"`
	Archived    *bool   `json:"archived"`
}

func (r projectRequest) apply(p *model.Project) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Color != nil {
		p.Color = *r.Color
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Archived != nil {
		p.Archived = *r.Archived
	}
}

// listProjects handles GET /api/v1/projects.
func (s *Server) listProjects(c *fiber.Ctx) error {
	projects, err := s.store.ListProjects(c.UserContext(), currentUser(c).ID)
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(projects)
}

// createProject handles POST /api/v1/projects.
func (s *Server) createProject(c *fiber.Ctx) error {
	var req projectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}
	if req.Name == nil || *req.Name == "" {
		return badRequest(c, "missing_name", "Project name is required")
	}

	p := &model.Project{UserID: currentUser(c).ID}
	req.apply(p)
	if err := s.store.CreateProject(c.UserContext(), p); err != nil {
		return s.storeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// getProject handles GET /api/v1/projects/:id.
func (s *Server) getProject(c *fiber.Ctx) error {
	p, err := s.store.GetProject(c.UserContext(), currentUser(c).ID, c.Params("id"))
	if err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(p)
}

// updateProject handles PATCH /api/v1/projects/:id.
func (s *Server) updateProject(c *fiber.Ctx) error {
	var req projectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid_body", "Invalid request body: "+err.Error())
	}

	p, err := s.store.GetProject(c.UserContext(), currentUser(c).ID, c.Params("id"))
	if err != nil {
		return s.storeError(c, err)
	}
	req.apply(p)
	if err := s.store.UpdateProject(c.UserContext(), p); err != nil {
		return s.storeError(c, err)
	}
	return c.JSON(p)
}

// deleteProject handles DELETE /api/v1/projects/:id.
func (s *Server) deleteProject(c *fiber.Ctx) error {
	if err := s.store.DeleteProject(c.UserContext(), currentUser(c).ID, c.Params("id")); err != nil {
		return s.storeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
