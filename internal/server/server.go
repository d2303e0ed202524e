// Package server exposes worktime over a REST API built on Fiber.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Tiliavir/worktime/internal/metrics"
	"github.com/Tiliavir/worktime/internal/model"
	"github.com/Tiliavir/worktime/internal/storage"
)

// Store is the persistence the server needs. *storage.Store implements it.
type Store interface {
	Ping(ctx context.Context) error

	CreateEntry(ctx context.Context, e *model.TimeEntry) error
	GetEntry(ctx context.Context, userID, id string) (*model.TimeEntry, error)
	UpdateEntry(ctx context.Context, e *model.TimeEntry) error
	DeleteEntry(ctx context.Context, userID, id string) error
	ListEntries(ctx context.Context, f storage.EntryFilter) ([]model.TimeEntry, error)
	FindRunning(ctx context.Context, userID string) (*model.TimeEntry, error)

	StartTimer(ctx context.Context, e *model.TimeEntry) (*model.TimeEntry, error)
	StopTimer(ctx context.Context, userID string, at time.Time, comment *string) (*model.TimeEntry, error)
	PauseTimer(ctx context.Context, userID string, at time.Time) (*model.TimeEntry, error)
	ResumeTimer(ctx context.Context, userID, id string, at time.Time) (*model.TimeEntry, error)

	CreateProject(ctx context.Context, p *model.Project) error
	GetProject(ctx context.Context, userID, id string) (*model.Project, error)
	ListProjects(ctx context.Context, userID string) ([]model.Project, error)
	EnsureProject(ctx context.Context, userID, name string) (*model.Project, error)
	UpdateProject(ctx context.Context, p *model.Project) error
	DeleteProject(ctx context.Context, userID, id string) error

	GetSettings(ctx context.Context) (model.SiteSettings, error)
	PutSettings(ctx context.Context, st *model.SiteSettings) error

	UpsertUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context) ([]model.User, error)
	SetUserRole(ctx context.Context, id string, role model.Role) error
}

// Config holds configuration for the API server.
type Config struct {
	ListenAddr  string
	CORSOrigins string
	Auth        AuthConfig
	// Location decides day boundaries for stats unless a request passes tz.
	Location *time.Location
	// ThresholdHours is the long-day threshold for stats requests without
	// one. Nil means report.DefaultThresholdHours.
	ThresholdHours *float64
}

// Server is the worktime Fiber application.
type Server struct {
	app     *fiber.App
	store   Store
	metrics *metrics.Metrics
	logger  zerolog.Logger
	config  Config
	now     func() time.Time
}

// NewServer creates and configures a new API server. m may be nil.
func NewServer(cfg Config, store Store, m *metrics.Metrics, logger zerolog.Logger) *Server {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if m == nil {
		m = metrics.New()
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          customErrorHandler(logger),
		JSONEncoder:           json.Marshal,
		JSONDecoder:           json.Unmarshal,
	})

	s := &Server{
		app:     app,
		store:   store,
		metrics: m,
		logger:  logger.With().Str("component", "server").Logger(),
		config:  cfg,
		now:     time.Now,
	}

	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	// Request ID
	s.app.Use(func(c *fiber.Ctx) error {
		reqID := c.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Set("X-Request-ID", reqID)
		c.Locals("request_id", reqID)
		return c.Next()
	})

	if s.config.CORSOrigins != "" {
		s.app.Use(cors.New(cors.Config{
			AllowOrigins: s.config.CORSOrigins,
			AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID, X-User-ID",
			AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		}))
	}

	// Access log and request metrics.
	s.app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if err != nil {
			// Let the error handler write the response so the status is final.
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		path := c.Path()
		if path == "/health" || path == "/ready" || path == "/metrics" {
			return nil
		}
		status := c.Response().StatusCode()
		elapsed := time.Since(start)
		s.metrics.RecordRequest(c.Route().Path, c.Method(), strconv.Itoa(status), elapsed.Seconds())

		s.logger.Info().
			Str("method", c.Method()).
			Str("path", path).
			Int("status", status).
			Dur("duration", elapsed).
			Str("request_id", requestID(c)).
			Msg("api request")
		return nil
	})
}

func (s *Server) setupRoutes() {
	// Probes and metrics are not authenticated.
	s.app.Get("/health", s.health)
	s.app.Get("/ready", s.ready)
	s.app.Get("/metrics", adaptor.HTTPHandler(s.metrics.Handler()))

	v1 := s.app.Group("/api/v1", s.authMiddleware())

	v1.Get("/me", s.me)

	v1.Get("/projects", s.listProjects)
	v1.Post("/projects", s.createProject)
	v1.Get("/projects/:id", s.getProject)
	v1.Patch("/projects/:id", s.updateProject)
	v1.Delete("/projects/:id", s.deleteProject)

	// Static paths before /time-entries/:id.
	v1.Get("/time-entries", s.listEntries)
	v1.Post("/time-entries", s.createEntry)
	v1.Get("/time-entries/running", s.runningEntry)
	v1.Get("/time-entries/stats", s.stats)
	v1.Post("/time-entries/start", s.startTimer)
	v1.Post("/time-entries/stop", s.stopTimer)
	v1.Post("/time-entries/pause", s.pauseTimer)
	v1.Post("/time-entries/:id/resume", s.resumeTimer)
	v1.Get("/time-entries/:id", s.getEntry)
	v1.Patch("/time-entries/:id", s.updateEntry)
	v1.Delete("/time-entries/:id", s.deleteEntry)

	v1.Get("/settings", s.getSettings)
	v1.Put("/settings", requireRole(model.RoleAdmin), s.putSettings)
	v1.Get("/users", requireRole(model.RoleAdmin), s.listUsers)
	v1.Patch("/users/:id/role", requireRole(model.RoleAdmin), s.setUserRole)
}

// Start starts the server. Blocks until stopped.
func (s *Server) Start() error {
	addr := s.config.ListenAddr
	if addr == "" {
		addr = ":8080"
	}
	s.logger.Info().Str("addr", addr).Str("auth", s.config.Auth.Mode).Msg("API server starting")
	return s.app.Listen(addr)
}

// Shutdown gracefully shuts down the server, waiting at most timeout for
// in-flight requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	s.logger.Info().Msg("API server shutting down")
	return s.app.ShutdownWithTimeout(timeout)
}

// App returns the underlying Fiber app (useful for testing).
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) ready(c *fiber.Ctx) error {
	if err := s.store.Ping(c.UserContext()); err != nil {
		s.logger.Warn().Err(err).Msg("readiness check failed")
		return problemResponse(c, fiber.StatusServiceUnavailable,
			"not_ready", "Service Unavailable", "database is not reachable")
	}
	return c.JSON(fiber.Map{"status": "ready"})
}

func requestID(c *fiber.Ctx) string {
	id, _ := c.Locals("request_id").(string)
	return id
}

func customErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			code = fe.Code
		}

		detail := err.Error()
		if code == fiber.StatusInternalServerError {
			logger.Error().
				Err(err).
				Str("path", c.Path()).
				Str("method", c.Method()).
				Msg("unhandled error")
			detail = "An internal error occurred"
		}

		return c.Status(code).JSON(ProblemDetail{
			Type:     "about:blank",
			Title:    statusTitle(code),
			Status:   code,
			Detail:   detail,
			Instance: c.Path(),
		})
	}
}
