// Package devserver implements a local stand-in for the production EduGen
// backend. It speaks the same wire contract the portal client consumes:
// JSON request bodies, a form-encoded login endpoint, and {"detail"} error
// envelopes. Accounts and assignments persist in SQLite; the AI endpoints
// return deterministic canned content.
package devserver

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/edugen-ai/edugen-go/internal/middleware"
	"github.com/edugen-ai/edugen-go/internal/observability"
)

// Config carries the server settings.
type Config struct {
	AppName   string
	JWTSecret string
	TokenTTL  time.Duration
	Logger    zerolog.Logger
}

// Server is the development backend.
type Server struct {
	app       *fiber.App
	store     Store
	engine    ContentEngine
	issuer    *TokenIssuer
	validator *validator.Validate
	logger    zerolog.Logger
}

// New migrates the schema and wires the HTTP surface on top of the given
// database handle.
func New(db *gorm.DB, cfg Config) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("devserver: jwt secret must not be empty")
	}
	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate devserver schema: %w", err)
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	appName := cfg.AppName
	if appName == "" {
		appName = "EduGen AI"
	}

	logger := cfg.Logger.With().Str("component", "devserver").Logger()

	s := &Server{
		store:     NewStore(db),
		issuer:    NewTokenIssuer(cfg.JWTSecret, ttl),
		validator: validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}

	app := fiber.New(fiber.Config{
		AppName:      appName,
		ServerHeader: appName,
	})
	middleware.Register(app, middleware.Config{Logger: &logger})
	s.routes(app)
	s.app = app

	return s, nil
}

func (s *Server) routes(app *fiber.App) {
	app.Get("/", s.health)
	app.Get("/metrics", observability.MetricsHandler())

	// Credential endpoints get a shared limiter so a runaway script cannot
	// hammer bcrypt. Generous enough to stay invisible in normal use.
	authLimit := middleware.RateLimit("auth", 30, time.Minute)
	app.Post("/register", authLimit, s.register)
	app.Post("/token", authLimit, s.token)
	app.Get("/users/me", Protected(s.issuer, s.store), s.me)

	assignments := app.Group("/assignments")
	assignments.Post("/generate", s.generate)
	assignments.Post("/", s.createAssignment)
	assignments.Get("/", s.listAssignments)
	assignments.Get("/:id", s.getAssignment)
	assignments.Post("/:id/analyze", s.analyze)

	app.Post("/student/grade", s.grade)
}

// App exposes the underlying fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on the given address until Shutdown is called.
func (s *Server) Listen(address string) error {
	return s.app.Listen(address)
}

// Listener serves on an already-open listener. Used by tests that need an
// ephemeral port.
func (s *Server) Listener(ln net.Listener) error {
	return s.app.Listener(ln)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}
