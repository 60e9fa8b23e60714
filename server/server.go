// Package server exposes the campus store and the routing service over HTTP
// with fiber.
package server

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meikuraledutech/campusnav"
	"github.com/meikuraledutech/campusnav/metrics"
	"github.com/meikuraledutech/campusnav/routing"
)

// RequestIDHeader carries the request id on every response.
const RequestIDHeader = "X-Request-ID"

// Server holds the dependencies shared by the handlers.
type Server struct {
	store  campusnav.Store
	routes *routing.Service
	log    *slog.Logger
}

// New returns a fiber app serving store and routes. A nil logger uses
// slog.Default.
func New(store campusnav.Store, routes *routing.Service, log *slog.Logger) *fiber.App {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{store: store, routes: routes, log: log}

	app := fiber.New(fiber.Config{
		AppName:      "campusnav",
		ErrorHandler: s.errorHandler,
	})
	app.Use(s.requestID)
	app.Use(s.observe)
	app.Use(recoverer.New(recoverer.Config{EnableStackTrace: true}))

	app.Get("/api/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	s.registerSchema(app)
	s.registerBuildings(app)
	s.registerWaypoints(app)
	s.registerPaths(app)
	s.registerNavigation(app)
	return app
}

// requestID propagates an incoming X-Request-ID or assigns a new one.
func (s *Server) requestID(c fiber.Ctx) error {
	id := c.Get(RequestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Set(RequestIDHeader, id)
	c.Locals("request_id", id)
	return c.Next()
}

// observe logs each request and records its metrics.
func (s *Server) observe(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	duration := time.Since(start)

	status := c.Response().StatusCode()
	if err != nil {
		status = fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}
	}
	path := c.Route().Path

	s.log.Info("http request",
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"duration", duration.String(),
		"request_id", c.Locals("request_id"),
	)
	metrics.HTTPRequestDuration.WithLabelValues(c.Method(), path).Observe(duration.Seconds())
	metrics.HTTPRequestsTotal.WithLabelValues(c.Method(), path, strconv.Itoa(status)).Inc()
	return err
}

// errorHandler renders errors that escaped a handler as {"error": ...}.
func (s *Server) errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "internal server error"
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code, msg = fe.Code, fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		s.log.Error("http: request failed", "path", c.Path(), "error", err,
			"request_id", c.Locals("request_id"))
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

// fail logs err and writes a 500 with its message, as the store handlers do.
func (s *Server) fail(c fiber.Ctx, err error) error {
	s.log.Error("http: request failed", "path", c.Path(), "error", err,
		"request_id", c.Locals("request_id"))
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

func errorJSON(c fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"error": msg})
}

// idParam parses the :id route parameter as a positive integer.
func idParam(c fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
