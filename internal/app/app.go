package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"plant-backend/internal/blob"
	"plant-backend/internal/handlers"
	"plant-backend/internal/metrics"
	"plant-backend/internal/services"
	"plant-backend/internal/store"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

// App is a fully wired server.
type App struct {
	Fiber   *fiber.App
	Store   store.PlantStore
	Blobs   blob.Store
	Hub     *handlers.Hub
	Metrics *metrics.Metrics

	cfg Config
}

// New opens the configured store and blob backend and wires the routes.
func New(ctx context.Context, cfg Config) (*App, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
	}
	blobs, err := blob.Open(ctx, cfg.Blob)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("open %s blob store: %w", cfg.Blob.Driver, err)
	}
	log.Info().Str("store", string(st.Driver())).Str("blobs", string(blobs.Driver())).Msg("storage ready")
	return NewWithStores(cfg, st, blobs), nil
}

// NewWithStores wires the routes around already opened backends.
func NewWithStores(cfg Config, st store.PlantStore, blobs blob.Store) *App {
	m := metrics.New()
	hub := handlers.NewHub()
	svc := services.NewPlantService(st, services.NewIngestor(blobs, cfg.BaseURL, m), m)
	svc.SetPublisher(hub)

	app := fiber.New(fiber.Config{
		AppName:               "Plant Monitor API",
		Immutable:             true,
		BodyLimit:             cfg.bodyLimit(),
		ErrorHandler:          errorHandler,
		DisableStartupMessage: true,
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Output: log.Logger,
		Format: "${status} ${method} ${path} ${latency}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.CORSOrigins}))
	app.Use(handlers.MetricsMiddleware(m))

	app.Get("/", handlers.RootHandler)
	app.Get("/health", handlers.HealthHandler(svc))
	app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	app.Get("/uploads/:name", handlers.UploadsHandler(blobs))

	// Routes
	api := app.Group("/api")
	api.Get("/plants", handlers.ListPlantsHandler(svc))
	api.Post("/plants", handlers.CreatePlantHandler(svc))
	api.Get("/plants/:id", handlers.GetPlantHandler(svc))
	api.Put("/plants/:id/images", handlers.AppendImageHandler(svc))

	// WebSocket feed
	app.Use("/ws", handlers.WSUpgradeMiddleware)
	app.Get("/ws", handlers.FeedHandler(hub))

	return &App{Fiber: app, Store: st, Blobs: blobs, Hub: hub, Metrics: m, cfg: cfg}
}

// Listen serves on the configured port until Shutdown.
func (a *App) Listen() error {
	log.Info().Str("addr", a.cfg.addr()).Msg("plant monitor API listening")
	return a.Fiber.Listen(a.cfg.addr())
}

// Serve serves on an existing listener.
func (a *App) Serve(ln net.Listener) error {
	return a.Fiber.Listener(ln)
}

// Shutdown disconnects feed subscribers, drains in-flight requests and closes
// the store.
func (a *App) Shutdown() error {
	a.Hub.Close()
	err := a.Fiber.ShutdownWithTimeout(shutdownTimeout)
	if cerr := a.Store.Close(); cerr != nil {
		err = errors.Join(err, cerr)
	}
	return err
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, cfg Config) error {
	a, err := New(ctx, cfg)
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() { errCh <- a.Listen() }()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		_ = a.Store.Close()
		return err
	}

	log.Info().Msg("Gracefully shutting down...")
	if err := a.Shutdown(); err != nil {
		return err
	}
	log.Info().Msg("Server shutdown complete")
	return nil
}

// errorHandler renders errors that escape handlers (unknown routes, body limit,
// panics) in the API's {"msg": ...} shape.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	msg := "Server Error"

	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
		msg = fe.Message
	}
	if code >= fiber.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Path()).Msg("unhandled error")
		msg = "Server Error"
	}
	return c.Status(code).JSON(fiber.Map{"msg": msg})
}
