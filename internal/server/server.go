// Package server assembles the HTTP application: storage slot, task store,
// middleware chain, task routes and monitoring endpoints.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"todo-manager/backend/internal/config"
	"todo-manager/backend/internal/handlers"
	"todo-manager/backend/internal/middleware"
	"todo-manager/backend/internal/monitoring"
	"todo-manager/backend/internal/storage"
	"todo-manager/backend/internal/store"
	"todo-manager/backend/internal/validation"
	"todo-manager/backend/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type App struct {
	cfg     *config.Config
	log     logrus.FieldLogger
	slot    storage.Slot
	store   *store.Store
	metrics *monitoring.Metrics
	health  *monitoring.HealthChecker
	limiter *middleware.RateLimiter
	router  *gin.Engine
}

// New opens the configured slot and loads the task store from it.
func New(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*App, error) {
	slot, err := storage.OpenSlot(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}

	app, err := NewWithSlot(ctx, cfg, slot, log)
	if err != nil {
		_ = slot.Close()
		return nil, err
	}
	return app, nil
}

// NewWithSlot builds the application over an already opened slot. The App
// takes ownership of the slot and closes it on shutdown.
func NewWithSlot(ctx context.Context, cfg *config.Config, slot storage.Slot, log logrus.FieldLogger) (*App, error) {
	metrics := monitoring.NewMetrics()

	st, err := store.Open(ctx,
		storage.NewPersistence(slot, cfg.Storage.Key),
		store.WithLogger(log),
		store.WithRecorder(metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	metrics.TrackTasks(st.Len)

	health := monitoring.NewHealthChecker(5 * time.Second)
	health.Register("storage", slot.Health)
	if guarded, ok := slot.(*storage.GuardedSlot); ok {
		breaker := guarded.Breaker()
		health.Register("storage_breaker", func(ctx context.Context) error {
			if breaker.GetState() == storage.CircuitBreakerOpen {
				return storage.ErrCircuitOpen
			}
			return nil
		})
	}

	app := &App{
		cfg:     cfg,
		log:     log,
		slot:    slot,
		store:   st,
		metrics: metrics,
		health:  health,
	}
	if cfg.RateLimit.Enabled {
		app.limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMin:  cfg.RateLimit.RequestsPerMin,
			BurstSize:       cfg.RateLimit.BurstSize,
			CleanupInterval: cfg.RateLimit.CleanupInterval,
		})
	}
	app.router = app.setupRouter()

	log.WithFields(logrus.Fields{
		"backend":   cfg.Storage.Backend,
		"tasks":     st.Len(),
		"recovered": st.Recovered(),
	}).Info("task store loaded")

	return app, nil
}

func (a *App) Store() *store.Store {
	return a.store
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) setupRouter() *gin.Engine {
	if a.cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RecoveryWithLog(a.log),
		middleware.RequestLogger(a.log),
		middleware.CORS(a.cfg.Server.AllowedOrigins),
		a.metrics.Middleware(),
	)

	r.GET("/health", a.health.HealthHandler())
	r.GET("/ready", a.health.ReadinessHandler())
	r.GET("/live", a.health.LivenessHandler())
	r.GET("/metrics", a.metrics.Handler())

	api := r.Group("/api")
	if a.limiter != nil {
		api.Use(a.limiter.Middleware())
	}
	handlers.NewTaskHandler(a.store, validation.New(), a.log).RegisterRoutes(api)

	return r
}

// Run serves HTTP until ctx is cancelled, then drains connections and
// shuts the application down.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         a.cfg.GetServerAddr(),
		Handler:      a.router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	if a.limiter != nil {
		limiterCtx, stop := context.WithCancel(ctx)
		defer stop()
		go a.limiter.Run(limiterCtx)
	}

	stopFlusher := func() {}
	if a.cfg.Storage.FlushInterval > 0 {
		flusher := worker.NewFlushWorker(a.store, worker.FlushConfig{Interval: a.cfg.Storage.FlushInterval}, a.log)
		flusher.Start()
		stopFlusher = flusher.Stop
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.WithField("addr", srv.Addr).Info("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			stopFlusher()
			_ = a.Shutdown(context.Background())
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.WithError(err).Warn("http server did not drain in time")
	}
	stopFlusher()
	return a.Shutdown(shutdownCtx)
}

// Shutdown writes out any unpersisted changes and closes the slot.
func (a *App) Shutdown(ctx context.Context) error {
	var flushErr error
	if a.store.Dirty() {
		flushErr = a.store.Flush(ctx)
		if flushErr != nil {
			a.log.WithError(flushErr).Error("final flush failed, unsaved changes are lost")
		}
	}

	return errors.Join(flushErr, a.slot.Close())
}
