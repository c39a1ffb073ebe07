package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/credence-graph/credence/internal/api/handlers"
	mw "github.com/credence-graph/credence/internal/api/middleware"
	"github.com/credence-graph/credence/internal/buildconfig"
	"github.com/credence-graph/credence/internal/config"
	"github.com/credence-graph/credence/internal/service"
	"github.com/credence-graph/credence/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and request metrics.
type App struct {
	Router       *chi.Mux
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	entityStore := store.NewEntityStore(db)
	sourceStore := store.NewSourceStore(db)
	relationStore := store.NewRelationStore(db)
	cacheStore := store.NewInferenceCacheStore(db)

	// Services
	entitySvc := service.NewEntityService(entityStore, logger)
	sourceSvc := service.NewSourceService(sourceStore, logger)
	relationSvc := service.NewRelationService(relationStore, logger)
	inferenceSvc := service.NewInferenceService(relationStore, cacheStore, logger,
		config.ModelVersion(), config.ConfidenceLambda())

	// Handlers
	entityHandler := handlers.NewEntityHandler(entitySvc)
	sourceHandler := handlers.NewSourceHandler(sourceSvc)
	relationHandler := handlers.NewRelationHandler(relationSvc)
	inferenceHandler := handlers.NewInferenceHandler(inferenceSvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		startTime: time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/entities", func(r chi.Router) {
			r.Post("/", entityHandler.Create)
			r.Get("/", entityHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", entityHandler.GetByID)
				r.Put("/", entityHandler.Revise)
				r.Delete("/", entityHandler.Delete)
				r.Post("/retire", entityHandler.Retire)
				r.Get("/revisions", entityHandler.History)
				r.Get("/relations", relationHandler.ListByEntity)
				r.Get("/inference", inferenceHandler.Infer)
			})
		})

		r.Route("/sources", func(r chi.Router) {
			r.Post("/", sourceHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", sourceHandler.GetByID)
				r.Put("/", sourceHandler.Revise)
				r.Delete("/", sourceHandler.Delete)
				r.Post("/retire", sourceHandler.Retire)
				r.Get("/revisions", sourceHandler.History)
			})
		})

		r.Route("/relations", func(r chi.Router) {
			r.Post("/", relationHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", relationHandler.GetByID)
				r.Put("/", relationHandler.Revise)
				r.Delete("/", relationHandler.Delete)
				r.Post("/retire", relationHandler.Retire)
				r.Post("/extraction", relationHandler.AttachExtraction)
			})
		})

		r.Delete("/inference/cache", inferenceHandler.PurgeCache)
	})

	return app
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
			"build":      buildconfig.VersionInfo(),
		}

		writeJSON(w, http.StatusOK, response)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
