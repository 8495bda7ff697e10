package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"dhanix/internal/domain/payslip"
	"dhanix/internal/platform/config"
	"dhanix/internal/platform/db"
	"dhanix/internal/platform/metrics"
	"dhanix/internal/transport/http/api"
	authhandler "dhanix/internal/transport/http/handlers/auth"
	employeehandler "dhanix/internal/transport/http/handlers/employee"
	orghandler "dhanix/internal/transport/http/handlers/org"
	payrollhandler "dhanix/internal/transport/http/handlers/payroll"
	reportshandler "dhanix/internal/transport/http/handlers/reports"
	"dhanix/internal/transport/http/middleware"
)

type App struct {
	Config config.Config
	DB     *pgxpool.Pool
	Router http.Handler
	Close  func()
}

// New connects to the database, applies migrations and seed data as
// configured, and assembles the HTTP router.
func New(ctx context.Context, cfg config.Config) (*App, error) {
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("db connect: %w", err)
	}

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, findMigrationsDir()); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
	}
	if cfg.SeedDemoData {
		if err := db.SeedDemo(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, fmt.Errorf("seed: %w", err)
		}
	}

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.New()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute))
	router.Use(middleware.SensitiveMutationRateLimit(cfg.RateLimitPerMinute, time.Minute))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Get("/metricz", func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetRequestID(r.Context())
		if collector == nil {
			api.Fail(w, http.StatusNotFound, "not_found", "metrics are disabled", requestID)
			return
		}
		api.Success(w, collector.Snapshot(), requestID)
	})

	payslips := payslip.NewService(cfg.PayslipDir)

	router.Route("/api/v1", func(r chi.Router) {
		authHandler := authhandler.NewHandler(pool, cfg.JWTSecret, cfg.JWTTTL)
		r.Post("/auth/register", authHandler.HandleRegister)
		r.Post("/auth/login", authHandler.HandleLogin)
		r.Get("/auth/me", authHandler.HandleMe)

		orgHandler := orghandler.NewHandler(pool)
		orgHandler.RegisterRoutes(r)

		employeeHandler := employeehandler.NewHandler(pool)
		employeeHandler.RegisterRoutes(r)

		payrollHandler := payrollhandler.NewHandler(pool, payslips)
		payrollHandler.RegisterRoutes(r)

		reportsHandler := reportshandler.NewHandler(pool)
		reportsHandler.RegisterRoutes(r)
	})

	return &App{
		Config: cfg,
		DB:     pool,
		Router: router,
		Close:  pool.Close,
	}, nil
}

// findMigrationsDir walks up from the working directory so tests started from
// a package directory still find the repository migrations.
func findMigrationsDir() string {
	dir := "migrations"
	for i := 0; i < 6; i++ {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
		dir = filepath.Join("..", dir)
	}
	return "migrations"
}

// Run builds the app from the environment and serves until the process exits.
func Run() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	app, err := New(context.Background(), cfg)
	if err != nil {
		log.Fatalf("startup failed: %v", err)
	}
	defer app.Close()

	log.Printf("dhanix server listening on %s", cfg.Addr)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
