//	@title			Pizzeria API
//	@version		1.0
//	@description	Backend for the pizzeria project: accounts, login and products with images.
//
//	@host		localhost:8080
//	@BasePath	/
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT Bearer token. Format: **Bearer {token}**

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/Roger-dornelles/pizzeria-project/internal/auth"
	"github.com/Roger-dornelles/pizzeria-project/internal/config"
	"github.com/Roger-dornelles/pizzeria-project/internal/db"
	appMiddleware "github.com/Roger-dornelles/pizzeria-project/internal/middleware"
	"github.com/Roger-dornelles/pizzeria-project/internal/product"
	"github.com/Roger-dornelles/pizzeria-project/internal/storage"
	"github.com/Roger-dornelles/pizzeria-project/internal/upload"
	"github.com/Roger-dornelles/pizzeria-project/internal/user"

	_ "github.com/Roger-dornelles/pizzeria-project/docs/swagger"
)

func main() {
	cfg := config.Load()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	if !cfg.EnvFileLoaded {
		slog.Info("no .env file found, reading from environment")
	}

	if err := run(cfg); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("database migration failed: %w", err)
	}

	store, err := newStorage(ctx, cfg)
	if err != nil {
		return fmt.Errorf("object storage init failed: %w", err)
	}

	// Wire dependencies: repository → service → handler
	limits := upload.Limits{MaxFiles: cfg.UploadMaxFiles, MaxFileSize: cfg.UploadMaxFileSize}
	uploadSvc := upload.NewService(store, cfg.StorageBucket)
	uploadHandler := upload.NewHandler(uploadSvc, limits)

	userSvc := user.NewService(user.NewRepository(pool), uploadSvc)
	userHandler := user.NewHandler(userSvc)

	authSvc := auth.NewService(auth.NewRepository(pool), cfg)
	authHandler := auth.NewHandler(authSvc)

	productSvc := product.NewService(product.NewRepository(pool), uploadSvc)
	productHandler := product.NewHandler(productSvc, limits)

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Swagger UI at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/auth", func(r chi.Router) {
		r.Use(appMiddleware.RateLimit(cfg.LoginRateRPS, cfg.LoginRateBurst))
		r.Post("/login", authHandler.Login)
	})

	requireAuth := appMiddleware.RequireAuth(cfg.JWTSecret)

	r.Route("/users", func(r chi.Router) {
		// Registration is public
		r.Post("/", userHandler.Create)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", userHandler.GetMe)
			r.Get("/{id}", userHandler.GetByID)
			r.Put("/{id}", userHandler.Update)
			r.Delete("/{id}", userHandler.Delete)
		})
	})

	r.Route("/products", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/", productHandler.List)
		r.Post("/create", productHandler.Create)
		r.Put("/{id}", productHandler.Update)
		r.Delete("/{id}", productHandler.Delete)
	})

	r.Route("/upload", func(r chi.Router) {
		r.Use(requireAuth)
		r.Post("/multiple", uploadHandler.UploadMultiple)
		r.Delete("/", uploadHandler.Delete)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server listening", "port", cfg.Port, "env", cfg.AppEnv, "storage", cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}
	slog.Info("shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("forced shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// newStorage builds the object storage selected by STORAGE_DRIVER.
func newStorage(ctx context.Context, cfg *config.Config) (storage.Storage, error) {
	switch cfg.StorageDriver {
	case config.StorageDriverMinio:
		return storage.NewMinioStorage(ctx,
			cfg.StorageEndpoint,
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			cfg.StorageBucket,
			cfg.StoragePublicBase,
			cfg.StorageUseSSL,
		)
	case config.StorageDriverS3:
		endpoint := ""
		if cfg.StorageEndpoint != "" {
			scheme := "http://"
			if cfg.StorageUseSSL {
				scheme = "https://"
			}
			endpoint = scheme + cfg.StorageEndpoint
		}
		return storage.NewS3Storage(ctx,
			endpoint,
			cfg.StorageRegion,
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			cfg.StoragePublicBase,
		)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
