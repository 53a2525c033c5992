package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-photo-backend/internal/config"
	"portfolio-photo-backend/internal/gallery"
	"portfolio-photo-backend/internal/handlers"
	"portfolio-photo-backend/internal/imgproc"
	"portfolio-photo-backend/internal/imgurl"
	"portfolio-photo-backend/internal/middleware"
	"portfolio-photo-backend/internal/repository"
	"portfolio-photo-backend/internal/services"
	"portfolio-photo-backend/internal/storage"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Run() {
	// Load .env if present; real deployments set environment variables directly
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load("config.yaml")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Setup logger
	setupLogger(cfg.Log.Level)

	// Connect to database
	db, err := pgxpool.New(context.Background(), cfg.Database.DSN())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	// Test database connection
	if err := db.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Database connection established")

	// Run migrations
	if err := runMigrations(cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// Initialize repositories
	categoryRepo := repository.NewCategoryRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	adminRepo := repository.NewAdminRepository(db)

	// Initialize object storage
	objectStorage, err := storage.New(context.Background(), cfg.AWS)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create object storage client")
	}

	// Image pipeline and URL resolver
	pipeline := imgproc.NewPipeline(
		cfg.Upload.MaxWidth,
		cfg.Upload.Quality,
		cfg.Upload.PlaceholderSize,
		cfg.Upload.PreferWebP,
	)
	resolver := imgurl.New(cfg.Images.StorageBase, cfg.Images.Bucket, cfg.Images.TransformsEnabled)
	resolveOpts := imgurl.Options{
		Widths:          cfg.Images.Widths,
		Qualities:       cfg.Images.Qualities,
		FallbackWidth:   cfg.Images.FallbackWidth,
		FallbackQuality: cfg.Images.FallbackQuality,
	}

	// Gallery cache and viewer engagement state
	viewerState := gallery.NewViewerState(cfg.Gallery.StateFile)
	store := gallery.NewStore(repository.NewGalleryDataSource(categoryRepo, photoRepo), viewerState)

	hub := services.NewEngagementHub()
	store.SetUpdateHook(hub.BroadcastCounter)

	// Warm the category cache; the store recovers lazily if this fails
	syncCtx, cancelSync := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.Sync(syncCtx); err != nil {
		log.Warn().Err(err).Msg("Initial gallery sync failed")
	}
	cancelSync()

	// Initialize services
	authService := services.NewAuthService(adminRepo, cfg.JWT.Secret, cfg.Admin.SessionDays)
	uploadService := services.NewUploadService(photoRepo, objectStorage, pipeline, store, cfg.Upload.Concurrency)
	galleryService := services.NewGalleryService(store, categoryRepo, photoRepo, objectStorage)

	// Initialize handlers
	galleryHandler := handlers.NewGalleryHandler(store, resolver, resolveOpts)
	adminHandler := handlers.NewAdminHandler(authService, galleryService, uploadService)
	wsHandler := handlers.NewWebSocketHandler(hub)

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(corsMiddleware)

	// Routes
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes
		r.Get("/categories", galleryHandler.ListCategories)
		r.Get("/categories/{category_id}/photos", galleryHandler.GetCategoryPhotos)
		r.Post("/categories/{category_id}/photos/{photo_id}/view", galleryHandler.RegisterView)
		r.Post("/categories/{category_id}/photos/{photo_id}/like", galleryHandler.ToggleLike)
		r.Get("/resolve", galleryHandler.ResolveImage)

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", adminHandler.Login)

			r.Group(func(r chi.Router) {
				r.Use(middleware.AuthMiddleware(authService))
				r.Post("/logout", adminHandler.Logout)
				r.Get("/session", adminHandler.Session)
				r.Post("/photos/upload", adminHandler.UploadPhotos)
				r.Patch("/photos/{photo_id}/active", adminHandler.SetPhotoActive)
				r.Delete("/photos/{photo_id}", adminHandler.DeletePhoto)
				r.Get("/categories/{category_id}/photos", adminHandler.ListCategoryPhotos)
				r.Post("/categories", adminHandler.CreateCategory)
				r.Put("/categories/{category_id}", adminHandler.UpdateCategory)
				r.Patch("/categories/{category_id}/active", adminHandler.SetCategoryActive)
				r.Delete("/categories/{category_id}", adminHandler.DeleteCategory)
			})
		})
	})

	// WebSocket route
	r.Get("/ws/engagement", wsHandler.HandleEngagement)

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("host", cfg.Server.Host).
			Int("port", cfg.Server.Port).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	// Close WebSocket connections
	hub.Close()

	// Shutdown HTTP server
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Flush viewer engagement state
	if err := viewerState.Save(); err != nil {
		log.Error().Err(err).Msg("Failed to save viewer state")
	}

	log.Info().Msg("Server exited")
}

// runMigrations applies pending schema migrations
func runMigrations(cfg *config.Config) error {
	m, err := migrate.New("file://"+cfg.Database.Migrations, cfg.Database.URL())
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// setupLogger configures zerolog logger
func setupLogger(level string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

// corsMiddleware handles CORS
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
