package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"topmovies/database"
	"topmovies/internal/config"
	"topmovies/internal/ingestion/tmdb"
	"topmovies/internal/logger"
	"topmovies/internal/microservices/http-api/form"
	"topmovies/internal/microservices/http-api/handler"
	"topmovies/internal/microservices/http-api/middleware"
	"topmovies/internal/microservices/http-api/service"
	"topmovies/internal/microservices/http-api/web"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	// 1. Load config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("could not load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	if err := cfg.RequireServerSecrets(); err != nil {
		log.Fatal(err)
	}

	logger, err := logger.New(cfg.LogLevel, cfg.LogFormat, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("could not build logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("server exited", zap.Error(err))
	}
	_ = logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run serves until ctx is cancelled or the listener fails. Everything it
// opens is closed before it returns.
func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	// 2. Connect to the store
	store, err := database.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("closing store", zap.Error(err))
		}
	}()

	// 3. Movie database client; add/search report 502 until a key is set
	var lookup service.MovieLookup
	if cfg.MoviesAPIKey == "" {
		logger.Warn("MOVIES_API_KEY not set, adding movies is disabled")
	} else {
		client, err := tmdb.New(cfg.MoviesAPIKey, cfg.MoviesAPIURL,
			tmdb.WithTimeout(cfg.MoviesAPITimeout),
			tmdb.WithRateLimit(cfg.MoviesAPIRateLimit))
		if err != nil {
			return fmt.Errorf("tmdb client: %w", err)
		}
		lookup = client
	}

	movieService := service.NewMovieService(store.Movies, lookup, cfg.PosterBaseURL, logger)

	// 4. Setup Gin
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	tmpl, err := web.Templates()
	if err != nil {
		return fmt.Errorf("parse templates: %w", err)
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recovery(logger))
	r.SetHTMLTemplate(tmpl)

	tokens := form.NewTokenSigner(cfg.SecretKey, cfg.FormTokenTTL)
	handler.NewMovieHandler(movieService, tokens, cfg.RequestTimeout, logger).RegisterRoutes(r)
	handler.NewHealthHandler(store.Movies).RegisterRoutes(r)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
