// Package main runs the gallery HTTP server.
package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"

	"github.com/pixelforge/gallery/internal/app"
	"github.com/pixelforge/gallery/internal/auth"
	"github.com/pixelforge/gallery/internal/config"
	"github.com/pixelforge/gallery/internal/httpapi"
	"github.com/pixelforge/gallery/internal/logging"
	"github.com/pixelforge/gallery/internal/media"
	"github.com/pixelforge/gallery/internal/media/cloudinary"
	"github.com/pixelforge/gallery/internal/metrics"
	"github.com/pixelforge/gallery/internal/middleware"
	"github.com/pixelforge/gallery/internal/storage/postgres"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logging.New("gallery", cfg.LogLevel, cfg.LogFormat)

	stores := app.Stores{}
	if cfg.HasDatabase() {
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			log.WithError(err).Error("open database")
			os.Exit(1)
		}
		defer db.Close()

		if err := postgres.Migrate(db); err != nil {
			log.WithError(err).Error("run migrations")
			os.Exit(1)
		}

		store := postgres.New(db)
		stores.Users = store
		stores.Images = store
		log.Info("using postgres storage")
	} else {
		log.Warn("DATABASE_URL not set, using in-memory storage")
	}

	var uploader media.Uploader
	if cfg.HasCloudinary() {
		uploader = cloudinary.New(cloudinary.Config{
			CloudName: cfg.CloudinaryCloudName,
			APIKey:    cfg.CloudinaryAPIKey,
			APISecret: cfg.CloudinaryAPISecret,
		})
		log.Info("using cloudinary media host")
	} else {
		log.Warn("cloudinary credentials not set, using in-memory media host")
	}

	tokens := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenTTL)
	application := app.New(stores, uploader, tokens, log)

	handler := httpapi.NewHandler(application, httpapi.Options{
		Auth:    middleware.NewAuthMiddleware(tokens, log),
		CORS:    middleware.NewCORSMiddleware(cfg.AllowedOrigins),
		Metrics: metrics.New(),
		Logger:  log,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.WithField("port", cfg.Port).Info("gallery server listening")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.WithError(err).Error("server error")
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Error("shutdown error")
	}
	log.Info("server stopped")
}
