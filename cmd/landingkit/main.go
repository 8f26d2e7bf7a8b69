// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package main is the entry point for the landing page builder server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/time/rate"

	"landingkit/internal/builder"
	"landingkit/internal/cache"
	"landingkit/internal/config"
	"landingkit/internal/database"
	"landingkit/internal/handlers"
	"landingkit/internal/live"
	"landingkit/internal/media"
	"landingkit/internal/middleware"
	"landingkit/internal/models"
	"landingkit/internal/presets"
	"landingkit/internal/render"
	"landingkit/internal/router"
	"landingkit/internal/sequence"
	"landingkit/internal/session"
	"landingkit/internal/storage"
	"landingkit/internal/store"
)

func main() {
	// Load configuration from environment variables.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Structured logger: text at debug in development, JSON otherwise.
	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	if cfg.IsDev() {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	slog.SetDefault(slog.New(handler))

	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
	)

	// The section palette and presets are embedded; refuse to start on a
	// broken file.
	if err := presets.Validate(); err != nil {
		slog.Error("invalid embedded catalog", "error", err)
		os.Exit(1)
	}

	// Connect to PostgreSQL.
	db, err := database.Connect(context.Background(), cfg.DSN(), database.Pool{MaxOpen: cfg.DBMaxConns})
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if _, err := database.Migrate(context.Background(), db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed development data (no-op if data already exists).
	if cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (page cache, drafts, theme cache).
	valkeyClient, err := cache.ConnectValkey(context.Background(), cache.ValkeyOptions{
		Host:     cfg.ValkeyHost,
		Port:     cfg.ValkeyPort,
		Password: cfg.ValkeyPassword,
		DB:       cfg.ValkeyDB,
	})
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	renderer, err := render.New()
	if err != nil {
		slog.Error("failed to initialize page renderer", "error", err)
		os.Exit(1)
	}

	// Initialize data stores.
	pageStore := store.NewLandingPageStore(db)
	themeStore := store.NewAgencyThemeStore(db)
	mediaStore := store.NewMediaStore(db)
	sequenceStore := store.NewSequenceStore(db)

	// Connect to S3-compatible object storage (optional; uploads are
	// disabled without it).
	var (
		uploader     builder.Uploader
		mediaService handlers.MediaService
		urls         handlers.URLResolver
	)
	if cfg.StorageEnabled() {
		storageClient, err := storage.New(storage.Options{
			Endpoint:  cfg.S3Endpoint,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3BucketPublic,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			slog.Error("failed to initialize S3 storage", "error", err)
			os.Exit(1)
		}
		pingCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := storageClient.Ping(pingCtx); err != nil {
			// Uploads fail until the bucket is reachable; pages still serve.
			slog.Warn("s3 bucket not reachable", "error", err)
		}
		cancel()
		svc := media.NewService(storageClient, mediaStore)
		uploader, mediaService, urls = svc, svc, storageClient
		slog.Info("s3 storage connected", "endpoint", cfg.S3Endpoint, "bucket", cfg.S3BucketPublic)
	} else {
		slog.Warn("s3 storage not configured, image uploads disabled")
	}

	pageCache := cache.NewPageCache(valkeyClient, cfg.PageCacheTTL)
	// Templates may have changed since the last deploy.
	pageCache.InvalidateAll(context.Background())
	themeCache := cache.NewThemeCache(valkeyClient, themeStore.Get, cfg.ThemeCacheTTL)

	hub := live.NewHub()
	registry := session.NewRegistry(session.Config{
		Persister: pageStore,
		Uploader:  uploader,
		Pages:     pageStore,
		Drafts:    session.NewDraftStore(valkeyClient, 0),
		IdleTTL:   cfg.SessionIdleTTL,
		OnSaved: func(p *models.LandingPage) {
			pageCache.Invalidate(context.Background(), p.Slug)
		},
		OnClosed: hub.CloseSession,
	})

	uploadLimiter := middleware.NewRateLimiter(rate.Limit(2), 20, middleware.WithKey(middleware.BySession("sid")))
	cronLimiter := middleware.NewRateLimiter(rate.Every(10*time.Second), 3)

	r := router.New(router.Handlers{
		Editor:        handlers.NewEditor(registry, renderer, hub, themeCache),
		Media:         handlers.NewMedia(mediaService, mediaStore, urls),
		Agency:        handlers.NewAgency(themeStore, themeCache, pageCache),
		Pages:         handlers.NewPages(pageStore, pageCache),
		Public:        handlers.NewPublic(pageStore, themeCache, renderer, pageCache),
		Sequences:     handlers.NewSequences(sequence.NewProcessor(sequenceStore), sequenceStore, cfg.CronSecret),
		UploadLimiter: uploadLimiter,
		CronLimiter:   cronLimiter,
	})

	if cfg.CronSecret == "" {
		slog.Warn("CRON_SECRET not set, sequence cron endpoint disabled")
	}

	// Follow theme invalidations published by other instances.
	subCtx, stopSub := context.WithCancel(context.Background())
	defer stopSub()
	go func() {
		if err := themeCache.Subscribe(subCtx); err != nil {
			slog.Error("theme invalidation subscription ended", "error", err)
		}
	}()

	// WriteTimeout must accommodate gallery uploads of up to 20 images.
	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	// Give active requests up to 30 seconds to complete.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by Shutdown.
	srv.RegisterOnShutdown(hub.Shutdown)
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	registry.Close()
	uploadLimiter.Stop()
	cronLimiter.Stop()
	stopSub()

	slog.Info("server stopped gracefully")
}
