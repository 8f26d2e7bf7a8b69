// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for the
// landing page server. Routes are organized into the editor API, the media
// and agency APIs, published pages, and the cron trigger.
package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"landingkit/internal/handlers"
	"landingkit/internal/middleware"
)

// publicMaxAge is the browser and CDN cache lifetime of published pages.
const publicMaxAge = time.Minute

// Handlers bundles the handler groups and limiters the router mounts. A nil
// limiter leaves its routes unthrottled.
type Handlers struct {
	Editor    *handlers.Editor
	Media     *handlers.Media
	Agency    *handlers.Agency
	Pages     *handlers.Pages
	Public    *handlers.Public
	Sequences *handlers.Sequences

	UploadLimiter *middleware.RateLimiter
	CronLimiter   *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(h Handlers) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NoStore)

		r.Get("/templates", h.Editor.Templates)
		r.Get("/presets", h.Editor.Presets)

		r.Post("/sessions", h.Editor.OpenSession)
		r.Route("/sessions/{sid}", func(r chi.Router) {
			r.Get("/", h.Editor.GetSession)
			r.Delete("/", h.Editor.CloseSession)
			r.Get("/ws", h.Editor.Live)
			r.Get("/preview", h.Editor.Preview)
			r.Put("/preview", h.Editor.SetPreview)

			r.Post("/sections", h.Editor.AddSection)
			r.Post("/reorder", h.Editor.Reorder)
			r.Post("/select", h.Editor.Select)
			r.Post("/drag/start", h.Editor.DragStart)
			r.Post("/drag/end", h.Editor.DragEnd)
			r.Post("/drop", h.Editor.Drop)
			r.Patch("/settings", h.Editor.UpdateSettings)
			r.Post("/preset", h.Editor.ApplyPreset)
			r.Post("/undo", h.Editor.Undo)
			r.Post("/redo", h.Editor.Redo)
			r.Post("/save", h.Editor.Save)

			r.Route("/sections/{id}", func(r chi.Router) {
				r.Patch("/", h.Editor.UpdateSection)
				r.Delete("/", h.Editor.DeleteSection)
				r.Put("/content", h.Editor.UpdateContent)
				r.Patch("/styles", h.Editor.UpdateStyles)
				r.Post("/duplicate", h.Editor.DuplicateSection)
				r.Post("/move", h.Editor.MoveSection)
				r.Get("/fields", h.Editor.Fields)
				r.Post("/fields", h.Editor.CommitField)
				r.Delete("/background", h.Editor.RemoveBackground)

				r.Post("/items/{list}", h.Editor.AddItem)
				r.Patch("/items/{list}/{index}", h.Editor.UpdateItem)
				r.Delete("/items/{list}/{index}", h.Editor.RemoveItem)

				// Uploads fan out to object storage.
				r.Group(func(r chi.Router) {
					r.Use(limit(h.UploadLimiter))
					r.Post("/image", h.Editor.UploadContentImage)
					r.Post("/items/{list}/{index}/image", h.Editor.UploadItemImage)
					r.Post("/gallery", h.Editor.UploadGallery)
				})
			})

			r.With(limit(h.UploadLimiter)).Post("/upload/background", h.Editor.UploadBackground)
		})

		r.Route("/media", func(r chi.Router) {
			r.Get("/", h.Media.List)
			r.Delete("/{id}", h.Media.Delete)
			r.With(limit(h.UploadLimiter)).Post("/", h.Media.Upload)
		})

		r.Route("/pages", func(r chi.Router) {
			r.Get("/", h.Pages.List)
			r.Get("/{id}", h.Pages.Get)
			r.Delete("/{id}", h.Pages.Delete)
			r.Post("/{id}/publish", h.Pages.Publish)
			r.Post("/{id}/unpublish", h.Pages.Unpublish)
			r.Get("/{id}/revisions", h.Pages.Revisions)
		})

		r.Get("/agencies/{id}/theme", h.Agency.GetTheme)
		r.Put("/agencies/{id}/theme", h.Agency.PutTheme)

		r.Post("/sequences/{id}/enrollments", h.Sequences.Enroll)
	})

	// Called by an external scheduler; GET and POST are both accepted.
	r.Route("/cron/sms-sequences/process", func(r chi.Router) {
		r.Use(limit(h.CronLimiter))
		r.Get("/", h.Sequences.Process)
		r.Post("/", h.Sequences.Process)
	})

	r.With(middleware.CachePublic(publicMaxAge)).Get("/p/{slug}", h.Public.Page)

	return r
}

// limit returns rl's middleware, or a pass-through when rl is nil.
func limit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
