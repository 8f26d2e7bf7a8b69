// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"html"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"landingkit/internal/cache"
	"landingkit/internal/models"
	"landingkit/internal/render"
)

// PublishedPages finds published pages. Satisfied by store.LandingPageStore.
type PublishedPages interface {
	FindBySlug(ctx context.Context, slug string) (*models.LandingPage, error)
}

// Public serves published landing pages. It checks the Valkey page cache
// before rendering, and stores rendered results on miss.
type Public struct {
	pages     PublishedPages
	themes    ThemeSource
	renderer  *render.Renderer
	pageCache *cache.PageCache
}

// NewPublic creates the public handler group. themes and pageCache may be
// nil.
func NewPublic(pages PublishedPages, themes ThemeSource, renderer *render.Renderer, pageCache *cache.PageCache) *Public {
	return &Public{pages: pages, themes: themes, renderer: renderer, pageCache: pageCache}
}

// Page renders a published page by its slug, with the agency theme filling
// any settings the page leaves blank.
func (p *Public) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	slugParam := chi.URLParam(r, "slug")

	if cached, ok := p.pageCache.Get(ctx, slugParam); ok {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("X-Cache", "HIT")
		w.Write(cached)
		return
	}

	page, err := p.pages.FindBySlug(ctx, slugParam)
	if err != nil {
		slog.Error("find landing page by slug failed", "error", err, "slug", slugParam)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if page == nil {
		http.NotFound(w, r)
		return
	}

	var theme *models.AgencyTheme
	if page.AgencyID != nil && p.themes != nil {
		theme, err = p.themes.Get(ctx, *page.AgencyID)
		if err != nil {
			// Render without the fallback rather than fail the page.
			slog.Warn("agency theme lookup failed", "agency_id", *page.AgencyID, "error", err)
		}
	}

	var buf bytes.Buffer
	err = p.renderer.Page(&buf, render.PageData{
		Title:       page.Title,
		Description: page.SEODescription,
		Settings:    page.Content.Settings,
		Sections:    page.Content.Sections,
		Theme:       theme,
	})
	if err != nil {
		slog.Error("render landing page failed", "error", err, "slug", slugParam)
		// Never render raw user content outside html/template.
		safeTitle := html.EscapeString(page.Title)
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`<!DOCTYPE html><html><head><title>` + safeTitle + `</title></head>
<body style="font-family:sans-serif;display:flex;align-items:center;justify-content:center;min-height:100vh">
<div style="text-align:center"><h1>` + safeTitle + `</h1>
<p>This page could not be displayed right now.</p></div></body></html>`))
		return
	}

	rendered := buf.Bytes()
	p.pageCache.Set(ctx, slugParam, page.AgencyID, rendered)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Cache", "MISS")
	w.Write(rendered)
}
