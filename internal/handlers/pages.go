// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"landingkit/internal/cache"
	"landingkit/internal/models"
	"landingkit/internal/store"
)

// PageStore manages saved landing pages. Satisfied by
// store.LandingPageStore.
type PageStore interface {
	List(ctx context.Context, limit, offset int) ([]models.LandingPage, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.LandingPage, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Publish(ctx context.Context, id uuid.UUID) (*models.LandingPage, error)
	Unpublish(ctx context.Context, id uuid.UUID) (*models.LandingPage, error)
	Revisions(ctx context.Context, pageID uuid.UUID) ([]models.LandingPageRevision, error)
}

// Pages groups the saved page endpoints. Status changes and deletes drop
// the page from the public page cache.
type Pages struct {
	pages     PageStore
	pageCache *cache.PageCache
}

// NewPages creates the pages handler group. pageCache may be nil.
func NewPages(pages PageStore, pageCache *cache.PageCache) *Pages {
	return &Pages{pages: pages, pageCache: pageCache}
}

// List returns saved pages, most recently updated first.
func (p *Pages) List(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r, 50, 200)
	pages, err := p.pages.List(r.Context(), limit, offset)
	if err != nil {
		slog.Error("list landing pages failed", "error", err)
		writeError(w, "Failed to list pages.", http.StatusInternalServerError)
		return
	}
	if pages == nil {
		pages = []models.LandingPage{}
	}
	writeJSON(w, http.StatusOK, pages)
}

// Get returns one saved page.
func (p *Pages) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	page, err := p.pages.FindByID(r.Context(), id)
	if err != nil {
		slog.Error("find landing page failed", "page_id", id, "error", err)
		writeError(w, "Failed to load page.", http.StatusInternalServerError)
		return
	}
	if page == nil {
		writeError(w, "Page not found.", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// Publish makes a page reachable at /p/{slug}.
func (p *Pages) Publish(w http.ResponseWriter, r *http.Request) {
	p.setStatus(w, r, p.pages.Publish, "publish")
}

// Unpublish returns a page to draft.
func (p *Pages) Unpublish(w http.ResponseWriter, r *http.Request) {
	p.setStatus(w, r, p.pages.Unpublish, "unpublish")
}

func (p *Pages) setStatus(w http.ResponseWriter, r *http.Request, fn func(context.Context, uuid.UUID) (*models.LandingPage, error), op string) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	page, err := fn(r.Context(), id)
	if errors.Is(err, store.ErrPageNotFound) {
		writeError(w, "Page not found.", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error(op+" landing page failed", "page_id", id, "error", err)
		writeError(w, "Failed to update page.", http.StatusInternalServerError)
		return
	}
	p.pageCache.Invalidate(r.Context(), page.Slug)
	slog.Info("landing page "+op+"ed", "page_id", id, "slug", page.Slug)
	writeJSON(w, http.StatusOK, page)
}

// Delete removes a page and its revisions.
func (p *Pages) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	page, err := p.pages.FindByID(r.Context(), id)
	if err == nil && page == nil {
		err = store.ErrPageNotFound
	}
	if err == nil {
		err = p.pages.Delete(r.Context(), id)
	}
	if errors.Is(err, store.ErrPageNotFound) {
		writeError(w, "Page not found.", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("delete landing page failed", "page_id", id, "error", err)
		writeError(w, "Failed to delete page.", http.StatusInternalServerError)
		return
	}
	p.pageCache.Invalidate(r.Context(), page.Slug)
	w.WriteHeader(http.StatusNoContent)
}

// Revisions lists the snapshots taken before each update of a page.
func (p *Pages) Revisions(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	revs, err := p.pages.Revisions(r.Context(), id)
	if err != nil {
		slog.Error("list page revisions failed", "page_id", id, "error", err)
		writeError(w, "Failed to list revisions.", http.StatusInternalServerError)
		return
	}
	if revs == nil {
		revs = []models.LandingPageRevision{}
	}
	writeJSON(w, http.StatusOK, revs)
}
