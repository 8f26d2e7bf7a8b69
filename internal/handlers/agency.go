// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"landingkit/internal/cache"
	"landingkit/internal/models"
)

// ThemeStore reads and writes agency themes. Satisfied by
// store.AgencyThemeStore.
type ThemeStore interface {
	Get(ctx context.Context, agencyID uuid.UUID) (*models.AgencyTheme, error)
	Upsert(ctx context.Context, t *models.AgencyTheme) (*models.AgencyTheme, error)
}

// ThemeInvalidator drops a cached theme on every instance. Satisfied by
// cache.ThemeCache.
type ThemeInvalidator interface {
	Invalidate(ctx context.Context, agencyID uuid.UUID)
}

// Agency groups the agency theme endpoints.
type Agency struct {
	themes     ThemeStore
	themeCache ThemeInvalidator
	pageCache  *cache.PageCache
}

// NewAgency creates the agency handler group. themeCache and pageCache may
// be nil.
func NewAgency(themes ThemeStore, themeCache ThemeInvalidator, pageCache *cache.PageCache) *Agency {
	return &Agency{themes: themes, themeCache: themeCache, pageCache: pageCache}
}

// GetTheme returns an agency's theme.
func (a *Agency) GetTheme(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	theme, err := a.themes.Get(r.Context(), id)
	if err != nil {
		slog.Error("load agency theme failed", "agency_id", id, "error", err)
		writeError(w, "Failed to load theme.", http.StatusInternalServerError)
		return
	}
	if theme == nil {
		writeError(w, "Theme not found.", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, theme)
}

// PutTheme creates or replaces an agency's theme, then drops the cached
// theme and the agency's cached pages.
func (a *Agency) PutTheme(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var in models.AgencyTheme
	if !decodeJSON(w, r, &in) {
		return
	}
	in.AgencyID = id
	if msg := validateTheme(in); msg != "" {
		writeError(w, msg, http.StatusUnprocessableEntity)
		return
	}

	saved, err := a.themes.Upsert(r.Context(), &in)
	if err != nil {
		slog.Error("save agency theme failed", "agency_id", id, "error", err)
		writeError(w, "Failed to save theme.", http.StatusInternalServerError)
		return
	}
	if a.themeCache != nil {
		a.themeCache.Invalidate(r.Context(), id)
	}
	a.pageCache.InvalidateAgency(r.Context(), id)

	slog.Info("agency theme saved", "agency_id", id)
	writeJSON(w, http.StatusOK, saved)
}
