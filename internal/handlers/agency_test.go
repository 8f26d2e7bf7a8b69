package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landingkit/internal/models"
)

type fakeThemes struct {
	themes      map[uuid.UUID]*models.AgencyTheme
	invalidated []uuid.UUID
}

func newFakeThemes() *fakeThemes {
	return &fakeThemes{themes: make(map[uuid.UUID]*models.AgencyTheme)}
}

func (f *fakeThemes) Get(_ context.Context, id uuid.UUID) (*models.AgencyTheme, error) {
	return f.themes[id], nil
}

func (f *fakeThemes) Upsert(_ context.Context, t *models.AgencyTheme) (*models.AgencyTheme, error) {
	saved := *t
	saved.UpdatedAt = time.Now()
	f.themes[t.AgencyID] = &saved
	return &saved, nil
}

func (f *fakeThemes) Invalidate(_ context.Context, id uuid.UUID) {
	f.invalidated = append(f.invalidated, id)
}

func TestAgencyTheme(t *testing.T) {
	themes := newFakeThemes()
	a := NewAgency(themes, themes, nil)
	id := uuid.New()

	rec := call(t, a.GetTheme, http.MethodGet, "/", nil, "id", id.String())
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := map[string]string{
		"brand_name":    "Acme Roofing Partners",
		"primary_color": "#0f172a",
		"accent_color":  "#f97316",
		"font_family":   "Inter, sans-serif",
	}
	rec = call(t, a.PutTheme, http.MethodPut, "/", body, "id", id.String())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[models.AgencyTheme](t, rec)
	assert.Equal(t, id, saved.AgencyID)
	assert.Equal(t, []uuid.UUID{id}, themes.invalidated)

	rec = call(t, a.GetTheme, http.MethodGet, "/", nil, "id", id.String())
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "#f97316", decode[models.AgencyTheme](t, rec).AccentColor)
}

func TestAgencyThemeValidation(t *testing.T) {
	themes := newFakeThemes()
	a := NewAgency(themes, themes, nil)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"missing brand", map[string]string{"brand_name": " "}},
		{"bad color", map[string]string{"brand_name": "Acme", "accent_color": "url(javascript:x)"}},
		{"bad logo", map[string]string{"brand_name": "Acme", "logo_url": "javascript:alert(1)"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, a.PutTheme, http.MethodPut, "/", tt.body, "id", uuid.NewString())
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		})
	}
	assert.Empty(t, themes.invalidated)
}
