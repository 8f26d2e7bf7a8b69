// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"landingkit/internal/models"
)

// AgencyThemeStore persists per-agency branding.
type AgencyThemeStore struct {
	db *sql.DB
}

// NewAgencyThemeStore creates a new AgencyThemeStore.
func NewAgencyThemeStore(db *sql.DB) *AgencyThemeStore {
	return &AgencyThemeStore{db: db}
}

// Get returns the theme of an agency, or nil when none is stored.
func (s *AgencyThemeStore) Get(ctx context.Context, agencyID uuid.UUID) (*models.AgencyTheme, error) {
	var t models.AgencyTheme
	err := s.db.QueryRowContext(ctx, `
		SELECT agency_id, brand_name, logo_url, primary_color, accent_color, font_family, updated_at
		FROM agency_themes WHERE agency_id = $1
	`, agencyID).Scan(
		&t.AgencyID, &t.BrandName, &t.LogoURL, &t.PrimaryColor, &t.AccentColor, &t.FontFamily, &t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get agency theme: %w", err)
	}
	return &t, nil
}

// Upsert stores the theme, replacing any previous one for the agency.
func (s *AgencyThemeStore) Upsert(ctx context.Context, t *models.AgencyTheme) (*models.AgencyTheme, error) {
	var out models.AgencyTheme
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO agency_themes (agency_id, brand_name, logo_url, primary_color, accent_color, font_family)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (agency_id) DO UPDATE SET
			brand_name = EXCLUDED.brand_name,
			logo_url = EXCLUDED.logo_url,
			primary_color = EXCLUDED.primary_color,
			accent_color = EXCLUDED.accent_color,
			font_family = EXCLUDED.font_family,
			updated_at = NOW()
		RETURNING agency_id, brand_name, logo_url, primary_color, accent_color, font_family, updated_at
	`, t.AgencyID, t.BrandName, t.LogoURL, t.PrimaryColor, t.AccentColor, t.FontFamily,
	).Scan(
		&out.AgencyID, &out.BrandName, &out.LogoURL, &out.PrimaryColor, &out.AccentColor, &out.FontFamily, &out.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert agency theme: %w", err)
	}
	return &out, nil
}
