// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// AgencyTheme is the branding an agency applies to its sub-account pages.
// Published pages fall back to it when their own settings leave a color or
// font blank.
type AgencyTheme struct {
	AgencyID     uuid.UUID `json:"agency_id"`
	BrandName    string    `json:"brand_name"`
	LogoURL      string    `json:"logo_url"`
	PrimaryColor string    `json:"primary_color"`
	AccentColor  string    `json:"accent_color"`
	FontFamily   string    `json:"font_family"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ApplyTo fills blank page settings from the theme.
func (t *AgencyTheme) ApplyTo(s PageSettings) PageSettings {
	if t == nil {
		return s
	}
	if s.AccentColor == "" {
		s.AccentColor = t.AccentColor
	}
	if s.FontFamily == "" {
		s.FontFamily = t.FontFamily
	}
	if s.BackgroundColor == "" {
		s.BackgroundColor = t.PrimaryColor
	}
	return s
}
