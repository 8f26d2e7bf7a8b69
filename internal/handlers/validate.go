// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"landingkit/internal/models"
)

// Validation limits for editor and theme fields.
const (
	maxSEOTitleLen  = 300
	maxSEODescLen   = 500
	maxFontLen      = 200
	maxBrandNameLen = 200
	maxURLLen       = 2_000
	maxPhoneLen     = 32
)

var (
	// colorPattern accepts hex colors and the css color functions.
	colorPattern = regexp.MustCompile(`^(#[0-9a-fA-F]{3,8}|(rgb|rgba|hsl|hsla)\([0-9.,%\s]+\)|[a-zA-Z]+)$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9 ()\-.]{6,}$`)
)

func validColor(c string) bool {
	return c == "" || colorPattern.MatchString(c)
}

// validateSettings checks a page settings patch and returns the first error
// found.
func validateSettings(p models.SettingsPatch) string {
	if p.SEOTitle != nil && utf8.RuneCountInString(*p.SEOTitle) > maxSEOTitleLen {
		return "SEO title is too long (max 300 characters)."
	}
	if p.SEODescription != nil && utf8.RuneCountInString(*p.SEODescription) > maxSEODescLen {
		return "SEO description is too long (max 500 characters)."
	}
	if p.FontFamily != nil && utf8.RuneCountInString(*p.FontFamily) > maxFontLen {
		return "Font family is too long (max 200 characters)."
	}
	if p.BackgroundColor != nil && !validColor(*p.BackgroundColor) {
		return "Background color is not a valid color."
	}
	if p.AccentColor != nil && !validColor(*p.AccentColor) {
		return "Accent color is not a valid color."
	}
	return ""
}

// validateTheme checks agency theme inputs.
func validateTheme(t models.AgencyTheme) string {
	if strings.TrimSpace(t.BrandName) == "" {
		return "Brand name is required."
	}
	if utf8.RuneCountInString(t.BrandName) > maxBrandNameLen {
		return "Brand name is too long (max 200 characters)."
	}
	if len(t.LogoURL) > maxURLLen {
		return "Logo URL is too long."
	}
	if t.LogoURL != "" && !strings.HasPrefix(t.LogoURL, "https://") && !strings.HasPrefix(t.LogoURL, "http://") && !strings.HasPrefix(t.LogoURL, "/") {
		return "Logo URL must be an http(s) or site-relative URL."
	}
	if !validColor(t.PrimaryColor) || !validColor(t.AccentColor) {
		return "Theme colors must be valid colors."
	}
	if utf8.RuneCountInString(t.FontFamily) > maxFontLen {
		return "Font family is too long (max 200 characters)."
	}
	return ""
}

// validatePhone checks an enrollment phone number.
func validatePhone(phone string) string {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "Phone number is required."
	}
	if len(phone) > maxPhoneLen || !phonePattern.MatchString(phone) {
		return "Phone number is not valid."
	}
	return ""
}
