// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package sections

import (
	"github.com/google/uuid"

	"landingkit/internal/models"
)

// CreateDefaultContent returns a fresh copy of the default content for a
// section type. Unknown types get an empty record.
func CreateDefaultContent(t models.SectionType) models.Content {
	tpl, ok := lookup(t)
	if !ok {
		return models.Content{}
	}
	return tpl.Content.Clone()
}

// NewSection instantiates a section of the given type with a new id, the
// palette title and subtitle, default content and default styles.
func NewSection(t models.SectionType) models.Section {
	s := models.Section{
		ID:      uuid.NewString(),
		Type:    t,
		Content: CreateDefaultContent(t),
		Styles:  models.DefaultStyles(),
	}
	if tpl, ok := lookup(t); ok {
		s.Title = tpl.Title
		s.Subtitle = tpl.Subtitle
	}
	return s
}

// Known reports whether t is in the palette.
func Known(t models.SectionType) bool {
	_, ok := lookup(t)
	return ok
}
