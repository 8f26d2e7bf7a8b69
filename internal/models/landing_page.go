// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// PageStatus represents the publishing state of a landing page.
type PageStatus string

const (
	PageStatusDraft     PageStatus = "draft"
	PageStatusPublished PageStatus = "published"
)

// UntitledPageName is used when a page is saved without an SEO title.
const UntitledPageName = "Untitled Landing Page"

// PageContent is the builder document persisted with a page: the ordered
// section list and the page settings.
type PageContent struct {
	Sections []Section    `json:"sections"`
	Settings PageSettings `json:"settings"`
}

// LandingPage is a persisted builder page.
type LandingPage struct {
	ID             uuid.UUID   `json:"id"`
	Name           string      `json:"name"`
	Slug           string      `json:"slug"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Status         PageStatus  `json:"status"`
	Content        PageContent `json:"content"`
	SEOTitle       string      `json:"seo_title"`
	SEODescription string      `json:"seo_description"`
	AgencyID       *uuid.UUID  `json:"agency_id,omitempty"`
	PublishedAt    *time.Time  `json:"published_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// IsPublished returns true if the page is in published status.
func (p *LandingPage) IsPublished() bool {
	return p.Status == PageStatusPublished
}

// PagePayload is the create/update body sent to the persistence layer.
type PagePayload struct {
	Name           string      `json:"name"`
	Title          string      `json:"title"`
	Description    string      `json:"description"`
	Status         PageStatus  `json:"status"`
	Content        PageContent `json:"content"`
	SEOTitle       string      `json:"seo_title"`
	SEODescription string      `json:"seo_description"`
}

// NewPagePayload builds the save payload for a builder document. Name and
// title fall back to UntitledPageName when no SEO title is set.
func NewPagePayload(sections []Section, settings PageSettings) PagePayload {
	name := settings.SEOTitle
	if name == "" {
		name = UntitledPageName
	}
	return PagePayload{
		Name:           name,
		Title:          name,
		Description:    settings.SEODescription,
		Status:         PageStatusDraft,
		Content:        PageContent{Sections: sections, Settings: settings},
		SEOTitle:       settings.SEOTitle,
		SEODescription: settings.SEODescription,
	}
}

// LandingPageRevision stores the state of a page before an update.
type LandingPageRevision struct {
	ID        uuid.UUID   `json:"id"`
	PageID    uuid.UUID   `json:"page_id"`
	Title     string      `json:"title"`
	Content   PageContent `json:"content"`
	CreatedAt time.Time   `json:"created_at"`
}
