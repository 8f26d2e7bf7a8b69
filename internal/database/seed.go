// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"landingkit/internal/models"
	"landingkit/internal/presets"
)

// DemoPageSlug is the slug of the published page created by Seed.
const DemoPageSlug = "demo-painting"

// demoSteps is the follow-up sequence seeded for development.
var demoSteps = []models.SequenceStep{
	{Position: 0, DelayMinutes: 0, Body: "Thanks for requesting a quote! We'll call you within one business day."},
	{Position: 1, DelayMinutes: 24 * 60, Body: "Still thinking it over? Reply with a good time and we'll stop by for a free estimate."},
	{Position: 2, DelayMinutes: 3 * 24 * 60, Body: "Spring slots are filling up. Book this week and get 10% off."},
}

// Seed populates the database with development data: a published demo
// page built from the painting preset and a three-step SMS sequence. Each
// part is skipped when its table already has rows.
func Seed(db *sql.DB) error {
	if err := seedDemoPage(db); err != nil {
		return err
	}
	return seedSequence(db)
}

func seedDemoPage(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM landing_pages").Scan(&count); err != nil {
		return fmt.Errorf("seed check pages: %w", err)
	}
	if count > 0 {
		slog.Info("landing pages already seeded, skipping")
		return nil
	}

	preset, ok := presets.Get("painting")
	if !ok {
		return fmt.Errorf("seed: painting preset missing")
	}
	settings := preset.CreateSettings()
	content, err := json.Marshal(models.PageContent{
		Sections: preset.CreateSections(),
		Settings: settings,
	})
	if err != nil {
		return fmt.Errorf("seed marshal page: %w", err)
	}

	_, err = db.Exec(`
		INSERT INTO landing_pages (name, slug, title, description, status, content,
		                           seo_title, seo_description, published_at)
		VALUES ($1, $2, $3, $4, 'published', $5, $6, $7, NOW())
	`, preset.Label, DemoPageSlug, settings.SEOTitle, settings.SEODescription, content,
		settings.SEOTitle, settings.SEODescription)
	if err != nil {
		return fmt.Errorf("seed insert page: %w", err)
	}

	slog.Info("database seeded with demo page", "slug", DemoPageSlug)
	return nil
}

func seedSequence(db *sql.DB) error {
	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sms_sequences").Scan(&count); err != nil {
		return fmt.Errorf("seed check sequences: %w", err)
	}
	if count > 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed begin: %w", err)
	}
	defer tx.Rollback()

	var id string
	if err := tx.QueryRow(
		`INSERT INTO sms_sequences (name) VALUES ($1) RETURNING id`, "Quote follow-up",
	).Scan(&id); err != nil {
		return fmt.Errorf("seed insert sequence: %w", err)
	}
	for _, s := range demoSteps {
		if _, err := tx.Exec(`
			INSERT INTO sms_sequence_steps (sequence_id, position, delay_minutes, body)
			VALUES ($1, $2, $3, $4)
		`, id, s.Position, s.DelayMinutes, s.Body); err != nil {
			return fmt.Errorf("seed insert step: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed commit: %w", err)
	}

	slog.Info("database seeded with demo sms sequence", "steps", len(demoSteps))
	return nil
}
