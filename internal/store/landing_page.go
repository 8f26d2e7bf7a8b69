// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"landingkit/internal/models"
	"landingkit/internal/slug"
)

// ErrPageNotFound is returned by operations addressing a page id that does
// not exist.
var ErrPageNotFound = errors.New("landing page not found")

// pageColumns lists the columns selected in landing_pages queries.
const pageColumns = `id, name, slug, title, description, status, content,
	seo_title, seo_description, agency_id, published_at, created_at, updated_at`

// LandingPageStore persists builder pages. It satisfies builder.Persister.
type LandingPageStore struct {
	db *sql.DB
}

// NewLandingPageStore creates a new LandingPageStore with the given database connection.
func NewLandingPageStore(db *sql.DB) *LandingPageStore {
	return &LandingPageStore{db: db}
}

// scanPage scans a landing_pages row, decoding the JSONB content.
func scanPage(scanner interface{ Scan(...any) error }) (*models.LandingPage, error) {
	var (
		p   models.LandingPage
		raw []byte
	)
	err := scanner.Scan(
		&p.ID, &p.Name, &p.Slug, &p.Title, &p.Description, &p.Status, &raw,
		&p.SEOTitle, &p.SEODescription, &p.AgencyID, &p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &p.Content); err != nil {
		return nil, fmt.Errorf("decode page content: %w", err)
	}
	return &p, nil
}

// CreatePage inserts a new page. The slug is derived from the name and made
// unique with a short suffix when taken.
func (s *LandingPageStore) CreatePage(ctx context.Context, in models.PagePayload) (*models.LandingPage, error) {
	content, err := json.Marshal(in.Content)
	if err != nil {
		return nil, fmt.Errorf("create landing page: encode content: %w", err)
	}
	pageSlug, err := s.uniqueSlug(ctx, in.Name)
	if err != nil {
		return nil, fmt.Errorf("create landing page: %w", err)
	}
	status := in.Status
	if status == "" {
		status = models.PageStatusDraft
	}

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO landing_pages (name, slug, title, description, status, content,
		                           seo_title, seo_description)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+pageColumns,
		in.Name, pageSlug, in.Title, in.Description, status, content,
		in.SEOTitle, in.SEODescription,
	)
	p, err := scanPage(row)
	if err != nil {
		return nil, fmt.Errorf("create landing page: %w", err)
	}
	return p, nil
}

// UpdatePage snapshots the current content into landing_page_revisions and
// then overwrites the page. Slug and status are left unchanged; publishing
// goes through Publish and Unpublish.
func (s *LandingPageStore) UpdatePage(ctx context.Context, id uuid.UUID, in models.PagePayload) (*models.LandingPage, error) {
	content, err := json.Marshal(in.Content)
	if err != nil {
		return nil, fmt.Errorf("update landing page: encode content: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("update landing page: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO landing_page_revisions (page_id, title, content)
		SELECT id, title, content FROM landing_pages WHERE id = $1
	`, id)
	if err != nil {
		return nil, fmt.Errorf("update landing page: snapshot revision: %w", err)
	}

	row := tx.QueryRowContext(ctx, `
		UPDATE landing_pages SET
			name = $1, title = $2, description = $3, content = $4,
			seo_title = $5, seo_description = $6, updated_at = NOW()
		WHERE id = $7
		RETURNING `+pageColumns,
		in.Name, in.Title, in.Description, content, in.SEOTitle, in.SEODescription, id,
	)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update landing page: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update landing page: commit: %w", err)
	}
	return p, nil
}

// FindByID retrieves a page by its UUID. Returns nil if not found.
func (s *LandingPageStore) FindByID(ctx context.Context, id uuid.UUID) (*models.LandingPage, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+pageColumns+` FROM landing_pages WHERE id = $1`, id)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find landing page by id: %w", err)
	}
	return p, nil
}

// FindBySlug retrieves a published page by its slug. Used for public page rendering.
func (s *LandingPageStore) FindBySlug(ctx context.Context, pageSlug string) (*models.LandingPage, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+pageColumns+` FROM landing_pages
		WHERE slug = $1 AND status = 'published'
	`, pageSlug)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find landing page by slug: %w", err)
	}
	return p, nil
}

// List returns pages ordered by last update, with pagination.
func (s *LandingPageStore) List(ctx context.Context, limit, offset int) ([]models.LandingPage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+pageColumns+`
		FROM landing_pages
		ORDER BY updated_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list landing pages: %w", err)
	}
	defer rows.Close()

	var pages []models.LandingPage
	for rows.Next() {
		p, err := scanPage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan landing page: %w", err)
		}
		pages = append(pages, *p)
	}
	return pages, rows.Err()
}

// Delete removes a page and, through the foreign key, its revisions.
func (s *LandingPageStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM landing_pages WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete landing page: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPageNotFound
	}
	return nil
}

// Publish marks a page published. published_at is set on first publish only.
func (s *LandingPageStore) Publish(ctx context.Context, id uuid.UUID) (*models.LandingPage, error) {
	return s.setStatus(ctx, id, models.PageStatusPublished)
}

// Unpublish returns a page to draft.
func (s *LandingPageStore) Unpublish(ctx context.Context, id uuid.UUID) (*models.LandingPage, error) {
	return s.setStatus(ctx, id, models.PageStatusDraft)
}

func (s *LandingPageStore) setStatus(ctx context.Context, id uuid.UUID, status models.PageStatus) (*models.LandingPage, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE landing_pages SET
			status = $1,
			published_at = CASE WHEN $1 = 'published' THEN COALESCE(published_at, NOW()) ELSE published_at END,
			updated_at = NOW()
		WHERE id = $2
		RETURNING `+pageColumns,
		status, id,
	)
	p, err := scanPage(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPageNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set landing page status: %w", err)
	}
	return p, nil
}

// Revisions returns the saved snapshots of a page, newest first.
func (s *LandingPageStore) Revisions(ctx context.Context, pageID uuid.UUID) ([]models.LandingPageRevision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, page_id, title, content, created_at
		FROM landing_page_revisions
		WHERE page_id = $1
		ORDER BY created_at DESC
	`, pageID)
	if err != nil {
		return nil, fmt.Errorf("list page revisions: %w", err)
	}
	defer rows.Close()

	var revs []models.LandingPageRevision
	for rows.Next() {
		var (
			r   models.LandingPageRevision
			raw []byte
		)
		if err := rows.Scan(&r.ID, &r.PageID, &r.Title, &raw, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan page revision: %w", err)
		}
		if err := json.Unmarshal(raw, &r.Content); err != nil {
			return nil, fmt.Errorf("decode revision content: %w", err)
		}
		revs = append(revs, r)
	}
	return revs, rows.Err()
}

func (s *LandingPageStore) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slug.Generate(name)
	var taken bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM landing_pages WHERE slug = $1)`, base,
	).Scan(&taken)
	if err != nil {
		return "", fmt.Errorf("check slug: %w", err)
	}
	if !taken {
		return base, nil
	}
	return slug.WithSuffix(base, uuid.NewString()[:8]), nil
}
