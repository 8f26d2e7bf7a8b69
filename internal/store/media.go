// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"landingkit/internal/models"
)

// MediaStore keeps the metadata of images uploaded from the builder. The
// bytes live in object storage under S3Key.
type MediaStore struct {
	db *sql.DB
}

// NewMediaStore creates a MediaStore.
func NewMediaStore(db *sql.DB) *MediaStore {
	return &MediaStore{db: db}
}

// MediaFilter narrows List and Count. Zero fields match everything.
type MediaFilter struct {
	// PageID limits results to media uploaded for one page.
	PageID *uuid.UUID
	// TypePrefix matches content types by prefix, e.g. "image/png" or
	// "image/".
	TypePrefix string
}

// where renders the filter as a WHERE clause with positional arguments
// starting at $1.
func (f MediaFilter) where() (string, []any) {
	var conds []string
	var args []any
	if f.PageID != nil {
		args = append(args, *f.PageID)
		conds = append(conds, "page_id = $"+strconv.Itoa(len(args)))
	}
	if f.TypePrefix != "" {
		args = append(args, escapeLike(f.TypePrefix)+"%")
		conds = append(conds, "content_type LIKE $"+strconv.Itoa(len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

const mediaColumns = `id, filename, original_name, content_type, size_bytes,
	bucket, s3_key, thumb_s3_key, page_id, created_at`

func scanMedia(row interface{ Scan(...any) error }) (*models.Media, error) {
	var m models.Media
	if err := row.Scan(
		&m.ID, &m.Filename, &m.OriginalName, &m.ContentType, &m.SizeBytes,
		&m.Bucket, &m.S3Key, &m.ThumbS3Key, &m.PageID, &m.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &m, nil
}

// Create records an uploaded object.
func (s *MediaStore) Create(ctx context.Context, m *models.Media) (*models.Media, error) {
	created, err := scanMedia(s.db.QueryRowContext(ctx, `
		INSERT INTO media (filename, original_name, content_type, size_bytes,
			bucket, s3_key, thumb_s3_key, page_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+mediaColumns,
		m.Filename, m.OriginalName, m.ContentType, m.SizeBytes,
		m.Bucket, m.S3Key, m.ThumbS3Key, m.PageID,
	))
	if err != nil {
		return nil, fmt.Errorf("create media %s: %w", m.S3Key, err)
	}
	return created, nil
}

// FindByID returns the media with id, or nil.
func (s *MediaStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	m, err := scanMedia(s.db.QueryRowContext(ctx,
		`SELECT `+mediaColumns+` FROM media WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find media %s: %w", id, err)
	}
	return m, nil
}

// List returns matching media, newest first.
func (s *MediaStore) List(ctx context.Context, filter MediaFilter, limit, offset int) ([]models.Media, error) {
	where, args := filter.where()
	n := len(args)
	args = append(args, limit, offset)
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+mediaColumns+` FROM media`+where+
			` ORDER BY created_at DESC, id LIMIT $`+strconv.Itoa(n+1)+` OFFSET $`+strconv.Itoa(n+2),
		args...)
	if err != nil {
		return nil, fmt.Errorf("list media: %w", err)
	}
	defer rows.Close()

	items := []models.Media{}
	for rows.Next() {
		m, err := scanMedia(rows)
		if err != nil {
			return nil, fmt.Errorf("scan media: %w", err)
		}
		items = append(items, *m)
	}
	return items, rows.Err()
}

// Count returns how many media match filter.
func (s *MediaStore) Count(ctx context.Context, filter MediaFilter) (int, error) {
	where, args := filter.where()
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM media`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count media: %w", err)
	}
	return n, nil
}

// Delete removes the row and returns it so the caller can delete the
// stored objects. Returns nil if there is no such media.
func (s *MediaStore) Delete(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	m, err := scanMedia(s.db.QueryRowContext(ctx,
		`DELETE FROM media WHERE id = $1 RETURNING `+mediaColumns, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete media %s: %w", id, err)
	}
	return m, nil
}
