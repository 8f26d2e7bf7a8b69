// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Media represents an image uploaded from the builder into S3-compatible
// object storage. Metadata is stored in PostgreSQL; the file itself lives
// in the public bucket so pages can reference it directly.
type Media struct {
	ID           uuid.UUID  `json:"id"`
	Filename     string     `json:"filename"`
	OriginalName string     `json:"original_name"`
	ContentType  string     `json:"content_type"`
	SizeBytes    int64      `json:"size_bytes"`
	Bucket       string     `json:"bucket"`
	S3Key        string     `json:"s3_key"`
	ThumbS3Key   *string    `json:"thumb_s3_key,omitempty"`
	PageID       *uuid.UUID `json:"page_id,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// IsImage returns true if the media item is an image type.
func (m *Media) IsImage() bool {
	return strings.HasPrefix(m.ContentType, "image/")
}

// HumanSize returns a human-readable file size string.
func (m *Media) HumanSize() string {
	const (
		kb = 1024
		mb = 1024 * kb
	)
	switch {
	case m.SizeBytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(m.SizeBytes)/float64(mb))
	case m.SizeBytes >= kb:
		return fmt.Sprintf("%.0f KB", float64(m.SizeBytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", m.SizeBytes)
	}
}

// Upload is an image handed to the upload collaborator.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
	// PageID links the stored media to the page being edited, if saved.
	PageID *uuid.UUID
}

// UploadResult describes a stored upload.
type UploadResult struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
	Type     string `json:"type"`
}
