// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package media stores images uploaded from the builder. It validates the
// bytes, writes the original and a thumbnail to object storage and records
// the metadata in PostgreSQL.
package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"landingkit/internal/imaging"
	"landingkit/internal/models"
)

// MaxUploadSize is the largest accepted image (10 MB).
const MaxUploadSize = 10 << 20

var (
	ErrEmpty           = errors.New("file is empty")
	ErrTooLarge        = errors.New("file too large")
	ErrUnsupportedType = errors.New("file type not allowed")
)

// allowedTypes are the image types pages may embed.
var allowedTypes = map[string]string{
	"image/jpeg":    ".jpg",
	"image/png":     ".png",
	"image/gif":     ".gif",
	"image/webp":    ".webp",
	"image/svg+xml": ".svg",
}

// ObjectStore is the subset of storage.Client the service needs.
type ObjectStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, keys ...string) error
	FileURL(key string) string
	Bucket() string
}

// Records persists media metadata. Satisfied by store.MediaStore.
type Records interface {
	Create(ctx context.Context, m *models.Media) (*models.Media, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Media, error)
}

// Service implements builder.Uploader.
type Service struct {
	objects ObjectStore
	records Records
	maxSize int64
	now     func() time.Time
}

// NewService creates a Service. records may be nil, in which case uploads
// are stored without a metadata row.
func NewService(objects ObjectStore, records Records) *Service {
	return &Service{objects: objects, records: records, maxSize: MaxUploadSize, now: time.Now}
}

// UploadImage validates f by content sniffing, stores it and returns its
// public URL. A JPEG thumbnail is stored next to raster images; thumbnail
// failures are logged and do not fail the upload.
func (s *Service) UploadImage(ctx context.Context, f models.Upload) (models.UploadResult, error) {
	if f.Size > s.maxSize {
		return models.UploadResult{}, fmt.Errorf("%w: %d bytes, maximum is %d", ErrTooLarge, f.Size, s.maxSize)
	}
	data, err := io.ReadAll(io.LimitReader(f.Body, s.maxSize+1))
	if err != nil {
		return models.UploadResult{}, fmt.Errorf("read upload: %w", err)
	}
	if len(data) == 0 {
		return models.UploadResult{}, ErrEmpty
	}
	if int64(len(data)) > s.maxSize {
		return models.UploadResult{}, fmt.Errorf("%w: maximum is %d bytes", ErrTooLarge, s.maxSize)
	}

	contentType := mimetype.Detect(data).String()
	ext, ok := allowedTypes[contentType]
	if !ok {
		return models.UploadResult{}, fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	now := s.now()
	fileID := uuid.NewString()
	prefix := fmt.Sprintf("media/%d/%02d/%s", now.Year(), now.Month(), fileID)
	key := prefix + ext

	if err := s.objects.Upload(ctx, key, contentType, bytes.NewReader(data), int64(len(data))); err != nil {
		return models.UploadResult{}, fmt.Errorf("upload image: %w", err)
	}

	var thumbKey *string
	if imaging.Decodable(contentType) {
		thumbKey = s.storeThumbnail(ctx, prefix, data)
	}

	name := cleanName(f.Filename, ext)
	if s.records != nil {
		_, err := s.records.Create(ctx, &models.Media{
			Filename:     fileID + ext,
			OriginalName: name,
			ContentType:  contentType,
			SizeBytes:    int64(len(data)),
			Bucket:       s.objects.Bucket(),
			S3Key:        key,
			ThumbS3Key:   thumbKey,
			PageID:       f.PageID,
		})
		if err != nil {
			s.removeObjects(key, thumbKey)
			return models.UploadResult{}, fmt.Errorf("record image: %w", err)
		}
	}

	slog.Info("image uploaded", "key", key, "type", contentType, "size", len(data))
	return models.UploadResult{
		URL:      s.objects.FileURL(key),
		Filename: name,
		Size:     int64(len(data)),
		Type:     contentType,
	}, nil
}

// Delete removes the metadata row and the stored objects. Returns false if
// no media has that id.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	if s.records == nil {
		return false, nil
	}
	m, err := s.records.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if m == nil {
		return false, nil
	}
	s.removeObjects(m.S3Key, m.ThumbS3Key)
	return true, nil
}

func (s *Service) storeThumbnail(ctx context.Context, prefix string, data []byte) *string {
	variants, err := imaging.GenerateVariants(data, nil)
	if err != nil || len(variants) == 0 {
		slog.Warn("thumbnail generation failed", "error", err, "key", prefix)
		return nil
	}
	thumb := variants[0]
	key := prefix + "_" + thumb.Name + ".jpg"
	if err := s.objects.Upload(ctx, key, thumb.ContentType, bytes.NewReader(thumb.Data), int64(len(thumb.Data))); err != nil {
		slog.Warn("thumbnail upload failed", "error", err, "key", key)
		return nil
	}
	return &key
}

// removeObjects deletes stored objects on a detached context so cleanup
// survives a cancelled request.
func (s *Service) removeObjects(key string, thumbKey *string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	keys := []string{key}
	if thumbKey != nil {
		keys = append(keys, *thumbKey)
	}
	if err := s.objects.Delete(ctx, keys...); err != nil {
		slog.Warn("s3 cleanup failed", "error", err, "keys", keys)
	}
}

// cleanName strips directories from a client-supplied filename.
func cleanName(name, ext string) string {
	name = filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return "upload" + ext
	}
	return name
}
