// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package builder

import (
	"context"
	"fmt"

	"landingkit/internal/models"
	"landingkit/internal/sections"
)

// GalleryResult reports the outcome of a multi-file gallery upload.
type GalleryResult struct {
	Uploaded []models.UploadResult `json:"uploaded"`
	Failed   []string              `json:"failed"`
}

// DefaultImageKey is the content key UploadContentImage writes when no key
// is given.
const DefaultImageKey = "image"

func (b *Builder) upload(ctx context.Context, f models.Upload) (models.UploadResult, error) {
	if b.uploader == nil {
		return models.UploadResult{}, ErrNoUploader
	}
	if f.PageID == nil {
		f.PageID = b.PageID()
	}
	res, err := b.uploader.UploadImage(ctx, f)
	if err != nil {
		b.logger.Error("image upload failed", "filename", f.Filename, "error", err)
		return models.UploadResult{}, err
	}
	return res, nil
}

// UploadBackgroundImage uploads f and makes it the section's background,
// sized to cover and centered.
func (b *Builder) UploadBackgroundImage(ctx context.Context, id string, f models.Upload) (models.UploadResult, error) {
	res, err := b.upload(ctx, f)
	if err != nil {
		return res, fmt.Errorf("upload background image: %w", err)
	}
	cover, center := "cover", "center"
	b.UpdateSectionStyles(id, models.StylesPatch{
		BackgroundImage:    &res.URL,
		BackgroundSize:     &cover,
		BackgroundPosition: &center,
	})
	return res, nil
}

// RemoveBackgroundImage clears the section's background image.
func (b *Builder) RemoveBackgroundImage(id string) bool {
	empty := ""
	return b.UpdateSectionStyles(id, models.StylesPatch{BackgroundImage: &empty})
}

// UploadContentImage uploads f and stores its URL under key in the
// section content.
func (b *Builder) UploadContentImage(ctx context.Context, id, key string, f models.Upload) (models.UploadResult, error) {
	if key == "" {
		key = DefaultImageKey
	}
	res, err := b.upload(ctx, f)
	if err != nil {
		return res, fmt.Errorf("upload content image: %w", err)
	}
	b.mutateSection("upload content image", id, func(s models.Section) models.Section {
		if s.Content == nil {
			s.Content = models.Content{}
		}
		s.Content[key] = res.URL
		return s
	})
	return res, nil
}

// UploadItemImage uploads f and stores its URL in one field of a content
// list record. The field is validated before uploading.
func (b *Builder) UploadItemImage(ctx context.Context, id, list string, index int, field string, f models.Upload) (models.UploadResult, error) {
	if err := b.checkItemField(id, list, index, field); err != nil {
		return models.UploadResult{}, fmt.Errorf("upload item image: %w", err)
	}
	res, err := b.upload(ctx, f)
	if err != nil {
		return res, fmt.Errorf("upload item image: %w", err)
	}
	if err := b.UpdateItem(id, list, index, map[string]any{field: res.URL}); err != nil {
		return res, fmt.Errorf("upload item image: %w", err)
	}
	return res, nil
}

func (b *Builder) checkItemField(id, list string, index int, field string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	st := b.hist.Present()
	i := st.index(id)
	if i < 0 {
		return nil
	}
	sec := st.Sections[i]
	if err := sections.Schema(sec.Type).ValidateItem(list, map[string]any{field: nil}); err != nil {
		return err
	}
	if n := len(sec.Content.List(list)); index < 0 || index >= n {
		return fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, n)
	}
	return nil
}

// UploadGallery uploads every file and appends the successful ones to the
// section's gallery images as one history step. Files that fail are
// reported by name and do not stop the rest.
func (b *Builder) UploadGallery(ctx context.Context, id string, files []models.Upload) (GalleryResult, error) {
	var out GalleryResult
	if b.uploader == nil {
		return out, fmt.Errorf("upload gallery: %w", ErrNoUploader)
	}

	added := make([]any, 0, len(files))
	for _, f := range files {
		res, err := b.upload(ctx, f)
		if err != nil {
			out.Failed = append(out.Failed, f.Filename)
			continue
		}
		out.Uploaded = append(out.Uploaded, res)
		added = append(added, map[string]any{
			"url":      res.URL,
			"caption":  "New Image",
			"category": "All",
		})
	}
	if len(added) == 0 {
		return out, nil
	}

	b.mutateSection("upload gallery", id, func(s models.Section) models.Section {
		if s.Content == nil {
			s.Content = models.Content{}
		}
		images := make([]any, 0)
		for _, r := range s.Content.List("images") {
			images = append(images, r)
		}
		s.Content["images"] = append(images, added...)
		return s
	})
	return out, nil
}
