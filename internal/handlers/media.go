// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"landingkit/internal/models"
	"landingkit/internal/store"
)

// MediaService stores and deletes uploaded images. Satisfied by
// media.Service.
type MediaService interface {
	UploadImage(ctx context.Context, f models.Upload) (models.UploadResult, error)
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// MediaLibrary lists stored media. Satisfied by store.MediaStore.
type MediaLibrary interface {
	List(ctx context.Context, filter store.MediaFilter, limit, offset int) ([]models.Media, error)
	Count(ctx context.Context, filter store.MediaFilter) (int, error)
}

// URLResolver turns an object key into a public URL. Satisfied by
// storage.Client.
type URLResolver interface {
	FileURL(key string) string
}

// Media groups the generic media endpoints. A nil service means object
// storage is not configured.
type Media struct {
	service MediaService
	library MediaLibrary
	urls    URLResolver
}

// NewMedia creates the media handler group.
func NewMedia(service MediaService, library MediaLibrary, urls URLResolver) *Media {
	return &Media{service: service, library: library, urls: urls}
}

type mediaView struct {
	models.Media
	URL      string `json:"url"`
	ThumbURL string `json:"thumb_url,omitempty"`
	Size     string `json:"size"`
}

// List returns a page of the media library. The optional page and type
// query parameters narrow it to one page's uploads or a content type
// prefix.
func (m *Media) List(w http.ResponseWriter, r *http.Request) {
	if m.library == nil {
		writeError(w, "Media library is not configured.", http.StatusServiceUnavailable)
		return
	}
	var filter store.MediaFilter
	if v := r.URL.Query().Get("page"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeError(w, "Invalid page ID.", http.StatusBadRequest)
			return
		}
		filter.PageID = &id
	}
	filter.TypePrefix = r.URL.Query().Get("type")

	limit, offset := pagination(r, 50, 200)
	items, err := m.library.List(r.Context(), filter, limit, offset)
	if err != nil {
		slog.Error("list media failed", "error", err)
		writeError(w, "Failed to list media.", http.StatusInternalServerError)
		return
	}
	total, err := m.library.Count(r.Context(), filter)
	if err != nil {
		slog.Error("count media failed", "error", err)
		writeError(w, "Failed to list media.", http.StatusInternalServerError)
		return
	}

	views := make([]mediaView, 0, len(items))
	for _, item := range items {
		v := mediaView{Media: item, Size: item.HumanSize()}
		if m.urls != nil {
			v.URL = m.urls.FileURL(item.S3Key)
			if item.ThumbS3Key != nil {
				v.ThumbURL = m.urls.FileURL(*item.ThumbS3Key)
			}
		}
		views = append(views, v)
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": views, "total": total})
}

// Upload stores the "file" part of a multipart request.
func (m *Media) Upload(w http.ResponseWriter, r *http.Request) {
	if m.service == nil {
		writeError(w, "Object storage is not configured.", http.StatusServiceUnavailable)
		return
	}
	if !parseMultipart(w, r, 1) {
		return
	}
	up, ok := formFile(w, r)
	if !ok {
		return
	}
	defer up.file.Close()

	res, err := m.service.UploadImage(r.Context(), up.Upload)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	slog.Info("media uploaded", "filename", res.Filename, "size", res.Size)
	writeJSON(w, http.StatusCreated, res)
}

// Delete removes a media item and its stored files.
func (m *Media) Delete(w http.ResponseWriter, r *http.Request) {
	if m.service == nil {
		writeError(w, "Object storage is not configured.", http.StatusServiceUnavailable)
		return
	}
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	found, err := m.service.Delete(r.Context(), id)
	if err != nil {
		slog.Error("delete media failed", "media_id", id, "error", err)
		writeError(w, "Failed to delete media.", http.StatusInternalServerError)
		return
	}
	if !found {
		writeError(w, "Media not found.", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
