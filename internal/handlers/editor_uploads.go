// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"landingkit/internal/builder"
	"landingkit/internal/media"
	"landingkit/internal/models"
)

const (
	// maxGalleryFiles caps how many images one gallery request may carry.
	maxGalleryFiles = 20

	// multipartMemory is how much of a multipart body is held in memory
	// before spilling to temp files.
	multipartMemory = 32 << 20
)

// openedUpload is a multipart file handed to the upload pipeline.
type openedUpload struct {
	models.Upload
	file multipart.File
}

func openUpload(h *multipart.FileHeader) (openedUpload, error) {
	f, err := h.Open()
	if err != nil {
		return openedUpload{}, err
	}
	return openedUpload{
		Upload: models.Upload{
			Filename:    h.Filename,
			ContentType: h.Header.Get("Content-Type"),
			Size:        h.Size,
			Body:        f,
		},
		file: f,
	}, nil
}

// parseMultipart limits and parses a multipart request body sized for n
// files.
func parseMultipart(w http.ResponseWriter, r *http.Request, files int) bool {
	r.Body = http.MaxBytesReader(w, r.Body, int64(files)*media.MaxUploadSize+1<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, "File too large. Maximum size is 10 MB.", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, "Invalid upload form.", http.StatusBadRequest)
		return false
	}
	return true
}

// formFile opens the single "file" field of a parsed multipart form.
func formFile(w http.ResponseWriter, r *http.Request) (openedUpload, bool) {
	var headers []*multipart.FileHeader
	if r.MultipartForm != nil {
		headers = r.MultipartForm.File["file"]
	}
	if len(headers) == 0 {
		writeError(w, "No file provided.", http.StatusBadRequest)
		return openedUpload{}, false
	}
	up, err := openUpload(headers[0])
	if err != nil {
		writeError(w, "Failed to read file.", http.StatusBadRequest)
		return openedUpload{}, false
	}
	return up, true
}

// writeUploadError maps upload pipeline errors to responses.
func writeUploadError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, builder.ErrNoUploader):
		writeError(w, "Object storage is not configured.", http.StatusServiceUnavailable)
	case errors.Is(err, media.ErrEmpty):
		writeError(w, "File is empty.", http.StatusBadRequest)
	case errors.Is(err, media.ErrTooLarge):
		writeError(w, "File too large. Maximum size is 10 MB.", http.StatusRequestEntityTooLarge)
	case errors.Is(err, media.ErrUnsupportedType):
		writeError(w, "File type not allowed. Accepted: JPEG, PNG, GIF, WebP, SVG.", http.StatusUnsupportedMediaType)
	case errors.Is(err, builder.ErrUnknownList), errors.Is(err, builder.ErrUnknownField), errors.Is(err, builder.ErrIndexOutOfRange):
		writeItemError(w, err)
	default:
		slog.Error("image upload failed", "error", err)
		writeError(w, "Upload failed.", http.StatusBadGateway)
	}
}

type uploadResponse struct {
	File models.UploadResult `json:"file"`
	View builder.View        `json:"view"`
}

// UploadBackground uploads an image and makes it the background of the
// section named by the sectionId form field.
func (e *Editor) UploadBackground(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	if !parseMultipart(w, r, 1) {
		return
	}
	sectionID := r.FormValue("sectionId")
	if sectionID == "" {
		writeError(w, "sectionId is required.", http.StatusBadRequest)
		return
	}
	up, ok := formFile(w, r)
	if !ok {
		return
	}
	defer up.file.Close()

	res, err := s.Builder.UploadBackgroundImage(r.Context(), sectionID, up.Upload)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{File: res, View: s.Builder.View()})
}

// RemoveBackground clears a section's background image.
func (e *Editor) RemoveBackground(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	writeChange(w, s.Builder, s.Builder.RemoveBackgroundImage(chi.URLParam(r, "id")))
}

// UploadContentImage uploads an image into a section content field, named
// by the optional key form field.
func (e *Editor) UploadContentImage(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
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

	res, err := s.Builder.UploadContentImage(r.Context(), chi.URLParam(r, "id"), r.FormValue("key"), up.Upload)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{File: res, View: s.Builder.View()})
}

// UploadItemImage uploads an image into one field of a content list item.
func (e *Editor) UploadItemImage(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	index, ok := intParam(w, r, "index")
	if !ok {
		return
	}
	if !parseMultipart(w, r, 1) {
		return
	}
	field := r.FormValue("field")
	if field == "" {
		field = "image"
	}
	up, ok := formFile(w, r)
	if !ok {
		return
	}
	defer up.file.Close()

	res, err := s.Builder.UploadItemImage(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "list"), index, field, up.Upload)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, uploadResponse{File: res, View: s.Builder.View()})
}

// UploadGallery uploads every "files" part and appends the images to the
// section's gallery. Files that fail are listed by name.
func (e *Editor) UploadGallery(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	if !parseMultipart(w, r, maxGalleryFiles) {
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		writeError(w, "No files provided.", http.StatusBadRequest)
		return
	}
	if len(headers) > maxGalleryFiles {
		writeError(w, "Too many files (max 20).", http.StatusBadRequest)
		return
	}

	uploads := make([]models.Upload, 0, len(headers))
	var closers []io.Closer
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()
	var unreadable []string
	for _, h := range headers {
		up, err := openUpload(h)
		if err != nil {
			unreadable = append(unreadable, h.Filename)
			continue
		}
		closers = append(closers, up.file)
		uploads = append(uploads, up.Upload)
	}

	res, err := s.Builder.UploadGallery(r.Context(), chi.URLParam(r, "id"), uploads)
	if err != nil {
		writeUploadError(w, err)
		return
	}
	res.Failed = append(unreadable, res.Failed...)
	writeJSON(w, http.StatusOK, map[string]any{"result": res, "view": s.Builder.View()})
}
