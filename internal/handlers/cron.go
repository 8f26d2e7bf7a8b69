// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"landingkit/internal/models"
	"landingkit/internal/sequence"
	"landingkit/internal/store"
)

// SequenceProcessor runs one batch of due sequence messages. Satisfied by
// sequence.Processor.
type SequenceProcessor interface {
	Process(ctx context.Context, limit int) (sequence.Result, error)
}

// Enroller adds phone numbers to sequences. Satisfied by
// store.SequenceStore.
type Enroller interface {
	Enroll(ctx context.Context, sequenceID uuid.UUID, phone string) (*models.Enrollment, error)
}

// Sequences groups the SMS sequence endpoints: enrollment, and the batch
// trigger called by an external scheduler.
type Sequences struct {
	processor SequenceProcessor
	enroller  Enroller
	secret    string
	now       func() time.Time
}

// NewSequences creates the sequence handler group. An empty secret makes
// the cron endpoint refuse every call.
func NewSequences(processor SequenceProcessor, enroller Enroller, secret string) *Sequences {
	return &Sequences{processor: processor, enroller: enroller, secret: secret, now: time.Now}
}

// cronToken reads the caller's secret from the secret query parameter,
// falling back to "Authorization: Bearer <token>".
func cronToken(r *http.Request) string {
	if secret := r.URL.Query().Get("secret"); secret != "" {
		return secret
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return token
	}
	return ""
}

func writeCronError(w http.ResponseWriter, status int, errMsg, message string) {
	writeJSON(w, status, map[string]any{"success": false, "error": errMsg, "message": message})
}

// Process handles up to ?limit= due enrollments.
func (s *Sequences) Process(w http.ResponseWriter, r *http.Request) {
	if s.secret == "" {
		slog.Error("sequence cron called without CRON_SECRET configured")
		writeCronError(w, http.StatusInternalServerError, "Configuration error", "Cron secret is not configured.")
		return
	}
	if subtle.ConstantTimeCompare([]byte(cronToken(r)), []byte(s.secret)) != 1 {
		slog.Warn("sequence cron rejected", "remote", r.RemoteAddr)
		writeCronError(w, http.StatusUnauthorized, "Unauthorized", "Invalid or missing secret.")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	limit = sequence.ClampLimit(limit)

	res, err := s.processor.Process(r.Context(), limit)
	if err != nil {
		slog.Error("sequence processing failed", "limit", limit, "error", err)
		writeCronError(w, http.StatusInternalServerError, "Processing failed", "The sequence batch could not be processed.")
		return
	}

	slog.Info("sequence batch processed",
		"processed", res.Processed,
		"queued", res.Queued,
		"completed", res.Completed,
		"failed", res.Failed,
	)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"result":    res,
		"timestamp": s.now().UTC().Format(time.RFC3339),
	})
}

// Enroll adds a phone number to a sequence.
func (s *Sequences) Enroll(w http.ResponseWriter, r *http.Request) {
	id, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}
	var body struct {
		Phone string `json:"phone"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if msg := validatePhone(body.Phone); msg != "" {
		writeError(w, msg, http.StatusUnprocessableEntity)
		return
	}

	e, err := s.enroller.Enroll(r.Context(), id, strings.TrimSpace(body.Phone))
	if errors.Is(err, store.ErrSequenceNotFound) {
		writeError(w, "Sequence not found.", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("enroll phone failed", "sequence_id", id, "error", err)
		writeError(w, "Failed to enroll.", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, e)
}
