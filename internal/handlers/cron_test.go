package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landingkit/internal/models"
	"landingkit/internal/sequence"
	"landingkit/internal/store"
)

type fakeProcessor struct {
	limits []int
	err    error
}

func (f *fakeProcessor) Process(_ context.Context, limit int) (sequence.Result, error) {
	f.limits = append(f.limits, limit)
	if f.err != nil {
		return sequence.Result{}, f.err
	}
	return sequence.Result{Processed: 3, Queued: 2, Completed: 1}, nil
}

type fakeEnroller struct {
	sequences map[uuid.UUID]bool
}

func (f *fakeEnroller) Enroll(_ context.Context, id uuid.UUID, phone string) (*models.Enrollment, error) {
	if !f.sequences[id] {
		return nil, fmt.Errorf("enroll: %w", store.ErrSequenceNotFound)
	}
	return &models.Enrollment{ID: uuid.New(), SequenceID: id, Phone: phone, Status: models.EnrollmentActive}, nil
}

func cronRequest(s *Sequences, target, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	s.Process(rec, req)
	return rec
}

func TestProcessAuth(t *testing.T) {
	proc := &fakeProcessor{}
	s := NewSequences(proc, nil, "s3cret")
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }

	tests := []struct {
		name   string
		target string
		auth   string
		status int
	}{
		{"query secret", "/cron?secret=s3cret", "", http.StatusOK},
		{"bearer token", "/cron", "Bearer s3cret", http.StatusOK},
		{"wrong secret", "/cron?secret=nope", "", http.StatusUnauthorized},
		{"missing secret", "/cron", "", http.StatusUnauthorized},
		{"not bearer", "/cron", "Basic s3cret", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := cronRequest(s, tt.target, tt.auth)
			assert.Equal(t, tt.status, rec.Code)
			resp := decode[map[string]any](t, rec)
			assert.Equal(t, tt.status == http.StatusOK, resp["success"])
		})
	}
	assert.Len(t, proc.limits, 2)
}

func TestProcessResult(t *testing.T) {
	proc := &fakeProcessor{}
	s := NewSequences(proc, nil, "s3cret")
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("X", 3600)) }

	rec := cronRequest(s, "/cron?secret=s3cret&limit=5000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"success": true,
		"result": {"processed": 3, "queued": 2, "completed": 1, "failed": 0},
		"timestamp": "2026-03-01T11:00:00Z"
	}`, rec.Body.String())

	cronRequest(s, "/cron?secret=s3cret", "")
	assert.Equal(t, []int{sequence.MaxLimit, sequence.DefaultLimit}, proc.limits)
}

func TestProcessErrors(t *testing.T) {
	rec := cronRequest(NewSequences(&fakeProcessor{}, nil, ""), "/cron?secret=", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Configuration error", decode[map[string]any](t, rec)["error"])

	s := NewSequences(&fakeProcessor{err: errors.New("db down")}, nil, "s3cret")
	rec = cronRequest(s, "/cron?secret=s3cret", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode[map[string]any](t, rec)
	assert.Equal(t, false, resp["success"])
	assert.Equal(t, "Processing failed", resp["error"])
}

func TestEnroll(t *testing.T) {
	seq := uuid.New()
	s := NewSequences(nil, &fakeEnroller{sequences: map[uuid.UUID]bool{seq: true}}, "s3cret")

	rec := call(t, s.Enroll, http.MethodPost, "/", map[string]string{"phone": " +15551234567 "}, "id", seq.String())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	e := decode[models.Enrollment](t, rec)
	assert.Equal(t, "+15551234567", e.Phone)
	assert.Equal(t, models.EnrollmentActive, e.Status)

	rec = call(t, s.Enroll, http.MethodPost, "/", map[string]string{"phone": ""}, "id", seq.String())
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	rec = call(t, s.Enroll, http.MethodPost, "/", map[string]string{"phone": "+15551234567"}, "id", uuid.NewString())
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
