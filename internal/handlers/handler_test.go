// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests.
// Collaborators are replaced with in-memory fakes, so no database or Valkey
// is needed.
package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"landingkit/internal/builder"
	"landingkit/internal/live"
	"landingkit/internal/media"
	"landingkit/internal/models"
	"landingkit/internal/render"
	"landingkit/internal/session"
	"landingkit/internal/store"
)

// withURLParams attaches chi URL parameters to the request, given as
// alternating keys and values.
func withURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// call runs h against a request with an optional JSON body.
func call(t *testing.T, h http.HandlerFunc, method, target string, body any, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req := withURLParams(httptest.NewRequest(method, target, rd), params...)
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

// decode unmarshals a JSON response body.
func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type multipartFile struct {
	field, name, contentType string
	data                     []byte
}

// multipartRequest builds a multipart/form-data request.
func multipartRequest(t *testing.T, target string, fields map[string]string, files ...multipartFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, f := range files {
		h := make(map[string][]string)
		h["Content-Disposition"] = []string{`form-data; name="` + f.field + `"; filename="` + f.name + `"`}
		h["Content-Type"] = []string{f.contentType}
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// fakeUploader accepts every file except those named "bad*".
type fakeUploader struct {
	mu    sync.Mutex
	names []string
}

func (f *fakeUploader) UploadImage(_ context.Context, up models.Upload) (models.UploadResult, error) {
	if strings.HasPrefix(up.Filename, "bad") {
		return models.UploadResult{}, media.ErrUnsupportedType
	}
	data, err := io.ReadAll(up.Body)
	if err != nil {
		return models.UploadResult{}, err
	}
	f.mu.Lock()
	f.names = append(f.names, up.Filename)
	f.mu.Unlock()
	return models.UploadResult{
		URL:      "https://cdn.example.com/media/" + up.Filename,
		Filename: up.Filename,
		Size:     int64(len(data)),
		Type:     up.ContentType,
	}, nil
}

func (f *fakeUploader) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	return id != uuid.Nil, nil
}

// fakePageStore is an in-memory page store for sessions, pages and public
// handlers.
type fakePageStore struct {
	mu    sync.Mutex
	pages map[uuid.UUID]*models.LandingPage
	fail  bool
}

func newFakePageStore() *fakePageStore {
	return &fakePageStore{pages: make(map[uuid.UUID]*models.LandingPage)}
}

func (f *fakePageStore) CreatePage(_ context.Context, in models.PagePayload) (*models.LandingPage, error) {
	if f.fail {
		return nil, errors.New("database down")
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &models.LandingPage{
		ID:      uuid.New(),
		Name:    in.Name,
		Slug:    "page-" + uuid.NewString()[:8],
		Title:   in.Title,
		Status:  in.Status,
		Content: in.Content,
	}
	f.pages[p.ID] = p
	return p, nil
}

func (f *fakePageStore) UpdatePage(_ context.Context, id uuid.UUID, in models.PagePayload) (*models.LandingPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pages[id]
	if !ok {
		return nil, errors.New("missing")
	}
	p.Title = in.Title
	p.Content = in.Content
	return p, nil
}

func (f *fakePageStore) FindByID(_ context.Context, id uuid.UUID) (*models.LandingPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.pages[id], nil
}

func (f *fakePageStore) FindBySlug(_ context.Context, slug string) (*models.LandingPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.pages {
		if p.Slug == slug && p.IsPublished() {
			return p, nil
		}
	}
	return nil, nil
}

func (f *fakePageStore) List(_ context.Context, limit, offset int) ([]models.LandingPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.LandingPage
	for _, p := range f.pages {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePageStore) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.pages[id]; !ok {
		return store.ErrPageNotFound
	}
	delete(f.pages, id)
	return nil
}

func (f *fakePageStore) Publish(_ context.Context, id uuid.UUID) (*models.LandingPage, error) {
	return f.setStatus(id, models.PageStatusPublished)
}

func (f *fakePageStore) Unpublish(_ context.Context, id uuid.UUID) (*models.LandingPage, error) {
	return f.setStatus(id, models.PageStatusDraft)
}

func (f *fakePageStore) setStatus(id uuid.UUID, status models.PageStatus) (*models.LandingPage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.pages[id]
	if !ok {
		return nil, store.ErrPageNotFound
	}
	p.Status = status
	return p, nil
}

func (f *fakePageStore) Revisions(_ context.Context, _ uuid.UUID) ([]models.LandingPageRevision, error) {
	return nil, nil
}

func (f *fakePageStore) add(p *models.LandingPage) *models.LandingPage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.pages[p.ID] = p
	return p
}

type editorEnv struct {
	editor   *Editor
	registry *session.Registry
	pages    *fakePageStore
	uploader *fakeUploader
}

func newEditorEnv(t *testing.T) *editorEnv {
	t.Helper()
	renderer, err := render.New()
	require.NoError(t, err)

	pages := newFakePageStore()
	uploader := &fakeUploader{}
	hub := live.NewHub()
	reg := session.NewRegistry(session.Config{
		Persister: pages,
		Uploader:  uploader,
		Pages:     pages,
		OnClosed:  hub.CloseSession,
	})
	t.Cleanup(reg.Close)

	return &editorEnv{
		editor:   NewEditor(reg, renderer, hub, nil),
		registry: reg,
		pages:    pages,
		uploader: uploader,
	}
}

// open starts a session and returns its id.
func (env *editorEnv) open(t *testing.T, opts session.OpenOptions) string {
	t.Helper()
	s, err := env.registry.Open(context.Background(), opts)
	require.NoError(t, err)
	return s.ID
}

func (env *editorEnv) builder(t *testing.T, sid string) *builder.Builder {
	t.Helper()
	s, err := env.registry.Get(context.Background(), sid)
	require.NoError(t, err)
	return s.Builder
}

func stringsReader(s string) io.Reader { return strings.NewReader(s) }
