// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"landingkit/internal/builder"
	"landingkit/internal/live"
	"landingkit/internal/models"
	"landingkit/internal/presets"
	"landingkit/internal/render"
	"landingkit/internal/sections"
	"landingkit/internal/session"
)

// ThemeSource resolves the agency theme pages fall back to. Satisfied by
// cache.ThemeCache.
type ThemeSource interface {
	Get(ctx context.Context, agencyID uuid.UUID) (*models.AgencyTheme, error)
}

// Editor groups the JSON API driving editing sessions. Every mutation
// answers with the session's full view so clients never have to merge
// partial state.
type Editor struct {
	sessions *session.Registry
	renderer *render.Renderer
	hub      *live.Hub
	themes   ThemeSource
}

// NewEditor creates the editor handler group. themes may be nil.
func NewEditor(sessions *session.Registry, renderer *render.Renderer, hub *live.Hub, themes ThemeSource) *Editor {
	return &Editor{sessions: sessions, renderer: renderer, hub: hub, themes: themes}
}

type sessionResponse struct {
	ID   string       `json:"id"`
	View builder.View `json:"view"`
}

type changeResponse struct {
	Changed bool         `json:"changed"`
	View    builder.View `json:"view"`
}

type sectionResponse struct {
	Section models.Section `json:"section"`
	View    builder.View   `json:"view"`
}

// session resolves the {sid} URL parameter, writing the error response
// when it cannot.
func (e *Editor) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sid := chi.URLParam(r, "sid")
	s, err := e.sessions.Get(r.Context(), sid)
	if errors.Is(err, session.ErrNotFound) {
		writeError(w, "Session not found.", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		slog.Error("load editing session failed", "session_id", sid, "error", err)
		writeError(w, "Failed to load session.", http.StatusInternalServerError)
		return nil, false
	}
	return s, true
}

func writeChange(w http.ResponseWriter, b *builder.Builder, changed bool) {
	writeJSON(w, http.StatusOK, changeResponse{Changed: changed, View: b.View()})
}

// findSection returns the section with the given id from the present state.
func findSection(b *builder.Builder, id string) (models.Section, bool) {
	for _, s := range b.State().Sections {
		if s.ID == id {
			return s, true
		}
	}
	return models.Section{}, false
}

// Templates lists the section palette.
func (e *Editor) Templates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sections.Templates())
}

// Presets lists the industry starter pages.
func (e *Editor) Presets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, presets.List())
}

// OpenSession starts an editing session from a saved page, a preset or
// nothing.
func (e *Editor) OpenSession(w http.ResponseWriter, r *http.Request) {
	var opts session.OpenOptions
	if !decodeJSON(w, r, &opts) {
		return
	}

	s, err := e.sessions.Open(r.Context(), opts)
	switch {
	case errors.Is(err, session.ErrPageNotFound):
		writeError(w, "Page not found.", http.StatusNotFound)
		return
	case errors.Is(err, builder.ErrUnknownPreset):
		writeError(w, "Unknown preset.", http.StatusNotFound)
		return
	case err != nil:
		slog.Error("open editing session failed", "error", err)
		writeError(w, "Failed to open session.", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{ID: s.ID, View: s.Builder.View()})
}

// GetSession returns the current view of a session.
func (e *Editor) GetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: s.ID, View: s.Builder.View()})
}

// CloseSession ends a session and drops its draft.
func (e *Editor) CloseSession(w http.ResponseWriter, r *http.Request) {
	if !e.sessions.Remove(r.Context(), chi.URLParam(r, "sid")) {
		writeError(w, "Session not found.", http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AddSection appends a section from the palette.
func (e *Editor) AddSection(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Type models.SectionType `json:"type"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Type == "" {
		writeError(w, "Section type is required.", http.StatusBadRequest)
		return
	}
	sec := s.Builder.AddSection(body.Type)
	writeJSON(w, http.StatusCreated, sectionResponse{Section: sec, View: s.Builder.View()})
}

// UpdateSection merges a partial update into a section.
func (e *Editor) UpdateSection(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	var patch models.SectionPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	writeChange(w, s.Builder, s.Builder.UpdateSection(chi.URLParam(r, "id"), patch))
}

// UpdateContent replaces a section's content.
func (e *Editor) UpdateContent(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	var content models.Content
	if !decodeJSON(w, r, &content) {
		return
	}
	if content == nil {
		content = models.Content{}
	}
	writeChange(w, s.Builder, s.Builder.UpdateSectionContent(chi.URLParam(r, "id"), content))
}

// UpdateStyles merges a styles patch into a section.
func (e *Editor) UpdateStyles(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	var patch models.StylesPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	writeChange(w, s.Builder, s.Builder.UpdateSectionStyles(chi.URLParam(r, "id"), patch))
}

// DeleteSection removes a section.
func (e *Editor) DeleteSection(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	writeChange(w, s.Builder, s.Builder.DeleteSection(chi.URLParam(r, "id")))
}

// DuplicateSection copies a section to the end of the page.
func (e *Editor) DuplicateSection(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	sec, copied := s.Builder.DuplicateSection(chi.URLParam(r, "id"))
	if !copied {
		writeChange(w, s.Builder, false)
		return
	}
	writeJSON(w, http.StatusCreated, sectionResponse{Section: sec, View: s.Builder.View()})
}

// MoveSection shifts a section one position up or down.
func (e *Editor) MoveSection(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Direction builder.Direction `json:"direction"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	if body.Direction != builder.Up && body.Direction != builder.Down {
		writeError(w, `Direction must be "up" or "down".`, http.StatusBadRequest)
		return
	}
	writeChange(w, s.Builder, s.Builder.MoveSection(chi.URLParam(r, "id"), body.Direction))
}

// Reorder moves a section to the position of another.
func (e *Editor) Reorder(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	var body struct {
		SourceID string `json:"sourceId"`
		TargetID string `json:"targetId"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	writeChange(w, s.Builder, s.Builder.Reorder(body.SourceID, body.TargetID))
}

// writeItemError maps content list errors to responses.
func writeItemError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, builder.ErrUnknownList):
		writeError(w, "Unknown content list.", http.StatusBadRequest)
	case errors.Is(err, builder.ErrUnknownField):
		writeError(w, "Unknown item field.", http.StatusBadRequest)
	case errors.Is(err, builder.ErrIndexOutOfRange):
		writeError(w, "Item not found.", http.StatusNotFound)
	default:
		slog.Error("content list edit failed", "error", err)
		writeError(w, "Failed to edit item.", http.StatusInternalServerError)
	}
}

// UpdateItem merges a patch into one record of a content list.
func (e *Editor) UpdateItem(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	index, ok := intParam(w, r, "index")
	if !ok {
		return
	}
	var patch map[string]any
	if !decodeJSON(w, r, &patch) {
		return
	}
	if err := s.Builder.UpdateItem(chi.URLParam(r, "id"), chi.URLParam(r, "list"), index, patch); err != nil {
		writeItemError(w, err)
		return
	}
	writeChange(w, s.Builder, true)
}

// AddItem appends a record to a content list.
func (e *Editor) AddItem(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	var item map[string]any
	if !decodeJSON(w, r, &item) {
		return
	}
	if err := s.Builder.AddItem(chi.URLParam(r, "id"), chi.URLParam(r, "list"), item); err != nil {
		writeItemError(w, err)
		return
	}
	writeChange(w, s.Builder, true)
}

// RemoveItem deletes a record from a content list.
func (e *Editor) RemoveItem(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	index, ok := intParam(w, r, "index")
	if !ok {
		return
	}
	if err := s.Builder.RemoveItem(chi.URLParam(r, "id"), chi.URLParam(r, "list"), index); err != nil {
		writeItemError(w, err)
		return
	}
	writeChange(w, s.Builder, true)
}

// Fields lists the inline-editable values of a section.
func (e *Editor) Fields(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	sec, found := findSection(s.Builder, chi.URLParam(r, "id"))
	if !found {
		writeError(w, "Section not found.", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, render.Fields(sec, nil))
}

// CommitField stores an inline edit addressed by its edit path.
func (e *Editor) CommitField(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Path  string `json:"path"`
		Value string `json:"value"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	id := chi.URLParam(r, "id")
	sec, found := findSection(s.Builder, id)
	if !found {
		writeError(w, "Section not found.", http.StatusNotFound)
		return
	}

	changed := false
	err := render.CommitPath(sec, body.Path, body.Value, func(p models.SectionPatch) {
		changed = s.Builder.UpdateSection(id, p)
	})
	if errors.Is(err, render.ErrUnknownPath) {
		writeError(w, "Unknown edit path.", http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Error("commit inline edit failed", "path", body.Path, "error", err)
		writeError(w, "Failed to save edit.", http.StatusInternalServerError)
		return
	}
	writeChange(w, s.Builder, changed)
}

// Select marks a section as selected. An empty id clears the selection.
func (e *Editor) Select(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	var body struct {
		SectionID string `json:"sectionId"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	s.Builder.Select(body.SectionID)
	writeChange(w, s.Builder, false)
}

// DragStart begins dragging a canvas section or a palette template.
func (e *Editor) DragStart(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	var body struct {
		SectionID    string             `json:"sectionId"`
		TemplateType models.SectionType `json:"templateType"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	switch {
	case body.SectionID != "":
		s.Builder.BeginDrag(body.SectionID)
	case body.TemplateType != "":
		s.Builder.BeginTemplateDrag(body.TemplateType)
	default:
		writeError(w, "sectionId or templateType is required.", http.StatusBadRequest)
		return
	}
	writeChange(w, s.Builder, false)
}

// DragEnd finishes a drag over the section with overId, or outside the
// canvas when overId is empty.
func (e *Editor) DragEnd(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	var body struct {
		OverID string `json:"overId"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	writeChange(w, s.Builder, s.Builder.EndDrag(body.OverID))
}

// Drop adds a template dropped onto the canvas.
func (e *Editor) Drop(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Type models.SectionType `json:"type"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	writeChange(w, s.Builder, s.Builder.DropTemplate(body.Type))
}

// UpdateSettings merges a page settings patch.
func (e *Editor) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	var patch models.SettingsPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	if msg := validateSettings(patch); msg != "" {
		writeError(w, msg, http.StatusUnprocessableEntity)
		return
	}
	writeChange(w, s.Builder, s.Builder.UpdateSettings(patch))
}

// ApplyPreset replaces the page with a preset. A page that already has
// sections is only replaced when the client confirms.
func (e *Editor) ApplyPreset(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	var body struct {
		PresetID string `json:"presetId"`
		Confirm  bool   `json:"confirm"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	err := s.Builder.ApplyPreset(body.PresetID, func() bool { return body.Confirm })
	switch {
	case errors.Is(err, builder.ErrUnknownPreset):
		writeError(w, "Unknown preset.", http.StatusNotFound)
		return
	case errors.Is(err, builder.ErrPresetDeclined):
		writeError(w, "The page has sections. Confirm to replace them.", http.StatusConflict)
		return
	case err != nil:
		slog.Error("apply preset failed", "preset", body.PresetID, "error", err)
		writeError(w, "Failed to apply preset.", http.StatusInternalServerError)
		return
	}
	writeChange(w, s.Builder, true)
}

// Undo steps back one history entry.
func (e *Editor) Undo(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	writeChange(w, s.Builder, s.Builder.Undo())
}

// Redo steps forward one history entry.
func (e *Editor) Redo(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	writeChange(w, s.Builder, s.Builder.Redo())
}

// Save persists the page, creating it on first save.
func (e *Editor) Save(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	page, err := s.Builder.Save(r.Context())
	if errors.Is(err, builder.ErrNoPersister) {
		writeError(w, "Saving is not configured.", http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		slog.Error("save landing page failed", "session_id", s.ID, "error", err)
		writeError(w, "Failed to save page.", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"page": page, "view": s.Builder.View()})
}

// SetPreview toggles preview mode.
func (e *Editor) SetPreview(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	var body struct {
		Preview bool `json:"preview"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	s.Builder.SetPreview(body.Preview)
	writeChange(w, s.Builder, false)
}

// Preview renders the session's page as HTML. With ?edit=1 the output
// carries inline-edit markers and the selection outline. ?agency=<id>
// applies that agency's theme.
func (e *Editor) Preview(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	v := s.Builder.View()
	data := render.PageData{
		Settings: v.Settings,
		Sections: v.Sections,
		Preview:  v.Preview,
	}
	if r.URL.Query().Get("edit") == "1" {
		data.Editable = true
		data.SelectedID = v.SelectedID
	}
	if agency := r.URL.Query().Get("agency"); agency != "" && e.themes != nil {
		if id, err := uuid.Parse(agency); err == nil {
			theme, err := e.themes.Get(r.Context(), id)
			if err != nil {
				slog.Warn("agency theme lookup failed", "agency_id", id, "error", err)
			}
			data.Theme = theme
		}
	}

	var buf bytes.Buffer
	if err := e.renderer.Page(&buf, data); err != nil {
		slog.Error("render preview failed", "session_id", s.ID, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(buf.Bytes())
}

// Live streams the session's view over a WebSocket.
func (e *Editor) Live(w http.ResponseWriter, r *http.Request) {
	s, ok := e.session(w, r)
	if !ok {
		return
	}
	e.hub.Serve(w, r, s.ID, s.Builder)
}
