// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package render turns sections and pages into HTML. Each section type has
// its own template in templates/sections.html; types without one render a
// placeholder. Malformed content never fails a render: missing keys and
// wrong shapes fall back to empty values.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html"
	"html/template"
	"io"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"landingkit/internal/markdown"
	"landingkit/internal/models"
	"landingkit/internal/sections"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed templates/page.css
var pageCSS string

// Options controls how a single section is rendered.
type Options struct {
	Editable bool // emit data-section-id and data-edit-path markers
	Selected bool
}

// PageData is everything needed to render a full landing page document.
type PageData struct {
	Title       string
	Description string
	Settings    models.PageSettings
	Sections    []models.Section
	Theme       *models.AgencyTheme // fallback for blank settings, may be nil
	Preview     bool
	Editable    bool
	SelectedID  string
}

// Renderer holds the parsed section and page templates.
type Renderer struct {
	tmpl *template.Template
}

type sectionView struct {
	models.Section
	Editable bool
	Selected bool
}

type wrapperView struct {
	ID       string
	Type     models.SectionType
	Editable bool
	Selected bool
	Style    template.CSS
	Inner    template.HTML
}

type headingView struct {
	Title, TitlePath       string
	Subtitle, SubtitlePath string
}

type pageView struct {
	Title       string
	Description string
	Preview     bool
	Stylesheet  template.CSS
	BodyStyle   template.CSS
	Body        template.HTML
	BrandName   string
}

// New parses the embedded templates.
func New() (*Renderer, error) {
	tmpl, err := template.New("sections").Funcs(funcMap()).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse section templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Has reports whether the type has a dedicated template.
func (r *Renderer) Has(t models.SectionType) bool {
	return r.tmpl.Lookup("type:"+string(t)) != nil
}

// Section renders one section.
func (r *Renderer) Section(w io.Writer, s models.Section, opts Options) error {
	v := sectionView{Section: s, Editable: opts.Editable, Selected: opts.Selected}
	if v.Content == nil {
		v.Content = models.Content{}
	}

	tmpl := r.tmpl.Lookup("type:" + string(s.Type))
	if tmpl == nil {
		return r.tmpl.ExecuteTemplate(w, "unknown", v)
	}

	var inner bytes.Buffer
	if err := tmpl.Execute(&inner, v); err != nil {
		slog.Warn("section render failed", "section_id", s.ID, "type", s.Type, "error", err)
		inner.Reset()
		inner.WriteString(`<div class="lk-placeholder">This section could not be displayed.</div>`)
	}

	return r.tmpl.ExecuteTemplate(w, "wrapper", wrapperView{
		ID:       s.ID,
		Type:     s.Type,
		Editable: opts.Editable,
		Selected: opts.Selected,
		Style:    styleAttr(s.Styles),
		Inner:    template.HTML(inner.String()),
	})
}

// Page renders a complete HTML document.
func (r *Renderer) Page(w io.Writer, d PageData) error {
	settings := pageSettings(d.Settings, d.Theme)

	var body bytes.Buffer
	for _, s := range d.Sections {
		opts := Options{Editable: d.Editable, Selected: d.Editable && s.ID == d.SelectedID}
		if err := r.Section(&body, s, opts); err != nil {
			return fmt.Errorf("render section %s: %w", s.ID, err)
		}
	}

	title := d.Title
	if title == "" {
		title = settings.SEOTitle
	}
	if title == "" {
		title = models.UntitledPageName
	}
	desc := d.Description
	if desc == "" {
		desc = settings.SEODescription
	}

	var bodyStyle strings.Builder
	if v := cssValue(settings.FontFamily); v != "" {
		bodyStyle.WriteString("font-family:" + v + ";")
	}
	if v := cssValue(settings.BackgroundColor); v != "" {
		bodyStyle.WriteString("background-color:" + v + ";")
	}
	accent := cssValue(settings.AccentColor)
	if accent == "" {
		accent = models.DefaultPageSettings().AccentColor
	}

	view := pageView{
		Title:       title,
		Description: desc,
		Preview:     d.Preview,
		Stylesheet:  template.CSS(":root{--lk-accent:" + accent + "}\n" + pageCSS),
		BodyStyle:   template.CSS(bodyStyle.String()),
		Body:        template.HTML(body.String()),
	}
	if d.Theme != nil {
		view.BrandName = d.Theme.BrandName
	}
	return r.tmpl.ExecuteTemplate(w, "page", view)
}

// pageSettings fills blank settings from the agency theme, then from the
// builder defaults.
func pageSettings(s models.PageSettings, theme *models.AgencyTheme) models.PageSettings {
	s = theme.ApplyTo(s)
	d := models.DefaultPageSettings()
	if s.BackgroundColor == "" {
		s.BackgroundColor = d.BackgroundColor
	}
	if s.FontFamily == "" {
		s.FontFamily = d.FontFamily
	}
	if s.AccentColor == "" {
		s.AccentColor = d.AccentColor
	}
	return s
}

func styleAttr(s models.Styles) template.CSS {
	s = s.WithDefaults()
	var b strings.Builder
	decl := func(prop, v string) {
		if v = cssValue(v); v != "" {
			b.WriteString(prop + ":" + v + ";")
		}
	}
	decl("background-color", s.BackgroundColor)
	if u := cssURL(s.BackgroundImage); u != "" {
		b.WriteString(`background-image:url("` + u + `");`)
	}
	decl("background-size", s.BackgroundSize)
	decl("background-position", s.BackgroundPosition)
	decl("padding", s.Padding)
	decl("margin", s.Margin)
	decl("text-align", s.TextAlign)
	decl("border-radius", s.BorderRadius)
	if s.Columns > 0 {
		b.WriteString("--lk-columns:" + strconv.Itoa(s.Columns) + ";")
	}
	return template.CSS(b.String())
}

// cssValue returns v when it is a plain declaration value, "" otherwise.
func cssValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.ContainsAny(v, ";{}<>\\\n\r") {
		return ""
	}
	lower := strings.ToLower(v)
	if strings.Contains(lower, "url(") || strings.Contains(lower, "expression(") {
		return ""
	}
	return v
}

// cssURL accepts absolute http(s) URLs and root-relative paths.
func cssURL(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.ContainsAny(v, "\"'()\\<> \n\r") {
		return ""
	}
	if strings.HasPrefix(v, "/") && !strings.HasPrefix(v, "//") {
		return v
	}
	u, err := url.Parse(v)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return v
}

func funcMap() template.FuncMap {
	return template.FuncMap{
		"str":   func(v any, key string) string { return models.Content(asMap(v)).String(key) },
		"strs":  func(v any, key string) []string { return models.Content(asMap(v)).Strings(key) },
		"flag":  func(v any, key string) bool { return models.Content(asMap(v)).Bool(key) },
		"num":   func(v any, key string) int { return models.Content(asMap(v)).Int(key) },
		"has":   func(v any, key string) bool { return models.Content(asMap(v)).Has(key) },
		"list":  func(v any, key string) []map[string]any { return models.Content(asMap(v)).List(key) },
		"lower": strings.ToLower,
		"add":   func(a, b int) int { return a + b },
		"record": func(v any, key string) map[string]any {
			return models.Content(asMap(v)).Record(key)
		},
		"cols": func(c models.Content, def int) int {
			if n := c.Int("columns"); n >= 1 && n <= 6 {
				return n
			}
			return def
		},
		"md":      markdownHTML,
		"code":    codeHTML,
		"stars":   stars,
		"initial": initial,
		"mapURL":  mapURL,
		"heading": heading,
		"edit":    editAttr,
		"ipath":   itemPath,
	}
}

func asMap(v any) map[string]any {
	switch m := v.(type) {
	case models.Content:
		return m
	case map[string]any:
		return m
	}
	return nil
}

func markdownHTML(s string) template.HTML {
	if s == "" {
		return ""
	}
	out, err := markdown.ToHTML(s)
	if err != nil {
		return template.HTML(html.EscapeString(s))
	}
	return template.HTML(out)
}

func codeHTML(src, lang string) template.HTML {
	out, err := markdown.Highlight(src, lang)
	if err != nil {
		return template.HTML("<pre><code>" + html.EscapeString(src) + "</code></pre>")
	}
	return template.HTML(out)
}

func stars(n int) string {
	if n <= 0 || n > 5 {
		n = 5
	}
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}

func initial(name string) string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(name))
	if r == utf8.RuneError {
		return "A"
	}
	return string(unicode.ToUpper(r))
}

func mapURL(c models.Content) string {
	if coords := c.Record("coordinates"); coords != nil {
		lat, okLat := coords["lat"].(float64)
		lng, okLng := coords["lng"].(float64)
		if okLat && okLng {
			zoom := c.Int("zoom")
			if zoom <= 0 {
				zoom = 15
			}
			return fmt.Sprintf("https://www.openstreetmap.org/?mlat=%g&mlon=%g#map=%d/%g/%g", lat, lng, zoom, lat, lng)
		}
	}
	if addr := c.String("address"); addr != "" {
		return "https://www.openstreetmap.org/search?query=" + url.QueryEscape(addr)
	}
	return ""
}

// heading picks the displayed title and subtitle. Types whose content has
// its own title/subtitle show those, falling back to the section's.
func heading(v sectionView) headingView {
	schema := sections.Schema(v.Type)
	h := headingView{Title: v.Title, TitlePath: "title", Subtitle: v.Subtitle, SubtitlePath: "subtitle"}
	if schema.HasField("title") {
		h.TitlePath = "content.title"
		if t := v.Content.String("title"); t != "" {
			h.Title = t
		}
	}
	if schema.HasField("subtitle") {
		h.SubtitlePath = "content.subtitle"
		if s := v.Content.String("subtitle"); s != "" {
			h.Subtitle = s
		}
	}
	return h
}

func editAttr(v sectionView, path string) template.HTMLAttr {
	if !v.Editable || path == "" {
		return ""
	}
	return template.HTMLAttr(`data-edit-path="` + html.EscapeString(path) + `"`)
}

func itemPath(list string, index int, field string) string {
	return "content." + list + "." + strconv.Itoa(index) + "." + field
}
