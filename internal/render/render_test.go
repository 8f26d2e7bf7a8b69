package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landingkit/internal/models"
	"landingkit/internal/sections"
)

func newRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	return r
}

func renderSection(t *testing.T, r *Renderer, s models.Section, opts Options) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, r.Section(&buf, s, opts))
	return buf.String()
}

func TestEveryCatalogTypeHasTemplate(t *testing.T) {
	r := newRenderer(t)
	for _, tpl := range sections.Templates() {
		assert.True(t, r.Has(tpl.Type), "missing template for %s", tpl.Type)
	}
}

func TestDefaultSectionsRender(t *testing.T) {
	r := newRenderer(t)
	for _, tpl := range sections.Templates() {
		s := sections.NewSection(tpl.Type)
		out := renderSection(t, r, s, Options{Editable: true})
		assert.Contains(t, out, `data-section-type="`+string(tpl.Type)+`"`)
		assert.NotContains(t, out, "could not be displayed", "type %s", tpl.Type)
	}
}

func TestUnknownTypePlaceholder(t *testing.T) {
	r := newRenderer(t)
	out := renderSection(t, r, models.Section{ID: "x", Type: "not-a-real-type"}, Options{})
	assert.Contains(t, out, "Unknown section type: not-a-real-type")
}

func TestMalformedContentDoesNotFail(t *testing.T) {
	r := newRenderer(t)
	cases := []models.Section{
		{ID: "a", Type: models.SectionFeatures, Content: models.Content{"items": "not a list", "columns": "three"}},
		{ID: "b", Type: models.SectionPricing, Content: models.Content{"plans": []any{42, "x", map[string]any{"features": 7}}}},
		{ID: "c", Type: models.SectionTestimonials, Content: models.Content{"quotes": []any{map[string]any{"rating": "ten"}}}},
		{ID: "d", Type: models.SectionMap, Content: models.Content{"coordinates": "nowhere"}},
		{ID: "e", Type: models.SectionHero},
	}
	for _, s := range cases {
		out := renderSection(t, r, s, Options{})
		assert.Contains(t, out, `id="section-`+s.ID+`"`)
	}
}

func TestEditMarkersOnlyWhenEditable(t *testing.T) {
	r := newRenderer(t)
	s := sections.NewSection(models.SectionFeatures)

	plain := renderSection(t, r, s, Options{})
	assert.NotContains(t, plain, "data-edit-path")
	assert.NotContains(t, plain, "data-section-id")

	editable := renderSection(t, r, s, Options{Editable: true, Selected: true})
	assert.Contains(t, editable, `data-section-id="`+s.ID+`"`)
	assert.Contains(t, editable, `data-edit-path="content.items.0.title"`)
	assert.Contains(t, editable, "lk-selected")
}

func TestRawHTMLEscaped(t *testing.T) {
	r := newRenderer(t)
	s := sections.NewSection(models.SectionHero)
	s.Title = `<script>alert(1)</script>`
	out := renderSection(t, r, s, Options{})
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
}

func TestStyleValuesSanitized(t *testing.T) {
	s := models.DefaultStyles()
	s.BackgroundColor = "red;}</style>"
	s.BackgroundImage = `javascript:alert(1)`
	s.Padding = "64px 24px"
	css := string(styleAttr(s))
	assert.NotContains(t, css, "red")
	assert.NotContains(t, css, "javascript")
	assert.Contains(t, css, "padding:64px 24px;")

	s.BackgroundImage = "https://cdn.example.com/bg.jpg"
	assert.Contains(t, string(styleAttr(s)), `background-image:url("https://cdn.example.com/bg.jpg");`)
}

func TestPageFallsBackToTheme(t *testing.T) {
	r := newRenderer(t)
	theme := &models.AgencyTheme{BrandName: "Acme Agency", AccentColor: "#ff6600", FontFamily: "Lato, sans-serif"}

	var buf bytes.Buffer
	err := r.Page(&buf, PageData{
		Settings: models.PageSettings{SEOTitle: "Fresh Coat", SEODescription: "Interior painting"},
		Sections: []models.Section{sections.NewSection(models.SectionHero)},
		Theme:    theme,
	})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "<title>Fresh Coat</title>")
	assert.Contains(t, out, `content="Interior painting"`)
	assert.Contains(t, out, "--lk-accent:#ff6600")
	assert.Contains(t, out, "Lato, sans-serif")
	assert.Contains(t, out, "Acme Agency")
	assert.NotContains(t, out, "noindex")
}

func TestPageDefaults(t *testing.T) {
	r := newRenderer(t)
	var buf bytes.Buffer
	require.NoError(t, r.Page(&buf, PageData{Preview: true}))
	out := buf.String()
	assert.Contains(t, out, "<title>"+models.UntitledPageName+"</title>")
	assert.Contains(t, out, "--lk-accent:#3b82f6")
	assert.Contains(t, out, "noindex")
}

func TestMarkdownAndStars(t *testing.T) {
	assert.Equal(t, "★★★★★", stars(0))
	assert.Equal(t, "★★★☆☆", stars(3))
	assert.Equal(t, "★★★★★", stars(9))
	assert.Equal(t, "A", initial(""))
	assert.Equal(t, "J", initial("jane"))
	assert.Empty(t, string(markdownHTML("")))
	assert.True(t, strings.Contains(string(markdownHTML("**bold**")), "<strong>bold</strong>"))
}

func TestMapURL(t *testing.T) {
	c := models.Content{"coordinates": map[string]any{"lat": 40.5, "lng": -74.25}, "zoom": 12}
	assert.Equal(t, "https://www.openstreetmap.org/?mlat=40.5&mlon=-74.25#map=12/40.5/-74.25", mapURL(c))
	assert.Equal(t, "https://www.openstreetmap.org/search?query=1+Main+St", mapURL(models.Content{"address": "1 Main St"}))
	assert.Empty(t, mapURL(models.Content{}))
}

func TestFieldsOrder(t *testing.T) {
	s := sections.NewSection(models.SectionFAQ)
	fields := Fields(s, nil)
	require.GreaterOrEqual(t, len(fields), 4)
	assert.Equal(t, "title", fields[0].Path)
	assert.Equal(t, "subtitle", fields[1].Path)
	assert.Equal(t, "content.faqs.0.q", fields[2].Path)
	assert.Equal(t, "content.faqs.0.a", fields[3].Path)
	assert.True(t, fields[3].Multiline)
}

func TestFieldCommitCopiesList(t *testing.T) {
	s := sections.NewSection(models.SectionFeatures)
	before := s.Content.List("items")[0]["title"]

	var got models.SectionPatch
	err := CommitPath(s, "content.items.1.title", "Renamed", func(p models.SectionPatch) { got = p })
	require.NoError(t, err)

	require.NotNil(t, got.Content)
	assert.Equal(t, "Renamed", got.Content.List("items")[1]["title"])
	assert.Equal(t, before, got.Content.List("items")[0]["title"])
	assert.NotEqual(t, "Renamed", s.Content.List("items")[1]["title"], "original content must not change")
}

func TestCommitTitleAndScalar(t *testing.T) {
	s := sections.NewSection(models.SectionHero)
	var got models.SectionPatch
	update := func(p models.SectionPatch) { got = p }

	require.NoError(t, CommitPath(s, "title", "New headline", update))
	require.NotNil(t, got.Title)
	assert.Equal(t, "New headline", *got.Title)

	require.NoError(t, CommitPath(s, "content.ctaText", "Book now", update))
	assert.Equal(t, "Book now", got.Content.String("ctaText"))
	assert.Equal(t, "#contact", got.Content.String("ctaLink"))
}

func TestCommitUnknownPath(t *testing.T) {
	s := sections.NewSection(models.SectionHero)
	err := CommitPath(s, "content.nope", "x", nil)
	assert.ErrorIs(t, err, ErrUnknownPath)
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "Cta text", label("ctaText"))
	assert.Equal(t, "Q", label("q"))
}
