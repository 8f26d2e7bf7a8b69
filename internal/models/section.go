// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"math"
	"slices"
	"strconv"
)

// SectionType tags the kind of content block a section renders as. The set
// is closed by convention; sections loaded from older pages may carry tags
// outside it and must still round-trip untouched.
type SectionType string

const (
	SectionHero             SectionType = "hero"
	SectionFeatures         SectionType = "features"
	SectionTestimonials     SectionType = "testimonials"
	SectionPricing          SectionType = "pricing"
	SectionFAQ              SectionType = "faq"
	SectionForm             SectionType = "form"
	SectionCTA              SectionType = "cta"
	SectionGallery          SectionType = "gallery"
	SectionStats            SectionType = "stats"
	SectionTeam             SectionType = "team"
	SectionServices         SectionType = "services"
	SectionProcess          SectionType = "process"
	SectionTestimonialsGrid SectionType = "testimonials-grid"
	SectionVideo            SectionType = "video"
	SectionNewsletter       SectionType = "newsletter"
	SectionHeader           SectionType = "header"
	SectionFooter           SectionType = "footer"
	SectionSocialProof      SectionType = "social-proof"
	SectionTimeline         SectionType = "timeline"
	SectionComparison       SectionType = "comparison"
	SectionTabs             SectionType = "tabs"
	SectionAccordion        SectionType = "accordion"
	SectionMap              SectionType = "map"
	SectionCountdown        SectionType = "countdown"
	SectionCode             SectionType = "code"
	SectionQuote            SectionType = "quote"
	SectionBadge            SectionType = "badge"
	SectionContactInfo      SectionType = "contact-info"
	SectionBlogPreview      SectionType = "blog-preview"
	SectionPortfolio        SectionType = "portfolio"
	SectionBenefits         SectionType = "benefits"
)

// Section is one content block of a landing page. Its position in the
// owning list is the only ordering signal.
type Section struct {
	ID       string      `json:"id"`
	Type     SectionType `json:"type"`
	Title    string      `json:"title"`
	Subtitle string      `json:"subtitle,omitempty"`
	Content  Content     `json:"content"`
	Styles   Styles      `json:"styles"`
}

// Clone returns a deep copy of the section. Content maps and slices are
// copied so the clone can be edited without affecting the original.
func (s Section) Clone() Section {
	s.Content = s.Content.Clone()
	return s
}

// SectionPatch carries a partial update for a section. Nil fields are left
// untouched; Content and Styles replace the current values wholesale.
type SectionPatch struct {
	Title    *string `json:"title,omitempty"`
	Subtitle *string `json:"subtitle,omitempty"`
	Content  Content `json:"content,omitempty"`
	Styles   *Styles `json:"styles,omitempty"`
}

// IsEmpty reports whether the patch changes nothing.
func (p SectionPatch) IsEmpty() bool {
	return p.Title == nil && p.Subtitle == nil && p.Content == nil && p.Styles == nil
}

// Apply returns a copy of s with the patch merged in.
func (s Section) Apply(p SectionPatch) Section {
	out := s.Clone()
	if p.Title != nil {
		out.Title = *p.Title
	}
	if p.Subtitle != nil {
		out.Subtitle = *p.Subtitle
	}
	if p.Content != nil {
		out.Content = p.Content.Clone()
	}
	if p.Styles != nil {
		out.Styles = *p.Styles
	}
	return out
}

// Styles is the flat presentation record of a section. Empty fields mean
// "use the render-time default".
type Styles struct {
	BackgroundColor    string `json:"backgroundColor,omitempty" yaml:"backgroundColor,omitempty"`
	BackgroundImage    string `json:"backgroundImage,omitempty" yaml:"backgroundImage,omitempty"`
	BackgroundSize     string `json:"backgroundSize,omitempty" yaml:"backgroundSize,omitempty"`
	BackgroundPosition string `json:"backgroundPosition,omitempty" yaml:"backgroundPosition,omitempty"`
	Padding            string `json:"padding,omitempty" yaml:"padding,omitempty"`
	Margin             string `json:"margin,omitempty" yaml:"margin,omitempty"`
	TextAlign          string `json:"textAlign,omitempty" yaml:"textAlign,omitempty"`
	Columns            int    `json:"columns,omitempty" yaml:"columns,omitempty"`
	BorderRadius       string `json:"borderRadius,omitempty" yaml:"borderRadius,omitempty"`
}

// DefaultStyles are stamped onto new sections and used as render-time
// fallbacks for empty fields.
func DefaultStyles() Styles {
	return Styles{
		BackgroundColor: "#ffffff",
		Padding:         "4rem 2rem",
		TextAlign:       "center",
	}
}

// WithDefaults fills empty fields from DefaultStyles.
func (s Styles) WithDefaults() Styles {
	d := DefaultStyles()
	if s.BackgroundColor == "" {
		s.BackgroundColor = d.BackgroundColor
	}
	if s.Padding == "" {
		s.Padding = d.Padding
	}
	if s.TextAlign == "" {
		s.TextAlign = d.TextAlign
	}
	return s
}

// Overlay returns s with every non-empty field of o applied on top.
func (s Styles) Overlay(o Styles) Styles {
	return s.Merge(StylesPatch{
		BackgroundColor:    nonEmpty(o.BackgroundColor),
		BackgroundImage:    nonEmpty(o.BackgroundImage),
		BackgroundSize:     nonEmpty(o.BackgroundSize),
		BackgroundPosition: nonEmpty(o.BackgroundPosition),
		Padding:            nonEmpty(o.Padding),
		Margin:             nonEmpty(o.Margin),
		TextAlign:          nonEmpty(o.TextAlign),
		Columns:            nonZero(o.Columns),
		BorderRadius:       nonEmpty(o.BorderRadius),
	})
}

// StylesPatch is a partial styles update. Nil fields are untouched; a
// pointer to "" clears the field.
type StylesPatch struct {
	BackgroundColor    *string `json:"backgroundColor,omitempty"`
	BackgroundImage    *string `json:"backgroundImage,omitempty"`
	BackgroundSize     *string `json:"backgroundSize,omitempty"`
	BackgroundPosition *string `json:"backgroundPosition,omitempty"`
	Padding            *string `json:"padding,omitempty"`
	Margin             *string `json:"margin,omitempty"`
	TextAlign          *string `json:"textAlign,omitempty"`
	Columns            *int    `json:"columns,omitempty"`
	BorderRadius       *string `json:"borderRadius,omitempty"`
}

// Merge shallow-merges the patch into s.
func (s Styles) Merge(p StylesPatch) Styles {
	set := func(dst *string, v *string) {
		if v != nil {
			*dst = *v
		}
	}
	set(&s.BackgroundColor, p.BackgroundColor)
	set(&s.BackgroundImage, p.BackgroundImage)
	set(&s.BackgroundSize, p.BackgroundSize)
	set(&s.BackgroundPosition, p.BackgroundPosition)
	set(&s.Padding, p.Padding)
	set(&s.Margin, p.Margin)
	set(&s.TextAlign, p.TextAlign)
	set(&s.BorderRadius, p.BorderRadius)
	if p.Columns != nil {
		s.Columns = *p.Columns
	}
	return s
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonZero(n int) *int {
	if n == 0 {
		return nil
	}
	return &n
}

// Content is the type-dependent payload of a section: strings, booleans,
// numbers, nested records and lists of records. Its shape is a convention
// keyed by the section type; readers must tolerate anything.
type Content map[string]any

// Clone deep-copies the content. A nil receiver yields an empty record.
func (c Content) Clone() Content {
	out := make(Content, len(c))
	for k, v := range c {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Content:
		return t.Clone()
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, x := range t {
			m[k] = cloneValue(x)
		}
		return m
	case []any:
		s := make([]any, len(t))
		for i, x := range t {
			s[i] = cloneValue(x)
		}
		return s
	case []map[string]any:
		s := make([]any, len(t))
		for i, x := range t {
			s[i] = cloneValue(x)
		}
		return s
	case []string:
		return slices.Clone(t)
	default:
		return v
	}
}

// String returns the value at key rendered as a string. Numbers are
// formatted; anything else that isn't a string yields "".
func (c Content) String(key string) string {
	return stringOf(c[key])
}

// Bool returns the boolean at key, false when missing or not a bool.
func (c Content) Bool(key string) bool {
	b, _ := c[key].(bool)
	return b
}

// Int returns the number at key as an int, 0 when missing.
func (c Content) Int(key string) int {
	switch n := c[key].(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(math.Round(n))
	case string:
		v, _ := strconv.Atoi(n)
		return v
	}
	return 0
}

// Has reports whether key is present.
func (c Content) Has(key string) bool {
	_, ok := c[key]
	return ok
}

// List returns the list of records at key. Entries that are not records
// come back as empty records so indexes stay aligned with the stored list.
func (c Content) List(key string) []map[string]any {
	switch raw := c[key].(type) {
	case []any:
		out := make([]map[string]any, len(raw))
		for i, v := range raw {
			m, _ := v.(map[string]any)
			if m == nil {
				if cc, ok := v.(Content); ok {
					m = cc
				} else {
					m = map[string]any{}
				}
			}
			out[i] = m
		}
		return out
	case []map[string]any:
		return raw
	}
	return nil
}

// Strings returns the list of strings at key, skipping non-string entries.
func (c Content) Strings(key string) []string {
	return stringsOf(c[key])
}

// Record returns the nested record at key, or nil.
func (c Content) Record(key string) Content {
	switch m := c[key].(type) {
	case map[string]any:
		return m
	case Content:
		return m
	}
	return nil
}

// ItemString reads a string field from a list item.
func ItemString(item map[string]any, key string) string {
	return stringOf(item[key])
}

// ItemStrings reads a string list field from a list item.
func ItemStrings(item map[string]any, key string) []string {
	return stringsOf(item[key])
}

// ItemBool reads a boolean field from a list item.
func ItemBool(item map[string]any, key string) bool {
	b, _ := item[key].(bool)
	return b
}

func stringOf(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}

func stringsOf(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// PageSettings is the page-level configuration edited in the settings
// panel. One per page, independent of the section list.
type PageSettings struct {
	SEOTitle        string `json:"seoTitle" yaml:"seoTitle"`
	SEODescription  string `json:"seoDescription" yaml:"seoDescription"`
	BackgroundColor string `json:"backgroundColor" yaml:"backgroundColor"`
	FontFamily      string `json:"fontFamily" yaml:"fontFamily"`
	AccentColor     string `json:"accentColor" yaml:"accentColor"`
}

// DefaultPageSettings returns the settings a new builder starts with.
func DefaultPageSettings() PageSettings {
	return PageSettings{
		BackgroundColor: "#ffffff",
		FontFamily:      "Inter, sans-serif",
		AccentColor:     "#3b82f6",
	}
}

// SettingsPatch is a partial settings update.
type SettingsPatch struct {
	SEOTitle        *string `json:"seoTitle,omitempty"`
	SEODescription  *string `json:"seoDescription,omitempty"`
	BackgroundColor *string `json:"backgroundColor,omitempty"`
	FontFamily      *string `json:"fontFamily,omitempty"`
	AccentColor     *string `json:"accentColor,omitempty"`
}

// Apply returns s with the patch merged in.
func (s PageSettings) Apply(p SettingsPatch) PageSettings {
	if p.SEOTitle != nil {
		s.SEOTitle = *p.SEOTitle
	}
	if p.SEODescription != nil {
		s.SEODescription = *p.SEODescription
	}
	if p.BackgroundColor != nil {
		s.BackgroundColor = *p.BackgroundColor
	}
	if p.FontFamily != nil {
		s.FontFamily = *p.FontFamily
	}
	if p.AccentColor != nil {
		s.AccentColor = *p.AccentColor
	}
	return s
}
