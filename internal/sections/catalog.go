// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package sections holds the section palette: the label, icon, default
// title/subtitle, default content and editable content schema of every
// section type. The catalog is declared in catalog.yaml and decoded on first
// use.
package sections

import (
	_ "embed"
	"errors"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"landingkit/internal/models"
)

//go:embed catalog.yaml
var catalogYAML []byte

// Sentinel errors returned when a sub-entity edit does not match the
// content schema of its section type.
var (
	ErrUnknownList     = errors.New("unknown content list")
	ErrUnknownField    = errors.New("unknown content field")
	ErrIndexOutOfRange = errors.New("item index out of range")
)

// ListSchema describes one editable list of records inside section content.
type ListSchema struct {
	Key    string   `yaml:"key" json:"key"`
	Fields []string `yaml:"fields" json:"fields"`
}

// HasField reports whether field is an editable item field of the list.
func (l ListSchema) HasField(field string) bool {
	return slices.Contains(l.Fields, field)
}

// ContentSchema lists the editable parts of a section type's content.
type ContentSchema struct {
	Fields    []string     `yaml:"fields" json:"fields"`
	Lists     []ListSchema `yaml:"lists" json:"lists"`
	Multiline []string     `yaml:"multiline" json:"multiline"`
}

// HasField reports whether key is an editable scalar content key.
func (s ContentSchema) HasField(key string) bool {
	return slices.Contains(s.Fields, key)
}

// List returns the schema of the named list.
func (s ContentSchema) List(key string) (ListSchema, bool) {
	for _, l := range s.Lists {
		if l.Key == key {
			return l, true
		}
	}
	return ListSchema{}, false
}

// IsMultiline reports whether the field is edited as multiline text. The
// name applies to both scalar keys and list item fields.
func (s ContentSchema) IsMultiline(field string) bool {
	return slices.Contains(s.Multiline, field)
}

// ValidateItem checks that list exists and every key of patch is one of
// its item fields.
func (s ContentSchema) ValidateItem(list string, patch map[string]any) error {
	l, ok := s.List(list)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownList, list)
	}
	for k := range patch {
		if !l.HasField(k) {
			return fmt.Errorf("%w: %q in list %q", ErrUnknownField, k, list)
		}
	}
	return nil
}

// Template is one palette entry.
type Template struct {
	Type     models.SectionType `yaml:"type" json:"type"`
	Label    string             `yaml:"label" json:"label"`
	Icon     string             `yaml:"icon" json:"icon"`
	Title    string             `yaml:"title" json:"title"`
	Subtitle string             `yaml:"subtitle" json:"subtitle"`
	Schema   ContentSchema      `yaml:"schema" json:"schema"`
	Content  models.Content     `yaml:"content" json:"-"`
}

type palette struct {
	templates []Template
	byType    map[models.SectionType]int
}

var loadPalette = sync.OnceValues(func() (*palette, error) {
	templates, err := parseCatalog(catalogYAML)
	if err != nil {
		return nil, err
	}
	p := &palette{templates: templates, byType: make(map[models.SectionType]int, len(templates))}
	for i, t := range templates {
		p.byType[t.Type] = i
	}
	return p, nil
})

// Validate decodes the embedded catalog and reports any error. The server
// calls it at startup; every other accessor panics on a broken catalog.
func Validate() error {
	_, err := loadPalette()
	return err
}

func mustPalette() *palette {
	p, err := loadPalette()
	if err != nil {
		panic(fmt.Sprintf("sections: %v", err))
	}
	return p
}

// lookup returns the palette entry of t without copying its content.
func lookup(t models.SectionType) (Template, bool) {
	p := mustPalette()
	i, ok := p.byType[t]
	if !ok {
		return Template{}, false
	}
	return p.templates[i], true
}

func parseCatalog(data []byte) ([]Template, error) {
	var out []Template
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	seen := make(map[models.SectionType]bool, len(out))
	for i, t := range out {
		if t.Type == "" {
			return nil, fmt.Errorf("catalog entry %d has no type", i)
		}
		if seen[t.Type] {
			return nil, fmt.Errorf("duplicate catalog entry %q", t.Type)
		}
		seen[t.Type] = true
		if out[i].Content == nil {
			out[i].Content = models.Content{}
		}
	}
	return out, nil
}

// Templates returns the palette in display order. Template content is
// omitted from the copies; use CreateDefaultContent for a fresh payload.
func Templates() []Template {
	catalog := mustPalette().templates
	out := make([]Template, len(catalog))
	for i, t := range catalog {
		t.Content = nil
		out[i] = t
	}
	return out
}

// Lookup returns the palette entry for a type.
func Lookup(t models.SectionType) (Template, bool) {
	tpl, ok := lookup(t)
	if !ok {
		return Template{}, false
	}
	tpl.Content = tpl.Content.Clone()
	return tpl, true
}

// Schema returns the editable content schema of a type. Unknown types have
// an empty schema, so every sub-entity edit on them is rejected.
func Schema(t models.SectionType) ContentSchema {
	tpl, ok := lookup(t)
	if !ok {
		return ContentSchema{}
	}
	return tpl.Schema
}
