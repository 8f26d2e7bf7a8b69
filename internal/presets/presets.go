// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package presets provides the industry starter pages a builder can be
// seeded with. Presets are declared in presets.yaml.
package presets

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"landingkit/internal/models"
	"landingkit/internal/sections"
)

//go:embed presets.yaml
var presetsYAML []byte

type sectionDef struct {
	Type     models.SectionType `yaml:"type"`
	Title    *string            `yaml:"title"`
	Subtitle *string            `yaml:"subtitle"`
	Content  models.Content     `yaml:"content"`
	Styles   models.Styles      `yaml:"styles"`
}

// Preset is a named starter page: page settings plus an ordered list of
// pre-filled sections.
type Preset struct {
	ID          string `yaml:"id" json:"id"`
	Label       string `yaml:"label" json:"label"`
	Description string `yaml:"description" json:"description"`

	Settings models.PageSettings `yaml:"settings" json:"-"`
	Sections []sectionDef       `yaml:"sections" json:"-"`
}

type catalog struct {
	presets []Preset
	byID    map[string]int
}

var loadCatalog = sync.OnceValues(func() (*catalog, error) {
	return parsePresets(presetsYAML)
})

func parsePresets(data []byte) (*catalog, error) {
	c := &catalog{}
	if err := yaml.Unmarshal(data, &c.presets); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	c.byID = make(map[string]int, len(c.presets))
	for i, p := range c.presets {
		if p.ID == "" {
			return nil, fmt.Errorf("preset %d has no id", i)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate id %q", p.ID)
		}
		c.byID[p.ID] = i
	}
	return c, nil
}

// Validate decodes the embedded presets and the section catalog they draw
// on, and reports the first error.
func Validate() error {
	if err := sections.Validate(); err != nil {
		return err
	}
	if _, err := loadCatalog(); err != nil {
		return fmt.Errorf("presets: %w", err)
	}
	return nil
}

func mustCatalog() *catalog {
	c, err := loadCatalog()
	if err != nil {
		panic(fmt.Sprintf("presets: %v", err))
	}
	return c
}

// List returns every preset in catalog order.
func List() []Preset {
	return append([]Preset(nil), mustCatalog().presets...)
}

// Get returns the preset with the given id.
func Get(id string) (Preset, bool) {
	c := mustCatalog()
	i, ok := c.byID[id]
	if !ok {
		return Preset{}, false
	}
	return c.presets[i], true
}

// CreateSettings returns the page settings of the preset.
func (p Preset) CreateSettings() models.PageSettings {
	return p.Settings
}

// CreateSections instantiates the preset's sections with fresh ids. Each
// call returns independent copies.
func (p Preset) CreateSections() []models.Section {
	out := make([]models.Section, 0, len(p.Sections))
	for _, def := range p.Sections {
		out = append(out, def.instantiate())
	}
	return out
}

func (def sectionDef) instantiate() models.Section {
	tpl, _ := sections.Lookup(def.Type)
	s := models.Section{
		ID:       uuid.NewString(),
		Type:     def.Type,
		Title:    tpl.Title,
		Subtitle: tpl.Subtitle,
		Styles:   models.DefaultStyles().Overlay(def.Styles),
	}
	if def.Title != nil {
		s.Title = *def.Title
	}
	if def.Subtitle != nil {
		s.Subtitle = *def.Subtitle
	}
	if def.Content != nil {
		s.Content = def.Content.Clone()
	} else {
		s.Content = sections.CreateDefaultContent(def.Type)
	}
	return s
}
