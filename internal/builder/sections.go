// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package builder

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"landingkit/internal/models"
	"landingkit/internal/presets"
	"landingkit/internal/sections"
)

// Direction is the way MoveSection shifts a section.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// CopySuffix is appended to the title of a duplicated section.
const CopySuffix = " (Copy)"

// AddSection appends a new section of the given type and selects it. A type
// outside the palette still gets a section, with empty content.
func (b *Builder) AddSection(t models.SectionType) models.Section {
	if !sections.Known(t) {
		b.logger.Debug("add section: type not in palette", "type", t)
	}
	s := sections.NewSection(t)
	b.mutate(func(st State) (State, bool) {
		st.Sections = append(st.Sections, s)
		b.selected = s.ID
		return st, true
	})
	return s.Clone()
}

// UpdateSection shallow-merges a patch into the section.
func (b *Builder) UpdateSection(id string, p models.SectionPatch) bool {
	return b.mutateSection("update section", id, func(s models.Section) models.Section {
		return s.Apply(p)
	})
}

// UpdateSectionContent replaces the section content wholesale.
func (b *Builder) UpdateSectionContent(id string, c models.Content) bool {
	return b.mutateSection("update section content", id, func(s models.Section) models.Section {
		s.Content = c.Clone()
		return s
	})
}

// UpdateSectionStyles merges a partial styles update into the section's
// existing styles.
func (b *Builder) UpdateSectionStyles(id string, p models.StylesPatch) bool {
	return b.mutateSection("update section styles", id, func(s models.Section) models.Section {
		s.Styles = s.Styles.Merge(p)
		return s
	})
}

func (b *Builder) mutateSection(op, id string, fn func(models.Section) models.Section) bool {
	return b.mutate(func(st State) (State, bool) {
		i := st.index(id)
		if i < 0 {
			b.logger.Debug(op+": section not found", "section_id", id)
			return st, false
		}
		st.Sections[i] = fn(st.Sections[i])
		return st, true
	})
}

// DeleteSection removes the section and clears the selection if it was
// selected.
func (b *Builder) DeleteSection(id string) bool {
	return b.mutate(func(st State) (State, bool) {
		i := st.index(id)
		if i < 0 {
			b.logger.Debug("delete section: section not found", "section_id", id)
			return st, false
		}
		st.Sections = slices.Delete(st.Sections, i, i+1)
		if b.selected == id {
			b.selected = ""
		}
		return st, true
	})
}

// DuplicateSection appends a deep copy of the section with a new id and a
// suffixed title, and selects the copy.
func (b *Builder) DuplicateSection(id string) (models.Section, bool) {
	var dup models.Section
	ok := b.mutate(func(st State) (State, bool) {
		i := st.index(id)
		if i < 0 {
			b.logger.Debug("duplicate section: section not found", "section_id", id)
			return st, false
		}
		dup = st.Sections[i].Clone()
		dup.ID = uuid.NewString()
		dup.Title += CopySuffix
		st.Sections = append(st.Sections, dup)
		b.selected = dup.ID
		return st, true
	})
	return dup.Clone(), ok
}

// MoveSection swaps the section with its neighbour. Moving past either end
// does nothing.
func (b *Builder) MoveSection(id string, dir Direction) bool {
	return b.mutate(func(st State) (State, bool) {
		i := st.index(id)
		if i < 0 {
			b.logger.Debug("move section: section not found", "section_id", id)
			return st, false
		}
		j := i + 1
		if dir == Up {
			j = i - 1
		}
		if j < 0 || j >= len(st.Sections) {
			return st, false
		}
		st.Sections = arrayMove(st.Sections, i, j)
		return st, true
	})
}

// Reorder moves the source section to the position of the target section.
// Missing ids or equal ids do nothing.
func (b *Builder) Reorder(sourceID, targetID string) bool {
	if sourceID == targetID {
		return false
	}
	return b.mutate(func(st State) (State, bool) {
		from, to := st.index(sourceID), st.index(targetID)
		if from < 0 || to < 0 {
			b.logger.Debug("reorder: section not found", "source_id", sourceID, "target_id", targetID)
			return st, false
		}
		st.Sections = arrayMove(st.Sections, from, to)
		return st, true
	})
}

// arrayMove removes the element at from and reinserts it at to.
func arrayMove[T any](s []T, from, to int) []T {
	out := slices.Clone(s)
	v := out[from]
	out = slices.Delete(out, from, from+1)
	return slices.Insert(out, to, v)
}

type dragState struct {
	sectionID string
	template  models.SectionType
}

func (d dragState) activeID() string {
	if d.template != "" {
		return "template:" + string(d.template)
	}
	return d.sectionID
}

// BeginDrag marks a section as being dragged.
func (b *Builder) BeginDrag(id string) {
	b.touch(func() bool {
		b.drag = dragState{sectionID: id}
		return true
	})
}

// BeginTemplateDrag marks a palette template as being dragged.
func (b *Builder) BeginTemplateDrag(t models.SectionType) {
	b.touch(func() bool {
		b.drag = dragState{template: t}
		return true
	})
}

// EndDrag finishes the current drag over the given section id, which may
// be empty when dropped outside the list. A dragged template is always
// added; a dragged section is reordered onto a different target.
func (b *Builder) EndDrag(overID string) bool {
	b.mu.Lock()
	d := b.drag
	b.mu.Unlock()

	if d.template != "" {
		return b.DropTemplate(d.template)
	}

	changed := false
	if overID != "" && d.sectionID != "" && d.sectionID != overID {
		changed = b.Reorder(d.sectionID, overID)
	}
	b.clearDrag()
	return changed
}

// DropTemplate adds a section for a palette template dropped anywhere on
// the canvas and clears the drag state.
func (b *Builder) DropTemplate(t models.SectionType) bool {
	b.AddSection(t)
	b.clearDrag()
	return true
}

func (b *Builder) clearDrag() {
	b.touch(func() bool {
		if b.drag == (dragState{}) {
			return false
		}
		b.drag = dragState{}
		return true
	})
}

// ApplyPreset replaces sections and settings with the preset's as one
// history step and selects the first section. When the page already has
// sections confirm must approve the replacement; a nil confirm declines.
func (b *Builder) ApplyPreset(id string, confirm func() bool) error {
	p, ok := presets.Get(id)
	if !ok {
		return fmt.Errorf("apply preset %q: %w", id, ErrUnknownPreset)
	}

	b.mu.Lock()
	nonEmpty := len(b.hist.Present().Sections) > 0
	b.mu.Unlock()
	if nonEmpty && (confirm == nil || !confirm()) {
		return fmt.Errorf("apply preset %q: %w", id, ErrPresetDeclined)
	}

	b.applyPreset(p)
	return nil
}

// ApplyInitialPreset seeds an empty builder from a preset without asking.
// It runs at most once per builder and only while there are no sections.
func (b *Builder) ApplyInitialPreset(id string) (bool, error) {
	p, ok := presets.Get(id)
	if !ok {
		return false, fmt.Errorf("apply initial preset %q: %w", id, ErrUnknownPreset)
	}

	b.mu.Lock()
	skip := b.initialPresetApplied || len(b.hist.Present().Sections) > 0
	if !skip {
		b.initialPresetApplied = true
	}
	b.mu.Unlock()
	if skip {
		return false, nil
	}

	b.applyPreset(p)
	return true, nil
}

func (b *Builder) applyPreset(p presets.Preset) {
	secs := p.CreateSections()
	settings := p.CreateSettings()
	b.mutate(func(st State) (State, bool) {
		st.Sections = secs
		st.Settings = settings
		b.selected = ""
		if len(secs) > 0 {
			b.selected = secs[0].ID
		}
		return st, true
	})
}
