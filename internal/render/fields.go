// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package render

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"landingkit/internal/models"
	"landingkit/internal/sections"
)

// ErrUnknownPath is returned by CommitPath for an edit path the section does
// not expose.
var ErrUnknownPath = errors.New("unknown edit path")

// Field is one inline-editable value of a rendered section. Path matches the
// data-edit-path attribute emitted in editable mode.
type Field struct {
	Path      string `json:"path"`
	Label     string `json:"label"`
	Value     string `json:"value"`
	Multiline bool   `json:"multiline"`

	commit func(string)
}

// Commit reports a new value through the update callback the field was
// built with. List items are committed by copying the list and the item, so
// the section's current content is never modified in place.
func (f Field) Commit(v string) {
	if f.commit != nil {
		f.commit(v)
	}
}

// Fields lists the editable values of s in display order: section title and
// subtitle, scalar content fields, then every field of every list item.
func Fields(s models.Section, onUpdate func(models.SectionPatch)) []Field {
	schema := sections.Schema(s.Type)
	fields := []Field{
		{Path: "title", Label: "Title", Value: s.Title, commit: commitTitle(onUpdate)},
		{Path: "subtitle", Label: "Subtitle", Value: s.Subtitle, commit: commitSubtitle(onUpdate)},
	}

	for _, key := range schema.Fields {
		fields = append(fields, Field{
			Path:      "content." + key,
			Label:     label(key),
			Value:     s.Content.String(key),
			Multiline: schema.IsMultiline(key),
			commit:    commitContent(s, key, onUpdate),
		})
	}

	for _, ls := range schema.Lists {
		for i, item := range s.Content.List(ls.Key) {
			for _, f := range ls.Fields {
				fields = append(fields, Field{
					Path:      "content." + ls.Key + "." + strconv.Itoa(i) + "." + f,
					Label:     fmt.Sprintf("%s %d %s", label(ls.Key), i+1, strings.ToLower(label(f))),
					Value:     models.ItemString(item, f),
					Multiline: schema.IsMultiline(f),
					commit:    commitItem(s, ls.Key, i, f, onUpdate),
				})
			}
		}
	}
	return fields
}

// CommitPath commits value to the field at path.
func CommitPath(s models.Section, path, value string, onUpdate func(models.SectionPatch)) error {
	for _, f := range Fields(s, onUpdate) {
		if f.Path == path {
			f.Commit(value)
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrUnknownPath, path)
}

func commitTitle(onUpdate func(models.SectionPatch)) func(string) {
	return func(v string) {
		if onUpdate != nil {
			onUpdate(models.SectionPatch{Title: &v})
		}
	}
}

func commitSubtitle(onUpdate func(models.SectionPatch)) func(string) {
	return func(v string) {
		if onUpdate != nil {
			onUpdate(models.SectionPatch{Subtitle: &v})
		}
	}
}

func commitContent(s models.Section, key string, onUpdate func(models.SectionPatch)) func(string) {
	return func(v string) {
		if onUpdate == nil {
			return
		}
		content := s.Content.Clone()
		if content == nil {
			content = models.Content{}
		}
		content[key] = v
		onUpdate(models.SectionPatch{Content: content})
	}
}

func commitItem(s models.Section, list string, index int, field string, onUpdate func(models.SectionPatch)) func(string) {
	return func(v string) {
		if onUpdate == nil {
			return
		}
		content := s.Content.Clone()
		items := content.List(list)
		if index < 0 || index >= len(items) {
			return
		}
		next := make([]any, len(items))
		for i, it := range items {
			next[i] = it
		}
		item := make(map[string]any, len(items[index])+1)
		for k, val := range items[index] {
			item[k] = val
		}
		item[field] = v
		next[index] = item
		content[list] = next
		onUpdate(models.SectionPatch{Content: content})
	}
}

// label turns a camelCase key into a sentence-case label: ctaText -> "Cta text".
func label(key string) string {
	var b strings.Builder
	for i, r := range key {
		switch {
		case i == 0:
			b.WriteRune(unicode.ToUpper(r))
		case unicode.IsUpper(r):
			b.WriteRune(' ')
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
