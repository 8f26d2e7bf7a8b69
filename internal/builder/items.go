// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package builder

import (
	"fmt"
	"maps"

	"landingkit/internal/models"
	"landingkit/internal/sections"
)

// UpdateItem merges patch into one record of a content list. The list and
// every patched field must be part of the section type's content schema.
func (b *Builder) UpdateItem(id, list string, index int, patch map[string]any) error {
	return b.editList("update item", id, list, func(schema sections.ContentSchema, items []any) ([]any, error) {
		if err := schema.ValidateItem(list, patch); err != nil {
			return nil, err
		}
		if index < 0 || index >= len(items) {
			return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(items))
		}
		item := asRecord(items[index])
		maps.Copy(item, patch)
		items[index] = item
		return items, nil
	})
}

// AddItem appends a record to a content list. Editable fields missing from
// item start out empty.
func (b *Builder) AddItem(id, list string, item map[string]any) error {
	return b.editList("add item", id, list, func(schema sections.ContentSchema, items []any) ([]any, error) {
		if err := schema.ValidateItem(list, item); err != nil {
			return nil, err
		}
		l, _ := schema.List(list)
		rec := make(map[string]any, len(l.Fields))
		for _, f := range l.Fields {
			rec[f] = ""
		}
		maps.Copy(rec, models.Content(item).Clone())
		return append(items, rec), nil
	})
}

// RemoveItem deletes one record from a content list.
func (b *Builder) RemoveItem(id, list string, index int) error {
	return b.editList("remove item", id, list, func(schema sections.ContentSchema, items []any) ([]any, error) {
		if _, ok := schema.List(list); !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownList, list)
		}
		if index < 0 || index >= len(items) {
			return nil, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(items))
		}
		return append(items[:index], items[index+1:]...), nil
	})
}

// editList hands fn a copy of the list's items and stores what it returns
// as one history step. An unknown section id is logged and ignored.
func (b *Builder) editList(op, id, list string, fn func(sections.ContentSchema, []any) ([]any, error)) error {
	var opErr error
	b.mutate(func(st State) (State, bool) {
		i := st.index(id)
		if i < 0 {
			b.logger.Debug(op+": section not found", "section_id", id)
			return st, false
		}
		sec := st.Sections[i]
		if sec.Content == nil {
			sec.Content = models.Content{}
		}
		records := sec.Content.List(list)
		items := make([]any, len(records))
		for j, r := range records {
			items[j] = r
		}
		next, err := fn(sections.Schema(sec.Type), items)
		if err != nil {
			opErr = fmt.Errorf("%s %s.%s: %w", op, id, list, err)
			return st, false
		}
		sec.Content[list] = next
		st.Sections[i] = sec
		return st, true
	})
	return opErr
}

func asRecord(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case models.Content:
		return m
	}
	return map[string]any{}
}
