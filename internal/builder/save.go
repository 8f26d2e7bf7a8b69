// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package builder

import (
	"context"
	"fmt"

	"landingkit/internal/models"
)

// Save persists the current document. A builder without a page id creates
// a page and adopts its id; later saves update that page. A failed save
// leaves the builder state untouched. Concurrent saves are not prevented.
func (b *Builder) Save(ctx context.Context) (*models.LandingPage, error) {
	if b.persister == nil {
		return nil, fmt.Errorf("save landing page: %w", ErrNoPersister)
	}

	b.mu.Lock()
	st := b.hist.Present().clone()
	pageID := b.pageID
	b.saving++
	v := b.viewLocked()
	b.mu.Unlock()
	b.notify(v, Tx{b: b})

	defer b.touch(func() bool {
		b.saving--
		return true
	})

	payload := models.NewPagePayload(st.Sections, st.Settings)

	var (
		page *models.LandingPage
		err  error
	)
	if pageID == nil {
		page, err = b.persister.CreatePage(ctx, payload)
	} else {
		page, err = b.persister.UpdatePage(ctx, *pageID, payload)
	}
	if err != nil {
		b.logger.Error("save landing page failed", "error", err)
		return nil, fmt.Errorf("save landing page: %w", err)
	}

	if pageID == nil && page != nil {
		b.mu.Lock()
		if b.pageID == nil {
			id := page.ID
			b.pageID = &id
		}
		b.mu.Unlock()
	}

	if b.onSave != nil {
		b.onSave(st, page)
	}
	return page, nil
}
