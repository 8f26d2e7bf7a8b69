package store

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landingkit/internal/models"
)

func TestMediaFilterWhere(t *testing.T) {
	where, args := MediaFilter{}.where()
	assert.Empty(t, where)
	assert.Empty(t, args)

	page := uuid.New()
	where, args = MediaFilter{PageID: &page, TypePrefix: "image/s_g%"}.where()
	assert.Equal(t, " WHERE page_id = $1 AND content_type LIKE $2", where)
	assert.Equal(t, []any{page, `image/s\_g\%%`}, args)
}

func TestMediaStoreLifecycle(t *testing.T) {
	db := testDB(t)
	s := NewMediaStore(db)
	ctx := context.Background()

	run := uuid.NewString()[:8]
	pngKey := "media/test/" + run + ".png"
	svgKey := "media/test/" + run + ".svg"
	t.Cleanup(func() { cleanMediaByKey(t, db, pngKey, svgKey) })

	pages := NewLandingPageStore(db)
	page, err := pages.CreatePage(ctx, testPayload("Media Test "+run))
	require.NoError(t, err)
	t.Cleanup(func() { cleanPages(t, db, page.ID) })

	png, err := s.Create(ctx, &models.Media{
		Filename:     run + ".png",
		OriginalName: "Hero Image.png",
		ContentType:  "image/png",
		SizeBytes:    2048,
		Bucket:       "landingkit-public",
		S3Key:        pngKey,
		PageID:       &page.ID,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, png.ID)
	require.NotNil(t, png.PageID)
	assert.Equal(t, page.ID, *png.PageID)

	svg, err := s.Create(ctx, &models.Media{
		Filename:     run + ".svg",
		OriginalName: "logo.svg",
		ContentType:  "image/svg+xml",
		SizeBytes:    512,
		Bucket:       "landingkit-public",
		S3Key:        svgKey,
	})
	require.NoError(t, err)
	assert.Nil(t, svg.PageID)

	found, err := s.FindByID(ctx, png.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, pngKey, found.S3Key)

	byPage := MediaFilter{PageID: &page.ID}
	items, err := s.List(ctx, byPage, 10, 0)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, png.ID, items[0].ID)
	n, err := s.Count(ctx, byPage)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	svgs, err := s.List(ctx, MediaFilter{TypePrefix: "image/svg"}, 200, 0)
	require.NoError(t, err)
	var ids []uuid.UUID
	for _, m := range svgs {
		assert.Equal(t, "image/svg+xml", m.ContentType)
		ids = append(ids, m.ID)
	}
	assert.Contains(t, ids, svg.ID)

	// Deleting the page keeps its media.
	require.NoError(t, pages.Delete(ctx, page.ID))
	orphan, err := s.FindByID(ctx, png.ID)
	require.NoError(t, err)
	require.NotNil(t, orphan)
	assert.Nil(t, orphan.PageID)

	deleted, err := s.Delete(ctx, png.ID)
	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.Equal(t, pngKey, deleted.S3Key)

	gone, err := s.FindByID(ctx, png.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	again, err := s.Delete(ctx, png.ID)
	require.NoError(t, err)
	assert.Nil(t, again)
}
