package media

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"landingkit/internal/models"
)

type fakeObjects struct {
	mu        sync.Mutex
	objects   map[string][]byte
	types     map[string]string
	uploadErr error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

func (f *fakeObjects) Upload(_ context.Context, key, contentType string, body io.Reader, _ int64) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	data, _ := io.ReadAll(body)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

func (f *fakeObjects) Delete(_ context.Context, keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.objects, k)
	}
	return nil
}

func (f *fakeObjects) FileURL(key string) string { return "https://cdn.test/" + key }
func (f *fakeObjects) Bucket() string            { return "public" }

type fakeRecords struct {
	created   []*models.Media
	createErr error
}

func (f *fakeRecords) Create(_ context.Context, m *models.Media) (*models.Media, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	m.ID = uuid.New()
	f.created = append(f.created, m)
	return m, nil
}

func (f *fakeRecords) Delete(_ context.Context, id uuid.UUID) (*models.Media, error) {
	for i, m := range f.created {
		if m.ID == id {
			f.created = append(f.created[:i], f.created[i+1:]...)
			return m, nil
		}
	}
	return nil, nil
}

func pngData(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.NRGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func newService(objects *fakeObjects, records *fakeRecords) *Service {
	s := NewService(objects, records)
	s.now = func() time.Time { return time.Date(2026, 4, 2, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestUploadImagePNG(t *testing.T) {
	objects, records := newFakeObjects(), &fakeRecords{}
	s := newService(objects, records)

	data := pngData(t, 640, 320)
	res, err := s.UploadImage(context.Background(), models.Upload{
		Filename: "../../Hero Shot.png", ContentType: "application/octet-stream",
		Size: int64(len(data)), Body: bytes.NewReader(data),
	})
	require.NoError(t, err)

	assert.Equal(t, "image/png", res.Type)
	assert.Equal(t, "Hero Shot.png", res.Filename)
	assert.Equal(t, int64(len(data)), res.Size)
	assert.True(t, strings.HasPrefix(res.URL, "https://cdn.test/media/2026/04/"))
	assert.True(t, strings.HasSuffix(res.URL, ".png"))

	require.Len(t, records.created, 1)
	m := records.created[0]
	require.NotNil(t, m.ThumbS3Key)
	assert.Equal(t, "image/jpeg", objects.types[*m.ThumbS3Key])
	assert.Len(t, objects.objects, 2)
	assert.Nil(t, m.PageID)
}

func TestUploadImageRecordsPage(t *testing.T) {
	records := &fakeRecords{}
	page := uuid.New()
	_, err := newService(newFakeObjects(), records).UploadImage(context.Background(), models.Upload{
		Filename: "team.png", Body: bytes.NewReader(pngData(t, 50, 50)), PageID: &page,
	})
	require.NoError(t, err)
	require.Len(t, records.created, 1)
	require.NotNil(t, records.created[0].PageID)
	assert.Equal(t, page, *records.created[0].PageID)
}

func TestUploadImageSVGHasNoThumbnail(t *testing.T) {
	objects, records := newFakeObjects(), &fakeRecords{}
	s := newService(objects, records)

	svg := []byte(`<svg xmlns="http://www.w3.org/2000/svg" width="10" height="10"><rect width="10" height="10"/></svg>`)
	res, err := s.UploadImage(context.Background(), models.Upload{Filename: "logo.svg", Body: bytes.NewReader(svg)})
	require.NoError(t, err)
	assert.Equal(t, "image/svg+xml", res.Type)
	require.Len(t, records.created, 1)
	assert.Nil(t, records.created[0].ThumbS3Key)
}

func TestUploadImageRejects(t *testing.T) {
	s := newService(newFakeObjects(), &fakeRecords{})
	ctx := context.Background()

	_, err := s.UploadImage(ctx, models.Upload{Filename: "empty.png", Body: bytes.NewReader(nil)})
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = s.UploadImage(ctx, models.Upload{Filename: "notes.txt", Body: strings.NewReader("just some text")})
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = s.UploadImage(ctx, models.Upload{Filename: "big.png", Size: MaxUploadSize + 1, Body: bytes.NewReader(nil)})
	assert.ErrorIs(t, err, ErrTooLarge)

	s.maxSize = 16
	_, err = s.UploadImage(ctx, models.Upload{Filename: "unsized.png", Body: bytes.NewReader(pngData(t, 4, 4))})
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestUploadImageStorageFailure(t *testing.T) {
	objects := newFakeObjects()
	objects.uploadErr = errors.New("bucket unreachable")
	records := &fakeRecords{}

	_, err := newService(objects, records).UploadImage(context.Background(), models.Upload{
		Filename: "a.png", Body: bytes.NewReader(pngData(t, 4, 4)),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unreachable")
	assert.Empty(t, records.created)
}

func TestUploadImageRecordFailureCleansUp(t *testing.T) {
	objects := newFakeObjects()
	records := &fakeRecords{createErr: errors.New("db down")}

	_, err := newService(objects, records).UploadImage(context.Background(), models.Upload{
		Filename: "a.png", Body: bytes.NewReader(pngData(t, 400, 400)),
	})
	require.Error(t, err)
	assert.Empty(t, objects.objects, "stored objects must be removed")
}

func TestDelete(t *testing.T) {
	objects, records := newFakeObjects(), &fakeRecords{}
	s := newService(objects, records)
	_, err := s.UploadImage(context.Background(), models.Upload{Filename: "a.png", Body: bytes.NewReader(pngData(t, 400, 200))})
	require.NoError(t, err)

	ok, err := s.Delete(context.Background(), records.created[0].ID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, objects.objects)

	ok, err = s.Delete(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)
}
