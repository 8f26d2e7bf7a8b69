package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestGenerateVariantsScalesDown(t *testing.T) {
	out, err := GenerateVariants(pngBytes(t, 800, 400), nil)
	if err != nil {
		t.Fatalf("GenerateVariants: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("variants: got %d, want 1", len(out))
	}
	v := out[0]
	if v.Width != 320 || v.Height != 160 {
		t.Errorf("size: got %dx%d, want 320x160", v.Width, v.Height)
	}
	if v.ContentType != "image/jpeg" {
		t.Errorf("content type: got %q", v.ContentType)
	}
	if _, format, err := image.Decode(bytes.NewReader(v.Data)); err != nil || format != "jpeg" {
		t.Errorf("output not decodable as jpeg: %v, %q", err, format)
	}
}

func TestGenerateVariantsNoUpscale(t *testing.T) {
	variants := []Variant{{Name: "sm", Width: 640, Quality: 80}, {Name: "lg", Width: 1920, Quality: 80}}
	out, err := GenerateVariants(pngBytes(t, 100, 50), variants)
	if err != nil {
		t.Fatalf("GenerateVariants: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("variants: got %d, want 1", len(out))
	}
	if out[0].Width != 100 || out[0].Height != 50 {
		t.Errorf("size: got %dx%d, want 100x50", out[0].Width, out[0].Height)
	}
}

func TestGenerateVariantsRejectsGarbage(t *testing.T) {
	if _, err := GenerateVariants([]byte("not an image"), nil); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestDecodable(t *testing.T) {
	for ct, want := range map[string]bool{
		"image/jpeg":    true,
		"image/png":     true,
		"image/gif":     true,
		"image/webp":    true,
		"image/svg+xml": false,
		"text/plain":    false,
	} {
		if got := Decodable(ct); got != want {
			t.Errorf("Decodable(%q) = %v, want %v", ct, got, want)
		}
	}
}
