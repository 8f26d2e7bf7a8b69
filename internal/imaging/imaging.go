// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package imaging generates scaled JPEG variants of uploaded images in pure
// Go. Variants wider than the source are capped at the source width to
// avoid upscaling.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// Variant describes a single output size.
type Variant struct {
	Name    string // e.g., "thumb"
	Width   int    // Target width in pixels
	Quality int    // JPEG quality 1-100
}

// MaxPixels caps the decoded size to keep decompression bombs out of memory.
const MaxPixels = 100_000_000

// DefaultVariants is the thumbnail shown in the builder's media picker.
var DefaultVariants = []Variant{
	{Name: "thumb", Width: 320, Quality: 75},
}

// ProcessedImage holds one generated variant ready for upload.
type ProcessedImage struct {
	Name        string
	Width       int
	Height      int
	Data        []byte
	ContentType string // Always "image/jpeg"
}

// Decodable reports whether contentType is a raster format this package can
// decode. SVG and other vector formats are stored without variants.
func Decodable(contentType string) bool {
	switch contentType {
	case "image/jpeg", "image/png", "image/gif", "image/webp":
		return true
	}
	return false
}

// GenerateVariants decodes original and scales it to each variant width,
// keeping the aspect ratio. Transparent areas are flattened onto white.
func GenerateVariants(original []byte, variants []Variant) ([]ProcessedImage, error) {
	if len(variants) == 0 {
		variants = DefaultVariants
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(original))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode config: %w", err)
	}
	if cfg.Width*cfg.Height > MaxPixels {
		return nil, fmt.Errorf("imaging: image too large (%dx%d)", cfg.Width, cfg.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(original))
	if err != nil {
		return nil, fmt.Errorf("imaging: decode: %w", err)
	}
	bounds := src.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, fmt.Errorf("imaging: empty image")
	}

	var results []ProcessedImage
	for _, v := range variants {
		width := min(v.Width, bounds.Dx())
		height := max(1, bounds.Dy()*width/bounds.Dx())

		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: v.Quality}); err != nil {
			return nil, fmt.Errorf("imaging: encode %s: %w", v.Name, err)
		}

		results = append(results, ProcessedImage{
			Name:        v.Name,
			Width:       width,
			Height:      height,
			Data:        buf.Bytes(),
			ContentType: "image/jpeg",
		})

		// Later variants would only repeat the source size.
		if bounds.Dx() <= v.Width {
			break
		}
	}
	return results, nil
}
