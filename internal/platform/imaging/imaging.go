// Package imaging validates and normalizes cover artwork.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

type Info struct {
	Format string
	Width  int
	Height int
}

// Inspect decodes only the image header.
func Inspect(data []byte) (Info, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Info{}, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, fmt.Errorf("image has no pixels (%dx%d)", cfg.Width, cfg.Height)
	}
	return Info{Format: format, Width: cfg.Width, Height: cfg.Height}, nil
}

// FitWithin scales an image down to fit maxDim x maxDim, keeping its aspect
// ratio, and re-encodes it as JPEG. Images already within bounds are returned
// unchanged with resized=false.
func FitWithin(data []byte, maxDim int) (out []byte, resized bool, err error) {
	info, err := Inspect(data)
	if err != nil {
		return nil, false, err
	}
	if maxDim <= 0 || (info.Width <= maxDim && info.Height <= maxDim) {
		return data, false, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("decode image: %w", err)
	}

	width, height := info.Width, info.Height
	if width >= height {
		height = max(1, height*maxDim/width)
		width = maxDim
	} else {
		width = max(1, width*maxDim/height)
		height = maxDim
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: 90}); err != nil {
		return nil, false, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), true, nil
}
