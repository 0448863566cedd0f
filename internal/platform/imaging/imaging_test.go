package imaging

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestInspect(t *testing.T) {
	info, err := Inspect(pngOf(t, 40, 20))
	if err != nil {
		t.Fatalf("Inspect: %v", err)
	}
	if info.Format != "png" || info.Width != 40 || info.Height != 20 {
		t.Fatalf("Inspect: got=%+v", info)
	}
	if _, err := Inspect([]byte("not an image")); err == nil {
		t.Fatalf("Inspect garbage: want error")
	}
}

func TestFitWithinKeepsSmallImages(t *testing.T) {
	src := pngOf(t, 30, 30)
	out, resized, err := FitWithin(src, 64)
	if err != nil {
		t.Fatalf("FitWithin: %v", err)
	}
	if resized || !bytes.Equal(out, src) {
		t.Fatalf("small image should pass through unchanged")
	}
}

func TestFitWithinScalesLargeImages(t *testing.T) {
	out, resized, err := FitWithin(pngOf(t, 200, 100), 50)
	if err != nil {
		t.Fatalf("FitWithin: %v", err)
	}
	if !resized {
		t.Fatalf("expected resize")
	}
	info, err := Inspect(out)
	if err != nil {
		t.Fatalf("Inspect resized: %v", err)
	}
	if info.Format != "jpeg" || info.Width != 50 || info.Height != 25 {
		t.Fatalf("resized: got=%+v", info)
	}
}

func TestEmbeddedCoverWithoutTags(t *testing.T) {
	if _, _, ok := EmbeddedCover([]byte("no tags here")); ok {
		t.Fatalf("EmbeddedCover: want ok=false")
	}
	if _, _, ok := EmbeddedCover(nil); ok {
		t.Fatalf("EmbeddedCover nil: want ok=false")
	}
}
