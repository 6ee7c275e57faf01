package comfy

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
)

// WritePlaceholder writes a plain gradient PNG of the requested size. It
// stands in for a segment image the backend could not render, so the video
// still assembles. The tint varies with index to keep cuts visible.
func WritePlaceholder(path string, width, height, index int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid placeholder size %dx%d", width, height)
	}

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	tint := uint8((index * 37) % 96)
	for y := 0; y < height; y++ {
		shade := uint8(24 + 40*y/height)
		c := color.RGBA{R: shade, G: shade + tint/3, B: shade + tint, A: 255}
		for x := 0; x < width; x++ {
			img.SetRGBA(x, y, c)
		}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create image dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create placeholder: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode placeholder: %w", err)
	}
	return f.Close()
}
