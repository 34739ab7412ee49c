package analysis

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	maxImageWidth  = 1920
	maxImageHeight = 1080
	jpegQuality    = 85

	// maxImagePixels caps the decoded raster; a small compressed upload can
	// otherwise expand to gigabytes.
	maxImagePixels = 50_000_000
)

// fitWithin scales (w, h) down to fit the bounds, keeping the aspect ratio.
// Sizes already inside the bounds are returned unchanged.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	var nw, nh int
	if w*maxH > h*maxW {
		nw, nh = maxW, h*maxW/w
	} else {
		nw, nh = w*maxH/h, maxH
	}
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}
	return nw, nh
}

// normalizeImage flattens the image onto an opaque RGB canvas, downsizes it to
// fit 1920x1080 with Catmull-Rom resampling and re-encodes it as JPEG.
func normalizeImage(data []byte) ([]byte, image.Point, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("decode image header: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, image.Point{}, fmt.Errorf("decode image: empty dimensions %dx%d", cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return nil, image.Point{}, fmt.Errorf("decode image: %dx%d exceeds %d pixel limit", cfg.Width, cfg.Height, maxImagePixels)
	}
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, image.Point{}, fmt.Errorf("decode image: %w", err)
	}
	b := src.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, image.Point{}, fmt.Errorf("decode image: empty bounds %v", b)
	}
	w, h := fitWithin(b.Dx(), b.Dy(), maxImageWidth, maxImageHeight)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	if w == b.Dx() && h == b.Dy() {
		draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, image.Point{}, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), image.Point{X: w, Y: h}, nil
}
