package scene

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Image is a texture data block. Pixels may be nil for metadata-only images
// (dimensions are still tracked and scalable so the pipeline behaves the same
// either way).
type Image struct {
	Name   string
	W, H   int
	Pixels *image.NRGBA
}

// NewImage returns an image of the given size with no pixel data.
func NewImage(name string, w, h int) *Image {
	return &Image{Name: name, W: w, H: h}
}

// Size returns the current dimensions.
func (img *Image) Size() (int, int) {
	return img.W, img.H
}

// Scale resizes the image in place. Pixel data, when present, is resampled
// with Catmull-Rom; dimensions are clamped to at least 1.
func (img *Image) Scale(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if w == img.W && h == img.H {
		return
	}
	if img.Pixels != nil {
		dst := image.NewNRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(dst, dst.Bounds(), img.Pixels, img.Pixels.Bounds(), xdraw.Src, nil)
		img.Pixels = dst
	}
	img.W = w
	img.H = h
}
