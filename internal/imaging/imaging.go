// Package imaging provides texture decode and re-encode for export.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	_ "golang.org/x/image/webp" // decode support for webp sources
)

// Codec selects the target encoding for a texture.
type Codec string

// Supported codecs. WebP decodes but has no encoder in the Go ecosystem we
// ship with; Encode falls back to PNG for it and reports the fallback.
const (
	CodecPNG  Codec = "png"
	CodecJPEG Codec = "jpeg"
	CodecWebP Codec = "webp"
)

// ErrNoPixels is returned when an image carries no pixel data.
var ErrNoPixels = errors.New("image has no pixel data")

// Encode serializes an image with the given codec. Quality applies to lossy
// codecs only (1-100). It returns the encoded bytes, the actual MIME type
// written, and whether the codec was substituted.
func Encode(img image.Image, codec Codec, quality int) (data []byte, mime string, fallback bool, err error) {
	if img == nil {
		return nil, "", false, ErrNoPixels
	}
	if quality < 1 {
		quality = 1
	}
	if quality > 100 {
		quality = 100
	}

	var buf bytes.Buffer
	switch codec {
	case CodecJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, "", false, fmt.Errorf("encoding jpeg: %w", err)
		}
		return buf.Bytes(), "image/jpeg", false, nil
	case CodecWebP:
		// No webp encoder available; store lossless instead.
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", false, fmt.Errorf("encoding png: %w", err)
		}
		return buf.Bytes(), "image/png", true, nil
	default:
		if err := png.Encode(&buf, img); err != nil {
			return nil, "", false, fmt.Errorf("encoding png: %w", err)
		}
		return buf.Bytes(), "image/png", false, nil
	}
}

// Decode parses encoded image bytes into NRGBA.
func Decode(data []byte) (*image.NRGBA, error) {
	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decoding image: %w", err)
	}
	if n, ok := src.(*image.NRGBA); ok {
		return n, nil
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			dst.Set(x, y, src.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return dst, nil
}
