// Package local re-encodes images on the machine running the hook, for use
// when no compression service key is available.
package local

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"github.com/disintegration/imageorient"
	"github.com/nfnt/resize"
)

// DefaultQuality is the JPEG quality used when none is configured.
const DefaultQuality = 85

// Encoder re-encodes PNG and JPEG images.
type Encoder struct {
	Quality  int  // JPEG quality, 1-100
	MaxWidth uint // Downscale wider images to this width; 0 keeps the size
}

// New returns an Encoder, clamping quality to the JPEG range.
func New(quality int, maxWidth uint) *Encoder {
	if quality <= 0 {
		quality = DefaultQuality
	}
	if quality > 100 {
		quality = 100
	}
	return &Encoder{Quality: quality, MaxWidth: maxWidth}
}

// Compress decodes data, optionally downscales it, and re-encodes it in the same
// format. When the result is not smaller, data is returned unchanged.
func (e *Encoder) Compress(ctx context.Context, data []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, format, err := imageorient.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not decode image: %w", err)
	}

	img = e.downscale(img)

	var out bytes.Buffer
	switch format {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&out, img)
	case "jpeg":
		err = jpeg.Encode(&out, img, &jpeg.Options{Quality: e.Quality})
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("could not encode %s image: %w", format, err)
	}

	if out.Len() >= len(data) {
		return data, nil
	}
	return out.Bytes(), nil
}

// downscale shrinks img to MaxWidth keeping the aspect ratio; it never upscales.
func (e *Encoder) downscale(img image.Image) image.Image {
	width := uint(img.Bounds().Dx())
	if e.MaxWidth == 0 || width <= e.MaxWidth {
		return img
	}
	return resize.Resize(e.MaxWidth, 0, img, resize.Lanczos3)
}
