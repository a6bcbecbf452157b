package imageopt

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"math"

	webpenc "github.com/gen2brain/webp"
)

const (
	MIMEWebP = "image/webp"
	MIMEJPEG = "image/jpeg"
)

// Encoder produces compressed bytes at a quality in [0,1].
type Encoder interface {
	MIMEType() string
	// Opaque reports whether the format drops alpha, in which case the
	// surface is flattened onto white before encoding.
	Opaque() bool
	Encode(ctx context.Context, img image.Image, quality float64) ([]byte, error)
}

// encoded satisfies quality.Sized.
type encoded []byte

func (e encoded) Size() int64 {
	return int64(len(e))
}

func qualityPercent(q float64) int {
	p := int(math.Round(q * 100))
	return max(1, min(100, p))
}

// WebPEncoder encodes lossy WebP with alpha.
type WebPEncoder struct{}

func (WebPEncoder) MIMEType() string { return MIMEWebP }
func (WebPEncoder) Opaque() bool     { return false }

func (WebPEncoder) Encode(ctx context.Context, img image.Image, quality float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := webpenc.Encode(&buf, img, webpenc.Options{Quality: qualityPercent(quality)}); err != nil {
		return nil, fmt.Errorf("failed to encode webp: %w", err)
	}
	return buf.Bytes(), nil
}

// JPEGEncoder encodes baseline JPEG.
type JPEGEncoder struct{}

func (JPEGEncoder) MIMEType() string { return MIMEJPEG }
func (JPEGEncoder) Opaque() bool     { return true }

func (JPEGEncoder) Encode(ctx context.Context, img image.Image, quality float64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: qualityPercent(quality)}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// DefaultEncoders lists codecs in preference order.
func DefaultEncoders() []Encoder {
	return []Encoder{WebPEncoder{}, JPEGEncoder{}}
}
