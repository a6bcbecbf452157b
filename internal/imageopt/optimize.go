// Package imageopt re-encodes images until they fit a byte budget.
package imageopt

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/kozaktomas/portfolio/internal/quality"
)

// Result describes the outcome of a successful Optimize call.
// Width and Height are zero when the input was returned unchanged.
type Result struct {
	File          *File
	WasOptimized  bool
	OriginalBytes int64
	FinalBytes    int64
	MIMEType      string
	Width         int
	Height        int
}

// Outcome labels for observers.
const (
	OutcomeUnchanged = "unchanged"
	OutcomeOptimized = "optimized"
)

// Optimizer holds the codec and decoder chains. The zero value is not usable;
// construct with New.
type Optimizer struct {
	encoders []Encoder
	decoders []Decoder
	observe  func(outcome string)
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithEncoders replaces the codec preference list.
func WithEncoders(encoders ...Encoder) Option {
	return func(o *Optimizer) { o.encoders = encoders }
}

// WithDecoders replaces the decode strategies, tried in order.
func WithDecoders(decoders ...Decoder) Option {
	return func(o *Optimizer) { o.decoders = decoders }
}

// WithObserver is called once per Optimize call with OutcomeUnchanged,
// OutcomeOptimized or the failure Code.
func WithObserver(fn func(outcome string)) Option {
	return func(o *Optimizer) { o.observe = fn }
}

// New returns an Optimizer using WebP then JPEG, and content sniffing then the
// declared MIME type for decoding.
func New(opts ...Option) *Optimizer {
	o := &Optimizer{
		encoders: DefaultEncoders(),
		decoders: []Decoder{SniffDecoder(), TypedDecoder()},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Optimize returns f unchanged when it already fits opts.MaxBytes, otherwise a
// re-encoded, possibly downscaled copy that fits opts.TargetBytes.
func (o *Optimizer) Optimize(ctx context.Context, f *File, opts Options) (*Result, error) {
	res, err := o.optimize(ctx, f, opts.WithDefaults())
	if o.observe != nil {
		switch {
		case err != nil:
			if code := CodeOf(err); code != "" {
				o.observe(string(code))
			} else {
				o.observe("error")
			}
		case res.WasOptimized:
			o.observe(OutcomeOptimized)
		default:
			o.observe(OutcomeUnchanged)
		}
	}
	return res, err
}

func (o *Optimizer) optimize(ctx context.Context, f *File, opts Options) (*Result, error) {
	if f == nil || !strings.HasPrefix(f.Type, "image/") {
		return nil, newError(CodeNotImage, "Please choose an image file.", nil)
	}

	if f.Size() <= opts.MaxBytes {
		return &Result{
			File:          f,
			WasOptimized:  false,
			OriginalBytes: f.Size(),
			FinalBytes:    f.Size(),
			MIMEType:      f.Type,
		}, nil
	}

	decoded, err := decodeFirst(f, o.decoders)
	if err != nil {
		return nil, err
	}
	defer decoded.Release()

	width, height := DownscaledDimensions(decoded.Width, decoded.Height, opts.MaxDimension)

	for range opts.MaxDimensionPasses {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("optimize %s: %w", f.Name, err)
		}

		enc, surface, err := o.pickEncoder(ctx, decoded.Image, width, height, *opts.MaxQuality)
		if err != nil {
			return nil, err
		}

		minOut, err := encodeChecked(ctx, enc, surface, *opts.MinQuality)
		if err != nil {
			return nil, err
		}

		if minOut.Size() > opts.TargetBytes {
			width = scaleSide(width, opts.DimensionScaleFactor)
			height = scaleSide(height, opts.DimensionScaleFactor)
			continue
		}

		best, err := quality.FindBestUnderBytes(ctx, func(ctx context.Context, q float64) (encoded, error) {
			return encodeChecked(ctx, enc, surface, q)
		}, quality.Options{
			MinQuality: *opts.MinQuality,
			MaxQuality: *opts.MaxQuality,
			MaxBytes:   float64(opts.TargetBytes),
			Steps:      opts.QualitySearchSteps,
		})
		if err != nil {
			return nil, err
		}

		data := minOut
		if best != nil {
			data = best.Value
		}

		mimeType := enc.MIMEType()
		out := NewFile(ReplaceExtension(f.Name, ExtensionForMIME(mimeType)), mimeType, f.ModTime, data)
		return &Result{
			File:          out,
			WasOptimized:  true,
			OriginalBytes: f.Size(),
			FinalBytes:    out.Size(),
			MIMEType:      mimeType,
			Width:         width,
			Height:        height,
		}, nil
	}

	return nil, newError(CodeCannotCompress, "Could not reduce the image under the size limit.", nil)
}

// pickEncoder renders the pass surface and returns the first encoder able to
// encode it at maxQuality. Opaque encoders get a surface flattened on white.
func (o *Optimizer) pickEncoder(ctx context.Context, src image.Image, width, height int, maxQuality float64) (Encoder, image.Image, error) {
	var alpha, flat image.Image
	var errs []error

	for _, enc := range o.encoders {
		var surface image.Image
		if enc.Opaque() {
			if flat == nil {
				flat = render(src, width, height, color.White)
			}
			surface = flat
		} else {
			if alpha == nil {
				alpha = render(src, width, height, nil)
			}
			surface = alpha
		}

		out, err := enc.Encode(ctx, surface, maxQuality)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, nil, fmt.Errorf("pick encoder: %w", ctxErr)
			}
			errs = append(errs, err)
			continue
		}
		if len(out) > 0 {
			return enc, surface, nil
		}
	}

	return nil, nil, newError(CodeEncodeFailed, "No available encoder can encode this image.", errors.Join(errs...))
}

func encodeChecked(ctx context.Context, enc Encoder, img image.Image, q float64) (encoded, error) {
	out, err := enc.Encode(ctx, img, q)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("encode %s: %w", enc.MIMEType(), ctxErr)
		}
		return nil, newError(CodeEncodeFailed, "Failed to encode this image.", err)
	}
	if len(out) == 0 {
		return nil, newError(CodeEncodeFailed, "Failed to encode this image.", nil)
	}
	return encoded(out), nil
}
