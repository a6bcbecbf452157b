package imageopt

import (
	"errors"
	"fmt"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"sync"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

// Decoded is a decoded image plus the resources it still holds.
// Release must be called once the image is no longer needed; it is safe to
// call more than once.
type Decoded struct {
	Image  image.Image
	Width  int
	Height int

	once    sync.Once
	release func()
}

// Release frees the source handle and drops the pixel data.
func (d *Decoded) Release() {
	if d == nil {
		return
	}
	d.once.Do(func() {
		if d.release != nil {
			d.release()
		}
		d.Image = nil
	})
}

// Decoder turns a File into pixels.
type Decoder interface {
	Decode(f *File) (*Decoded, error)
}

// DecoderFunc adapts a function to Decoder.
type DecoderFunc func(f *File) (*Decoded, error)

func (fn DecoderFunc) Decode(f *File) (*Decoded, error) {
	return fn(f)
}

var errUnsupportedType = errors.New("unsupported image type")

// typedDecoders maps declared MIME types to their decoders for the fallback path.
var typedDecoders = map[string]func(io.Reader) (image.Image, error){
	"image/jpeg": jpeg.Decode,
	"image/jpg":  jpeg.Decode,
	"image/png":  png.Decode,
	"image/gif":  gif.Decode,
	"image/webp": webp.Decode,
	"image/bmp":  bmp.Decode,
	"image/tiff": tiff.Decode,
}

// SniffDecoder detects the format from the content.
func SniffDecoder() Decoder {
	return DecoderFunc(func(f *File) (*Decoded, error) {
		return decodeWith(f, func(r io.Reader) (image.Image, error) {
			img, _, err := image.Decode(r)
			return img, err
		})
	})
}

// TypedDecoder trusts the declared MIME type and picks a decoder for it.
func TypedDecoder() Decoder {
	return DecoderFunc(func(f *File) (*Decoded, error) {
		decode, ok := typedDecoders[f.Type]
		if !ok {
			return nil, fmt.Errorf("%w: %s", errUnsupportedType, f.Type)
		}
		return decodeWith(f, decode)
	})
}

func decodeWith(f *File, decode func(io.Reader) (image.Image, error)) (*Decoded, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}

	img, err := decode(rc)
	if err != nil {
		rc.Close()
		return nil, err
	}

	b := img.Bounds()
	if b.Dx() <= 0 || b.Dy() <= 0 {
		rc.Close()
		return nil, fmt.Errorf("image has no pixels")
	}

	return &Decoded{
		Image:   img,
		Width:   b.Dx(),
		Height:  b.Dy(),
		release: func() { rc.Close() },
	}, nil
}

// decodeFirst tries each decoder in turn and returns the first success.
func decodeFirst(f *File, decoders []Decoder) (*Decoded, error) {
	var errs []error
	for _, d := range decoders {
		decoded, err := d.Decode(f)
		if err == nil {
			return decoded, nil
		}
		errs = append(errs, err)
	}
	return nil, newError(CodeDecodeFailed, "Failed to decode image.", errors.Join(errs...))
}
