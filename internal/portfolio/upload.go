package portfolio

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kozaktomas/portfolio/internal/format"
	"github.com/kozaktomas/portfolio/internal/imageopt"
	"github.com/kozaktomas/portfolio/internal/storage"
)

// ImageFilename builds the object name for an upload: "<unix-ms>-<sanitized name>".
func (s *Service) ImageFilename(name string) string {
	return fmt.Sprintf("%d-%s", s.now().UnixMilli(), SanitizeFilename(name))
}

// MaxImageSizeError is the pre-flight message for an oversized file.
func MaxImageSizeError(size, maxBytes int64) string {
	return fmt.Sprintf("Image is %s. Max allowed is %s.", format.ByteSize(size), format.ByteSize(maxBytes))
}

// UploadTooLargeError is the message when the store rejects an object for its size.
func UploadTooLargeError(maxBytes int64) string {
	return fmt.Sprintf("Upload failed: image must be under %s.", format.ByteSize(maxBytes))
}

// uploadImage stores f and returns its public URL. A missing or empty file
// yields an empty URL and no error.
func (s *Service) uploadImage(ctx context.Context, f *imageopt.File) ActionResult[string] {
	if f == nil || f.Size() == 0 {
		return OK("")
	}

	if f.Size() > s.maxImageBytes {
		return Fail[string](KindInvalid, MaxImageSizeError(f.Size(), s.maxImageBytes))
	}

	data, err := f.Bytes()
	if err != nil {
		slog.Error("upload error", "file", f.Name, "error", err)
		return Fail[string](KindInternal, FormatError(err, MsgUploadFailed, s.production))
	}

	url, err := s.objects.Upload(ctx, s.ImageFilename(f.Name), data, f.Type)
	if err != nil {
		slog.Error("upload error", "file", f.Name, "error", err)
		if storage.IsLikelyPayloadTooLarge(err) {
			return Fail[string](KindInvalid, UploadTooLargeError(s.maxImageBytes))
		}
		return Fail[string](KindInternal, FormatError(err, MsgUploadFailed, s.production))
	}
	if url == "" {
		return Fail[string](KindInternal, MsgUploadFailed)
	}

	return OK(url)
}
