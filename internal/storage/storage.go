// Package storage uploads project images to an object store and returns their public URL.
package storage

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
)

// ObjectStore stores immutable objects. Uploading over an existing name fails.
type ObjectStore interface {
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
}

// CacheControl is sent with every stored object.
const CacheControl = "max-age=3600"

// UploadError is a failed upload with the status the backend reported.
type UploadError struct {
	StatusCode int
	Message    string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed (%d): %s", e.StatusCode, e.Message)
}

// ErrTooLarge is the message local backends use when an object exceeds their limit.
const ErrTooLarge = "The object exceeded the maximum allowed size"

// statusCode extracts an HTTP status from known error types, 0 if none.
func statusCode(err error) int {
	var uploadErr *UploadError
	if errors.As(err, &uploadErr) {
		return uploadErr.StatusCode
	}
	var respErr *azcore.ResponseError
	if errors.As(err, &respErr) {
		return respErr.StatusCode
	}
	return 0
}

// IsLikelyPayloadTooLarge reports whether err looks like the backend rejected
// the object for its size: a 413 status or a size-related message.
func IsLikelyPayloadTooLarge(err error) bool {
	if err == nil {
		return false
	}
	if statusCode(err) == http.StatusRequestEntityTooLarge {
		return true
	}

	msg := strings.ToLower(err.Error())
	has := func(s string) bool { return strings.Contains(msg, s) }

	return has("payload too large") ||
		has("entity too large") ||
		(has("too large") && has("size")) ||
		(has("exceed") && has("size")) ||
		(has("maximum") && has("size"))
}

// IsAlreadyExists reports whether err is a name collision.
func IsAlreadyExists(err error) bool {
	return statusCode(err) == http.StatusConflict
}
