package imageopt

import (
	"errors"
	"fmt"

	"github.com/kozaktomas/portfolio/internal/format"
)

// Code identifies why an optimization failed.
type Code string

const (
	CodeNotImage       Code = "not-image"
	CodeDecodeFailed   Code = "decode-failed"
	CodeEncodeFailed   Code = "encode-failed"
	CodeCannotCompress Code = "cannot-compress"
)

// Error is returned by Optimize for every expected failure.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(code Code, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Err: cause}
}

// CodeOf returns the optimization error code carried by err, or "" if none.
func CodeOf(err error) Code {
	var optErr *Error
	if errors.As(err, &optErr) {
		return optErr.Code
	}
	return ""
}

// UserMessage is the text shown when preparing an image of originalBytes fails.
func UserMessage(err error, originalBytes, maxBytes int64) string {
	maxText := format.ByteSize(maxBytes)
	switch CodeOf(err) {
	case CodeNotImage:
		return "Please choose an image file."
	case CodeCannotCompress:
		return fmt.Sprintf("This image is %s. Max allowed is %s. Try cropping or choosing a smaller screenshot.",
			format.ByteSize(originalBytes), maxText)
	default:
		return fmt.Sprintf("Couldn’t process this image. Please try a different file. (Max %s)", maxText)
	}
}
