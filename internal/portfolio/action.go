// Package portfolio implements the authenticated project actions: create,
// update, delete and reorder, plus the helpers that prepare their input.
package portfolio

import "strings"

// ErrorKind classifies a failed action so transports can pick a status code.
type ErrorKind int

const (
	KindNone ErrorKind = iota
	KindUnauthorized
	KindInvalid
	KindNotFound
	KindConflict
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "ok"
	case KindUnauthorized:
		return "unauthorized"
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "error"
	}
}

// ActionResult is either {data} or {error}. Actions never panic across this
// boundary; every failure is reported through Error.
type ActionResult[T any] struct {
	Data  T         `json:"data,omitempty"`
	Error string    `json:"error,omitempty"`
	Kind  ErrorKind `json:"-"`
}

// OK wraps a successful value.
func OK[T any](data T) ActionResult[T] {
	return ActionResult[T]{Data: data}
}

// Fail builds a failed result.
func Fail[T any](kind ErrorKind, msg string) ActionResult[T] {
	return ActionResult[T]{Error: msg, Kind: kind}
}

// Failed reports whether the result carries an error.
func (r ActionResult[T]) Failed() bool {
	return r.Error != ""
}

// Messages shared with callers that react to specific failures.
const (
	MsgUnauthorized      = "Unauthorized"
	MsgFailed            = "Failed"
	MsgUploadFailed      = "Upload failed"
	MsgMissingProjectID  = "Missing project id"
	MsgProjectNotFound   = "Project not found"
	MsgUnknownOrderIDs   = "Project order contains unknown ids"
	MsgNoProjectsToOrder = "No projects provided for ordering"
	MsgDuplicateOrderIDs = "Project order contains duplicate ids"
)

// FormatError turns a backend error into user-facing text. With hideDetails
// (production) only the fallback is shown.
func FormatError(err error, fallback string, hideDetails bool) string {
	if fallback == "" {
		fallback = MsgFailed
	}
	if err == nil || hideDetails {
		return fallback
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}
