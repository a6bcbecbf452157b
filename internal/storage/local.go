package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore keeps objects in a directory and serves them under a public base URL.
type LocalStore struct {
	dir      string
	baseURL  string
	maxBytes int64
}

// NewLocalStore creates the directory if needed. maxBytes <= 0 disables the size limit.
func NewLocalStore(dir, baseURL string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{
		dir:      dir,
		baseURL:  strings.TrimRight(baseURL, "/"),
		maxBytes: maxBytes,
	}, nil
}

func validObjectName(name string) bool {
	return name != "" && name != "." && name != ".." &&
		!strings.ContainsAny(name, `/\`) && !strings.HasPrefix(name, ".")
}

// Upload writes data under name. The content type is implied by the extension when served.
func (s *LocalStore) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !validObjectName(name) {
		return "", &UploadError{StatusCode: http.StatusBadRequest, Message: "Invalid object name"}
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return "", &UploadError{StatusCode: http.StatusRequestEntityTooLarge, Message: ErrTooLarge}
	}

	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return "", &UploadError{StatusCode: http.StatusConflict, Message: "The resource already exists"}
	}
	if err != nil {
		return "", fmt.Errorf("create object %s: %w", name, err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write object %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close object %s: %w", name, err)
	}

	return objectURL(s.baseURL, name), nil
}

// Handler serves stored objects with the shared cache policy.
func (s *LocalStore) Handler() http.Handler {
	files := http.FileServer(http.Dir(s.dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Cache-Control", CacheControl)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		files.ServeHTTP(w, r)
	})
}
