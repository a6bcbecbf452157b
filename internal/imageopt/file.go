package imageopt

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
)

// File is an image candidate: a name, a declared MIME type, a modification
// time and a way to (re)open its content.
type File struct {
	Name    string
	Type    string
	ModTime time.Time

	size int64
	open func() (io.ReadCloser, error)
}

// NewFile wraps in-memory content.
func NewFile(name, mimeType string, modTime time.Time, data []byte) *File {
	return &File{
		Name:    name,
		Type:    mimeType,
		ModTime: modTime,
		size:    int64(len(data)),
		open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FromMultipart wraps an uploaded form file. The declared Content-Type of the
// part is trusted, as a browser would.
func FromMultipart(fh *multipart.FileHeader) *File {
	return &File{
		Name:    fh.Filename,
		Type:    fh.Header.Get("Content-Type"),
		ModTime: time.Now(),
		size:    fh.Size,
		open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}

// OpenFile stats a file on disk and sniffs its MIME type.
func OpenFile(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	mt, err := mimetype.DetectFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to detect type of %s: %w", path, err)
	}

	return &File{
		Name:    filepath.Base(path),
		Type:    mt.String(),
		ModTime: info.ModTime(),
		size:    info.Size(),
		open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}

// Size returns the content length in bytes.
func (f *File) Size() int64 {
	return f.size
}

// Open returns a fresh reader over the content. Callers must close it.
func (f *File) Open() (io.ReadCloser, error) {
	if f.open == nil {
		return nil, fmt.Errorf("file %q has no content", f.Name)
	}
	return f.open()
}

// Bytes reads the whole content.
func (f *File) Bytes() ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", f.Name, err)
	}
	return data, nil
}
