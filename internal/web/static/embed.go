// Package static embeds the public gallery template and its assets.
package static

import (
	"embed"
	"html/template"
	"io/fs"
	"net/http"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed all:assets
var assetsFS embed.FS

// ParseTemplates parses the embedded page templates with funcs.
func ParseTemplates(funcs template.FuncMap) (*template.Template, error) {
	return template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.html")
}

// GetFileSystem returns an http.FileSystem for the embedded assets directory.
func GetFileSystem() http.FileSystem {
	fsys, err := fs.Sub(assetsFS, "assets")
	if err != nil {
		panic(err)
	}
	return http.FS(fsys)
}
