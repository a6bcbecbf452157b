package portfolio

import (
	"mime/multipart"
	"strings"

	"github.com/kozaktomas/portfolio/internal/imageopt"
)

// ProjectInput is a create or update request after form parsing.
type ProjectInput struct {
	ID               string
	Title            string
	ShortDescription string
	Description      string
	RepoURL          string
	DemoURL          string
	Tags             []string
	Image            *imageopt.File
	CurrentImageURL  string
}

func formString(form *multipart.Form, key string) string {
	if form == nil {
		return ""
	}
	values := form.Value[key]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

// ParseProjectForm reads a multipart project form. String fields are
// trimmed, tags are comma separated and the optional file part is "image".
func ParseProjectForm(form *multipart.Form) ProjectInput {
	in := ProjectInput{
		ID:               formString(form, "id"),
		Title:            formString(form, "title"),
		ShortDescription: formString(form, "short_description"),
		Description:      formString(form, "description"),
		RepoURL:          formString(form, "repo_url"),
		DemoURL:          formString(form, "demo_url"),
		Tags:             SplitTags(formString(form, "tags")),
		CurrentImageURL:  formString(form, "current_image_url"),
	}
	if form != nil {
		if files := form.File["image"]; len(files) > 0 {
			in.Image = imageopt.FromMultipart(files[0])
		}
	}
	return in
}
