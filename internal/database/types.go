package database

import (
	"time"
)

// Project is a portfolio entry as stored in the projects table.
type Project struct {
	ID               string    `json:"id"`
	CreatedAt        time.Time `json:"created_at"`
	Title            string    `json:"title"`
	ShortDescription string    `json:"short_description"`
	Description      string    `json:"description"`
	ImageURL         string    `json:"image_url"`
	RepoURL          string    `json:"repo_url"`
	DemoURL          string    `json:"demo_url"`
	Tags             []string  `json:"tags"`
	IsFeatured       bool      `json:"is_featured"`
	SortOrder        int       `json:"sort_order"`
}

// ProjectIDs returns the ids of projects in order.
func ProjectIDs(projects []Project) []string {
	ids := make([]string, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	return ids
}

// ProjectUpdate holds the editable columns of a project. ImageURL and Tags
// are written as given (empty image keeps nothing, nil tags store NULL).
type ProjectUpdate struct {
	Title            string
	ShortDescription string
	Description      string
	ImageURL         string
	RepoURL          string
	DemoURL          string
	Tags             []string
}
