package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/portfolio/internal/database"
	"github.com/kozaktomas/portfolio/internal/github"
	"github.com/kozaktomas/portfolio/internal/web/static"
)

type staticProjects []database.Project

func (s staticProjects) ListProjects(ctx context.Context) []database.Project {
	return s
}

func newGalleryHandler(t *testing.T, projects []database.Project, stats StatsFetcher) *GalleryHandler {
	t.Helper()
	tmpl, err := static.ParseTemplates(nil)
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}
	h := NewGalleryHandler(staticProjects(projects), stats, tmpl, "en-US")
	h.now = func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) }
	return h
}

func TestGalleryHandler_Render(t *testing.T) {
	projects := []database.Project{
		{
			ID:               "a",
			Title:            "Sorter",
			ShortDescription: "Sorts photos",
			Description:      "Line one<script>alert(1)</script> <b>bold</b>",
			ImageURL:         "https://cdn.example.com/uploads/a.webp",
			RepoURL:          "git@github.com:owner/sorter.git",
			Tags:             []string{"go", " ", "web", "cli", "ai", "db"},
			CreatedAt:        time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC),
		},
		{ID: "b", Title: "Plain"},
	}
	stub := &stubStats{stats: &github.Stats{Stars: 1234, Forks: 5, LastPushedAt: "2025-03-01T10:00:00Z"}}
	handler := newGalleryHandler(t, projects, stub)

	recorder := httptest.NewRecorder()
	handler.Render(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "text/html; charset=utf-8")

	body := recorder.Body.String()
	for _, want := range []string{
		"Sorter",
		"Sorts photos",
		"<b>bold</b>",
		`href="https://github.com/owner/sorter"`,
		"<li class=\"primary\">Go</li>",
		"<li>Cli</li>",
		"+1",
		"1,234",
		"1/15/2025",
		"3/1/2025",
		`id="project-b"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected body to contain %q", want)
		}
	}
	if strings.Contains(body, "<script>") {
		t.Error("expected script tags to be stripped")
	}
	if len(stub.urls) != 1 || stub.urls[0] != "https://github.com/owner/sorter" {
		t.Errorf("expected one stats lookup for the normalized url, got %v", stub.urls)
	}
}

func TestGalleryHandler_Render_Empty(t *testing.T) {
	handler := newGalleryHandler(t, nil, nil)

	recorder := httptest.NewRecorder()
	handler.Render(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	assertStatusCode(t, recorder, http.StatusOK)
	if !strings.Contains(recorder.Body.String(), "No projects yet.") {
		t.Error("expected empty state")
	}
}
