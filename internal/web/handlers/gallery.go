package handlers

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/kozaktomas/portfolio/internal/database"
	"github.com/kozaktomas/portfolio/internal/format"
	"github.com/kozaktomas/portfolio/internal/github"
	"github.com/kozaktomas/portfolio/internal/portfolio"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/sync/errgroup"
)

const (
	galleryTitle       = "Projects"
	galleryVisibleTags = 4
	galleryStatsLimit  = 4
	galleryStatsWait   = 3 * time.Second
)

// ProjectLister returns projects in display order.
type ProjectLister interface {
	ListProjects(ctx context.Context) []database.Project
}

// GalleryHandler renders the public project gallery
type GalleryHandler struct {
	projects ProjectLister
	stats    StatsFetcher
	tmpl     *template.Template
	policy   *bluemonday.Policy
	locale   string
	now      func() time.Time
}

// NewGalleryHandler creates a gallery handler. stats may be nil to skip
// repository stats.
func NewGalleryHandler(projects ProjectLister, stats StatsFetcher, tmpl *template.Template, locale string) *GalleryHandler {
	return &GalleryHandler{
		projects: projects,
		stats:    stats,
		tmpl:     tmpl,
		policy:   bluemonday.UGCPolicy(),
		locale:   locale,
		now:      time.Now,
	}
}

type statsView struct {
	Stars  string
	Forks  string
	Pushed string
}

type projectCard struct {
	ID               string
	Title            string
	ShortDescription string
	Description      template.HTML
	ImageURL         string
	RepoURL          string
	DemoURL          string
	Tags             []string
	MoreTags         int
	Created          string
	Stats            *statsView
}

type galleryPage struct {
	Title     string
	Projects  []projectCard
	Generated string
}

func (h *GalleryHandler) card(p database.Project) projectCard {
	tags := portfolio.NormalizeTags(p.Tags)
	visible := portfolio.VisibleTags(tags, galleryVisibleTags)
	labels := make([]string, len(visible))
	for i, tag := range visible {
		labels[i] = portfolio.FormatTagLabel(tag)
	}

	repoURL := p.RepoURL
	if normalized, ok := github.NormalizeRepoURL(repoURL); ok {
		repoURL = normalized
	}

	return projectCard{
		ID:               p.ID,
		Title:            p.Title,
		ShortDescription: p.ShortDescription,
		// Sanitized by the UGC policy before being trusted as HTML.
		Description: template.HTML(h.policy.Sanitize(p.Description)),
		ImageURL:    p.ImageURL,
		RepoURL:     repoURL,
		DemoURL:     p.DemoURL,
		Tags:        labels,
		MoreTags:    len(tags) - len(visible),
		Created:     format.Date(p.CreatedAt, format.DateOptions{Locale: h.locale}),
	}
}

// attachStats looks up repository stats for every card with a GitHub link.
// Lookups that fail or time out leave the card without stats.
func (h *GalleryHandler) attachStats(ctx context.Context, cards []projectCard) {
	if h.stats == nil {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, galleryStatsWait)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(galleryStatsLimit)
	for i := range cards {
		if _, ok := github.ParseRepoURL(cards[i].RepoURL); !ok {
			continue
		}
		g.Go(func() error {
			stats, err := h.stats.Stats(ctx, cards[i].RepoURL)
			if err != nil {
				slog.Debug("gallery stats unavailable", "project", cards[i].ID, "error", err)
				return nil
			}
			if stats == nil {
				return nil
			}
			view := &statsView{
				Stars: format.Number(float64(stats.Stars), h.locale),
				Forks: format.Number(float64(stats.Forks), h.locale),
			}
			if pushed, err := time.Parse(time.RFC3339, stats.LastPushedAt); err == nil {
				view.Pushed = format.Date(pushed, format.DateOptions{Locale: h.locale})
			}
			cards[i].Stats = view
			return nil
		})
	}
	g.Wait()
}

// Render serves the gallery page
func (h *GalleryHandler) Render(w http.ResponseWriter, r *http.Request) {
	projects := h.projects.ListProjects(r.Context())

	cards := make([]projectCard, len(projects))
	for i, p := range projects {
		cards[i] = h.card(p)
	}
	h.attachStats(r.Context(), cards)

	page := galleryPage{
		Title:     galleryTitle,
		Projects:  cards,
		Generated: format.Date(h.now(), format.DateOptions{Locale: h.locale}),
	}

	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "gallery", page); err != nil {
		slog.Error("failed to render gallery", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
