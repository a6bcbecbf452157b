package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kozaktomas/portfolio/internal/github"
)

// StatsFetcher looks up repository stats for a project card.
type StatsFetcher interface {
	Stats(ctx context.Context, repoURL string) (*github.Stats, error)
}

// GitHubHandler serves cached repository stats
type GitHubHandler struct {
	stats StatsFetcher
}

// NewGitHubHandler creates a new GitHub stats handler
func NewGitHubHandler(stats StatsFetcher) *GitHubHandler {
	return &GitHubHandler{stats: stats}
}

// Stats returns {stars, forks, last_pushed_at} for the ?url= repository
func (h *GitHubHandler) Stats(w http.ResponseWriter, r *http.Request) {
	repoURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if repoURL == "" {
		respondError(w, http.StatusBadRequest, "url is required")
		return
	}
	if _, ok := github.ParseRepoURL(repoURL); !ok {
		respondError(w, http.StatusBadRequest, "not a GitHub repository URL")
		return
	}

	stats, err := h.stats.Stats(r.Context(), repoURL)
	if err != nil {
		slog.Warn("github stats lookup failed", "url", sanitizeForLog(repoURL), "error", err)
	}
	if stats == nil {
		respondError(w, http.StatusNotFound, "Could not fetch GitHub stats")
		return
	}

	w.Header().Set("Cache-Control", "public, max-age=300")
	respondJSON(w, http.StatusOK, stats)
}
