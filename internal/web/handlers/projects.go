package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/portfolio/internal/portfolio"
	"github.com/kozaktomas/portfolio/internal/web/middleware"
)

// formOverhead is the allowance for non-file fields in a project form.
const formOverhead = 1 << 20

// ProjectsHandler handles project endpoints
type ProjectsHandler struct {
	service       *portfolio.Service
	maxImageBytes int64
}

// NewProjectsHandler creates a new projects handler
func NewProjectsHandler(service *portfolio.Service, maxImageBytes int64) *ProjectsHandler {
	return &ProjectsHandler{
		service:       service,
		maxImageBytes: maxImageBytes,
	}
}

// List returns all projects in display order. Read failures yield an empty list.
func (h *ProjectsHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.ListProjects(r.Context()))
}

// parseForm reads a multipart project form bounded by the image limit.
// It writes the error response itself and returns false on failure.
func (h *ProjectsHandler) parseForm(w http.ResponseWriter, r *http.Request) (portfolio.ProjectInput, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageBytes+formOverhead)
	if err := r.ParseMultipartForm(h.maxImageBytes + formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondJSON(w, http.StatusRequestEntityTooLarge,
				portfolio.Fail[bool](portfolio.KindInvalid, portfolio.UploadTooLargeError(h.maxImageBytes)))
			return portfolio.ProjectInput{}, false
		}
		slog.Warn("invalid project form", "error", err)
		respondError(w, http.StatusBadRequest, "invalid form data")
		return portfolio.ProjectInput{}, false
	}
	return portfolio.ParseProjectForm(r.MultipartForm), true
}

// Create adds a project from a multipart form
func (h *ProjectsHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	respondAction(w, h.service.CreateProject(r.Context(), middleware.UserFromContext(r.Context()), in))
}

// Update edits the project named by the {id} route parameter
func (h *ProjectsHandler) Update(w http.ResponseWriter, r *http.Request) {
	in, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	if id := chi.URLParam(r, "id"); id != "" {
		in.ID = id
	}

	respondAction(w, h.service.UpdateProject(r.Context(), middleware.UserFromContext(r.Context()), in))
}

type deleteRequest struct {
	IDs []string `json:"ids"`
}

// Delete removes the projects listed in the request body
func (h *ProjectsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	respondAction(w, h.service.DeleteProjects(r.Context(), middleware.UserFromContext(r.Context()), req.IDs))
}

type orderRequest struct {
	OrderedIDs []string `json:"ordered_ids"`
}

// Order rewrites sort_order to follow the given id sequence
func (h *ProjectsHandler) Order(w http.ResponseWriter, r *http.Request) {
	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	respondAction(w, h.service.UpdateProjectOrder(r.Context(), middleware.UserFromContext(r.Context()), req.OrderedIDs))
}
