package handlers

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/kozaktomas/portfolio/internal/imageopt"
)

// ImagesHandler runs the image optimizer on uploaded files
type ImagesHandler struct {
	optimizer *imageopt.Optimizer
	opts      imageopt.Options
	maxUpload int64
}

// NewImagesHandler creates an image handler. maxUpload bounds the raw
// request body and is independent of the optimizer's output limit.
func NewImagesHandler(optimizer *imageopt.Optimizer, opts imageopt.Options, maxUpload int64) *ImagesHandler {
	return &ImagesHandler{
		optimizer: optimizer,
		opts:      opts.WithDefaults(),
		maxUpload: maxUpload,
	}
}

// Optimize accepts a multipart "image" file and responds with the optimized
// bytes. Size information is returned in X-Original-Bytes, X-Final-Bytes and
// X-Was-Optimized headers.
func (h *ImagesHandler) Optimize(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "Upload is too large.")
			return
		}
		respondError(w, http.StatusBadRequest, "invalid form data")
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["image"]
	if len(headers) == 0 {
		respondError(w, http.StatusBadRequest, "Please choose an image file.")
		return
	}
	file := imageopt.FromMultipart(headers[0])

	res, err := h.optimizer.Optimize(r.Context(), file, h.opts)
	if err != nil {
		slog.Warn("image optimization failed",
			"file", sanitizeForLog(file.Name),
			"size", file.Size(),
			"error", err,
		)
		status := http.StatusUnprocessableEntity
		if imageopt.CodeOf(err) == "" {
			status = http.StatusInternalServerError
		}
		respondError(w, status, imageopt.UserMessage(err, file.Size(), h.opts.MaxBytes))
		return
	}

	data, err := res.File.Bytes()
	if err != nil {
		slog.Error("failed to read optimized image", "error", err)
		respondError(w, http.StatusInternalServerError, imageopt.UserMessage(err, file.Size(), h.opts.MaxBytes))
		return
	}

	w.Header().Set("Content-Type", res.MIMEType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.File.Name}))
	w.Header().Set("X-Original-Bytes", strconv.FormatInt(res.OriginalBytes, 10))
	w.Header().Set("X-Final-Bytes", strconv.FormatInt(res.FinalBytes, 10))
	w.Header().Set("X-Was-Optimized", strconv.FormatBool(res.WasOptimized))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
