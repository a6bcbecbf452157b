package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/kozaktomas/portfolio/internal/portfolio"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// sanitizeForLog removes newlines and carriage returns to prevent log injection.
func sanitizeForLog(s string) string {
	return strings.NewReplacer("\n", "", "\r", "").Replace(s)
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends an error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// actionStatus maps a failed action to an HTTP status.
func actionStatus(kind portfolio.ErrorKind) int {
	switch kind {
	case portfolio.KindNone:
		return http.StatusOK
	case portfolio.KindUnauthorized:
		return http.StatusUnauthorized
	case portfolio.KindInvalid:
		return http.StatusBadRequest
	case portfolio.KindNotFound:
		return http.StatusNotFound
	case portfolio.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondAction writes an action result as {data} or {error}.
func respondAction[T any](w http.ResponseWriter, res portfolio.ActionResult[T]) {
	respondJSON(w, actionStatus(res.Kind), res)
}

// HealthCheck handles the health check endpoint.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}
