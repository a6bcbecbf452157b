package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/portfolio/internal/portfolio"
)

func TestRespondJSON(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondJSON(recorder, http.StatusCreated, map[string]any{"message": "hello", "count": 42})

	assertStatusCode(t, recorder, http.StatusCreated)
	assertContentType(t, recorder, "application/json")

	var result map[string]any
	parseJSONResponse(t, recorder, &result)
	if result["message"] != "hello" {
		t.Errorf("expected message 'hello', got '%v'", result["message"])
	}
	if result["count"] != float64(42) { // JSON numbers are float64
		t.Errorf("expected count 42, got %v", result["count"])
	}
}

func TestRespondJSON_NilData(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondJSON(recorder, http.StatusNoContent, nil)

	assertStatusCode(t, recorder, http.StatusNoContent)
	if recorder.Body.Len() != 0 {
		t.Errorf("expected empty body, got '%s'", recorder.Body.String())
	}
}

func TestRespondError(t *testing.T) {
	recorder := httptest.NewRecorder()
	respondError(recorder, http.StatusBadRequest, "bad input")

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "bad input")
}

func TestRespondAction(t *testing.T) {
	tests := []struct {
		name     string
		result   portfolio.ActionResult[bool]
		status   int
		hasError bool
	}{
		{"ok", portfolio.OK(true), http.StatusOK, false},
		{"unauthorized", portfolio.Fail[bool](portfolio.KindUnauthorized, portfolio.MsgUnauthorized), http.StatusUnauthorized, true},
		{"invalid", portfolio.Fail[bool](portfolio.KindInvalid, "Title is required"), http.StatusBadRequest, true},
		{"not found", portfolio.Fail[bool](portfolio.KindNotFound, portfolio.MsgProjectNotFound), http.StatusNotFound, true},
		{"conflict", portfolio.Fail[bool](portfolio.KindConflict, portfolio.MsgUnknownOrderIDs), http.StatusConflict, true},
		{"internal", portfolio.Fail[bool](portfolio.KindInternal, portfolio.MsgFailed), http.StatusInternalServerError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondAction(recorder, tt.result)

			assertStatusCode(t, recorder, tt.status)

			var body map[string]json.RawMessage
			parseJSONResponse(t, recorder, &body)
			_, gotError := body["error"]
			_, gotData := body["data"]
			if gotError != tt.hasError {
				t.Errorf("expected error key present=%v, body %s", tt.hasError, recorder.Body.String())
			}
			if gotData == tt.hasError {
				t.Errorf("expected data key present=%v, body %s", !tt.hasError, recorder.Body.String())
			}
		})
	}
}

func TestSanitizeForLog(t *testing.T) {
	if got := sanitizeForLog("a\nb\rc"); got != "abc" {
		t.Errorf("expected 'abc', got '%s'", got)
	}
}

func TestHealthCheck(t *testing.T) {
	for _, method := range []string{http.MethodGet, http.MethodHead, http.MethodPost} {
		t.Run(method, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			HealthCheck(recorder, httptest.NewRequest(method, "/api/v1/health", nil))

			assertStatusCode(t, recorder, http.StatusOK)

			var result map[string]string
			parseJSONResponse(t, recorder, &result)
			if result["status"] != "ok" {
				t.Errorf("expected status 'ok', got '%s'", result["status"])
			}
		})
	}
}
