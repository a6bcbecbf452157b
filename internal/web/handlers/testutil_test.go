package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/portfolio/internal/config"
	"github.com/kozaktomas/portfolio/internal/database"
	"github.com/kozaktomas/portfolio/internal/database/mock"
	"github.com/kozaktomas/portfolio/internal/portfolio"
	"github.com/kozaktomas/portfolio/internal/web/middleware"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAdminEmail    = "admin@example.com"
	testAdminPassword = "correct horse"
	testMaxImageBytes = 500_000
)

// testConfig creates a minimal config for testing
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testAdminPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	return &config.Config{
		Admin: config.AdminConfig{
			Email:        testAdminEmail,
			PasswordHash: string(hash),
		},
	}
}

// fakeObjectStore records uploads and returns a URL under /uploads
type fakeObjectStore struct {
	mu      sync.Mutex
	uploads map[string][]byte
	err     error
}

func (f *fakeObjectStore) Upload(ctx context.Context, name string, data []byte, contentType string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	if f.uploads == nil {
		f.uploads = make(map[string][]byte)
	}
	f.uploads[name] = data
	return "https://cdn.example.com/uploads/" + name, nil
}

// newTestService wires a project service to an in-memory store
func newTestService(store *mock.MockProjectStore, objects *fakeObjectStore) *portfolio.Service {
	clock := func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }
	return portfolio.NewService(store, objects, testMaxImageBytes, portfolio.WithClock(clock))
}

// seedProjects adds three projects with ids a, b, c in that order
func seedProjects(store *mock.MockProjectStore) {
	created := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		store.AddProject(database.Project{
			ID:        id,
			Title:     "Project " + id,
			CreatedAt: created,
			SortOrder: i + 1,
			Tags:      []string{"go"},
		})
	}
}

// withUser attaches an admin session to the request context
func withUser(r *http.Request) *http.Request {
	session := &middleware.Session{ID: "test-session", Subject: testAdminEmail}
	return r.WithContext(middleware.SetSessionInContext(r.Context(), session))
}

// requestWithChiParams creates a request with chi URL parameters
func requestWithChiParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for key, value := range params {
		rctx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// multipartFile is a file part of a test form
type multipartFile struct {
	field       string
	name        string
	contentType string
	data        []byte
}

// multipartRequest builds a multipart/form-data request
func multipartRequest(t *testing.T, method, path string, fields map[string]string, files ...multipartFile) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("failed to write field: %v", err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+f.field+`"; filename="`+f.name+`"`)
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("failed to create part: %v", err)
		}
		part.Write(f.data)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertContentType checks if the response has the expected content type
func assertContentType(t *testing.T, recorder *httptest.ResponseRecorder, expected string) {
	t.Helper()
	ct := recorder.Header().Get("Content-Type")
	if ct != expected {
		t.Errorf("expected Content-Type '%s', got '%s'", expected, ct)
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]any
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%v'", expectedMessage, result["error"])
	}
}
