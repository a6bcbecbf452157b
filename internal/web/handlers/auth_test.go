package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/portfolio/internal/web/middleware"
)

func newAuthHandler(t *testing.T) (*AuthHandler, *middleware.SessionManager) {
	t.Helper()
	sm := middleware.NewSessionManager("test-secret", nil)
	t.Cleanup(sm.Stop)
	return NewAuthHandler(testConfig(t), sm), sm
}

func login(handler *AuthHandler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	handler.Login(recorder, req)
	return recorder
}

func TestAuthHandler_Login_Success(t *testing.T) {
	handler, sm := newAuthHandler(t)

	recorder := login(handler, `{"email": "Admin@Example.com", "password": "correct horse"}`)

	assertStatusCode(t, recorder, http.StatusOK)
	assertContentType(t, recorder, "application/json")

	var response LoginResponse
	parseJSONResponse(t, recorder, &response)
	if !response.Success {
		t.Error("expected success to be true")
	}
	if response.SessionID == "" {
		t.Fatal("expected session_id to be set")
	}
	if response.ExpiresAt == "" {
		t.Error("expected expires_at to be set")
	}

	session := sm.GetSession(response.SessionID)
	if session == nil || session.Subject != testAdminEmail {
		t.Errorf("expected session for %s, got %+v", testAdminEmail, session)
	}

	cookies := recorder.Result().Cookies()
	if len(cookies) != 1 || !cookies[0].HttpOnly {
		t.Errorf("expected one HttpOnly session cookie, got %+v", cookies)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"wrong password", `{"email": "admin@example.com", "password": "nope"}`},
		{"wrong email", `{"email": "other@example.com", "password": "correct horse"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newAuthHandler(t)
			recorder := login(handler, tt.body)

			assertStatusCode(t, recorder, http.StatusUnauthorized)

			var response LoginResponse
			parseJSONResponse(t, recorder, &response)
			if response.Success || response.SessionID != "" {
				t.Errorf("expected failed login, got %+v", response)
			}
			if len(recorder.Result().Cookies()) != 0 {
				t.Error("expected no session cookie")
			}
		})
	}
}

func TestAuthHandler_Login_MissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing email", `{"email": "", "password": "testpass"}`},
		{"missing password", `{"email": "admin@example.com", "password": ""}`},
		{"missing both", `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _ := newAuthHandler(t)
			recorder := login(handler, tt.body)

			assertStatusCode(t, recorder, http.StatusBadRequest)
			assertJSONError(t, recorder, "email and password are required")
		})
	}
}

func TestAuthHandler_Login_InvalidJSON(t *testing.T) {
	handler, _ := newAuthHandler(t)
	recorder := login(handler, `{invalid json}`)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, errInvalidRequestBody)
}

func TestAuthHandler_Login_NotConfigured(t *testing.T) {
	handler, _ := newAuthHandler(t)
	handler.config.Admin.PasswordHash = ""

	recorder := login(handler, `{"email": "admin@example.com", "password": "correct horse"}`)

	assertStatusCode(t, recorder, http.StatusServiceUnavailable)
}

func TestAuthHandler_Logout(t *testing.T) {
	handler, sm := newAuthHandler(t)
	session, err := sm.CreateSession(testAdminEmail)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer "+session.ID)
	recorder := httptest.NewRecorder()

	handler.Logout(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)
	if sm.GetSession(session.ID) != nil {
		t.Error("expected session to be deleted")
	}

	cookies := recorder.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected cleared cookie, got %+v", cookies)
	}
}

func TestAuthHandler_Logout_NoSession(t *testing.T) {
	handler, _ := newAuthHandler(t)
	recorder := httptest.NewRecorder()

	handler.Logout(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil))

	assertStatusCode(t, recorder, http.StatusOK)
}

func TestAuthHandler_Status(t *testing.T) {
	handler, sm := newAuthHandler(t)
	session, err := sm.CreateSession(testAdminEmail)
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}

	t.Run("authenticated", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/status", nil)
		req.Header.Set("Authorization", "Bearer "+session.ID)
		recorder := httptest.NewRecorder()

		handler.Status(recorder, req)

		var response StatusResponse
		parseJSONResponse(t, recorder, &response)
		if !response.Authenticated || response.Subject != testAdminEmail || response.ExpiresAt == "" {
			t.Errorf("unexpected status %+v", response)
		}
	})

	t.Run("anonymous", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		handler.Status(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/auth/status", nil))

		assertStatusCode(t, recorder, http.StatusOK)
		var response StatusResponse
		parseJSONResponse(t, recorder, &response)
		if response.Authenticated {
			t.Error("expected authenticated to be false")
		}
	})
}
