// Package client talks to the portfolio admin API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/kozaktomas/portfolio/internal/database"
	"github.com/kozaktomas/portfolio/internal/github"
	"github.com/kozaktomas/portfolio/internal/portfolio"
)

// ErrNotLoggedIn is returned when a mutation is attempted without a session.
var ErrNotLoggedIn = errors.New("not logged in")

// Client is an admin API client authenticated with a bearer session id
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithToken sets the session id sent as a bearer token
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New creates a client for the server at rawURL (scheme and host, no /api/v1)
func New(rawURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimRight(rawURL, "/") + "/api/v1")
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q", rawURL)
	}
	c := &Client{
		baseURL:    parsed,
		httpClient: &http.Client{Timeout: 2 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Token returns the current session id
func (c *Client) Token() string {
	return c.token
}

// resolveURL joins path segments onto the API base. A query string on the
// last segment is kept.
func (c *Client) resolveURL(pathSegments ...string) string {
	if len(pathSegments) == 0 {
		return c.baseURL.String()
	}
	last := pathSegments[len(pathSegments)-1]
	if pathPart, query, ok := strings.Cut(last, "?"); ok {
		pathSegments[len(pathSegments)-1] = pathPart
		result := c.baseURL.JoinPath(pathSegments...)
		result.RawQuery = query
		return result.String()
	}
	return c.baseURL.JoinPath(pathSegments...).String()
}

// readErrorBody reads the response body for error messages.
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return "(could not read error body)"
	}
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		return payload.Error
	}
	return strings.TrimSpace(string(body))
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.resolveURL(endpoint), body)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doRequestJSON sends an optional JSON body and decodes a 200 response into T.
func doRequestJSON[T any](ctx context.Context, c *Client, method, endpoint string, requestBody any) (*T, error) {
	var bodyReader io.Reader
	contentType := ""
	if requestBody != nil {
		jsonBody, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("could not marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, method, endpoint, bodyReader, contentType)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var result T
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}
	return &result, nil
}

// kindForStatus recovers the failure kind from an action response status.
func kindForStatus(status int) portfolio.ErrorKind {
	switch status {
	case http.StatusOK:
		return portfolio.KindNone
	case http.StatusUnauthorized:
		return portfolio.KindUnauthorized
	case http.StatusBadRequest, http.StatusRequestEntityTooLarge:
		return portfolio.KindInvalid
	case http.StatusNotFound:
		return portfolio.KindNotFound
	case http.StatusConflict:
		return portfolio.KindConflict
	default:
		return portfolio.KindInternal
	}
}

// doAction sends a request to an action endpoint. Transport and decoding
// failures become failed results; it never returns an error.
func (c *Client) doAction(req *http.Request, err error) portfolio.ActionResult[bool] {
	if err != nil {
		return portfolio.Fail[bool](portfolio.KindInternal, err.Error())
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return portfolio.Fail[bool](portfolio.KindInternal, fmt.Sprintf("could not send request: %v", err))
	}
	defer resp.Body.Close()

	var result portfolio.ActionResult[bool]
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err := json.Unmarshal(body, &result); err != nil {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return portfolio.Fail[bool](kindForStatus(resp.StatusCode), msg)
	}

	if result.Error == "" && resp.StatusCode != http.StatusOK {
		result.Error = http.StatusText(resp.StatusCode)
	}
	if result.Error != "" {
		result.Kind = kindForStatus(resp.StatusCode)
		if result.Kind == portfolio.KindNone {
			result.Kind = portfolio.KindInternal
		}
	}
	return result
}

func (c *Client) jsonAction(ctx context.Context, method, endpoint string, payload any) portfolio.ActionResult[bool] {
	if c.token == "" {
		return portfolio.Fail[bool](portfolio.KindUnauthorized, portfolio.MsgUnauthorized)
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return portfolio.Fail[bool](portfolio.KindInternal, fmt.Sprintf("could not marshal request body: %v", err))
	}
	return c.doAction(c.newRequest(ctx, method, endpoint, bytes.NewReader(body), "application/json"))
}

type loginResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id"`
	ExpiresAt string `json:"expires_at"`
	Error     string `json:"error"`
}

// Login exchanges admin credentials for a session and keeps its id.
func (c *Client) Login(ctx context.Context, email, password string) (time.Time, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return time.Time{}, fmt.Errorf("could not marshal input: %w", err)
	}

	req, err := c.newRequest(ctx, http.MethodPost, "auth/login", bytes.NewReader(body), "application/json")
	if err != nil {
		return time.Time{}, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return time.Time{}, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return time.Time{}, fmt.Errorf("login failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var result loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return time.Time{}, fmt.Errorf("could not unmarshal response: %w", err)
	}
	if !result.Success || result.SessionID == "" {
		return time.Time{}, fmt.Errorf("login failed: %s", result.Error)
	}

	c.token = result.SessionID
	expires, _ := time.Parse(time.RFC3339, result.ExpiresAt)
	return expires, nil
}

// Logout ends the current session
func (c *Client) Logout(ctx context.Context) error {
	if c.token == "" {
		return nil // Already logged out
	}
	if _, err := doRequestJSON[map[string]bool](ctx, c, http.MethodPost, "auth/logout", nil); err != nil {
		return err
	}
	c.token = ""
	return nil
}

// ListProjects returns projects in display order
func (c *Client) ListProjects(ctx context.Context) ([]database.Project, error) {
	projects, err := doRequestJSON[[]database.Project](ctx, c, http.MethodGet, "projects", nil)
	if err != nil {
		return nil, err
	}
	return *projects, nil
}

// GitHubStats returns repository stats, or nil when GitHub has none.
func (c *Client) GitHubStats(ctx context.Context, repoURL string) (*github.Stats, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "github/stats?url="+url.QueryEscape(repoURL), nil, "")
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusBadRequest:
		return nil, nil
	default:
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	var stats github.Stats
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}
	return &stats, nil
}

// DeleteProjects removes projects by id
func (c *Client) DeleteProjects(ctx context.Context, ids []string) portfolio.ActionResult[bool] {
	return c.jsonAction(ctx, http.MethodDelete, "projects", map[string][]string{"ids": ids})
}

// UpdateProjectOrder persists the full display order
func (c *Client) UpdateProjectOrder(ctx context.Context, orderedIDs []string) portfolio.ActionResult[bool] {
	return c.jsonAction(ctx, http.MethodPut, "projects/order", map[string][]string{"ordered_ids": orderedIDs})
}

// CreateProject submits a new project as a multipart form
func (c *Client) CreateProject(ctx context.Context, in portfolio.ProjectInput) portfolio.ActionResult[bool] {
	return c.formAction(ctx, http.MethodPost, "projects", in)
}

// UpdateProject submits changes to project in.ID
func (c *Client) UpdateProject(ctx context.Context, in portfolio.ProjectInput) portfolio.ActionResult[bool] {
	if strings.TrimSpace(in.ID) == "" {
		return portfolio.Fail[bool](portfolio.KindInvalid, portfolio.MsgMissingProjectID)
	}
	return c.formAction(ctx, http.MethodPut, "projects/"+url.PathEscape(in.ID), in)
}

func (c *Client) formAction(ctx context.Context, method, endpoint string, in portfolio.ProjectInput) portfolio.ActionResult[bool] {
	if c.token == "" {
		return portfolio.Fail[bool](portfolio.KindUnauthorized, portfolio.MsgUnauthorized)
	}
	body, contentType, err := encodeProjectForm(in)
	if err != nil {
		return portfolio.Fail[bool](portfolio.KindInternal, err.Error())
	}
	return c.doAction(c.newRequest(ctx, method, endpoint, body, contentType))
}

// encodeProjectForm writes the fields ParseProjectForm reads.
func encodeProjectForm(in portfolio.ProjectInput) (io.Reader, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := []struct{ key, value string }{
		{"id", in.ID},
		{"title", in.Title},
		{"short_description", in.ShortDescription},
		{"description", in.Description},
		{"repo_url", in.RepoURL},
		{"demo_url", in.DemoURL},
		{"tags", strings.Join(in.Tags, ",")},
		{"current_image_url", in.CurrentImageURL},
	}
	for _, f := range fields {
		if err := writer.WriteField(f.key, f.value); err != nil {
			return nil, "", fmt.Errorf("could not write field %s: %w", f.key, err)
		}
	}

	if in.Image != nil && in.Image.Size() > 0 {
		if err := addImagePart(writer, in); err != nil {
			return nil, "", err
		}
	}

	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("could not close writer: %w", err)
	}
	return &body, writer.FormDataContentType(), nil
}

func addImagePart(writer *multipart.Writer, in portfolio.ProjectInput) error {
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", multipartFileDisposition("image", in.Image.Name))
	h.Set("Content-Type", in.Image.Type)
	part, err := writer.CreatePart(h)
	if err != nil {
		return fmt.Errorf("could not create form file: %w", err)
	}

	rc, err := in.Image.Open()
	if err != nil {
		return fmt.Errorf("could not open image: %w", err)
	}
	defer rc.Close()

	if _, err := io.Copy(part, rc); err != nil {
		return fmt.Errorf("could not copy image data: %w", err)
	}
	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func multipartFileDisposition(field, filename string) string {
	return fmt.Sprintf(`form-data; name="%s"; filename="%s"`, quoteEscaper.Replace(field), quoteEscaper.Replace(filename))
}
