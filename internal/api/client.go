package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"taskboard-cli/internal/model"

	"github.com/google/uuid"
)

// TokenSource supplies the persisted access token for authenticated calls.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, error)
}

type Client struct {
	baseURL string
	tokens  TokenSource
	http    *http.Client
	log     *slog.Logger
}

type Option func(*Client)

// WithTimeout bounds each request. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func NewClient(baseURL string, tokens TokenSource, log *slog.Logger, opts ...Option) *Client {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		tokens:  tokens,
		http:    &http.Client{},
		log:     log,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

// ---- Auth

func (c *Client) Login(ctx context.Context, creds model.Credentials) (model.TokenPair, error) {
	var out model.TokenPair
	err := c.doJSON(ctx, http.MethodPost, "/authen/jwt/create/", false, creds, &out)
	return out, err
}

func (c *Client) Register(ctx context.Context, creds model.Credentials) (model.User, error) {
	var out model.User
	err := c.doJSON(ctx, http.MethodPost, "/api/create/", false, creds, &out)
	return out, err
}

func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	var out model.User
	err := c.doJSON(ctx, http.MethodGet, "/api/loginuser/", true, nil, &out)
	return out, err
}

// ---- Profiles

func (c *Client) Profiles(ctx context.Context) ([]model.Profile, error) {
	var out []model.Profile
	err := c.doJSON(ctx, http.MethodGet, "/api/profile/", true, nil, &out)
	return out, err
}

// CreateProfile creates the caller's profile with no avatar.
func (c *Client) CreateProfile(ctx context.Context) (model.Profile, error) {
	var out model.Profile
	body := map[string]any{"img": nil}
	err := c.doJSON(ctx, http.MethodPost, "/api/profile/", true, body, &out)
	return out, err
}

// UpdateProfile uploads imagePath as the avatar of profile id. An empty path
// sends an empty form.
func (c *Client) UpdateProfile(ctx context.Context, id int, imagePath string) (model.Profile, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if p := strings.TrimSpace(imagePath); p != "" {
		f, err := os.Open(p)
		if err != nil {
			return model.Profile{}, fmt.Errorf("open avatar: %w", err)
		}
		defer f.Close()
		part, err := mw.CreateFormFile("img", filepath.Base(p))
		if err != nil {
			return model.Profile{}, err
		}
		if _, err := io.Copy(part, f); err != nil {
			return model.Profile{}, fmt.Errorf("read avatar: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return model.Profile{}, err
	}

	var out model.Profile
	path := fmt.Sprintf("/api/profile/%d/", id)
	err := c.do(ctx, http.MethodPut, path, true, &buf, mw.FormDataContentType(), &out)
	return out, err
}

// ---- Tasks

func (c *Client) Tasks(ctx context.Context) ([]model.Task, error) {
	var out []model.Task
	err := c.doJSON(ctx, http.MethodGet, "/api/tasks/", true, nil, &out)
	return out, err
}

func (c *Client) CreateTask(ctx context.Context, d model.TaskDraft) (model.Task, error) {
	var out model.Task
	err := c.doJSON(ctx, http.MethodPost, "/api/tasks/", true, d, &out)
	return out, err
}

func (c *Client) UpdateTask(ctx context.Context, d model.TaskDraft) (model.Task, error) {
	if d.ID == 0 {
		return model.Task{}, errors.New("update task: missing id")
	}
	var out model.Task
	err := c.doJSON(ctx, http.MethodPut, fmt.Sprintf("/api/tasks/%d/", d.ID), true, d, &out)
	return out, err
}

func (c *Client) DeleteTask(ctx context.Context, id int) error {
	return c.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%d/", id), true, nil, nil)
}

// ---- Reference data

func (c *Client) Users(ctx context.Context) ([]model.User, error) {
	var out []model.User
	err := c.doJSON(ctx, http.MethodGet, "/api/users/", true, nil, &out)
	return out, err
}

func (c *Client) Categories(ctx context.Context) ([]model.Category, error) {
	var out []model.Category
	err := c.doJSON(ctx, http.MethodGet, "/api/category/", true, nil, &out)
	return out, err
}

func (c *Client) CreateCategory(ctx context.Context, item string) (model.Category, error) {
	var out model.Category
	err := c.doJSON(ctx, http.MethodPost, "/api/category/", true, map[string]string{"item": item}, &out)
	return out, err
}

// ---- Plumbing

func (c *Client) doJSON(ctx context.Context, method, path string, auth bool, in any, out any) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	return c.do(ctx, method, path, auth, body, contentType, out)
}

func (c *Client) do(ctx context.Context, method, path string, auth bool, body io.Reader, contentType string, out any) error {
	op := method + " " + path
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	if auth {
		tok := ""
		if c.tokens != nil {
			tok, err = c.tokens.AccessToken(ctx)
			if err != nil {
				return &TransportError{Op: op, Err: fmt.Errorf("read token: %w", err)}
			}
		}
		// Sent even when empty; the server answers 401 and callers route to login.
		req.Header.Set("Authorization", "JWT "+tok)
	}

	log := c.log.With("op", op, "request_id", reqID)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("request failed", "error", err)
		return &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("read response failed", "status", resp.StatusCode, "error", err)
		return &TransportError{Op: op, Err: err}
	}
	log.Debug("request done", "status", resp.StatusCode, "duration", time.Since(start))

	if err := errorFromResponse(resp.StatusCode, raw); err != nil {
		log.Info("request rejected", "status", resp.StatusCode, "error", err)
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &TransportError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func errorFromResponse(status int, raw []byte) error {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &AuthError{Status: status, Detail: detailFromBody(raw)}
	case status >= 400 && status < 500:
		return &ValidationError{Status: status, Fields: fieldsFromBody(raw)}
	default:
		return &StatusError{Status: status, Body: truncate(strings.TrimSpace(string(raw)), 200)}
	}
}

func detailFromBody(raw []byte) string {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	return body.Detail
}

// fieldsFromBody decodes the usual REST validation shapes:
// {"field": ["msg", ...]}, {"field": "msg"}, ["msg", ...] or plain text.
func fieldsFromBody(raw []byte) map[string][]string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	out := map[string][]string{}

	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err == nil {
		for k, v := range obj {
			out[k] = append(out[k], messages(v)...)
		}
		return out
	}
	var list []any
	if err := json.Unmarshal(raw, &list); err == nil {
		out["non_field_errors"] = messages(list)
		return out
	}
	out["non_field_errors"] = []string{truncate(string(raw), 200)}
	return out
}

func messages(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, e := range t {
			out = append(out, messages(e)...)
		}
		return out
	case nil:
		return nil
	default:
		b, _ := json.Marshal(t)
		return []string{string(b)}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
