// Package api is the HTTP client for the finance backend. One method per
// backend resource, no retries: every failure surfaces to the caller.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ledgerbot/ledgerbot-go/internal/model"
)

const requestTimeout = 30 * time.Second

// Client issues authenticated requests against the backend. A zero token
// means unauthenticated (login and 2FA verification only).
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// New creates an unauthenticated client.
func New(baseURL string) *Client {
	return NewWithToken(baseURL, "")
}

// NewWithToken creates a client bound to a bearer token.
func NewWithToken(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// envelope is the {"data": ...} wrapper every backend response uses.
type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error string          `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(buf)
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) send(req *http.Request, out any) error {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &ConnectionError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return ErrAuthExpired
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &ConnectionError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &Error{Status: resp.StatusCode}
		var env envelope
		if json.Unmarshal(raw, &env) == nil {
			apiErr.Message = env.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return json.Unmarshal(env.Data, out)
}

// Login authenticates with username and password. The result either carries
// a token and user, or signals that a 2FA step is required.
func (c *Client) Login(ctx context.Context, username, password string) (model.LoginResult, error) {
	var res model.LoginResult
	err := c.do(ctx, http.MethodPost, "/auth/login", nil, model.LoginRequest{
		Username: username,
		Password: password,
	}, &res)
	return res, err
}

// VerifyTwoFactor exchanges a pending user id and a 6-digit code for a token.
func (c *Client) VerifyTwoFactor(ctx context.Context, pendingUserID int64, code string) (model.LoginResult, error) {
	var res model.LoginResult
	err := c.do(ctx, http.MethodPost, "/auth/verify-2fa", nil, model.VerifyTwoFactorRequest{
		UserID: pendingUserID,
		Code:   code,
	}, &res)
	return res, err
}

// Logout invalidates the token server-side. Best-effort for callers.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}

func (c *Client) ListAccounts(ctx context.Context) ([]model.Account, error) {
	var out struct {
		Accounts []model.Account `json:"accounts"`
	}
	err := c.do(ctx, http.MethodGet, "/accounts", nil, nil, &out)
	return out.Accounts, err
}

func (c *Client) GetAccount(ctx context.Context, id int64) (model.Account, error) {
	var out struct {
		Account model.Account `json:"account"`
	}
	err := c.do(ctx, http.MethodGet, "/accounts/"+strconv.FormatInt(id, 10), nil, nil, &out)
	return out.Account, err
}

func (c *Client) AccountsSummary(ctx context.Context) (model.AccountsSummary, error) {
	var out struct {
		Summary model.AccountsSummary `json:"summary"`
	}
	err := c.do(ctx, http.MethodGet, "/accounts/summary", nil, nil, &out)
	return out.Summary, err
}

// ListMovements returns up to limit movements, newest first. Additional
// filters are passed through as query parameters.
func (c *Client) ListMovements(ctx context.Context, limit int, filters map[string]string) ([]model.Movement, error) {
	query := url.Values{"limit": {strconv.Itoa(limit)}}
	for k, v := range filters {
		query.Set(k, v)
	}
	var out struct {
		Movements []model.Movement `json:"movements"`
	}
	err := c.do(ctx, http.MethodGet, "/movements", query, nil, &out)
	return out.Movements, err
}

func (c *Client) GetMovement(ctx context.Context, id int64) (model.Movement, error) {
	var out struct {
		Movement model.Movement `json:"movement"`
	}
	err := c.do(ctx, http.MethodGet, "/movements/"+strconv.FormatInt(id, 10), nil, nil, &out)
	return out.Movement, err
}

// CreateMovement creates a movement. When attachmentPath is non-empty the
// file is sent in the same request as multipart/form-data; otherwise the
// body is plain JSON.
func (c *Client) CreateMovement(ctx context.Context, req model.MovementRequest, attachmentPath string) (model.Movement, error) {
	return c.sendMovement(ctx, http.MethodPost, "/movements", req, attachmentPath)
}

// UpdateMovement updates an existing movement, same shape as creation.
func (c *Client) UpdateMovement(ctx context.Context, id int64, req model.MovementRequest, attachmentPath string) (model.Movement, error) {
	return c.sendMovement(ctx, http.MethodPut, "/movements/"+strconv.FormatInt(id, 10), req, attachmentPath)
}

func (c *Client) sendMovement(ctx context.Context, method, path string, req model.MovementRequest, attachmentPath string) (model.Movement, error) {
	var out struct {
		Movement model.Movement `json:"movement"`
	}

	if attachmentPath == "" {
		err := c.do(ctx, method, path, nil, req, &out)
		return out.Movement, err
	}

	body, contentType, err := movementForm(req, attachmentPath)
	if err != nil {
		return model.Movement{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return model.Movement{}, err
	}
	httpReq.Header.Set("Content-Type", contentType)

	err = c.send(httpReq, &out)
	return out.Movement, err
}

// movementForm encodes a movement plus its attachment as multipart/form-data.
func movementForm(req model.MovementRequest, attachmentPath string) (io.Reader, string, error) {
	f, err := os.Open(attachmentPath)
	if err != nil {
		return nil, "", err
	}
	defer f.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	fields := map[string]string{
		"type":       req.Type,
		"account_id": strconv.FormatInt(req.AccountID, 10),
		"amount":     req.Amount.String(),
		"notes":      req.Notes,
		"date":       req.Date,
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}

	part, err := w.CreateFormFile("attachment", filepath.Base(attachmentPath))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return &buf, w.FormDataContentType(), nil
}

func (c *Client) DeleteMovement(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, "/movements/"+strconv.FormatInt(id, 10), nil, nil, nil)
}

// MovementStats aggregates movements matching the given filters.
func (c *Client) MovementStats(ctx context.Context, filters map[string]string) (model.MovementStats, error) {
	query := url.Values{}
	for k, v := range filters {
		query.Set(k, v)
	}
	var out struct {
		Stats model.MovementStats `json:"stats"`
	}
	err := c.do(ctx, http.MethodGet, "/movements/stats", query, nil, &out)
	return out.Stats, err
}

func (c *Client) ListTags(ctx context.Context) ([]model.Tag, error) {
	var out struct {
		Tags []model.Tag `json:"tags"`
	}
	err := c.do(ctx, http.MethodGet, "/tags", nil, nil, &out)
	return out.Tags, err
}
