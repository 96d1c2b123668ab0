package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/calckeeper/internal/common"
)

type HTTPClient struct {
	baseURL string
	http    *http.Client

	mu           sync.Mutex
	accessToken  string
	refreshToken string
	onRefresh    func(*Tokens)
}

var _ API = (*HTTPClient)(nil)

func NewHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) SetTokens(access, refresh string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = access
	c.refreshToken = refresh
}

func (c *HTTPClient) OnRefresh(fn func(*Tokens)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onRefresh = fn
}

func (c *HTTPClient) tokens() (string, string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.accessToken, c.refreshToken
}

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	auth   bool
}

func (c *HTTPClient) send(ctx context.Context, r request, payload []byte) (*http.Response, error) {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.auth {
		access, _ := c.tokens()
		if access == "" {
			return nil, ErrNotLoggedIn
		}
		req.Header.Set(common.AuthorizationHeader, common.BearerScheme+" "+access)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return resp, nil
}

// call performs r and decodes a 2xx body into out (when non-nil). A 401 on
// an authenticated call triggers one refresh and one retry.
func (c *HTTPClient) call(ctx context.Context, r request, out any) error {
	var payload []byte
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return err
		}
		payload = b
	}

	resp, err := c.send(ctx, r, payload)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && r.auth {
		if _, refresh := c.tokens(); refresh != "" {
			drain(resp)
			if err := c.refresh(ctx, refresh); err != nil {
				return err
			}
			resp, err = c.send(ctx, r, payload)
			if err != nil {
				return err
			}
		}
	}

	return decode(resp, out)
}

func (c *HTTPClient) refresh(ctx context.Context, refreshToken string) error {
	resp, err := c.send(ctx, request{
		method: http.MethodPost,
		path:   "/users/refresh",
	}, mustJSON(map[string]string{"refresh_token": refreshToken}))
	if err != nil {
		return err
	}

	var t Tokens
	if err := decode(resp, &t); err != nil {
		return err
	}

	c.mu.Lock()
	c.accessToken = t.AccessToken
	c.refreshToken = t.RefreshToken
	fn := c.onRefresh
	c.mu.Unlock()

	if fn != nil {
		fn(&t)
	}
	return nil
}

func decode(resp *http.Response, out any) error {
	defer drain(resp)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Detail string            `json:"detail"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Detail = body.Detail
		apiErr.Fields = body.Fields
	}
	if apiErr.Detail == "" {
		apiErr.Detail = strings.ToLower(http.StatusText(resp.StatusCode))
	}
	return apiErr
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func (c *HTTPClient) Health(ctx context.Context) error {
	return c.call(ctx, request{method: http.MethodGet, path: "/health"}, nil)
}

func (c *HTTPClient) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var u User
	err := c.call(ctx, request{method: http.MethodPost, path: "/users/register", body: req}, &u)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Login authenticates with a username or email and keeps the returned pair
// for subsequent calls.
func (c *HTTPClient) Login(ctx context.Context, username, password string) (*Tokens, error) {
	var t Tokens
	err := c.call(ctx, request{
		method: http.MethodPost,
		path:   "/users/login",
		body:   map[string]string{"username": username, "password": password},
	}, &t)
	if err != nil {
		return nil, err
	}
	c.SetTokens(t.AccessToken, t.RefreshToken)
	return &t, nil
}

// Logout revokes both tokens server-side and forgets them locally.
func (c *HTTPClient) Logout(ctx context.Context) error {
	_, refresh := c.tokens()
	err := c.call(ctx, request{
		method: http.MethodPost,
		path:   "/users/logout",
		body:   map[string]string{"refresh_token": refresh},
		auth:   true,
	}, nil)
	c.SetTokens("", "")
	return err
}

func (c *HTTPClient) Me(ctx context.Context) (*User, error) {
	var u User
	if err := c.call(ctx, request{method: http.MethodGet, path: "/users/me", auth: true}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *HTTPClient) AddCalculation(ctx context.Context, typ string, inputs []float64) (*Calculation, error) {
	var calc Calculation
	err := c.call(ctx, request{
		method: http.MethodPost,
		path:   "/calculations",
		body:   map[string]any{"type": typ, "inputs": inputs},
		auth:   true,
	}, &calc)
	if err != nil {
		return nil, err
	}
	return &calc, nil
}

func (c *HTTPClient) ListCalculations(ctx context.Context, q ListQuery) ([]Calculation, error) {
	query := url.Values{}
	if q.Type != "" {
		query.Set("type", q.Type)
	}
	if q.Limit > 0 {
		query.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		query.Set("offset", strconv.Itoa(q.Offset))
	}

	out := []Calculation{}
	err := c.call(ctx, request{method: http.MethodGet, path: "/calculations", query: query, auth: true}, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *HTTPClient) GetCalculation(ctx context.Context, id string) (*Calculation, error) {
	var calc Calculation
	err := c.call(ctx, request{method: http.MethodGet, path: "/calculations/" + url.PathEscape(id), auth: true}, &calc)
	if err != nil {
		return nil, err
	}
	return &calc, nil
}

func (c *HTTPClient) UpdateCalculation(ctx context.Context, id string, upd CalculationUpdate) (*Calculation, error) {
	var calc Calculation
	err := c.call(ctx, request{
		method: http.MethodPut,
		path:   "/calculations/" + url.PathEscape(id),
		body:   upd,
		auth:   true,
	}, &calc)
	if err != nil {
		return nil, err
	}
	return &calc, nil
}

func (c *HTTPClient) DeleteCalculation(ctx context.Context, id string) error {
	return c.call(ctx, request{method: http.MethodDelete, path: "/calculations/" + url.PathEscape(id), auth: true}, nil)
}

// ClearCalculations deletes all of the caller's calculations and reports
// how many were removed.
func (c *HTTPClient) ClearCalculations(ctx context.Context) (int64, error) {
	var out struct {
		Deleted int64 `json:"deleted"`
	}
	if err := c.call(ctx, request{method: http.MethodDelete, path: "/calculations", auth: true}, &out); err != nil {
		return 0, err
	}
	return out.Deleted, nil
}

func (c *HTTPClient) Summary(ctx context.Context) (*Summary, error) {
	var s Summary
	if err := c.call(ctx, request{method: http.MethodGet, path: "/calculations/summary", auth: true}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) Export(ctx context.Context) (*Export, error) {
	var e Export
	if err := c.call(ctx, request{method: http.MethodPost, path: "/calculations/export", auth: true}, &e); err != nil {
		return nil, err
	}
	return &e, nil
}

// IsUnavailable reports whether err means the server could not be reached.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
