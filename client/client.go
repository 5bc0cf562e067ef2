// Package client drives the auth endpoints from the browser side: it holds the session cookie,
// caches who the visitor is and routes them the way the pages do.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/shuleapp/shule/core/auth"
	"github.com/shuleapp/shule/core/user"
)

type Status int

const (
	StatusLoading Status = iota
	StatusUnauthenticated
	StatusAuthenticated
)

func (s Status) String() string {
	switch s {
	case StatusLoading:
		return "loading"
	case StatusUnauthenticated:
		return "unauthenticated"
	case StatusAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// APIError is a non 2xx answer of the API.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	return e.Message
}

type Option func(*Client)

// WithHTTPClient replaces the default HTTP client. Its cookie jar is replaced when nil.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

type Client struct {
	baseURL string
	http    *http.Client

	mu      sync.RWMutex
	status  Status
	profile user.Profile
}

func New(baseURL string, opts ...Option) (*Client, error) {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, errors.Wrap(err, "creating cookie jar")
		}
		c.http.Jar = jar
	}
	return c, nil
}

// State returns the cached status and, when authenticated, the user.
func (c *Client) State() (Status, *user.Profile) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.status != StatusAuthenticated {
		return c.status, nil
	}
	profile := c.profile
	return c.status, &profile
}

func (c *Client) setState(status Status, profile user.Profile) {
	c.mu.Lock()
	c.status, c.profile = status, profile
	c.mu.Unlock()
}

// Load resolves the initial state from the session cookie. Only the first call fetches.
func (c *Client) Load(ctx context.Context) error {
	if status, _ := c.State(); status != StatusLoading {
		return nil
	}
	var resp userResponse
	err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", nil, &resp)
	if err != nil {
		c.setState(StatusUnauthenticated, user.Profile{})
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return nil
		}
		return err
	}
	c.setState(StatusAuthenticated, resp.User)
	return nil
}

func (c *Client) Login(ctx context.Context, email, password string) (user.Profile, error) {
	body := map[string]string{"email": email, "password": password}
	return c.authenticate(ctx, "/api/auth/login", body)
}

func (c *Client) Signup(ctx context.Context, nu user.NewUser) (user.Profile, error) {
	return c.authenticate(ctx, "/api/auth/signup", nu)
}

func (c *Client) authenticate(ctx context.Context, path string, body interface{}) (user.Profile, error) {
	var resp userResponse
	if err := c.doJSON(ctx, http.MethodPost, path, body, &resp); err != nil {
		return user.Profile{}, err
	}
	c.setState(StatusAuthenticated, resp.User)
	return resp.User, nil
}

// SignOut always ends the local session, even when the server cannot be reached.
func (c *Client) SignOut(ctx context.Context) error {
	err := c.doJSON(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
	c.setState(StatusUnauthenticated, user.Profile{})
	return err
}

// Route decides, from the cached state, whether a page reserved to required may be shown.
func (c *Client) Route(required user.Role) auth.Decision {
	status, profile := c.State()
	if status == StatusLoading {
		return auth.Decision{Reason: auth.ReasonPending}
	}
	return auth.Evaluate(profile, required)
}

type (
	userResponse struct {
		User user.Profile `json:"user"`
	}

	errorResponse struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
)

func (c *Client) doJSON(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(err, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	resBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrap(err, "read response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp errorResponse
		if err := json.Unmarshal(resBody, &errResp); err != nil || errResp.Error == "" {
			errResp.Error = strings.TrimSpace(string(resBody))
		}
		return &APIError{Status: resp.StatusCode, Message: errResp.Error, Fields: errResp.Fields}
	}

	if out == nil || len(resBody) == 0 {
		return nil
	}
	return errors.Wrap(json.Unmarshal(resBody, out), "parse response")
}
