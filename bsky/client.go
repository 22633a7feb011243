package bsky

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v4"
)

// DefaultHost is the entryway PDS used when BSKY_HOST is not set.
const DefaultHost = "https://bsky.social"

// Access tokens are refreshed when they expire within this margin.
const refreshMargin = time.Minute

const maxErrorBody = 64 * 1024

var errNotAuthenticated = errors.New("bsky: not authenticated")

// APIError is the error body XRPC endpoints return on non-2xx responses.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("bsky: %s: %s (status %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("bsky: %s (status %d)", e.Code, e.StatusCode)
}

// Client talks XRPC to a Bluesky PDS. It holds the session established by
// Login and refreshes it transparently before the access token expires.
// Safe for use from multiple goroutines.
type Client struct {
	Host      string
	HTTP      *http.Client
	UserAgent string

	mu      sync.Mutex
	session Session
	expiry  time.Time
}

func NewClient(host string) *Client {
	if host == "" {
		host = DefaultHost
	}
	return &Client{
		Host:      strings.TrimRight(host, "/"),
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		UserAgent: "bsky-dm-cli",
	}
}

// Login performs the createSession handshake and stores the session.
func (c *Client) Login(ctx context.Context, identifier, password string) (Session, error) {
	body := map[string]string{"identifier": identifier, "password": password}
	var sess Session
	if err := c.post(ctx, "com.atproto.server.createSession", "", body, &sess); err != nil {
		return Session{}, fmt.Errorf("create session: %w", err)
	}
	c.mu.Lock()
	c.session = sess
	c.expiry = tokenExpiry(sess.AccessJwt)
	c.mu.Unlock()
	return sess, nil
}

// Session returns a copy of the current session.
func (c *Client) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// accessToken returns a usable access token, running the refreshSession
// exchange when the current one is about to expire. The lock is held across
// the exchange so concurrent callers never race to refresh.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.AccessJwt == "" {
		return "", errNotAuthenticated
	}
	if c.expiry.IsZero() || time.Until(c.expiry) > refreshMargin {
		return c.session.AccessJwt, nil
	}
	var refreshed Session
	if err := c.post(ctx, "com.atproto.server.refreshSession", c.session.RefreshJwt, nil, &refreshed); err != nil {
		return "", fmt.Errorf("refresh session: %w", err)
	}
	c.session = refreshed
	c.expiry = tokenExpiry(refreshed.AccessJwt)
	return c.session.AccessJwt, nil
}

func tokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil || claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func (c *Client) newRequest(ctx context.Context, method, nsid string, params url.Values, body any) (*http.Request, error) {
	u := c.Host + "/xrpc/" + nsid
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	var rd io.Reader
	if body != nil {
		raw, err := sonic.Marshal(body)
		if err != nil {
			return nil, err
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: "UnknownError"}
		if raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody)); readErr == nil && len(raw) > 0 {
			_ = sonic.Unmarshal(raw, apiErr)
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	return sonic.ConfigStd.NewDecoder(resp.Body).Decode(out)
}

// post issues an unauthenticated or explicitly-tokened procedure call.
// Session management uses it directly; everything else goes through the
// authed variants.
func (c *Client) post(ctx context.Context, nsid, token string, body, out any) error {
	req, err := c.newRequest(ctx, http.MethodPost, nsid, nil, body)
	if err != nil {
		return err
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.send(req, out)
}

func (c *Client) getAuthed(ctx context.Context, nsid string, params url.Values, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodGet, nsid, params, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return c.send(req, out)
}

func (c *Client) postAuthed(ctx context.Context, nsid string, body, out any) error {
	token, err := c.accessToken(ctx)
	if err != nil {
		return err
	}
	return c.post(ctx, nsid, token, body, out)
}

// ResolveHandle resolves a handle (or passes a DID through unchanged).
func (c *Client) ResolveHandle(ctx context.Context, handle string) (string, error) {
	if strings.HasPrefix(handle, "did:") {
		return handle, nil
	}
	handle = strings.TrimPrefix(handle, "@")
	var resp struct {
		DID string `json:"did"`
	}
	params := url.Values{"handle": {handle}}
	if err := c.getAuthed(ctx, "com.atproto.identity.resolveHandle", params, &resp); err != nil {
		return "", fmt.Errorf("resolve handle %q: %w", handle, err)
	}
	return resp.DID, nil
}
