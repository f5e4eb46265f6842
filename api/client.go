// Package api is the HTTP client for the FINMAR backend. It speaks the
// backend's JSON dialect under the /api prefix and supports the two credential
// modes the backend accepts: an explicit bearer token, and the ambient session
// cookie established during the OAuth callback handshake.
//
// The base URL is always externally supplied; the package has no default
// backend and will refuse to construct without one.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/finmar/clientshell/errors"
	"google.golang.org/grpc/codes"
)

// Client calls the FINMAR backend. A single client owns one cookie jar, so
// customer cookie sessions survive across calls the same way they do in a
// browser.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option is a functional option for configuring the client.
type Option func(*Client)

// WithTimeout bounds every request. The source this shell descends from had
// no timeout and could hang session verification forever; a bounded wait is a
// deliberate behavior change.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client. The replacement should
// carry a cookie jar if cookie-based auth is needed.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// New returns a client for the backend at baseURL. The /api prefix is
// appended. An empty baseURL is refused: there is no sanctioned default
// backend.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, errors.NewC("api: base url is required and has no default", codes.FailedPrecondition)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, 0)
	}

	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/") + "/api",
		http: &http.Client{
			Jar:     jar,
			Timeout: 15 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Me resolves the customer identity. With a bearer token the token is
// presented in the Authorization header; with an empty token the call relies
// on the ambient session cookie alone.
func (c *Client) Me(ctx context.Context, bearer string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/me", bearer, nil, &user); err != nil {
		return nil, err
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login exchanges an email and password for a bearer token and identity.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var res LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &res); err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		return nil, errors.NewC("malformed login payload: access_token missing", codes.Internal)
	}
	if err := res.User.Validate(); err != nil {
		return nil, err
	}
	return &res, nil
}

// Register creates an account and returns the same shape as Login.
func (c *Client) Register(ctx context.Context, email, password, name, businessName string) (*LoginResult, error) {
	body := map[string]string{
		"email":         email,
		"password":      password,
		"name":          name,
		"business_name": businessName,
	}
	var res LoginResult
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", body, &res); err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		return nil, errors.NewC("malformed register payload: access_token missing", codes.Internal)
	}
	if err := res.User.Validate(); err != nil {
		return nil, err
	}
	return &res, nil
}

// ExchangeSession trades a one-time identity-provider ticket for a durable
// cookie session. The credential this call establishes lives in the cookie
// jar, not in a bearer token.
func (c *Client) ExchangeSession(ctx context.Context, ticket string) (*User, error) {
	if ticket == "" {
		return nil, errors.NewC("session ticket is required", codes.InvalidArgument)
	}
	body := map[string]string{"session_id": ticket}
	var res struct {
		User User `json:"user"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/session", "", body, &res); err != nil {
		return nil, err
	}
	if err := res.User.Validate(); err != nil {
		return nil, err
	}
	return &res.User, nil
}

// Logout invalidates the server-side cookie session. Callers treat failures
// as best-effort.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", "", map[string]string{}, nil)
}

// AdminLogin exchanges admin credentials for a bearer token and identity.
func (c *Client) AdminLogin(ctx context.Context, email, password string) (*AdminLoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var res AdminLoginResult
	if err := c.do(ctx, http.MethodPost, "/admin/login", "", body, &res); err != nil {
		return nil, err
	}
	if res.AccessToken == "" {
		return nil, errors.NewC("malformed admin login payload: access_token missing", codes.Internal)
	}
	if err := res.Admin.Validate(); err != nil {
		return nil, err
	}
	return &res, nil
}

// AdminMe resolves the admin identity. Admin auth is bearer-only; there is no
// cookie fallback.
func (c *Client) AdminMe(ctx context.Context, bearer string) (*Admin, error) {
	if bearer == "" {
		return nil, errors.NewC("admin credential is required", codes.Unauthenticated)
	}
	var admin Admin
	if err := c.do(ctx, http.MethodGet, "/admin/me", bearer, nil, &admin); err != nil {
		return nil, err
	}
	if err := admin.Validate(); err != nil {
		return nil, err
	}
	return &admin, nil
}

func (c *Client) do(ctx context.Context, method, path, bearer string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, 0)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrap(err, 0)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.WrapPrefix(err, "api: "+method+" "+path, 0).WithCode(codes.Unavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.statusError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.WrapPrefix(err, "api: decoding "+path, 0).WithCode(codes.Internal)
	}
	return nil
}

// statusError converts an HTTP error response into a coded error, surfacing
// the backend's `detail` message when present so the UI can display it.
func (c *Client) statusError(resp *http.Response) error {
	var payload struct {
		Detail string `json:"detail"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 8192))
	_ = json.Unmarshal(raw, &payload)

	msg := payload.Detail
	if msg == "" {
		msg = resp.Status
	}

	return errors.NewC(msg, codeForStatus(resp.StatusCode)).
		WithHTTPStatusCode(resp.StatusCode).
		WithPublicMessage(msg)
}

func codeForStatus(status int) codes.Code {
	switch status {
	case http.StatusBadRequest:
		return codes.InvalidArgument
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusNotFound:
		return codes.NotFound
	case http.StatusConflict:
		return codes.AlreadyExists
	case http.StatusTooManyRequests:
		return codes.ResourceExhausted
	case http.StatusGatewayTimeout:
		return codes.DeadlineExceeded
	case http.StatusServiceUnavailable, http.StatusBadGateway:
		return codes.Unavailable
	default:
		return codes.Internal
	}
}
