package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	userPrefix = "/service/user"
	todoPrefix = "/service/todo"

	defaultTimeout = 15 * time.Second
)

// ErrSignedOut is returned by calls that need a token when the session has
// none.
var ErrSignedOut = errors.New("client: not signed in")

// Client talks to the todolist API. It attaches the session token as a
// bearer credential and keeps the refresh cookie in its own jar.
type Client struct {
	baseURL string
	http    *http.Client
	session *Session
	newKey  func() string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. A cookie jar is added
// when it has none.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithIdempotencyKeys sends a generated Idempotency-Key on every create call.
func WithIdempotencyKeys() Option {
	return func(c *Client) {
		c.newKey = func() string { return uuid.NewString() }
	}
}

// New builds a client for baseURL over session.
func New(baseURL string, session *Session, opts ...Option) (*Client, error) {
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("client: invalid base url: %w", err)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		session: session,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http.Jar == nil {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, err
		}
		c.http.Jar = jar
	}
	return c, nil
}

// Session returns the session the client reads its token from.
func (c *Client) Session() *Session {
	return c.session
}

type messageBody struct {
	Message string `json:"message"`
}

// SignUp registers an account and returns the server message.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (string, error) {
	var out messageBody
	err := c.do(ctx, http.MethodPost, userPrefix+"/signup", req, &out, false, "")
	return out.Message, err
}

// VerifyOTP confirms email with code.
func (c *Client) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	var out messageBody
	err := c.do(ctx, http.MethodPost, userPrefix+"/verify-otp", map[string]string{"email": email, "otp": code}, &out, false, "")
	return out.Message, err
}

// ResendOTP asks for a fresh code.
func (c *Client) ResendOTP(ctx context.Context, email string) (string, error) {
	var out messageBody
	err := c.do(ctx, http.MethodPost, userPrefix+"/resend-otp", map[string]string{"email": email}, &out, false, "")
	return out.Message, err
}

// SignIn authenticates and saves the resulting snapshot in the session.
// On a verification or expiry failure the returned *APIError carries the
// flags; see NeedsVerification and RegistrationExpired.
func (c *Client) SignIn(ctx context.Context, email, password string) (Snapshot, error) {
	var out struct {
		Message string      `json:"message"`
		Token   string      `json:"token"`
		User    UserSummary `json:"user"`
	}
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, userPrefix+"/signin", body, &out, false, ""); err != nil {
		return Snapshot{}, err
	}
	snap := Snapshot{Token: out.Token, User: out.User}
	if err := c.session.Save(snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

// SignOut clears the session. Tokens stay valid on the server until expiry.
func (c *Client) SignOut() error {
	return c.session.Clear()
}

// Refresh exchanges the refresh cookie for a new access token and stores it.
func (c *Client) Refresh(ctx context.Context) (string, error) {
	var out struct {
		Token string `json:"token"`
	}
	if err := c.do(ctx, http.MethodPost, userPrefix+"/refresh_token", nil, &out, false, ""); err != nil {
		return "", err
	}
	if err := c.session.setToken(out.Token); err != nil {
		return "", err
	}
	return out.Token, nil
}

// UserInfo returns the signed-in account.
func (c *Client) UserInfo(ctx context.Context) (User, error) {
	var out User
	err := c.do(ctx, http.MethodGet, userPrefix+"/user-infor", nil, &out, true, "")
	return out, err
}

// ListUsers returns every account. Admin only.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	err := c.do(ctx, http.MethodGet, userPrefix+"/all-users", nil, &out, true, "")
	return out, err
}

// AddUser creates a verified account. Admin only.
func (c *Client) AddUser(ctx context.Context, req NewUserRequest) (UserSummary, error) {
	var out struct {
		User UserSummary `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, userPrefix+"/add-user", req, &out, true, c.idempotencyKey())
	return out.User, err
}

// UpdateUser patches account id. Admin only.
func (c *Client) UpdateUser(ctx context.Context, id string, patch UserPatch) (User, error) {
	var out struct {
		User User `json:"user"`
	}
	err := c.do(ctx, http.MethodPatch, userPrefix+"/update-user/"+url.PathEscape(id), patch, &out, true, "")
	return out.User, err
}

// DeleteUser removes account id. Admin only.
func (c *Client) DeleteUser(ctx context.Context, id string) (string, error) {
	var out messageBody
	err := c.do(ctx, http.MethodDelete, userPrefix+"/delete-user/"+url.PathEscape(id), nil, &out, true, "")
	return out.Message, err
}

// Todos lists the caller's todos.
func (c *Client) Todos(ctx context.Context) ([]Todo, error) {
	var out []Todo
	err := c.do(ctx, http.MethodGet, todoPrefix+"/get_all", nil, &out, true, "")
	return out, err
}

// AddTodo creates a todo.
func (c *Client) AddTodo(ctx context.Context, req TodoRequest) (Todo, error) {
	var out Todo
	err := c.do(ctx, http.MethodPost, todoPrefix+"/add_todo", req, &out, true, c.idempotencyKey())
	return out, err
}

// UpdateTodo patches todo id.
func (c *Client) UpdateTodo(ctx context.Context, id string, patch TodoPatch) (Todo, error) {
	var out Todo
	err := c.do(ctx, http.MethodPatch, todoPrefix+"/update_todo/"+url.PathEscape(id), patch, &out, true, "")
	return out, err
}

// DeleteTodo removes todo id.
func (c *Client) DeleteTodo(ctx context.Context, id string) (string, error) {
	var out messageBody
	err := c.do(ctx, http.MethodDelete, todoPrefix+"/delete_todo/"+url.PathEscape(id), nil, &out, true, "")
	return out.Message, err
}

func (c *Client) idempotencyKey() string {
	if c.newKey == nil {
		return ""
	}
	return c.newKey()
}

func (c *Client) do(ctx context.Context, method, path string, in, out any, auth bool, idemKey string) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else if auth {
		return ErrSignedOut
	}
	if idemKey != "" {
		req.Header.Set("Idempotency-Key", idemKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(status int, raw []byte) error {
	var body struct {
		Message             string `json:"message"`
		NeedsVerification   bool   `json:"needsVerification"`
		Email               string `json:"email"`
		RegistrationExpired bool   `json:"registrationExpired"`
	}
	if err := json.Unmarshal(raw, &body); err != nil || body.Message == "" {
		body.Message = http.StatusText(status)
	}
	return &APIError{
		Status:              status,
		Message:             body.Message,
		NeedsVerification:   body.NeedsVerification,
		Email:               body.Email,
		RegistrationExpired: body.RegistrationExpired,
	}
}
