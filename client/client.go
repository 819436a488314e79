// Package client is the Go gateway to a corkboard API server. It wraps the
// REST surface with typed calls and the websocket surface with callback
// subscriptions, so callers never touch routes or wire payloads directly.
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
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var (
	ErrBaseURLRequired  = errors.New("base URL is required")
	ErrNotAuthenticated = errors.New("not authenticated")
)

// APIError carries the machine-readable code the server attaches to every
// failed request.
type APIError struct {
	StatusCode int
	Code       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api request failed: %s (status %d)", e.Code, e.StatusCode)
}

// User identifies an authenticated account.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the credential state held after a successful login.
type Session struct {
	AccessToken string
	ExpiresIn   int64
	User        User
}

// Config configures a Client. BaseURL is required; the rest default to
// sensible values in NewClient.
type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	Dialer     *websocket.Dialer
	Logger     *zap.Logger
}

// Client talks to one corkboard server on behalf of at most one signed-in
// user. All methods are safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	dialer     *websocket.Dialer
	logger     *zap.Logger

	mu           sync.RWMutex
	session      *Session
	authWatchers map[int64]func(*User)
	nextWatcher  int64
}

func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}
	baseURL, err := url.Parse(config.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base URL: %w", err)
	}
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	dialer := config.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:      baseURL,
		httpClient:   httpClient,
		dialer:       dialer,
		logger:       logger,
		authWatchers: map[int64]func(*User){},
	}, nil
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
}

// Register creates an account. It does not sign the client in; call Login
// afterwards.
func (c *Client) Register(ctx context.Context, email, password string) (User, error) {
	var user User
	err := c.do(ctx, http.MethodPost, "/auth/register", credentialsRequest{Email: email, Password: password}, &user)
	return user, err
}

// Login exchanges credentials for a session token and stores it on the
// client. Auth watchers are notified with the signed-in user.
func (c *Client) Login(ctx context.Context, email, password string) (User, error) {
	var response loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", credentialsRequest{Email: email, Password: password}, &response); err != nil {
		return User{}, err
	}
	session := Session{
		AccessToken: response.AccessToken,
		ExpiresIn:   response.ExpiresIn,
		User:        response.User,
	}
	c.setSession(&session)
	return response.User, nil
}

// Logout revokes the session token server-side and clears the local session.
// The local session is cleared even when the revoke call fails, so the client
// is always signed out afterwards.
func (c *Client) Logout(ctx context.Context) error {
	if _, ok := c.CurrentUser(); !ok {
		return ErrNotAuthenticated
	}
	err := c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
	c.setSession(nil)
	return err
}

// CurrentUser reports the signed-in user, if any.
func (c *Client) CurrentUser() (User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return User{}, false
	}
	return c.session.User, true
}

// OnAuthChange registers a callback observing sign-in state. The callback
// fires immediately with the current user (nil when signed out) and again on
// every subsequent change. The returned function removes the registration.
func (c *Client) OnAuthChange(callback func(*User)) func() {
	c.mu.Lock()
	c.nextWatcher++
	watcherID := c.nextWatcher
	c.authWatchers[watcherID] = callback
	var current *User
	if c.session != nil {
		user := c.session.User
		current = &user
	}
	c.mu.Unlock()

	callback(current)
	return func() {
		c.mu.Lock()
		delete(c.authWatchers, watcherID)
		c.mu.Unlock()
	}
}

func (c *Client) setSession(session *Session) {
	c.mu.Lock()
	c.session = session
	var current *User
	if session != nil {
		user := session.User
		current = &user
	}
	watchers := make([]func(*User), 0, len(c.authWatchers))
	for _, watcher := range c.authWatchers {
		watchers = append(watchers, watcher)
	}
	c.mu.Unlock()

	for _, watcher := range watchers {
		watcher(current)
	}
}

func (c *Client) accessToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.session == nil {
		return ""
	}
	return c.session.AccessToken
}

func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if token := c.accessToken(); token != "" {
		request.Header.Set("Authorization", "Bearer "+token)
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	if response.StatusCode >= http.StatusMultipleChoices {
		var failure struct {
			Code string `json:"error"`
		}
		if decodeErr := json.NewDecoder(response.Body).Decode(&failure); decodeErr != nil || failure.Code == "" {
			failure.Code = "unexpected_response"
		}
		return &APIError{StatusCode: response.StatusCode, Code: failure.Code}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
