package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUsernameTaken      = errors.New("username already exists")
	ErrUnauthorized       = errors.New("unauthorized")
)

// User is the profile returned by the auth service
type User struct {
	UserID   int64  `json:"userid,omitempty"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

type response struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
	User    *User  `json:"user,omitempty"`
}

// Client talks to the HTTP auth service that issues event channel tokens
type Client struct {
	baseURL string
	http    *http.Client
	logger  *zap.Logger
}

// NewClient creates an auth client for the service at baseURL
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		logger:  logger,
	}
}

// LogIn exchanges email and password for a token
func (c *Client) LogIn(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}

	resp, status, err := c.do(ctx, http.MethodPost, "/auth/log-in", "", body)
	if err != nil {
		return "", err
	}
	switch {
	case status == http.StatusBadRequest:
		return "", fmt.Errorf("%w: %s", ErrInvalidCredentials, resp.Message)
	case status != http.StatusOK:
		return "", unexpectedStatus(status, resp)
	case resp.Token == "":
		return "", fmt.Errorf("log in: no token in response")
	}

	c.logger.Info("logged in", zap.String("email", email))
	return resp.Token, nil
}

// SignUp registers a new account and returns its token
func (c *Client) SignUp(ctx context.Context, username, email, password string) (string, error) {
	body := map[string]string{"username": username, "email": email, "password": password}

	resp, status, err := c.do(ctx, http.MethodPost, "/auth/sign-up", "", body)
	if err != nil {
		return "", err
	}
	if status != http.StatusOK {
		return "", unexpectedStatus(status, resp)
	}
	if resp.Token == "" {
		return "", fmt.Errorf("sign up: no token in response")
	}

	c.logger.Info("signed up", zap.String("username", username))
	return resp.Token, nil
}

// CheckUsername returns ErrUsernameTaken when username is already registered
func (c *Client) CheckUsername(ctx context.Context, username string) error {
	path := "/auth?" + url.Values{"username": {username}}.Encode()

	resp, status, err := c.do(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return err
	}
	switch status {
	case http.StatusOK:
		return nil
	case http.StatusConflict:
		return ErrUsernameTaken
	default:
		return unexpectedStatus(status, resp)
	}
}

// UserInfo fetches the profile the token belongs to
func (c *Client) UserInfo(ctx context.Context, token string) (User, error) {
	resp, status, err := c.do(ctx, http.MethodGet, "/get_user_info", token, nil)
	if err != nil {
		return User{}, err
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusUnprocessableEntity:
		return User{}, fmt.Errorf("%w: %s", ErrUnauthorized, resp.Message)
	case status != http.StatusOK:
		return User{}, unexpectedStatus(status, resp)
	case resp.User == nil:
		return User{}, fmt.Errorf("user info: no user in response")
	}

	return *resp.User, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, body interface{}) (response, int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return response{}, 0, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return response{}, 0, fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return response{}, 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer res.Body.Close()

	var out response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil && !errors.Is(err, io.EOF) {
		c.logger.Debug("undecodable auth response", zap.Int("status", res.StatusCode), zap.Error(err))
	}

	return out, res.StatusCode, nil
}

func unexpectedStatus(status int, resp response) error {
	if resp.Message != "" {
		return fmt.Errorf("auth service: %d: %s", status, resp.Message)
	}
	return fmt.Errorf("auth service: %d", status)
}
