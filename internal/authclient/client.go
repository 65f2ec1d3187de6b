package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Skotchmaster/tutorial_catalog/internal/transport"
)

// Client talks to the auth API from other services and tools.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(authServiceURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(authServiceURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// APIError is a non-2xx answer from the auth API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("auth api: status %d: %s", e.Status, e.Message)
}

func (c *Client) Login(ctx context.Context, email, password string) (*transport.AuthResponse, error) {
	var out transport.AuthResponse
	body := transport.LoginRequest{Email: &email, Password: password}
	if err := c.post(ctx, "/api/users/authenticate", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RefreshTokens(ctx context.Context, refreshToken string) (*transport.RefreshResponse, error) {
	var out transport.RefreshResponse
	if err := c.post(ctx, "/api/token/refresh", transport.RefreshRequest{RefreshToken: refreshToken}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	return c.post(ctx, "/api/users/logout", transport.RefreshRequest{RefreshToken: refreshToken}, nil)
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var msg transport.MessageResponse
		_ = json.NewDecoder(resp.Body).Decode(&msg)
		return &APIError{Status: resp.StatusCode, Message: msg.Message}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
