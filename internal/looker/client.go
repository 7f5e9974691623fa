// Package looker is a small Looker API 4.0 client covering what the import
// pipeline needs: credential login and dashboard LookML retrieval.
package looker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrEmptyLookML indicates the dashboard exists but returned no LookML.
var ErrEmptyLookML = errors.New("dashboard returned no LookML")

// Credentials authenticate against a Looker instance.
type Credentials struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
}

// Client calls the Looker API, logging in lazily and caching the token for
// the lifetime of the process.
type Client struct {
	creds  Credentials
	client *http.Client

	mu    sync.Mutex
	token string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// New builds a client for the given credentials.
func New(creds Credentials, opts ...Option) (*Client, error) {
	creds.BaseURL = strings.TrimRight(strings.TrimSpace(creds.BaseURL), "/")
	if creds.BaseURL == "" {
		return nil, errors.New("looker base URL is required")
	}
	if strings.TrimSpace(creds.ClientID) == "" || strings.TrimSpace(creds.ClientSecret) == "" {
		return nil, errors.New("looker client credentials are required")
	}
	c := &Client{
		creds:  creds,
		client: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DashboardLookML fetches the LookML source of a dashboard by ID.
func (c *Client) DashboardLookML(ctx context.Context, dashboardID string) (string, error) {
	dashboardID = strings.TrimSpace(dashboardID)
	if dashboardID == "" {
		return "", errors.New("dashboard ID is required")
	}
	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	endpoint := fmt.Sprintf("%s/api/4.0/dashboards/%s/lookml", c.creds.BaseURL, url.PathEscape(dashboardID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch dashboard %s: %w", dashboardID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("fetch dashboard %s failed: %s; body=%s", dashboardID, resp.Status, strings.TrimSpace(string(detail)))
	}

	var payload struct {
		DashboardID string `json:"dashboard_id"`
		LookML      string `json:"lookml"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode dashboard %s: %w", dashboardID, err)
	}
	if strings.TrimSpace(payload.LookML) == "" {
		return "", fmt.Errorf("dashboard %s: %w", dashboardID, ErrEmptyLookML)
	}
	return payload.LookML, nil
}

func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token != "" {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("client_id", c.creds.ClientID)
	form.Set("client_secret", c.creds.ClientSecret)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.creds.BaseURL+"/api/4.0/login", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("looker login: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return "", fmt.Errorf("looker login failed: %s; body=%s", resp.Status, strings.TrimSpace(string(detail)))
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decode login response: %w", err)
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return "", errors.New("looker login returned no access token")
	}
	c.token = payload.AccessToken
	return c.token, nil
}
