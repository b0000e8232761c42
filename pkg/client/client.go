package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/loykin/daprwatch/internal/instance"
)

// Client talks to a daprwatch daemon started with `daprwatch serve`.
type Client struct {
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// Config holds client configuration.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Logger  *slog.Logger
}

// DefaultConfig returns the configuration matching the daemon's defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL: "http://localhost:8080/api",
		Timeout: 10 * time.Second,
	}
}

func New(config Config) *Client {
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8080/api"
	}
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		client:  &http.Client{Timeout: config.Timeout},
		logger:  config.Logger,
	}
}

// Instances fetches the daemon's current snapshot. appID filters to one
// application when non-empty; force makes the daemon rescan first.
func (c *Client) Instances(ctx context.Context, appID string, force bool) ([]instance.Instance, error) {
	q := url.Values{}
	if appID != "" {
		q.Set("app_id", appID)
	}
	if force {
		q.Set("force", "1")
	}
	u := c.baseURL + "/instances"
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}
	var out []instance.Instance
	if err := c.do(ctx, http.MethodGet, u, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Refresh asks the daemon to run one scan and returns the new snapshot.
func (c *Client) Refresh(ctx context.Context) ([]instance.Instance, error) {
	var out []instance.Instance
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/refresh", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Health reports whether the daemon answers its health endpoint.
func (c *Client) Health(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, c.baseURL+"/healthz", nil)
}

func (c *Client) do(ctx context.Context, method, u string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	c.logger.Debug("daemon request", "method", method, "url", u)
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, u, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &e) == nil && e.Error != "" {
			return fmt.Errorf("daemon: %s (status %d)", e.Error, resp.StatusCode)
		}
		return fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
