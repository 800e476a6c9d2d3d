// Package provider is the HTTP client for the remote Schema Provider: form
// catalog, submissions, submit and dynamic option endpoints.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

const (
	DefaultBaseURL         = "https://assignment.devotel.io"
	DefaultFormsPath       = "/api/insurance/forms"
	DefaultSubmitPath      = "/api/insurance/forms/submit"
	DefaultSubmissionsPath = "/api/insurance/forms/submissions"
	DefaultTimeout         = 30 * time.Second

	maxResponseBytes = 8 << 20
)

// ErrUnexpectedStatus is wrapped when the provider answers outside 2xx.
var ErrUnexpectedStatus = errors.New("provider: unexpected status")

// Paths groups the provider endpoints relative to the base URL.
type Paths struct {
	Forms       string
	Submit      string
	Submissions string
}

// Client talks to one Schema Provider.
type Client struct {
	base        *url.URL
	http        *http.Client
	paths       Paths
	normalizers []Normalizer
	logger      *slog.Logger
}

// New builds a client. The base URL defaults to DefaultBaseURL.
func New(opts ...Option) (*Client, error) {
	cfg := config{
		baseURL: DefaultBaseURL,
		timeout: DefaultTimeout,
		paths: Paths{
			Forms:       DefaultFormsPath,
			Submit:      DefaultSubmitPath,
			Submissions: DefaultSubmissionsPath,
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	base, err := url.Parse(strings.TrimRight(cfg.baseURL, "/"))
	if err != nil {
		return nil, goerr.Wrap(err, "invalid provider base url", goerr.V("base_url", cfg.baseURL))
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, goerr.New("provider base url must be absolute", goerr.V("base_url", cfg.baseURL))
	}

	client := cfg.httpClient
	if client == nil {
		client = &http.Client{Timeout: cfg.timeout}
	} else if client.Timeout == 0 && cfg.timeout > 0 {
		clone := *client
		clone.Timeout = cfg.timeout
		client = &clone
	}

	return &Client{
		base:        base,
		http:        client,
		paths:       cfg.paths,
		normalizers: cfg.normalizers,
		logger:      cfg.logger,
	}, nil
}

// BaseURL returns the resolved base URL.
func (c *Client) BaseURL() string { return c.base.String() }

// resolve joins ref onto the base URL. Absolute refs are returned as-is.
func (c *Client) resolve(ref string) (*url.URL, error) {
	parsed, err := url.Parse(ref)
	if err != nil {
		return nil, goerr.Wrap(err, "invalid endpoint", goerr.V("endpoint", ref))
	}
	if parsed.IsAbs() {
		return parsed, nil
	}
	joined := *c.base
	joined.Path = strings.TrimRight(c.base.Path, "/") + "/" + strings.TrimLeft(parsed.Path, "/")
	joined.RawQuery = parsed.RawQuery
	return &joined, nil
}

// do sends a request and returns the body of a 2xx response.
func (c *Client) do(ctx context.Context, method string, target *url.URL, body any) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to encode request body", goerr.V("url", target.String()))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build request", goerr.V("url", target.String()))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, goerr.Wrap(err, "provider request failed",
			goerr.V("method", method), goerr.V("url", target.String()))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read provider response", goerr.V("url", target.String()))
	}

	c.logger.Debug("provider request",
		slog.String("method", method),
		slog.String("url", target.String()),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(started)))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, goerr.Wrap(ErrUnexpectedStatus, "provider answered with an error",
			goerr.V("method", method),
			goerr.V("url", target.String()),
			goerr.V("status", resp.StatusCode))
	}
	return data, nil
}
