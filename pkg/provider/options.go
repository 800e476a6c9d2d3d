package provider

import (
	"log/slog"
	"net/http"
	"time"
)

type config struct {
	baseURL     string
	httpClient  *http.Client
	timeout     time.Duration
	paths       Paths
	normalizers []Normalizer
	logger      *slog.Logger
}

// Option configures a Client.
type Option func(*config)

// WithBaseURL sets the provider root, e.g. https://assignment.devotel.io.
func WithBaseURL(base string) Option {
	return func(c *config) {
		if base != "" {
			c.baseURL = base
		}
	}
}

// WithHTTPClient injects the HTTP client. Its timeout is kept when set.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		c.httpClient = client
	}
}

// WithTimeout bounds each request. Defaults to DefaultTimeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithPaths overrides endpoint paths. Blank entries keep their default.
func WithPaths(paths Paths) Option {
	return func(c *config) {
		if paths.Forms != "" {
			c.paths.Forms = paths.Forms
		}
		if paths.Submit != "" {
			c.paths.Submit = paths.Submit
		}
		if paths.Submissions != "" {
			c.paths.Submissions = paths.Submissions
		}
	}
}

// WithNormalizers appends schema post-processing hooks run by FetchForms.
func WithNormalizers(normalizers ...Normalizer) Option {
	return func(c *config) {
		for _, n := range normalizers {
			if n != nil {
				c.normalizers = append(c.normalizers, n)
			}
		}
	}
}

// WithLogger sets the client logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
