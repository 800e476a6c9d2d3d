package server

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-formengine/pkg/provider"
)

type config struct {
	options  OptionCatalog
	paths    provider.Paths
	logger   *slog.Logger
	registry *prometheus.Registry
	newID    func() string
	now      func() time.Time
	columns  []string
	title    string
}

func defaultConfig() config {
	return config{
		options: OptionCatalog{},
		paths: provider.Paths{
			Forms:       provider.DefaultFormsPath,
			Submit:      provider.DefaultSubmitPath,
			Submissions: provider.DefaultSubmissionsPath,
		},
		logger: slog.Default(),
		newID:  uuid.NewString,
		now:    time.Now,
		title:  "Insurance forms",
	}
}

// Option configures a Server.
type Option func(*config)

// WithOptions sets the dependent option lists.
func WithOptions(options OptionCatalog) Option {
	return func(c *config) {
		if options != nil {
			c.options = options
		}
	}
}

// WithPaths overrides the catalog, submit and submissions paths. Blank
// entries keep their defaults.
func WithPaths(paths provider.Paths) Option {
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

// WithLogger sets the access and diagnostic logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRegistry registers the request metrics on registry and serves it on
// /metrics. A private registry is used otherwise.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(c *config) {
		c.registry = registry
	}
}

// WithIDGenerator replaces the uuid submission ids.
func WithIDGenerator(fn func() string) Option {
	return func(c *config) {
		if fn != nil {
			c.newID = fn
		}
	}
}

// WithClock replaces time.Now for submission timestamps.
func WithClock(fn func() time.Time) Option {
	return func(c *config) {
		if fn != nil {
			c.now = fn
		}
	}
}

// WithColumns fixes the submissions table columns. Without it the columns
// are derived from the stored rows.
func WithColumns(columns ...string) Option {
	return func(c *config) {
		c.columns = append([]string(nil), columns...)
	}
}

// WithTitle sets the title of the served OpenAPI document.
func WithTitle(title string) Option {
	return func(c *config) {
		if title != "" {
			c.title = title
		}
	}
}
