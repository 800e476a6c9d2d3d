package tui

import (
	"io"
	"log/slog"

	"github.com/goliatone/go-formengine/pkg/render"
)

// OutputFormat controls how Encode serializes collected values.
type OutputFormat string

const (
	// OutputFormatJSON emits application/json payloads.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatFormURLEncoded emits application/x-www-form-urlencoded payloads.
	OutputFormatFormURLEncoded OutputFormat = "form"
	// OutputFormatPrettyText emits one id=value line per field.
	OutputFormatPrettyText OutputFormat = "pretty"
)

// Theme captures the message prefixes the session prints.
type Theme struct {
	GroupPrefix string
	InfoPrefix  string
	ErrorPrefix string
}

// DefaultTheme is used when WithTheme is not supplied.
var DefaultTheme = Theme{
	GroupPrefix: "== ",
	InfoPrefix:  "",
	ErrorPrefix: "! ",
}

// Option configures the TUI renderer.
type Option func(*Renderer)

// WithPromptDriver overrides the prompt driver.
func WithPromptDriver(driver PromptDriver) Option {
	return func(r *Renderer) {
		if driver != nil {
			r.driver = driver
		}
	}
}

// WithOutput sets where the default survey driver prints messages.
func WithOutput(w io.Writer) Option {
	return func(r *Renderer) {
		r.out = w
	}
}

// WithOutputFormat selects the Encode serialization format.
func WithOutputFormat(format OutputFormat) Option {
	return func(r *Renderer) {
		if format != "" {
			r.outputFormat = format
		}
	}
}

// WithTheme applies message prefixes.
func WithTheme(theme Theme) Option {
	return func(r *Renderer) {
		r.theme = theme
	}
}

// WithRenderOptions localizes prompts through render.LocalizeView.
func WithRenderOptions(opts render.RenderOptions) Option {
	return func(r *Renderer) {
		r.renderOpts = opts
	}
}

// WithLogger sets the logger used for session diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}
