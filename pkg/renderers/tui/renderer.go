// Package tui renders forms for terminals: a plain text view of a FormView
// and an interactive session that fills an engine field by field.
package tui

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/logging"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/state"
)

// Renderer implements render.Renderer for terminals and drives interactive
// fill sessions through a PromptDriver.
type Renderer struct {
	driver       PromptDriver
	out          io.Writer
	outputFormat OutputFormat
	theme        Theme
	renderOpts   render.RenderOptions
	logger       *slog.Logger
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs a TUI renderer with defaults (survey driver, JSON output).
func New(options ...Option) (*Renderer, error) {
	r := &Renderer{
		outputFormat: OutputFormatJSON,
		theme:        DefaultTheme,
		logger:       logging.Discard(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	if r.driver == nil {
		r.driver = NewSurveyDriver(r.out)
	}
	switch r.outputFormat {
	case OutputFormatJSON, OutputFormatFormURLEncoded, OutputFormatPrettyText:
	default:
		return nil, fmt.Errorf("tui: unknown output format %q", r.outputFormat)
	}
	return r, nil
}

// Name reports the renderer identifier.
func (r *Renderer) Name() string {
	return "tui"
}

// ContentType reports the type of Render output.
func (r *Renderer) ContentType() string {
	return "text/plain; charset=utf-8"
}

// Render prints the visible form as indented text: group headings, one line
// per field with its current value, then choices, helper text and errors.
func (r *Renderer) Render(ctx context.Context, view engine.FormView, opts render.RenderOptions) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("tui: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	view = render.LocalizeView(view, opts)

	var b strings.Builder
	b.WriteString(view.Title)
	b.WriteByte('\n')
	if view.Description != "" {
		b.WriteString(view.Description)
		b.WriteByte('\n')
	}
	for _, field := range view.Flatten() {
		indent := strings.Repeat("  ", field.Depth)
		if field.IsGroup() {
			fmt.Fprintf(&b, "%s%s%s\n", indent, r.theme.GroupPrefix, field.Label)
			continue
		}
		value := field.Value.Text()
		if value == "" {
			value = "-"
		}
		if field.Loading {
			value = field.Placeholder
		}
		fmt.Fprintf(&b, "%s%s: %s\n", indent, fieldLabel(field), value)
		if len(field.Options) > 0 {
			fmt.Fprintf(&b, "%s  options: %s\n", indent, strings.Join(field.Options, ", "))
		}
		if field.HelperText != "" {
			fmt.Fprintf(&b, "%s  %s\n", indent, field.HelperText)
		}
		if field.Error != "" {
			fmt.Fprintf(&b, "%s  %s%s\n", indent, r.theme.ErrorPrefix, field.Error)
		}
	}
	return []byte(b.String()), nil
}

// Encode serializes a value mapping in the configured output format.
func (r *Renderer) Encode(values state.Values) ([]byte, error) {
	switch r.outputFormat {
	case OutputFormatFormURLEncoded:
		return []byte(flattenForm(values)), nil
	case OutputFormatPrettyText:
		return []byte(prettyPrint(values)), nil
	default:
		return json.Marshal(values)
	}
}

func fieldLabel(field engine.FieldView) string {
	label := field.Label
	if label == "" {
		label = field.ID
	}
	if field.Required {
		label += " *"
	}
	return label
}

func flattenForm(values state.Values) string {
	form := url.Values{}
	for _, id := range values.Keys() {
		value := values.Get(id)
		if value.IsList() {
			for _, item := range value.Items() {
				form.Add(id, item)
			}
			continue
		}
		form.Set(id, value.Text())
	}
	return form.Encode()
}

func prettyPrint(values state.Values) string {
	var b strings.Builder
	for _, id := range values.Keys() {
		fmt.Fprintf(&b, "%s=%s\n", id, values.Get(id))
	}
	return b.String()
}
