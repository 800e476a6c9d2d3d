// Package html renders an engine.FormView into a standalone HTML form using
// embedded pongo2 templates.
package html

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	theme "github.com/goliatone/go-theme"

	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/render"
	rendertemplate "github.com/goliatone/go-formengine/pkg/render/template"
	"github.com/goliatone/go-formengine/pkg/render/template/gotemplate"
	"github.com/goliatone/go-formengine/pkg/schema"
)

const (
	formTemplate  = "form.tpl"
	fieldTemplate = "field.tpl"
	// PartialField is the theme partial key that replaces the field template.
	PartialField = "field"
)

type Option func(*config)

type config struct {
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	theme            *theme.RendererConfig
	stylesheet       string
}

// WithTemplatesFS supplies an alternate template bundle. It must provide
// form.tpl and field.tpl.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		if path == "" {
			return
		}
		cfg.templateFS = os.DirFS(path)
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithTheme sets the theme used when RenderOptions.Theme is nil.
func WithTheme(cfg *theme.RendererConfig) Option {
	return func(c *config) {
		c.theme = cfg
	}
}

// WithStylesheetURL links a stylesheet when the theme does not resolve one.
func WithStylesheetURL(url string) Option {
	return func(cfg *config) {
		cfg.stylesheet = strings.TrimSpace(url)
	}
}

type Renderer struct {
	templates  rendertemplate.TemplateRenderer
	theme      *theme.RendererConfig
	stylesheet string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the HTML renderer.
func New(options ...Option) (*Renderer, error) {
	cfg := config{templateFS: TemplatesFS()}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}
	if cfg.templateFS == nil {
		cfg.templateFS = TemplatesFS()
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engine, err := gotemplate.New(gotemplate.WithFS(cfg.templateFS))
		if err != nil {
			return nil, fmt.Errorf("html renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}

	return &Renderer{
		templates:  renderer,
		theme:      cfg.theme,
		stylesheet: cfg.stylesheet,
	}, nil
}

func (r *Renderer) Name() string {
	return "html"
}

func (r *Renderer) ContentType() string {
	return "text/html; charset=utf-8"
}

// Render localizes the view, flattens it into rows and executes form.tpl.
func (r *Renderer) Render(_ context.Context, view engine.FormView, options render.RenderOptions) ([]byte, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("html renderer: template renderer is nil")
	}

	view = render.LocalizeView(view, options)

	themeCfg := options.Theme
	if themeCfg == nil {
		themeCfg = r.theme
	}
	themeCtx := buildThemeContext(themeCfg)

	fieldTpl := fieldTemplate
	if partial := strings.TrimSpace(themeCtx.Partials[PartialField]); partial != "" {
		fieldTpl = partial
	}

	method := options.MethodOrDefault()
	hidden := options.Hidden
	if method != "GET" && method != "POST" {
		hidden = append(append([]render.HiddenField(nil), hidden...), render.Hidden("_method", method))
		method = "POST"
	}

	data := map[string]any{
		"form": map[string]any{
			"id":          view.FormID,
			"title":       view.Title,
			"description": view.Description,
		},
		"action":         options.Action,
		"method":         method,
		"submit_label":   render.LocalizeSubmitLabel(options),
		"hidden_fields":  hiddenRows(render.SortedHiddenFields(hidden...)),
		"rows":           buildRows(view),
		"has_errors":     view.HasErrors,
		"theme":          themeCtx,
		"stylesheet":     stylesheetURL(themeCfg, r.stylesheet),
		"field_template": fieldTpl,
	}

	result, err := r.templates.RenderTemplate(formTemplate, data)
	if err != nil {
		return nil, fmt.Errorf("html renderer: render template: %w", err)
	}
	return []byte(result), nil
}

func hiddenRows(fields []render.HiddenField) []any {
	out := make([]any, 0, len(fields))
	for _, field := range fields {
		out = append(out, map[string]any{"name": field.Name, "value": field.Value})
	}
	return out
}

// buildRows flattens the view tree. Groups contribute an open row before
// their children and a close row after them.
func buildRows(view engine.FormView) []any {
	var rows []any
	var walk func(fields []engine.FieldView)
	walk = func(fields []engine.FieldView) {
		for _, field := range fields {
			if field.IsGroup() {
				rows = append(rows, map[string]any{
					"open":   true,
					"id":     field.ID,
					"dom_id": domID(view.FormID, field.ID),
					"label":  sanitizeLabel(field.Label),
					"depth":  field.Depth,
				})
				walk(field.Children)
				rows = append(rows, map[string]any{"close": true, "id": field.ID})
				continue
			}
			rows = append(rows, fieldRow(view.FormID, field))
		}
	}
	walk(view.Fields)
	return rows
}

func fieldRow(formID string, field engine.FieldView) map[string]any {
	options := make([]any, 0, len(field.Options))
	for _, option := range field.Options {
		options = append(options, map[string]any{
			"value":    option,
			"selected": field.Selected(option),
		})
	}
	return map[string]any{
		"id":          field.ID,
		"dom_id":      domID(formID, field.ID),
		"kind":        string(field.Kind),
		"input_type":  inputType(field.Kind),
		"label":       sanitizeLabel(field.Label),
		"helper":      sanitizeHelper(field.HelperText),
		"required":    field.Required,
		"value":       field.Value.Text(),
		"options":     options,
		"loading":     field.Loading,
		"disabled":    field.Disabled,
		"placeholder": field.Placeholder,
		"error":       field.Error,
		"min":         formatBound(field.Min),
		"max":         formatBound(field.Max),
		"pattern":     field.Pattern,
		"depth":       field.Depth,
	}
}

func inputType(kind schema.Kind) string {
	switch kind {
	case schema.KindNumber:
		return "number"
	case schema.KindDate:
		return "date"
	default:
		return "text"
	}
}

func formatBound(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func domID(formID, fieldID string) string {
	var b strings.Builder
	for _, part := range []string{formID, fieldID} {
		if part == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('-')
		}
		for _, r := range part {
			switch {
			case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
				b.WriteRune(r)
			default:
				b.WriteByte('_')
			}
		}
	}
	return b.String()
}
