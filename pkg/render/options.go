package render

import (
	"strings"

	theme "github.com/goliatone/go-theme"
)

// RenderOptions describe per-request data that renderers can use to customise
// their output without touching the engine.
type RenderOptions struct {
	// Action is the URL the rendered form posts to. Empty posts back to the
	// current URL.
	Action string
	// Method is the HTTP verb of the rendered form. Defaults to POST. HTML
	// renderers translate verbs other than GET/POST into POST plus a hidden
	// _method input.
	Method string
	// SubmitLabel overrides the submit button caption.
	SubmitLabel string
	// Hidden fields are emitted alongside the visible fields, sorted by name.
	Hidden []HiddenField
	// Locale and Translator drive LocalizeView. Renderers call it before
	// building output when a Translator is set.
	Locale     string
	Translator Translator
	// Theme overrides the renderer's default theme for this request.
	Theme *theme.RendererConfig
	// OnMissing decides the text used when a key has no translation.
	OnMissing MissingTranslationHandler
}

// MethodOrDefault returns the configured method, upper-cased, or POST.
func (o RenderOptions) MethodOrDefault() string {
	method := strings.ToUpper(strings.TrimSpace(o.Method))
	if method == "" {
		return "POST"
	}
	return method
}

// SubmitLabelOrDefault returns the configured submit caption or "Submit".
func (o RenderOptions) SubmitLabelOrDefault() string {
	if o.SubmitLabel == "" {
		return "Submit"
	}
	return o.SubmitLabel
}
