package html

import (
	"sort"
	"strings"

	theme "github.com/goliatone/go-theme"
)

type rendererTheme struct {
	Name         string            `json:"name,omitempty"`
	Variant      string            `json:"variant,omitempty"`
	Partials     map[string]string `json:"partials,omitempty"`
	Tokens       map[string]string `json:"tokens,omitempty"`
	CSSVarsStyle string            `json:"css_vars_style,omitempty"`
}

func buildThemeContext(cfg *theme.RendererConfig) rendererTheme {
	if cfg == nil {
		return rendererTheme{}
	}
	return rendererTheme{
		Name:         cfg.Theme,
		Variant:      cfg.Variant,
		Partials:     copyStringMap(cfg.Partials),
		Tokens:       copyStringMap(cfg.Tokens),
		CSSVarsStyle: cssVarsStyle(cfg.CSSVars),
	}
}

// stylesheetURL asks the theme for the stylesheet location, falling back to
// the renderer default.
func stylesheetURL(cfg *theme.RendererConfig, fallback string) string {
	if cfg != nil && cfg.AssetURL != nil {
		if url := cfg.AssetURL(StylesheetName); url != "" {
			return url
		}
	}
	return fallback
}

func copyStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(".formengine {\n")
	for _, key := range keys {
		b.WriteString("  ")
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}
