package template

import (
	"io"
)

// TemplateRenderer is the contract the HTML renderer needs from a template
// engine: named templates, inline templates, custom filters and shared
// globals.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
