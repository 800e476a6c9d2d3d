package render

import (
	"context"

	"github.com/goliatone/go-formengine/pkg/engine"
)

// Renderer converts a form view into a byte representation (HTML, plain text,
// etc.).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, view engine.FormView, options RenderOptions) ([]byte, error)
}

// RendererFunc adapts a plain function into a Renderer.
type RendererFunc struct {
	RendererName string
	Type         string
	Fn           func(ctx context.Context, view engine.FormView, options RenderOptions) ([]byte, error)
}

func (f RendererFunc) Name() string        { return f.RendererName }
func (f RendererFunc) ContentType() string { return f.Type }

func (f RendererFunc) Render(ctx context.Context, view engine.FormView, options RenderOptions) ([]byte, error) {
	return f.Fn(ctx, view, options)
}
