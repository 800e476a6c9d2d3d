package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	internalLoader "github.com/goliatone/go-formengine/internal/loader"
	"github.com/goliatone/go-formengine/pkg/engine"
	"github.com/goliatone/go-formengine/pkg/persistence"
	"github.com/goliatone/go-formengine/pkg/provider"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/renderers/html"
	"github.com/goliatone/go-formengine/pkg/renderers/tui"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/state"
	"github.com/goliatone/go-formengine/pkg/visibility"
	"github.com/goliatone/go-formengine/pkg/visibility/expr"
)

const defaultRendererName = "html"

// ErrFormNotFound is wrapped when the requested form id is not in the
// resolved catalog.
var ErrFormNotFound = errors.New("orchestrator: form not found")

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects the loader used for Request.Source.
func WithLoader(loader schema.FormsLoader) Option {
	return func(o *Orchestrator) {
		o.loader = loader
	}
}

// WithClient sets the Schema Provider used when a request names neither
// forms nor a source. The client also becomes the options fetcher unless
// WithFetcher is given.
func WithClient(client *provider.Client) Option {
	return func(o *Orchestrator) {
		o.client = client
	}
}

// WithFetcher sets the dynamic options fetcher handed to engines.
func WithFetcher(fetcher engine.OptionsFetcher) Option {
	return func(o *Orchestrator) {
		o.fetcher = fetcher
	}
}

// WithBridge enables snapshot persistence for the engines it builds.
func WithBridge(bridge *persistence.Bridge) Option {
	return func(o *Orchestrator) {
		o.bridge = bridge
	}
}

// WithResolver replaces the visibility resolver handed to engines. The
// default resolver evaluates expression clauses with expr-lang.
func WithResolver(resolver *visibility.Resolver) Option {
	return func(o *Orchestrator) {
		o.resolver = resolver
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithDefaultRenderer overrides the renderer used when a request omits an
// explicit Renderer field.
func WithDefaultRenderer(name string) Option {
	return func(o *Orchestrator) {
		o.defaultRenderer = name
	}
}

// WithSchemaTransformer registers a Transformer applied to every form of
// the catalog, in registration order.
func WithSchemaTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.transformers = append(o.transformers, t)
		}
	}
}

// WithEngineOptions appends options passed to every engine.New call.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(o *Orchestrator) {
		o.engineOpts = append(o.engineOpts, opts...)
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Orchestrator coordinates catalog resolution, engine construction and
// rendering. It applies defaults (HTML and terminal renderers, file/URL
// loader) while remaining open to dependency injection.
type Orchestrator struct {
	loader          schema.FormsLoader
	client          *provider.Client
	fetcher         engine.OptionsFetcher
	bridge          *persistence.Bridge
	resolver        *visibility.Resolver
	registry        *render.Registry
	defaultRenderer string
	transformers    []Transformer
	engineOpts      []engine.Option
	logger          *slog.Logger
	initialiseErr   error
}

// New constructs an Orchestrator applying any provided options.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{
		defaultRenderer: defaultRendererName,
		logger:          slog.Default(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes which form to build and how to render it.
type Request struct {
	// Forms bypasses catalog loading when set.
	Forms []schema.FormSchema

	// Source is read with the loader when Forms is empty. When both are
	// empty the configured provider client is asked for the catalog.
	Source schema.Source

	// FormID selects the form. It may be omitted when the catalog holds a
	// single form.
	FormID string

	// Renderer names the renderer; the default renderer is used when empty.
	Renderer string

	// Values are applied through HandleChange before rendering, dependencies
	// before their dynamic dependents, waiting for option fetches after each
	// change. With a persistence bridge every applied value is also saved to
	// the form's snapshot.
	Values state.Values

	RenderOptions render.RenderOptions
}

// Catalog resolves the forms of req and runs the transformers over them.
func (o *Orchestrator) Catalog(ctx context.Context, req Request) ([]schema.FormSchema, error) {
	if err := o.initialiseErr; err != nil {
		return nil, err
	}

	var (
		forms []schema.FormSchema
		err   error
	)
	switch {
	case len(req.Forms) > 0:
		forms = req.Forms
	case req.Source != nil:
		forms, err = o.loader.LoadForms(ctx, req.Source)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: load catalog: %w", err)
		}
	case o.client != nil:
		forms, err = o.client.FetchForms(ctx)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: fetch catalog: %w", err)
		}
	default:
		return nil, errors.New("orchestrator: forms, source or provider client is required")
	}

	out := make([]schema.FormSchema, 0, len(forms))
	for _, form := range forms {
		form = form.Clone()
		for _, t := range o.transformers {
			if err := t.Transform(ctx, &form); err != nil {
				return nil, fmt.Errorf("orchestrator: transform form %q: %w", form.FormID, err)
			}
		}
		if err := schema.Validate(form); err != nil {
			return nil, fmt.Errorf("orchestrator: %w", err)
		}
		out = append(out, form)
	}
	return out, nil
}

// Form resolves the catalog and returns the form selected by req.FormID.
func (o *Orchestrator) Form(ctx context.Context, req Request) (schema.FormSchema, error) {
	forms, err := o.Catalog(ctx, req)
	if err != nil {
		return schema.FormSchema{}, err
	}
	if req.FormID == "" {
		if len(forms) == 1 {
			return forms[0], nil
		}
		return schema.FormSchema{}, fmt.Errorf("orchestrator: form id is required for a catalog of %d forms", len(forms))
	}
	for _, form := range forms {
		if form.FormID == req.FormID {
			return form, nil
		}
	}
	return schema.FormSchema{}, fmt.Errorf("%w: %q", ErrFormNotFound, req.FormID)
}

// Engine builds an engine for form with the configured fetcher, bridge and
// logger.
func (o *Orchestrator) Engine(ctx context.Context, form schema.FormSchema) (*engine.Engine, error) {
	opts := []engine.Option{engine.WithLogger(o.logger), engine.WithResolver(o.resolver)}
	if o.fetcher != nil {
		opts = append(opts, engine.WithFetcher(o.fetcher))
	}
	if o.bridge != nil {
		opts = append(opts, engine.WithPersistence(o.bridge))
	}
	opts = append(opts, o.engineOpts...)

	e, err := engine.New(ctx, form, opts...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: build engine: %w", err)
	}
	return e, nil
}

// Generate executes the catalog → engine → renderer sequence and returns
// the rendered bytes (HTML for the default renderer).
func (o *Orchestrator) Generate(ctx context.Context, req Request) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	form, err := o.Form(ctx, req)
	if err != nil {
		return nil, err
	}
	renderer, err := o.rendererFor(req.Renderer)
	if err != nil {
		return nil, err
	}
	e, err := o.Engine(ctx, form)
	if err != nil {
		return nil, err
	}
	e.Wait()
	if err := Prefill(ctx, e, req.Values); err != nil {
		return nil, err
	}

	output, err := renderer.Render(ctx, e.View(), req.RenderOptions)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: render output: %w", err)
	}
	return output, nil
}

// Prefill applies values to e, waiting for option fetches after each change.
// A field whose options depend on another field is applied after that field,
// so resetting dependents does not discard prefilled values. Ids that are
// not leaves of the form are ignored.
func Prefill(ctx context.Context, e *engine.Engine, values state.Values) error {
	if len(values) == 0 {
		return nil
	}
	for _, id := range prefillOrder(e.Form().Fields) {
		value, ok := values[id]
		if !ok {
			continue
		}
		if err := e.HandleChange(ctx, id, value); err != nil {
			return fmt.Errorf("orchestrator: prefill %s: %w", id, err)
		}
		e.Wait()
	}
	return nil
}

// prefillOrder returns the leaf ids in declaration order, moving each
// dynamic field after the chain of fields it depends on.
func prefillOrder(fields []schema.FieldSpec) []string {
	index := schema.Index(fields)
	ids := schema.LeafIDs(fields)
	order := make([]string, 0, len(ids))
	visited := make(map[string]bool, len(ids))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		if dyn := index[id].DynamicOptions; dyn != nil {
			if dep, ok := index[dyn.DependsOn]; ok && !dep.IsGroup() {
				visit(dyn.DependsOn)
			}
		}
		order = append(order, id)
	}
	for _, id := range ids {
		visit(id)
	}
	return order
}

func (o *Orchestrator) rendererFor(name string) (render.Renderer, error) {
	if o.registry == nil {
		return nil, errors.New("orchestrator: renderer registry is nil")
	}

	target := name
	if target == "" {
		target = o.defaultRenderer
	}

	if target != "" {
		renderer, err := o.registry.Get(target)
		if err == nil {
			return renderer, nil
		}
		if name != "" {
			return nil, fmt.Errorf("orchestrator: renderer %q: %w", name, err)
		}
	}

	names := o.registry.List()
	if len(names) == 0 {
		return nil, errors.New("orchestrator: no renderers registered")
	}

	renderer, err := o.registry.Get(names[0])
	if err != nil {
		return nil, fmt.Errorf("orchestrator: renderer %q: %w", names[0], err)
	}
	return renderer, nil
}

func (o *Orchestrator) applyDefaults() {
	if o.loader == nil {
		o.loader = internalLoader.New(schema.NewLoaderOptions(schema.WithHTTPFallback(true)))
	}
	if o.resolver == nil {
		o.resolver = visibility.NewResolver(
			visibility.WithExpressionEvaluator(expr.New()),
			visibility.WithLogger(o.logger),
		)
	}
	if o.fetcher == nil && o.client != nil {
		o.fetcher = o.client
	}
	if o.registry == nil {
		o.registry = render.NewRegistry()
		htmlRenderer, err := html.New()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderer: %w", err)
			return
		}
		o.registry.MustRegister(htmlRenderer)

		textRenderer, err := tui.New(tui.WithLogger(o.logger))
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: text renderer: %w", err)
			return
		}
		o.registry.MustRegister(textRenderer)
	}
	if o.defaultRenderer == "" {
		o.defaultRenderer = defaultRendererName
	}
}
