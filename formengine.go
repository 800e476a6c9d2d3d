// Package formengine exposes one-call helpers over the form engine packages
// so hosts can go from configuration to a rendered, stateful form without
// wiring each layer themselves.
package formengine

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-formengine/pkg/config"
	"github.com/goliatone/go-formengine/pkg/orchestrator"
	"github.com/goliatone/go-formengine/pkg/persistence"
	"github.com/goliatone/go-formengine/pkg/provider"
	"github.com/goliatone/go-formengine/pkg/render"
	"github.com/goliatone/go-formengine/pkg/renderers/html"
	"github.com/goliatone/go-formengine/pkg/schema"
	"github.com/goliatone/go-formengine/pkg/state"
)

// FormSchema aliases schema.FormSchema for callers that only import the root
// package.
type FormSchema = schema.FormSchema

// Values aliases state.Values.
type Values = state.Values

// RenderOptions describes per-request overrides such as the form action,
// hidden fields and the translator.
type RenderOptions = render.RenderOptions

// Request aliases orchestrator.Request.
type Request = orchestrator.Request

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// GenerateHTML loads the catalog at source, builds an engine for formID and
// renders it with the HTML renderer.
func GenerateHTML(ctx context.Context, source schema.Source, formID string, options ...orchestrator.Option) ([]byte, error) {
	gen := orchestrator.New(options...)
	return gen.Generate(ctx, orchestrator.Request{
		Source:   source,
		FormID:   formID,
		Renderer: "html",
	})
}

// EmbeddedTemplates exposes the built-in HTML templates so callers can reuse
// or extend them without importing the renderer package directly.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}

// AssetsFS exposes the stylesheet referenced by rendered forms.
//
// Typical mount:
//
//	mux.Handle("/assets/",
//	  http.StripPrefix("/assets/",
//	    http.FileServerFS(formengine.AssetsFS()),
//	  ),
//	)
func AssetsFS() fs.FS {
	return html.AssetsFS()
}

// NewClient builds a Schema Provider client from cfg. The insurance
// normalizer is installed when cfg.Normalize is set.
func NewClient(cfg config.Provider, logger *slog.Logger) (*provider.Client, error) {
	opts := []provider.Option{provider.WithLogger(logger)}
	if cfg.BaseURL != "" {
		opts = append(opts, provider.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, provider.WithTimeout(cfg.Timeout))
	}
	if cfg.Normalize {
		opts = append(opts, provider.WithNormalizers(provider.InsuranceNormalizer))
	}
	return provider.New(opts...)
}

type closerFunc func() error

func (fn closerFunc) Close() error { return fn() }

var nopCloser = closerFunc(func() error { return nil })

// OpenStore opens the persistence backend named by cfg. The returned closer
// releases database and network handles; it is never nil. The none backend
// returns a nil store.
func OpenStore(ctx context.Context, cfg config.Persistence) (persistence.Store, io.Closer, error) {
	switch strings.ToLower(cfg.Backend) {
	case config.BackendNone, "":
		return nil, nopCloser, nil
	case config.BackendMemory:
		return persistence.NewMemoryStore(), nopCloser, nil
	case config.BackendFile:
		store, err := persistence.NewFileStore(cfg.Path)
		if err != nil {
			return nil, nopCloser, err
		}
		return store, nopCloser, nil
	case config.BackendSQLite:
		store, err := persistence.OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, nopCloser, err
		}
		return store, store, nil
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nopCloser, fmt.Errorf("formengine: connect redis %s: %w", cfg.RedisAddr, err)
		}
		return persistence.NewRedisStore(client, "", cfg.TTL), client, nil
	default:
		return nil, nopCloser, fmt.Errorf("formengine: unknown persistence backend %q", cfg.Backend)
	}
}

// NewBridge wraps store with the key prefix and TTL of cfg. A nil store
// yields a nil bridge, which disables persistence.
func NewBridge(store persistence.Store, cfg config.Persistence, logger *slog.Logger) *persistence.Bridge {
	if store == nil {
		return nil
	}
	opts := []persistence.Option{persistence.WithLogger(logger)}
	if cfg.KeyPrefix != "" {
		opts = append(opts, persistence.WithKeyPrefix(cfg.KeyPrefix))
	}
	if cfg.TTL > 0 {
		opts = append(opts, persistence.WithTTL(cfg.TTL))
	}
	return persistence.NewBridge(store, opts...)
}

// FromConfig assembles an orchestrator from cfg: provider client, options
// fetcher, persistence bridge and, when cfg.Provider.Forms names a local
// catalog, the insurance normalizer as a transformer. Close the returned
// closer when done.
func FromConfig(ctx context.Context, cfg config.Config, logger *slog.Logger, extra ...orchestrator.Option) (*orchestrator.Orchestrator, io.Closer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	client, err := NewClient(cfg.Provider, logger)
	if err != nil {
		return nil, nopCloser, err
	}
	store, closer, err := OpenStore(ctx, cfg.Persistence)
	if err != nil {
		return nil, nopCloser, err
	}

	opts := []orchestrator.Option{
		orchestrator.WithClient(client),
		orchestrator.WithLogger(logger),
	}
	if bridge := NewBridge(store, cfg.Persistence, logger); bridge != nil {
		opts = append(opts, orchestrator.WithBridge(bridge))
	}
	if cfg.Provider.Forms != "" && cfg.Provider.Normalize {
		opts = append(opts, orchestrator.WithSchemaTransformer(orchestrator.NormalizerTransformer(provider.InsuranceNormalizer)))
	}
	return orchestrator.New(append(opts, extra...)...), closer, nil
}

// CatalogRequest returns the base request for cfg: the local catalog when
// cfg.Provider.Forms is set, otherwise the provider client is used.
func CatalogRequest(cfg config.Config) (orchestrator.Request, error) {
	src, err := schema.ParseSource(cfg.Provider.Forms)
	if err != nil {
		return orchestrator.Request{}, fmt.Errorf("formengine: provider.forms: %w", err)
	}
	return orchestrator.Request{Source: src}, nil
}
