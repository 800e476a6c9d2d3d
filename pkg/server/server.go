// Package server is a reference Schema Provider: it serves a form catalog,
// dependent option lists and an in-memory submissions table over the same
// HTTP API the provider client consumes.
package server

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-formengine/pkg/openapi"
	"github.com/goliatone/go-formengine/pkg/provider"
	"github.com/goliatone/go-formengine/pkg/schema"
)

const (
	MetricsPath = "/metrics"
	OpenAPIPath = "/openapi.json"
)

// Server implements http.Handler.
type Server struct {
	router  *chi.Mux
	forms   []schema.FormSchema
	options OptionCatalog
	store   *SubmissionStore
	paths   provider.Paths
	logger  *slog.Logger
	metrics *metrics
	gather  prometheus.Gatherer
	newID   func() string
	now     func() time.Time
	columns []string
	spec    []byte
}

// New builds a server for forms. Every form must pass schema.Validate and
// form ids must be unique.
func New(forms []schema.FormSchema, opts ...Option) (*Server, error) {
	if len(forms) == 0 {
		return nil, errors.New("server: at least one form is required")
	}
	seen := make(map[string]struct{}, len(forms))
	for _, form := range forms {
		if err := schema.Validate(form); err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		if _, dup := seen[form.FormID]; dup {
			return nil, fmt.Errorf("server: duplicate form id %q", form.FormID)
		}
		seen[form.FormID] = struct{}{}
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.registry == nil {
		cfg.registry = prometheus.NewRegistry()
	}
	m, err := newMetrics(cfg.registry)
	if err != nil {
		return nil, err
	}

	doc, err := openapi.SubmissionDocument(forms, openapi.Info{Title: cfg.title, Paths: cfg.paths})
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	spec, err := openapi.Encode(doc, openapi.FormatJSON)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}

	s := &Server{
		router:  chi.NewRouter(),
		forms:   forms,
		options: cfg.options,
		store:   NewSubmissionStore(),
		paths:   cfg.paths,
		logger:  cfg.logger,
		metrics: m,
		gather:  cfg.registry,
		newID:   cfg.newID,
		now:     cfg.now,
		columns: cfg.columns,
		spec:    spec,
	}
	s.routes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Submissions returns the stored submissions, oldest first.
func (s *Server) Submissions() []Submission {
	return s.store.List()
}

// Endpoints lists the dynamic option paths the server answers, sorted.
func (s *Server) Endpoints() []string {
	set := make(map[string]struct{})
	for endpoint := range s.options {
		set[endpoint] = struct{}{}
	}
	for _, form := range s.forms {
		_ = schema.Walk(form.Fields, func(field schema.FieldSpec, _ []schema.FieldSpec) error {
			if field.IsDynamic() && strings.HasPrefix(field.DynamicOptions.Endpoint, "/") {
				set[field.DynamicOptions.Endpoint] = struct{}{}
			}
			return nil
		})
	}
	out := make([]string, 0, len(set))
	for endpoint := range set {
		out = append(out, endpoint)
	}
	sort.Strings(out)
	return out
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(s.accessLogger)
	r.Use(s.instrument)
	r.Use(middleware.Recoverer)

	r.Get(s.paths.Forms, s.handleForms)
	r.Post(s.paths.Submit, s.handleSubmit)
	r.Get(s.paths.Submissions, s.handleSubmissions)
	r.Get(OpenAPIPath, s.handleOpenAPI)
	r.Method(http.MethodGet, MetricsPath, promhttp.HandlerFor(s.gather, promhttp.HandlerOpts{}))

	for _, endpoint := range s.Endpoints() {
		handler := s.handleOptions(endpoint)
		r.Get(endpoint, handler)
		r.Post(endpoint, handler)
	}
}

// accessLogger logs one line per request once the response is written.
func (s *Server) accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("access",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Int("bytes", ww.BytesWritten()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
