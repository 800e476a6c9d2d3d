package schema

import (
	"context"
	"io/fs"
	"net/http"
	"time"
)

// Loader resolves a Source into a Document.
type Loader interface {
	Load(ctx context.Context, src Source) (Document, error)
}

// FormsLoader resolves a Source into validated forms.
type FormsLoader interface {
	Loader
	LoadForms(ctx context.Context, src Source) ([]FormSchema, error)
}

// LoaderOptions configures how a Loader resolves sources.
type LoaderOptions struct {
	// FileSystem backs SourceKindFS lookups.
	FileSystem fs.FS

	// HTTPClient enables URL sources. Nil disables them unless
	// AllowHTTPFallback is true.
	HTTPClient *http.Client

	// AllowHTTPFallback enables URL sources with a default client.
	AllowHTTPFallback bool

	// RequestTimeout bounds each HTTP fetch when positive.
	RequestTimeout time.Duration
}

// LoaderOption mutates LoaderOptions.
type LoaderOption func(*LoaderOptions)

// WithFileSystem injects an fs.FS implementation for SourceKindFS.
func WithFileSystem(files fs.FS) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.FileSystem = files
	}
}

// WithHTTPClient injects a custom HTTP client for remote documents.
func WithHTTPClient(client *http.Client) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.HTTPClient = client
	}
}

// WithHTTPFallback enables URL sources using a default client.
func WithHTTPFallback(enabled bool) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.AllowHTTPFallback = enabled
	}
}

// WithRequestTimeout bounds remote fetches.
func WithRequestTimeout(timeout time.Duration) LoaderOption {
	return func(opts *LoaderOptions) {
		opts.RequestTimeout = timeout
	}
}

// NewLoaderOptions applies the provided options over the zero value.
func NewLoaderOptions(options ...LoaderOption) LoaderOptions {
	var opts LoaderOptions
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}
	return opts
}
