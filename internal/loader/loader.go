package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/goliatone/go-formengine/pkg/schema"
)

// Loader implements schema.Loader by delegating to file, fs.FS, or HTTP
// strategies.
type Loader struct {
	fs        fs.FS
	http      *http.Client
	allowHTTP bool
	timeout   time.Duration
}

var _ schema.FormsLoader = (*Loader)(nil)

// New constructs a Loader from pre-resolved options.
func New(options schema.LoaderOptions) *Loader {
	timeout := options.RequestTimeout

	var httpClient *http.Client
	switch {
	case options.HTTPClient != nil:
		clone := *options.HTTPClient
		if timeout > 0 && clone.Timeout == 0 {
			clone.Timeout = timeout
		}
		httpClient = &clone
	case options.AllowHTTPFallback:
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Loader{
		fs:        options.FileSystem,
		http:      httpClient,
		allowHTTP: httpClient != nil,
		timeout:   timeout,
	}
}

// Load reads the source and wraps the payload in a schema.Document.
func (l *Loader) Load(ctx context.Context, src schema.Source) (schema.Document, error) {
	if src == nil {
		return schema.Document{}, errors.New("loader: source is nil")
	}

	var (
		data []byte
		err  error
	)
	switch src.Kind() {
	case schema.SourceKindFile:
		data, err = loadFile(ctx, src.Location())
	case schema.SourceKindFS:
		data, err = loadFromFS(ctx, l.fs, src.Location())
	case schema.SourceKindURL:
		if !l.allowHTTP {
			return schema.Document{}, errors.New("loader: http support disabled")
		}
		data, err = loadHTTP(ctx, l.http, src.Location(), l.timeout)
	default:
		err = fmt.Errorf("loader: unsupported source kind %q", src.Kind())
	}
	if err != nil {
		return schema.Document{}, fmt.Errorf("loader: %s: %w", src.Location(), err)
	}

	return schema.NewDocument(src, data)
}

// LoadForms loads the source, checks it against the wire contract when it is
// JSON, and returns the validated forms.
func (l *Loader) LoadForms(ctx context.Context, src schema.Source) ([]schema.FormSchema, error) {
	doc, err := l.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	if doc.Format() == schema.FormatJSON {
		issues, err := schema.CheckPayload(doc.Raw())
		if err != nil {
			return nil, err
		}
		if len(issues) > 0 {
			return nil, &schema.ValidationError{FormID: doc.Location(), Issues: issues}
		}
	}
	forms, err := doc.Forms()
	if err != nil {
		return nil, err
	}
	for _, form := range forms {
		if err := schema.Validate(form); err != nil {
			return nil, err
		}
	}
	return forms, nil
}
