package schema

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Source identifies where a form schema document originated so loaders can
// read files, fs.FS entries, or provider URLs behind one interface.
type Source interface {
	Kind() SourceKind
	Location() string
}

// SourceKind enumerates the loader modalities.
type SourceKind string

const (
	SourceKindFile SourceKind = "file"
	SourceKindFS   SourceKind = "fs"
	SourceKindURL  SourceKind = "url"
)

type fileSource struct {
	path string
}

func (s fileSource) Location() string  { return s.path }
func (s fileSource) Kind() SourceKind { return SourceKindFile }

// SourceFromFile returns a Source pointing to a file path.
func SourceFromFile(path string) Source {
	return fileSource{path: filepath.Clean(path)}
}

type fsSource struct {
	name string
}

func (s fsSource) Location() string  { return s.name }
func (s fsSource) Kind() SourceKind { return SourceKindFS }

// SourceFromFS returns a Source identifying a resource inside an fs.FS.
func SourceFromFS(name string) Source {
	return fsSource{name: name}
}

type urlSource struct {
	raw string
}

func (s urlSource) Location() string  { return s.raw }
func (s urlSource) Kind() SourceKind { return SourceKindURL }

// ParseURL validates raw as an absolute URL and returns a Source for it.
func ParseURL(raw string) (Source, error) {
	if raw == "" {
		return nil, errors.New("schema: empty URL source")
	}
	if _, err := url.ParseRequestURI(raw); err != nil {
		return nil, fmt.Errorf("schema: invalid URL %q: %w", raw, err)
	}
	return urlSource{raw: raw}, nil
}

// SourceFromURL is like ParseURL but panics on invalid input. Use it for
// locations fixed in code.
func SourceFromURL(raw string) Source {
	src, err := ParseURL(raw)
	if err != nil {
		panic(err.Error())
	}
	return src
}

// ParseSource picks a file or URL source from a user supplied location.
// It returns a nil Source for blank input.
func ParseSource(raw string) (Source, error) {
	location := strings.TrimSpace(raw)
	if location == "" {
		return nil, nil
	}
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return ParseURL(location)
	}
	return SourceFromFile(location), nil
}
