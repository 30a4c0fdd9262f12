// Package pdf materializes backend resource files as local PDF handles for
// preview. A handle is a private temp file; releasing the handle deletes it.
package pdf

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/ledongthuc/pdf"

	"github.com/comigor/jack-go/internal/config"
	"github.com/comigor/jack-go/internal/logger"
	"github.com/comigor/jack-go/pkg/gateway"
)

// Fetcher downloads a resource file by id.
type Fetcher interface {
	FetchResource(ctx context.Context, id string, limit int64) (*gateway.Resource, error)
}

// LoadError is shown in place of a preview that could not be loaded.
type LoadError struct {
	ResourceID string
	Status     int
	Err        error
}

func (e *LoadError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("could not download PDF (%d)", e.Status)
	}
	return fmt.Sprintf("could not load PDF: %v", e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Handle is a locally addressable copy of a resource.
type Handle struct {
	ResourceID string
	Path       string
	Size       int64
	// Pages is 0 when the payload could not be parsed as a PDF.
	Pages int

	released atomic.Bool
}

// URL returns a file:// URL for the handle, suitable for an external viewer.
func (h *Handle) URL() string {
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(h.Path)}).String()
}

// Release deletes the local copy. It is safe to call more than once.
func (h *Handle) Release() error {
	if !h.released.CompareAndSwap(false, true) {
		return nil
	}
	if err := os.Remove(h.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("release %s: %w", h.ResourceID, err)
	}
	return nil
}

// Released reports whether Release has been called.
func (h *Handle) Released() bool { return h.released.Load() }

// Loader fetches resources and writes them to handles.
type Loader struct {
	fetcher  Fetcher
	dir      string
	maxBytes int64
}

// NewLoader creates a Loader writing handles under cfg.Dir.
func NewLoader(f Fetcher, cfg config.ResourcesConfig) (*Loader, error) {
	maxBytes, err := cfg.MaxBytes()
	if err != nil {
		return nil, err
	}
	return &Loader{fetcher: f, dir: cfg.Dir, maxBytes: maxBytes}, nil
}

// Load downloads resource id into a new Handle owned by the caller.
func (l *Loader) Load(ctx context.Context, id string) (*Handle, error) {
	res, err := l.fetcher.FetchResource(ctx, id, l.maxBytes)
	if err != nil {
		loadErr := &LoadError{ResourceID: id, Err: err}
		var gwErr *gateway.Error
		if errors.As(err, &gwErr) && gwErr.Kind == gateway.KindBackend {
			loadErr.Status = gwErr.Status
		}
		logger.L.Warn("pdf fetch failed", "resource", id, "error", err)
		return nil, loadErr
	}

	f, err := os.CreateTemp(l.dir, "jack-*.pdf")
	if err != nil {
		return nil, &LoadError{ResourceID: id, Err: err}
	}
	path := f.Name()
	if _, err := f.Write(res.Data); err != nil {
		f.Close()
		os.Remove(path)
		return nil, &LoadError{ResourceID: id, Err: err}
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return nil, &LoadError{ResourceID: id, Err: err}
	}

	h := &Handle{
		ResourceID: id,
		Path:       path,
		Size:       int64(len(res.Data)),
		Pages:      countPages(res.Data),
	}
	logger.L.Debug("pdf loaded", "resource", id, "path", path, "bytes", h.Size, "pages", h.Pages, "content_type", res.ContentType)
	return h, nil
}

// countPages returns the page count, or 0 for anything the parser rejects.
func countPages(data []byte) (n int) {
	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			logger.L.Debug("pdf parser panic", "panic", r)
			n = 0
		}
	}()
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		logger.L.Debug("payload is not a readable pdf", "error", err)
		return 0
	}
	return r.NumPage()
}
