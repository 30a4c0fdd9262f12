package pdf

import (
	"context"
	"errors"
	"sync"

	"github.com/comigor/jack-go/internal/logger"
)

var (
	// ErrClosed is returned by Show after Close.
	ErrClosed = errors.New("preview closed")
	// ErrSuperseded is returned by a Show whose id was replaced while loading.
	ErrSuperseded = errors.New("preview superseded")
)

// Preview owns at most one Handle for the lifetime of a displayed source
// card. Showing a different resource releases the previous handle, and Close
// releases whatever is held.
type Preview struct {
	loader *Loader

	mu     sync.Mutex
	id     string
	handle *Handle
	err    error
	closed bool
}

// NewPreview creates an empty Preview.
func NewPreview(l *Loader) *Preview {
	return &Preview{loader: l}
}

// Show loads resource id unless it is already held. Safe to call from a
// goroutine other than the one that reads State.
func (p *Preview) Show(ctx context.Context, id string) (*Handle, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	if p.id == id && p.handle != nil {
		h := p.handle
		p.mu.Unlock()
		return h, nil
	}
	p.releaseLocked()
	p.id = id
	p.err = nil
	p.mu.Unlock()

	h, err := p.loader.Load(ctx, id)

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.id != id {
		if h != nil {
			h.Release()
		}
		if p.closed {
			return nil, ErrClosed
		}
		return nil, ErrSuperseded
	}
	p.handle, p.err = h, err
	return h, err
}

// State returns the resource id, the loaded handle and the load error. Both
// handle and error are nil while a load is in progress.
func (p *Preview) State() (id string, h *Handle, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.id, p.handle, p.err
}

// Close releases the held handle. Further Show calls fail with ErrClosed.
func (p *Preview) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.releaseLocked()
}

func (p *Preview) releaseLocked() {
	if p.handle == nil {
		return
	}
	if err := p.handle.Release(); err != nil {
		logger.L.Warn("pdf release failed", "error", err)
	}
	p.handle = nil
}
