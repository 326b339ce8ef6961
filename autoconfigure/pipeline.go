package autoconfigure

import (
	"errors"
	"net/http"
	"sync"

	aadfilter "github.com/aadauth/go-aad-filter"
)

var (
	// ErrPipelineFilterNil is returned by Install when given a nil filter.
	ErrPipelineFilterNil = errors.New("cannot install a nil filter")
	// ErrFilterInstalled is returned by Install when the pipeline already
	// carries a filter.
	ErrFilterInstalled = errors.New("pipeline already has an aad filter installed")
)

// Pipeline is a hosting request pipeline that accepts the registered filter.
type Pipeline interface {
	Install(f *aadfilter.Filter) error
}

// PipelineFunc adapts a function to Pipeline.
type PipelineFunc func(f *aadfilter.Filter) error

func (fn PipelineFunc) Install(f *aadfilter.Filter) error {
	return fn(f)
}

// HTTPPipeline is a net/http handler whose requests go through the filter
// once one is installed. Before that it serves next directly.
type HTTPPipeline struct {
	next http.Handler

	mu      sync.RWMutex
	handler http.Handler
}

// NewHTTPPipeline returns a pipeline in front of next.
func NewHTTPPipeline(next http.Handler) *HTTPPipeline {
	return &HTTPPipeline{next: next}
}

func (p *HTTPPipeline) Install(f *aadfilter.Filter) error {
	if f == nil {
		return ErrPipelineFilterNil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.handler != nil {
		return ErrFilterInstalled
	}
	p.handler = f.Handler(p.next)
	return nil
}

// Installed reports whether a filter is in place.
func (p *HTTPPipeline) Installed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.handler != nil
}

func (p *HTTPPipeline) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.RLock()
	h := p.handler
	p.mu.RUnlock()

	if h == nil {
		h = p.next
	}
	h.ServeHTTP(w, r)
}
