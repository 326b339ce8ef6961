package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/aadauth/go-aad-filter/internal/version"
)

const (
	defaultBufferSize  = 64
	defaultSendTimeout = 5 * time.Second
)

var (
	ErrSinkNil        = errors.New("sink cannot be nil when telemetry is allowed")
	ErrLoggerNil      = errors.New("logger cannot be nil")
	ErrBufferSize     = errors.New("buffer size must be positive")
	ErrSendTimeout    = errors.New("send timeout must be positive")
	ErrInstallationID = errors.New("installation id cannot be empty")
	ErrProxyClosed    = errors.New("telemetry proxy is closed")
)

// Proxy is a Tracker that forwards events to a Sink from a background
// goroutine. When telemetry is not allowed it does nothing at all.
type Proxy struct {
	allow       bool
	sink        Sink
	logger      Logger
	common      map[string]string
	bufferSize  int
	sendTimeout time.Duration
	now         func() time.Time

	mu      sync.RWMutex
	closed  bool
	queue   chan queued
	done    chan struct{}
	dropped atomic.Uint64
}

type queued struct {
	event   Event
	flushed chan struct{}
}

// ProxyOption configures a Proxy.
type ProxyOption func(*Proxy) error

// WithLogger sets the logger used to report dropped or failed events.
func WithLogger(logger Logger) ProxyOption {
	return func(p *Proxy) error {
		if logger == nil {
			return ErrLoggerNil
		}
		p.logger = logger
		return nil
	}
}

// WithBufferSize sets how many events may wait for delivery before new
// ones are dropped. Default: 64.
func WithBufferSize(n int) ProxyOption {
	return func(p *Proxy) error {
		if n <= 0 {
			return ErrBufferSize
		}
		p.bufferSize = n
		return nil
	}
}

// WithSendTimeout bounds each Sink.Send call. Default: 5s.
func WithSendTimeout(d time.Duration) ProxyOption {
	return func(p *Proxy) error {
		if d <= 0 {
			return ErrSendTimeout
		}
		p.sendTimeout = d
		return nil
	}
}

// WithInstallationID fixes the anonymous installation id. A random UUID is
// used otherwise.
func WithInstallationID(id string) ProxyOption {
	return func(p *Proxy) error {
		if id == "" {
			return ErrInstallationID
		}
		p.common[InstallationIDKey] = id
		return nil
	}
}

// WithCommonProperty adds a property to every event.
func WithCommonProperty(key, value string) ProxyOption {
	return func(p *Proxy) error {
		p.common[key] = value
		return nil
	}
}

// NewProxy builds a Proxy. With allow set to false the sink is ignored and
// may be nil.
func NewProxy(allow bool, sink Sink, opts ...ProxyOption) (*Proxy, error) {
	p := &Proxy{
		allow:       allow,
		sink:        sink,
		logger:      noopLogger{},
		bufferSize:  defaultBufferSize,
		sendTimeout: defaultSendTimeout,
		now:         time.Now,
		common: map[string]string{
			VersionKey: version.Current(),
			OSKey:      runtime.GOOS,
			ArchKey:    runtime.GOARCH,
		},
	}

	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if !allow {
		return p, nil
	}
	if sink == nil {
		return nil, ErrSinkNil
	}
	if _, ok := p.common[InstallationIDKey]; !ok {
		p.common[InstallationIDKey] = uuid.New().String()
	}

	p.queue = make(chan queued, p.bufferSize)
	p.done = make(chan struct{})
	go p.run()

	return p, nil
}

// Allowed reports whether events are forwarded.
func (p *Proxy) Allowed() bool {
	return p.allow
}

// Dropped returns how many events were discarded because the buffer was
// full or the proxy was closed.
func (p *Proxy) Dropped() uint64 {
	return p.dropped.Load()
}

// TrackEvent queues an event and returns immediately.
func (p *Proxy) TrackEvent(name string, properties map[string]string) {
	if !p.allow {
		return
	}

	event := Event{
		Name:       name,
		Properties: make(map[string]string, len(p.common)+len(properties)),
		Timestamp:  p.now(),
	}
	for k, v := range p.common {
		event.Properties[k] = v
	}
	for k, v := range properties {
		event.Properties[k] = v
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.dropped.Add(1)
		p.logger.Debugf("telemetry: dropping event %q, proxy closed", name)
		return
	}

	select {
	case p.queue <- queued{event: event}:
	default:
		p.dropped.Add(1)
		p.logger.Warnf("telemetry: dropping event %q, buffer full", name)
	}
}

// Flush waits until every event queued before the call has been handed to
// the sink.
func (p *Proxy) Flush(ctx context.Context) error {
	if !p.allow {
		return nil
	}

	marker := queued{flushed: make(chan struct{})}

	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return ErrProxyClosed
	}
	select {
	case p.queue <- marker:
	case <-ctx.Done():
		p.mu.RUnlock()
		return ctx.Err()
	}
	p.mu.RUnlock()

	select {
	case <-marker.flushed:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting events, drains the queue and closes the sink when
// it implements io.Closer. Close is idempotent.
func (p *Proxy) Close(ctx context.Context) error {
	if !p.allow {
		return nil
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	select {
	case <-p.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	if closer, ok := p.sink.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (p *Proxy) run() {
	defer close(p.done)
	for item := range p.queue {
		if item.flushed != nil {
			close(item.flushed)
			continue
		}
		p.send(item.event)
	}
}

func (p *Proxy) send(event Event) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warnf("telemetry: sink panicked on event %q: %v", event.Name, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), p.sendTimeout)
	defer cancel()

	if err := p.sink.Send(ctx, event); err != nil {
		p.logger.Warnf("telemetry: could not send event %q: %v", event.Name, err)
		return
	}
	p.logger.Debugf("telemetry: sent event %q", event.Name)
}
