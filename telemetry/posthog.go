package telemetry

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/posthog/posthog-go"
)

// DefaultPostHogEndpoint is used when no endpoint is configured.
const DefaultPostHogEndpoint = "https://us.i.posthog.com"

// Enqueuer is the part of posthog.Client used by PostHogSink.
type Enqueuer interface {
	Enqueue(posthog.Message) error
	Close() error
}

// ClientProvider builds the PostHog client. Tests replace it.
type ClientProvider func(token string, config posthog.Config) (Enqueuer, error)

// PosthogClientProvider is the default ClientProvider.
func PosthogClientProvider(token string, config posthog.Config) (Enqueuer, error) {
	return posthog.NewWithConfig(token, config)
}

// PostHogSink sends events as PostHog captures.
type PostHogSink struct {
	client     Enqueuer
	distinctID string
}

type postHogConfig struct {
	endpoint   string
	distinctID string
	logger     Logger
	provider   ClientProvider
}

// PostHogOption configures a PostHogSink.
type PostHogOption func(*postHogConfig) error

// WithPostHogEndpoint overrides DefaultPostHogEndpoint.
func WithPostHogEndpoint(endpoint string) PostHogOption {
	return func(c *postHogConfig) error {
		if endpoint == "" {
			return errors.New("posthog endpoint cannot be empty")
		}
		c.endpoint = endpoint
		return nil
	}
}

// WithDistinctID sets the anonymous id events are attributed to.
func WithDistinctID(id string) PostHogOption {
	return func(c *postHogConfig) error {
		if id == "" {
			return errors.New("distinct id cannot be empty")
		}
		c.distinctID = id
		return nil
	}
}

// WithPostHogLogger routes client diagnostics to logger.
func WithPostHogLogger(logger Logger) PostHogOption {
	return func(c *postHogConfig) error {
		if logger == nil {
			return ErrLoggerNil
		}
		c.logger = logger
		return nil
	}
}

// WithClientProvider replaces PosthogClientProvider.
func WithClientProvider(provider ClientProvider) PostHogOption {
	return func(c *postHogConfig) error {
		if provider == nil {
			return errors.New("client provider cannot be nil")
		}
		c.provider = provider
		return nil
	}
}

// NewPostHogSink creates the client and returns a sink backed by it.
func NewPostHogSink(token string, opts ...PostHogOption) (*PostHogSink, error) {
	if token == "" {
		return nil, errors.New("posthog token cannot be empty")
	}

	c := &postHogConfig{
		endpoint: DefaultPostHogEndpoint,
		logger:   noopLogger{},
		provider: PosthogClientProvider,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	if c.distinctID == "" {
		c.distinctID = uuid.New().String()
	}

	client, err := c.provider(token, posthog.Config{
		Endpoint: c.endpoint,
		Logger:   &posthogLogger{logger: c.logger},
	})
	if err != nil {
		return nil, fmt.Errorf("could not create posthog client: %w", err)
	}

	return &PostHogSink{client: client, distinctID: c.distinctID}, nil
}

// Send enqueues the event on the PostHog client, which batches and ships it.
func (s *PostHogSink) Send(_ context.Context, event Event) error {
	properties := posthog.NewProperties()
	for _, k := range event.SortedKeys() {
		properties.Set(k, event.Properties[k])
	}

	return s.client.Enqueue(posthog.Capture{
		DistinctId: s.distinctID,
		Event:      event.Name,
		Properties: properties,
		Timestamp:  event.Timestamp,
	})
}

// Close flushes pending captures.
func (s *PostHogSink) Close() error {
	return s.client.Close()
}

// posthogLogger adapts Logger to posthog.Logger. Client errors are logged
// at debug level so an unreachable endpoint stays quiet.
type posthogLogger struct {
	logger Logger
}

func (l *posthogLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf("posthog: "+format, args...)
}

func (l *posthogLogger) Logf(format string, args ...interface{}) {
	l.logger.Debugf("posthog: "+format, args...)
}

func (l *posthogLogger) Warnf(format string, args ...interface{}) {
	l.logger.Debugf("posthog: "+format, args...)
}

func (l *posthogLogger) Errorf(format string, args ...interface{}) {
	l.logger.Debugf("posthog: "+format, args...)
}
