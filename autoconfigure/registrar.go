// Package autoconfigure registers the AAD authentication filter when the
// application is configured for it.
//
// Registration is conditional. The filter is built only when the process
// hosts a web application, both azure.activedirectory.client-id and
// azure.activedirectory.client-secret are set, and no filter has been
// registered yet. Otherwise registration is skipped silently: nothing is
// built and no telemetry is sent.
package autoconfigure

import (
	"errors"
	"fmt"

	aadfilter "github.com/aadauth/go-aad-filter"
	"github.com/aadauth/go-aad-filter/config"
	"github.com/aadauth/go-aad-filter/telemetry"
)

// Environment describes the hosting process.
type Environment struct {
	// WebApplication is true when the process serves HTTP requests.
	WebApplication bool
}

// AuthFilterAutoConfig is the conditional registrar for the AAD
// authentication filter.
type AuthFilterAutoConfig struct {
	logger     aadfilter.Logger
	tracker    telemetry.Tracker
	sink       telemetry.Sink
	pipelines  []Pipeline
	filterOpts []aadfilter.Option
	slot       *Slot
	namespace  string
}

// Option configures the AuthFilterAutoConfig.
type Option func(*AuthFilterAutoConfig) error

var (
	ErrLoggerNil   = errors.New("logger cannot be nil")
	ErrTrackerNil  = errors.New("telemetry tracker cannot be nil")
	ErrSinkNil     = errors.New("telemetry sink cannot be nil")
	ErrPipelineNil = errors.New("pipeline cannot be nil")
	ErrSlotNil     = errors.New("slot cannot be nil")
)

// WithLogger sets the logger for the registrar. Filters it builds get the
// same logger unless WithFilterOptions overrides it.
//
// Default: aadfilter.DefaultLogger()
func WithLogger(logger aadfilter.Logger) Option {
	return func(c *AuthFilterAutoConfig) error {
		if logger == nil {
			return ErrLoggerNil
		}
		c.logger = logger
		return nil
	}
}

// WithTelemetry sets the tracker that receives the construction event.
//
// Default: telemetry.Discard
func WithTelemetry(tracker telemetry.Tracker) Option {
	return func(c *AuthFilterAutoConfig) error {
		if tracker == nil {
			return ErrTrackerNil
		}
		c.tracker = tracker
		return nil
	}
}

// WithTelemetrySink sets the sink Bootstrap uses when telemetry is allowed.
// It has no effect on a registrar built with New.
//
// Default: a telemetry.LogSink on the logrus standard logger
func WithTelemetrySink(sink telemetry.Sink) Option {
	return func(c *AuthFilterAutoConfig) error {
		if sink == nil {
			return ErrSinkNil
		}
		c.sink = sink
		return nil
	}
}

// WithPipelines adds pipelines that receive the filter once it is built.
func WithPipelines(pipelines ...Pipeline) Option {
	return func(c *AuthFilterAutoConfig) error {
		for _, p := range pipelines {
			if p == nil {
				return ErrPipelineNil
			}
		}
		c.pipelines = append(c.pipelines, pipelines...)
		return nil
	}
}

// WithFilterOptions adds options passed to aadfilter.New.
func WithFilterOptions(opts ...aadfilter.Option) Option {
	return func(c *AuthFilterAutoConfig) error {
		c.filterOpts = append(c.filterOpts, opts...)
		return nil
	}
}

// WithSlot sets the slot that guards against a second registration.
//
// Default: DefaultSlot
func WithSlot(slot *Slot) Option {
	return func(c *AuthFilterAutoConfig) error {
		if slot == nil {
			return ErrSlotNil
		}
		c.slot = slot
		return nil
	}
}

// New builds a registrar.
func New(opts ...Option) (*AuthFilterAutoConfig, error) {
	c := &AuthFilterAutoConfig{
		logger:    aadfilter.DefaultLogger(),
		tracker:   telemetry.Discard,
		slot:      DefaultSlot,
		namespace: namespace,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	return c, nil
}

// TryRegister builds a registrar on slot and runs ProvideAuthFilter.
func TryRegister(env Environment, props *config.FilterProperties, endpoints *config.ServiceEndpoints, slot *Slot, opts ...Option) (*aadfilter.Filter, error) {
	c, err := New(append(append([]Option(nil), opts...), WithSlot(slot))...)
	if err != nil {
		return nil, err
	}
	return c.ProvideAuthFilter(env, props, endpoints)
}

// ProvideAuthFilter builds and registers the filter when every condition
// holds. A skipped registration returns (nil, nil).
//
// Exactly one telemetry event is tracked per construction, before the
// filter is built. Construction errors are returned unchanged and leave the
// slot empty. If a pipeline rejects the filter, the filter stays registered
// and is returned together with the error.
func (c *AuthFilterAutoConfig) ProvideAuthFilter(env Environment, props *config.FilterProperties, endpoints *config.ServiceEndpoints) (*aadfilter.Filter, error) {
	if !env.WebApplication {
		c.logger.Debugf("aad filter not registered: not a web application")
		return nil, nil
	}
	if props == nil || !config.IsPresent(props.ClientID) || !config.IsPresent(props.ClientSecret) {
		c.logger.Debugf("aad filter not registered: %s.%s and %s.%s must both be set",
			config.Prefix, config.KeyClientID, config.Prefix, config.KeyClientSecret)
		return nil, nil
	}
	if _, ok := c.slot.Get(); ok {
		c.logger.Debugf("aad filter not registered: a filter is already registered")
		return nil, nil
	}

	f, created, err := c.slot.GetOrCreate(func() (*aadfilter.Filter, error) {
		c.trackEvent()
		c.logger.Infof("constructing aad authentication filter")

		opts := append([]aadfilter.Option{aadfilter.WithLogger(c.logger)}, c.filterOpts...)
		return aadfilter.New(props, endpoints, opts...)
	})
	if err != nil {
		return nil, err
	}
	if !created {
		c.logger.Debugf("aad filter not registered: a filter is already registered")
		return nil, nil
	}

	for _, p := range c.pipelines {
		if err := p.Install(f); err != nil {
			return f, fmt.Errorf("could not install aad filter: %w", err)
		}
	}

	return f, nil
}

// trackEvent never lets a tracker failure reach the caller.
func (c *AuthFilterAutoConfig) trackEvent() {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warnf("telemetry: tracker panicked on event %q: %v", EventName, r)
		}
	}()

	c.tracker.TrackEvent(EventName, eventProperties(c.namespace))
}
