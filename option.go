package aadfilter

import (
	"errors"
	"net/http"
	"strings"
)

// Option configures the Filter.
// Returns error for validation failures.
type Option func(*Filter) error

// WithValidator sets the collaborator that validates AAD tokens. Either this
// or WithValidatorFactory is required.
//
// Example:
//
//	filter, err := aadfilter.New(props, endpoints,
//	    aadfilter.WithValidator(aadfilter.TokenValidatorFunc(validate)),
//	)
func WithValidator(v TokenValidator) Option {
	return func(f *Filter) error {
		if v == nil {
			return ErrValidatorNil
		}
		f.validator = v
		return nil
	}
}

// WithValidatorFactory defers validator construction until the filter has
// resolved its endpoint set. The factory receives a copy of the properties
// and the endpoints for the configured environment. It is ignored when
// WithValidator is also given.
func WithValidatorFactory(factory ValidatorFactory) Option {
	return func(f *Filter) error {
		if factory == nil {
			return ErrValidatorFactoryNil
		}
		f.validatorFactory = factory
		return nil
	}
}

// WithCredentialsOptional sets whether a request without a token is passed
// through unauthenticated.
//
// Default: true
func WithCredentialsOptional(value bool) Option {
	return func(f *Filter) error {
		f.credentialsOptional = value
		return nil
	}
}

// WithValidateOnOptions sets whether OPTIONS requests have their token validated.
//
// Default: true
func WithValidateOnOptions(value bool) Option {
	return func(f *Filter) error {
		f.validateOnOptions = value
		return nil
	}
}

// WithErrorHandler sets the handler called when the filter rejects a request.
//
// Default: DefaultErrorHandler
func WithErrorHandler(h ErrorHandler) Option {
	return func(f *Filter) error {
		if h == nil {
			return ErrErrorHandlerNil
		}
		f.errorHandler = h
		return nil
	}
}

// WithTokenExtractor sets the function to extract the token from the request.
//
// Default: AuthHeaderTokenExtractor
func WithTokenExtractor(e TokenExtractor) Option {
	return func(f *Filter) error {
		if e == nil {
			return ErrTokenExtractorNil
		}
		f.tokenExtractor = e
		return nil
	}
}

// WithExclusionUrls configures URLs that skip token validation. Entries
// match the full request URL or its path; an entry ending in "/*" matches
// every path below that prefix.
func WithExclusionUrls(exclusions []string) Option {
	return func(f *Filter) error {
		if len(exclusions) == 0 {
			return ErrExclusionUrlsEmpty
		}
		f.excluded = func(r *http.Request) bool {
			requestFullURL := r.URL.String()
			requestPath := r.URL.Path

			for _, exclusion := range exclusions {
				if requestFullURL == exclusion || requestPath == exclusion {
					return true
				}
				if prefix, ok := strings.CutSuffix(exclusion, "/*"); ok && strings.HasPrefix(requestPath, prefix+"/") {
					return true
				}
			}
			return false
		}
		return nil
	}
}

// WithLogger sets the logger for the filter.
//
// Default: DefaultLogger()
func WithLogger(logger Logger) Option {
	return func(f *Filter) error {
		if logger == nil {
			return ErrLoggerNil
		}
		f.logger = logger
		return nil
	}
}

// WithMetrics sets the metrics recorder.
//
// Default: NoopMetrics
func WithMetrics(m Metrics) Option {
	return func(f *Filter) error {
		if m == nil {
			return ErrMetricsNil
		}
		f.metrics = m
		return nil
	}
}

// WithTracer sets the tracer.
//
// Default: NoopTracer
func WithTracer(t Tracer) Option {
	return func(f *Filter) error {
		if t == nil {
			return ErrTracerNil
		}
		f.tracer = t
		return nil
	}
}

// Sentinel errors for configuration validation
var (
	ErrPropertiesNil       = errors.New("filter properties cannot be nil")
	ErrValidatorNil        = errors.New("validator cannot be nil (use WithValidator or WithValidatorFactory)")
	ErrValidatorFactoryNil = errors.New("validator factory cannot be nil")
	ErrErrorHandlerNil     = errors.New("errorHandler cannot be nil")
	ErrTokenExtractorNil   = errors.New("tokenExtractor cannot be nil")
	ErrExclusionUrlsEmpty  = errors.New("exclusion URLs list cannot be empty")
	ErrLoggerNil           = errors.New("logger cannot be nil")
	ErrMetricsNil          = errors.New("metrics cannot be nil")
	ErrTracerNil           = errors.New("tracer cannot be nil")
)
