package aadfilter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aadauth/go-aad-filter/config"
)

// TokenValidator validates a raw AAD access token and returns the principal
// it identifies. Parsing, signature checks and key discovery all live
// behind this interface.
type TokenValidator interface {
	ValidateToken(ctx context.Context, token string) (*UserPrincipal, error)
}

// TokenValidatorFunc adapts a function to TokenValidator.
type TokenValidatorFunc func(ctx context.Context, token string) (*UserPrincipal, error)

func (fn TokenValidatorFunc) ValidateToken(ctx context.Context, token string) (*UserPrincipal, error) {
	return fn(ctx, token)
}

// ValidatorFactory builds a TokenValidator from the resolved configuration.
type ValidatorFactory func(props config.FilterProperties, endpoints config.Endpoints) (TokenValidator, error)

// ErrTokenTooLarge is wrapped by the invalid-token error when a token is
// longer than the configured jwt-size-limit.
var ErrTokenTooLarge = errors.New("token exceeds the configured size limit")

// Filter authenticates requests carrying an AAD bearer token. It is
// immutable after New and safe for concurrent use.
type Filter struct {
	props     config.FilterProperties
	endpoints config.Endpoints

	validator           TokenValidator
	validatorFactory    ValidatorFactory
	credentialsOptional bool
	validateOnOptions   bool
	errorHandler        ErrorHandler
	tokenExtractor      TokenExtractor
	excluded            func(r *http.Request) bool
	logger              Logger
	metrics             Metrics
	tracer              Tracer
}

// New constructs a Filter from the filter properties and the service
// endpoints. A nil endpoints argument uses config.DefaultServiceEndpoints.
//
// Example:
//
//	filter, err := aadfilter.New(&props, &endpoints,
//	    aadfilter.WithValidator(myValidator),
//	    aadfilter.WithCredentialsOptional(false),
//	)
//	if err != nil {
//	    log.Fatalf("failed to create filter: %v", err)
//	}
func New(props *config.FilterProperties, endpoints *config.ServiceEndpoints, opts ...Option) (*Filter, error) {
	if props == nil {
		return nil, ErrPropertiesNil
	}
	if err := props.Validate(); err != nil {
		return nil, fmt.Errorf("invalid filter properties: %w", err)
	}

	if endpoints == nil {
		defaults := config.DefaultServiceEndpoints()
		endpoints = &defaults
	}
	resolved, err := endpoints.For(props.Environment)
	if err != nil {
		return nil, err
	}

	f := &Filter{
		props:     *props,
		endpoints: resolved,
		// Anonymous requests pass through unless the caller opts in to
		// mandatory credentials.
		credentialsOptional: true,
		validateOnOptions:   true,
	}
	f.props.UserGroup.AllowedGroups = append([]string(nil), props.UserGroup.AllowedGroups...)

	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}

	if f.validator == nil && f.validatorFactory != nil {
		v, err := f.validatorFactory(f.props, f.endpoints)
		if err != nil {
			return nil, fmt.Errorf("could not create token validator: %w", err)
		}
		f.validator = v
	}
	if f.validator == nil {
		return nil, ErrValidatorNil
	}

	f.applyDefaults()
	f.logger.Debugf("aad filter constructed for client %q in environment %q", f.props.ClientID, f.props.Environment)

	return f, nil
}

func (f *Filter) applyDefaults() {
	if f.errorHandler == nil {
		f.errorHandler = DefaultErrorHandler
	}
	if f.tokenExtractor == nil {
		f.tokenExtractor = AuthHeaderTokenExtractor
	}
	if f.excluded == nil {
		f.excluded = func(*http.Request) bool { return false }
	}
	if f.logger == nil {
		f.logger = DefaultLogger()
	}
	if f.metrics == nil {
		f.metrics = NoopMetrics{}
	}
	if f.tracer == nil {
		f.tracer = NoopTracer{}
	}
}

// Properties returns a copy of the properties the filter was built from.
func (f *Filter) Properties() config.FilterProperties {
	p := f.props
	p.UserGroup.AllowedGroups = append([]string(nil), f.props.UserGroup.AllowedGroups...)
	return p
}

// Endpoints returns the endpoint set resolved for the configured environment.
func (f *Filter) Endpoints() config.Endpoints {
	return f.endpoints
}

// CheckToken validates token and applies group authorization. An empty
// token yields (nil, nil) when credentials are optional and ErrTokenMissing
// otherwise. Validator failures match ErrTokenInvalid.
func (f *Filter) CheckToken(ctx context.Context, token string) (*UserPrincipal, error) {
	ctx, span := f.tracer.StartSpan(ctx, "aadfilter.CheckToken")
	defer span.Finish()

	p, err := f.checkToken(ctx, token)

	result := resultOf(p, err)
	span.SetTag("result", result)
	if err != nil {
		span.SetError(err)
	}
	f.metrics.IncCounter(MetricRequests, map[string]string{"result": result})

	return p, err
}

func (f *Filter) checkToken(ctx context.Context, token string) (*UserPrincipal, error) {
	if token == "" {
		if f.credentialsOptional {
			f.logger.Debugf("no token in request, continuing without authentication")
			return nil, nil
		}
		f.logger.Warnf("no token in request and credentials are required")
		return nil, ErrTokenMissing
	}

	if limit := f.props.JWTSizeLimit; limit > 0 && len(token) > limit {
		return nil, invalidError{details: fmt.Errorf("%w: %d > %d", ErrTokenTooLarge, len(token), limit)}
	}

	start := time.Now()
	p, err := f.validator.ValidateToken(ctx, token)
	f.metrics.ObserveHistogram(MetricValidationSeconds, time.Since(start).Seconds(), map[string]string{})
	if err != nil {
		f.logger.Warnf("token validation failed: %v", err)
		return nil, invalidError{details: err}
	}
	if p == nil {
		return nil, invalidError{details: errors.New("validator returned no principal")}
	}

	if groups := f.props.UserGroup.AllowedGroups; len(groups) > 0 && !p.IsMemberOfAny(groups) {
		f.logger.Warnf("principal %q is not a member of any allowed group", p.Identity())
		return nil, fmt.Errorf("%w: %s", ErrGroupDenied, p.Identity())
	}

	f.logger.Debugf("authenticated principal %q", p.Identity())
	return p, nil
}

func resultOf(p *UserPrincipal, err error) string {
	switch {
	case errors.Is(err, ErrTokenMissing):
		return "missing"
	case errors.Is(err, ErrTokenInvalid):
		return "invalid"
	case errors.Is(err, ErrGroupDenied):
		return "denied"
	case err != nil:
		return "error"
	case p == nil:
		return "anonymous"
	default:
		return "authenticated"
	}
}

// Authenticate runs the filter against r without writing a response. It
// returns (nil, nil) when the request is let through unauthenticated:
// skipped OPTIONS, excluded URLs and optional credentials. Framework
// adapters use it to render errors their own way.
func (f *Filter) Authenticate(r *http.Request) (*UserPrincipal, error) {
	if !f.validateOnOptions && r.Method == http.MethodOptions {
		return nil, nil
	}

	if f.excluded(r) {
		f.logger.Debugf("skipping token validation for excluded URL %s", r.URL.Path)
		return nil, nil
	}

	token, err := f.tokenExtractor(r)
	if err != nil {
		f.logger.Warnf("could not extract token: %v", err)
		return nil, invalidError{details: fmt.Errorf("error extracting token: %w", err)}
	}

	return f.CheckToken(r.Context(), token)
}

// Handler wraps next with AAD token authentication. On success the
// principal is stored in the request context; see PrincipalFromContext.
func (f *Filter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := f.Authenticate(r)
		if err != nil {
			f.errorHandler(w, r, err)
			return
		}

		if p != nil {
			r = r.Clone(WithPrincipal(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}

// HandlerFunc is a convenience wrapper around Handler.
func (f *Filter) HandlerFunc(next http.HandlerFunc) http.Handler {
	return f.Handler(next)
}
