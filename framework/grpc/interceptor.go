// Package aadgrpc installs the registered AAD filter into a gRPC server as
// unary and stream interceptors.
package aadgrpc

import (
	"context"
	"errors"
	"sync"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	aadfilter "github.com/aadauth/go-aad-filter"
	"github.com/aadauth/go-aad-filter/autoconfigure"
)

// Pipeline is an autoconfigure.Pipeline for gRPC. Register its
// interceptors when building the server; calls pass through untouched
// until a filter is installed.
type Pipeline struct {
	tokenExtractor TokenExtractor
	excluded       func(method string) bool
	errorHandler   func(ctx context.Context, err error) error

	mu     sync.RWMutex
	filter *aadfilter.Filter
}

var _ autoconfigure.Pipeline = (*Pipeline)(nil)

// New creates a gRPC pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		tokenExtractor: MetadataTokenExtractor,
		excluded:       func(string) bool { return false },
		errorHandler:   DefaultErrorHandler,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Pipeline) Install(f *aadfilter.Filter) error {
	if f == nil {
		return autoconfigure.ErrPipelineFilterNil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.filter != nil {
		return autoconfigure.ErrFilterInstalled
	}
	p.filter = f
	return nil
}

// DefaultErrorHandler maps filter errors to gRPC status codes: missing and
// invalid tokens are Unauthenticated, group denial is PermissionDenied and
// anything else is Internal.
func DefaultErrorHandler(_ context.Context, err error) error {
	_, message := aadfilter.ErrorResponse(err)

	switch {
	case errors.Is(err, aadfilter.ErrTokenMissing), errors.Is(err, aadfilter.ErrTokenInvalid):
		return status.Error(codes.Unauthenticated, message)
	case errors.Is(err, aadfilter.ErrGroupDenied):
		return status.Error(codes.PermissionDenied, message)
	default:
		return status.Error(codes.Internal, message)
	}
}

// authenticate returns ctx carrying the principal, or ctx unchanged for
// calls let through unauthenticated.
func (p *Pipeline) authenticate(ctx context.Context, method string) (context.Context, error) {
	p.mu.RLock()
	f := p.filter
	p.mu.RUnlock()

	if f == nil || p.excluded(method) {
		return ctx, nil
	}

	token, err := p.tokenExtractor(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Unauthenticated, "error extracting token: %v", err)
	}

	principal, err := f.CheckToken(ctx, token)
	if err != nil {
		return nil, p.errorHandler(ctx, err)
	}
	if principal == nil {
		return ctx, nil
	}

	return aadfilter.WithPrincipal(ctx, principal), nil
}

// UnaryServerInterceptor returns a gRPC unary server interceptor.
func (p *Pipeline) UnaryServerInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		authCtx, err := p.authenticate(ctx, info.FullMethod)
		if err != nil {
			return nil, err
		}
		return handler(authCtx, req)
	}
}

// StreamServerInterceptor returns a gRPC stream server interceptor.
func (p *Pipeline) StreamServerInterceptor() grpc.StreamServerInterceptor {
	return func(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
		authCtx, err := p.authenticate(ss.Context(), info.FullMethod)
		if err != nil {
			return err
		}

		return handler(srv, &wrappedServerStream{ServerStream: ss, ctx: authCtx})
	}
}

// wrappedServerStream wraps a grpc.ServerStream to override the context.
type wrappedServerStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (w *wrappedServerStream) Context() context.Context {
	return w.ctx
}
