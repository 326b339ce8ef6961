package aadgrpc

import (
	"context"
)

// Option defines a functional option for configuring the gRPC pipeline.
type Option func(*Pipeline)

// WithErrorHandler sets the function that turns a filter error into the
// error returned to the client.
//
// Default: DefaultErrorHandler
func WithErrorHandler(handler func(ctx context.Context, err error) error) Option {
	return func(p *Pipeline) {
		p.errorHandler = handler
	}
}

// WithTokenExtractor sets a custom token extractor.
//
// Default: MetadataTokenExtractor
func WithTokenExtractor(extractor TokenExtractor) Option {
	return func(p *Pipeline) {
		p.tokenExtractor = extractor
	}
}

// WithExcludedMethods lists full method names that skip authentication.
func WithExcludedMethods(methods []string) Option {
	methodSet := make(map[string]struct{}, len(methods))
	for _, m := range methods {
		methodSet[m] = struct{}{}
	}
	return func(p *Pipeline) {
		p.excluded = func(method string) bool {
			_, ok := methodSet[method]
			return ok
		}
	}
}

// WithExclusionChecker allows configuring a custom exclusion checker for gRPC methods.
func WithExclusionChecker(checker func(string) bool) Option {
	return func(p *Pipeline) {
		p.excluded = checker
	}
}
