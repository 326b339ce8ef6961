package aadecho

import (
	"github.com/labstack/echo/v4"
)

// Option is a function that configures the pipeline
type Option func(*Pipeline)

// WithErrorHandler sets a custom error handler. Its return value is
// returned from the middleware.
func WithErrorHandler(handler func(echo.Context, error) error) Option {
	return func(p *Pipeline) {
		p.errorHandler = handler
	}
}

// WithPrincipalKey sets a custom context key to store the principal
func WithPrincipalKey(key string) Option {
	return func(p *Pipeline) {
		p.principalKey = key
	}
}
