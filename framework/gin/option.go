package aadgin

import (
	"github.com/gin-gonic/gin"
)

// Option defines a functional option for configuring the pipeline
type Option func(*Pipeline)

// WithErrorHandler sets a custom error handler. The request is aborted
// after it returns.
func WithErrorHandler(handler func(*gin.Context, error)) Option {
	return func(p *Pipeline) {
		p.errorHandler = handler
	}
}

// WithPrincipalKey sets the gin context key the principal is stored under.
func WithPrincipalKey(key string) Option {
	return func(p *Pipeline) {
		p.principalKey = key
	}
}
