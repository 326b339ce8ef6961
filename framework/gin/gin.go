// Package aadgin installs the registered AAD filter into a Gin engine.
package aadgin

import (
	"errors"
	"sync"

	"github.com/gin-gonic/gin"

	aadfilter "github.com/aadauth/go-aad-filter"
	"github.com/aadauth/go-aad-filter/autoconfigure"
)

// DefaultPrincipalKey is the gin context key holding the principal.
const DefaultPrincipalKey = "aad_principal"

var (
	ErrMissingPrincipal = errors.New("no aad principal found in context")
	ErrInvalidPrincipal = errors.New("invalid aad principal type")
)

// Pipeline is an autoconfigure.Pipeline for Gin. Add Middleware to the
// engine at startup; requests pass through untouched until a filter is
// installed.
type Pipeline struct {
	errorHandler func(*gin.Context, error)
	principalKey string

	mu     sync.RWMutex
	filter *aadfilter.Filter
}

var _ autoconfigure.Pipeline = (*Pipeline)(nil)

// New creates a Gin pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		errorHandler: defaultGinErrorHandler,
		principalKey: DefaultPrincipalKey,
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

// Middleware returns the gin handler that runs the installed filter.
func (p *Pipeline) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		p.mu.RLock()
		f := p.filter
		p.mu.RUnlock()

		if f == nil {
			c.Next()
			return
		}

		principal, err := f.Authenticate(c.Request)
		if err != nil {
			p.errorHandler(c, err)
			c.Abort()
			return
		}

		if principal != nil {
			c.Request = c.Request.WithContext(aadfilter.WithPrincipal(c.Request.Context(), principal))
			c.Set(p.principalKey, principal)
		}
		c.Next()
	}
}

func defaultGinErrorHandler(c *gin.Context, err error) {
	status, message := aadfilter.ErrorResponse(err)
	c.AbortWithStatusJSON(status, aadfilter.ErrorBody{Message: message})
}

// GetPrincipal returns the principal stored under principalKey, or under
// DefaultPrincipalKey when principalKey is empty.
func GetPrincipal(c *gin.Context, principalKey string) (*aadfilter.UserPrincipal, error) {
	if principalKey == "" {
		principalKey = DefaultPrincipalKey
	}
	value, exists := c.Get(principalKey)
	if !exists {
		return nil, ErrMissingPrincipal
	}

	principal, ok := value.(*aadfilter.UserPrincipal)
	if !ok {
		return nil, ErrInvalidPrincipal
	}

	return principal, nil
}
