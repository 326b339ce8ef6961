// Package aadecho installs the registered AAD filter into an Echo server.
package aadecho

import (
	"sync"

	"github.com/labstack/echo/v4"

	aadfilter "github.com/aadauth/go-aad-filter"
	"github.com/aadauth/go-aad-filter/autoconfigure"
)

// DefaultPrincipalKey is the echo context key holding the principal.
const DefaultPrincipalKey = "aad_principal"

// Pipeline is an autoconfigure.Pipeline for Echo.
type Pipeline struct {
	errorHandler func(echo.Context, error) error
	principalKey string

	mu     sync.RWMutex
	filter *aadfilter.Filter
}

var _ autoconfigure.Pipeline = (*Pipeline)(nil)

// New creates an Echo pipeline.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		errorHandler: defaultEchoErrorHandler,
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

// Middleware returns the echo middleware that runs the installed filter.
func (p *Pipeline) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p.mu.RLock()
			f := p.filter
			p.mu.RUnlock()

			if f == nil {
				return next(c)
			}

			principal, err := f.Authenticate(c.Request())
			if err != nil {
				return p.errorHandler(c, err)
			}

			if principal != nil {
				c.SetRequest(c.Request().WithContext(aadfilter.WithPrincipal(c.Request().Context(), principal)))
				c.Set(p.principalKey, principal)
			}
			return next(c)
		}
	}
}

func defaultEchoErrorHandler(c echo.Context, err error) error {
	status, message := aadfilter.ErrorResponse(err)
	return c.JSON(status, aadfilter.ErrorBody{Message: message})
}

// GetPrincipal extracts the principal from the Echo context
func GetPrincipal(c echo.Context, principalKey string) (*aadfilter.UserPrincipal, bool) {
	value := c.Get(principalKey)
	if value == nil {
		return nil, false
	}

	principal, ok := value.(*aadfilter.UserPrincipal)
	return principal, ok
}
