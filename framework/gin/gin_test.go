package aadgin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	aadfilter "github.com/aadauth/go-aad-filter"
	"github.com/aadauth/go-aad-filter/autoconfigure"
	"github.com/aadauth/go-aad-filter/config"
)

func newFilter(t *testing.T, opts ...aadfilter.Option) *aadfilter.Filter {
	t.Helper()

	props := config.DefaultFilterProperties()
	props.ClientID = "X"
	props.ClientSecret = "Y"

	validate := aadfilter.TokenValidatorFunc(func(_ context.Context, token string) (*aadfilter.UserPrincipal, error) {
		if token != "valid" {
			return nil, errors.New("bad token")
		}
		return &aadfilter.UserPrincipal{Subject: "user123"}, nil
	})

	base := []aadfilter.Option{aadfilter.WithValidator(validate), aadfilter.WithLogger(aadfilter.NoopLogger{})}
	f, err := aadfilter.New(&props, nil, append(base, opts...)...)
	require.NoError(t, err)
	return f
}

func newEngine(p *Pipeline) *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.Use(p.Middleware())
	engine.GET("/test", func(c *gin.Context) {
		principal, err := GetPrincipal(c, "")
		if err != nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		fromRequest, err := aadfilter.PrincipalFromContext(c.Request.Context())
		if err != nil || fromRequest != principal {
			c.String(http.StatusInternalServerError, "request context not updated")
			return
		}
		c.String(http.StatusOK, principal.Subject)
	})
	return engine
}

func TestPipeline(t *testing.T) {
	tests := []struct {
		name       string
		install    bool
		filterOpts []aadfilter.Option
		authHeader string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "not installed passes through",
			authHeader: "Bearer invalid",
			wantStatus: http.StatusOK,
			wantBody:   "anonymous",
		},
		{
			name:       "valid token",
			install:    true,
			authHeader: "Bearer valid",
			wantStatus: http.StatusOK,
			wantBody:   "user123",
		},
		{
			name:       "invalid token",
			install:    true,
			authHeader: "Bearer invalid",
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"message":"AAD token is invalid."}`,
		},
		{
			name:       "missing token with optional credentials",
			install:    true,
			wantStatus: http.StatusOK,
			wantBody:   "anonymous",
		},
		{
			name:       "missing token with required credentials",
			install:    true,
			filterOpts: []aadfilter.Option{aadfilter.WithCredentialsOptional(false)},
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"message":"AAD token is missing."}`,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			p := New()
			if test.install {
				require.NoError(t, p.Install(newFilter(t, test.filterOpts...)))
			}

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if test.authHeader != "" {
				req.Header.Set("Authorization", test.authHeader)
			}
			w := httptest.NewRecorder()
			newEngine(p).ServeHTTP(w, req)

			assert.Equal(t, test.wantStatus, w.Code)
			assert.Equal(t, test.wantBody, w.Body.String())
		})
	}
}

func TestPipeline_Install(t *testing.T) {
	p := New()

	assert.ErrorIs(t, p.Install(nil), autoconfigure.ErrPipelineFilterNil)
	require.NoError(t, p.Install(newFilter(t)))
	assert.ErrorIs(t, p.Install(newFilter(t)), autoconfigure.ErrFilterInstalled)
}

func TestPipeline_WithErrorHandler(t *testing.T) {
	var gotErr error
	p := New(WithErrorHandler(func(c *gin.Context, err error) {
		gotErr = err
		c.String(http.StatusTeapot, "custom")
	}))
	require.NoError(t, p.Install(newFilter(t)))

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer invalid")
	w := httptest.NewRecorder()
	newEngine(p).ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "custom", w.Body.String())
	assert.ErrorIs(t, gotErr, aadfilter.ErrTokenInvalid)
}

func TestPipeline_RegisteredThroughAutoconfigure(t *testing.T) {
	p := New()
	props := config.DefaultFilterProperties()
	props.ClientID = "X"
	props.ClientSecret = "Y"

	validate := aadfilter.TokenValidatorFunc(func(_ context.Context, token string) (*aadfilter.UserPrincipal, error) {
		return &aadfilter.UserPrincipal{Subject: token}, nil
	})

	f, err := autoconfigure.TryRegister(autoconfigure.Environment{WebApplication: true}, &props, nil, &autoconfigure.Slot{},
		autoconfigure.WithLogger(aadfilter.NoopLogger{}),
		autoconfigure.WithPipelines(p),
		autoconfigure.WithFilterOptions(aadfilter.WithValidator(validate)),
	)
	require.NoError(t, err)
	require.NotNil(t, f)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer alice")
	w := httptest.NewRecorder()
	newEngine(p).ServeHTTP(w, req)

	assert.Equal(t, "alice", w.Body.String())
}

func TestGetPrincipal(t *testing.T) {
	gin.SetMode(gin.TestMode)

	t.Run("missing", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		_, err := GetPrincipal(c, "")
		assert.ErrorIs(t, err, ErrMissingPrincipal)
	})

	t.Run("wrong type", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Set("custom", "not a principal")
		_, err := GetPrincipal(c, "custom")
		assert.ErrorIs(t, err, ErrInvalidPrincipal)
	})

	t.Run("custom key", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		want := &aadfilter.UserPrincipal{Subject: "s"}
		c.Set("custom", want)
		got, err := GetPrincipal(c, "custom")
		require.NoError(t, err)
		assert.Same(t, want, got)
	})
}
