package aadfilter

import (
	"context"
	"errors"
	"slices"
)

// ErrPrincipalNotFound is returned when no principal is stored in the context.
var ErrPrincipalNotFound = errors.New("user principal not found in context")

// UserPrincipal is the identity produced by a TokenValidator for a valid
// AAD access token.
type UserPrincipal struct {
	Subject  string
	Name     string
	UPN      string
	AppID    string
	TenantID string
	Issuer   string
	Audience []string
	Groups   []string
	Roles    []string
	Claims   map[string]any
}

// Identity returns the UPN for user tokens and the application id for
// app-only tokens, falling back to the subject.
func (p *UserPrincipal) Identity() string {
	switch {
	case p.UPN != "":
		return p.UPN
	case p.AppID != "":
		return p.AppID
	default:
		return p.Subject
	}
}

// IsMemberOf reports whether the principal belongs to group.
func (p *UserPrincipal) IsMemberOf(group string) bool {
	return slices.Contains(p.Groups, group)
}

// IsMemberOfAny reports whether the principal belongs to at least one of
// groups.
func (p *UserPrincipal) IsMemberOfAny(groups []string) bool {
	for _, g := range groups {
		if p.IsMemberOf(g) {
			return true
		}
	}
	return false
}

type contextKey int

const principalKey contextKey = iota

// WithPrincipal stores p in ctx. Framework adapters use it after
// authentication.
func WithPrincipal(ctx context.Context, p *UserPrincipal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromContext returns the principal set by the filter.
//
// Example:
//
//	principal, err := aadfilter.PrincipalFromContext(r.Context())
//	if err != nil {
//	    http.Error(w, "unauthenticated", http.StatusUnauthorized)
//	    return
//	}
//	fmt.Fprintf(w, "Hello, %s!", principal.Identity())
func PrincipalFromContext(ctx context.Context) (*UserPrincipal, error) {
	p, ok := ctx.Value(principalKey).(*UserPrincipal)
	if !ok || p == nil {
		return nil, ErrPrincipalNotFound
	}
	return p, nil
}

// HasPrincipal reports whether the request was authenticated.
func HasPrincipal(ctx context.Context) bool {
	_, err := PrincipalFromContext(ctx)
	return err == nil
}
