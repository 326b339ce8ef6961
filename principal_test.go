package aadfilter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPrincipal_Identity(t *testing.T) {
	tests := []struct {
		name      string
		principal UserPrincipal
		want      string
	}{
		{name: "user token", principal: UserPrincipal{Subject: "s", AppID: "a", UPN: "u@contoso.com"}, want: "u@contoso.com"},
		{name: "app-only token", principal: UserPrincipal{Subject: "s", AppID: "a"}, want: "a"},
		{name: "subject only", principal: UserPrincipal{Subject: "s"}, want: "s"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, test.principal.Identity())
		})
	}
}

func TestUserPrincipal_IsMemberOfAny(t *testing.T) {
	p := &UserPrincipal{Groups: []string{"engineering", "oncall"}}

	assert.True(t, p.IsMemberOf("oncall"))
	assert.True(t, p.IsMemberOfAny([]string{"sales", "oncall"}))
	assert.False(t, p.IsMemberOfAny([]string{"sales"}))
	assert.False(t, p.IsMemberOfAny(nil))
}

func TestPrincipalFromContext(t *testing.T) {
	t.Run("it returns the stored principal", func(t *testing.T) {
		ctx := WithPrincipal(context.Background(), alice)

		p, err := PrincipalFromContext(ctx)
		require.NoError(t, err)
		assert.Same(t, alice, p)
		assert.True(t, HasPrincipal(ctx))
	})

	t.Run("it fails on an empty context", func(t *testing.T) {
		_, err := PrincipalFromContext(context.Background())
		assert.ErrorIs(t, err, ErrPrincipalNotFound)
		assert.False(t, HasPrincipal(context.Background()))
	})

	t.Run("a nil principal counts as absent", func(t *testing.T) {
		ctx := WithPrincipal(context.Background(), nil)
		assert.False(t, HasPrincipal(ctx))
	})
}
