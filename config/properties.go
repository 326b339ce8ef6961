// Package config holds the typed configuration consumed by the AAD
// authentication filter and the loader that populates it.
//
// The structs in this package are plain values. They are filled once at
// startup by a Loader and treated as read-only afterwards.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Prefix is the key prefix of every filter property.
const Prefix = "azure.activedirectory"

// Property keys relative to Prefix.
const (
	KeyClientID          = "client-id"
	KeyClientSecret      = "client-secret"
	KeyAllowTelemetry    = "allow-telemetry"
	KeyEnvironment       = "environment"
	KeyAllowedGroups     = "user-group.allowed-groups"
	KeySessionStateless  = "session-stateless"
	KeyJWTConnectTimeout = "jwt-connect-timeout"
	KeyJWTReadTimeout    = "jwt-read-timeout"
	KeyJWTSizeLimit      = "jwt-size-limit"
)

// Defaults applied by the loader when a key is not configured.
const (
	DefaultEnvironment       = "global"
	DefaultJWTConnectTimeout = 500 * time.Millisecond
	DefaultJWTReadTimeout    = 500 * time.Millisecond
	DefaultJWTSizeLimit      = 51200
)

var (
	// ErrClientIDMissing is returned by Validate when client-id is absent.
	ErrClientIDMissing = errors.New("azure.activedirectory.client-id is not set")
	// ErrClientSecretMissing is returned by Validate when client-secret is absent.
	ErrClientSecretMissing = errors.New("azure.activedirectory.client-secret is not set")
)

// UserGroupProperties restricts access to members of the listed AAD groups.
type UserGroupProperties struct {
	AllowedGroups []string `mapstructure:"allowed-groups"`
}

// FilterProperties configures the AAD authentication filter.
type FilterProperties struct {
	ClientID          string              `mapstructure:"client-id"`
	ClientSecret      string              `mapstructure:"client-secret"`
	AllowTelemetry    bool                `mapstructure:"allow-telemetry"`
	Environment       string              `mapstructure:"environment"`
	UserGroup         UserGroupProperties `mapstructure:"user-group"`
	SessionStateless  bool                `mapstructure:"session-stateless"`
	JWTConnectTimeout time.Duration       `mapstructure:"jwt-connect-timeout"`
	JWTReadTimeout    time.Duration       `mapstructure:"jwt-read-timeout"`
	JWTSizeLimit      int                 `mapstructure:"jwt-size-limit"`
}

// DefaultFilterProperties returns properties with every optional field at
// its default and no credentials.
func DefaultFilterProperties() FilterProperties {
	return FilterProperties{
		AllowTelemetry:    true,
		Environment:       DefaultEnvironment,
		JWTConnectTimeout: DefaultJWTConnectTimeout,
		JWTReadTimeout:    DefaultJWTReadTimeout,
		JWTSizeLimit:      DefaultJWTSizeLimit,
	}
}

// Validate reports missing credentials. It only checks presence; the
// contents are left to whoever consumes them.
func (p FilterProperties) Validate() error {
	var errs []error
	if !IsPresent(p.ClientID) {
		errs = append(errs, ErrClientIDMissing)
	}
	if !IsPresent(p.ClientSecret) {
		errs = append(errs, ErrClientSecretMissing)
	}
	return errors.Join(errs...)
}

// String never prints the client secret.
func (p FilterProperties) String() string {
	secret := ""
	if p.ClientSecret != "" {
		secret = "[REDACTED]"
	}
	return fmt.Sprintf(
		"FilterProperties{ClientID:%q ClientSecret:%q AllowTelemetry:%t Environment:%q AllowedGroups:%v}",
		p.ClientID, secret, p.AllowTelemetry, p.Environment, p.UserGroup.AllowedGroups,
	)
}

// IsPresent reports whether a property value counts as set. A value is
// absent when it is empty, blank, or the literal "false".
func IsPresent(value string) bool {
	v := strings.TrimSpace(value)
	return v != "" && !strings.EqualFold(v, "false")
}
