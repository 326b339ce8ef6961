package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// EndpointsPrefix is the key prefix of the per-environment endpoint sets.
const EndpointsPrefix = "azure.service.endpoints"

// ErrUnknownEnvironment is returned when no endpoint set exists for an
// environment name.
var ErrUnknownEnvironment = errors.New("unknown azure environment")

// Endpoints are the identity provider URLs of one Azure cloud.
type Endpoints struct {
	SigninURI         string `mapstructure:"signin-uri"`
	GraphAPIURI       string `mapstructure:"graph-api-uri"`
	KeyDiscoveryURI   string `mapstructure:"key-discovery-uri"`
	MembershipRestURI string `mapstructure:"membership-rest-uri"`
}

// ServiceEndpoints maps an environment name (global, cn, ...) to its
// endpoints.
type ServiceEndpoints struct {
	Endpoints map[string]Endpoints `mapstructure:"endpoints"`
}

// DefaultServiceEndpoints returns the built-in public and China cloud sets.
func DefaultServiceEndpoints() ServiceEndpoints {
	return ServiceEndpoints{
		Endpoints: map[string]Endpoints{
			"global": {
				SigninURI:         "https://login.microsoftonline.com/",
				GraphAPIURI:       "https://graph.windows.net/",
				KeyDiscoveryURI:   "https://login.microsoftonline.com/common/discovery/keys/",
				MembershipRestURI: "https://graph.windows.net/me/memberOf?api-version=1.6",
			},
			"cn": {
				SigninURI:         "https://login.partner.microsoftonline.cn/",
				GraphAPIURI:       "https://graph.chinacloudapi.cn/",
				KeyDiscoveryURI:   "https://login.partner.microsoftonline.cn/common/discovery/keys",
				MembershipRestURI: "https://graph.chinacloudapi.cn/me/memberOf?api-version=1.6",
			},
		},
	}
}

// For returns the endpoint set for env. Lookup is case-insensitive and an
// empty env selects DefaultEnvironment.
func (s ServiceEndpoints) For(env string) (Endpoints, error) {
	if env == "" {
		env = DefaultEnvironment
	}
	if e, ok := s.Endpoints[strings.ToLower(env)]; ok {
		return e, nil
	}
	return Endpoints{}, fmt.Errorf("%w %q (known: %s)", ErrUnknownEnvironment, env, strings.Join(s.Environments(), ", "))
}

// Environments lists the configured environment names in sorted order.
func (s ServiceEndpoints) Environments() []string {
	names := make([]string, 0, len(s.Endpoints))
	for name := range s.Endpoints {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
