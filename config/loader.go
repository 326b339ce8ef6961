package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Loader produces the filter and endpoint configuration. It runs once at
// startup before the registrar is evaluated.
type Loader interface {
	Load(ctx context.Context) (*FilterProperties, *ServiceEndpoints, error)
}

// StaticLoader returns configuration that was built elsewhere.
type StaticLoader struct {
	Properties FilterProperties
	Endpoints  ServiceEndpoints
}

// Load returns copies of the static values. An empty endpoint map falls
// back to DefaultServiceEndpoints.
func (s StaticLoader) Load(context.Context) (*FilterProperties, *ServiceEndpoints, error) {
	props := s.Properties
	endpoints := s.Endpoints
	if len(endpoints.Endpoints) == 0 {
		endpoints = DefaultServiceEndpoints()
	}
	return &props, &endpoints, nil
}

// ViperLoader reads configuration from an optional YAML file, optional
// dotenv files and the process environment, in increasing precedence.
type ViperLoader struct {
	configFile string
	envFiles   []string
	lookupEnv  func(string) (string, bool)
}

// LoaderOption configures a ViperLoader.
type LoaderOption func(*ViperLoader) error

// WithConfigFile reads the given YAML file. A missing file is an error.
func WithConfigFile(path string) LoaderOption {
	return func(l *ViperLoader) error {
		if path == "" {
			return errors.New("config file path cannot be empty")
		}
		l.configFile = path
		return nil
	}
}

// WithEnvFiles reads the given dotenv files. Missing files are skipped.
func WithEnvFiles(paths ...string) LoaderOption {
	return func(l *ViperLoader) error {
		l.envFiles = append(l.envFiles, paths...)
		return nil
	}
}

// NewViperLoader builds a ViperLoader.
func NewViperLoader(opts ...LoaderOption) (*ViperLoader, error) {
	l := &ViperLoader{lookupEnv: os.LookupEnv}
	for _, opt := range opts {
		if err := opt(l); err != nil {
			return nil, fmt.Errorf("invalid option: %w", err)
		}
	}
	return l, nil
}

type settings struct {
	Azure struct {
		ActiveDirectory FilterProperties `mapstructure:"activedirectory"`
		Service         ServiceEndpoints `mapstructure:"service"`
	} `mapstructure:"azure"`
}

var envKeyReplacer = strings.NewReplacer(".", "_", "-", "_")

// EnvName returns the environment variable that overrides key.
func EnvName(key string) string {
	return strings.ToUpper(envKeyReplacer.Replace(key))
}

// Load implements Loader.
func (l *ViperLoader) Load(ctx context.Context) (*FilterProperties, *ServiceEndpoints, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvKeyReplacer(envKeyReplacer)
	v.AutomaticEnv()
	setDefaults(v)

	if l.configFile != "" {
		v.SetConfigFile(l.configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, nil, fmt.Errorf("could not read config file %s: %w", l.configFile, err)
		}
	}

	if err := l.applyEnvFiles(v); err != nil {
		return nil, nil, err
	}

	var s settings
	if err := v.Unmarshal(&s); err != nil {
		return nil, nil, fmt.Errorf("could not decode configuration: %w", err)
	}

	props := s.Azure.ActiveDirectory
	endpoints := s.Azure.Service
	return &props, &endpoints, nil
}

// applyEnvFiles copies dotenv values onto known keys. Real environment
// variables keep precedence and are resolved by viper itself.
func (l *ViperLoader) applyEnvFiles(v *viper.Viper) error {
	if len(l.envFiles) == 0 {
		return nil
	}

	values := map[string]string{}
	for _, path := range l.envFiles {
		fileValues, err := godotenv.Read(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("could not read env file %s: %w", path, err)
		}
		for k, val := range fileValues {
			if _, exists := values[k]; !exists {
				values[k] = val
			}
		}
	}

	for _, key := range v.AllKeys() {
		name := EnvName(key)
		if _, set := l.lookupEnv(name); set {
			continue
		}
		if val, ok := values[name]; ok {
			v.Set(key, val)
		}
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	props := DefaultFilterProperties()
	v.SetDefault(Prefix+"."+KeyClientID, "")
	v.SetDefault(Prefix+"."+KeyClientSecret, "")
	v.SetDefault(Prefix+"."+KeyAllowTelemetry, props.AllowTelemetry)
	v.SetDefault(Prefix+"."+KeyEnvironment, props.Environment)
	v.SetDefault(Prefix+"."+KeyAllowedGroups, []string{})
	v.SetDefault(Prefix+"."+KeySessionStateless, props.SessionStateless)
	v.SetDefault(Prefix+"."+KeyJWTConnectTimeout, props.JWTConnectTimeout)
	v.SetDefault(Prefix+"."+KeyJWTReadTimeout, props.JWTReadTimeout)
	v.SetDefault(Prefix+"."+KeyJWTSizeLimit, props.JWTSizeLimit)

	for env, e := range DefaultServiceEndpoints().Endpoints {
		base := EndpointsPrefix + "." + env + "."
		v.SetDefault(base+"signin-uri", e.SigninURI)
		v.SetDefault(base+"graph-api-uri", e.GraphAPIURI)
		v.SetDefault(base+"key-discovery-uri", e.KeyDiscoveryURI)
		v.SetDefault(base+"membership-rest-uri", e.MembershipRestURI)
	}
}
