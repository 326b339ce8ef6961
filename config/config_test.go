package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_IsPresent(t *testing.T) {
	testCases := []struct {
		value string
		want  bool
	}{
		{value: "", want: false},
		{value: "   ", want: false},
		{value: "false", want: false},
		{value: "FALSE", want: false},
		{value: "client", want: true},
		{value: "true", want: true},
	}

	for _, testCase := range testCases {
		t.Run(testCase.value, func(t *testing.T) {
			assert.Equal(t, testCase.want, IsPresent(testCase.value))
		})
	}
}

func Test_FilterProperties(t *testing.T) {
	t.Run("it reports both missing credentials", func(t *testing.T) {
		err := FilterProperties{}.Validate()
		assert.ErrorIs(t, err, ErrClientIDMissing)
		assert.ErrorIs(t, err, ErrClientSecretMissing)
	})

	t.Run("it accepts present credentials", func(t *testing.T) {
		err := FilterProperties{ClientID: "X", ClientSecret: "Y"}.Validate()
		assert.NoError(t, err)
	})

	t.Run("it never prints the secret", func(t *testing.T) {
		s := FilterProperties{ClientID: "X", ClientSecret: "super-secret"}.String()
		assert.NotContains(t, s, "super-secret")
		assert.Contains(t, s, "[REDACTED]")
	})
}

func Test_ServiceEndpoints(t *testing.T) {
	endpoints := DefaultServiceEndpoints()

	t.Run("it resolves the global cloud by default", func(t *testing.T) {
		e, err := endpoints.For("")
		require.NoError(t, err)
		assert.Equal(t, "https://login.microsoftonline.com/", e.SigninURI)
	})

	t.Run("it resolves environments case-insensitively", func(t *testing.T) {
		e, err := endpoints.For("CN")
		require.NoError(t, err)
		assert.Equal(t, "https://graph.chinacloudapi.cn/", e.GraphAPIURI)
	})

	t.Run("it fails on an unknown environment", func(t *testing.T) {
		_, err := endpoints.For("moon")
		assert.ErrorIs(t, err, ErrUnknownEnvironment)
		assert.Contains(t, err.Error(), "cn, global")
	})
}

func Test_StaticLoader(t *testing.T) {
	props, endpoints, err := StaticLoader{
		Properties: FilterProperties{ClientID: "X", ClientSecret: "Y"},
	}.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "X", props.ClientID)
	assert.Equal(t, DefaultServiceEndpoints(), *endpoints)
}

func Test_ViperLoader(t *testing.T) {
	t.Run("it applies defaults when nothing is configured", func(t *testing.T) {
		loader, err := NewViperLoader()
		require.NoError(t, err)
		loader.lookupEnv = func(string) (string, bool) { return "", false }

		props, endpoints, err := loader.Load(context.Background())
		require.NoError(t, err)

		if diff := cmp.Diff(DefaultFilterProperties(), *props, cmpopts.EquateEmpty()); diff != "" {
			t.Errorf("properties mismatch (-want +got):\n%s", diff)
		}
		if diff := cmp.Diff(DefaultServiceEndpoints(), *endpoints); diff != "" {
			t.Errorf("endpoints mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("it reads a yaml file", func(t *testing.T) {
		path := writeFile(t, "application.yaml", `
azure:
  activedirectory:
    client-id: file-client
    client-secret: file-secret
    allow-telemetry: false
    environment: cn
    jwt-read-timeout: 2s
    user-group:
      allowed-groups:
        - group1
        - group2
`)
		loader, err := NewViperLoader(WithConfigFile(path))
		require.NoError(t, err)

		props, _, err := loader.Load(context.Background())
		require.NoError(t, err)

		assert.Equal(t, "file-client", props.ClientID)
		assert.Equal(t, "file-secret", props.ClientSecret)
		assert.False(t, props.AllowTelemetry)
		assert.Equal(t, "cn", props.Environment)
		assert.Equal(t, 2*time.Second, props.JWTReadTimeout)
		assert.Equal(t, []string{"group1", "group2"}, props.UserGroup.AllowedGroups)
	})

	t.Run("it fails when the config file is missing", func(t *testing.T) {
		loader, err := NewViperLoader(WithConfigFile(filepath.Join(t.TempDir(), "nope.yaml")))
		require.NoError(t, err)

		_, _, err = loader.Load(context.Background())
		assert.Error(t, err)
	})

	t.Run("environment variables override the file", func(t *testing.T) {
		path := writeFile(t, "application.yaml", `
azure:
  activedirectory:
    client-id: file-client
`)
		t.Setenv("AZURE_ACTIVEDIRECTORY_CLIENT_ID", "env-client")
		t.Setenv("AZURE_ACTIVEDIRECTORY_CLIENT_SECRET", "env-secret")

		loader, err := NewViperLoader(WithConfigFile(path))
		require.NoError(t, err)

		props, _, err := loader.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "env-client", props.ClientID)
		assert.Equal(t, "env-secret", props.ClientSecret)
	})

	t.Run("dotenv files fill keys that the environment does not set", func(t *testing.T) {
		envFile := writeFile(t, ".env", "AZURE_ACTIVEDIRECTORY_CLIENT_ID=dotenv-client\n"+
			"AZURE_ACTIVEDIRECTORY_CLIENT_SECRET=dotenv-secret\n"+
			"AZURE_ACTIVEDIRECTORY_USER_GROUP_ALLOWED_GROUPS=a,b\n")

		loader, err := NewViperLoader(WithEnvFiles(filepath.Join(t.TempDir(), "missing.env"), envFile))
		require.NoError(t, err)
		loader.lookupEnv = func(name string) (string, bool) {
			if name == "AZURE_ACTIVEDIRECTORY_CLIENT_SECRET" {
				return "real-secret", true
			}
			return "", false
		}

		props, _, err := loader.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "dotenv-client", props.ClientID)
		assert.Equal(t, []string{"a", "b"}, props.UserGroup.AllowedGroups)
	})

	t.Run("it rejects an empty config file path", func(t *testing.T) {
		_, err := NewViperLoader(WithConfigFile(""))
		assert.EqualError(t, err, "invalid option: config file path cannot be empty")
	})

	t.Run("it honours a cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		loader, err := NewViperLoader()
		require.NoError(t, err)

		_, _, err = loader.Load(ctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func Test_EnvName(t *testing.T) {
	assert.Equal(t, "AZURE_ACTIVEDIRECTORY_CLIENT_ID", EnvName("azure.activedirectory.client-id"))
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}
