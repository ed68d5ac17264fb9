package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeYAML(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)

	require.Equal(t, ":8080", c.Server.Addr)
	require.Equal(t, "memory", c.Storage.Driver)
	require.Equal(t, "dev", c.IDP.Backend)
	require.NotZero(t, Duration(c.JWT.AccessTTL))
	require.NotZero(t, Duration(c.IDP.CredentialTTL))
}

func TestLoadYAMLAndEnvOverride(t *testing.T) {
	path := writeYAML(t, `
server:
  addr: ":9090"
storage:
  driver: postgres
  postgres:
    dsn: postgres://localhost/linguala
jwt:
  issuer: linguala-test
providers:
  google:
    enabled: true
    client_id: yaml-id
    redirect_url: https://app.example.com/callback
`)
	t.Setenv("GOOGLE_CLIENT_ID", "env-id")
	t.Setenv("GOOGLE_CLIENT_SECRET", "env-secret")
	t.Setenv("SERVER_CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com")

	c, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":9090", c.Server.Addr)
	require.Equal(t, "postgres", c.Storage.Driver)
	require.NotEmpty(t, c.Storage.Postgres.DSN)

	// el entorno pisa al YAML
	require.Equal(t, "env-id", c.Providers.Google.ClientID)
	require.Equal(t, "env-secret", c.Providers.Google.ClientSecret)
	require.Len(t, c.Server.CORSAllowedOrigins, 2)
}

func TestValidateRejectsBadDriver(t *testing.T) {
	path := writeYAML(t, "storage:\n  driver: oracle\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateRejectsBadDuration(t *testing.T) {
	path := writeYAML(t, "jwt:\n  access_ttl: quince_minutos\n")
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateProdRequiresSecret(t *testing.T) {
	t.Setenv("APP_ENV", "prod")
	t.Setenv("JWT_SECRET", "corto")
	_, err := Load("")
	require.Error(t, err)

	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("IDP_BACKEND", "rest")
	t.Setenv("IDP_ENDPOINT", "https://idp.example.com")
	_, err = Load("")
	require.NoError(t, err)
}
