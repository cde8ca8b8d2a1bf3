package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setRequiredEnv sets the minimum environment for Load to validate.
func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("OIDC_DISCOVERY_URL", "http://keycloak:8080/realms/pad/.well-known/openid-configuration")
	t.Setenv("OIDC_CLIENT_ID", "pad")
	t.Setenv("OIDC_CLIENT_SECRET", "secret")
	t.Setenv("CODER_URL", "http://coder:7080")
	t.Setenv("CODER_API_KEY", "coder-key")
	t.Setenv("CODER_TEMPLATE_ID", "tmpl-123")
}

func TestLoadFromEnv(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("APP_PORT", "9000")
	t.Setenv("PUBLIC_URL", "https://pad.example.com")
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("REDIS_PORT", "6380")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "https://pad.example.com", cfg.Server.BaseURL())
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
	assert.Equal(t, 6380, cfg.Redis.Port)

	// Derived values follow the public URL when not set explicitly.
	assert.Equal(t, "https://pad.example.com/auth/callback", cfg.OIDC.RedirectURI)
	assert.Equal(t, "https://pad.example.com", cfg.Frontend.BaseURL)
}

func TestLoadExplicitRedirectURI(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("REDIRECT_URI", "https://other.example.com/auth/callback")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://other.example.com/auth/callback", cfg.OIDC.RedirectURI)
}

func TestLoadMissingRequired(t *testing.T) {
	// Empty values make setString keep the (empty) defaults even when
	// the host environment carries these variables.
	for _, key := range []string{
		"OIDC_DISCOVERY_URL", "OIDC_CLIENT_ID", "OIDC_CLIENT_SECRET",
		"CODER_URL", "CODER_API_KEY", "CODER_TEMPLATE_ID",
	} {
		t.Setenv(key, "")
	}

	_, err := Load("")
	require.Error(t, err)

	var errs ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.NotEmpty(t, errs)
}

func TestLoadForMigrationNeedsNoCredentials(t *testing.T) {
	for _, key := range []string{
		"OIDC_DISCOVERY_URL", "OIDC_CLIENT_ID", "OIDC_CLIENT_SECRET",
		"CODER_URL", "CODER_API_KEY", "CODER_TEMPLATE_ID",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("POSTGRES_HOST", "db.internal")

	cfg, err := LoadForMigration("")
	require.NoError(t, err)
	assert.Equal(t, "db.internal", cfg.Postgres.Host)
}

func TestLoadConfigFile(t *testing.T) {
	setRequiredEnv(t)

	dir := t.TempDir()
	content := []byte("server:\n  port: 8100\npostgres:\n  host: filehost\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))

	// Environment still wins over the file.
	t.Setenv("POSTGRES_HOST", "envhost")

	cfg, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, 8100, cfg.Server.Port)
	assert.Equal(t, "envhost", cfg.Postgres.Host)
}

func TestLoadMissingConfigFileIsNotAnError(t *testing.T) {
	setRequiredEnv(t)

	_, err := Load(t.TempDir())
	require.NoError(t, err)
}

func TestSessionTTLBareSeconds(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_TTL", "90")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, cfg.Redis.SessionTTL)
}

func TestSessionTTLDurationString(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SESSION_TTL", "2h")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2*time.Hour, cfg.Redis.SessionTTL)
}

func TestValidateScopesMustIncludeOpenID(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.OIDC.DiscoveryURL = "http://keycloak:8080/realms/pad"
	cfg.OIDC.ClientID = "pad"
	cfg.OIDC.ClientSecret = "secret"
	cfg.OIDC.Scopes = []string{"profile", "email"}
	cfg.Coder.URL = "http://coder:7080"
	cfg.Coder.APIKey = "key"
	cfg.Coder.TemplateID = "tmpl"

	err := Validate(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "openid")
}

func TestPostgresDSN(t *testing.T) {
	p := PostgresConfig{
		Host: "db", Port: 5432, User: "pad", Password: "pw",
		Database: "padws", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://pad:pw@db:5432/padws?sslmode=disable", p.DSN())
}

func TestServerBaseURL(t *testing.T) {
	s := ServerConfig{Host: "0.0.0.0", Port: 8000}
	assert.Equal(t, "http://0.0.0.0:8000", s.BaseURL())

	s.PublicURL = "https://pad.example.com"
	assert.Equal(t, "https://pad.example.com", s.BaseURL())
}
