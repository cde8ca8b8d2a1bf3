package config

import "time"

const (
	// DefaultCallbackPath is the path the OIDC provider redirects back to.
	DefaultCallbackPath = "/auth/callback"

	// DefaultAdminRole is the realm role that grants admin access.
	DefaultAdminRole = "admin"

	// DefaultWorkspaceName is the name given to each user's Coder workspace.
	DefaultWorkspaceName = "pad"
)

// DefaultScopes are the OIDC scopes requested during login. offline_access
// is included so the provider issues a refresh token.
var DefaultScopes = []string{"openid", "profile", "email", "offline_access"}

// GetDefaultConfig returns the default configuration for padws.
func GetDefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8000,
			ReadHeaderTimeout: 10 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
			ShutdownTimeout:   15 * time.Second,
		},
		OIDC: OIDCConfig{
			Scopes:    DefaultScopes,
			AdminRole: DefaultAdminRole,
		},
		Coder: CoderConfig{
			WorkspaceName:  DefaultWorkspaceName,
			RequestTimeout: 30 * time.Second,
			MaxRetries:     3,
		},
		Postgres: PostgresConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Database: "padws",
			SSLMode:  "disable",
			MaxConns: 10,
		},
		Redis: RedisConfig{
			Host:        "localhost",
			Port:        6379,
			SessionTTL:  time.Hour,
			LockTimeout: 2 * time.Minute,
			LockMaxWait: 5 * time.Minute,
		},
		Frontend: FrontendConfig{
			StaticDir:    "./static",
			AssetsDir:    "./assets",
			TemplatesDir: "./templates",
		},
	}
}
