package config

import (
	"fmt"
	"time"
)

// Config is the top-level configuration structure for padws.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	OIDC      OIDCConfig      `yaml:"oidc"`
	Coder     CoderConfig     `yaml:"coder"`
	Postgres  PostgresConfig  `yaml:"postgres"`
	Redis     RedisConfig     `yaml:"redis"`
	Frontend  FrontendConfig  `yaml:"frontend"`
	Analytics AnalyticsConfig `yaml:"analytics"`
}

// ServerConfig defines how the HTTP server binds and behaves.
type ServerConfig struct {
	Host      string `yaml:"host,omitempty"`
	Port      int    `yaml:"port,omitempty" validate:"gt=0,lte=65535"`
	PublicURL string `yaml:"publicURL,omitempty"` // Externally visible base URL, used for redirects (default: http://host:port)

	ReadHeaderTimeout time.Duration `yaml:"readHeaderTimeout,omitempty"`
	WriteTimeout      time.Duration `yaml:"writeTimeout,omitempty"`
	IdleTimeout       time.Duration `yaml:"idleTimeout,omitempty"`
	ShutdownTimeout   time.Duration `yaml:"shutdownTimeout,omitempty"`
}

// Addr returns the listen address in host:port form.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// BaseURL returns the externally visible base URL of the server.
func (s ServerConfig) BaseURL() string {
	if s.PublicURL != "" {
		return s.PublicURL
	}
	return fmt.Sprintf("http://%s", s.Addr())
}

// OIDCConfig defines the connection to the OpenID Connect provider
// (Keycloak in the reference deployment, but any discovery-capable
// provider works).
type OIDCConfig struct {
	DiscoveryURL string   `yaml:"discoveryURL" validate:"required,url"`
	ClientID     string   `yaml:"clientID" validate:"required"`
	ClientSecret string   `yaml:"clientSecret" validate:"required"`
	RedirectURI  string   `yaml:"redirectURI,omitempty"` // Defaults to <publicURL>/auth/callback
	Scopes       []string `yaml:"scopes,omitempty"`
	AdminRole    string   `yaml:"adminRole,omitempty"` // Realm role that grants admin access (default: admin)
}

// CoderConfig defines the connection to the Coder workspace
// orchestrator.
type CoderConfig struct {
	URL            string        `yaml:"url" validate:"required,url"`
	APIKey         string        `yaml:"apiKey" validate:"required"`
	OrganizationID string        `yaml:"organizationID,omitempty"`
	TemplateID     string        `yaml:"templateID,omitempty"`
	WorkspaceName  string        `yaml:"workspaceName,omitempty"` // Name given to each user's workspace (default: pad)
	RequestTimeout time.Duration `yaml:"requestTimeout,omitempty"`
	MaxRetries     int           `yaml:"maxRetries,omitempty"`
}

// PostgresConfig defines the application database connection.
type PostgresConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty" validate:"gt=0,lte=65535"`
	User     string `yaml:"user,omitempty"`
	Password string `yaml:"password,omitempty"`
	Database string `yaml:"database,omitempty"`
	SSLMode  string `yaml:"sslMode,omitempty"`
	MaxConns int32  `yaml:"maxConns,omitempty"`
}

// DSN returns a pgx-compatible connection string.
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode)
}

// RedisConfig defines the session/cache store connection.
type RedisConfig struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty" validate:"gt=0,lte=65535"`
	Password string `yaml:"password,omitempty"`
	DB       int    `yaml:"db,omitempty"`

	SessionTTL time.Duration `yaml:"sessionTTL,omitempty"` // Fallback TTL when the token carries no expiry

	// Migration lock settings, see store.RunMigrationsWithLock.
	LockTimeout time.Duration `yaml:"lockTimeout,omitempty"`
	LockMaxWait time.Duration `yaml:"lockMaxWait,omitempty"`
}

// Addr returns the Redis address in host:port form.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// FrontendConfig defines where the static frontend bundle lives.
type FrontendConfig struct {
	StaticDir    string `yaml:"staticDir,omitempty"`
	AssetsDir    string `yaml:"assetsDir,omitempty"`
	TemplatesDir string `yaml:"templatesDir,omitempty"`
	BaseURL      string `yaml:"baseURL,omitempty"` // Post-logout redirect target (default: server public URL)
}

// AnalyticsConfig defines optional product analytics forwarding.
type AnalyticsConfig struct {
	PostHogAPIKey string `yaml:"posthogAPIKey,omitempty"`
	PostHogHost   string `yaml:"posthogHost,omitempty"`
}

// Enabled reports whether analytics forwarding is configured.
func (a AnalyticsConfig) Enabled() bool {
	return a.PostHogAPIKey != ""
}
