package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"padws/pkg/logging"

	"gopkg.in/yaml.v3"
)

const configFileName = "config.yaml"

// Load builds the effective configuration: defaults, overridden by an
// optional config.yaml in configPath, overridden by environment
// variables. The environment layer carries the deployment contract
// (the same variable names the container images are wired with), so a
// bare container needs no config file at all.
func Load(configPath string) (Config, error) {
	cfg, err := load(configPath)
	if err != nil {
		return Config{}, err
	}
	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadForMigration builds the configuration for 'padws migrate':
// only the Postgres section is validated, so a migration pipeline
// needs no OIDC or Coder credentials.
func LoadForMigration(configPath string) (Config, error) {
	cfg, err := load(configPath)
	if err != nil {
		return Config{}, err
	}
	if cfg.Postgres.Port <= 0 || cfg.Postgres.Port > 65535 {
		return Config{}, ValidationError{Field: "Postgres.Port", Message: "must be a valid port"}
	}
	return cfg, nil
}

func load(configPath string) (Config, error) {
	cfg := GetDefaultConfig()

	if configPath != "" {
		configFilePath := filepath.Join(configPath, configFileName)
		data, err := os.ReadFile(configFilePath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			logging.Info("ConfigLoader", "No config.yaml found at %s, using defaults", configFilePath)
		case err != nil:
			return Config{}, fmt.Errorf("error reading config from %s: %w", configFilePath, err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("error loading config from %s: %w", configFilePath, err)
			}
			logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
		}
	}

	applyEnv(&cfg)

	if cfg.OIDC.RedirectURI == "" {
		cfg.OIDC.RedirectURI = cfg.Server.BaseURL() + DefaultCallbackPath
	}
	if cfg.Frontend.BaseURL == "" {
		cfg.Frontend.BaseURL = cfg.Server.BaseURL()
	}

	return cfg, nil
}

// applyEnv overlays environment variables onto the configuration.
func applyEnv(cfg *Config) {
	setString(&cfg.Server.Host, "APP_HOST")
	setInt(&cfg.Server.Port, "APP_PORT")
	setString(&cfg.Server.PublicURL, "PUBLIC_URL")

	setString(&cfg.OIDC.DiscoveryURL, "OIDC_DISCOVERY_URL")
	setString(&cfg.OIDC.ClientID, "OIDC_CLIENT_ID")
	setString(&cfg.OIDC.ClientSecret, "OIDC_CLIENT_SECRET")
	setString(&cfg.OIDC.RedirectURI, "REDIRECT_URI")
	setString(&cfg.OIDC.AdminRole, "OIDC_ADMIN_ROLE")

	setString(&cfg.Coder.URL, "CODER_URL")
	setString(&cfg.Coder.APIKey, "CODER_API_KEY")
	setString(&cfg.Coder.OrganizationID, "CODER_ORG_ID")
	setString(&cfg.Coder.TemplateID, "CODER_TEMPLATE_ID")
	setString(&cfg.Coder.WorkspaceName, "CODER_WORKSPACE_NAME")

	setString(&cfg.Postgres.Host, "POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "POSTGRES_PORT")
	setString(&cfg.Postgres.User, "POSTGRES_USER")
	setString(&cfg.Postgres.Password, "POSTGRES_PASSWORD")
	setString(&cfg.Postgres.Database, "POSTGRES_DB")
	setString(&cfg.Postgres.SSLMode, "POSTGRES_SSLMODE")

	setString(&cfg.Redis.Host, "REDIS_HOST")
	setInt(&cfg.Redis.Port, "REDIS_PORT")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REDIS_DB")
	setDuration(&cfg.Redis.SessionTTL, "SESSION_TTL")

	setString(&cfg.Frontend.StaticDir, "STATIC_DIR")
	setString(&cfg.Frontend.AssetsDir, "ASSETS_DIR")
	setString(&cfg.Frontend.TemplatesDir, "TEMPLATES_DIR")
	setString(&cfg.Frontend.BaseURL, "FRONTEND_URL")

	setString(&cfg.Analytics.PostHogAPIKey, "POSTHOG_API_KEY")
	setString(&cfg.Analytics.PostHogHost, "POSTHOG_HOST")
}

func setString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func setInt[T ~int | ~int32](dst *T, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logging.Warn("ConfigLoader", "Ignoring %s=%q: not an integer", key, v)
		return
	}
	*dst = T(n)
}

func setDuration(dst *time.Duration, key string) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		// Plain numbers are treated as seconds (the deployment template
		// historically used bare seconds here).
		if n, nerr := strconv.Atoi(v); nerr == nil {
			*dst = time.Duration(n) * time.Second
			return
		}
		logging.Warn("ConfigLoader", "Ignoring %s=%q: not a duration", key, v)
		return
	}
	*dst = d
}
