// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when CONFIG_PATH is unset.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/natours/config.yaml",
}

// ConfigPathEnvVar names the variable that points at a YAML config file.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        3000,
			Host:        "0.0.0.0",
			Timeout:     30 * time.Second,
			Environment: "development",

			AggregateCacheTTL: time.Minute,
		},
		Database: DatabaseConfig{
			URI:            "mongodb://127.0.0.1:27017",
			Name:           "natours",
			ConnectTimeout: 10 * time.Second,
			QueryTimeout:   15 * time.Second,
		},
		Security: SecurityConfig{
			JWTExpiresIn:       "90d",
			JWTCookieExpiresIn: 90,
			RateLimitReqs:      100,
			RateLimitWindow:    time.Hour,
			LoginRateLimitReqs: 10,
			CORSOrigins:        []string{"*"},
		},
		Email: EmailConfig{
			From:          "Natours <hello@natours.io>",
			Host:          "sandbox.smtp.mailtrap.io",
			Port:          2525,
			RatePerSecond: 5,
			RateBurst:     10,
		},
		Payment: PaymentConfig{
			StripeBaseURL: "https://api.stripe.com",
			Currency:      "usd",
			Timeout:       10 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:       true,
			Path:          "data/audit.duckdb",
			RetentionDays: 90,
			CleanupEvery:  24 * time.Hour,
			BufferSize:    1024,
		},
		Uploads: UploadsConfig{
			PublicDir:   "public",
			MaxFileSize: 5 << 20,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadWithKoanf layers defaults, an optional YAML file and the environment,
// then validates the result.
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := splitListFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

var listFields = []string{"security.cors_origins"}

// splitListFields turns comma-separated env values into string slices.
func splitListFields(k *koanf.Koanf) error {
	for _, path := range listFields {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		var items []string
		for _, part := range strings.Split(raw, ",") {
			if part = strings.TrimSpace(part); part != "" {
				items = append(items, part)
			}
		}
		if err := k.Set(path, items); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"port":         "server.port",
	"host":         "server.host",
	"http_timeout": "server.timeout",
	"node_env":     "server.environment",
	"environment":  "server.environment",
	"public_url":   "server.public_url",

	"aggregate_cache_ttl": "server.aggregate_cache_ttl",

	"database":          "database.uri",
	"database_password": "database.password",
	"database_name":     "database.name",
	"db_query_timeout":  "database.query_timeout",

	"jwt_secret":            "security.jwt_secret",
	"jwt_expires_in":        "security.jwt_expires_in",
	"jwt_cookie_expires_in": "security.jwt_cookie_expires_in",
	"rate_limit_requests":   "security.rate_limit_reqs",
	"rate_limit_window":     "security.rate_limit_window",
	"disable_rate_limit":    "security.rate_limit_disabled",
	"login_rate_limit":      "security.login_rate_limit_reqs",
	"cors_origins":          "security.cors_origins",
	"denylist_path":         "security.denylist_path",

	"email_from":         "email.from",
	"email_host":         "email.host",
	"email_port":         "email.port",
	"email_username":     "email.username",
	"email_password":     "email.password",
	"mailjet_api_key":    "email.mailjet_key",
	"mailjet_secret_key": "email.mailjet_secret",

	"stripe_secret_key": "payment.stripe_secret_key",
	"stripe_base_url":   "payment.stripe_base_url",

	"audit_enabled":        "audit.enabled",
	"audit_db_path":        "audit.path",
	"audit_retention_days": "audit.retention_days",

	"public_dir": "uploads.public_dir",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",
}

// envTransformFunc maps an environment variable name to its koanf path.
// Unknown variables return "" and are ignored.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
