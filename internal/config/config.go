// Natours - Tour Booking Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/natours

package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config is the root configuration.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Security SecurityConfig `koanf:"security"`
	Email    EmailConfig    `koanf:"email"`
	Payment  PaymentConfig  `koanf:"payment"`
	Audit    AuditConfig    `koanf:"audit"`
	Uploads  UploadsConfig  `koanf:"uploads"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port        int           `koanf:"port"`
	Host        string        `koanf:"host"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`

	// PublicURL is used to build absolute links in emails and checkout
	// redirects. When empty the request's scheme and host are used.
	PublicURL string `koanf:"public_url"`

	// AggregateCacheTTL caches tour stats, monthly plans and geo queries.
	// Zero disables the cache.
	AggregateCacheTTL time.Duration `koanf:"aggregate_cache_ttl"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig holds MongoDB settings.
type DatabaseConfig struct {
	URI            string        `koanf:"uri"`
	Password       string        `koanf:"password"`
	Name           string        `koanf:"name"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
	QueryTimeout   time.Duration `koanf:"query_timeout"`
}

// ConnectionString substitutes the password placeholder in URI.
func (d DatabaseConfig) ConnectionString() string {
	return strings.ReplaceAll(d.URI, "<PASSWORD>", d.Password)
}

// SecurityConfig holds authentication and request-admission settings.
type SecurityConfig struct {
	JWTSecret string `koanf:"jwt_secret"`

	// JWTExpiresIn accepts Go durations plus a "d" (days) suffix.
	JWTExpiresIn string `koanf:"jwt_expires_in"`

	// JWTCookieExpiresIn is the cookie lifetime in days.
	JWTCookieExpiresIn int `koanf:"jwt_cookie_expires_in"`

	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`

	// LoginRateLimitReqs caps login and forgotPassword attempts per IP per minute.
	LoginRateLimitReqs int `koanf:"login_rate_limit_reqs"`

	CORSOrigins []string `koanf:"cors_origins"`

	// DenylistPath is the BadgerDB directory for revoked tokens. Empty
	// keeps the denylist in memory.
	DenylistPath string `koanf:"denylist_path"`
}

// TokenTTL parses JWTExpiresIn.
func (s SecurityConfig) TokenTTL() (time.Duration, error) {
	return ParseDuration(s.JWTExpiresIn)
}

// CookieTTL returns the cookie lifetime.
func (s SecurityConfig) CookieTTL() time.Duration {
	return time.Duration(s.JWTCookieExpiresIn) * 24 * time.Hour
}

// EmailConfig holds outbound mail settings. Development sends through an
// SMTP relay; production uses Mailjet when API keys are present.
type EmailConfig struct {
	From          string  `koanf:"from"`
	Host          string  `koanf:"host"`
	Port          int     `koanf:"port"`
	Username      string  `koanf:"username"`
	Password      string  `koanf:"password"`
	MailjetKey    string  `koanf:"mailjet_key"`
	MailjetSecret string  `koanf:"mailjet_secret"`
	RatePerSecond float64 `koanf:"rate_per_second"`
	RateBurst     int     `koanf:"rate_burst"`
}

// PaymentConfig holds Stripe Checkout settings.
type PaymentConfig struct {
	StripeSecretKey string        `koanf:"stripe_secret_key"`
	StripeBaseURL   string        `koanf:"stripe_base_url"`
	Currency        string        `koanf:"currency"`
	Timeout         time.Duration `koanf:"timeout"`
}

// AuditConfig holds the DuckDB security audit trail settings.
type AuditConfig struct {
	Enabled       bool          `koanf:"enabled"`
	Path          string        `koanf:"path"`
	RetentionDays int           `koanf:"retention_days"`
	CleanupEvery  time.Duration `koanf:"cleanup_every"`
	BufferSize    int           `koanf:"buffer_size"`
}

// UploadsConfig controls where static files and image uploads live.
type UploadsConfig struct {
	PublicDir   string `koanf:"public_dir"`
	MaxFileSize int64  `koanf:"max_file_size"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load reads configuration from defaults, file and environment.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// ParseDuration extends time.ParseDuration with a trailing "d" for days,
// so "90d" is 2160h. A bare integer is read as seconds.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	if strings.HasSuffix(s, "d") {
		days, err := strconv.ParseFloat(strings.TrimSuffix(s, "d"), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid day duration %q: %w", s, err)
		}
		return time.Duration(days * float64(24*time.Hour)), nil
	}
	return time.ParseDuration(s)
}
