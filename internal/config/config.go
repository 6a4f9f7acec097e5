// Package config provides environment-driven configuration for the sync daemon.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Secret wraps a sensitive string to prevent accidental logging or marshalling.
type Secret string

// String implements fmt.Stringer, returning a redacted placeholder.
func (s Secret) String() string { return "[REDACTED]" }

// GoString implements fmt.GoStringer, returning a redacted placeholder.
func (s Secret) GoString() string { return "[REDACTED]" }

// MarshalText implements encoding.TextMarshaler, returning a redacted placeholder.
func (s Secret) MarshalText() ([]byte, error) { return []byte("[REDACTED]"), nil }

// Value returns the underlying secret string.
func (s Secret) Value() string { return string(s) }

// Config holds all daemon configuration values.
type Config struct {
	DatabaseURL Secret
	Port        string
	ListenHost  string
	CORSOrigins []string
	LogLevel    string

	// APIKey authenticates operator/CLI calls against the admin surface.
	APIKey Secret

	// Confidential attribute encryption.
	EncryptionProvider string
	EncryptionKey      Secret
	VaultAddr          string
	VaultToken         Secret

	// Provisioning queue tuning.
	ProvisioningPollInterval time.Duration
	ProvisioningPageSize     int
	RetryBaseDelay           time.Duration
	RetryMaxDelay            time.Duration

	// Optional LDAP connector registered at startup for one system.
	// Further connectors are registered programmatically.
	LDAPSystemID     string
	LDAPURL          string
	LDAPBindDN       string
	LDAPBindPassword Secret
	LDAPBaseDN       string
	LDAPUIDAttribute string
}

// Load reads configuration from environment variables with sensible defaults.
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:        Secret(envOrDefault("DATABASE_URL", "")),
		Port:               envOrDefault("PORT", "3080"),
		ListenHost:         envOrDefault("LISTEN_HOST", "127.0.0.1"),
		LogLevel:           envOrDefault("LOG_LEVEL", "info"),
		APIKey:             Secret(envOrDefault("API_KEY", "")),
		EncryptionProvider: envOrDefault("ENCRYPTION_PROVIDER", "static"),
		EncryptionKey:      Secret(envOrDefault("ENCRYPTION_KEY", "")),
		VaultAddr:          envOrDefault("VAULT_ADDR", "http://127.0.0.1:8200"),
		VaultToken:         Secret(envOrDefault("VAULT_TOKEN", "")),
	}

	pollInterval, err := time.ParseDuration(envOrDefault("PROVISIONING_POLL_INTERVAL", "30s"))
	if err != nil || pollInterval < time.Second {
		return nil, fmt.Errorf("PROVISIONING_POLL_INTERVAL must be a duration of at least 1s")
	}
	cfg.ProvisioningPollInterval = pollInterval

	pageSize, err := strconv.Atoi(envOrDefault("PROVISIONING_PAGE_SIZE", "100"))
	if err != nil || pageSize < 1 || pageSize > 10_000 {
		return nil, fmt.Errorf("PROVISIONING_PAGE_SIZE must be an integer between 1 and 10000")
	}
	cfg.ProvisioningPageSize = pageSize

	baseDelay, err := time.ParseDuration(envOrDefault("RETRY_BASE_DELAY", "30s"))
	if err != nil || baseDelay < time.Second {
		return nil, fmt.Errorf("RETRY_BASE_DELAY must be a duration of at least 1s")
	}
	cfg.RetryBaseDelay = baseDelay

	maxDelay, err := time.ParseDuration(envOrDefault("RETRY_MAX_DELAY", "12h"))
	if err != nil || maxDelay < baseDelay {
		return nil, fmt.Errorf("RETRY_MAX_DELAY must be a duration >= RETRY_BASE_DELAY")
	}
	cfg.RetryMaxDelay = maxDelay

	cfg.LDAPSystemID = envOrDefault("LDAP_SYSTEM_ID", "")
	cfg.LDAPURL = envOrDefault("LDAP_URL", "")
	cfg.LDAPBindDN = envOrDefault("LDAP_BIND_DN", "")
	cfg.LDAPBindPassword = Secret(envOrDefault("LDAP_BIND_PASSWORD", ""))
	cfg.LDAPBaseDN = envOrDefault("LDAP_BASE_DN", "")
	cfg.LDAPUIDAttribute = envOrDefault("LDAP_UID_ATTRIBUTE", "cn")

	origins := envOrDefault("CORS_ORIGINS", "http://localhost:3081")
	cfg.CORSOrigins = strings.Split(origins, ",")

	for i, o := range cfg.CORSOrigins {
		cfg.CORSOrigins[i] = strings.TrimSpace(o)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// Addr returns the listen address in host:port format.
func (c *Config) Addr() string {
	return c.ListenHost + ":" + c.Port
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}
