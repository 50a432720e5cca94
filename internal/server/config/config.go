// Package config handles configuration for the server component,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the vault server.
//
// Fields:
//   - MetricsAddr: bind address for the Prometheus metrics endpoint.
//   - DatabaseDSN: PostgreSQL DSN (pgx); empty selects the in-memory store.
//   - SecretKey: HMAC secret for signing consent tokens (HS256). Do not use test defaults in prod.
//   - MasterKey: vault master key; per-user partition keys derive from it.
//   - MaxTokenTTL: upper bound on issued token lifetimes.
//   - SweepInterval: how often the expiry sweep runs.
//   - HistoryTTL / BehavioralTTL: retention overrides per category (0 keeps the default).
//   - ProfileCacheTTL: lifetime of cached derived profiles.
//   - ExportTransitKey: when set, export packages are sealed for transit.
//   - S3AccessKey / S3SecretKey: credentials for the S3-compatible backend.
//   - S3Bucket / S3Region / S3BaseEndpoint: object storage settings; an empty
//     bucket disables export delivery.
type Config struct {
	MetricsAddr      string
	DatabaseDSN      string
	SecretKey        string
	MasterKey        string
	MaxTokenTTL      time.Duration
	SweepInterval    time.Duration
	HistoryTTL       time.Duration
	BehavioralTTL    time.Duration
	ProfileCacheTTL  time.Duration
	ExportTransitKey string
	S3AccessKey      string
	S3SecretKey      string
	S3Bucket         string
	S3Region         string
	S3BaseEndpoint   string
}

// LoadDefaults populates Config with sensible development defaults.
// NOTE: These values are insecure for production and should be overridden.
func (c *Config) LoadDefaults() {
	c.MetricsAddr = ":8081"
	c.DatabaseDSN = ""
	c.SecretKey = "secretKey"
	c.MasterKey = ""
	c.MaxTokenTTL = 24 * time.Hour
	c.SweepInterval = 1 * time.Hour
	c.HistoryTTL = 0
	c.BehavioralTTL = 0
	c.ProfileCacheTTL = 5 * time.Minute
	c.ExportTransitKey = ""
	c.S3AccessKey = "admin"
	c.S3SecretKey = "secretpassword"
	c.S3Bucket = ""
	c.S3Region = "us-east-1"
	c.S3BaseEndpoint = "http://127.0.0.1:9000/"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
