package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/consentvault/internal/flagx"
	"github.com/dmitrijs2005/consentvault/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "1h" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its set fields are copied
// into the runtime Config struct which uses time.Duration.
type JsonConfig struct {
	MetricsAddr      string         `json:"metrics_addr"`
	DatabaseDSN      string         `json:"database_dsn"`
	SecretKey        string         `json:"secret_key"`
	MasterKey        string         `json:"master_key"`
	MaxTokenTTL      timex.Duration `json:"max_token_ttl"`
	SweepInterval    timex.Duration `json:"sweep_interval"`
	HistoryTTL       timex.Duration `json:"history_ttl"`
	BehavioralTTL    timex.Duration `json:"behavioral_ttl"`
	ProfileCacheTTL  timex.Duration `json:"profile_cache_ttl"`
	ExportTransitKey string         `json:"export_transit_key"`
	S3AccessKey      string         `json:"s3_access_key"`
	S3SecretKey      string         `json:"s3_secret_key"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The lookup order for the JSON file path is:
//
//	The -c or -config command-line flags.
//	If it is not set, no JSON file is loaded.
//
// Only fields present in the file override the current values, so a
// partial file keeps the remaining defaults intact. If the file cannot be
// read or contains invalid JSON, the function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.JsonConfigFlags()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	if c.MetricsAddr != "" {
		config.MetricsAddr = c.MetricsAddr
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.MasterKey != "" {
		config.MasterKey = c.MasterKey
	}
	if c.MaxTokenTTL.Duration > 0 {
		config.MaxTokenTTL = c.MaxTokenTTL.Duration
	}
	if c.SweepInterval.Duration > 0 {
		config.SweepInterval = c.SweepInterval.Duration
	}
	if c.HistoryTTL.Duration > 0 {
		config.HistoryTTL = c.HistoryTTL.Duration
	}
	if c.BehavioralTTL.Duration > 0 {
		config.BehavioralTTL = c.BehavioralTTL.Duration
	}
	if c.ProfileCacheTTL.Duration > 0 {
		config.ProfileCacheTTL = c.ProfileCacheTTL.Duration
	}
	if c.ExportTransitKey != "" {
		config.ExportTransitKey = c.ExportTransitKey
	}
	if c.S3AccessKey != "" {
		config.S3AccessKey = c.S3AccessKey
	}
	if c.S3SecretKey != "" {
		config.S3SecretKey = c.S3SecretKey
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
}
