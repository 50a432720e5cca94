package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_parseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("flags override defaults", func(t *testing.T) {
		os.Args = []string{"testbin",
			"-m", ":9999",
			"-d", "postgres://vault",
			"-s", "flag_secret",
			"-k", "flag_master",
			"-t", "60",
			"-w", "15",
			"-u", "s3user",
			"-p", "s3pass",
			"-b", "s3bucket",
			"-g", "s3region",
			"-e", "http://minio:9000/",
		}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFlags(cfg)

		assert.Equal(t, ":9999", cfg.MetricsAddr)
		assert.Equal(t, "postgres://vault", cfg.DatabaseDSN)
		assert.Equal(t, "flag_secret", cfg.SecretKey)
		assert.Equal(t, "flag_master", cfg.MasterKey)
		assert.Equal(t, 60*time.Minute, cfg.MaxTokenTTL)
		assert.Equal(t, 15*time.Minute, cfg.SweepInterval)
		assert.Equal(t, "s3user", cfg.S3AccessKey)
		assert.Equal(t, "s3pass", cfg.S3SecretKey)
		assert.Equal(t, "s3bucket", cfg.S3Bucket)
		assert.Equal(t, "s3region", cfg.S3Region)
		assert.Equal(t, "http://minio:9000/", cfg.S3BaseEndpoint)
	})

	t.Run("unknown flags are ignored", func(t *testing.T) {
		os.Args = []string{"testbin", "-x", "junk", "-d", "postgres://other"}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseFlags(cfg)

		assert.Equal(t, "postgres://other", cfg.DatabaseDSN)
		assert.Equal(t, ":8081", cfg.MetricsAddr)
	})
}
