package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func envMap(kv map[string]string) LookupFunc {
	return func(key string) (string, bool) {
		v, ok := kv[key]
		return v, ok
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8080, ShutdownTimeout: time.Second, RequestTimeout: time.Minute},
		Upload: UploadConfig{MaxFileSize: 1, MaxConcurrent: 1, MaxWaitTime: time.Second},
		Pipeline: PipelineConfig{
			SourceAName: "ORSE", SourceBName: "SIMAPI",
			SourceADelay: time.Second, SourceBDelay: time.Second, ConsolidateDelay: time.Second,
			RunTimeout: time.Minute, ReadingProgress: 20,
		},
		Session: SessionConfig{Secret: testSecret, CookieName: "s", TTL: time.Hour, SweepInterval: time.Minute},
		Rate:    RateLimitConfig{Enabled: true, RequestsPerMinute: 100, UploadLimit: 10},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{"SESSION_SECRET": testSecret}))
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, time.Duration(0), cfg.Server.WriteTimeout)
	assert.Equal(t, int64(20971520), cfg.Upload.MaxFileSize)
	assert.Equal(t, 5, cfg.Upload.MaxConcurrent)
	assert.Equal(t, "ORSE", cfg.Pipeline.SourceAName)
	assert.Equal(t, "SIMAPI", cfg.Pipeline.SourceBName)
	assert.Equal(t, 2*time.Second, cfg.Pipeline.SourceADelay)
	assert.Equal(t, 2*time.Second, cfg.Pipeline.SourceBDelay)
	assert.Equal(t, time.Second, cfg.Pipeline.ConsolidateDelay)
	assert.Equal(t, 20, cfg.Pipeline.ReadingProgress)
	assert.Equal(t, "orcaflow_session", cfg.Session.CookieName)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL)
	assert.True(t, cfg.Rate.Enabled)
	assert.True(t, cfg.Security.EnableCSP)
	assert.Empty(t, cfg.Security.TrustedProxies)
}

func TestLoad_OverrideDefaults(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"SESSION_SECRET":          testSecret,
		"SERVER_PORT":             "9090",
		"UPLOAD_MAX_CONCURRENT":   "10",
		"PIPELINE_SOURCE_A_DELAY": "500ms",
		"LOG_LEVEL":               "debug",
		"SESSION_SECURE":          "true",
	}))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Upload.MaxConcurrent)
	assert.Equal(t, 500*time.Millisecond, cfg.Pipeline.SourceADelay)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Session.Secure)
}

func TestLoad_AltEnvVar(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"SESSION_SECRET": testSecret,
		"PORT":           "3000",
	}))
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:3000", cfg.Server.Addr())
}

func TestLoad_FromProcessEnv(t *testing.T) {
	t.Setenv("SESSION_SECRET", testSecret)
	t.Setenv("PIPELINE_SOURCE_B_NAME", "SINAPI")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "SINAPI", cfg.Pipeline.SourceBName)
}

func TestLoad_MissingRequired(t *testing.T) {
	_, err := LoadFrom(envMap(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SESSION_SECRET")
}

func TestLoad_InvalidValue(t *testing.T) {
	_, err := LoadFrom(envMap(map[string]string{
		"SESSION_SECRET":      testSecret,
		"SERVER_READ_TIMEOUT": "soon",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SERVER_READ_TIMEOUT")
}

func TestLoad_CommaSeparatedSlice(t *testing.T) {
	cfg, err := LoadFrom(envMap(map[string]string{
		"SESSION_SECRET":  testSecret,
		"TRUSTED_PROXIES": "10.0.0.0/8, 172.16.0.0/12 , ,127.0.0.1",
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"10.0.0.0/8", "172.16.0.0/12", "127.0.0.1"}, cfg.Security.TrustedProxies)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"valid", func(*Config) {}, ""},
		{"port", func(c *Config) { c.Server.Port = 99999 }, "SERVER_PORT"},
		{"short secret", func(c *Config) { c.Session.Secret = "short" }, "SESSION_SECRET"},
		{"run timeout below delays", func(c *Config) { c.Pipeline.RunTimeout = 2 * time.Second }, "PIPELINE_RUN_TIMEOUT"},
		{"reading progress", func(c *Config) { c.Pipeline.ReadingProgress = 30 }, "PIPELINE_READING_PROGRESS"},
		{"blank source", func(c *Config) { c.Pipeline.SourceAName = " " }, "PIPELINE_SOURCE_A_NAME"},
		{"bad proxy", func(c *Config) { c.Security.TrustedProxies = []string{"not-an-ip"} }, "TRUSTED_PROXIES"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "LOG_LEVEL"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, "LOG_FORMAT"},
		{"rate", func(c *Config) { c.Rate.RequestsPerMinute = 0 }, "RATE_LIMIT_REQUESTS_PER_MINUTE"},
		{"rate disabled ignores limits", func(c *Config) { c.Rate = RateLimitConfig{} }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.want == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_ReportsAllErrors(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	cfg.Logging.Format = "xml"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Equal(t, 2, strings.Count(err.Error(), "\n  - "))
}

func TestString_MasksSecret(t *testing.T) {
	s := validConfig().String()
	assert.NotContains(t, s, testSecret)
	assert.Contains(t, s, "[MASKED]")
}
