// Package config loads application settings from environment variables.
// Defaults cover local development; Validate reports every bad value at once
// so a misconfigured deployment fails on startup.
package config

import (
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server   ServerConfig
	Upload   UploadConfig
	Pipeline PipelineConfig
	Session  SessionConfig
	Rate     RateLimitConfig
	Security SecurityConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on. PORT is honored for PaaS deployments.
	Port int `env:"SERVER_PORT" envAlt:"PORT" default:"8080"`

	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout stays 0 so the /updates event stream is not cut off.
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"0s"`

	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout bounds the wait for in-flight requests and runs on exit.
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout applies to every route except the event stream.
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// UploadConfig holds spreadsheet upload and run admission settings.
type UploadConfig struct {
	// MaxFileSize is the largest accepted spreadsheet in bytes (default: 20MB)
	MaxFileSize int64 `env:"UPLOAD_MAX_FILE_SIZE" default:"20971520"`

	// MaxConcurrent is the number of processing runs allowed at once across sessions
	MaxConcurrent int `env:"UPLOAD_MAX_CONCURRENT" default:"5"`

	// MaxWaitTime is how long a run waits for a free slot before failing
	MaxWaitTime time.Duration `env:"UPLOAD_MAX_WAIT_TIME" default:"10s"`
}

// PipelineConfig holds the processing run settings.
type PipelineConfig struct {
	// SourceAName and SourceBName label the two reference sources in the UI.
	SourceAName string `env:"PIPELINE_SOURCE_A_NAME" default:"ORSE"`
	SourceBName string `env:"PIPELINE_SOURCE_B_NAME" default:"SIMAPI"`

	SourceADelay     time.Duration `env:"PIPELINE_SOURCE_A_DELAY" default:"2s"`
	SourceBDelay     time.Duration `env:"PIPELINE_SOURCE_B_DELAY" default:"2s"`
	ConsolidateDelay time.Duration `env:"PIPELINE_CONSOLIDATE_DELAY" default:"1s"`

	// RunTimeout bounds a whole run; a run past it ends in the error stage.
	RunTimeout time.Duration `env:"PIPELINE_RUN_TIMEOUT" default:"2m"`

	// ReadingProgress is the percentage shown while a file is parsed.
	ReadingProgress int `env:"PIPELINE_READING_PROGRESS" default:"20"`
}

// SessionConfig holds browser session settings.
type SessionConfig struct {
	// Secret signs the session cookie (required, at least 32 bytes)
	Secret string `env:"SESSION_SECRET" required:"true"`

	CookieName string `env:"SESSION_COOKIE_NAME" default:"orcaflow_session"`

	// TTL is how long an untouched session's state is kept in memory.
	TTL time.Duration `env:"SESSION_TTL" default:"2h"`

	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" default:"5m"`

	// Secure marks the cookie HTTPS-only.
	Secure bool `env:"SESSION_SECURE" default:"false"`
}

// RateLimitConfig holds per-IP rate limiting settings.
type RateLimitConfig struct {
	Enabled bool `env:"RATE_LIMIT_ENABLED" default:"true"`

	// RequestsPerMinute applies to every route except the event stream.
	RequestsPerMinute int `env:"RATE_LIMIT_REQUESTS_PER_MINUTE" default:"120"`

	// UploadLimit is requests per minute for POST /upload and POST /process.
	UploadLimit int `env:"RATE_LIMIT_UPLOAD" default:"20"`
}

// SecurityConfig holds security-related settings.
type SecurityConfig struct {
	// TrustedProxies is a comma-separated list of proxy CIDRs whose
	// X-Forwarded-For / X-Real-IP headers are believed.
	TrustedProxies []string `env:"TRUSTED_PROXIES"`

	EnableCSP bool `env:"SECURITY_ENABLE_CSP" default:"true"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + strconv.Itoa(c.Port)
}
