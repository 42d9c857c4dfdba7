/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package config reads process configuration from LESSONBOARD_* environment variables.
// SIGNAGE_* keys are accepted as legacy aliases.
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	prefix       = "LESSONBOARD_"
	legacyPrefix = "SIGNAGE_"
)

// SlidesBackend selects how slides are discovered.
type SlidesBackend string

const (
	SlidesFilesystem SlidesBackend = "fs"
	SlidesHTTP       SlidesBackend = "http"
	SlidesS3         SlidesBackend = "s3"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int

	ScheduleSource string // file path or http(s) URL
	ScheduleReload time.Duration

	SlidesBackend    SlidesBackend
	SlidesDir        string
	SlidesURL        string // base URL probed by the http backend
	SlidesPublicPath string // route serving SlidesDir
	SlideExtensions  []string

	// S3 slide storage
	S3Bucket          string
	S3Prefix          string
	S3Region          string
	S3Endpoint        string // for S3-compatible services (MinIO, Spaces, etc.)
	S3PublicBaseURL   string
	S3UsePathStyle    bool
	S3AccessKeyID     string
	S3SecretAccessKey string

	// Loop timings
	Tick            time.Duration
	EntryTransition time.Duration
	ExitTransition  time.Duration
	SlideFade       time.Duration
	IdleMode        string
	Timezone        string
	Location        *time.Location

	WebRoot       string
	LogBufferSize int
	APIRateLimit  int // requests per minute per client IP on /api, 0 disables

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64

	// Kiosk browser
	KioskLaunch     bool
	KioskBrowserBin string

	EnvFile           string // env file that was loaded, empty if none
	LegacyEnvWarnings []string
}

// Load reads environment variables, applies defaults, and validates the result.
// Variables from an env file (LESSONBOARD_ENV_FILE, default ./.env) fill in anything the
// process environment does not already set.
func Load() (*Config, error) {
	envFile, err := loadEnvFile()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		EnvFile:     envFile,
		Environment: getEnv("ENV", "production"),
		HTTPBind:    getEnv("HTTP_BIND", "127.0.0.1"),
		HTTPPort:    getEnvInt("HTTP_PORT", 8080),

		ScheduleSource: getEnv("SCHEDULE_SOURCE", "./data.json"),
		ScheduleReload: time.Duration(getEnvInt("SCHEDULE_RELOAD_SECONDS", 0)) * time.Second,

		SlidesBackend:    SlidesBackend(strings.ToLower(getEnv("SLIDES_BACKEND", string(SlidesFilesystem)))),
		SlidesDir:        getEnv("SLIDES_DIR", "./slides"),
		SlidesURL:        getEnv("SLIDES_URL", ""),
		SlidesPublicPath: getEnv("SLIDES_PUBLIC_PATH", "/slides"),
		SlideExtensions:  splitList(getEnv("SLIDE_EXTENSIONS", "png,jpg")),

		S3Bucket:          getEnv("S3_BUCKET", ""),
		S3Prefix:          getEnv("S3_PREFIX", ""),
		S3Region:          getEnvAny(keys("S3_REGION", "AWS_REGION"), "us-east-1"),
		S3Endpoint:        getEnv("S3_ENDPOINT", ""),
		S3PublicBaseURL:   getEnv("S3_PUBLIC_BASE_URL", ""),
		S3UsePathStyle:    getEnvBool("S3_USE_PATH_STYLE", false),
		S3AccessKeyID:     getEnvAny(keys("S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"), ""),
		S3SecretAccessKey: getEnvAny(keys("S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"), ""),

		Tick:            getEnvMillis("TICK_MS", 500),
		EntryTransition: getEnvMillis("ENTRY_TRANSITION_MS", 2000),
		ExitTransition:  getEnvMillis("EXIT_TRANSITION_MS", 2000),
		SlideFade:       getEnvMillis("SLIDE_FADE_MS", 1000),
		IdleMode:        strings.ToLower(getEnv("IDLE_MODE", "slides")),
		Timezone:        getEnv("TIMEZONE", "Local"),

		WebRoot:       getEnv("WEB_ROOT", ""),
		LogBufferSize: getEnvInt("LOG_BUFFER_SIZE", 2000),
		APIRateLimit:  getEnvInt("API_RATE_LIMIT", 120),

		TracingEnabled:    getEnvBool("TRACING_ENABLED", false),
		OTLPEndpoint:      getEnv("OTLP_ENDPOINT", "localhost:4317"),
		TracingSampleRate: getEnvFloat("TRACING_SAMPLE_RATE", 1.0),

		KioskLaunch:     getEnvBool("KIOSK_LAUNCH", false),
		KioskBrowserBin: getEnv("KIOSK_BROWSER_BIN", ""),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%sTIMEZONE: %w", prefix, err)
	}
	cfg.Location = loc
	cfg.LegacyEnvWarnings = detectLegacyEnvWarnings()

	return cfg, nil
}

// loadEnvFile loads the env file if present. An explicitly named file must exist.
func loadEnvFile() (string, error) {
	path := os.Getenv(prefix + "ENV_FILE")
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if explicit {
			return "", fmt.Errorf("%sENV_FILE: %w", prefix, err)
		}
		return "", nil
	}
	if err := godotenv.Load(path); err != nil {
		return "", fmt.Errorf("load env file %s: %w", path, err)
	}
	return path, nil
}

func (c *Config) validate() error {
	if c.HTTPPort <= 0 || c.HTTPPort > 65535 {
		return fmt.Errorf("%sHTTP_PORT %d out of range", prefix, c.HTTPPort)
	}
	if c.ScheduleSource == "" {
		return fmt.Errorf("%sSCHEDULE_SOURCE must be provided", prefix)
	}
	if c.ScheduleReload < 0 {
		return fmt.Errorf("%sSCHEDULE_RELOAD_SECONDS must not be negative", prefix)
	}

	switch c.SlidesBackend {
	case SlidesFilesystem:
		if c.SlidesDir == "" {
			return fmt.Errorf("%sSLIDES_DIR must be provided for the fs backend", prefix)
		}
	case SlidesHTTP:
		if c.SlidesURL == "" {
			return fmt.Errorf("%sSLIDES_URL must be provided for the http backend", prefix)
		}
	case SlidesS3:
		if c.S3Bucket == "" {
			return fmt.Errorf("%sS3_BUCKET must be provided for the s3 backend", prefix)
		}
	default:
		return fmt.Errorf("unsupported slides backend %q", c.SlidesBackend)
	}

	if !strings.HasPrefix(c.SlidesPublicPath, "/") {
		return fmt.Errorf("%sSLIDES_PUBLIC_PATH must start with /", prefix)
	}

	for name, d := range map[string]time.Duration{
		"TICK_MS":             c.Tick,
		"ENTRY_TRANSITION_MS": c.EntryTransition,
		"EXIT_TRANSITION_MS":  c.ExitTransition,
		"SLIDE_FADE_MS":       c.SlideFade,
	} {
		if d <= 0 {
			return fmt.Errorf("%s%s must be positive", prefix, name)
		}
	}

	switch c.IdleMode {
	case "slides", "time_only", "hold":
	default:
		return fmt.Errorf("%sIDLE_MODE %q must be slides, time_only or hold", prefix, c.IdleMode)
	}

	if c.APIRateLimit < 0 {
		return fmt.Errorf("%sAPI_RATE_LIMIT must not be negative", prefix)
	}
	if c.TracingSampleRate < 0 || c.TracingSampleRate > 1 {
		return fmt.Errorf("%sTRACING_SAMPLE_RATE must be between 0 and 1", prefix)
	}
	return nil
}

// ListenAddr returns host:port for the HTTP listener.
func (c *Config) ListenAddr() string {
	return net.JoinHostPort(c.HTTPBind, strconv.Itoa(c.HTTPPort))
}

// LocalURL is where a browser on this machine reaches the renderer.
func (c *Config) LocalURL() string {
	host := c.HTTPBind
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(c.HTTPPort)) + "/"
}

var knownKeys = []string{
	"ENV", "HTTP_BIND", "HTTP_PORT", "SCHEDULE_SOURCE", "SCHEDULE_RELOAD_SECONDS",
	"SLIDES_BACKEND", "SLIDES_DIR", "SLIDES_URL", "SLIDES_PUBLIC_PATH", "SLIDE_EXTENSIONS",
	"S3_BUCKET", "S3_PREFIX", "S3_REGION", "S3_ENDPOINT", "S3_PUBLIC_BASE_URL", "S3_USE_PATH_STYLE",
	"S3_ACCESS_KEY_ID", "S3_SECRET_ACCESS_KEY",
	"TICK_MS", "ENTRY_TRANSITION_MS", "EXIT_TRANSITION_MS", "SLIDE_FADE_MS", "IDLE_MODE", "TIMEZONE",
	"WEB_ROOT", "LOG_BUFFER_SIZE", "API_RATE_LIMIT", "TRACING_ENABLED", "OTLP_ENDPOINT", "TRACING_SAMPLE_RATE",
	"KIOSK_LAUNCH", "KIOSK_BROWSER_BIN",
}

func detectLegacyEnvWarnings() []string {
	var warnings []string
	for _, name := range knownKeys {
		if os.Getenv(legacyPrefix+name) != "" {
			warnings = append(warnings, fmt.Sprintf("legacy env key %s%s is set; use %s%s", legacyPrefix, name, prefix, name))
		}
	}
	return warnings
}

// keys returns the lookup order for name: the current key, the legacy alias, then any extra raw keys.
func keys(name string, extra ...string) []string {
	return append([]string{prefix + name, legacyPrefix + name}, extra...)
}

func getEnv(name, def string) string {
	return getEnvAny(keys(name), def)
}

func getEnvInt(name string, def int) int {
	return getEnvIntAny(keys(name), def)
}

func getEnvBool(name string, def bool) bool {
	return getEnvBoolAny(keys(name), def)
}

func getEnvFloat(name string, def float64) float64 {
	return getEnvFloatAny(keys(name), def)
}

func getEnvMillis(name string, def int) time.Duration {
	return time.Duration(getEnvInt(name, def)) * time.Millisecond
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}

// getEnvIntAny returns the first set integer environment variable value from keys, or def.
func getEnvIntAny(keys []string, def int) int {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.Atoi(v); err == nil {
				return parsed
			}
		}
	}
	return def
}

// getEnvBoolAny returns the first set boolean environment variable value from keys, or def.
func getEnvBoolAny(keys []string, def bool) bool {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			v = strings.ToLower(strings.TrimSpace(v))
			if v == "true" || v == "1" || v == "yes" {
				return true
			}
			if v == "false" || v == "0" || v == "no" {
				return false
			}
		}
	}
	return def
}

// getEnvFloatAny returns the first set float environment variable value from keys, or def.
func getEnvFloatAny(keys []string, def float64) float64 {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			if parsed, err := strconv.ParseFloat(v, 64); err == nil {
				return parsed
			}
		}
	}
	return def
}
