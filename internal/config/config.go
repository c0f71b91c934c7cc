package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/MimeLyc/dvr-mirror/pkg/log"
)

// Config holds all application configuration
// Supports environment variables with sensible defaults
//
// Environment Variables:
// Primary ingest API:
// - PRIMARY_API_BASE_URL: base URL (default: https://10.1.83.21:4230)
// - PRIMARY_API_INSECURE: skip TLS verification (default: true)
//
// Recorder API:
// - DVR_API_BASE_URL: base URL (default: http://10.1.85.53:8080)
//
// Polling:
// - POLL_INTERVAL: seconds between reconciliation cycles (default: 5)
// - HTTP_TIMEOUT: per-request timeout in seconds (default: 5)
// - RETRY_MAX_ATTEMPTS: attempts for GETs hitting 502/503/504 (default: 5)
//
// Status surface:
// - HTTP_PORT: listen port (default: 8001, FLASK_PORT is accepted too)
// - STATUS_RATE_LIMIT: requests per second (default: 20)
//
// State:
// - STATE_BACKEND: file or sqlite (default: file)
// - STATE_FILE: JSON state path (default: state/state.json)
// - STATE_DB: SQLite state path (default: state/state.db)
//
// Misc:
// - CHANNEL_MAP_FILE: YAML ingest/source map (default: built-in table)
// - LOG_LEVEL: debug, info, warn, error (default: info)
// - LOG_FILE: log file, empty for stdout only (default: logs/app.log)
type Config struct {
	Primary  PrimaryConfig  `json:"primary"`
	Recorder RecorderConfig `json:"recorder"`
	Poll     PollConfig     `json:"poll"`
	HTTP     HTTPConfig     `json:"http"`
	State    StateConfig    `json:"state"`
	Log      LogConfig      `json:"log"`
	Channels Channels       `json:"channels"`
}

type PrimaryConfig struct {
	BaseURL  string `json:"base_url"`
	Insecure bool   `json:"insecure"`
}

type RecorderConfig struct {
	BaseURL string `json:"base_url"`
}

type PollConfig struct {
	Interval         time.Duration `json:"interval"`
	RequestTimeout   time.Duration `json:"request_timeout"`
	RetryMaxAttempts int           `json:"retry_max_attempts"`
}

type HTTPConfig struct {
	Port      int     `json:"port"`
	RateLimit float64 `json:"rate_limit"`
}

func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("0.0.0.0:%d", c.Port)
}

const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

type StateConfig struct {
	Backend string `json:"backend"`
	File    string `json:"file"`
	DBPath  string `json:"db_path"`
}

type LogConfig struct {
	Level string `json:"level"`
	File  string `json:"file"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// Load reads an optional dotenv file into the environment, then builds the
// config from environment variables. Variables already set win over the file.
func Load(dotenvPath string, opts ...Option) (*Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}
	return NewFromEnv(opts...)
}

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	port := getEnvInt("HTTP_PORT", getEnvInt("FLASK_PORT", 8001))

	config := &Config{
		Primary: PrimaryConfig{
			BaseURL:  strings.TrimRight(getEnvString("PRIMARY_API_BASE_URL", "https://10.1.83.21:4230"), "/"),
			Insecure: getEnvBool("PRIMARY_API_INSECURE", true),
		},
		Recorder: RecorderConfig{
			BaseURL: strings.TrimRight(getEnvString("DVR_API_BASE_URL", "http://10.1.85.53:8080"), "/"),
		},
		Poll: PollConfig{
			Interval:         time.Duration(getEnvInt("POLL_INTERVAL", 5)) * time.Second,
			RequestTimeout:   time.Duration(getEnvInt("HTTP_TIMEOUT", 5)) * time.Second,
			RetryMaxAttempts: getEnvInt("RETRY_MAX_ATTEMPTS", 5),
		},
		HTTP: HTTPConfig{
			Port:      port,
			RateLimit: getEnvFloat("STATUS_RATE_LIMIT", 20),
		},
		State: StateConfig{
			Backend: strings.ToLower(getEnvString("STATE_BACKEND", BackendFile)),
			File:    getEnvString("STATE_FILE", "state/state.json"),
			DBPath:  getEnvString("STATE_DB", "state/state.db"),
		},
		Log: LogConfig{
			Level: getEnvString("LOG_LEVEL", "info"),
			File:  os.Getenv("LOG_FILE"),
		},
		Channels: DefaultChannels(),
	}
	if _, set := os.LookupEnv("LOG_FILE"); !set {
		config.Log.File = "logs/app.log"
	}

	if path := getEnvString("CHANNEL_MAP_FILE", ""); path != "" {
		ch, err := LoadChannelsFile(path)
		if err != nil {
			return nil, fmt.Errorf("CHANNEL_MAP_FILE: %w", err)
		}
		config.Channels = ch
	}

	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	log.Debug("Config: %+v", *config)
	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	if err := validateBaseURL("PRIMARY_API_BASE_URL", c.Primary.BaseURL); err != nil {
		return err
	}
	if err := validateBaseURL("DVR_API_BASE_URL", c.Recorder.BaseURL); err != nil {
		return err
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be > 0")
	}
	if c.Poll.RequestTimeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be > 0")
	}
	if c.Poll.RetryMaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be >= 1")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT %d is out of range", c.HTTP.Port)
	}
	switch c.State.Backend {
	case BackendFile:
		if strings.TrimSpace(c.State.File) == "" {
			return fmt.Errorf("STATE_FILE is required for the file backend")
		}
	case BackendSQLite:
		if strings.TrimSpace(c.State.DBPath) == "" {
			return fmt.Errorf("STATE_DB is required for the sqlite backend")
		}
	default:
		return fmt.Errorf("STATE_BACKEND %q must be one of: file, sqlite", c.State.Backend)
	}
	if err := c.Channels.Validate(); err != nil {
		return fmt.Errorf("channel map: %w", err)
	}
	return nil
}

func validateBaseURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", key, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host: %q", key, raw)
	}
	return nil
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
