package config

import (
	"errors"
	"os"
	"time"
)

// ErrMissingDatabaseURL is returned by LoadFromFile when database_url is empty.
var ErrMissingDatabaseURL = errors.New("database_url is required")

const (
	defaultServerPort = "8080"
	defaultUserAgent  = "m3uforge/1.0"
	defaultTimeout    = 30 * time.Second
	defaultLogLevel   = "info"
)

// Config holds application configuration. Load fills it from the
// environment (DATABASE_URL, REDIS_URL, SERVER_PORT, FETCHER_USER_AGENT,
// FETCHER_TIMEOUT, LOG_LEVEL, LOG_FILE), LoadFromFile from YAML.
type Config struct {
	DatabaseURL string // empty = in-memory store
	RedisURL    string // empty = no cache, lock or queue
	ServerPort  string
	UserAgent   string
	Timeout     time.Duration
	LogLevel    string
	LogFile     string
}

// Load builds config from environment variables, after loading .env.local
// and .env (variables already set are kept).
func Load() (*Config, error) {
	loadEnvFiles()
	c := &Config{
		DatabaseURL: os.Getenv("DATABASE_URL"),
		RedisURL:    os.Getenv("REDIS_URL"),
		ServerPort:  os.Getenv("SERVER_PORT"),
		UserAgent:   os.Getenv("FETCHER_USER_AGENT"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		LogFile:     os.Getenv("LOG_FILE"),
	}
	if s := os.Getenv("FETCHER_TIMEOUT"); s != "" {
		if d, err := time.ParseDuration(s); err == nil {
			c.Timeout = d
		}
	}
	c.applyDefaults()
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.ServerPort == "" {
		c.ServerPort = defaultServerPort
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
}
