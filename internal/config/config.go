package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration for the allocation dashboard.
type Config struct {
	Port            int
	LogLevel        string
	FeedInterval    time.Duration
	LoadInterval    time.Duration
	BatchInterval   time.Duration
	FeedCapacity    int
	FeedBackfill    int
	OrderCount      int
	PageSize        int
	Seed            uint64 // 0 means seed from the clock
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

var defaults = map[string]any{
	"PORT":             8080,
	"LOG_LEVEL":        "info",
	"FEED_INTERVAL":    "2s",
	"LOAD_INTERVAL":    "3s",
	"BATCH_INTERVAL":   "1500ms",
	"FEED_CAPACITY":    20,
	"FEED_BACKFILL":    8,
	"ORDER_COUNT":      25,
	"PAGE_SIZE":        10,
	"SEED":             0,
	"READ_TIMEOUT":     "5s",
	"WRITE_TIMEOUT":    "10s",
	"IDLE_TIMEOUT":     "60s",
	"SHUTDOWN_TIMEOUT": "10s",
}

// Load reads configuration from an optional YAML file named by CONFIG_FILE
// and from environment variables, applies defaults, and validates values.
// Environment variables win over the file. It returns an error for any
// invalid value.
func Load() (*Config, error) {
	v := viper.New()
	for key, val := range defaults {
		v.SetDefault(key, val)
	}
	v.AutomaticEnv()

	if err := v.BindEnv("CONFIG_FILE"); err != nil {
		return nil, fmt.Errorf("bind CONFIG_FILE: %w", err)
	}
	if path := v.GetString("CONFIG_FILE"); path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("invalid CONFIG_FILE: %w", err)
		}
	}

	r := reader{v: v}

	port := r.getInt("PORT")
	logLevel := strings.ToLower(v.GetString("LOG_LEVEL"))
	if r.err == nil && !isValidLogLevel(logLevel) {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %q, must be one of: debug, info, warn, error", logLevel)
	}

	cfg := &Config{
		Port:            port,
		LogLevel:        logLevel,
		FeedInterval:    r.getPositiveDuration("FEED_INTERVAL"),
		LoadInterval:    r.getPositiveDuration("LOAD_INTERVAL"),
		BatchInterval:   r.getPositiveDuration("BATCH_INTERVAL"),
		FeedCapacity:    r.getIntAtLeast("FEED_CAPACITY", 1),
		FeedBackfill:    r.getIntAtLeast("FEED_BACKFILL", 0),
		OrderCount:      r.getIntAtLeast("ORDER_COUNT", 0),
		PageSize:        r.getIntAtLeast("PAGE_SIZE", 1),
		Seed:            r.getUint64("SEED"),
		ReadTimeout:     r.getDuration("READ_TIMEOUT"),
		WriteTimeout:    r.getDuration("WRITE_TIMEOUT"),
		IdleTimeout:     r.getDuration("IDLE_TIMEOUT"),
		ShutdownTimeout: r.getDuration("SHUTDOWN_TIMEOUT"),
	}
	if r.err != nil {
		return nil, r.err
	}
	return cfg, nil
}

// reader parses keys in order and keeps the first error.
type reader struct {
	v   *viper.Viper
	err error
}

func (r *reader) fail(key string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("invalid %s: %w", key, err)
	}
}

func (r *reader) getInt(key string) int {
	n, err := strconv.Atoi(strings.TrimSpace(r.v.GetString(key)))
	if err != nil {
		r.fail(key, err)
	}
	return n
}

func (r *reader) getIntAtLeast(key string, minVal int) int {
	n := r.getInt(key)
	if r.err == nil && n < minVal {
		r.fail(key, fmt.Errorf("%d is below the minimum of %d", n, minVal))
	}
	return n
}

func (r *reader) getUint64(key string) uint64 {
	n, err := strconv.ParseUint(strings.TrimSpace(r.v.GetString(key)), 10, 64)
	if err != nil {
		r.fail(key, err)
	}
	return n
}

func (r *reader) getDuration(key string) time.Duration {
	d, err := time.ParseDuration(strings.TrimSpace(r.v.GetString(key)))
	if err != nil {
		r.fail(key, err)
	}
	return d
}

func (r *reader) getPositiveDuration(key string) time.Duration {
	d := r.getDuration(key)
	if r.err == nil && d <= 0 {
		r.fail(key, fmt.Errorf("%s must be positive", d))
	}
	return d
}

func isValidLogLevel(level string) bool {
	switch level {
	case "debug", "info", "warn", "error":
		return true
	}
	return false
}
