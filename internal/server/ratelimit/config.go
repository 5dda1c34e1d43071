package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig is the limit applied to requests matching Method and Path.
// Path uses the pattern syntax described on MatchEndpoint.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int           // requests per Window; 0 is unlimited
	Window time.Duration
	Burst  int // defaults to Limit when 0
}

// Environment variables read by LoadConfig.
const (
	envEnabled         = "RATE_LIMIT_ENABLED"
	envDefaultLimit    = "RATE_LIMIT_DEFAULT_LIMIT"
	envDefaultWindow   = "RATE_LIMIT_DEFAULT_WINDOW"
	envCleanupInterval = "RATE_LIMIT_CLEANUP_INTERVAL"
	envWhitelist       = "RATE_LIMIT_WHITELIST"
	envBlacklist       = "RATE_LIMIT_BLACKLIST"
)

// LoadConfig loads rate limiting configuration from the process environment.
func LoadConfig() *Config {
	return LoadConfigFrom(os.Getenv)
}

// LoadConfigFrom loads rate limiting configuration through lookup. Unset or
// malformed values fall back to defaults.
func LoadConfigFrom(lookup func(string) string) *Config {
	e := env(lookup)
	if !e.boolOr(envEnabled, true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    e.intOr(envDefaultLimit, 1000),
		DefaultWindow:   e.durationOr(envDefaultWindow, time.Minute),
		CleanupInterval: e.durationOr(envCleanupInterval, 5*time.Minute),
		Whitelist:       parseIPList(lookup(envWhitelist)),
		Blacklist:       parseIPList(lookup(envBlacklist)),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the per-route limits. Page reads and filter
// changes fall under the default limit.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Each row action is one or two backend writes.
		{Path: "/app/screening/{variant}/rows/", Method: "POST", Limit: 120, Window: time.Minute, Burst: 10},
		{Path: "/app/screening/{variant}/reload", Method: "POST", Limit: 60, Window: time.Minute, Burst: 5},
		{Path: "/app/interview", Method: "POST", Limit: 60, Window: time.Minute, Burst: 5},

		// Import runs hold a backend worker until the import finishes.
		{Path: "/app/slack-to-raven-import/{name}/", Method: "POST", Limit: 10, Window: time.Hour, Burst: 2},

		{Path: "/auth/session", Method: "GET", Limit: 30, Window: time.Minute, Burst: 5},
	}
}

// env reads typed values through a lookup function.
type env func(string) string

func (e env) intOr(key string, def int) int {
	if n, err := strconv.Atoi(strings.TrimSpace(e(key))); err == nil {
		return n
	}
	return def
}

func (e env) boolOr(key string, def bool) bool {
	if b, err := strconv.ParseBool(strings.TrimSpace(e(key))); err == nil {
		return b
	}
	return def
}

func (e env) durationOr(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(e(key))); err == nil {
		return d
	}
	return def
}

// parseIPList parses a comma-separated list of client addresses.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
