package ratelimit

import (
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig loads rate limiting configuration from environment variables
// read through getenv.
func LoadConfig(getenv func(string) string) *Config {
	env := envReader(getenv)
	if !env.boolean("RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	verifyLimit := env.integer("RATE_LIMIT_VERIFY_PER_HOUR", 60)
	return &Config{
		Enabled:         true,
		DefaultLimit:    env.integer("RATE_LIMIT_DEFAULT_LIMIT", 1000),
		DefaultWindow:   env.duration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: env.duration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(env.str("RATE_LIMIT_WHITELIST", "")),
		Blacklist:       parseIPList(env.str("RATE_LIMIT_BLACKLIST", "")),
		EndpointConfigs: endpointConfigs(verifyLimit),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return endpointConfigs(60)
}

func endpointConfigs(verifyPerHour int) []EndpointConfig {
	burst := max(1, verifyPerHour/6)
	return []EndpointConfig{
		// Tier 1: verification fans out to paid providers (strictest limits)
		{Path: "/verify", Method: "POST", Limit: verifyPerHour, Window: time.Hour, Burst: burst},
		{Path: "/verify/stream", Method: "POST", Limit: verifyPerHour, Window: time.Hour, Burst: burst},

		// Tier 2: admin operations (moderate limits, slows password guessing)
		{Path: "/admin/login", Method: "POST", Limit: 10, Window: time.Minute, Burst: 5},
		{Path: "/history", Method: "DELETE", Limit: 10, Window: time.Minute, Burst: 2},

		// Tier 3: history reads are moderately priced; everything else uses the default
		{Path: "/history", Method: "GET", Limit: 300, Window: time.Minute, Burst: 30},
		{Path: "/history/", Method: "GET", Limit: 300, Window: time.Minute, Burst: 30},

		// Tier 4: Health check (unlimited) - handled by special case in matcher
	}
}

type envReader func(string) string

func (e envReader) str(key, defaultValue string) string {
	if value := e(key); value != "" {
		return value
	}
	return defaultValue
}

func (e envReader) integer(key string, defaultValue int) int {
	if value, err := strconv.Atoi(e(key)); err == nil {
		return value
	}
	return defaultValue
}

func (e envReader) boolean(key string, defaultValue bool) bool {
	if value, err := strconv.ParseBool(e(key)); err == nil {
		return value
	}
	return defaultValue
}

func (e envReader) duration(key string, defaultValue time.Duration) time.Duration {
	if value, err := time.ParseDuration(e(key)); err == nil {
		return value
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a map.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
