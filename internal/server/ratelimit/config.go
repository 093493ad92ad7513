package ratelimit

import (
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

// NewConfig limits write endpoints to writesPerMinute requests per client.
// Reads fall under a lenient default. Zero disables limiting.
func NewConfig(writesPerMinute int) *Config {
	if writesPerMinute <= 0 {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    max(writesPerMinute*10, 600),
		DefaultWindow:   time.Minute,
		CleanupInterval: 5 * time.Minute,
		IdleTTL:         time.Hour,
		EndpointConfigs: DefaultEndpointConfigs(writesPerMinute),
	}
}

// DefaultEndpointConfigs returns the write endpoint limits.
func DefaultEndpointConfigs(writesPerMinute int) []EndpointConfig {
	burst := max(writesPerMinute/6, 1)
	return []EndpointConfig{
		{Path: "/api/articles", Method: "POST", Limit: writesPerMinute, Window: time.Minute, Burst: burst},
		{Path: "/api/articles/", Method: "POST", Limit: writesPerMinute, Window: time.Minute, Burst: burst},
		{Path: "/api/articles/", Method: "PUT", Limit: writesPerMinute, Window: time.Minute, Burst: burst},
		{Path: "/api/articles/", Method: "DELETE", Limit: writesPerMinute, Window: time.Minute, Burst: burst},
	}
}
