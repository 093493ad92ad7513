package ratelimit

import (
	"net/http"
	"strings"
)

// unlimited is returned for probes and CORS preflights.
var unlimited = EndpointConfig{}

func isProbe(path, method string) bool {
	if method == http.MethodOptions {
		return true
	}
	return method == http.MethodGet && (path == "/health" || path == "/")
}

// MatchEndpoint returns the configuration governing method on path, or nil
// when the default limit applies. A config whose Path ends in "/" covers
// every path below it; exact paths win over prefixes and longer prefixes
// win over shorter ones.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if isProbe(path, method) {
		cfg := unlimited
		return &cfg
	}

	var best *EndpointConfig
	for i := range configs {
		cfg := &configs[i]
		if cfg.Method != method {
			continue
		}
		if cfg.Path == path {
			return cfg
		}
		if strings.HasSuffix(cfg.Path, "/") && strings.HasPrefix(path, cfg.Path) {
			if best == nil || len(cfg.Path) > len(best.Path) {
				best = cfg
			}
		}
	}
	return best
}
