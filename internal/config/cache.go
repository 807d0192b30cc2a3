package config

import (
	"strings"
	"time"

	"github.com/spf13/cast"
)

// CacheConfig defines settings for the response cache middleware.  When
// Enabled is false or no Redis client is available, caching is skipped.
// Only the read-only support endpoints are wrapped; the dashboard and the
// transaction routes always hit the database.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool
	TTL          time.Duration
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.  All methods are upper-cased.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      cast.ToBool(getOrDefault("CACHE_ENABLED", true)),
		Methods:      parseMethods(cast.ToString(getOrDefault("CACHE_METHODS", "GET"))),
		TTL:          durationOr(getOrDefault("CACHE_TTL", "30s"), time.Second),
		KeyStrategy:  cast.ToString(getOrDefault("CACHE_KEY_STRATEGY", "route_query")),
		Prefix:       cast.ToString(getOrDefault("CACHE_PREFIX", "carshare:cache")),
		MaxBodyBytes: cast.ToInt(getOrDefault("CACHE_MAX_BODY_BYTES", 1048576)),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}

// durationOr parses v as a duration and returns def when it cannot.
func durationOr(v interface{}, def time.Duration) time.Duration {
	d, err := cast.ToDurationE(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
