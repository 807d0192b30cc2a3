package config

import (
	"time"

	"github.com/spf13/cast"
)

// RateLimitConfig configures the Redis token bucket applied to the write
// routes.  There is no user identity in this service, so keys are built
// from the client IP and the route.
type RateLimitConfig struct {
	Enabled        bool
	Capacity       int
	RefillTokens   int
	RefillInterval time.Duration
	TTL            time.Duration
	KeyStrategy    string
	Prefix         string
	Debug          bool
}

func LoadRateLimitConfig() RateLimitConfig {
	def := RateLimitConfig{
		Enabled:        cast.ToBool(getOrDefault("RATE_LIMIT_ENABLED", true)),
		Capacity:       cast.ToInt(getOrDefault("RATE_LIMIT_CAPACITY", 30)),
		RefillTokens:   cast.ToInt(getOrDefault("RATE_LIMIT_REFILL_TOKENS", 1)),
		RefillInterval: durationOr(getOrDefault("RATE_LIMIT_REFILL_INTERVAL", "1s"), time.Second),
		TTL:            durationOr(getOrDefault("RATE_LIMIT_TTL", "10m"), 10*time.Minute),
		KeyStrategy:    cast.ToString(getOrDefault("RATE_LIMIT_KEY_STRATEGY", "ip_route")),
		Prefix:         cast.ToString(getOrDefault("RATE_LIMIT_PREFIX", "carshare:rl")),
		Debug:          cast.ToBool(getOrDefault("RATE_LIMIT_DEBUG", false)),
	}
	return def.normalize()
}

func (c RateLimitConfig) normalize() RateLimitConfig {
	if c.Capacity < 1 {
		c.Capacity = 1
	}
	if c.RefillTokens < 1 {
		c.RefillTokens = 1
	}
	if c.RefillInterval <= 0 {
		c.RefillInterval = time.Second
	}
	if minTTL := 5 * c.RefillInterval; c.TTL < minTTL {
		c.TTL = minTTL
	}
	return c
}
