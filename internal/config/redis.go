package config

// Redis backs the proof handoff store, the write-route rate limiter and the
// support-endpoint cache.  All three degrade gracefully when the client is
// nil: proofs are rendered inline and the middlewares pass through.

import (
	"context"
	"crypto/tls"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cast"
)

// NewRedisClient instantiates a Redis client using environment variables.
// Supported variables are:
//   REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//   REDIS_ADDR – host:port shorthand (host/port win when both are set)
//   REDIS_PASSWORD – optional password
//   REDIS_DB – database number (default 0)
//   REDIS_TLS – enable TLS when "true" or "1"
// The returned client is nil when REDIS_DISABLED is set or the server does
// not answer a ping within two seconds.
func NewRedisClient() *redis.Client {
	if cast.ToBool(getOrDefault("REDIS_DISABLED", false)) {
		return nil
	}
	addr := cast.ToString(getOrDefault("REDIS_ADDR", "localhost:6379"))
	host := cast.ToString(getOrDefault("REDIS_HOST", ""))
	port := cast.ToString(getOrDefault("REDIS_PORT", ""))
	if host != "" && port != "" {
		addr = host + ":" + port
	}

	var tlsConf *tls.Config
	if v := cast.ToString(getOrDefault("REDIS_TLS", "")); strings.EqualFold(v, "true") || v == "1" {
		tlsConf = &tls.Config{InsecureSkipVerify: true}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  cast.ToString(getOrDefault("REDIS_PASSWORD", "")),
		DB:        cast.ToInt(getOrDefault("REDIS_DB", 0)),
		TLSConfig: tlsConf,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil
	}
	return client
}
