package config

import (
    "context"
    "crypto/tls"
    "fmt"
    "time"

    "github.com/redis/go-redis/v9"
)

// redisOptions builds client options from the environment.  REDIS_URL
// (redis:// or rediss://) wins when set; otherwise REDIS_ADDR, REDIS_PASSWORD,
// REDIS_DB and REDIS_TLS describe the server.
func redisOptions() (*redis.Options, error) {
    if raw := getenv("REDIS_URL", ""); raw != "" {
        opts, err := redis.ParseURL(raw)
        if err != nil {
            return nil, fmt.Errorf("parse REDIS_URL: %w", err)
        }
        return opts, nil
    }
    opts := &redis.Options{
        Addr:     getenv("REDIS_ADDR", "localhost:6379"),
        Password: getenv("REDIS_PASSWORD", ""),
        DB:       envInt("REDIS_DB", 0),
    }
    if envBool("REDIS_TLS", false) {
        opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    return opts, nil
}

// NewRedisClient connects to Redis for sessions, rate limiting and the
// class list cache.  It returns nil when REDIS_DISABLED is set or the
// server does not answer a ping within two seconds; callers then fall back
// to in-process sessions with limiting and caching off.
func NewRedisClient() *redis.Client {
    if envBool("REDIS_DISABLED", false) {
        return nil
    }
    opts, err := redisOptions()
    if err != nil {
        return nil
    }
    client := redis.NewClient(opts)
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        _ = client.Close()
        return nil
    }
    return client
}
