package config

import "time"

// RateLimitConfig sizes the token bucket guarding the login, registration
// and booking posts.  A bucket holds Capacity tokens and regains
// RefillTokens every RefillInterval.  Idle buckets expire after TTL.
type RateLimitConfig struct {
    Enabled        bool
    Capacity       int
    RefillTokens   int
    RefillInterval time.Duration
    TTL            time.Duration
    KeyStrategy    string // "ip", "user" or "ip_user_route"
    Prefix         string
    Debug          bool // expose bucket state in X-RateLimit-* headers
}

// LoadRateLimitConfig reads the RATE_LIMIT_* variables.  The defaults allow
// a burst of 20 form posts and one more every three seconds.
func LoadRateLimitConfig() RateLimitConfig {
    return RateLimitConfig{
        Enabled:        envBool("RATE_LIMIT_ENABLED", true),
        Capacity:       envInt("RATE_LIMIT_CAPACITY", 20),
        RefillTokens:   envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval: envDur("RATE_LIMIT_REFILL_INTERVAL", 3*time.Second),
        TTL:            envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:    getenv("RATE_LIMIT_KEY_STRATEGY", "ip_user_route"),
        Prefix:         getenv("RATE_LIMIT_PREFIX", "rl"),
        Debug:          envBool("RATE_LIMIT_DEBUG", false),
    }.clamp()
}

// clamp repairs values the bucket script cannot work with.  A bucket must
// outlive a few refill intervals or it would reset to full while throttled.
func (rl RateLimitConfig) clamp() RateLimitConfig {
    rl.Capacity = max(rl.Capacity, 1)
    rl.RefillTokens = max(rl.RefillTokens, 1)
    if rl.RefillInterval <= 0 {
        rl.RefillInterval = time.Second
    }
    rl.TTL = max(rl.TTL, 5*rl.RefillInterval)
    return rl
}
