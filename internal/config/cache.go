package config

import (
    "os"
    "time"
)

// CacheConfig defines settings for the result cache.  When Enabled is false
// or no Redis client is configured, caching is disabled and every lookup
// behaves as a miss.  The TTLs cover the cacheable boundaries of the
// booking pipeline: search results, seat layouts, SSR listings and locked
// pricing sessions.  Prefix namespaces every key so a whole concern can be
// invalidated in bulk.
type CacheConfig struct {
    Enabled    bool
    Prefix     string
    SearchTTL  time.Duration
    SeatTTL    time.Duration
    SSRTTL     time.Duration
    PricingTTL time.Duration
}

// LoadCacheConfig reads environment variables to build a CacheConfig.
// Defaults match the supplier session lifetimes: search results go stale in
// 5 minutes, seat maps and SSRs in 15, pricing locks in 15.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:    getenv("CACHE_ENABLED", "true") == "true",
        Prefix:     getenv("CACHE_PREFIX", "flight"),
        SearchTTL:  parseDur(getenv("CACHE_SEARCH_TTL", "5m")),
        SeatTTL:    parseDur(getenv("CACHE_SEAT_TTL", "15m")),
        SSRTTL:     parseDur(getenv("CACHE_SSR_TTL", "15m")),
        PricingTTL: parseDur(getenv("CACHE_PRICING_TTL", "15m")),
    }
}

// Helper functions reused from redis.go and ratelimit.go
func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

func parseDur(s string) time.Duration {
    d, err := time.ParseDuration(s)
    if err != nil {
        return time.Second
    }
    return d
}
