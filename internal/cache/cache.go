package cache

import (
    "context"
    "crypto/sha1"
    "encoding/json"
    "fmt"
    "sort"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/flight-booking/internal/config"
    "github.com/iliyamo/flight-booking/internal/model"
)

// Namespaces under the configured prefix.  Keys look like
// "flight:search:<sha1>"; InvalidateNamespace removes a whole namespace.
const (
    NamespaceSearch  = "search"
    NamespaceSeat    = "seat"
    NamespaceSSR     = "ssr"
    NamespacePricing = "pricing"
)

// ResultCache is a JSON result cache over Redis.  A nil Redis client or a
// disabled config degrades every operation to a miss, so callers never need
// to special-case an absent cache.  Corrupt entries are treated as misses
// and deleted.
type ResultCache struct {
    cfg config.CacheConfig
    rdb *redis.Client
    log *logrus.Entry
}

func New(cfg config.CacheConfig, rdb *redis.Client, log *logrus.Logger) *ResultCache {
    return &ResultCache{cfg: cfg, rdb: rdb, log: log.WithField("component", "cache")}
}

func (rc *ResultCache) enabled() bool {
    return rc.cfg.Enabled && rc.rdb != nil
}

func (rc *ResultCache) key(namespace, id string) string {
    return fmt.Sprintf("%s:%s:%s", rc.cfg.Prefix, namespace, id)
}

// TTLFor returns the configured TTL for a namespace.
func (rc *ResultCache) TTLFor(namespace string) time.Duration {
    switch namespace {
    case NamespaceSearch:
        return rc.cfg.SearchTTL
    case NamespaceSeat:
        return rc.cfg.SeatTTL
    case NamespaceSSR:
        return rc.cfg.SSRTTL
    case NamespacePricing:
        return rc.cfg.PricingTTL
    }
    return time.Minute
}

// Get unmarshals the cached entry into dest.  Returns false on miss,
// disabled cache, or a corrupt entry (which is removed).
func (rc *ResultCache) Get(ctx context.Context, namespace, id string, dest any) bool {
    if !rc.enabled() {
        return false
    }
    key := rc.key(namespace, id)
    bs, err := rc.rdb.Get(ctx, key).Bytes()
    if err != nil {
        return false
    }
    if err := json.Unmarshal(bs, dest); err != nil {
        rc.log.WithField("key", key).Warn("dropping corrupt cache entry")
        _ = rc.rdb.Del(ctx, key).Err()
        return false
    }
    return true
}

// Set stores value under the namespace with its configured TTL.  Failures
// are logged, never surfaced: the cache must not break the request path.
func (rc *ResultCache) Set(ctx context.Context, namespace, id string, value any) {
    if !rc.enabled() {
        return
    }
    bs, err := json.Marshal(value)
    if err != nil {
        rc.log.WithError(err).Warn("cache marshal failed")
        return
    }
    if err := rc.rdb.SetEx(ctx, rc.key(namespace, id), bs, rc.TTLFor(namespace)).Err(); err != nil {
        rc.log.WithError(err).Warn("cache write failed")
    }
}

// GetOrSet returns the cached entry when present, otherwise runs fill,
// stores its result and returns it.  The bool reports whether the value
// came from the cache.  Errors from fill are passed through unstored.
func (rc *ResultCache) GetOrSet(ctx context.Context, namespace, id string, dest any, fill func(context.Context) (any, error)) (bool, error) {
    if rc.Get(ctx, namespace, id, dest) {
        return true, nil
    }
    v, err := fill(ctx)
    if err != nil {
        return false, err
    }
    rc.Set(ctx, namespace, id, v)
    // round-trip through JSON so dest is populated the same way a cache
    // hit would populate it
    bs, err := json.Marshal(v)
    if err != nil {
        return false, err
    }
    return false, json.Unmarshal(bs, dest)
}

// InvalidateNamespace deletes every key under one namespace using SCAN, so
// large keyspaces do not block Redis the way KEYS would.
func (rc *ResultCache) InvalidateNamespace(ctx context.Context, namespace string) error {
    if !rc.enabled() {
        return nil
    }
    pattern := rc.key(namespace, "*")
    iter := rc.rdb.Scan(ctx, 0, pattern, 100).Iterator()
    var keys []string
    for iter.Next(ctx) {
        keys = append(keys, iter.Val())
        if len(keys) >= 100 {
            if err := rc.rdb.Del(ctx, keys...).Err(); err != nil {
                return err
            }
            keys = keys[:0]
        }
    }
    if err := iter.Err(); err != nil {
        return err
    }
    if len(keys) > 0 {
        return rc.rdb.Del(ctx, keys...).Err()
    }
    return nil
}

// SearchFingerprint derives a stable key for a search request.  Parameters
// are normalized (trimmed, upper-cased codes, sorted airline list) before
// hashing so trivially different requests share an entry.
func SearchFingerprint(req model.SearchRequest) string {
    airlines := make([]string, len(req.PreferredAirlines))
    for i, a := range req.PreferredAirlines {
        airlines[i] = strings.ToUpper(strings.TrimSpace(a))
    }
    sort.Strings(airlines)

    parts := []string{
        strings.ToLower(strings.TrimSpace(req.TripType)),
        strings.ToUpper(strings.TrimSpace(req.Origin)),
        strings.ToUpper(strings.TrimSpace(req.Destination)),
        req.DepartureDate,
        req.ReturnDate,
        fmt.Sprintf("%d-%d-%d", req.Adults, req.Children, req.Infants),
        strings.ToUpper(strings.TrimSpace(req.Cabin)),
        strings.Join(airlines, ","),
        fmt.Sprintf("%t-%t-%t-%t-%t-%t", req.DirectOnly, req.RefundableOnly,
            req.StudentFare, req.NearbyAirports, req.ExtendedSearch, req.MultipleCarrier),
        req.GroupType,
    }
    sum := sha1.Sum([]byte(strings.Join(parts, "|")))
    return fmt.Sprintf("%x", sum[:])
}
