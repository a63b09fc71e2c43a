package cache

import (
    "context"
    "errors"
    "testing"

    "github.com/sirupsen/logrus"

    "github.com/iliyamo/flight-booking/internal/config"
    "github.com/iliyamo/flight-booking/internal/model"
)

func baseRequest() model.SearchRequest {
    return model.SearchRequest{
        TripType:          model.TripOneWay,
        Origin:            "DEL",
        Destination:       "BOM",
        DepartureDate:     "2026-09-15",
        Adults:            2,
        Cabin:             "economy",
        PreferredAirlines: []string{"6E", "AI"},
    }
}

func TestSearchFingerprintIgnoresIncidentalDifferences(t *testing.T) {
    a := baseRequest()

    b := baseRequest()
    b.Origin = " del "
    b.Cabin = "Economy"
    b.PreferredAirlines = []string{"ai", "6e"}

    if SearchFingerprint(a) != SearchFingerprint(b) {
        t.Fatal("normalized requests must share a fingerprint")
    }
}

func TestSearchFingerprintSeparatesDistinctSearches(t *testing.T) {
    a := baseRequest()
    for name, mutate := range map[string]func(*model.SearchRequest){
        "destination": func(r *model.SearchRequest) { r.Destination = "MAA" },
        "date":        func(r *model.SearchRequest) { r.DepartureDate = "2026-09-16" },
        "pax":         func(r *model.SearchRequest) { r.Children = 1 },
        "direct only": func(r *model.SearchRequest) { r.DirectOnly = true },
    } {
        b := baseRequest()
        mutate(&b)
        if SearchFingerprint(a) == SearchFingerprint(b) {
            t.Errorf("%s change must produce a different fingerprint", name)
        }
    }
}

func disabledCache() *ResultCache {
    log := logrus.New()
    log.SetLevel(logrus.PanicLevel)
    return New(config.CacheConfig{Prefix: "flight"}, nil, log)
}

func TestDisabledCacheDegradesToMisses(t *testing.T) {
    rc := disabledCache()
    ctx := context.Background()

    var out string
    if rc.Get(ctx, NamespaceSearch, "k", &out) {
        t.Fatal("a nil-client cache must always miss")
    }
    rc.Set(ctx, NamespaceSearch, "k", "v") // must not panic

    calls := 0
    hit, err := rc.GetOrSet(ctx, NamespaceSearch, "k", &out, func(context.Context) (any, error) {
        calls++
        return "fresh", nil
    })
    if err != nil {
        t.Fatal(err)
    }
    if hit || calls != 1 || out != "fresh" {
        t.Fatalf("fill must run and populate dest: hit=%v calls=%d out=%q", hit, calls, out)
    }
    if err := rc.InvalidateNamespace(ctx, NamespaceSearch); err != nil {
        t.Fatalf("invalidating a disabled cache must be a no-op: %v", err)
    }
}

func TestGetOrSetPropagatesFillError(t *testing.T) {
    rc := disabledCache()
    boom := errors.New("upstream down")
    var out string
    _, err := rc.GetOrSet(context.Background(), NamespaceSearch, "k", &out, func(context.Context) (any, error) {
        return nil, boom
    })
    if !errors.Is(err, boom) {
        t.Fatalf("got %v, want fill error passed through", err)
    }
}
