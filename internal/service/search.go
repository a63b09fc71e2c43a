package service

import (
    "context"

    "github.com/sirupsen/logrus"

    "github.com/iliyamo/flight-booking/internal/cache"
    "github.com/iliyamo/flight-booking/internal/model"
    "github.com/iliyamo/flight-booking/internal/supplier"
)

// SearchClient is the slice of the supplier client the search flow uses.
type SearchClient interface {
    InitiateSearch(ctx context.Context, req model.SearchRequest) (model.SearchResult, error)
    GetLivePrice(ctx context.Context, req supplier.PricingRequest) (model.PricingResult, error)
    GetSeatLayout(ctx context.Context, tui string, orderID int, amount float64) (*supplier.SeatLayout, error)
    GetSSROptions(ctx context.Context, tui string) ([]supplier.SSROption, error)
}

// SearchService fronts the supplier search and pricing calls with the
// result cache.  Identical search requests within the cache TTL share one
// supplier search; seat maps and SSR listings are cached per TUI.
type SearchService struct {
    client SearchClient
    cache  *cache.ResultCache
    log    *logrus.Entry
}

func NewSearchService(client SearchClient, rc *cache.ResultCache, log *logrus.Logger) *SearchService {
    return &SearchService{client: client, cache: rc, log: log.WithField("component", "search")}
}

// Search runs (or serves from cache) an express search.  FromCache is set
// on the result so callers can tell the two apart.
func (s *SearchService) Search(ctx context.Context, req model.SearchRequest) (model.SearchResult, error) {
    fp := cache.SearchFingerprint(req)
    var result model.SearchResult
    hit, err := s.cache.GetOrSet(ctx, cache.NamespaceSearch, fp, &result, func(ctx context.Context) (any, error) {
        res, err := s.client.InitiateSearch(ctx, req)
        if err != nil {
            return nil, err
        }
        return res, nil
    })
    if err != nil {
        return model.SearchResult{}, err
    }
    result.FromCache = hit
    return result, nil
}

// Price runs the two-step live-pricing protocol.  Pricing is never served
// from cache: the whole point of the call is a fresh, bookable amount.  The
// result is cached only so the checkout page can re-read it without
// re-locking.
func (s *SearchService) Price(ctx context.Context, req supplier.PricingRequest) (model.PricingResult, error) {
    result, err := s.client.GetLivePrice(ctx, req)
    if err != nil {
        return model.PricingResult{}, err
    }
    s.cache.Set(ctx, cache.NamespacePricing, result.TUI, result)
    return result, nil
}

// SeatLayout returns the seat map for a pricing session, cached per TUI.
func (s *SearchService) SeatLayout(ctx context.Context, tui string, orderID int, amount float64) (*supplier.SeatLayout, error) {
    var layout supplier.SeatLayout
    _, err := s.cache.GetOrSet(ctx, cache.NamespaceSeat, tui, &layout, func(ctx context.Context) (any, error) {
        l, err := s.client.GetSeatLayout(ctx, tui, orderID, amount)
        if err != nil {
            return nil, err
        }
        return l, nil
    })
    if err != nil {
        return nil, err
    }
    return &layout, nil
}

// SSROptions returns the ancillary catalogue for a pricing session, cached
// per TUI.
func (s *SearchService) SSROptions(ctx context.Context, tui string) ([]supplier.SSROption, error) {
    var options []supplier.SSROption
    _, err := s.cache.GetOrSet(ctx, cache.NamespaceSSR, tui, &options, func(ctx context.Context) (any, error) {
        o, err := s.client.GetSSROptions(ctx, tui)
        if err != nil {
            return nil, err
        }
        return o, nil
    })
    if err != nil {
        return nil, err
    }
    return options, nil
}

// InvalidateSearches drops every cached search result, e.g. after a fare
// reload from the supplier.
func (s *SearchService) InvalidateSearches(ctx context.Context) error {
    return s.cache.InvalidateNamespace(ctx, cache.NamespaceSearch)
}
