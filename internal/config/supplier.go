package config

import "time"

// SupplierConfig holds everything needed to talk to the Benzy flight API:
// the two base URLs (utils hosts the signature endpoint, flights hosts the
// search/pricing/booking endpoints) and the merchant credential set that is
// forwarded verbatim to the signature endpoint.  The credential values are
// opaque to this application.
type SupplierConfig struct {
    UtilsBaseURL   string // signature endpoint host
    FlightsBaseURL string // search, pricing, itinerary and payment host
    MerchantID     string
    APIKey         string
    ClientID       string
    Password       string
    BrowserKey     string
    SigningKey     string

    RequestTimeout time.Duration // per-call timeout for submit/pricing calls
    PollTimeout    time.Duration // per-call timeout for polling calls
    SearchDeadline time.Duration // overall wall-clock budget for one search
}

// LoadSupplierConfig reads the supplier block from the environment.  The
// credential variables are required; the timing knobs default to the values
// the supplier's semi-synchronous protocol was tuned for (10s submit, 8s
// poll, 48s overall).
func LoadSupplierConfig() SupplierConfig {
    return SupplierConfig{
        UtilsBaseURL:   must("BENZY_UTILS_URL"),
        FlightsBaseURL: must("BENZY_FLIGHTS_URL"),
        MerchantID:     must("BENZY_MERCHANT_ID"),
        APIKey:         must("BENZY_API_KEY"),
        ClientID:       must("BENZY_CLIENT_ID"),
        Password:       must("BENZY_PASSWORD"),
        BrowserKey:     must("BENZY_BROWSER_KEY"),
        SigningKey:     must("BENZY_SIGNING_KEY"),
        RequestTimeout: envDur("BENZY_REQUEST_TIMEOUT", 10*time.Second),
        PollTimeout:    envDur("BENZY_POLL_TIMEOUT", 8*time.Second),
        SearchDeadline: envDur("BENZY_SEARCH_DEADLINE", 48*time.Second),
    }
}
