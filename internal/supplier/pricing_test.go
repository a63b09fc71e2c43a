package supplier

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/iliyamo/flight-booking/internal/apperr"
)

func pricingServer(t *testing.T, getPricerResp map[string]any) *httptest.Server {
    t.Helper()
    return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        switch {
        case strings.HasSuffix(r.URL.Path, "/SmartPricer"):
            json.NewEncoder(w).Encode(map[string]any{"Code": "200", "TUI": "tui-lock"})
        case strings.HasSuffix(r.URL.Path, "/GetSPricer"):
            json.NewEncoder(w).Encode(getPricerResp)
        default:
            http.NotFound(w, r)
        }
    }))
}

func TestGetLivePriceConfirmed(t *testing.T) {
    ts := pricingServer(t, map[string]any{
        "Code": "200", "TUI": "tui-lock",
        "From": "DEL", "To": "BOM",
        "ADT": 2, "CHD": 1, "INF": 0,
        "NetAmount": 10400.0, "GrossAmount": 11000.0,
        "Trips": []map[string]any{{
            "Journey": []map[string]any{{
                "Provider": "6E",
                "Duration": "2h 10m",
                "Segments": []map[string]any{{
                    "Flight": map[string]any{"FlightNo": "6E 123", "Airline": "IndiGo|6E", "DepartureCode": "DEL", "ArrivalCode": "BOM"},
                    "Fares":  map[string]any{"TotalBaseFare": 9000.0, "TotalTax": 1400.0, "GrossFare": 11000.0},
                }},
            }},
        }},
    })
    defer ts.Close()

    fc := &fakeClock{now: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)}
    c := newSearchClient(ts, fc)

    result, err := c.GetLivePrice(context.Background(), PricingRequest{Amount: 11000, Index: "1", TUI: "tui-search"})
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if result.PriceChange != nil {
        t.Fatalf("expected no price change, got %+v", result.PriceChange)
    }
    if result.TUI != "tui-lock" || result.NetAmount != 10400 {
        t.Fatalf("result not normalized: %+v", result)
    }
    if len(result.Segments) != 1 || result.Segments[0].Airline != "IndiGo" || result.Segments[0].Taxes != 1400 {
        t.Fatalf("segments not normalized: %+v", result.Segments)
    }
    if result.Passengers.Adults != 2 || result.Passengers.Children != 1 {
        t.Fatalf("pax counts wrong: %+v", result.Passengers)
    }
}

func TestGetLivePriceReportsPriceChange(t *testing.T) {
    ts := pricingServer(t, map[string]any{
        "Code": "1500",
        "Msg":  []string{"Fare revised. Previous Amt:-100.00 | New Amt:-120.50"},
        "TUI":  "tui-lock", "NetAmount": 120.50,
    })
    defer ts.Close()

    fc := &fakeClock{now: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)}
    c := newSearchClient(ts, fc)

    result, err := c.GetLivePrice(context.Background(), PricingRequest{Amount: 100, Index: "1", TUI: "tui-search"})
    if err != nil {
        t.Fatalf("a price change must not be an error, got: %v", err)
    }
    if result.PriceChange == nil {
        t.Fatal("expected a price change")
    }
    if result.PriceChange.PreviousAmount != 100.00 || result.PriceChange.NewAmount != 120.50 {
        t.Fatalf("got %+v, want previous=100.00 new=120.50", result.PriceChange)
    }
}

func TestGetLivePriceHardFailure(t *testing.T) {
    ts := pricingServer(t, map[string]any{
        "Code": "500", "Msg": []string{"fare no longer available"},
    })
    defer ts.Close()

    fc := &fakeClock{now: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)}
    c := newSearchClient(ts, fc)

    _, err := c.GetLivePrice(context.Background(), PricingRequest{Amount: 100, Index: "1", TUI: "tui-search"})
    var perr *apperr.PricingError
    if !asErr(err, &perr) {
        t.Fatalf("got %T (%v), want PricingError", err, err)
    }
    if perr.Code != "500" || perr.Msg != "fare no longer available" {
        t.Fatalf("got %+v", perr)
    }
}

func TestParsePriceChange(t *testing.T) {
    cases := []struct {
        msg        string
        prev, next float64
        wantErr    bool
    }{
        {"Previous Amt:-100.00 | New Amt:-120.00", 100.00, 120.00, false},
        {"Fare updated Previous Amt:- 4800.50 | New Amt:- 5100", 4800.50, 5100, false},
        {"Previous Amt:-100.00 only", 0, 0, true},
        {"no amounts here", 0, 0, true},
    }
    for _, tc := range cases {
        change, err := parsePriceChange(tc.msg)
        if tc.wantErr {
            var perr *apperr.ProtocolError
            if !asErr(err, &perr) {
                t.Errorf("%q: got %T, want ProtocolError", tc.msg, err)
            }
            continue
        }
        if err != nil {
            t.Errorf("%q: unexpected error %v", tc.msg, err)
            continue
        }
        if change.PreviousAmount != tc.prev || change.NewAmount != tc.next {
            t.Errorf("%q: got (%v, %v), want (%v, %v)", tc.msg, change.PreviousAmount, change.NewAmount, tc.prev, tc.next)
        }
    }
}

func TestCleanString(t *testing.T) {
    cases := map[string]string{
        `"tui-1"`:       "tui-1",
        `\"tui-2\"`:     "tui-2",
        ` tui-3 `:       "tui-3",
        `plain`:         "plain",
        `a\b`:           "ab",
    }
    for in, want := range cases {
        if got := cleanString(in); got != want {
            t.Errorf("cleanString(%q) = %q, want %q", in, got, want)
        }
    }
}
