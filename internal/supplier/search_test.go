package supplier

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "sync/atomic"
    "testing"
    "time"

    "github.com/iliyamo/flight-booking/internal/apperr"
    "github.com/iliyamo/flight-booking/internal/model"
)

func validRequest() model.SearchRequest {
    return model.SearchRequest{
        TripType:      model.TripOneWay,
        Origin:        "DEL",
        Destination:   "BOM",
        DepartureDate: "2026-09-15",
        Adults:        1,
        Cabin:         "economy",
    }
}

func TestValidateSearchRequestAggregatesAllViolations(t *testing.T) {
    now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
    req := model.SearchRequest{
        TripType:      model.TripRoundTrip,
        DepartureDate: "2026-01-01", // in the past
        Adults:        1,
        Infants:       2,
    }
    err := ValidateSearchRequest(req, now)
    var verr *apperr.ValidationError
    if !asErr(err, &verr) {
        t.Fatalf("got %T, want ValidationError", err)
    }
    want := []string{
        "origin is required",
        "destination is required",
        "departure date cannot be in the past",
        "return date is required for round trips",
        "number of infants cannot exceed number of adults",
    }
    if len(verr.Errors) != len(want) {
        t.Fatalf("got %d violations %v, want %d", len(verr.Errors), verr.Errors, len(want))
    }
    for i, msg := range want {
        if verr.Errors[i] != msg {
            t.Errorf("violation %d: got %q, want %q", i, verr.Errors[i], msg)
        }
    }
}

func TestValidateSearchRequestAccepts(t *testing.T) {
    now := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
    if err := ValidateSearchRequest(validRequest(), now); err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
}

// newSearchClient builds a client against srv with cached credentials and a
// fake clock, so search tests exercise only the polling loop.
func newSearchClient(srv *httptest.Server, fc *fakeClock) *Client {
    c := New(testConfig(srv.URL), testLogger())
    c.clock = fc
    c.creds.creds = Credentials{
        Token:     "tok",
        ClientID:  "cid",
        ExpiresAt: fc.Now().Add(1000 * time.Hour),
    }
    return c
}

type searchServer struct {
    polls        int64
    completeOn   int64
    pollFailures int64 // polls that return HTTP 500 before any succeed
}

func (s *searchServer) handler() http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        switch {
        case strings.HasSuffix(r.URL.Path, "/ExpressSearch"):
            json.NewEncoder(w).Encode(map[string]any{"Code": "200", "TUI": "tui-77"})
        case strings.HasSuffix(r.URL.Path, "/GetExpSearch"):
            n := atomic.AddInt64(&s.polls, 1)
            if n <= s.pollFailures {
                w.WriteHeader(http.StatusInternalServerError)
                return
            }
            done := s.completeOn > 0 && n >= s.completeOn
            resp := map[string]any{"Code": "200", "Completed": "False", "CurrencyCode": "INR"}
            if done {
                resp["Completed"] = "True"
                resp["Trips"] = []map[string]any{{
                    "Journey": []map[string]any{{
                        "FlightNo":   "6E 123",
                        "Provider":   "6E",
                        "VAC":        "6E",
                        "From":       "DEL",
                        "To":         "BOM",
                        "GrossFare":  5100.0,
                        "NetFare":    4800.0,
                        "Refundable": "Y",
                        "Seats":      4,
                    }},
                }}
            }
            json.NewEncoder(w).Encode(resp)
        default:
            http.NotFound(w, r)
        }
    })
}

func TestInitiateSearchPollsUntilCompleted(t *testing.T) {
    srv := &searchServer{completeOn: 4}
    ts := httptest.NewServer(srv.handler())
    defer ts.Close()

    fc := &fakeClock{now: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)}
    c := newSearchClient(ts, fc)

    result, err := c.InitiateSearch(context.Background(), validRequest())
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if result.TUI != "tui-77" {
        t.Fatalf("got TUI %q, want tui-77", result.TUI)
    }
    if len(result.Offers) != 1 {
        t.Fatalf("got %d offers, want 1", len(result.Offers))
    }
    offer := result.Offers[0]
    if offer.FlightNumber != "6E 123" || offer.Fare.Currency != "INR" || !offer.Availability.Refundable {
        t.Fatalf("offer not normalized: %+v", offer)
    }

    // Three empty polls before completion: the backoff grows x1.5 each time.
    want := []time.Duration{
        1500 * time.Millisecond,
        2250 * time.Millisecond,
        3375 * time.Millisecond,
    }
    waits := fc.recordedWaits()
    if len(waits) != len(want) {
        t.Fatalf("got waits %v, want %v", waits, want)
    }
    for i := range want {
        if waits[i] != want[i] {
            t.Errorf("wait %d: got %v, want %v", i, waits[i], want[i])
        }
    }
}

func TestInitiateSearchBackoffIsCapped(t *testing.T) {
    srv := &searchServer{completeOn: 8}
    ts := httptest.NewServer(srv.handler())
    defer ts.Close()

    fc := &fakeClock{now: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)}
    c := newSearchClient(ts, fc)

    if _, err := c.InitiateSearch(context.Background(), validRequest()); err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    for i, w := range fc.recordedWaits() {
        if w > maxPollInterval {
            t.Errorf("wait %d: %v exceeds cap %v", i, w, maxPollInterval)
        }
    }
}

func TestInitiateSearchTimesOutWithoutPollingPastDeadline(t *testing.T) {
    srv := &searchServer{} // never completes
    ts := httptest.NewServer(srv.handler())
    defer ts.Close()

    fc := &fakeClock{now: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)}
    c := newSearchClient(ts, fc)
    c.cfg.SearchDeadline = 3 * time.Second

    start := fc.Now()
    _, err := c.InitiateSearch(context.Background(), validRequest())
    var toErr *apperr.SearchTimeoutError
    if !asErr(err, &toErr) {
        t.Fatalf("got %T (%v), want SearchTimeoutError", err, err)
    }
    if toErr.TUI != "tui-77" {
        t.Fatalf("timeout carries TUI %q, want tui-77", toErr.TUI)
    }
    // Waits are clamped to the remaining budget, so the simulated clock
    // never runs past the deadline and no poll fires after it.
    if elapsed := fc.Now().Sub(start); elapsed > c.cfg.SearchDeadline {
        t.Fatalf("clock advanced %v past a %v deadline", elapsed, c.cfg.SearchDeadline)
    }
    // Budget 3s: poll at t=0, wait 1.5s, poll at t=1.5s, wait clamped to
    // 1.5s, deadline reached before a third poll.
    if got := atomic.LoadInt64(&srv.polls); got != 2 {
        t.Fatalf("supplier polled %d times, want 2", got)
    }
}

func TestInitiateSearchStopsAfterThreeTransientErrors(t *testing.T) {
    srv := &searchServer{pollFailures: 100}
    ts := httptest.NewServer(srv.handler())
    defer ts.Close()

    fc := &fakeClock{now: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)}
    c := newSearchClient(ts, fc)

    _, err := c.InitiateSearch(context.Background(), validRequest())
    var reqErr *apperr.UpstreamRequestError
    if !asErr(err, &reqErr) {
        t.Fatalf("got %T (%v), want UpstreamRequestError", err, err)
    }
    if got := atomic.LoadInt64(&srv.polls); got != maxPollErrors {
        t.Fatalf("supplier polled %d times, want %d", got, maxPollErrors)
    }
    // Errors back off x2: one wait after each of the first two failures.
    want := []time.Duration{2 * time.Second, 4 * time.Second}
    waits := fc.recordedWaits()
    if len(waits) != len(want) || waits[0] != want[0] || waits[1] != want[1] {
        t.Fatalf("got waits %v, want %v", waits, want)
    }
}

func TestInitiateSearchRejectsMissingTUI(t *testing.T) {
    ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        json.NewEncoder(w).Encode(map[string]any{"Code": "200"})
    }))
    defer ts.Close()

    fc := &fakeClock{now: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)}
    c := newSearchClient(ts, fc)

    _, err := c.InitiateSearch(context.Background(), validRequest())
    var perr *apperr.ProtocolError
    if !asErr(err, &perr) {
        t.Fatalf("got %T, want ProtocolError", err)
    }
    if perr.Field != "TUI" {
        t.Fatalf("got field %q, want TUI", perr.Field)
    }
}

func TestFlexBoolAcceptsBothSpellings(t *testing.T) {
    cases := []struct {
        in   string
        want bool
    }{
        {`"True"`, true},
        {`"False"`, false},
        {`true`, true},
        {`false`, false},
    }
    for _, tc := range cases {
        var f flexBool
        if err := json.Unmarshal([]byte(tc.in), &f); err != nil {
            t.Fatalf("unmarshal %s: %v", tc.in, err)
        }
        if f.value != tc.want {
            t.Errorf("%s: got %v, want %v", tc.in, f.value, tc.want)
        }
    }
}

// An offer normalized from the raw supplier payload is written to the cache
// and the database as JSON and read back; the carrier, every scheduled
// time and the fare totals must survive that round trip unchanged.
func TestOfferSurvivesSerializationRoundTrip(t *testing.T) {
    raw := rawJourney{
        FlightNo:            "6E 123 ",
        Provider:            "6E",
        VAC:                 "6E",
        MAC:                 "AI",
        OAC:                 "6E",
        AirlineName:         "IndiGo|6E",
        From:                "DEL",
        FromName:            "Indira Gandhi Intl | Delhi",
        To:                  "BOM",
        ToName:              "Chhatrapati Shivaji | Mumbai",
        DepartureTime:       "2026-09-15T06:30:00",
        ArrivalTime:         "2026-09-15T08:40:00",
        Duration:            "2h 10m",
        GrossFare:           5100.55,
        NetFare:             4800.25,
        TotalCommission:     120.10,
        TotalTransactionFee: 59.99,
        FBC:                 "SAVER",
        Seats:               4,
        Refundable:          "Y",
        Index:               "1A",
    }

    offer := normalizeJourney(raw, "INR", nil)

    bs, err := json.Marshal(offer)
    if err != nil {
        t.Fatal(err)
    }
    var restored model.FlightOffer
    if err := json.Unmarshal(bs, &restored); err != nil {
        t.Fatal(err)
    }

    if restored.Airline != offer.Airline {
        t.Errorf("airline changed: %+v vs %+v", restored.Airline, offer.Airline)
    }
    if !restored.Route.Departure.ScheduledTime.Equal(offer.Route.Departure.ScheduledTime) ||
        !restored.Route.Arrival.ScheduledTime.Equal(offer.Route.Arrival.ScheduledTime) {
        t.Errorf("scheduled times changed: %v/%v vs %v/%v",
            restored.Route.Departure.ScheduledTime, restored.Route.Arrival.ScheduledTime,
            offer.Route.Departure.ScheduledTime, offer.Route.Arrival.ScheduledTime)
    }
    if offer.Route.Departure.ScheduledTime.IsZero() {
        t.Error("departure time failed to parse from the supplier payload")
    }
    if restored.Fare != offer.Fare {
        t.Errorf("fare changed: %+v vs %+v", restored.Fare, offer.Fare)
    }
    if restored.FlightNumber != "6E 123" || restored.Grouping != offer.Grouping {
        t.Errorf("identity fields changed: %+v", restored)
    }
}

func TestSplitPipeName(t *testing.T) {
    name, city := splitPipeName("Indira Gandhi Intl | Delhi")
    if name != "Indira Gandhi Intl" || city != "Delhi" {
        t.Fatalf("got (%q, %q)", name, city)
    }
    name, city = splitPipeName("Mumbai")
    if name != "Mumbai" || city != "" {
        t.Fatalf("got (%q, %q)", name, city)
    }
}
