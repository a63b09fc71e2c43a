package supplier

import (
    "context"
    "encoding/json"
    "strings"
    "time"

    "github.com/iliyamo/flight-booking/internal/apperr"
    "github.com/iliyamo/flight-booking/internal/model"
)

// Polling tuning.  The supplier's express search is semi-synchronous: the
// submit call returns a TUI immediately and results accumulate server-side
// until Completed flips.  Intervals grow ×1.5 per empty poll (×2 after a
// transient error) up to the cap; the whole session is bounded by the
// configured wall-clock deadline.
const (
    initialPollInterval = time.Second
    maxPollInterval     = 5 * time.Second
    maxPollErrors       = 3
)

// SearchSession states.  PENDING transitions exactly once, forward only.
const (
    sessionPolling        = "POLLING"
    sessionCompleted      = "COMPLETED"
    sessionTimedOut       = "TIMED_OUT"
    sessionErrorExhausted = "ERROR_EXHAUSTED"
)

// searchSession tracks one polling loop.  It is owned by the goroutine
// running the loop; polls within a session are strictly sequential.
type searchSession struct {
    tui      string
    token    string
    clientID string
    deadline time.Time
    interval time.Duration
    polls    int
    errs     int
    status   string
}

// InitiateSearch validates the request, submits it to the supplier and
// polls until the result set is complete.  Validation failures are reported
// in aggregate before any network call.  The returned offers preserve the
// supplier's ordering.
func (c *Client) InitiateSearch(ctx context.Context, req model.SearchRequest) (model.SearchResult, error) {
    if err := ValidateSearchRequest(req, c.clock.Now()); err != nil {
        return model.SearchResult{}, err
    }

    creds, err := c.GetCredentials(ctx)
    if err != nil {
        return model.SearchResult{}, err
    }

    payload := buildSearchPayload(req, creds.ClientID)
    c.log.WithFields(map[string]any{
        "origin":      req.Origin,
        "destination": req.Destination,
        "trip_type":   req.TripType,
    }).Info("initiating flight search")

    var submit expressSearchResponse
    if err := c.call(ctx, "express search", c.flightsURL("/flights/ExpressSearch"), creds.Token, payload, &submit, c.cfg.RequestTimeout); err != nil {
        return model.SearchResult{}, err
    }
    if submit.TUI == "" {
        return model.SearchResult{}, &apperr.ProtocolError{Op: "express search", Field: "TUI"}
    }

    sess := &searchSession{
        tui:      cleanString(submit.TUI),
        token:    creds.Token,
        clientID: creds.ClientID,
        deadline: c.clock.Now().Add(c.cfg.SearchDeadline),
        interval: initialPollInterval,
        status:   sessionPolling,
    }
    c.log.WithField("tui", sess.tui).Info("search submitted, polling for results")

    final, err := c.pollForResults(ctx, sess)
    if err != nil {
        return model.SearchResult{}, err
    }

    return model.SearchResult{
        Offers:   normalizeOffers(final),
        TUI:      sess.tui,
        Currency: final.CurrencyCode,
    }, nil
}

// pollForResults drives the session state machine: POLLING until the
// supplier reports completion, the transient-error budget is spent, or the
// deadline passes.  The wait between polls is always the lesser of the
// backoff interval and the remaining budget, and no poll is issued once the
// deadline has elapsed, even when the timer fires late.
func (c *Client) pollForResults(ctx context.Context, sess *searchSession) (*searchPollResponse, error) {
    var lastErr error
    for {
        if !c.clock.Now().Before(sess.deadline) {
            sess.status = sessionTimedOut
            c.log.WithField("tui", sess.tui).Warn("search deadline exceeded")
            return nil, &apperr.SearchTimeoutError{TUI: sess.tui}
        }

        res, err := c.fetchSearchResults(ctx, sess.tui, sess.token, sess.clientID)
        sess.polls++
        switch {
        case err != nil:
            if ctx.Err() != nil {
                return nil, err
            }
            sess.errs++
            lastErr = err
            c.log.WithError(err).WithFields(map[string]any{"tui": sess.tui, "attempt": sess.errs}).Warn("search poll failed")
            if sess.errs >= maxPollErrors {
                sess.status = sessionErrorExhausted
                return nil, lastErr
            }
            // Errors back off harder than empty polls.
            sess.interval = capInterval(sess.interval * 2)
        case res.Completed.value:
            sess.status = sessionCompleted
            c.log.WithFields(map[string]any{"tui": sess.tui, "polls": sess.polls}).Info("search completed")
            return res, nil
        default:
            sess.interval = capInterval(time.Duration(float64(sess.interval) * 1.5))
        }

        remaining := sess.deadline.Sub(c.clock.Now())
        if remaining <= 0 {
            sess.status = sessionTimedOut
            return nil, &apperr.SearchTimeoutError{TUI: sess.tui}
        }
        wait := sess.interval
        if remaining < wait {
            wait = remaining
        }
        select {
        case <-c.clock.After(wait):
        case <-ctx.Done():
            return nil, ctx.Err()
        }
    }
}

func capInterval(d time.Duration) time.Duration {
    if d > maxPollInterval {
        return maxPollInterval
    }
    return d
}

// GetSearchResults performs a single poll on behalf of an API caller that
// already holds a TUI.  It obtains credentials itself and does not enforce
// completion.
func (c *Client) GetSearchResults(ctx context.Context, tui string) ([]model.FlightOffer, bool, error) {
    creds, err := c.GetCredentials(ctx)
    if err != nil {
        return nil, false, err
    }
    res, err := c.fetchSearchResults(ctx, cleanString(tui), creds.Token, creds.ClientID)
    if err != nil {
        return nil, false, err
    }
    return normalizeOffers(res), res.Completed.value, nil
}

func (c *Client) fetchSearchResults(ctx context.Context, tui, token, clientID string) (*searchPollResponse, error) {
    payload := map[string]string{
        "ClientID": clientID,
        "TUI":      tui,
    }
    var res searchPollResponse
    if err := c.call(ctx, "search poll", c.flightsURL("/flights/GetExpSearch"), token, payload, &res, c.cfg.PollTimeout); err != nil {
        return nil, err
    }
    return &res, nil
}

// ValidateSearchRequest checks the trip parameters and reports every
// violated rule, not just the first.  It never touches the network.
func ValidateSearchRequest(req model.SearchRequest, now time.Time) error {
    var errs []string

    if req.Origin == "" {
        errs = append(errs, "origin is required")
    }
    if req.Destination == "" {
        errs = append(errs, "destination is required")
    }
    if req.DepartureDate == "" {
        errs = append(errs, "departure date is required")
    }

    var depart time.Time
    if req.DepartureDate != "" {
        d, err := time.Parse("2006-01-02", req.DepartureDate)
        if err != nil {
            errs = append(errs, "departure date must be YYYY-MM-DD")
        } else {
            depart = d
            today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
            if d.Before(today) {
                errs = append(errs, "departure date cannot be in the past")
            }
        }
    }
    if strings.EqualFold(req.TripType, model.TripRoundTrip) && req.ReturnDate == "" {
        errs = append(errs, "return date is required for round trips")
    }
    if req.ReturnDate != "" {
        r, err := time.Parse("2006-01-02", req.ReturnDate)
        if err != nil {
            errs = append(errs, "return date must be YYYY-MM-DD")
        } else if !depart.IsZero() && r.Before(depart) {
            errs = append(errs, "return date must be after departure date")
        }
    }

    if req.Adults < 1 {
        errs = append(errs, "at least one adult passenger is required")
    }
    if req.Adults+req.Children+req.Infants > 9 {
        errs = append(errs, "maximum 9 passengers allowed per booking")
    }
    if req.Infants > req.Adults {
        errs = append(errs, "number of infants cannot exceed number of adults")
    }

    if len(errs) > 0 {
        return apperr.NewValidation(errs)
    }
    return nil
}

func buildSearchPayload(req model.SearchRequest, clientID string) expressSearchRequest {
    refundable := "N"
    if req.RefundableOnly {
        refundable = "Y"
    }
    return expressSearchRequest{
        FareType:          fareType(req.TripType),
        ADT:               req.Adults,
        CHD:               req.Children,
        INF:               req.Infants,
        Cabin:             cabinClass(req.Cabin),
        Source:            "CF",
        Mode:              "AS",
        ClientID:          clientID,
        IsMultipleCarrier: req.MultipleCarrier,
        IsRefundable:      req.RefundableOnly,
        PreferredAirlines: req.PreferredAirlines,
        Trips: []searchTrip{{
            From:       strings.ToUpper(req.Origin),
            To:         strings.ToUpper(req.Destination),
            OnwardDate: req.DepartureDate,
            ReturnDate: req.ReturnDate,
        }},
        Parameters: searchParameters{
            Airlines:         strings.Join(req.PreferredAirlines, ","),
            GroupType:        req.GroupType,
            Refundable:       refundable,
            IsDirect:         req.DirectOnly,
            IsStudentFare:    req.StudentFare,
            IsNearbyAirport:  req.NearbyAirports,
            IsExtendedSearch: req.ExtendedSearch,
        },
    }
}

// fareType maps the caller-facing trip type onto the supplier's code.
// Multi-city maps to the international multi-city fare.
func fareType(tripType string) string {
    switch strings.ToLower(tripType) {
    case model.TripRoundTrip:
        return "RT"
    case model.TripMultiCity:
        return "IM"
    default:
        return "ON"
    }
}

func cabinClass(cabin string) string {
    switch strings.ToLower(cabin) {
    case "business", "b":
        return "B"
    case "first", "f":
        return "F"
    case "premium_economy", "pe":
        return "PE"
    default:
        return "E"
    }
}

// ---- wire types ----

type searchTrip struct {
    From       string `json:"From"`
    To         string `json:"To"`
    OnwardDate string `json:"OnwardDate"`
    ReturnDate string `json:"ReturnDate"`
    TUI        string `json:"TUI"`
}

type searchParameters struct {
    Airlines         string `json:"Airlines"`
    GroupType        string `json:"GroupType"`
    Refundable       string `json:"Refundable"`
    IsDirect         bool   `json:"IsDirect"`
    IsStudentFare    bool   `json:"IsStudentFare"`
    IsNearbyAirport  bool   `json:"IsNearbyAirport"`
    IsExtendedSearch bool   `json:"IsExtendedSearch"`
}

type expressSearchRequest struct {
    FareType          string           `json:"FareType"`
    ADT               int              `json:"ADT"`
    CHD               int              `json:"CHD"`
    INF               int              `json:"INF"`
    Cabin             string           `json:"Cabin"`
    Source            string           `json:"Source"`
    Mode              string           `json:"Mode"`
    ClientID          string           `json:"ClientID"`
    IsMultipleCarrier bool             `json:"IsMultipleCarrier"`
    IsRefundable      bool             `json:"IsRefundable"`
    PreferredAirlines []string         `json:"preferedAirlines"` // supplier spells it this way
    TUI               string           `json:"TUI"`
    SecType           string           `json:"SecType"`
    Trips             []searchTrip     `json:"Trips"`
    Parameters        searchParameters `json:"Parameters"`
}

type expressSearchResponse struct {
    respEnvelope
    TUI string `json:"TUI"`
}

// flexBool accepts the supplier's two spellings of completion: the string
// "True" and a plain JSON boolean.
type flexBool struct {
    value bool
}

func (f *flexBool) UnmarshalJSON(b []byte) error {
    var s string
    if err := json.Unmarshal(b, &s); err == nil {
        f.value = strings.EqualFold(s, "true")
        return nil
    }
    var v bool
    if err := json.Unmarshal(b, &v); err != nil {
        return err
    }
    f.value = v
    return nil
}

type searchPollResponse struct {
    respEnvelope
    Completed    flexBool    `json:"Completed"`
    CurrencyCode string      `json:"CurrencyCode"`
    Notices      []rawNotice `json:"Notices"`
    Trips        []rawTrip   `json:"Trips"`
}

type rawNotice struct {
    Notice     string `json:"Notice"`
    Link       string `json:"Link"`
    NoticeType string `json:"NoticeType"`
}

type rawTrip struct {
    Journey []rawJourney `json:"Journey"`
}

type rawConnection struct {
    Airport        string `json:"Airport"`
    ArrAirportName string `json:"ArrAirportName"`
    Duration       string `json:"Duration"`
    Type           string `json:"Type"`
}

type rawInclusions struct {
    Baggage          string `json:"Baggage"`
    Meals            string `json:"Meals"`
    PieceDescription string `json:"PieceDescription"`
}

type rawJourney struct {
    FlightNo            string          `json:"FlightNo"`
    Provider            string          `json:"Provider"`
    VAC                 string          `json:"VAC"`
    MAC                 string          `json:"MAC"`
    OAC                 string          `json:"OAC"`
    AirlineName         string          `json:"AirlineName"`
    From                string          `json:"From"`
    FromName            string          `json:"FromName"`
    To                  string          `json:"To"`
    ToName              string          `json:"ToName"`
    DepartureTerminal   string          `json:"DepartureTerminal"`
    ArrivalTerminal     string          `json:"ArrivalTerminal"`
    DepartureTime       string          `json:"DepartureTime"`
    ArrivalTime         string          `json:"ArrivalTime"`
    Duration            string          `json:"Duration"`
    Stops               int             `json:"Stops"`
    Connections         []rawConnection `json:"Connections"`
    AirCraft            string          `json:"AirCraft"`
    RBD                 string          `json:"RBD"`
    FareClass           string          `json:"FareClass"`
    Cabin               string          `json:"Cabin"`
    GrossFare           float64         `json:"GrossFare"`
    NetFare             float64         `json:"NetFare"`
    TotalCommission     float64         `json:"TotalCommission"`
    TotalTransactionFee float64         `json:"TotalTransactionFee"`
    TotalVatOnTFee      float64         `json:"TotalVatOnTFee"`
    FBC                 string          `json:"FBC"`
    FareType            string          `json:"FareType"`
    Promo               string          `json:"Promo"`
    Seats               int             `json:"Seats"`
    Refundable          string          `json:"Refundable"`
    Hold                bool            `json:"Hold"`
    Amenities           string          `json:"Amenities"`
    Inclusions          rawInclusions   `json:"Inclusions"`
    Notice              string          `json:"Notice"`
    NoticeLink          string          `json:"NoticeLink"`
    NoticeType          string          `json:"NoticeType"`
    ReturnIdentifier    int             `json:"ReturnIdentifier"`
    GroupCount          int             `json:"GroupCount"`
    JourneyKey          string          `json:"JourneyKey"`
    Index               string          `json:"Index"`
}

// normalizeOffers flattens the supplier Trips/Journey payload into the
// canonical offer list.  Supplier order is preserved; global notices are
// appended to each offer after its own notice.
func normalizeOffers(res *searchPollResponse) []model.FlightOffer {
    var global []model.Notice
    for _, n := range res.Notices {
        global = append(global, model.Notice{Message: n.Notice, Link: n.Link, Type: n.NoticeType})
    }

    var offers []model.FlightOffer
    for _, trip := range res.Trips {
        for _, j := range trip.Journey {
            offers = append(offers, normalizeJourney(j, res.CurrencyCode, global))
        }
    }
    return offers
}

func normalizeJourney(j rawJourney, currency string, global []model.Notice) model.FlightOffer {
    fromName, fromCity := splitPipeName(j.FromName)
    toName, toCity := splitPipeName(j.ToName)
    airlineName, _ := splitPipeName(j.AirlineName)

    var conns []model.Connection
    for _, cnx := range j.Connections {
        name, _ := splitPipeName(cnx.ArrAirportName)
        conns = append(conns, model.Connection{
            AirportCode: cnx.Airport,
            AirportName: name,
            Duration:    strings.TrimSpace(cnx.Duration),
            Type:        cnx.Type,
        })
    }

    var notices []model.Notice
    if j.Notice != "" {
        notices = append(notices, model.Notice{Message: j.Notice, Link: j.NoticeLink, Type: j.NoticeType})
    }
    notices = append(notices, global...)

    var amenities []string
    if j.Amenities != "" {
        amenities = strings.Split(j.Amenities, ",")
    }

    return model.FlightOffer{
        FlightNumber: strings.TrimSpace(j.FlightNo),
        Provider:     j.Provider,
        Airline: model.Airline{
            Code:             j.VAC,
            Name:             airlineName,
            MarketingCarrier: j.MAC,
            OperatingCarrier: j.OAC,
        },
        Route: model.Route{
            Departure: model.Endpoint{
                AirportCode:   j.From,
                AirportName:   fromName,
                City:          fromCity,
                Terminal:      j.DepartureTerminal,
                ScheduledTime: parseSupplierTime(j.DepartureTime),
            },
            Arrival: model.Endpoint{
                AirportCode:   j.To,
                AirportName:   toName,
                City:          toCity,
                Terminal:      j.ArrivalTerminal,
                ScheduledTime: parseSupplierTime(j.ArrivalTime),
            },
            Duration:    strings.TrimSpace(j.Duration),
            Stops:       j.Stops,
            Connections: conns,
        },
        Aircraft: model.Aircraft{
            Type:      j.AirCraft,
            RBD:       j.RBD,
            FareClass: j.FareClass,
            Cabin:     j.Cabin,
        },
        Fare: model.Fare{
            Currency:       currency,
            Gross:          j.GrossFare,
            Net:            j.NetFare,
            Commission:     j.TotalCommission,
            TransactionFee: j.TotalTransactionFee,
            VATOnFee:       j.TotalVatOnTFee,
            FareBasisCode:  j.FBC,
            FareType:       j.FareType,
            Promo:          j.Promo,
        },
        Availability: model.Availability{
            Seats:      j.Seats,
            Refundable: j.Refundable == "Y",
            Hold:       j.Hold,
        },
        Amenities:  amenities,
        Inclusions: model.Inclusions{
            Baggage:          j.Inclusions.Baggage,
            Meals:            j.Inclusions.Meals,
            PieceDescription: j.Inclusions.PieceDescription,
        },
        Notices: notices,
        Grouping: model.Grouping{
            Index:            j.Index,
            JourneyKey:       j.JourneyKey,
            ReturnIdentifier: j.ReturnIdentifier,
            GroupCount:       j.GroupCount,
        },
    }
}

// splitPipeName splits the supplier's "Name|City" strings.
func splitPipeName(s string) (name, city string) {
    parts := strings.SplitN(s, "|", 2)
    name = strings.TrimSpace(parts[0])
    if len(parts) == 2 {
        city = strings.TrimSpace(parts[1])
    }
    return name, city
}

var supplierTimeLayouts = []string{
    "2006-01-02T15:04:05",
    "2006-01-02T15:04",
    time.RFC3339,
}

func parseSupplierTime(s string) time.Time {
    for _, layout := range supplierTimeLayouts {
        if t, err := time.Parse(layout, s); err == nil {
            return t
        }
    }
    return time.Time{}
}
