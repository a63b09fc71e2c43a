package supplier

import (
    "context"
    "regexp"
    "strconv"
    "strings"

    "github.com/iliyamo/flight-booking/internal/apperr"
    "github.com/iliyamo/flight-booking/internal/model"
)

// PricingRequest identifies the offer to reprice.  Amount and Index come
// from the selected FlightOffer; TUI is the search correlation token the
// offer belongs to.
type PricingRequest struct {
    Amount   float64
    Index    string
    TripType string
    TUI      string
    OrderID  int
}

// GetLivePrice runs the two-step pricing protocol: SmartPricer locks the
// selected offer and issues a fresh TUI, GetSPricer fetches the
// authoritative live price under that TUI.  A supplier price change (code
// "1500") is returned inside the result, not as an error; any other
// non-success code fails with PricingError.
func (c *Client) GetLivePrice(ctx context.Context, req PricingRequest) (model.PricingResult, error) {
    creds, err := c.GetCredentials(ctx)
    if err != nil {
        return model.PricingResult{}, err
    }

    orderID := req.OrderID
    if orderID == 0 {
        orderID = 1
    }
    tripType := req.TripType
    if tripType == "" {
        tripType = "ON"
    }

    lock := smartPricerRequest{
        ClientID: creds.ClientID,
        Mode:     "SS", // semi-synchronous
        Options:  "A",
        Source:   "CF",
        TripType: tripType,
        Trips: []smartPricerTrip{{
            Amount:  req.Amount,
            Index:   req.Index,
            OrderID: orderID,
            TUI:     cleanString(req.TUI),
        }},
    }

    var locked smartPricerResponse
    if err := c.call(ctx, "smart pricer", c.flightsURL("/Flights/SmartPricer"), creds.Token, lock, &locked, c.cfg.RequestTimeout); err != nil {
        return model.PricingResult{}, err
    }
    if locked.TUI == "" {
        return model.PricingResult{}, &apperr.ProtocolError{Op: "smart pricer", Field: "TUI"}
    }

    fetch := map[string]string{
        "TUI":      locked.TUI,
        "ClientID": creds.ClientID,
    }
    var live getPricerResponse
    if err := c.postJSON(ctx, "live pricer", c.flightsURL("/Flights/GetSPricer"), creds.Token, fetch, &live, c.cfg.RequestTimeout); err != nil {
        return model.PricingResult{}, err
    }

    var change *model.PriceChange
    switch live.Code {
    case codeSuccess:
        // price confirmed as locked
    case codePriceChange:
        change, err = parsePriceChange(live.firstMsg())
        if err != nil {
            return model.PricingResult{}, err
        }
        c.log.WithFields(map[string]any{
            "tui":      locked.TUI,
            "previous": change.PreviousAmount,
            "new":      change.NewAmount,
        }).Warn("supplier repriced the selected offer")
    default:
        c.log.WithFields(map[string]any{"tui": locked.TUI, "code": live.Code}).Error("live pricing failed")
        return model.PricingResult{}, &apperr.PricingError{Code: live.Code, Msg: live.firstMsg()}
    }

    result := normalizePricing(&live)
    result.PriceChange = change
    return result, nil
}

// priceChangePattern matches the supplier's free-text reprice notice, e.g.
// "Previous Amt:-100.00 | New Amt:-120.00".  The "-" belongs to the label,
// not the amount.  Supplier message-format changes only need to touch this
// expression and parsePriceChange below.
var priceChangePattern = regexp.MustCompile(`Previous\s+Amt:-?\s*([0-9]+(?:\.[0-9]+)?).*New\s+Amt:-?\s*([0-9]+(?:\.[0-9]+)?)`)

// parsePriceChange extracts the previous and new amounts from the price-
// change message.  A "1500" response whose message cannot be parsed is
// contract drift, not a price change we can act on.
func parsePriceChange(msg string) (*model.PriceChange, error) {
    m := priceChangePattern.FindStringSubmatch(msg)
    if m == nil {
        return nil, &apperr.ProtocolError{Op: "live pricer", Field: "price-change amounts in Msg"}
    }
    prev, err := strconv.ParseFloat(m[1], 64)
    if err != nil {
        return nil, &apperr.ProtocolError{Op: "live pricer", Field: "previous amount"}
    }
    next, err := strconv.ParseFloat(m[2], 64)
    if err != nil {
        return nil, &apperr.ProtocolError{Op: "live pricer", Field: "new amount"}
    }
    return &model.PriceChange{PreviousAmount: prev, NewAmount: next}, nil
}

// normalizePricing flattens the nested Trips/Journey/Segments payload into
// the canonical pricing shape.  Every segment of every journey is kept so
// multi-leg itineraries price all legs, not just the first.
func normalizePricing(res *getPricerResponse) model.PricingResult {
    result := model.PricingResult{
        TUI:         cleanString(res.TUI),
        NetAmount:   res.NetAmount,
        GrossAmount: res.GrossAmount,
        Route: model.PricedRoute{
            From:       res.From,
            To:         res.To,
            OnwardDate: res.OnwardDate,
            ReturnDate: res.ReturnDate,
        },
        Passengers: model.PaxCounts{
            Adults:   res.ADT,
            Children: res.CHD,
            Infants:  res.INF,
        },
    }

    for ti, trip := range res.Trips {
        for _, j := range trip.Journey {
            for _, seg := range j.Segments {
                airline, _ := splitPipeName(seg.Flight.Airline)
                result.Segments = append(result.Segments, model.PricedSegment{
                    TripIndex:    ti,
                    FlightNumber: strings.TrimSpace(seg.Flight.FlightNo),
                    Airline:      airline,
                    Aircraft:     seg.Flight.AirCraft,
                    Departure: model.Endpoint{
                        AirportCode:   seg.Flight.DepartureCode,
                        AirportName:   firstNonEmpty(seg.Flight.DepAirportName, ""),
                        Terminal:      seg.Flight.DepartureTerminal,
                        ScheduledTime: parseSupplierTime(seg.Flight.DepartureTime),
                    },
                    Arrival: model.Endpoint{
                        AirportCode:   seg.Flight.ArrivalCode,
                        AirportName:   firstNonEmpty(seg.Flight.ArrAirportName, ""),
                        Terminal:      seg.Flight.ArrivalTerminal,
                        ScheduledTime: parseSupplierTime(seg.Flight.ArrivalTime),
                    },
                    Duration:  strings.TrimSpace(j.Duration),
                    Stops:     j.Stops,
                    BaseFare:  seg.Fares.TotalBaseFare,
                    Taxes:     seg.Fares.TotalTax,
                    GrossFare: seg.Fares.GrossFare,
                })
            }
        }
    }
    return result
}

func firstNonEmpty(a, b string) string {
    if a != "" {
        return a
    }
    return b
}

// ---- wire types ----

type smartPricerTrip struct {
    Amount  float64 `json:"Amount"`
    Index   string  `json:"Index"`
    OrderID int     `json:"OrderID"`
    TUI     string  `json:"TUI"`
}

type smartPricerRequest struct {
    ClientID string            `json:"ClientID"`
    Trips    []smartPricerTrip `json:"Trips"`
    Mode     string            `json:"Mode"`
    Options  string            `json:"Options"`
    Source   string            `json:"Source"`
    TripType string            `json:"TripType"`
}

type smartPricerResponse struct {
    respEnvelope
    TUI string `json:"TUI"`
}

type rawSegmentFlight struct {
    FlightNo          string `json:"FlightNo"`
    Airline           string `json:"Airline"`
    AirCraft          string `json:"AirCraft"`
    DepartureCode     string `json:"DepartureCode"`
    ArrivalCode       string `json:"ArrivalCode"`
    DepAirportName    string `json:"DepAirportName"`
    ArrAirportName    string `json:"ArrAirportName"`
    DepartureTerminal string `json:"DepartureTerminal"`
    ArrivalTerminal   string `json:"ArrivalTerminal"`
    DepartureTime     string `json:"DepartureTime"`
    ArrivalTime       string `json:"ArrivalTime"`
    Cabin             string `json:"Cabin"`
    FBC               string `json:"FBC"`
    Refundable        string `json:"Refundable"`
}

type rawSegmentFares struct {
    TotalBaseFare float64 `json:"TotalBaseFare"`
    TotalTax      float64 `json:"TotalTax"`
    GrossFare     float64 `json:"GrossFare"`
}

type rawPricedSegment struct {
    Flight rawSegmentFlight `json:"Flight"`
    Fares  rawSegmentFares  `json:"Fares"`
}

type rawPricedJourney struct {
    Provider string             `json:"Provider"`
    Duration string             `json:"Duration"`
    Stops    int                `json:"Stops"`
    Segments []rawPricedSegment `json:"Segments"`
}

type rawPricedTrip struct {
    Journey []rawPricedJourney `json:"Journey"`
}

type rawSSR struct {
    Code        string  `json:"Code"`
    Description string  `json:"Description"`
    Charge      float64 `json:"Charge"`
}

type getPricerResponse struct {
    respEnvelope
    TUI         string          `json:"TUI"`
    From        string          `json:"From"`
    To          string          `json:"To"`
    FromName    string          `json:"FromName"`
    ToName      string          `json:"ToName"`
    OnwardDate  string          `json:"OnwardDate"`
    ReturnDate  string          `json:"ReturnDate"`
    ADT         int             `json:"ADT"`
    CHD         int             `json:"CHD"`
    INF         int             `json:"INF"`
    NetAmount   float64         `json:"NetAmount"`
    GrossAmount float64         `json:"GrossAmount"`
    InsPremium  float64         `json:"InsPremium"`
    Hold        bool            `json:"Hold"`
    Trips       []rawPricedTrip `json:"Trips"`
    SSR         []rawSSR        `json:"SSR"`
}
