package supplier

import (
    "context"
    "regexp"
    "sort"
    "strconv"
    "strings"
)

// SeatLayout is the formatted seat map for every segment of a pricing
// session, grouped by flight and row.
type SeatLayout struct {
    TUI     string       `json:"tui"`
    Flights []FlightSeats `json:"flights"`
}

type FlightSeats struct {
    FlightNumber string      `json:"flightNumber"`
    Provider     string      `json:"provider,omitempty"`
    Rows         []SeatRow   `json:"rows"`
    Legend       []SeatLabel `json:"legend"`
}

type SeatRow struct {
    RowNumber int    `json:"rowNumber"`
    Seats     []Seat `json:"seats"`
}

type Seat struct {
    Number    string   `json:"number"`
    Status    string   `json:"status"`
    Type      string   `json:"type"`
    Features  []string `json:"features,omitempty"`
    Available bool     `json:"available"`
    Fare      float64  `json:"fare"`
    Tax       float64  `json:"tax"`
    Total     float64  `json:"total"`
    SSID      string   `json:"ssrCode"`
}

type SeatLabel struct {
    Code        string `json:"code"`
    Description string `json:"description"`
}

type seatLayoutTripWire struct {
    TUI     string  `json:"TUI"`
    Index   string  `json:"Index"`
    OrderID int     `json:"OrderID"`
    Amount  float64 `json:"Amount"`
}

type seatLayoutRequest struct {
    ClientID string               `json:"ClientID"`
    Source   string               `json:"Source"`
    Trips    []seatLayoutTripWire `json:"Trips"`
}

type rawSeat struct {
    SeatNumber   string  `json:"SeatNumber"`
    SeatStatus   string  `json:"SeatStatus"`
    SeatType     string  `json:"SeatType"`
    SeatInfo     string  `json:"SeatInfo"`
    AvailStatus  bool    `json:"AvailStatus"`
    Fare         float64 `json:"Fare"`
    Tax          float64 `json:"Tax"`
    SSRNetAmount float64 `json:"SSRNetAmount"`
    SSID         int64   `json:"SSID"`
}

type rawSeatSegment struct {
    FlightNo string    `json:"FlightNo"`
    Seats    []rawSeat `json:"Seats"`
}

type rawSeatJourney struct {
    Provider string           `json:"Provider"`
    Segments []rawSeatSegment `json:"Segments"`
}

type rawSeatTrip struct {
    Journey []rawSeatJourney `json:"Journey"`
}

type seatLayoutResponse struct {
    respEnvelope
    TUI   string        `json:"TUI"`
    Trips []rawSeatTrip `json:"Trips"`
}

// seatTypeDescriptions expands the supplier's seat-type codes for display.
var seatTypeDescriptions = map[string]string{
    "PS":     "Preferred Seat",
    "PRS":    "Premium Seat",
    "FS":     "Free Seat",
    "EES":    "Emergency Exit Seat",
    "SS":     "Standard Seat",
    "WINDOW": "Window Seat",
    "AISLE":  "Aisle Seat",
    "MIDDLE": "Middle Seat",
}

var seatRowPattern = regexp.MustCompile(`[A-Z]`)

// GetSeatLayout fetches and formats the seat map for a pricing session.
// Rows are sorted numerically and seats alphabetically within a row.
func (c *Client) GetSeatLayout(ctx context.Context, tui string, orderID int, amount float64) (*SeatLayout, error) {
    creds, err := c.GetCredentials(ctx)
    if err != nil {
        return nil, err
    }

    payload := seatLayoutRequest{
        ClientID: creds.ClientID,
        Source:   "LV",
        Trips: []seatLayoutTripWire{{
            TUI:     cleanString(tui),
            OrderID: orderID,
            Amount:  amount,
        }},
    }
    var resp seatLayoutResponse
    if err := c.call(ctx, "seat layout", c.flightsURL("/Flights/SeatLayout"), creds.Token, payload, &resp, c.cfg.RequestTimeout); err != nil {
        return nil, err
    }

    layout := &SeatLayout{TUI: cleanString(resp.TUI)}
    for _, trip := range resp.Trips {
        for _, j := range trip.Journey {
            for _, seg := range j.Segments {
                layout.Flights = append(layout.Flights, formatSegmentSeats(seg, j.Provider))
            }
        }
    }
    return layout, nil
}

func formatSegmentSeats(seg rawSeatSegment, provider string) FlightSeats {
    byRow := map[int][]Seat{}
    legend := map[string]struct{}{}

    for _, s := range seg.Seats {
        rowNum, _ := strconv.Atoi(seatRowPattern.ReplaceAllString(s.SeatNumber, ""))
        seatType := s.SeatType
        if seatType == "" {
            seatType = "STANDARD"
        }
        legend[seatType] = struct{}{}
        var features []string
        if s.SeatInfo != "" {
            features = strings.Split(s.SeatInfo, "|")
            for _, f := range features {
                legend[f] = struct{}{}
            }
        }
        byRow[rowNum] = append(byRow[rowNum], Seat{
            Number:    s.SeatNumber,
            Status:    s.SeatStatus,
            Type:      seatType,
            Features:  features,
            Available: s.AvailStatus,
            Fare:      s.Fare,
            Tax:       s.Tax,
            Total:     s.SSRNetAmount,
            SSID:      strconv.FormatInt(s.SSID, 10),
        })
    }

    out := FlightSeats{FlightNumber: seg.FlightNo, Provider: provider}
    rows := make([]int, 0, len(byRow))
    for r := range byRow {
        rows = append(rows, r)
    }
    sort.Ints(rows)
    for _, r := range rows {
        seats := byRow[r]
        sort.Slice(seats, func(i, k int) bool { return seats[i].Number < seats[k].Number })
        out.Rows = append(out.Rows, SeatRow{RowNumber: r, Seats: seats})
    }
    codes := make([]string, 0, len(legend))
    for code := range legend {
        codes = append(codes, code)
    }
    sort.Strings(codes)
    for _, code := range codes {
        desc, ok := seatTypeDescriptions[code]
        if !ok {
            desc = code
        }
        out.Legend = append(out.Legend, SeatLabel{Code: code, Description: desc})
    }
    return out
}

// SSROption is one special-service request (meal, baggage, seat extra)
// offered for a flight.  Paid reflects whether the supplier charges for it.
type SSROption struct {
    Code        string  `json:"code"`
    Description string  `json:"description"`
    Type        string  `json:"type,omitempty"`
    Charge      float64 `json:"charge"`
    Paid        bool    `json:"paid"`
}

type ssrRequest struct {
    ClientID string               `json:"ClientID"`
    Source   string               `json:"Source"`
    FareType string               `json:"FareType"`
    PaidSSR  bool                 `json:"PaidSSR"`
    Trips    []seatLayoutTripWire `json:"Trips"`
}

type rawSSROption struct {
    Code        string  `json:"Code"`
    Description string  `json:"Description"`
    Type        string  `json:"Type"`
    Charge      float64 `json:"Charge"`
}

type rawSSRSegment struct {
    FUID string         `json:"FUID"`
    SSR  []rawSSROption `json:"SSR"`
}

type rawSSRJourney struct {
    Segments []rawSSRSegment `json:"Segments"`
}

type rawSSRTrip struct {
    Journey []rawSSRJourney `json:"Journey"`
}

type ssrResponse struct {
    respEnvelope
    Trips []rawSSRTrip `json:"Trips"`
}

// GetSSROptions lists the free and paid ancillaries for a pricing session.
// The supplier requires two calls (PaidSSR false/true); results are merged
// in that order.
func (c *Client) GetSSROptions(ctx context.Context, tui string) ([]SSROption, error) {
    creds, err := c.GetCredentials(ctx)
    if err != nil {
        return nil, err
    }

    base := ssrRequest{
        ClientID: creds.ClientID,
        Source:   "LV",
        FareType: "N",
        Trips: []seatLayoutTripWire{{
            TUI:     cleanString(tui),
            OrderID: 1,
        }},
    }

    var options []SSROption
    for _, paid := range []bool{false, true} {
        req := base
        req.PaidSSR = paid
        var resp ssrResponse
        if err := c.call(ctx, "ssr listing", c.flightsURL("/Flights/SSR"), creds.Token, req, &resp, c.cfg.RequestTimeout); err != nil {
            return nil, err
        }
        for _, trip := range resp.Trips {
            for _, j := range trip.Journey {
                for _, seg := range j.Segments {
                    for _, o := range seg.SSR {
                        options = append(options, SSROption{
                            Code:        o.Code,
                            Description: o.Description,
                            Type:        o.Type,
                            Charge:      o.Charge,
                            Paid:        o.Charge > 0,
                        })
                    }
                }
            }
        }
    }
    return options, nil
}
