package supplier

import "context"

// RetrievedSegment is one flight segment of a retrieved booking as the
// supplier currently sees it.
type RetrievedSegment struct {
    Airline           string `json:"airline"`
    FlightNumber      string `json:"flightNumber"`
    DepartureAirport  string `json:"departureAirport"`
    DepartureTerminal string `json:"departureTerminal,omitempty"`
    DepartureTime     string `json:"departureTime"`
    ArrivalAirport    string `json:"arrivalAirport"`
    ArrivalTerminal   string `json:"arrivalTerminal,omitempty"`
    ArrivalTime       string `json:"arrivalTime"`
    Duration          string `json:"duration,omitempty"`
}

// RetrievedBooking is the supplier's authoritative view of a booking,
// fetched by transaction id.
type RetrievedBooking struct {
    TransactionID int64              `json:"transactionId"`
    Status        string             `json:"status"`
    PaymentStatus string             `json:"paymentStatus"`
    Segments      []RetrievedSegment `json:"segments"`
}

type retrieveBookingResponse struct {
    respEnvelope
    TransactionID int64           `json:"TransactionID"`
    Status        string          `json:"Status"`
    PaymentStatus string          `json:"PaymentStatus"`
    Trips         []rawPricedTrip `json:"Trips"`
}

// RetrieveBooking fetches the provider-side state of a booking.  The local
// booking record is reconciled by the caller when the statuses differ.
func (c *Client) RetrieveBooking(ctx context.Context, transactionID int64) (*RetrievedBooking, error) {
    creds, err := c.GetCredentials(ctx)
    if err != nil {
        return nil, err
    }

    payload := map[string]any{
        "TransactionID": transactionID,
        "ClientID":      creds.ClientID,
        "ServiceType":   "FLT",
    }
    var resp retrieveBookingResponse
    if err := c.call(ctx, "retrieve booking", c.utilsURL("/Utils/RetrieveBooking"), creds.Token, payload, &resp, c.cfg.RequestTimeout); err != nil {
        return nil, err
    }

    out := &RetrievedBooking{
        TransactionID: resp.TransactionID,
        Status:        resp.Status,
        PaymentStatus: resp.PaymentStatus,
    }
    for _, trip := range resp.Trips {
        for _, j := range trip.Journey {
            for _, seg := range j.Segments {
                out.Segments = append(out.Segments, RetrievedSegment{
                    Airline:           seg.Flight.Airline,
                    FlightNumber:      seg.Flight.FlightNo,
                    DepartureAirport:  seg.Flight.DepAirportName,
                    DepartureTerminal: seg.Flight.DepartureTerminal,
                    DepartureTime:     seg.Flight.DepartureTime,
                    ArrivalAirport:    seg.Flight.ArrAirportName,
                    ArrivalTerminal:   seg.Flight.ArrivalTerminal,
                    ArrivalTime:       seg.Flight.ArrivalTime,
                    Duration:          j.Duration,
                })
            }
        }
    }
    return out, nil
}
