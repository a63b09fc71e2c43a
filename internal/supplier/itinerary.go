package supplier

import (
    "context"

    "github.com/iliyamo/flight-booking/internal/apperr"
    "github.com/iliyamo/flight-booking/internal/model"
)

// SSRSelection is one ancillary chosen during checkout, forwarded to the
// supplier on itinerary creation.
type SSRSelection struct {
    Type           string  `json:"Type"`
    FlightNumber   string  `json:"FlightNumber"`
    PassengerIndex int     `json:"PassengerIndex"`
    Code           string  `json:"Code"`
    Amount         float64 `json:"Amount"`
    SSID           string  `json:"SSID,omitempty"`
}

// ItineraryRequest carries everything the supplier needs to build the
// itinerary for a locked pricing session (TUI).
type ItineraryRequest struct {
    TUI        string
    NetAmount  float64
    Travellers []model.Passenger
    Contact    model.ContactDetails
    SSR        []SSRSelection
    SSRAmount  float64
    DeviceID   string
    AppVersion string
}

// ItineraryReply is the subset of the CreateItinerary response the booking
// flow needs: the supplier transaction id, the refreshed TUI, the fare
// totals and the flight segments for local persistence.
type ItineraryReply struct {
    TransactionID int64
    TUI           string
    NetAmount     float64
    GrossAmount   float64
    Hold          bool
    Trips         []PricedTrip
    Baggage       string
}

// PricedTrip re-exports the priced journey structure for consumers outside
// this package (the booking service persists the first segment).
type PricedTrip struct {
    Journeys []PricedJourney
}

type PricedJourney struct {
    Provider string
    Duration string
    Stops    int
    Segments []PricedSegmentDetail
}

type PricedSegmentDetail struct {
    FlightNo          string
    Airline           string
    AirCraft          string
    DepartureCode     string
    ArrivalCode       string
    DepAirportName    string
    ArrAirportName    string
    DepartureTerminal string
    ArrivalTerminal   string
    DepartureTime     string
    ArrivalTime       string
    Cabin             string
    FBC               string
    Refundable        string
}

type createItineraryRequest struct {
    TUI             string              `json:"TUI"`
    ClientID        string              `json:"ClientID"`
    NetAmount       float64             `json:"NetAmount"`
    Travellers      []wireTraveller     `json:"Travellers"`
    ContactInfo     wireContact         `json:"ContactInfo"`
    SSR             []SSRSelection      `json:"SSR"`
    CrossSell       []string            `json:"CrossSell"`
    PLP             []string            `json:"PLP"`
    SSRAmount       float64             `json:"SSRAmount"`
    CrossSellAmount float64             `json:"CrossSellAmount"`
    DeviceID        string              `json:"DeviceID"`
    AppVersion      string              `json:"AppVersion"`
}

type wireTraveller struct {
    ID          int    `json:"ID"`
    Title       string `json:"Title"`
    FName       string `json:"FName"`
    LName       string `json:"LName"`
    Gender      string `json:"Gender"`
    PTC         string `json:"PTC"`
    DOB         string `json:"DOB,omitempty"`
    Nationality string `json:"Nationality,omitempty"`
    PassportNo  string `json:"PassportNo,omitempty"`
}

type wireContact struct {
    FName       string `json:"FName"`
    LName       string `json:"LName"`
    Email       string `json:"Email"`
    Mobile      string `json:"Mobile"`
    Address     string `json:"Address"`
    City        string `json:"City"`
    State       string `json:"State"`
    CountryCode string `json:"CountryCode"`
    PIN         string `json:"PIN"`
}

type createItineraryResponse struct {
    respEnvelope
    TransactionID int64           `json:"TransactionID"`
    TUI           string          `json:"TUI"`
    NetAmount     float64         `json:"NetAmount"`
    GrossAmount   float64         `json:"GrossAmount"`
    Hold          bool            `json:"Hold"`
    Trips         []rawPricedTrip `json:"Trips"`
    SSR           []rawSSR        `json:"SSR"`
}

// CreateItinerary submits the itinerary to the supplier and returns the
// transaction id that keys all later payment calls.  A response without a
// transaction id is contract drift and fails with ProtocolError.
func (c *Client) CreateItinerary(ctx context.Context, req ItineraryRequest) (*ItineraryReply, error) {
    creds, err := c.GetCredentials(ctx)
    if err != nil {
        return nil, err
    }

    payload := createItineraryRequest{
        TUI:        cleanString(req.TUI),
        ClientID:   creds.ClientID,
        NetAmount:  req.NetAmount,
        SSR:        req.SSR,
        CrossSell:  []string{},
        PLP:        []string{},
        SSRAmount:  req.SSRAmount,
        DeviceID:   req.DeviceID,
        AppVersion: req.AppVersion,
        ContactInfo: wireContact{
            FName:       req.Contact.FirstName,
            LName:       req.Contact.LastName,
            Email:       req.Contact.Email,
            Mobile:      req.Contact.Mobile,
            Address:     req.Contact.Address,
            City:        req.Contact.City,
            State:       req.Contact.State,
            CountryCode: req.Contact.CountryCode,
            PIN:         req.Contact.PIN,
        },
    }
    for i, t := range req.Travellers {
        payload.Travellers = append(payload.Travellers, wireTraveller{
            ID:          i + 1,
            Title:       t.Title,
            FName:       t.FirstName,
            LName:       t.LastName,
            Gender:      t.Gender,
            PTC:         t.Type,
            DOB:         t.DateOfBirth,
            Nationality: t.Nationality,
            PassportNo:  t.PassportNo,
        })
    }

    var resp createItineraryResponse
    if err := c.call(ctx, "create itinerary", c.flightsURL("/Flights/CreateItinerary"), creds.Token, payload, &resp, c.cfg.RequestTimeout); err != nil {
        return nil, err
    }
    if resp.TransactionID == 0 {
        return nil, &apperr.ProtocolError{Op: "create itinerary", Field: "TransactionID"}
    }

    reply := &ItineraryReply{
        TransactionID: resp.TransactionID,
        TUI:           cleanString(resp.TUI),
        NetAmount:     resp.NetAmount,
        GrossAmount:   resp.GrossAmount,
        Hold:          resp.Hold,
    }
    for _, ssr := range resp.SSR {
        if ssr.Code == "BAG" {
            reply.Baggage = ssr.Description
            break
        }
    }
    for _, trip := range resp.Trips {
        pt := PricedTrip{}
        for _, j := range trip.Journey {
            pj := PricedJourney{Provider: j.Provider, Duration: j.Duration, Stops: j.Stops}
            for _, seg := range j.Segments {
                pj.Segments = append(pj.Segments, PricedSegmentDetail{
                    FlightNo:          seg.Flight.FlightNo,
                    Airline:           seg.Flight.Airline,
                    AirCraft:          seg.Flight.AirCraft,
                    DepartureCode:     seg.Flight.DepartureCode,
                    ArrivalCode:       seg.Flight.ArrivalCode,
                    DepAirportName:    seg.Flight.DepAirportName,
                    ArrAirportName:    seg.Flight.ArrAirportName,
                    DepartureTerminal: seg.Flight.DepartureTerminal,
                    ArrivalTerminal:   seg.Flight.ArrivalTerminal,
                    DepartureTime:     seg.Flight.DepartureTime,
                    ArrivalTime:       seg.Flight.ArrivalTime,
                    Cabin:             seg.Flight.Cabin,
                    FBC:               seg.Flight.FBC,
                    Refundable:        seg.Flight.Refundable,
                })
            }
            pt.Journeys = append(pt.Journeys, pj)
        }
        reply.Trips = append(reply.Trips, pt)
    }
    return reply, nil
}
