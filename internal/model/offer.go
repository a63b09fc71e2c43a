package model

import "time"

// FlightOffer is the canonical, normalized representation of one priced
// journey returned by the supplier's express search.  Offers are derived
// from the raw supplier payload once and never mutated afterwards; the
// slice order always matches the supplier response order.
//
// The JSON tags define the persistence/transport shape, so an offer that
// is serialized for the cache or the API and read back preserves the
// airline code, every departure/arrival time and the fare totals exactly.
type FlightOffer struct {
    FlightNumber string  `json:"flightNumber"`
    Provider     string  `json:"provider"`
    Airline      Airline `json:"airline"`
    Route        Route   `json:"route"`
    Aircraft     Aircraft `json:"aircraft"`
    Fare         Fare    `json:"fare"`
    Availability Availability `json:"availability"`
    Amenities    []string `json:"amenities,omitempty"`
    Inclusions   Inclusions `json:"inclusions"`
    Notices      []Notice `json:"notices,omitempty"`
    Grouping     Grouping `json:"grouping"`
}

// Airline identifies the carriers involved in an offer.  Code is the
// validating carrier; marketing and operating carriers may differ on
// codeshare flights.
type Airline struct {
    Code             string `json:"code"`
    Name             string `json:"name"`
    MarketingCarrier string `json:"marketingCarrier,omitempty"`
    OperatingCarrier string `json:"operatingCarrier,omitempty"`
}

// Endpoint is one end of a flight: the airport plus the scheduled local time.
type Endpoint struct {
    AirportCode   string    `json:"airportCode"`
    AirportName   string    `json:"airportName,omitempty"`
    City          string    `json:"city,omitempty"`
    Terminal      string    `json:"terminal,omitempty"`
    ScheduledTime time.Time `json:"scheduledTime"`
}

// Connection describes an intermediate stop on a multi-leg journey.
type Connection struct {
    AirportCode string `json:"airportCode"`
    AirportName string `json:"airportName,omitempty"`
    Duration    string `json:"duration,omitempty"`
    Type        string `json:"type,omitempty"`
}

// Route is the departure/arrival pair plus stop information.
type Route struct {
    Departure   Endpoint     `json:"departure"`
    Arrival     Endpoint     `json:"arrival"`
    Duration    string       `json:"duration,omitempty"`
    Stops       int          `json:"stops"`
    Connections []Connection `json:"connections,omitempty"`
}

// Aircraft carries equipment and booking-class details.
type Aircraft struct {
    Type      string `json:"type,omitempty"`
    RBD       string `json:"rbd,omitempty"`
    FareClass string `json:"fareClass,omitempty"`
    Cabin     string `json:"cabin,omitempty"`
}

// Fare is the monetary breakdown of an offer.  Amounts are kept as the
// supplier reports them (major currency units).
type Fare struct {
    Currency       string  `json:"currency"`
    Gross          float64 `json:"gross"`
    Net            float64 `json:"net"`
    Commission     float64 `json:"commission,omitempty"`
    TransactionFee float64 `json:"transactionFee,omitempty"`
    VATOnFee       float64 `json:"vatOnFee,omitempty"`
    FareBasisCode  string  `json:"fareBasisCode,omitempty"`
    FareType       string  `json:"fareType,omitempty"`
    Promo          string  `json:"promo,omitempty"`
}

// Availability reflects seat inventory and fare flexibility.
type Availability struct {
    Seats      int  `json:"seats"`
    Refundable bool `json:"refundable"`
    Hold       bool `json:"hold"`
}

// Inclusions lists what the fare bundles in.
type Inclusions struct {
    Baggage          string `json:"baggage,omitempty"`
    Meals            string `json:"meals,omitempty"`
    PieceDescription string `json:"pieceDescription,omitempty"`
}

// Notice is a supplier advisory attached to an offer or to the whole result.
type Notice struct {
    Message string `json:"message"`
    Link    string `json:"link,omitempty"`
    Type    string `json:"type,omitempty"`
}

// Grouping carries the supplier identifiers needed to reference this offer
// in later pricing calls (Index) and to pair onward/return journeys.
type Grouping struct {
    Index            string `json:"index,omitempty"`
    JourneyKey       string `json:"journeyKey,omitempty"`
    ReturnIdentifier int    `json:"returnIdentifier,omitempty"`
    GroupCount       int    `json:"groupCount,omitempty"`
}
