package model

// Trip type identifiers accepted from callers.  They map onto the
// supplier's fare-type codes inside the search client.
const (
    TripOneWay    = "oneway"
    TripRoundTrip = "roundtrip"
    TripMultiCity = "multicity"
)

// SearchRequest is the normalized set of trip parameters for one express
// search.  It is immutable once submitted; the cache fingerprint is derived
// from this struct, so two requests with equal fields share a cache entry.
type SearchRequest struct {
    TripType          string   `json:"tripType"`
    Origin            string   `json:"origin"`
    Destination       string   `json:"destination"`
    DepartureDate     string   `json:"departureDate"` // YYYY-MM-DD
    ReturnDate        string   `json:"returnDate,omitempty"`
    Adults            int      `json:"adults"`
    Children          int      `json:"children"`
    Infants           int      `json:"infants"`
    Cabin             string   `json:"cabin"`
    PreferredAirlines []string `json:"preferredAirlines,omitempty"`
    DirectOnly        bool     `json:"directOnly"`
    RefundableOnly    bool     `json:"refundableOnly"`
    StudentFare       bool     `json:"studentFare"`
    NearbyAirports    bool     `json:"nearbyAirports"`
    ExtendedSearch    bool     `json:"extendedSearch"`
    MultipleCarrier   bool     `json:"multipleCarrier"`
    GroupType         string   `json:"groupType,omitempty"`
}

// SearchResult is what a completed search returns to the HTTP layer: the
// normalized offers in supplier order, the supplier correlation token for
// follow-up pricing calls, and whether the result was served from cache.
type SearchResult struct {
    Offers    []FlightOffer `json:"offers"`
    TUI       string        `json:"tui"`
    Currency  string        `json:"currency,omitempty"`
    FromCache bool          `json:"fromCache"`
}

// PricingResult is the outcome of the two-step smart-pricer/live-pricer
// protocol.  PriceChange is nil when the supplier confirmed the locked
// amount; a non-nil PriceChange is a normal result variant, not an error.
type PricingResult struct {
    TUI         string         `json:"tui"`
    NetAmount   float64        `json:"netAmount"`
    GrossAmount float64        `json:"grossAmount"`
    Route       PricedRoute    `json:"route"`
    Passengers  PaxCounts      `json:"passengers"`
    Segments    []PricedSegment `json:"segments"`
    PriceChange *PriceChange   `json:"priceChange,omitempty"`
}

// PriceChange reports a supplier-side reprice (code "1500") detected during
// the live-pricer fetch.
type PriceChange struct {
    PreviousAmount float64 `json:"previousAmount"`
    NewAmount      float64 `json:"newAmount"`
}

// PricedRoute summarizes the itinerary the price applies to.
type PricedRoute struct {
    From        string `json:"from"`
    To          string `json:"to"`
    OnwardDate  string `json:"onwardDate,omitempty"`
    ReturnDate  string `json:"returnDate,omitempty"`
}

// PaxCounts is the passenger mix the price was computed for.
type PaxCounts struct {
    Adults   int `json:"adults"`
    Children int `json:"children"`
    Infants  int `json:"infants"`
}

// PricedSegment is one flight segment inside a priced itinerary.  All
// segments of a multi-leg journey are preserved, in supplier order.
type PricedSegment struct {
    TripIndex    int      `json:"tripIndex"`
    FlightNumber string   `json:"flightNumber"`
    Airline      string   `json:"airline"`
    Aircraft     string   `json:"aircraft,omitempty"`
    Departure    Endpoint `json:"departure"`
    Arrival      Endpoint `json:"arrival"`
    Duration     string   `json:"duration,omitempty"`
    Stops        int      `json:"stops"`
    BaseFare     float64  `json:"baseFare"`
    Taxes        float64  `json:"taxes"`
    GrossFare    float64  `json:"grossFare"`
}
