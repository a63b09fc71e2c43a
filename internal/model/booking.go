package model

import "time"

// Booking status values.  Transitions are monotone forward; CANCELLED and
// REFUNDED are terminal.
const (
    BookingInitiated      = "INITIATED"
    BookingPendingPayment = "PENDING_PAYMENT"
    BookingConfirmed      = "CONFIRMED"
    BookingCancelled      = "CANCELLED"
    BookingRefunded       = "REFUNDED"
)

// Booking payment sub-state values, mirroring the payment lifecycle as seen
// from the booking aggregate.
const (
    BookingPaymentPending    = "PENDING"
    BookingPaymentProcessing = "PROCESSING"
    BookingPaymentCompleted  = "COMPLETED"
    BookingPaymentFailed     = "FAILED"
)

// Booking is the aggregate root created at itinerary-creation time.  The
// reference is generated locally (FB + base36 timestamp + 3 random chars)
// and is unique, as is the supplier-issued transaction id.
//
// Fields:
//  ID            – primary key identifier.
//  Reference     – bookings.reference, the customer-facing booking code.
//  TransactionID – bookings.transaction_id, supplier correlation id.
//  UserID        – bookings.user_id, owning user.
//  TripType      – ONE_WAY | ROUND_TRIP | MULTI_CITY.
//  Status        – see Booking* constants above.
//  PaymentStatus – see BookingPayment* constants above.
//  Flights       – the booked legs with their provider references.
//  Passengers    – traveller list as submitted.
//  Contact       – contact details as submitted.
//  Pricing       – fare totals captured at itinerary creation.
type Booking struct {
    ID            uint64          `json:"id"`
    Reference     string          `json:"reference"`
    TransactionID string          `json:"transactionId"`
    UserID        uint64          `json:"userId,omitempty"`
    TripType      string          `json:"tripType"`
    Status        string          `json:"status"`
    PaymentStatus string          `json:"paymentStatus"`
    Flights       []BookedFlight  `json:"flights"`
    Passengers    []Passenger     `json:"passengers"`
    Contact       ContactDetails  `json:"contact"`
    Pricing       BookingPricing  `json:"pricing"`
    CreatedAt     time.Time       `json:"createdAt"`
    UpdatedAt     time.Time       `json:"updatedAt"`
}

// BookedFlight is one leg of a booking.  PNR is filled in once the payment
// callback reports the provider booking reference.
type BookedFlight struct {
    FlightID     uint64    `json:"flightId,omitempty"`
    FlightNumber string    `json:"flightNumber"`
    TUI          string    `json:"tui"`
    ProviderCode string    `json:"providerCode,omitempty"`
    PNR          string    `json:"pnr,omitempty"`
    Departure    Endpoint  `json:"departure"`
    Arrival      Endpoint  `json:"arrival"`
    Cabin        string    `json:"cabin,omitempty"`
}

// Passenger is a traveller on the booking.  Type follows the supplier PTC
// codes: ADT, CHD, INF.
type Passenger struct {
    Type        string `json:"type"`
    Title       string `json:"title"`
    FirstName   string `json:"firstName"`
    LastName    string `json:"lastName"`
    Gender      string `json:"gender,omitempty"`
    DateOfBirth string `json:"dateOfBirth,omitempty"`
    Nationality string `json:"nationality,omitempty"`
    PassportNo  string `json:"passportNo,omitempty"`
}

// ContactDetails holds the booking contact as required by the supplier.
type ContactDetails struct {
    FirstName   string `json:"firstName"`
    LastName    string `json:"lastName"`
    Email       string `json:"email"`
    Mobile      string `json:"mobile"`
    Address     string `json:"address"`
    City        string `json:"city"`
    State       string `json:"state"`
    CountryCode string `json:"countryCode"`
    PIN         string `json:"pin"`
}

// BookingPricing captures the fare totals at the moment the itinerary was
// created.  NetAmount is what the supplier charges; GrossAmount is the
// customer-facing total.
type BookingPricing struct {
    Currency    string  `json:"currency"`
    NetAmount   float64 `json:"netAmount"`
    GrossAmount float64 `json:"grossAmount"`
}
