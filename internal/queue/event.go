// Package queue defines message payloads exchanged over the message broker.
package queue

// BookingConfirmedEvent is published when a payment callback confirms a
// booking. It contains enough information for downstream consumers to log,
// notify, or trigger ticketing without querying the primary database.
type BookingConfirmedEvent struct {
    BookingID     uint64   `json:"booking_id"`
    Reference     string   `json:"reference"`
    TransactionID string   `json:"transaction_id"`
    UserID        uint64   `json:"user_id"`
    TripType      string   `json:"trip_type"`
    Flights       []string `json:"flights"`
    PNRs          []string `json:"pnrs"`
    ContactEmail  string   `json:"contact_email"`
    Passengers    int      `json:"passengers"`
    Currency      string   `json:"currency"`
    GrossAmount   float64  `json:"gross_amount"`
    ConfirmedAt   string   `json:"confirmed_at"`
}
