package model

import "time"

// Flight is the persisted flight-detail record written when an itinerary is
// created.  It snapshots the segment the customer booked so the booking can
// be displayed even after the supplier session expires.
//
// Fields mirror the flights table:
//  ID           – flights.id
//  FlightNumber – flights.flight_number
//  Provider     – flights.provider
//  Airline      – carrier codes/name at booking time
//  Route        – departure/arrival snapshot
//  Cabin        – booked cabin code
//  Currency     – pricing currency
//  GrossAmount  – customer-facing total
//  NetAmount    – supplier charge
//  Refundable   – fare flexibility flag
//  Baggage      – included baggage description, if any
type Flight struct {
    ID           uint64    `json:"id"`
    FlightNumber string    `json:"flightNumber"`
    Provider     string    `json:"provider"`
    Airline      Airline   `json:"airline"`
    Route        Route     `json:"route"`
    Cabin        string    `json:"cabin,omitempty"`
    Currency     string    `json:"currency"`
    GrossAmount  float64   `json:"grossAmount"`
    NetAmount    float64   `json:"netAmount"`
    Refundable   bool      `json:"refundable"`
    Baggage      string    `json:"baggage,omitempty"`
    CreatedAt    time.Time `json:"createdAt"`
}
