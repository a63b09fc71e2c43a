package model

import "time"

// Payment record status values.  INITIATED -> PROCESSING -> SUCCESS | FAILED.
const (
    PaymentInitiated  = "INITIATED"
    PaymentProcessing = "PROCESSING"
    PaymentSuccess    = "SUCCESS"
    PaymentFailed     = "FAILED"
)

// Payment is one payment attempt against a booking.  Only one payment is
// active per booking at a time; History is append-only and is never
// rewritten, so a redelivered gateway callback adds an entry rather than
// mutating earlier ones.
type Payment struct {
    ID            uint64          `json:"id"`
    BookingID     uint64          `json:"bookingId"`
    TransactionID string          `json:"transactionId"`
    TUI           string          `json:"tui,omitempty"`
    Amount        float64         `json:"amount"`
    Status        string          `json:"status"`
    Gateway       GatewayMetadata `json:"gateway"`
    History       []PaymentEvent  `json:"history"`
    CreatedAt     time.Time       `json:"createdAt"`
    UpdatedAt     time.Time       `json:"updatedAt"`
}

// GatewayMetadata keeps what the gateway told us when the payment started
// and how it answered the callback.  CorrelationID is generated locally so
// a payment can be traced across logs even before the gateway assigns ids.
type GatewayMetadata struct {
    CorrelationID string `json:"correlationId"`
    Code          string `json:"code,omitempty"`
    PaymentID     string `json:"paymentId,omitempty"`
    RedirectURL   string `json:"redirectUrl,omitempty"`
    RedirectMode  string `json:"redirectMode,omitempty"`
    BookStatus    string `json:"bookStatus,omitempty"`
    CRSPNR        string `json:"crsPnr,omitempty"`
    Message       string `json:"message,omitempty"`
}

// PaymentEvent is one entry in a payment's ordered history log.
type PaymentEvent struct {
    Status    string    `json:"status"`
    Remarks   string    `json:"remarks,omitempty"`
    Timestamp time.Time `json:"timestamp"`
}
