// Package service contains the booking state machine: itinerary creation,
// payment initiation and the idempotent payment callback that confirms or
// fails a booking.
package service

import (
    "context"
    "database/sql"
    "errors"
    "fmt"
    "net/mail"
    "strings"
    "time"

    "github.com/google/uuid"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/flight-booking/internal/apperr"
    "github.com/iliyamo/flight-booking/internal/model"
    "github.com/iliyamo/flight-booking/internal/queue"
    "github.com/iliyamo/flight-booking/internal/repository"
    "github.com/iliyamo/flight-booking/internal/supplier"
    "github.com/iliyamo/flight-booking/internal/utils"
)

// BookingStore is the persistence surface the service needs for bookings.
// *repository.BookingRepo satisfies it; tests substitute in-memory fakes.
type BookingStore interface {
    Create(ctx context.Context, b *model.Booking) error
    GetByReference(ctx context.Context, ref string) (*model.Booking, error)
    GetByTransactionID(ctx context.Context, txnID string) (*model.Booking, error)
    ListByUser(ctx context.Context, userID uint64) ([]*model.Booking, error)
    UpdateStatus(ctx context.Context, id uint64, status, paymentStatus string) error
    UpdateFlights(ctx context.Context, id uint64, flights []model.BookedFlight) error
}

// PaymentStore is the persistence surface for payment attempts.
type PaymentStore interface {
    Create(ctx context.Context, p *model.Payment) error
    GetByTransactionID(ctx context.Context, txnID string) (*model.Payment, error)
    GetByBookingID(ctx context.Context, bookingID uint64) (*model.Payment, error)
    Update(ctx context.Context, p *model.Payment) error
}

// FlightStore persists flight snapshots taken at itinerary creation.
type FlightStore interface {
    Create(ctx context.Context, f *model.Flight) error
}

// SupplierGateway is the slice of the supplier client the booking flow
// uses.
type SupplierGateway interface {
    CreateItinerary(ctx context.Context, req supplier.ItineraryRequest) (*supplier.ItineraryReply, error)
    StartPay(ctx context.Context, req supplier.StartPayRequest) (*supplier.StartPayReply, error)
    RetrieveBooking(ctx context.Context, transactionID int64) (*supplier.RetrievedBooking, error)
}

// EventPublisher publishes a booking-confirmed event.  Failures must not
// fail the booking; the service logs and continues.
type EventPublisher func(ctx context.Context, event queue.BookingConfirmedEvent) error

// BookingService drives a booking through its lifecycle:
// INITIATED -> PENDING_PAYMENT -> CONFIRMED | CANCELLED, with REFUNDED as a
// further terminal state reached through reconciliation.
type BookingService struct {
    bookings BookingStore
    payments PaymentStore
    flights  FlightStore
    gateway  SupplierGateway
    publish  EventPublisher
    log      *logrus.Entry
    now      func() time.Time
}

func NewBookingService(b BookingStore, p PaymentStore, f FlightStore, g SupplierGateway, pub EventPublisher, log *logrus.Logger) *BookingService {
    if pub == nil {
        pub = queue.PublishBookingConfirmed
    }
    return &BookingService{
        bookings: b,
        payments: p,
        flights:  f,
        gateway:  g,
        publish:  pub,
        log:      log.WithField("component", "booking"),
        now:      func() time.Time { return time.Now().UTC() },
    }
}

// CreateBookingRequest is the input to itinerary creation.  TUI is the
// pricing session the customer checked out from.
type CreateBookingRequest struct {
    TUI        string                  `json:"tui"`
    NetAmount  float64                 `json:"netAmount"`
    TripType   string                  `json:"tripType"`
    UserID     uint64                  `json:"-"`
    Currency   string                  `json:"currency"`
    Travellers []model.Passenger       `json:"travellers"`
    Contact    model.ContactDetails    `json:"contact"`
    SSR        []supplier.SSRSelection `json:"ssr,omitempty"`
    SSRAmount  float64                 `json:"ssrAmount,omitempty"`
}

var passengerTypes = map[string]bool{"ADT": true, "CHD": true, "INF": true}

// ValidateCreateBooking checks the request and reports every violation at
// once so the checkout form can surface all problems in a single round
// trip.
func ValidateCreateBooking(req CreateBookingRequest) error {
    var errs []string
    if strings.TrimSpace(req.TUI) == "" {
        errs = append(errs, "tui is required")
    }
    if req.NetAmount <= 0 {
        errs = append(errs, "netAmount must be positive")
    }
    if strings.TrimSpace(req.Contact.FirstName) == "" {
        errs = append(errs, "contact firstName is required")
    }
    if strings.TrimSpace(req.Contact.LastName) == "" {
        errs = append(errs, "contact lastName is required")
    }
    if strings.TrimSpace(req.Contact.Email) == "" {
        errs = append(errs, "contact email is required")
    } else if _, err := mail.ParseAddress(req.Contact.Email); err != nil {
        errs = append(errs, "contact email is invalid")
    }
    if strings.TrimSpace(req.Contact.Mobile) == "" {
        errs = append(errs, "contact mobile is required")
    }
    if len(req.Travellers) == 0 {
        errs = append(errs, "at least one traveller is required")
    }
    for i, t := range req.Travellers {
        if strings.TrimSpace(t.FirstName) == "" {
            errs = append(errs, fmt.Sprintf("traveller %d: firstName is required", i+1))
        }
        if strings.TrimSpace(t.LastName) == "" {
            errs = append(errs, fmt.Sprintf("traveller %d: lastName is required", i+1))
        }
        if strings.TrimSpace(t.Title) == "" {
            errs = append(errs, fmt.Sprintf("traveller %d: title is required", i+1))
        }
        if !passengerTypes[t.Type] {
            errs = append(errs, fmt.Sprintf("traveller %d: type must be ADT, CHD or INF", i+1))
        }
        if (t.Type == "CHD" || t.Type == "INF") && strings.TrimSpace(t.DateOfBirth) == "" {
            errs = append(errs, fmt.Sprintf("traveller %d: dateOfBirth is required for %s", i+1, t.Type))
        }
    }
    if len(errs) > 0 {
        return apperr.NewValidation(errs)
    }
    return nil
}

// CreateBooking submits the itinerary to the supplier and records the
// booking as INITIATED.  The flight snapshot insert is best-effort (its
// failure is logged, the booking still keeps the segment data), and the
// locally generated reference is regenerated on the rare unique-key
// collision.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*model.Booking, error) {
    if err := ValidateCreateBooking(req); err != nil {
        return nil, err
    }

    reply, err := s.gateway.CreateItinerary(ctx, supplier.ItineraryRequest{
        TUI:        req.TUI,
        NetAmount:  req.NetAmount,
        Travellers: req.Travellers,
        Contact:    req.Contact,
        SSR:        req.SSR,
        SSRAmount:  req.SSRAmount,
    })
    if err != nil {
        return nil, err
    }

    currency := req.Currency
    if currency == "" {
        currency = "INR"
    }

    booking := &model.Booking{
        TransactionID: fmt.Sprintf("%d", reply.TransactionID),
        UserID:        req.UserID,
        TripType:      req.TripType,
        Status:        model.BookingInitiated,
        PaymentStatus: model.BookingPaymentPending,
        Passengers:    req.Travellers,
        Contact:       req.Contact,
        Pricing: model.BookingPricing{
            Currency:    currency,
            NetAmount:   reply.NetAmount,
            GrossAmount: reply.GrossAmount,
        },
    }

    for _, trip := range reply.Trips {
        for _, j := range trip.Journeys {
            for _, seg := range j.Segments {
                flight := &model.Flight{
                    FlightNumber: strings.TrimSpace(seg.FlightNo),
                    Provider:     j.Provider,
                    Airline:      model.Airline{Code: seg.Airline, Name: seg.Airline},
                    Route: model.Route{
                        Departure: model.Endpoint{
                            AirportCode: seg.DepartureCode,
                            AirportName: seg.DepAirportName,
                            Terminal:    seg.DepartureTerminal,
                        },
                        Arrival: model.Endpoint{
                            AirportCode: seg.ArrivalCode,
                            AirportName: seg.ArrAirportName,
                            Terminal:    seg.ArrivalTerminal,
                        },
                        Duration: j.Duration,
                        Stops:    j.Stops,
                    },
                    Cabin:       seg.Cabin,
                    Currency:    currency,
                    GrossAmount: reply.GrossAmount,
                    NetAmount:   reply.NetAmount,
                    Refundable:  strings.EqualFold(seg.Refundable, "Y"),
                    Baggage:     reply.Baggage,
                }
                if err := s.flights.Create(ctx, flight); err != nil {
                    s.log.WithError(err).WithField("flight", flight.FlightNumber).Warn("flight snapshot persist failed")
                }
                booked := model.BookedFlight{
                    FlightID:     flight.ID,
                    FlightNumber: strings.TrimSpace(seg.FlightNo),
                    TUI:          reply.TUI,
                    ProviderCode: j.Provider,
                    Departure:    flight.Route.Departure,
                    Arrival:      flight.Route.Arrival,
                    Cabin:        seg.Cabin,
                }
                booked.Departure.ScheduledTime = parseWireTime(seg.DepartureTime)
                booked.Arrival.ScheduledTime = parseWireTime(seg.ArrivalTime)
                booking.Flights = append(booking.Flights, booked)
            }
        }
    }

    if len(booking.Flights) == 0 {
        return nil, &apperr.ProtocolError{Op: "create itinerary", Field: "Trips"}
    }

    // the reference embeds a second-granularity timestamp; retry a couple
    // of times on collision
    for attempt := 0; ; attempt++ {
        ref, err := utils.NewBookingReference(s.now())
        if err != nil {
            return nil, err
        }
        booking.Reference = ref
        err = s.bookings.Create(ctx, booking)
        if err == nil {
            break
        }
        if errors.Is(err, repository.ErrDuplicateRef) && attempt < 2 {
            continue
        }
        return nil, err
    }

    s.log.WithFields(logrus.Fields{
        "reference": booking.Reference,
        "txn":       booking.TransactionID,
        "flights":   len(booking.Flights),
    }).Info("booking created")
    return booking, nil
}

// InitiatePayment starts the supplier gateway payment for a booking.  Only
// a booking still awaiting payment may start one; anything later is a
// conflict.
func (s *BookingService) InitiatePayment(ctx context.Context, reference, browserKey string) (*model.Payment, error) {
    booking, err := s.bookings.GetByReference(ctx, reference)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, &apperr.NotFoundError{Resource: "booking", Ref: reference}
        }
        return nil, err
    }
    switch booking.Status {
    case model.BookingInitiated, model.BookingPendingPayment:
    default:
        return nil, &apperr.ConflictError{Reason: "booking " + reference + " is " + booking.Status + "; payment cannot be initiated"}
    }

    txnID, err := parseTxnID(booking.TransactionID)
    if err != nil {
        return nil, err
    }

    tui := ""
    if len(booking.Flights) > 0 {
        tui = booking.Flights[0].TUI
    }
    reply, err := s.gateway.StartPay(ctx, supplier.StartPayRequest{
        TransactionID: txnID,
        NetAmount:     booking.Pricing.NetAmount,
        TUI:           tui,
        BrowserKey:    browserKey,
    })
    if err != nil {
        return nil, err
    }

    payment := &model.Payment{
        BookingID:     booking.ID,
        TransactionID: booking.TransactionID,
        TUI:           tui,
        Amount:        booking.Pricing.NetAmount,
        Status:        model.PaymentInitiated,
        Gateway: model.GatewayMetadata{
            CorrelationID: uuid.NewString(),
            Code:          reply.Code,
            PaymentID:     reply.PaymentID,
            RedirectURL:   reply.RedirectURL,
            RedirectMode:  reply.RedirectMode,
            BookStatus:    reply.BookStatus,
            CRSPNR:        reply.CRSPNR,
            Message:       reply.Message,
        },
        History: []model.PaymentEvent{{
            Status:    model.PaymentInitiated,
            Remarks:   "payment started with gateway",
            Timestamp: s.now(),
        }},
    }
    if err := s.payments.Create(ctx, payment); err != nil {
        return nil, err
    }
    if err := s.bookings.UpdateStatus(ctx, booking.ID, model.BookingPendingPayment, model.BookingPaymentProcessing); err != nil {
        return nil, err
    }

    s.log.WithFields(logrus.Fields{
        "reference":   reference,
        "txn":         booking.TransactionID,
        "correlation": payment.Gateway.CorrelationID,
    }).Info("payment initiated")
    return payment, nil
}

// paymentSucceeded is the single place that decides whether a gateway
// callback code means success.  "6033" is a gateway-specific alias for
// success and must stay confined to this predicate.
func paymentSucceeded(code string) bool {
    return code == "200" || code == "6033"
}

// PaymentCallback is what the gateway posts (or redirects with) after the
// customer completes or abandons payment.
type PaymentCallback struct {
    TransactionID string
    Code          string
    Message       string
    PaymentID     string
    CRSPNR        string
}

// CallbackOutcome reports the result of processing a callback.  Duplicate
// is true when the payment had already reached a terminal state, in which
// case nothing was re-transitioned or re-published.
type CallbackOutcome struct {
    Booking   *model.Booking
    Payment   *model.Payment
    Succeeded bool
    Duplicate bool
}

// HandlePaymentCallback settles a payment from a gateway callback.  It is
// idempotent: gateways redeliver callbacks, and browsers replay redirect
// URLs, so a payment already settled only gains a history entry.
func (s *BookingService) HandlePaymentCallback(ctx context.Context, cb PaymentCallback) (*CallbackOutcome, error) {
    booking, err := s.bookings.GetByTransactionID(ctx, cb.TransactionID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, &apperr.NotFoundError{Resource: "booking", Ref: cb.TransactionID}
        }
        return nil, err
    }
    payment, err := s.payments.GetByTransactionID(ctx, cb.TransactionID)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, &apperr.NotFoundError{Resource: "payment", Ref: cb.TransactionID}
        }
        return nil, err
    }

    if payment.Status == model.PaymentSuccess || payment.Status == model.PaymentFailed {
        payment.History = append(payment.History, model.PaymentEvent{
            Status:    payment.Status,
            Remarks:   "duplicate callback ignored (code " + cb.Code + ")",
            Timestamp: s.now(),
        })
        if err := s.payments.Update(ctx, payment); err != nil {
            return nil, err
        }
        return &CallbackOutcome{
            Booking:   booking,
            Payment:   payment,
            Succeeded: payment.Status == model.PaymentSuccess,
            Duplicate: true,
        }, nil
    }

    succeeded := paymentSucceeded(cb.Code)
    payment.Gateway.Code = cb.Code
    payment.Gateway.Message = cb.Message
    if cb.PaymentID != "" {
        payment.Gateway.PaymentID = cb.PaymentID
    }
    if cb.CRSPNR != "" {
        payment.Gateway.CRSPNR = cb.CRSPNR
    }

    if succeeded {
        payment.Status = model.PaymentSuccess
        payment.History = append(payment.History, model.PaymentEvent{
            Status:    model.PaymentSuccess,
            Remarks:   "gateway confirmed payment (code " + cb.Code + ")",
            Timestamp: s.now(),
        })
        if err := s.payments.Update(ctx, payment); err != nil {
            return nil, err
        }
        if cb.CRSPNR != "" {
            for i := range booking.Flights {
                booking.Flights[i].PNR = cb.CRSPNR
            }
            if err := s.bookings.UpdateFlights(ctx, booking.ID, booking.Flights); err != nil {
                s.log.WithError(err).WithField("reference", booking.Reference).Warn("attaching PNR failed")
            }
        }
        if err := s.bookings.UpdateStatus(ctx, booking.ID, model.BookingConfirmed, model.BookingPaymentCompleted); err != nil {
            return nil, err
        }
        booking.Status = model.BookingConfirmed
        booking.PaymentStatus = model.BookingPaymentCompleted

        s.publishConfirmed(ctx, booking)
        s.log.WithFields(logrus.Fields{"reference": booking.Reference, "txn": cb.TransactionID}).Info("booking confirmed")
    } else {
        payment.Status = model.PaymentFailed
        payment.History = append(payment.History, model.PaymentEvent{
            Status:    model.PaymentFailed,
            Remarks:   "gateway reported failure (code " + cb.Code + "): " + cb.Message,
            Timestamp: s.now(),
        })
        if err := s.payments.Update(ctx, payment); err != nil {
            return nil, err
        }
        if err := s.bookings.UpdateStatus(ctx, booking.ID, model.BookingCancelled, model.BookingPaymentFailed); err != nil {
            return nil, err
        }
        booking.Status = model.BookingCancelled
        booking.PaymentStatus = model.BookingPaymentFailed
        s.log.WithFields(logrus.Fields{"reference": booking.Reference, "txn": cb.TransactionID, "code": cb.Code}).Warn("payment failed")
    }

    return &CallbackOutcome{Booking: booking, Payment: payment, Succeeded: succeeded}, nil
}

func (s *BookingService) publishConfirmed(ctx context.Context, b *model.Booking) {
    ev := queue.BookingConfirmedEvent{
        BookingID:     b.ID,
        Reference:     b.Reference,
        TransactionID: b.TransactionID,
        UserID:        b.UserID,
        TripType:      b.TripType,
        ContactEmail:  b.Contact.Email,
        Passengers:    len(b.Passengers),
        Currency:      b.Pricing.Currency,
        GrossAmount:   b.Pricing.GrossAmount,
        ConfirmedAt:   s.now().Format(time.RFC3339),
    }
    for _, f := range b.Flights {
        ev.Flights = append(ev.Flights, f.FlightNumber)
        if f.PNR != "" {
            ev.PNRs = append(ev.PNRs, f.PNR)
        }
    }
    if err := s.publish(ctx, ev); err != nil {
        s.log.WithError(err).WithField("reference", b.Reference).Warn("booking event publish failed")
    }
}

// GetBooking returns a booking by its customer-facing reference.
func (s *BookingService) GetBooking(ctx context.Context, reference string) (*model.Booking, error) {
    booking, err := s.bookings.GetByReference(ctx, reference)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, &apperr.NotFoundError{Resource: "booking", Ref: reference}
        }
        return nil, err
    }
    return booking, nil
}

// ListBookings returns all bookings for a user, newest first.
func (s *BookingService) ListBookings(ctx context.Context, userID uint64) ([]*model.Booking, error) {
    return s.bookings.ListByUser(ctx, userID)
}

// SyncBooking fetches the supplier's authoritative view of a booking and
// reconciles the local record when the provider reports a later state.
func (s *BookingService) SyncBooking(ctx context.Context, reference string) (*model.Booking, *supplier.RetrievedBooking, error) {
    booking, err := s.GetBooking(ctx, reference)
    if err != nil {
        return nil, nil, err
    }
    txnID, err := parseTxnID(booking.TransactionID)
    if err != nil {
        return nil, nil, err
    }
    remote, err := s.gateway.RetrieveBooking(ctx, txnID)
    if err != nil {
        return nil, nil, err
    }

    if status, ok := reconcileStatus(booking.Status, remote.Status); ok {
        paymentStatus := booking.PaymentStatus
        if status == model.BookingConfirmed {
            paymentStatus = model.BookingPaymentCompleted
        }
        if err := s.bookings.UpdateStatus(ctx, booking.ID, status, paymentStatus); err != nil {
            return nil, nil, err
        }
        s.log.WithFields(logrus.Fields{
            "reference": booking.Reference,
            "from":      booking.Status,
            "to":        status,
        }).Info("booking reconciled from supplier")
        booking.Status = status
        booking.PaymentStatus = paymentStatus
    }
    return booking, remote, nil
}

// reconcileStatus maps a supplier-reported status onto the local lifecycle.
// Only forward transitions are applied; an unknown or earlier remote state
// leaves the local record alone.
func reconcileStatus(local, remote string) (string, bool) {
    var mapped string
    switch strings.ToUpper(strings.TrimSpace(remote)) {
    case "CONFIRMED", "BOOKED", "TICKETED":
        mapped = model.BookingConfirmed
    case "CANCELLED":
        mapped = model.BookingCancelled
    case "REFUNDED":
        mapped = model.BookingRefunded
    default:
        return "", false
    }
    if mapped == local {
        return "", false
    }
    // CANCELLED / REFUNDED override anything; CONFIRMED only moves a
    // booking forward, never un-cancels one.
    if mapped == model.BookingConfirmed && (local == model.BookingCancelled || local == model.BookingRefunded) {
        return "", false
    }
    return mapped, true
}

func parseTxnID(s string) (int64, error) {
    var id int64
    if _, err := fmt.Sscanf(s, "%d", &id); err != nil || id == 0 {
        return 0, fmt.Errorf("invalid transaction id %q", s)
    }
    return id, nil
}

func parseWireTime(s string) time.Time {
    for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
        if t, err := time.Parse(layout, s); err == nil {
            return t
        }
    }
    return time.Time{}
}
