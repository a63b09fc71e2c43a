package service

import (
    "context"
    "database/sql"
    "errors"
    "regexp"
    "sync"
    "testing"
    "time"

    "github.com/sirupsen/logrus"

    "github.com/iliyamo/flight-booking/internal/apperr"
    "github.com/iliyamo/flight-booking/internal/model"
    "github.com/iliyamo/flight-booking/internal/queue"
    "github.com/iliyamo/flight-booking/internal/supplier"
)

// ---- in-memory fakes ----

type fakeBookingStore struct {
    mu     sync.Mutex
    byID   map[uint64]*model.Booking
    nextID uint64
}

func newFakeBookingStore() *fakeBookingStore {
    return &fakeBookingStore{byID: map[uint64]*model.Booking{}}
}

func (s *fakeBookingStore) Create(_ context.Context, b *model.Booking) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.nextID++
    b.ID = s.nextID
    b.CreatedAt = time.Now().UTC()
    b.UpdatedAt = b.CreatedAt
    cp := *b
    s.byID[b.ID] = &cp
    return nil
}

func (s *fakeBookingStore) GetByReference(_ context.Context, ref string) (*model.Booking, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, b := range s.byID {
        if b.Reference == ref {
            cp := *b
            return &cp, nil
        }
    }
    return nil, sql.ErrNoRows
}

func (s *fakeBookingStore) GetByTransactionID(_ context.Context, txn string) (*model.Booking, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, b := range s.byID {
        if b.TransactionID == txn {
            cp := *b
            return &cp, nil
        }
    }
    return nil, sql.ErrNoRows
}

func (s *fakeBookingStore) ListByUser(_ context.Context, userID uint64) ([]*model.Booking, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    var out []*model.Booking
    for _, b := range s.byID {
        if b.UserID == userID {
            cp := *b
            out = append(out, &cp)
        }
    }
    return out, nil
}

func (s *fakeBookingStore) UpdateStatus(_ context.Context, id uint64, status, paymentStatus string) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.byID[id]
    if !ok {
        return sql.ErrNoRows
    }
    b.Status, b.PaymentStatus = status, paymentStatus
    return nil
}

func (s *fakeBookingStore) UpdateFlights(_ context.Context, id uint64, flights []model.BookedFlight) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    b, ok := s.byID[id]
    if !ok {
        return sql.ErrNoRows
    }
    b.Flights = flights
    return nil
}

type fakePaymentStore struct {
    mu     sync.Mutex
    byID   map[uint64]*model.Payment
    nextID uint64
}

func newFakePaymentStore() *fakePaymentStore {
    return &fakePaymentStore{byID: map[uint64]*model.Payment{}}
}

func (s *fakePaymentStore) Create(_ context.Context, p *model.Payment) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    s.nextID++
    p.ID = s.nextID
    cp := *p
    s.byID[p.ID] = &cp
    return nil
}

func (s *fakePaymentStore) GetByTransactionID(_ context.Context, txn string) (*model.Payment, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, p := range s.byID {
        if p.TransactionID == txn {
            cp := *p
            return &cp, nil
        }
    }
    return nil, sql.ErrNoRows
}

func (s *fakePaymentStore) GetByBookingID(_ context.Context, bookingID uint64) (*model.Payment, error) {
    s.mu.Lock()
    defer s.mu.Unlock()
    for _, p := range s.byID {
        if p.BookingID == bookingID {
            cp := *p
            return &cp, nil
        }
    }
    return nil, sql.ErrNoRows
}

func (s *fakePaymentStore) Update(_ context.Context, p *model.Payment) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if _, ok := s.byID[p.ID]; !ok {
        return sql.ErrNoRows
    }
    cp := *p
    s.byID[p.ID] = &cp
    return nil
}

type fakeFlightStore struct {
    mu      sync.Mutex
    created int
    fail    bool
}

func (s *fakeFlightStore) Create(_ context.Context, f *model.Flight) error {
    s.mu.Lock()
    defer s.mu.Unlock()
    if s.fail {
        return errors.New("insert failed")
    }
    s.created++
    f.ID = uint64(s.created)
    return nil
}

type fakeGateway struct {
    mu              sync.Mutex
    itineraryCalls  int
    startPayCalls   int
    itineraryReply  *supplier.ItineraryReply
    startPayReply   *supplier.StartPayReply
    retrievedStatus string
}

func (g *fakeGateway) CreateItinerary(_ context.Context, _ supplier.ItineraryRequest) (*supplier.ItineraryReply, error) {
    g.mu.Lock()
    defer g.mu.Unlock()
    g.itineraryCalls++
    return g.itineraryReply, nil
}

func (g *fakeGateway) StartPay(_ context.Context, _ supplier.StartPayRequest) (*supplier.StartPayReply, error) {
    g.mu.Lock()
    defer g.mu.Unlock()
    g.startPayCalls++
    return g.startPayReply, nil
}

func (g *fakeGateway) RetrieveBooking(_ context.Context, txnID int64) (*supplier.RetrievedBooking, error) {
    return &supplier.RetrievedBooking{TransactionID: txnID, Status: g.retrievedStatus}, nil
}

type publishRecorder struct {
    mu     sync.Mutex
    events []queue.BookingConfirmedEvent
}

func (r *publishRecorder) publish(_ context.Context, ev queue.BookingConfirmedEvent) error {
    r.mu.Lock()
    defer r.mu.Unlock()
    r.events = append(r.events, ev)
    return nil
}

func (r *publishRecorder) count() int {
    r.mu.Lock()
    defer r.mu.Unlock()
    return len(r.events)
}

// ---- fixtures ----

func defaultItineraryReply() *supplier.ItineraryReply {
    return &supplier.ItineraryReply{
        TransactionID: 987654,
        TUI:           "tui-book",
        NetAmount:     10400,
        GrossAmount:   11000,
        Trips: []supplier.PricedTrip{{
            Journeys: []supplier.PricedJourney{{
                Provider: "6E",
                Duration: "2h 10m",
                Segments: []supplier.PricedSegmentDetail{{
                    FlightNo:      "6E 123",
                    Airline:       "6E",
                    DepartureCode: "DEL",
                    ArrivalCode:   "BOM",
                    DepartureTime: "2026-09-15T06:30:00",
                    ArrivalTime:   "2026-09-15T08:40:00",
                    Cabin:         "E",
                    Refundable:    "Y",
                }},
            }},
        }},
        Baggage: "15 Kg",
    }
}

func validBookingRequest() CreateBookingRequest {
    return CreateBookingRequest{
        TUI:       "tui-book",
        NetAmount: 10400,
        TripType:  model.TripOneWay,
        Currency:  "INR",
        Travellers: []model.Passenger{{
            Type: "ADT", Title: "Mr", FirstName: "Arun", LastName: "Nair", Gender: "M",
        }},
        Contact: model.ContactDetails{
            FirstName: "Arun", LastName: "Nair",
            Email: "arun@example.com", Mobile: "9876543210",
        },
    }
}

type testEnv struct {
    svc      *BookingService
    bookings *fakeBookingStore
    payments *fakePaymentStore
    flights  *fakeFlightStore
    gateway  *fakeGateway
    recorder *publishRecorder
}

func newTestEnv() *testEnv {
    env := &testEnv{
        bookings: newFakeBookingStore(),
        payments: newFakePaymentStore(),
        flights:  &fakeFlightStore{},
        gateway: &fakeGateway{
            itineraryReply: defaultItineraryReply(),
            startPayReply: &supplier.StartPayReply{
                Code:         "200",
                PaymentID:    "pay-1",
                RedirectURL:  "https://gateway.example/pay/1",
                RedirectMode: "GET",
            },
        },
        recorder: &publishRecorder{},
    }
    log := logrus.New()
    log.SetLevel(logrus.PanicLevel)
    env.svc = NewBookingService(env.bookings, env.payments, env.flights, env.gateway, env.recorder.publish, log)
    env.svc.now = func() time.Time { return time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC) }
    return env
}

// ---- tests ----

func TestCreateBookingValidationAggregates(t *testing.T) {
    env := newTestEnv()
    _, err := env.svc.CreateBooking(context.Background(), CreateBookingRequest{
        Travellers: []model.Passenger{{Type: "XXX"}},
    })
    var verr *apperr.ValidationError
    if !errors.As(err, &verr) {
        t.Fatalf("got %T, want ValidationError", err)
    }
    // tui, netAmount, contact first/last/email/mobile, traveller first/last/title/type
    if len(verr.Errors) < 8 {
        t.Fatalf("expected all violations reported at once, got %v", verr.Errors)
    }
    if env.gateway.itineraryCalls != 0 {
        t.Fatal("supplier must not be called for an invalid request")
    }
}

var referencePattern = regexp.MustCompile(`^FB[0-9A-Z]+[A-Z0-9]{3}$`)

func TestCreateBookingSuccess(t *testing.T) {
    env := newTestEnv()
    booking, err := env.svc.CreateBooking(context.Background(), validBookingRequest())
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if !referencePattern.MatchString(booking.Reference) {
        t.Fatalf("reference %q does not match FB<base36><3 chars>", booking.Reference)
    }
    if booking.Status != model.BookingInitiated || booking.PaymentStatus != model.BookingPaymentPending {
        t.Fatalf("got status %s/%s, want INITIATED/PENDING", booking.Status, booking.PaymentStatus)
    }
    if booking.TransactionID != "987654" {
        t.Fatalf("got transaction id %q, want 987654", booking.TransactionID)
    }
    if len(booking.Flights) != 1 || booking.Flights[0].FlightNumber != "6E 123" {
        t.Fatalf("flights not captured: %+v", booking.Flights)
    }
    if booking.Pricing.GrossAmount != 11000 || booking.Pricing.NetAmount != 10400 {
        t.Fatalf("pricing not captured: %+v", booking.Pricing)
    }
    if env.flights.created != 1 {
        t.Fatalf("flight snapshot created %d times, want 1", env.flights.created)
    }
}

func TestCreateBookingSurvivesFlightPersistFailure(t *testing.T) {
    env := newTestEnv()
    env.flights.fail = true
    booking, err := env.svc.CreateBooking(context.Background(), validBookingRequest())
    if err != nil {
        t.Fatalf("snapshot failure must not fail the booking: %v", err)
    }
    if len(booking.Flights) != 1 {
        t.Fatalf("booking still carries segment data: %+v", booking.Flights)
    }
}

func TestCreateBookingRejectsReplyWithoutFlights(t *testing.T) {
    env := newTestEnv()
    env.gateway.itineraryReply = &supplier.ItineraryReply{TransactionID: 987654, TUI: "tui-book"}
    _, err := env.svc.CreateBooking(context.Background(), validBookingRequest())
    var perr *apperr.ProtocolError
    if !errors.As(err, &perr) {
        t.Fatalf("got %T (%v), want ProtocolError", err, err)
    }
}

func TestInitiatePayment(t *testing.T) {
    env := newTestEnv()
    booking, err := env.svc.CreateBooking(context.Background(), validBookingRequest())
    if err != nil {
        t.Fatal(err)
    }

    payment, err := env.svc.InitiatePayment(context.Background(), booking.Reference, "")
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if payment.Status != model.PaymentInitiated {
        t.Fatalf("got payment status %s, want INITIATED", payment.Status)
    }
    if payment.Gateway.RedirectURL != "https://gateway.example/pay/1" {
        t.Fatalf("gateway metadata not captured: %+v", payment.Gateway)
    }
    if payment.Gateway.CorrelationID == "" {
        t.Fatal("correlation id must be generated")
    }
    if len(payment.History) != 1 || payment.History[0].Status != model.PaymentInitiated {
        t.Fatalf("history not recorded: %+v", payment.History)
    }

    stored, err := env.bookings.GetByReference(context.Background(), booking.Reference)
    if err != nil {
        t.Fatal(err)
    }
    if stored.Status != model.BookingPendingPayment || stored.PaymentStatus != model.BookingPaymentProcessing {
        t.Fatalf("booking not transitioned: %s/%s", stored.Status, stored.PaymentStatus)
    }
}

func TestInitiatePaymentUnknownReference(t *testing.T) {
    env := newTestEnv()
    _, err := env.svc.InitiatePayment(context.Background(), "FBNOPE", "")
    var nf *apperr.NotFoundError
    if !errors.As(err, &nf) {
        t.Fatalf("got %T, want NotFoundError", err)
    }
}

func TestInitiatePaymentConflictsOnConfirmedBooking(t *testing.T) {
    env := newTestEnv()
    booking, _ := env.svc.CreateBooking(context.Background(), validBookingRequest())
    env.bookings.UpdateStatus(context.Background(), booking.ID, model.BookingConfirmed, model.BookingPaymentCompleted)

    _, err := env.svc.InitiatePayment(context.Background(), booking.Reference, "")
    var conflict *apperr.ConflictError
    if !errors.As(err, &conflict) {
        t.Fatalf("got %T (%v), want ConflictError", err, err)
    }
}

func setupPendingPayment(t *testing.T, env *testEnv) *model.Booking {
    t.Helper()
    booking, err := env.svc.CreateBooking(context.Background(), validBookingRequest())
    if err != nil {
        t.Fatal(err)
    }
    if _, err := env.svc.InitiatePayment(context.Background(), booking.Reference, ""); err != nil {
        t.Fatal(err)
    }
    return booking
}

func TestPaymentCallbackConfirmsBooking(t *testing.T) {
    for _, code := range []string{"200", "6033"} {
        t.Run("code "+code, func(t *testing.T) {
            env := newTestEnv()
            booking := setupPendingPayment(t, env)

            outcome, err := env.svc.HandlePaymentCallback(context.Background(), PaymentCallback{
                TransactionID: booking.TransactionID,
                Code:          code,
                CRSPNR:        "PNR123",
            })
            if err != nil {
                t.Fatalf("unexpected error: %v", err)
            }
            if !outcome.Succeeded || outcome.Duplicate {
                t.Fatalf("got %+v, want succeeded, not duplicate", outcome)
            }
            if outcome.Booking.Status != model.BookingConfirmed || outcome.Booking.PaymentStatus != model.BookingPaymentCompleted {
                t.Fatalf("booking not confirmed: %s/%s", outcome.Booking.Status, outcome.Booking.PaymentStatus)
            }
            if outcome.Payment.Status != model.PaymentSuccess {
                t.Fatalf("payment status %s, want SUCCESS", outcome.Payment.Status)
            }
            if outcome.Booking.Flights[0].PNR != "PNR123" {
                t.Fatalf("PNR not attached: %+v", outcome.Booking.Flights)
            }
            if env.recorder.count() != 1 {
                t.Fatalf("published %d events, want 1", env.recorder.count())
            }
            if ev := env.recorder.events[0]; ev.Reference != booking.Reference || len(ev.PNRs) != 1 {
                t.Fatalf("event not populated: %+v", ev)
            }
        })
    }
}

func TestPaymentCallbackFailure(t *testing.T) {
    env := newTestEnv()
    booking := setupPendingPayment(t, env)

    outcome, err := env.svc.HandlePaymentCallback(context.Background(), PaymentCallback{
        TransactionID: booking.TransactionID,
        Code:          "400",
        Message:       "declined",
    })
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if outcome.Succeeded {
        t.Fatal("a declined payment must not succeed")
    }
    if outcome.Payment.Status != model.PaymentFailed {
        t.Fatalf("payment status %s, want FAILED", outcome.Payment.Status)
    }
    if outcome.Booking.Status != model.BookingCancelled || outcome.Booking.PaymentStatus != model.BookingPaymentFailed {
        t.Fatalf("booking state %s/%s, want CANCELLED/FAILED", outcome.Booking.Status, outcome.Booking.PaymentStatus)
    }
    if env.recorder.count() != 0 {
        t.Fatal("failed payments must not publish confirmation events")
    }
}

func TestPaymentCallbackIsIdempotent(t *testing.T) {
    env := newTestEnv()
    booking := setupPendingPayment(t, env)

    cb := PaymentCallback{TransactionID: booking.TransactionID, Code: "200", CRSPNR: "PNR123"}
    first, err := env.svc.HandlePaymentCallback(context.Background(), cb)
    if err != nil {
        t.Fatal(err)
    }
    second, err := env.svc.HandlePaymentCallback(context.Background(), cb)
    if err != nil {
        t.Fatalf("redelivered callback must not error: %v", err)
    }
    if !second.Duplicate || !second.Succeeded {
        t.Fatalf("got %+v, want duplicate success", second)
    }
    if env.recorder.count() != 1 {
        t.Fatalf("published %d events, want exactly 1", env.recorder.count())
    }
    if len(second.Payment.History) != len(first.Payment.History)+1 {
        t.Fatalf("duplicate callback must append a history entry: %d vs %d",
            len(second.Payment.History), len(first.Payment.History))
    }
}

func TestSyncBookingReconcilesCancellation(t *testing.T) {
    env := newTestEnv()
    env.gateway.retrievedStatus = "Cancelled"
    booking, _ := env.svc.CreateBooking(context.Background(), validBookingRequest())

    local, remote, err := env.svc.SyncBooking(context.Background(), booking.Reference)
    if err != nil {
        t.Fatalf("unexpected error: %v", err)
    }
    if remote.Status != "Cancelled" {
        t.Fatalf("remote status %q", remote.Status)
    }
    if local.Status != model.BookingCancelled {
        t.Fatalf("local booking not reconciled: %s", local.Status)
    }
}

func TestReconcileStatusNeverUncancels(t *testing.T) {
    if status, ok := reconcileStatus(model.BookingCancelled, "CONFIRMED"); ok {
        t.Fatalf("cancelled booking must not be re-confirmed, got %s", status)
    }
    if _, ok := reconcileStatus(model.BookingConfirmed, "garbage"); ok {
        t.Fatal("unknown remote status must not transition")
    }
}
