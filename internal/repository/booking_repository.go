package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "strings"
    "time"

    "github.com/iliyamo/flight-booking/internal/model"
)

// BookingRepo provides persistence for bookings.  Traveller, contact and
// pricing details are stored as JSON columns: they are written once at
// itinerary creation and only ever read back whole, so relational
// decomposition buys nothing.  All timestamp fields are stored in UTC.
type BookingRepo struct {
    db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

// Create inserts a new booking and populates the generated ID and
// timestamps on the provided record.  A unique-key violation on the
// reference or transaction id is reported as ErrDuplicateRef so the caller
// can regenerate the reference and retry.
func (r *BookingRepo) Create(ctx context.Context, b *model.Booking) error {
    flights, err := json.Marshal(b.Flights)
    if err != nil {
        return err
    }
    passengers, err := json.Marshal(b.Passengers)
    if err != nil {
        return err
    }
    contact, err := json.Marshal(b.Contact)
    if err != nil {
        return err
    }
    pricing, err := json.Marshal(b.Pricing)
    if err != nil {
        return err
    }

    const q = `INSERT INTO bookings
        (reference, transaction_id, user_id, trip_type, status, payment_status, flights, passengers, contact, pricing)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q,
        b.Reference, b.TransactionID, b.UserID, b.TripType, b.Status, b.PaymentStatus,
        flights, passengers, contact, pricing)
    if err != nil {
        if strings.Contains(strings.ToLower(err.Error()), "1062") {
            return ErrDuplicateRef
        }
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    b.ID = uint64(id)

    const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
    return r.db.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt)
}

// scanBooking reads one bookings row, unmarshalling the JSON columns.
func scanBooking(row interface{ Scan(...any) error }) (*model.Booking, error) {
    var b model.Booking
    var flights, passengers, contact, pricing []byte
    err := row.Scan(
        &b.ID, &b.Reference, &b.TransactionID, &b.UserID, &b.TripType,
        &b.Status, &b.PaymentStatus,
        &flights, &passengers, &contact, &pricing,
        &b.CreatedAt, &b.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if err := json.Unmarshal(flights, &b.Flights); err != nil {
        return nil, err
    }
    if err := json.Unmarshal(passengers, &b.Passengers); err != nil {
        return nil, err
    }
    if err := json.Unmarshal(contact, &b.Contact); err != nil {
        return nil, err
    }
    if err := json.Unmarshal(pricing, &b.Pricing); err != nil {
        return nil, err
    }
    return &b, nil
}

const bookingColumns = `id, reference, transaction_id, user_id, trip_type, status, payment_status,
    flights, passengers, contact, pricing, created_at, updated_at`

// GetByReference returns the booking with the given customer-facing
// reference, or sql.ErrNoRows when none exists.
func (r *BookingRepo) GetByReference(ctx context.Context, ref string) (*model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE reference = ? LIMIT 1`
    return scanBooking(r.db.QueryRowContext(ctx, q, ref))
}

// GetByTransactionID returns the booking keyed by the supplier transaction
// id, or sql.ErrNoRows when none exists.  Payment callbacks identify
// bookings this way.
func (r *BookingRepo) GetByTransactionID(ctx context.Context, txnID string) (*model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE transaction_id = ? LIMIT 1`
    return scanBooking(r.db.QueryRowContext(ctx, q, txnID))
}

// ListByUser returns the user's bookings, newest first.
func (r *BookingRepo) ListByUser(ctx context.Context, userID uint64) ([]*model.Booking, error) {
    const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC`
    rows, err := r.db.QueryContext(ctx, q, userID)
    if err != nil {
        return nil, err
    }
    defer rows.Close()
    out := make([]*model.Booking, 0)
    for rows.Next() {
        b, err := scanBooking(rows)
        if err != nil {
            return nil, err
        }
        out = append(out, b)
    }
    return out, rows.Err()
}

// UpdateStatus sets the booking and payment status in one statement.
func (r *BookingRepo) UpdateStatus(ctx context.Context, id uint64, status, paymentStatus string) error {
    const q = `UPDATE bookings SET status = ?, payment_status = ?, updated_at = ? WHERE id = ?`
    _, err := r.db.ExecContext(ctx, q, status, paymentStatus, time.Now().UTC(), id)
    return err
}

// UpdateFlights rewrites the flights JSON column, used to attach PNRs once
// the payment callback reports them.
func (r *BookingRepo) UpdateFlights(ctx context.Context, id uint64, flights []model.BookedFlight) error {
    bs, err := json.Marshal(flights)
    if err != nil {
        return err
    }
    const q = `UPDATE bookings SET flights = ?, updated_at = ? WHERE id = ?`
    _, err = r.db.ExecContext(ctx, q, bs, time.Now().UTC(), id)
    return err
}
