package repository

import (
    "context"
    "database/sql"
    "encoding/json"
    "time"

    "github.com/iliyamo/flight-booking/internal/model"
)

// PaymentRepo provides persistence for payment attempts.  Gateway metadata
// and the event history are JSON columns; the history is append-only and
// only ever grows, mirroring how gateway callbacks may be redelivered.
type PaymentRepo struct {
    db *sql.DB
}

// NewPaymentRepo returns a new PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// Create inserts a payment record and populates the generated ID and
// timestamps.
func (r *PaymentRepo) Create(ctx context.Context, p *model.Payment) error {
    gateway, err := json.Marshal(p.Gateway)
    if err != nil {
        return err
    }
    history, err := json.Marshal(p.History)
    if err != nil {
        return err
    }
    const q = `INSERT INTO payments
        (booking_id, transaction_id, tui, amount, status, gateway, history)
        VALUES (?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q,
        p.BookingID, p.TransactionID, p.TUI, p.Amount, p.Status, gateway, history)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    p.ID = uint64(id)
    const sel = `SELECT created_at, updated_at FROM payments WHERE id = ?`
    return r.db.QueryRowContext(ctx, sel, p.ID).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func scanPayment(row interface{ Scan(...any) error }) (*model.Payment, error) {
    var p model.Payment
    var gateway, history []byte
    err := row.Scan(
        &p.ID, &p.BookingID, &p.TransactionID, &p.TUI, &p.Amount, &p.Status,
        &gateway, &history, &p.CreatedAt, &p.UpdatedAt,
    )
    if err != nil {
        return nil, err
    }
    if err := json.Unmarshal(gateway, &p.Gateway); err != nil {
        return nil, err
    }
    if err := json.Unmarshal(history, &p.History); err != nil {
        return nil, err
    }
    return &p, nil
}

const paymentColumns = `id, booking_id, transaction_id, tui, amount, status, gateway, history, created_at, updated_at`

// GetByTransactionID returns the payment for a supplier transaction id, or
// sql.ErrNoRows when none exists.
func (r *PaymentRepo) GetByTransactionID(ctx context.Context, txnID string) (*model.Payment, error) {
    const q = `SELECT ` + paymentColumns + ` FROM payments WHERE transaction_id = ? ORDER BY created_at DESC LIMIT 1`
    return scanPayment(r.db.QueryRowContext(ctx, q, txnID))
}

// GetByBookingID returns the most recent payment for a booking, or
// sql.ErrNoRows when the booking has no payment yet.
func (r *PaymentRepo) GetByBookingID(ctx context.Context, bookingID uint64) (*model.Payment, error) {
    const q = `SELECT ` + paymentColumns + ` FROM payments WHERE booking_id = ? ORDER BY created_at DESC LIMIT 1`
    return scanPayment(r.db.QueryRowContext(ctx, q, bookingID))
}

// Update rewrites the mutable payment fields: status, gateway metadata and
// the event history.
func (r *PaymentRepo) Update(ctx context.Context, p *model.Payment) error {
    gateway, err := json.Marshal(p.Gateway)
    if err != nil {
        return err
    }
    history, err := json.Marshal(p.History)
    if err != nil {
        return err
    }
    const q = `UPDATE payments SET status = ?, gateway = ?, history = ?, updated_at = ? WHERE id = ?`
    _, err = r.db.ExecContext(ctx, q, p.Status, gateway, history, time.Now().UTC(), p.ID)
    return err
}
