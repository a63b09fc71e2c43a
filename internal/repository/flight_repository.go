package repository

import (
    "context"
    "database/sql"
    "encoding/json"

    "github.com/iliyamo/flight-booking/internal/model"
)

// FlightRepo persists flight-detail snapshots taken at itinerary creation.
// Airline and route details are JSON columns for the same reason the
// booking aggregate uses them: written once, read back whole.
type FlightRepo struct {
    db *sql.DB
}

// NewFlightRepo returns a new FlightRepo bound to the given database.
func NewFlightRepo(db *sql.DB) *FlightRepo { return &FlightRepo{db: db} }

// Create inserts a flight snapshot and populates the generated ID.
func (r *FlightRepo) Create(ctx context.Context, f *model.Flight) error {
    airline, err := json.Marshal(f.Airline)
    if err != nil {
        return err
    }
    route, err := json.Marshal(f.Route)
    if err != nil {
        return err
    }
    const q = `INSERT INTO flights
        (flight_number, provider, airline, route, cabin, currency, gross_amount, net_amount, refundable, baggage)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
    res, err := r.db.ExecContext(ctx, q,
        f.FlightNumber, f.Provider, airline, route, f.Cabin,
        f.Currency, f.GrossAmount, f.NetAmount, f.Refundable, f.Baggage)
    if err != nil {
        return err
    }
    id, err := res.LastInsertId()
    if err != nil {
        return err
    }
    f.ID = uint64(id)
    const sel = `SELECT created_at FROM flights WHERE id = ?`
    return r.db.QueryRowContext(ctx, sel, f.ID).Scan(&f.CreatedAt)
}

// GetByID returns a flight snapshot, or sql.ErrNoRows when none exists.
func (r *FlightRepo) GetByID(ctx context.Context, id uint64) (*model.Flight, error) {
    const q = `SELECT id, flight_number, provider, airline, route, cabin, currency,
        gross_amount, net_amount, refundable, baggage, created_at
        FROM flights WHERE id = ? LIMIT 1`
    var f model.Flight
    var airline, route []byte
    var baggage sql.NullString
    err := r.db.QueryRowContext(ctx, q, id).Scan(
        &f.ID, &f.FlightNumber, &f.Provider, &airline, &route, &f.Cabin,
        &f.Currency, &f.GrossAmount, &f.NetAmount, &f.Refundable, &baggage, &f.CreatedAt,
    )
    if err != nil {
        return nil, err
    }
    if err := json.Unmarshal(airline, &f.Airline); err != nil {
        return nil, err
    }
    if err := json.Unmarshal(route, &f.Route); err != nil {
        return nil, err
    }
    if baggage.Valid {
        f.Baggage = baggage.String
    }
    return &f, nil
}
