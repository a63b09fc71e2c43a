package handler

import (
    "net/http"
    "net/url"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/flight-booking/internal/service"
)

// BookingHandler serves the booking lifecycle endpoints: itinerary
// creation, payment initiation, the gateway callback and retrieval.
type BookingHandler struct {
    Bookings    *service.BookingService
    FrontendURL string
}

func NewBookingHandler(b *service.BookingService, frontendURL string) *BookingHandler {
    return &BookingHandler{Bookings: b, FrontendURL: frontendURL}
}

// CreateBooking creates the supplier itinerary and records the booking as
// INITIATED.  The response carries the customer-facing reference used by
// all later calls.
func (h *BookingHandler) CreateBooking(c echo.Context) error {
    var req service.CreateBookingRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.UserID = currentUserID(c)
    booking, err := h.Bookings.CreateBooking(c.Request().Context(), req)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusCreated, booking)
}

type initiatePaymentReq struct {
    BrowserKey string `json:"browserKey"`
}

// InitiatePayment starts the gateway payment for a booking.  The response
// carries the redirect URL the customer must be sent to.
func (h *BookingHandler) InitiatePayment(c echo.Context) error {
    reference := c.Param("reference")
    var req initiatePaymentReq
    _ = c.Bind(&req)

    payment, err := h.Bookings.InitiatePayment(c.Request().Context(), reference, req.BrowserKey)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "reference":    reference,
        "status":       payment.Status,
        "redirectUrl":  payment.Gateway.RedirectURL,
        "redirectMode": payment.Gateway.RedirectMode,
        "correlation":  payment.Gateway.CorrelationID,
    })
}

// PaymentCallback settles a payment from the gateway.  The gateway may
// POST JSON (server-to-server) or send the customer's browser here via
// redirect; the browser variant is answered with a 302 to the frontend
// result page, the JSON variant with the outcome body.  Both are
// idempotent.
func (h *BookingHandler) PaymentCallback(c echo.Context) error {
    cb := service.PaymentCallback{
        TransactionID: firstParam(c, "TransactionID", "transactionId"),
        Code:          firstParam(c, "Code", "code"),
        Message:       firstParam(c, "Msg", "message"),
        PaymentID:     firstParam(c, "PaymentID", "paymentId"),
        CRSPNR:        firstParam(c, "CRSPNR", "pnr"),
    }
    if cb.TransactionID == "" && strings.Contains(c.Request().Header.Get("Content-Type"), "application/json") {
        var body struct {
            TransactionID string `json:"TransactionID"`
            Code          string `json:"Code"`
            Msg           string `json:"Msg"`
            PaymentID     string `json:"PaymentID"`
            CRSPNR        string `json:"CRSPNR"`
        }
        if err := c.Bind(&body); err == nil {
            cb.TransactionID = body.TransactionID
            cb.Code = body.Code
            cb.Message = body.Msg
            cb.PaymentID = body.PaymentID
            cb.CRSPNR = body.CRSPNR
        }
    }
    if cb.TransactionID == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "TransactionID is required"})
    }

    outcome, err := h.Bookings.HandlePaymentCallback(c.Request().Context(), cb)
    if err != nil {
        return writeError(c, err)
    }

    if h.wantsRedirect(c) {
        status := "failure"
        if outcome.Succeeded {
            status = "success"
        }
        q := url.Values{}
        q.Set("status", status)
        q.Set("reference", outcome.Booking.Reference)
        return c.Redirect(http.StatusFound, strings.TrimRight(h.FrontendURL, "/")+"/booking/result?"+q.Encode())
    }

    return c.JSON(http.StatusOK, echo.Map{
        "reference":     outcome.Booking.Reference,
        "status":        outcome.Booking.Status,
        "paymentStatus": outcome.Booking.PaymentStatus,
        "duplicate":     outcome.Duplicate,
    })
}

// wantsRedirect is true for browser traffic: the gateway's redirect leg is
// a GET, while its server-to-server notification is a JSON POST.
func (h *BookingHandler) wantsRedirect(c echo.Context) bool {
    if h.FrontendURL == "" {
        return false
    }
    if c.Request().Method == http.MethodGet {
        return true
    }
    return c.QueryParam("redirect") == "true"
}

func firstParam(c echo.Context, names ...string) string {
    for _, n := range names {
        if v := strings.TrimSpace(c.QueryParam(n)); v != "" {
            return v
        }
        if v := strings.TrimSpace(c.FormValue(n)); v != "" {
            return v
        }
    }
    return ""
}

// GetBooking returns a booking by reference.
func (h *BookingHandler) GetBooking(c echo.Context) error {
    booking, err := h.Bookings.GetBooking(c.Request().Context(), c.Param("reference"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, booking)
}

// currentUserID reads the subject claim the JWT middleware stored in the
// context.  JWT numeric claims decode as float64; tokens from other issuers
// may carry the subject as a string.
func currentUserID(c echo.Context) uint64 {
    switch v := c.Get("user_id").(type) {
    case float64:
        return uint64(v)
    case uint64:
        return v
    case string:
        n, _ := strconv.ParseUint(v, 10, 64)
        return n
    }
    return 0
}

// ListBookings returns the authenticated user's bookings, newest first.
func (h *BookingHandler) ListBookings(c echo.Context) error {
    uid := currentUserID(c)
    if uid == 0 {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    bookings, err := h.Bookings.ListBookings(c.Request().Context(), uid)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"bookings": bookings})
}

// SyncBooking reconciles the local booking with the supplier's view and
// returns both.
func (h *BookingHandler) SyncBooking(c echo.Context) error {
    booking, remote, err := h.Bookings.SyncBooking(c.Request().Context(), c.Param("reference"))
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"booking": booking, "supplier": remote})
}
