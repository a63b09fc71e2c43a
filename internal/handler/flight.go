package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/flight-booking/internal/model"
    "github.com/iliyamo/flight-booking/internal/service"
    "github.com/iliyamo/flight-booking/internal/supplier"
)

// FlightHandler serves search, pricing and ancillary endpoints.
type FlightHandler struct {
    Search *service.SearchService
}

func NewFlightHandler(s *service.SearchService) *FlightHandler {
    return &FlightHandler{Search: s}
}

// SearchFlights runs an express search.  Validation problems come back as a
// 400 with every violated rule; a supplier that never completes within the
// search budget is a 504 the client can simply retry.
func (h *FlightHandler) SearchFlights(c echo.Context) error {
    var req model.SearchRequest
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    result, err := h.Search.Search(c.Request().Context(), req)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, result)
}

type priceReq struct {
    TUI      string  `json:"tui"`
    Index    string  `json:"index"`
    Amount   float64 `json:"amount"`
    TripType string  `json:"tripType"`
    OrderID  int     `json:"orderId"`
}

// PriceOffer locks the selected offer and fetches its live price.  A
// supplier-side reprice is a normal 200 whose body carries priceChange; the
// client decides whether to re-confirm with the customer.
func (h *FlightHandler) PriceOffer(c echo.Context) error {
    var req priceReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if strings.TrimSpace(req.TUI) == "" || strings.TrimSpace(req.Index) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "tui and index are required"})
    }
    result, err := h.Search.Price(c.Request().Context(), supplier.PricingRequest{
        Amount:   req.Amount,
        Index:    req.Index,
        TripType: req.TripType,
        TUI:      req.TUI,
        OrderID:  req.OrderID,
    })
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, result)
}

// SeatLayout returns the formatted seat map for a pricing session.
func (h *FlightHandler) SeatLayout(c echo.Context) error {
    tui := strings.TrimSpace(c.QueryParam("tui"))
    if tui == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "tui is required"})
    }
    orderID, _ := strconv.Atoi(c.QueryParam("orderId"))
    if orderID == 0 {
        orderID = 1
    }
    amount, _ := strconv.ParseFloat(c.QueryParam("amount"), 64)

    layout, err := h.Search.SeatLayout(c.Request().Context(), tui, orderID, amount)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, layout)
}

// SSROptions lists the free and paid ancillaries for a pricing session.
func (h *FlightHandler) SSROptions(c echo.Context) error {
    tui := strings.TrimSpace(c.QueryParam("tui"))
    if tui == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "tui is required"})
    }
    options, err := h.Search.SSROptions(c.Request().Context(), tui)
    if err != nil {
        return writeError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"ssr": options})
}
