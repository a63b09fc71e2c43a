package router // package router defines how HTTP routes are registered for the API

import (
    "github.com/labstack/echo/v4" // import the Echo web framework to handle routing

    "github.com/iliyamo/flight-booking/internal/handler"    // import the handlers that implement business logic
    "github.com/iliyamo/flight-booking/internal/middleware" // import middleware for JWT authentication
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
    // Map the GET request at path "/healthz" to the Health handler.  This
    // endpoint can be used by load balancers or monitoring systems to verify
    // that the service is up and running.
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    // Refresh rotates the refresh token; refresh-access only issues a new
    // access token.
    g.POST("/refresh", a.Refresh)
    g.POST("/refresh-access", a.RefreshAccess)
    g.POST("/logout", a.Logout)

    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.GET("/me", a.Me)

    // Logout also works outside the protected group with a refresh token in
    // the body.
    e.POST("/v1/logout", a.Logout)
}

// RegisterFlights registers the public flight search, pricing and ancillary
// endpoints.  None of these require authentication: guests can search and
// price before deciding to book.
func RegisterFlights(e *echo.Echo, f *handler.FlightHandler) {
    g := e.Group("/v1/flights")
    g.POST("/search", f.SearchFlights)
    g.POST("/price", f.PriceOffer)
    g.GET("/seats", f.SeatLayout)
    g.GET("/ssr", f.SSROptions)
}

// RegisterBookings registers the booking lifecycle endpoints.  Creating a
// booking, initiating its payment and reading it back all require a valid
// access token; only the payment callback stays unauthenticated, because
// the gateway calls it directly and the customer's browser is redirected
// through it.
func RegisterBookings(e *echo.Echo, b *handler.BookingHandler, jwtSecret string) {
    g := e.Group("/v1/bookings")
    g.Use(middleware.JWTAuth(jwtSecret))
    g.POST("", b.CreateBooking)
    g.GET("/:reference", b.GetBooking)
    g.POST("/:reference/payment", b.InitiatePayment)
    g.POST("/:reference/sync", b.SyncBooking)

    // The gateway posts server-to-server and also redirects the customer's
    // browser here; both verbs map to the same idempotent handler.
    e.POST("/v1/payments/callback", b.PaymentCallback)
    e.GET("/v1/payments/callback", b.PaymentCallback)

    auth := e.Group("/v1/my")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.GET("/bookings", b.ListBookings)
}
