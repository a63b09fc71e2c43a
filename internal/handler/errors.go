package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/flight-booking/internal/apperr"
)

// writeError maps the service/supplier error taxonomy onto HTTP responses.
// Upstream details (supplier codes, messages) are logged by the layers that
// produced them; clients get a stable, generic-safe shape.
func writeError(c echo.Context, err error) error {
    var (
        validation *apperr.ValidationError
        notFound   *apperr.NotFoundError
        conflict   *apperr.ConflictError
        searchTO   *apperr.SearchTimeoutError
        upTimeout  *apperr.UpstreamTimeoutError
        upAuth     *apperr.UpstreamAuthError
        upRequest  *apperr.UpstreamRequestError
        protocol   *apperr.ProtocolError
        pricing    *apperr.PricingError
    )
    switch {
    case errors.As(err, &validation):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "details": validation.Errors})
    case errors.As(err, &notFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": notFound.Error()})
    case errors.As(err, &conflict):
        return c.JSON(http.StatusConflict, echo.Map{"error": conflict.Error()})
    case errors.As(err, &searchTO):
        return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "search timed out, please try again"})
    case errors.As(err, &upTimeout):
        return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "flight supplier timed out"})
    case errors.As(err, &upAuth), errors.As(err, &upRequest), errors.As(err, &protocol):
        return c.JSON(http.StatusBadGateway, echo.Map{"error": "flight supplier request failed"})
    case errors.As(err, &pricing):
        return c.JSON(http.StatusUnprocessableEntity, echo.Map{"error": "pricing failed", "reason": pricing.Msg})
    }
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
