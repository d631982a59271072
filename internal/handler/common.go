package handler // handler defines http handlers

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/clinic-appointment-system/internal/store"
)

// reqCtx bounds a database or store call to five seconds.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// storeError translates appointment store failures into HTTP
// responses. Every sentinel maps to one status class; anything
// unrecognized is a 500.
func storeError(c echo.Context, err error) error {
    switch {
    case errors.Is(err, store.ErrAppointmentNotFound):
        return c.JSON(http.StatusNotFound, echo.Map{"error": "appointment not found"})
    case errors.Is(err, store.ErrInvalidTransition):
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    case errors.Is(err, store.ErrStorageFormat):
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "appointment storage corrupt"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "appointment storage error"})
    }
}
