package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"
)

// Health is a simple health-check endpoint used by load balancers and
// monitoring systems to verify that the service is running. It does
// not touch the database or the appointment file.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}
