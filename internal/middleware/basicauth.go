package middleware // middleware provides shared request processing for handlers

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/clinic-appointment-system/internal/model"
    "github.com/iliyamo/clinic-appointment-system/internal/repository"
)

// Context keys set by BasicAuth for downstream handlers.
const (
    AccountKey = "account"
    UserIDKey  = "user_id"
)

// BasicAuth returns an Echo middleware that authenticates every
// request with HTTP Basic credentials against the user directory for
// the required role. There are no sessions or tokens; each request
// re-verifies the password. On success the matching account is stored
// in the echo context under AccountKey and its id under UserIDKey.
func BasicAuth(users *repository.UserRepo, role string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            username, password, ok := c.Request().BasicAuth()
            if !ok {
                c.Response().Header().Set("WWW-Authenticate", `Basic realm="clinic"`)
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing credentials"})
            }

            ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
            defer cancel()

            u, err := users.Authenticate(ctx, username, password, role)
            if err != nil {
                if err == repository.ErrInvalidCredentials {
                    return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
                }
                return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
            }

            c.Set(AccountKey, u)
            c.Set(UserIDKey, u.ID)
            return next(c)
        }
    }
}

// CurrentAccount retrieves the authenticated account stored by
// BasicAuth. The second return value is false when the middleware did
// not run or stored an unexpected type.
func CurrentAccount(c echo.Context) (model.User, bool) {
    u, ok := c.Get(AccountKey).(model.User)
    return u, ok
}
