package middleware // middleware provides shared request processing for handlers

import (
    "net/http" // http package defines standard HTTP status codes

    "github.com/labstack/echo/v4" // echo provides middleware chaining and context
)

// LoginPath is where anonymous page requests to gated routes are sent.
const LoginPath = "/login"

// RequireRole returns a middleware function that enforces that the
// session set by Identify has one of the specified roles.
//
// An anonymous GET or HEAD is redirected to the login page so a browser
// lands somewhere useful; any other anonymous request is answered with 401.
// An authenticated caller with a role outside the allowed set gets 403.
func RequireRole(roles ...string) echo.MiddlewareFunc {
    // Build a set of allowed roles for constant‑time lookups.
    allowed := make(map[string]bool, len(roles))
    for _, r := range roles {
        allowed[r] = true
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if Username(c) == "" {
                m := c.Request().Method
                if m == http.MethodGet || m == http.MethodHead {
                    return c.Redirect(http.StatusSeeOther, LoginPath)
                }
                return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
            }
            if !allowed[Role(c)] {
                return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
            }
            return next(c)
        }
    }
}
