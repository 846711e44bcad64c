package middleware

// identity.go exposes the identity stored by Identify to handlers and to the
// other middleware in this package.  Every accessor returns the zero value
// for an anonymous request.

import (
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/groovemind/internal/model"
)

// Username returns the authenticated username or "".
func Username(c echo.Context) string { return ctxString(c, ctxUsername) }

// Role returns the role claim of the session or "".
func Role(c echo.Context) string { return ctxString(c, ctxRole) }

// SessionID returns the id of the current session or "".
func SessionID(c echo.Context) string { return ctxString(c, ctxSessionID) }

// IsOrganiser reports whether the request carries an organiser session.
func IsOrganiser(c echo.Context) bool { return Role(c) == model.RoleOrganiser }

func ctxString(c echo.Context, key string) string {
    if s, ok := c.Get(key).(string); ok {
        return s
    }
    return ""
}

// rateSubject identifies the caller for rate limiting, "anon" when no
// session is present.
func rateSubject(c echo.Context) string {
    if u := Username(c); u != "" {
        return u
    }
    return "anon"
}
