package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
    "context" // context for registry lookups
    "time"    // time bounds the registry lookup

    "github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

    "github.com/iliyamo/groovemind/internal/model" // role defaulting
    "github.com/iliyamo/groovemind/internal/utils" // session token parsing
)

// SessionCookie is the name of the cookie holding the signed session token.
const SessionCookie = "jwt"

// Context keys populated by Identify.
const (
    ctxUsername  = "username"
    ctxRole      = "role"
    ctxSessionID = "session_id"
)

// SessionValidator reports whether a session id is still live.  The
// session registries in the repository package satisfy it.
type SessionValidator interface {
    Valid(ctx context.Context, id string) (bool, error)
}

// Identify returns an Echo middleware that reads the session cookie and, if
// the token verifies and its session is still registered, stores the
// username, role and session id in the context.  It never rejects a
// request: an absent, malformed, expired or revoked token simply leaves the
// request anonymous.  Gating is the job of RequireRole.  A nil sessions
// argument trusts any correctly signed token.
func Identify(secret string, sessions SessionValidator) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            cookie, err := c.Cookie(SessionCookie)
            if err != nil || cookie.Value == "" {
                return next(c)
            }
            claims, err := utils.ParseSessionToken(secret, cookie.Value)
            if err != nil {
                return next(c)
            }
            if sessions != nil {
                ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
                ok, err := sessions.Valid(ctx, claims.ID)
                cancel()
                if err != nil {
                    // A registry outage degrades to anonymous rather than failing the page.
                    c.Logger().Warnf("session lookup failed: %v", err)
                    return next(c)
                }
                if !ok {
                    return next(c)
                }
            }
            // tokens minted before roles existed carry none
            role := model.User{Role: claims.Role}.EffectiveRole()
            c.Set(ctxUsername, claims.Username)
            c.Set(ctxRole, role)
            c.Set(ctxSessionID, claims.ID)
            return next(c)
        }
    }
}
