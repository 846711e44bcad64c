package handler

import (
    "errors"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/groovemind/internal/middleware"
    "github.com/iliyamo/groovemind/internal/model"
    "github.com/iliyamo/groovemind/internal/repository"
    "github.com/iliyamo/groovemind/internal/utils"
    "github.com/iliyamo/groovemind/internal/view"
)

const (
    registerTitle = "Register for GrooveMind Admin Access"
    loginTitle    = "Sign In"
)

// invalidLogin is the only message a failed login shows, whatever failed.
var invalidLogin = []view.FieldError{{Msg: "Invalid username or password"}}

// RegisterForm renders the registration page.
func (h *Handler) RegisterForm(c echo.Context) error {
    return c.Render(http.StatusOK, "register", h.page(c, registerTitle))
}

// Register creates an account with the configured registration role and
// sends the new user to the login page.  A username that already exists
// is rejected with 409.
func (h *Handler) Register(c echo.Context) error {
    vals, err := formValues(c)
    if err != nil {
        return err
    }
    form := registerForm{Username: strings.TrimSpace(vals["username"]), Password: vals["pass"]}
    if errs := h.forms.Check(form); len(errs) > 0 {
        p := h.page(c, registerTitle)
        p.Errors = errs
        p.Form = map[string]string{"username": form.Username}
        return c.Render(http.StatusUnprocessableEntity, "register", p)
    }

    ctx, cancel := h.ctx(c)
    defer cancel()
    if _, err := h.users.Lookup(ctx, form.Username); err == nil {
        return c.String(http.StatusConflict, "User already exists")
    } else if !errors.Is(err, repository.ErrUserNotFound) {
        return failPage(c, genericFailure, err)
    }
    if _, err := h.users.Create(ctx, form.Username, form.Password, h.cfg.RegisterRole); err != nil {
        if errors.Is(err, repository.ErrUsernameTaken) {
            return c.String(http.StatusConflict, "User already exists")
        }
        return failPage(c, genericFailure, err)
    }
    c.Logger().Infof("registered new user %q", form.Username)
    return redirect(c, "/login")
}

// LoginForm renders the sign-in page.
func (h *Handler) LoginForm(c echo.Context) error {
    return c.Render(http.StatusOK, "login", h.page(c, loginTitle))
}

// Login verifies the credentials, registers a session and sets the signed
// session cookie.  Organisers land on the dashboard, everyone else on the
// course list.
func (h *Handler) Login(c echo.Context) error {
    vals, err := formValues(c)
    if err != nil {
        return err
    }
    username := strings.TrimSpace(vals["username"])
    password := vals["pass"]

    ctx, cancel := h.ctx(c)
    defer cancel()

    u, err := h.users.Lookup(ctx, username)
    switch {
    case errors.Is(err, repository.ErrUserNotFound):
        utils.BurnPasswordCheck(password)
        return h.loginFailed(c, username)
    case err != nil:
        return failPage(c, genericFailure, err)
    }
    if !utils.VerifyPassword(u.PasswordHash, password) {
        return h.loginFailed(c, username)
    }

    role := u.EffectiveRole()
    ttl := time.Duration(h.cfg.SessionTTLMin) * time.Minute
    tok, err := utils.NewSessionToken(h.cfg.JWTSecret, u.Username, role, ttl)
    if err != nil {
        return failPage(c, genericFailure, err)
    }
    if err := h.sessions.Store(ctx, tok.ID, u.Username, ttl); err != nil {
        return failPage(c, genericFailure, err)
    }
    c.SetCookie(h.sessionCookie(tok.Token, tok.Exp))
    c.Logger().Infof("login successful: %s (%s)", u.Username, role)

    if role == model.RoleOrganiser {
        return redirect(c, "/organiser/dashboard")
    }
    return redirect(c, "/courses")
}

func (h *Handler) loginFailed(c echo.Context, username string) error {
    p := h.page(c, loginTitle)
    p.Errors = invalidLogin
    p.Form = map[string]string{"username": username}
    return c.Render(http.StatusUnauthorized, "login", p)
}

func (h *Handler) sessionCookie(value string, exp time.Time) *http.Cookie {
    ck := &http.Cookie{
        Name:     middleware.SessionCookie,
        Value:    value,
        Path:     "/",
        HttpOnly: true,
        Secure:   h.cfg.SecureCookies,
        SameSite: http.SameSiteLaxMode,
    }
    if !exp.IsZero() {
        ck.Expires = exp
    }
    return ck
}

// Logout revokes the current session, clears the cookie and returns home.
func (h *Handler) Logout(c echo.Context) error {
    if id := middleware.SessionID(c); id != "" {
        ctx, cancel := h.ctx(c)
        defer cancel()
        if err := h.sessions.Revoke(ctx, id); err != nil {
            c.Logger().Warnf("revoke session: %v", err)
        }
    }
    ck := h.sessionCookie("", time.Time{})
    ck.MaxAge = -1
    c.SetCookie(ck)
    return redirect(c, "/")
}
