// Package handler contains the HTTP handlers.  Each handler extracts its
// parameters, validates input where the route has rules, calls one
// repository operation and maps the result to a page, a redirect or an
// error response.
package handler

import (
    "context"
    "errors"
    "net/http"
    "time"

    "github.com/gorilla/csrf"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/groovemind/internal/config"
    "github.com/iliyamo/groovemind/internal/middleware"
    "github.com/iliyamo/groovemind/internal/model"
    "github.com/iliyamo/groovemind/internal/queue"
    "github.com/iliyamo/groovemind/internal/repository"
    "github.com/iliyamo/groovemind/internal/service"
    "github.com/iliyamo/groovemind/internal/view"
)

// requestTimeout bounds every store call made on behalf of a request.
const requestTimeout = 5 * time.Second

// genericFailure is the body of plain-text 500 responses on pages.
const genericFailure = "Oops! Something went wrong. Please try again later."

// CourseStore is the subset of repository.CourseRepo the handlers use.
type CourseStore interface {
    ListAll(ctx context.Context) ([]model.Course, error)
    ListByLocation(ctx context.Context, location string) ([]model.Course, error)
    Create(ctx context.Context, c model.Course) (model.Course, error)
    GetByID(ctx context.Context, id string) (model.Course, error)
    Update(ctx context.Context, id string, f repository.CourseFields) (int, error)
    Delete(ctx context.Context, id string) (int, error)
    AppendBooking(ctx context.Context, id string, b model.Booking) (int, error)
    ListBookings(ctx context.Context, id string) ([]model.Booking, error)
    RemoveBookingByEmail(ctx context.Context, id, email string) (int, error)
    AppendClass(ctx context.Context, id string, k model.Class) (model.Class, int, error)
    ReplaceClassAt(ctx context.Context, id string, index int, k model.Class) (int, error)
    RemoveClassAt(ctx context.Context, id string, index int) (int, error)
    ReplaceClass(ctx context.Context, id, classID string, k model.Class) (int, error)
    RemoveClass(ctx context.Context, id, classID string) (int, error)
}

// UserStore is the subset of repository.UserRepo the handlers use.
type UserStore interface {
    Create(ctx context.Context, username, password, role string) (model.User, error)
    Lookup(ctx context.Context, username string) (model.User, error)
    Delete(ctx context.Context, username string) (int, error)
    List(ctx context.Context) ([]model.User, error)
}

// BookingEvents publishes booking confirmations.
type BookingEvents interface {
    PublishBookingConfirmed(ctx context.Context, ev queue.BookingConfirmedEvent) error
}

// ClassListCache drops cached class list responses.
type ClassListCache interface {
    Invalidate(ctx context.Context, path string) error
}

// Deps are the collaborators of Handler.  Events and Cache are optional.
type Deps struct {
    Courses  CourseStore
    Users    UserStore
    Sessions repository.SessionRepo
    Events   BookingEvents
    Cache    ClassListCache
}

// Handler bundles configuration and collaborators for all routes.
type Handler struct {
    cfg      config.Config
    courses  CourseStore
    users    UserStore
    sessions repository.SessionRepo
    events   BookingEvents
    cache    ClassListCache
    forms    *FormValidator
}

// New constructs a Handler and panics if a required dependency is nil.
func New(cfg config.Config, d Deps) *Handler {
    if d.Courses == nil || d.Users == nil || d.Sessions == nil {
        panic("nil dependency passed to handler.New")
    }
    if d.Events == nil {
        d.Events = service.NoopPublisher{}
    }
    return &Handler{
        cfg:      cfg,
        courses:  d.Courses,
        users:    d.Users,
        sessions: d.Sessions,
        events:   d.Events,
        cache:    d.Cache,
        forms:    NewFormValidator(),
    }
}

// ctx derives the store context for a request.
func (h *Handler) ctx(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// page returns the common template data for the current request.
func (h *Handler) page(c echo.Context, title string) view.Page {
    return view.Page{
        Title:     title,
        CSRFField: csrf.TemplateField(c.Request()),
        Username:  middleware.Username(c),
        Organiser: middleware.IsOrganiser(c),
    }
}

// redirect answers a state-changing request with 303 See Other so the
// browser follows up with a GET.
func redirect(c echo.Context, to string) error {
    return c.Redirect(http.StatusSeeOther, to)
}

// notFoundJSON is the 404 body used by the resource endpoints.
func notFoundJSON(c echo.Context, msg string) error {
    return c.JSON(http.StatusNotFound, echo.Map{"message": msg})
}

// failJSON logs err and answers with a 500 JSON body, or 409 when the write
// lost repeated races with concurrent writers.
func failJSON(c echo.Context, msg string, err error) error {
    if errors.Is(err, repository.ErrConflict) {
        return c.JSON(http.StatusConflict, echo.Map{"error": "The course was changed by someone else. Please try again."})
    }
    c.Logger().Errorf("%s: %v", msg, err)
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": msg})
}

// failPage logs err and answers with a plain-text 500.
func failPage(c echo.Context, body string, err error) error {
    c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
    return c.String(http.StatusInternalServerError, body)
}

// HTTPErrorHandler answers errors no handler dealt with: unmatched routes
// get a plain 404, client errors keep their status and everything else is
// a plain 500 with the details logged.
func HTTPErrorHandler(err error, c echo.Context) {
    if c.Response().Committed {
        return
    }
    status := http.StatusInternalServerError
    body := "Internal Server Error."
    var he *echo.HTTPError
    if errors.As(err, &he) {
        switch {
        case he.Code == http.StatusNotFound || he.Code == http.StatusMethodNotAllowed:
            status, body = http.StatusNotFound, "404 Not found."
        case he.Code < http.StatusInternalServerError:
            status = he.Code
            if msg, ok := he.Message.(string); ok {
                body = msg
            } else {
                body = http.StatusText(he.Code)
            }
        }
    }
    if status == http.StatusInternalServerError {
        c.Logger().Error(err)
    }
    if c.Request().Method == http.MethodHead {
        _ = c.NoContent(status)
        return
    }
    _ = c.String(status, body)
}
