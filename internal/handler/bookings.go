package handler

import (
    "context"
    "errors"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/groovemind/internal/model"
    "github.com/iliyamo/groovemind/internal/queue"
    "github.com/iliyamo/groovemind/internal/repository"
)

// publishTimeout bounds the broker round trip after a booking is stored.
const publishTimeout = 3 * time.Second

func classListPath(courseID string) string {
    return fmt.Sprintf("/courses/%s/classlist", courseID)
}

// invalidateClassList drops the cached JSON class list of a course.  A
// cache failure is logged; the entry expires on its own.
func (h *Handler) invalidateClassList(c echo.Context, courseID string) {
    if h.cache == nil {
        return
    }
    if err := h.cache.Invalidate(c.Request().Context(), classListPath(courseID)); err != nil {
        c.Logger().Warnf("invalidate class list %s: %v", courseID, err)
    }
}

// BookForm renders the booking form for a course.
func (h *Handler) BookForm(c echo.Context) error {
    ctx, cancel := h.ctx(c)
    defer cancel()

    id := c.Param("id")
    course, err := h.courses.GetByID(ctx, id)
    if errors.Is(err, repository.ErrCourseNotFound) {
        return c.String(http.StatusNotFound, "Course not found")
    }
    if err != nil {
        return failPage(c, genericFailure, err)
    }
    p := h.page(c, "Book This Course")
    p.CourseID = id
    p.Course = &course
    return c.Render(http.StatusOK, "book", p)
}

// BookCourse validates the booking form and appends the booking.  Invalid
// input re-renders the form with 422 and stores nothing.
func (h *Handler) BookCourse(c echo.Context) error {
    id := c.Param("id")
    vals, err := formValues(c)
    if err != nil {
        return err
    }
    form := newBookingForm(vals)
    if errs := h.forms.Check(form); len(errs) > 0 {
        p := h.page(c, "Book This Course")
        p.CourseID = id
        p.Errors = errs
        p.Form = vals
        return c.Render(http.StatusUnprocessableEntity, "book", p)
    }

    ctx, cancel := h.ctx(c)
    defer cancel()

    booking := form.booking()
    booking.BookedAt = time.Now().UTC()
    n, err := h.courses.AppendBooking(ctx, id, booking)
    if err != nil {
        if errors.Is(err, repository.ErrConflict) {
            return failJSON(c, "Failed to book course", err)
        }
        return failPage(c, genericFailure, err)
    }
    if n == 0 {
        return notFoundJSON(c, "Course not found")
    }
    h.invalidateClassList(c, id)
    h.publishBooking(ctx, c, id, booking)
    return redirect(c, "/booking-success")
}

// publishBooking emits the confirmation event.  Failures are logged and
// never reach the participant, whose booking is already stored.
func (h *Handler) publishBooking(ctx context.Context, c echo.Context, courseID string, b model.Booking) {
    ev := queue.BookingConfirmedEvent{
        CourseID:    courseID,
        FirstName:   b.FirstName,
        LastName:    b.LastName,
        Email:       b.Email,
        Phone:       b.Phone,
        ConfirmedAt: b.BookedAt.Format(time.RFC3339),
    }
    if course, err := h.courses.GetByID(ctx, courseID); err == nil {
        ev.CourseName = course.Name
        ev.CourseLocation = course.Location
        ev.CourseDuration = course.Duration
        if len(course.Classes) > 0 {
            first := course.Classes[0]
            ev.FirstClass = strings.TrimSpace(first.Date + " " + first.Time)
        }
    }
    pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
    defer cancel()
    if err := h.events.PublishBookingConfirmed(pctx, ev); err != nil {
        c.Logger().Warnf("publish booking for course %s: %v", courseID, err)
    }
}

// BookingSuccess renders the confirmation page.
func (h *Handler) BookingSuccess(c echo.Context) error {
    return c.Render(http.StatusOK, "booking_success", h.page(c, "Booking Confirmed"))
}

// ClassList returns the bookings of a course as JSON.
func (h *Handler) ClassList(c echo.Context) error {
    ctx, cancel := h.ctx(c)
    defer cancel()

    bookings, err := h.courses.ListBookings(ctx, c.Param("id"))
    if errors.Is(err, repository.ErrCourseNotFound) {
        return notFoundJSON(c, "Course not found")
    }
    if err != nil {
        return failJSON(c, "Failed to retrieve class list", err)
    }
    return c.JSON(http.StatusOK, echo.Map{"classList": bookings})
}

// ClassListView renders the bookings of a course as a page with a remove
// button per participant.
func (h *Handler) ClassListView(c echo.Context) error {
    ctx, cancel := h.ctx(c)
    defer cancel()

    id := c.Param("id")
    course, err := h.courses.GetByID(ctx, id)
    if errors.Is(err, repository.ErrCourseNotFound) {
        return c.String(http.StatusNotFound, "Course not found")
    }
    if err != nil {
        return failPage(c, genericFailure, err)
    }
    p := h.page(c, "Class List")
    p.CourseID = id
    p.Course = &course
    p.Bookings = course.Bookings
    return c.Render(http.StatusOK, "class_list", p)
}

// RemoveBooking drops every booking of the course with the submitted email.
func (h *Handler) RemoveBooking(c echo.Context) error {
    id := c.Param("id")
    vals, err := formValues(c)
    if err != nil {
        return err
    }
    email := strings.ToLower(strings.TrimSpace(vals["email"]))

    ctx, cancel := h.ctx(c)
    defer cancel()
    n, err := h.courses.RemoveBookingByEmail(ctx, id, email)
    if err != nil {
        return failJSON(c, "Failed to remove user", err)
    }
    if n == 0 {
        return notFoundJSON(c, "User or course not found")
    }
    h.invalidateClassList(c, id)
    return redirect(c, fmt.Sprintf("/courses/%s/classlist/view", id))
}
