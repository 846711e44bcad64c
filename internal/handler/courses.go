package handler

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/groovemind/internal/model"
    "github.com/iliyamo/groovemind/internal/repository"
    "github.com/iliyamo/groovemind/internal/view"
)

// ListCourses renders the public course list, optionally filtered by
// ?location=.  The organiser flag in the layout comes from the session.
func (h *Handler) ListCourses(c echo.Context) error {
    ctx, cancel := h.ctx(c)
    defer cancel()

    location := strings.TrimSpace(c.QueryParam("location"))
    var (
        list []model.Course
        err  error
    )
    if location != "" {
        list, err = h.courses.ListByLocation(ctx, location)
    } else {
        list, err = h.courses.ListAll(ctx)
    }
    if err != nil {
        return failPage(c, genericFailure, err)
    }
    p := h.page(c, "GrooveMind Dance Courses")
    p.Courses = list
    p.Location = location
    return c.Render(http.StatusOK, "entries", p)
}

// Dashboard renders the organiser dashboard with every course.
func (h *Handler) Dashboard(c echo.Context) error {
    ctx, cancel := h.ctx(c)
    defer cancel()

    list, err := h.courses.ListAll(ctx)
    if err != nil {
        return failPage(c, "Failed to load dashboard", err)
    }
    p := h.page(c, "Organiser Dashboard")
    p.Courses = list
    return c.Render(http.StatusOK, "dashboard", p)
}

// NewCourseForm renders the empty new course form.
func (h *Handler) NewCourseForm(c echo.Context) error {
    p := h.page(c, "Add a New Course")
    p.Rows = make([]model.Class, maxClassRows)
    return c.Render(http.StatusOK, "new_course", p)
}

// CreateCourse stores a course from the new course form, including up to
// four class rows, and returns to the dashboard.
func (h *Handler) CreateCourse(c echo.Context) error {
    vals, err := formValues(c)
    if err != nil {
        return err
    }
    course, rows, errs := h.forms.parseCourse(vals)
    if len(errs) > 0 {
        p := h.page(c, "Add a New Course")
        p.Errors = errs
        p.Form = vals
        p.Rows = rows
        return c.Render(http.StatusUnprocessableEntity, "new_course", p)
    }

    ctx, cancel := h.ctx(c)
    defer cancel()
    created, err := h.courses.Create(ctx, course)
    if err != nil {
        return failJSON(c, "Failed to add course", err)
    }
    c.Logger().Infof("course %s created (%d classes)", created.ID, len(created.Classes))
    return redirect(c, "/organiser/dashboard")
}

// EditCourseForm renders the edit form for one course.
func (h *Handler) EditCourseForm(c echo.Context) error {
    ctx, cancel := h.ctx(c)
    defer cancel()

    course, err := h.courses.GetByID(ctx, c.Param("id"))
    if errors.Is(err, repository.ErrCourseNotFound) {
        return c.String(http.StatusNotFound, "Course not found")
    }
    if err != nil {
        return failPage(c, "Failed to load edit form", err)
    }
    return c.Render(http.StatusOK, "edit_course", h.editCoursePage(c, course, nil))
}

func (h *Handler) editCoursePage(c echo.Context, course model.Course, errs []view.FieldError) view.Page {
    p := h.page(c, "Edit Course")
    p.Course = &course
    p.CourseID = course.ID
    p.Classes = course.IndexedClasses()
    p.Errors = errs
    return p
}

// UpdateCourse applies the submitted fields to the course.  Fields that
// are not submitted are left unchanged.
func (h *Handler) UpdateCourse(c echo.Context) error {
    id := c.Param("id")
    vals, err := formValues(c)
    if err != nil {
        return err
    }
    fields, errs := courseFields(vals)

    ctx, cancel := h.ctx(c)
    defer cancel()

    if len(errs) > 0 {
        course, err := h.courses.GetByID(ctx, id)
        if errors.Is(err, repository.ErrCourseNotFound) {
            return notFoundJSON(c, "Course not found")
        }
        if err != nil {
            return failJSON(c, "Failed to update course", err)
        }
        return c.Render(http.StatusUnprocessableEntity, "edit_course", h.editCoursePage(c, course, errs))
    }

    if fields.Empty() {
        // nothing submitted: confirm the course exists and skip the write
        if _, err := h.courses.GetByID(ctx, id); errors.Is(err, repository.ErrCourseNotFound) {
            return notFoundJSON(c, "Course not found")
        } else if err != nil {
            return failJSON(c, "Failed to update course", err)
        }
        return redirect(c, "/organiser/dashboard")
    }

    n, err := h.courses.Update(ctx, id, fields)
    if err != nil {
        return failJSON(c, "Failed to update course", err)
    }
    if n == 0 {
        return notFoundJSON(c, "Course not found")
    }
    return redirect(c, "/organiser/dashboard")
}

// courseFields picks the submitted course fields.  A submitted but empty
// name is rejected; the other text fields may be cleared.
func courseFields(vals map[string]string) (repository.CourseFields, []view.FieldError) {
    var (
        f    repository.CourseFields
        errs []view.FieldError
    )
    text := func(key string) *string {
        v, ok := vals[key]
        if !ok {
            return nil
        }
        v = strings.TrimSpace(v)
        return &v
    }
    f.Name = text("name")
    f.Description = text("description")
    f.Duration = text("duration")
    f.Location = text("location")
    if f.Name != nil && *f.Name == "" {
        errs = append(errs, view.FieldError{Field: "name", Msg: messages["name.required"]})
    }
    if raw, ok := vals["price"]; ok {
        price, perr := parsePrice(raw)
        if perr != nil {
            errs = append(errs, *perr)
        } else {
            f.Price = &price
        }
    }
    return f, errs
}

// DeleteCourse removes the course and its cached class list.
func (h *Handler) DeleteCourse(c echo.Context) error {
    id := c.Param("id")
    ctx, cancel := h.ctx(c)
    defer cancel()

    n, err := h.courses.Delete(ctx, id)
    if err != nil {
        return failJSON(c, "Failed to delete course", err)
    }
    if n == 0 {
        return notFoundJSON(c, "Course not found")
    }
    h.invalidateClassList(c, id)
    return redirect(c, "/organiser/dashboard")
}
