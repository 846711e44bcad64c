package handler

import (
    "context"
    "errors"
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/groovemind/internal/model"
    "github.com/iliyamo/groovemind/internal/repository"
)

// classRef is the :class path parameter.  A decimal value addresses the
// class by position (kept for existing links); any other value is a
// class id.
type classRef struct {
    raw   string
    index int
    byPos bool
}

func parseClassRef(raw string) classRef {
    if i, err := strconv.Atoi(raw); err == nil {
        return classRef{raw: raw, index: i, byPos: true}
    }
    return classRef{raw: raw}
}

// find returns the referenced class of course.
func (r classRef) find(course model.Course) (model.Class, bool) {
    if r.byPos {
        if r.index < 0 || r.index >= len(course.Classes) {
            return model.Class{}, false
        }
        return course.Classes[r.index], true
    }
    for _, k := range course.Classes {
        if k.ID == r.raw {
            return k, true
        }
    }
    return model.Class{}, false
}

func (h *Handler) replaceClass(ctx context.Context, id string, ref classRef, k model.Class) (int, error) {
    if ref.byPos {
        return h.courses.ReplaceClassAt(ctx, id, ref.index, k)
    }
    return h.courses.ReplaceClass(ctx, id, ref.raw, k)
}

func (h *Handler) removeClass(ctx context.Context, id string, ref classRef) (int, error) {
    if ref.byPos {
        return h.courses.RemoveClassAt(ctx, id, ref.index)
    }
    return h.courses.RemoveClass(ctx, id, ref.raw)
}

// AddClassForm renders the form for adding a class to a course.
func (h *Handler) AddClassForm(c echo.Context) error {
    p := h.page(c, "Add a Class")
    p.CourseID = c.Param("id")
    return c.Render(http.StatusOK, "add_class", p)
}

// AddClass appends a class to the course.
func (h *Handler) AddClass(c echo.Context) error {
    id := c.Param("id")
    vals, err := formValues(c)
    if err != nil {
        return err
    }
    form := newClassForm(vals)
    if errs := h.forms.Check(form); len(errs) > 0 {
        p := h.page(c, "Add a Class")
        p.CourseID = id
        p.Errors = errs
        p.Form = vals
        return c.Render(http.StatusUnprocessableEntity, "add_class", p)
    }

    ctx, cancel := h.ctx(c)
    defer cancel()
    _, n, err := h.courses.AppendClass(ctx, id, form.class())
    if err != nil {
        return failJSON(c, "Failed to add class", err)
    }
    if n == 0 {
        return notFoundJSON(c, "Course not found")
    }
    return redirect(c, "/organiser/dashboard")
}

// EditClassForm renders the edit form for one class.
func (h *Handler) EditClassForm(c echo.Context) error {
    id := c.Param("id")
    ref := parseClassRef(c.Param("class"))

    ctx, cancel := h.ctx(c)
    defer cancel()
    course, err := h.courses.GetByID(ctx, id)
    if err != nil && !errors.Is(err, repository.ErrCourseNotFound) {
        return failPage(c, "Failed to load class", err)
    }
    k, ok := ref.find(course)
    if err != nil || !ok {
        return c.String(http.StatusNotFound, "Class not found")
    }
    p := h.page(c, "Edit Class")
    p.CourseID = id
    p.Course = &course
    p.ClassRef = ref.raw
    p.Form = map[string]string{"date": k.Date, "time": k.Time, "classDescription": k.Description}
    return c.Render(http.StatusOK, "edit_class", p)
}

// UpdateClass replaces the referenced class.
func (h *Handler) UpdateClass(c echo.Context) error {
    id := c.Param("id")
    ref := parseClassRef(c.Param("class"))
    vals, err := formValues(c)
    if err != nil {
        return err
    }
    form := newClassForm(vals)
    if errs := h.forms.Check(form); len(errs) > 0 {
        p := h.page(c, "Edit Class")
        p.CourseID = id
        p.ClassRef = ref.raw
        p.Errors = errs
        p.Form = vals
        return c.Render(http.StatusUnprocessableEntity, "edit_class", p)
    }

    ctx, cancel := h.ctx(c)
    defer cancel()
    n, err := h.replaceClass(ctx, id, ref, form.class())
    if err != nil {
        return failJSON(c, "Failed to update class", err)
    }
    if n == 0 {
        return notFoundJSON(c, "Course not found or no changes made")
    }
    return redirect(c, "/organiser/dashboard")
}

// DeleteClass removes the referenced class.  It serves both DELETE and the
// POST .../delete form action.
func (h *Handler) DeleteClass(c echo.Context) error {
    id := c.Param("id")
    ref := parseClassRef(c.Param("class"))

    ctx, cancel := h.ctx(c)
    defer cancel()
    n, err := h.removeClass(ctx, id, ref)
    if err != nil {
        return failJSON(c, "Failed to delete class", err)
    }
    if n == 0 {
        return notFoundJSON(c, "Course not found or no changes made")
    }
    return redirect(c, "/organiser/dashboard")
}
