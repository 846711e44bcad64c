package handler

import (
    "errors"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/groovemind/internal/model"
    "github.com/iliyamo/groovemind/internal/repository"
)

const (
    addOrganiserTitle    = "Add a New Organiser"
    deleteOrganiserTitle = "Delete an Organiser"
)

// AddOrganiserForm renders the add organiser form.
func (h *Handler) AddOrganiserForm(c echo.Context) error {
    p := h.page(c, addOrganiserTitle)
    if c.QueryParam("error") == "exists" {
        p.Notice = "That username is already taken."
    }
    return c.Render(http.StatusOK, "add_organiser", p)
}

// AddOrganiser creates an organiser account.
func (h *Handler) AddOrganiser(c echo.Context) error {
    vals, err := formValues(c)
    if err != nil {
        return err
    }
    form := organiserForm{Username: strings.TrimSpace(vals["username"]), Password: vals["password"]}
    if errs := h.forms.Check(form); len(errs) > 0 {
        p := h.page(c, addOrganiserTitle)
        p.Errors = errs
        p.Form = map[string]string{"username": form.Username}
        return c.Render(http.StatusUnprocessableEntity, "add_organiser", p)
    }

    ctx, cancel := h.ctx(c)
    defer cancel()
    if _, err := h.users.Lookup(ctx, form.Username); err == nil {
        return redirect(c, "/organisers/add?error=exists")
    } else if !errors.Is(err, repository.ErrUserNotFound) {
        return failPage(c, genericFailure, err)
    }
    if _, err := h.users.Create(ctx, form.Username, form.Password, model.RoleOrganiser); err != nil {
        if errors.Is(err, repository.ErrUsernameTaken) {
            return redirect(c, "/organisers/add?error=exists")
        }
        return failPage(c, genericFailure, err)
    }
    c.Logger().Infof("organiser %q added", form.Username)
    return redirect(c, "/organiser/dashboard")
}

// DeleteOrganiserForm renders the delete organiser form with the current
// accounts.
func (h *Handler) DeleteOrganiserForm(c echo.Context) error {
    ctx, cancel := h.ctx(c)
    defer cancel()
    users, err := h.users.List(ctx)
    if err != nil {
        return failPage(c, genericFailure, err)
    }
    p := h.page(c, deleteOrganiserTitle)
    p.Users = users
    return c.Render(http.StatusOK, "delete_organiser", p)
}

// DeleteOrganiser removes the account and revokes its sessions.  An unknown
// username is logged and otherwise ignored.
func (h *Handler) DeleteOrganiser(c echo.Context) error {
    vals, err := formValues(c)
    if err != nil {
        return err
    }
    username := strings.TrimSpace(vals["username"])
    if username == "" {
        return redirect(c, "/organisers/delete")
    }

    ctx, cancel := h.ctx(c)
    defer cancel()
    n, err := h.users.Delete(ctx, username)
    if err != nil {
        c.Logger().Errorf("delete organiser %q: %v", username, err)
        return redirect(c, "/organiser/dashboard")
    }
    if n == 0 {
        c.Logger().Infof("organiser %q not found", username)
        return redirect(c, "/organiser/dashboard")
    }
    if err := h.sessions.RevokeAllForUser(ctx, username); err != nil {
        c.Logger().Warnf("revoke sessions of %q: %v", username, err)
    }
    c.Logger().Infof("organiser %q deleted", username)
    return redirect(c, "/organiser/dashboard")
}
