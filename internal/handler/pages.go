package handler // declare the package name; contains HTTP handlers

import (
    "net/http" // net/http provides status codes and response helpers

    "github.com/labstack/echo/v4" // echo is the web framework used for this project
)

// Home renders the landing page.
func (h *Handler) Home(c echo.Context) error {
    return c.Render(http.StatusOK, "home", h.page(c, "Welcome to GrooveMind Dance Collective"))
}

// About renders the about page.
func (h *Handler) About(c echo.Context) error {
    return c.Render(http.StatusOK, "about", h.page(c, "About GrooveMind Dance Collective"))
}

// Contact renders the contact page.
func (h *Handler) Contact(c echo.Context) error {
    return c.Render(http.StatusOK, "contact", h.page(c, "Contact Us"))
}

// Health is a simple health‑check endpoint used by load balancers and
// monitoring systems to verify that the service is running.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}
