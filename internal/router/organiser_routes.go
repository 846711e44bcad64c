package router // router defines how HTTP routes are registered

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/groovemind/internal/handler"
)

// RegisterOrganiser registers the organiser-scoped routes.  Every route
// runs behind gate; cache fronts the JSON class list only.
func RegisterOrganiser(e *echo.Echo, h *handler.Handler, gate, cache echo.MiddlewareFunc) {
	e.GET("/organiser/dashboard", h.Dashboard, gate)

	// ---- Courses ----
	e.GET("/new", h.NewCourseForm, gate)
	e.POST("/courses", h.CreateCourse, gate)
	e.GET("/courses/:id/edit", h.EditCourseForm, gate)
	e.PUT("/courses/:id", h.UpdateCourse, gate)
	e.DELETE("/courses/:id", h.DeleteCourse, gate)

	// ---- Bookings ----
	e.GET("/courses/:id/classlist", h.ClassList, gate, cache)
	e.GET("/courses/:id/classlist/view", h.ClassListView, gate)
	e.POST("/courses/:id/bookings/remove", h.RemoveBooking, gate)

	// ---- Classes ----
	// :class is a position (legacy links) or a class id.
	e.GET("/courses/:id/classes/new", h.AddClassForm, gate)
	e.POST("/courses/:id/classes", h.AddClass, gate)
	e.GET("/courses/:id/classes/:class/edit", h.EditClassForm, gate)
	e.PUT("/courses/:id/classes/:class", h.UpdateClass, gate)
	e.DELETE("/courses/:id/classes/:class", h.DeleteClass, gate)
	e.POST("/courses/:id/classes/:class/delete", h.DeleteClass, gate)

	// ---- Organisers ----
	e.GET("/organisers/add", h.AddOrganiserForm, gate)
	e.POST("/organisers/add", h.AddOrganiser, gate)
	e.GET("/organisers/delete", h.DeleteOrganiserForm, gate)
	e.POST("/organisers/delete", h.DeleteOrganiser, gate)
}
