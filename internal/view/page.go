package view

import (
	"html/template"

	"github.com/iliyamo/groovemind/internal/model"
)

// FieldError is one validation message shown above a form.
type FieldError struct {
	Field string
	Msg   string
}

// Page is the data every template receives.  Pages read the fields they
// need; the rest stay at their zero values.
type Page struct {
	Title     string
	CSRFField template.HTML
	Username  string
	Organiser bool
	Errors    []FieldError
	Notice    string

	Location string
	CourseID string
	ClassRef string
	Course   *model.Course
	Courses  []model.Course
	Classes  []model.Class
	Bookings []model.Booking
	Users    []model.User
	Rows     []model.Class

	// Form holds submitted values, keyed by input name, for re-rendering.
	Form map[string]string
}
