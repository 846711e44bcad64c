package handler

import (
    "encoding/json"
    "errors"
    "fmt"
    "math"
    "net/http"
    "reflect"
    "regexp"
    "strconv"
    "strings"

    "github.com/go-playground/validator/v10"
    "github.com/labstack/echo/v4"

    "github.com/iliyamo/groovemind/internal/model"
    "github.com/iliyamo/groovemind/internal/view"
)

// maxClassRows is the number of class rows on the new course form.
const maxClassRows = 4

// FormValidator checks bound forms and turns failures into the messages
// shown above the form.  Field names are the input names (the `form` tag).
type FormValidator struct {
    v *validator.Validate
}

// messages maps "<input>.<rule>" to the text shown to the user.
var messages = map[string]string{
    "firstName.min":             "First name must be at least 2 characters long",
    "lastName.min":              "Last name must be at least 2 characters long",
    "email.required":            "Invalid email",
    "email.email":               "Invalid email",
    "phone.mobile":              "Invalid phone number",
    "username.required":         "Username is required",
    "username.min":              "Username must be at least 3 characters",
    "pass.required":             "Password is required",
    "pass.min":                  "Password must be at least 5 characters",
    "password.required":         "Password is required",
    "password.min":              "Password must be at least 5 characters",
    "name.required":             "Course name is required",
    "date.required":             "Date is required",
    "time.required":             "Time is required",
    "classDescription.required": "Description is required",
}

var mobileRe = regexp.MustCompile(`^\+?[0-9]{7,15}$`)

// isMobile accepts an optional leading plus and 7 to 15 digits once
// spaces, dashes, dots and brackets are removed.
func isMobile(fl validator.FieldLevel) bool {
    s := strings.NewReplacer(" ", "", "-", "", ".", "", "(", "", ")", "").Replace(fl.Field().String())
    return mobileRe.MatchString(s)
}

// NewFormValidator builds the validator with the custom "mobile" rule.
func NewFormValidator() *FormValidator {
    v := validator.New(validator.WithRequiredStructEnabled())
    v.RegisterTagNameFunc(func(f reflect.StructField) string {
        if name := f.Tag.Get("form"); name != "" {
            return name
        }
        return f.Name
    })
    if err := v.RegisterValidation("mobile", isMobile); err != nil {
        panic(err)
    }
    return &FormValidator{v: v}
}

// Check validates form and returns one message per failing field, in field
// order.  A nil result means the form is valid.
func (fv *FormValidator) Check(form interface{}) []view.FieldError {
    err := fv.v.Struct(form)
    if err == nil {
        return nil
    }
    var verrs validator.ValidationErrors
    if !errors.As(err, &verrs) {
        return []view.FieldError{{Msg: err.Error()}}
    }
    out := make([]view.FieldError, 0, len(verrs))
    for _, fe := range verrs {
        msg, ok := messages[fe.Field()+"."+fe.Tag()]
        if !ok {
            msg = fmt.Sprintf("%s is invalid", fe.Field())
        }
        out = append(out, view.FieldError{Field: fe.Field(), Msg: msg})
    }
    return out
}

// bookingForm is the booking form after trimming and normalisation.
type bookingForm struct {
    FirstName string `form:"firstName" validate:"min=2"`
    LastName  string `form:"lastName" validate:"min=2"`
    Email     string `form:"email" validate:"required,email"`
    Phone     string `form:"phone" validate:"omitempty,mobile"`
}

func newBookingForm(v map[string]string) bookingForm {
    return bookingForm{
        FirstName: strings.TrimSpace(v["firstName"]),
        LastName:  strings.TrimSpace(v["lastName"]),
        Email:     strings.ToLower(strings.TrimSpace(v["email"])),
        Phone:     strings.TrimSpace(v["phone"]),
    }
}

func (f bookingForm) booking() model.Booking {
    return model.Booking{FirstName: f.FirstName, LastName: f.LastName, Email: f.Email, Phone: f.Phone}
}

// registerForm is used by /register, whose password input is named "pass".
type registerForm struct {
    Username string `form:"username" validate:"required,min=3"`
    Password string `form:"pass" validate:"required,min=5"`
}

// organiserForm is used by /organisers/add.
type organiserForm struct {
    Username string `form:"username" validate:"required,min=3"`
    Password string `form:"password" validate:"required,min=5"`
}

// classForm is one class on the add and edit class forms.
type classForm struct {
    Date        string `form:"date" validate:"required"`
    Time        string `form:"time" validate:"required"`
    Description string `form:"classDescription" validate:"required"`
}

func newClassForm(v map[string]string) classForm {
    return classForm{
        Date:        strings.TrimSpace(v["date"]),
        Time:        strings.TrimSpace(v["time"]),
        Description: strings.TrimSpace(v["classDescription"]),
    }
}

func (f classForm) class() model.Class {
    return model.Class{Date: f.Date, Time: f.Time, Description: f.Description}
}

// courseForm is the new course form.
type courseForm struct {
    Name        string `form:"name" validate:"required"`
    Description string `form:"description"`
    Duration    string `form:"duration"`
    Location    string `form:"location"`
}

// parseCourse reads the new course form.  Class rows are kept only when
// date, time and description are all present; at most maxClassRows are
// read.  The returned rows echo every submitted row for re-rendering.
func (fv *FormValidator) parseCourse(v map[string]string) (model.Course, []model.Class, []view.FieldError) {
    f := courseForm{
        Name:        strings.TrimSpace(v["name"]),
        Description: strings.TrimSpace(v["description"]),
        Duration:    strings.TrimSpace(v["duration"]),
        Location:    strings.TrimSpace(v["location"]),
    }
    errs := fv.Check(f)
    price, perr := parsePrice(v["price"])
    if perr != nil {
        errs = append(errs, *perr)
    }

    rows := make([]model.Class, maxClassRows)
    var classes []model.Class
    for i := 0; i < maxClassRows; i++ {
        k := model.Class{
            Date:        strings.TrimSpace(v[fmt.Sprintf("classes[%d][date]", i)]),
            Time:        strings.TrimSpace(v[fmt.Sprintf("classes[%d][time]", i)]),
            Description: strings.TrimSpace(v[fmt.Sprintf("classes[%d][classDescription]", i)]),
        }
        rows[i] = k
        if k.Date != "" && k.Time != "" && k.Description != "" {
            classes = append(classes, k)
        }
    }
    c := model.Course{
        Name:        f.Name,
        Description: f.Description,
        Duration:    f.Duration,
        Location:    f.Location,
        Price:       price,
        Classes:     classes,
    }
    return c, rows, errs
}

// parsePrice accepts an empty value as 0 and otherwise a non-negative
// decimal, optionally prefixed with a pound sign.
func parsePrice(raw string) (float64, *view.FieldError) {
    s := strings.TrimPrefix(strings.TrimSpace(raw), "£")
    if s == "" {
        return 0, nil
    }
    p, err := strconv.ParseFloat(s, 64)
    if err != nil || p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
        return 0, &view.FieldError{Field: "price", Msg: "Price must be a non-negative number"}
    }
    return p, nil
}

// formValues returns the submitted fields as a flat map.  JSON bodies are
// accepted for the API-style PUT and POST routes; scalar values are
// stringified and nested values ignored.
func formValues(c echo.Context) (map[string]string, error) {
    req := c.Request()
    out := map[string]string{}
    if strings.HasPrefix(req.Header.Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
        var body map[string]interface{}
        if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
            return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid JSON body")
        }
        for k, v := range body {
            switch t := v.(type) {
            case string:
                out[k] = t
            case float64:
                out[k] = strconv.FormatFloat(t, 'f', -1, 64)
            case bool:
                out[k] = strconv.FormatBool(t)
            }
        }
        return out, nil
    }
    params, err := c.FormParams()
    if err != nil {
        return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid form body")
    }
    for k, vs := range params {
        if len(vs) > 0 && k != "_method" && k != "gorilla.csrf.Token" {
            out[k] = vs[0]
        }
    }
    return out, nil
}
