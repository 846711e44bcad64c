package view

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/groovemind/internal/model"
)

func render(t *testing.T, name string, p Page) string {
	t.Helper()
	r, err := New()
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, name, p, nil))
	return buf.String()
}

func TestEveryPageRendersWithZeroData(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	for _, name := range []string{
		"home", "about", "contact", "entries", "book", "booking_success",
		"new_course", "edit_course", "add_class", "edit_class", "class_list",
		"dashboard", "add_organiser", "delete_organiser", "register", "login",
	} {
		var buf bytes.Buffer
		assert.NoError(t, r.Render(&buf, name, Page{Title: name}, nil), name)
	}
	assert.Error(t, r.Render(&bytes.Buffer{}, "layout", Page{}, nil))
}

func TestRenderUnknownPage(t *testing.T) {
	r, err := New()
	require.NoError(t, err)
	assert.Error(t, r.Render(&bytes.Buffer{}, "missing", Page{}, nil))
}

func TestEntriesRenderMarkdownAndEscapes(t *testing.T) {
	out := render(t, "entries", Page{
		Title: "Courses",
		Courses: []model.Course{{
			ID:          "c1",
			Name:        "Salsa <b>now</b>",
			Description: "Learn **fast** <script>alert(1)</script>",
			Price:       60,
		}},
	})
	assert.Contains(t, out, "<strong>fast</strong>")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "Salsa &lt;b&gt;now&lt;/b&gt;")
	assert.Contains(t, out, "£60.00")
	assert.Contains(t, out, "/courses/c1/book")
}

func TestFormsKeepValuesAndShowErrors(t *testing.T) {
	out := render(t, "book", Page{
		Title:    "Book This Course",
		CourseID: "c1",
		Errors:   []FieldError{{Field: "firstName", Msg: "First name must be at least 2 characters long"}},
		Form:     map[string]string{"email": "a@b.com"},
	})
	assert.Contains(t, out, "First name must be at least 2 characters long")
	assert.Contains(t, out, `value="a@b.com"`)
	assert.Contains(t, out, `action="/courses/c1/book"`)
}

func TestLayoutReflectsIdentity(t *testing.T) {
	anon := render(t, "home", Page{Title: "Home"})
	assert.Contains(t, anon, `href="/login"`)
	assert.NotContains(t, anon, "/organiser/dashboard")

	org := render(t, "home", Page{Title: "Home", Username: "ana", Organiser: true})
	assert.Contains(t, org, "Signed in as ana")
	assert.Contains(t, org, "/organiser/dashboard")
}

func TestDashboardAddressesClassesByID(t *testing.T) {
	out := render(t, "dashboard", Page{
		Title: "Organiser Dashboard",
		Courses: []model.Course{{
			ID:      "c1",
			Name:    "Salsa",
			Classes: []model.Class{{ID: "k1", Description: "a"}, {ID: "k2", Description: "b"}},
		}},
	})
	assert.Contains(t, out, "/courses/c1/classes/k2/edit")
	assert.Contains(t, out, "/courses/c1/classes/k2/delete")
	assert.NotContains(t, out, "/courses/c1/classes/1/delete")
	assert.Contains(t, out, `<span class="pos">2.</span>`)
}
