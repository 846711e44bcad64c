package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCourseNormalize(t *testing.T) {
	var c Course
	c.Normalize()
	assert.NotNil(t, c.Classes)
	assert.NotNil(t, c.Bookings)
	assert.Empty(t, c.Classes)
	assert.Empty(t, c.Bookings)
}

func TestIndexedClasses(t *testing.T) {
	c := Course{Classes: []Class{{ID: "a"}, {ID: "b"}, {ID: "c"}}}
	got := c.IndexedClasses()
	for i, k := range got {
		assert.Equal(t, i, k.Index)
	}
	assert.Equal(t, 0, c.Classes[2].Index, "original sequence must not be modified")
}

func TestEffectiveRole(t *testing.T) {
	assert.Equal(t, RoleOrganiser, User{}.EffectiveRole())
	assert.Equal(t, RoleMember, User{Role: RoleMember}.EffectiveRole())
}
