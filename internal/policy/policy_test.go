package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tasjeel-app/tasjeel/internal/models"
)

func TestCan(t *testing.T) {
	cases := []struct {
		name       string
		role       models.Role
		capability Capability
		want       bool
	}{
		{"admin creates", models.RoleAdmin, CapCreate, true},
		{"admin updates", models.RoleAdmin, CapUpdate, true},
		{"admin deletes", models.RoleAdmin, CapDelete, true},
		{"teacher creates", models.RoleTeacher, CapCreate, true},
		{"teacher updates", models.RoleTeacher, CapUpdate, true},
		{"teacher cannot delete", models.RoleTeacher, CapDelete, false},
		{"student cannot create", models.RoleStudent, CapCreate, false},
		{"student cannot update", models.RoleStudent, CapUpdate, false},
		{"student cannot delete", models.RoleStudent, CapDelete, false},
		{"empty role holds nothing", models.Role(""), CapCreate, false},
		{"unknown role holds nothing", models.Role("principal"), CapDelete, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Can(tc.role, tc.capability))
		})
	}
}

func TestIsTeacherIncludesAdmin(t *testing.T) {
	assert.True(t, IsTeacher(models.RoleAdmin))
	assert.True(t, IsTeacher(models.RoleTeacher))
	assert.False(t, IsTeacher(models.RoleStudent))
}

func TestCapabilities(t *testing.T) {
	assert.Equal(t, []Capability{CapCreate, CapUpdate, CapDelete}, Capabilities(models.RoleAdmin))
	assert.Equal(t, []Capability{CapCreate, CapUpdate}, Capabilities(models.RoleTeacher))
	assert.Empty(t, Capabilities(models.RoleStudent))
}
