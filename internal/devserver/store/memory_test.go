package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasjeel-app/tasjeel/internal/models"
)

func seedStudent(t *testing.T, st *Store, id string, course string, createdAt time.Time) {
	t.Helper()
	owner := "owner-1"
	require.NoError(t, st.Students.Insert(context.Background(), &models.Student{
		ID:         id,
		Name:       "Student " + id,
		CourseName: course,
		CreatedAt:  createdAt,
		OwnerID:    &owner,
	}))
}

func TestMemoryStudentsListNewestFirst(t *testing.T) {
	st := NewMemory()
	base := time.Date(2024, time.March, 1, 10, 0, 0, 0, time.UTC)
	seedStudent(t, st, "old", "Math", base)
	seedStudent(t, st, "mid", "Math", base.Add(time.Hour))
	seedStudent(t, st, "new", "Physics", base.Add(2*time.Hour))

	students, err := st.Students.List(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, students, 3)
	assert.Equal(t, "new", students[0].ID)
	assert.Equal(t, "mid", students[1].ID)
	assert.Equal(t, "old", students[2].ID)
}

func TestMemoryStudentsListFilters(t *testing.T) {
	st := NewMemory()
	base := time.Now().UTC()
	seedStudent(t, st, "a", "Math", base)
	seedStudent(t, st, "b", "Physics", base.Add(time.Second))

	students, err := st.Students.List(context.Background(), map[string]string{"course_name": "Math"})
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "a", students[0].ID)

	students, err = st.Students.List(context.Background(), map[string]string{"owner_id": "owner-1"})
	require.NoError(t, err)
	assert.Len(t, students, 2)

	students, err = st.Students.List(context.Background(), map[string]string{"owner_id": "nobody"})
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestMemoryStudentsUpdate(t *testing.T) {
	st := NewMemory()
	seedStudent(t, st, "a", "Math", time.Now().UTC())

	updated, err := st.Students.Update(context.Background(), "a", map[string]interface{}{
		"name":     "Renamed",
		"accepted": true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.True(t, updated.Accepted)

	_, err = st.Students.Update(context.Background(), "missing", map[string]interface{}{"name": "x"})
	assert.True(t, errors.Is(err, ErrRowNotFound))
}

func TestMemoryStudentsDelete(t *testing.T) {
	st := NewMemory()
	seedStudent(t, st, "a", "Math", time.Now().UTC())

	removed, err := st.Students.Delete(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, removed)

	// Second delete reports nothing removed but no error.
	removed, err = st.Students.Delete(context.Background(), "a")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMemoryUsersAndProfiles(t *testing.T) {
	st := NewMemory()
	ctx := context.Background()

	_, err := st.Users.FindByEmail(ctx, "nobody@example.com")
	assert.True(t, errors.Is(err, ErrRowNotFound))

	require.NoError(t, st.Users.Create(ctx, &User{ID: "u1", Email: "u@example.com", PasswordHash: "h"}))
	user, err := st.Users.FindByEmail(ctx, "u@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)
	assert.False(t, user.CreatedAt.IsZero())

	require.NoError(t, st.Profiles.Create(ctx, &models.Profile{ID: "u1", Role: models.RoleTeacher}))
	profile, err := st.Profiles.FindByID(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.RoleTeacher, profile.Role)
}
