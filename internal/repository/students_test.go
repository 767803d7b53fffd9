package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasjeel-app/tasjeel/internal/models"
	"github.com/tasjeel-app/tasjeel/internal/remote"
	appErrors "github.com/tasjeel-app/tasjeel/pkg/errors"
)

type fakeRowStore struct {
	selectCalls int
	insertCalls int
	updateCalls int
	deleteCalls int

	selectRows  []json.RawMessage
	selectErr   error
	insertedRow interface{}
	insertReply json.RawMessage
	insertErr   error
	updateQ     remote.Query
	updateCols  map[string]interface{}
	updateReply json.RawMessage
	updateErr   error
	deleteQ     remote.Query
	deleteErr   error

	lastQuery remote.Query
}

func (f *fakeRowStore) Select(ctx context.Context, collection string, q remote.Query) ([]json.RawMessage, error) {
	f.selectCalls++
	f.lastQuery = q
	return f.selectRows, f.selectErr
}

func (f *fakeRowStore) SelectOne(ctx context.Context, collection string, q remote.Query) (json.RawMessage, error) {
	f.selectCalls++
	f.lastQuery = q
	if f.selectErr != nil {
		return nil, f.selectErr
	}
	if len(f.selectRows) == 0 {
		return nil, appErrors.ErrNotFound
	}
	return f.selectRows[0], nil
}

func (f *fakeRowStore) Insert(ctx context.Context, collection string, row interface{}) (json.RawMessage, error) {
	f.insertCalls++
	f.insertedRow = row
	return f.insertReply, f.insertErr
}

func (f *fakeRowStore) Update(ctx context.Context, collection string, q remote.Query, fields map[string]interface{}) (json.RawMessage, error) {
	f.updateCalls++
	f.updateQ = q
	f.updateCols = fields
	return f.updateReply, f.updateErr
}

func (f *fakeRowStore) Delete(ctx context.Context, collection string, q remote.Query) error {
	f.deleteCalls++
	f.deleteQ = q
	return f.deleteErr
}

func (f *fakeRowStore) totalCalls() int {
	return f.selectCalls + f.insertCalls + f.updateCalls + f.deleteCalls
}

type fakeSession struct {
	identity *models.Identity
	role     models.Role
}

func (f *fakeSession) Identity() *models.Identity { return f.identity }
func (f *fakeSession) Role() models.Role          { return f.role }

func mustRaw(t *testing.T, v interface{}) json.RawMessage {
	t.Helper()
	raw, err := json.Marshal(v)
	require.NoError(t, err)
	return raw
}

func TestListOrdersNewestFirst(t *testing.T) {
	rows := &fakeRowStore{selectRows: []json.RawMessage{
		mustRaw(t, models.Student{ID: "b", Name: "Second"}),
		mustRaw(t, models.Student{ID: "a", Name: "First"}),
	}}
	repo := NewStudents(rows, &fakeSession{role: models.RoleStudent}, nil)

	students, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "b", students[0].ID)

	assert.Equal(t, "created_at", rows.lastQuery.OrderBy)
	assert.True(t, rows.lastQuery.Descending)
}

func TestListEmptyCollection(t *testing.T) {
	rows := &fakeRowStore{}
	repo := NewStudents(rows, &fakeSession{role: models.RoleAdmin}, nil)

	students, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestInsertDeniedBeforeAnyIO(t *testing.T) {
	rows := &fakeRowStore{}
	repo := NewStudents(rows, &fakeSession{role: models.RoleStudent}, nil)

	_, err := repo.Insert(context.Background(), models.StudentInput{Name: "x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrPermissionDenied))
	assert.Zero(t, rows.totalCalls())
}

func TestInsertStampsOwnerAndIcon(t *testing.T) {
	reply := models.Student{ID: "new-id", Name: "Amina"}
	rows := &fakeRowStore{insertReply: mustRaw(t, reply)}
	repo := NewStudents(rows, &fakeSession{
		identity: &models.Identity{ID: "teacher-1", Email: "t@example.com"},
		role:     models.RoleTeacher,
	}, nil)

	created, err := repo.Insert(context.Background(), models.StudentInput{Name: "Amina"})
	require.NoError(t, err)
	assert.Equal(t, "new-id", created.ID)

	sent, ok := rows.insertedRow.(insertRow)
	require.True(t, ok)
	require.NotNil(t, sent.OwnerID)
	assert.Equal(t, "teacher-1", *sent.OwnerID)
	require.NotNil(t, sent.IconType)
	assert.Contains(t, models.IconTags, *sent.IconType)
}

func TestInsertKeepsExplicitIcon(t *testing.T) {
	icon := "book-open"
	rows := &fakeRowStore{insertReply: mustRaw(t, models.Student{ID: "x"})}
	repo := NewStudents(rows, &fakeSession{role: models.RoleAdmin}, nil)

	_, err := repo.Insert(context.Background(), models.StudentInput{Name: "n", IconType: &icon})
	require.NoError(t, err)

	sent := rows.insertedRow.(insertRow)
	require.NotNil(t, sent.IconType)
	assert.Equal(t, "book-open", *sent.IconType)
}

func TestUpdateDeniedForStudents(t *testing.T) {
	rows := &fakeRowStore{}
	repo := NewStudents(rows, &fakeSession{role: models.RoleStudent}, nil)

	name := "renamed"
	_, err := repo.Update(context.Background(), "id-1", models.StudentPatch{Name: &name})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrPermissionDenied))
	assert.Zero(t, rows.totalCalls())
}

func TestUpdateSendsOnlySetFields(t *testing.T) {
	rows := &fakeRowStore{updateReply: mustRaw(t, models.Student{ID: "id-1", Accepted: true})}
	repo := NewStudents(rows, &fakeSession{role: models.RoleTeacher}, nil)

	updated, err := repo.SetAccepted(context.Background(), "id-1", true)
	require.NoError(t, err)
	assert.True(t, updated.Accepted)

	assert.Equal(t, map[string]interface{}{"accepted": true}, rows.updateCols)
	assert.Equal(t, "id-1", rows.updateQ.Filters["id"])
}

func TestUpdateEmptyPatchReadsBack(t *testing.T) {
	rows := &fakeRowStore{selectRows: []json.RawMessage{mustRaw(t, models.Student{ID: "id-1"})}}
	repo := NewStudents(rows, &fakeSession{role: models.RoleTeacher}, nil)

	current, err := repo.Update(context.Background(), "id-1", models.StudentPatch{})
	require.NoError(t, err)
	assert.Equal(t, "id-1", current.ID)
	assert.Zero(t, rows.updateCalls)
	assert.Equal(t, 1, rows.selectCalls)
}

func TestDeleteRequiresAdmin(t *testing.T) {
	rows := &fakeRowStore{}
	repo := NewStudents(rows, &fakeSession{role: models.RoleTeacher}, nil)

	err := repo.Delete(context.Background(), "id-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrPermissionDenied))
	assert.Zero(t, rows.totalCalls())
}

func TestDeleteIsIdempotent(t *testing.T) {
	rows := &fakeRowStore{deleteErr: appErrors.ErrNotFound}
	repo := NewStudents(rows, &fakeSession{role: models.RoleAdmin}, nil)

	assert.NoError(t, repo.Delete(context.Background(), "already-gone"))
	assert.Equal(t, 1, rows.deleteCalls)
}

func TestDeleteSurfacesTransportFailure(t *testing.T) {
	rows := &fakeRowStore{deleteErr: appErrors.ErrFetch}
	repo := NewStudents(rows, &fakeSession{role: models.RoleAdmin}, nil)

	err := repo.Delete(context.Background(), "id-1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrFetch))
}

func TestGetByIDNotFound(t *testing.T) {
	rows := &fakeRowStore{}
	repo := NewStudents(rows, &fakeSession{role: models.RoleAdmin}, nil)

	_, err := repo.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}
