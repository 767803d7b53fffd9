package view

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tasjeel-app/tasjeel/internal/models"
	appErrors "github.com/tasjeel-app/tasjeel/pkg/errors"
)

type fakeRepo struct {
	mu sync.Mutex

	students  []models.Student
	listErr   error
	listCalls int

	insertErr   error
	insertGate  chan struct{}
	insertCalls int

	updateErr error
	deleteErr error
	getErr    error
}

func (f *fakeRepo) List(ctx context.Context) ([]models.Student, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.Student, len(f.students))
	copy(out, f.students)
	return out, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id string) (*models.Student, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, s := range f.students {
		if s.ID == id {
			out := s
			return &out, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

func (f *fakeRepo) Insert(ctx context.Context, candidate models.StudentInput) (*models.Student, error) {
	f.mu.Lock()
	f.insertCalls++
	f.mu.Unlock()
	if f.insertGate != nil {
		<-f.insertGate
	}
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	created := models.Student{ID: "created", Name: candidate.Name}
	f.mu.Lock()
	f.students = append([]models.Student{created}, f.students...)
	f.mu.Unlock()
	return &created, nil
}

func (f *fakeRepo) Update(ctx context.Context, id string, patch models.StudentPatch) (*models.Student, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for i, s := range f.students {
		if s.ID == id {
			if patch.Name != nil {
				f.students[i].Name = *patch.Name
			}
			out := f.students[i]
			return &out, nil
		}
	}
	return nil, appErrors.ErrNotFound
}

func (f *fakeRepo) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	kept := f.students[:0]
	for _, s := range f.students {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	f.students = kept
	return nil
}

type fakeSessionState struct{ authed bool }

func (f *fakeSessionState) Authenticated() bool { return f.authed }

func roster() []models.Student {
	return []models.Student{
		{ID: "1", Name: "Amina Khalid", IDNumber: "1111111111", Email: "amina@example.com", Mobile: "0501111111", CourseName: "Math"},
		{ID: "2", Name: "Badr Saleh", IDNumber: "2222222222", Email: "badr@example.com", Mobile: "0502222222", CourseName: "Physics"},
		{ID: "3", Name: "Chandra Rao", IDNumber: "3333333333", Email: "chandra@example.com", Mobile: "0503333333", CourseName: "Math"},
	}
}

func newTestController(repo *fakeRepo) *Controller {
	return New(repo, &fakeSessionState{authed: true}, nil)
}

func TestLoadRequiresAuthentication(t *testing.T) {
	repo := &fakeRepo{students: roster()}
	c := New(repo, &fakeSessionState{authed: false}, nil)

	require.NoError(t, c.Load(context.Background()))
	assert.Empty(t, c.Students())
	assert.Zero(t, repo.listCalls)
}

func TestLoadReplacesCacheWholesale(t *testing.T) {
	repo := &fakeRepo{students: roster()}
	c := newTestController(repo)

	require.NoError(t, c.Load(context.Background()))
	assert.Len(t, c.Students(), 3)

	repo.students = roster()[:1]
	require.NoError(t, c.Load(context.Background()))
	assert.Len(t, c.Students(), 1)
}

func TestVisibleAppliesBothPredicates(t *testing.T) {
	repo := &fakeRepo{students: roster()}
	c := newTestController(repo)
	require.NoError(t, c.Load(context.Background()))

	// No predicates: everything shows.
	assert.Len(t, c.Visible(), 3)

	// Course alone.
	c.SetCourseFilter("Math")
	visible := c.Visible()
	require.Len(t, visible, 2)

	// Search composes with the course filter, not replaces it.
	c.SetSearch("chandra")
	visible = c.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, "3", visible[0].ID)

	// A search that only matches outside the course yields nothing.
	c.SetSearch("badr")
	assert.Empty(t, c.Visible())

	// Clearing the course keeps the search.
	c.SetCourseFilter(CourseFilterAll)
	assert.Len(t, c.Visible(), 1)
}

func TestVisibleSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	repo := &fakeRepo{students: roster()}
	c := newTestController(repo)
	require.NoError(t, c.Load(context.Background()))

	c.SetSearch("AMINA")
	require.Len(t, c.Visible(), 1)

	c.SetSearch("2222")
	require.Len(t, c.Visible(), 1)
	assert.Equal(t, "2", c.Visible()[0].ID)

	c.SetSearch("chandra@example")
	require.Len(t, c.Visible(), 1)

	c.SetSearch("0501")
	require.Len(t, c.Visible(), 1)

	c.SetSearch("no such student")
	assert.Empty(t, c.Visible())
}

func TestCourses(t *testing.T) {
	repo := &fakeRepo{students: roster()}
	c := newTestController(repo)
	require.NoError(t, c.Load(context.Background()))

	assert.ElementsMatch(t, []string{"Math", "Physics"}, c.Courses())
}

func TestNavigationHistory(t *testing.T) {
	c := newTestController(&fakeRepo{})

	assert.Equal(t, ModeForm, c.Mode())
	c.Navigate(ModeList)
	assert.Equal(t, ModeList, c.Mode())
	c.Back()
	assert.Equal(t, ModeForm, c.Mode())

	// Back with an empty history stays on the form page.
	c.Back()
	assert.Equal(t, ModeForm, c.Mode())
}

func TestSubmitMovesToList(t *testing.T) {
	repo := &fakeRepo{}
	c := newTestController(repo)

	require.NoError(t, c.Submit(context.Background(), models.StudentInput{Name: "New"}))
	assert.Equal(t, ModeList, c.Mode())
	require.Len(t, c.Students(), 1)
	assert.Equal(t, "created", c.Students()[0].ID)
}

func TestSubmitRejectsOverlap(t *testing.T) {
	gate := make(chan struct{})
	repo := &fakeRepo{insertGate: gate}
	c := newTestController(repo)

	firstDone := make(chan error, 1)
	go func() { firstDone <- c.Submit(context.Background(), models.StudentInput{Name: "A"}) }()

	require.Eventually(t, func() bool { return c.Submitting() }, time.Second, time.Millisecond)

	err := c.Submit(context.Background(), models.StudentInput{Name: "B"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))

	close(gate)
	require.NoError(t, <-firstDone)
	assert.Equal(t, 1, repo.insertCalls)
	assert.False(t, c.Submitting())
}

func TestSubmitSurfacesInsertFailure(t *testing.T) {
	repo := &fakeRepo{insertErr: appErrors.ErrPermissionDenied}
	c := newTestController(repo)

	err := c.Submit(context.Background(), models.StudentInput{Name: "X"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrPermissionDenied))
	assert.Equal(t, ModeForm, c.Mode())
}

func TestUpdateRefreshesSelected(t *testing.T) {
	repo := &fakeRepo{students: roster()}
	c := newTestController(repo)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))
	require.NoError(t, c.Select(ctx, "1"))

	name := "Renamed"
	require.NoError(t, c.Update(ctx, "1", models.StudentPatch{Name: &name}))

	require.NotNil(t, c.Selected())
	assert.Equal(t, "Renamed", c.Selected().Name)
}

func TestDeleteLeavesDetailView(t *testing.T) {
	repo := &fakeRepo{students: roster()}
	c := newTestController(repo)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))
	require.NoError(t, c.Select(ctx, "2"))
	require.Equal(t, ModeDetail, c.Mode())

	require.NoError(t, c.Delete(ctx, "2"))

	assert.Nil(t, c.Selected())
	assert.Equal(t, ModeList, c.Mode())
	assert.Len(t, c.Students(), 2)
}

func TestSelectVanishedRecordFallsBackToList(t *testing.T) {
	repo := &fakeRepo{students: roster()}
	c := newTestController(repo)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))

	err := c.Select(ctx, "missing")
	require.Error(t, err)
	assert.Equal(t, ModeList, c.Mode())
	assert.Nil(t, c.Selected())
}

func TestToggleNotes(t *testing.T) {
	c := newTestController(&fakeRepo{})

	assert.False(t, c.NotesOpen("1"))
	assert.True(t, c.ToggleNotes("1"))
	assert.True(t, c.NotesOpen("1"))
	assert.False(t, c.ToggleNotes("1"))
}

func TestResetClearsEverything(t *testing.T) {
	repo := &fakeRepo{students: roster()}
	c := newTestController(repo)
	ctx := context.Background()
	require.NoError(t, c.Load(ctx))
	require.NoError(t, c.Select(ctx, "1"))
	c.SetSearch("amina")
	c.SetCourseFilter("Math")
	c.ToggleNotes("1")

	c.Reset()

	assert.Empty(t, c.Students())
	assert.Nil(t, c.Selected())
	assert.Equal(t, ModeForm, c.Mode())
	assert.Len(t, c.Visible(), 0)
	assert.False(t, c.NotesOpen("1"))
}
