// Package view holds the navigation and list state the rendering layer
// draws from. It owns the cached student collection: the cache is
// replaced wholesale after every successful repository call, never
// patched against a stale read, so the last resolved response wins.
package view

import (
	"context"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/tasjeel-app/tasjeel/internal/models"
	appErrors "github.com/tasjeel-app/tasjeel/pkg/errors"
)

// Mode is the current navigation state.
type Mode string

const (
	ModeForm   Mode = "form"
	ModeList   Mode = "list"
	ModeDetail Mode = "detail"
)

// CourseFilterAll disables course filtering.
const CourseFilterAll = "all"

// studentRepo is the slice of the record repository the controller uses.
type studentRepo interface {
	List(ctx context.Context) ([]models.Student, error)
	GetByID(ctx context.Context, id string) (*models.Student, error)
	Insert(ctx context.Context, candidate models.StudentInput) (*models.Student, error)
	Update(ctx context.Context, id string, patch models.StudentPatch) (*models.Student, error)
	Delete(ctx context.Context, id string) error
}

// sessionState gates fetching on authentication.
type sessionState interface {
	Authenticated() bool
}

// Controller is the view state controller.
type Controller struct {
	repo    studentRepo
	session sessionState
	logger  *zap.Logger

	mu           sync.RWMutex
	mode         Mode
	history      []Mode
	students     []models.Student
	selected     *models.Student
	search       string
	courseFilter string
	notesOpen    map[string]bool
	submitting   bool
}

// New constructs a Controller starting on the form page with an empty
// collection.
func New(repo studentRepo, session sessionState, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Controller{
		repo:         repo,
		session:      session,
		logger:       logger,
		mode:         ModeForm,
		courseFilter: CourseFilterAll,
		notesOpen:    make(map[string]bool),
	}
}

// Mode returns the current navigation mode.
func (c *Controller) Mode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// Navigate pushes the current mode onto the history stack and moves on.
func (c *Controller) Navigate(mode Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.push(mode)
}

func (c *Controller) push(mode Mode) {
	if mode == c.mode {
		return
	}
	c.history = append(c.history, c.mode)
	c.mode = mode
}

// Back returns to the previous mode. With an empty history it lands on
// the form page.
func (c *Controller) Back() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.history) == 0 {
		c.mode = ModeForm
		return
	}
	c.mode = c.history[len(c.history)-1]
	c.history = c.history[:len(c.history)-1]
	if c.mode != ModeDetail {
		c.selected = nil
	}
}

// Load fetches the roster and replaces the cache wholesale. An
// unauthenticated session yields no fetch and an empty collection.
func (c *Controller) Load(ctx context.Context) error {
	if !c.session.Authenticated() {
		c.mu.Lock()
		c.students = nil
		c.mu.Unlock()
		return nil
	}

	students, err := c.repo.List(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.students = students
	c.mu.Unlock()
	return nil
}

// Reset drops every piece of cached per-identity state. Registered as a
// session reset hook so no stale data survives a session change.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.students = nil
	c.selected = nil
	c.history = nil
	c.mode = ModeForm
	c.search = ""
	c.courseFilter = CourseFilterAll
	c.notesOpen = make(map[string]bool)
	c.submitting = false
}

// Submit inserts a validated candidate, reloads the roster and moves to
// the list view. While a submit is in flight further submits are
// rejected so one form instance cannot overlap itself.
func (c *Controller) Submit(ctx context.Context, candidate models.StudentInput) error {
	c.mu.Lock()
	if c.submitting {
		c.mu.Unlock()
		return appErrors.Clone(appErrors.ErrConflict, "a submission is already in flight")
	}
	c.submitting = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.submitting = false
		c.mu.Unlock()
	}()

	if _, err := c.repo.Insert(ctx, candidate); err != nil {
		return err
	}
	if err := c.Load(ctx); err != nil {
		// The insert itself succeeded; surface the stale cache rather
		// than failing the submission.
		c.logger.Warn("post-insert reload failed", zap.Error(err))
	}

	c.mu.Lock()
	c.push(ModeList)
	c.mu.Unlock()
	return nil
}

// Submitting reports whether a submission is in flight; the rendering
// layer disables the trigger control while true.
func (c *Controller) Submitting() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.submitting
}

// Update patches a record, then reloads the roster wholesale.
func (c *Controller) Update(ctx context.Context, id string, patch models.StudentPatch) error {
	updated, err := c.repo.Update(ctx, id, patch)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.selected != nil && c.selected.ID == id {
		c.selected = updated
	}
	c.mu.Unlock()

	if err := c.Load(ctx); err != nil {
		c.logger.Warn("post-update reload failed", zap.Error(err))
	}
	return nil
}

// Delete removes a record, reloads the roster and leaves the detail
// view if the removed record was selected.
func (c *Controller) Delete(ctx context.Context, id string) error {
	if err := c.repo.Delete(ctx, id); err != nil {
		return err
	}

	c.mu.Lock()
	if c.selected != nil && c.selected.ID == id {
		c.selected = nil
		if c.mode == ModeDetail {
			c.mode = ModeList
		}
	}
	delete(c.notesOpen, id)
	c.mu.Unlock()

	if err := c.Load(ctx); err != nil {
		c.logger.Warn("post-delete reload failed", zap.Error(err))
	}
	return nil
}

// Select fetches one record and navigates to the detail view. A record
// that vanished underneath falls back to the list view.
func (c *Controller) Select(ctx context.Context, id string) error {
	student, err := c.repo.GetByID(ctx, id)
	if err != nil {
		if appErrors.FromError(err).Code == appErrors.ErrNotFound.Code {
			c.mu.Lock()
			c.selected = nil
			c.push(ModeList)
			c.mu.Unlock()
		}
		return err
	}

	c.mu.Lock()
	c.selected = student
	c.push(ModeDetail)
	c.mu.Unlock()
	return nil
}

// Selected returns the record backing the detail view, or nil.
func (c *Controller) Selected() *models.Student {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.selected == nil {
		return nil
	}
	student := *c.selected
	return &student
}

// SetSearch sets the free-text predicate.
func (c *Controller) SetSearch(term string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.search = term
}

// SetCourseFilter sets the course predicate; CourseFilterAll disables it.
func (c *Controller) SetCourseFilter(course string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if course == "" {
		course = CourseFilterAll
	}
	c.courseFilter = course
}

// Visible applies both predicates with AND semantics: a record must
// match the search term (case-insensitive substring over name, ID
// number, email and mobile) and the course filter.
func (c *Controller) Visible() []models.Student {
	c.mu.RLock()
	defer c.mu.RUnlock()

	term := strings.ToLower(strings.TrimSpace(c.search))
	out := make([]models.Student, 0, len(c.students))
	for _, s := range c.students {
		if c.courseFilter != CourseFilterAll && s.CourseName != c.courseFilter {
			continue
		}
		if term != "" && !matchesSearch(s, term) {
			continue
		}
		out = append(out, s)
	}
	return out
}

func matchesSearch(s models.Student, term string) bool {
	for _, field := range []string{s.Name, s.IDNumber, s.Email, s.Mobile} {
		if strings.Contains(strings.ToLower(field), term) {
			return true
		}
	}
	return false
}

// Students returns the unfiltered cached collection.
func (c *Controller) Students() []models.Student {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Student, len(c.students))
	copy(out, c.students)
	return out
}

// Courses returns the distinct course names present in the cache, for
// populating the filter control.
func (c *Controller) Courses() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	seen := make(map[string]struct{})
	courses := make([]string, 0)
	for _, s := range c.students {
		if _, ok := seen[s.CourseName]; ok {
			continue
		}
		seen[s.CourseName] = struct{}{}
		courses = append(courses, s.CourseName)
	}
	return courses
}

// ToggleNotes flips the purely local notes-expanded flag for a record.
func (c *Controller) ToggleNotes(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notesOpen[id] = !c.notesOpen[id]
	return c.notesOpen[id]
}

// NotesOpen reports the notes-expanded flag for a record.
func (c *Controller) NotesOpen(id string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.notesOpen[id]
}
