// Package repository is the client-side abstraction over the remote
// collections. Capability checks happen here, before any network I/O;
// the remote store enforces the same rules again at its own boundary.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"

	"go.uber.org/zap"

	"github.com/tasjeel-app/tasjeel/internal/models"
	"github.com/tasjeel-app/tasjeel/internal/policy"
	"github.com/tasjeel-app/tasjeel/internal/remote"
	appErrors "github.com/tasjeel-app/tasjeel/pkg/errors"
)

const studentsCollection = "students"

// rowStore is the slice of the remote row client the repository needs.
type rowStore interface {
	Select(ctx context.Context, collection string, q remote.Query) ([]json.RawMessage, error)
	SelectOne(ctx context.Context, collection string, q remote.Query) (json.RawMessage, error)
	Insert(ctx context.Context, collection string, row interface{}) (json.RawMessage, error)
	Update(ctx context.Context, collection string, q remote.Query, fields map[string]interface{}) (json.RawMessage, error)
	Delete(ctx context.Context, collection string, q remote.Query) error
}

// actingSession exposes the identity and role the repository acts under.
type actingSession interface {
	Identity() *models.Identity
	Role() models.Role
}

// Students performs CRUD against the remote student collection.
type Students struct {
	rows    rowStore
	session actingSession
	logger  *zap.Logger
}

// NewStudents constructs the repository.
func NewStudents(rows rowStore, session actingSession, logger *zap.Logger) *Students {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Students{rows: rows, session: session, logger: logger}
}

// List returns every student, newest first. The order is fixed; an
// empty collection is a valid result.
func (r *Students) List(ctx context.Context) ([]models.Student, error) {
	rows, err := r.rows.Select(ctx, studentsCollection, remote.Query{OrderBy: "created_at", Descending: true})
	if err != nil {
		return nil, err
	}
	students := make([]models.Student, 0, len(rows))
	for _, raw := range rows {
		var student models.Student
		if err := json.Unmarshal(raw, &student); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrFetch.Code, appErrors.ErrFetch.Status, "decode student")
		}
		students = append(students, student)
	}
	return students, nil
}

// GetByID returns one student, or NotFound when the id is absent.
// Absence is distinct from a transport failure.
func (r *Students) GetByID(ctx context.Context, id string) (*models.Student, error) {
	raw, err := r.rows.SelectOne(ctx, studentsCollection, remote.Eq("id", id))
	if err != nil {
		return nil, err
	}
	var student models.Student
	if err := json.Unmarshal(raw, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetch.Code, appErrors.ErrFetch.Status, "decode student")
	}
	return &student, nil
}

type insertRow struct {
	models.StudentInput
	OwnerID *string `json:"owner_id,omitempty"`
}

// Insert writes a new registration and returns the canonical
// server-assigned record. The acting identity becomes the owner; a
// missing icon tag gets a random one.
func (r *Students) Insert(ctx context.Context, candidate models.StudentInput) (*models.Student, error) {
	if !policy.Can(r.session.Role(), policy.CapCreate) {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "creating students requires a teacher or admin role")
	}

	if candidate.IconType == nil {
		tag := models.IconTags[rand.Intn(len(models.IconTags))]
		candidate.IconType = &tag
	}

	row := insertRow{StudentInput: candidate}
	if identity := r.session.Identity(); identity != nil {
		row.OwnerID = &identity.ID
	}

	raw, err := r.rows.Insert(ctx, studentsCollection, row)
	if err != nil {
		return nil, err
	}
	var student models.Student
	if err := json.Unmarshal(raw, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetch.Code, appErrors.ErrFetch.Status, "decode inserted student")
	}
	return &student, nil
}

// Update patches the supplied fields only and returns the canonical
// post-update record. An empty patch reads back the current record.
func (r *Students) Update(ctx context.Context, id string, patch models.StudentPatch) (*models.Student, error) {
	if !policy.Can(r.session.Role(), policy.CapUpdate) {
		return nil, appErrors.Clone(appErrors.ErrPermissionDenied, "updating students requires a teacher or admin role")
	}

	fields := patch.Fields()
	if len(fields) == 0 {
		return r.GetByID(ctx, id)
	}

	raw, err := r.rows.Update(ctx, studentsCollection, remote.Eq("id", id), fields)
	if err != nil {
		return nil, err
	}
	var student models.Student
	if err := json.Unmarshal(raw, &student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrFetch.Code, appErrors.ErrFetch.Status, "decode updated student")
	}
	return &student, nil
}

// SetAccepted toggles the accepted flag through a partial patch.
func (r *Students) SetAccepted(ctx context.Context, id string, accepted bool) (*models.Student, error) {
	return r.Update(ctx, id, models.StudentPatch{Accepted: &accepted})
}

// Delete removes a registration. It is idempotent from the caller's
// perspective: deleting an id that is already gone succeeds, which
// keeps concurrent deletes from surfacing spurious failures.
func (r *Students) Delete(ctx context.Context, id string) error {
	if !policy.Can(r.session.Role(), policy.CapDelete) {
		return appErrors.Clone(appErrors.ErrPermissionDenied, "deleting students requires an admin role")
	}

	if err := r.rows.Delete(ctx, studentsCollection, remote.Eq("id", id)); err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil
		}
		return err
	}
	return nil
}
