// Package store persists the development backend's collections. Two
// implementations exist: an in-memory store for tests and zero-setup
// development, and a Postgres store for a durable setup.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/tasjeel-app/tasjeel/internal/models"
)

// ErrRowNotFound reports an absent row. The HTTP layer maps it to the
// NOT_FOUND envelope code.
var ErrRowNotFound = errors.New("store: row not found")

// User is an auth account. Profiles carry the application attributes;
// users only authenticate.
type User struct {
	ID           string    `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
}

// Users persists auth accounts.
type Users interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) error
}

// Profiles persists the one-per-identity profile rows.
type Profiles interface {
	FindByID(ctx context.Context, id string) (*models.Profile, error)
	Create(ctx context.Context, profile *models.Profile) error
}

// StudentColumns lists the patchable student columns; anything else in
// a patch is rejected before it reaches the store.
var StudentColumns = map[string]struct{}{
	"name": {}, "id_number": {}, "mobile": {}, "email": {},
	"course_name": {}, "course_date": {}, "age": {},
	"accepted": {}, "notes": {}, "icon_type": {},
}

// StudentFilterColumns lists the columns equality filters may target.
var StudentFilterColumns = map[string]struct{}{
	"id": {}, "course_name": {}, "owner_id": {}, "email": {}, "id_number": {},
}

// Students persists the shared roster. List always returns rows newest
// first; Delete reports whether a row was actually removed.
type Students interface {
	List(ctx context.Context, filters map[string]string) ([]models.Student, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	Insert(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Student, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// Store bundles the three collections.
type Store struct {
	Users    Users
	Profiles Profiles
	Students Students
}
