package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/tasjeel-app/tasjeel/internal/models"
)

// NewPostgres builds a store backed by the given database.
func NewPostgres(db *sqlx.DB) *Store {
	return &Store{
		Users:    &postgresUsers{db: db},
		Profiles: &postgresProfiles{db: db},
		Students: &postgresStudents{db: db},
	}
}

type postgresUsers struct {
	db *sqlx.DB
}

func (r *postgresUsers) FindByEmail(ctx context.Context, email string) (*User, error) {
	const query = `SELECT id, email, password_hash, created_at FROM users WHERE email = $1`
	var user User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRowNotFound
		}
		return nil, fmt.Errorf("find user by email: %w", err)
	}
	return &user, nil
}

func (r *postgresUsers) Create(ctx context.Context, user *User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO users (id, email, password_hash, created_at)
        VALUES (:id, :email, :password_hash, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

type postgresProfiles struct {
	db *sqlx.DB
}

func (r *postgresProfiles) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	const query = `SELECT id, first_name, last_name, role FROM profiles WHERE id = $1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRowNotFound
		}
		return nil, fmt.Errorf("find profile: %w", err)
	}
	return &profile, nil
}

func (r *postgresProfiles) Create(ctx context.Context, profile *models.Profile) error {
	const query = `INSERT INTO profiles (id, first_name, last_name, role)
        VALUES (:id, :first_name, :last_name, :role)`
	if _, err := r.db.NamedExecContext(ctx, query, profile); err != nil {
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

type postgresStudents struct {
	db *sqlx.DB
}

const studentColumns = `id, name, id_number, mobile, email, course_name, course_date, age, accepted, notes, icon_type, created_at, updated_at, owner_id`

func (r *postgresStudents) List(ctx context.Context, filters map[string]string) ([]models.Student, error) {
	conditions := []string{"1=1"}
	args := []interface{}{}
	for column, value := range filters {
		if _, ok := StudentFilterColumns[column]; !ok {
			continue
		}
		conditions = append(conditions, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}

	query := fmt.Sprintf("SELECT %s FROM students WHERE %s ORDER BY created_at DESC, id DESC",
		studentColumns, strings.Join(conditions, " AND "))

	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, args...); err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

func (r *postgresStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	query := fmt.Sprintf("SELECT %s FROM students WHERE id = $1", studentColumns)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrRowNotFound
		}
		return nil, fmt.Errorf("find student: %w", err)
	}
	return &student, nil
}

func (r *postgresStudents) Insert(ctx context.Context, student *models.Student) error {
	const query = `INSERT INTO students (id, name, id_number, mobile, email, course_name, course_date, age, accepted, notes, icon_type, created_at, updated_at, owner_id)
        VALUES (:id, :name, :id_number, :mobile, :email, :course_name, :course_date, :age, :accepted, :notes, :icon_type, :created_at, :updated_at, :owner_id)`
	if _, err := r.db.NamedExecContext(ctx, query, student); err != nil {
		return fmt.Errorf("insert student: %w", err)
	}
	return nil
}

func (r *postgresStudents) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Student, error) {
	assignments := []string{}
	args := []interface{}{}
	for column, value := range fields {
		if _, ok := StudentColumns[column]; !ok {
			continue
		}
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}
	if len(assignments) == 0 {
		return r.FindByID(ctx, id)
	}

	assignments = append(assignments, fmt.Sprintf("updated_at = $%d", len(args)+1))
	args = append(args, time.Now().UTC())
	args = append(args, id)

	query := fmt.Sprintf("UPDATE students SET %s WHERE id = $%d", strings.Join(assignments, ", "), len(args))
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update student: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrRowNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *postgresStudents) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM students WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete student: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, nil
	}
	return affected > 0, nil
}
