package store

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/tasjeel-app/tasjeel/internal/models"
)

// NewMemory builds an empty in-memory store.
func NewMemory() *Store {
	return &Store{
		Users:    &memoryUsers{byEmail: make(map[string]User)},
		Profiles: &memoryProfiles{byID: make(map[string]models.Profile)},
		Students: &memoryStudents{byID: make(map[string]models.Student)},
	}
}

type memoryUsers struct {
	mu      sync.RWMutex
	byEmail map[string]User
}

func (m *memoryUsers) FindByEmail(ctx context.Context, email string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.byEmail[email]
	if !ok {
		return nil, ErrRowNotFound
	}
	return &user, nil
}

func (m *memoryUsers) Create(ctx context.Context, user *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	m.byEmail[user.Email] = *user
	return nil
}

type memoryProfiles struct {
	mu   sync.RWMutex
	byID map[string]models.Profile
}

func (m *memoryProfiles) FindByID(ctx context.Context, id string) (*models.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	profile, ok := m.byID[id]
	if !ok {
		return nil, ErrRowNotFound
	}
	return &profile, nil
}

func (m *memoryProfiles) Create(ctx context.Context, profile *models.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[profile.ID] = *profile
	return nil
}

type memoryStudents struct {
	mu   sync.RWMutex
	byID map[string]models.Student
}

func (m *memoryStudents) List(ctx context.Context, filters map[string]string) ([]models.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.Student, 0, len(m.byID))
	for _, s := range m.byID {
		if matchesFilters(s, filters) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func matchesFilters(s models.Student, filters map[string]string) bool {
	for column, value := range filters {
		var actual string
		switch column {
		case "id":
			actual = s.ID
		case "course_name":
			actual = s.CourseName
		case "email":
			actual = s.Email
		case "id_number":
			actual = s.IDNumber
		case "owner_id":
			if s.OwnerID != nil {
				actual = *s.OwnerID
			}
		default:
			return false
		}
		if actual != value {
			return false
		}
	}
	return true
}

func (m *memoryStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	student, ok := m.byID[id]
	if !ok {
		return nil, ErrRowNotFound
	}
	return &student, nil
}

func (m *memoryStudents) Insert(ctx context.Context, student *models.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[student.ID] = *student
	return nil
}

func (m *memoryStudents) Update(ctx context.Context, id string, fields map[string]interface{}) (*models.Student, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	student, ok := m.byID[id]
	if !ok {
		return nil, ErrRowNotFound
	}
	for column, value := range fields {
		applyStudentField(&student, column, value)
	}
	student.UpdatedAt = time.Now().UTC()
	m.byID[id] = student
	return &student, nil
}

func applyStudentField(s *models.Student, column string, value interface{}) {
	str := func() string {
		if v, ok := value.(string); ok {
			return v
		}
		return ""
	}
	switch column {
	case "name":
		s.Name = str()
	case "id_number":
		s.IDNumber = str()
	case "mobile":
		s.Mobile = str()
	case "email":
		s.Email = str()
	case "course_name":
		s.CourseName = str()
	case "age":
		s.Age = str()
	case "course_date":
		if date, err := models.ParseCalendarDate(str()); err == nil {
			s.CourseDate = date
		}
	case "accepted":
		switch v := value.(type) {
		case bool:
			s.Accepted = v
		case string:
			if parsed, err := strconv.ParseBool(v); err == nil {
				s.Accepted = parsed
			}
		}
	case "notes":
		v := str()
		s.Notes = &v
	case "icon_type":
		v := str()
		s.IconType = &v
	}
}

func (m *memoryStudents) Delete(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return false, nil
	}
	delete(m.byID, id)
	return true, nil
}
