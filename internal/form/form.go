// Package form performs client-side pre-validation of a candidate
// student record. The remote store re-validates everything; this layer
// exists so the user gets field-scoped feedback without a round trip.
package form

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/tasjeel-app/tasjeel/internal/models"
)

// Field names, shared with the rendering layer for error display.
const (
	FieldName       = "name"
	FieldIDNumber   = "id_number"
	FieldMobile     = "mobile"
	FieldEmail      = "email"
	FieldCourseName = "course_name"
	FieldCourseDate = "course_date"
	FieldAge        = "age"
	FieldNotes      = "notes"
)

const digitFieldLimit = 10

// Basic address shape: something, an @, something, a dot, something.
var emailShape = regexp.MustCompile(`^\S+@\S+\.\S+$`)

var digitsOnly = regexp.MustCompile(`^[0-9]*$`)

// candidate mirrors the form fields for struct validation.
type candidate struct {
	Name       string `validate:"required"`
	IDNumber   string `validate:"required,len=10,digitstring"`
	Mobile     string `validate:"required,len=10,digitstring"`
	Email      string `validate:"required,emailshape"`
	CourseName string `validate:"required"`
	CourseDate string `validate:"required,calendardate"`
	Age        string `validate:"required"`
}

var structFieldNames = map[string]string{
	"Name":       FieldName,
	"IDNumber":   FieldIDNumber,
	"Mobile":     FieldMobile,
	"Email":      FieldEmail,
	"CourseName": FieldCourseName,
	"CourseDate": FieldCourseDate,
	"Age":        FieldAge,
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("digitstring", func(fl validator.FieldLevel) bool {
		return digitsOnly.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		return emailShape.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("calendardate", func(fl validator.FieldLevel) bool {
		_, err := models.ParseCalendarDate(fl.Field().String())
		return err == nil
	})
	return v
}

// StudentForm accumulates raw field input, filters it at entry and
// validates it on submit. Error state is keyed by field name; editing a
// field clears its prior error.
type StudentForm struct {
	validate *validator.Validate
	values   map[string]string
	errors   map[string]string
}

// NewStudentForm returns an empty form.
func NewStudentForm() *StudentForm {
	return &StudentForm{
		validate: newValidator(),
		values:   make(map[string]string),
		errors:   make(map[string]string),
	}
}

// Set stores a field value. For the digit-only fields the input itself
// is filtered: anything that would exceed ten characters or introduce a
// non-digit is rejected at entry, not only at submit. Returns false
// when the input was rejected.
func (f *StudentForm) Set(field, value string) bool {
	if field == FieldIDNumber || field == FieldMobile {
		if len(value) > digitFieldLimit || !digitsOnly.MatchString(value) {
			return false
		}
	}
	f.values[field] = value
	delete(f.errors, field)
	return true
}

// Value returns the current raw value of a field.
func (f *StudentForm) Value(field string) string {
	return f.values[field]
}

// Error returns the current error message for a field, if any.
func (f *StudentForm) Error(field string) string {
	return f.errors[field]
}

// Errors returns a copy of the field error map.
func (f *StudentForm) Errors() map[string]string {
	out := make(map[string]string, len(f.errors))
	for k, v := range f.errors {
		out[k] = v
	}
	return out
}

// Validate checks every rule and returns the typed candidate record
// when the form is clean. On failure the field error map is populated
// and ok is false.
func (f *StudentForm) Validate() (models.StudentInput, bool) {
	f.errors = make(map[string]string)

	c := candidate{
		Name:       strings.TrimSpace(f.values[FieldName]),
		IDNumber:   strings.TrimSpace(f.values[FieldIDNumber]),
		Mobile:     strings.TrimSpace(f.values[FieldMobile]),
		Email:      strings.TrimSpace(f.values[FieldEmail]),
		CourseName: strings.TrimSpace(f.values[FieldCourseName]),
		CourseDate: strings.TrimSpace(f.values[FieldCourseDate]),
		Age:        strings.TrimSpace(f.values[FieldAge]),
	}

	if err := f.validate.Struct(c); err != nil {
		var invalid validator.ValidationErrors
		if ok := asValidationErrors(err, &invalid); ok {
			for _, fieldErr := range invalid {
				name := structFieldNames[fieldErr.StructField()]
				if _, seen := f.errors[name]; seen {
					continue
				}
				f.errors[name] = messageFor(name, fieldErr.Tag())
			}
		} else {
			f.errors[FieldName] = "validation failed"
		}
		return models.StudentInput{}, false
	}

	date, _ := models.ParseCalendarDate(c.CourseDate)
	input := models.StudentInput{
		Name:       c.Name,
		IDNumber:   c.IDNumber,
		Mobile:     c.Mobile,
		Email:      c.Email,
		CourseName: c.CourseName,
		CourseDate: date,
		Age:        c.Age,
	}
	if notes := strings.TrimSpace(f.values[FieldNotes]); notes != "" {
		input.Notes = &notes
	}
	return input, true
}

// Reset clears all values and errors, ready for the next registration.
func (f *StudentForm) Reset() {
	f.values = make(map[string]string)
	f.errors = make(map[string]string)
}

func asValidationErrors(err error, target *validator.ValidationErrors) bool {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return false
	}
	*target = ve
	return true
}

func messageFor(field, tag string) string {
	switch tag {
	case "required":
		return "this field is required"
	case "len":
		switch field {
		case FieldIDNumber:
			return "ID number must be 10 digits"
		case FieldMobile:
			return "mobile number must be 10 digits"
		}
		return "wrong length"
	case "digitstring":
		switch field {
		case FieldIDNumber:
			return "ID number must contain only digits"
		case FieldMobile:
			return "mobile number must contain only digits"
		}
		return "must contain only digits"
	case "emailshape":
		return "invalid email address"
	case "calendardate":
		return "invalid date"
	}
	return "invalid value"
}
