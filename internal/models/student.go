package models

import "time"

// Student is the managed resource: a registration in the shared roster.
// The canonical copy lives remotely; the client's copy is a cache
// replaced on every successful mutation or full reload.
type Student struct {
	ID         string       `json:"id" db:"id"`
	Name       string       `json:"name" db:"name"`
	IDNumber   string       `json:"id_number" db:"id_number"`
	Mobile     string       `json:"mobile" db:"mobile"`
	Email      string       `json:"email" db:"email"`
	CourseName string       `json:"course_name" db:"course_name"`
	CourseDate CalendarDate `json:"course_date" db:"course_date"`
	Age        string       `json:"age" db:"age"`
	Accepted   bool         `json:"accepted" db:"accepted"`
	Notes      *string      `json:"notes" db:"notes"`
	IconType   *string      `json:"icon_type" db:"icon_type"`
	CreatedAt  time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at" db:"updated_at"`
	OwnerID    *string      `json:"owner_id" db:"owner_id"`
}

// StudentInput is a validated candidate record for insertion. The id,
// timestamps and owner reference are assigned elsewhere.
type StudentInput struct {
	Name       string       `json:"name"`
	IDNumber   string       `json:"id_number"`
	Mobile     string       `json:"mobile"`
	Email      string       `json:"email"`
	CourseName string       `json:"course_name"`
	CourseDate CalendarDate `json:"course_date"`
	Age        string       `json:"age"`
	Notes      *string      `json:"notes,omitempty"`
	IconType   *string      `json:"icon_type,omitempty"`
}

// StudentPatch is a partial update: only set fields reach the remote
// store, everything else keeps its current value.
type StudentPatch struct {
	Name       *string       `json:"name,omitempty"`
	IDNumber   *string       `json:"id_number,omitempty"`
	Mobile     *string       `json:"mobile,omitempty"`
	Email      *string       `json:"email,omitempty"`
	CourseName *string       `json:"course_name,omitempty"`
	CourseDate *CalendarDate `json:"course_date,omitempty"`
	Age        *string       `json:"age,omitempty"`
	Accepted   *bool         `json:"accepted,omitempty"`
	Notes      *string       `json:"notes,omitempty"`
	IconType   *string       `json:"icon_type,omitempty"`
}

// Fields flattens the patch into the column map sent to the row store.
func (p StudentPatch) Fields() map[string]interface{} {
	fields := make(map[string]interface{})
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	if p.IDNumber != nil {
		fields["id_number"] = *p.IDNumber
	}
	if p.Mobile != nil {
		fields["mobile"] = *p.Mobile
	}
	if p.Email != nil {
		fields["email"] = *p.Email
	}
	if p.CourseName != nil {
		fields["course_name"] = *p.CourseName
	}
	if p.CourseDate != nil {
		fields["course_date"] = p.CourseDate.String()
	}
	if p.Age != nil {
		fields["age"] = *p.Age
	}
	if p.Accepted != nil {
		fields["accepted"] = *p.Accepted
	}
	if p.Notes != nil {
		fields["notes"] = *p.Notes
	}
	if p.IconType != nil {
		fields["icon_type"] = *p.IconType
	}
	return fields
}

// IconTags are the decorative tags a new registration may be stamped
// with when the caller does not supply one.
var IconTags = []string{"user", "user-round", "user-plus", "book-open", "mail", "phone", "id-card"}
