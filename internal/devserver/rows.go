package devserver

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tasjeel-app/tasjeel/internal/devserver/store"
	"github.com/tasjeel-app/tasjeel/internal/models"
	"github.com/tasjeel-app/tasjeel/internal/policy"
	appErrors "github.com/tasjeel-app/tasjeel/pkg/errors"
	"github.com/tasjeel-app/tasjeel/pkg/response"
)

var digitsOnly = regexp.MustCompile(`^[0-9]{10}$`)

// rowQuery is the parsed shape of a /rest/v1 request's query string:
// equality filters plus an optional order and limit.
type rowQuery struct {
	filters map[string]string
}

func parseRowQuery(c *gin.Context, allowed map[string]struct{}) (rowQuery, error) {
	q := rowQuery{filters: make(map[string]string)}
	for key, values := range c.Request.URL.Query() {
		if key == "order" || key == "limit" {
			continue
		}
		if len(values) == 0 || !strings.HasPrefix(values[0], "eq.") {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return q, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("cannot filter on column %q", key))
		}
		q.filters[key] = strings.TrimPrefix(values[0], "eq.")
	}
	return q, nil
}

// handleSelect serves reads for a collection. Students are readable by
// any authenticated identity; profiles only by their owner unless the
// caller is an admin.
func (s *Server) handleSelect(c *gin.Context) {
	claims := currentClaims(c)

	switch c.Param("collection") {
	case "students":
		q, err := parseRowQuery(c, store.StudentFilterColumns)
		if err != nil {
			response.Error(c, err)
			return
		}
		students, err := s.store.Students.List(c.Request.Context(), q.filters)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students"))
			return
		}
		if raw := c.Query("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 0 {
				response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a non-negative integer"))
				return
			}
			if limit < len(students) {
				students = students[:limit]
			}
		}
		response.JSON(c, 200, students)

	case "profiles":
		q, err := parseRowQuery(c, map[string]struct{}{"id": {}})
		if err != nil {
			response.Error(c, err)
			return
		}
		id := q.filters["id"]
		if id == "" || (id != claims.Subject && !policy.IsAdmin(claims.Role)) {
			response.Error(c, appErrors.Clone(appErrors.ErrPermissionDenied, "profiles are readable by their owner only"))
			return
		}
		profile, err := s.store.Profiles.FindByID(c.Request.Context(), id)
		if err != nil {
			if errors.Is(err, store.ErrRowNotFound) {
				response.JSON(c, 200, []models.Profile{})
				return
			}
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile"))
			return
		}
		response.JSON(c, 200, []models.Profile{*profile})

	default:
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown collection"))
	}
}

// studentPayload is the insert body. Validation here is authoritative;
// the client's pre-validation is only a UX accelerant.
type studentPayload struct {
	Name       string  `json:"name"`
	IDNumber   string  `json:"id_number"`
	Mobile     string  `json:"mobile"`
	Email      string  `json:"email"`
	CourseName string  `json:"course_name"`
	CourseDate string  `json:"course_date"`
	Age        string  `json:"age"`
	Notes      *string `json:"notes"`
	IconType   *string `json:"icon_type"`
	OwnerID    *string `json:"owner_id"`
}

func (p studentPayload) validate() (models.CalendarDate, error) {
	required := map[string]string{
		"name": p.Name, "id_number": p.IDNumber, "mobile": p.Mobile,
		"email": p.Email, "course_name": p.CourseName,
		"course_date": p.CourseDate, "age": p.Age,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			return models.CalendarDate{}, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s is required", field))
		}
	}
	if !digitsOnly.MatchString(p.IDNumber) {
		return models.CalendarDate{}, appErrors.Clone(appErrors.ErrValidation, "id_number must be exactly 10 digits")
	}
	if !digitsOnly.MatchString(p.Mobile) {
		return models.CalendarDate{}, appErrors.Clone(appErrors.ErrValidation, "mobile must be exactly 10 digits")
	}
	if !emailShape.MatchString(p.Email) {
		return models.CalendarDate{}, appErrors.Clone(appErrors.ErrValidation, "invalid email address")
	}
	date, err := models.ParseCalendarDate(p.CourseDate)
	if err != nil {
		return models.CalendarDate{}, appErrors.Clone(appErrors.ErrValidation, "course_date must be YYYY-MM-DD")
	}
	return date, nil
}

func (s *Server) handleInsert(c *gin.Context) {
	claims := currentClaims(c)

	if c.Param("collection") != "students" {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown collection"))
		return
	}
	if !policy.Can(claims.Role, policy.CapCreate) {
		response.Error(c, appErrors.Clone(appErrors.ErrPermissionDenied, "creating students requires a teacher or admin role"))
		return
	}

	var payload studentPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	date, err := payload.validate()
	if err != nil {
		response.Error(c, err)
		return
	}

	owner := claims.Subject
	if payload.OwnerID != nil && *payload.OwnerID != "" {
		owner = *payload.OwnerID
	}

	now := time.Now().UTC()
	student := &models.Student{
		ID:         uuid.NewString(),
		Name:       payload.Name,
		IDNumber:   payload.IDNumber,
		Mobile:     payload.Mobile,
		Email:      payload.Email,
		CourseName: payload.CourseName,
		CourseDate: date,
		Age:        payload.Age,
		Accepted:   false,
		Notes:      payload.Notes,
		IconType:   payload.IconType,
		CreatedAt:  now,
		UpdatedAt:  now,
		OwnerID:    &owner,
	}
	if err := s.store.Students.Insert(c.Request.Context(), student); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert student"))
		return
	}
	response.Created(c, student)
}

func (s *Server) handleUpdate(c *gin.Context) {
	claims := currentClaims(c)

	if c.Param("collection") != "students" {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown collection"))
		return
	}
	if !policy.Can(claims.Role, policy.CapUpdate) {
		response.Error(c, appErrors.Clone(appErrors.ErrPermissionDenied, "updating students requires a teacher or admin role"))
		return
	}

	q, err := parseRowQuery(c, store.StudentFilterColumns)
	if err != nil {
		response.Error(c, err)
		return
	}
	id := q.filters["id"]
	if id == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "updates must target one id"))
		return
	}

	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payload"))
		return
	}
	if err := validatePatch(fields); err != nil {
		response.Error(c, err)
		return
	}

	student, err := s.store.Students.Update(c.Request.Context(), id, fields)
	if err != nil {
		if errors.Is(err, store.ErrRowNotFound) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "student not found"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student"))
		return
	}
	response.JSON(c, 200, student)
}

// validatePatch applies the same constraints as insert, but only to the
// columns actually present in the patch.
func validatePatch(fields map[string]interface{}) error {
	for column := range fields {
		if _, ok := store.StudentColumns[column]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("cannot update column %q", column))
		}
	}
	for _, column := range []string{"id_number", "mobile"} {
		if raw, ok := fields[column]; ok {
			value, _ := raw.(string)
			if !digitsOnly.MatchString(value) {
				return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s must be exactly 10 digits", column))
			}
		}
	}
	if raw, ok := fields["email"]; ok {
		value, _ := raw.(string)
		if !emailShape.MatchString(value) {
			return appErrors.Clone(appErrors.ErrValidation, "invalid email address")
		}
	}
	if raw, ok := fields["course_date"]; ok {
		value, _ := raw.(string)
		if _, err := models.ParseCalendarDate(value); err != nil {
			return appErrors.Clone(appErrors.ErrValidation, "course_date must be YYYY-MM-DD")
		}
	}
	return nil
}

// handleDelete removes matching students. Deleting an id that is
// already gone still answers 204: the outcome the caller asked for
// holds either way.
func (s *Server) handleDelete(c *gin.Context) {
	claims := currentClaims(c)

	if c.Param("collection") != "students" {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "unknown collection"))
		return
	}
	if !policy.Can(claims.Role, policy.CapDelete) {
		response.Error(c, appErrors.Clone(appErrors.ErrPermissionDenied, "deleting students requires an admin role"))
		return
	}

	q, err := parseRowQuery(c, store.StudentFilterColumns)
	if err != nil {
		response.Error(c, err)
		return
	}
	id := q.filters["id"]
	if id == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "deletes must target one id"))
		return
	}

	if _, err := s.store.Students.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete student"))
		return
	}
	response.NoContent(c)
}
