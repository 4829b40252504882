package classroom

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/Aarth-Web/ss-backend/core"
)

type Classroom struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	TeacherID   string    `json:"teacher"`
	SchoolID    string    `json:"school"`
	StudentIDs  []string  `json:"students"`
	CreatedAt   time.Time `json:"createdAt"` // UTC
	UpdatedAt   time.Time `json:"updatedAt"` // UTC
}

// HasStudent reports whether the student is enrolled.
func (c Classroom) HasStudent(studentID string) bool {
	for _, id := range c.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// NewClassroom contains information needed to create a new Classroom.
type NewClassroom struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	TeacherID   string `json:"teacherId" validate:"required"`
	SchoolID    string `json:"schoolId" validate:"required"`
}

func (nc *NewClassroom) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	nc.TeacherID = core.CleanString(nc.TeacherID)
	nc.SchoolID = core.CleanString(nc.SchoolID)
	return validate.Struct(nc)
}

// UpdateClassroom defines what information may be provided to modify an
// existing Classroom.
type UpdateClassroom struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	TeacherID   string `json:"teacherId"`
}

func (uc *UpdateClassroom) Validate(validate *validator.Validate) error {
	uc.Name = core.CleanString(uc.Name)
	uc.Description = core.CleanString(uc.Description)
	uc.TeacherID = core.CleanString(uc.TeacherID)
	return validate.Struct(uc)
}

// AddStudents carries the student IDs to enroll.
type AddStudents struct {
	StudentIDs []string `json:"studentIds" validate:"required,min=1"`
}

func (as *AddStudents) Validate(validate *validator.Validate) error {
	return validate.Struct(as)
}

// Filter selects classrooms by any combination of the set fields.
type Filter struct {
	TeacherID string
	SchoolID  string
	StudentID string
}
