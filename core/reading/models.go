package reading

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"

	"github.com/Aarth-Web/ss-backend/core"
)

// Paragraph difficulty levels.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// Assignment target types.
const (
	AssignmentIndividual = "individual"
	AssignmentClassroom  = "classroom"
)

// Assignment statuses as seen by a student.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusOverdue   = "overdue"
)

type Paragraph struct {
	ID         string         `json:"id"`
	Title      string         `json:"title"`
	Content    string         `json:"content"`
	Difficulty string         `json:"difficulty"`
	Keywords   pq.StringArray `json:"keywords,omitempty"`
	IsActive   bool           `json:"isActive"`
	SchoolID   string         `json:"school"`
	CreatedBy  string         `json:"createdBy"`
	CreatedAt  time.Time      `json:"createdAt"` // UTC
	UpdatedAt  time.Time      `json:"updatedAt"` // UTC
}

// NewParagraph contains information needed to create a reading paragraph.
type NewParagraph struct {
	Title      string   `json:"title" validate:"required"`
	Content    string   `json:"content" validate:"required"`
	Difficulty string   `json:"difficulty" validate:"required,oneof=beginner intermediate advanced"`
	Keywords   []string `json:"keywords"`
}

func (np *NewParagraph) Validate(validate *validator.Validate) error {
	np.Title = core.CleanString(np.Title)
	np.Content = core.CleanString(np.Content)
	np.Difficulty = core.CleanString(np.Difficulty, true /* lower */)
	return validate.Struct(np)
}

// UpdateParagraph defines what may be changed on an existing paragraph.
type UpdateParagraph struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	Difficulty string   `json:"difficulty" validate:"omitempty,oneof=beginner intermediate advanced"`
	Keywords   []string `json:"keywords"`
	IsActive   *bool    `json:"isActive"`
}

func (up *UpdateParagraph) Validate(validate *validator.Validate) error {
	up.Title = core.CleanString(up.Title)
	up.Content = core.CleanString(up.Content)
	up.Difficulty = core.CleanString(up.Difficulty, true /* lower */)
	return validate.Struct(up)
}

// ParagraphQuery filters paragraph listings.
type ParagraphQuery struct {
	Difficulty string `query:"difficulty"`
	Search     string `query:"search"`
	IsActive   *bool  `query:"isActive"`
	Page       core.Page
}

// ParagraphFilter is the repository-level filter derived from a query plus
// the actor's visibility scope.
type ParagraphFilter struct {
	SchoolID   string
	CreatedBy  string
	Difficulty string
	// Search matches title, content or keywords case-insensitively.
	Search   string
	IsActive *bool
	Page     core.Page
}

type Assignment struct {
	ID          string         `json:"id"`
	Title       string         `json:"title"`
	Description string         `json:"description,omitempty"`
	ParagraphID string         `json:"paragraph"`
	TeacherID   string         `json:"teacher"`
	Type        string         `json:"type"`
	StudentIDs  pq.StringArray `json:"students,omitempty"`
	ClassroomID string         `json:"classroom,omitempty"`
	DueDate     *time.Time     `json:"dueDate,omitempty"`
	IsActive    bool           `json:"isActive"`
	CreatedAt   time.Time      `json:"createdAt"` // UTC
	UpdatedAt   time.Time      `json:"updatedAt"` // UTC
}

// Targeted reports whether the assignment directly targets the student.
// Classroom assignments resolve enrollment separately.
func (a Assignment) Targeted(studentID string) bool {
	for _, id := range a.StudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// Status derives the student-facing status from their completion and the due
// date.
func (a Assignment) Status(completed bool, now time.Time) string {
	if completed {
		return StatusCompleted
	}
	if a.DueDate != nil && a.DueDate.Before(now) {
		return StatusOverdue
	}
	return StatusPending
}

// NewAssignment contains information needed to create an assignment.
type NewAssignment struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	ParagraphID string   `json:"paragraphId" validate:"required"`
	Type        string   `json:"type" validate:"required,oneof=individual classroom"`
	StudentIDs  []string `json:"studentIds"`
	ClassroomID string   `json:"classroomId"`
	DueDate     string   `json:"dueDate"`
}

func (na *NewAssignment) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.ParagraphID = core.CleanString(na.ParagraphID)
	na.Type = core.CleanString(na.Type, true /* lower */)
	na.ClassroomID = core.CleanString(na.ClassroomID)
	na.DueDate = core.CleanString(na.DueDate)
	return validate.Struct(na)
}

type Completion struct {
	ID              string    `json:"id"`
	AssignmentID    string    `json:"assignment"`
	StudentID       string    `json:"student"`
	CompletedAt     time.Time `json:"completedAt"`
	ReadingDuration int       `json:"readingDuration,omitempty"` // seconds
	SelfRating      int       `json:"selfRating,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	AttemptCount    int       `json:"attemptCount"`
	TeacherRating   int       `json:"teacherRating,omitempty"`
	TeacherFeedback string    `json:"teacherFeedback,omitempty"`
	CreatedAt       time.Time `json:"createdAt"` // UTC
	UpdatedAt       time.Time `json:"updatedAt"` // UTC
}

// CompleteAssignment is a student's completion report.
type CompleteAssignment struct {
	ReadingDuration int    `json:"readingDuration" validate:"omitempty,min=0"`
	SelfRating      int    `json:"selfRating" validate:"omitempty,min=1,max=5"`
	Notes           string `json:"notes"`
}

func (ca *CompleteAssignment) Validate(validate *validator.Validate) error {
	ca.Notes = core.CleanString(ca.Notes)
	return validate.Struct(ca)
}

// TeacherFeedback is a teacher's review of a completion.
type TeacherFeedback struct {
	TeacherRating   int    `json:"teacherRating" validate:"omitempty,min=1,max=5"`
	TeacherFeedback string `json:"teacherFeedback"`
}

func (tf *TeacherFeedback) Validate(validate *validator.Validate) error {
	tf.TeacherFeedback = core.CleanString(tf.TeacherFeedback)
	return validate.Struct(tf)
}

// StudentAssignment is an assignment as seen by a student.
type StudentAssignment struct {
	Assignment
	Status     string      `json:"status"`
	Completion *Completion `json:"completion,omitempty"`
}

// CompletionStats summarizes completion progress on an assignment.
type CompletionStats struct {
	Completed  int     `json:"completed"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
}

// NewCompletionStats rounds the percentage to the nearest integer; it is 0
// when there are no expected students.
func NewCompletionStats(completed, total int) CompletionStats {
	var pct float64
	if total > 0 {
		pct = math.Round(float64(completed) / float64(total) * 100)
	}
	return CompletionStats{Completed: completed, Total: total, Percentage: pct}
}

// TeacherAssignment is an assignment as seen by its teacher.
type TeacherAssignment struct {
	Assignment
	CompletionStats CompletionStats `json:"completionStats"`
}

// AssignmentDetail is the full teacher view of a single assignment.
type AssignmentDetail struct {
	Assignment
	Completions []Completion `json:"completions"`
}
