package attendance

import (
	"database/sql/driver"
	"encoding/json"
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/Aarth-Web/ss-backend/core"
)

// SMS status strings returned on mark/update responses. Advisory only, the
// notification pipeline reports progress via logs and metrics.
const (
	SMSStatusProcessing = "SMS notifications are being processed in the background"
	SMSStatusNone       = "No SMS notifications requested"
)

// Entry is a single student's presence mark within a record.
type Entry struct {
	StudentID string `json:"student" validate:"required"`
	Present   bool   `json:"present"`
}

// Entries is stored as a single JSONB document.
type Entries []Entry

func (e Entries) Value() (driver.Value, error) {
	b, err := json.Marshal(e)
	return b, errors.Wrap(err, "marshaling attendance entries")
}

func (e *Entries) Scan(src interface{}) error {
	if src == nil {
		return nil
	}
	b, ok := src.([]byte)
	if !ok {
		return errors.New("scanning attendance entries: unsupported source type")
	}
	return errors.Wrap(json.Unmarshal(b, e), "unmarshaling attendance entries")
}

type Record struct {
	ID                 string    `json:"id"`
	ClassroomID        string    `json:"classroom"`
	Date               time.Time `json:"date"`
	Entries            Entries   `json:"records"`
	SMSSent            bool      `json:"smsSent"`
	NotifiedStudentIDs []string  `json:"smsNotifiedStudents"`
	CreatedAt          time.Time `json:"createdAt"` // UTC
	UpdatedAt          time.Time `json:"updatedAt"` // UTC
}

// Absentees returns the student IDs marked not present.
func (r Record) Absentees() []string {
	var ids []string
	for _, e := range r.Entries {
		if !e.Present {
			ids = append(ids, e.StudentID)
		}
	}
	return ids
}

// Stats summarizes a record's own entries.
type Stats struct {
	TotalStudents   int     `json:"totalStudents"`
	PresentStudents int     `json:"presentStudents"`
	AbsentStudents  int     `json:"absentStudents"`
	AttendanceRate  float64 `json:"attendanceRate"`
}

// Stats computes presence counts and the attendance rate rounded to two
// decimal places; the rate is 0 for an empty record.
func (r Record) Stats() Stats {
	total := len(r.Entries)
	var present int
	for _, e := range r.Entries {
		if e.Present {
			present++
		}
	}
	var rate float64
	if total > 0 {
		rate = math.Round(float64(present)/float64(total)*100*100) / 100
	}
	return Stats{
		TotalStudents:   total,
		PresentStudents: present,
		AbsentStudents:  total - present,
		AttendanceRate:  rate,
	}
}

// RecordResponse decorates a record with the advisory SMS status.
type RecordResponse struct {
	Record
	SMSStatus string `json:"smsStatus"`
}

// AnnotatedRecord decorates a record with its statistics.
type AnnotatedRecord struct {
	Record
	Statistics Stats `json:"statistics"`
}

// ClassroomRecords is a stats-annotated page of a classroom's records.
type ClassroomRecords struct {
	Data []AnnotatedRecord `json:"data"`
	Meta core.PageMeta     `json:"meta"`
}

// NewRecord contains information needed to mark attendance.
type NewRecord struct {
	ClassroomID        string   `json:"classroomId" validate:"required"`
	Date               string   `json:"date" validate:"required"`
	Records            []Entry  `json:"records" validate:"required,dive"`
	SendSMSTo          []string `json:"sendSmsTo"`
	SendSMSToAllAbsent bool     `json:"sendSmsToAllAbsent"`
}

func (nr *NewRecord) Validate(validate *validator.Validate) error {
	nr.ClassroomID = core.CleanString(nr.ClassroomID)
	nr.Date = core.CleanString(nr.Date)
	return validate.Struct(nr)
}

// UpdateRecord defines what may be changed on an existing record. A new
// notification round can be requested alongside the changes.
type UpdateRecord struct {
	Date               string   `json:"date"`
	Records            []Entry  `json:"records" validate:"omitempty,dive"`
	SendSMSTo          []string `json:"sendSmsTo"`
	SendSMSToAllAbsent bool     `json:"sendSmsToAllAbsent"`
}

func (ur *UpdateRecord) Validate(validate *validator.Validate) error {
	ur.Date = core.CleanString(ur.Date)
	return validate.Struct(ur)
}

// GetQuery filters attendance listings.
type GetQuery struct {
	ClassroomID string `query:"classroomId"`
	StudentID   string `query:"studentId"`
	StartDate   string `query:"startDate"`
	EndDate     string `query:"endDate"`
}

// Filter is the repository-level filter derived from a GetQuery.
type Filter struct {
	ClassroomID string
	StudentID   string
	StartDate   time.Time
	EndDate     time.Time
}
