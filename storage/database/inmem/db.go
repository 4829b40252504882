package inmemdb

import (
	"sync"

	"github.com/Aarth-Web/ss-backend/core"
	"github.com/Aarth-Web/ss-backend/core/attendance"
	"github.com/Aarth-Web/ss-backend/core/classroom"
	"github.com/Aarth-Web/ss-backend/core/reading"
	"github.com/Aarth-Web/ss-backend/core/school"
	"github.com/Aarth-Web/ss-backend/core/user"
)

// DB is an in-memory store backing the repositories used in tests and local
// tooling.
type DB struct {
	mu          sync.RWMutex
	users       map[string]*user.User
	schools     map[string]*school.School
	classrooms  map[string]*classroom.Classroom
	records     map[string]*attendance.Record
	paragraphs  map[string]*reading.Paragraph
	assignments map[string]*reading.Assignment
	completions map[string]*reading.Completion
}

func NewDB() *DB {
	return &DB{
		users:       make(map[string]*user.User),
		schools:     make(map[string]*school.School),
		classrooms:  make(map[string]*classroom.Classroom),
		records:     make(map[string]*attendance.Record),
		paragraphs:  make(map[string]*reading.Paragraph),
		assignments: make(map[string]*reading.Assignment),
		completions: make(map[string]*reading.Completion),
	}
}

func paginate[T any](items []T, page core.Page) []T {
	page.Clean()
	start := page.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + page.Limit
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}
