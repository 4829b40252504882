package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Aarth-Web/ss-backend/core"
	"github.com/Aarth-Web/ss-backend/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

// query does no locking itself; callers must hold repo.db.mu.
func (repo *attendanceRepository) query() []attendance.Record {
	records := make([]attendance.Record, 0, len(repo.db.records))
	for _, rec := range repo.db.records {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Date.After(records[j].Date) })
	return records
}

func (repo *attendanceRepository) CreateRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	rec.ID = uuid.New().String()
	repo.db.records[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) GetRecordByID(_ context.Context, id string) (attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if rec, ok := repo.db.records[id]; ok {
		return *rec, nil
	}
	return attendance.Record{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) FilterRecords(_ context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var matches []attendance.Record
	for _, rec := range repo.query() {
		if filter.ClassroomID != "" && rec.ClassroomID != filter.ClassroomID {
			continue
		}
		if !filter.StartDate.IsZero() && rec.Date.Before(filter.StartDate) {
			continue
		}
		if !filter.EndDate.IsZero() && rec.Date.After(filter.EndDate) {
			continue
		}
		if filter.StudentID != "" && !hasEntry(rec, filter.StudentID) {
			continue
		}
		matches = append(matches, rec)
	}
	return matches, nil
}

func hasEntry(rec attendance.Record, studentID string) bool {
	for _, e := range rec.Entries {
		if e.StudentID == studentID {
			return true
		}
	}
	return false
}

func (repo *attendanceRepository) QueryClassroomRecords(_ context.Context, classroomID string, page core.Page) ([]attendance.Record, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var matches []attendance.Record
	for _, rec := range repo.query() {
		if rec.ClassroomID == classroomID {
			matches = append(matches, rec)
		}
	}
	return paginate(matches, page), len(matches), nil
}

func (repo *attendanceRepository) UpdateRecord(_ context.Context, rec attendance.Record) (attendance.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.records[rec.ID]
	if !ok {
		return attendance.Record{}, attendance.ErrNotFound
	}
	rec.SMSSent = orig.SMSSent
	rec.NotifiedStudentIDs = orig.NotifiedStudentIDs
	repo.db.records[rec.ID] = &rec
	return rec, nil
}

func (repo *attendanceRepository) MarkNotified(_ context.Context, id string, studentIDs []string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	rec, ok := repo.db.records[id]
	if !ok {
		return attendance.ErrNotFound
	}
	rec.SMSSent = true
	rec.NotifiedStudentIDs = studentIDs
	rec.UpdatedAt = time.Now().UTC()
	return nil
}

func (repo *attendanceRepository) DeleteRecordByID(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.records[id]; !ok {
		return attendance.ErrNotFound
	}
	delete(repo.db.records, id)
	return nil
}
