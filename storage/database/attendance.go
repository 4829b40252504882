package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Aarth-Web/ss-backend/core"
	"github.com/Aarth-Web/ss-backend/core/attendance"
)

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil)

func NewAttendanceRepository(db *sqlx.DB) attendance.Repository {
	return &attendanceRepository{db: db}
}

type attendanceRow struct {
	ID                 string             `db:"id"`
	ClassroomID        string             `db:"classroom_id"`
	Date               sql.NullTime       `db:"date"`
	Entries            attendance.Entries `db:"entries"`
	SMSSent            bool               `db:"sms_sent"`
	NotifiedStudentIDs pq.StringArray     `db:"notified_student_ids"`
	CreatedAt          sql.NullTime       `db:"created_at"`
	UpdatedAt          sql.NullTime       `db:"updated_at"`
}

func (r attendanceRow) toRecord() attendance.Record {
	return attendance.Record{
		ID:                 r.ID,
		ClassroomID:        r.ClassroomID,
		Date:               r.Date.Time,
		Entries:            r.Entries,
		SMSSent:            r.SMSSent,
		NotifiedStudentIDs: r.NotifiedStudentIDs,
		CreatedAt:          r.CreatedAt.Time,
		UpdatedAt:          r.UpdatedAt.Time,
	}
}

const attendanceColumns = `id, classroom_id, date, entries, sms_sent, notified_student_ids, created_at, updated_at`

func (repo *attendanceRepository) CreateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	rec.ID = uuid.New().String()
	const q = `
		INSERT INTO attendance_records (` + attendanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, q,
		rec.ID, rec.ClassroomID, rec.Date, rec.Entries, rec.SMSSent,
		pq.StringArray(rec.NotifiedStudentIDs), rec.CreatedAt, rec.UpdatedAt)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "inserting attendance record")
	}
	return rec, nil
}

func (repo *attendanceRepository) GetRecordByID(ctx context.Context, id string) (attendance.Record, error) {
	var row attendanceRow
	const q = `SELECT ` + attendanceColumns + ` FROM attendance_records WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return attendance.Record{}, attendance.ErrNotFound
		}
		return attendance.Record{}, errors.Wrap(err, "selecting attendance record")
	}
	return row.toRecord(), nil
}

func (repo *attendanceRepository) FilterRecords(ctx context.Context, filter attendance.Filter) ([]attendance.Record, error) {
	where := []string{"TRUE"}
	args := map[string]interface{}{}
	if filter.ClassroomID != "" {
		where = append(where, "classroom_id = :classroom_id")
		args["classroom_id"] = filter.ClassroomID
	}
	if !filter.StartDate.IsZero() {
		where = append(where, "date >= :start_date")
		args["start_date"] = filter.StartDate
	}
	if !filter.EndDate.IsZero() {
		where = append(where, "date <= :end_date")
		args["end_date"] = filter.EndDate
	}
	if filter.StudentID != "" {
		entry, err := studentEntryFilter(filter.StudentID)
		if err != nil {
			return nil, err
		}
		where = append(where, `entries @> :student_entry`)
		args["student_entry"] = entry
	}

	q, qargs, err := sqlx.Named(
		`SELECT `+attendanceColumns+` FROM attendance_records WHERE `+strings.Join(where, " AND ")+` ORDER BY date DESC`, args)
	if err != nil {
		return nil, errors.Wrap(err, "building attendance query")
	}
	var rows []attendanceRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), qargs...); err != nil {
		return nil, errors.Wrap(err, "selecting attendance records")
	}

	records := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, nil
}

// studentEntryFilter builds the JSONB containment document matching records
// that carry an entry for the student, whatever its presence mark.
func studentEntryFilter(studentID string) (string, error) {
	doc, err := json.Marshal([]map[string]string{{"student": studentID}})
	if err != nil {
		return "", errors.Wrap(err, "building student entry filter")
	}
	return string(doc), nil
}

func (repo *attendanceRepository) QueryClassroomRecords(ctx context.Context, classroomID string, page core.Page) ([]attendance.Record, int, error) {
	var total int
	if err := repo.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM attendance_records WHERE classroom_id = $1`, classroomID); err != nil {
		return nil, 0, errors.Wrap(err, "counting attendance records")
	}

	var rows []attendanceRow
	const q = `
		SELECT ` + attendanceColumns + ` FROM attendance_records
		WHERE classroom_id = $1 ORDER BY date DESC LIMIT $2 OFFSET $3`
	if err := repo.db.SelectContext(ctx, &rows, q, classroomID, page.Limit, page.Offset()); err != nil {
		return nil, 0, errors.Wrap(err, "selecting attendance records")
	}

	records := make([]attendance.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.toRecord())
	}
	return records, total, nil
}

func (repo *attendanceRepository) UpdateRecord(ctx context.Context, rec attendance.Record) (attendance.Record, error) {
	const q = `
		UPDATE attendance_records
		SET date = $2, entries = $3, updated_at = $4
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, rec.ID, rec.Date, rec.Entries, rec.UpdatedAt)
	if err != nil {
		return attendance.Record{}, errors.Wrap(err, "updating attendance record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.Record{}, attendance.ErrNotFound
	}
	return rec, nil
}

func (repo *attendanceRepository) MarkNotified(ctx context.Context, id string, studentIDs []string) error {
	const q = `
		UPDATE attendance_records
		SET sms_sent = TRUE, notified_student_ids = $2, updated_at = NOW()
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, id, pq.StringArray(studentIDs))
	if err != nil {
		return errors.Wrap(err, "marking attendance record notified")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.ErrNotFound
	}
	return nil
}

func (repo *attendanceRepository) DeleteRecordByID(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM attendance_records WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting attendance record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return attendance.ErrNotFound
	}
	return nil
}
