package database

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Aarth-Web/ss-backend/core/classroom"
)

type classroomRepository struct {
	db *sqlx.DB
}

var _ classroom.Repository = (*classroomRepository)(nil)

func NewClassroomRepository(db *sqlx.DB) classroom.Repository {
	return &classroomRepository{db: db}
}

type classroomRow struct {
	ID          string         `db:"id"`
	Name        string         `db:"name"`
	Description string         `db:"description"`
	TeacherID   string         `db:"teacher_id"`
	SchoolID    string         `db:"school_id"`
	StudentIDs  pq.StringArray `db:"student_ids"`
	CreatedAt   sql.NullTime   `db:"created_at"`
	UpdatedAt   sql.NullTime   `db:"updated_at"`
}

func (r classroomRow) toClassroom() classroom.Classroom {
	return classroom.Classroom{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		TeacherID:   r.TeacherID,
		SchoolID:    r.SchoolID,
		StudentIDs:  r.StudentIDs,
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}

const classroomColumns = `id, name, description, teacher_id, school_id, student_ids, created_at, updated_at`

func (repo *classroomRepository) CreateClassroom(ctx context.Context, cls classroom.Classroom) (classroom.Classroom, error) {
	cls.ID = uuid.New().String()
	const q = `
		INSERT INTO classrooms (` + classroomColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, q,
		cls.ID, cls.Name, cls.Description, cls.TeacherID, cls.SchoolID,
		pq.StringArray(cls.StudentIDs), cls.CreatedAt, cls.UpdatedAt)
	if err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "inserting classroom")
	}
	return cls, nil
}

func (repo *classroomRepository) GetClassroomByID(ctx context.Context, id string) (classroom.Classroom, error) {
	var row classroomRow
	const q = `SELECT ` + classroomColumns + ` FROM classrooms WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return classroom.Classroom{}, classroom.ErrNotFound
		}
		return classroom.Classroom{}, errors.Wrap(err, "selecting classroom")
	}
	return row.toClassroom(), nil
}

func (repo *classroomRepository) FilterClassrooms(ctx context.Context, filter classroom.Filter) ([]classroom.Classroom, error) {
	where := []string{"TRUE"}
	args := map[string]interface{}{}
	if filter.TeacherID != "" {
		where = append(where, "teacher_id = :teacher_id")
		args["teacher_id"] = filter.TeacherID
	}
	if filter.SchoolID != "" {
		where = append(where, "school_id = :school_id")
		args["school_id"] = filter.SchoolID
	}
	if filter.StudentID != "" {
		where = append(where, ":student_id = ANY(student_ids)")
		args["student_id"] = filter.StudentID
	}

	q, qargs, err := sqlx.Named(
		`SELECT `+classroomColumns+` FROM classrooms WHERE `+strings.Join(where, " AND ")+` ORDER BY created_at DESC`, args)
	if err != nil {
		return nil, errors.Wrap(err, "building classroom query")
	}
	var rows []classroomRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), qargs...); err != nil {
		return nil, errors.Wrap(err, "selecting classrooms")
	}

	classrooms := make([]classroom.Classroom, 0, len(rows))
	for _, row := range rows {
		classrooms = append(classrooms, row.toClassroom())
	}
	return classrooms, nil
}

func (repo *classroomRepository) UpdateClassroom(ctx context.Context, cls classroom.Classroom) (classroom.Classroom, error) {
	const q = `
		UPDATE classrooms
		SET name = $2, description = $3, teacher_id = $4, student_ids = $5, updated_at = $6
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q,
		cls.ID, cls.Name, cls.Description, cls.TeacherID, pq.StringArray(cls.StudentIDs), cls.UpdatedAt)
	if err != nil {
		return classroom.Classroom{}, errors.Wrap(err, "updating classroom")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	return cls, nil
}

func (repo *classroomRepository) DeleteClassroomByID(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM classrooms WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting classroom")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return classroom.ErrNotFound
	}
	return nil
}
