package database

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/Aarth-Web/ss-backend/core"
	"github.com/Aarth-Web/ss-backend/core/reading"
)

type readingRepository struct {
	db *sqlx.DB
}

var _ reading.Repository = (*readingRepository)(nil)

func NewReadingRepository(db *sqlx.DB) reading.Repository {
	return &readingRepository{db: db}
}

type paragraphRow struct {
	ID         string         `db:"id"`
	Title      string         `db:"title"`
	Content    string         `db:"content"`
	Difficulty string         `db:"difficulty"`
	Keywords   pq.StringArray `db:"keywords"`
	IsActive   bool           `db:"is_active"`
	SchoolID   string         `db:"school_id"`
	CreatedBy  string         `db:"created_by"`
	CreatedAt  sql.NullTime   `db:"created_at"`
	UpdatedAt  sql.NullTime   `db:"updated_at"`
}

func (r paragraphRow) toParagraph() reading.Paragraph {
	return reading.Paragraph{
		ID:         r.ID,
		Title:      r.Title,
		Content:    r.Content,
		Difficulty: r.Difficulty,
		Keywords:   r.Keywords,
		IsActive:   r.IsActive,
		SchoolID:   r.SchoolID,
		CreatedBy:  r.CreatedBy,
		CreatedAt:  r.CreatedAt.Time,
		UpdatedAt:  r.UpdatedAt.Time,
	}
}

const paragraphColumns = `id, title, content, difficulty, keywords, is_active, school_id, created_by, created_at, updated_at`

func (repo *readingRepository) CreateParagraph(ctx context.Context, p reading.Paragraph) (reading.Paragraph, error) {
	p.ID = uuid.New().String()
	const q = `
		INSERT INTO reading_paragraphs (` + paragraphColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := repo.db.ExecContext(ctx, q,
		p.ID, p.Title, p.Content, p.Difficulty, p.Keywords, p.IsActive,
		p.SchoolID, p.CreatedBy, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return reading.Paragraph{}, errors.Wrap(err, "inserting reading paragraph")
	}
	return p, nil
}

func (repo *readingRepository) GetParagraphByID(ctx context.Context, id string) (reading.Paragraph, error) {
	var row paragraphRow
	const q = `SELECT ` + paragraphColumns + ` FROM reading_paragraphs WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return reading.Paragraph{}, reading.ErrParagraphNotFound
		}
		return reading.Paragraph{}, errors.Wrap(err, "selecting reading paragraph")
	}
	return row.toParagraph(), nil
}

func (repo *readingRepository) FilterParagraphs(ctx context.Context, filter reading.ParagraphFilter) ([]reading.Paragraph, int, error) {
	where := []string{"TRUE"}
	args := map[string]interface{}{
		"limit":  filter.Page.Limit,
		"offset": filter.Page.Offset(),
	}
	if filter.SchoolID != "" {
		where = append(where, "school_id = :school_id")
		args["school_id"] = filter.SchoolID
	}
	if filter.CreatedBy != "" {
		where = append(where, "created_by = :created_by")
		args["created_by"] = filter.CreatedBy
	}
	if filter.Difficulty != "" {
		where = append(where, "difficulty = :difficulty")
		args["difficulty"] = filter.Difficulty
	}
	if filter.IsActive != nil {
		where = append(where, "is_active = :is_active")
		args["is_active"] = *filter.IsActive
	}
	if filter.Search != "" {
		where = append(where, `(title ILIKE :search OR content ILIKE :search
			OR EXISTS (SELECT 1 FROM unnest(keywords) kw WHERE kw ILIKE :search))`)
		args["search"] = "%" + filter.Search + "%"
	}
	cond := strings.Join(where, " AND ")

	var total int
	countQ, countArgs, err := sqlx.Named(`SELECT COUNT(*) FROM reading_paragraphs WHERE `+cond, args)
	if err != nil {
		return nil, 0, errors.Wrap(err, "building paragraph count query")
	}
	if err = repo.db.GetContext(ctx, &total, repo.db.Rebind(countQ), countArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "counting reading paragraphs")
	}

	listQ, listArgs, err := sqlx.Named(
		`SELECT `+paragraphColumns+` FROM reading_paragraphs WHERE `+cond+` ORDER BY created_at DESC LIMIT :limit OFFSET :offset`, args)
	if err != nil {
		return nil, 0, errors.Wrap(err, "building paragraph query")
	}
	var rows []paragraphRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(listQ), listArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "selecting reading paragraphs")
	}

	paragraphs := make([]reading.Paragraph, 0, len(rows))
	for _, row := range rows {
		paragraphs = append(paragraphs, row.toParagraph())
	}
	return paragraphs, total, nil
}

func (repo *readingRepository) UpdateParagraph(ctx context.Context, p reading.Paragraph) (reading.Paragraph, error) {
	const q = `
		UPDATE reading_paragraphs
		SET title = $2, content = $3, difficulty = $4, keywords = $5, is_active = $6, updated_at = $7
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, p.ID, p.Title, p.Content, p.Difficulty, p.Keywords, p.IsActive, p.UpdatedAt)
	if err != nil {
		return reading.Paragraph{}, errors.Wrap(err, "updating reading paragraph")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return reading.Paragraph{}, reading.ErrParagraphNotFound
	}
	return p, nil
}

func (repo *readingRepository) DeleteParagraphByID(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM reading_paragraphs WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting reading paragraph")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return reading.ErrParagraphNotFound
	}
	return nil
}

type assignmentRow struct {
	ID          string         `db:"id"`
	Title       string         `db:"title"`
	Description string         `db:"description"`
	ParagraphID string         `db:"paragraph_id"`
	TeacherID   string         `db:"teacher_id"`
	Type        string         `db:"type"`
	StudentIDs  pq.StringArray `db:"student_ids"`
	ClassroomID sql.NullString `db:"classroom_id"`
	DueDate     sql.NullTime   `db:"due_date"`
	IsActive    bool           `db:"is_active"`
	CreatedAt   sql.NullTime   `db:"created_at"`
	UpdatedAt   sql.NullTime   `db:"updated_at"`
}

func (r assignmentRow) toAssignment() reading.Assignment {
	a := reading.Assignment{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		ParagraphID: r.ParagraphID,
		TeacherID:   r.TeacherID,
		Type:        r.Type,
		StudentIDs:  r.StudentIDs,
		ClassroomID: r.ClassroomID.String,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
	if r.DueDate.Valid {
		due := r.DueDate.Time
		a.DueDate = &due
	}
	return a
}

const assignmentColumns = `id, title, description, paragraph_id, teacher_id, type, student_ids, classroom_id, due_date, is_active, created_at, updated_at`

func (repo *readingRepository) CreateAssignment(ctx context.Context, a reading.Assignment) (reading.Assignment, error) {
	a.ID = uuid.New().String()
	classroomID := sql.NullString{String: a.ClassroomID, Valid: a.ClassroomID != ""}
	var dueDate sql.NullTime
	if a.DueDate != nil {
		dueDate = sql.NullTime{Time: *a.DueDate, Valid: true}
	}

	const q = `
		INSERT INTO reading_assignments (` + assignmentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := repo.db.ExecContext(ctx, q,
		a.ID, a.Title, a.Description, a.ParagraphID, a.TeacherID, a.Type,
		a.StudentIDs, classroomID, dueDate, a.IsActive, a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return reading.Assignment{}, errors.Wrap(err, "inserting reading assignment")
	}
	return a, nil
}

func (repo *readingRepository) GetAssignmentByID(ctx context.Context, id string) (reading.Assignment, error) {
	var row assignmentRow
	const q = `SELECT ` + assignmentColumns + ` FROM reading_assignments WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return reading.Assignment{}, reading.ErrAssignmentNotFound
		}
		return reading.Assignment{}, errors.Wrap(err, "selecting reading assignment")
	}
	return row.toAssignment(), nil
}

func (repo *readingRepository) CountActiveAssignmentsByParagraph(ctx context.Context, paragraphID string) (int, error) {
	var count int
	const q = `SELECT COUNT(*) FROM reading_assignments WHERE paragraph_id = $1 AND is_active`
	if err := repo.db.GetContext(ctx, &count, q, paragraphID); err != nil {
		return 0, errors.Wrap(err, "counting active assignments")
	}
	return count, nil
}

func (repo *readingRepository) AssignmentsForStudent(ctx context.Context, studentID string, classroomIDs []string) ([]reading.Assignment, error) {
	const q = `
		SELECT ` + assignmentColumns + ` FROM reading_assignments
		WHERE is_active AND ($1 = ANY(student_ids) OR classroom_id = ANY($2))
		ORDER BY created_at DESC`
	var rows []assignmentRow
	if err := repo.db.SelectContext(ctx, &rows, q, studentID, pq.StringArray(classroomIDs)); err != nil {
		return nil, errors.Wrap(err, "selecting student assignments")
	}

	assignments := make([]reading.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.toAssignment())
	}
	return assignments, nil
}

func (repo *readingRepository) QueryTeacherAssignments(ctx context.Context, teacherID string, page core.Page) ([]reading.Assignment, int, error) {
	var total int
	if err := repo.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM reading_assignments WHERE teacher_id = $1 AND is_active`, teacherID); err != nil {
		return nil, 0, errors.Wrap(err, "counting teacher assignments")
	}

	const q = `
		SELECT ` + assignmentColumns + ` FROM reading_assignments
		WHERE teacher_id = $1 AND is_active
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`
	var rows []assignmentRow
	if err := repo.db.SelectContext(ctx, &rows, q, teacherID, page.Limit, page.Offset()); err != nil {
		return nil, 0, errors.Wrap(err, "selecting teacher assignments")
	}

	assignments := make([]reading.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.toAssignment())
	}
	return assignments, total, nil
}

type completionRow struct {
	ID              string       `db:"id"`
	AssignmentID    string       `db:"assignment_id"`
	StudentID       string       `db:"student_id"`
	CompletedAt     sql.NullTime `db:"completed_at"`
	ReadingDuration int          `db:"reading_duration"`
	SelfRating      int          `db:"self_rating"`
	Notes           string       `db:"notes"`
	AttemptCount    int          `db:"attempt_count"`
	TeacherRating   int          `db:"teacher_rating"`
	TeacherFeedback string       `db:"teacher_feedback"`
	CreatedAt       sql.NullTime `db:"created_at"`
	UpdatedAt       sql.NullTime `db:"updated_at"`
}

func (r completionRow) toCompletion() reading.Completion {
	return reading.Completion{
		ID:              r.ID,
		AssignmentID:    r.AssignmentID,
		StudentID:       r.StudentID,
		CompletedAt:     r.CompletedAt.Time,
		ReadingDuration: r.ReadingDuration,
		SelfRating:      r.SelfRating,
		Notes:           r.Notes,
		AttemptCount:    r.AttemptCount,
		TeacherRating:   r.TeacherRating,
		TeacherFeedback: r.TeacherFeedback,
		CreatedAt:       r.CreatedAt.Time,
		UpdatedAt:       r.UpdatedAt.Time,
	}
}

const completionColumns = `id, assignment_id, student_id, completed_at, reading_duration, self_rating, notes, attempt_count, teacher_rating, teacher_feedback, created_at, updated_at`

func (repo *readingRepository) CreateCompletion(ctx context.Context, c reading.Completion) (reading.Completion, error) {
	c.ID = uuid.New().String()
	const q = `
		INSERT INTO reading_completions (` + completionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	_, err := repo.db.ExecContext(ctx, q,
		c.ID, c.AssignmentID, c.StudentID, c.CompletedAt, c.ReadingDuration, c.SelfRating,
		c.Notes, c.AttemptCount, c.TeacherRating, c.TeacherFeedback, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return reading.Completion{}, errors.Wrap(err, "inserting completion")
	}
	return c, nil
}

func (repo *readingRepository) GetCompletion(ctx context.Context, assignmentID, studentID string) (reading.Completion, error) {
	var row completionRow
	const q = `SELECT ` + completionColumns + ` FROM reading_completions WHERE assignment_id = $1 AND student_id = $2`
	if err := repo.db.GetContext(ctx, &row, q, assignmentID, studentID); err != nil {
		if err == sql.ErrNoRows {
			return reading.Completion{}, reading.ErrCompletionNotFound
		}
		return reading.Completion{}, errors.Wrap(err, "selecting completion")
	}
	return row.toCompletion(), nil
}

func (repo *readingRepository) GetCompletionByID(ctx context.Context, id string) (reading.Completion, error) {
	var row completionRow
	const q = `SELECT ` + completionColumns + ` FROM reading_completions WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return reading.Completion{}, reading.ErrCompletionNotFound
		}
		return reading.Completion{}, errors.Wrap(err, "selecting completion")
	}
	return row.toCompletion(), nil
}

func (repo *readingRepository) ListCompletions(ctx context.Context, assignmentID string) ([]reading.Completion, error) {
	var rows []completionRow
	const q = `SELECT ` + completionColumns + ` FROM reading_completions WHERE assignment_id = $1 ORDER BY completed_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, assignmentID); err != nil {
		return nil, errors.Wrap(err, "selecting completions")
	}

	completions := make([]reading.Completion, 0, len(rows))
	for _, row := range rows {
		completions = append(completions, row.toCompletion())
	}
	return completions, nil
}

func (repo *readingRepository) UpdateCompletion(ctx context.Context, c reading.Completion) (reading.Completion, error) {
	const q = `
		UPDATE reading_completions
		SET completed_at = $2, reading_duration = $3, self_rating = $4, notes = $5,
		    attempt_count = $6, teacher_rating = $7, teacher_feedback = $8, updated_at = $9
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q,
		c.ID, c.CompletedAt, c.ReadingDuration, c.SelfRating, c.Notes,
		c.AttemptCount, c.TeacherRating, c.TeacherFeedback, c.UpdatedAt)
	if err != nil {
		return reading.Completion{}, errors.Wrap(err, "updating completion")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return reading.Completion{}, reading.ErrCompletionNotFound
	}
	return c, nil
}
