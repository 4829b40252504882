package database

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Aarth-Web/ss-backend/core/school"
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *sqlx.DB) school.Repository {
	return &schoolRepository{db: db}
}

type schoolRow struct {
	ID             string       `db:"id"`
	Name           string       `db:"name"`
	RegistrationID string       `db:"registration_id"`
	Address        string       `db:"address"`
	CreatedBy      string       `db:"created_by"`
	IsActive       bool         `db:"is_active"`
	CreatedAt      sql.NullTime `db:"created_at"`
	UpdatedAt      sql.NullTime `db:"updated_at"`
}

func (r schoolRow) toSchool() school.School {
	return school.School{
		ID:             r.ID,
		Name:           r.Name,
		RegistrationID: r.RegistrationID,
		Address:        r.Address,
		CreatedBy:      r.CreatedBy,
		IsActive:       r.IsActive,
		CreatedAt:      r.CreatedAt.Time,
		UpdatedAt:      r.UpdatedAt.Time,
	}
}

const schoolColumns = `id, name, registration_id, address, created_by, is_active, created_at, updated_at`

func (repo *schoolRepository) CreateSchool(ctx context.Context, sch school.School) (school.School, error) {
	sch.ID = uuid.New().String()
	const q = `
		INSERT INTO schools (` + schoolColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := repo.db.ExecContext(ctx, q,
		sch.ID, sch.Name, sch.RegistrationID, sch.Address, sch.CreatedBy, sch.IsActive, sch.CreatedAt, sch.UpdatedAt)
	if err != nil {
		return school.School{}, errors.Wrap(err, "inserting school")
	}
	return sch, nil
}

func (repo *schoolRepository) GetSchoolByID(ctx context.Context, id string) (school.School, error) {
	var row schoolRow
	const q = `SELECT ` + schoolColumns + ` FROM schools WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		if err == sql.ErrNoRows {
			return school.School{}, school.ErrNotFound
		}
		return school.School{}, errors.Wrap(err, "selecting school")
	}
	return row.toSchool(), nil
}

func (repo *schoolRepository) FilterSchools(ctx context.Context, filter school.QueryFilter) ([]school.School, int, error) {
	cond := "TRUE"
	args := map[string]interface{}{
		"limit":  filter.Page.Limit,
		"offset": filter.Page.Offset(),
	}
	if filter.Search != "" {
		cond = `(name ILIKE :search OR address ILIKE :search OR registration_id ILIKE :search)`
		args["search"] = "%" + filter.Search + "%"
	}

	var total int
	countQ, countArgs, err := sqlx.Named(`SELECT COUNT(*) FROM schools WHERE `+cond, args)
	if err != nil {
		return nil, 0, errors.Wrap(err, "building school count query")
	}
	if err = repo.db.GetContext(ctx, &total, repo.db.Rebind(countQ), countArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "counting schools")
	}

	listQ, listArgs, err := sqlx.Named(
		`SELECT `+schoolColumns+` FROM schools WHERE `+cond+` ORDER BY created_at DESC LIMIT :limit OFFSET :offset`, args)
	if err != nil {
		return nil, 0, errors.Wrap(err, "building school query")
	}
	var rows []schoolRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(listQ), listArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "selecting schools")
	}

	schools := make([]school.School, 0, len(rows))
	for _, row := range rows {
		schools = append(schools, row.toSchool())
	}
	return schools, total, nil
}

func (repo *schoolRepository) UpdateSchool(ctx context.Context, sch school.School) (school.School, error) {
	const q = `
		UPDATE schools
		SET name = $2, address = $3, is_active = $4, updated_at = $5
		WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, q, sch.ID, sch.Name, sch.Address, sch.IsActive, sch.UpdatedAt)
	if err != nil {
		return school.School{}, errors.Wrap(err, "updating school")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.School{}, school.ErrNotFound
	}
	return sch, nil
}

func (repo *schoolRepository) DeleteSchoolByID(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM schools WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting school")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return school.ErrNotFound
	}
	return nil
}
