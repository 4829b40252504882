package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Aarth-Web/ss-backend/core/user"
)

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *sqlx.DB) user.Repository {
	return &userRepository{db: db}
}

type userRow struct {
	ID             string              `db:"id"`
	Name           string              `db:"name"`
	RegistrationID string              `db:"registration_id"`
	Role           string              `db:"role"`
	SchoolID       sql.NullString      `db:"school_id"`
	Email          string              `db:"email"`
	Mobile         string              `db:"mobile"`
	IsActive       bool                `db:"is_active"`
	AdditionalInfo user.AdditionalInfo `db:"additional_info"`
	PasswordHash   []byte              `db:"password_hash"`
	CreatedAt      sql.NullTime        `db:"created_at"`
	UpdatedAt      sql.NullTime        `db:"updated_at"`
}

func (r userRow) toUser() user.User {
	usr := user.User{
		ID:             r.ID,
		Name:           r.Name,
		RegistrationID: r.RegistrationID,
		Role:           r.Role,
		SchoolID:       r.SchoolID.String,
		Email:          r.Email,
		Mobile:         r.Mobile,
		IsActive:       r.IsActive,
		PasswordHash:   r.PasswordHash,
		CreatedAt:      r.CreatedAt.Time,
		UpdatedAt:      r.UpdatedAt.Time,
	}
	if !r.AdditionalInfo.IsZero() {
		info := r.AdditionalInfo
		usr.AdditionalInfo = &info
	}
	return usr
}

func newUserRow(usr user.User) userRow {
	row := userRow{
		ID:             usr.ID,
		Name:           usr.Name,
		RegistrationID: usr.RegistrationID,
		Role:           usr.Role,
		SchoolID:       sql.NullString{String: usr.SchoolID, Valid: usr.SchoolID != ""},
		Email:          usr.Email,
		Mobile:         usr.Mobile,
		IsActive:       usr.IsActive,
		PasswordHash:   usr.PasswordHash,
		CreatedAt:      sql.NullTime{Time: usr.CreatedAt, Valid: true},
		UpdatedAt:      sql.NullTime{Time: usr.UpdatedAt, Valid: true},
	}
	if usr.AdditionalInfo != nil {
		row.AdditionalInfo = *usr.AdditionalInfo
	}
	return row
}

const userColumns = `id, name, registration_id, role, school_id, email, mobile, is_active, additional_info, password_hash, created_at, updated_at`

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	row := newUserRow(usr)

	const q = `
		INSERT INTO users (` + userColumns + `)
		VALUES (:id, :name, :registration_id, :role, :school_id, :email, :mobile, :is_active, :additional_info, :password_hash, :created_at, :updated_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, row); err != nil {
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo *userRepository) getBy(ctx context.Context, where string, arg interface{}) (user.User, error) {
	var row userRow
	q := `SELECT ` + userColumns + ` FROM users WHERE ` + where
	if err := repo.db.GetContext(ctx, &row, q, arg); err != nil {
		if err == sql.ErrNoRows {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "selecting user")
	}
	return row.toUser(), nil
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getBy(ctx, "id = $1", id)
}

func (repo *userRepository) GetUserByRegistrationID(ctx context.Context, regID string) (user.User, error) {
	return repo.getBy(ctx, "registration_id = $1", regID)
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getBy(ctx, "lower(email) = lower($1)", email)
}

func (repo *userRepository) GetUsersByID(ctx context.Context, ids []string) ([]user.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q, args, err := sqlx.In(`SELECT `+userColumns+` FROM users WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building user query")
	}

	var rows []userRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "selecting users")
	}
	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, nil
}

func (repo *userRepository) SuperadminExists(ctx context.Context) (bool, error) {
	var exists bool
	const q = `SELECT EXISTS (SELECT 1 FROM users WHERE role = $1)`
	if err := repo.db.GetContext(ctx, &exists, q, user.RoleSuperadmin); err != nil {
		return false, errors.Wrap(err, "checking for superadmin")
	}
	return exists, nil
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, int, error) {
	where := []string{"TRUE"}
	args := map[string]interface{}{
		"limit":  filter.Page.Limit,
		"offset": filter.Page.Offset(),
	}
	if filter.Role != "" {
		where = append(where, "role = :role")
		args["role"] = filter.Role
	}
	if filter.SchoolID != "" {
		where = append(where, "school_id = :school_id")
		args["school_id"] = filter.SchoolID
	}
	if filter.Search != "" {
		where = append(where, `(name ILIKE :search OR email ILIKE :search OR mobile ILIKE :search OR registration_id ILIKE :search OR role ILIKE :search)`)
		args["search"] = "%" + filter.Search + "%"
	}
	cond := strings.Join(where, " AND ")

	var total int
	countQ, countArgs, err := sqlx.Named(`SELECT COUNT(*) FROM users WHERE `+cond, args)
	if err != nil {
		return nil, 0, errors.Wrap(err, "building user count query")
	}
	if err = repo.db.GetContext(ctx, &total, repo.db.Rebind(countQ), countArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "counting users")
	}

	q := fmt.Sprintf(`SELECT %s FROM users WHERE %s ORDER BY created_at DESC LIMIT :limit OFFSET :offset`, userColumns, cond)
	listQ, listArgs, err := sqlx.Named(q, args)
	if err != nil {
		return nil, 0, errors.Wrap(err, "building user query")
	}
	var rows []userRow
	if err = repo.db.SelectContext(ctx, &rows, repo.db.Rebind(listQ), listArgs...); err != nil {
		return nil, 0, errors.Wrap(err, "selecting users")
	}

	users := make([]user.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.toUser())
	}
	return users, total, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := newUserRow(usr)
	const q = `
		UPDATE users
		SET name = :name, registration_id = :registration_id, role = :role, school_id = :school_id,
		    email = :email, mobile = :mobile, is_active = :is_active, additional_info = :additional_info,
		    password_hash = :password_hash, updated_at = :updated_at
		WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, row)
	if err != nil {
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo *userRepository) DeleteUserByID(ctx context.Context, id string) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return user.ErrNotFound
	}
	return nil
}
