package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Aarth-Web/ss-backend/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil)

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

// query does no locking itself; callers must hold repo.db.mu.
func (repo *userRepository) query() []user.User {
	users := make([]user.User, 0, len(repo.db.users))
	for _, u := range repo.db.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	usr.ID = uuid.New().String()
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return *usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByRegistrationID(_ context.Context, regID string) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.db.users {
		if usr.RegistrationID == regID {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.db.users {
		if strings.EqualFold(usr.Email, email) {
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUsersByID(_ context.Context, ids []string) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := make([]user.User, 0, len(ids))
	for _, id := range ids {
		if usr, ok := repo.db.users[id]; ok {
			users = append(users, *usr)
		}
	}
	return users, nil
}

func (repo *userRepository) SuperadminExists(_ context.Context) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.db.users {
		if usr.IsSuperadmin() {
			return true, nil
		}
	}
	return false, nil
}

func (repo *userRepository) FilterUsers(_ context.Context, filter user.QueryFilter) ([]user.User, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var matches []user.User
	for _, usr := range repo.query() {
		if filter.Role != "" && usr.Role != filter.Role {
			continue
		}
		if filter.SchoolID != "" && usr.SchoolID != filter.SchoolID {
			continue
		}
		if filter.Search != "" && !userMatches(usr, filter.Search) {
			continue
		}
		matches = append(matches, usr)
	}

	return paginate(matches, filter.Page), len(matches), nil
}

func userMatches(usr user.User, search string) bool {
	search = strings.ToLower(search)
	for _, field := range []string{usr.Name, usr.Email, usr.Mobile, usr.RegistrationID, usr.Role} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func (repo *userRepository) DeleteUserByID(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(repo.db.users, id)
	return nil
}
