package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Aarth-Web/ss-backend/core/school"
)

type schoolRepository struct {
	db *DB
}

var _ school.Repository = (*schoolRepository)(nil)

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{db: db}
}

// query does no locking itself; callers must hold repo.db.mu.
func (repo *schoolRepository) query() []school.School {
	schools := make([]school.School, 0, len(repo.db.schools))
	for _, s := range repo.db.schools {
		schools = append(schools, *s)
	}
	sort.Slice(schools, func(i, j int) bool { return schools[i].CreatedAt.After(schools[j].CreatedAt) })
	return schools
}

func (repo *schoolRepository) CreateSchool(_ context.Context, sch school.School) (school.School, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	sch.ID = uuid.New().String()
	repo.db.schools[sch.ID] = &sch
	return sch, nil
}

func (repo *schoolRepository) GetSchoolByID(_ context.Context, id string) (school.School, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if sch, ok := repo.db.schools[id]; ok {
		return *sch, nil
	}
	return school.School{}, school.ErrNotFound
}

func (repo *schoolRepository) FilterSchools(_ context.Context, filter school.QueryFilter) ([]school.School, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var matches []school.School
	for _, sch := range repo.query() {
		if filter.Search != "" && !schoolMatches(sch, filter.Search) {
			continue
		}
		matches = append(matches, sch)
	}
	return paginate(matches, filter.Page), len(matches), nil
}

func schoolMatches(sch school.School, search string) bool {
	search = strings.ToLower(search)
	for _, field := range []string{sch.Name, sch.Address, sch.RegistrationID} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

func (repo *schoolRepository) UpdateSchool(_ context.Context, sch school.School) (school.School, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.schools[sch.ID]; !ok {
		return school.School{}, school.ErrNotFound
	}
	repo.db.schools[sch.ID] = &sch
	return sch, nil
}

func (repo *schoolRepository) DeleteSchoolByID(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.schools[id]; !ok {
		return school.ErrNotFound
	}
	delete(repo.db.schools, id)
	return nil
}
