package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Aarth-Web/ss-backend/core/classroom"
)

type classroomRepository struct {
	db *DB
}

var _ classroom.Repository = (*classroomRepository)(nil)

func NewClassroomRepository(db *DB) classroom.Repository {
	return &classroomRepository{db: db}
}

// query does no locking itself; callers must hold repo.db.mu.
func (repo *classroomRepository) query() []classroom.Classroom {
	classrooms := make([]classroom.Classroom, 0, len(repo.db.classrooms))
	for _, cls := range repo.db.classrooms {
		classrooms = append(classrooms, *cls)
	}
	sort.Slice(classrooms, func(i, j int) bool { return classrooms[i].CreatedAt.After(classrooms[j].CreatedAt) })
	return classrooms
}

func (repo *classroomRepository) CreateClassroom(_ context.Context, cls classroom.Classroom) (classroom.Classroom, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	cls.ID = uuid.New().String()
	repo.db.classrooms[cls.ID] = &cls
	return cls, nil
}

func (repo *classroomRepository) GetClassroomByID(_ context.Context, id string) (classroom.Classroom, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if cls, ok := repo.db.classrooms[id]; ok {
		return *cls, nil
	}
	return classroom.Classroom{}, classroom.ErrNotFound
}

func (repo *classroomRepository) FilterClassrooms(_ context.Context, filter classroom.Filter) ([]classroom.Classroom, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var matches []classroom.Classroom
	for _, cls := range repo.query() {
		if filter.TeacherID != "" && cls.TeacherID != filter.TeacherID {
			continue
		}
		if filter.SchoolID != "" && cls.SchoolID != filter.SchoolID {
			continue
		}
		if filter.StudentID != "" && !cls.HasStudent(filter.StudentID) {
			continue
		}
		matches = append(matches, cls)
	}
	return matches, nil
}

func (repo *classroomRepository) UpdateClassroom(_ context.Context, cls classroom.Classroom) (classroom.Classroom, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.classrooms[cls.ID]; !ok {
		return classroom.Classroom{}, classroom.ErrNotFound
	}
	repo.db.classrooms[cls.ID] = &cls
	return cls, nil
}

func (repo *classroomRepository) DeleteClassroomByID(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.classrooms[id]; !ok {
		return classroom.ErrNotFound
	}
	delete(repo.db.classrooms, id)
	return nil
}
