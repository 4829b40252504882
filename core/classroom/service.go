package classroom

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/Aarth-Web/ss-backend/core"
	"github.com/Aarth-Web/ss-backend/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("classroom not found")
)

type (
	Repository interface {
		CreateClassroom(ctx context.Context, cls Classroom) (Classroom, error)
		GetClassroomByID(ctx context.Context, id string) (Classroom, error)
		// FilterClassrooms applies AND on the set Filter fields; an empty filter
		// returns all classrooms.
		FilterClassrooms(ctx context.Context, filter Filter) ([]Classroom, error)
		UpdateClassroom(ctx context.Context, cls Classroom) (Classroom, error)
		DeleteClassroomByID(ctx context.Context, id string) error
	}

	Service struct {
		repo  Repository
		users user.Repository
	}

	// StudentsResult is returned by enrollment changes.
	StudentsResult struct {
		Message   string    `json:"message"`
		Classroom Classroom `json:"classroom"`
	}
)

func NewService(repo Repository, users user.Repository) *Service {
	return &Service{repo: repo, users: users}
}

// Create registers a classroom after verifying the assigned teacher. Only a
// superadmin may create classrooms outside their own school.
func (svc *Service) Create(ctx context.Context, nc NewClassroom, actor user.User) (Classroom, error) {
	teacher, err := svc.users.GetUserByID(ctx, nc.TeacherID)
	if err != nil {
		if err == user.ErrNotFound {
			return Classroom{}, core.NewNotFoundError("teacher not found")
		}
		return Classroom{}, pkgerrors.Wrap(err, "finding teacher by ID")
	}
	if !teacher.IsTeacher() {
		return Classroom{}, core.NewValidationError(errors.New("the specified user is not a teacher"),
			core.FieldError{Field: "teacherId", Error: "the specified user is not a teacher"})
	}

	if user.Allowed(actor.Role, user.ActionClassroomCreate) == user.ScopeSchool && !actor.SameSchool(nc.SchoolID) {
		return Classroom{}, core.NewForbiddenError("you can only create classrooms for your own school")
	}

	now := time.Now().UTC()
	cls := Classroom{
		Name:        nc.Name,
		Description: nc.Description,
		TeacherID:   nc.TeacherID,
		SchoolID:    nc.SchoolID,
		StudentIDs:  []string{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	cls, err = svc.repo.CreateClassroom(ctx, cls)
	if err != nil {
		return Classroom{}, pkgerrors.Wrap(err, "creating classroom")
	}
	return cls, nil
}

// QueryFor lists the classrooms visible to the actor: all for a superadmin,
// the school's for a school admin, taught ones for a teacher and enrolled
// ones for a student.
func (svc *Service) QueryFor(ctx context.Context, actor user.User) ([]Classroom, error) {
	var filter Filter
	switch user.Allowed(actor.Role, user.ActionClassroomView) {
	case user.ScopeAny:
	case user.ScopeSchool:
		filter.SchoolID = actor.SchoolID
	case user.ScopeOwn:
		if actor.IsTeacher() {
			filter.TeacherID = actor.ID
		} else {
			filter.StudentID = actor.ID
		}
	default:
		return nil, core.NewForbiddenError("permission denied")
	}

	classrooms, err := svc.repo.FilterClassrooms(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "filtering classrooms")
	}
	if classrooms == nil {
		classrooms = []Classroom{}
	}
	return classrooms, nil
}

// Get returns a classroom after checking the actor's access to it.
func (svc *Service) Get(ctx context.Context, id string, actor user.User) (Classroom, error) {
	cls, err := svc.repo.GetClassroomByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return Classroom{}, core.NewNotFoundError("classroom not found")
		}
		return Classroom{}, pkgerrors.Wrap(err, "finding classroom by ID")
	}

	switch user.Allowed(actor.Role, user.ActionClassroomView) {
	case user.ScopeAny:
	case user.ScopeSchool:
		if !actor.SameSchool(cls.SchoolID) {
			return Classroom{}, core.NewForbiddenError("you can only view classrooms from your school")
		}
	case user.ScopeOwn:
		if actor.IsTeacher() && cls.TeacherID != actor.ID {
			return Classroom{}, core.NewForbiddenError("you can only view your own classrooms")
		}
		if actor.IsStudent() && !cls.HasStudent(actor.ID) {
			return Classroom{}, core.NewForbiddenError("you can only view classrooms you are enrolled in")
		}
	default:
		return Classroom{}, core.NewForbiddenError("permission denied")
	}
	return cls, nil
}

// Update modifies a classroom; a teacher may only touch their own, a school
// admin only their school's. Teacher reassignment is validated.
func (svc *Service) Update(ctx context.Context, id string, uc UpdateClassroom, actor user.User) (Classroom, error) {
	cls, err := svc.repo.GetClassroomByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return Classroom{}, core.NewNotFoundError("classroom not found")
		}
		return Classroom{}, pkgerrors.Wrap(err, "finding classroom by ID")
	}

	switch user.Allowed(actor.Role, user.ActionClassroomUpdate) {
	case user.ScopeAny:
	case user.ScopeSchool:
		if !actor.SameSchool(cls.SchoolID) {
			return Classroom{}, core.NewForbiddenError("you can only update classrooms in your school")
		}
	case user.ScopeOwn:
		if cls.TeacherID != actor.ID {
			return Classroom{}, core.NewForbiddenError("you can only update your own classrooms")
		}
	default:
		return Classroom{}, core.NewForbiddenError("permission denied")
	}

	if uc.TeacherID != "" {
		teacher, err := svc.users.GetUserByID(ctx, uc.TeacherID)
		if err != nil {
			if err == user.ErrNotFound {
				return Classroom{}, core.NewNotFoundError("teacher not found")
			}
			return Classroom{}, pkgerrors.Wrap(err, "finding teacher by ID")
		}
		if !teacher.IsTeacher() {
			return Classroom{}, core.NewValidationError(errors.New("the specified user is not a teacher"),
				core.FieldError{Field: "teacherId", Error: "the specified user is not a teacher"})
		}
		cls.TeacherID = uc.TeacherID
	}
	if uc.Name != "" {
		cls.Name = uc.Name
	}
	if uc.Description != "" {
		cls.Description = uc.Description
	}
	cls.UpdatedAt = time.Now().UTC()

	cls, err = svc.repo.UpdateClassroom(ctx, cls)
	if err != nil {
		return Classroom{}, pkgerrors.Wrap(err, "updating classroom")
	}
	return cls, nil
}

// Delete removes a classroom. Teachers cannot delete classrooms.
func (svc *Service) Delete(ctx context.Context, id string, actor user.User) error {
	cls, err := svc.repo.GetClassroomByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return core.NewNotFoundError("classroom not found")
		}
		return pkgerrors.Wrap(err, "finding classroom by ID")
	}

	switch user.Allowed(actor.Role, user.ActionClassroomDelete) {
	case user.ScopeAny:
	case user.ScopeSchool:
		if !actor.SameSchool(cls.SchoolID) {
			return core.NewForbiddenError("you can only delete classrooms in your school")
		}
	default:
		if actor.IsTeacher() {
			return core.NewForbiddenError("teachers cannot delete classrooms")
		}
		return core.NewForbiddenError("permission denied")
	}

	if err := svc.repo.DeleteClassroomByID(ctx, id); err != nil {
		return pkgerrors.Wrap(err, "deleting classroom")
	}
	return nil
}

// AddStudents enrolls the given students, skipping ones already enrolled. All
// IDs must belong to student accounts.
func (svc *Service) AddStudents(ctx context.Context, id string, as AddStudents, actor user.User) (StudentsResult, error) {
	cls, err := svc.checkStudentManagement(ctx, id, actor, "add students to")
	if err != nil {
		return StudentsResult{}, err
	}

	students, err := svc.users.GetUsersByID(ctx, as.StudentIDs)
	if err != nil {
		return StudentsResult{}, pkgerrors.Wrap(err, "finding students by ID")
	}
	valid := make(map[string]bool, len(students))
	for _, s := range students {
		if s.IsStudent() {
			valid[s.ID] = true
		}
	}
	for _, sid := range as.StudentIDs {
		if !valid[sid] {
			return StudentsResult{}, core.NewValidationError(errors.New("all IDs must belong to valid student accounts"),
				core.FieldError{Field: "studentIds", Error: "all IDs must belong to valid student accounts"})
		}
	}

	var added int
	for _, sid := range as.StudentIDs {
		if !cls.HasStudent(sid) {
			cls.StudentIDs = append(cls.StudentIDs, sid)
			added++
		}
	}
	if added == 0 {
		return StudentsResult{Message: "all students are already in the classroom", Classroom: cls}, nil
	}
	cls.UpdatedAt = time.Now().UTC()

	cls, err = svc.repo.UpdateClassroom(ctx, cls)
	if err != nil {
		return StudentsResult{}, pkgerrors.Wrap(err, "updating classroom")
	}
	return StudentsResult{
		Message:   fmt.Sprintf("%d students added to classroom", added),
		Classroom: cls,
	}, nil
}

// RemoveStudent unenrolls a single student.
func (svc *Service) RemoveStudent(ctx context.Context, id, studentID string, actor user.User) (StudentsResult, error) {
	cls, err := svc.checkStudentManagement(ctx, id, actor, "remove students from")
	if err != nil {
		return StudentsResult{}, err
	}

	students := make([]string, 0, len(cls.StudentIDs))
	for _, sid := range cls.StudentIDs {
		if sid != studentID {
			students = append(students, sid)
		}
	}
	cls.StudentIDs = students
	cls.UpdatedAt = time.Now().UTC()

	cls, err = svc.repo.UpdateClassroom(ctx, cls)
	if err != nil {
		return StudentsResult{}, pkgerrors.Wrap(err, "updating classroom")
	}
	return StudentsResult{Message: "student removed from classroom", Classroom: cls}, nil
}

func (svc *Service) checkStudentManagement(ctx context.Context, id string, actor user.User, verb string) (Classroom, error) {
	cls, err := svc.repo.GetClassroomByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return Classroom{}, core.NewNotFoundError("classroom not found")
		}
		return Classroom{}, pkgerrors.Wrap(err, "finding classroom by ID")
	}

	switch user.Allowed(actor.Role, user.ActionClassroomStudents) {
	case user.ScopeAny:
	case user.ScopeSchool:
		if !actor.SameSchool(cls.SchoolID) {
			return Classroom{}, core.NewForbiddenError(fmt.Sprintf("you can only %s classrooms in your school", verb))
		}
	case user.ScopeOwn:
		if cls.TeacherID != actor.ID {
			return Classroom{}, core.NewForbiddenError(fmt.Sprintf("you can only %s your own classrooms", verb))
		}
	default:
		return Classroom{}, core.NewForbiddenError("permission denied")
	}
	return cls, nil
}
