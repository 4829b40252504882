package classroom_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aarth-Web/ss-backend/core"
	"github.com/Aarth-Web/ss-backend/core/classroom"
	"github.com/Aarth-Web/ss-backend/core/school"
	"github.com/Aarth-Web/ss-backend/core/user"
	"github.com/Aarth-Web/ss-backend/storage/database/inmem"
)

type fixture struct {
	svc      *classroom.Service
	repo     classroom.Repository
	userRepo user.Repository

	superadmin user.User
	admin      user.User // school 1
	teacher    user.User // school 1
	teacher2   user.User // school 1
	student1   user.User // school 1
	student2   user.User // school 1
	outsider   user.User // teacher, school 2

	school1 school.School
	school2 school.School
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := inmemdb.NewDB()
	userRepo := inmemdb.NewUserRepository(db)
	schoolRepo := inmemdb.NewSchoolRepository(db)
	repo := inmemdb.NewClassroomRepository(db)
	ctx := context.Background()

	sch1, err := schoolRepo.CreateSchool(ctx, school.School{Name: "North School", IsActive: true})
	require.NoError(t, err)
	sch2, err := schoolRepo.CreateSchool(ctx, school.School{Name: "South School", IsActive: true})
	require.NoError(t, err)

	mkUser := func(name, role, schoolID string) user.User {
		usr, err := userRepo.CreateUser(ctx, user.User{
			Name:           name,
			RegistrationID: user.GenerateRegistrationID(),
			Role:           role,
			SchoolID:       schoolID,
			IsActive:       true,
		})
		require.NoError(t, err)
		return usr
	}

	return &fixture{
		svc:      classroom.NewService(repo, userRepo),
		repo:     repo,
		userRepo: userRepo,

		superadmin: mkUser("Root", user.RoleSuperadmin, ""),
		admin:      mkUser("Admin", user.RoleSchooladmin, sch1.ID),
		teacher:    mkUser("Teacher", user.RoleTeacher, sch1.ID),
		teacher2:   mkUser("Teacher2", user.RoleTeacher, sch1.ID),
		student1:   mkUser("Student1", user.RoleStudent, sch1.ID),
		student2:   mkUser("Student2", user.RoleStudent, sch1.ID),
		outsider:   mkUser("Outsider", user.RoleTeacher, sch2.ID),

		school1: sch1,
		school2: sch2,
	}
}

func (f *fixture) createClassroom(t *testing.T, name string, teacherID string, studentIDs ...string) classroom.Classroom {
	t.Helper()

	cls, err := f.repo.CreateClassroom(context.Background(), classroom.Classroom{
		Name:       name,
		TeacherID:  teacherID,
		SchoolID:   f.school1.ID,
		StudentIDs: studentIDs,
	})
	require.NoError(t, err)
	return cls
}

func TestService_Create(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("teacher must be a teacher", func(t *testing.T) {
		_, err := f.svc.Create(ctx, classroom.NewClassroom{
			Name: "5B", TeacherID: f.student1.ID, SchoolID: f.school1.ID,
		}, f.admin)
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.EqualError(t, err, "the specified user is not a teacher")
	})

	t.Run("unknown teacher", func(t *testing.T) {
		_, err := f.svc.Create(ctx, classroom.NewClassroom{
			Name: "5B", TeacherID: "missing", SchoolID: f.school1.ID,
		}, f.admin)
		assert.True(t, core.IsNotFound(err))
	})

	t.Run("teachers stay inside their school", func(t *testing.T) {
		_, err := f.svc.Create(ctx, classroom.NewClassroom{
			Name: "5B", TeacherID: f.teacher.ID, SchoolID: f.school2.ID,
		}, f.teacher)
		assert.True(t, core.IsForbidden(err))
	})

	t.Run("ok", func(t *testing.T) {
		cls, err := f.svc.Create(ctx, classroom.NewClassroom{
			Name: "5B", Description: "Fifth grade", TeacherID: f.teacher.ID, SchoolID: f.school1.ID,
		}, f.teacher)
		require.NoError(t, err)
		assert.NotEmpty(t, cls.ID)
		assert.Equal(t, "5B", cls.Name)
		assert.Empty(t, cls.StudentIDs)
		assert.False(t, cls.CreatedAt.IsZero())
	})
}

func TestService_QueryFor(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cls1 := f.createClassroom(t, "5A", f.teacher.ID, f.student1.ID)
	cls2 := f.createClassroom(t, "5B", f.teacher2.ID, f.student2.ID)
	other, err := f.repo.CreateClassroom(ctx, classroom.Classroom{
		Name: "6A", TeacherID: f.outsider.ID, SchoolID: f.school2.ID,
	})
	require.NoError(t, err)

	t.Run("superadmin sees all", func(t *testing.T) {
		classrooms, err := f.svc.QueryFor(ctx, f.superadmin)
		require.NoError(t, err)
		assert.Len(t, classrooms, 3)
	})

	t.Run("schooladmin sees the school's", func(t *testing.T) {
		classrooms, err := f.svc.QueryFor(ctx, f.admin)
		require.NoError(t, err)
		require.Len(t, classrooms, 2)
		for _, cls := range classrooms {
			assert.NotEqual(t, other.ID, cls.ID)
		}
	})

	t.Run("teacher sees taught classrooms", func(t *testing.T) {
		classrooms, err := f.svc.QueryFor(ctx, f.teacher)
		require.NoError(t, err)
		require.Len(t, classrooms, 1)
		assert.Equal(t, cls1.ID, classrooms[0].ID)
	})

	t.Run("student sees enrolled classrooms", func(t *testing.T) {
		classrooms, err := f.svc.QueryFor(ctx, f.student2)
		require.NoError(t, err)
		require.Len(t, classrooms, 1)
		assert.Equal(t, cls2.ID, classrooms[0].ID)
	})
}

func TestService_Get(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cls := f.createClassroom(t, "5A", f.teacher.ID, f.student1.ID)

	tests := []struct {
		name      string
		actor     user.User
		forbidden bool
	}{
		{name: "superadmin", actor: f.superadmin},
		{name: "schooladmin same school", actor: f.admin},
		{name: "owning teacher", actor: f.teacher},
		{name: "other teacher", actor: f.teacher2, forbidden: true},
		{name: "enrolled student", actor: f.student1},
		{name: "unenrolled student", actor: f.student2, forbidden: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.Get(ctx, cls.ID, tt.actor)
			if tt.forbidden {
				assert.True(t, core.IsForbidden(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, cls.ID, got.ID)
		})
	}

	t.Run("not found", func(t *testing.T) {
		_, err := f.svc.Get(ctx, "missing", f.superadmin)
		assert.True(t, core.IsNotFound(err))
	})
}

func TestService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cls := f.createClassroom(t, "5A", f.teacher.ID)

	t.Run("teachers update only their own", func(t *testing.T) {
		_, err := f.svc.Update(ctx, cls.ID, classroom.UpdateClassroom{Name: "5A+"}, f.teacher2)
		assert.True(t, core.IsForbidden(err))
	})

	t.Run("reassignment checks the new teacher", func(t *testing.T) {
		_, err := f.svc.Update(ctx, cls.ID, classroom.UpdateClassroom{TeacherID: f.student1.ID}, f.admin)
		var vErr *core.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("ok", func(t *testing.T) {
		updated, err := f.svc.Update(ctx, cls.ID, classroom.UpdateClassroom{
			Name: "5A+", TeacherID: f.teacher2.ID,
		}, f.admin)
		require.NoError(t, err)
		assert.Equal(t, "5A+", updated.Name)
		assert.Equal(t, f.teacher2.ID, updated.TeacherID)
	})
}

func TestService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cls := f.createClassroom(t, "5A", f.teacher.ID)

	t.Run("teachers cannot delete", func(t *testing.T) {
		err := f.svc.Delete(ctx, cls.ID, f.teacher)
		require.Error(t, err)
		assert.True(t, core.IsForbidden(err))
		assert.EqualError(t, err, "teachers cannot delete classrooms")
	})

	t.Run("schooladmin limited to own school", func(t *testing.T) {
		otherAdmin := user.User{Role: user.RoleSchooladmin, SchoolID: f.school2.ID}
		err := f.svc.Delete(ctx, cls.ID, otherAdmin)
		assert.True(t, core.IsForbidden(err))
	})

	t.Run("ok", func(t *testing.T) {
		require.NoError(t, f.svc.Delete(ctx, cls.ID, f.admin))
		_, err := f.svc.Get(ctx, cls.ID, f.superadmin)
		assert.True(t, core.IsNotFound(err))
	})
}

func TestService_AddStudents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cls := f.createClassroom(t, "5A", f.teacher.ID)

	t.Run("non-student IDs rejected", func(t *testing.T) {
		_, err := f.svc.AddStudents(ctx, cls.ID, classroom.AddStudents{
			StudentIDs: []string{f.student1.ID, f.teacher2.ID},
		}, f.teacher)
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.EqualError(t, err, "all IDs must belong to valid student accounts")
	})

	t.Run("other teachers rejected", func(t *testing.T) {
		_, err := f.svc.AddStudents(ctx, cls.ID, classroom.AddStudents{
			StudentIDs: []string{f.student1.ID},
		}, f.teacher2)
		assert.True(t, core.IsForbidden(err))
	})

	t.Run("ok", func(t *testing.T) {
		res, err := f.svc.AddStudents(ctx, cls.ID, classroom.AddStudents{
			StudentIDs: []string{f.student1.ID, f.student2.ID},
		}, f.teacher)
		require.NoError(t, err)
		assert.Equal(t, "2 students added to classroom", res.Message)
		assert.ElementsMatch(t, []string{f.student1.ID, f.student2.ID}, res.Classroom.StudentIDs)
	})

	t.Run("already enrolled students are skipped", func(t *testing.T) {
		res, err := f.svc.AddStudents(ctx, cls.ID, classroom.AddStudents{
			StudentIDs: []string{f.student1.ID},
		}, f.teacher)
		require.NoError(t, err)
		assert.Equal(t, "all students are already in the classroom", res.Message)
		assert.Len(t, res.Classroom.StudentIDs, 2)
	})
}

func TestService_RemoveStudent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	cls := f.createClassroom(t, "5A", f.teacher.ID, f.student1.ID, f.student2.ID)

	t.Run("other teachers rejected", func(t *testing.T) {
		_, err := f.svc.RemoveStudent(ctx, cls.ID, f.student1.ID, f.outsider)
		assert.True(t, core.IsForbidden(err))
	})

	t.Run("ok", func(t *testing.T) {
		res, err := f.svc.RemoveStudent(ctx, cls.ID, f.student1.ID, f.teacher)
		require.NoError(t, err)
		assert.Equal(t, "student removed from classroom", res.Message)
		assert.Equal(t, []string{f.student2.ID}, res.Classroom.StudentIDs)
	})
}
