package user_test

import (
	"context"
	"io"
	"log"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aarth-Web/ss-backend/core"
	"github.com/Aarth-Web/ss-backend/core/user"
	emailsvc "github.com/Aarth-Web/ss-backend/services/email"
	logsvc "github.com/Aarth-Web/ss-backend/services/logger"
	"github.com/Aarth-Web/ss-backend/storage/database/inmem"
)

func testConfig() *core.Config {
	return &core.Config{
		TestMode:                  true,
		AppName:                   "SchoolSystem",
		SecretKey:                 "test-secret-key",
		SuperadminSecret:          "super-secret",
		DefaultUserPassword:       "Pass@123",
		FrontendBaseURL:           "http://localhost:3000",
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
	}
}

func newTestService(t *testing.T) (*user.Service, user.Repository, *core.Config) {
	t.Helper()

	conf := testConfig()
	repo := inmemdb.NewUserRepository(inmemdb.NewDB())
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))
	return user.NewService(repo, mailSvc, logger, conf), repo, conf
}

func createUser(t *testing.T, repo user.Repository, name, role, schoolID string) user.User {
	t.Helper()

	now := time.Now().UTC()
	usr := user.User{
		Name:           name,
		RegistrationID: user.GenerateRegistrationID(),
		Role:           role,
		SchoolID:       schoolID,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, usr.SetPassword("Pass@123"))
	usr, err := repo.CreateUser(context.Background(), usr)
	require.NoError(t, err)
	return usr
}

func TestService_Onboard_superadmin(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	t.Run("missing secret", func(t *testing.T) {
		_, err := svc.Onboard(ctx, user.NewUser{Name: "Root", Role: user.RoleSuperadmin}, nil)
		assert.True(t, core.IsForbidden(err))
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := svc.Onboard(ctx, user.NewUser{Name: "Root", Role: user.RoleSuperadmin, Secret: "nope"}, nil)
		assert.True(t, core.IsForbidden(err))
	})

	t.Run("ok", func(t *testing.T) {
		res, err := svc.Onboard(ctx, user.NewUser{Name: "Root", Role: user.RoleSuperadmin, Secret: "super-secret"}, nil)
		require.NoError(t, err)
		assert.Len(t, res.RegistrationID, 8)
		assert.Equal(t, "Pass@123", res.DefaultPassword)

		usr, err := repo.GetUserByRegistrationID(ctx, res.RegistrationID)
		require.NoError(t, err)
		assert.True(t, usr.IsActive)
		assert.NoError(t, usr.CheckPassword("Pass@123"))
	})

	t.Run("second superadmin rejected", func(t *testing.T) {
		_, err := svc.Onboard(ctx, user.NewUser{Name: "Root2", Role: user.RoleSuperadmin, Secret: "super-secret"}, nil)
		assert.True(t, core.IsForbidden(err))
	})
}

func TestService_Onboard_byCreator(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	teacher := createUser(t, repo, "Teacher", user.RoleTeacher, "sch1")
	admin := createUser(t, repo, "Admin", user.RoleSchooladmin, "sch1")

	t.Run("anonymous rejected", func(t *testing.T) {
		_, err := svc.Onboard(ctx, user.NewUser{Name: "S", Role: user.RoleStudent}, nil)
		assert.True(t, core.IsForbidden(err))
	})

	t.Run("teacher onboards student", func(t *testing.T) {
		res, err := svc.Onboard(ctx, user.NewUser{
			Name: "Student", Role: user.RoleStudent, SchoolID: "sch1",
			ParentLanguage: "hindi", ParentOccupation: "farmer",
		}, &teacher)
		require.NoError(t, err)

		usr, err := repo.GetUserByRegistrationID(ctx, res.RegistrationID)
		require.NoError(t, err)
		require.NotNil(t, usr.AdditionalInfo)
		assert.Equal(t, "hindi", usr.AdditionalInfo.ParentLanguage)
		assert.Equal(t, "farmer", usr.AdditionalInfo.ParentOccupation)
	})

	t.Run("teacher cannot onboard teacher", func(t *testing.T) {
		_, err := svc.Onboard(ctx, user.NewUser{Name: "T2", Role: user.RoleTeacher, SchoolID: "sch1"}, &teacher)
		assert.True(t, core.IsForbidden(err))
	})

	t.Run("schooladmin onboards teacher", func(t *testing.T) {
		_, err := svc.Onboard(ctx, user.NewUser{Name: "T2", Role: user.RoleTeacher, SchoolID: "sch1"}, &admin)
		assert.NoError(t, err)
	})

	t.Run("schooladmin cannot onboard schooladmin", func(t *testing.T) {
		_, err := svc.Onboard(ctx, user.NewUser{Name: "A2", Role: user.RoleSchooladmin, SchoolID: "sch1"}, &admin)
		assert.True(t, core.IsForbidden(err))
	})
}

func TestService_Update(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	student := createUser(t, repo, "Student", user.RoleStudent, "sch1")

	t.Run("fields outside the allowed set are ignored", func(t *testing.T) {
		updated, err := svc.Update(ctx, student.ID, user.UpdateUser{
			Name: "New Name",
			Role: user.RoleTeacher,
		}, user.UpdatableFields(user.RoleTeacher))
		require.NoError(t, err)
		assert.Equal(t, "New Name", updated.Name)
		assert.Equal(t, user.RoleStudent, updated.Role)
	})

	t.Run("deactivation requires the isActive field", func(t *testing.T) {
		blocked := false
		_, err := svc.Update(ctx, student.ID, user.UpdateUser{IsActive: &blocked},
			user.UpdatableFields(user.RoleTeacher))
		assert.True(t, core.IsForbidden(err))
	})

	t.Run("student parent fields fold into additional info", func(t *testing.T) {
		updated, err := svc.Update(ctx, student.ID, user.UpdateUser{ParentLanguage: "telugu"},
			user.UpdatableFields(user.RoleTeacher))
		require.NoError(t, err)
		require.NotNil(t, updated.AdditionalInfo)
		assert.Equal(t, "telugu", updated.AdditionalInfo.ParentLanguage)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Update(ctx, "missing", user.UpdateUser{Name: "X"}, user.UpdatableFields(user.RoleSuperadmin))
		assert.True(t, core.IsNotFound(err))
	})
}

func TestService_AdminResetPassword(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	admin := createUser(t, repo, "Admin", user.RoleSchooladmin, "sch1")
	teacher := createUser(t, repo, "Teacher", user.RoleTeacher, "sch1")
	outsider := createUser(t, repo, "Outsider", user.RoleTeacher, "sch2")
	student := createUser(t, repo, "Student", user.RoleStudent, "sch1")

	t.Run("students cannot reset", func(t *testing.T) {
		err := svc.AdminResetPassword(ctx, student, teacher.ID, "new-pwd")
		assert.True(t, core.IsForbidden(err))
	})

	t.Run("schooladmin limited to own school", func(t *testing.T) {
		err := svc.AdminResetPassword(ctx, admin, outsider.ID, "new-pwd")
		assert.True(t, core.IsForbidden(err))
	})

	t.Run("ok", func(t *testing.T) {
		require.NoError(t, svc.AdminResetPassword(ctx, admin, teacher.ID, "new-pwd"))

		refreshed, err := repo.GetUserByID(ctx, teacher.ID)
		require.NoError(t, err)
		assert.NoError(t, refreshed.CheckPassword("new-pwd"))
	})
}

func TestService_passwordResetFlow(t *testing.T) {
	svc, repo, _ := newTestService(t)
	ctx := context.Background()

	now := time.Now().UTC()
	usr := user.User{
		Name:           "Awe",
		RegistrationID: user.GenerateRegistrationID(),
		Role:           user.RoleTeacher,
		Email:          "awe@test.cd",
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, usr.SetPassword("old-pwd"))
	usr, err := repo.CreateUser(ctx, usr)
	require.NoError(t, err)

	require.NoError(t, svc.RequestPasswordReset(ctx, "awe@test.cd"))
	require.NotEmpty(t, emailsvc.SentMessages)
	body := emailsvc.SentMessages[len(emailsvc.SentMessages)-1].Body

	m := regexp.MustCompile(`uid=([^&\s]+)&token=([^&\s]+)`).FindStringSubmatch(body)
	require.Len(t, m, 3)

	t.Run("tampered token rejected", func(t *testing.T) {
		err := svc.ConfirmPasswordReset(ctx, user.ResetUserPassword{
			UID: m[1], Token: m[2] + "x", NewPassword: "new-pwd",
		})
		var vErr *core.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})

	t.Run("ok", func(t *testing.T) {
		require.NoError(t, svc.ConfirmPasswordReset(ctx, user.ResetUserPassword{
			UID: m[1], Token: m[2], NewPassword: "new-pwd",
		}))

		refreshed, err := repo.GetUserByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.NoError(t, refreshed.CheckPassword("new-pwd"))
	})

	t.Run("unknown email", func(t *testing.T) {
		assert.Equal(t, user.ErrNotFound, svc.RequestPasswordReset(ctx, "nope@test.cd"))
	})
}
