package echoapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aarth-Web/ss-backend/core"
	"github.com/Aarth-Web/ss-backend/core/attendance"
	"github.com/Aarth-Web/ss-backend/core/classroom"
	"github.com/Aarth-Web/ss-backend/core/reading"
	"github.com/Aarth-Web/ss-backend/core/school"
	"github.com/Aarth-Web/ss-backend/core/user"
	emailsvc "github.com/Aarth-Web/ss-backend/services/email"
	logsvc "github.com/Aarth-Web/ss-backend/services/logger"
	smssvc "github.com/Aarth-Web/ss-backend/services/sms"
	"github.com/Aarth-Web/ss-backend/storage/database/inmem"
)

type testApp struct {
	server   Server
	userRepo user.Repository

	superadmin user.User
	admin      user.User
	teacher    user.User
	student    user.User

	school    school.School
	classroom classroom.Classroom
}

func testTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}

func setup(t *testing.T) *testApp {
	t.Helper()

	conf := &core.Config{
		TestMode:            true,
		AppName:             "SchoolSystem",
		SecretKey:           "test-secret-key",
		SuperadminSecret:    "super-secret",
		DefaultUserPassword: "Pass@123",
		FrontendBaseURL:     "http://localhost:3000",
	}
	conf.Server.JWTExpirationDelta = time.Hour
	conf.PasswordResetTimeoutDelta = time.Hour

	db := inmemdb.NewDB()
	userRepo := inmemdb.NewUserRepository(db)
	schoolRepo := inmemdb.NewSchoolRepository(db)
	classroomRepo := inmemdb.NewClassroomRepository(db)
	attendanceRepo := inmemdb.NewAttendanceRepository(db)
	readingRepo := inmemdb.NewReadingRepository(db)

	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	smsSvc := smssvc.NewConsoleService(logger)

	notifier := attendance.NewNotifier(userRepo, classroomRepo, schoolRepo,
		smsSvc, passthroughTranslator{}, logger, 1, 4)
	t.Cleanup(notifier.Close)

	usrSvc := user.NewService(userRepo, mailSvc, logger, conf)
	schoolSvc := school.NewService(schoolRepo)
	classroomSvc := classroom.NewService(classroomRepo, userRepo)
	attendanceSvc := attendance.NewService(attendanceRepo, classroomSvc, notifier, logger)
	readingSvc := reading.NewService(readingRepo, userRepo, classroomSvc, classroomRepo)

	validate := validator.New()
	translator := testTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	server := NewServer(&Options{
		Conf:           conf,
		Logger:         logger,
		DisableReqLogs: true,
		Validate:       validate,
		Translator:     translator,
		UserSvc:        usrSvc,
		SchoolSvc:      schoolSvc,
		ClassroomSvc:   classroomSvc,
		AttendanceSvc:  attendanceSvc,
		ReadingSvc:     readingSvc,
		SMSSvc:         smsSvc,
	})

	ctx := context.Background()
	sch, err := schoolRepo.CreateSchool(ctx, school.School{Name: "Sunrise Public School", IsActive: true})
	require.NoError(t, err)

	mkUser := func(name, role, schoolID string) user.User {
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
		usr, err := userRepo.CreateUser(ctx, usr)
		require.NoError(t, err)
		return usr
	}

	superadmin := mkUser("Root", user.RoleSuperadmin, "")
	admin := mkUser("Admin", user.RoleSchooladmin, sch.ID)
	teacher := mkUser("Teacher", user.RoleTeacher, sch.ID)
	student := mkUser("Student", user.RoleStudent, sch.ID)

	cls, err := classroomRepo.CreateClassroom(ctx, classroom.Classroom{
		Name:       "5B",
		TeacherID:  teacher.ID,
		SchoolID:   sch.ID,
		StudentIDs: []string{student.ID},
	})
	require.NoError(t, err)

	return &testApp{
		server:     server,
		userRepo:   userRepo,
		superadmin: superadmin,
		admin:      admin,
		teacher:    teacher,
		student:    student,
		school:     sch,
		classroom:  cls,
	}
}

// passthroughTranslator returns text unchanged.
type passthroughTranslator struct{}

func (passthroughTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}

func (app *testApp) token(t *testing.T, usr user.User) string {
	t.Helper()
	token, err := GenerateToken(GetUserClaims(usr))
	require.NoError(t, err)
	return token
}

func (app *testApp) request(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.server.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dst))
}

func Test_home(t *testing.T) {
	app := setup(t)
	rec := app.request(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Welcome to the School System API!", rec.Body.String())
}

func Test_authApi_login(t *testing.T) {
	app := setup(t)

	deactivated := app.student
	deactivated.IsActive = false
	_, err := app.userRepo.UpdateUser(context.Background(), deactivated)
	require.NoError(t, err)

	tests := []struct {
		name     string
		body     LoginRequest
		wantCode int
	}{
		{
			name:     "ok",
			body:     LoginRequest{RegistrationID: app.teacher.RegistrationID, Password: "Pass@123"},
			wantCode: http.StatusOK,
		},
		{
			name:     "lowercased registration ID still works",
			body:     LoginRequest{RegistrationID: strings.ToLower(app.teacher.RegistrationID), Password: "Pass@123"},
			wantCode: http.StatusOK,
		},
		{
			name:     "wrong password",
			body:     LoginRequest{RegistrationID: app.teacher.RegistrationID, Password: "nope"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "unknown registration ID",
			body:     LoginRequest{RegistrationID: "NOPE1234", Password: "Pass@123"},
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "deactivated account",
			body:     LoginRequest{RegistrationID: deactivated.RegistrationID, Password: "Pass@123"},
			wantCode: http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.request(t, http.MethodPost, "/v1/auth/login", "", tt.body)
			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantCode == http.StatusOK {
				var res LoginResponse
				decodeBody(t, rec, &res)
				assert.NotEmpty(t, res.Token)
			}
		})
	}
}

func Test_authApi_register(t *testing.T) {
	app := setup(t)

	t.Run("unauthenticated", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/auth/register", "",
			user.NewUser{Name: "S", Role: user.RoleStudent})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("teacher onboards student", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/auth/register", app.token(t, app.teacher),
			user.NewUser{Name: "New Student", Role: user.RoleStudent, ParentLanguage: "hindi"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var res user.OnboardResult
		decodeBody(t, rec, &res)
		assert.Len(t, res.RegistrationID, 8)
		assert.Equal(t, "Pass@123", res.DefaultPassword)
	})

	t.Run("teacher cannot onboard a teacher", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/auth/register", app.token(t, app.teacher),
			user.NewUser{Name: "T2", Role: user.RoleTeacher})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("superadmin role rejected", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/auth/register", app.token(t, app.superadmin),
			user.NewUser{Name: "Root2", Role: user.RoleSuperadmin})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func Test_authApi_verify(t *testing.T) {
	app := setup(t)

	rec := app.request(t, http.MethodGet, "/v1/auth/verify", app.token(t, app.teacher), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res VerifyResponse
	decodeBody(t, rec, &res)
	assert.True(t, res.Valid)
	assert.Equal(t, app.teacher.ID, res.UserID)
	assert.Equal(t, user.RoleTeacher, res.Role)
}

func Test_userApi_query(t *testing.T) {
	app := setup(t)

	t.Run("superadmin", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/v1/users", app.token(t, app.superadmin), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var res struct {
			Data []user.User   `json:"data"`
			Meta core.PageMeta `json:"meta"`
		}
		decodeBody(t, rec, &res)
		assert.Equal(t, 4, res.Meta.Total)
	})

	t.Run("teachers rejected", func(t *testing.T) {
		rec := app.request(t, http.MethodGet, "/v1/users", app.token(t, app.teacher), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func Test_schoolApi_create(t *testing.T) {
	app := setup(t)

	t.Run("superadmin", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/schools", app.token(t, app.superadmin),
			school.NewSchool{Name: "Hilltop Academy"})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var res CreateSchoolResponse
		decodeBody(t, rec, &res)
		assert.Equal(t, "School created successfully", res.Message)
		assert.Len(t, res.School.RegistrationID, 8)
	})

	t.Run("schooladmins rejected", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/schools", app.token(t, app.admin),
			school.NewSchool{Name: "Hilltop Academy"})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func Test_attendanceApi(t *testing.T) {
	app := setup(t)

	newRecord := attendance.NewRecord{
		ClassroomID: app.classroom.ID,
		Date:        "2025-06-02",
		Records:     []attendance.Entry{{StudentID: app.student.ID, Present: false}},
	}

	t.Run("students cannot mark", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/attendance", app.token(t, app.student), newRecord)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	var recordID string
	t.Run("teacher marks", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/attendance", app.token(t, app.teacher), newRecord)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var res attendance.RecordResponse
		decodeBody(t, rec, &res)
		assert.Equal(t, attendance.SMSStatusNone, res.SMSStatus)
		recordID = res.ID
	})

	t.Run("teachers cannot delete", func(t *testing.T) {
		rec := app.request(t, http.MethodDelete, "/v1/attendance/"+recordID, app.token(t, app.teacher), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("schooladmin deletes", func(t *testing.T) {
		rec := app.request(t, http.MethodDelete, "/v1/attendance/"+recordID, app.token(t, app.admin), nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var res MessageResponse
		decodeBody(t, rec, &res)
		assert.Equal(t, "Attendance record deleted successfully", res.Message)
	})
}

func Test_readingApi_createParagraph(t *testing.T) {
	app := setup(t)

	body := reading.NewParagraph{
		Title:      "The River",
		Content:    "The river flows to the sea.",
		Difficulty: reading.DifficultyBeginner,
	}

	t.Run("teacher", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/reading/paragraphs", app.token(t, app.teacher), body)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

		var res reading.Paragraph
		decodeBody(t, rec, &res)
		assert.Equal(t, "The River", res.Title)
		assert.True(t, res.IsActive)
		assert.Equal(t, app.teacher.ID, res.CreatedBy)
	})

	t.Run("students rejected", func(t *testing.T) {
		rec := app.request(t, http.MethodPost, "/v1/reading/paragraphs", app.token(t, app.student), body)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
