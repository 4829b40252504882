package attendance_test

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aarth-Web/ss-backend/core"
	"github.com/Aarth-Web/ss-backend/core/attendance"
	"github.com/Aarth-Web/ss-backend/core/classroom"
	"github.com/Aarth-Web/ss-backend/core/school"
	"github.com/Aarth-Web/ss-backend/core/user"
	logsvc "github.com/Aarth-Web/ss-backend/services/logger"
	smssvc "github.com/Aarth-Web/ss-backend/services/sms"
	"github.com/Aarth-Web/ss-backend/storage/database/inmem"
)

// passthroughTranslator returns the input unchanged.
type passthroughTranslator struct{}

func (passthroughTranslator) Translate(_ context.Context, text, _, _ string) (string, error) {
	return text, nil
}

type fixture struct {
	svc       *attendance.Service
	repo      attendance.Repository
	notifier  *attendance.Notifier
	teacher   user.User
	student1  user.User // english parent, has mobile
	student2  user.User // hindi parent, has mobile
	student3  user.User // no mobile
	classroom classroom.Classroom
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	smssvc.ClearSentMessages()

	db := inmemdb.NewDB()
	userRepo := inmemdb.NewUserRepository(db)
	schoolRepo := inmemdb.NewSchoolRepository(db)
	classroomRepo := inmemdb.NewClassroomRepository(db)
	attendanceRepo := inmemdb.NewAttendanceRepository(db)

	logger := logsvc.NewStdLogger(log.New(io.Discard, "", 0))
	smsSvc := smssvc.NewConsoleService(logger)

	ctx := context.Background()
	sch, err := schoolRepo.CreateSchool(ctx, school.School{Name: "Sunrise Public School", IsActive: true})
	require.NoError(t, err)

	mkUser := func(name, role, mobile string, info *user.AdditionalInfo) user.User {
		usr, err := userRepo.CreateUser(ctx, user.User{
			Name:           name,
			RegistrationID: user.GenerateRegistrationID(),
			Role:           role,
			SchoolID:       sch.ID,
			Mobile:         mobile,
			IsActive:       true,
			AdditionalInfo: info,
		})
		require.NoError(t, err)
		return usr
	}

	teacher := mkUser("Teacher", user.RoleTeacher, "+911234509876", nil)
	student1 := mkUser("Asha", user.RoleStudent, "+911234567890", nil)
	student2 := mkUser("Ravi", user.RoleStudent, "+919876543210", &user.AdditionalInfo{ParentLanguage: user.LanguageHindi})
	student3 := mkUser("Meena", user.RoleStudent, "", nil)

	cls, err := classroomRepo.CreateClassroom(ctx, classroom.Classroom{
		Name:       "5B",
		TeacherID:  teacher.ID,
		SchoolID:   sch.ID,
		StudentIDs: []string{student1.ID, student2.ID, student3.ID},
	})
	require.NoError(t, err)

	notifier := attendance.NewNotifier(userRepo, classroomRepo, schoolRepo,
		smsSvc, passthroughTranslator{}, logger, 2, 8)
	t.Cleanup(notifier.Close)

	classroomSvc := classroom.NewService(classroomRepo, userRepo)
	svc := attendance.NewService(attendanceRepo, classroomSvc, notifier, logger)

	return &fixture{
		svc:       svc,
		repo:      attendanceRepo,
		notifier:  notifier,
		teacher:   teacher,
		student1:  student1,
		student2:  student2,
		student3:  student3,
		classroom: cls,
	}
}

func TestService_Mark(t *testing.T) {
	t.Run("invalid date", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.svc.Mark(context.Background(), attendance.NewRecord{
			ClassroomID: f.classroom.ID,
			Date:        "02-06-2025",
			Records:     []attendance.Entry{{StudentID: f.student1.ID, Present: true}},
		})
		var vErr *core.ValidationError
		require.ErrorAs(t, err, &vErr)
	})

	t.Run("no notifications requested", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.svc.Mark(context.Background(), attendance.NewRecord{
			ClassroomID: f.classroom.ID,
			Date:        "2025-06-02",
			Records: []attendance.Entry{
				{StudentID: f.student1.ID, Present: true},
				{StudentID: f.student2.ID, Present: false},
			},
		})
		require.NoError(t, err)
		assert.Equal(t, attendance.SMSStatusNone, res.SMSStatus)
		assert.False(t, res.SMSSent)
		assert.Empty(t, smssvc.Messages())
	})

	t.Run("notify all absent", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.svc.Mark(context.Background(), attendance.NewRecord{
			ClassroomID: f.classroom.ID,
			Date:        "2025-06-02",
			Records: []attendance.Entry{
				{StudentID: f.student1.ID, Present: false},
				{StudentID: f.student2.ID, Present: false},
				{StudentID: f.student3.ID, Present: false},
			},
			SendSMSToAllAbsent: true,
		})
		require.NoError(t, err)
		assert.Equal(t, attendance.SMSStatusProcessing, res.SMSStatus)

		// student3 has no mobile and is skipped
		require.Eventually(t, func() bool { return len(smssvc.Messages()) == 2 },
			2*time.Second, 10*time.Millisecond)

		msgs := smssvc.Messages()
		byTo := map[string]string{}
		for _, m := range msgs {
			byTo[m.To] = m.Message
		}
		assert.Equal(t,
			"Dear Parent, Asha was absent from class 5B on date Monday, June 2, 2025. – Sunrise Public School",
			byTo[f.student1.Mobile])
		// hindi parent gets the localized date
		assert.Contains(t, byTo[f.student2.Mobile], "सोमवार, 2 जून 2025")

		require.Eventually(t, func() bool {
			rec, err := f.repo.GetRecordByID(context.Background(), res.ID)
			return err == nil && rec.SMSSent
		}, 2*time.Second, 10*time.Millisecond)

		rec, err := f.repo.GetRecordByID(context.Background(), res.ID)
		require.NoError(t, err)
		assert.ElementsMatch(t, []string{f.student1.ID, f.student2.ID, f.student3.ID}, rec.NotifiedStudentIDs)
	})

	t.Run("notify explicit students", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.svc.Mark(context.Background(), attendance.NewRecord{
			ClassroomID: f.classroom.ID,
			Date:        "2025-06-02",
			Records: []attendance.Entry{
				{StudentID: f.student1.ID, Present: false},
				{StudentID: f.student2.ID, Present: false},
			},
			SendSMSTo: []string{f.student2.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, attendance.SMSStatusProcessing, res.SMSStatus)

		require.Eventually(t, func() bool { return len(smssvc.Messages()) == 1 },
			2*time.Second, 10*time.Millisecond)
		assert.Equal(t, f.student2.Mobile, smssvc.Messages()[0].To)
	})

	t.Run("explicit list wins over present marks", func(t *testing.T) {
		f := newFixture(t)
		res, err := f.svc.Mark(context.Background(), attendance.NewRecord{
			ClassroomID: f.classroom.ID,
			Date:        "2025-06-02",
			Records: []attendance.Entry{
				{StudentID: f.student1.ID, Present: true},
				{StudentID: f.student2.ID, Present: false},
			},
			SendSMSTo: []string{f.student1.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, attendance.SMSStatusProcessing, res.SMSStatus)

		// the listed student is notified even though they were marked present
		require.Eventually(t, func() bool { return len(smssvc.Messages()) == 1 },
			2*time.Second, 10*time.Millisecond)
		assert.Equal(t, f.student1.Mobile, smssvc.Messages()[0].To)

		require.Eventually(t, func() bool {
			rec, err := f.repo.GetRecordByID(context.Background(), res.ID)
			return err == nil && rec.SMSSent
		}, 2*time.Second, 10*time.Millisecond)

		rec, err := f.repo.GetRecordByID(context.Background(), res.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{f.student1.ID}, rec.NotifiedStudentIDs)
	})
}

func TestService_Get(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Mark(ctx, attendance.NewRecord{
		ClassroomID: f.classroom.ID,
		Date:        "2025-06-02",
		Records: []attendance.Entry{
			{StudentID: f.student1.ID, Present: false},
			{StudentID: f.student2.ID, Present: true},
		},
	})
	require.NoError(t, err)
	_, err = f.svc.Mark(ctx, attendance.NewRecord{
		ClassroomID: f.classroom.ID,
		Date:        "2025-06-03",
		Records:     []attendance.Entry{{StudentID: f.student2.ID, Present: true}},
	})
	require.NoError(t, err)

	t.Run("by classroom, newest first", func(t *testing.T) {
		records, err := f.svc.Get(ctx, attendance.GetQuery{ClassroomID: f.classroom.ID}, f.teacher)
		require.NoError(t, err)
		require.Len(t, records, 2)
		assert.True(t, records[0].Date.After(records[1].Date))
	})

	t.Run("date range", func(t *testing.T) {
		records, err := f.svc.Get(ctx, attendance.GetQuery{
			ClassroomID: f.classroom.ID,
			StartDate:   "2025-06-03",
			EndDate:     "2025-06-03",
		}, f.teacher)
		require.NoError(t, err)
		assert.Len(t, records, 1)
	})

	t.Run("students only see their own records", func(t *testing.T) {
		records, err := f.svc.Get(ctx, attendance.GetQuery{StudentID: f.student2.ID}, f.student1)
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "2025-06-02", records[0].Date.Format("2006-01-02"))
	})
}

func TestService_UpdateDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Mark(ctx, attendance.NewRecord{
		ClassroomID: f.classroom.ID,
		Date:        "2025-06-02",
		Records:     []attendance.Entry{{StudentID: f.student1.ID, Present: false}},
	})
	require.NoError(t, err)

	t.Run("update entries", func(t *testing.T) {
		updated, err := f.svc.Update(ctx, res.ID, attendance.UpdateRecord{
			Records: []attendance.Entry{{StudentID: f.student1.ID, Present: true}},
		})
		require.NoError(t, err)
		assert.Equal(t, attendance.SMSStatusNone, updated.SMSStatus)
		assert.True(t, updated.Entries[0].Present)
	})

	t.Run("update re-triggers notifications", func(t *testing.T) {
		updated, err := f.svc.Update(ctx, res.ID, attendance.UpdateRecord{
			Records:            []attendance.Entry{{StudentID: f.student1.ID, Present: false}},
			SendSMSToAllAbsent: true,
		})
		require.NoError(t, err)
		assert.Equal(t, attendance.SMSStatusProcessing, updated.SMSStatus)

		require.Eventually(t, func() bool { return len(smssvc.Messages()) == 1 },
			2*time.Second, 10*time.Millisecond)
		assert.Equal(t, f.student1.Mobile, smssvc.Messages()[0].To)
	})

	t.Run("teachers cannot delete", func(t *testing.T) {
		err := f.svc.Delete(ctx, res.ID, f.teacher)
		assert.True(t, core.IsForbidden(err))
	})

	t.Run("admins delete", func(t *testing.T) {
		admin := user.User{Role: user.RoleSchooladmin, SchoolID: f.teacher.SchoolID}
		require.NoError(t, f.svc.Delete(ctx, res.ID, admin))

		_, err := f.svc.GetByID(ctx, res.ID)
		assert.True(t, core.IsNotFound(err))
	})
}

func TestService_ClassroomRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for day := 1; day <= 3; day++ {
		_, err := f.svc.Mark(ctx, attendance.NewRecord{
			ClassroomID: f.classroom.ID,
			Date:        time.Date(2025, time.June, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02"),
			Records: []attendance.Entry{
				{StudentID: f.student1.ID, Present: true},
				{StudentID: f.student2.ID, Present: false},
			},
		})
		require.NoError(t, err)
	}

	t.Run("annotated page for the owning teacher", func(t *testing.T) {
		res, err := f.svc.ClassroomRecords(ctx, f.classroom.ID, core.NewPage(1, 2), f.teacher)
		require.NoError(t, err)
		require.Len(t, res.Data, 2)
		assert.Equal(t, 3, res.Meta.Total)
		assert.Equal(t, 2, res.Meta.TotalPages)
		assert.Equal(t, attendance.Stats{
			TotalStudents:   2,
			PresentStudents: 1,
			AbsentStudents:  1,
			AttendanceRate:  50,
		}, res.Data[0].Statistics)
	})

	t.Run("other teachers are rejected", func(t *testing.T) {
		other := user.User{ID: "other", Role: user.RoleTeacher, SchoolID: f.teacher.SchoolID}
		_, err := f.svc.ClassroomRecords(ctx, f.classroom.ID, core.NewPage(1, 10), other)
		assert.True(t, core.IsForbidden(err))
	})

	t.Run("unknown classroom", func(t *testing.T) {
		_, err := f.svc.ClassroomRecords(ctx, "missing", core.NewPage(1, 10), f.teacher)
		assert.True(t, core.IsNotFound(err))
	})
}
