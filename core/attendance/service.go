package attendance

import (
	"context"
	"errors"
	"fmt"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/Aarth-Web/ss-backend/core"
	"github.com/Aarth-Web/ss-backend/core/classroom"
	"github.com/Aarth-Web/ss-backend/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("attendance record not found")
)

type (
	Repository interface {
		CreateRecord(ctx context.Context, rec Record) (Record, error)
		GetRecordByID(ctx context.Context, id string) (Record, error)
		// FilterRecords applies AND on the set Filter fields and returns the
		// matches newest date first. A StudentID matches records containing an
		// entry for that student.
		FilterRecords(ctx context.Context, filter Filter) ([]Record, error)
		// QueryClassroomRecords returns the requested page of a classroom's
		// records, newest date first, plus the unpaged total.
		QueryClassroomRecords(ctx context.Context, classroomID string, page core.Page) ([]Record, int, error)
		UpdateRecord(ctx context.Context, rec Record) (Record, error)
		// MarkNotified sets the SMS-sent flag and the notified student IDs.
		MarkNotified(ctx context.Context, id string, studentIDs []string) error
		DeleteRecordByID(ctx context.Context, id string) error
	}

	Service struct {
		repo       Repository
		classrooms *classroom.Service
		notifier   *Notifier
		logger     core.Logger
	}
)

func NewService(repo Repository, classrooms *classroom.Service, notifier *Notifier, logger core.Logger) *Service {
	return &Service{repo: repo, classrooms: classrooms, notifier: notifier, logger: logger}
}

// Mark records attendance for a classroom. Notification delivery, when
// requested, happens in the background and never affects the response.
func (svc *Service) Mark(ctx context.Context, nr NewRecord) (RecordResponse, error) {
	date, err := parseDate(nr.Date)
	if err != nil {
		return RecordResponse{}, err
	}

	now := time.Now().UTC()
	rec := Record{
		ClassroomID: nr.ClassroomID,
		Date:        date,
		Entries:     nr.Records,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	rec, err = svc.repo.CreateRecord(ctx, rec)
	if err != nil {
		return RecordResponse{}, pkgerrors.Wrap(err, "creating attendance record")
	}
	return svc.respond(rec, nr.SendSMSToAllAbsent, nr.SendSMSTo), nil
}

// Get lists attendance records matching the query, newest first. Students
// only ever see their own records.
func (svc *Service) Get(ctx context.Context, q GetQuery, actor user.User) ([]Record, error) {
	filter := Filter{ClassroomID: q.ClassroomID}

	if q.StartDate != "" {
		start, err := parseDate(q.StartDate)
		if err != nil {
			return nil, err
		}
		filter.StartDate = start
	}
	if q.EndDate != "" {
		end, err := parseDate(q.EndDate)
		if err != nil {
			return nil, err
		}
		filter.EndDate = end
	}

	if actor.IsStudent() {
		filter.StudentID = actor.ID
	} else if q.StudentID != "" {
		filter.StudentID = q.StudentID
	}

	records, err := svc.repo.FilterRecords(ctx, filter)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "filtering attendance records")
	}
	if records == nil {
		records = []Record{}
	}
	return records, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Record, error) {
	rec, err := svc.repo.GetRecordByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return Record{}, core.NewNotFoundError("attendance record not found")
		}
		return Record{}, pkgerrors.Wrap(err, "finding attendance record by ID")
	}
	return rec, nil
}

// Update changes a record's date and/or entries and may trigger a fresh
// notification round.
func (svc *Service) Update(ctx context.Context, id string, ur UpdateRecord) (RecordResponse, error) {
	rec, err := svc.GetByID(ctx, id)
	if err != nil {
		return RecordResponse{}, err
	}

	if ur.Date != "" {
		date, err := parseDate(ur.Date)
		if err != nil {
			return RecordResponse{}, err
		}
		rec.Date = date
	}
	if ur.Records != nil {
		rec.Entries = ur.Records
	}
	rec.UpdatedAt = time.Now().UTC()

	rec, err = svc.repo.UpdateRecord(ctx, rec)
	if err != nil {
		return RecordResponse{}, pkgerrors.Wrap(err, "updating attendance record")
	}
	return svc.respond(rec, ur.SendSMSToAllAbsent, ur.SendSMSTo), nil
}

// Delete removes a record. Only superadmins and school admins may delete.
func (svc *Service) Delete(ctx context.Context, id string, actor user.User) error {
	if user.Allowed(actor.Role, user.ActionAttendanceDelete) == user.ScopeNone {
		return core.NewForbiddenError("only superadmins and school admins can delete attendance records")
	}
	if err := svc.repo.DeleteRecordByID(ctx, id); err != nil {
		if err == ErrNotFound {
			return core.NewNotFoundError("attendance record not found")
		}
		return pkgerrors.Wrap(err, "deleting attendance record")
	}
	return nil
}

// ClassroomRecords returns a stats-annotated page of a classroom's records
// after checking the actor's access to the classroom.
func (svc *Service) ClassroomRecords(ctx context.Context, classroomID string, page core.Page, actor user.User) (*ClassroomRecords, error) {
	if _, err := svc.classrooms.Get(ctx, classroomID, actor); err != nil {
		if core.IsForbidden(err) {
			return nil, err
		}
		return nil, core.NewNotFoundError("classroom not found")
	}

	page.Clean()
	records, total, err := svc.repo.QueryClassroomRecords(ctx, classroomID, page)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "querying classroom attendance records")
	}

	annotated := make([]AnnotatedRecord, 0, len(records))
	for _, rec := range records {
		annotated = append(annotated, AnnotatedRecord{Record: rec, Statistics: rec.Stats()})
	}
	return &ClassroomRecords{Data: annotated, Meta: core.NewPageMeta(total, page)}, nil
}

// respond decides whether a notification round was requested, kicks it off in
// the background and attaches the advisory status.
func (svc *Service) respond(rec Record, allAbsent bool, explicit []string) RecordResponse {
	status := SMSStatusNone
	if allAbsent || len(explicit) > 0 {
		go svc.sendAbsenceNotifications(rec.ID, allAbsent, explicit)
		status = SMSStatusProcessing
	}
	return RecordResponse{Record: rec, SMSStatus: status}
}

// sendAbsenceNotifications runs detached from the request. It re-reads the
// record, resolves the target students, persists the notified set and hands
// the batch to the notifier. Failures are logged, never surfaced.
func (svc *Service) sendAbsenceNotifications(recordID string, allAbsent bool, explicit []string) {
	defer func() {
		if r := recover(); r != nil {
			svc.logger.Error(fmt.Sprintf("absence notifications panicked for record %s: %v", recordID, r))
		}
	}()

	ctx := context.Background()
	rec, err := svc.repo.GetRecordByID(ctx, recordID)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("absence notifications: reloading record %s failed: %v", recordID, err))
		return
	}

	targets := explicit
	if allAbsent {
		targets = rec.Absentees()
	}
	if len(targets) == 0 {
		return
	}

	if err := svc.repo.MarkNotified(ctx, rec.ID, targets); err != nil {
		svc.logger.Error(fmt.Sprintf("absence notifications: marking record %s notified failed: %v", rec.ID, err))
		return
	}

	svc.notifier.Dispatch(targets, rec.ClassroomID, rec.Date)
	svc.logger.Info(fmt.Sprintf("SMS notifications triggered for %d students", len(targets)))
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, core.NewValidationError(errors.New("invalid date"),
		core.FieldError{Field: "date", Error: "must be an ISO date (YYYY-MM-DD)"})
}
