package reading

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/Aarth-Web/ss-backend/core"
	"github.com/Aarth-Web/ss-backend/core/classroom"
	"github.com/Aarth-Web/ss-backend/core/user"
)

var (
	// errors
	ErrParagraphNotFound  = errors.New("reading paragraph not found")
	ErrAssignmentNotFound = errors.New("reading assignment not found")
	ErrCompletionNotFound = errors.New("completion record not found")
)

type (
	Repository interface {
		CreateParagraph(ctx context.Context, p Paragraph) (Paragraph, error)
		GetParagraphByID(ctx context.Context, id string) (Paragraph, error)
		// FilterParagraphs returns the requested page newest first plus the
		// unpaged total.
		FilterParagraphs(ctx context.Context, filter ParagraphFilter) ([]Paragraph, int, error)
		UpdateParagraph(ctx context.Context, p Paragraph) (Paragraph, error)
		DeleteParagraphByID(ctx context.Context, id string) error

		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string) (Assignment, error)
		CountActiveAssignmentsByParagraph(ctx context.Context, paragraphID string) (int, error)
		// AssignmentsForStudent returns active assignments targeting the student
		// individually or through one of the given classrooms, newest first.
		AssignmentsForStudent(ctx context.Context, studentID string, classroomIDs []string) ([]Assignment, error)
		// QueryTeacherAssignments returns the requested page of a teacher's
		// active assignments, newest first, plus the unpaged total.
		QueryTeacherAssignments(ctx context.Context, teacherID string, page core.Page) ([]Assignment, int, error)

		CreateCompletion(ctx context.Context, c Completion) (Completion, error)
		GetCompletion(ctx context.Context, assignmentID, studentID string) (Completion, error)
		GetCompletionByID(ctx context.Context, id string) (Completion, error)
		ListCompletions(ctx context.Context, assignmentID string) ([]Completion, error)
		UpdateCompletion(ctx context.Context, c Completion) (Completion, error)
	}

	Service struct {
		repo          Repository
		users         user.Repository
		classrooms    *classroom.Service
		classroomRepo classroom.Repository
	}
)

func NewService(repo Repository, users user.Repository, classrooms *classroom.Service, classroomRepo classroom.Repository) *Service {
	return &Service{repo: repo, users: users, classrooms: classrooms, classroomRepo: classroomRepo}
}

// CreateParagraph registers a paragraph owned by the creating teacher and
// scoped to their school.
func (svc *Service) CreateParagraph(ctx context.Context, np NewParagraph, actor user.User) (Paragraph, error) {
	now := time.Now().UTC()
	p := Paragraph{
		Title:      np.Title,
		Content:    np.Content,
		Difficulty: np.Difficulty,
		Keywords:   np.Keywords,
		IsActive:   true,
		SchoolID:   actor.SchoolID,
		CreatedBy:  actor.ID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	p, err := svc.repo.CreateParagraph(ctx, p)
	if err != nil {
		return Paragraph{}, pkgerrors.Wrap(err, "creating reading paragraph")
	}
	return p, nil
}

// QueryParagraphs lists paragraphs visible to the actor: their own for a
// teacher, the school's for school admins and students, everything for a
// superadmin.
func (svc *Service) QueryParagraphs(ctx context.Context, q ParagraphQuery, actor user.User) ([]Paragraph, core.PageMeta, error) {
	q.Page.Clean()
	filter := ParagraphFilter{
		Difficulty: core.CleanString(q.Difficulty, true /* lower */),
		Search:     core.CleanString(q.Search),
		IsActive:   q.IsActive,
		Page:       q.Page,
	}
	switch {
	case actor.IsSuperadmin():
	case actor.IsTeacher():
		filter.CreatedBy = actor.ID
	default:
		filter.SchoolID = actor.SchoolID
	}

	paragraphs, total, err := svc.repo.FilterParagraphs(ctx, filter)
	if err != nil {
		return nil, core.PageMeta{}, pkgerrors.Wrap(err, "filtering reading paragraphs")
	}
	if paragraphs == nil {
		paragraphs = []Paragraph{}
	}
	return paragraphs, core.NewPageMeta(total, q.Page), nil
}

// GetParagraph returns a paragraph after checking the actor's access: a
// teacher must own it, others must share its school.
func (svc *Service) GetParagraph(ctx context.Context, id string, actor user.User) (Paragraph, error) {
	p, err := svc.repo.GetParagraphByID(ctx, id)
	if err != nil {
		if err == ErrParagraphNotFound {
			return Paragraph{}, core.NewNotFoundError("reading paragraph not found")
		}
		return Paragraph{}, pkgerrors.Wrap(err, "finding reading paragraph by ID")
	}

	switch {
	case actor.IsSuperadmin():
	case actor.IsTeacher():
		if p.CreatedBy != actor.ID {
			return Paragraph{}, core.NewForbiddenError("you can only view your own paragraphs")
		}
	default:
		if !actor.SameSchool(p.SchoolID) {
			return Paragraph{}, core.NewForbiddenError("you can only view paragraphs from your school")
		}
	}
	return p, nil
}

// UpdateParagraph modifies a paragraph; only its creator may.
func (svc *Service) UpdateParagraph(ctx context.Context, id string, up UpdateParagraph, actor user.User) (Paragraph, error) {
	p, err := svc.repo.GetParagraphByID(ctx, id)
	if err != nil {
		if err == ErrParagraphNotFound {
			return Paragraph{}, core.NewNotFoundError("reading paragraph not found")
		}
		return Paragraph{}, pkgerrors.Wrap(err, "finding reading paragraph by ID")
	}
	if p.CreatedBy != actor.ID {
		return Paragraph{}, core.NewForbiddenError("you can only update your own paragraphs")
	}

	if up.Title != "" {
		p.Title = up.Title
	}
	if up.Content != "" {
		p.Content = up.Content
	}
	if up.Difficulty != "" {
		p.Difficulty = up.Difficulty
	}
	if up.Keywords != nil {
		p.Keywords = up.Keywords
	}
	if up.IsActive != nil {
		p.IsActive = *up.IsActive
	}
	p.UpdatedAt = time.Now().UTC()

	p, err = svc.repo.UpdateParagraph(ctx, p)
	if err != nil {
		return Paragraph{}, pkgerrors.Wrap(err, "updating reading paragraph")
	}
	return p, nil
}

// DeleteParagraph removes a paragraph unless active assignments still use it;
// only its creator may delete.
func (svc *Service) DeleteParagraph(ctx context.Context, id string, actor user.User) error {
	p, err := svc.repo.GetParagraphByID(ctx, id)
	if err != nil {
		if err == ErrParagraphNotFound {
			return core.NewNotFoundError("reading paragraph not found")
		}
		return pkgerrors.Wrap(err, "finding reading paragraph by ID")
	}
	if p.CreatedBy != actor.ID {
		return core.NewForbiddenError("you can only delete your own paragraphs")
	}

	active, err := svc.repo.CountActiveAssignmentsByParagraph(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(err, "counting active assignments")
	}
	if active > 0 {
		return core.NewValidationError(errors.New("cannot delete paragraph as it is used in active assignments"))
	}

	if err := svc.repo.DeleteParagraphByID(ctx, id); err != nil {
		return pkgerrors.Wrap(err, "deleting reading paragraph")
	}
	return nil
}

// CreateAssignment assigns a paragraph to students or a whole classroom. The
// teacher must own the paragraph's school and, for classroom assignments, the
// classroom itself.
func (svc *Service) CreateAssignment(ctx context.Context, na NewAssignment, actor user.User) (Assignment, error) {
	p, err := svc.repo.GetParagraphByID(ctx, na.ParagraphID)
	if err != nil {
		if err == ErrParagraphNotFound {
			return Assignment{}, core.NewNotFoundError("reading paragraph not found")
		}
		return Assignment{}, pkgerrors.Wrap(err, "finding reading paragraph by ID")
	}
	if !actor.SameSchool(p.SchoolID) {
		return Assignment{}, core.NewForbiddenError("you can only assign paragraphs from your school")
	}

	a := Assignment{
		Title:       na.Title,
		Description: na.Description,
		ParagraphID: na.ParagraphID,
		TeacherID:   actor.ID,
		Type:        na.Type,
		IsActive:    true,
	}

	switch na.Type {
	case AssignmentIndividual:
		if len(na.StudentIDs) == 0 {
			return Assignment{}, core.NewValidationError(errors.New("student IDs are required for individual assignments"),
				core.FieldError{Field: "studentIds", Error: "required for individual assignments"})
		}
		students, err := svc.users.GetUsersByID(ctx, na.StudentIDs)
		if err != nil {
			return Assignment{}, pkgerrors.Wrap(err, "finding students by ID")
		}
		valid := make(map[string]bool, len(students))
		for _, s := range students {
			if s.IsStudent() && s.SameSchool(actor.SchoolID) {
				valid[s.ID] = true
			}
		}
		for _, sid := range na.StudentIDs {
			if !valid[sid] {
				return Assignment{}, core.NewValidationError(errors.New("all students must belong to your school"),
					core.FieldError{Field: "studentIds", Error: "all students must belong to your school"})
			}
		}
		a.StudentIDs = na.StudentIDs

	case AssignmentClassroom:
		if na.ClassroomID == "" {
			return Assignment{}, core.NewValidationError(errors.New("classroom ID is required for classroom assignments"),
				core.FieldError{Field: "classroomId", Error: "required for classroom assignments"})
		}
		cls, err := svc.classrooms.Get(ctx, na.ClassroomID, actor)
		if err != nil {
			return Assignment{}, err
		}
		if cls.TeacherID != actor.ID {
			return Assignment{}, core.NewForbiddenError("you can only assign to your own classrooms")
		}
		a.ClassroomID = na.ClassroomID
	}

	if na.DueDate != "" {
		due, err := parseDueDate(na.DueDate)
		if err != nil {
			return Assignment{}, err
		}
		a.DueDate = &due
	}

	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now

	a, err = svc.repo.CreateAssignment(ctx, a)
	if err != nil {
		return Assignment{}, pkgerrors.Wrap(err, "creating reading assignment")
	}
	return a, nil
}

// StudentAssignments lists the actor's assignments, direct and through
// enrolled classrooms, each with its derived status.
func (svc *Service) StudentAssignments(ctx context.Context, actor user.User) ([]StudentAssignment, error) {
	enrolled, err := svc.classroomRepo.FilterClassrooms(ctx, classroom.Filter{StudentID: actor.ID})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "filtering classrooms")
	}
	classroomIDs := make([]string, 0, len(enrolled))
	for _, cls := range enrolled {
		classroomIDs = append(classroomIDs, cls.ID)
	}

	assignments, err := svc.repo.AssignmentsForStudent(ctx, actor.ID, classroomIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "listing student assignments")
	}

	now := time.Now().UTC()
	result := make([]StudentAssignment, 0, len(assignments))
	for _, a := range assignments {
		completed := true
		if _, err := svc.repo.GetCompletion(ctx, a.ID, actor.ID); err != nil {
			if err != ErrCompletionNotFound {
				return nil, pkgerrors.Wrap(err, "finding completion")
			}
			completed = false
		}
		result = append(result, StudentAssignment{Assignment: a, Status: a.Status(completed, now)})
	}
	return result, nil
}

// GetStudentAssignment returns one assignment for the actor with their own
// completion attached.
func (svc *Service) GetStudentAssignment(ctx context.Context, id string, actor user.User) (StudentAssignment, error) {
	a, err := svc.getAssignmentFor(ctx, id, actor)
	if err != nil {
		return StudentAssignment{}, err
	}

	sa := StudentAssignment{Assignment: a}
	completed := true
	c, err := svc.repo.GetCompletion(ctx, a.ID, actor.ID)
	if err != nil {
		if err != ErrCompletionNotFound {
			return StudentAssignment{}, pkgerrors.Wrap(err, "finding completion")
		}
		completed = false
	} else {
		sa.Completion = &c
	}
	sa.Status = a.Status(completed, time.Now().UTC())
	return sa, nil
}

// GetTeacherAssignment returns one assignment with every completion; the
// actor must own it.
func (svc *Service) GetTeacherAssignment(ctx context.Context, id string, actor user.User) (AssignmentDetail, error) {
	a, err := svc.getAssignment(ctx, id)
	if err != nil {
		return AssignmentDetail{}, err
	}
	if a.TeacherID != actor.ID {
		return AssignmentDetail{}, core.NewForbiddenError("you can only view your own assignments")
	}

	completions, err := svc.repo.ListCompletions(ctx, a.ID)
	if err != nil {
		return AssignmentDetail{}, pkgerrors.Wrap(err, "listing completions")
	}
	if completions == nil {
		completions = []Completion{}
	}
	return AssignmentDetail{Assignment: a, Completions: completions}, nil
}

// CompleteAssignment records the actor's completion, bumping the attempt
// count on repeat submissions.
func (svc *Service) CompleteAssignment(ctx context.Context, id string, ca CompleteAssignment, actor user.User) (Completion, error) {
	a, err := svc.getAssignmentFor(ctx, id, actor)
	if err != nil {
		return Completion{}, err
	}

	now := time.Now().UTC()
	c, err := svc.repo.GetCompletion(ctx, a.ID, actor.ID)
	switch err {
	case nil:
		c.CompletedAt = now
		c.ReadingDuration = ca.ReadingDuration
		c.SelfRating = ca.SelfRating
		c.Notes = ca.Notes
		c.AttemptCount++
		c.UpdatedAt = now
		c, err = svc.repo.UpdateCompletion(ctx, c)
	case ErrCompletionNotFound:
		c = Completion{
			AssignmentID:    a.ID,
			StudentID:       actor.ID,
			CompletedAt:     now,
			ReadingDuration: ca.ReadingDuration,
			SelfRating:      ca.SelfRating,
			Notes:           ca.Notes,
			AttemptCount:    1,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		c, err = svc.repo.CreateCompletion(ctx, c)
	default:
		return Completion{}, pkgerrors.Wrap(err, "finding completion")
	}
	if err != nil {
		return Completion{}, pkgerrors.Wrap(err, "saving completion")
	}
	return c, nil
}

// AddTeacherFeedback attaches a rating and feedback to a completion; the
// actor must own the underlying assignment.
func (svc *Service) AddTeacherFeedback(ctx context.Context, completionID string, tf TeacherFeedback, actor user.User) (Completion, error) {
	c, err := svc.repo.GetCompletionByID(ctx, completionID)
	if err != nil {
		if err == ErrCompletionNotFound {
			return Completion{}, core.NewNotFoundError("completion record not found")
		}
		return Completion{}, pkgerrors.Wrap(err, "finding completion by ID")
	}

	a, err := svc.getAssignment(ctx, c.AssignmentID)
	if err != nil {
		return Completion{}, err
	}
	if a.TeacherID != actor.ID {
		return Completion{}, core.NewForbiddenError("you can only review completions of your own assignments")
	}

	if tf.TeacherRating != 0 {
		c.TeacherRating = tf.TeacherRating
	}
	if tf.TeacherFeedback != "" {
		c.TeacherFeedback = tf.TeacherFeedback
	}
	c.UpdatedAt = time.Now().UTC()

	c, err = svc.repo.UpdateCompletion(ctx, c)
	if err != nil {
		return Completion{}, pkgerrors.Wrap(err, "updating completion")
	}
	return c, nil
}

// TeacherAssignments pages the actor's active assignments with completion
// progress.
func (svc *Service) TeacherAssignments(ctx context.Context, actor user.User, page core.Page) ([]TeacherAssignment, core.PageMeta, error) {
	page.Clean()
	assignments, total, err := svc.repo.QueryTeacherAssignments(ctx, actor.ID, page)
	if err != nil {
		return nil, core.PageMeta{}, pkgerrors.Wrap(err, "querying teacher assignments")
	}

	result := make([]TeacherAssignment, 0, len(assignments))
	for _, a := range assignments {
		completions, err := svc.repo.ListCompletions(ctx, a.ID)
		if err != nil {
			return nil, core.PageMeta{}, pkgerrors.Wrap(err, "listing completions")
		}

		expected := len(a.StudentIDs)
		if a.Type == AssignmentClassroom {
			if cls, err := svc.classroomRepo.GetClassroomByID(ctx, a.ClassroomID); err == nil {
				expected = len(cls.StudentIDs)
			}
		}
		result = append(result, TeacherAssignment{
			Assignment:      a,
			CompletionStats: NewCompletionStats(len(completions), expected),
		})
	}
	return result, core.NewPageMeta(total, page), nil
}

func (svc *Service) getAssignment(ctx context.Context, id string) (Assignment, error) {
	a, err := svc.repo.GetAssignmentByID(ctx, id)
	if err != nil {
		if err == ErrAssignmentNotFound {
			return Assignment{}, core.NewNotFoundError("reading assignment not found")
		}
		return Assignment{}, pkgerrors.Wrap(err, "finding reading assignment by ID")
	}
	return a, nil
}

// getAssignmentFor loads an assignment and verifies the student is targeted
// by it, directly or through classroom enrollment. Non-students get the
// assignment as is.
func (svc *Service) getAssignmentFor(ctx context.Context, id string, actor user.User) (Assignment, error) {
	a, err := svc.getAssignment(ctx, id)
	if err != nil {
		return Assignment{}, err
	}
	if !actor.IsStudent() {
		return a, nil
	}

	switch a.Type {
	case AssignmentIndividual:
		if !a.Targeted(actor.ID) {
			return Assignment{}, core.NewForbiddenError("you do not have access to this assignment")
		}
	case AssignmentClassroom:
		cls, err := svc.classroomRepo.GetClassroomByID(ctx, a.ClassroomID)
		if err != nil || !cls.HasStudent(actor.ID) {
			return Assignment{}, core.NewForbiddenError("you do not have access to this assignment")
		}
	}
	return a, nil
}

func parseDueDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, core.NewValidationError(errors.New("invalid due date"),
		core.FieldError{Field: "dueDate", Error: "must be an ISO date (YYYY-MM-DD)"})
}
