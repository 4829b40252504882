package inmemdb

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/Aarth-Web/ss-backend/core"
	"github.com/Aarth-Web/ss-backend/core/reading"
)

type readingRepository struct {
	db *DB
}

var _ reading.Repository = (*readingRepository)(nil)

func NewReadingRepository(db *DB) reading.Repository {
	return &readingRepository{db: db}
}

func (repo *readingRepository) queryParagraphs() []reading.Paragraph {
	paragraphs := make([]reading.Paragraph, 0, len(repo.db.paragraphs))
	for _, p := range repo.db.paragraphs {
		paragraphs = append(paragraphs, *p)
	}
	sort.Slice(paragraphs, func(i, j int) bool { return paragraphs[i].CreatedAt.After(paragraphs[j].CreatedAt) })
	return paragraphs
}

func (repo *readingRepository) queryAssignments() []reading.Assignment {
	assignments := make([]reading.Assignment, 0, len(repo.db.assignments))
	for _, a := range repo.db.assignments {
		assignments = append(assignments, *a)
	}
	sort.Slice(assignments, func(i, j int) bool { return assignments[i].CreatedAt.After(assignments[j].CreatedAt) })
	return assignments
}

func (repo *readingRepository) CreateParagraph(_ context.Context, p reading.Paragraph) (reading.Paragraph, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	p.ID = uuid.New().String()
	repo.db.paragraphs[p.ID] = &p
	return p, nil
}

func (repo *readingRepository) GetParagraphByID(_ context.Context, id string) (reading.Paragraph, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if p, ok := repo.db.paragraphs[id]; ok {
		return *p, nil
	}
	return reading.Paragraph{}, reading.ErrParagraphNotFound
}

func (repo *readingRepository) FilterParagraphs(_ context.Context, filter reading.ParagraphFilter) ([]reading.Paragraph, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var matches []reading.Paragraph
	for _, p := range repo.queryParagraphs() {
		if filter.SchoolID != "" && p.SchoolID != filter.SchoolID {
			continue
		}
		if filter.CreatedBy != "" && p.CreatedBy != filter.CreatedBy {
			continue
		}
		if filter.Difficulty != "" && p.Difficulty != filter.Difficulty {
			continue
		}
		if filter.IsActive != nil && p.IsActive != *filter.IsActive {
			continue
		}
		if filter.Search != "" && !paragraphMatches(p, filter.Search) {
			continue
		}
		matches = append(matches, p)
	}
	return paginate(matches, filter.Page), len(matches), nil
}

func paragraphMatches(p reading.Paragraph, search string) bool {
	search = strings.ToLower(search)
	if strings.Contains(strings.ToLower(p.Title), search) || strings.Contains(strings.ToLower(p.Content), search) {
		return true
	}
	for _, kw := range p.Keywords {
		if strings.Contains(strings.ToLower(kw), search) {
			return true
		}
	}
	return false
}

func (repo *readingRepository) UpdateParagraph(_ context.Context, p reading.Paragraph) (reading.Paragraph, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.paragraphs[p.ID]; !ok {
		return reading.Paragraph{}, reading.ErrParagraphNotFound
	}
	repo.db.paragraphs[p.ID] = &p
	return p, nil
}

func (repo *readingRepository) DeleteParagraphByID(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.paragraphs[id]; !ok {
		return reading.ErrParagraphNotFound
	}
	delete(repo.db.paragraphs, id)
	return nil
}

func (repo *readingRepository) CreateAssignment(_ context.Context, a reading.Assignment) (reading.Assignment, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	a.ID = uuid.New().String()
	repo.db.assignments[a.ID] = &a
	return a, nil
}

func (repo *readingRepository) GetAssignmentByID(_ context.Context, id string) (reading.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if a, ok := repo.db.assignments[id]; ok {
		return *a, nil
	}
	return reading.Assignment{}, reading.ErrAssignmentNotFound
}

func (repo *readingRepository) CountActiveAssignmentsByParagraph(_ context.Context, paragraphID string) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var count int
	for _, a := range repo.db.assignments {
		if a.ParagraphID == paragraphID && a.IsActive {
			count++
		}
	}
	return count, nil
}

func (repo *readingRepository) AssignmentsForStudent(_ context.Context, studentID string, classroomIDs []string) ([]reading.Assignment, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	inClassrooms := make(map[string]bool, len(classroomIDs))
	for _, id := range classroomIDs {
		inClassrooms[id] = true
	}

	var matches []reading.Assignment
	for _, a := range repo.queryAssignments() {
		if !a.IsActive {
			continue
		}
		if a.Targeted(studentID) || (a.ClassroomID != "" && inClassrooms[a.ClassroomID]) {
			matches = append(matches, a)
		}
	}
	return matches, nil
}

func (repo *readingRepository) QueryTeacherAssignments(_ context.Context, teacherID string, page core.Page) ([]reading.Assignment, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var matches []reading.Assignment
	for _, a := range repo.queryAssignments() {
		if a.TeacherID == teacherID && a.IsActive {
			matches = append(matches, a)
		}
	}
	return paginate(matches, page), len(matches), nil
}

func (repo *readingRepository) CreateCompletion(_ context.Context, c reading.Completion) (reading.Completion, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	c.ID = uuid.New().String()
	repo.db.completions[c.ID] = &c
	return c, nil
}

func (repo *readingRepository) GetCompletion(_ context.Context, assignmentID, studentID string) (reading.Completion, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, c := range repo.db.completions {
		if c.AssignmentID == assignmentID && c.StudentID == studentID {
			return *c, nil
		}
	}
	return reading.Completion{}, reading.ErrCompletionNotFound
}

func (repo *readingRepository) GetCompletionByID(_ context.Context, id string) (reading.Completion, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.completions[id]; ok {
		return *c, nil
	}
	return reading.Completion{}, reading.ErrCompletionNotFound
}

func (repo *readingRepository) ListCompletions(_ context.Context, assignmentID string) ([]reading.Completion, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var completions []reading.Completion
	for _, c := range repo.db.completions {
		if c.AssignmentID == assignmentID {
			completions = append(completions, *c)
		}
	}
	sort.Slice(completions, func(i, j int) bool { return completions[i].CompletedAt.After(completions[j].CompletedAt) })
	return completions, nil
}

func (repo *readingRepository) UpdateCompletion(_ context.Context, c reading.Completion) (reading.Completion, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.completions[c.ID]; !ok {
		return reading.Completion{}, reading.ErrCompletionNotFound
	}
	repo.db.completions[c.ID] = &c
	return c, nil
}
