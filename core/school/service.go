package school

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/Aarth-Web/ss-backend/core"
	"github.com/Aarth-Web/ss-backend/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("school not found")
)

// Per-role allowed-field sets for school updates; isActive is reserved to the
// superadmin.
var (
	superadminUpdatableFields  = []string{"name", "address", "isActive"}
	schooladminUpdatableFields = []string{"name", "address"}
)

// UpdatableFields returns the school fields an actor role may change.
func UpdatableFields(role string) []string {
	switch role {
	case user.RoleSuperadmin:
		return superadminUpdatableFields
	case user.RoleSchooladmin:
		return schooladminUpdatableFields
	}
	return nil
}

type (
	Repository interface {
		CreateSchool(ctx context.Context, sch School) (School, error)
		GetSchoolByID(ctx context.Context, id string) (School, error)
		// FilterSchools matches QueryFilter.Search case-insensitively on name,
		// address or registration ID and returns the requested page plus the
		// unpaged total, newest first.
		FilterSchools(ctx context.Context, filter QueryFilter) ([]School, int, error)
		UpdateSchool(ctx context.Context, sch School) (School, error)
		DeleteSchoolByID(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, ns NewSchool, createdBy string) (School, error) {
	now := time.Now().UTC()
	sch := School{
		Name:           ns.Name,
		RegistrationID: user.GenerateRegistrationID(),
		Address:        ns.Address,
		CreatedBy:      createdBy,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	sch, err := svc.repo.CreateSchool(ctx, sch)
	if err != nil {
		return School{}, pkgerrors.Wrap(err, "creating school")
	}
	return sch, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (School, error) {
	sch, err := svc.repo.GetSchoolByID(ctx, id)
	if err != nil {
		if err == ErrNotFound {
			return School{}, core.NewNotFoundError("school not found")
		}
		return School{}, pkgerrors.Wrap(err, "finding school by ID")
	}
	return sch, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]School, core.PageMeta, error) {
	filter.Clean()
	schools, total, err := svc.repo.FilterSchools(ctx, filter)
	if err != nil {
		return nil, core.PageMeta{}, pkgerrors.Wrap(err, "filtering schools")
	}
	if schools == nil {
		schools = []School{}
	}
	return schools, core.NewPageMeta(total, filter.Page), nil
}

// Update applies us to the stored school, restricted to the allowed field set.
func (svc *Service) Update(ctx context.Context, id string, us UpdateSchool, allowed []string) (School, error) {
	sch, err := svc.GetByID(ctx, id)
	if err != nil {
		return School{}, err
	}

	for _, field := range allowed {
		switch field {
		case "name":
			if us.Name != "" {
				sch.Name = us.Name
			}
		case "address":
			if us.Address != "" {
				sch.Address = us.Address
			}
		case "isActive":
			if us.IsActive != nil {
				sch.IsActive = *us.IsActive
			}
		}
	}
	sch.UpdatedAt = time.Now().UTC()

	sch, err = svc.repo.UpdateSchool(ctx, sch)
	if err != nil {
		return School{}, pkgerrors.Wrap(err, "updating school")
	}
	return sch, nil
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if err := svc.repo.DeleteSchoolByID(ctx, id); err != nil {
		if err == ErrNotFound {
			return core.NewNotFoundError("school not found")
		}
		return pkgerrors.Wrap(err, "deleting school")
	}
	return nil
}
