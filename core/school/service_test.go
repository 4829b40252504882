package school_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aarth-Web/ss-backend/core"
	"github.com/Aarth-Web/ss-backend/core/school"
	"github.com/Aarth-Web/ss-backend/core/user"
	"github.com/Aarth-Web/ss-backend/storage/database/inmem"
)

func newTestService(t *testing.T) *school.Service {
	t.Helper()
	return school.NewService(inmemdb.NewSchoolRepository(inmemdb.NewDB()))
}

func TestService_Create(t *testing.T) {
	svc := newTestService(t)

	sch, err := svc.Create(context.Background(), school.NewSchool{
		Name:    "Sunrise Public School",
		Address: "12 Hill Road",
	}, "creator-id")
	require.NoError(t, err)

	assert.NotEmpty(t, sch.ID)
	assert.Len(t, sch.RegistrationID, 8)
	assert.Equal(t, "creator-id", sch.CreatedBy)
	assert.True(t, sch.IsActive)
	assert.False(t, sch.CreatedAt.IsZero())
}

func TestService_Query(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	names := []string{"North Primary", "South Primary", "Hilltop Academy"}
	for _, name := range names {
		_, err := svc.Create(ctx, school.NewSchool{Name: name}, "creator-id")
		require.NoError(t, err)
	}

	t.Run("all", func(t *testing.T) {
		schools, meta, err := svc.Query(ctx, school.QueryFilter{Page: core.NewPage(1, 10)})
		require.NoError(t, err)
		assert.Len(t, schools, 3)
		assert.Equal(t, 3, meta.Total)
	})

	t.Run("search matches name case-insensitively", func(t *testing.T) {
		schools, meta, err := svc.Query(ctx, school.QueryFilter{Search: "primary", Page: core.NewPage(1, 10)})
		require.NoError(t, err)
		assert.Len(t, schools, 2)
		assert.Equal(t, 2, meta.Total)
	})

	t.Run("pagination", func(t *testing.T) {
		schools, meta, err := svc.Query(ctx, school.QueryFilter{Page: core.NewPage(2, 2)})
		require.NoError(t, err)
		assert.Len(t, schools, 1)
		assert.Equal(t, 3, meta.Total)
		assert.Equal(t, 2, meta.TotalPages)
	})
}

func TestService_Update(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sch, err := svc.Create(ctx, school.NewSchool{Name: "Old Name"}, "creator-id")
	require.NoError(t, err)

	t.Run("school admins cannot deactivate", func(t *testing.T) {
		blocked := false
		updated, err := svc.Update(ctx, sch.ID, school.UpdateSchool{
			Name:     "New Name",
			IsActive: &blocked,
		}, school.UpdatableFields(user.RoleSchooladmin))
		require.NoError(t, err)
		assert.Equal(t, "New Name", updated.Name)
		assert.True(t, updated.IsActive)
	})

	t.Run("superadmins can deactivate", func(t *testing.T) {
		blocked := false
		updated, err := svc.Update(ctx, sch.ID, school.UpdateSchool{IsActive: &blocked},
			school.UpdatableFields(user.RoleSuperadmin))
		require.NoError(t, err)
		assert.False(t, updated.IsActive)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := svc.Update(ctx, "missing", school.UpdateSchool{Name: "X"},
			school.UpdatableFields(user.RoleSuperadmin))
		assert.True(t, core.IsNotFound(err))
	})
}

func TestService_Delete(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	sch, err := svc.Create(ctx, school.NewSchool{Name: "Doomed"}, "creator-id")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, sch.ID))
	_, err = svc.GetByID(ctx, sch.ID)
	assert.True(t, core.IsNotFound(err))

	assert.True(t, core.IsNotFound(svc.Delete(ctx, sch.ID)))
}

func TestSchool_LimitedInfo(t *testing.T) {
	sch := school.School{
		ID:             "id",
		Name:           "Sunrise Public School",
		RegistrationID: "ABCD1234",
		Address:        "12 Hill Road",
	}
	assert.Equal(t, school.LimitedInfo{Name: "Sunrise Public School", Address: "12 Hill Road"}, sch.LimitedInfo())
}
