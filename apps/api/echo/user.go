package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Aarth-Web/ss-backend/core/user"
)

type userApi struct {
	svc      *user.Service
	validate *validator.Validate
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *user.Service, validate *validator.Validate) {
	api := userApi{svc: svc, validate: validate}

	ug := g.Group("/users", jwt)

	ug.GET("", api.query, roleMiddleware(user.RoleSuperadmin))
	ug.GET("/school/:schoolId", api.querySchool,
		roleMiddleware(user.RoleSuperadmin, user.RoleSchooladmin, user.RoleTeacher))
	ug.PATCH("/profile/update", api.updateProfile)
	ug.GET("/:id", api.retrieve,
		roleMiddleware(user.RoleSuperadmin, user.RoleSchooladmin, user.RoleTeacher))
	ug.PATCH("/:id", api.update,
		roleMiddleware(user.RoleSuperadmin, user.RoleSchooladmin, user.RoleTeacher))
	ug.PATCH("/:id/block", api.block, roleMiddleware(user.RoleSuperadmin, user.RoleSchooladmin))
	ug.PATCH("/:id/unblock", api.unblock, roleMiddleware(user.RoleSuperadmin, user.RoleSchooladmin))
	ug.DELETE("/:id", api.destroy, roleMiddleware(user.RoleSuperadmin))
}

// Handlers

func (api *userApi) query(ctx echo.Context) error {
	filter := user.QueryFilter{
		Role:     ctx.QueryParam("role"),
		SchoolID: ctx.QueryParam("schoolId"),
		Search:   ctx.QueryParam("search"),
		Page:     bindPage(ctx),
	}

	users, meta, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	return ctx.JSON(http.StatusOK, ListResponse{Data: users, Meta: meta})
}

func (api *userApi) querySchool(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	schoolID := ctx.Param("schoolId")
	if !ctxUsr.IsSuperadmin() && !ctxUsr.SameSchool(schoolID) {
		return errHttpForbidden
	}

	filter := user.QueryFilter{
		Role:     ctx.QueryParam("role"),
		SchoolID: schoolID,
		Search:   ctx.QueryParam("search"),
		Page:     bindPage(ctx),
	}
	users, meta, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	return ctx.JSON(http.StatusOK, ListResponse{Data: users, Meta: meta})
}

func (api *userApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if !ctxUsr.IsSuperadmin() {
		if !ctxUsr.SameSchool(usr.SchoolID) {
			return errHttpForbidden
		}
		if ctxUsr.IsTeacher() && !usr.IsStudent() {
			return errHttpForbidden
		}
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) update(ctx echo.Context) error {
	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if ctx.Param("id") == ctxUsr.ID {
		return echo.NewHTTPError(http.StatusForbidden, "use the profile endpoint to update your own account")
	}

	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if !ctxUsr.IsSuperadmin() {
		if !ctxUsr.SameSchool(usr.SchoolID) {
			return echo.NewHTTPError(http.StatusForbidden, "you can only update users in your school")
		}
		if user.RolePriority(usr.Role) >= user.RolePriority(ctxUsr.Role) {
			return echo.NewHTTPError(http.StatusForbidden, "you cannot update users with equal or higher privileges")
		}
		if ctxUsr.IsTeacher() && !usr.IsStudent() {
			return echo.NewHTTPError(http.StatusForbidden, "teachers can only update student accounts")
		}
	}

	usr, err = api.svc.Update(ctx.Request().Context(), usr.ID, data, user.UpdatableFields(ctxUsr.Role))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) updateProfile(ctx echo.Context) error {
	var data user.UpdateUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	// only safe properties may be self-served
	if data.AdditionalInfo != nil {
		data.AdditionalInfo = &user.AdditionalInfo{
			Address:     data.AdditionalInfo.Address,
			Bio:         data.AdditionalInfo.Bio,
			Preferences: data.AdditionalInfo.Preferences,
		}
	}
	data.ParentLanguage = ""
	data.ParentOccupation = ""

	usr, err := api.svc.Update(ctx.Request().Context(), ctxUsr.ID, data, user.ProfileUpdatableFields)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) block(ctx echo.Context) error {
	return api.setActive(ctx, false)
}

func (api *userApi) unblock(ctx echo.Context) error {
	return api.setActive(ctx, true)
}

func (api *userApi) setActive(ctx echo.Context, active bool) error {
	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if !active && ctx.Param("id") == ctxUsr.ID {
		return echo.NewHTTPError(http.StatusForbidden, "you cannot block your own account")
	}

	usr, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	if user.Allowed(ctxUsr.Role, user.ActionUserBlock) == user.ScopeSchool {
		if !ctxUsr.SameSchool(usr.SchoolID) {
			return echo.NewHTTPError(http.StatusForbidden, "you can only manage users in your school")
		}
		if user.RolePriority(usr.Role) >= user.RolePriority(ctxUsr.Role) {
			return echo.NewHTTPError(http.StatusForbidden, "you cannot manage users with equal or higher privileges")
		}
	}

	usr, err = api.svc.SetActive(ctx.Request().Context(), usr.ID, active)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, usr)
}

func (api *userApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.svc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if ctx.Param("id") == ctxUsr.ID {
		return echo.NewHTTPError(http.StatusForbidden, "you cannot delete your own account")
	}

	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
