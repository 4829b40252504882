package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Aarth-Web/ss-backend/core/school"
	"github.com/Aarth-Web/ss-backend/core/user"
)

type schoolApi struct {
	svc      *school.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *school.Service, userSvc *user.Service, validate *validator.Validate) {
	api := schoolApi{svc: svc, userSvc: userSvc, validate: validate}

	sg := g.Group("/schools", jwt)

	sg.POST("", api.create, roleMiddleware(user.RoleSuperadmin))
	sg.GET("", api.query,
		roleMiddleware(user.RoleSuperadmin, user.RoleSchooladmin))
	sg.GET("/:id", api.retrieve)
	sg.PATCH("/:id", api.update,
		roleMiddleware(user.RoleSuperadmin, user.RoleSchooladmin))
	sg.DELETE("/:id", api.destroy, roleMiddleware(user.RoleSuperadmin))
}

type CreateSchoolResponse struct {
	Message string        `json:"message"`
	School  school.School `json:"school"`
}

// Handlers

func (api *schoolApi) create(ctx echo.Context) error {
	var data school.NewSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchool")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}
	sch, err := api.svc.Create(ctx.Request().Context(), data, claims.Subject)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, CreateSchoolResponse{
		Message: "School created successfully",
		School:  sch,
	})
}

func (api *schoolApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	// school admins only see their own school
	if !ctxUsr.IsSuperadmin() {
		sch, err := api.svc.GetByID(ctx.Request().Context(), ctxUsr.SchoolID)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, []school.School{sch})
	}

	filter := school.QueryFilter{
		Search: ctx.QueryParam("search"),
		Page:   bindPage(ctx),
	}
	schools, meta, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying schools")
	}
	return ctx.JSON(http.StatusOK, ListResponse{Data: schools, Meta: meta})
}

func (api *schoolApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	id := ctx.Param("id")
	if !ctxUsr.IsSuperadmin() && !ctxUsr.SameSchool(id) {
		return errHttpForbidden
	}

	sch, err := api.svc.GetByID(ctx.Request().Context(), id)
	if err != nil {
		return err
	}
	if !ctxUsr.IsAdmin() {
		return ctx.JSON(http.StatusOK, sch.LimitedInfo())
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) update(ctx echo.Context) error {
	var data school.UpdateSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchool")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	id := ctx.Param("id")
	if !ctxUsr.IsSuperadmin() {
		if !ctxUsr.SameSchool(id) {
			return echo.NewHTTPError(http.StatusForbidden, "you can only update your own school")
		}
		if data.IsActive != nil {
			return echo.NewHTTPError(http.StatusForbidden, "only superadmins can change the active status of a school")
		}
	}

	sch, err := api.svc.Update(ctx.Request().Context(), id, data, school.UpdatableFields(ctxUsr.Role))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}
