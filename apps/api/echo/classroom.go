package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Aarth-Web/ss-backend/core/classroom"
	"github.com/Aarth-Web/ss-backend/core/user"
)

type classroomApi struct {
	svc      *classroom.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerClassroomAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *classroom.Service, userSvc *user.Service, validate *validator.Validate) {
	api := classroomApi{svc: svc, userSvc: userSvc, validate: validate}

	cg := g.Group("/classrooms", jwt)

	cg.POST("", api.create,
		roleMiddleware(user.RoleSuperadmin, user.RoleSchooladmin, user.RoleTeacher))
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
	cg.PATCH("/:id", api.update,
		roleMiddleware(user.RoleSuperadmin, user.RoleSchooladmin, user.RoleTeacher))
	cg.DELETE("/:id", api.destroy,
		roleMiddleware(user.RoleSuperadmin, user.RoleSchooladmin))
	cg.POST("/:id/students", api.addStudents,
		roleMiddleware(user.RoleSuperadmin, user.RoleSchooladmin, user.RoleTeacher))
	cg.DELETE("/:id/students/:studentId", api.removeStudent,
		roleMiddleware(user.RoleSuperadmin, user.RoleSchooladmin, user.RoleTeacher))
}

// Handlers

func (api *classroomApi) create(ctx echo.Context) error {
	var data classroom.NewClassroom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClassroom")
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	// non-superadmins create within their own school
	if !ctxUsr.IsSuperadmin() && data.SchoolID == "" {
		data.SchoolID = ctxUsr.SchoolID
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	cls, err := api.svc.Create(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, cls)
}

func (api *classroomApi) query(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	classrooms, err := api.svc.QueryFor(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, classrooms)
}

func (api *classroomApi) retrieve(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	cls, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"), ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classroomApi) update(ctx echo.Context) error {
	var data classroom.UpdateClassroom
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateClassroom")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	cls, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data, ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cls)
}

func (api *classroomApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), ctxUsr); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classroomApi) addStudents(ctx echo.Context) error {
	var data classroom.AddStudents
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AddStudents")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	res, err := api.svc.AddStudents(ctx.Request().Context(), ctx.Param("id"), data, ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *classroomApi) removeStudent(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	res, err := api.svc.RemoveStudent(ctx.Request().Context(), ctx.Param("id"), ctx.Param("studentId"), ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
