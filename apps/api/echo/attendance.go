package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Aarth-Web/ss-backend/core"
	"github.com/Aarth-Web/ss-backend/core/attendance"
	"github.com/Aarth-Web/ss-backend/core/user"
)

type attendanceApi struct {
	svc      *attendance.Service
	userSvc  *user.Service
	smsSvc   core.SMSService
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *attendance.Service,
	userSvc *user.Service, smsSvc core.SMSService, validate *validator.Validate) {
	api := attendanceApi{svc: svc, userSvc: userSvc, smsSvc: smsSvc, validate: validate}

	ag := g.Group("/attendance", jwt)

	ag.POST("", api.mark,
		roleMiddleware(user.RoleSuperadmin, user.RoleSchooladmin, user.RoleTeacher))
	ag.GET("", api.query)
	ag.POST("/test-sms", api.testSMS,
		roleMiddleware(user.RoleSuperadmin, user.RoleSchooladmin))
	ag.GET("/classroom/:classroomId", api.classroomRecords,
		roleMiddleware(user.RoleSuperadmin, user.RoleSchooladmin, user.RoleTeacher))
	ag.GET("/:id", api.retrieve)
	ag.PUT("/:id", api.update,
		roleMiddleware(user.RoleSuperadmin, user.RoleSchooladmin, user.RoleTeacher))
	ag.DELETE("/:id", api.destroy,
		roleMiddleware(user.RoleSuperadmin, user.RoleSchooladmin))
}

// Handlers

func (api *attendanceApi) mark(ctx echo.Context) error {
	var data attendance.NewRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRecord")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.Mark(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *attendanceApi) query(ctx echo.Context) error {
	var q attendance.GetQuery
	if err := ctx.Bind(&q); err != nil {
		return errors.Wrap(err, "binding to GetQuery")
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	records, err := api.svc.Get(ctx.Request().Context(), q, ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, records)
}

func (api *attendanceApi) retrieve(ctx echo.Context) error {
	rec, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rec)
}

func (api *attendanceApi) update(ctx echo.Context) error {
	var data attendance.UpdateRecord
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateRecord")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	res, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *attendanceApi) destroy(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), ctxUsr); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Attendance record deleted successfully"})
}

func (api *attendanceApi) classroomRecords(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	res, err := api.svc.ClassroomRecords(ctx.Request().Context(), ctx.Param("classroomId"), bindPage(ctx), ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *attendanceApi) testSMS(ctx echo.Context) error {
	var data TestSMSRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TestSMSRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.smsSvc.Send(ctx.Request().Context(), data.Mobile, data.Message); err != nil {
		return errors.Wrap(err, "sending test SMS")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Test SMS sent successfully"})
}
