package echoapi

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/Aarth-Web/ss-backend/core/reading"
	"github.com/Aarth-Web/ss-backend/core/user"
)

type readingApi struct {
	svc      *reading.Service
	userSvc  *user.Service
	validate *validator.Validate
}

func registerReadingAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *reading.Service, userSvc *user.Service, validate *validator.Validate) {
	api := readingApi{svc: svc, userSvc: userSvc, validate: validate}

	rg := g.Group("/reading", jwt)

	rg.POST("/paragraphs", api.createParagraph, roleMiddleware(user.RoleTeacher))
	rg.GET("/paragraphs", api.queryParagraphs)
	rg.GET("/paragraphs/:id", api.retrieveParagraph)
	rg.PATCH("/paragraphs/:id", api.updateParagraph, roleMiddleware(user.RoleTeacher))
	rg.DELETE("/paragraphs/:id", api.destroyParagraph, roleMiddleware(user.RoleTeacher))

	rg.POST("/assignments", api.createAssignment, roleMiddleware(user.RoleTeacher))
	rg.GET("/assignments/my-assignments", api.studentAssignments, roleMiddleware(user.RoleStudent))
	rg.GET("/assignments/teacher-assignments", api.teacherAssignments, roleMiddleware(user.RoleTeacher))
	rg.GET("/assignments/:id", api.retrieveAssignment,
		roleMiddleware(user.RoleTeacher, user.RoleStudent))
	rg.POST("/assignments/:id/complete", api.completeAssignment, roleMiddleware(user.RoleStudent))

	rg.POST("/completions/:id/feedback", api.addFeedback, roleMiddleware(user.RoleTeacher))
}

// Handlers

func (api *readingApi) createParagraph(ctx echo.Context) error {
	var data reading.NewParagraph
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewParagraph")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	par, err := api.svc.CreateParagraph(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, par)
}

func (api *readingApi) queryParagraphs(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	q := reading.ParagraphQuery{
		Difficulty: ctx.QueryParam("difficulty"),
		Search:     ctx.QueryParam("search"),
		IsActive:   boolQueryParam(ctx, "isActive"),
		Page:       bindPage(ctx),
	}
	paragraphs, meta, err := api.svc.QueryParagraphs(ctx.Request().Context(), q, ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ListResponse{Data: paragraphs, Meta: meta})
}

func (api *readingApi) retrieveParagraph(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	par, err := api.svc.GetParagraph(ctx.Request().Context(), ctx.Param("id"), ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, par)
}

func (api *readingApi) updateParagraph(ctx echo.Context) error {
	var data reading.UpdateParagraph
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateParagraph")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	par, err := api.svc.UpdateParagraph(ctx.Request().Context(), ctx.Param("id"), data, ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, par)
}

func (api *readingApi) destroyParagraph(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	if err := api.svc.DeleteParagraph(ctx.Request().Context(), ctx.Param("id"), ctxUsr); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Paragraph deleted successfully"})
}

func (api *readingApi) createAssignment(ctx echo.Context) error {
	var data reading.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	asg, err := api.svc.CreateAssignment(ctx.Request().Context(), data, ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, asg)
}

func (api *readingApi) studentAssignments(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	assignments, err := api.svc.StudentAssignments(ctx.Request().Context(), ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *readingApi) teacherAssignments(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	assignments, meta, err := api.svc.TeacherAssignments(ctx.Request().Context(), ctxUsr, bindPage(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ListResponse{Data: assignments, Meta: meta})
}

func (api *readingApi) retrieveAssignment(ctx echo.Context) error {
	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	id := ctx.Param("id")
	if ctxUsr.IsStudent() {
		asg, err := api.svc.GetStudentAssignment(ctx.Request().Context(), id, ctxUsr)
		if err != nil {
			return err
		}
		return ctx.JSON(http.StatusOK, asg)
	}

	asg, err := api.svc.GetTeacherAssignment(ctx.Request().Context(), id, ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, asg)
}

func (api *readingApi) completeAssignment(ctx echo.Context) error {
	var data reading.CompleteAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to CompleteAssignment")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	cpl, err := api.svc.CompleteAssignment(ctx.Request().Context(), ctx.Param("id"), data, ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cpl)
}

func (api *readingApi) addFeedback(ctx echo.Context) error {
	var data reading.TeacherFeedback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to TeacherFeedback")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ctxUsr, err := getContextUser(ctx, api.userSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	cpl, err := api.svc.AddTeacherFeedback(ctx.Request().Context(), ctx.Param("id"), data, ctxUsr)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cpl)
}

func boolQueryParam(ctx echo.Context, name string) *bool {
	v := ctx.QueryParam(name)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return nil
	}
	return &b
}
