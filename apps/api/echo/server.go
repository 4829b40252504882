package echoapi

import (
	"context"
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Aarth-Web/ss-backend/core"
	"github.com/Aarth-Web/ss-backend/core/attendance"
	"github.com/Aarth-Web/ss-backend/core/classroom"
	"github.com/Aarth-Web/ss-backend/core/reading"
	"github.com/Aarth-Web/ss-backend/core/school"
	"github.com/Aarth-Web/ss-backend/core/user"
)

type (
	Options struct {
		Conf           *core.Config
		Logger         core.Logger
		DisableReqLogs bool

		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc       *user.Service
		SchoolSvc     *school.Service
		ClassroomSvc  *classroom.Service
		AttendanceSvc *attendance.Service
		ReadingSvc    *reading.Service
		SMSSvc        core.SMSService

		// SignalShutdown is called when an unrecoverable error requires a
		// graceful stop. Optional.
		SignalShutdown func()
	}

	Server interface {
		http.Handler
		Start()
		Stop(context.Context) error
	}

	server struct {
		opts *Options
		app  *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(opts *Options) Server {
	initAuth(opts.Conf)
	s := &server{
		opts: opts,
		app:  echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.opts.Conf

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	signalShutdown := s.opts.SignalShutdown
	if signalShutdown == nil {
		signalShutdown = func() {}
	}
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.opts.Logger, s.opts.Translator, signalShutdown)
	s.app.Debug = conf.Debug

	s.app.GET("/", home)
	s.app.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(appJWTConfig)

	registerAuthAPI(v1, jwt, s.opts.UserSvc, s.opts.Validate)
	registerUserAPI(v1, jwt, s.opts.UserSvc, s.opts.Validate)
	registerSchoolAPI(v1, jwt, s.opts.SchoolSvc, s.opts.UserSvc, s.opts.Validate)
	registerClassroomAPI(v1, jwt, s.opts.ClassroomSvc, s.opts.UserSvc, s.opts.Validate)
	registerAttendanceAPI(v1, jwt, s.opts.AttendanceSvc, s.opts.UserSvc, s.opts.SMSSvc, s.opts.Validate)
	registerReadingAPI(v1, jwt, s.opts.ReadingSvc, s.opts.UserSvc, s.opts.Validate)
}

func (s *server) Start() {
	s.app.Logger.Fatal(s.app.Start(s.opts.Conf.Server.Addr()))
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to the School System API!")
}
