package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	echoapi "github.com/Aarth-Web/ss-backend/apps/api/echo"
	"github.com/Aarth-Web/ss-backend/core"
	"github.com/Aarth-Web/ss-backend/core/attendance"
	"github.com/Aarth-Web/ss-backend/core/classroom"
	"github.com/Aarth-Web/ss-backend/core/reading"
	"github.com/Aarth-Web/ss-backend/core/school"
	"github.com/Aarth-Web/ss-backend/core/user"
	emailsvc "github.com/Aarth-Web/ss-backend/services/email"
	logsvc "github.com/Aarth-Web/ss-backend/services/logger"
	smssvc "github.com/Aarth-Web/ss-backend/services/sms"
	translatesvc "github.com/Aarth-Web/ss-backend/services/translate"
	"github.com/Aarth-Web/ss-backend/storage/database"
)

const migrationsDir = "storage/database/migrations"

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}
	defer db.Close()

	if err = database.Migrate(db, migrationsDir); err != nil {
		logger.Fatal(fmt.Sprintf("migrating database: %v", err), err)
	}

	// set up repositories
	userRepo := database.NewUserRepository(db)
	schoolRepo := database.NewSchoolRepository(db)
	classroomRepo := database.NewClassroomRepository(db)
	attendanceRepo := database.NewAttendanceRepository(db)
	readingRepo := database.NewReadingRepository(db)

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	smsSvc := smssvc.NewTwilioService(conf, logger)
	translateSvc := translatesvc.NewRapidAPIService(conf, logger)

	notifier := attendance.NewNotifier(
		userRepo, classroomRepo, schoolRepo,
		smsSvc, translateSvc, logger,
		conf.Notify.Workers, conf.Notify.QueueSize,
	)
	defer notifier.Close()

	usrSvc := user.NewService(userRepo, mailSvc, logger, conf)
	schoolSvc := school.NewService(schoolRepo)
	classroomSvc := classroom.NewService(classroomRepo, userRepo)
	attendanceSvc := attendance.NewService(attendanceRepo, classroomSvc, notifier, logger)
	readingSvc := reading.NewService(readingRepo, userRepo, classroomSvc, classroomRepo)

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := newTranslator()
	core.InitValidators(validate, translator)
	user.RegisterValidators(validate, translator)

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	server := echoapi.NewServer(
		&echoapi.Options{
			Conf:           conf,
			Logger:         logger,
			Validate:       validate,
			Translator:     translator,
			UserSvc:        usrSvc,
			SchoolSvc:      schoolSvc,
			ClassroomSvc:   classroomSvc,
			AttendanceSvc:  attendanceSvc,
			ReadingSvc:     readingSvc,
			SMSSvc:         smsSvc,
			SignalShutdown: func() { shutdown <- syscall.SIGTERM },
		},
	)

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err = server.Stop(ctx); err != nil {
		logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func newTranslator() ut.Translator {
	_en := en.New()
	uni := ut.New(_en, _en)
	translator, _ := uni.GetTranslator("en")
	return translator
}
