package user

import (
	"github.com/Aarth-Web/ss-backend/core"
)

// NewServiceMock returns a Service wired for tests with a deterministic
// default password and token generation.
func NewServiceMock(repo Repository, mailSvc core.EmailService, logger core.Logger, conf *core.Config) *Service {
	if conf.DefaultUserPassword == "" {
		conf.DefaultUserPassword = "Pass@123"
	}
	return NewService(repo, mailSvc, logger, conf)
}
