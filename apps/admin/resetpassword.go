package main

import (
	"context"
	"strings"
	"time"

	"github.com/Aarth-Web/ss-backend/core"
)

func (cli *commandLine) resetPassword(regID, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrRepo.GetUserByRegistrationID(ctx, strings.ToUpper(core.CleanString(regID)))
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err := cli.usrRepo.UpdateUser(ctx, usr); err != nil {
		return err
	}
	return nil
}
