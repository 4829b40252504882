package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Aarth-Web/ss-backend/core"
	"github.com/Aarth-Web/ss-backend/core/user"
)

// createSuperadmin bootstraps the single superadmin account.
func (cli *commandLine) createSuperadmin(name, email, pwd string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)

	exists, err := cli.usrRepo.SuperadminExists(ctx)
	if err != nil {
		return err
	}
	if exists {
		return errors.New("superadmin already exists")
	}

	now := time.Now().UTC()
	usr := user.User{
		Name:           name,
		RegistrationID: user.GenerateRegistrationID(),
		Role:           user.RoleSuperadmin,
		Email:          email,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr, err = cli.usrRepo.CreateUser(ctx, usr)
	if err != nil {
		return err
	}

	fmt.Printf("superadmin created with registration ID %s\n", usr.RegistrationID)
	return nil
}
