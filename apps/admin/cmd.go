package main

import (
	"errors"
	"flag"
	"fmt"
	"syscall"

	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/Aarth-Web/ss-backend/core"
	"github.com/Aarth-Web/ss-backend/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db      *sqlx.DB
	conf    *core.Config
	usrRepo user.Repository
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  migrate [-dir DIR]                  - apply pending database migrations")
	fmt.Println("  createsuperadmin -name NAME [-email EMAIL] - create the superadmin account")
	fmt.Println("  resetpassword -regid REGISTRATION_ID - reset a user's password")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	migrateDir := migrateCmd.String("dir", "storage/database/migrations", "The migrations directory.")

	createSuperadminCmd := flag.NewFlagSet("createsuperadmin", flag.ExitOnError)
	createSuperadminName := createSuperadminCmd.String("name", "", "The superadmin's full name. The password will be prompted next.")
	createSuperadminEmail := createSuperadminCmd.String("email", "", "The superadmin's email address.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordRegID := resetPasswordCmd.String("regid", "", "The user's registration ID. The password will be prompted next.")

	switch args[1] {
	case "migrate":
		if err := migrateCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.migrate(*migrateDir)
	case "createsuperadmin":
		if err := createSuperadminCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *createSuperadminName == "" {
			createSuperadminCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			createSuperadminCmd.Usage()
			return errHelp
		}
		return cli.createSuperadmin(*createSuperadminName, *createSuperadminEmail, pwd)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordRegID == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordRegID, pwd)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
