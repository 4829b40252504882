package main

import (
	"github.com/Aarth-Web/ss-backend/storage/database"
)

var migrateRunFunc = database.Migrate // mockable

func (cli *commandLine) migrate(dir string) error {
	return migrateRunFunc(cli.db, dir)
}
