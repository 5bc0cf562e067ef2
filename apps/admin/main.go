package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/pkg/errors"

	"github.com/shuleapp/shule/core"
	"github.com/shuleapp/shule/core/user"
	emailsvc "github.com/shuleapp/shule/services/email"
	logsvc "github.com/shuleapp/shule/services/logger"
	"github.com/shuleapp/shule/storage/database"
	sqlxrepos "github.com/shuleapp/shule/storage/database/sqlx"
)

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, errHelp) {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	conf, err := core.NewConfig()
	if err != nil {
		return errors.Wrap(err, "loading config")
	}
	if conf.Database.Engine == "memory" {
		return errors.New("the admin CLI needs a postgres database (database.engine)")
	}
	std := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(std, conf)

	ctx := context.Background()
	if err = database.CreateIfNotExist(ctx, conf); err != nil {
		return errors.Wrap(err, "creating database")
	}
	db, err := database.Open(ctx, conf)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	validate := core.NewValidator()
	user.InitValidators(validate)

	cli := commandLine{
		usrSvc:   user.NewService(sqlxrepos.NewUserRepository(db), emailsvc.NewConsoleService(std, logger, conf), conf),
		validate: validate,
		migrate: func(ctx context.Context, command string, args ...string) error {
			return database.Migrate(ctx, db.DB, command, args...)
		},
		out: os.Stdout,
	}
	return cli.run(ctx, os.Args)
}
