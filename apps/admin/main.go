package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	aisvc "github.com/AmelJaballah/SmartLearn-mern-project/services/ai"
	logsvc "github.com/AmelJaballah/SmartLearn-mern-project/services/logger"
	"github.com/AmelJaballah/SmartLearn-mern-project/storage/database"
	sqlxrepos "github.com/AmelJaballah/SmartLearn-mern-project/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	zl := logsvc.NewZap(conf.Log)
	defer func() { _ = zl.Sync() }()

	rootLogger := logsvc.NewRollbarLogger(zl, conf)
	rootLogger.Enable(!conf.Debug && conf.RollbarToken != "")
	logger := rootLogger.Named("ADMIN")

	cli := &commandLine{
		ai:  aisvc.NewClient(aisvc.NewRegistry(conf.AI), logger.Named("AI")),
		out: os.Stdout,
	}

	// aihealth is the only command that works without a database
	if len(os.Args) < 2 || os.Args[1] != "aihealth" {
		db, err := database.Open(conf.Database)
		if err != nil {
			logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
		}
		defer func(db *sql.DB) {
			if err := db.Close(); err != nil {
				logger.Error("Failed to close database", err)
			}
		}(db.DB)

		if err = database.Ping(db.DB); err != nil {
			logger.Fatal(fmt.Sprintf("pinging database: %v", err), err)
		}
		cli.db = db.DB
		cli.usrRepo = sqlxrepos.NewUserRepository(db)
	}

	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(err.Error(), err)
		}
		os.Exit(1)
	}
}
