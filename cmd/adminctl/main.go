package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/atlassist/internal/adminctl"
	"github.com/dmitrijs2005/atlassist/internal/flagx"
	"github.com/dmitrijs2005/atlassist/internal/logging"
	"github.com/dmitrijs2005/atlassist/internal/server/config"
	"github.com/dmitrijs2005/atlassist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/atlassist/internal/server/services"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}
	defer db.Close()

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migration error: %v", err)
	}

	logger := logging.NewJSONLogger()
	accounts := services.NewAccountService(db, rm, 24*time.Hour, logger)

	// configuration flags are consumed by LoadConfig; the rest is the command
	args := flagx.ExcludeArgs(os.Args[1:], []string{"-c", "-config", "-d"})

	app := adminctl.NewApp(accounts, os.Stdin, os.Stdout)
	if err := app.Run(ctx, args); err != nil {
		log.Fatalf("%v", err)
	}
}
