package main

import (
	"context"
	"database/sql"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"go.uber.org/zap"

	"github.com/randomtoy/linked-chess/internal/db"
	"github.com/randomtoy/linked-chess/internal/obslog"
)

func main() {
	logger := obslog.Init(obslog.SettingsFromEnv())
	defer func() { _ = logger.Sync() }()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	cmd := "up"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	conn, err := sql.Open("pgx", databaseURL)
	if err != nil {
		logger.Fatal("open db", zap.Error(err))
	}
	defer conn.Close()

	if err := conn.PingContext(context.Background()); err != nil {
		logger.Fatal("ping db", zap.Error(err))
	}

	goose.SetBaseFS(db.Migrations)
	if err := goose.SetDialect("postgres"); err != nil {
		logger.Fatal("goose set dialect", zap.Error(err))
	}

	if err := goose.RunContext(context.Background(), cmd, conn, "migrations"); err != nil {
		logger.Fatal("goose command failed", zap.String("command", cmd), zap.Error(err))
	}
	logger.Info("migrations_done", zap.String("command", cmd))
}
