package main

import (
	"context"
	"log"

	"github.com/tasjeel-app/tasjeel/internal/devserver"
	"github.com/tasjeel-app/tasjeel/internal/devserver/store"
	"github.com/tasjeel-app/tasjeel/pkg/config"
	"github.com/tasjeel-app/tasjeel/pkg/database"
	"github.com/tasjeel-app/tasjeel/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	st := store.NewMemory()
	if cfg.DevServer.UsePostgres {
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
		}
		defer db.Close()
		st = store.NewPostgres(db)
	}

	srv := devserver.New(cfg, logr, st)

	if err := srv.Auth().SeedAdmin(context.Background()); err != nil {
		logr.Sugar().Fatalw("failed to seed admin account", "error", err)
	}

	if err := srv.Run(); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
