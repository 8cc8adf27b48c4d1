package main

import (
	"flag"

	"github.com/oshxona/backend/internal/config"
	"github.com/oshxona/backend/internal/db"
	"github.com/oshxona/backend/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	direction := flag.String("direction", db.DirectionUp, "migration direction: up or down")
	flag.Parse()

	cfg := config.MustLoad()

	if _, err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if err := db.Migrate(cfg.Database, *direction); err != nil {
		logger.Fatal("migration failed", zap.String("direction", *direction), zap.Error(err))
	}

	logger.Info("migration done", zap.String("direction", *direction))
}
