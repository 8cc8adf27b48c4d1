package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/oshxona/backend/internal/config"
	"github.com/oshxona/backend/internal/queue/asynqserver"
	"github.com/oshxona/backend/internal/worker"
	"github.com/oshxona/backend/pkg/email/smtp"
	"github.com/oshxona/backend/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg := config.MustLoad()

	if _, err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		panic(err)
	}
	defer logger.Sync()

	emailSender, err := smtp.NewSMTPSender(cfg.SMTP.From, cfg.SMTP.Pass, cfg.SMTP.Host, cfg.SMTP.Port)
	if err != nil {
		logger.Fatal("smtp sender creation failed", zap.Error(err))
	}

	workers := worker.NewWorkers(worker.Deps{
		EmailProvider: emailSender,
		Config:        cfg,
	})

	srv, mux := asynqserver.New(cfg, workers)
	if err := srv.Start(mux); err != nil {
		logger.Fatal("asynq server start failed", zap.Error(err))
	}
	logger.Info("worker started", zap.String("env", cfg.Env))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	<-quit

	srv.Shutdown()
	logger.Info("worker stopped")
}
