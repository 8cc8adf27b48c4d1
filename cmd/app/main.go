package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	apiHttp "github.com/oshxona/backend/internal/api/http"
	"github.com/oshxona/backend/internal/cache"
	"github.com/oshxona/backend/internal/config"
	"github.com/oshxona/backend/internal/db"
	"github.com/oshxona/backend/internal/oauth/google"
	"github.com/oshxona/backend/internal/queue/asynqserver"
	"github.com/oshxona/backend/internal/queue/client"
	"github.com/oshxona/backend/internal/repository"
	"github.com/oshxona/backend/internal/server"
	"github.com/oshxona/backend/internal/service"
	"github.com/oshxona/backend/pkg/auth"
	"github.com/oshxona/backend/pkg/email/smtp"
	"github.com/oshxona/backend/pkg/hash"
	"github.com/oshxona/backend/pkg/logger"
	"github.com/oshxona/backend/pkg/otp"

	"go.uber.org/zap"
)

func main() {
	// Init cfg from environment variables
	cfg := config.MustLoad()

	if _, err := logger.Init(cfg.Env, cfg.LogLevel); err != nil {
		panic(err)
	}
	defer logger.Sync()

	logger.Info("starting backend api", zap.String("env", cfg.Env))
	logger.Debug("debug messages are enabled")

	if cfg.Database.MigrateOnStart {
		if err := db.Migrate(cfg.Database, db.DirectionUp); err != nil {
			logger.Fatal("database migration failed", zap.Error(err))
		}
		logger.Info("database migrated")
	}

	// Init database
	dbMySQL, err := db.New(cfg.Database)
	if err != nil {
		logger.Fatal("mysql connect problem", zap.Error(err))
	}
	defer func() {
		if err := dbMySQL.Close(); err != nil {
			logger.Error("error when closing mysql", zap.Error(err))
		}
	}()
	logger.Info("mysql connection done")

	redisClient, err := cache.NewRedis(cfg.Cache)
	if err != nil {
		logger.Fatal("redis connect problem", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("error when closing redis", zap.Error(err))
		}
	}()
	logger.Info("redis connection done")

	queueClient := client.New(asynqserver.RedisOptions(cfg.Cache))
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Error("error when closing queue client", zap.Error(err))
		}
	}()

	emailSender, err := smtp.NewSMTPSender(cfg.SMTP.From, cfg.SMTP.Pass, cfg.SMTP.Host, cfg.SMTP.Port)
	if err != nil {
		logger.Fatal("smtp sender creation failed", zap.Error(err))
	}

	tokenManager, err := auth.NewManager(cfg.Auth.JWT)
	if err != nil {
		logger.Fatal("auth manager creation failed", zap.Error(err))
	}

	candidateManager, err := auth.NewCandidateManager(cfg.Auth.Candidate)
	if err != nil {
		logger.Fatal("candidate manager creation failed", zap.Error(err))
	}

	providerCtx, cancelProvider := context.WithTimeout(context.Background(), 10*time.Second)
	googleProvider, err := google.New(providerCtx, cfg.Google)
	cancelProvider()
	if err != nil {
		logger.Fatal("google provider creation failed", zap.Error(err))
	}

	// Services, Repos & API Handlers
	repos := repository.NewRepositories(dbMySQL, redisClient)
	services := service.NewServices(service.Deps{
		Config:           cfg,
		Hasher:           hash.NewBcryptHasher(cfg.Auth.BcryptCost),
		TokenManager:     tokenManager,
		CandidateManager: candidateManager,
		OtpGenerator:     otp.NewGOTPGenerator(),
		Repos:            repos,
		EmailSender:      emailSender,
		OAuthProvider:    googleProvider,
		Enqueuer:         queueClient,
	})
	handlers := apiHttp.NewHandlers(services, tokenManager, cfg)

	// HTTP Server
	srv := server.NewServer(cfg, handlers.Init(cfg))
	go func() {
		if err := srv.Run(); err != nil {
			logger.Error("error occurred while running http server", zap.Error(err))
		}
	}()
	logger.Info("server started", zap.String("port", cfg.HttpServer.Port))

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	<-quit

	const timeout = 5 * time.Second

	ctx, shutdown := context.WithTimeout(context.Background(), timeout)
	defer shutdown()

	if err := srv.Stop(ctx); err != nil {
		logger.Error("failed to stop server", zap.Error(err))
	}

	logger.Info("app stopped")
}
