package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chemtutor/chembot/internal/bot"
	"github.com/chemtutor/chembot/internal/repository"
	"github.com/chemtutor/chembot/internal/service"
	"github.com/chemtutor/chembot/pkg/config"
	"github.com/chemtutor/chembot/pkg/database"
	"github.com/chemtutor/chembot/pkg/logger"
	"github.com/chemtutor/chembot/pkg/storage"
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

	client, err := database.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer client.Close() //nolint:errcheck

	files, err := storage.NewLectureStore(cfg.Lectures.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init lecture storage", "error", err)
	}

	studentRepo := repository.NewStudentRepository(client, logr)
	categoryRepo := repository.NewCategoryRepository(client, logr)
	lectureRepo := repository.NewLectureRepository(client, logr)
	maintenanceRepo := repository.NewMaintenanceRepository(client, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := categoryRepo.InitDefault(ctx); err != nil {
		logr.Sugar().Fatalw("failed to init default category", "error", err)
	}

	studentSvc := service.NewStudentService(studentRepo, lectureRepo, nil, logr)
	lectureSvc := service.NewLectureService(lectureRepo, categoryRepo, studentRepo, nil, logr)
	categorySvc := service.NewCategoryService(categoryRepo, logr)
	statsSvc := service.NewStatsService(studentRepo, lectureRepo, maintenanceRepo, logr)

	sessions := bot.NewSessionStore(cfg.Sessions.TTL, logr)
	sessions.StartJanitor(ctx, cfg.Sessions.CleanupInterval)

	tgBot, err := bot.New(cfg, bot.Deps{
		Students:   studentSvc,
		Lectures:   lectureSvc,
		Categories: categorySvc,
		Files:      files,
		Sessions:   sessions,
	}, logr)
	if err != nil {
		logr.Sugar().Fatalw("failed to init bot", "error", err)
	}

	go runHealthServer(cfg, statsSvc, logr)

	if err := tgBot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Sugar().Fatalw("bot stopped", "error", err)
	}
	logr.Info("bot shut down")
}

// runHealthServer exposes liveness and store counters for monitoring.
func runHealthServer(cfg *config.Config, stats *service.StatsService, logr *zap.Logger) {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		if err := stats.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/stats", func(c *gin.Context) {
		s, err := stats.Stats(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, s)
	})

	addr := fmt.Sprintf(":%d", cfg.HealthPort)
	logr.Sugar().Infow("health server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Errorw("health server failed", "error", err)
	}
}
