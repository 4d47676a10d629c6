package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/exam-slot-api/api/swagger"
	"github.com/noah-isme/exam-slot-api/internal/handler"
	internalmiddleware "github.com/noah-isme/exam-slot-api/internal/middleware"
	"github.com/noah-isme/exam-slot-api/internal/repository"
	"github.com/noah-isme/exam-slot-api/internal/service"
	"github.com/noah-isme/exam-slot-api/pkg/cache"
	"github.com/noah-isme/exam-slot-api/pkg/config"
	"github.com/noah-isme/exam-slot-api/pkg/database"
	"github.com/noah-isme/exam-slot-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/exam-slot-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/exam-slot-api/pkg/middleware/requestid"
	"github.com/noah-isme/exam-slot-api/pkg/notify"
)

// @title Exam Slot API
// @version 0.1.0
// @description Oral exam slot scheduling for section rosters
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	// The cache is an optimisation. Without redis the overview is rebuilt
	// on every request and invalidation becomes a no-op.
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, running without cache", "error", err)
		redisClient = nil
	}

	studentRepo := repository.NewStudentRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	slotRepo := repository.NewExamSlotRepository(db)
	historyRepo := repository.NewExamSlotHistoryRepository(db)
	constraintRepo := repository.NewConstraintRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	var dispatcher *notify.Dispatcher
	if cfg.Notifications.Enabled {
		dispatcher = notify.NewDispatcher(func(ctx context.Context, event notify.Event) error {
			logr.Sugar().Infow("schedule event",
				"kind", event.Kind,
				"student_id", event.StudentID,
				"slot_id", event.SlotID,
				"exam_number", event.ExamNumber,
			)
			return nil
		}, notify.DispatcherConfig{
			Workers:    cfg.Notifications.Workers,
			MaxRetries: cfg.Notifications.MaxRetries,
			RetryDelay: cfg.Notifications.RetryDelay,
			Logger:     logr,
		})
	}

	// Every mutation path serialises on the same lock table.
	locks := service.NewScheduleLocks()
	validate := validator.New()

	metricsSvc := service.NewMetricsService()
	settingsSvc := service.NewSettingsService(settingRepo, cfg.Scheduler, validate, logr)
	historySvc := service.NewHistoryService(historyRepo, logr)
	scheduleSvc := service.NewScheduleService(studentRepo, sectionRepo, slotRepo, constraintRepo, settingsSvc, historySvc, cacheRepo, db, locks, metricsSvc, validate, logr)
	transferSvc := service.NewTransferService(studentRepo, slotRepo, constraintRepo, settingsSvc, historySvc, cacheRepo, db, locks, validate, logr)
	var slotSvc *service.SlotService
	if dispatcher != nil {
		slotSvc = service.NewSlotService(slotRepo, historySvc, settingsSvc, cacheRepo, db, locks, dispatcher, metricsSvc, validate, logr)
	} else {
		slotSvc = service.NewSlotService(slotRepo, historySvc, settingsSvc, cacheRepo, db, locks, nil, metricsSvc, validate, logr)
	}
	studentSvc := service.NewStudentService(studentRepo, slotRepo, constraintRepo, cacheRepo, db, validate, logr)
	overviewSvc := service.NewOverviewService(sectionRepo, slotRepo, studentRepo, cacheRepo, cfg.Overview.CacheTTL, metricsSvc, logr)
	exportSvc := service.NewExportService(slotRepo, studentRepo, sectionRepo, logr)

	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	transferHandler := handler.NewTransferHandler(transferSvc)
	slotHandler := handler.NewSlotHandler(slotSvc)
	studentHandler := handler.NewStudentHandler(studentSvc, historySvc)
	settingsHandler := handler.NewSettingsHandler(settingsSvc)
	overviewHandler := handler.NewOverviewHandler(overviewSvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(internalmiddleware.Actor())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/schedule/generate", scheduleHandler.Generate)
		api.POST("/schedule/sections/:id/regenerate", scheduleHandler.RegenerateSection)
		api.POST("/schedule/students/regenerate", scheduleHandler.RegenerateStudent)
		api.DELETE("/schedule", scheduleHandler.Clear)

		api.POST("/transfers/cohort", transferHandler.Transfer)
		api.POST("/transfers/swap", transferHandler.Swap)

		api.POST("/slots/unlock", slotHandler.BulkUnlock)
		api.POST("/slots/auto-lock", slotHandler.AutoLock)
		api.GET("/slots/:id", slotHandler.Get)
		api.GET("/slots/:id/history", slotHandler.History)
		api.PUT("/slots/:id/schedule", slotHandler.ManualSchedule)
		api.POST("/slots/:id/swap", slotHandler.Swap)
		api.POST("/slots/:id/lock", slotHandler.Lock)
		api.POST("/slots/:id/unlock", slotHandler.Unlock)
		api.POST("/slots/:id/revert", slotHandler.Revert)

		api.GET("/students", studentHandler.List)
		api.POST("/students", studentHandler.Create)
		api.GET("/students/:id", studentHandler.Get)
		api.PUT("/students/:id", studentHandler.Update)
		api.DELETE("/students/:id", studentHandler.Deactivate)
		api.GET("/students/:id/constraints", studentHandler.Constraints)
		api.GET("/students/:id/history", studentHandler.History)
		api.GET("/students/:id/calendar.ics", exportHandler.StudentCalendar)

		api.GET("/settings", settingsHandler.List)
		api.PUT("/settings", settingsHandler.Update)
		api.GET("/settings/schedule", settingsHandler.Describe)
		api.PUT("/settings/bulk", settingsHandler.BulkUpdate)

		api.GET("/overview", overviewHandler.Get)
		api.GET("/export/schedule", exportHandler.Schedule)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if dispatcher != nil {
		dispatcher.Start(ctx)
		defer dispatcher.Stop()
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
