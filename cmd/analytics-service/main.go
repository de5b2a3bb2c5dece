package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/caffein/school-platform/internal/analytics/handler"
	"github.com/caffein/school-platform/internal/analytics/repository"
	"github.com/caffein/school-platform/internal/analytics/service"
	"github.com/caffein/school-platform/internal/events"
	"github.com/caffein/school-platform/pkg/cache"
	"github.com/caffein/school-platform/pkg/config"
	"github.com/caffein/school-platform/pkg/database"
	"github.com/caffein/school-platform/pkg/jobs"
	"github.com/caffein/school-platform/pkg/logger"
	"github.com/caffein/school-platform/pkg/metrics"
	corsmiddleware "github.com/caffein/school-platform/pkg/middleware/cors"
	reqidmiddleware "github.com/caffein/school-platform/pkg/middleware/requestid"
)

const serviceName = "analytics-service"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg, serviceName)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database unavailable", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("redis unavailable", "error", err)
	}
	defer redisClient.Close()

	m := metrics.New(serviceName)

	enrollmentRepo := repository.NewEnrollmentAnalyticsRepository(db)
	attendanceRepo := repository.NewAttendanceAnalyticsRepository(db)
	studentRepo := repository.NewStudentAnalyticsRepository(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var aggregator *service.AggregatorService
	queue := jobs.NewQueue("student-snapshots", func(ctx context.Context, job jobs.Job) error {
		return aggregator.SnapshotJobHandler()(ctx, job)
	}, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		BufferSize: cfg.Jobs.BufferSize,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		Logger:     logr,
	})
	aggregator = service.NewAggregatorService(enrollmentRepo, attendanceRepo, studentRepo, queue, logr)
	queue.Start(ctx)
	defer queue.Stop()

	var cacheClient = redisClient
	if !cfg.Cache.Enabled {
		cacheClient = nil
	}
	queries := service.NewQueryService(enrollmentRepo, attendanceRepo, studentRepo, cacheClient, cfg.Cache.TTL, logr)
	dashboard := service.NewDashboardService(enrollmentRepo, attendanceRepo, studentRepo, logr)
	exports := service.NewExportService(attendanceRepo, cfg.Exports.MaxRows, logr)

	consumer := events.NewConsumer(redisClient, events.ConsumerConfig{
		Group:        "analytics",
		Consumer:     cfg.Events.ConsumerName,
		BlockTimeout: cfg.Events.BlockTimeout,
		Logger:       logr,
		Metrics:      m,
	})
	consumer.Subscribe(cfg.Events.EnrollmentStream, service.EnrollmentEventHandler(aggregator))
	consumer.Subscribe(cfg.Events.AttendanceStream, service.AttendanceEventHandler(aggregator))

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(metrics.GinMiddleware(m))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	api := r.Group(cfg.APIPrefix)
	handler.Routes(api,
		handler.NewAnalyticsHandler(queries, exports),
		handler.NewDashboardHandler(dashboard),
	)

	go func() {
		if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logr.Sugar().Errorw("consumer stopped", "error", err)
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
