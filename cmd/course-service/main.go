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
	"github.com/go-playground/validator/v10"

	"github.com/caffein/school-platform/internal/course/handler"
	"github.com/caffein/school-platform/internal/course/repository"
	"github.com/caffein/school-platform/internal/course/service"
	"github.com/caffein/school-platform/internal/events"
	"github.com/caffein/school-platform/pkg/cache"
	"github.com/caffein/school-platform/pkg/config"
	"github.com/caffein/school-platform/pkg/database"
	"github.com/caffein/school-platform/pkg/logger"
	"github.com/caffein/school-platform/pkg/metrics"
	corsmiddleware "github.com/caffein/school-platform/pkg/middleware/cors"
	reqidmiddleware "github.com/caffein/school-platform/pkg/middleware/requestid"
)

const serviceName = "course-service"

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
	validate := validator.New()

	subjectRepo := repository.NewSubjectRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)

	subjects := service.NewSubjectService(subjectRepo, validate, logr)
	teachers := service.NewTeacherService(teacherRepo, validate, logr)
	courses := service.NewCourseService(courseRepo, subjectRepo, teacherRepo, scheduleRepo, validate, logr)
	schedules := service.NewScheduleService(scheduleRepo, courseRepo, validate, logr)

	consumer := events.NewConsumer(redisClient, events.ConsumerConfig{
		Group:        "course-directory",
		Consumer:     cfg.Events.ConsumerName,
		BlockTimeout: cfg.Events.BlockTimeout,
		Logger:       logr,
		Metrics:      m,
	})
	consumer.Subscribe(cfg.Events.UserStream, service.UserProvisionedHandler(teachers))

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
		handler.NewCourseHandler(courses, schedules),
		handler.NewSubjectHandler(subjects),
		handler.NewTeacherHandler(teachers),
	)
	handler.InternalRoutes(r, handler.NewInternalHandler(courses, subjects))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
