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

	"github.com/caffein/school-platform/internal/auth/token"
	gatewaymiddleware "github.com/caffein/school-platform/internal/gateway/middleware"
	"github.com/caffein/school-platform/internal/gateway/proxy"
	"github.com/caffein/school-platform/pkg/config"
	"github.com/caffein/school-platform/pkg/logger"
	"github.com/caffein/school-platform/pkg/metrics"
	corsmiddleware "github.com/caffein/school-platform/pkg/middleware/cors"
	reqidmiddleware "github.com/caffein/school-platform/pkg/middleware/requestid"
)

const serviceName = "api-gateway"

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

	m := metrics.New(serviceName)
	tokens := token.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.Expiration)

	// Order matters: /courses/available belongs to the student service even
	// though /courses is owned by the course service.
	rules := []proxy.Rule{
		{Prefix: "/auth", Target: cfg.Services.AuthBaseURL},
		{Prefix: "/users", Target: cfg.Services.AuthBaseURL},
		{Prefix: "/roles", Target: cfg.Services.AuthBaseURL},
		{Prefix: "/courses/available", Target: cfg.Services.StudentBaseURL},
		{Prefix: "/students", Target: cfg.Services.StudentBaseURL},
		{Prefix: "/enrollments", Target: cfg.Services.StudentBaseURL},
		{Prefix: "/attendance", Target: cfg.Services.StudentBaseURL},
		{Prefix: "/courses", Target: cfg.Services.CourseBaseURL},
		{Prefix: "/subjects", Target: cfg.Services.CourseBaseURL},
		{Prefix: "/teachers", Target: cfg.Services.CourseBaseURL},
		{Prefix: "/analytics", Target: cfg.Services.AnalyticsBase},
		{Prefix: "/dashboard", Target: cfg.Services.AnalyticsBase},
	}
	p, err := proxy.New(cfg.APIPrefix, rules, cfg.Gateway.ProxyTimeout, logr)
	if err != nil {
		logr.Sugar().Fatalw("invalid proxy configuration", "error", err)
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(metrics.GinMiddleware(m))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(gatewaymiddleware.Authenticate(tokens))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(m.Handler()))

	// Everything else is forwarded to the owning service.
	r.NoRoute(p.Handle)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

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
