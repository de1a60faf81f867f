package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"anoa.com/blogapp/internal/bootstrap"
	"anoa.com/blogapp/internal/config"
	"anoa.com/blogapp/internal/server"
	"anoa.com/blogapp/pkg/database"
	"anoa.com/blogapp/pkg/logger"
	"anoa.com/blogapp/pkg/password"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to load config")
	}
	logger.Init(cfg.AppEnv, cfg.LogLevel)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Connect(database.Options{
		DSN:         cfg.DSN(),
		ForeignKeys: cfg.DBForeignKeys,
		Debug:       cfg.IsDevelopment(),
	})
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect database")
	}

	if err := bootstrap.Migrate(db); err != nil {
		logger.Log.WithError(err).Fatal("migration failed")
	}
	if err := bootstrap.SeedRoles(db); err != nil {
		logger.Log.WithError(err).Fatal("failed to seed roles")
	}
	if err := bootstrap.SeedAdminUser(db, bootstrap.AdminSeed{
		Email:    cfg.SeedAdminEmail,
		Password: cfg.SeedAdminPassword,
		Hasher:   password.NewHasher(cfg.BcryptCost),
	}); err != nil {
		logger.Log.WithError(err).Fatal("failed to seed admin user")
	}

	redisClient, err := database.NewRedis(context.Background(), cfg.RedisURL)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to connect redis")
	}
	if redisClient == nil {
		logger.Log.Warn("REDIS_URL not set, sessions cannot be revoked and rate limits are off")
	} else {
		defer redisClient.Close()
	}

	srv, err := server.NewServer(cfg, db, redisClient)
	if err != nil {
		logger.Log.WithError(err).Fatal("failed to build server")
	}

	jobs := srv.Jobs()
	jobs.Start()

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.WithField("port", cfg.Port).Info("server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.WithError(err).Fatal("server exited with error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Log.WithError(err).Error("graceful shutdown failed")
	}
	jobs.Stop(ctx)
}
