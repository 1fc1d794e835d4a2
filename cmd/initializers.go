package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"tunneld/app/handler"
	"tunneld/app/router"
	"tunneld/internal/archive"
	"tunneld/internal/cleanup"
	"tunneld/internal/scheduler"
	"tunneld/internal/telemetry"
	"tunneld/pkg/config"
	"tunneld/pkg/logger"
	mysqlstore "tunneld/pkg/store/mysql"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
)

// initConfig initializes configuration
func (app *Application) initConfig() error {
	if err := config.Init(); err != nil {
		return err
	}
	app.config = config.GlobalConfig
	return nil
}

// initLogger initializes logging
func (app *Application) initLogger() error {
	if err := logger.Init(); err != nil {
		return err
	}
	app.registerCleanup(func() {
		logger.Sync()
		logger.InfoCtx(app.ctx, "Logging system has been closed")
	})
	return nil
}

// initMySQL initializes MySQL
func (app *Application) initMySQL() error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		app.config.MySQL.User,
		app.config.MySQL.Password,
		app.config.MySQL.Host,
		app.config.MySQL.Port,
		app.config.MySQL.Database,
	)

	repo, err := mysqlstore.NewRepository(dsn)
	if err != nil {
		return err
	}

	app.mysqlRepo = repo
	app.registerCleanup(func() {
		repo.Close()
		logger.InfoCtx(app.ctx, "MySQL connection has been closed")
	})

	return nil
}

// initRedis initializes Redis. Redis only backs the distributed job locks;
// without it the process still runs, in single-instance mode.
func (app *Application) initRedis() error {
	if app.config.Redis.Addr == "" {
		logger.WarnCtx(app.ctx, "Redis not configured, distributed job locks disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     app.config.Redis.Addr,
		Password: app.config.Redis.Password,
		DB:       app.config.Redis.DB,
	})

	pingCtx, cancel := context.WithTimeout(app.ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return fmt.Errorf("failed to connect to redis at %s: %w", app.config.Redis.Addr, err)
	}

	app.redisClient = client
	app.registerCleanup(func() {
		client.Close()
		logger.InfoCtx(app.ctx, "Redis connection has been closed")
	})

	return nil
}

// initPipeline initializes the archive manager, cleanup manager and scheduler
func (app *Application) initPipeline() error {
	src := telemetry.NewStoreSource(app.mysqlRepo.Inventory)

	app.archiveMgr = archive.NewManager(app.ctx, archive.Config{
		QueueSize:     app.config.Archive.QueueSize,
		BatchSize:     app.config.Archive.BatchSize,
		Workers:       app.config.Archive.Workers,
		FlushInterval: time.Duration(app.config.Archive.FlushIntervalSec) * time.Second,
	}, app.mysqlRepo.Archive, src)

	app.cleanupMgr = cleanup.NewManager(cleanup.Config{
		Enabled:              app.config.Cleanup.Enabled,
		TrafficRetentionDays: app.config.Cleanup.TrafficRetentionDays,
		StatusRetentionDays:  app.config.Cleanup.StatusRetentionDays,
	}, app.mysqlRepo.Archive, app.mysqlRepo.Inventory)

	app.sched = scheduler.New(app.ctx, scheduler.Config{
		PollInterval: time.Duration(app.config.Scheduler.PollIntervalSec) * time.Second,
		TaskTimeout:  time.Duration(app.config.Scheduler.TaskTimeoutMin) * time.Minute,
		ArchiveRule:  app.config.Scheduler.ArchiveRule,
		CleanupRule:  app.config.Scheduler.CleanupRule,
		DeepRule:     app.config.Scheduler.DeepRule,
	}, app.archiveMgr, app.cleanupMgr, app.redisClient)

	return nil
}

// initHandlers initializes handler layer
func (app *Application) initHandlers() error {
	app.statsHandler = handler.NewStatsHandler(app.archiveMgr, app.sched, app.cleanupMgr, app.mysqlRepo.Archive)
	app.schedulerHandler = handler.NewSchedulerHandler(app.sched)
	return nil
}

// initHTTPServer initializes the HTTP server
func (app *Application) initHTTPServer() error {
	if app.config.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	app.ginEngine = gin.New()

	r := router.NewRouter(app.statsHandler, app.schedulerHandler)
	r.Setup(app.ginEngine)

	app.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", app.config.Server.Port),
		Handler: app.ginEngine,
	}

	return nil
}
