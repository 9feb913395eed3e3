package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/mamadbah2/salesboard/internal/cache"
	"github.com/mamadbah2/salesboard/internal/config"
	"github.com/mamadbah2/salesboard/internal/repository/mongodb"
	"github.com/mamadbah2/salesboard/internal/repository/redisstore"
	"github.com/mamadbah2/salesboard/internal/repository/sheets"
	"github.com/mamadbah2/salesboard/internal/scheduler"
	"github.com/mamadbah2/salesboard/internal/server/handlers"
	"github.com/mamadbah2/salesboard/internal/server/router"
	"github.com/mamadbah2/salesboard/internal/service/calendarview"
	"github.com/mamadbah2/salesboard/internal/service/editing"
	"github.com/mamadbah2/salesboard/internal/service/inventorysync"
	"github.com/mamadbah2/salesboard/internal/service/preferences"
	reportingsvc "github.com/mamadbah2/salesboard/internal/service/reporting"
	"github.com/mamadbah2/salesboard/pkg/clients/inventory"
	"github.com/mamadbah2/salesboard/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(cfg.Server.Development(), cfg.Server.LogLevel))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	loc, err := cfg.Calendar.Location()
	if err != nil {
		baseLogger.Fatal("failed to load timezone", zap.String("timezone", cfg.Calendar.Timezone), zap.Error(err))
	}

	ctx := context.Background()
	redisCfg := cache.RedisConfig{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}

	var redisClient *redis.Client
	if cfg.Cache.Type == "redis" || cfg.Preferences.Store == "redis" {
		redisClient, err = cache.NewRedisClient(ctx, redisCfg)
		if err != nil {
			baseLogger.Fatal("failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
	}

	var readCache cache.Cache
	if cfg.Cache.Type == "redis" {
		readCache = cache.NewRedisCacheWithClient(redisClient, "")
		baseLogger.Info("redis read cache enabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		memCache := cache.NewMemoryCache()
		defer func() { _ = memCache.Close() }()
		readCache = memCache
	}

	var mongoRepo *mongodb.MongoDBRepository
	if cfg.MongoDB.Enabled() {
		mongoRepo, err = mongodb.NewMongoDBRepository(ctx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				baseLogger.Error("failed to close mongodb connection", zap.Error(err))
			}
		}()
	} else {
		baseLogger.Warn("mongodb uri missing, monthly report archive disabled")
	}

	var prefStore preferences.Store
	switch cfg.Preferences.Store {
	case "mongo":
		prefStore = mongoRepo
	case "redis":
		prefStore = redisstore.NewPreferenceStore(redisClient, "")
	default:
		prefStore = preferences.NewMemoryStore()
	}

	backend := inventory.NewClient(cfg.Backend, baseLogger.Named("client.inventory"))
	syncSvc := inventorysync.NewService(backend, readCache, cfg.Cache.TTL, baseLogger.Named("svc.sync"))
	sessions := editing.NewManager(syncSvc, baseLogger.Named("svc.editing"))
	prefsSvc := preferences.NewService(prefStore, loc, baseLogger.Named("svc.preferences"))
	reportingSvc := reportingsvc.NewService(cfg.Reporting.DiscountRate, baseLogger.Named("svc.reporting"))
	renderer := calendarview.Renderer{WeekStart: cfg.Calendar.WeekStart}

	engine := router.New(router.Handlers{
		Calendar: handlers.NewCalendarHandler(syncSvc, prefsSvc, sessions, renderer, baseLogger.Named("handlers.calendar")),
		Day:      handlers.NewDayHandler(syncSvc, sessions, baseLogger.Named("handlers.day")),
		Product:  handlers.NewProductHandler(syncSvc, baseLogger.Named("handlers.product")),
		Export:   handlers.NewExportHandler(syncSvc, prefsSvc, reportingSvc, baseLogger.Named("handlers.export")),
	}, baseLogger.Named("router"))

	schedOpts := scheduler.Options{
		Schedule:  cfg.Reporting.CronSchedule,
		Location:  loc,
		OutputDir: cfg.Reporting.OutputDir,
	}
	if mongoRepo != nil {
		schedOpts.Archive = mongoRepo
	}
	if cfg.Sheets.Enabled() {
		sheetsRepo, err := sheets.NewGoogleSheetRepository(ctx, cfg.Sheets, baseLogger.Named("repo.sheets"))
		if err != nil {
			baseLogger.Fatal("failed to init sheets repository", zap.Error(err))
		}
		schedOpts.Publisher = sheets.NewMonthlyPublisher(sheetsRepo, baseLogger.Named("repo.sheets.monthly"))
	}

	sched := scheduler.NewScheduler(schedOpts, syncSvc, reportingSvc, baseLogger.Named("scheduler"))
	if err := sched.Start(); err != nil {
		baseLogger.Fatal("failed to start scheduler", zap.Error(err))
	}
	defer sched.Stop()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		baseLogger.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.String("backend", cfg.Backend.BaseURL))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-sigCtx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	sessions.Wait()
}
