package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yungbote/certifytrack-backend/internal/data/db"
	server "github.com/yungbote/certifytrack-backend/internal/http"
	"github.com/yungbote/certifytrack-backend/internal/jobs/reconcile"
	"github.com/yungbote/certifytrack-backend/internal/observability"
	"github.com/yungbote/certifytrack-backend/internal/pkg/logger"
)

type App struct {
	Log        *logger.Logger
	DB         *gorm.DB
	Cfg        Config
	Repos      Repos
	Services   Services
	Metrics    *observability.Metrics
	Server     *server.Server
	Reconciler *reconcile.Job

	closeDB      func() error
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// New opens the database named by cfg, migrates it and wires the application.
func New(ctx context.Context, cfg Config, log *logger.Logger) (*App, error) {
	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel())

	dbs, err := db.NewDatabaseService(cfg.Database(), log)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	if err := db.AutoMigrateAll(dbs.DB()); err != nil {
		_ = dbs.Close()
		return nil, fmt.Errorf("automigrate: %w", err)
	}
	a, err := NewWithDB(ctx, cfg, log, dbs.DB())
	if err != nil {
		_ = dbs.Close()
		return nil, err
	}
	a.closeDB = dbs.Close
	a.otelShutdown = otelShutdown
	return a, nil
}

// NewWithDB wires the application around an already migrated database.
func NewWithDB(ctx context.Context, cfg Config, log *logger.Logger, gdb *gorm.DB) (*App, error) {
	reposet := wireRepos(gdb, log)
	serviceset, err := wireServices(ctx, gdb, log, cfg, reposet)
	if err != nil {
		return nil, err
	}

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.NewMetrics()
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, fmt.Errorf("sql db handle: %w", err)
	}
	handlerset := wireHandlers(log, cfg, sqlDB, serviceset, metrics)
	middleware := wireMiddleware(log, serviceset)

	reconciler, err := reconcile.New(log, serviceset.Enrollment, reconcile.Config{
		Schedule: cfg.ProgressReconcileCron,
		Metrics:  metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("init progress reconcile: %w", err)
	}

	return &App{
		Log:        log,
		DB:         gdb,
		Cfg:        cfg,
		Repos:      reposet,
		Services:   serviceset,
		Metrics:    metrics,
		Server:     server.NewServer(routerConfig(log, cfg, handlerset, middleware, serviceset, metrics)),
		Reconciler: reconciler,
	}, nil
}

func (a *App) Router() *gin.Engine { return a.Server.Engine }

// Start launches background jobs. It is a no-op when already started.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	return a.Reconciler.Start(ctx)
}

// Run serves HTTP until ctx is done.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return errors.New("app not initialized")
	}
	return a.Server.Run(ctx, ":"+a.Cfg.Port)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Reconciler.Stop()
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.closeDB != nil {
		if err := a.closeDB(); err != nil {
			a.Log.Warn("database close failed", "error", err)
		}
	}
	a.Log.Sync()
}
