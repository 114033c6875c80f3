// Package server wires the teamboard server together: storage, session
// and preference services, the due-soon scanners and the HTTP and gRPC
// endpoints, and runs them until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/teamboard/internal/dbx"
	"github.com/dmitrijs2005/teamboard/internal/logging"
	"github.com/dmitrijs2005/teamboard/internal/scheduler"
	"github.com/dmitrijs2005/teamboard/internal/server/config"
	"github.com/dmitrijs2005/teamboard/internal/server/dedup"
	"github.com/dmitrijs2005/teamboard/internal/server/dispatch"
	"github.com/dmitrijs2005/teamboard/internal/server/duesoon"
	"github.com/dmitrijs2005/teamboard/internal/server/preferences"
	"github.com/dmitrijs2005/teamboard/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/teamboard/internal/server/rest"
	"github.com/dmitrijs2005/teamboard/internal/server/services"

	gs "github.com/dmitrijs2005/teamboard/internal/server/grpc"
)

type App struct {
	config          *config.Config
	logger          logging.Logger
	db              *sql.DB
	userService     *services.UserService
	settingsService *services.SettingsService
	runner          *scheduler.Runner
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.New(c.LogBackend, c.LogLevel, os.Stdout)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	tx := dbx.NewSQLTxRunner(db, nil)
	us := services.NewUserService(db, tx, rm, c, logger)
	ss := services.NewSettingsService(db, rm, c.ScanHorizon)

	scheduleGuard, todoGuard, err := newGuards(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("dedup init error: %w", err)
	}

	dispatcher := newDispatcher(c, logger)
	resolver := preferences.NewResolver(rm.NotificationSettings(db), rm.PersonalSettings(db))
	devices := rm.DeviceTokens(db)

	opts := duesoon.Options{
		Horizon:               c.ScanHorizon,
		Tolerance:             c.ScanTolerance,
		DispatchTimeout:       c.DispatchTimeout,
		Workers:               c.DispatchWorkers,
		RetryFailedDeliveries: c.RetryFailedDeliveries,
	}

	runner := scheduler.NewRunner(logger)
	runner.Add(duesoon.NewScanner(duesoon.ScheduleFamily(rm.Schedules(db)), resolver, devices, scheduleGuard, dispatcher, opts, logger),
		c.ScanInterval, c.TickTimeout)
	runner.Add(duesoon.NewScanner(duesoon.TodoFamily(rm.Todos(db)), resolver, devices, todoGuard, dispatcher, opts, logger),
		c.ScanInterval, c.TickTimeout)
	runner.Add(scheduler.TaskFunc("refresh-token-cleanup", func(ctx context.Context) error {
		return us.CleanupExpired(ctx, time.Now())
	}), c.TokenCleanupInterval, c.TickTimeout)

	return &App{
		config:          c,
		logger:          logger,
		db:              db,
		userService:     us,
		settingsService: ss,
		runner:          runner,
	}, nil
}

// newGuards returns one dedup guard per scanner family.
func newGuards(ctx context.Context, c *config.Config) (dedup.Guard, dedup.Guard, error) {
	switch c.DedupBackend {
	case config.DedupBackendS3:
		client, err := dedup.NewS3Client(ctx, c)
		if err != nil {
			return nil, nil, err
		}
		sg := dedup.NewS3Guard(client, c.S3Bucket, "schedule")
		if err := sg.EnsureBucket(ctx); err != nil {
			return nil, nil, err
		}
		return sg, dedup.NewS3Guard(client, c.S3Bucket, "todo"), nil
	case config.DedupBackendMemory, "":
		return dedup.NewMemoryGuard(), dedup.NewMemoryGuard(), nil
	default:
		return nil, nil, fmt.Errorf("unknown dedup backend %q", c.DedupBackend)
	}
}

func newDispatcher(c *config.Config, logger logging.Logger) dispatch.Dispatcher {
	if c.PushWebhookURL != "" {
		return dispatch.NewWebhookDispatcher(c.PushWebhookURL, c.DispatchTimeout)
	}
	return dispatch.NewLogDispatcher(logger)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	router := rest.NewRouter(app.userService, app.settingsService, app.logger, app.config.RequestTimeout)
	s := rest.NewHTTPServer(app.config.EndpointAddrHTTP, router, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	app.runner.Start(ctx)

	wg.Wait()
	app.runner.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "db close error", "error", err)
	}
	app.logger.Info(context.Background(), "App stopped")
}
