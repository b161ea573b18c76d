// Package server wires configuration, storage, services and transports
// into the ballot server and runs it until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/logging"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/config"
	gs "github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/grpc"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/metrics"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/repositories/repomanager"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/services"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/signature"
	"github.com/umbc-cmsc447-fa2021-voting/blind-voting-app/internal/server/storage"
)

const (
	connectAttempts = 10
	connectDelay    = 500 * time.Millisecond
)

// seams for tests
var (
	openDB = func(dsn string) (*sql.DB, error) {
		return sql.Open("pgx", dsn)
	}
	newRepositoryManager = func() repomanager.RepositoryManager {
		return repomanager.NewPostgresRepositoryManager()
	}
	newObjectStore = func(ctx context.Context, c *config.Config) (storage.ObjectStore, error) {
		return storage.NewS3Store(ctx, c)
	}
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	registry *prometheus.Registry
	server   *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, slog.LevelInfo)

	db, err := openDB(c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := waitForDB(ctx, db, logger, connectDelay); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db connect error: %w", err)
	}

	rm := newRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	store, err := newObjectStore(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("object storage init error: %w", err)
	}

	return newApp(c, logger, db, rm, store), nil
}

// newApp builds the services and the gRPC server on top of ready storage.
func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager, store storage.ObjectStore) *App {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	rec := metrics.NewRecorder(registry)

	clock := services.SystemClock{}
	signer := signature.NewSigner(signature.DeriveKey(c.SignatureSecret))

	gate := services.NewEligibilityService(db, rm, signer)
	tally := services.NewTallyService(db, rm, rec)
	svc := gs.Services{
		Users:   services.NewUserService(db, rm, c, services.NewLogNotifier(logger), clock, logger),
		Ballots: services.NewBallotService(db, rm, gate, signer, c, logger),
		Votes:   services.NewVoteService(db, rm, gate, signer, rec, logger),
		Tally:   tally,
		Archive: services.NewArchiveService(db, rm, tally, store, rec, logger),
		Clock:   clock,
	}

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		registry: registry,
		server:   gs.NewGRPCServer(c.EndpointAddrGRPC, logger, svc, c.SecretKey),
	}
}

// waitForDB pings until the database answers. Compose starts the server
// alongside postgres, so the first attempts usually fail.
func waitForDB(ctx context.Context, db *sql.DB, logger logging.Logger, delay time.Duration) error {
	return retry.Do(func() error {
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		return db.PingContext(pingCtx)
	},
		retry.Context(ctx),
		retry.Attempts(connectAttempts),
		retry.Delay(delay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logger.Warn(ctx, "database not ready", "attempt", n+1, "error", err.Error())
		}),
	)
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startMetricsServer(ctx context.Context, cancelFunc context.CancelFunc) {
	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)
	if err := metrics.Serve(ctx, app.config.MetricsAddr, app.registry); err != nil {
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
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startMetricsServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.Background(), "error closing database", "error", err.Error())
	}
	app.logger.Info(context.Background(), "App stopped")
}
