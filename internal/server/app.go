// Package server wires configuration, storage, services and transports
// into the authkeeper server process and handles graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/idgen"
	"github.com/dmitrijs2005/authkeeper/internal/logging"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/metrics"
	"github.com/dmitrijs2005/authkeeper/internal/server/ops"
	"github.com/dmitrijs2005/authkeeper/internal/server/passwords"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/authkeeper/internal/server/services"
	"github.com/dmitrijs2005/authkeeper/internal/server/storage"

	gs "github.com/dmitrijs2005/authkeeper/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	closeLog func() error
	db       *sql.DB
	metrics  *metrics.Metrics
	sessions *services.SessionService
	users    *services.UserService
}

// NewApp opens the database, applies migrations, builds the services and
// creates the bootstrap superuser when one is configured.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, closeLog, err := logging.New(logging.Options{
		Backend: c.LogBackend,
		Level:   c.LogLevel,
		File:    c.LogFile,
	})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	app := &App{config: c, logger: logger, closeLog: closeLog, metrics: metrics.New()}
	if err := app.init(ctx); err != nil {
		_ = app.Close()
		return nil, err
	}
	return app, nil
}

func (app *App) init(ctx context.Context) error {
	c := app.config

	db, err := storage.Open(ctx, c.DatabaseDriver, c.DatabaseDSN, storage.Options{})
	if err != nil {
		return fmt.Errorf("db init error: %w", err)
	}
	app.db = db

	rm, err := repomanager.NewSQLRepositoryManager(c.DatabaseDriver)
	if err != nil {
		return err
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}

	codec, err := auth.NewCodec([]byte(c.SecretKey), c.SigningAlgorithm, c.AccessTokenTTL)
	if err != nil {
		return err
	}
	hasher, err := passwords.New(c.PasswordAlgorithm)
	if err != nil {
		return err
	}
	ids, err := idgen.NewSnowflake(c.SnowflakeNode)
	if err != nil {
		return err
	}

	app.sessions, err = services.NewSessionService(rm, codec, hasher, ids, c.RefreshTokenTTL)
	if err != nil {
		return err
	}
	app.users = services.NewUserService(rm, hasher, app.sessions)

	return app.bootstrapSuperuser(ctx)
}

func (app *App) bootstrapSuperuser(ctx context.Context) error {
	c := app.config
	if c.SuperuserEmail == "" {
		return nil
	}

	u, created, err := app.users.EnsureSuperuser(ctx, app.db, c.SuperuserEmail, c.SuperuserName, c.SuperuserPassword)
	if err != nil {
		return fmt.Errorf("bootstrap superuser: %w", err)
	}
	if created {
		app.logger.Info(ctx, "Superuser created", "user_id", u.ID)
	}
	return nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.db, app.sessions, app.users, app.metrics, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}
	return nil
}

func (app *App) startOpsServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	s := ops.NewServer(app.config.MetricsAddr, app.db, app.metrics.Registry, app.logger)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	if err := s.ListenAndServe(); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return err
	}
	return nil
}

// Run serves gRPC and, when configured, the ops HTTP endpoints until ctx is
// cancelled, a signal arrives or a listener fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	start := func(fn func(context.Context, context.CancelFunc) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx, cancelFunc); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}()
	}

	start(app.startGRPCServer)
	if app.config.MetricsAddr != "" {
		start(app.startOpsServer)
	}

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return errors.Join(errs...)
}

// Close releases the database and flushes the logger.
func (app *App) Close() error {
	var errs []error
	if app.db != nil {
		errs = append(errs, app.db.Close())
	}
	if app.closeLog != nil {
		errs = append(errs, app.closeLog())
	}
	return errors.Join(errs...)
}
