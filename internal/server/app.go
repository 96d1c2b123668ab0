// Package server wires configuration, storage, services and the HTTP and
// gRPC listeners together and runs them until the process is signalled.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/calckeeper/internal/logging"
	"github.com/dmitrijs2005/calckeeper/internal/server/auth"
	"github.com/dmitrijs2005/calckeeper/internal/server/config"
	"github.com/dmitrijs2005/calckeeper/internal/server/httpapi"
	"github.com/dmitrijs2005/calckeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/calckeeper/internal/server/services"

	gs "github.com/dmitrijs2005/calckeeper/internal/server/grpc"
)

// TokenIssuer is the iss claim of every token this server mints.
const TokenIssuer = "calckeeper"

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager

	http    *httpapi.Server
	grpc    *gs.GRPCServer
	sweeper *services.RevocationSweeper
}

// NewApp opens storage, applies migrations and builds every component.
// Any failure here is fatal for the process.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON(os.Stdout, c.LogLevel)

	db, rm, err := openStorage(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	app := &App{config: c, logger: logger, db: db, repomanager: rm}
	if err := app.build(); err != nil {
		db.Close()
		return nil, err
	}
	return app, nil
}

func (app *App) build() error {
	c := app.config

	hasher, err := auth.NewHasher(c.BcryptCost, app.logger)
	if err != nil {
		return fmt.Errorf("hasher init error: %w", err)
	}

	revocations := services.NewRevocationChecker(app.db, app.repomanager, c.StatementTimeout, app.logger)
	issuer, err := auth.NewIssuer(auth.TokenConfig{
		AccessSecret:  []byte(c.SecretKey),
		RefreshSecret: []byte(c.RefreshSecret()),
		AccessTTL:     c.AccessTokenValidityDuration,
		RefreshTTL:    c.RefreshTokenValidityDuration,
		Issuer:        TokenIssuer,
	}, revocations)
	if err != nil {
		return fmt.Errorf("token issuer init error: %w", err)
	}

	users := services.NewUserService(app.db, app.repomanager, hasher, issuer, c, app.logger)
	calcs := services.NewCalculationService(app.db, app.repomanager, c, app.logger)
	exporter := services.NewExportService(app.db, app.repomanager, c, app.logger)
	resolver := auth.NewResolver(issuer, users, app.logger)

	app.http = httpapi.NewServer(c.HTTPAddr, app.logger, resolver, users, calcs, exporter)
	if c.HealthAddr != "" {
		app.grpc = gs.NewGRPCServer(c.HealthAddr, app.logger, app.db)
	}
	app.sweeper = services.NewRevocationSweeper(app.db, app.repomanager, c.StatementTimeout,
		c.RevocationSweepInterval, app.logger)
	return nil
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

// serve runs fn and cancels everything else when it fails.
func (app *App) serve(ctx context.Context, cancelFunc context.CancelFunc, name string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		app.logger.Error(ctx, "server failed", "server", name, "error", err)
		cancelFunc()
	}
}

// Run blocks until ctx is cancelled or a signal arrives, then waits for
// the listeners to drain and closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.serve(ctx, cancelFunc, "http", app.http.Run)
	}()

	if app.grpc != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.serve(ctx, cancelFunc, "grpc", app.grpc.Run)
		}()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sweeper.Run(ctx)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
