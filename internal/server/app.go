// Package server wires storage, services and transports together and runs
// them until the process is asked to stop.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophlocker/internal/cryptox"
	"github.com/dmitrijs2005/gophlocker/internal/logging"
	"github.com/dmitrijs2005/gophlocker/internal/server/api"
	"github.com/dmitrijs2005/gophlocker/internal/server/blobstore"
	"github.com/dmitrijs2005/gophlocker/internal/server/config"
	"github.com/dmitrijs2005/gophlocker/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophlocker/internal/server/services"

	gs "github.com/dmitrijs2005/gophlocker/internal/server/grpc"
)

const healthProbeInterval = 15 * time.Second

type App struct {
	config   *config.Config
	logger   logging.Logger
	manager  repomanager.RepositoryManager
	store    blobstore.Store
	locker   *services.LockerService
	accounts *services.AccountService
}

// NewApp opens the configured metadata and blob stores and builds the
// services on top of them. Logs go to out.
func NewApp(ctx context.Context, c *config.Config, out io.Writer) (*App, error) {
	logger := logging.NewJSON(out, c.LogLevel)

	m, err := openManager(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	store, err := openStore(ctx, c)
	if err != nil {
		_ = m.Close()
		return nil, fmt.Errorf("blob store init error: %w", err)
	}

	blobs := services.NewBlobWriter(store)
	hasher := cryptox.NewHasher(cryptox.DefaultIterations)

	return &App{
		config:   c,
		logger:   logger,
		manager:  m,
		store:    store,
		locker:   services.NewLockerService(m, blobs, c, logger),
		accounts: services.NewAccountService(m, blobs, hasher, c, logger),
	}, nil
}

func openManager(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	switch c.DatabaseDriver {
	case config.DatabasePostgres:
		return repomanager.NewPostgresRepositoryManager(ctx, c.DatabaseDSN)
	case config.DatabaseBolt:
		return repomanager.NewBoltRepositoryManager(c.BoltPath)
	default:
		return nil, fmt.Errorf("unknown database driver %q", c.DatabaseDriver)
	}
}

func openStore(ctx context.Context, c *config.Config) (blobstore.Store, error) {
	switch c.BlobDriver {
	case config.BlobFS:
		return blobstore.NewFSStore(c.UploadDir)
	case config.BlobS3:
		return blobstore.NewS3Store(ctx, blobstore.S3Config{
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			Bucket:       c.S3Bucket,
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
		})
	default:
		return nil, fmt.Errorf("unknown blob driver %q", c.BlobDriver)
	}
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case <-sigs:
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := api.NewServer(app.config, app.locker, app.accounts, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "HTTP server failed", "error", err)
		cancelFunc()
	}
}

func (app *App) startHealthServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewHealthServer(app.config.GRPCHealthAddr, app.manager, healthProbeInterval, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "gRPC health server failed", "error", err)
		cancelFunc()
	}
}

// Run serves until ctx is done, a termination signal arrives or a server
// fails, then releases the stores.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...",
		"database", app.config.DatabaseDriver, "blobs", app.config.BlobDriver)

	app.initSignalHandler(ctx, cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	if app.config.GRPCHealthAddr != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startHealthServer(ctx, cancelFunc)
		}()
	}

	if app.config.SweepInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.locker.RunSweeper(ctx, app.config.SweepInterval, app.config.SweepGrace)
		}()
	}

	wg.Wait()

	app.logger.Info(context.WithoutCancel(ctx), "App stopped")
	return app.Close()
}

// Close releases the metadata and blob stores.
func (app *App) Close() error {
	var errs []error
	if err := app.manager.Close(); err != nil {
		errs = append(errs, fmt.Errorf("db close error: %w", err))
	}
	if c, ok := app.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("blob store close error: %w", err))
		}
	}
	return errors.Join(errs...)
}
