// Package server initializes and runs the auth/credential service.
// It opens the database, runs migrations, loads the encryption key from the
// configured backend, wires the services, and serves the HTTP facade with
// graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/dmitrijs2005/atlassist/internal/cryptox"
	"github.com/dmitrijs2005/atlassist/internal/logging"
	"github.com/dmitrijs2005/atlassist/internal/server/config"
	"github.com/dmitrijs2005/atlassist/internal/server/httpapi"
	"github.com/dmitrijs2005/atlassist/internal/server/identity"
	"github.com/dmitrijs2005/atlassist/internal/server/keystore"
	"github.com/dmitrijs2005/atlassist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/atlassist/internal/server/services"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	accounts *services.AccountService
	creds    *services.CredentialService
	resolver *identity.Resolver
	guard    *identity.Guard
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {

	logger := logging.NewJSONLogger()

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	ks, err := newKeyStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("keystore init error: %w", err)
	}
	key, err := ks.LoadOrCreate(ctx)
	if err != nil {
		return nil, fmt.Errorf("encryption key error: %w", err)
	}

	box, err := cryptox.NewSecretBox(key, logger)
	if err != nil {
		return nil, fmt.Errorf("secret box error: %w", err)
	}

	accounts := services.NewAccountService(db, rm, cfg.SessionValidity, logger)
	creds := services.NewCredentialService(db, rm, box, logger)

	resolver := identity.NewResolver(accounts, []byte(cfg.FederatedSecretKey), cfg.DemoUserID, logger)

	var invalidator identity.MemoryInvalidator = &identity.NoopInvalidator{}
	if cfg.MemoryServiceURL != "" {
		invalidator = identity.NewHTTPInvalidator(cfg.MemoryServiceURL)
	}
	guard := identity.NewGuard(resolver, invalidator, logger)

	return &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		accounts: accounts,
		creds:    creds,
		resolver: resolver,
		guard:    guard,
	}, nil
}

func newKeyStore(ctx context.Context, cfg *config.Config) (keystore.KeyStore, error) {
	switch cfg.KeyBackend {
	case "s3":
		return keystore.NewS3KeyStore(ctx, keystore.S3Options{
			RootUser:     cfg.S3RootUser,
			RootPassword: cfg.S3RootPassword,
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			BaseEndpoint: cfg.S3BaseEndpoint,
			ObjectKey:    cfg.S3KeyObject,
		})
	case "file":
		return keystore.NewFileKeyStore(cfg.KeyFile), nil
	default:
		return nil, fmt.Errorf("unknown key backend: %s", cfg.KeyBackend)
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	router := httpapi.NewRouter(app.accounts, app.creds, app.resolver, app.guard,
		app.config.SessionValidity, app.logger)

	srv := &http.Server{
		Addr:    app.config.EndpointAddrHTTP,
		Handler: router,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(shutdownCtx, "http shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "http server listening", "addr", app.config.EndpointAddrHTTP)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "starting app")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
}
