// Package app wires configuration into running components.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/abduss/filevault/internal/audit"
	"github.com/abduss/filevault/internal/config"
	"github.com/abduss/filevault/internal/content"
	"github.com/abduss/filevault/internal/events"
	"github.com/abduss/filevault/internal/file"
	"github.com/abduss/filevault/internal/janitor"
	"github.com/abduss/filevault/internal/metrics"
	"github.com/abduss/filevault/internal/server"
	"github.com/abduss/filevault/internal/signedlink"
	"github.com/abduss/filevault/internal/token"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

// App is the assembled service.
type App struct {
	cfg       config.Config
	log       *zap.Logger
	router    *gin.Engine
	publisher *events.AMQPPublisher
	janitor   *janitor.Janitor
	closers   []func()
}

// New connects to every backing service, applies the schema and builds the router.
func New(ctx context.Context, cfg config.Config, log *zap.Logger) (*App, error) {
	a := &App{cfg: cfg, log: log}

	meta, err := openMetadata(ctx, cfg)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, meta.close)

	store, err := openContent(ctx, cfg.Storage)
	if err != nil {
		a.Close()
		return nil, err
	}

	var publisher events.Publisher = events.Noop{}
	if cfg.Events.Enabled() {
		amqp, err := events.DialAMQP(ctx, cfg.Events.URL, cfg.Events.Exchange, log)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.publisher = amqp
		publisher = amqp
	}

	codec, err := token.NewCodec(cfg.Signing.Secret, cfg.Signing.Algorithm)
	if err != nil {
		a.Close()
		return nil, err
	}

	fileService := file.NewService(meta.files, store, publisher, log)
	auditService := audit.NewService(meta.audits, log)
	linkService := signedlink.NewService(fileService, auditService, codec, publisher, log, cfg.Signing.MaxTTLSeconds)

	if sweeper, ok := store.(content.PartialSweeper); ok {
		a.janitor = janitor.New(sweeper, cfg.Janitor.Interval, cfg.Janitor.StaleAfter, log)
	}

	metrics.InitMetrics()
	a.router = server.NewRouter(server.Dependencies{
		Config:       cfg,
		Logger:       log,
		Metadata:     meta.ping,
		Content:      store,
		FileService:  fileService,
		AuditService: auditService,
		LinkHandler:  signedlink.NewHandler(linkService, log),
	})

	return a, nil
}

// Handler exposes the HTTP router.
func (a *App) Handler() http.Handler {
	return a.router
}

// Run serves HTTP and runs the background workers until ctx is cancelled or one of them fails.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         a.cfg.Server.Address(),
		Handler:      a.router,
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.log.Info("http server listening", zap.String("addr", srv.Addr), zap.String("app", a.cfg.App.Name))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.log.Info("shutting down http server")
		return srv.Shutdown(shutdownCtx)
	})

	if a.publisher != nil {
		g.Go(func() error { return a.publisher.Run(gctx) })
	}
	if a.janitor != nil {
		g.Go(func() error { return a.janitor.Run(gctx) })
	}

	return g.Wait()
}

// Close releases database connections in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// Migrate applies the metadata schema and exits.
func Migrate(ctx context.Context, cfg config.Config) error {
	meta, err := openMetadata(ctx, cfg)
	if err != nil {
		return err
	}
	meta.close()
	return nil
}
