package app

import (
	"context"
	"fmt"

	"github.com/abduss/filevault/internal/audit"
	"github.com/abduss/filevault/internal/config"
	"github.com/abduss/filevault/internal/content"
	"github.com/abduss/filevault/internal/file"
	"github.com/abduss/filevault/internal/server"
	"github.com/abduss/filevault/internal/storage"
)

type metadata struct {
	files  file.Store
	audits audit.Store
	ping   server.Pinger
	close  func()
}

// openMetadata picks the backend from DATABASE_URL and brings its schema up to date.
func openMetadata(ctx context.Context, cfg config.Config) (metadata, error) {
	switch cfg.Database.Driver() {
	case config.DriverPostgres:
		pool, err := storage.NewPostgresPool(ctx, cfg.Database.URL)
		if err != nil {
			return metadata{}, err
		}
		if err := storage.MigratePostgres(ctx, pool); err != nil {
			pool.Close()
			return metadata{}, err
		}
		return metadata{
			files:  file.NewRepository(pool),
			audits: audit.NewRepository(pool),
			ping:   server.PingFunc(pool.Ping),
			close:  pool.Close,
		}, nil

	case config.DriverSQLite:
		db, err := storage.OpenSQLite(cfg.Database.SQLitePath())
		if err != nil {
			return metadata{}, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return metadata{}, fmt.Errorf("sqlite handle: %w", err)
		}
		if err := storage.MigrateSQLite(db, &file.StoredFile{}, &audit.LinkAudit{}); err != nil {
			_ = sqlDB.Close()
			return metadata{}, err
		}
		return metadata{
			files:  file.NewGormRepository(db),
			audits: audit.NewGormRepository(db),
			ping:   server.PingFunc(sqlDB.PingContext),
			close:  func() { _ = sqlDB.Close() },
		}, nil

	default:
		return metadata{}, fmt.Errorf("unsupported database url %q", cfg.Database.URL)
	}
}

func openContent(ctx context.Context, cfg config.StorageConfig) (content.Store, error) {
	switch cfg.Driver {
	case config.StorageMinIO:
		client, err := storage.NewMinIOClient(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		if err := storage.EnsureBucket(ctx, client, cfg.MinIO.Bucket, cfg.MinIO.Region); err != nil {
			return nil, err
		}
		return content.NewMinIO(client, cfg.MinIO.Bucket), nil
	default:
		disk, err := content.NewDisk(cfg.UploadDir)
		if err != nil {
			return nil, err
		}
		return disk, nil
	}
}
