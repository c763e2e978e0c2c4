package cli

import (
	"context"
	"log/slog"

	"github.com/aqasim81/tiger/internal/config"
	"github.com/aqasim81/tiger/internal/database"
	"github.com/aqasim81/tiger/internal/project"
	"github.com/aqasim81/tiger/internal/store"
)

// sqlSession is what a committing run needs from the database layer.
type sqlSession interface {
	Exec(ctx context.Context, sql string) error
	Lock(ctx context.Context) error
	Close(ctx context.Context) error
}

// Constructors for external services. Tests swap them for in-memory fakes.
//
//nolint:gochecknoglobals // test seams
var (
	newObjectStore = func(cfg *config.Config) (store.ObjectStore, error) {
		if err := cfg.RequireObjectStore(); err != nil {
			return nil, err
		}

		logger.Debug("using object store",
			"bucket", cfg.S3.Bucket,
			"region", cfg.S3.Region,
			"endpoint", cfg.S3.Endpoint,
			"secret", config.RedactSecret(cfg.S3.Secret),
		)

		return store.NewS3(store.S3Options{
			Key:      cfg.S3.Key,
			Secret:   cfg.S3.Secret,
			Bucket:   cfg.S3.Bucket,
			Region:   cfg.S3.Region,
			Endpoint: cfg.S3.Endpoint,
		}), nil
	}

	openSQL = func(ctx context.Context, cfg *config.Config, l *slog.Logger) (sqlSession, error) {
		if err := cfg.RequireSQL(); err != nil {
			return nil, err
		}

		l.Info("connecting", "driver", cfg.SQL.Driver, "target", config.RedactURL(cfg.SQL.Host))

		return database.Open(ctx, database.Settings{
			Driver:           cfg.SQL.Driver,
			DSN:              cfg.SQL.Host,
			LockTimeout:      cfg.SQL.LockTimeout,
			StatementTimeout: cfg.SQL.StatementTimeout,
			LockScope:        cfg.S3.Bucket,
		}, l)
	}

	newEditor = func() project.Editor { return project.NewCommandEditor() }
)

func workspace() *project.Workspace {
	return project.NewWorkspace(AppConfig.Workspace)
}
