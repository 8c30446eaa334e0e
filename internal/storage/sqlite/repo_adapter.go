package sqlite

import (
	"context"

	"dqpipe/internal/storage"
)

// newRepository points to NewRepository; tests replace it to avoid a real
// database.
var newRepository = NewRepository

// wrappedRepo adds the Close method storage.Repository needs, calling the
// cleanup function returned by NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

// Close implements storage.Repository.Close.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{
			DSN:     cfg.DSN,
			Table:   cfg.Table,
			Columns: cfg.Columns,
		})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDialect("sqlite", storage.Dialect{
		MapType:     MapType,
		CreateTable: storage.BuildCreateTable,
	})
}
