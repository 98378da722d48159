package platform

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/sheaf/pkg/adapters/fs"
	"github.com/aretw0/sheaf/pkg/adapters/memory"
	"github.com/aretw0/sheaf/pkg/adapters/sqlite"
	"github.com/aretw0/sheaf/pkg/storage"
)

// SQLiteFile is the database file name used when the sqlite uri is a directory.
const SQLiteFile = "sheaf.db"

// initBackend builds the backend selected by the options.
// The returned closer releases it and is never nil.
func initBackend(ctx context.Context, uri string, o *options) (storage.Backend, func() error, error) {
	noop := func() error { return nil }

	if o.backend != nil {
		return o.backend, noop, nil
	}

	switch o.adapter {
	case AdapterMemory:
		return memory.NewBackend(memory.WithQuota(o.quota)), noop, nil

	case AdapterFS:
		path := resolve(uri, o)
		b := fs.NewBackend(fs.Config{
			Path:         path,
			Quota:        o.quota,
			Versioning:   o.versioning,
			MustExist:    o.mustExist,
			Logger:       o.logger,
			ErrorHandler: o.errorHandler,
		})
		if err := b.Initialize(ctx); err != nil {
			return nil, nil, err
		}
		return b, noop, nil

	case AdapterSQLite:
		path := resolve(uri, o)
		if filepath.Ext(path) == "" {
			path = filepath.Join(path, SQLiteFile)
		}
		b, err := sqlite.Open(ctx, sqlite.Config{
			Path:   path,
			Quota:  o.quota,
			Logger: o.logger,
		})
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown adapter: %s", o.adapter)
	}
}

// resolve applies the dev sandbox to an on-disk uri.
func resolve(uri string, o *options) string {
	useTemp := o.forceTemp || (IsDevRun() && o.devSafety)
	path := ResolvePath(uri, useTemp)

	if IsDevRun() {
		if o.devSafety {
			o.logger.Debug("running in SAFE mode (dev sandbox enabled)", "path", path)
		} else {
			o.logger.Warn("running in UNSAFE mode (bypassing dev sandbox)", "path", path)
		}
	}
	if useTemp && path != uri {
		o.logger.Warn("running in SAFE MODE (Dev/Test)", "original_path", uri, "resolved_path", path)
	}
	return path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
