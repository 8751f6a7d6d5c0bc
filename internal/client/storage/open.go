package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/dmitrijs2005/storefront/internal/filex"
	"github.com/redis/go-redis/v9"
)

const (
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Options selects and configures a backend.
type Options struct {
	Driver    string
	DSN       string
	RedisAddr string
	Origin    string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the Storage named by opts.Driver. The returned Closer releases
// the backend connection.
func Open(ctx context.Context, opts Options) (Storage, io.Closer, error) {
	switch opts.Driver {
	case DriverSQLite, "":
		if err := filex.EnsureParentDir(opts.DSN); err != nil {
			return nil, nil, err
		}
		db, err := OpenSQLite(ctx, opts.DSN)
		if err != nil {
			return nil, nil, err
		}
		return NewSQLite(db, opts.Origin), db, nil

	case DriverRedis:
		rdb := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connect to redis %s: %w", opts.RedisAddr, err)
		}
		return NewRedis(rdb, opts.Origin), rdb, nil

	case DriverMemory:
		return NewMemory(opts.Origin), nopCloser{}, nil

	default:
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}
