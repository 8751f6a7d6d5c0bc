package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/storefront/internal/logging"
	"github.com/redis/go-redis/v9"
)

const (
	DriverLocal = "local"
	DriverRedis = "redis"
	DriverKafka = "kafka"
)

var ErrUnknownDriver = errors.New("unknown bus driver")

type Options struct {
	Driver       string
	RedisAddr    string
	KafkaBrokers []string
	KafkaTopic   string
	InstanceID   string
}

// Open builds the Bus named by opts.Driver.
func Open(ctx context.Context, opts Options, log logging.Logger) (Bus, error) {
	switch opts.Driver {
	case DriverLocal, "":
		return NewLocalBus(), nil

	case DriverRedis:
		rdb := redis.NewClient(&redis.Options{Addr: opts.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("connect to redis %s: %w", opts.RedisAddr, err)
		}
		b := NewRedisBus(rdb, log)
		b.ownsClient = true
		return b, nil

	case DriverKafka:
		if len(opts.KafkaBrokers) == 0 {
			return nil, fmt.Errorf("kafka bus: no brokers configured")
		}
		return NewKafkaBus(opts.KafkaBrokers, opts.KafkaTopic, "storefront-"+opts.InstanceID, log), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
}
