package storage

import (
	"context"
	"fmt"
	"log/slog"
)

// Open builds the KV described by cfg.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (KV, error) {
	var (
		kv  KV
		err error
	)

	switch cfg.Driver {
	case "", DriverBadger:
		kv, err = NewBadgerKV(cfg.Dir, logger)
	case DriverRedis:
		client, cerr := NewRedisClient(ctx, cfg.RedisURL)
		if cerr != nil {
			return nil, cerr
		}
		kv = NewRedisKV(client, cfg.RedisPrefix)
	case DriverMemory:
		kv = NewMemoryKV()
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}

	if len(cfg.SealKey) > 0 {
		sealed, err := NewSealedKV(kv, cfg.SealKey)
		if err != nil {
			kv.Close()
			return nil, err
		}
		return sealed, nil
	}
	return kv, nil
}
