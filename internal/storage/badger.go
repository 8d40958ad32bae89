// Package storage provides Badger-based KV storage implementation.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v3"
)

// BadgerKV implements KV on an embedded Badger database. It is the default
// driver: the token survives process restarts without external services.
type BadgerKV struct {
	db         *badger.DB
	logger     *slog.Logger
	gcInterval time.Duration

	// Shutdown
	stopCh chan struct{}
	doneCh chan struct{}
}

// BadgerOption configures a BadgerKV.
type BadgerOption func(*BadgerKV)

// WithGCInterval sets the interval between value-log GC runs.
// Zero disables the background loop.
func WithGCInterval(d time.Duration) BadgerOption {
	return func(b *BadgerKV) {
		b.gcInterval = d
	}
}

// NewBadgerKV opens (or creates) a Badger store in dir.
func NewBadgerKV(dir string, logger *slog.Logger, opts ...BadgerOption) (*BadgerKV, error) {
	if dir == "" {
		return nil, fmt.Errorf("badger: dir is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("badger: create dir: %w", err)
	}

	// The token store is tiny: keep caches and value-log files small and
	// fsync every write so a crash never loses a logout.
	bopts := badger.DefaultOptions(dir)
	bopts.Logger = &badgerLogger{logger: logger}
	bopts.SyncWrites = true
	bopts.BlockCacheSize = 1 << 20
	bopts.ValueLogFileSize = 16 << 20

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("badger: open db: %w", err)
	}

	kv := &BadgerKV{
		db:         db,
		logger:     logger,
		gcInterval: 10 * time.Minute,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(kv)
	}

	go kv.gcLoop()

	logger.Debug("badger token store opened", "dir", dir)
	return kv, nil
}

// Get retrieves a value by key.
func (b *BadgerKV) Get(_ context.Context, key string) (string, error) {
	var value []byte

	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return ErrKeyNotFound
			}
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrDBClosed) {
			return "", ErrClosed
		}
		return "", err
	}

	return string(value), nil
}

// Set stores a key-value pair.
func (b *BadgerKV) Set(_ context.Context, key, value string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
}

// Remove deletes a key.
func (b *BadgerKV) Remove(_ context.Context, key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

// Close stops the GC loop and closes the database.
func (b *BadgerKV) Close() error {
	close(b.stopCh)
	<-b.doneCh

	if err := b.db.Close(); err != nil {
		return fmt.Errorf("close db: %w", err)
	}
	return nil
}

// gcLoop runs periodic value-log garbage collection.
func (b *BadgerKV) gcLoop() {
	defer close(b.doneCh)

	if b.gcInterval <= 0 {
		<-b.stopCh
		return
	}

	ticker := time.NewTicker(b.gcInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for {
				err := b.db.RunValueLogGC(0.5)
				if err == nil {
					continue
				}
				if !errors.Is(err, badger.ErrNoRewrite) {
					b.logger.Warn("badger gc failed", "error", err)
				}
				break
			}
		case <-b.stopCh:
			return
		}
	}
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
// Badger is chatty at info level, so info is demoted to debug.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
