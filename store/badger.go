package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/rs/zerolog"
)

var badgerPrefix = []byte("session/")

// Badger stores sessions in an embedded Badger database using per-entry TTLs.
type Badger struct {
	db *badger.DB
}

// NewBadger opens (or creates) a Badger database in dir. An empty dir keeps the
// database in memory.
func NewBadger(dir string, logger zerolog.Logger) (*Badger, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{logger})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Badger{db: db}, nil
}

func (b *Badger) Get(_ context.Context, id string) (State, error) {
	var state State
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &state)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return State{}, ErrNotFound
	}
	if err != nil {
		return State{}, fmt.Errorf("badger get: %w", err)
	}
	return state, nil
}

func (b *Badger) Set(_ context.Context, id string, state State, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	val, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}

	err = b.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(badger.NewEntry(badgerKey(id), val).WithTTL(ttl))
	})
	if err != nil {
		return fmt.Errorf("badger set: %w", err)
	}
	return nil
}

func (b *Badger) Delete(_ context.Context, id string) error {
	err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(badgerKey(id))
	})
	if err != nil {
		return fmt.Errorf("badger delete: %w", err)
	}
	return nil
}

func (b *Badger) Clear(_ context.Context) error {
	if err := b.db.DropPrefix(badgerPrefix); err != nil {
		return fmt.Errorf("badger clear: %w", err)
	}
	return nil
}

func (b *Badger) Close() error {
	return b.db.Close()
}

func badgerKey(id string) []byte {
	return append(append([]byte{}, badgerPrefix...), id...)
}

// badgerLogger routes Badger's internal logging through zerolog.
type badgerLogger struct {
	l zerolog.Logger
}

func (b badgerLogger) Errorf(f string, v ...interface{})   { b.l.Error().Msgf(f, v...) }
func (b badgerLogger) Warningf(f string, v ...interface{}) { b.l.Warn().Msgf(f, v...) }
func (b badgerLogger) Infof(f string, v ...interface{})    { b.l.Debug().Msgf(f, v...) }
func (b badgerLogger) Debugf(f string, v ...interface{})   { b.l.Trace().Msgf(f, v...) }
