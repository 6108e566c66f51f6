package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/renameio/v2"
)

type fileEntry struct {
	Data   State   `json:"data"`
	Expiry float64 `json:"expiry"` // unix seconds
}

// File keeps every session in a single JSON document on disk. Writes replace
// the document atomically, so a crash never leaves a torn file behind.
type File struct {
	mu   sync.Mutex
	path string
	now  func() time.Time
}

// NewFile returns a file store rooted at path, creating its directory.
func NewFile(path string) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &File{path: path, now: time.Now}, nil
}

func (f *File) Get(_ context.Context, id string) (State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return State{}, err
	}

	e, ok := entries[id]
	if !ok || f.expired(e) {
		return State{}, ErrNotFound
	}
	return e.Data, nil
}

func (f *File) Set(_ context.Context, id string, state State, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}

	f.prune(entries)
	entries[id] = fileEntry{Data: state, Expiry: unixSeconds(f.now().Add(ttl))}
	return f.save(entries)
}

func (f *File) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	entries, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := entries[id]; !ok {
		return nil
	}

	delete(entries, id)
	return f.save(entries)
}

func (f *File) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cache file: %w", err)
	}
	return nil
}

func (f *File) Close() error { return nil }

func (f *File) load() (map[string]fileEntry, error) {
	entries := make(map[string]fileEntry)

	b, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	if len(b) == 0 {
		return entries, nil
	}

	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, fmt.Errorf("decode cache file %s: %w", f.path, err)
	}
	return entries, nil
}

func (f *File) save(entries map[string]fileEntry) error {
	b, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache file: %w", err)
	}

	if err := renameio.WriteFile(f.path, b, 0o600); err != nil {
		return fmt.Errorf("write cache file: %w", err)
	}
	return nil
}

func (f *File) prune(entries map[string]fileEntry) {
	for id, e := range entries {
		if f.expired(e) {
			delete(entries, id)
		}
	}
}

func (f *File) expired(e fileEntry) bool {
	return e.Expiry <= unixSeconds(f.now())
}

func unixSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}
