package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tidwall/buntdb"
)

var _ Backend = (*BuntBackend)(nil)

// BuntBackend keeps keys in an embedded buntdb file, or in memory for ":memory:".
// Hashes are stored as one JSON-encoded value.
type BuntBackend struct {
	db *buntdb.DB
}

func NewBuntBackend(path string) (*BuntBackend, error) {
	db, err := buntdb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open buntdb: %w", err)
	}
	return &BuntBackend{db: db}, nil
}

func setOptions(ttl time.Duration) *buntdb.SetOptions {
	if ttl <= 0 {
		return nil
	}
	return &buntdb.SetOptions{Expires: true, TTL: ttl}
}

func (b *BuntBackend) Set(_ context.Context, key, value string, ttl time.Duration) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		if _, _, err := tx.Set(key, value, setOptions(ttl)); err != nil {
			return fmt.Errorf("buntdb set: %w", err)
		}
		return nil
	})
}

func (b *BuntBackend) Get(_ context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := b.db.View(func(tx *buntdb.Tx) error {
		v, err := tx.Get(key)
		if errors.Is(err, buntdb.ErrNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("buntdb get: %w", err)
		}
		value, found = v, true
		return nil
	})
	return value, found, err
}

func (b *BuntBackend) Exists(ctx context.Context, key string) (bool, error) {
	_, found, err := b.Get(ctx, key)
	return found, err
}

func (b *BuntBackend) Delete(_ context.Context, keys ...string) error {
	return b.db.Update(func(tx *buntdb.Tx) error {
		for _, key := range keys {
			if _, err := tx.Delete(key); err != nil && !errors.Is(err, buntdb.ErrNotFound) {
				return fmt.Errorf("buntdb delete: %w", err)
			}
		}
		return nil
	})
}

func (b *BuntBackend) HSet(ctx context.Context, key string, fields map[string]string, ttl time.Duration) error {
	raw, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("buntdb encode hash: %w", err)
	}
	return b.Set(ctx, key, string(raw), ttl)
}

func (b *BuntBackend) Close() error {
	return b.db.Close()
}
