// Package bbolt provides a BBolt-backed credential store.
package bbolt

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/aussiebroadwan/rollcall/internal/rollcall/credstore"
	"go.etcd.io/bbolt"
)

var bucketName = []byte("credentials")

// Store implements credstore.Store backed by a BBolt database.
type Store struct {
	db *bbolt.DB
}

var _ credstore.Store = (*Store)(nil)

// Open opens (or creates) the BBolt file at path and ensures the
// credentials bucket exists.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("creating credential store dir: %w", err)
	}

	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening bbolt db: %w", err)
	}

	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return err
	}); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating credentials bucket: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying BBolt database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) View(ctx context.Context, fn func(credstore.Reader) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketName)
		if b == nil {
			return errors.New("credentials bucket missing")
		}
		return fn(&bucketTx{b: b})
	})
}

func (s *Store) Update(ctx context.Context, fn func(credstore.Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bucketName)
		if err != nil {
			return err
		}
		return fn(&bucketTx{b: b})
	})
}

// Ping checks the database is open and readable.
func (s *Store) Ping(ctx context.Context) error {
	return s.View(ctx, func(credstore.Reader) error { return nil })
}

type bucketTx struct {
	b *bbolt.Bucket
}

func (t *bucketTx) Get(key string) ([]byte, error) {
	v := t.b.Get([]byte(key))
	if v == nil {
		return nil, fmt.Errorf("%s: %w", key, credstore.ErrNotFound)
	}
	// Values are only valid for the life of the transaction.
	return bytes.Clone(v), nil
}

func (t *bucketTx) Keys(prefix string) ([]string, error) {
	var keys []string
	p := []byte(prefix)
	c := t.b.Cursor()
	for k, _ := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, _ = c.Next() {
		keys = append(keys, string(k))
	}
	return keys, nil
}

func (t *bucketTx) Put(key string, value []byte) error {
	return t.b.Put([]byte(key), value)
}

func (t *bucketTx) Delete(key string) error {
	return t.b.Delete([]byte(key))
}
