package statestore

import (
	"context"
	"time"

	"github.com/alecthomas/errors"
	"go.etcd.io/bbolt"
)

var bucketName = []byte("git_datasource_state")

// BoltStore is an embedded, file-backed Store implementation for local or
// single-node deployments where no external state store is available.
type BoltStore struct {
	db *bbolt.DB
}

// OpenBoltStore opens (creating if necessary) a bbolt database at path
// and ensures the state bucket exists.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Errorf("opening bbolt database %s: %w", path, err)
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketName)
		return errors.WithStack(err)
	}); err != nil {
		return nil, errors.Join(errors.Errorf("creating state bucket: %w", err), db.Close())
	}
	return &BoltStore{db: db}, nil
}

func (b *BoltStore) Close() error {
	return errors.WithStack(b.db.Close())
}

func (b *BoltStore) Exist(_ context.Context, key string) (bool, error) {
	var found bool
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		found = v != nil
		return nil
	})
	return found, errors.WithStack(err)
}

func (b *BoltStore) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := b.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucketName).Get([]byte(key))
		if v != nil {
			out = append([]byte(nil), v...)
		}
		return nil
	})
	return out, errors.WithStack(err)
}

func (b *BoltStore) Set(_ context.Context, key string, value []byte) error {
	return errors.WithStack(b.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketName).Put([]byte(key), value)
	}))
}

var _ Store = (*BoltStore)(nil)
