package statestore

import (
	"context"
	"time"

	"github.com/asukhodko/git-datasource/internal/synerr"
)

// DefaultTimeout is the per-call wall-clock cap the spec requires (§4.D).
const DefaultTimeout = 10 * time.Second

// BoundedStore wraps a Store and enforces a per-call timeout, degrading to
// a StateStoreError (never fatal to the caller) on timeout or underlying
// failure. The original implementation ran each call on a background
// thread and joined it with a timeout; here the equivalent is a goroutine
// racing ctx.Done() against a result channel, since Go has no API to
// forcibly abandon a blocked call short of leaking the goroutine — which
// is acceptable for a rare timeout path.
type BoundedStore struct {
	Inner   Store
	Timeout time.Duration
}

// NewBoundedStore wraps inner with the default 10s per-call timeout.
func NewBoundedStore(inner Store) *BoundedStore {
	return &BoundedStore{Inner: inner, Timeout: DefaultTimeout}
}

func (b *BoundedStore) timeout() time.Duration {
	if b.Timeout <= 0 {
		return DefaultTimeout
	}
	return b.Timeout
}

type existResult struct {
	ok  bool
	err error
}

func (b *BoundedStore) Exist(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout())
	defer cancel()

	ch := make(chan existResult, 1)
	go func() {
		ok, err := b.Inner.Exist(ctx, key)
		ch <- existResult{ok: ok, err: err}
	}()

	select {
	case <-ctx.Done():
		return false, synerr.StateStoreError("exist "+key, ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return false, synerr.StateStoreError("exist "+key, r.err)
		}
		return r.ok, nil
	}
}

type getResult struct {
	data []byte
	err  error
}

func (b *BoundedStore) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout())
	defer cancel()

	ch := make(chan getResult, 1)
	go func() {
		data, err := b.Inner.Get(ctx, key)
		ch <- getResult{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, synerr.StateStoreError("get "+key, ctx.Err())
	case r := <-ch:
		if r.err != nil {
			return nil, synerr.StateStoreError("get "+key, r.err)
		}
		return r.data, nil
	}
}

func (b *BoundedStore) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, b.timeout())
	defer cancel()

	ch := make(chan error, 1)
	go func() {
		ch <- b.Inner.Set(ctx, key, value)
	}()

	select {
	case <-ctx.Done():
		return synerr.StateStoreError("set "+key, ctx.Err())
	case err := <-ch:
		if err != nil {
			return synerr.StateStoreError("set "+key, err)
		}
		return nil
	}
}

var _ Store = (*BoundedStore)(nil)
