package repository

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/profmemo/pkg/adapter"
	"github.com/m-mizutani/profmemo/pkg/model"
	"github.com/m-mizutani/profmemo/pkg/utils/logging"
)

var (
	// ErrStoreUnavailable means the persisted store could not be read. Saves are refused until a
	// later Load succeeds, so the unread value is never overwritten.
	ErrStoreUnavailable = goerr.New("memo store could not be read")
)

// kvRepo implements Repository on top of an adapter.KVStore
type kvRepo struct {
	kv  adapter.KVStore
	key string

	mu         sync.Mutex
	lastErr    error
	unreadable bool
}

// Option is a functional option for the KV repository
type Option func(*kvRepo)

// WithKey overrides the storage key
func WithKey(key string) Option {
	return func(r *kvRepo) {
		r.key = key
	}
}

// New creates a Repository persisting to kv under a single key
func New(kv adapter.KVStore, opts ...Option) Repository {
	r := &kvRepo{
		kv:  kv,
		key: DefaultKey,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *kvRepo) Load(ctx context.Context) model.MemoStore {
	logger := logging.From(ctx)

	value, found, err := r.kv.GetItem(ctx, r.key)
	if err != nil {
		err = goerr.Wrap(ErrStoreUnavailable, "failed to load memo store",
			goerr.V("key", r.key),
			goerr.V("error", err.Error()),
		)
		r.setUnreadable(true)
		r.setErr(err)
		logger.Error("failed to load memo store, changes will not be saved", "error", err)
		return model.MemoStore{}
	}
	r.setUnreadable(false)
	if !found {
		r.setErr(nil)
		return model.MemoStore{}
	}

	// Unreadable data is treated as no data: the tool stays usable and the next save overwrites it.
	store, skipped, err := model.DecodeLegacyStore([]byte(value))
	if err != nil {
		r.setErr(err)
		logger.Warn("discarding unreadable memo store", "error", err, "key", r.key)
		return model.MemoStore{}
	}
	if len(skipped) > 0 {
		logger.Warn("dropped memo records without a profile handle", "keys", skipped)
	}

	r.setErr(nil)
	logger.Debug("memo store loaded", "key", r.key, "count", len(store))
	return store
}

func (r *kvRepo) Save(ctx context.Context, store model.MemoStore) bool {
	if r.isUnreadable() {
		err := goerr.Wrap(ErrStoreUnavailable, "refusing to overwrite unread memo store", goerr.V("key", r.key))
		r.setErr(err)
		logging.From(ctx).Error("memo store was not saved", "error", err)
		return false
	}

	data, err := model.EncodeStore(store, false)
	if err != nil {
		r.setErr(err)
		logging.From(ctx).Error("failed to encode memo store", "error", err)
		return false
	}

	if err := r.kv.SetItem(ctx, r.key, string(data)); err != nil {
		err = goerr.Wrap(err, "failed to save memo store", goerr.V("key", r.key))
		r.setErr(err)
		logging.From(ctx).Error("failed to save memo store", "error", err)
		return false
	}

	r.setErr(nil)
	return true
}

// Clear removes the store even when it could not be read, and allows saving again.
func (r *kvRepo) Clear(ctx context.Context) bool {
	if err := r.kv.RemoveItem(ctx, r.key); err != nil {
		err = goerr.Wrap(err, "failed to clear memo store", goerr.V("key", r.key))
		r.setErr(err)
		logging.From(ctx).Error("failed to clear memo store", "error", err)
		return false
	}

	r.setUnreadable(false)
	r.setErr(nil)
	return true
}

func (r *kvRepo) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastErr
}

func (r *kvRepo) setUnreadable(v bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unreadable = v
}

func (r *kvRepo) isUnreadable() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unreadable
}

func (r *kvRepo) setErr(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastErr = err
}
