package adapter

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
)

var (
	// ErrQuotaExceeded is returned by SetItem when the value is larger than the store allows.
	ErrQuotaExceeded = goerr.New("storage quota exceeded")
)

// KVStore is a string-keyed, string-valued storage area. A single SetItem or RemoveItem is atomic
// for its key; there are no multi-key transactions.
type KVStore interface {
	// GetItem returns the value stored under key. found is false when the key is absent.
	GetItem(ctx context.Context, key string) (value string, found bool, err error)
	// SetItem replaces the value under key. On error the previous value is left as it was.
	SetItem(ctx context.Context, key, value string) error
	// RemoveItem deletes key. Removing an absent key is not an error.
	RemoveItem(ctx context.Context, key string) error
}

// KVOption configures the local KV stores.
type KVOption func(*kvOptions)

type kvOptions struct {
	quota int
}

// WithQuota limits the size in bytes of a single value. Zero or less means unlimited.
func WithQuota(bytes int) KVOption {
	return func(o *kvOptions) {
		o.quota = bytes
	}
}

func (o *kvOptions) checkQuota(key, value string) error {
	if o.quota > 0 && len(value) > o.quota {
		return goerr.Wrap(ErrQuotaExceeded, "value too large",
			goerr.V("key", key),
			goerr.V("size", len(value)),
			goerr.V("quota", o.quota),
		)
	}
	return nil
}

// memoryKV implements KVStore in process memory
type memoryKV struct {
	mu     sync.RWMutex
	values map[string]string
	opts   kvOptions
}

// NewMemoryKV creates an empty in-memory KV store
func NewMemoryKV(opts ...KVOption) KVStore {
	kv := &memoryKV{
		values: make(map[string]string),
	}
	for _, opt := range opts {
		opt(&kv.opts)
	}
	return kv
}

func (m *memoryKV) GetItem(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, ok := m.values[key]
	return value, ok, nil
}

func (m *memoryKV) SetItem(ctx context.Context, key, value string) error {
	if err := m.opts.checkQuota(key, value); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memoryKV) RemoveItem(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}
