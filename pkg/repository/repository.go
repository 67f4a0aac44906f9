package repository

import (
	"context"

	"github.com/m-mizutani/profmemo/pkg/model"
)

// DefaultKey is the storage key holding the whole serialized memo store.
const DefaultKey = "profmemo_store"

// Repository moves the memo store to and from a KV storage area. It is the only code that reads
// or writes the store's key. All operations fail soft: errors are logged and reported as an empty
// store or false, never returned.
type Repository interface {
	// Load returns the persisted store, migrated to the current schema. A missing or corrupt
	// value yields an empty store. When storage cannot be read at all the result is also empty,
	// Err wraps ErrStoreUnavailable, and Save refuses to write until a Load succeeds.
	Load(ctx context.Context) model.MemoStore

	// Save writes the whole store. It returns false if the storage area rejected the write, in
	// which case the previously persisted value is unchanged.
	Save(ctx context.Context, store model.MemoStore) bool

	// Clear removes the persisted store.
	Clear(ctx context.Context) bool

	// Err returns the error behind the last false result, or nil after a successful call.
	Err() error
}
