package memo

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/profmemo/pkg/model"
	"github.com/m-mizutani/profmemo/pkg/repository"
	"github.com/m-mizutani/profmemo/pkg/utils/logging"
)

var (
	// ErrNotPersisted is reported by PersistErr when storage refused a write without saying why.
	ErrNotPersisted = goerr.New("memo store was not persisted")
)

// UseCase owns the in-memory memo store. Every mutation is applied in memory first and then
// written through the repository; a failed write does not roll the mutation back.
type UseCase struct {
	repo  repository.Repository
	clock func() time.Time

	mu         sync.Mutex
	store      model.MemoStore
	persistErr error
}

// Option is a functional option for UseCase
type Option func(*UseCase)

// WithClock replaces the time source used to stamp memos
func WithClock(clock func() time.Time) Option {
	return func(uc *UseCase) {
		uc.clock = clock
	}
}

// New creates a memo UseCase seeded from repo
func New(ctx context.Context, repo repository.Repository, opts ...Option) *UseCase {
	uc := &UseCase{
		repo:  repo,
		clock: time.Now,
	}
	for _, opt := range opts {
		opt(uc)
	}

	uc.store = repo.Load(ctx)
	if uc.store == nil {
		uc.store = model.MemoStore{}
	}

	return uc
}

// SaveMemo creates or updates the memo for the profile ref points at. It returns false, leaving
// the store untouched, when ref is blank or names no profile handle. Otherwise it returns true
// even if the store could not be persisted; see PersistErr.
func (u *UseCase) SaveMemo(ctx context.Context, ref, text string) bool {
	ref = strings.TrimSpace(ref)
	id := model.DeriveID(ref)
	if ref == "" || id == "" {
		logging.From(ctx).Debug("rejected memo reference", "ref", ref)
		return false
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	now := model.Now(u.clock())
	memo := &model.Memo{
		ID:          id,
		SourceURL:   ref,
		DisplayName: model.ExtractHandle(ref),
		Text:        strings.TrimSpace(text),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if existing, ok := u.store[id]; ok {
		memo.CreatedAt = existing.CreatedAt
		if now.Before(memo.CreatedAt) {
			memo.UpdatedAt = memo.CreatedAt
		}
	}
	u.store[id] = memo

	u.persistLocked(ctx)
	return true
}

// GetMemo returns a copy of the memo for ref, or nil if there is none.
func (u *UseCase) GetMemo(ctx context.Context, ref string) *model.Memo {
	id := model.DeriveID(ref)
	if id == "" {
		return nil
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	return u.store[id].Clone()
}

// DeleteMemo removes the memo for ref. It returns false without touching storage when there is
// no such memo.
func (u *UseCase) DeleteMemo(ctx context.Context, ref string) bool {
	id := model.DeriveID(ref)
	if id == "" {
		return false
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	if _, ok := u.store[id]; !ok {
		return false
	}
	delete(u.store, id)

	u.persistLocked(ctx)
	return true
}

// HasMemo reports whether a memo exists for ref.
func (u *UseCase) HasMemo(ctx context.Context, ref string) bool {
	id := model.DeriveID(ref)
	if id == "" {
		return false
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	_, ok := u.store[id]
	return ok
}

// GetAllMemos returns every memo, most recently updated first.
func (u *UseCase) GetAllMemos(ctx context.Context) []*model.Memo {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.store.Sorted()
}

// SearchMemos returns memos whose display name or text contains query, ignoring case, in
// the same order as GetAllMemos. A blank query matches everything.
func (u *UseCase) SearchMemos(ctx context.Context, query string) []*model.Memo {
	all := u.GetAllMemos(ctx)

	term := strings.ToLower(strings.TrimSpace(query))
	if term == "" {
		return all
	}

	matched := make([]*model.Memo, 0, len(all))
	for _, memo := range all {
		if memo.Matches(term) {
			matched = append(matched, memo)
		}
	}
	return matched
}

// Count returns the number of memos.
func (u *UseCase) Count(ctx context.Context) int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.store)
}

// ClearAllMemos empties the store and removes it from storage. The in-memory store is emptied even
// when storage could not be cleared.
func (u *UseCase) ClearAllMemos(ctx context.Context) bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	u.store = model.MemoStore{}
	if u.repo.Clear(ctx) {
		u.persistErr = nil
		return true
	}

	u.persistErr = u.repoErr()
	return false
}

// PersistErr returns the storage error of the most recent mutation, or nil if it was persisted.
func (u *UseCase) PersistErr() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.persistErr
}

func (u *UseCase) persistLocked(ctx context.Context) {
	if u.repo.Save(ctx, u.store) {
		u.persistErr = nil
		return
	}

	u.persistErr = u.repoErr()
	logging.From(ctx).Warn("memo changes are kept in memory only", "error", u.persistErr)
}

func (u *UseCase) repoErr() error {
	if err := u.repo.Err(); err != nil {
		return err
	}
	return ErrNotPersisted
}
