package model

import (
	"sort"
	"strings"
	"time"
)

// MemoID is the normalized (lower-cased, "@"-stripped) profile handle a memo is keyed by.
type MemoID string

func (id MemoID) String() string {
	return string(id)
}

// Memo is one note attached to a profile handle.
type Memo struct {
	ID          MemoID
	SourceURL   string
	DisplayName string
	Text        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Clone returns a copy of the memo. Callers outside the store only ever see copies.
func (m *Memo) Clone() *Memo {
	if m == nil {
		return nil
	}
	cloned := *m
	return &cloned
}

// Matches reports whether the lower-cased term appears in the display name or text.
func (m *Memo) Matches(term string) bool {
	return strings.Contains(strings.ToLower(m.DisplayName), term) ||
		strings.Contains(strings.ToLower(m.Text), term)
}

// MemoStore maps memo IDs to records. It holds at most one record per ID.
type MemoStore map[MemoID]*Memo

// Clone deep-copies the store.
func (s MemoStore) Clone() MemoStore {
	cloned := make(MemoStore, len(s))
	for id, memo := range s {
		cloned[id] = memo.Clone()
	}
	return cloned
}

// Sorted returns copies of all records, most recently updated first. Records updated at the
// same instant are ordered by ID.
func (s MemoStore) Sorted() []*Memo {
	memos := make([]*Memo, 0, len(s))
	for _, memo := range s {
		memos = append(memos, memo.Clone())
	}

	sort.Slice(memos, func(i, j int) bool {
		if !memos[i].UpdatedAt.Equal(memos[j].UpdatedAt) {
			return memos[i].UpdatedAt.After(memos[j].UpdatedAt)
		}
		return memos[i].ID < memos[j].ID
	})

	return memos
}
