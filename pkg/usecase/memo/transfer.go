package memo

import (
	"context"
	"strings"

	"github.com/m-mizutani/profmemo/pkg/model"
	"github.com/m-mizutani/profmemo/pkg/utils/logging"
)

// ExportData serializes the whole store as indented JSON, suitable as a backup file.
func (u *UseCase) ExportData(ctx context.Context) (string, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	data, err := model.EncodeStore(u.store, true)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// ImportData replaces the whole store with the memos in text. Older record shapes are migrated.
// It returns false, leaving the store untouched, if text is not a JSON object of memo records.
func (u *UseCase) ImportData(ctx context.Context, text string) bool {
	logger := logging.From(ctx)

	store, skipped, err := model.DecodeStore([]byte(strings.TrimSpace(text)))
	if err != nil {
		logger.Warn("rejected memo import", "error", err)
		return false
	}
	if len(skipped) > 0 {
		logger.Warn("import dropped records without a profile handle", "keys", skipped)
	}

	u.mu.Lock()
	defer u.mu.Unlock()

	u.store = store
	u.persistLocked(ctx)

	logger.Info("memos imported", "count", len(store))
	return true
}
