package memo

import (
	"context"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/profmemo/pkg/adapter"
	"github.com/m-mizutani/profmemo/pkg/model"
	"github.com/m-mizutani/profmemo/pkg/utils/logging"
)

const backupPrefix = "backups/"

// Backup uploads the current export to storage and returns the object name.
func (u *UseCase) Backup(ctx context.Context, storage adapter.Storage) (string, error) {
	data, err := u.ExportData(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to export memos")
	}

	// Time first so that names sort chronologically; the UUID keeps same-millisecond backups apart.
	name := backupPrefix + strings.NewReplacer(":", "", "-", "", ".", "").Replace(model.FormatTime(model.Now(u.clock()))) +
		"-" + uuid.New().String() + ".json"

	w, err := storage.Put(ctx, name)
	if err != nil {
		return "", goerr.Wrap(err, "failed to open backup writer", goerr.V("name", name))
	}
	if _, err := io.WriteString(w, data); err != nil {
		_ = w.Close()
		return "", goerr.Wrap(err, "failed to write backup", goerr.V("name", name))
	}
	if err := w.Close(); err != nil {
		return "", goerr.Wrap(err, "failed to commit backup", goerr.V("name", name))
	}

	logging.From(ctx).Info("memos backed up", "name", name, "count", u.Count(ctx))
	return name, nil
}

// ListBackups returns backup object names, newest first.
func (u *UseCase) ListBackups(ctx context.Context, storage adapter.Storage) ([]string, error) {
	names, err := storage.List(ctx, backupPrefix)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list backups")
	}

	sort.Sort(sort.Reverse(sort.StringSlice(names)))
	return names, nil
}

// Restore replaces the store with the backup named name. A backup that cannot be read returns an
// error; one that reads but is not a memo document returns false.
func (u *UseCase) Restore(ctx context.Context, storage adapter.Storage, name string) (bool, error) {
	if !strings.HasPrefix(name, backupPrefix) {
		name = backupPrefix + name
	}

	r, err := storage.Get(ctx, name)
	if err != nil {
		return false, goerr.Wrap(err, "failed to open backup", goerr.V("name", name))
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return false, goerr.Wrap(err, "failed to read backup", goerr.V("name", name))
	}

	return u.ImportData(ctx, string(data)), nil
}
