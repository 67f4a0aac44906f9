package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/profmemo/pkg/adapter"
	"github.com/m-mizutani/profmemo/pkg/repository"
	"github.com/m-mizutani/profmemo/pkg/usecase/memo"
	"github.com/m-mizutani/profmemo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

const (
	storageFile      = "file"
	storageMemory    = "memory"
	storageFirestore = "firestore"
)

// config holds configuration values
type config struct {
	// Storage
	storage    string
	dataDir    string
	storageKey string
	quota      int64

	// Firestore
	project    string
	database   string
	collection string

	logLevel string
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "storage",
			Aliases:     []string{"s"},
			Usage:       "Storage backend (file, memory, firestore)",
			Value:       storageFile,
			Sources:     cli.EnvVars("PROFMEMO_STORAGE"),
			Destination: &cfg.storage,
		},
		&cli.StringFlag{
			Name:        "data-dir",
			Usage:       "Directory for the file storage backend (default: user config dir)",
			Sources:     cli.EnvVars("PROFMEMO_DATA_DIR"),
			Destination: &cfg.dataDir,
		},
		&cli.StringFlag{
			Name:        "storage-key",
			Usage:       "Key the memo store is saved under",
			Value:       repository.DefaultKey,
			Sources:     cli.EnvVars("PROFMEMO_STORAGE_KEY"),
			Destination: &cfg.storageKey,
		},
		&cli.IntFlag{
			Name:        "quota",
			Usage:       "Maximum size in bytes of the saved store, 0 for unlimited (file and memory storage)",
			Value:       0,
			Sources:     cli.EnvVars("PROFMEMO_QUOTA"),
			Destination: &cfg.quota,
		},
		&cli.StringFlag{
			Name:        "project",
			Aliases:     []string{"p"},
			Usage:       "Google Cloud project ID",
			Sources:     cli.EnvVars("GOOGLE_CLOUD_PROJECT"),
			Destination: &cfg.project,
		},
		&cli.StringFlag{
			Name:        "database",
			Aliases:     []string{"d"},
			Usage:       "Firestore database ID",
			Value:       "(default)",
			Sources:     cli.EnvVars("FIRESTORE_DATABASE_ID"),
			Destination: &cfg.database,
		},
		&cli.StringFlag{
			Name:        "collection",
			Usage:       "Firestore collection holding the memo store",
			Value:       adapter.DefaultFirestoreCollection,
			Sources:     cli.EnvVars("PROFMEMO_FIRESTORE_COLLECTION"),
			Destination: &cfg.collection,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "warn",
			Sources:     cli.EnvVars("PROFMEMO_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
	}
}

// backupFlags returns flags for the backup bucket
func backupFlags(bucket *string) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "bucket",
			Aliases:     []string{"b"},
			Usage:       "Cloud Storage bucket for backups",
			Sources:     cli.EnvVars("PROFMEMO_BACKUP_BUCKET"),
			Destination: bucket,
			Required:    true,
		},
	}
}

// newLogger creates the logger for a command run
func (cfg *config) newLogger(c *cli.Command) *slog.Logger {
	return logging.New(cfg.logLevel, c.Root().ErrWriter)
}

// newKVStore creates the storage area selected by --storage. The returned func releases it.
func (cfg *config) newKVStore(ctx context.Context) (adapter.KVStore, func(), error) {
	nop := func() {}

	switch cfg.storage {
	case storageFile, "":
		dir := cfg.dataDir
		if dir == "" {
			base, err := os.UserConfigDir()
			if err != nil {
				return nil, nil, goerr.Wrap(err, "failed to locate user config dir, set --data-dir")
			}
			dir = filepath.Join(base, "profmemo")
		}
		kv, err := adapter.NewFileKV(dir, adapter.WithQuota(int(cfg.quota)))
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to open file storage")
		}
		return kv, nop, nil

	case storageMemory:
		return adapter.NewMemoryKV(adapter.WithQuota(int(cfg.quota))), nop, nil

	case storageFirestore:
		if cfg.project == "" {
			return nil, nil, goerr.New("project is required")
		}
		if cfg.database == "" {
			return nil, nil, goerr.New("database is required")
		}
		kv, err := adapter.NewFirestoreKV(ctx, cfg.project, cfg.database, cfg.collection)
		if err != nil {
			return nil, nil, goerr.Wrap(err, "failed to open firestore storage")
		}
		return kv, func() {
			if err := kv.Close(); err != nil {
				logging.From(ctx).Warn("failed to close firestore client", "error", err)
			}
		}, nil

	default:
		return nil, nil, goerr.New("unknown storage backend", goerr.V("storage", cfg.storage))
	}
}

// newUseCase creates the memo usecase on top of the configured storage
func (cfg *config) newUseCase(ctx context.Context) (*memo.UseCase, func(), error) {
	kv, closer, err := cfg.newKVStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	repo := repository.New(kv, repository.WithKey(cfg.storageKey))
	uc := memo.New(ctx, repo)
	// A store that could not be read must not look empty, or the next save would replace it.
	if err := repo.Err(); errors.Is(err, repository.ErrStoreUnavailable) {
		closer()
		return nil, nil, goerr.Wrap(err, "memo storage is unavailable")
	}
	return uc, closer, nil
}

// newStorage creates a new Storage adapter instance
func (cfg *config) newStorage(ctx context.Context, bucketName string) (adapter.Storage, error) {
	if bucketName == "" {
		return nil, goerr.New("bucket name is required")
	}

	storage, err := adapter.NewStorage(ctx, bucketName)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create storage")
	}
	return storage, nil
}

// checkPersisted turns a persistence failure of the last mutation into a command error. The
// process exits right after a command, so unsaved changes would be lost.
func checkPersisted(uc *memo.UseCase) error {
	if err := uc.PersistErr(); err != nil {
		return goerr.Wrap(err, "changes could not be saved and are lost")
	}
	return nil
}
