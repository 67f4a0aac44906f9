package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/profmemo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func backupCommand() *cli.Command {
	var (
		cfg    config
		bucket string
	)

	flags := backupFlags(&bucket)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "backup",
		Usage: "Upload a JSON export of all memos to Cloud Storage",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logging.With(ctx, cfg.newLogger(c))
			uc, closer, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closer()

			storage, err := cfg.newStorage(ctx, bucket)
			if err != nil {
				return err
			}

			stop := startSpinner(c.Root().ErrWriter, "uploading backup")
			name, err := uc.Backup(ctx, storage)
			stop()
			if err != nil {
				return goerr.Wrap(err, "failed to back up memos")
			}

			fmt.Fprintf(c.Root().Writer, "gs://%s/%s\n", bucket, name)
			return nil
		},
	}
}

func backupsCommand() *cli.Command {
	var (
		cfg    config
		bucket string
	)

	flags := backupFlags(&bucket)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "backups",
		Usage: "List backups in Cloud Storage, newest first",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logging.With(ctx, cfg.newLogger(c))
			uc, closer, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closer()

			storage, err := cfg.newStorage(ctx, bucket)
			if err != nil {
				return err
			}

			names, err := uc.ListBackups(ctx, storage)
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintf(c.Root().Writer, "no backups in gs://%s\n", bucket)
				return nil
			}
			for _, name := range names {
				fmt.Fprintln(c.Root().Writer, name)
			}
			return nil
		},
	}
}

func restoreCommand() *cli.Command {
	var (
		cfg    config
		bucket string
	)

	flags := backupFlags(&bucket)
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "restore",
		Usage:     "Replace all memos with a backup from Cloud Storage",
		ArgsUsage: "<backup-name>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() < 1 {
				return goerr.New("backup name is required")
			}
			name := c.Args().First()

			ctx = logging.With(ctx, cfg.newLogger(c))
			uc, closer, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closer()

			storage, err := cfg.newStorage(ctx, bucket)
			if err != nil {
				return err
			}

			stop := startSpinner(c.Root().ErrWriter, "downloading backup")
			ok, err := uc.Restore(ctx, storage, name)
			stop()
			if err != nil {
				return goerr.Wrap(err, "failed to restore memos")
			}
			if !ok {
				return goerr.New("backup is not a memo export", goerr.V("name", name))
			}
			if err := checkPersisted(uc); err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "restored %d memos\n", uc.Count(ctx))
			return nil
		},
	}
}

func startSpinner(w io.Writer, message string) func() {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	s.Start()
	return s.Stop
}
