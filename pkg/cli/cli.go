package cli

import (
	"context"
	"io"
	"os"

	"github.com/urfave/cli/v3"
)

type Error struct {
	Code    int
	Message string
}

func Run(ctx context.Context, argv []string) *Error {
	return run(ctx, argv, os.Stdin, os.Stdout, os.Stderr)
}

func run(ctx context.Context, argv []string, in io.Reader, out, errOut io.Writer) *Error {
	cmd := &cli.Command{
		Name:      "profmemo",
		Usage:     "Personal memos attached to social profiles",
		Reader:    in,
		Writer:    out,
		ErrWriter: errOut,
		Commands: []*cli.Command{
			saveCommand(),
			showCommand(),
			deleteCommand(),
			hasCommand(),
			listCommand(),
			searchCommand(),
			exportCommand(),
			importCommand(),
			clearCommand(),
			backupCommand(),
			backupsCommand(),
			restoreCommand(),
			shellCommand(),
		},
	}

	if err := cmd.Run(ctx, argv); err != nil {
		return &Error{
			Code:    1,
			Message: err.Error(),
		}
	}

	return nil
}
