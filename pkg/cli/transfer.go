package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/profmemo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func exportCommand() *cli.Command {
	var (
		cfg    config
		output string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "output",
			Aliases:     []string{"o"},
			Usage:       "File to write the export to (default: stdout)",
			Destination: &output,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "export",
		Usage: "Export all memos as JSON",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logging.With(ctx, cfg.newLogger(c))
			uc, closer, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closer()

			data, err := uc.ExportData(ctx)
			if err != nil {
				return goerr.Wrap(err, "failed to export memos")
			}

			if output == "" {
				fmt.Fprintf(c.Root().Writer, "%s\n", data)
				return nil
			}

			if err := os.WriteFile(output, []byte(data+"\n"), 0o600); err != nil {
				return goerr.Wrap(err, "failed to write export file", goerr.V("path", output))
			}
			fmt.Fprintf(c.Root().Writer, "exported %d memos to %s\n", uc.Count(ctx), output)
			return nil
		},
	}
}

func importCommand() *cli.Command {
	var (
		cfg   config
		input string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "input",
			Aliases:     []string{"i"},
			Usage:       "File to import from (default: stdin)",
			Destination: &input,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:  "import",
		Usage: "Replace all memos with the contents of a JSON export",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			var (
				data []byte
				err  error
			)
			if input == "" {
				data, err = io.ReadAll(c.Root().Reader)
			} else {
				data, err = os.ReadFile(input)
			}
			if err != nil {
				return goerr.Wrap(err, "failed to read import data", goerr.V("path", input))
			}

			ctx = logging.With(ctx, cfg.newLogger(c))
			uc, closer, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closer()

			if !uc.ImportData(ctx, string(data)) {
				return goerr.New("import data is not a memo export")
			}
			if err := checkPersisted(uc); err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "imported %d memos\n", uc.Count(ctx))
			return nil
		},
	}
}
