package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/profmemo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func searchCommand() *cli.Command {
	var (
		cfg    config
		format string
		limit  int64
	)

	flags := []cli.Flag{
		formatFlag(&format),
		&cli.IntFlag{
			Name:        "limit",
			Aliases:     []string{"l"},
			Usage:       "Maximum number of memos to return, 0 for all",
			Value:       0,
			Sources:     cli.EnvVars("PROFMEMO_SEARCH_LIMIT"),
			Destination: &limit,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "search",
		Usage:     "Search memos by display name or text",
		ArgsUsage: "<query...>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() < 1 {
				return goerr.New("query is required")
			}
			query := strings.Join(c.Args().Slice(), " ")

			ctx = logging.With(ctx, cfg.newLogger(c))
			uc, closer, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closer()

			memos := uc.SearchMemos(ctx, query)
			if len(memos) == 0 && (format == formatText || format == "") {
				fmt.Fprintf(c.Root().Writer, "no memos match %q\n", query)
				return nil
			}
			return writeMemos(c.Root().Writer, format, truncate(memos, limit))
		},
	}
}
