package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/profmemo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

func saveCommand() *cli.Command {
	var (
		cfg  config
		text string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "text",
			Aliases:     []string{"t"},
			Usage:       "Memo text; read from stdin when omitted and no text arguments are given",
			Destination: &text,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)

	return &cli.Command{
		Name:      "save",
		Usage:     "Create or update the memo for a profile",
		ArgsUsage: "<profile-url> [text...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() < 1 {
				return goerr.New("profile URL is required")
			}
			ref := c.Args().First()

			if !c.IsSet("text") {
				if rest := c.Args().Tail(); len(rest) > 0 {
					text = strings.Join(rest, " ")
				} else {
					data, err := io.ReadAll(c.Root().Reader)
					if err != nil {
						return goerr.Wrap(err, "failed to read memo text")
					}
					text = string(data)
				}
			}

			ctx = logging.With(ctx, cfg.newLogger(c))
			uc, closer, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closer()

			if !uc.SaveMemo(ctx, ref, text) {
				return goerr.New("not a profile URL or handle", goerr.V("ref", ref))
			}
			if err := checkPersisted(uc); err != nil {
				return err
			}

			saved := uc.GetMemo(ctx, ref)
			fmt.Fprintf(c.Root().Writer, "saved memo for %s\n", saved.ID)
			return nil
		},
	}
}
