package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/profmemo/pkg/usecase/memo"
	"github.com/m-mizutani/profmemo/pkg/utils/logging"
	"github.com/urfave/cli/v3"
)

var shellCommands = []string{"save", "show", "delete", "list", "search", "count", "help", "exit"}

func shellCommand() *cli.Command {
	var cfg config

	return &cli.Command{
		Name:  "shell",
		Usage: "Interactive memo shell",
		Flags: globalFlags(&cfg),
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx = logging.With(ctx, cfg.newLogger(c))
			uc, closer, err := cfg.newUseCase(ctx)
			if err != nil {
				return err
			}
			defer closer()

			items := make([]readline.PrefixCompleterInterface, 0, len(shellCommands))
			for _, name := range shellCommands {
				items = append(items, readline.PcItem(name))
			}

			rl, err := readline.NewEx(&readline.Config{
				Prompt:          "profmemo> ",
				HistoryFile:     shellHistoryFile(),
				AutoComplete:    readline.NewPrefixCompleter(items...),
				InterruptPrompt: "^C",
				EOFPrompt:       "exit",
				Stdin:           io.NopCloser(c.Root().Reader),
				Stdout:          c.Root().Writer,
				Stderr:          c.Root().ErrWriter,
			})
			if err != nil {
				return goerr.Wrap(err, "failed to start shell")
			}
			defer rl.Close()

			sh := &shell{uc: uc, w: c.Root().Writer}
			fmt.Fprintf(c.Root().Writer, "%d memos loaded. Type 'help' for commands.\n", uc.Count(ctx))

			for {
				line, err := rl.Readline()
				if errors.Is(err, readline.ErrInterrupt) {
					if line == "" {
						return nil
					}
					continue
				}
				if errors.Is(err, io.EOF) {
					return nil
				}
				if err != nil {
					return goerr.Wrap(err, "failed to read input")
				}

				if !sh.exec(ctx, line) {
					return nil
				}
			}
		},
	}
}

func shellHistoryFile() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "profmemo_history")
}

// shell runs one memo command per input line against a long-lived UseCase
type shell struct {
	uc *memo.UseCase
	w  io.Writer
}

// exec runs line and reports whether the shell should keep reading
func (s *shell) exec(ctx context.Context, line string) bool {
	name, rest := nextField(line)
	if name == "" {
		return true
	}
	ref, text := nextField(rest)

	switch name {
	case "exit", "quit":
		return false

	case "help":
		fmt.Fprintln(s.w, "save <profile-url> <text...>  create or update a memo")
		fmt.Fprintln(s.w, "show <profile-url>            show a memo")
		fmt.Fprintln(s.w, "delete <profile-url>          delete a memo")
		fmt.Fprintln(s.w, "list                          list memos")
		fmt.Fprintln(s.w, "search <query...>             search memos")
		fmt.Fprintln(s.w, "count                         number of memos")
		fmt.Fprintln(s.w, "exit                          leave the shell")

	case "save":
		if ref == "" {
			fmt.Fprintln(s.w, "usage: save <profile-url> <text...>")
			return true
		}
		if !s.uc.SaveMemo(ctx, ref, text) {
			fmt.Fprintf(s.w, "not a profile URL or handle: %s\n", ref)
			return true
		}
		s.reportPersisted("saved")

	case "show":
		if ref == "" {
			fmt.Fprintln(s.w, "usage: show <profile-url>")
			return true
		}
		m := s.uc.GetMemo(ctx, ref)
		if m == nil {
			fmt.Fprintf(s.w, "no memo for %s\n", ref)
			return true
		}
		if err := writeMemo(s.w, formatText, m); err != nil {
			fmt.Fprintf(s.w, "error: %v\n", err)
		}

	case "delete":
		if ref == "" {
			fmt.Fprintln(s.w, "usage: delete <profile-url>")
			return true
		}
		if !s.uc.DeleteMemo(ctx, ref) {
			fmt.Fprintf(s.w, "no memo for %s\n", ref)
			return true
		}
		s.reportPersisted("deleted")

	case "list":
		if err := writeMemos(s.w, formatText, s.uc.GetAllMemos(ctx)); err != nil {
			fmt.Fprintf(s.w, "error: %v\n", err)
		}

	case "search":
		memos := s.uc.SearchMemos(ctx, rest)
		if len(memos) == 0 {
			fmt.Fprintln(s.w, "no matches")
			return true
		}
		if err := writeMemos(s.w, formatText, memos); err != nil {
			fmt.Fprintf(s.w, "error: %v\n", err)
		}

	case "count":
		fmt.Fprintln(s.w, s.uc.Count(ctx))

	default:
		fmt.Fprintf(s.w, "unknown command: %s (try 'help')\n", name)
	}

	return true
}

// nextField splits off the first whitespace-separated word of s; rest keeps its inner spacing
func nextField(s string) (field, rest string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeftFunc(s[i:], unicode.IsSpace)
}

func (s *shell) reportPersisted(action string) {
	if err := s.uc.PersistErr(); err != nil {
		// The shell keeps running, so the change is still visible in this session.
		fmt.Fprintf(s.w, "%s, but changes could not be saved: %v\n", action, err)
		return
	}
	fmt.Fprintln(s.w, action)
}
