package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/profmemo/pkg/model"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func formatFlag(format *string) cli.Flag {
	return &cli.StringFlag{
		Name:        "format",
		Aliases:     []string{"f"},
		Usage:       "Output format (text, json, yaml)",
		Value:       formatText,
		Sources:     cli.EnvVars("PROFMEMO_FORMAT"),
		Destination: format,
	}
}

// writeMemos prints memos one per line (text) or as a document (json, yaml)
func writeMemos(w io.Writer, format string, memos []*model.Memo) error {
	switch format {
	case formatText, "":
		for _, m := range memos {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				m.ID,
				m.DisplayName,
				m.UpdatedAt.Local().Format("2006-01-02 15:04"),
				summarize(m.Text),
			)
		}
		return nil
	default:
		return writeDocument(w, format, memos)
	}
}

// writeMemo prints all fields of a single memo
func writeMemo(w io.Writer, format string, m *model.Memo) error {
	switch format {
	case formatText, "":
		fmt.Fprintf(w, "ID:       %s\n", m.ID)
		fmt.Fprintf(w, "Name:     %s\n", m.DisplayName)
		fmt.Fprintf(w, "URL:      %s\n", m.SourceURL)
		fmt.Fprintf(w, "Created:  %s\n", model.FormatTime(m.CreatedAt))
		fmt.Fprintf(w, "Updated:  %s\n", model.FormatTime(m.UpdatedAt))
		fmt.Fprintf(w, "\n%s\n", m.Text)
		return nil
	default:
		return writeDocument(w, format, m)
	}
}

func writeDocument(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return goerr.Wrap(err, "failed to marshal output")
		}
		fmt.Fprintf(w, "%s\n", string(data))
		return nil

	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return goerr.Wrap(err, "failed to marshal output")
		}
		return enc.Close()

	default:
		return goerr.New("unknown output format", goerr.V("format", format))
	}
}

// summarize returns the first line of text, shortened for list output
func summarize(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	runes := []rune(line)
	if len(runes) > 60 {
		return string(runes[:57]) + "..."
	}
	return line
}
