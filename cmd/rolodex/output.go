package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/m-mizutani/goerr/v2"
	"github.com/spf13/cobra"

	"rolodex/internal/store"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

const barWidth = 30

var (
	heading = color.New(color.Bold)
	bar     = color.New(color.FgCyan)
	dim     = color.New(color.Faint)
)

// outputFormat is the --format flag shared by read commands.
type outputFormat struct {
	value string
}

func addFormatFlag(cmd *cobra.Command) *outputFormat {
	f := &outputFormat{value: formatTable}
	cmd.Flags().StringVar(&f.value, "format", formatTable, "Output format: table or json")
	return f
}

func (f *outputFormat) json() (bool, error) {
	switch strings.ToLower(f.value) {
	case formatTable, "":
		return false, nil
	case formatJSON:
		return true, nil
	}
	return false, goerr.Wrap(store.ErrValidation, "format must be table or json", goerr.V("format", f.value))
}

func printJSON(w io.Writer, v any) error {
	payload, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return goerr.Wrap(err, "failed to encode result")
	}
	_, err = fmt.Fprintln(w, string(payload))
	return err
}

func newTable(w io.Writer, columns ...string) *tabwriter.Writer {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	return tw
}

func row(tw *tabwriter.Writer, values ...any) {
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = fmt.Sprint(v)
	}
	fmt.Fprintln(tw, strings.Join(cells, "\t"))
}

// barOf scales n against max into a fixed-width bar.
func barOf(n, max int) string {
	if max <= 0 || n <= 0 {
		return ""
	}
	width := n * barWidth / max
	if width == 0 {
		width = 1
	}
	return bar.Sprint(strings.Repeat("█", width))
}

func joinTags(tags []store.Tag) string {
	parts := make([]string, len(tags))
	for i, t := range tags {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}

func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
