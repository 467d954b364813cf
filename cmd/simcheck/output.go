package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// renderTable right-aligns the columns listed in numeric.
func renderTable(w io.Writer, title string, headers []string, rows [][]any, numeric ...int) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	if title != "" {
		tw.SetTitle(title)
	}
	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)
	for _, row := range rows {
		tw.AppendRow(table.Row(row))
	}
	configs := make([]table.ColumnConfig, 0, len(numeric))
	for _, col := range numeric {
		configs = append(configs, table.ColumnConfig{Number: col, Align: text.AlignRight, AlignHeader: text.AlignLeft})
	}
	tw.SetColumnConfigs(configs)
	tw.Render()
}

// renderFields prints label/value pairs, skipping empty values.
func renderFields(w io.Writer, title string, pairs ...[2]string) {
	rows := make([][]any, 0, len(pairs))
	for _, p := range pairs {
		if p[1] != "" {
			rows = append(rows, []any{p[0], p[1]})
		}
	}
	if len(rows) == 0 {
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle(title)
	for _, r := range rows {
		tw.AppendRow(table.Row(r))
	}
	tw.Render()
}

func percent(v float64) string { return fmt.Sprintf("%.2f%%", v) }

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
