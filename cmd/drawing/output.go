package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yield-drawing/drawingdb/internal/drawing"
	"github.com/yield-drawing/drawingdb/internal/usecase"
)

func outputJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func toResponses(objects []drawing.Object) []usecase.ObjectResponse {
	out := make([]usecase.ObjectResponse, 0, len(objects))
	for _, o := range objects {
		out = append(out, usecase.ToObjectResponse(o))
	}
	return out
}

func getTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// dataWidth is what is left for the drawing data column once the fixed
// columns are laid out.
func dataWidth(termWidth, fixed, columns int) int {
	width := termWidth - fixed - columns*3
	if width < 15 {
		return 15
	}
	return width
}

// truncate shortens s to maxWidth display cells, accounting for multi-byte
// characters.
func truncate(s string, maxWidth int) string {
	s = strings.ReplaceAll(strings.TrimSpace(s), "\n", " ")
	if runewidth.StringWidth(s) <= maxWidth {
		return s
	}
	return runewidth.Truncate(s, maxWidth, "...")
}

func outputObjectTable(cmd *cobra.Command, objects []drawing.Object) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)

	// ID, Type, Month, Row Version
	width := dataWidth(getTerminalWidth(), 6+12+7+24, 5)

	t.AppendHeader(table.Row{"ID", "Type", "Month", "Data", "Row Version"})
	for _, o := range objects {
		t.AppendRow(table.Row{o.ID, o.Type.String(), o.TargetMonth.String(), truncate(o.Data, width), o.RowVersion.String()})
	}
	t.Render()
}

func outputBatchTable(cmd *cobra.Command, result *usecase.BatchUpdateResult) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)

	// Row, State, Status, ID, Month, Message
	width := dataWidth(getTerminalWidth(), 4+9+7+6+7+34, 7)

	t.SetTitle("Drawing %d (row version %s)", result.Drawing.ID, result.Drawing.RowVersion)
	t.AppendHeader(table.Row{"Row", "State", "Status", "ID", "Month", "Data", "Message"})
	for _, row := range result.Rows {
		t.AppendRow(table.Row{
			row.RowNumber,
			string(row.RowState),
			string(row.Status),
			row.Data.ID,
			row.Data.TargetMonth,
			truncate(row.Data.DrawingData, width),
			row.Message,
		})
	}
	t.Render()
}
