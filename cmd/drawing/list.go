package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/yield-drawing/drawingdb/internal/drawing"
	"github.com/yield-drawing/drawingdb/internal/services"
	"github.com/yield-drawing/drawingdb/internal/usecase"
)

func newListCmd(flags *globalFlags) *cobra.Command {
	var (
		month    string
		targetID int64
		format   string
	)

	cmd := &cobra.Command{
		Use:   "list [drawing-id]",
		Short: "List drawing objects of a drawing, or drawings of a target",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}
			if (len(args) == 0) == (targetID == 0) {
				return errors.New("pass either a drawing id or --target")
			}

			env, err := openRuntime(flags)
			if err != nil {
				return err
			}
			defer func() {
				_ = env.Close()
			}()

			ctx := context.Background()
			svc := services.NewDrawingService(env.store)

			if targetID != 0 {
				drawings, err := svc.ListByTarget(ctx, targetID)
				if err != nil {
					return err
				}
				if format == "json" {
					out := make([]usecase.DrawingResponse, 0, len(drawings))
					for _, d := range drawings {
						out = append(out, usecase.ToDrawingResponse(d))
					}
					return outputJSON(cmd, out)
				}
				outputDrawingTable(cmd, drawings)
				return nil
			}

			drawingID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid drawing id %q", args[0])
			}

			var filter *drawing.Month
			if month != "" {
				m, err := drawing.ParseMonth(month)
				if err != nil {
					return err
				}
				filter = &m
			}

			objects, err := svc.ListObjects(ctx, drawingID, filter)
			if err != nil {
				return err
			}
			if format == "json" {
				return outputJSON(cmd, toResponses(objects))
			}
			outputObjectTable(cmd, objects)
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Only objects of this target month (YYYY-MM)")
	cmd.Flags().Int64Var(&targetID, "target", 0, "List the drawings of a yield management target instead")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	return cmd
}

func outputDrawingTable(cmd *cobra.Command, drawings []drawing.Drawing) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"ID", "Target", "Field Tree", "Background", "Created"})
	for _, d := range drawings {
		t.AppendRow(table.Row{d.ID, d.TargetID, d.FieldTreeID, d.BackgroundPath, d.CreatedAt.Format("2006-01-02 15:04:05")})
	}
	t.Render()
}
