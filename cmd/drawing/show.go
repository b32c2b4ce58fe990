package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/yield-drawing/drawingdb/internal/services"
	"github.com/yield-drawing/drawingdb/internal/usecase"
)

type showOutput struct {
	Drawing usecase.DrawingResponse  `json:"drawing"`
	Objects []usecase.ObjectResponse `json:"objects"`
}

func newShowCmd(flags *globalFlags) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "show <drawing-id>",
		Short: "Show a drawing with its drawing objects",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid drawing id %q", args[0])
			}

			env, err := openRuntime(flags)
			if err != nil {
				return err
			}
			defer func() {
				_ = env.Close()
			}()

			detail, err := services.NewDrawingService(env.store).Get(context.Background(), id)
			if err != nil {
				return err
			}
			if detail == nil {
				return fmt.Errorf("drawing not found: %d", id)
			}

			switch format {
			case "json":
				return outputJSON(cmd, showOutput{
					Drawing: usecase.ToDrawingResponse(detail.Drawing),
					Objects: toResponses(detail.Objects),
				})
			case "table":
				d := detail.Drawing
				fmt.Fprintf(cmd.OutOrStdout(), "Drawing %d (target %d, field tree %d)\n", d.ID, d.TargetID, d.FieldTreeID)
				fmt.Fprintf(cmd.OutOrStdout(), "Background: %s\n", d.BackgroundPath)
				fmt.Fprintf(cmd.OutOrStdout(), "Row version: %s\n", d.RowVersion)
				outputObjectTable(cmd, detail.Objects)
				return nil
			default:
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")

	return cmd
}
