package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/yield-drawing/drawingdb/internal/usecase"
)

var errRowsFailed = errors.New("some rows were not applied")

func newApplyCmd(flags *globalFlags) *cobra.Command {
	var (
		file   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a batch update read from a JSON file",
		Long: `Apply a batch update read from a JSON file ("-" reads stdin).

The batch names the drawing operation (added, edited or unchanged) and an
ordered list of drawing object rows (added, edited or deleted). Row problems
are reported per row; the command exits non-zero when any row failed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if format != "table" && format != "json" {
				return fmt.Errorf("invalid format: %s (valid values: table, json)", format)
			}

			req, err := readBatch(cmd, file)
			if err != nil {
				return err
			}

			env, err := openRuntime(flags)
			if err != nil {
				return err
			}
			defer func() {
				_ = env.Close()
			}()

			ctx := context.Background()
			uc := usecase.NewDrawingObject(env.store)
			result, err := uc.UpdateBatch(ctx, env.actor(), req)
			if err != nil {
				return err
			}

			if format == "json" {
				if err := outputJSON(cmd, result); err != nil {
					return err
				}
			} else {
				outputBatchTable(cmd, result)
			}

			if result.Rows.HasErrors() {
				return fmt.Errorf("%w: %d of %d", errRowsFailed, len(result.Rows.Errors()), len(result.Rows))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Batch request file, - for stdin")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func readBatch(cmd *cobra.Command, file string) (usecase.BatchUpdateRequest, error) {
	var r io.Reader
	if file == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(file)
		if err != nil {
			return usecase.BatchUpdateRequest{}, fmt.Errorf("failed to open batch file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var req usecase.BatchUpdateRequest
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return usecase.BatchUpdateRequest{}, fmt.Errorf("failed to decode batch request: %w", err)
	}
	return req, nil
}
