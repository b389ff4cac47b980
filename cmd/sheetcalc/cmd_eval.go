package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vogtb/excel-clone/packages/sheetio"
	"github.com/vogtb/excel-clone/packages/spreadsheet"
)

type evalOptions struct {
	rows      int
	cols      int
	format    string
	sheetName string
}

func newEvalCmd(root *rootOptions) *cobra.Command {
	opts := &evalOptions{}

	cmd := &cobra.Command{
		Use:   "eval FILE",
		Short: "Evaluate every cell of a CSV or XLSX file",
		Long: `Evaluate every cell of a CSV or XLSX snapshot and print the values.

Output formats:
  csv   the values grid, errors shown as #CYCLE or #ERROR
  json  {"rows": .., "cols": .., "values": {"A1": {"value": 1}}} with empty cells omitted`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			evaluator := spreadsheet.NewEvaluator(spreadsheet.WithLogger(logger))

			sheet, rows, cols, err := loadSheet(args[0], opts.sheetName)
			if err != nil {
				return err
			}
			if opts.rows > 0 {
				rows = opts.rows
			}
			if opts.cols > 0 {
				cols = opts.cols
			}

			values := evaluator.EvaluateAll(sheet, rows, cols)

			out := cmd.OutOrStdout()
			switch opts.format {
			case "csv":
				return sheetio.WriteCSV(out, sheetio.ValuesGrid(values, rows, cols))
			case "json":
				present := make(map[string]spreadsheet.Value, len(values))
				for id, v := range values {
					if !v.IsEmpty() {
						present[id] = v
					}
				}
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(map[string]any{
					"rows":   rows,
					"cols":   cols,
					"values": present,
				})
			default:
				return fmt.Errorf("unknown format %q, expected csv or json", opts.format)
			}
		},
	}

	cmd.Flags().IntVar(&opts.rows, "rows", 0, "grid rows to evaluate (default: the file's extent)")
	cmd.Flags().IntVar(&opts.cols, "cols", 0, "grid columns to evaluate (default: the file's extent)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "csv", "output format: csv or json")
	cmd.Flags().StringVar(&opts.sheetName, "sheet", "", "worksheet to read from an XLSX file")
	return cmd
}
