package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vogtb/excel-clone/packages/sheetio"
	"github.com/vogtb/excel-clone/packages/spreadsheet"
)

func newExportCmd(root *rootOptions) *cobra.Command {
	var sheetName string

	cmd := &cobra.Command{
		Use:   "export IN OUT.xlsx",
		Short: "Write a snapshot and its values to an XLSX workbook",
		Long: `Evaluate IN (CSV or XLSX) and write a workbook with two sheets:
Input holds the raw cell text and Values the evaluated results.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, logger, err := root.load(cmd)
			if err != nil {
				return err
			}
			evaluator := spreadsheet.NewEvaluator(spreadsheet.WithLogger(logger))

			sheet, rows, cols, err := loadSheet(args[0], sheetName)
			if err != nil {
				return err
			}
			values := evaluator.EvaluateAll(sheet, rows, cols)

			f, err := os.Create(args[1])
			if err != nil {
				return err
			}
			if err := sheetio.WriteXLSX(f, sheet, values, rows, cols); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%dx%d)\n", args[1], rows, cols)
			return nil
		},
	}

	cmd.Flags().StringVar(&sheetName, "sheet", "", "worksheet to read from an XLSX input")
	return cmd
}
