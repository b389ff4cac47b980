package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vogtb/excel-clone/packages/cellid"
	"github.com/vogtb/excel-clone/packages/spreadsheet"
)

func newDepsCmd(root *rootOptions) *cobra.Command {
	var sheetName string

	cmd := &cobra.Command{
		Use:   "deps FILE CELL",
		Short: "Show what a cell reads and what reads it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, _, err := root.load(cmd); err != nil {
				return err
			}

			id, err := cellid.Canonical(args[1])
			if err != nil {
				return err
			}
			sheet, _, _, err := loadSheet(args[0], sheetName)
			if err != nil {
				return err
			}

			graph := spreadsheet.BuildGraph(sheet)
			order, cyclic := graph.CalculationOrder()

			var ranges []string
			for _, r := range graph.RangePrecedents(id) {
				ranges = append(ranges, r.String())
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cell:           %s\n", id)
			if raw := sheet[id]; raw != "" {
				fmt.Fprintf(out, "raw:            %s\n", raw)
			}
			fmt.Fprintf(out, "precedents:     %s\n", join(graph.DirectPrecedents(id)))
			fmt.Fprintf(out, "ranges:         %s\n", join(ranges))
			fmt.Fprintf(out, "dependents:     %s\n", join(graph.DirectDependents(id)))
			fmt.Fprintf(out, "all dependents: %s\n", join(graph.AllDependents(id)))
			fmt.Fprintf(out, "order:          %s\n", join(order))
			fmt.Fprintf(out, "cycle:          %t\n", cyclic)
			return nil
		},
	}

	cmd.Flags().StringVar(&sheetName, "sheet", "", "worksheet to read from an XLSX file")
	return cmd
}

func join(ids []string) string {
	if len(ids) == 0 {
		return "-"
	}
	return strings.Join(ids, " ")
}
