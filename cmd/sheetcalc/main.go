package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vogtb/excel-clone/packages/config"
	"github.com/vogtb/excel-clone/packages/logging"
	"github.com/vogtb/excel-clone/packages/sheetio"
	"github.com/vogtb/excel-clone/packages/spreadsheet"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions are the flags every command shares
type rootOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "sheetcalc",
		Short: "Evaluate spreadsheet formulas",
		Long: `Evaluate spreadsheet snapshots from CSV or XLSX files, inspect formula
dependencies, and serve sheets over HTTP.

Examples:
  sheetcalc eval budget.csv
  sheetcalc deps budget.xlsx C10
  sheetcalc export budget.csv budget.xlsx
  sheetcalc serve --config sheetcalc.yaml`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override log.level from the config")

	cmd.AddCommand(
		newEvalCmd(opts),
		newDepsCmd(opts),
		newExportCmd(opts),
		newServeCmd(opts),
	)
	return cmd
}

// load reads the config file and builds a logger writing to the command's
// stderr
func (o *rootOptions) load(cmd *cobra.Command) (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}

	logCfg := cfg.Logging()
	logCfg.Output = cmd.ErrOrStderr()
	logger, err := logging.New(logCfg)
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, logger, nil
}

// loadSheet reads a snapshot from a .csv or .xlsx file
func loadSheet(path, sheetName string) (spreadsheet.Snapshot, int, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, 0, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return sheetio.ReadCSV(f)
	case ".xlsx":
		return sheetio.ReadXLSX(f, sheetName)
	default:
		return nil, 0, 0, fmt.Errorf("unsupported file type %q, expected .csv or .xlsx", filepath.Ext(path))
	}
}
