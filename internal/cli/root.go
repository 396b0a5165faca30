// Package cli provides the command-line interface for pivotsql.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nao1215/pivotsql"
	"github.com/nao1215/pivotsql/internal/config"
	"github.com/spf13/cobra"
)

// Version is set at build time.
var Version = "0.1.0"

// minFlagPairs is the number of flag/value pairs a run needs when no
// config file supplies the settings.
const minFlagPairs = 4

// Warehouse is a warehouse connection used for discovery and submission.
type Warehouse interface {
	pivotsql.ValueQuerier
	pivotsql.Submitter
	io.Closer
}

// WarehouseOpener connects to the warehouse named in cfg.
type WarehouseOpener func(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Warehouse, error)

// App wires the command to its streams and collaborators.
type App struct {
	Stdout        io.Writer
	Stderr        io.Writer
	OpenWarehouse WarehouseOpener
}

// NewApp returns an App on the process streams with the real warehouses.
func NewApp() *App {
	return &App{
		Stdout:        os.Stdout,
		Stderr:        os.Stderr,
		OpenWarehouse: openWarehouse,
	}
}

// NewRootCmd creates the pivotsql command.
func (a *App) NewRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "pivotsql",
		Short: "Generate BigQuery pivot queries",
		Long: `pivotsql turns the distinct values of a pivot column into one output column
each and writes the BigQuery statement that computes them.

Pivot values are discovered from a local or gs:// / s3:// data file (--data)
or by querying the warehouse table (--table_name). The statement is printed,
written to --output_file, or run in the warehouse with --destination_table,
--temp_table or --local_file.`,
		Example: `  pivotsql --data sales.csv --index_col region --pivot_col month --values_col amount
  pivotsql --table_name ds.sales --index_col region --pivot_col month \
    --values_col amount,qty --project my-project --temp_table`,
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return pivotsql.NewErrorContext("load configuration").Wrap(pivotsql.ErrConfiguration, err)
			}
			if cfg.ConfigFile == "" && countFlagPairs(cmd) < minFlagPairs {
				return pivotsql.NewErrorContext("parse arguments").
					WithDetails("at least %d flag/value pairs are required, got %d; see --help", minFlagPairs, countFlagPairs(cmd)).
					Error(pivotsql.ErrConfiguration)
			}
			if err := cfg.Validate(); err != nil {
				return pivotsql.NewErrorContext("parse arguments").Wrap(pivotsql.ErrConfiguration, err)
			}
			return a.run(cmd.Context(), cfg)
		},
	}
	cmd.SetOut(a.Stdout)
	cmd.SetErr(a.Stderr)

	f := cmd.Flags()
	f.StringVar(&cfgFile, "config", "", "config file (default: ./"+config.DefaultConfigFile+" if present)")
	f.StringSlice("index_col", nil, "index columns kept as GROUP BY keys (repeatable or comma separated)")
	f.String("pivot_col", "", "column whose distinct values become output columns")
	f.StringSlice("values_col", nil, "measure columns to aggregate (repeatable or comma separated)")
	f.String("table_name", "", "warehouse table to query and to select from")
	f.String("data", "", "local, gs:// or s3:// data file (csv, tsv, ltsv, parquet, xlsx, optionally compressed)")
	f.String("agg_fun", config.DefaultAggFun, "aggregation function")
	f.String("custom_agg_fun", "", `custom aggregation with one "{}" slot, e.g. "round(avg({}), 2)"`)
	f.String("not_eq_default", config.DefaultNotEqDefault, "value used when the pivot value does not match")
	f.Bool("add_col_nm_suffix", true, "append the measure name to output column names")
	f.String("prefix", "", "prefix of output column names")
	f.String("suffix", "", "suffix of output column names")
	f.String("output_file", "", "write the statement to this file")
	f.String("destination_table", "", "run the statement into this warehouse table")
	f.String("local_file", "", "run the statement and save the result to this file")
	f.Bool("temp_table", false, "run the statement into a temporary table and print the result")
	f.String("warehouse", config.DefaultWarehouse, "warehouse: bigquery, sqlite, duckdb, pgx or mysql")
	f.String("dsn", "", "data source name for sqlite, duckdb, pgx and mysql")
	f.String("project", "", "BigQuery project")
	f.String("dataset", "", "BigQuery dataset for unqualified destination tables")
	f.String("credentials", "", "service account key file for BigQuery")
	f.BoolP("verbose", "v", false, "verbose output")
	f.SortFlags = false

	return cmd
}

// Execute runs the command with args and returns the process exit code.
func (a *App) Execute(ctx context.Context, args []string) int {
	cmd := a.NewRootCmd()
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(a.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// countFlagPairs counts the flags given on the command line, --config
// and --verbose excluded.
func countFlagPairs(cmd *cobra.Command) int {
	n := 0
	for _, name := range []string{"config", "verbose"} {
		if cmd.Flags().Changed(name) {
			n++
		}
	}
	return cmd.Flags().NFlag() - n
}

// IsConfigurationError reports whether err is a configuration problem.
func IsConfigurationError(err error) bool {
	return errors.Is(err, pivotsql.ErrConfiguration)
}
