package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/pivotsql"
	"github.com/nao1215/pivotsql/internal/config"
	"github.com/nao1215/pivotsql/objstore"
	"github.com/nao1215/pivotsql/tabular"
	"github.com/nao1215/pivotsql/warehouse"
)

// run builds the pivot described by cfg and delivers it.
func (a *App) run(ctx context.Context, cfg *config.Config) (err error) {
	logger := newLogger(a, cfg.Verbose)
	if cfg.ConfigFile != "" {
		logger.Debug("using config file", slog.String("path", cfg.ConfigFile))
	}

	store := objstore.New(objstore.Config{
		GCSCredentialsFile: cfg.GCSCredentials,
		S3Region:           cfg.S3Region,
		S3AccessKeyID:      cfg.S3AccessKeyID,
		S3SecretAccessKey:  cfg.S3SecretAccessKey,
		S3Endpoint:         cfg.S3Endpoint,
		S3PathStyle:        cfg.S3PathStyle,
	}, logger)
	defer func() {
		if closeErr := store.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	var wh Warehouse
	if cfg.NeedsWarehouse() {
		wh, err = a.OpenWarehouse(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer func() {
			if closeErr := wh.Close(); closeErr != nil && err == nil {
				err = fmt.Errorf("failed to close warehouse: %w", closeErr)
			}
		}()
	}

	builder := pivotsql.NewBuilder().
		Index(cfg.IndexCols...).
		Pivot(cfg.PivotCol).
		Measures(cfg.ValuesCols...).
		AggFunc(cfg.AggFun).
		CustomAgg(cfg.CustomAggFun).
		NotEqDefault(cfg.NotEqDefault).
		Prefix(cfg.Prefix).
		Suffix(cfg.Suffix).
		MeasureSuffix(cfg.AddColNmSuffix).
		TableName(cfg.TableName).
		Logger(logger)
	if strings.TrimSpace(cfg.Data) != "" {
		builder.FromPath(cfg.Data).WithOpener(store)
	} else {
		builder.FromRemoteTable(cfg.TableName, wh)
	}

	p, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	dst := destination(cfg)
	logger.Debug("delivering statement", slog.String("destination", dst.Kind.String()))
	rs, err := p.Deliver(ctx, dst, wh, a.Stdout)
	if err != nil {
		return err
	}

	switch dst.Kind {
	case pivotsql.DestinationQueryFile:
		logger.Info("wrote query", slog.String("path", dst.Target))
	case pivotsql.DestinationTable:
		logger.Info("wrote result table", slog.String("table", dst.Target), slog.Int("rows", rs.Len()))
	case pivotsql.DestinationTempTable:
		return tabular.Render(a.Stdout, rs)
	case pivotsql.DestinationLocalFile:
		if err := tabular.Save(dst.Target, rs); err != nil {
			return fmt.Errorf("failed to save result: %w", err)
		}
		logger.Info("saved result", slog.String("path", dst.Target), slog.Int("rows", rs.Len()))
	}
	return nil
}

// destination picks exactly one destination: destination_table, then
// local_file, then temp_table, then output_file, then the console.
func destination(cfg *config.Config) pivotsql.Destination {
	switch {
	case cfg.DestinationTable != "":
		return pivotsql.Table(cfg.DestinationTable)
	case cfg.LocalFile != "":
		return pivotsql.LocalFile(cfg.LocalFile)
	case cfg.TempTable:
		return pivotsql.TempTable()
	case cfg.OutputFile != "":
		return pivotsql.QueryFile(cfg.OutputFile)
	default:
		return pivotsql.Console()
	}
}

// newLogger writes text records to stderr, at debug level when verbose.
func newLogger(a *App, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(a.Stderr, &slog.HandlerOptions{Level: level}))
}

// openWarehouse connects to BigQuery or one of the database/sql drivers.
func openWarehouse(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Warehouse, error) {
	if cfg.Warehouse == config.WarehouseBigQuery {
		if cfg.Project == "" {
			return nil, pivotsql.NewErrorContext("connect warehouse").
				WithDetails("--project is required for bigquery").
				Error(pivotsql.ErrConfiguration)
		}
		bq, err := warehouse.NewBigQuery(ctx, warehouse.BigQueryConfig{
			Project:         cfg.Project,
			CredentialsFile: cfg.Credentials,
			Dataset:         cfg.Dataset,
		}, logger)
		if err != nil {
			return nil, err
		}
		return bq, nil
	}
	if cfg.DSN == "" {
		return nil, pivotsql.NewErrorContext("connect warehouse").
			WithDetails("--dsn is required for %s", cfg.Warehouse).
			Error(pivotsql.ErrConfiguration)
	}
	db, err := warehouse.OpenSQL(ctx, cfg.Warehouse, cfg.DSN, logger)
	if err != nil {
		return nil, err
	}
	return db, nil
}
