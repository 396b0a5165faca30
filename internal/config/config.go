// Package config loads pivotsql settings from defaults, a yaml file,
// PIVOTSQL_ environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// DefaultConfigFile is read from the working directory when no --config
// flag is given and the file exists.
const DefaultConfigFile = "pivotsql.yaml"

// EnvPrefix prefixes environment variables, e.g. PIVOTSQL_PIVOT_COL.
const EnvPrefix = "PIVOTSQL_"

// Warehouse names.
const (
	WarehouseBigQuery = "bigquery"
	WarehouseSQLite   = "sqlite"
	WarehouseDuckDB   = "duckdb"
	WarehousePgx      = "pgx"
	WarehouseMySQL    = "mysql"
)

// Defaults.
const (
	DefaultAggFun       = "sum"
	DefaultNotEqDefault = "0"
	DefaultWarehouse    = WarehouseBigQuery
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config is the merged configuration of one invocation.
type Config struct {
	IndexCols      []string `koanf:"index_col"`
	PivotCol       string   `koanf:"pivot_col"`
	ValuesCols     []string `koanf:"values_col"`
	TableName      string   `koanf:"table_name"`
	Data           string   `koanf:"data"`
	AggFun         string   `koanf:"agg_fun"`
	CustomAggFun   string   `koanf:"custom_agg_fun"`
	NotEqDefault   string   `koanf:"not_eq_default"`
	AddColNmSuffix bool     `koanf:"add_col_nm_suffix"`
	Prefix         string   `koanf:"prefix"`
	Suffix         string   `koanf:"suffix"`
	Verbose        bool     `koanf:"verbose"`

	// Destinations, highest precedence first.
	DestinationTable string `koanf:"destination_table"`
	LocalFile        string `koanf:"local_file"`
	TempTable        bool   `koanf:"temp_table"`
	OutputFile       string `koanf:"output_file"`

	// Warehouse connection.
	Warehouse   string `koanf:"warehouse"`
	DSN         string `koanf:"dsn"`
	Project     string `koanf:"project"`
	Dataset     string `koanf:"dataset"`
	Credentials string `koanf:"credentials"`

	// Object storage for gs:// and s3:// data paths.
	GCSCredentials    string `koanf:"gcs_credentials"`
	S3Region          string `koanf:"s3_region"`
	S3AccessKeyID     string `koanf:"s3_access_key_id"`
	S3SecretAccessKey string `koanf:"s3_secret_access_key"`
	S3Endpoint        string `koanf:"s3_endpoint"`
	S3PathStyle       bool   `koanf:"s3_path_style"`

	// ConfigFile is the yaml file that was read, "" if none.
	ConfigFile string `koanf:"-"`
}

// Load merges, in increasing precedence: defaults, the yaml file (cfgFile,
// or DefaultConfigFile when present), PIVOTSQL_ environment variables and
// the flags of fs that were explicitly set.
func Load(cfgFile string, fs *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]any{
		"agg_fun":           DefaultAggFun,
		"not_eq_default":    DefaultNotEqDefault,
		"add_col_nm_suffix": true,
		"warehouse":         DefaultWarehouse,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	used := cfgFile
	if used == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			used = DefaultConfigFile
		}
	}
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", used, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if fs != nil {
		if err := k.Load(posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(fs, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ConfigFile = used
	cfg.IndexCols = splitList(cfg.IndexCols)
	cfg.ValuesCols = splitList(cfg.ValuesCols)
	cfg.Warehouse = strings.ToLower(strings.TrimSpace(cfg.Warehouse))
	return &cfg, nil
}

// Validate checks the settings needed before any query is built.
func (c *Config) Validate() error {
	var problems []string
	if len(c.IndexCols) == 0 {
		problems = append(problems, "index_col is required")
	}
	if strings.TrimSpace(c.PivotCol) == "" {
		problems = append(problems, "pivot_col is required")
	}
	if len(c.ValuesCols) == 0 {
		problems = append(problems, "values_col is required")
	}
	if strings.TrimSpace(c.Data) == "" && strings.TrimSpace(c.TableName) == "" {
		problems = append(problems, "either data or table_name must be provided")
	}
	if !slices.Contains(Warehouses(), c.Warehouse) {
		problems = append(problems, fmt.Sprintf("unknown warehouse %q, want one of %s", c.Warehouse, strings.Join(Warehouses(), ", ")))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// NeedsWarehouse reports whether the run queries a warehouse: remote
// discovery or a submitted destination.
func (c *Config) NeedsWarehouse() bool {
	return strings.TrimSpace(c.Data) == "" ||
		c.DestinationTable != "" || c.LocalFile != "" || c.TempTable
}

// Warehouses lists the accepted warehouse names.
func Warehouses() []string {
	return []string{WarehouseBigQuery, WarehouseSQLite, WarehouseDuckDB, WarehousePgx, WarehouseMySQL}
}

// splitList flattens comma separated entries, which env vars and yaml
// scalars produce.
func splitList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		for part := range strings.SplitSeq(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
