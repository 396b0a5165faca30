package pivotsql

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nao1215/pivotsql/domain/model"
)

// discoverValues returns the distinct pivot values of the source, each once.
// Exactly one strategy runs, chosen by the source kind.
func discoverValues(ctx context.Context, src Source, pivotCol string, logger *slog.Logger) ([]string, error) {
	var (
		values []string
		err    error
	)
	switch src.kind {
	case SourceInMemory:
		values, err = scanTableValues(src.table, pivotCol)
	case SourceRemoteTable:
		values, err = queryTableValues(ctx, src.name, src.querier, pivotCol)
	default:
		return nil, configError("discover values", "either an in-memory table or a remote table name must be provided")
	}
	if err != nil {
		return nil, err
	}

	if len(values) == 0 {
		return nil, NewErrorContext("discover values").
			WithColumn(pivotCol).
			WithTable(src.describe()).
			WithDetails("no pivot values found").
			Error(ErrDiscovery)
	}

	logger.Debug("discovered pivot values",
		slog.String("source", src.kind.String()),
		slog.String("pivot_col", pivotCol),
		slog.Int("count", len(values)))
	return values, nil
}

// scanTableValues reads the pivot column of an in-memory table in record
// order. Empty cells are treated as missing.
func scanTableValues(table *model.Table, pivotCol string) ([]string, error) {
	if table == nil {
		return nil, configError("discover values", "in-memory source has no table")
	}
	if !table.Header().Contains(pivotCol) {
		return nil, NewErrorContext("discover values").
			WithColumn(pivotCol).
			WithTable(table.Name()).
			WithDetails("pivot column not in columns %v", []string(table.Header())).
			Error(ErrConfiguration)
	}

	column, err := table.Column(pivotCol)
	if err != nil {
		return nil, NewErrorContext("discover values").WithColumn(pivotCol).Wrap(ErrDiscovery, err)
	}
	return distinct(column), nil
}

// queryTableValues asks the warehouse for the distinct pivot values.
func queryTableValues(ctx context.Context, tableName string, querier ValueQuerier, pivotCol string) ([]string, error) {
	if strings.TrimSpace(tableName) == "" {
		return nil, configError("discover values", "remote table name is empty")
	}
	if querier == nil {
		return nil, NewErrorContext("discover values").
			WithTable(tableName).
			WithDetails("remote table source has no querier").
			Error(ErrConfiguration)
	}

	raw, err := querier.QueryValues(ctx, DiscoveryQuery(tableName, pivotCol))
	if err != nil {
		return nil, NewErrorContext("discover values").
			WithColumn(pivotCol).
			WithTable(tableName).
			Wrap(ErrDiscovery, err)
	}

	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if v == nil {
			continue
		}
		values = append(values, model.FormatValue(v))
	}
	return distinct(values), nil
}

// DiscoveryQuery is the statement sent to a warehouse to list pivot values.
func DiscoveryQuery(tableName, pivotCol string) string {
	return fmt.Sprintf("select distinct %s from %s order by 1", pivotCol, tableName)
}

// distinct keeps the first occurrence of every non-empty value.
func distinct(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0)
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func (s Source) describe() string {
	switch s.kind {
	case SourceInMemory:
		if s.table != nil {
			return s.table.Name()
		}
	case SourceRemoteTable:
		return s.name
	}
	return ""
}
