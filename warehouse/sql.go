// Package warehouse runs discovery queries and generated statements against
// BigQuery or any database/sql backend.
package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/nao1215/pivotsql/domain/model"

	_ "github.com/go-sql-driver/mysql"     // registers "mysql"
	_ "github.com/jackc/pgx/v5/stdlib"     // registers "pgx"
	_ "github.com/marcboeker/go-duckdb"    // registers "duckdb"
	_ "modernc.org/sqlite"                 // registers "sqlite"
)

// Driver names accepted by OpenSQL.
const (
	DriverSQLite = "sqlite"
	DriverDuckDB = "duckdb"
	DriverPgx    = "pgx"
	DriverMySQL  = "mysql"
)

// ErrNotConnected is returned when the database handle is missing.
var ErrNotConnected = errors.New("warehouse: database connection not established")

// SQLDrivers lists the database/sql drivers linked into the binary.
func SQLDrivers() []string {
	return []string{DriverSQLite, DriverDuckDB, DriverPgx, DriverMySQL}
}

// SQL runs statements through database/sql.
type SQL struct {
	db     *sql.DB
	logger *slog.Logger
	// newTempName names temporary result tables
	newTempName func() string
}

// OpenSQL opens and pings a connection with one of SQLDrivers.
func OpenSQL(ctx context.Context, driver, dsn string, logger *slog.Logger) (*SQL, error) {
	if !slices.Contains(SQLDrivers(), driver) {
		return nil, fmt.Errorf("unsupported driver %q, want one of %s", driver, strings.Join(SQLDrivers(), ", "))
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	return NewSQL(db, logger), nil
}

// NewSQL wraps an open handle. A nil logger discards output.
func NewSQL(db *sql.DB, logger *slog.Logger) *SQL {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQL{db: db, logger: logger, newTempName: tempTableName}
}

// Close closes the database connection.
func (s *SQL) Close() error {
	if s.db == nil {
		return nil
	}
	s.logger.Debug("closing database connection")
	return s.db.Close()
}

// QueryValues returns the first column of every row of query.
func (s *SQL) QueryValues(ctx context.Context, query string) ([]any, error) {
	if s.db == nil {
		return nil, ErrNotConnected
	}
	s.logger.Debug("querying values", slog.String("query", query))

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	var values []any
	for rows.Next() {
		var v any
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read values: %w", err)
	}
	return values, nil
}

// Submit runs query into table and fetches it. An existing table is
// replaced. An empty table creates a temporary table on a pinned connection,
// fetches it and drops it.
func (s *SQL) Submit(ctx context.Context, query, table string) (*model.ResultSet, error) {
	if s.db == nil {
		return nil, ErrNotConnected
	}
	if table != "" {
		return s.submitTable(ctx, query, table)
	}
	return s.submitTemp(ctx, query)
}

func (s *SQL) submitTable(ctx context.Context, query, table string) (*model.ResultSet, error) {
	s.logger.Debug("creating result table", slog.String("table", table))
	if _, err := s.db.ExecContext(ctx, "drop table if exists "+table); err != nil {
		return nil, fmt.Errorf("failed to replace table %s: %w", table, err)
	}
	if _, err := s.db.ExecContext(ctx, fmt.Sprintf("create table %s as %s", table, query)); err != nil {
		return nil, fmt.Errorf("failed to create table %s: %w", table, err)
	}
	rows, err := s.db.QueryContext(ctx, "select * from "+table)
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s: %w", table, err)
	}
	return scanResultSet(rows)
}

// submitTemp pins one connection: temporary tables are session scoped.
func (s *SQL) submitTemp(ctx context.Context, query string) (rs *model.ResultSet, err error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() {
		if closeErr := conn.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to release connection: %w", closeErr)
		}
	}()

	name := s.newTempName()
	s.logger.Debug("creating temporary table", slog.String("table", name))
	if _, err := conn.ExecContext(ctx, fmt.Sprintf("create temporary table %s as %s", name, query)); err != nil {
		return nil, fmt.Errorf("failed to create temporary table: %w", err)
	}
	defer func() {
		if _, dropErr := conn.ExecContext(ctx, "drop table "+name); dropErr != nil && err == nil {
			err = fmt.Errorf("failed to drop temporary table %s: %w", name, dropErr)
		}
	}()

	rows, err := conn.QueryContext(ctx, "select * from "+name)
	if err != nil {
		return nil, fmt.Errorf("failed to read temporary table: %w", err)
	}
	return scanResultSet(rows)
}

// scanResultSet drains and closes rows.
func scanResultSet(rows *sql.Rows) (*model.ResultSet, error) {
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}
	rs := &model.ResultSet{Columns: cols, Rows: make([][]any, 0)}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		rs.Rows = append(rs.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return rs, nil
}

// tempTableName returns pivot_<uuid without dashes>.
func tempTableName() string {
	return "pivot_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
