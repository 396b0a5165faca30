package pivotsql

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/pivotsql/domain/model"
)

// DestinationKind selects where a generated statement goes.
type DestinationKind int

const (
	// DestinationConsole prints the statement.
	DestinationConsole DestinationKind = iota
	// DestinationQueryFile writes the statement to a file.
	DestinationQueryFile
	// DestinationTable runs the statement and stores the result in a named
	// warehouse table.
	DestinationTable
	// DestinationTempTable runs the statement into a temporary table and
	// returns the result.
	DestinationTempTable
	// DestinationLocalFile runs the statement into a temporary table and
	// returns the result for the caller to save locally.
	DestinationLocalFile
)

// String returns the kind name used in logs and errors.
func (k DestinationKind) String() string {
	switch k {
	case DestinationConsole:
		return "console"
	case DestinationQueryFile:
		return "query-file"
	case DestinationTable:
		return "table"
	case DestinationTempTable:
		return "temp-table"
	case DestinationLocalFile:
		return "local-file"
	default:
		return fmt.Sprintf("destination(%d)", int(k))
	}
}

// Destination is a delivery target. Target is the file path for QueryFile
// and LocalFile, the table name for Table, and ignored otherwise.
type Destination struct {
	Kind   DestinationKind
	Target string
}

// Console returns the console destination.
func Console() Destination { return Destination{Kind: DestinationConsole} }

// QueryFile returns a destination writing the statement to path.
func QueryFile(path string) Destination {
	return Destination{Kind: DestinationQueryFile, Target: path}
}

// Table returns a destination storing the result in the named table.
func Table(name string) Destination {
	return Destination{Kind: DestinationTable, Target: name}
}

// TempTable returns a destination fetching the result of a temporary table.
func TempTable() Destination { return Destination{Kind: DestinationTempTable} }

// LocalFile returns a destination fetching the result for a local file.
func LocalFile(path string) Destination {
	return Destination{Kind: DestinationLocalFile, Target: path}
}

// IsSubmitted reports whether delivering to d runs the statement.
func (d Destination) IsSubmitted() bool {
	switch d.Kind {
	case DestinationTable, DestinationTempTable, DestinationLocalFile:
		return true
	default:
		return false
	}
}

// Write writes the statement followed by a newline.
func (p *Pivot) Write(w io.Writer) error {
	stmt, err := p.Statement()
	if err != nil {
		return err
	}
	if _, err := io.WriteString(w, stmt+"\n"); err != nil {
		return fmt.Errorf("failed to write statement: %w", err)
	}
	return nil
}

// WriteFile writes the statement to path, creating parent directories.
func (p *Pivot) WriteFile(path string) (err error) {
	if strings.TrimSpace(path) == "" {
		return configError("write query file", "output path is empty")
	}
	stmt, err := p.Statement()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	f, err := os.Create(path) //nolint:gosec // path is supplied by the caller
	if err != nil {
		return fmt.Errorf("failed to create query file %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close query file %s: %w", path, closeErr)
		}
	}()

	if _, err := io.WriteString(f, stmt+"\n"); err != nil {
		return fmt.Errorf("failed to write query file %s: %w", path, err)
	}
	p.logger.Debug("wrote query file", slog.String("path", path))
	return nil
}

// Submit runs the statement through submitter. An empty table asks for a
// temporary result table.
func (p *Pivot) Submit(ctx context.Context, submitter Submitter, table string) (*model.ResultSet, error) {
	if submitter == nil {
		return nil, configError("submit statement", "no warehouse connection configured")
	}
	stmt, err := p.Statement()
	if err != nil {
		return nil, err
	}

	p.logger.Debug("submitting statement", slog.String("table", table))
	rs, err := submitter.Submit(ctx, stmt, strings.TrimSpace(table))
	if err != nil {
		return nil, fmt.Errorf("failed to submit pivot statement: %w", err)
	}
	p.logger.Debug("statement finished", slog.Int("rows", rs.Len()))
	return rs, nil
}

// Deliver sends the statement to dst. Console output goes to stdout. The
// result set is returned for submitted destinations and is nil otherwise.
func (p *Pivot) Deliver(ctx context.Context, dst Destination, submitter Submitter, stdout io.Writer) (*model.ResultSet, error) {
	switch dst.Kind {
	case DestinationConsole:
		if stdout == nil {
			stdout = os.Stdout
		}
		return nil, p.Write(stdout)
	case DestinationQueryFile:
		return nil, p.WriteFile(dst.Target)
	case DestinationTable:
		if strings.TrimSpace(dst.Target) == "" {
			return nil, configError("deliver statement", "destination table name is empty")
		}
		return p.Submit(ctx, submitter, dst.Target)
	case DestinationTempTable:
		return p.Submit(ctx, submitter, "")
	case DestinationLocalFile:
		if strings.TrimSpace(dst.Target) == "" {
			return nil, configError("deliver statement", "local file path is empty")
		}
		return p.Submit(ctx, submitter, "")
	default:
		return nil, configError("deliver statement", "unknown destination %s", dst.Kind)
	}
}
