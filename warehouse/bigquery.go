package warehouse

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/nao1215/pivotsql/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// BigQuery runs statements as BigQuery jobs.
type BigQuery struct {
	client  *bigquery.Client
	project string
	dataset string
	logger  *slog.Logger
}

// BigQueryConfig configures NewBigQuery.
type BigQueryConfig struct {
	// Project is the billing and default project.
	Project string
	// CredentialsFile is a service account key; empty uses application
	// default credentials.
	CredentialsFile string
	// Dataset qualifies destination tables given without one.
	Dataset string
}

// NewBigQuery creates a client for cfg.Project.
func NewBigQuery(ctx context.Context, cfg BigQueryConfig, logger *slog.Logger) (*BigQuery, error) {
	if cfg.Project == "" {
		return nil, errors.New("warehouse: bigquery project is required")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, cfg.CredentialsFile))
	}
	client, err := bigquery.NewClient(ctx, cfg.Project, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create bigquery client: %w", err)
	}
	return &BigQuery{client: client, project: cfg.Project, dataset: cfg.Dataset, logger: logger}, nil
}

// Close releases the client.
func (b *BigQuery) Close() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

// QueryValues returns the first column of every row of query.
func (b *BigQuery) QueryValues(ctx context.Context, query string) ([]any, error) {
	b.logger.Debug("querying values", slog.String("query", query))
	it, err := b.client.Query(query).Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}

	var values []any
	for {
		var row []bigquery.Value
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read values: %w", err)
		}
		if len(row) > 0 {
			values = append(values, row[0])
		}
	}
	return values, nil
}

// Submit runs query and fetches the result. A non-empty table is the
// destination, truncated before the write; an empty one leaves BigQuery to
// use an anonymous temporary table.
func (b *BigQuery) Submit(ctx context.Context, query, table string) (*model.ResultSet, error) {
	q := b.client.Query(query)
	if table != "" {
		ref, err := ParseTableRef(table, b.project, b.dataset)
		if err != nil {
			return nil, err
		}
		q.Dst = b.client.DatasetInProject(ref.Project, ref.Dataset).Table(ref.Table)
		q.WriteDisposition = bigquery.WriteTruncate
		b.logger.Debug("writing result table", slog.String("table", ref.String()))
	}

	job, err := q.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start query job: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to wait for job %s: %w", job.ID(), err)
	}
	if err := status.Err(); err != nil {
		return nil, fmt.Errorf("job %s failed: %w", job.ID(), err)
	}

	it, err := job.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read job %s: %w", job.ID(), err)
	}
	rs := &model.ResultSet{Rows: make([][]any, 0)}
	for {
		var row []bigquery.Value
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read rows: %w", err)
		}
		rs.Rows = append(rs.Rows, bigQueryRow(row))
	}
	rs.Columns = schemaColumns(it.Schema)
	return rs, nil
}

func bigQueryRow(row []bigquery.Value) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out
}

func schemaColumns(schema bigquery.Schema) []string {
	cols := make([]string, len(schema))
	for i, field := range schema {
		cols[i] = field.Name
	}
	return cols
}

// TableRef is a fully qualified BigQuery table.
type TableRef struct {
	Project string
	Dataset string
	Table   string
}

// String returns project.dataset.table.
func (r TableRef) String() string {
	return r.Project + "." + r.Dataset + "." + r.Table
}

// ParseTableRef qualifies "table", "dataset.table" or
// "project.dataset.table" with the defaults. Backticks are stripped.
func ParseTableRef(name, project, dataset string) (TableRef, error) {
	parts := strings.Split(strings.Trim(name, "`"), ".")
	for _, p := range parts {
		if p == "" {
			return TableRef{}, fmt.Errorf("invalid table name %q", name)
		}
	}
	switch len(parts) {
	case 1:
		if dataset == "" {
			return TableRef{}, fmt.Errorf("table %q needs a dataset", name)
		}
		return TableRef{Project: project, Dataset: dataset, Table: parts[0]}, nil
	case 2:
		return TableRef{Project: project, Dataset: parts[0], Table: parts[1]}, nil
	case 3:
		return TableRef{Project: parts[0], Dataset: parts[1], Table: parts[2]}, nil
	default:
		return TableRef{}, fmt.Errorf("invalid table name %q", name)
	}
}
