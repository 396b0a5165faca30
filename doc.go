// Package pivotsql generates BigQuery statements that pivot a table: the
// distinct values of one column become output columns, each holding an
// aggregate of a measure column, grouped by a set of index columns.
//
// A pivot is built in four steps:
//
//   - Value discovery reads the distinct pivot values from an in-memory
//     table or by querying a warehouse table.
//   - Name synthesis turns every value into a restricted identifier
//     (lowercase ASCII letters, digits and single underscores), decorated
//     with an optional prefix, suffix and measure name.
//   - Statement assembly emits a CASE expression per value for a single
//     measure, or a rank and array statement for several measures.
//   - Delivery prints the statement, writes it to a file or runs it in a
//     warehouse.
//
// # Basic Usage
//
//	p, err := pivotsql.NewBuilder().
//	    FromPath("sales.csv").
//	    Index("region").
//	    Pivot("month").
//	    Measures("amount").
//	    TableName("project.dataset.sales").
//	    Build(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := p.Write(os.Stdout); err != nil {
//	    log.Fatal(err)
//	}
//
// prints
//
//	select region,
//	sum(case when month = "jan" then amount else 0 end) as jan,
//	sum(case when month = "feb" then amount else 0 end) as feb
//	from project.dataset.sales
//	group by 1
//
// # Data Sources
//
// FromPath loads CSV, TSV, LTSV, Parquet and XLSX files, optionally
// compressed with gzip, bzip2, xz or zstd, from local disk or, with an
// opener such as objstore.Store, from gs:// and s3:// URIs. FromTable
// accepts an already loaded model.Table. FromRemoteTable asks a
// ValueQuerier, such as warehouse.BigQuery or warehouse.SQL, for
// "select distinct <pivot> from <table> order by 1".
//
// # Column Names
//
// Distinct values may sanitize to the same name ("A B" and "A_B" both
// become "a_b"). Such names are emitted unchanged and reported by
// Pivot.Collisions and a warning on the logger. A value with no letters or
// digits at all is named "_". Names that BigQuery only accepts quoted, such
// as "2024" or "from", are backtick-quoted in the statement.
//
// # Errors
//
// Every error wraps ErrConfiguration, ErrDiscovery or ErrAssemblyInvariant:
//
//	if errors.Is(err, pivotsql.ErrConfiguration) {
//	    // fix the arguments
//	}
package pivotsql
