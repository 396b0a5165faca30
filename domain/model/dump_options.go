package model

// ExportOptions configures how a query result is written to a local file.
//
// Example:
//
//	options := NewExportOptions().
//		WithFormat(FileTypeTSV).
//		WithCompression(CompressionGZ)
type ExportOptions struct {
	// Format specifies the output file format. Parquet is read-only.
	Format FileType
	// Compression specifies the compression type
	Compression CompressionType
}

// NewExportOptions creates default export options (CSV, no compression).
func NewExportOptions() ExportOptions {
	return ExportOptions{
		Format:      FileTypeCSV,
		Compression: CompressionNone,
	}
}

// ExportOptionsFromPath derives the options from an output path such as
// "result.ltsv.xz". Unknown extensions fall back to CSV.
func ExportOptionsFromPath(path string) ExportOptions {
	format, compression := DetectFileType(path)
	if format == FileTypeUnsupported || format == FileTypeParquet {
		format = FileTypeCSV
	}
	return ExportOptions{Format: format, Compression: compression}
}

// WithFormat sets the output file format.
func (o ExportOptions) WithFormat(format FileType) ExportOptions {
	o.Format = format
	return o
}

// WithCompression adds compression to output files.
func (o ExportOptions) WithCompression(compression CompressionType) ExportOptions {
	o.Compression = compression
	return o
}

// FileExtension returns the complete file extension including compression
func (o ExportOptions) FileExtension() string {
	return o.Format.Extension() + o.Compression.Extension()
}
