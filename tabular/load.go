package tabular

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/nao1215/pivotsql/domain/model"
)

// Opener opens a remote object, such as gs://bucket/key, for reading.
type Opener interface {
	Open(ctx context.Context, uri string) (io.ReadCloser, error)
}

// IsRemote reports whether path is an object store URI.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, "gs://") || strings.HasPrefix(path, "s3://")
}

type loadOptions struct {
	opener Opener
	name   string
}

// LoadOption configures Load.
type LoadOption func(*loadOptions)

// WithOpener sets the object store used for gs:// and s3:// paths.
func WithOpener(opener Opener) LoadOption {
	return func(o *loadOptions) {
		o.opener = opener
	}
}

// WithTableName overrides the table name derived from the path.
func WithTableName(name string) LoadOption {
	return func(o *loadOptions) {
		o.name = name
	}
}

// Load reads a local file or remote object into a table. The format and
// compression come from the extension, e.g. "sales.csv.gz".
func Load(ctx context.Context, path string, opts ...LoadOption) (table *model.Table, err error) {
	o := loadOptions{name: model.TableFromFilePath(path)}
	for _, opt := range opts {
		opt(&o)
	}

	fileType, compression := model.DetectFileType(path)
	if fileType == model.FileTypeUnsupported {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	src, err := open(ctx, path, o.opener)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := src.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, closeErr)
		}
	}()

	r, closeReader, err := NewCompressionHandler(compression).NewReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
	}
	defer func() {
		_ = closeReader()
	}()

	table, err = Parse(ctx, r, o.name, fileType)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return table, nil
}

func open(ctx context.Context, path string, opener Opener) (io.ReadCloser, error) {
	if IsRemote(path) {
		if opener == nil {
			return nil, fmt.Errorf("no object store configured for %s", path)
		}
		rc, err := opener.Open(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		return rc, nil
	}
	f, err := os.Open(path) //nolint:gosec // User-provided path is necessary for file operations
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}
