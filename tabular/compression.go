// Package tabular reads data files into model.Table and writes query results
// back out as files or console tables.
package tabular

import (
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
	"github.com/nao1215/pivotsql/domain/model"
	"github.com/ulikunitz/xz"
)

// CompressionHandler wraps readers and writers for one compression type.
type CompressionHandler interface {
	// NewReader wraps r with a decompression reader. close releases the
	// decompressor only, never r.
	NewReader(r io.Reader) (io.Reader, func() error, error)
	// NewWriter wraps w with a compression writer. close flushes the
	// compressor only, never w.
	NewWriter(w io.Writer) (io.Writer, func() error, error)
	// Extension returns the file extension, e.g. ".gz".
	Extension() string
}

type compressionHandler struct {
	compression model.CompressionType
}

// NewCompressionHandler returns the handler for compression.
func NewCompressionHandler(compression model.CompressionType) CompressionHandler {
	return &compressionHandler{compression: compression}
}

// HandlerForPath returns the handler for the compression extension of path.
func HandlerForPath(path string) CompressionHandler {
	return NewCompressionHandler(model.DetectCompression(path))
}

func noop() error { return nil }

func (h *compressionHandler) NewReader(r io.Reader) (io.Reader, func() error, error) {
	switch h.compression {
	case model.CompressionNone:
		return r, noop, nil
	case model.CompressionGZ:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gz, gz.Close, nil
	case model.CompressionBZ2:
		return bzip2.NewReader(r), noop, nil
	case model.CompressionXZ:
		xr, err := xz.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz reader: %w", err)
		}
		return xr, noop, nil
	case model.CompressionZSTD:
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return dec, func() error {
			dec.Close()
			return nil
		}, nil
	default:
		return nil, nil, fmt.Errorf("unsupported compression type for reading: %v", h.compression)
	}
}

func (h *compressionHandler) NewWriter(w io.Writer) (io.Writer, func() error, error) {
	switch h.compression {
	case model.CompressionNone:
		return w, noop, nil
	case model.CompressionGZ:
		gz := gzip.NewWriter(w)
		return gz, gz.Close, nil
	case model.CompressionBZ2:
		return nil, nil, errors.New("bzip2 compression is not supported for writing")
	case model.CompressionXZ:
		xw, err := xz.NewWriter(w)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create xz writer: %w", err)
		}
		return xw, xw.Close, nil
	case model.CompressionZSTD:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create zstd writer: %w", err)
		}
		return enc, enc.Close, nil
	default:
		return nil, nil, fmt.Errorf("unsupported compression type for writing: %v", h.compression)
	}
}

func (h *compressionHandler) Extension() string {
	return h.compression.Extension()
}
