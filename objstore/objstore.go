// Package objstore opens gs:// and s3:// objects for reading.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"google.golang.org/api/option"
)

// ErrUnsupportedScheme is returned for URIs other than gs:// and s3://.
var ErrUnsupportedScheme = errors.New("objstore: unsupported scheme")

// Config holds the credentials of both stores. Empty values fall back to
// application default credentials for GCS and anonymous access for S3.
type Config struct {
	// GCSCredentialsFile is a service account key file.
	GCSCredentialsFile string
	S3Region           string
	S3AccessKeyID      string
	S3SecretAccessKey  string
	// S3Endpoint targets S3-compatible storage, e.g. "https://minio:9000".
	S3Endpoint string
	// S3PathStyle addresses buckets by path instead of subdomain.
	S3PathStyle bool
}

// s3Getter is the part of the S3 client used here.
type s3Getter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store opens objects in GCS and S3. Clients are created on first use and
// released by Close.
type Store struct {
	cfg    Config
	logger *slog.Logger

	mu  sync.Mutex
	gcs *storage.Client
	s3  s3Getter
}

// New returns a store for cfg. A nil logger discards output.
func New(cfg Config, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{cfg: cfg, logger: logger}
}

// Open returns a reader for uri. The caller closes it.
func (s *Store) Open(ctx context.Context, uri string) (io.ReadCloser, error) {
	scheme, bucket, key, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("opening object", slog.String("scheme", scheme), slog.String("bucket", bucket), slog.String("key", key))

	switch scheme {
	case "gs":
		client, err := s.gcsClient(ctx)
		if err != nil {
			return nil, err
		}
		r, err := client.Bucket(bucket).Object(key).NewReader(ctx)
		if err != nil {
			return nil, fmt.Errorf("read gs://%s/%s: %w", bucket, key, err)
		}
		return r, nil
	case "s3":
		out, err := s.s3Client().GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(bucket),
			Key:    aws.String(key),
		})
		if err != nil {
			return nil, fmt.Errorf("read s3://%s/%s: %w", bucket, key, err)
		}
		return out.Body, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, scheme)
	}
}

// Close releases the GCS client if one was created.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gcs == nil {
		return nil
	}
	err := s.gcs.Close()
	s.gcs = nil
	if err != nil {
		return fmt.Errorf("close gcs client: %w", err)
	}
	return nil
}

func (s *Store) gcsClient(ctx context.Context) (*storage.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gcs != nil {
		return s.gcs, nil
	}

	var opts []option.ClientOption
	if s.cfg.GCSCredentialsFile != "" {
		opts = append(opts, option.WithAuthCredentialsFile(option.ServiceAccount, s.cfg.GCSCredentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}
	s.gcs = client
	return client, nil
}

func (s *Store) s3Client() s3Getter {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.s3 != nil {
		return s.s3
	}

	opts := s3.Options{
		Region:       s.cfg.S3Region,
		UsePathStyle: s.cfg.S3PathStyle,
	}
	if opts.Region == "" {
		opts.Region = "us-east-1"
	}
	if s.cfg.S3AccessKeyID != "" {
		opts.Credentials = credentials.NewStaticCredentialsProvider(s.cfg.S3AccessKeyID, s.cfg.S3SecretAccessKey, "")
	} else {
		opts.Credentials = aws.AnonymousCredentials{}
	}
	if s.cfg.S3Endpoint != "" {
		opts.BaseEndpoint = aws.String(s.cfg.S3Endpoint)
	}
	s.s3 = s3.New(opts)
	return s.s3
}

// ParseURI splits "gs://bucket/path/to/file" or "s3://bucket/key" into its
// parts. The key must not be empty.
func ParseURI(uri string) (scheme, bucket, key string, err error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", "", "", fmt.Errorf("parse object path %q: %w", uri, err)
	}
	if u.Scheme != "gs" && u.Scheme != "s3" {
		return "", "", "", fmt.Errorf("%w: %q in %q", ErrUnsupportedScheme, u.Scheme, uri)
	}
	bucket = u.Host
	if bucket == "" {
		return "", "", "", fmt.Errorf("empty bucket in object path %q", uri)
	}
	key = strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return "", "", "", fmt.Errorf("empty key in object path %q", uri)
	}
	return u.Scheme, bucket, key, nil
}
