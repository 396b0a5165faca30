package objstore

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		uri        string
		wantScheme string
		wantBucket string
		wantKey    string
		wantErr    bool
	}{
		{name: "gcs object", uri: "gs://bucket/data/sales.csv", wantScheme: "gs", wantBucket: "bucket", wantKey: "data/sales.csv"},
		{name: "s3 object", uri: "s3://lake/raw/sales.parquet", wantScheme: "s3", wantBucket: "lake", wantKey: "raw/sales.parquet"},
		{name: "missing key", uri: "gs://bucket/", wantErr: true},
		{name: "missing bucket", uri: "s3:///key.csv", wantErr: true},
		{name: "unsupported scheme", uri: "https://example.com/a.csv", wantErr: true},
		{name: "local path", uri: "data/sales.csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scheme, bucket, key, err := ParseURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantScheme, scheme)
			assert.Equal(t, tt.wantBucket, bucket)
			assert.Equal(t, tt.wantKey, key)
		})
	}
}

type fakeS3 struct {
	objects map[string][]byte
	calls   int
}

func (f *fakeS3) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.calls++
	data, ok := f.objects[*in.Bucket+"/"+*in.Key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func TestStoreOpenS3(t *testing.T) {
	t.Parallel()

	fake := &fakeS3{objects: map[string][]byte{"lake/sales.csv": []byte("region,month\neu,jan\n")}}
	store := New(Config{}, nil)
	store.s3 = fake

	rc, err := store.Open(context.Background(), "s3://lake/sales.csv")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "region,month\neu,jan\n", string(data))

	_, err = store.Open(context.Background(), "s3://lake/missing.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://lake/missing.csv")
	assert.Equal(t, 2, fake.calls)
}

func TestStoreOpenUnsupported(t *testing.T) {
	t.Parallel()

	store := New(Config{}, nil)
	_, err := store.Open(context.Background(), "ftp://host/file.csv")
	assert.ErrorIs(t, err, ErrUnsupportedScheme)
}

func TestStoreCloseWithoutClients(t *testing.T) {
	t.Parallel()

	assert.NoError(t, New(Config{}, nil).Close())
}

func TestStoreS3ClientConfig(t *testing.T) {
	t.Parallel()

	store := New(Config{
		S3AccessKeyID:     "key",
		S3SecretAccessKey: "secret",
		S3Endpoint:        "http://localhost:9000",
		S3PathStyle:       true,
	}, nil)
	client := store.s3Client()
	require.NotNil(t, client)
	assert.Same(t, client, store.s3Client())

	c, ok := client.(*s3.Client)
	require.True(t, ok)
	opts := c.Options()
	assert.Equal(t, "us-east-1", opts.Region)
	assert.True(t, opts.UsePathStyle)
	require.NotNil(t, opts.BaseEndpoint)
	assert.Equal(t, "http://localhost:9000", *opts.BaseEndpoint)
}
