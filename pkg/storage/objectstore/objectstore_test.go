package objectstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsUnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "ftp", Bucket: "video-frame-pro"})
	assert.ErrorContains(t, err, "unsupported object store provider")
}

func TestNewRequiresBucket(t *testing.T) {
	_, err := New(Config{Provider: "minio", Endpoint: "localhost:9000"})
	assert.Error(t, err)
}

func TestNewMinioClient(t *testing.T) {
	cl, err := New(Config{
		Provider:  "s3",
		Endpoint:  "http://localhost:9000/",
		Region:    "us-east-1",
		Bucket:    "video-frame-pro",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)
	assert.Equal(t, "video-frame-pro", cl.Bucket())
	assert.NoError(t, cl.Close())
}

func TestEndpointHost(t *testing.T) {
	assert.Equal(t, "localhost:9000", endpointHost("http://localhost:9000"))
	assert.Equal(t, "s3.amazonaws.com", endpointHost("https://s3.amazonaws.com/"))
	assert.Equal(t, "minio:9000", endpointHost("minio:9000"))
}
