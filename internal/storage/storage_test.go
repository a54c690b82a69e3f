package storage

import (
	"context"
	"testing"

	"github.com/andresuchdata/restock/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in         string
		useSSL     bool
		wantHost   string
		wantSecure bool
	}{
		{"https://s3.example.com/", false, "s3.example.com", true},
		{"http://minio:9000", true, "minio:9000", false},
		{"minio:9000", true, "minio:9000", true},
		{"//minio:9000", false, "minio:9000", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			host, secure := normalizeEndpoint(tt.in, tt.useSSL)
			assert.Equal(t, tt.wantHost, host)
			assert.Equal(t, tt.wantSecure, secure)
		})
	}
}

func TestNewDisabledIsNoop(t *testing.T) {
	s, err := New(config.StorageConfig{})
	require.NoError(t, err)
	assert.False(t, s.Enabled())
	assert.NoError(t, s.UploadObject(context.Background(), "exports/x.xlsx", []byte("x"), "application/octet-stream"))
	_, err = s.ListObjects(context.Background(), "exports/")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestNewMinioClientValidates(t *testing.T) {
	_, err := NewMinioClient(config.StorageConfig{})
	assert.Error(t, err)

	_, err = NewMinioClient(config.StorageConfig{Endpoint: "minio:9000", AccessKey: "a", SecretKey: "b"})
	assert.Error(t, err)

	c, err := NewMinioClient(config.StorageConfig{Endpoint: "http://minio:9000", AccessKey: "a", SecretKey: "b", Bucket: "restock"})
	require.NoError(t, err)
	assert.True(t, c.Enabled())
}
