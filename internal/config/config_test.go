package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig_DefaultValues(t *testing.T) {
	cfg, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, 0, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "5000", cfg.HTTP.Port)
	assert.Equal(t, "http://localhost:5000", cfg.HTTP.PublicURL)
	assert.Equal(t, false, cfg.HTTP.EnableHTTPS)
	assert.Equal(t, "cert.pem", cfg.HTTP.CertFileName)
	assert.Equal(t, "key.pem", cfg.HTTP.PrivateKeyFileName)
	assert.Equal(t, int64(65536), cfg.HTTP.MaxBodyBytes)
	assert.Equal(t, 30*time.Second, cfg.HTTP.RequestTimeout)
	assert.Equal(t, true, cfg.GRPC.Enabled)
	assert.Equal(t, "50051", cfg.GRPC.Port)
	assert.Equal(t, "devsecret", cfg.Session.Secret)
	assert.Equal(t, time.Hour, cfg.Session.TTL)
	assert.Equal(t, false, cfg.Session.Stateless)
	assert.Equal(t, StorageMinio, cfg.Storage.Backend)
	assert.Equal(t, "localhost:9000", cfg.Storage.Endpoint)
	assert.Equal(t, "piggyvault", cfg.Storage.Bucket)
	assert.Equal(t, false, cfg.Storage.CreateBucket)
	assert.Equal(t, 10*time.Second, cfg.Storage.StartupTimeout)
	assert.Equal(t, 85*time.Minute, cfg.Storage.URLExpiry)
	assert.Equal(t, time.Minute, cfg.Storage.ClaimGrace)
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, "localhost:6379", cfg.Cache.Addr)
	assert.Equal(t, 0, cfg.Cache.DB)
	assert.Empty(t, cfg.Users.AllowList)
	assert.Equal(t, ByteSize(1<<20), cfg.Uploads.MaxContentLength)
}

func TestNewConfig_EnvironmentOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		expected func(*Config)
	}{
		{
			name:    "log level override",
			envVars: map[string]string{"LOG_LEVEL": "-4", "LOG_FORMAT": "json"},
			expected: func(cfg *Config) {
				assert.Equal(t, -4, cfg.LogLevel)
				assert.Equal(t, "json", cfg.LogFormat)
			},
		},
		{
			name: "http config override",
			envVars: map[string]string{
				"HTTP_PORT":                  "8080",
				"HTTP_PUBLIC_URL":            "https://vault.example.com",
				"HTTP_ENABLE_HTTPS":          "true",
				"HTTP_CERT_FILE_NAME":        "custom.pem",
				"HTTP_PRIVATE_KEY_FILE_NAME": "custom-key.pem",
				"HTTP_REQUEST_TIMEOUT":       "5s",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, "8080", cfg.HTTP.Port)
				assert.Equal(t, "https://vault.example.com", cfg.HTTP.PublicURL)
				assert.Equal(t, true, cfg.HTTP.EnableHTTPS)
				assert.Equal(t, "custom.pem", cfg.HTTP.CertFileName)
				assert.Equal(t, "custom-key.pem", cfg.HTTP.PrivateKeyFileName)
				assert.Equal(t, 5*time.Second, cfg.HTTP.RequestTimeout)
			},
		},
		{
			name: "session override",
			envVars: map[string]string{
				"SESSION_SECRET":    "s3cret",
				"SESSION_TTL":       "15m",
				"SESSION_STATELESS": "true",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, "s3cret", cfg.Session.Secret)
				assert.Equal(t, 15*time.Minute, cfg.Session.TTL)
				assert.True(t, cfg.Session.Stateless)
			},
		},
		{
			name: "storage override",
			envVars: map[string]string{
				"MINIO_BACKEND":       "memory",
				"MINIO_BUCKET_NAME":   "bucket-test",
				"MINIO_REGION":        "eu-west-1",
				"MINIO_CREATE_BUCKET": "true",
				"MINIO_URL_EXPIRY":    "10m",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, StorageMemory, cfg.Storage.Backend)
				assert.Equal(t, "bucket-test", cfg.Storage.Bucket)
				assert.Equal(t, "eu-west-1", cfg.Storage.Region)
				assert.True(t, cfg.Storage.CreateBucket)
				assert.Equal(t, 10*time.Minute, cfg.Storage.URLExpiry)
			},
		},
		{
			name: "cache override",
			envVars: map[string]string{
				"CACHE_BACKEND":  "none",
				"CACHE_ADDR":     "redis:6379",
				"CACHE_PASSWORD": "pw",
				"CACHE_DB":       "3",
			},
			expected: func(cfg *Config) {
				assert.Equal(t, CacheNone, cfg.Cache.Backend)
				assert.Equal(t, "redis:6379", cfg.Cache.Addr)
				assert.Equal(t, "pw", cfg.Cache.Password)
				assert.Equal(t, 3, cfg.Cache.DB)
			},
		},
		{
			name:    "allow list is normalized",
			envVars: map[string]string{"USERS_ALLOW_LIST": " Alice ,bob,,"},
			expected: func(cfg *Config) {
				assert.Equal(t, []string{"alice", "bob"}, cfg.Users.AllowList)
			},
		},
		{
			name:    "human readable upload size",
			envVars: map[string]string{"UPLOADS_MAX_CONTENT_LENGTH": "500 kB"},
			expected: func(cfg *Config) {
				assert.Equal(t, ByteSize(500000), cfg.Uploads.MaxContentLength)
				assert.Equal(t, "488 KiB", cfg.Uploads.MaxContentLength.String())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			cfg, err := NewConfig()
			require.NoError(t, err)
			tt.expected(cfg)
		})
	}
}

func TestNewConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		envVars map[string]string
		wantErr string
	}{
		{name: "storage backend", envVars: map[string]string{"MINIO_BACKEND": "s3"}, wantErr: "unknown storage backend"},
		{name: "cache backend", envVars: map[string]string{"CACHE_BACKEND": "memcached"}, wantErr: "unknown cache backend"},
		{name: "log format", envVars: map[string]string{"LOG_FORMAT": "xml"}, wantErr: "unknown log format"},
		{name: "zero ttl", envVars: map[string]string{"SESSION_TTL": "0s"}, wantErr: "session ttl"},
		{name: "negative claim grace", envVars: map[string]string{"MINIO_CLAIM_GRACE": "-1s"}, wantErr: "claim grace"},
		{name: "bad size", envVars: map[string]string{"UPLOADS_MAX_CONTENT_LENGTH": "lots"}, wantErr: "failed to parse config"},
		{name: "bad duration", envVars: map[string]string{"SESSION_TTL": "soon"}, wantErr: "failed to parse config"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for key, value := range tt.envVars {
				t.Setenv(key, value)
			}

			_, err := NewConfig()
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
