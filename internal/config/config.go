package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/dustin/go-humanize"
)

// Storage backends.
const (
	StorageMinio  = "minio"
	StorageMemory = "memory"
)

// Cache backends.
const (
	CacheRedis  = "redis"
	CacheMemory = "memory"
	CacheNone   = "none"
)

// Config contains server configuration parameters.
type Config struct {
	LogLevel  int     `env:"LOG_LEVEL" envDefault:"0"`
	LogFormat string  `env:"LOG_FORMAT" envDefault:"text"`
	HTTP      HTTP    `envPrefix:"HTTP_"`
	GRPC      GRPC    `envPrefix:"GRPC_"`
	Session   Session `envPrefix:"SESSION_"`
	Storage   Storage `envPrefix:"MINIO_"`
	Cache     Cache   `envPrefix:"CACHE_"`
	Users     Users   `envPrefix:"USERS_"`
	Uploads   Uploads `envPrefix:"UPLOADS_"`
}

// HTTP contains REST server parameters.
type HTTP struct {
	Port               string        `env:"PORT" envDefault:"5000"`
	PublicURL          string        `env:"PUBLIC_URL" envDefault:"http://localhost:5000"`
	EnableHTTPS        bool          `env:"ENABLE_HTTPS" envDefault:"false"`
	CertFileName       string        `env:"CERT_FILE_NAME" envDefault:"cert.pem"`
	PrivateKeyFileName string        `env:"PRIVATE_KEY_FILE_NAME" envDefault:"key.pem"`
	MaxBodyBytes       int64         `env:"MAX_BODY_BYTES" envDefault:"65536"`
	RequestTimeout     time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
}

// GRPC contains health server parameters. TLS follows the HTTP settings.
type GRPC struct {
	Enabled bool   `env:"ENABLED" envDefault:"true"`
	Port    string `env:"PORT" envDefault:"50051"`
}

// Session contains token parameters.
type Session struct {
	Secret    string        `env:"SECRET" envDefault:"devsecret"`
	TTL       time.Duration `env:"TTL" envDefault:"1h"`
	Stateless bool          `env:"STATELESS" envDefault:"false"`
}

// Storage contains object storage parameters.
type Storage struct {
	Backend        string        `env:"BACKEND" envDefault:"minio"`
	Endpoint       string        `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey      string        `env:"ACCESS_KEY" envDefault:"piggyvault-access-key"`
	SecretKey      string        `env:"SECRET_KEY" envDefault:"piggyvault-secret-key"`
	Bucket         string        `env:"BUCKET_NAME" envDefault:"piggyvault"`
	UseSSL         bool          `env:"USE_SSL" envDefault:"false"`
	Region         string        `env:"REGION"`
	CreateBucket   bool          `env:"CREATE_BUCKET" envDefault:"false"`
	StartupTimeout time.Duration `env:"STARTUP_TIMEOUT" envDefault:"10s"`
	URLExpiry      time.Duration `env:"URL_EXPIRY" envDefault:"85m"`
	ClaimGrace     time.Duration `env:"CLAIM_GRACE" envDefault:"1m"`
}

// Cache contains user cache and session record parameters.
type Cache struct {
	Backend  string `env:"BACKEND" envDefault:"redis"`
	Addr     string `env:"ADDR" envDefault:"localhost:6379"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
}

// Users contains registration policy.
type Users struct {
	AllowList []string `env:"ALLOW_LIST" envSeparator:","`
}

// Uploads contains presigned upload limits.
type Uploads struct {
	MaxContentLength ByteSize `env:"MAX_CONTENT_LENGTH" envDefault:"1MiB"`
}

// ByteSize is a size parsed from a human readable value such as "1MiB" or
// "500 kB".
type ByteSize uint64

func (b *ByteSize) UnmarshalText(text []byte) error {
	n, err := humanize.ParseBytes(string(text))
	if err != nil {
		return fmt.Errorf("invalid size %q: %w", string(text), err)
	}
	*b = ByteSize(n)
	return nil
}

func (b ByteSize) String() string {
	return humanize.IBytes(uint64(b))
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Users.AllowList = normalizeAllowList(cfg.Users.AllowList)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Storage.Backend {
	case StorageMinio, StorageMemory:
	default:
		return fmt.Errorf("unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Cache.Backend {
	case CacheRedis, CacheMemory, CacheNone:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}

	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.LogFormat)
	}

	if c.Session.Secret == "" {
		return fmt.Errorf("session secret must not be empty")
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.Session.TTL)
	}
	if c.Storage.ClaimGrace <= 0 {
		return fmt.Errorf("claim grace must be positive, got %s", c.Storage.ClaimGrace)
	}
	if c.Uploads.MaxContentLength == 0 {
		return fmt.Errorf("uploads max content length must be positive")
	}

	return nil
}

// normalizeAllowList applies the username normalization to allow-list
// entries and drops empty ones.
func normalizeAllowList(list []string) []string {
	out := make([]string, 0, len(list))
	for _, name := range list {
		name = strings.ToLower(strings.TrimSpace(name))
		if name != "" {
			out = append(out, name)
		}
	}
	return out
}
