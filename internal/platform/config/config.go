package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"courtbridge/pkg/domain"
)

// Config aggregates per-subsystem configuration so main stays lean.
type Config struct {
	Server ServerConfig
	Log    LogConfig
	Police PoliceConfig
	Blob   BlobConfig
	Audit  AuditConfig
	Redis  RedisConfig
}

// ServerConfig captures HTTP server level configuration.
type ServerConfig struct {
	Addr string
}

type LogConfig struct {
	Level  string // DEBUG, INFO, WARN, ERROR
	Format string // json, text
}

// PoliceConfig configures the X-Road transport towards the police registry.
type PoliceConfig struct {
	// XRoadBasePath is the security-server base, e.g. "http://securityserver.gov.local".
	XRoadBasePath string
	// XRoadMemberClass and MemberCode identify the counterpart service on the
	// federated registry, e.g. "GOV" / "10005".
	XRoadMemberClass string
	MemberCode       string
	// APIPath is the counterpart's API path segment, e.g. "api/Rettarvarsla".
	APIPath string

	// XRoadClientID is sent as the X-Road-Client header on every call.
	XRoadClientID string
	APIKey        string

	// Mutual-TLS material. All three must be set together; empty means a
	// plain client (local development only).
	TLSCertFile string
	TLSKeyFile  string
	TLSCAFile   string

	// Available gates every outbound call. Set once at load time; an external
	// health collaborator would own runtime transitions.
	Available bool

	// Version selects the document-content protocol generation.
	Version domain.APIVersion

	// RequestTimeout bounds each upstream call. Zero means no timeout, which
	// matches the historical behavior of the integration.
	RequestTimeout time.Duration
}

// BlobConfig configures the S3-compatible object store for case documents.
type BlobConfig struct {
	Endpoint  string // empty for real AWS
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
}

// AuditConfig selects where audit events land.
type AuditConfig struct {
	PostgresURL  string // empty disables the Postgres store
	KafkaBrokers string // comma-separated; empty disables the Kafka store
	KafkaTopic   string
	BufferSize   int
}

type RedisConfig struct {
	URL        string // empty disables the listing cache
	ListingTTL time.Duration
}

// FromEnv builds the full configuration from environment variables.
// Malformed values are a startup-time fatal condition, surfaced as an error
// for main to act on.
func FromEnv() (Config, error) {
	cfg := Config{
		Server: ServerConfig{
			Addr: getenv("COURTBRIDGE_ADDR", ":8080"),
		},
		Log: LogConfig{
			Level:  getenv("LOG_LEVEL", "INFO"),
			Format: getenv("LOG_FORMAT", "json"),
		},
		Police: PoliceConfig{
			XRoadBasePath:    os.Getenv("XROAD_BASE_PATH"),
			XRoadMemberClass: getenv("XROAD_MEMBER_CLASS", "GOV"),
			MemberCode:       os.Getenv("POLICE_MEMBER_CODE"),
			APIPath:          os.Getenv("POLICE_API_PATH"),
			XRoadClientID:    os.Getenv("XROAD_CLIENT_ID"),
			APIKey:           os.Getenv("POLICE_API_KEY"),
			TLSCertFile:      os.Getenv("XROAD_TLS_CERT_FILE"),
			TLSKeyFile:       os.Getenv("XROAD_TLS_KEY_FILE"),
			TLSCAFile:        os.Getenv("XROAD_TLS_CA_FILE"),
		},
		Blob: BlobConfig{
			Endpoint:  os.Getenv("BLOB_ENDPOINT"),
			Region:    getenv("BLOB_REGION", "eu-west-1"),
			Bucket:    os.Getenv("BLOB_BUCKET"),
			AccessKey: os.Getenv("BLOB_ACCESS_KEY"),
			SecretKey: os.Getenv("BLOB_SECRET_KEY"),
		},
		Audit: AuditConfig{
			PostgresURL:  os.Getenv("AUDIT_POSTGRES_URL"),
			KafkaBrokers: os.Getenv("AUDIT_KAFKA_BROKERS"),
			KafkaTopic:   getenv("AUDIT_KAFKA_TOPIC", "courtbridge.audit"),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
	}

	var err error
	if cfg.Police.Available, err = getenvBool("POLICE_SERVICE_AVAILABLE", false); err != nil {
		return Config{}, err
	}
	if cfg.Police.RequestTimeout, err = getenvDuration("POLICE_REQUEST_TIMEOUT", 0); err != nil {
		return Config{}, err
	}
	if cfg.Redis.ListingTTL, err = getenvDuration("POLICE_LISTING_CACHE_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.Audit.BufferSize, err = getenvInt("AUDIT_BUFFER_SIZE", 256); err != nil {
		return Config{}, err
	}

	if cfg.Police.Version, err = domain.ParseAPIVersion(getenv("POLICE_API_VERSION", "v2")); err != nil {
		return Config{}, fmt.Errorf("POLICE_API_VERSION: %w", err)
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}

func getenvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}
