package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// DefaultJWTSecret is the development signing secret. Running with it is insecure.
const DefaultJWTSecret = "change_this_secret"

// Config contains server configuration parameters.
type Config struct {
	LogLevel   int      `env:"LOG_LEVEL" envDefault:"0"`
	AdminEmail string   `env:"ADMIN_EMAIL"`
	HTTP       HTTP     `envPrefix:"HTTP_"`
	GRPC       GRPC     `envPrefix:"GRPC_"`
	Database   Database `envPrefix:"DATABASE_"`
	JWT        JWT      `envPrefix:"JWT_"`
	SMTP       SMTP     `envPrefix:"SMTP_"`
	Storage    Storage  `envPrefix:"MINIO_"`
}

// HTTP contains public API listener parameters.
type HTTP struct {
	Addr               string `env:"ADDR" envDefault:":4000"`
	EnableHTTPS        bool   `env:"ENABLE_HTTPS" envDefault:"false"`
	CertFileName       string `env:"CERT_FILE_NAME" envDefault:"cert.pem"`
	PrivateKeyFileName string `env:"PRIVATE_KEY_FILE_NAME" envDefault:"key.pem"`
	BodyLimit          int    `env:"BODY_LIMIT" envDefault:"1048576"`
}

// GRPC contains ops listener parameters.
type GRPC struct {
	Port         string        `env:"PORT" envDefault:"50051"`
	PingInterval time.Duration `env:"PING_INTERVAL" envDefault:"15s"`
}

// Database contains database connection parameters.
// An empty DSN selects the in-memory store.
type Database struct {
	DSN      string `env:"DSN"`
	MaxConns int32  `env:"MAX_CONNS" envDefault:"10"`
}

// JWT contains session token parameters.
type JWT struct {
	Secret  string        `env:"SECRET" envDefault:"change_this_secret"`
	Expires time.Duration `env:"EXPIRES" envDefault:"168h"`
}

// SMTP contains outgoing mail parameters.
type SMTP struct {
	Host string `env:"HOST"`
	Port int    `env:"PORT" envDefault:"587"`
	User string `env:"USER"`
	Pass string `env:"PASS"`
	From string `env:"FROM"`
}

// Enabled reports whether enough is configured to deliver real mail.
func (s SMTP) Enabled() bool {
	return s.Host != "" && s.User != "" && s.Pass != ""
}

// Sender returns the From address, falling back to the SMTP user.
func (s SMTP) Sender() string {
	if s.From != "" {
		return s.From
	}
	return s.User
}

// Storage contains object storage parameters for exports.
// An empty endpoint disables archiving.
type Storage struct {
	Endpoint  string `env:"ENDPOINT"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET_NAME" envDefault:"vverify-exports"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

// Enabled reports whether an object storage endpoint is configured.
func (s Storage) Enabled() bool {
	return s.Endpoint != ""
}

// NewConfig loads configuration from environment variables.
func NewConfig() (*Config, error) {
	cfg := Config{}
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// InsecureSecret reports whether the JWT secret is the development default.
func (c *Config) InsecureSecret() bool {
	return c.JWT.Secret == DefaultJWTSecret
}
