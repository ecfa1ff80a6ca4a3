package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

const envPrefix = "assembly"

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string `yaml:"serviceName" split_words:"true"`
	HTTPPort    string `yaml:"httpPort" split_words:"true"`
	Debug       bool   `yaml:"debug"`

	Database      DatabaseConfig      `yaml:"database"`
	NATS          NATSConfig          `yaml:"nats"`
	Artifacts     ArtifactsConfig     `yaml:"artifacts"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Auth          AuthConfig          `yaml:"auth"`
	Delegation    DelegationConfig    `yaml:"delegation"`
	Quorum        QuorumConfig        `yaml:"quorum"`
	Telemetry     TelemetryConfig     `yaml:"telemetry"`
	Worker        WorkerConfig        `yaml:"worker"`
}

type DatabaseConfig struct {
	// Driver is postgres or sqlite.
	Driver      string `yaml:"driver"`
	DSN         string `yaml:"dsn"`
	AutoMigrate bool   `yaml:"autoMigrate" split_words:"true"`
}

type NATSConfig struct {
	// URL empty selects the in-process bus.
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subjectPrefix" split_words:"true"`
}

type ArtifactsConfig struct {
	// Backend is memory, gcs, or s3.
	Backend         string `yaml:"backend"`
	Bucket          string `yaml:"bucket"`
	Prefix          string `yaml:"prefix"`
	Region          string `yaml:"region"`
	CredentialsFile string `yaml:"credentialsFile" split_words:"true"`
}

type NotificationsConfig struct {
	// WebhookURL empty logs notifications instead of delivering them.
	WebhookURL   string        `yaml:"webhookUrl" split_words:"true"`
	WebhookToken string        `yaml:"webhookToken" split_words:"true"`
	RetryMax     int           `yaml:"retryMax" split_words:"true"`
	Timeout      time.Duration `yaml:"timeout"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwtSecret" split_words:"true"`
	JWTIssuer string `yaml:"jwtIssuer" split_words:"true"`
	// AllowHeaderActor accepts X-User-Id when no bearer token is sent.
	AllowHeaderActor bool `yaml:"allowHeaderActor" split_words:"true"`
}

type DelegationConfig struct {
	OTPTTL         time.Duration `yaml:"otpTtl" envconfig:"OTP_TTL"`
	MaxOTPAttempts int           `yaml:"maxOtpAttempts" split_words:"true"`
}

type QuorumConfig struct {
	CacheTTL time.Duration `yaml:"cacheTtl" split_words:"true"`
}

type TelemetryConfig struct {
	OTLPEndpoint string  `yaml:"otlpEndpoint" split_words:"true"`
	Stdout       bool    `yaml:"stdout"`
	SampleRatio  float64 `yaml:"sampleRatio" split_words:"true"`
}

type WorkerConfig struct {
	PollInterval time.Duration `yaml:"pollInterval" split_words:"true"`
	BatchSize    int           `yaml:"batchSize" split_words:"true"`
	DedupTTL     time.Duration `yaml:"dedupTtl" split_words:"true"`
}

func defaults() Config {
	return Config{
		ServiceName: "assembly",
		HTTPPort:    "8080",
		Database: DatabaseConfig{
			Driver: "postgres",
		},
		NATS: NATSConfig{
			SubjectPrefix: "assembly",
		},
		Artifacts: ArtifactsConfig{
			Backend: "memory",
		},
		Notifications: NotificationsConfig{
			RetryMax: 3,
			Timeout:  10 * time.Second,
		},
		Delegation: DelegationConfig{
			OTPTTL:         30 * time.Minute,
			MaxOTPAttempts: 5,
		},
		Quorum: QuorumConfig{
			CacheTTL: 5 * time.Second,
		},
		Telemetry: TelemetryConfig{
			SampleRatio: 1,
		},
		Worker: WorkerConfig{
			PollInterval: 2 * time.Second,
			BatchSize:    100,
			DedupTTL:     7 * 24 * time.Hour,
		},
	}
}

// Load applies defaults, then the optional YAML file at path, then
// ASSEMBLY_* environment variables.
func Load(path string) (Config, error) {
	cfg := defaults()
	if path = strings.TrimSpace(path); path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid database driver %q (must be postgres or sqlite)", c.Database.Driver)
	}
	switch c.Artifacts.Backend {
	case "memory":
	case "gcs", "s3":
		if strings.TrimSpace(c.Artifacts.Bucket) == "" {
			return fmt.Errorf("artifacts bucket is required for backend %q", c.Artifacts.Backend)
		}
	default:
		return fmt.Errorf("invalid artifacts backend %q (must be memory, gcs, or s3)", c.Artifacts.Backend)
	}
	if c.Delegation.OTPTTL <= 0 {
		return errors.New("delegation otp ttl must be positive")
	}
	if c.Delegation.MaxOTPAttempts <= 0 {
		return errors.New("delegation max otp attempts must be positive")
	}
	return nil
}
