package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	EnvEmail    = "FELLOW_EMAIL"
	EnvPassword = "FELLOW_PASSWORD"
	EnvBaseURL  = "FELLOW_BASE_URL"

	EnvLogLevel  = "FELLOW_LOG_LEVEL"
	EnvLogFormat = "FELLOW_LOG_FORMAT"

	EnvMQTTBroker      = "FELLOW_MQTT_BROKER"
	EnvMQTTUsername    = "FELLOW_MQTT_USERNAME"
	EnvMQTTPassword    = "FELLOW_MQTT_PASSWORD"
	EnvMQTTTopicPrefix = "FELLOW_MQTT_TOPIC_PREFIX"
	EnvMQTTClientID    = "FELLOW_MQTT_CLIENT_ID"

	EnvBlobEndpoint      = "FELLOW_BLOB_ENDPOINT"
	EnvBlobBucket        = "FELLOW_BLOB_BUCKET"
	EnvBlobPrefix        = "FELLOW_BLOB_PREFIX"
	EnvBlobRegion        = "FELLOW_BLOB_REGION"
	EnvBlobAccessKeyFile = "FELLOW_BLOB_ACCESS_KEY_FILE"
	EnvBlobSecretKeyFile = "FELLOW_BLOB_SECRET_KEY_FILE"
)

const (
	DefaultLogLevel        = "warn"
	DefaultLogFormat       = "text"
	DefaultMQTTTopicPrefix = "fellow"
	DefaultMQTTClientID    = "aiden-cli"
	DefaultBlobPrefix      = "fellow/profiles"
)

// ErrMissingCredentials is returned when the account email or password is
// not set.
var ErrMissingCredentials = errors.New("missing credentials: set FELLOW_EMAIL and FELLOW_PASSWORD environment variables")

// Config is everything the CLI reads from its environment.
type Config struct {
	Fellow FellowConfig
	Log    LogConfig

	// MQTT and Blob are nil unless their endpoint variables are set.
	MQTT *MQTTConfig
	Blob *BlobConfig
}

type FellowConfig struct {
	BaseURL  string
	Email    string
	Password string
}

type LogConfig struct {
	Level  string
	Format string
}

type MQTTConfig struct {
	Broker      string
	Username    string
	Password    string
	TopicPrefix string
	ClientID    string
}

type BlobConfig struct {
	Endpoint      string
	Bucket        string
	Prefix        string
	Region        string
	AccessKeyFile string
	SecretKeyFile string
}

// Load reads the environment through getenv, applies defaults, and
// validates the optional sections. Missing credentials are reported by
// RequireCredentials, not by Load.
func Load(getenv func(string) string) (*Config, error) {
	env := func(key string) string {
		return strings.TrimSpace(getenv(key))
	}

	cfg := &Config{
		Fellow: FellowConfig{
			BaseURL:  env(EnvBaseURL),
			Email:    env(EnvEmail),
			Password: getenv(EnvPassword),
		},
		Log: LogConfig{
			Level:  strings.ToLower(env(EnvLogLevel)),
			Format: strings.ToLower(env(EnvLogFormat)),
		},
	}

	if broker := env(EnvMQTTBroker); broker != "" {
		cfg.MQTT = &MQTTConfig{
			Broker:      broker,
			Username:    env(EnvMQTTUsername),
			Password:    getenv(EnvMQTTPassword),
			TopicPrefix: env(EnvMQTTTopicPrefix),
			ClientID:    env(EnvMQTTClientID),
		}
	}

	if endpoint, bucket := env(EnvBlobEndpoint), env(EnvBlobBucket); endpoint != "" || bucket != "" {
		cfg.Blob = &BlobConfig{
			Endpoint:      endpoint,
			Bucket:        bucket,
			Prefix:        env(EnvBlobPrefix),
			Region:        env(EnvBlobRegion),
			AccessKeyFile: env(EnvBlobAccessKeyFile),
			SecretKeyFile: env(EnvBlobSecretKeyFile),
		}
	}

	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.MQTT != nil {
		if cfg.MQTT.TopicPrefix == "" {
			cfg.MQTT.TopicPrefix = DefaultMQTTTopicPrefix
		}
		cfg.MQTT.TopicPrefix = strings.Trim(cfg.MQTT.TopicPrefix, "/")
		if cfg.MQTT.ClientID == "" {
			cfg.MQTT.ClientID = DefaultMQTTClientID
		}
	}
	if cfg.Blob != nil && cfg.Blob.Prefix == "" {
		cfg.Blob.Prefix = DefaultBlobPrefix
	}
}

// Validate enforces invariants of the optional sections.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	switch cfg.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%s must be one of debug, info, warn, error", EnvLogLevel)
	}
	switch cfg.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%s must be text or json", EnvLogFormat)
	}

	if cfg.Fellow.BaseURL != "" {
		if u, err := url.Parse(cfg.Fellow.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL", EnvBaseURL)
		}
	}

	if cfg.MQTT != nil {
		u, err := url.Parse(cfg.MQTT.Broker)
		if err != nil || u.Host == "" {
			return fmt.Errorf("%s must look like tcp://host:1883", EnvMQTTBroker)
		}
		switch u.Scheme {
		case "tcp", "ssl", "tls", "ws", "wss", "mqtt", "mqtts":
		default:
			return fmt.Errorf("%s has unsupported scheme %q", EnvMQTTBroker, u.Scheme)
		}
	}

	if cfg.Blob != nil {
		if cfg.Blob.Endpoint == "" {
			return fmt.Errorf("%s is required", EnvBlobEndpoint)
		}
		if cfg.Blob.Bucket == "" {
			return fmt.Errorf("%s is required", EnvBlobBucket)
		}
		if cfg.Blob.AccessKeyFile == "" {
			return fmt.Errorf("%s is required", EnvBlobAccessKeyFile)
		}
		if cfg.Blob.SecretKeyFile == "" {
			return fmt.Errorf("%s is required", EnvBlobSecretKeyFile)
		}
	}

	return nil
}

// RequireCredentials returns ErrMissingCredentials unless both the account
// email and password are present.
func (c *Config) RequireCredentials() error {
	if c.Fellow.Email == "" || c.Fellow.Password == "" {
		return ErrMissingCredentials
	}
	return nil
}
