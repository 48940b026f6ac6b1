package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/zeebo/errs"
)

// Error is the class of configuration failures.
var Error = errs.Class("config")

// AWS holds the account-level settings.
type AWS struct {
	Region string `toml:"region"`
}

// Tables names the three DynamoDB tables.
type Tables struct {
	Media         string `toml:"media"`
	Idempotency   string `toml:"idempotency"`
	Subscriptions string `toml:"subscriptions"`
}

// Storage configures the media bucket.
type Storage struct {
	Bucket            string `toml:"bucket"`
	PresignTTLSeconds int    `toml:"presign_ttl_seconds"`
}

// Notifications configures outbound email and the upload topic.
type Notifications struct {
	Sender              string `toml:"sender"`
	TopicARN            string `toml:"topic_arn"`
	StreamARN           string `toml:"stream_arn"`
	PollIntervalSeconds int    `toml:"poll_interval_seconds"`
}

// Idempotency configures the retag replay window.
type Idempotency struct {
	WindowSeconds int `toml:"window_seconds"`
}

// Logging configures log output.
type Logging struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Server configures the local HTTP adapter and CLI.
type Server struct {
	Bind       string `toml:"bind"`
	Store      string `toml:"store"`
	SQLitePath string `toml:"sqlite_path"`
}

// Config is the full set of knobs.
type Config struct {
	AWS           AWS           `toml:"aws"`
	Tables        Tables        `toml:"tables"`
	Storage       Storage       `toml:"storage"`
	Notifications Notifications `toml:"notifications"`
	Idempotency   Idempotency   `toml:"idempotency"`
	Log           Logging       `toml:"log"`
	Server        Server        `toml:"server"`
}

// Load builds a Config from defaults, the TOML file at path (if path is set
// and the file exists) and the environment.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, Error.New("read config: %w", err)
		default:
			if err := toml.Unmarshal(data, &cfg); err != nil {
				return nil, Error.New("parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// PresignTTL returns the upload URL lifetime.
func (c *Config) PresignTTL() time.Duration {
	return time.Duration(c.Storage.PresignTTLSeconds) * time.Second
}

// IdempotencyWindow returns the retag replay window.
func (c *Config) IdempotencyWindow() time.Duration {
	return time.Duration(c.Idempotency.WindowSeconds) * time.Second
}

// PollInterval returns the stream watcher's tick.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Notifications.PollIntervalSeconds) * time.Second
}
