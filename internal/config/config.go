package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/alfredjeanlab/standup/internal/convert"
	"github.com/alfredjeanlab/standup/internal/hooks"
	"github.com/alfredjeanlab/standup/internal/stream"
)

// DefaultPath is the config file read when --config is not given.
const DefaultPath = "config.yaml"

type Config struct {
	Streams  StreamsConfig  `yaml:"streams"`
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`

	Members  []string      `yaml:"members"`
	Activity convert.Rules `yaml:"activity"`

	StartWorker  bool `yaml:"start_worker"`
	PullInterval int  `yaml:"pull_interval"` // seconds

	NATSURL  string     `yaml:"nats_url"`  // STANDUP_NATS_URL (optional, empty = no events)
	LogLevel string     `yaml:"log_level"` // STANDUP_LOG_LEVEL
	Sync     SyncConfig `yaml:"sync"`

	Hooks []hooks.Hook `yaml:"hooks"`
}

type StreamsConfig struct {
	URL                  string        `yaml:"url"`
	MaxResults           int           `yaml:"max_results"`
	Username             string        `yaml:"username"`
	Password             string        `yaml:"password"` // STANDUP_STREAMS_PASSWORD
	RootCertificates     []string      `yaml:"root_certificates"`
	HostnameVerification bool          `yaml:"hostname_verification"`
	Timeout              time.Duration `yaml:"timeout"`
	Retries              int           `yaml:"retries"`
}

// DatabaseConfig selects the store: URL for Postgres, Path for SQLite.
type DatabaseConfig struct {
	URL  string `yaml:"url"`  // STANDUP_DATABASE_URL
	Path string `yaml:"path"` // STANDUP_DATABASE_PATH
}

type ServerConfig struct {
	Address   string `yaml:"address"`
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"` // STANDUP_AUTH_TOKEN (optional, empty = auth disabled)
}

type SyncConfig struct {
	Interval   time.Duration `yaml:"interval"`    // STANDUP_SYNC_INTERVAL (0 = disabled)
	S3Bucket   string        `yaml:"s3_bucket"`   // STANDUP_SYNC_S3_BUCKET (enables S3 when set)
	S3Endpoint string        `yaml:"s3_endpoint"` // STANDUP_SYNC_S3_ENDPOINT (custom endpoint for MinIO)
	S3Region   string        `yaml:"s3_region"`   // STANDUP_SYNC_S3_REGION
	S3Key      string        `yaml:"s3_key"`      // STANDUP_SYNC_S3_KEY
	GitRepo    string        `yaml:"git_repo"`    // STANDUP_SYNC_GIT_REPO (enables git when set; path to clone)
	GitFile    string        `yaml:"git_file"`    // STANDUP_SYNC_GIT_FILE
	GitBranch  string        `yaml:"git_branch"`  // STANDUP_SYNC_GIT_BRANCH
}

// Default returns the configuration used for keys the file leaves out.
func Default() *Config {
	return &Config{
		Streams: StreamsConfig{
			MaxResults:           25,
			HostnameVerification: true,
			Timeout:              30 * time.Second,
			Retries:              1,
		},
		Server: ServerConfig{
			Address: "localhost",
			Port:    8080,
		},
		StartWorker:  true,
		PullInterval: 3600,
		LogLevel:     "info",
		Sync: SyncConfig{
			Interval:  3 * time.Minute,
			S3Region:  "us-east-1",
			S3Key:     "standup/entries.jsonl",
			GitFile:   "standup.jsonl",
			GitBranch: "main",
		},
	}
}

// Load reads the YAML file at path, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse is Load without the file read.
func Parse(data []byte) (*Config, error) {
	c := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	c.Database.URL = envOrDefault("STANDUP_DATABASE_URL", c.Database.URL)
	c.Database.Path = envOrDefault("STANDUP_DATABASE_PATH", c.Database.Path)
	c.NATSURL = envOrDefault("STANDUP_NATS_URL", c.NATSURL)
	c.Server.AuthToken = envOrDefault("STANDUP_AUTH_TOKEN", c.Server.AuthToken)
	c.Streams.Password = envOrDefault("STANDUP_STREAMS_PASSWORD", c.Streams.Password)
	c.LogLevel = envOrDefault("STANDUP_LOG_LEVEL", c.LogLevel)

	c.Sync.S3Bucket = envOrDefault("STANDUP_SYNC_S3_BUCKET", c.Sync.S3Bucket)
	c.Sync.S3Endpoint = envOrDefault("STANDUP_SYNC_S3_ENDPOINT", c.Sync.S3Endpoint)
	c.Sync.S3Region = envOrDefault("STANDUP_SYNC_S3_REGION", c.Sync.S3Region)
	c.Sync.S3Key = envOrDefault("STANDUP_SYNC_S3_KEY", c.Sync.S3Key)
	c.Sync.GitRepo = envOrDefault("STANDUP_SYNC_GIT_REPO", c.Sync.GitRepo)
	c.Sync.GitFile = envOrDefault("STANDUP_SYNC_GIT_FILE", c.Sync.GitFile)
	c.Sync.GitBranch = envOrDefault("STANDUP_SYNC_GIT_BRANCH", c.Sync.GitBranch)

	if v := os.Getenv("STANDUP_SYNC_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("STANDUP_SYNC_INTERVAL: %w", err)
		}
		c.Sync.Interval = d
	}

	if v := os.Getenv("STANDUP_HTTP_ADDR"); v != "" {
		host, port, err := net.SplitHostPort(v)
		if err != nil {
			return fmt.Errorf("STANDUP_HTTP_ADDR: %w", err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("STANDUP_HTTP_ADDR: invalid port %q", port)
		}
		c.Server.Address = host
		c.Server.Port = p
	}
	return nil
}

// Validate reports the first missing or inconsistent setting.
func (c *Config) Validate() error {
	if c.Streams.URL == "" {
		return errors.New("streams.url is required")
	}
	if c.Streams.MaxResults <= 0 {
		return errors.New("streams.max_results must be positive")
	}
	if len(c.Members) == 0 {
		return errors.New("members must list at least one member")
	}
	if c.Database.URL == "" && c.Database.Path == "" {
		return errors.New("database.url or database.path is required")
	}
	if c.PullInterval <= 0 {
		return errors.New("pull_interval must be positive")
	}
	if err := c.Activity.Validate(); err != nil {
		return fmt.Errorf("activity: %w", err)
	}
	for i, h := range c.Hooks {
		if err := h.Validate(); err != nil {
			return fmt.Errorf("hooks[%d]: %w", i, err)
		}
	}
	return nil
}

// HTTPAddr is the listen address of the query API.
func (c *Config) HTTPAddr() string {
	return net.JoinHostPort(c.Server.Address, strconv.Itoa(c.Server.Port))
}

// Interval is the pull interval as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.PullInterval) * time.Second
}

// StreamConfig converts the streams section for the feed client.
func (c *Config) StreamConfig() stream.Config {
	return stream.Config{
		URL:                  c.Streams.URL,
		MaxResults:           c.Streams.MaxResults,
		Username:             c.Streams.Username,
		Password:             c.Streams.Password,
		RootCertificates:     c.Streams.RootCertificates,
		HostnameVerification: c.Streams.HostnameVerification,
		Timeout:              c.Streams.Timeout,
		Retries:              c.Streams.Retries,
	}
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
