//-------------------------------------------------------------------------
//
// pgEdge Warehouse Loader
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for pgedge-dwhload.
// Configuration is loaded from config files and CLI flags (no environment variables).
// CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Dialect names understood by the warehouse registry.
const (
	DialectRedshift = "redshift"
	DialectPostgres = "postgres"
)

// Config holds all configuration for pgedge-dwhload.
type Config struct {
	// Dialect selects the SQL flavour of the target warehouse.
	Dialect string `mapstructure:"dialect"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Connection is a raw PostgreSQL connection string. When set it takes
	// precedence over the Cluster section.
	Connection string `mapstructure:"connection"`

	// Atomic wraps each step's statements in a single transaction instead
	// of committing after every statement.
	Atomic bool `mapstructure:"atomic"`

	// StatementTimeout is sent as the session statement_timeout (0 = none).
	StatementTimeout time.Duration `mapstructure:"statement_timeout"`

	Cluster ClusterConfig `mapstructure:"cluster"`
	AWS     AWSConfig     `mapstructure:"aws"`
	IAM     IAMConfig     `mapstructure:"iam"`
	S3      S3Config      `mapstructure:"s3"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ClusterConfig holds the warehouse endpoint and credentials.
type ClusterConfig struct {
	Host     string `mapstructure:"host"`
	DBName   string `mapstructure:"db_name"`
	User     string `mapstructure:"db_user"`
	Password string `mapstructure:"db_password"`
	Port     int    `mapstructure:"db_port"`

	// SSLMode is passed through as the sslmode connection parameter.
	SSLMode string `mapstructure:"sslmode"`
}

// AWSConfig holds static access keys for reading and writing object
// storage from the client. Empty keys fall back to the default AWS
// credential chain.
type AWSConfig struct {
	Key    string `mapstructure:"key"`
	Secret string `mapstructure:"secret"`
}

// IAMConfig holds the role the warehouse assumes to read object storage.
type IAMConfig struct {
	Role string `mapstructure:"iam_role"`
}

// S3Config holds the source locations for the bulk loads.
type S3Config struct {
	// LogData is the location of the event log objects.
	LogData string `mapstructure:"log_data"`

	// LogJSONPath is the JSONPaths descriptor for the event logs.
	// Empty means the columns are matched automatically.
	LogJSONPath string `mapstructure:"log_jsonpath"`

	// SongData is the location of the song catalog objects.
	SongData string `mapstructure:"song_data"`

	// Region of the bucket, added to COPY statements and the S3 client.
	Region string `mapstructure:"region"`

	// Endpoint overrides the S3 endpoint (e.g. MinIO) for client-side loads.
	Endpoint string `mapstructure:"endpoint"`
}

// MetricsConfig controls pushing run metrics to a Prometheus Pushgateway.
type MetricsConfig struct {
	PushgatewayURL string `mapstructure:"pushgateway_url"`
	Job            string `mapstructure:"job"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		Dialect:  DialectRedshift,
		LogLevel: "info",
		Cluster: ClusterConfig{
			Port: 5439,
		},
		Metrics: MetricsConfig{
			Job: "pgedge-dwhload",
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./pgedge-dwhload.yaml
// 3. ~/.config/pgedge-dwhload/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("pgedge-dwhload")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "pgedge-dwhload"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	cfg.normalize()
	return cfg, nil
}

// normalize strips the single quotes that dwh.cfg-style values carry.
func (c *Config) normalize() {
	for _, s := range []*string{
		&c.Connection,
		&c.Cluster.Host, &c.Cluster.DBName, &c.Cluster.User, &c.Cluster.Password,
		&c.AWS.Key, &c.AWS.Secret,
		&c.IAM.Role,
		&c.S3.LogData, &c.S3.LogJSONPath, &c.S3.SongData, &c.S3.Region, &c.S3.Endpoint,
	} {
		*s = Unquote(*s)
	}
	c.Dialect = strings.ToLower(strings.TrimSpace(c.Dialect))
}

// Unquote removes one pair of matching surrounding quotes and whitespace.
func Unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if (first == '\'' || first == '"') && first == last {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// ConnString returns the connection string for the warehouse.
func (c *Config) ConnString() string {
	if c.Connection != "" {
		return c.Connection
	}

	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Cluster.Host, strconv.Itoa(c.Cluster.Port)),
		Path:   "/" + c.Cluster.DBName,
	}
	if c.Cluster.Password != "" {
		u.User = url.UserPassword(c.Cluster.User, c.Cluster.Password)
	} else {
		u.User = url.User(c.Cluster.User)
	}
	if c.Cluster.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", c.Cluster.SSLMode)
		u.RawQuery = q.Encode()
	}
	return u.String()
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Dialect == "" {
		return fmt.Errorf("dialect is required")
	}
	if c.StatementTimeout < 0 {
		return fmt.Errorf("statement_timeout must be non-negative")
	}
	if c.Connection != "" {
		return nil
	}
	if c.Cluster.Host == "" {
		return fmt.Errorf("cluster host is required")
	}
	if c.Cluster.DBName == "" {
		return fmt.Errorf("cluster db_name is required")
	}
	if c.Cluster.User == "" {
		return fmt.Errorf("cluster db_user is required")
	}
	if c.Cluster.Port < 1 || c.Cluster.Port > 65535 {
		return fmt.Errorf("cluster db_port must be between 1 and 65535")
	}
	return nil
}

// ValidateReset checks configuration required for the reset command.
func (c *Config) ValidateReset() error {
	return c.Validate()
}

// ValidateETL checks configuration required for the etl command. Source
// locations are only needed when the load step runs.
func (c *Config) ValidateETL(load bool) error {
	if err := c.Validate(); err != nil {
		return err
	}
	if !load {
		return nil
	}
	if c.S3.LogData == "" {
		return fmt.Errorf("s3 log_data is required")
	}
	if c.S3.SongData == "" {
		return fmt.Errorf("s3 song_data is required")
	}
	if c.Dialect == DialectRedshift && c.IAM.Role == "" {
		return fmt.Errorf("iam role is required for the redshift dialect")
	}
	if (c.AWS.Key == "") != (c.AWS.Secret == "") {
		return fmt.Errorf("aws key and secret must be set together")
	}
	return nil
}
