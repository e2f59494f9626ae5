package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the gophdisk CLI.
type Config struct {
	ServerURL    string
	PollInterval time.Duration
	// OnlineCheckInterval is how often the CLI probes server reachability.
	OnlineCheckInterval time.Duration
	RequestTimeout      time.Duration
	DBPath              string
	MaxPayloadBytes     int64
	DownloadDir         string
	LogLevel            string
	MetricsAddr         string

	S3Bucket    string
	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.PollInterval = 2 * time.Second
	c.OnlineCheckInterval = 10 * time.Second
	c.RequestTimeout = 30 * time.Second
	c.DBPath = "gophdisk.db"
	c.MaxPayloadBytes = 256 << 20
	c.DownloadDir = "downloads"
	c.LogLevel = "info"
	c.S3Region = "us-east-1"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	return load(os.Args[1:])
}

func load(args []string) *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg, args)
	parseFlags(cfg, args)
	return cfg
}
