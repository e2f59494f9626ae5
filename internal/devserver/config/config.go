// Package config handles configuration for the development backend,
// including defaults, JSON overlay, and command-line flags.
package config

import (
	"os"
	"time"
)

// Config holds runtime settings for the gophdisk development backend.
//
// Fields:
//   - Address: bind address of the REST API.
//   - SecretKey: HMAC secret for signing session tokens (HS256). Empty
//     means a random key per start, so tokens do not survive a restart.
//   - TokenTTL: session token lifetime.
//   - JobTick / JobStep: how often simulated downloads advance and by how
//     many percent per tick.
//   - MaxUploadBytes: multipart request limit.
//   - Users: comma separated "name:password" accounts created at start.
type Config struct {
	Address        string
	SecretKey      string
	TokenTTL       time.Duration
	JobTick        time.Duration
	JobStep        int
	MaxUploadBytes int64
	LogLevel       string
	Users          string
}

// LoadDefaults populates Config with development defaults.
// NOTE: These values are insecure and meant for local runs only.
func (c *Config) LoadDefaults() {
	c.Address = ":8080"
	c.TokenTTL = 7 * 24 * time.Hour
	c.JobTick = time.Second
	c.JobStep = 10
	c.MaxUploadBytes = 64 << 20
	c.LogLevel = "info"
	c.Users = "demo:demo"
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
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
