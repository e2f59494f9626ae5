package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophdisk/internal/flagx"
	"github.com/dmitrijs2005/gophdisk/internal/timex"
)

// JsonConfig is the on-disk form of Config. Durations accept "1s" strings
// or integer nanoseconds.
type JsonConfig struct {
	Address        string         `json:"address"`
	SecretKey      string         `json:"secret_key"`
	TokenTTL       timex.Duration `json:"token_ttl"`
	JobTick        timex.Duration `json:"job_tick"`
	JobStep        int            `json:"job_step"`
	MaxUploadBytes int64          `json:"max_upload_bytes"`
	LogLevel       string         `json:"log_level"`
	Users          string         `json:"users"`
}

// parseJson overlays config with the file named by -c/-config. Zero values
// in the file leave the current setting alone. It panics on read or decode
// errors.
func parseJson(config *Config, args []string) {
	jsonConfigFile := flagx.ConfigPath(args)

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	if c.Address != "" {
		config.Address = c.Address
	}
	if c.SecretKey != "" {
		config.SecretKey = c.SecretKey
	}
	if c.TokenTTL.Duration > 0 {
		config.TokenTTL = c.TokenTTL.Duration
	}
	if c.JobTick.Duration > 0 {
		config.JobTick = c.JobTick.Duration
	}
	if c.JobStep > 0 {
		config.JobStep = c.JobStep
	}
	if c.MaxUploadBytes > 0 {
		config.MaxUploadBytes = c.MaxUploadBytes
	}
	if c.LogLevel != "" {
		config.LogLevel = c.LogLevel
	}
	if c.Users != "" {
		config.Users = c.Users
	}
}
