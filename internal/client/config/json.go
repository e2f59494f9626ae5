package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/gophdisk/internal/flagx"
	"github.com/dmitrijs2005/gophdisk/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	ServerURL           string         `json:"server_url"`
	PollInterval        timex.Duration `json:"poll_interval"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	DBPath              string         `json:"db_path"`
	MaxPayloadBytes     int64          `json:"max_payload_bytes"`
	DownloadDir         string         `json:"download_dir"`
	LogLevel            string         `json:"log_level"`
	MetricsAddr         string         `json:"metrics_addr"`
	S3Bucket            string         `json:"s3_bucket"`
	S3Region            string         `json:"s3_region"`
	S3Endpoint          string         `json:"s3_endpoint"`
	S3AccessKey         string         `json:"s3_access_key"`
	S3SecretKey         string         `json:"s3_secret_key"`
}

// parseJson overlays cfg with the JSON file named by -c/-config or
// GOPHDISK_CONFIG. It panics on read or unmarshal errors.
func parseJson(cfg *Config, args []string) {
	path := flagx.ConfigPath(args)
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.ServerURL, jc.ServerURL)
	setString(&cfg.DBPath, jc.DBPath)
	setString(&cfg.DownloadDir, jc.DownloadDir)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.MetricsAddr, jc.MetricsAddr)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3Endpoint, jc.S3Endpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	if jc.PollInterval.Duration > 0 {
		cfg.PollInterval = jc.PollInterval.Duration
	}
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.MaxPayloadBytes > 0 {
		cfg.MaxPayloadBytes = jc.MaxPayloadBytes
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
