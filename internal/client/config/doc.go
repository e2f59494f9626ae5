// Package config loads runtime configuration for the gophdisk CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via -c/-config or the
//     GOPHDISK_CONFIG environment variable.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string     base URL of the storage service
//	-i duration   job poll interval while downloads are active
//	-t duration   per-request timeout
//	-d string     path of the local SQLite database
//	-o string     directory for saved downloads
//	-l string     log level (debug, info, warn, error)
//	-m string     listen address for the Prometheus metrics endpoint
//	-b string     S3 bucket; when set, saved downloads go to S3
//
// # JSON schema
//
// Durations use timex.Duration, so values can be strings like "2s" or
// integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:8080",
//	  "poll_interval": "2s",
//	  "online_check_interval": "10s",
//	  "request_timeout": "30s",
//	  "db_path": "gophdisk.db",
//	  "max_payload_bytes": 268435456,
//	  "download_dir": "downloads",
//	  "log_level": "info",
//	  "metrics_addr": "",
//	  "s3_bucket": "", "s3_region": "us-east-1", "s3_endpoint": "",
//	  "s3_access_key": "", "s3_secret_key": ""
//	}
//
// Only keys present with non-zero values override the defaults.
package config
