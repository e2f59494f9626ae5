package config

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/gophdisk/internal/flagx"
)

var knownFlags = []string{"-a", "-i", "-t", "-d", "-o", "-l", "-m", "-b"}

// parseFlags populates selected Config fields from command-line flags. Args
// are filtered with flagx.FilterArgs so other loaders' flags do not
// interfere. It panics on malformed values.
func parseFlags(cfg *Config, args []string) {
	fs := flag.NewFlagSet("gophdisk", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerURL, "a", cfg.ServerURL, "storage service base URL")
	fs.DurationVar(&cfg.PollInterval, "i", cfg.PollInterval, "job poll interval")
	fs.DurationVar(&cfg.RequestTimeout, "t", cfg.RequestTimeout, "request timeout")
	fs.StringVar(&cfg.DBPath, "d", cfg.DBPath, "local database path")
	fs.StringVar(&cfg.DownloadDir, "o", cfg.DownloadDir, "download directory")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "metrics listen address")
	fs.StringVar(&cfg.S3Bucket, "b", cfg.S3Bucket, "S3 bucket for saved downloads")

	if err := fs.Parse(flagx.FilterArgs(args, knownFlags)); err != nil {
		panic(err)
	}
}
