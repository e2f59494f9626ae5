package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/gophdisk/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   bind address (e.g., ":8080")
//	-s string   JWT HMAC secret key
//	-t int      session token validity, hours
//	-j duration simulated job tick
//	-p int      progress percent per tick
//	-l string   log level
//	-u string   seeded accounts, "name:password,..."
func parseFlags(config *Config, args []string) {
	args = flagx.FilterArgs(args, []string{"-a", "-s", "-t", "-j", "-p", "-l", "-u"})

	fs := flag.NewFlagSet("devserver", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.Address, "a", config.Address, "address and port to run server")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenTTL := fs.Int("t", int(config.TokenTTL.Hours()), "token validity (in hours)")
	fs.DurationVar(&config.JobTick, "j", config.JobTick, "job tick")
	fs.IntVar(&config.JobStep, "p", config.JobStep, "progress per tick")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")
	fs.StringVar(&config.Users, "u", config.Users, "seeded users")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.TokenTTL = time.Duration(*tokenTTL) * time.Hour
}
