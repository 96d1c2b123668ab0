package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/calckeeper/internal/flagx"
)

var serverFlags = []string{"-a", "-m", "-d", "-s", "-k", "-t", "-r", "-w", "-q", "-l", "-u", "-p", "-b", "-g", "-e"}

// parseFlags overlays command-line flags onto config.
//
//	-a string   REST bind address (":8000")
//	-m string   gRPC health bind address (":50051", empty disables)
//	-d string   database DSN, or memory://
//	-s string   access token secret
//	-k string   refresh token secret
//	-t int      access token validity, minutes
//	-r int      refresh token validity, minutes
//	-w int      bcrypt cost
//	-q int      statement timeout, milliseconds
//	-l string   log level (debug|info|warn|error)
//	-u -p -b -g -e   S3 user, password, bucket, region, endpoint
//
// Unknown arguments are filtered out first so -c/-config and anything
// else in os.Args do not trip the parser.
func parseFlags(config *Config, args []string) error {
	args = flagx.FilterArgs(args, serverFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.HealthAddr, "m", config.HealthAddr, "address and port of the gRPC health endpoint")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.RefreshSecretKey, "k", config.RefreshSecretKey, "refresh token secret key")

	accessMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	refreshMinutes := fs.Int("r", int(config.RefreshTokenValidityDuration.Minutes()), "refresh token validity (in minutes)")
	fs.IntVar(&config.BcryptCost, "w", config.BcryptCost, "bcrypt cost")
	timeoutMillis := fs.Int("q", int(config.StatementTimeout.Milliseconds()), "statement timeout (in milliseconds)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Durations are only touched when given explicitly, so values such as
	// "90s" from JSON or env survive the round trip through whole minutes.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			config.AccessTokenValidityDuration = time.Duration(*accessMinutes) * time.Minute
		case "r":
			config.RefreshTokenValidityDuration = time.Duration(*refreshMinutes) * time.Minute
		case "q":
			config.StatementTimeout = time.Duration(*timeoutMillis) * time.Millisecond
		}
	})
	return nil
}
