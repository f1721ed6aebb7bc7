package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/contactkeeper/internal/flagx"
)

var serverFlags = []string{"-a", "-d", "-s", "-g", "-t", "-r", "-R", "-l"}

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string   HTTP bind address (e.g. ":8000")
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-g string   JWT signing algorithm (HS256, HS384, HS512)
//	-t int      access token validity, seconds
//	-r int      refresh token validity, seconds
//	-R string   Redis address for login throttling
//	-l string   log level
//
// Args are filtered first so -c / -env-file and test runner flags do not collide.
func parseFlags(config *Config, args []string) error {
	fs := flag.NewFlagSet("server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.SigningAlgorithm, "g", config.SigningAlgorithm, "signing algorithm")

	accessSeconds := fs.Int("t", int(config.AccessTokenValidityDuration.Seconds()), "access token validity (in seconds)")
	refreshSeconds := fs.Int("r", int(config.RefreshTokenValidityDuration.Seconds()), "refresh token validity (in seconds)")

	fs.StringVar(&config.RedisAddr, "R", config.RedisAddr, "redis address")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	if err := fs.Parse(flagx.FilterArgs(args, serverFlags)); err != nil {
		return err
	}

	config.AccessTokenValidityDuration = time.Duration(*accessSeconds) * time.Second
	config.RefreshTokenValidityDuration = time.Duration(*refreshSeconds) * time.Second
	return nil
}
