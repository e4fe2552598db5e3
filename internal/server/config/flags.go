package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/flagx"
)

var flagNames = []string{"-a", "-m", "-D", "-d", "-s", "-j", "-t", "-r", "-P", "-l", "-L", "-f", "-n"}

// parseFlags overlays cfg with the short flags found in args:
//
//	-a string   gRPC bind address (e.g. ":50051")
//	-m string   ops HTTP address for /metrics and /healthz ("" disables)
//	-D string   database driver: pgx, postgres, sqlite
//	-d string   database DSN
//	-s string   JWT HMAC secret key
//	-j string   JWT algorithm: HS256, HS384, HS512
//	-t int      access token lifetime, minutes
//	-r int      refresh token lifetime, days
//	-P string   password hash: argon2id, bcrypt
//	-l string   log level
//	-L string   log backend: slog, zap
//	-f string   log file (rotated daily)
//	-n int      snowflake node ID
//
// Other arguments are filtered out first, so -c/-config never collide.
func parseFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("authkeeper", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.EndpointAddrGRPC, "a", cfg.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "ops HTTP address")
	fs.StringVar(&cfg.DatabaseDriver, "D", cfg.DatabaseDriver, "database driver")
	fs.StringVar(&cfg.DatabaseDSN, "d", cfg.DatabaseDSN, "database DSN")
	fs.StringVar(&cfg.SecretKey, "s", cfg.SecretKey, "secret key")
	fs.StringVar(&cfg.SigningAlgorithm, "j", cfg.SigningAlgorithm, "JWT signing algorithm")
	accessMinutes := fs.Int64("t", int64(cfg.AccessTokenTTL/time.Minute), "access token lifetime (in minutes)")
	refreshDays := fs.Int64("r", int64(cfg.RefreshTokenTTL/(24*time.Hour)), "refresh token lifetime (in days)")
	fs.StringVar(&cfg.PasswordAlgorithm, "P", cfg.PasswordAlgorithm, "password hash algorithm")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fs.StringVar(&cfg.LogBackend, "L", cfg.LogBackend, "log backend")
	fs.StringVar(&cfg.LogFile, "f", cfg.LogFile, "log file")
	fs.Int64Var(&cfg.SnowflakeNode, "n", cfg.SnowflakeNode, "snowflake node ID")

	if err := fs.Parse(flagx.FilterArgs(args, flagNames)); err != nil {
		return err
	}

	// only touch the durations when the flag was given, so sub-unit values
	// from files survive
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "t":
			cfg.AccessTokenTTL = time.Duration(*accessMinutes) * time.Minute
		case "r":
			cfg.RefreshTokenTTL = time.Duration(*refreshDays) * 24 * time.Hour
		}
	})
	return nil
}
