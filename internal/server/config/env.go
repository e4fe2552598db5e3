package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix starts every environment variable read by the server.
const EnvPrefix = "AUTHKEEPER_"

// parseEnv loads envFile when it exists (without overriding variables that
// are already set) and then overlays cfg with AUTHKEEPER_* variables.
func parseEnv(cfg *Config, envFile string) error {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	str := map[string]*string{
		"ENDPOINT_ADDR_GRPC": &cfg.EndpointAddrGRPC,
		"METRICS_ADDR":       &cfg.MetricsAddr,
		"DATABASE_DRIVER":    &cfg.DatabaseDriver,
		"DATABASE_DSN":       &cfg.DatabaseDSN,
		"SECRET_KEY":         &cfg.SecretKey,
		"ALGORITHM":          &cfg.SigningAlgorithm,
		"PASSWORD_ALGORITHM": &cfg.PasswordAlgorithm,
		"LOG_LEVEL":          &cfg.LogLevel,
		"LOG_BACKEND":        &cfg.LogBackend,
		"LOG_FILE":           &cfg.LogFile,
		"SUPERUSER_EMAIL":    &cfg.SuperuserEmail,
		"SUPERUSER_PASSWORD": &cfg.SuperuserPassword,
		"SUPERUSER_NAME":     &cfg.SuperuserName,
	}
	for key, dst := range str {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	ints := []struct {
		key   string
		apply func(n int64)
	}{
		{"ACCESS_TOKEN_EXPIRE_MINUTES", func(n int64) { cfg.AccessTokenTTL = time.Duration(n) * time.Minute }},
		{"REFRESH_TOKEN_EXPIRE_DAYS", func(n int64) { cfg.RefreshTokenTTL = time.Duration(n) * 24 * time.Hour }},
		{"SNOWFLAKE_NODE", func(n int64) { cfg.SnowflakeNode = n }},
	}
	for _, it := range ints {
		v, ok := os.LookupEnv(EnvPrefix + it.key)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, it.key, err)
		}
		it.apply(n)
	}
	return nil
}
