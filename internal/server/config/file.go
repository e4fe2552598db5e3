package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors Config for JSON and YAML files. Pointer fields let a
// file override only the keys it mentions.
type fileConfig struct {
	EndpointAddrGRPC         *string `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	MetricsAddr              *string `json:"metrics_addr" yaml:"metrics_addr"`
	DatabaseDriver           *string `json:"database_driver" yaml:"database_driver"`
	DatabaseDSN              *string `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                *string `json:"secret_key" yaml:"secret_key"`
	SigningAlgorithm         *string `json:"algorithm" yaml:"algorithm"`
	AccessTokenExpireMinutes *int    `json:"access_token_expire_minutes" yaml:"access_token_expire_minutes"`
	RefreshTokenExpireDays   *int    `json:"refresh_token_expire_days" yaml:"refresh_token_expire_days"`
	PasswordAlgorithm        *string `json:"password_algorithm" yaml:"password_algorithm"`
	LogLevel                 *string `json:"log_level" yaml:"log_level"`
	LogBackend               *string `json:"log_backend" yaml:"log_backend"`
	LogFile                  *string `json:"log_file" yaml:"log_file"`
	SnowflakeNode            *int64  `json:"snowflake_node" yaml:"snowflake_node"`
	SuperuserEmail           *string `json:"superuser_email" yaml:"superuser_email"`
	SuperuserPassword        *string `json:"superuser_password" yaml:"superuser_password"`
	SuperuserName            *string `json:"superuser_name" yaml:"superuser_name"`
}

// parseFile overlays cfg with the file at path. Files ending in .yaml or
// .yml are read as YAML, everything else as JSON.
func parseFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	fc := &fileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, fc)
	default:
		err = json.Unmarshal(data, fc)
	}
	if err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	fc.apply(cfg)
	return nil
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (fc *fileConfig) apply(cfg *Config) {
	set(&cfg.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	set(&cfg.MetricsAddr, fc.MetricsAddr)
	set(&cfg.DatabaseDriver, fc.DatabaseDriver)
	set(&cfg.DatabaseDSN, fc.DatabaseDSN)
	set(&cfg.SecretKey, fc.SecretKey)
	set(&cfg.SigningAlgorithm, fc.SigningAlgorithm)
	set(&cfg.PasswordAlgorithm, fc.PasswordAlgorithm)
	set(&cfg.LogLevel, fc.LogLevel)
	set(&cfg.LogBackend, fc.LogBackend)
	set(&cfg.LogFile, fc.LogFile)
	set(&cfg.SnowflakeNode, fc.SnowflakeNode)
	set(&cfg.SuperuserEmail, fc.SuperuserEmail)
	set(&cfg.SuperuserPassword, fc.SuperuserPassword)
	set(&cfg.SuperuserName, fc.SuperuserName)

	if fc.AccessTokenExpireMinutes != nil {
		cfg.AccessTokenTTL = time.Duration(*fc.AccessTokenExpireMinutes) * time.Minute
	}
	if fc.RefreshTokenExpireDays != nil {
		cfg.RefreshTokenTTL = time.Duration(*fc.RefreshTokenExpireDays) * 24 * time.Hour
	}
}
