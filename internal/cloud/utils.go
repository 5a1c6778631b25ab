// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cloud. This file contains the configuration loader.
//
// Configuration is resolved in three layers, later layers winning:
//  1. TOML: a base file (configs/.env.toml) and then a runtime specific file
//     (configs/.env.<runtime>.toml). The directory and runtime come from
//     GCP_CONFIG_PREFIX and GCP_RUNTIME.
//  2. A dotenv file (configs/.env) is loaded into the process environment
//     without replacing variables that are already set.
//  3. Environment variables are parsed into EnvOverrides and applied.
//
// The MinConfidence variable is special: a value that does not parse as a
// number is logged and ignored, leaving the default in place.
package cloud

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	ConfigFileBaseName  = ".env"              // Base name for configuration files (e.g. ".env.toml").
	ConfigFileExtension = ".toml"             // Extension for configuration files.
	ConfigSeparator     = "."                 // Separator in runtime file names (e.g. ".env.local.toml").
	EnvConfigFilePrefix = "GCP_CONFIG_PREFIX" // Directory holding the configuration files.
	EnvConfigRuntime    = "GCP_RUNTIME"       // Runtime name (e.g. "local", "test", "prod").
	EnvMinConfidence    = "MinConfidence"     // Overrides Detection.MinConfidence.
)

// EnvOverrides lists the environment variables that patch the TOML
// configuration. Empty values leave the TOML value untouched.
type EnvOverrides struct {
	MinConfidence     string   `env:"MinConfidence"`
	ProjectID         string   `env:"GOOGLE_CLOUD_PROJECT"`
	AWSRegion         string   `env:"AWS_REGION"`
	LogLevel          string   `env:"LOG_LEVEL"`
	HTTPAddr          string   `env:"HTTP_ADDR"`
	StorageProvider   string   `env:"STORAGE_PROVIDER"`
	DetectionProvider string   `env:"DETECTION_PROVIDER"`
	RecordsProvider   string   `env:"RECORDS_PROVIDER"`
	DatabaseURL       string   `env:"DATABASE_URL"`
	TelemetryExporter string   `env:"TELEMETRY_EXPORTER"`
	KafkaBrokers      []string `env:"KAFKA_BROKERS" envSeparator:","`
}

// fileExists reports whether something exists at path.
func fileExists(in string) bool {
	_, err := os.Stat(in)
	return !errors.Is(err, os.ErrNotExist)
}

// configPrefix returns GCP_CONFIG_PREFIX with a trailing separator.
func configPrefix() string {
	prefix := os.Getenv(EnvConfigFilePrefix)
	if len(prefix) > 0 && !strings.HasSuffix(prefix, string(os.PathSeparator)) {
		prefix = prefix + string(os.PathSeparator)
	}
	return prefix
}

// LoadConfig decodes the base TOML file and then the runtime specific file
// into baseConfig. Missing files are skipped.
//
// Inputs:
//   - baseConfig: A pointer to the struct to populate.
//
// Outputs:
//   - error: A decode error naming the offending file.
func LoadConfig(baseConfig interface{}) error {
	prefix := configPrefix()

	runtimeEnvironment := os.Getenv(EnvConfigRuntime)
	if runtimeEnvironment == "" {
		runtimeEnvironment = "test"
	}

	baseConfigFileName := prefix + ConfigFileBaseName + ConfigFileExtension
	envConfigFileName := prefix + ConfigFileBaseName + ConfigSeparator + runtimeEnvironment + ConfigFileExtension

	if fileExists(baseConfigFileName) {
		if _, err := toml.DecodeFile(baseConfigFileName, baseConfig); err != nil {
			return fmt.Errorf("failed to decode base configuration file %s: %w", baseConfigFileName, err)
		}
	}
	if fileExists(envConfigFileName) {
		if _, err := toml.DecodeFile(envConfigFileName, baseConfig); err != nil {
			return fmt.Errorf("failed to decode environment configuration file %s: %w", envConfigFileName, err)
		}
	}
	return nil
}

// LoadDotEnv loads <prefix>/.env into the environment if it exists.
func LoadDotEnv() error {
	name := configPrefix() + ConfigFileBaseName
	if !fileExists(name) {
		return nil
	}
	if err := godotenv.Load(name); err != nil {
		return fmt.Errorf("failed to load %s: %w", name, err)
	}
	return nil
}

// ResolveMinConfidence parses raw as a confidence value. Blank input returns
// fallback silently; unparseable input returns fallback and logs a warning.
//
// Inputs:
//   - raw: The raw environment value.
//   - fallback: The value to use when raw is blank or invalid.
//
// Outputs:
//   - float32: The resolved minimum confidence.
func ResolveMinConfidence(raw string, fallback float32) float32 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 32)
	if err != nil {
		slog.Warn("invalid MinConfidence, using default",
			slog.String("value", raw),
			slog.Float64("default", float64(fallback)),
			slog.Any("error", err))
		return fallback
	}
	return float32(v)
}

// ApplyEnvironment patches config from the process environment.
func ApplyEnvironment(config *Config) error {
	var overrides EnvOverrides
	if err := env.Parse(&overrides); err != nil {
		return fmt.Errorf("failed to parse environment: %w", err)
	}
	overrides.apply(config)
	return nil
}

func (o EnvOverrides) apply(config *Config) {
	config.Detection.MinConfidence = ResolveMinConfidence(o.MinConfidence, config.Detection.MinConfidence)
	setIfNotEmpty(&config.Application.GoogleProjectId, o.ProjectID)
	setIfNotEmpty(&config.Application.AWSRegion, o.AWSRegion)
	setIfNotEmpty(&config.Application.LogLevel, o.LogLevel)
	setIfNotEmpty(&config.Server.Addr, o.HTTPAddr)
	setIfNotEmpty(&config.Storage.Provider, o.StorageProvider)
	setIfNotEmpty(&config.Detection.Provider, o.DetectionProvider)
	setIfNotEmpty(&config.Records.Provider, o.RecordsProvider)
	setIfNotEmpty(&config.Records.DatabaseURL, o.DatabaseURL)
	setIfNotEmpty(&config.Telemetry.Exporter, o.TelemetryExporter)
	if len(o.KafkaBrokers) > 0 {
		config.Kafka.Brokers = o.KafkaBrokers
	}
}

func setIfNotEmpty(target *string, value string) {
	if value != "" {
		*target = value
	}
}

// Load builds the full configuration: defaults, TOML layers, dotenv, then
// environment overrides.
func Load() (*Config, error) {
	config := NewConfig()
	if err := LoadConfig(config); err != nil {
		return nil, err
	}
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	if err := ApplyEnvironment(config); err != nil {
		return nil, err
	}
	return config, nil
}
