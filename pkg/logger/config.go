/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */


package logger

import (
	"os"
	"strconv"
)

const envPrefix = "AIRWAVE_"

// Config controls level, destination and timestamp format of the logger.
type Config struct {
	Level      string `json:"level" yaml:"level"`
	Debug      bool   `json:"debug" yaml:"debug"`
	Output     string `json:"output" yaml:"output"` // "stdout" or "stderr"
	TimeFormat string `json:"time_format" yaml:"time_format"`
}

// DefaultConfig reads LOG_LEVEL, LOG_DEBUG, LOG_OUTPUT and LOG_TIME_FORMAT,
// preferring the AIRWAVE_ prefixed variants. Logs go to stderr so stdout
// stays clean for command output.
func DefaultConfig() *Config {
	cfg := &Config{
		Level:      lookupEnv("LOG_LEVEL", "info"),
		Output:     lookupEnv("LOG_OUTPUT", "stderr"),
		TimeFormat: lookupEnv("LOG_TIME_FORMAT", ""),
	}

	if debug, err := strconv.ParseBool(lookupEnv("LOG_DEBUG", "")); err == nil {
		cfg.Debug = debug
	}

	return cfg
}

func lookupEnv(key, fallback string) string {
	for _, name := range []string{envPrefix + key, key} {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			return v
		}
	}

	return fallback
}

// InitWithDefaults initializes the global logger from DefaultConfig.
func InitWithDefaults() (Logger, error) {
	return Init(DefaultConfig())
}
