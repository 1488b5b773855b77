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

// Package config loads service configuration from files and the environment.
package config

import (
	"context"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/carverauto/airwave/pkg/logger"
)

const (
	configSourceFile = "file"
	configSourceEnv  = "env"

	// DefaultEnvPrefix prefixes every environment override, e.g. AIRWAVE_AIRWAVE_ENDPOINT.
	DefaultEnvPrefix = "AIRWAVE_"
)

// Config holds the configuration loading dependencies.
type Config struct {
	defaultLoader ConfigLoader
	envLoader     ConfigLoader
	logger        logger.Logger
}

// NewConfig initializes a new Config instance with a file loader and an
// environment overlay. If log is nil, a disabled logger is used.
func NewConfig(log logger.Logger) *Config {
	if log == nil {
		log = logger.NewNop()
	}

	prefix := os.Getenv("CONFIG_ENV_PREFIX")
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	return &Config{
		defaultLoader: NewFileConfigLoader(log),
		envLoader:     NewEnvConfigLoader(log, prefix),
		logger:        log,
	}
}

// ValidateConfig validates a configuration if it implements Validator.
func ValidateConfig(cfg interface{}) error {
	v, ok := cfg.(Validator)
	if !ok {
		return nil
	}

	return v.Validate()
}

// LoadAndValidate loads a configuration and validates it. With
// CONFIG_SOURCE=file (the default) the file at path is read first and
// environment variables override it; with CONFIG_SOURCE=env only the
// environment is used.
func (c *Config) LoadAndValidate(ctx context.Context, path string, cfg interface{}) error {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return errInvalidConfigPtr
	}

	source := strings.ToLower(os.Getenv("CONFIG_SOURCE"))

	switch source {
	case configSourceFile, "":
		if path != "" {
			if err := c.defaultLoader.Load(ctx, path, cfg); err != nil {
				return err
			}
		}
	case configSourceEnv:
	default:
		return fmt.Errorf("%w: %s (expected '%s' or '%s')",
			errInvalidConfigSource, source, configSourceFile, configSourceEnv)
	}

	if err := c.envLoader.Load(ctx, path, cfg); err != nil {
		return err
	}

	return ValidateConfig(cfg)
}
