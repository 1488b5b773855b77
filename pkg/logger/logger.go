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

// Package logger provides JSON structured logging using zerolog
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var globalLogger = Wrap(zerolog.New(os.Stderr).With().Timestamp().Logger())

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
}

// NewLogger builds a Logger from config without touching the global logger.
func NewLogger(config *Config) (Logger, error) {
	return newLogger(config, nil)
}

func newLogger(config *Config, w io.Writer) (Logger, error) {
	if config == nil {
		config = DefaultConfig()
	}

	output := w
	if output == nil {
		output = os.Stderr
		if config.Output == "stdout" {
			output = os.Stdout
		}
	}

	level := zerolog.InfoLevel

	if config.Debug {
		level = zerolog.DebugLevel
	} else if config.Level != "" {
		var err error

		level, err = zerolog.ParseLevel(config.Level)
		if err != nil {
			return nil, err
		}
	}

	if config.TimeFormat != "" {
		zerolog.TimeFieldFormat = config.TimeFormat
	}

	return Wrap(zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()), nil
}

// Init configures and returns the process-wide logger. Only the CLI entrypoint
// calls this; library packages receive a Logger explicitly.
func Init(config *Config) (Logger, error) {
	l, err := NewLogger(config)
	if err != nil {
		return nil, err
	}

	globalLogger = l

	if zl, ok := l.(*zlogger); ok {
		log.Logger = zl.zl
	}

	return l, nil
}

func GetLogger() Logger {
	return globalLogger
}

func WithComponent(component string) Logger {
	return globalLogger.WithComponent(component)
}
