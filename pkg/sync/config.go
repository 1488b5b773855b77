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

package sync

import (
	"strings"
	"time"

	"github.com/carverauto/airwave/pkg/logger"
	"github.com/carverauto/airwave/pkg/models"
)

const (
	defaultPollInterval   = 15 * time.Minute
	defaultAirwaveTimeout = 30 * time.Second
	defaultDNSTimeout     = 3 * time.Second
)

// Config is the top-level configuration of the inventory service.
type Config struct {
	Airwave      models.AirwaveConfig `json:"airwave" yaml:"airwave"`
	DNS          models.DNSConfig     `json:"dns" yaml:"dns"`
	PollInterval models.Duration      `json:"poll_interval" yaml:"poll_interval"`
	Logging      *logger.Config       `json:"logging,omitempty" yaml:"logging,omitempty"`
}

// Validate checks required fields and fills in defaults.
func (c *Config) Validate() error {
	c.Airwave.Endpoint = strings.TrimSpace(c.Airwave.Endpoint)
	if c.Airwave.Endpoint == "" {
		return errMissingEndpoint
	}

	if c.Airwave.Username == "" {
		return errMissingUsername
	}

	if c.PollInterval < 0 {
		return errInvalidPollInterval
	}

	if c.PollInterval == 0 {
		c.PollInterval = models.Duration(defaultPollInterval)
	}

	if c.Airwave.Timeout <= 0 {
		c.Airwave.Timeout = models.Duration(defaultAirwaveTimeout)
	}

	if c.DNS.Concurrency < 0 {
		return errInvalidConcurrency
	}

	if c.DNS.Timeout <= 0 {
		c.DNS.Timeout = models.Duration(defaultDNSTimeout)
	}

	return nil
}
