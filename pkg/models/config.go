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

package models

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that decodes from Go duration strings ("30s", "5m")
// or from integer nanoseconds.
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		// parse numeric as nanoseconds
		*d = Duration(time.Duration(value))
		return nil
	case string:
		dur, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %w", errInvalidDuration, err)
		}

		*d = Duration(dur)

		return nil
	default:
		return errInvalidDuration
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return fmt.Errorf("%w: %w", errInvalidDuration, err)
	}

	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidDuration, err)
	}

	*d = Duration(dur)

	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// AirwaveConfig describes how to reach an AirWave management server.
type AirwaveConfig struct {
	Endpoint           string   `json:"endpoint" yaml:"endpoint"` // e.g. "airwave.example.com" or "https://airwave.example.com"
	Username           string   `json:"username" yaml:"username"`
	Password           string   `json:"password" yaml:"password"`
	InsecureSkipVerify bool     `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	Timeout            Duration `json:"timeout" yaml:"timeout"`
}

// DNSConfig controls the reverse lookups used to name controllers that have no FQDN.
type DNSConfig struct {
	// Nameserver is an optional "host" or "host:port" queried over UDP instead of
	// the system resolver.
	Nameserver  string   `json:"nameserver" yaml:"nameserver"`
	Timeout     Duration `json:"timeout" yaml:"timeout"`
	Concurrency int      `json:"concurrency" yaml:"concurrency"`
}
