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

package cli

import (
	"time"

	"github.com/carverauto/airwave/pkg/airwave"
	"github.com/carverauto/airwave/pkg/inventory"
	"github.com/carverauto/airwave/pkg/models"
)

// CmdConfig holds parsed command-line flags and the selected subcommand.
type CmdConfig struct {
	ConfigPath string
	Output     string
	Watch      bool
	Debug      bool
	Help       bool
	Version    bool
	SubCmd     string
	Args       []string
}

// Summary is the output of the summary command.
type Summary struct {
	BuildID string          `json:"build_id" yaml:"build_id"`
	BuiltAt time.Time       `json:"built_at" yaml:"built_at"`
	Stats   inventory.Stats `json:"stats" yaml:"stats"`
}

// ControllerAssignment names the controller managing one AP.
type ControllerAssignment struct {
	AP             string               `json:"ap" yaml:"ap"`
	ControllerID   string               `json:"controller_id,omitempty" yaml:"controller_id,omitempty"`
	ControllerFQDN string               `json:"controller_fqdn,omitempty" yaml:"controller_fqdn,omitempty"`
	Controller     *models.DeviceRecord `json:"controller,omitempty" yaml:"controller,omitempty"`
}

// ControllerReport is the output of the controller-of command.
type ControllerReport struct {
	Assignments []ControllerAssignment `json:"assignments" yaml:"assignments"`
	Controllers []string               `json:"controllers" yaml:"controllers"`
}

// ClientReport is the output of the client command.
type ClientReport struct {
	Client         *airwave.ClientAssociation `json:"client" yaml:"client"`
	ControllerFQDN string                     `json:"controller_fqdn,omitempty" yaml:"controller_fqdn,omitempty"`
	Controller     *models.DeviceRecord       `json:"controller,omitempty" yaml:"controller,omitempty"`
}
