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
	"fmt"
	"strings"
)

// DeviceRole is the closed classification of an AirWave inventory record.
type DeviceRole int

const (
	RoleUnclassified DeviceRole = iota
	RoleController
	RoleVirtualController
	RoleManagedAP
	RoleStandaloneAP
)

const (
	// CategoryController marks mobility controllers and instant virtual controllers.
	CategoryController = "controller"
	// CategoryThinAP marks access points that can be managed by a controller.
	CategoryThinAP = "thin_ap"
	// VirtualControllerModel is the model text AirWave reports for IAP virtual controllers.
	VirtualControllerModel = "Instant Virtual Controller"
)

var roleNames = map[DeviceRole]string{
	RoleUnclassified:      "unclassified",
	RoleController:        "controller",
	RoleVirtualController: "virtual_controller",
	RoleManagedAP:         "managed_ap",
	RoleStandaloneAP:      "standalone_ap",
}

// Roles lists every role in a stable order.
func Roles() []DeviceRole {
	return []DeviceRole{
		RoleController,
		RoleVirtualController,
		RoleManagedAP,
		RoleStandaloneAP,
		RoleUnclassified,
	}
}

func (r DeviceRole) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}

	return fmt.Sprintf("role(%d)", int(r))
}

func (r DeviceRole) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *DeviceRole) UnmarshalText(text []byte) error {
	s := strings.TrimSpace(string(text))

	for role, name := range roleNames {
		if name == s {
			*r = role
			return nil
		}
	}

	return fmt.Errorf("%w: %q", errUnknownRole, s)
}
