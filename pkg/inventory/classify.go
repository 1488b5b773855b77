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

package inventory

import (
	"strings"

	"github.com/carverauto/airwave/pkg/models"
)

// Classify assigns a role from the device category, model and controller
// reference. The checks run in a fixed order and the first match wins.
//
// A controller-category record with no model is a Controller, not a
// VirtualController: virtual controllers populate the model in practice.
func Classify(rec *models.DeviceRecord) models.DeviceRole {
	isController := strings.Contains(rec.DeviceCategory, models.CategoryController)

	switch {
	case isController && !isVirtualControllerModel(rec.Model):
		return models.RoleController
	case isController:
		return models.RoleVirtualController
	case strings.Contains(rec.DeviceCategory, models.CategoryThinAP) && rec.HasController():
		return models.RoleManagedAP
	case !rec.HasController():
		return models.RoleStandaloneAP
	default:
		return models.RoleUnclassified
	}
}

func isVirtualControllerModel(model string) bool {
	return model != "" && strings.Contains(model, models.VirtualControllerModel)
}
