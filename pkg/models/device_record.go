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
	"strconv"

	"gopkg.in/yaml.v3"
)

// TriState is an optional boolean as reported by AirWave, where the field may be
// missing entirely.
type TriState int

const (
	Unknown TriState = iota
	True
	False
)

// ParseTriState maps "true"/"false" style text to a TriState. Anything that does
// not parse as a boolean is Unknown.
func ParseTriState(s string) TriState {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return Unknown
	}

	if b {
		return True
	}

	return False
}

// Bool returns the value and whether it is known.
func (t TriState) Bool() (value, ok bool) {
	switch t {
	case True:
		return true, true
	case False:
		return false, true
	case Unknown:
		return false, false
	default:
		return false, false
	}
}

func (t TriState) String() string {
	switch t {
	case True:
		return "true"
	case False:
		return "false"
	case Unknown:
		return "unknown"
	default:
		return "unknown"
	}
}

func (t TriState) MarshalJSON() ([]byte, error) {
	if v, ok := t.Bool(); ok {
		return json.Marshal(v)
	}

	return []byte("null"), nil
}

func (t *TriState) UnmarshalJSON(b []byte) error {
	var v *bool
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	*t = fromBoolPtr(v)

	return nil
}

func (t TriState) MarshalYAML() (interface{}, error) {
	if v, ok := t.Bool(); ok {
		return v, nil
	}

	return nil, nil
}

func (t *TriState) UnmarshalYAML(node *yaml.Node) error {
	var v *bool
	if err := node.Decode(&v); err != nil {
		return err
	}

	*t = fromBoolPtr(v)

	return nil
}

func fromBoolPtr(v *bool) TriState {
	switch {
	case v == nil:
		return Unknown
	case *v:
		return True
	default:
		return False
	}
}

// DeviceRecord is one normalized entry of the AirWave AP list. Controllers,
// virtual controllers and access points all share this shape.
type DeviceRecord struct {
	ID             string   `json:"id" yaml:"id"`
	Name           string   `json:"name" yaml:"name"`
	LanIP          string   `json:"lan_ip,omitempty" yaml:"lan_ip,omitempty"`
	LanMAC         string   `json:"lan_mac,omitempty" yaml:"lan_mac,omitempty"`
	SerialNumber   string   `json:"serial_number,omitempty" yaml:"serial_number,omitempty"`
	DeviceCategory string   `json:"device_category" yaml:"device_category"`
	ControllerID   string   `json:"controller_id,omitempty" yaml:"controller_id,omitempty"`
	FQDN           string   `json:"fqdn,omitempty" yaml:"fqdn,omitempty"`
	Manufacturer   string   `json:"manufacturer,omitempty" yaml:"manufacturer,omitempty"`
	Model          string   `json:"model,omitempty" yaml:"model,omitempty"`
	IsRemoteAP     TriState `json:"is_remote_ap" yaml:"is_remote_ap"`
}

// UnmarshalYAML replaces the whole record. yaml.v3 never hands a null node to
// TriState.UnmarshalYAML, so decoding into a zero value is what turns an
// explicit "is_remote_ap: null" into Unknown.
func (d *DeviceRecord) UnmarshalYAML(node *yaml.Node) error {
	type plain DeviceRecord

	var out plain
	if err := node.Decode(&out); err != nil {
		return err
	}

	*d = DeviceRecord(out)

	return nil
}

// HasController reports whether the record names an owning controller.
func (d *DeviceRecord) HasController() bool {
	return d.ControllerID != ""
}
