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
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/carverauto/airwave/pkg/models"
)

// Raw AirWave field names. XML payloads carry the id as an attribute, which
// decoders expose as "@id" (or "-id"); JSON payloads use a plain "id".
const (
	fieldID             = "id"
	fieldName           = "name"
	fieldLanIP          = "lan_ip"
	fieldLanMAC         = "lan_mac"
	fieldSerialNumber   = "serial_number"
	fieldDeviceCategory = "device_category"
	fieldControllerID   = "controller_id"
	fieldFQDN           = "fqdn"
	fieldManufacturer   = "mfgr"
	fieldModel          = "model"
	fieldIsRemoteAP     = "is_remote_ap"

	textKey = "#text"
)

var (
	idKeys           = []string{"@id", "-id", fieldID}
	manufacturerKeys = []string{fieldManufacturer, "manufacturer"}
)

// SkippedRecord describes a raw record that could not be normalized.
type SkippedRecord struct {
	Index  int    `json:"index" yaml:"index"` // position in the raw input
	ID     string `json:"id,omitempty" yaml:"id,omitempty"`
	Field  string `json:"field" yaml:"field"`
	Reason string `json:"reason" yaml:"reason"`
}

// Normalize converts one raw AirWave record into a DeviceRecord. Only a missing
// id or device_category is an error; every other field is optional.
func Normalize(raw map[string]interface{}) (models.DeviceRecord, error) {
	id := firstText(raw, idKeys...)
	if id == "" {
		return models.DeviceRecord{}, &MalformedRecordError{Field: fieldID}
	}

	category := text(raw, fieldDeviceCategory)
	if category == "" {
		return models.DeviceRecord{}, &MalformedRecordError{Field: fieldDeviceCategory, ID: id}
	}

	return models.DeviceRecord{
		ID:             id,
		Name:           text(raw, fieldName),
		LanIP:          text(raw, fieldLanIP),
		LanMAC:         text(raw, fieldLanMAC),
		SerialNumber:   text(raw, fieldSerialNumber),
		DeviceCategory: category,
		ControllerID:   text(raw, fieldControllerID),
		FQDN:           text(raw, fieldFQDN),
		Manufacturer:   firstText(raw, manufacturerKeys...),
		Model:          text(raw, fieldModel),
		IsRemoteAP:     models.ParseTriState(text(raw, fieldIsRemoteAP)),
	}, nil
}

// NormalizeAll normalizes every raw record, skipping malformed ones. A bad record
// never aborts the batch.
func NormalizeAll(raws []map[string]interface{}) ([]models.DeviceRecord, []SkippedRecord) {
	records := make([]models.DeviceRecord, 0, len(raws))

	var skipped []SkippedRecord

	for i, raw := range raws {
		rec, err := Normalize(raw)
		if err != nil {
			s := SkippedRecord{Index: i, Reason: err.Error()}

			var mre *MalformedRecordError
			if errors.As(err, &mre) {
				s.ID = mre.ID
				s.Field = mre.Field
			}

			skipped = append(skipped, s)

			continue
		}

		records = append(records, rec)
	}

	return records, skipped
}

func firstText(raw map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v := text(raw, k); v != "" {
			return v
		}
	}

	return ""
}

// text reads a scalar field. Nested mappings (XML elements with attributes)
// carry their value under "#text".
func text(raw map[string]interface{}, key string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}

	return strings.TrimSpace(scalar(v))
}

func scalar(v interface{}) string {
	switch value := v.(type) {
	case nil:
		return ""
	case string:
		return value
	case bool:
		return strconv.FormatBool(value)
	case float64:
		return strconv.FormatFloat(value, 'f', -1, 64)
	case int:
		return strconv.Itoa(value)
	case int64:
		return strconv.FormatInt(value, 10)
	case map[string]interface{}:
		return scalar(value[textKey])
	case fmt.Stringer:
		return value.String()
	default:
		return ""
	}
}
