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

package airwave

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/clbanning/mxj/v2"
)

const (
	apKey      = "ap"
	textKey    = "#text"
	attrPrefix = "-"
)

// ClientAssociation describes the access point a wireless client is attached to.
type ClientAssociation struct {
	MAC           string `json:"mac" yaml:"mac"`
	APID          string `json:"ap_id" yaml:"ap_id"`
	APName        string `json:"ap_name" yaml:"ap_name"`
	Radio         string `json:"radio,omitempty" yaml:"radio,omitempty"`
	SSID          string `json:"ssid,omitempty" yaml:"ssid,omitempty"`
	VLAN          string `json:"vlan,omitempty" yaml:"vlan,omitempty"`
	ControllerID  string `json:"controller_id,omitempty" yaml:"controller_id,omitempty"`
	APFQDN        string `json:"ap_fqdn,omitempty" yaml:"ap_fqdn,omitempty"`
	LanIP         string `json:"lan_ip,omitempty" yaml:"lan_ip,omitempty"`
	Model         string `json:"model,omitempty" yaml:"model,omitempty"`
	Firmware      string `json:"firmware,omitempty" yaml:"firmware,omitempty"`
	OperatingMode string `json:"operating_mode,omitempty" yaml:"operating_mode,omitempty"`
	ClientCount   string `json:"client_count,omitempty" yaml:"client_count,omitempty"`
}

// ParseAPList decodes an ap_list document into raw ap records. XML is the
// native AirWave format; JSON exports of the same structure, or a bare JSON
// array of records, are accepted as well.
func ParseAPList(data []byte) ([]map[string]interface{}, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return []map[string]interface{}{}, nil
	}

	var doc interface{}

	if trimmed[0] == '<' {
		m, err := mxj.NewMapXml(trimmed)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnexpectedPayload, err)
		}

		doc = map[string]interface{}(m)
	} else if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedPayload, err)
	}

	return extractAPs(doc)
}

// extractAPs walks down single-child wrappers (the document root element)
// until it finds the repeated ap element.
func extractAPs(doc interface{}) ([]map[string]interface{}, error) {
	switch v := doc.(type) {
	case nil:
		return []map[string]interface{}{}, nil
	case string:
		if strings.TrimSpace(v) == "" {
			return []map[string]interface{}{}, nil
		}
	case []interface{}:
		return toRecords(v)
	case map[string]interface{}:
		if aps, ok := v[apKey]; ok {
			return apsFrom(aps)
		}

		children := elementKeys(v)
		switch len(children) {
		case 0:
			return []map[string]interface{}{}, nil
		case 1:
			return extractAPs(v[children[0]])
		}
	}

	return nil, fmt.Errorf("%w: no %q elements found", ErrUnexpectedPayload, apKey)
}

func apsFrom(v interface{}) ([]map[string]interface{}, error) {
	switch aps := v.(type) {
	case map[string]interface{}:
		return []map[string]interface{}{aps}, nil
	case []interface{}:
		return toRecords(aps)
	case nil, string:
		return []map[string]interface{}{}, nil
	default:
		return nil, fmt.Errorf("%w: %q has type %T", ErrUnexpectedPayload, apKey, v)
	}
}

func toRecords(items []interface{}) ([]map[string]interface{}, error) {
	records := make([]map[string]interface{}, 0, len(items))

	for i, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: item %d has type %T", ErrUnexpectedPayload, i, item)
		}

		records = append(records, m)
	}

	return records, nil
}

// elementKeys returns the keys that are child elements rather than
// attributes or character data.
func elementKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))

	for k := range m {
		if strings.HasPrefix(k, attrPrefix) || strings.HasPrefix(k, "@") || k == textKey {
			continue
		}

		keys = append(keys, k)
	}

	return keys
}

func parseClientDetail(data []byte) (*ClientAssociation, error) {
	root, err := xmlRoot(data)
	if err != nil {
		return nil, err
	}

	if client, ok := root["client"].(map[string]interface{}); ok && field(client, "assoc_stat") == "true" {
		assoc := &ClientAssociation{
			Radio: field(client, "radio_mode"),
			SSID:  field(client, "ssid"),
			VLAN:  field(client, "vlan"),
		}

		if ap, ok := client[apKey].(map[string]interface{}); ok {
			assoc.APID = attr(ap, "id")
			assoc.APName = field(ap, textKey)
		}

		return assoc, nil
	}

	if _, ok := root["error"]; ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMAC, field(root, "error"))
	}

	return nil, ErrClientNotFound
}

// applyAPDetail copies the fields of a single ap_list record into assoc.
func applyAPDetail(assoc *ClientAssociation, ap map[string]interface{}) {
	assoc.ControllerID = field(ap, "controller_id")
	assoc.APFQDN = field(ap, "fqdn")
	assoc.LanIP = field(ap, "lan_ip")
	assoc.Model = field(ap, "model")
	assoc.Firmware = field(ap, "firmware")
	assoc.OperatingMode = field(ap, "operating_mode")
	assoc.ClientCount = field(ap, "client_count")
}

func xmlRoot(data []byte) (map[string]interface{}, error) {
	m, err := mxj.NewMapXml(bytes.TrimSpace(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpectedPayload, err)
	}

	for _, v := range m {
		if root, ok := v.(map[string]interface{}); ok {
			return root, nil
		}
	}

	return map[string]interface{}{}, nil
}

func attr(m map[string]interface{}, name string) string {
	if s := field(m, attrPrefix+name); s != "" {
		return s
	}

	return field(m, "@"+name)
}

func field(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]interface{}:
		return field(v, textKey)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
