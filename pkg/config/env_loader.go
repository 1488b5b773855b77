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

package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/airwave/pkg/logger"
)

// EnvConfigLoader loads configuration from environment variables.
// It supports nested struct fields using underscore separation.
// For example: AIRWAVE_DNS_NAMESERVER maps to config.DNS.Nameserver
type EnvConfigLoader struct {
	logger logger.Logger
	prefix string // Optional prefix for all env vars (e.g., "AIRWAVE_")
}

// NewEnvConfigLoader creates a new environment variable config loader.
func NewEnvConfigLoader(log logger.Logger, prefix string) *EnvConfigLoader {
	return &EnvConfigLoader{
		logger: log,
		prefix: prefix,
	}
}

// Load implements ConfigLoader by reading from environment variables. Fields
// without a matching variable keep their current value, so Load can be used
// as an overlay after a file loader.
func (e *EnvConfigLoader) Load(_ context.Context, _ string, dst interface{}) error {
	// First check if there's a complete JSON config in an env var
	if jsonConfig := os.Getenv(e.prefix + "CONFIG_JSON"); jsonConfig != "" {
		if err := json.Unmarshal([]byte(jsonConfig), dst); err != nil {
			return fmt.Errorf("failed to unmarshal %sCONFIG_JSON: %w", e.prefix, err)
		}

		if e.logger != nil {
			e.logger.Info().Msg("Loaded configuration from CONFIG_JSON environment variable")
		}

		return nil
	}

	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrDstMustBeNonNilPointer
	}

	v = v.Elem()
	if v.Kind() != reflect.Struct {
		return ErrDstMustBePointerToStruct
	}

	set, err := e.loadStruct(v, e.prefix)
	if err != nil {
		return err
	}

	if e.logger != nil && set > 0 {
		e.logger.Debug().Int("fields", set).Msg("Applied configuration from environment variables")
	}

	return nil
}

// loadStruct recursively loads a struct from environment variables and
// reports how many fields were set.
func (e *EnvConfigLoader) loadStruct(v reflect.Value, prefix string) (int, error) {
	t := v.Type()
	set := 0

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)

		if !field.CanSet() {
			continue
		}

		fieldName, _, _ := strings.Cut(fieldType.Tag.Get("json"), ",")
		if fieldName == "" || fieldName == "-" {
			continue
		}
		envName := envKey(prefix, fieldName)

		n, err := e.setFieldValue(field, envName)
		if err != nil {
			return set, err
		}

		set += n
	}

	return set, nil
}

func envKey(prefix, fieldName string) string {
	return prefix + strings.ToUpper(strings.ReplaceAll(fieldName, ".", "_"))
}

// setFieldValue sets a struct field value from an environment variable.
func (e *EnvConfigLoader) setFieldValue(field reflect.Value, envName string) (int, error) {
	if isStruct(field) && !isUnmarshaler(field) {
		return e.handleNestedStruct(field, envName)
	}

	envValue, ok := os.LookupEnv(envName)
	if !ok || envValue == "" {
		return 0, nil
	}

	if err := e.setFieldByKind(field, envName, envValue); err != nil {
		return 0, err
	}

	return 1, nil
}

func isStruct(field reflect.Value) bool {
	return field.Kind() == reflect.Struct ||
		(field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct)
}

func isUnmarshaler(field reflect.Value) bool {
	t := field.Type()
	if t.Kind() != reflect.Ptr {
		t = reflect.PointerTo(t)
	}

	return t.Implements(reflect.TypeOf((*json.Unmarshaler)(nil)).Elem())
}

// handleNestedStruct handles nested struct and pointer to struct types. A nil
// pointer is only allocated when at least one of its fields is present.
func (e *EnvConfigLoader) handleNestedStruct(field reflect.Value, envName string) (int, error) {
	prefix := envName + "_"

	if field.Kind() != reflect.Ptr {
		return e.loadStruct(field, prefix)
	}

	if !field.IsNil() {
		return e.loadStruct(field.Elem(), prefix)
	}

	fresh := reflect.New(field.Type().Elem())

	set, err := e.loadStruct(fresh.Elem(), prefix)
	if err != nil || set == 0 {
		return set, err
	}

	field.Set(fresh)

	return set, nil
}

var durationType = reflect.TypeOf(time.Duration(0))

func (e *EnvConfigLoader) setFieldByKind(field reflect.Value, envName, envValue string) error {
	if isUnmarshaler(field) {
		return setUnmarshalerField(field, envName, envValue)
	}

	switch field.Kind() {
	case reflect.Ptr:
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}

		return e.setFieldByKind(field.Elem(), envName, envValue)
	case reflect.Slice:
		if field.Type().Elem().Kind() == reflect.String {
			setStringSlice(field, envValue)

			return nil
		}
	case reflect.String:
		field.SetString(envValue)

		return nil
	default:
	}

	if err := setScalar(field, envValue); err != nil {
		return fmt.Errorf("invalid value for %s: %w", envName, err)
	}

	return nil
}

// setScalar parses numbers, booleans and durations. Anything else is decoded
// as JSON.
func setScalar(field reflect.Value, envValue string) error {
	switch kind := field.Kind(); {
	case field.Type() == durationType:
		d, err := time.ParseDuration(envValue)
		if err != nil {
			return err
		}

		field.SetInt(int64(d))
	case kind == reflect.Bool:
		b, err := strconv.ParseBool(envValue)
		if err != nil {
			return err
		}

		field.SetBool(b)
	case kind >= reflect.Int && kind <= reflect.Int64:
		n, err := strconv.ParseInt(envValue, 10, field.Type().Bits())
		if err != nil {
			return err
		}

		field.SetInt(n)
	case kind >= reflect.Uint && kind <= reflect.Uint64:
		n, err := strconv.ParseUint(envValue, 10, field.Type().Bits())
		if err != nil {
			return err
		}

		field.SetUint(n)
	case kind == reflect.Float32 || kind == reflect.Float64:
		f, err := strconv.ParseFloat(envValue, field.Type().Bits())
		if err != nil {
			return err
		}

		field.SetFloat(f)
	default:
		return json.Unmarshal([]byte(envValue), field.Addr().Interface())
	}

	return nil
}

// setStringSlice splits a comma-separated list.
func setStringSlice(field reflect.Value, envValue string) {
	parts := strings.Split(envValue, ",")
	out := reflect.MakeSlice(field.Type(), 0, len(parts))

	for _, p := range parts {
		out = reflect.Append(out, reflect.ValueOf(strings.TrimSpace(p)).Convert(field.Type().Elem()))
	}

	field.Set(out)
}

// setUnmarshalerField feeds the value to UnmarshalJSON, quoting it when it is
// not already JSON.
func setUnmarshalerField(field reflect.Value, envName, envValue string) error {
	target := field
	if field.Kind() != reflect.Ptr {
		target = field.Addr()
	} else if field.IsNil() {
		field.Set(reflect.New(field.Type().Elem()))
	}

	raw := []byte(envValue)
	if !json.Valid(raw) {
		raw = []byte(strconv.Quote(envValue))
	}

	u, _ := target.Interface().(json.Unmarshaler)
	if err := u.UnmarshalJSON(raw); err != nil {
		return fmt.Errorf("invalid value for %s: %w", envName, err)
	}

	return nil
}
