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
)

// ErrMalformedRecord is matched by every *MalformedRecordError.
var ErrMalformedRecord = errors.New("malformed inventory record")

// MalformedRecordError names the required field a raw record is missing.
type MalformedRecordError struct {
	Field string
	ID    string // empty when the id itself is missing
}

func (e *MalformedRecordError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: missing %s", ErrMalformedRecord, e.Field)
	}

	return fmt.Sprintf("%s: record %s missing %s", ErrMalformedRecord, e.ID, e.Field)
}

func (*MalformedRecordError) Is(target error) bool {
	return target == ErrMalformedRecord
}
