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

import "errors"

var (
	errUnknownCommand = errors.New("unknown command")
	errMissingArgs    = errors.New("missing arguments")
	errUnknownOutput  = errors.New("unknown output format")
	errNoTerminal     = errors.New("password not configured and stdin is not a terminal")
	errEmptyPassword  = errors.New("password cannot be empty")
	errNoClientLookup = errors.New("client lookups need an AirWave connection")
)
