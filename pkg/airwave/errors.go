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

import "errors"

var (
	ErrLoginFailed          = errors.New("airwave login failed")
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrUnexpectedPayload    = errors.New("unexpected ap_list payload")
	ErrClientNotFound       = errors.New("client not associated")
	ErrInvalidMAC           = errors.New("airwave rejected client MAC")
	errMissingEndpoint      = errors.New("airwave endpoint is required")
)
