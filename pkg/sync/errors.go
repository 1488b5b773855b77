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

package sync

import "errors"

var (
	// ErrCircuitOpen is returned when a sync is rejected by an open circuit breaker.
	ErrCircuitOpen = errors.New("circuit breaker is open")

	errMissingEndpoint     = errors.New("airwave.endpoint is required")
	errMissingUsername     = errors.New("airwave.username is required")
	errInvalidPollInterval = errors.New("poll_interval must not be negative")
	errInvalidConcurrency  = errors.New("dns.concurrency must not be negative")
	errMissingFetcher      = errors.New("inventory fetcher is required")
	errMissingIndexer      = errors.New("inventory indexer is required")
)
