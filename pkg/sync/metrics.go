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

import (
	"maps"
	"net/http"
	"sync"
	"time"

	"github.com/carverauto/airwave/pkg/airwave"
	"github.com/carverauto/airwave/pkg/inventory"
	"github.com/carverauto/airwave/pkg/logger"
)

// Metrics collects counters about fetches, index builds and AirWave API calls.
type Metrics interface {
	RecordFetchAttempt()
	RecordFetchSuccess(recordCount int, duration time.Duration)
	RecordFetchFailure(err error, duration time.Duration)
	RecordBuild(stats *inventory.Stats, duration time.Duration)

	RecordAPICall(endpoint string)
	RecordAPISuccess(endpoint string, duration time.Duration)
	RecordAPIFailure(endpoint string, statusCode int, duration time.Duration)

	RecordCircuitBreakerStateChange(name string, oldState, newState CircuitBreakerState)

	GetMetrics() map[string]interface{}
}

// NoOpMetrics discards everything.
type NoOpMetrics struct{}

func (*NoOpMetrics) RecordFetchAttempt()                         {}
func (*NoOpMetrics) RecordFetchSuccess(int, time.Duration)       {}
func (*NoOpMetrics) RecordFetchFailure(error, time.Duration)     {}
func (*NoOpMetrics) RecordBuild(*inventory.Stats, time.Duration) {}
func (*NoOpMetrics) RecordAPICall(string)                        {}
func (*NoOpMetrics) RecordAPISuccess(string, time.Duration)      {}
func (*NoOpMetrics) RecordAPIFailure(string, int, time.Duration) {}
func (*NoOpMetrics) RecordCircuitBreakerStateChange(string, CircuitBreakerState, CircuitBreakerState) {
}
func (*NoOpMetrics) GetMetrics() map[string]interface{} { return map[string]interface{}{} }

type fetchCounters struct {
	attempts, successes, failures int
	records                       int
	duration                      time.Duration
	lastError                     string
}

type apiCounters struct {
	calls, successes, failures int
	lastStatus                 int
	lastDuration               time.Duration
}

// InMemoryMetrics keeps the latest counters in memory for the summary and
// shutdown log.
type InMemoryMetrics struct {
	mu     sync.RWMutex
	logger logger.Logger

	fetch         fetchCounters
	builds        int
	buildDuration time.Duration
	lastStats     inventory.Stats
	api           map[string]*apiCounters
	breakers      map[string]string
	lastUpdated   time.Time
}

func NewInMemoryMetrics(log logger.Logger) *InMemoryMetrics {
	if log == nil {
		log = logger.NewNop()
	}

	return &InMemoryMetrics{
		logger:      log,
		api:         make(map[string]*apiCounters),
		breakers:    make(map[string]string),
		lastUpdated: time.Now(),
	}
}

// update runs fn under the write lock and stamps lastUpdated.
func (m *InMemoryMetrics) update(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	fn()
	m.lastUpdated = time.Now()
}

func (m *InMemoryMetrics) endpoint(name string) *apiCounters {
	c, ok := m.api[name]
	if !ok {
		c = &apiCounters{}
		m.api[name] = c
	}

	return c
}

func (m *InMemoryMetrics) RecordFetchAttempt() {
	m.update(func() { m.fetch.attempts++ })
}

func (m *InMemoryMetrics) RecordFetchSuccess(recordCount int, duration time.Duration) {
	m.update(func() {
		m.fetch.successes++
		m.fetch.records = recordCount
		m.fetch.duration = duration
	})

	m.logger.Debug().Int("record_count", recordCount).Dur("duration", duration).Msg("Inventory fetch completed")
}

func (m *InMemoryMetrics) RecordFetchFailure(err error, duration time.Duration) {
	m.update(func() {
		m.fetch.failures++
		m.fetch.duration = duration
		m.fetch.lastError = err.Error()
	})
}

func (m *InMemoryMetrics) RecordBuild(stats *inventory.Stats, duration time.Duration) {
	m.update(func() {
		m.builds++
		m.buildDuration = duration
		m.lastStats = *stats
	})
}

func (m *InMemoryMetrics) RecordAPICall(endpoint string) {
	m.update(func() { m.endpoint(endpoint).calls++ })
}

func (m *InMemoryMetrics) RecordAPISuccess(endpoint string, duration time.Duration) {
	m.update(func() {
		c := m.endpoint(endpoint)
		c.successes++
		c.lastStatus = http.StatusOK
		c.lastDuration = duration
	})
}

func (m *InMemoryMetrics) RecordAPIFailure(endpoint string, statusCode int, duration time.Duration) {
	m.update(func() {
		c := m.endpoint(endpoint)
		c.failures++
		c.lastStatus = statusCode
		c.lastDuration = duration
	})

	m.logger.Warn().
		Str("endpoint", endpoint).
		Int("status_code", statusCode).
		Dur("duration", duration).
		Msg("AirWave API call failed")
}

func (m *InMemoryMetrics) RecordCircuitBreakerStateChange(name string, _, newState CircuitBreakerState) {
	m.update(func() { m.breakers[name] = newState.String() })
}

func (m *InMemoryMetrics) GetMetrics() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	calls := make(map[string]int, len(m.api))
	successes := make(map[string]int, len(m.api))
	failures := make(map[string]int, len(m.api))

	for name, c := range m.api {
		calls[name] = c.calls
		successes[name] = c.successes
		failures[name] = c.failures
	}

	return map[string]interface{}{
		"fetch": map[string]interface{}{
			"attempts":        m.fetch.attempts,
			"successes":       m.fetch.successes,
			"failures":        m.fetch.failures,
			"duration":        m.fetch.duration,
			"records_fetched": m.fetch.records,
			"last_error":      m.fetch.lastError,
		},
		"index": map[string]interface{}{
			"builds":        m.builds,
			"duration":      m.buildDuration,
			"devices":       m.lastStats.Total,
			"managed_aps":   m.lastStats.ManagedAPs,
			"unclassified":  m.lastStats.Unclassified,
			"skipped":       len(m.lastStats.Skipped),
			"dns_lookups":   m.lastStats.DNSLookups,
			"dns_failures":  m.lastStats.DNSFailures,
			"duplicate_ids": len(m.lastStats.DuplicateIDs),
		},
		"api": map[string]interface{}{
			"calls":     calls,
			"successes": successes,
			"failures":  failures,
		},
		"circuit_breakers": maps.Clone(m.breakers),
		"last_updated":     m.lastUpdated,
	}
}

// MetricsHTTPClient wraps an AirWave HTTP client to collect API metrics
type MetricsHTTPClient struct {
	client  airwave.HTTPClient
	metrics Metrics
	clock   Clock
}

// NewMetricsHTTPClient creates a new HTTP client wrapper that collects metrics
func NewMetricsHTTPClient(client airwave.HTTPClient, metrics Metrics) *MetricsHTTPClient {
	return &MetricsHTTPClient{
		client:  client,
		metrics: metrics,
		clock:   systemClock{},
	}
}

// Do executes an HTTP request and records metrics
func (m *MetricsHTTPClient) Do(req *http.Request) (*http.Response, error) {
	endpoint := req.URL.Path
	if endpoint == "" {
		endpoint = req.URL.String()
	}

	start := m.clock.Now()
	m.metrics.RecordAPICall(endpoint)

	resp, err := m.client.Do(req)
	duration := m.clock.Now().Sub(start)

	if err != nil {
		m.metrics.RecordAPIFailure(endpoint, 0, duration)
		return resp, err
	}

	if resp.StatusCode >= http.StatusBadRequest {
		m.metrics.RecordAPIFailure(endpoint, resp.StatusCode, duration)
	} else {
		m.metrics.RecordAPISuccess(endpoint, duration)
	}

	return resp, err
}
