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
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/carverauto/airwave/pkg/logger"
)

// CircuitBreakerState is the position of a CircuitBreaker.
type CircuitBreakerState int

const (
	StateClosed CircuitBreakerState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitBreakerState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig tunes a CircuitBreaker.
type CircuitBreakerConfig struct {
	FailureThreshold int           // consecutive failures that open the circuit
	SuccessThreshold int           // trial successes that close it again
	Timeout          time.Duration // time spent open before a trial call
	ResetTimeout     time.Duration // idle time after which closed-state failures are forgotten
}

// DefaultCircuitBreakerConfig returns the configuration used by the syncer.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 3,
		SuccessThreshold: 1,
		Timeout:          5 * time.Minute,
		ResetTimeout:     30 * time.Minute,
	}
}

// CircuitBreaker stops hammering AirWave after repeated fetch failures.
type CircuitBreaker struct {
	name    string
	config  CircuitBreakerConfig
	clock   Clock
	metrics Metrics
	logger  logger.Logger

	mu         sync.RWMutex
	state      CircuitBreakerState
	failures   int
	successes  int
	lastFail   time.Time
	windowFrom time.Time
}

// NewCircuitBreaker creates a closed circuit breaker. A nil clock uses wall
// time and nil metrics are discarded.
func NewCircuitBreaker(name string, config CircuitBreakerConfig, clock Clock, metrics Metrics, log logger.Logger) *CircuitBreaker {
	if clock == nil {
		clock = systemClock{}
	}

	if metrics == nil {
		metrics = &NoOpMetrics{}
	}

	if log == nil {
		log = logger.NewNop()
	}

	return &CircuitBreaker{
		name:       name,
		config:     config,
		clock:      clock,
		metrics:    metrics,
		logger:     log,
		windowFrom: clock.Now(),
	}
}

// Execute runs fn unless the circuit is open. Errors caused by cancelling
// ctx are not counted as failures.
func (cb *CircuitBreaker) Execute(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := cb.admit(); err != nil {
		return err
	}

	err := fn(ctx)
	if err != nil && ctx.Err() != nil {
		return err
	}

	cb.record(err)

	return err
}

func (cb *CircuitBreaker) admit() error {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.clock.Now()

	switch cb.state {
	case StateOpen:
		retryAt := cb.lastFail.Add(cb.config.Timeout)
		if now.Before(retryAt) {
			return fmt.Errorf("%w: %s, retry in %s", ErrCircuitOpen, cb.name, retryAt.Sub(now).Round(time.Second))
		}

		cb.successes = 0
		cb.transition(StateHalfOpen)
	case StateClosed:
		if now.Sub(cb.windowFrom) >= cb.config.ResetTimeout {
			cb.failures = 0
			cb.windowFrom = now
		}
	case StateHalfOpen:
	}

	return nil
}

func (cb *CircuitBreaker) record(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.clock.Now()

	if err != nil {
		cb.failures++
		cb.lastFail = now

		if cb.state == StateHalfOpen || cb.failures >= cb.config.FailureThreshold {
			cb.transition(StateOpen)
		}

		return
	}

	if cb.state == StateHalfOpen {
		cb.successes++
		if cb.successes < cb.config.SuccessThreshold {
			return
		}

		cb.transition(StateClosed)
	}

	cb.failures = 0
	cb.windowFrom = now
}

// transition must be called with mu held.
func (cb *CircuitBreaker) transition(to CircuitBreakerState) {
	from := cb.state
	if from == to {
		return
	}

	cb.state = to
	cb.metrics.RecordCircuitBreakerStateChange(cb.name, from, to)

	ev := cb.logger.Info()
	if to == StateOpen {
		ev = cb.logger.Warn()
	}

	ev.Str("circuit_breaker", cb.name).
		Str("from", from.String()).
		Str("to", to.String()).
		Int("failure_count", cb.failures).
		Msg("Circuit breaker state changed")
}

// GetState returns the current state.
func (cb *CircuitBreaker) GetState() CircuitBreakerState {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return cb.state
}

// GetMetrics returns a snapshot for the summary output.
func (cb *CircuitBreaker) GetMetrics() map[string]interface{} {
	cb.mu.RLock()
	defer cb.mu.RUnlock()

	return map[string]interface{}{
		"name":          cb.name,
		"state":         cb.state.String(),
		"failure_count": cb.failures,
		"success_count": cb.successes,
		"last_failure":  cb.lastFail,
		"last_reset":    cb.windowFrom,
	}
}
