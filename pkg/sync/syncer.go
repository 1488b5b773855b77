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

// Package sync keeps an inventory index current by periodically pulling the
// AirWave access point list and rebuilding the index from it.
package sync

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/carverauto/airwave/pkg/inventory"
	"github.com/carverauto/airwave/pkg/logger"
)

const stopTimeout = 10 * time.Second

// Syncer fetches the AirWave inventory and publishes a fresh Index per cycle.
// Readers obtain the latest index through Current; a published Index is never
// modified.
type Syncer struct {
	config  Config
	fetcher InventoryFetcher
	indexer *inventory.Indexer
	clock   Clock
	metrics Metrics
	breaker *CircuitBreaker
	logger  logger.Logger

	breakerConfig CircuitBreakerConfig

	onSnapshot func(*inventory.Index)

	current  atomic.Pointer[inventory.Index]
	syncMu   sync.Mutex
	loggedIn bool

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Option customizes a Syncer.
type Option func(*Syncer)

// WithClock overrides the clock used for polling and timing.
func WithClock(clock Clock) Option {
	return func(s *Syncer) {
		s.clock = clock
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(metrics Metrics) Option {
	return func(s *Syncer) {
		s.metrics = metrics
	}
}

// WithCircuitBreakerConfig overrides the circuit breaker thresholds.
func WithCircuitBreakerConfig(cfg CircuitBreakerConfig) Option {
	return func(s *Syncer) {
		s.breakerConfig = cfg
	}
}

// WithSnapshotHandler registers a callback invoked after each published index.
func WithSnapshotHandler(fn func(*inventory.Index)) Option {
	return func(s *Syncer) {
		s.onSnapshot = fn
	}
}

// New creates a Syncer. The config is validated and defaulted.
func New(cfg *Config, fetcher InventoryFetcher, indexer *inventory.Indexer, log logger.Logger, opts ...Option) (*Syncer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if fetcher == nil {
		return nil, errMissingFetcher
	}

	if indexer == nil {
		return nil, errMissingIndexer
	}

	if log == nil {
		log = logger.NewNop()
	}

	s := &Syncer{
		config:  *cfg,
		fetcher: fetcher,
		indexer: indexer,
		clock:   systemClock{},
		metrics: &NoOpMetrics{},
		logger:  log.WithComponent("sync"),
		done:    make(chan struct{}),

		breakerConfig: DefaultCircuitBreakerConfig(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.breaker = NewCircuitBreaker("airwave", s.breakerConfig, s.clock, s.metrics, s.logger)

	return s, nil
}

// Current returns the most recently published index, or nil before the first
// successful sync.
func (s *Syncer) Current() *inventory.Index {
	return s.current.Load()
}

// CircuitBreaker returns the breaker guarding AirWave fetches.
func (s *Syncer) CircuitBreaker() *CircuitBreaker {
	return s.breaker
}

// Metrics returns the metrics collector.
func (s *Syncer) Metrics() Metrics {
	return s.metrics
}

// Sync runs a single fetch and rebuild. On failure the previously published
// index stays current.
func (s *Syncer) Sync(ctx context.Context) error {
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	var raws []map[string]interface{}

	err := s.breaker.Execute(ctx, func(ctx context.Context) error {
		var fetchErr error

		raws, fetchErr = s.fetch(ctx)

		return fetchErr
	})
	if err != nil {
		return err
	}

	start := s.clock.Now()
	idx := s.indexer.BuildFromRaw(ctx, raws)
	stats := idx.Stats()

	s.metrics.RecordBuild(&stats, s.clock.Now().Sub(start))
	s.current.Store(idx)

	s.logger.Info().
		Str("build_id", idx.BuildID()).
		Int("devices", stats.Total).
		Int("skipped", len(stats.Skipped)).
		Int("unclassified", stats.Unclassified).
		Msg("Published inventory index")

	if s.onSnapshot != nil {
		s.onSnapshot(idx)
	}

	return nil
}

// fetch logs in when needed and downloads the raw inventory. A failed fetch
// drops the session so the next cycle logs in again.
func (s *Syncer) fetch(ctx context.Context) ([]map[string]interface{}, error) {
	s.metrics.RecordFetchAttempt()

	start := s.clock.Now()

	if !s.loggedIn {
		if err := s.fetcher.Login(ctx); err != nil {
			s.metrics.RecordFetchFailure(err, s.clock.Now().Sub(start))
			return nil, err
		}

		s.loggedIn = true
	}

	raws, err := s.fetcher.FetchInventory(ctx)
	if err != nil {
		s.loggedIn = false
		s.metrics.RecordFetchFailure(err, s.clock.Now().Sub(start))

		return nil, err
	}

	s.metrics.RecordFetchSuccess(len(raws), s.clock.Now().Sub(start))

	return raws, nil
}

// Start syncs immediately and then once per poll interval until ctx is
// cancelled or Stop is called.
func (s *Syncer) Start(ctx context.Context) error {
	interval := time.Duration(s.config.PollInterval)
	ticker := s.clock.Ticker(interval)

	defer ticker.Stop()

	s.wg.Add(1)
	defer s.wg.Done()

	s.logger.Info().Dur("interval", interval).Msg("Starting inventory sync")

	s.syncLogged(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.done:
			return nil
		case <-ticker.Chan():
			s.syncLogged(ctx)
		}
	}
}

func (s *Syncer) syncLogged(ctx context.Context) {
	err := s.Sync(ctx)

	switch {
	case err == nil:
	case errors.Is(err, ErrCircuitOpen):
		s.logger.Warn().Err(err).Msg("Skipping inventory sync")
	case ctx.Err() != nil:
	default:
		s.logger.Error().Err(err).Msg("Inventory sync failed")
	}
}

// Stop ends a running Start loop and waits for it to return.
func (s *Syncer) Stop(ctx context.Context) error {
	s.closeOnce.Do(func() {
		close(s.done)
	})

	ctx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()

	finished := make(chan struct{})

	go func() {
		s.wg.Wait()
		close(finished)
	}()

	select {
	case <-finished:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
