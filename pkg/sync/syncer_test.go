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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/airwave/pkg/inventory"
	"github.com/carverauto/airwave/pkg/logger"
)

func rawInventory() []map[string]interface{} {
	return []map[string]interface{}{
		{"@id": "1064", "name": "wi0", "device_category": "controller", "fqdn": "wi0-loop.example.com",
			"lan_ip": "10.0.0.1", "model": map[string]interface{}{"@id": "13", "#text": "7010"}},
		{"@id": "2001", "name": "ap1", "device_category": "thin_ap", "controller_id": "1064", "model": "AP 305"},
		{"@id": "2002", "name": "ap2", "device_category": "thin_ap", "controller_id": "1064", "model": "AP 305"},
		{"name": "broken", "device_category": "thin_ap"},
	}
}

type syncerMocks struct {
	fetcher *MockInventoryFetcher
	clock   *fakeClock
	metrics *InMemoryMetrics
}

func newTestSyncer(t *testing.T, opts ...Option) (*Syncer, *syncerMocks) {
	t.Helper()

	ctrl := gomock.NewController(t)
	mocks := &syncerMocks{
		fetcher: NewMockInventoryFetcher(ctrl),
		clock:   newFakeClock(),
		metrics: NewInMemoryMetrics(nil),
	}

	log := logger.NewTestLogger()
	indexer := inventory.NewIndexer(nil, log, inventory.WithClock(mocks.clock.Now))

	opts = append([]Option{
		WithClock(mocks.clock),
		WithMetrics(mocks.metrics),
		WithCircuitBreakerConfig(testBreakerConfig()),
	}, opts...)

	s, err := New(validConfig(), mocks.fetcher, indexer, log, opts...)
	require.NoError(t, err)

	return s, mocks
}

func TestNew_Validation(t *testing.T) {
	indexer := inventory.NewIndexer(nil, nil)
	fetcher := NewMockInventoryFetcher(gomock.NewController(t))

	_, err := New(&Config{}, fetcher, indexer, nil)
	require.ErrorIs(t, err, errMissingEndpoint)

	_, err = New(validConfig(), nil, indexer, nil)
	require.ErrorIs(t, err, errMissingFetcher)

	_, err = New(validConfig(), fetcher, nil, nil)
	require.ErrorIs(t, err, errMissingIndexer)
}

func TestSync_PublishesIndex(t *testing.T) {
	var published []*inventory.Index

	s, mocks := newTestSyncer(t, WithSnapshotHandler(func(idx *inventory.Index) {
		published = append(published, idx)
	}))
	ctx := context.Background()

	assert.Nil(t, s.Current())

	gomock.InOrder(
		mocks.fetcher.EXPECT().Login(gomock.Any()).Return(nil),
		mocks.fetcher.EXPECT().FetchInventory(gomock.Any()).Return(rawInventory(), nil).Times(2),
	)

	require.NoError(t, s.Sync(ctx))

	first := s.Current()
	require.NotNil(t, first)
	assert.Equal(t, 3, first.Len())
	assert.Equal(t, []string{"ap1", "ap2"}, first.APsOfController("1064"))
	assert.Len(t, first.Stats().Skipped, 1)

	// The session is reused on the next cycle and a new index replaces the old one.
	require.NoError(t, s.Sync(ctx))

	second := s.Current()
	require.NotNil(t, second)
	assert.NotSame(t, first, second)
	assert.NotEqual(t, first.BuildID(), second.BuildID())
	assert.Equal(t, []*inventory.Index{first, second}, published)

	index, ok := mocks.metrics.GetMetrics()["index"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 2, index["builds"])
	assert.Equal(t, 3, index["devices"])
}

func TestSync_FetchFailureKeepsPreviousIndex(t *testing.T) {
	s, mocks := newTestSyncer(t)
	ctx := context.Background()

	gomock.InOrder(
		mocks.fetcher.EXPECT().Login(gomock.Any()).Return(nil),
		mocks.fetcher.EXPECT().FetchInventory(gomock.Any()).Return(rawInventory(), nil),
		mocks.fetcher.EXPECT().FetchInventory(gomock.Any()).Return(nil, errTestError),
		// A failed fetch drops the session.
		mocks.fetcher.EXPECT().Login(gomock.Any()).Return(nil),
		mocks.fetcher.EXPECT().FetchInventory(gomock.Any()).Return(rawInventory()[:1], nil),
	)

	require.NoError(t, s.Sync(ctx))
	previous := s.Current()

	require.ErrorIs(t, s.Sync(ctx), errTestError)
	assert.Same(t, previous, s.Current())

	require.NoError(t, s.Sync(ctx))
	assert.Equal(t, 1, s.Current().Len())
}

func TestSync_LoginFailure(t *testing.T) {
	s, mocks := newTestSyncer(t)

	mocks.fetcher.EXPECT().Login(gomock.Any()).Return(errTestError)

	require.ErrorIs(t, s.Sync(context.Background()), errTestError)
	assert.Nil(t, s.Current())

	fetch, ok := mocks.metrics.GetMetrics()["fetch"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 1, fetch["failures"])
}

func TestSync_CircuitBreakerOpens(t *testing.T) {
	s, mocks := newTestSyncer(t)
	ctx := context.Background()

	mocks.fetcher.EXPECT().Login(gomock.Any()).Return(errTestError).Times(2)

	require.ErrorIs(t, s.Sync(ctx), errTestError)
	require.ErrorIs(t, s.Sync(ctx), errTestError)
	assert.Equal(t, StateOpen, s.CircuitBreaker().GetState())

	// Rejected without touching AirWave.
	require.ErrorIs(t, s.Sync(ctx), ErrCircuitOpen)

	// After the breaker timeout AirWave is tried again.
	mocks.clock.Advance(time.Minute)
	mocks.fetcher.EXPECT().Login(gomock.Any()).Return(nil)
	mocks.fetcher.EXPECT().FetchInventory(gomock.Any()).Return(rawInventory(), nil)

	require.NoError(t, s.Sync(ctx))
	assert.Equal(t, StateClosed, s.CircuitBreaker().GetState())
}

func TestStart_PollsUntilStopped(t *testing.T) {
	snapshots := make(chan *inventory.Index, 4)

	s, mocks := newTestSyncer(t, WithSnapshotHandler(func(idx *inventory.Index) {
		snapshots <- idx
	}))

	mocks.fetcher.EXPECT().Login(gomock.Any()).Return(nil)
	mocks.fetcher.EXPECT().FetchInventory(gomock.Any()).Return(rawInventory(), nil).Times(2)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)

	go func() {
		errCh <- s.Start(ctx)
	}()

	// Initial sync happens before the first tick.
	select {
	case <-snapshots:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for initial sync")
	}

	mocks.clock.ticker.ch <- mocks.clock.Now()

	select {
	case <-snapshots:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for tick sync")
	}

	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, <-errCh)
	assert.True(t, mocks.clock.ticker.stopped.Load())
}

func TestStart_ContextCancel(t *testing.T) {
	s, mocks := newTestSyncer(t)

	// Cancellation may win the race with the initial sync.
	mocks.fetcher.EXPECT().Login(gomock.Any()).Return(errTestError).MaxTimes(1)

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)

	go func() {
		errCh <- s.Start(ctx)
	}()

	cancel()

	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
