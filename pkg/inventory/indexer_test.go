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
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"

	"github.com/carverauto/airwave/pkg/logger"
	"github.com/carverauto/airwave/pkg/models"
)

var errNXDomain = errors.New("nxdomain")

func controller(id, name, ip, fqdn string) models.DeviceRecord {
	return models.DeviceRecord{ID: id, Name: name, LanIP: ip, FQDN: fqdn, DeviceCategory: "controller", Model: "7030"}
}

func virtualController(id, name, fqdn string) models.DeviceRecord {
	return models.DeviceRecord{ID: id, Name: name, FQDN: fqdn, DeviceCategory: "controller", Model: "Instant Virtual Controller"}
}

func managedAP(id, name, controllerID string) models.DeviceRecord {
	return models.DeviceRecord{ID: id, Name: name, DeviceCategory: "thin_ap", ControllerID: controllerID}
}

func standaloneAP(id, name string) models.DeviceRecord {
	return models.DeviceRecord{ID: id, Name: name, DeviceCategory: "thin_ap"}
}

// failingResolver fails the test when any lookup happens.
func failingResolver(t *testing.T) ReverseResolver {
	t.Helper()

	return ResolverFunc(func(_ context.Context, ip string) (string, error) {
		t.Errorf("unexpected reverse lookup for %s", ip)
		return "", errNXDomain
	})
}

func staticResolver(answers map[string]string) ReverseResolver {
	return ResolverFunc(func(_ context.Context, ip string) (string, error) {
		if name, ok := answers[ip]; ok {
			return name, nil
		}

		return "", errNXDomain
	})
}

func newTestIndexer(resolver ReverseResolver, opts ...Option) *Indexer {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	opts = append([]Option{WithClock(func() time.Time { return fixed })}, opts...)

	return NewIndexer(resolver, logger.NewTestLogger(), opts...)
}

func mixedInventory() []models.DeviceRecord {
	return []models.DeviceRecord{
		controller("1064", "cont01", "10.0.0.1", "cont01.example.com"),
		controller("1069", "cont02", "10.0.0.2", ""),
		controller("1072", "cont03", "10.0.0.3", ""),
		virtualController("1627", "iapvc0", "iapvc0.example.com"),
		managedAP("2001", "ap01", "1064"),
		managedAP("2002", "ap02", "1064"),
		managedAP("2003", "ap03", "1069"),
		managedAP("2004", "iap01", "1627"),
		standaloneAP("3001", "ap12"),
		{ID: "4001", Name: "sw1", DeviceCategory: "switch", ControllerID: "1064"},
	}
}

func TestBuild_ControllerWithFQDNNeverLooksUp(t *testing.T) {
	idx := newTestIndexer(failingResolver(t)).Build(context.Background(), []models.DeviceRecord{
		controller("1", "ctrl1", "10.0.0.1", "ctrl1.example.com"),
	})

	fqdn, ok := idx.FQDNOfController("1")
	require.True(t, ok)
	assert.Equal(t, "ctrl1.example.com", fqdn)
	assert.Equal(t, 0, idx.Stats().DNSLookups)
}

func TestBuild_EchoedPTRIsUnresolved(t *testing.T) {
	resolver := staticResolver(map[string]string{"10.0.0.5": "10.0.0.5"})

	idx := newTestIndexer(resolver).Build(context.Background(), []models.DeviceRecord{
		controller("5", "ctrl5", "10.0.0.5", ""),
	})

	_, ok := idx.FQDNOfController("5")
	assert.False(t, ok)
	assert.Equal(t, map[string]string{"10.0.0.5": "ctrl5"}, idx.UnresolvedControllers())
	assert.Equal(t, 1, idx.Stats().DNSLookups)
	assert.Equal(t, 0, idx.Stats().DNSResolved)
}

func TestBuild_PTRFallbackResolves(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := NewMockReverseResolver(ctrl)
	resolver.EXPECT().LookupPTR(gomock.Any(), "10.0.0.6").Return("ctrl6.example.com", nil)

	idx := newTestIndexer(resolver).Build(context.Background(), []models.DeviceRecord{
		controller("6", "ctrl6", "10.0.0.6", ""),
	})

	fqdn, ok := idx.FQDNOfController("6")
	require.True(t, ok)
	assert.Equal(t, "ctrl6.example.com", fqdn)
	assert.Empty(t, idx.UnresolvedControllers())
}

func TestBuild_DNSFailureIsUnresolved(t *testing.T) {
	ctrl := gomock.NewController(t)
	resolver := NewMockReverseResolver(ctrl)
	resolver.EXPECT().LookupPTR(gomock.Any(), "10.0.0.7").Return("", errNXDomain)

	idx := newTestIndexer(resolver).Build(context.Background(), []models.DeviceRecord{
		controller("7", "ctrl7", "10.0.0.7", ""),
		standaloneAP("8", "ap8"),
	})

	assert.Equal(t, map[string]string{"10.0.0.7": "ctrl7"}, idx.UnresolvedControllers())
	assert.Equal(t, 1, idx.Stats().DNSFailures)
	assert.Equal(t, 2, idx.Len())
}

func TestBuild_DNSTimeoutIsUnresolved(t *testing.T) {
	slow := ResolverFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})

	idx := newTestIndexer(slow, WithDNSTimeout(10*time.Millisecond)).Build(context.Background(), []models.DeviceRecord{
		controller("1", "ctrl1", "10.0.0.1", ""),
		controller("2", "ctrl2", "10.0.0.2", ""),
	})

	assert.Len(t, idx.UnresolvedControllers(), 2)
	assert.Equal(t, 2, idx.Stats().DNSFailures)
}

func TestBuild_CancelledContextStillBuilds(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	resolver := ResolverFunc(func(ctx context.Context, _ string) (string, error) {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		return "never.example.com", nil
	})

	idx := newTestIndexer(resolver).Build(ctx, mixedInventory())

	assert.Equal(t, 10, idx.Len())
	assert.Len(t, idx.UnresolvedControllers(), 2)
}

func TestBuild_ControllerWithoutLanIPSkipsLookup(t *testing.T) {
	idx := newTestIndexer(failingResolver(t)).Build(context.Background(), []models.DeviceRecord{
		controller("1", "ctrl1", "", ""),
	})

	assert.Equal(t, map[string]string{"": "ctrl1"}, idx.UnresolvedControllers())
}

func TestBuild_SameIPResolvedOnce(t *testing.T) {
	var calls atomic.Int32

	resolver := ResolverFunc(func(_ context.Context, ip string) (string, error) {
		calls.Add(1)
		return "shared.example.com", nil
	})

	idx := newTestIndexer(resolver).Build(context.Background(), []models.DeviceRecord{
		controller("1", "ctrl1", "10.0.0.1", ""),
		controller("2", "ctrl2", "10.0.0.1", ""),
	})

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, []string{"shared.example.com"}, idx.AllControllerFQDNs())
	assert.Len(t, idx.ControllerFQDNs(), 2)
}

func TestBuild_ConcurrentLookups(t *testing.T) {
	var inFlight, peak atomic.Int32

	resolver := ResolverFunc(func(_ context.Context, ip string) (string, error) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)

		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}

		time.Sleep(5 * time.Millisecond)

		return "host-" + ip, nil
	})

	records := make([]models.DeviceRecord, 0, 20)
	for n := 0; n < 20; n++ {
		ip := "10.1.0." + string(rune('a'+n))
		records = append(records, controller(ip, "c", ip, ""))
	}

	idx := newTestIndexer(resolver, WithDNSConcurrency(4)).Build(context.Background(), records)

	assert.Len(t, idx.ControllerFQDNs(), 20)
	assert.LessOrEqual(t, peak.Load(), int32(4))
	assert.Equal(t, 20, idx.Stats().DNSResolved)
}

func TestBuild_SequentialLookups(t *testing.T) {
	resolver := staticResolver(map[string]string{"10.0.0.2": "cont02.example.com"})

	idx := newTestIndexer(resolver, WithDNSConcurrency(1)).Build(context.Background(), mixedInventory())

	fqdn, ok := idx.FQDNOfController("1069")
	require.True(t, ok)
	assert.Equal(t, "cont02.example.com", fqdn)
	assert.Equal(t, map[string]string{"10.0.0.3": "cont03"}, idx.UnresolvedControllers())
}

func TestBuild_ManagedAPOrder(t *testing.T) {
	idx := newTestIndexer(nil).Build(context.Background(), []models.DeviceRecord{
		managedAP("11", "ap1", "500"),
		managedAP("12", "ap2", "500"),
	})

	assert.Equal(t, []string{"ap1", "ap2"}, idx.APsOfController("500"))

	controllerID, ok := idx.ControllerOfAP("ap1")
	require.True(t, ok)
	assert.Equal(t, "500", controllerID)
}

func TestBuild_VirtualControllerNeverLooksUp(t *testing.T) {
	idx := newTestIndexer(failingResolver(t)).Build(context.Background(), []models.DeviceRecord{
		virtualController("1627", "iapvc0", ""),
	})

	assert.Equal(t, map[string]string{"1627": ""}, idx.VirtualControllers())
	_, ok := idx.FQDNOfController("1627")
	assert.False(t, ok)
}

func TestBuild_UnclassifiedIsCounted(t *testing.T) {
	idx := newTestIndexer(nil).Build(context.Background(), mixedInventory())

	stats := idx.Stats()
	assert.Equal(t, 1, stats.Unclassified)
	assert.Equal(t, []string{"4001"}, stats.UnclassifiedIDs)

	role, ok := idx.Role("4001")
	require.True(t, ok)
	assert.Equal(t, models.RoleUnclassified, role)

	_, ok = idx.Device("4001")
	assert.True(t, ok)
}

func TestBuild_CountingInvariant(t *testing.T) {
	resolver := staticResolver(map[string]string{"10.0.0.2": "cont02.example.com"})
	idx := newTestIndexer(resolver).Build(context.Background(), mixedInventory())
	stats := idx.Stats()

	managedIDs := 0
	for _, id := range idx.IDs() {
		if role, _ := idx.Role(id); role == models.RoleManagedAP {
			managedIDs++
		}
	}

	sum := len(idx.ControllerFQDNs()) +
		len(idx.UnresolvedControllers()) +
		len(idx.VirtualControllers()) +
		managedIDs +
		len(idx.StandaloneAPs()) +
		stats.Unclassified

	assert.Equal(t, idx.Len(), sum)
	assert.Equal(t, 4, stats.ManagedAPs)

	total := 0
	for _, n := range stats.Roles {
		total += n
	}

	assert.Equal(t, stats.Total, total)
}

func TestBuild_Idempotent(t *testing.T) {
	resolver := staticResolver(map[string]string{"10.0.0.2": "cont02.example.com"})
	indexer := newTestIndexer(resolver)

	first := indexer.Build(context.Background(), mixedInventory()).Snapshot()
	second := indexer.Build(context.Background(), mixedInventory()).Snapshot()

	assert.NotEqual(t, first.BuildID, second.BuildID)

	first.BuildID, second.BuildID = "", ""
	assert.Equal(t, first, second)
}

func TestBuild_EmptyInput(t *testing.T) {
	idx := newTestIndexer(failingResolver(t)).Build(context.Background(), nil)

	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.AllControllerFQDNs())
	assert.Empty(t, idx.APsByControllerFQDN())
	assert.NotEmpty(t, idx.BuildID())
}

func TestBuildFromRaw_SkipsMalformed(t *testing.T) {
	raws := []map[string]interface{}{
		{"@id": "1", "name": "cont01", "device_category": "controller", "fqdn": "cont01.example.com",
			"model": map[string]interface{}{"#text": "7030"}},
		{"name": "no-id", "device_category": "thin_ap", "controller_id": "1"},
		{"@id": "3", "name": "ap3", "device_category": "thin_ap", "controller_id": "1"},
	}

	idx := newTestIndexer(failingResolver(t)).BuildFromRaw(context.Background(), raws)
	stats := idx.Stats()

	assert.Equal(t, 2, idx.Len())
	require.Len(t, stats.Skipped, 1)
	assert.Equal(t, 1, stats.Skipped[0].Index)
	assert.Equal(t, []string{"ap3"}, idx.APsOfController("1"))

	_, ok := idx.ControllerOfAP("no-id")
	assert.False(t, ok)
}

func TestBuild_DuplicateIDReplacesEarlierRecord(t *testing.T) {
	idx := newTestIndexer(nil).Build(context.Background(), []models.DeviceRecord{
		managedAP("10", "ap-old", "500"),
		managedAP("11", "ap-keep", "500"),
		standaloneAP("12", "lonely"),
		managedAP("10", "ap-new", "600"),
	})

	stats := idx.Stats()
	assert.Equal(t, []string{"10"}, stats.DuplicateIDs)
	assert.Equal(t, 3, idx.Len())
	assert.Equal(t, []string{"10", "11", "12"}, idx.IDs())

	assert.Equal(t, []string{"ap-keep"}, idx.APsOfController("500"))
	assert.Equal(t, []string{"ap-new"}, idx.APsOfController("600"))

	_, ok := idx.ControllerOfAP("ap-old")
	assert.False(t, ok)

	rec, _ := idx.Device("10")
	assert.Equal(t, "ap-new", rec.Name)
	assert.Equal(t, 2, stats.ManagedAPs)
}

func TestBuild_DuplicateControllerRetractsUnresolved(t *testing.T) {
	idx := newTestIndexer(nil).Build(context.Background(), []models.DeviceRecord{
		controller("1", "ctrl1", "10.0.0.1", ""),
		controller("1", "ctrl1", "10.0.0.1", "ctrl1.example.com"),
	})

	assert.Empty(t, idx.UnresolvedControllers())
	fqdn, _ := idx.FQDNOfController("1")
	assert.Equal(t, "ctrl1.example.com", fqdn)
}

func TestBuild_RetractKeepsSharedUnresolvedIP(t *testing.T) {
	idx := newTestIndexer(nil).Build(context.Background(), []models.DeviceRecord{
		controller("1", "ctrl-a", "10.0.0.9", ""),
		controller("2", "ctrl-b", "10.0.0.9", ""),
		standaloneAP("2", "was-ctrl-b"),
	})

	assert.Equal(t, map[string]string{"10.0.0.9": "ctrl-a"}, idx.UnresolvedControllers())

	role, ok := idx.Role("1")
	require.True(t, ok)
	assert.Equal(t, models.RoleController, role)
}

func TestBuild_RetractKeepsSharedAPName(t *testing.T) {
	idx := newTestIndexer(nil).Build(context.Background(), []models.DeviceRecord{
		managedAP("10", "ap", "500"),
		managedAP("11", "ap", "500"),
		standaloneAP("11", "ap"),
	})

	ctrl, ok := idx.ControllerOfAP("ap")
	require.True(t, ok)
	assert.Equal(t, "500", ctrl)
	assert.Equal(t, []string{"ap"}, idx.APsOfController("500"))
}

func TestBuild_RetractRestoresEarlierAPController(t *testing.T) {
	idx := newTestIndexer(nil).Build(context.Background(), []models.DeviceRecord{
		managedAP("10", "ap", "500"),
		managedAP("11", "ap", "600"),
		{ID: "11", Name: "ap", DeviceCategory: "switch"},
	})

	ctrl, ok := idx.ControllerOfAP("ap")
	require.True(t, ok)
	assert.Equal(t, "500", ctrl)
	assert.Empty(t, idx.APsOfController("600"))
}

func TestBuild_BuiltAtIsTakenAfterResolution(t *testing.T) {
	early := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	late := early.Add(time.Minute)

	var resolved atomic.Bool

	resolver := ResolverFunc(func(_ context.Context, _ string) (string, error) {
		resolved.Store(true)
		return "", errNXDomain
	})

	clock := func() time.Time {
		if resolved.Load() {
			return late
		}

		return early
	}

	idx := NewIndexer(resolver, logger.NewTestLogger(), WithClock(clock)).
		Build(context.Background(), []models.DeviceRecord{controller("1", "ctrl", "10.0.0.1", "")})

	assert.Equal(t, late, idx.BuiltAt())
}

func TestNewIndexer_NilLogger(t *testing.T) {
	idx := NewIndexer(staticResolver(nil), nil).Build(context.Background(), mixedInventory())

	assert.Equal(t, 10, idx.Len())
}

func TestBuild_EmitsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	resolver := staticResolver(map[string]string{"10.0.0.2": "cont02.example.com"})
	newTestIndexer(resolver, WithTracer(tp.Tracer("test"))).Build(context.Background(), mixedInventory())

	names := make([]string, 0, 2)
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}

	assert.ElementsMatch(t, []string{"inventory.Build", "inventory.ResolveControllers"}, names)
}
