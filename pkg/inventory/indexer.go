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

// Package inventory classifies AirWave inventory records into device roles and
// builds the lookup indices used to answer controller/AP questions.
package inventory

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/carverauto/airwave/pkg/logger"
	"github.com/carverauto/airwave/pkg/models"
)

const (
	defaultDNSConcurrency = 8
	defaultDNSTimeout     = 3 * time.Second

	tracerName = "github.com/carverauto/airwave/pkg/inventory"
)

// Indexer builds Index values. It holds no per-build state, so one Indexer can
// serve any number of sequential or concurrent builds.
type Indexer struct {
	resolver       ReverseResolver
	logger         logger.Logger
	tracer         trace.Tracer
	now            func() time.Time
	dnsConcurrency int
	dnsTimeout     time.Duration
}

type Option func(*Indexer)

// WithDNSConcurrency bounds the number of PTR lookups in flight. Values below 2
// resolve sequentially.
func WithDNSConcurrency(n int) Option {
	return func(i *Indexer) { i.dnsConcurrency = n }
}

// WithDNSTimeout bounds each PTR lookup. A timeout counts as "no PTR record".
func WithDNSTimeout(d time.Duration) Option {
	return func(i *Indexer) {
		if d > 0 {
			i.dnsTimeout = d
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(i *Indexer) { i.tracer = t }
}

func WithClock(now func() time.Time) Option {
	return func(i *Indexer) { i.now = now }
}

// NewIndexer returns an Indexer. A nil resolver means controllers without an
// FQDN are always reported as unresolved.
func NewIndexer(resolver ReverseResolver, log logger.Logger, opts ...Option) *Indexer {
	if resolver == nil {
		resolver = noPTR
	}

	if log == nil {
		log = logger.NewNop()
	}

	i := &Indexer{
		resolver:       resolver,
		logger:         log.WithComponent("inventory"),
		tracer:         otel.Tracer(tracerName),
		now:            time.Now,
		dnsConcurrency: defaultDNSConcurrency,
		dnsTimeout:     defaultDNSTimeout,
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

// BuildFromRaw normalizes raw AirWave records and builds an Index from the ones
// that normalize cleanly. Skipped records are reported in Stats.Skipped.
func (i *Indexer) BuildFromRaw(ctx context.Context, raws []map[string]interface{}) *Index {
	records, skipped := NormalizeAll(raws)

	for _, s := range skipped {
		i.logger.Warn().
			Int("record_index", s.Index).
			Str("device_id", s.ID).
			Str("missing_field", s.Field).
			Msg("Skipping malformed inventory record")
	}

	idx := i.Build(ctx, records)
	idx.stats.Skipped = skipped

	return idx
}

// Build classifies records in input order and fills every index in one pass.
// It never fails: DNS errors fall through to unresolved, odd categories are
// counted as unclassified, and an empty input gives an empty Index.
func (i *Indexer) Build(ctx context.Context, records []models.DeviceRecord) *Index {
	ctx, span := i.tracer.Start(ctx, "inventory.Build",
		trace.WithAttributes(attribute.Int("inventory.records", len(records))))
	defer span.End()

	idx := newIndex(uuid.NewString(), len(records))

	ptr := i.resolveControllers(ctx, records, &idx.stats)

	for n := range records {
		idx.insert(&records[n], ptr, i.logger)
	}

	idx.finalize()
	idx.builtAt = i.now()

	span.SetAttributes(
		attribute.Int("inventory.devices", idx.stats.Total),
		attribute.Int("inventory.controllers", idx.stats.Roles[models.RoleController]),
		attribute.Int("inventory.unresolved_controllers", len(idx.unresolved)),
		attribute.Int("inventory.unclassified", idx.stats.Unclassified),
		attribute.Int("inventory.duplicates", len(idx.stats.DuplicateIDs)),
	)

	i.logger.Info().
		Str("build_id", idx.buildID).
		Int("devices", idx.stats.Total).
		Int("controllers", len(idx.controllerFQDN)).
		Int("unresolved_controllers", len(idx.unresolved)).
		Int("virtual_controllers", len(idx.virtualFQDN)).
		Int("managed_aps", idx.stats.ManagedAPs).
		Int("standalone_aps", len(idx.standalone)).
		Int("unclassified", idx.stats.Unclassified).
		Msg("Built inventory index")

	return idx
}

// resolveControllers looks up every distinct lan IP of a controller that lacks
// an FQDN. Lookups run concurrently into a private map; the caller applies the
// results sequentially.
func (i *Indexer) resolveControllers(ctx context.Context, records []models.DeviceRecord, stats *Stats) map[string]string {
	var ips []string

	seen := make(map[string]struct{})

	for n := range records {
		rec := &records[n]
		if Classify(rec) != models.RoleController || rec.FQDN != "" || rec.LanIP == "" {
			continue
		}

		if _, dup := seen[rec.LanIP]; dup {
			continue
		}

		seen[rec.LanIP] = struct{}{}
		ips = append(ips, rec.LanIP)
	}

	resolved := make(map[string]string, len(ips))
	if len(ips) == 0 {
		return resolved
	}

	ctx, span := i.tracer.Start(ctx, "inventory.ResolveControllers",
		trace.WithAttributes(attribute.Int("inventory.ptr_lookups", len(ips))))
	defer span.End()

	var mu sync.Mutex

	lookup := func(ip string) {
		name, ok, failed := i.lookup(ctx, ip)

		mu.Lock()
		defer mu.Unlock()

		stats.DNSLookups++

		if failed {
			stats.DNSFailures++
		}

		if ok {
			stats.DNSResolved++
			resolved[ip] = name
		}
	}

	if i.dnsConcurrency < 2 {
		for _, ip := range ips {
			lookup(ip)
		}
	} else {
		var g errgroup.Group

		g.SetLimit(i.dnsConcurrency)

		for _, ip := range ips {
			g.Go(func() error {
				lookup(ip)
				return nil
			})
		}

		_ = g.Wait() // lookups never return errors
	}

	span.SetAttributes(attribute.Int("inventory.ptr_resolved", len(resolved)))

	return resolved
}

// lookup performs one bounded PTR lookup. An answer equal to the IP itself
// means the resolver found no PTR record and echoed the address back.
func (i *Indexer) lookup(ctx context.Context, ip string) (name string, ok, failed bool) {
	ctx, cancel := context.WithTimeout(ctx, i.dnsTimeout)
	defer cancel()

	name, err := i.resolver.LookupPTR(ctx, ip)
	if err != nil {
		i.logger.Debug().Err(err).Str("lan_ip", ip).Msg("Reverse lookup failed")
		return "", false, true
	}

	if name == "" || name == ip {
		i.logger.Debug().Str("lan_ip", ip).Msg("No PTR record for controller")
		return "", false, false
	}

	return name, true, false
}

// insert adds one record, replacing any earlier record with the same id.
func (idx *Index) insert(rec *models.DeviceRecord, ptr map[string]string, log logger.Logger) {
	if prev, dup := idx.devices[rec.ID]; dup {
		log.Warn().
			Str("device_id", rec.ID).
			Str("previous_name", prev.Name).
			Str("name", rec.Name).
			Msg("Duplicate device id in inventory, replacing earlier record")

		idx.retract(&prev, idx.roles[rec.ID])
		idx.stats.DuplicateIDs = append(idx.stats.DuplicateIDs, rec.ID)
	} else {
		idx.order = append(idx.order, rec.ID)
	}

	idx.devices[rec.ID] = *rec

	role := Classify(rec)
	idx.roles[rec.ID] = role

	switch role {
	case models.RoleController:
		idx.addController(rec, ptr, log)
	case models.RoleVirtualController:
		idx.virtualFQDN[rec.ID] = rec.FQDN
	case models.RoleManagedAP:
		idx.controllerAPs[rec.ControllerID] = append(idx.controllerAPs[rec.ControllerID], rec.Name)
		idx.apController[rec.Name] = rec.ControllerID
	case models.RoleStandaloneAP:
		idx.standalone[rec.ID] = rec.Name
	case models.RoleUnclassified:
		log.Debug().
			Str("device_id", rec.ID).
			Str("device_category", rec.DeviceCategory).
			Str("controller_id", rec.ControllerID).
			Msg("Unclassified inventory record")

		idx.stats.UnclassifiedIDs = append(idx.stats.UnclassifiedIDs, rec.ID)
	}
}

func (idx *Index) addController(rec *models.DeviceRecord, ptr map[string]string, log logger.Logger) {
	if rec.FQDN != "" {
		idx.controllerFQDN[rec.ID] = rec.FQDN
		return
	}

	if name, ok := ptr[rec.LanIP]; ok && rec.LanIP != "" {
		idx.controllerFQDN[rec.ID] = name
		return
	}

	if rec.LanIP == "" {
		log.Warn().Str("device_id", rec.ID).Msg("Controller has neither FQDN nor lan IP")
	}

	idx.unresolved[rec.LanIP] = rec.Name
	idx.unresolvedIDs[rec.LanIP] = rec.ID
}

// retract removes every role entry contributed by prev. Entries keyed by
// lan IP or AP name can be shared with other records; those fall back to the
// latest surviving record that claims the same key.
func (idx *Index) retract(prev *models.DeviceRecord, role models.DeviceRole) {
	switch role {
	case models.RoleController:
		delete(idx.controllerFQDN, prev.ID)

		if idx.unresolvedIDs[prev.LanIP] == prev.ID {
			delete(idx.unresolved, prev.LanIP)
			delete(idx.unresolvedIDs, prev.LanIP)
			idx.restoreUnresolved(prev)
		}
	case models.RoleVirtualController:
		delete(idx.virtualFQDN, prev.ID)
	case models.RoleManagedAP:
		aps := idx.controllerAPs[prev.ControllerID]
		if n := slices.Index(aps, prev.Name); n >= 0 {
			aps = slices.Delete(aps, n, n+1)
		}

		if len(aps) == 0 {
			delete(idx.controllerAPs, prev.ControllerID)
		} else {
			idx.controllerAPs[prev.ControllerID] = aps
		}

		if idx.apController[prev.Name] == prev.ControllerID && !slices.Contains(aps, prev.Name) {
			delete(idx.apController, prev.Name)
			idx.restoreAPController(prev)
		}
	case models.RoleStandaloneAP:
		delete(idx.standalone, prev.ID)
	case models.RoleUnclassified:
		if n := slices.Index(idx.stats.UnclassifiedIDs, prev.ID); n >= 0 {
			idx.stats.UnclassifiedIDs = slices.Delete(idx.stats.UnclassifiedIDs, n, n+1)
		}
	}
}

// survivor returns the last record in input order, other than prev, that
// satisfies match.
func (idx *Index) survivor(prev *models.DeviceRecord, match func(id string, rec *models.DeviceRecord) bool) (models.DeviceRecord, bool) {
	for n := len(idx.order) - 1; n >= 0; n-- {
		id := idx.order[n]
		if id == prev.ID {
			continue
		}

		if rec := idx.devices[id]; match(id, &rec) {
			return rec, true
		}
	}

	return models.DeviceRecord{}, false
}

func (idx *Index) restoreUnresolved(prev *models.DeviceRecord) {
	rec, ok := idx.survivor(prev, func(id string, rec *models.DeviceRecord) bool {
		_, resolved := idx.controllerFQDN[id]

		return idx.roles[id] == models.RoleController && !resolved && rec.LanIP == prev.LanIP
	})
	if !ok {
		return
	}

	idx.unresolved[rec.LanIP] = rec.Name
	idx.unresolvedIDs[rec.LanIP] = rec.ID
}

func (idx *Index) restoreAPController(prev *models.DeviceRecord) {
	rec, ok := idx.survivor(prev, func(id string, rec *models.DeviceRecord) bool {
		return idx.roles[id] == models.RoleManagedAP && rec.Name == prev.Name
	})
	if !ok {
		return
	}

	idx.apController[rec.Name] = rec.ControllerID
}

func (idx *Index) finalize() {
	idx.stats.Total = len(idx.devices)

	for _, role := range idx.roles {
		idx.stats.Roles[role]++
	}

	idx.stats.ManagedAPs = idx.stats.Roles[models.RoleManagedAP]
	idx.stats.Unclassified = idx.stats.Roles[models.RoleUnclassified]
}
