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
	"maps"
	"slices"
	"sort"
	"time"

	"github.com/carverauto/airwave/pkg/models"
)

// Stats describes how a build went. Operators watch Unclassified and Skipped to
// spot new device categories or broken records upstream.
type Stats struct {
	Total           int                       `json:"total" yaml:"total"`
	Roles           map[models.DeviceRole]int `json:"roles" yaml:"roles"`
	ManagedAPs      int                       `json:"managed_aps" yaml:"managed_aps"`
	Unclassified    int                       `json:"unclassified" yaml:"unclassified"`
	UnclassifiedIDs []string                  `json:"unclassified_ids,omitempty" yaml:"unclassified_ids,omitempty"`
	Skipped         []SkippedRecord           `json:"skipped,omitempty" yaml:"skipped,omitempty"`
	DuplicateIDs    []string                  `json:"duplicate_ids,omitempty" yaml:"duplicate_ids,omitempty"`
	DNSLookups      int                       `json:"dns_lookups" yaml:"dns_lookups"`
	DNSResolved     int                       `json:"dns_resolved" yaml:"dns_resolved"`
	DNSFailures     int                       `json:"dns_failures" yaml:"dns_failures"`
}

func (s *Stats) clone() Stats {
	out := *s
	out.Roles = maps.Clone(s.Roles)
	out.UnclassifiedIDs = slices.Clone(s.UnclassifiedIDs)
	out.Skipped = slices.Clone(s.Skipped)
	out.DuplicateIDs = slices.Clone(s.DuplicateIDs)

	return out
}

// Index is the immutable result of one build. All accessors return copies, so
// an Index can be shared between goroutines without locking.
type Index struct {
	buildID string
	builtAt time.Time

	order   []string
	devices map[string]models.DeviceRecord
	roles   map[string]models.DeviceRole

	controllerFQDN map[string]string   // controller id -> fqdn
	unresolved     map[string]string   // controller lan ip -> name
	unresolvedIDs  map[string]string   // controller lan ip -> id, for retraction
	virtualFQDN    map[string]string   // virtual controller id -> fqdn (may be "")
	controllerAPs  map[string][]string // controller id -> AP names, input order
	apController   map[string]string   // AP name -> controller id
	standalone     map[string]string   // AP id -> name

	stats Stats
}

func newIndex(buildID string, sizeHint int) *Index {
	return &Index{
		buildID:        buildID,
		order:          make([]string, 0, sizeHint),
		devices:        make(map[string]models.DeviceRecord, sizeHint),
		roles:          make(map[string]models.DeviceRole, sizeHint),
		controllerFQDN: make(map[string]string),
		unresolved:     make(map[string]string),
		unresolvedIDs:  make(map[string]string),
		virtualFQDN:    make(map[string]string),
		controllerAPs:  make(map[string][]string),
		apController:   make(map[string]string),
		standalone:     make(map[string]string),
		stats:          Stats{Roles: make(map[models.DeviceRole]int)},
	}
}

// BuildID uniquely identifies this snapshot.
func (idx *Index) BuildID() string { return idx.buildID }

// BuiltAt is when the build finished.
func (idx *Index) BuiltAt() time.Time { return idx.builtAt }

// Len is the number of distinct device ids.
func (idx *Index) Len() int { return len(idx.devices) }

func (idx *Index) Stats() Stats { return idx.stats.clone() }

// IDs returns device ids in input order.
func (idx *Index) IDs() []string { return slices.Clone(idx.order) }

func (idx *Index) Device(id string) (models.DeviceRecord, bool) {
	rec, ok := idx.devices[id]
	return rec, ok
}

func (idx *Index) Devices() map[string]models.DeviceRecord { return maps.Clone(idx.devices) }

func (idx *Index) Role(id string) (models.DeviceRole, bool) {
	role, ok := idx.roles[id]
	return role, ok
}

// FQDNOfController returns the FQDN of a physical controller, whether it came
// from AirWave directly or from a PTR lookup.
func (idx *Index) FQDNOfController(id string) (string, bool) {
	fqdn, ok := idx.controllerFQDN[id]
	return fqdn, ok
}

// APsOfController returns the AP names managed by a controller in input order.
// A controller that manages nothing yields an empty, non-nil slice.
func (idx *Index) APsOfController(controllerID string) []string {
	aps := idx.controllerAPs[controllerID]
	if aps == nil {
		return []string{}
	}

	return slices.Clone(aps)
}

func (idx *Index) ControllerOfAP(name string) (string, bool) {
	id, ok := idx.apController[name]
	return id, ok
}

// ControllerOfAPRecord returns the full record of the controller managing the
// named AP.
func (idx *Index) ControllerOfAPRecord(name string) (models.DeviceRecord, bool) {
	id, ok := idx.apController[name]
	if !ok {
		return models.DeviceRecord{}, false
	}

	return idx.Device(id)
}

// ControllersOfAPs returns the distinct controller ids managing any of names,
// sorted. Unknown names are ignored.
func (idx *Index) ControllersOfAPs(names []string) []string {
	set := make(map[string]struct{})

	for _, name := range names {
		if id, ok := idx.apController[name]; ok {
			set[id] = struct{}{}
		}
	}

	return sortedKeys(set)
}

// AllControllerFQDNs returns the distinct resolved controller FQDNs, sorted.
// Unresolved controllers never contribute.
func (idx *Index) AllControllerFQDNs() []string {
	set := make(map[string]struct{}, len(idx.controllerFQDN))

	for _, fqdn := range idx.controllerFQDN {
		set[fqdn] = struct{}{}
	}

	return sortedKeys(set)
}

// APsByControllerFQDN joins controller FQDNs with their AP lists. Controllers
// managing no APs are left out entirely, unlike APsOfController which returns
// an empty list for them.
func (idx *Index) APsByControllerFQDN() map[string][]string {
	return idx.joinAPs(idx.controllerFQDN)
}

// APsByVirtualControllerFQDN is APsByControllerFQDN for virtual controllers
// that carry an FQDN.
func (idx *Index) APsByVirtualControllerFQDN() map[string][]string {
	return idx.joinAPs(idx.virtualFQDN)
}

// joinAPs walks controllers in input order so that two controllers sharing an
// FQDN resolve deterministically: the later one wins.
func (idx *Index) joinAPs(fqdns map[string]string) map[string][]string {
	out := make(map[string][]string)

	for _, id := range idx.order {
		fqdn, ok := fqdns[id]
		if !ok || fqdn == "" {
			continue
		}

		if aps := idx.controllerAPs[id]; len(aps) > 0 {
			out[fqdn] = slices.Clone(aps)
		}
	}

	return out
}

func (idx *Index) ControllerFQDNs() map[string]string { return maps.Clone(idx.controllerFQDN) }

// UnresolvedControllers maps lan IP to name for controllers without any FQDN.
func (idx *Index) UnresolvedControllers() map[string]string { return maps.Clone(idx.unresolved) }

func (idx *Index) VirtualControllers() map[string]string { return maps.Clone(idx.virtualFQDN) }

func (idx *Index) StandaloneAPs() map[string]string { return maps.Clone(idx.standalone) }

func (idx *Index) APControllers() map[string]string { return maps.Clone(idx.apController) }

func (idx *Index) ControllerAPs() map[string][]string {
	out := make(map[string][]string, len(idx.controllerAPs))
	for id, aps := range idx.controllerAPs {
		out[id] = slices.Clone(aps)
	}

	return out
}

// Snapshot is a plain, serializable copy of an Index.
type Snapshot struct {
	BuildID               string                         `json:"build_id" yaml:"build_id"`
	BuiltAt               time.Time                      `json:"built_at" yaml:"built_at"`
	Devices               map[string]models.DeviceRecord `json:"devices" yaml:"devices"`
	ControllerFQDNs       map[string]string              `json:"controller_fqdns" yaml:"controller_fqdns"`
	UnresolvedControllers map[string]string              `json:"unresolved_controllers" yaml:"unresolved_controllers"`
	VirtualControllers    map[string]string              `json:"virtual_controllers" yaml:"virtual_controllers"`
	ControllerAPs         map[string][]string            `json:"controller_aps" yaml:"controller_aps"`
	APControllers         map[string]string              `json:"ap_controllers" yaml:"ap_controllers"`
	StandaloneAPs         map[string]string              `json:"standalone_aps" yaml:"standalone_aps"`
	Stats                 Stats                          `json:"stats" yaml:"stats"`
}

func (idx *Index) Snapshot() Snapshot {
	return Snapshot{
		BuildID:               idx.buildID,
		BuiltAt:               idx.builtAt,
		Devices:               idx.Devices(),
		ControllerFQDNs:       idx.ControllerFQDNs(),
		UnresolvedControllers: idx.UnresolvedControllers(),
		VirtualControllers:    idx.VirtualControllers(),
		ControllerAPs:         idx.ControllerAPs(),
		APControllers:         idx.APControllers(),
		StandaloneAPs:         idx.StandaloneAPs(),
		Stats:                 idx.Stats(),
	}
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}
