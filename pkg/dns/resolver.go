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

// Package dns provides the reverse lookups used to name controllers that
// AirWave reports without an FQDN.
package dns

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/carverauto/airwave/pkg/logger"
	"github.com/carverauto/airwave/pkg/models"
)

const (
	defaultTimeout = 3 * time.Second
	dnsPort        = "53"
)

var errNoPTR = errors.New("no PTR record")

// addrLookuper is the part of *net.Resolver we use.
type addrLookuper interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// Resolver answers PTR queries through the system resolver or a configured
// nameserver.
type Resolver struct {
	lookuper addrLookuper
	timeout  time.Duration
	logger   logger.Logger
}

// NewResolver builds a Resolver from config. An empty nameserver uses the
// system resolver.
func NewResolver(cfg *models.DNSConfig, log logger.Logger) *Resolver {
	if cfg == nil {
		cfg = &models.DNSConfig{}
	}

	timeout := time.Duration(cfg.Timeout)
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	if log == nil {
		log = logger.NewNop()
	}

	r := &Resolver{
		lookuper: net.DefaultResolver,
		timeout:  timeout,
		logger:   log.WithComponent("dns"),
	}

	if cfg.Nameserver != "" {
		r.lookuper = customResolver(cfg.Nameserver, timeout)
	}

	return r
}

func customResolver(nameserver string, timeout time.Duration) *net.Resolver {
	addr := nameserver
	if _, _, err := net.SplitHostPort(nameserver); err != nil {
		addr = net.JoinHostPort(nameserver, dnsPort)
	}

	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, _, _ string) (net.Conn, error) {
			d := net.Dialer{Timeout: timeout}
			return d.DialContext(ctx, "udp", addr)
		},
	}
}

// LookupPTR returns the first name for ip with any trailing dot removed.
func (r *Resolver) LookupPTR(ctx context.Context, ip string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	names, err := r.lookuper.LookupAddr(ctx, ip)
	if err != nil {
		r.logger.Debug().Err(err).Str("ip", ip).Msg("PTR lookup failed")
		return "", err
	}

	if len(names) == 0 {
		return "", errNoPTR
	}

	return strings.TrimSuffix(names[0], "."), nil
}
