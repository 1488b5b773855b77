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


package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/carverauto/airwave/pkg/airwave"
	"github.com/carverauto/airwave/pkg/cli"
	"github.com/carverauto/airwave/pkg/config"
	"github.com/carverauto/airwave/pkg/dns"
	"github.com/carverauto/airwave/pkg/inventory"
	"github.com/carverauto/airwave/pkg/logger"
	"github.com/carverauto/airwave/pkg/sync"
	"github.com/carverauto/airwave/pkg/version"
)

func main() {
	if err := run(); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}

		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cmdCfg, err := cli.ParseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		return err
	}

	if cmdCfg.Help {
		cli.PrintUsage(os.Stdout)

		return nil
	}

	if cmdCfg.Version {
		return cli.Render(os.Stdout, cmdCfg.Output, version.Get())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := logger.InitWithDefaults()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	var cfg sync.Config

	if err := config.NewConfig(log).LoadAndValidate(ctx, cmdCfg.ConfigPath, &cfg); err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if cfg.Logging != nil {
		if log, err = logger.Init(cfg.Logging); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	if cmdCfg.Debug {
		log.SetDebug(true)
	}

	log.Debug().Str("version", version.Get().String()).Msg("Starting airwave-inventory")

	if cfg.Airwave.Password == "" {
		if cfg.Airwave.Password, err = cli.PromptPassword(os.Stdin, os.Stderr, cfg.Airwave.Username); err != nil {
			return err
		}
	}

	metrics := sync.NewInMemoryMetrics(log)

	client, err := airwave.NewClient(&cfg.Airwave, log,
		airwave.WithHTTPMiddleware(func(hc airwave.HTTPClient) airwave.HTTPClient {
			return sync.NewMetricsHTTPClient(hc, metrics)
		}))
	if err != nil {
		return err
	}
	defer client.Close()

	indexerOpts := []inventory.Option{inventory.WithDNSTimeout(time.Duration(cfg.DNS.Timeout))}
	if cfg.DNS.Concurrency > 0 {
		indexerOpts = append(indexerOpts, inventory.WithDNSConcurrency(cfg.DNS.Concurrency))
	}

	indexer := inventory.NewIndexer(dns.NewResolver(&cfg.DNS, log), log, indexerOpts...)

	syncOpts := []sync.Option{sync.WithMetrics(metrics)}

	if cmdCfg.Watch {
		syncOpts = append(syncOpts, sync.WithSnapshotHandler(func(idx *inventory.Index) {
			if err := cli.Render(os.Stdout, cmdCfg.Output, cli.NewSummary(idx)); err != nil {
				log.Error().Err(err).Msg("Failed to render summary")
			}
		}))
	}

	syncer, err := sync.New(&cfg, client, indexer, log, syncOpts...)
	if err != nil {
		return err
	}

	if cmdCfg.Watch {
		return watch(ctx, syncer, log)
	}

	if err := syncer.Sync(ctx); err != nil {
		return err
	}

	env := &cli.Env{Index: syncer.Current(), Clients: client}

	return cli.Run(ctx, cmdCfg, env, os.Stdout)
}

func watch(ctx context.Context, syncer *sync.Syncer, log logger.Logger) error {
	err := syncer.Start(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info().Interface("metrics", syncer.Metrics().GetMetrics()).Msg("Inventory sync stopped")

		return nil
	}

	return err
}
