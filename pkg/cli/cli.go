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

// Package cli implements the airwave-inventory command line: flag parsing,
// the query subcommands and output rendering.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/carverauto/airwave/pkg/inventory"
)

const (
	defaultConfigPath = "/etc/airwave/airwave.yaml"
	defaultCommand    = "dump"

	OutputJSON = "json"
	OutputYAML = "yaml"
	OutputText = "text"
)

type command struct {
	name    string
	usage   string
	minArgs int
	run     func(ctx context.Context, env *Env, args []string) (interface{}, error)
}

// Env is what a subcommand runs against.
type Env struct {
	Index   *inventory.Index
	Clients ClientLocator
}

var commands = []command{
	{name: "dump", usage: "full index snapshot", run: runDump},
	{name: "summary", usage: "build statistics", run: runSummary},
	{name: "controllers", usage: "controller id to FQDN", run: runControllers},
	{name: "fqdns", usage: "distinct controller FQDNs", run: runFQDNs},
	{name: "unresolved", usage: "controllers without FQDN, by lan IP", run: runUnresolved},
	{name: "standalone", usage: "standalone APs, id to name", run: runStandalone},
	{name: "aps", usage: "<controller-id>  AP names managed by a controller", minArgs: 1, run: runAPs},
	{name: "controller-of", usage: "<ap-name>...  controllers managing the given APs", minArgs: 1, run: runControllerOf},
	{name: "controller-aps", usage: "controller FQDN to AP names", run: runControllerAPs},
	{name: "vc-aps", usage: "virtual controller FQDN to AP names", run: runVirtualControllerAPs},
	{name: "client", usage: "<mac>  AP and controller of a wireless client", minArgs: 1, run: runClient},
}

func lookupCommand(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}

	return command{}, false
}

// ParseFlags parses command-line flags and the subcommand.
func ParseFlags(args []string, stderr io.Writer) (*CmdConfig, error) {
	fs := flag.NewFlagSet("airwave-inventory", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { PrintUsage(stderr) }

	configPath := fs.String("config", defaultConfigPath, "path to JSON or YAML config file")
	output := fs.String("output", OutputJSON, "output format: json, yaml or text")
	watch := fs.Bool("watch", false, "keep polling AirWave and log every new index")
	debug := fs.Bool("debug", false, "enable debug logging")
	help := fs.Bool("help", false, "show help message")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &CmdConfig{
		ConfigPath: *configPath,
		Output:     strings.ToLower(*output),
		Watch:      *watch,
		Debug:      *debug,
		Help:       *help,
		Version:    *showVersion,
		SubCmd:     defaultCommand,
	}

	if fs.NArg() > 0 {
		cfg.SubCmd = fs.Arg(0)
		cfg.Args = fs.Args()[1:]
	}

	if cfg.Help || cfg.Version {
		return cfg, nil
	}

	switch cfg.Output {
	case OutputJSON, OutputYAML, OutputText:
	default:
		return nil, fmt.Errorf("%w: %s", errUnknownOutput, *output)
	}

	cmd, ok := lookupCommand(cfg.SubCmd)
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownCommand, cfg.SubCmd)
	}

	if len(cfg.Args) < cmd.minArgs {
		return nil, fmt.Errorf("%w: %s %s", errMissingArgs, cmd.name, cmd.usage)
	}

	return cfg, nil
}

// NeedsClientLookup reports whether the subcommand talks to AirWave beyond the
// inventory fetch.
func (c *CmdConfig) NeedsClientLookup() bool {
	return c.SubCmd == "client"
}

// Run executes the configured subcommand and renders its result to w.
func Run(ctx context.Context, cfg *CmdConfig, env *Env, w io.Writer) error {
	cmd, ok := lookupCommand(cfg.SubCmd)
	if !ok {
		return fmt.Errorf("%w: %s", errUnknownCommand, cfg.SubCmd)
	}

	result, err := cmd.run(ctx, env, cfg.Args)
	if err != nil {
		return err
	}

	return Render(w, cfg.Output, result)
}

func runDump(_ context.Context, env *Env, _ []string) (interface{}, error) {
	return env.Index.Snapshot(), nil
}

func runSummary(_ context.Context, env *Env, _ []string) (interface{}, error) {
	return NewSummary(env.Index), nil
}

// NewSummary describes an index build.
func NewSummary(idx *inventory.Index) Summary {
	return Summary{
		BuildID: idx.BuildID(),
		BuiltAt: idx.BuiltAt(),
		Stats:   idx.Stats(),
	}
}

func runControllers(_ context.Context, env *Env, _ []string) (interface{}, error) {
	return env.Index.ControllerFQDNs(), nil
}

func runFQDNs(_ context.Context, env *Env, _ []string) (interface{}, error) {
	return env.Index.AllControllerFQDNs(), nil
}

func runUnresolved(_ context.Context, env *Env, _ []string) (interface{}, error) {
	return env.Index.UnresolvedControllers(), nil
}

func runStandalone(_ context.Context, env *Env, _ []string) (interface{}, error) {
	return env.Index.StandaloneAPs(), nil
}

func runAPs(_ context.Context, env *Env, args []string) (interface{}, error) {
	return env.Index.APsOfController(args[0]), nil
}

func runControllerOf(_ context.Context, env *Env, args []string) (interface{}, error) {
	report := ControllerReport{
		Assignments: make([]ControllerAssignment, 0, len(args)),
		Controllers: env.Index.ControllersOfAPs(args),
	}

	for _, name := range args {
		assignment := ControllerAssignment{AP: name}

		if rec, ok := env.Index.ControllerOfAPRecord(name); ok {
			assignment.ControllerID = rec.ID
			assignment.ControllerFQDN, _ = env.Index.FQDNOfController(rec.ID)
			assignment.Controller = &rec
		}

		report.Assignments = append(report.Assignments, assignment)
	}

	return report, nil
}

func runControllerAPs(_ context.Context, env *Env, _ []string) (interface{}, error) {
	return env.Index.APsByControllerFQDN(), nil
}

func runVirtualControllerAPs(_ context.Context, env *Env, _ []string) (interface{}, error) {
	return env.Index.APsByVirtualControllerFQDN(), nil
}

func runClient(ctx context.Context, env *Env, args []string) (interface{}, error) {
	if env.Clients == nil {
		return nil, errNoClientLookup
	}

	assoc, err := env.Clients.ClientAssociation(ctx, args[0])
	if err != nil {
		return nil, err
	}

	report := ClientReport{Client: assoc}

	if assoc.ControllerID != "" {
		if rec, ok := env.Index.Device(assoc.ControllerID); ok {
			report.Controller = &rec
			report.ControllerFQDN, _ = env.Index.FQDNOfController(rec.ID)
		}
	}

	return report, nil
}
