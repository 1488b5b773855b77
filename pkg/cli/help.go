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

package cli

import (
	"fmt"
	"io"
)

// PrintUsage writes the command help.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, `Usage: airwave-inventory [options] [command] [args]

Pulls the access point inventory from AirWave, classifies every device and
answers questions about controllers and the APs they manage.

Options:
  -config string   path to JSON or YAML config file (default "/etc/airwave/airwave.yaml")
  -output string   output format: json, yaml or text (default "json")
  -watch           keep polling AirWave and log a summary of every new index
  -debug           enable debug logging
  -help            show this help message
  -version         print version and exit

Commands:
`)

	for _, c := range commands {
		fmt.Fprintf(w, "  %-15s %s\n", c.name, c.usage)
	}

	fmt.Fprint(w, `
Configuration values can be overridden with AIRWAVE_* environment variables,
e.g. AIRWAVE_AIRWAVE_ENDPOINT or AIRWAVE_DNS_NAMESERVER. When no password is
configured it is prompted for on the terminal.

Examples:
  airwave-inventory -config airwave.yaml summary
  airwave-inventory -output yaml controller-of ap502 ap503
  airwave-inventory client 33:dd:44:ff:aa:bb
`)
}
