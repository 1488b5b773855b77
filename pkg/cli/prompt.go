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
	"os"
	"strings"

	"golang.org/x/term"
)

// PromptPassword reads a password from the terminal behind in without echo.
func PromptPassword(in *os.File, out io.Writer, username string) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return "", errNoTerminal
	}

	fmt.Fprintf(out, "AirWave password for %s: ", username)

	secret, err := term.ReadPassword(fd)

	fmt.Fprintln(out)

	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	password := strings.TrimSpace(string(secret))
	if password == "" {
		return "", errEmptyPassword
	}

	return password, nil
}
