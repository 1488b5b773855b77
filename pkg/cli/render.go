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
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/carverauto/airwave/pkg/models"
)

// Dracula theme colors.
const (
	draculaForeground = "#F8F8F2"
	draculaCyan       = "#8BE9FD"
	draculaGreen      = "#50FA7B"
	draculaOrange     = "#FFB86C"
	draculaPurple     = "#BD93F9"
	draculaComment    = "#6272A4"

	boxPadding = 2
)

type textStyles struct {
	title, label, value, warning, muted, box lipgloss.Style
}

func newTextStyles() textStyles {
	return textStyles{
		title: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaPurple)).
			Bold(true),
		label: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaCyan)),
		value: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaForeground)),
		warning: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaOrange)),
		muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color(draculaComment)),
		box: lipgloss.NewStyle().
			Padding(0, boxPadding).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(draculaGreen)),
	}
}

// Render writes v to w in the given format.
func Render(w io.Writer, format string, v interface{}) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(v)
	case OutputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)

		if err := enc.Encode(v); err != nil {
			return err
		}

		return enc.Close()
	case OutputText:
		return renderText(w, v)
	default:
		return fmt.Errorf("%w: %s", errUnknownOutput, format)
	}
}

func renderText(w io.Writer, v interface{}) error {
	styles := newTextStyles()

	switch t := v.(type) {
	case Summary:
		_, err := fmt.Fprintln(w, renderSummary(&t, &styles))
		return err
	case []string:
		return writeLines(w, t)
	case map[string]string:
		lines := make([]string, 0, len(t))
		for _, k := range sortedMapKeys(t) {
			lines = append(lines, styles.label.Render(k)+"  "+styles.value.Render(t[k]))
		}

		return writeLines(w, lines)
	case map[string][]string:
		lines := make([]string, 0, len(t))
		for _, k := range sortedMapKeys(t) {
			lines = append(lines, styles.label.Render(k)+"  "+styles.value.Render(strings.Join(t[k], ", ")))
		}

		return writeLines(w, lines)
	case fmt.Stringer:
		return writeLines(w, []string{t.String()})
	default:
		// Structured results have no compact text form.
		return Render(w, OutputYAML, v)
	}
}

func renderSummary(s *Summary, styles *textStyles) string {
	var b strings.Builder

	row := func(label string, value interface{}) {
		fmt.Fprintf(&b, "%s %v\n", styles.label.Render(fmt.Sprintf("%-16s", label)), value)
	}

	b.WriteString(styles.title.Render("AirWave inventory"))
	b.WriteString("\n")
	b.WriteString(styles.muted.Render(fmt.Sprintf("build %s at %s", s.BuildID, s.BuiltAt.Format("2006-01-02 15:04:05 MST"))))
	b.WriteString("\n\n")

	row("devices", s.Stats.Total)

	for _, role := range models.Roles() {
		row(role.String(), s.Stats.Roles[role])
	}

	row("managed APs", s.Stats.ManagedAPs)
	row("dns lookups", fmt.Sprintf("%d (%d resolved, %d failed)",
		s.Stats.DNSLookups, s.Stats.DNSResolved, s.Stats.DNSFailures))

	if n := len(s.Stats.Skipped); n > 0 {
		row("skipped", styles.warning.Render(fmt.Sprintf("%d malformed records", n)))
	}

	if n := len(s.Stats.DuplicateIDs); n > 0 {
		row("duplicate ids", styles.warning.Render(strings.Join(s.Stats.DuplicateIDs, ", ")))
	}

	if s.Stats.Unclassified > 0 {
		row("unclassified", styles.warning.Render(strings.Join(s.Stats.UnclassifiedIDs, ", ")))
	}

	return styles.box.Render(strings.TrimRight(b.String(), "\n"))
}

func writeLines(w io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}

	return nil
}

func sortedMapKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
