// Package alert implements the alert dispatcher: pluggable sinks behind
// one capability set, selected by the available environment
// credentials, following a nil-safe, fail-open notification pattern.
package alert

import (
	"fmt"
	"sort"
	"strings"
)

// Alert is a rendered drift alert ready for dispatch. Body mirrors the
// string-to-string map the scheduler produces (scheduler.AlertMap);
// ZoneBreakdown is populated only for SPC alerts.
type Alert struct {
	EntityName    string
	Body          map[string]string
	ZoneBreakdown map[string][]ZoneHit
}

// ZoneHit names one out-of-control classification contributing to an SPC
// alert.
type ZoneHit struct {
	Kind string // e.g. "out_of_control", "warning"
	Zone int
}

// Dispatcher posts a rendered Alert to one external sink. Implementations
// are best-effort: a DispatchError is logged and swallowed by callers,
// never propagated as a process error, because the alert row is already
// persisted by the scheduler before Dispatch is called.
type Dispatcher interface {
	Dispatch(alert Alert) error
}

// describe renders a human-readable alert description common to every
// sink, keyed-value pairs sorted for determinism.
func describe(a Alert) string {
	var b strings.Builder
	name := a.EntityName
	if name == "" {
		name = "(unknown entity)"
	}
	fmt.Fprintf(&b, "Drift alert for %s", name)

	keys := make([]string, 0, len(a.Body))
	for k := range a.Body {
		if k == "entity_name" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n%s: %s", k, a.Body[k])
	}

	if len(a.ZoneBreakdown) > 0 {
		features := make([]string, 0, len(a.ZoneBreakdown))
		for f := range a.ZoneBreakdown {
			features = append(features, f)
		}
		sort.Strings(features)
		b.WriteString("\nzone breakdown:")
		for _, f := range features {
			for _, hit := range a.ZoneBreakdown[f] {
				fmt.Fprintf(&b, "\n  %s: %s (zone %d)", f, hit.Kind, hit.Zone)
			}
		}
	}
	return b.String()
}

// describeIndented renders the same fields with 2-space indentation and
// no bullets, the shape OpsGenie's description field expects.
func describeIndented(a Alert) string {
	base := describe(a)
	lines := strings.Split(base, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = "  " + lines[i]
	}
	return strings.Join(lines, "\n")
}

// describeBulleted renders the same fields as a bullet list, the shape
// Slack's message blocks expect.
func describeBulleted(a Alert) string {
	base := describe(a)
	lines := strings.Split(base, "\n")
	for i := 1; i < len(lines); i++ {
		lines[i] = "• " + lines[i]
	}
	return strings.Join(lines, "\n")
}
