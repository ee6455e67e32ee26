// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/sragent/pkg/types"
)

// FormatTable writes a result as a human-readable table to w.
func FormatTable(result types.ResolutionResult, w io.Writer) {
	fmt.Fprintf(w, "%s  %s -> %s  [%s]\n", result.Request.Goal, result.Request.Input,
		targetOrAny(result.Request.Target), result.Status)

	if len(result.Records) == 0 {
		fmt.Fprintln(w, "No records found.")
	} else {
		fmt.Fprintf(w, "%-8s  %-16s  %-12s  %-6s  %s\n",
			"Type", "Accession", "Source", "Conf", "Detail")
		fmt.Fprintln(w, strings.Repeat("-", 80))
		for _, rec := range result.Records {
			detail := rec.Detail
			if len(detail) > 34 {
				detail = detail[:31] + "..."
			}
			fmt.Fprintf(w, "%-8s  %-16s  %-12s  %-6.2f  %s\n",
				rec.Namespace, rec.Accession, rec.Source, rec.Confidence, detail)
		}
		fmt.Fprintf(w, "\n%d record(s)\n", len(result.Records))
	}

	// Non-resolved outcomes include the attempt log for diagnosis.
	if result.Status != types.StatusResolved {
		FormatAttempts(result.Attempts, w)
	}
}

// FormatAttempts writes the strategy-attempt log to w.
func FormatAttempts(attempts []types.StrategyAttempt, w io.Writer) {
	if len(attempts) == 0 {
		return
	}
	fmt.Fprintln(w, "\nStrategies attempted:")
	for i, a := range attempts {
		line := fmt.Sprintf("  %d. %s %q: %s", i+1, a.Adapter, a.Query, a.Outcome)
		if a.Attempts > 1 {
			line += fmt.Sprintf(" (%d attempts)", a.Attempts)
		}
		if a.Reason != "" {
			line += " - " + a.Reason
		}
		fmt.Fprintln(w, line)
	}
}

// FormatJSON writes a result as indented JSON to w.
func FormatJSON(result types.ResolutionResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func targetOrAny(ns types.Namespace) string {
	if ns == types.NamespaceUnknown {
		return "any"
	}
	return string(ns)
}
