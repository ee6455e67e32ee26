// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"sort"
	"strings"

	"github.com/pdiddy/sragent/pkg/types"
)

// Fold merges newly fetched records into the collected set and returns a
// new slice; neither input is mutated. Records deduplicate by
// (namespace, accession), case-insensitive and whitespace-trimmed. On
// collision the higher-confidence record wins; ties keep the earlier one,
// which came from a higher-priority strategy.
func Fold(existing, incoming []types.AccessionRecord) []types.AccessionRecord {
	merged := make([]types.AccessionRecord, len(existing))
	copy(merged, existing)

	index := make(map[string]int, len(merged))
	for i, rec := range merged {
		index[dedupKey(rec)] = i
	}

	for _, rec := range incoming {
		key := dedupKey(rec)
		if i, ok := index[key]; ok {
			if rec.Confidence > merged[i].Confidence {
				merged[i] = rec
			}
			continue
		}
		index[key] = len(merged)
		merged = append(merged, rec)
	}
	return merged
}

// dedupKey is the canonical identity of a record.
func dedupKey(rec types.AccessionRecord) string {
	return strings.ToLower(string(rec.Namespace)) + ":" + strings.ToLower(strings.TrimSpace(rec.Accession))
}

// rank orders records by confidence, highest first, preserving fold order
// among equals.
func rank(records []types.AccessionRecord) []types.AccessionRecord {
	ranked := make([]types.AccessionRecord, len(records))
	copy(ranked, records)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})
	return ranked
}
