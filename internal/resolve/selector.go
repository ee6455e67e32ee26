// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"fmt"

	"github.com/pdiddy/sragent/internal/lookup"
	"github.com/pdiddy/sragent/internal/retry"
	"github.com/pdiddy/sragent/pkg/types"
)

// Strategy is one planned (adapter, query) pair. Strategies are generated
// fresh per request and never mutated.
type Strategy struct {
	Adapter lookup.Adapter
	Query   lookup.Query
}

// Selector plans the ordered strategies for a request. Given the same
// request and adapter-health state the plan is deterministic; planning has
// no side effects.
type Selector struct {
	Entrez    lookup.Adapter
	ENA       lookup.Adapter
	WebSearch lookup.Adapter
	Health    *retry.Health
}

// Plan produces the strategy queue for the request. Accession-database
// adapters come first: Entrez leads for GEO and publication work since gds
// and the PubMed links are native to it, ENA covers SRA-family accessions
// without NCBI quota. Web-search strategies follow, most literal query
// first. Adapters at or over their rate-limit ceiling move to the back of
// the queue rather than out of it, so they remain the last resort.
func (s *Selector) Plan(req types.ResolutionRequest) []Strategy {
	ns, canonical := lookup.ClassifyAccession(req.Input)

	base := lookup.Query{
		Input:          canonical,
		InputNamespace: ns,
		Target:         req.Target,
	}
	if req.Goal == types.GoalFindPublication && base.Target == types.NamespaceUnknown {
		base.Target = types.NamespacePMID
	}

	var planned []Strategy

	if s.Entrez != nil {
		q := base
		q.Term = canonical
		planned = append(planned, Strategy{Adapter: s.Entrez, Query: q})
	}

	if s.ENA != nil && enaResolvable(ns) && req.Goal != types.GoalFindPublication {
		q := base
		q.Term = canonical
		planned = append(planned, Strategy{Adapter: s.ENA, Query: q})
	}

	if s.WebSearch != nil {
		for _, term := range searchRewrites(canonical, ns, base.Target) {
			q := base
			q.Term = term
			planned = append(planned, Strategy{Adapter: s.WebSearch, Query: q})
		}
	}

	return s.deprioritizeThrottled(planned)
}

// searchRewrites generates the web-search query variants, most literal
// first. Accessions are quoted; broadened variants append the database name
// and then the target namespace as context terms.
func searchRewrites(input string, ns, target types.Namespace) []string {
	literal := input
	if ns != types.NamespaceUnknown {
		literal = fmt.Sprintf("%q", input)
	}

	rewrites := []string{literal, literal + " NCBI"}
	if target != types.NamespaceUnknown {
		rewrites = append(rewrites, fmt.Sprintf("%s %s accession", literal, target))
	}
	return rewrites
}

// enaResolvable reports whether the ENA portal can be filtered by this
// namespace.
func enaResolvable(ns types.Namespace) bool {
	switch ns {
	case types.NamespaceGSE, types.NamespaceGSM, types.NamespaceEMTAB,
		types.NamespaceSRP, types.NamespacePRJNA,
		types.NamespaceSRX, types.NamespaceSRR,
		types.NamespaceSRS, types.NamespaceSAMN:
		return true
	default:
		return false
	}
}

// deprioritizeThrottled moves strategies whose adapter is at its rate-limit
// ceiling behind the healthy ones, preserving relative order within each
// group.
func (s *Selector) deprioritizeThrottled(planned []Strategy) []Strategy {
	if s.Health == nil {
		return planned
	}

	healthy := make([]Strategy, 0, len(planned))
	var throttled []Strategy
	for _, st := range planned {
		if s.Health.OverCeiling(st.Adapter.Name(), st.Adapter.RateLimitCeiling()) {
			throttled = append(throttled, st)
			continue
		}
		healthy = append(healthy, st)
	}
	return append(healthy, throttled...)
}
