// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package lookup implements typed clients for the external accession
// services: NCBI Entrez E-utilities, the EBI ENA portal, and Google
// Programmable Search. Each adapter normalizes its responses into
// AccessionRecords so the aggregator never parses source payloads itself.
package lookup

import (
	"context"

	"github.com/pdiddy/sragent/pkg/types"
)

// Query is the adapter-shaped form of a resolution request. The strategy
// selector rewrites a ResolutionRequest into one Query per strategy.
type Query struct {
	// Term is the literal query string sent to the service. For the search
	// adapter this includes quoting and appended context terms.
	Term string

	// Input is the accession or text the request started from.
	Input string

	// InputNamespace classifies Input, when it is an accession.
	InputNamespace types.Namespace

	// Target restricts which namespaces the adapter should emit. Empty
	// means emit everything the source returns.
	Target types.Namespace
}

// Adapter is a typed client for one external lookup service.
type Adapter interface {
	// Name identifies the adapter in records, attempt logs, and the
	// adapter-health registry.
	Name() string

	// Lookup executes the query and returns normalized records. Failures
	// are reported as *Error values so the retry controller can classify
	// them; any other error is treated as transient.
	Lookup(ctx context.Context, q Query) ([]types.AccessionRecord, error)

	// RateLimitCeiling is the number of throttle responses tolerated before
	// the strategy selector deprioritizes this adapter.
	RateLimitCeiling() int
}
