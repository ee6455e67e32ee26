// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the sragent resolution
// engine: accession namespaces, resolution requests, normalized accession
// records, and the final resolution result returned to the caller.
package types

import "time"

// Namespace identifies the database family an accession belongs to.
type Namespace string

const (
	NamespaceUnknown Namespace = ""
	NamespaceGSE     Namespace = "GSE"   // GEO series
	NamespaceGSM     Namespace = "GSM"   // GEO sample
	NamespaceGDS     Namespace = "GDS"   // GEO dataset
	NamespaceSRX     Namespace = "SRX"   // SRA experiment
	NamespaceSRR     Namespace = "SRR"   // SRA run
	NamespaceSRP     Namespace = "SRP"   // SRA study
	NamespaceSRS     Namespace = "SRS"   // SRA sample
	NamespacePRJNA   Namespace = "PRJNA" // BioProject
	NamespaceSAMN    Namespace = "SAMN"  // BioSample
	NamespaceEMTAB   Namespace = "EMTAB" // ArrayExpress experiment
	NamespacePMID    Namespace = "PMID"  // PubMed publication
	NamespacePMCID   Namespace = "PMCID" // PubMed Central publication
	NamespaceDOI     Namespace = "DOI"   // preprint or article DOI
)

// Goal selects what the engine should produce for a request.
type Goal string

const (
	// GoalConvert maps the input accession to accessions of the target
	// namespace (e.g. GSE → SRX).
	GoalConvert Goal = "convert"

	// GoalFindPublication finds the publication (PMID, PMCID, or preprint
	// DOI) associated with the input accession.
	GoalFindPublication Goal = "find-publication"

	// GoalLookup retrieves whatever records the sources hold for the input
	// without a fixed target namespace.
	GoalLookup Goal = "lookup"
)

// ResolutionRequest describes one resolution job. It is created once per
// invocation and never mutated.
type ResolutionRequest struct {
	// Goal is what the caller wants from the input.
	Goal Goal `json:"goal" yaml:"goal"`

	// Input is the accession or free text supplied by the caller.
	Input string `json:"input" yaml:"input"`

	// Target is the namespace the caller wants records in. Empty means any.
	Target Namespace `json:"target,omitempty" yaml:"target,omitempty"`
}

// AccessionRecord is the normalized unit of output. Adapters emit records in
// this shape; the aggregator deduplicates them by (Namespace, Accession).
type AccessionRecord struct {
	// Namespace is the database family of the accession.
	Namespace Namespace `json:"namespace" yaml:"namespace"`

	// Accession is the canonical identifier (trimmed, upper-cased prefix).
	Accession string `json:"accession" yaml:"accession"`

	// Source names the adapter that produced the record (e.g. "entrez").
	Source string `json:"source" yaml:"source"`

	// Confidence is a value between 0.0 and 1.0. Records from the accession
	// databases score higher than records scraped from web search results.
	Confidence float64 `json:"confidence" yaml:"confidence"`

	// Detail is optional human-readable context from the source, such as a
	// study title.
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// ResolutionStatus is the final disposition of a request.
type ResolutionStatus string

const (
	StatusResolved          ResolutionStatus = "resolved"
	StatusPartiallyResolved ResolutionStatus = "partially_resolved"
	StatusUnresolved        ResolutionStatus = "unresolved"
)

// StrategyAttempt logs the outcome of one planned strategy, kept for
// diagnostics when a request does not fully resolve.
type StrategyAttempt struct {
	// Adapter is the adapter the strategy targeted.
	Adapter string `json:"adapter" yaml:"adapter"`

	// Query is the query the strategy sent to the adapter.
	Query string `json:"query" yaml:"query"`

	// Outcome is "success", "terminal_failure", or "skipped" (cancellation).
	Outcome string `json:"outcome" yaml:"outcome"`

	// Attempts counts the adapter invocations the retry controller made.
	Attempts int `json:"attempts" yaml:"attempts"`

	// Reason carries the failure message when Outcome is not success.
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`

	// Records counts the normalized records the attempt contributed.
	Records int `json:"records" yaml:"records"`
}

// ResolutionResult is the final answer for one request.
//
// Invariant: StatusResolved implies len(Records) >= 1 and StatusUnresolved
// implies len(Records) == 0.
type ResolutionResult struct {
	// ID is a unique identifier for this resolution, used by the records store.
	ID string `json:"id" yaml:"id"`

	// Request echoes the request that produced this result.
	Request ResolutionRequest `json:"request" yaml:"request"`

	// Status is the final disposition.
	Status ResolutionStatus `json:"status" yaml:"status"`

	// Records holds the deduplicated accession records, highest confidence first.
	Records []AccessionRecord `json:"records" yaml:"records"`

	// Attempts lists every strategy tried, in the order the selector planned them.
	Attempts []StrategyAttempt `json:"attempts" yaml:"attempts"`

	// Timestamp is when the resolution completed.
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// TopConfidence returns the highest confidence among the result's records,
// or 0 when there are none.
func (r ResolutionResult) TopConfidence() float64 {
	best := 0.0
	for _, rec := range r.Records {
		if rec.Confidence > best {
			best = rec.Confidence
		}
	}
	return best
}
