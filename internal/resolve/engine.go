// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package resolve drives accession resolution: the strategy selector plans
// an ordered queue of adapter queries, the workflow engine executes them
// through the retry controller, and the aggregator folds successful
// payloads into one deduplicated record set.
package resolve

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/pdiddy/sragent/internal/retry"
	"github.com/pdiddy/sragent/pkg/types"
)

const defaultResolvedThreshold = 0.8

// Engine executes resolution requests. It is stateless across requests;
// the only shared mutable state is the adapter-health registry inside the
// retry controller and selector.
type Engine struct {
	selector *Selector
	retrier  *retry.Controller
	cfg      types.EngineConfig
	w        io.Writer
}

// NewEngine validates the configuration and builds an engine. Progress and
// warnings are written to w.
func NewEngine(selector *Selector, retrier *retry.Controller, cfg types.EngineConfig, w io.Writer) (*Engine, error) {
	switch cfg.Policy {
	case "":
		cfg.Policy = types.PolicyFirst
	case types.PolicyFirst, types.PolicyExhaustive:
	default:
		return nil, fmt.Errorf("invalid aggregation policy %q: use %q or %q",
			cfg.Policy, types.PolicyFirst, types.PolicyExhaustive)
	}
	if cfg.ResolvedThreshold <= 0 || cfg.ResolvedThreshold > 1 {
		cfg.ResolvedThreshold = defaultResolvedThreshold
	}
	if w == nil {
		w = io.Discard
	}
	return &Engine{selector: selector, retrier: retrier, cfg: cfg, w: w}, nil
}

// Resolve runs the request to completion. Individual strategy failures are
// recovered by moving to the next strategy; only total exhaustion is
// reported, as an Unresolved result rather than an error. When the caller
// cancels the context, remaining strategies are logged as skipped and the
// result reflects whatever was collected before cancellation.
func (e *Engine) Resolve(ctx context.Context, req types.ResolutionRequest) types.ResolutionResult {
	plan := e.selector.Plan(req)

	result := types.ResolutionResult{
		ID:      uuid.NewString(),
		Request: req,
	}

	var records []types.AccessionRecord
	anyFailure := false

	for i, st := range plan {
		if ctx.Err() != nil {
			result.Attempts = append(result.Attempts, types.StrategyAttempt{
				Adapter: st.Adapter.Name(),
				Query:   st.Query.Term,
				Outcome: "skipped",
				Reason:  ctx.Err().Error(),
			})
			continue
		}

		fmt.Fprintf(e.w, "strategy %d/%d: %s %q\n", i+1, len(plan), st.Adapter.Name(), st.Query.Term)

		adapter := st.Adapter
		query := st.Query
		out := e.retrier.Execute(ctx, adapter.Name(), func(ctx context.Context) ([]types.AccessionRecord, error) {
			return adapter.Lookup(ctx, query)
		})

		attempt := types.StrategyAttempt{
			Adapter:  adapter.Name(),
			Query:    query.Term,
			Attempts: out.Attempts,
		}

		if out.Status == retry.Success {
			records = Fold(records, out.Records)
			attempt.Outcome = "success"
			attempt.Records = len(out.Records)
			result.Attempts = append(result.Attempts, attempt)

			if e.cfg.Policy == types.PolicyFirst && goalSatisfied(req, records) {
				break
			}
			continue
		}

		anyFailure = true
		attempt.Outcome = "terminal_failure"
		if out.Reason != nil {
			attempt.Reason = out.Reason.Error()
		}
		result.Attempts = append(result.Attempts, attempt)
		fmt.Fprintf(e.w, "  warning: %s failed: %v\n", adapter.Name(), out.Reason)
	}

	result.Records = rank(records)
	result.Status = finalStatus(result, anyFailure, e.cfg.ResolvedThreshold)
	result.Timestamp = time.Now().UTC()
	return result
}

// goalSatisfied reports whether the collected records answer the request
// well enough to stop probing under the first-success policy.
func goalSatisfied(req types.ResolutionRequest, records []types.AccessionRecord) bool {
	if len(records) == 0 {
		return false
	}
	switch {
	case req.Target != types.NamespaceUnknown:
		return hasNamespace(records, req.Target)
	case req.Goal == types.GoalFindPublication:
		return hasNamespace(records, types.NamespacePMID) ||
			hasNamespace(records, types.NamespacePMCID) ||
			hasNamespace(records, types.NamespaceDOI)
	default:
		return true
	}
}

func hasNamespace(records []types.AccessionRecord, ns types.Namespace) bool {
	for _, rec := range records {
		if rec.Namespace == ns {
			return true
		}
	}
	return false
}

// finalStatus maps the collected records and failure history onto the
// result status. Resolved always carries at least one record; Unresolved
// never carries any.
func finalStatus(result types.ResolutionResult, anyFailure bool, threshold float64) types.ResolutionStatus {
	if len(result.Records) == 0 {
		return types.StatusUnresolved
	}
	if !anyFailure || result.TopConfidence() >= threshold {
		return types.StatusResolved
	}
	return types.StatusPartiallyResolved
}
