// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package resolve

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sragent/internal/lookup"
	"github.com/pdiddy/sragent/internal/retry"
	"github.com/pdiddy/sragent/pkg/types"
)

func testRetrier(health *retry.Health) *retry.Controller {
	return retry.New(types.RetryConfig{
		MaxAttempts: 2,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
	}, health)
}

func newTestEngine(t *testing.T, selector *Selector, cfg types.EngineConfig) *Engine {
	t.Helper()
	e, err := NewEngine(selector, testRetrier(selector.Health), cfg, &bytes.Buffer{})
	require.NoError(t, err)
	return e
}

func records(recs ...types.AccessionRecord) func(context.Context, lookup.Query) ([]types.AccessionRecord, error) {
	return func(context.Context, lookup.Query) ([]types.AccessionRecord, error) {
		return recs, nil
	}
}

func failWith(kind lookup.ErrorKind, name string) func(context.Context, lookup.Query) ([]types.AccessionRecord, error) {
	return func(context.Context, lookup.Query) ([]types.AccessionRecord, error) {
		return nil, lookup.Errf(name, kind, "stub failure")
	}
}

func TestResolveConvertHappyPath(t *testing.T) {
	selector := testSelector()
	selector.Entrez.(*stubAdapter).lookup = records(types.AccessionRecord{
		Namespace: types.NamespaceSRX, Accession: "SRX4967527", Source: "entrez", Confidence: 0.9,
	})

	e := newTestEngine(t, selector, types.EngineConfig{})
	result := e.Resolve(context.Background(), types.ResolutionRequest{
		Goal: types.GoalConvert, Input: "GSE121737", Target: types.NamespaceSRX,
	})

	require.Equal(t, types.StatusResolved, result.Status)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "SRX4967527", result.Records[0].Accession)
	assert.Equal(t, types.NamespaceSRX, result.Records[0].Namespace)
	assert.Equal(t, "entrez", result.Records[0].Source)

	// First-success policy stops after the first strategy.
	require.Len(t, result.Attempts, 1)
	assert.Equal(t, "success", result.Attempts[0].Outcome)
	assert.NotEmpty(t, result.ID)
	assert.False(t, result.Timestamp.IsZero())
}

func TestResolveFallsBackToSearch(t *testing.T) {
	selector := testSelector()
	selector.Entrez.(*stubAdapter).lookup = failWith(lookup.KindNotFound, "entrez")
	selector.ENA.(*stubAdapter).lookup = failWith(lookup.KindNotFound, "ena")

	searchCalls := 0
	selector.WebSearch.(*stubAdapter).lookup = func(context.Context, lookup.Query) ([]types.AccessionRecord, error) {
		searchCalls++
		return []types.AccessionRecord{
			{Namespace: types.NamespaceSRX, Accession: "SRX1", Source: "web_search", Confidence: 0.6},
			{Namespace: types.NamespaceSRX, Accession: "SRX2", Source: "web_search", Confidence: 0.6},
		}, nil
	}

	e := newTestEngine(t, selector, types.EngineConfig{})
	result := e.Resolve(context.Background(), types.ResolutionRequest{
		Goal: types.GoalConvert, Input: "GSE121737", Target: types.NamespaceSRX,
	})

	// Search confidence sits below the resolved threshold and database
	// strategies failed, so the result is partial.
	assert.Equal(t, types.StatusPartiallyResolved, result.Status)
	require.Len(t, result.Records, 2)
	assert.Equal(t, 1, searchCalls, "first-success policy stops after the first hit")

	// Both failed database strategies appear in the log.
	require.Len(t, result.Attempts, 3)
	assert.Equal(t, "terminal_failure", result.Attempts[0].Outcome)
	assert.Equal(t, "terminal_failure", result.Attempts[1].Outcome)
	assert.Equal(t, "success", result.Attempts[2].Outcome)
}

func TestResolveAllRetryableExhaustion(t *testing.T) {
	selector := testSelector()
	selector.Entrez.(*stubAdapter).lookup = failWith(lookup.KindTransient, "entrez")
	selector.ENA.(*stubAdapter).lookup = failWith(lookup.KindRateLimited, "ena")
	selector.WebSearch.(*stubAdapter).lookup = failWith(lookup.KindTransient, "web_search")

	e := newTestEngine(t, selector, types.EngineConfig{})
	result := e.Resolve(context.Background(), types.ResolutionRequest{
		Goal: types.GoalConvert, Input: "GSE121737", Target: types.NamespaceSRX,
	})

	assert.Equal(t, types.StatusUnresolved, result.Status)
	assert.Empty(t, result.Records)

	// Every planned strategy is in the log with its retry count.
	require.Len(t, result.Attempts, 5)
	for _, a := range result.Attempts {
		assert.Equal(t, "terminal_failure", a.Outcome)
		assert.Equal(t, 2, a.Attempts)
		assert.NotEmpty(t, a.Reason)
	}
}

func TestResolveExhaustivePolicyMergesSources(t *testing.T) {
	selector := testSelector()
	selector.Entrez.(*stubAdapter).lookup = records(
		types.AccessionRecord{Namespace: types.NamespaceSRX, Accession: "SRX1", Source: "entrez", Confidence: 0.9},
	)
	selector.ENA.(*stubAdapter).lookup = records(
		types.AccessionRecord{Namespace: types.NamespaceSRX, Accession: "SRX1", Source: "ena", Confidence: 0.85},
		types.AccessionRecord{Namespace: types.NamespaceSRX, Accession: "SRX2", Source: "ena", Confidence: 0.85},
	)
	selector.WebSearch.(*stubAdapter).lookup = failWith(lookup.KindNotFound, "web_search")

	e := newTestEngine(t, selector, types.EngineConfig{Policy: types.PolicyExhaustive})
	result := e.Resolve(context.Background(), types.ResolutionRequest{
		Goal: types.GoalConvert, Input: "GSE121737", Target: types.NamespaceSRX,
	})

	// SRX1 deduplicates keeping the higher-confidence entrez record; the
	// top confidence clears the threshold despite the search failures.
	assert.Equal(t, types.StatusResolved, result.Status)
	require.Len(t, result.Records, 2)
	assert.Equal(t, "entrez", result.Records[0].Source)
	assert.Len(t, result.Attempts, 5, "exhaustive policy probes every strategy")
}

func TestResolveCancellationSkipsRemaining(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	selector := testSelector()
	selector.Entrez.(*stubAdapter).lookup = func(context.Context, lookup.Query) ([]types.AccessionRecord, error) {
		cancel()
		return nil, lookup.Errf("entrez", lookup.KindNotFound, "no entries")
	}

	e := newTestEngine(t, selector, types.EngineConfig{})
	result := e.Resolve(ctx, types.ResolutionRequest{
		Goal: types.GoalConvert, Input: "GSE121737", Target: types.NamespaceSRX,
	})

	assert.Equal(t, types.StatusUnresolved, result.Status)
	require.Len(t, result.Attempts, 5)
	assert.Equal(t, "terminal_failure", result.Attempts[0].Outcome)
	for _, a := range result.Attempts[1:] {
		assert.Equal(t, "skipped", a.Outcome)
	}
}

func TestResolveStatusInvariants(t *testing.T) {
	// Resolved carries records; Unresolved never does, whatever the mix of
	// successes and failures.
	cases := []struct {
		name    string
		entrez  func(context.Context, lookup.Query) ([]types.AccessionRecord, error)
		wantMin int
		status  types.ResolutionStatus
	}{
		{
			name: "success means records",
			entrez: records(types.AccessionRecord{
				Namespace: types.NamespaceSRX, Accession: "SRX1", Source: "entrez", Confidence: 0.9,
			}),
			wantMin: 1,
			status:  types.StatusResolved,
		},
		{
			name:    "total failure means none",
			entrez:  failWith(lookup.KindNotFound, "entrez"),
			wantMin: 0,
			status:  types.StatusUnresolved,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			selector := testSelector()
			selector.ENA = nil
			selector.WebSearch = nil
			selector.Entrez.(*stubAdapter).lookup = tc.entrez

			e := newTestEngine(t, selector, types.EngineConfig{})
			result := e.Resolve(context.Background(), types.ResolutionRequest{
				Goal: types.GoalConvert, Input: "GSE121737", Target: types.NamespaceSRX,
			})

			assert.Equal(t, tc.status, result.Status)
			if tc.status == types.StatusUnresolved {
				assert.Empty(t, result.Records)
			} else {
				assert.GreaterOrEqual(t, len(result.Records), tc.wantMin)
			}
		})
	}
}

func TestResolveFindPublicationStopsOnPMID(t *testing.T) {
	selector := testSelector()
	selector.Entrez.(*stubAdapter).lookup = records(types.AccessionRecord{
		Namespace: types.NamespacePMID, Accession: "36198714", Source: "entrez", Confidence: 0.9,
	})

	e := newTestEngine(t, selector, types.EngineConfig{})
	result := e.Resolve(context.Background(), types.ResolutionRequest{
		Goal: types.GoalFindPublication, Input: "SRP557106",
	})

	require.Equal(t, types.StatusResolved, result.Status)
	require.Len(t, result.Attempts, 1)
	assert.Equal(t, types.NamespacePMID, result.Records[0].Namespace)
}

func TestNewEngineRejectsBadPolicy(t *testing.T) {
	selector := testSelector()
	_, err := NewEngine(selector, testRetrier(selector.Health), types.EngineConfig{Policy: "sometimes"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid aggregation policy")
}
