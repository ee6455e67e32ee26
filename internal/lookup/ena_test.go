// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/sragent/pkg/types"
)

func testENA(t *testing.T, handler http.Handler) *ENAAdapter {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	old := enaAPIBase
	enaAPIBase = ts.URL
	t.Cleanup(func() { enaAPIBase = old })

	return &ENAAdapter{
		Client: ts.Client(),
		Config: types.ENAConfig{HTTPConfig: types.HTTPConfig{UserAgent: "test/0.1"}},
	}
}

func TestENALookupGSEStudyAlias(t *testing.T) {
	a := testENA(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, `study_alias="GSE121737"`, r.URL.Query().Get("query"))
		assert.Equal(t, "read_experiment", r.URL.Query().Get("result"))
		fmt.Fprint(w, `[
			{"experiment_accession":"SRX4967527","run_accession":"SRR8147022","study_accession":"PRJNA498907","sample_accession":"SAMN10344583","study_title":"Mouse cortex scRNA-seq"},
			{"experiment_accession":"SRX4967528","run_accession":"SRR8147023","study_accession":"PRJNA498907","sample_accession":"SAMN10344584","study_title":"Mouse cortex scRNA-seq"}
		]`)
	}))

	records, err := a.Lookup(context.Background(), Query{
		Input:          "GSE121737",
		InputNamespace: types.NamespaceGSE,
		Target:         types.NamespaceSRX,
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "SRX4967527", records[0].Accession)
	assert.Equal(t, "ena", records[0].Source)
	assert.InDelta(t, enaConfidence, records[0].Confidence, 0.001)
}

func TestENALookupNoTargetEmitsAllColumns(t *testing.T) {
	a := testENA(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[
			{"experiment_accession":"SRX1","run_accession":"SRR1","study_accession":"SRP1","sample_accession":"SRS1","study_title":"t"}
		]`)
	}))

	records, err := a.Lookup(context.Background(), Query{
		Input:          "SRP1",
		InputNamespace: types.NamespaceSRP,
	})
	require.NoError(t, err)
	assert.Len(t, records, 4)
}

func TestENALookupNoContent(t *testing.T) {
	a := testENA(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	_, err := a.Lookup(context.Background(), Query{
		Input:          "SRP999999",
		InputNamespace: types.NamespaceSRP,
	})
	le, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, le.Kind)
}

func TestENALookupUnsupportedNamespace(t *testing.T) {
	a := testENA(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		t.Error("no request expected")
	}))

	_, err := a.Lookup(context.Background(), Query{
		Input:          "some free text",
		InputNamespace: types.NamespaceUnknown,
	})
	le, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, KindBadRequest, le.Kind)
	assert.False(t, le.Retryable())
}

func TestENALookupDeduplicatesRows(t *testing.T) {
	a := testENA(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `[
			{"experiment_accession":"SRX1","study_accession":"SRP1"},
			{"experiment_accession":"SRX2","study_accession":"SRP1"}
		]`)
	}))

	records, err := a.Lookup(context.Background(), Query{
		Input:          "SRP1",
		InputNamespace: types.NamespaceSRP,
	})
	require.NoError(t, err)

	studies := 0
	for _, rec := range records {
		if rec.Namespace == types.NamespaceSRP {
			studies++
		}
	}
	assert.Equal(t, 1, studies, "shared study accession appears once")
}
