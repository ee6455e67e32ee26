// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"testing"

	"github.com/pdiddy/sragent/pkg/types"
)

func TestClassifyAccession(t *testing.T) {
	tests := []struct {
		input   string
		wantNS  types.Namespace
		wantAcc string
	}{
		{"GSE121737", types.NamespaceGSE, "GSE121737"},
		{"  gse121737 ", types.NamespaceGSE, "GSE121737"},
		{"GSM3478792", types.NamespaceGSM, "GSM3478792"},
		{"SRX4967527", types.NamespaceSRX, "SRX4967527"},
		{"SRR8147022", types.NamespaceSRR, "SRR8147022"},
		{"SRP309720", types.NamespaceSRP, "SRP309720"},
		{"PRJNA680646", types.NamespacePRJNA, "PRJNA680646"},
		{"SAMN16892394", types.NamespaceSAMN, "SAMN16892394"},
		{"E-MTAB-11536", types.NamespaceEMTAB, "E-MTAB-11536"},
		{"e-mtab-11536", types.NamespaceEMTAB, "E-MTAB-11536"},
		{"PMC9891234", types.NamespacePMCID, "PMC9891234"},
		{"PMID:36198714", types.NamespacePMID, "36198714"},
		{"10.1038/s41586-021-03634-9", types.NamespaceDOI, "10.1038/s41586-021-03634-9"},
		{"single cell RNA-seq of mouse brain", types.NamespaceUnknown, "single cell RNA-seq of mouse brain"},
		{"", types.NamespaceUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			ns, acc := ClassifyAccession(tt.input)
			if ns != tt.wantNS {
				t.Errorf("namespace = %q, want %q", ns, tt.wantNS)
			}
			if acc != tt.wantAcc {
				t.Errorf("accession = %q, want %q", acc, tt.wantAcc)
			}
		})
	}
}

func TestExtractAccessionsSingleNamespace(t *testing.T) {
	text := "Runs SRR8147022 and SRR8147023 belong to SRX4967527 (study SRP167894)."

	got := ExtractAccessions(text, types.NamespaceSRR)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].Accession != "SRR8147022" || got[1].Accession != "SRR8147023" {
		t.Errorf("accessions = %v", got)
	}
	for _, rec := range got {
		if rec.Namespace != types.NamespaceSRR {
			t.Errorf("namespace = %q, want SRR", rec.Namespace)
		}
	}
}

func TestExtractAccessionsAllNamespaces(t *testing.T) {
	text := "GSE121737 maps to SRP167894; see also PMC6689255."

	got := ExtractAccessions(text, types.NamespaceUnknown)
	found := make(map[types.Namespace]string)
	for _, rec := range got {
		found[rec.Namespace] = rec.Accession
	}

	if found[types.NamespaceGSE] != "GSE121737" {
		t.Errorf("GSE = %q", found[types.NamespaceGSE])
	}
	if found[types.NamespaceSRP] != "SRP167894" {
		t.Errorf("SRP = %q", found[types.NamespaceSRP])
	}
	if found[types.NamespacePMCID] != "PMC6689255" {
		t.Errorf("PMCID = %q", found[types.NamespacePMCID])
	}
}

func TestExtractAccessionsDeduplicates(t *testing.T) {
	text := "SRX100 SRX100 srx100"
	got := ExtractAccessions(text, types.NamespaceSRX)
	if len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
}

func TestEntrezDatabase(t *testing.T) {
	tests := []struct {
		ns   types.Namespace
		want string
	}{
		{types.NamespaceGSE, "gds"},
		{types.NamespaceGSM, "gds"},
		{types.NamespaceSRP, "sra"},
		{types.NamespaceSRX, "sra"},
		{types.NamespacePRJNA, "sra"},
		{types.NamespacePMID, "pubmed"},
		{types.NamespaceUnknown, "sra"},
	}
	for _, tt := range tests {
		if got := EntrezDatabase(tt.ns); got != tt.want {
			t.Errorf("EntrezDatabase(%q) = %q, want %q", tt.ns, got, tt.want)
		}
	}
}
