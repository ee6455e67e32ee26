// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/pdiddy/sragent/pkg/types"
)

// enaAPIBase is the EBI ENA portal search endpoint. Declared as a var so
// tests can substitute an httptest server.
var enaAPIBase = "https://www.ebi.ac.uk/ena/portal/api/search"

const (
	enaResultType = "read_experiment"
	enaFields     = "experiment_accession,run_accession,study_accession,sample_accession,study_title"
	enaLimit      = 50
	enaConfidence = 0.85
)

// ENAAdapter queries the EBI ENA portal. ENA mirrors SRA submissions and
// indexes GEO series under their study alias, so it resolves the same
// accessions without drawing on the NCBI quota.
type ENAAdapter struct {
	Client *http.Client
	Config types.ENAConfig
}

// Name returns the adapter identifier.
func (a *ENAAdapter) Name() string { return "ena" }

// RateLimitCeiling returns the throttle tolerance before deprioritization.
func (a *ENAAdapter) RateLimitCeiling() int {
	if a.Config.RateLimitCeiling > 0 {
		return a.Config.RateLimitCeiling
	}
	return 3
}

// enaRow is one read_experiment result from the portal API.
type enaRow struct {
	ExperimentAccession string `json:"experiment_accession"`
	RunAccession        string `json:"run_accession"`
	StudyAccession      string `json:"study_accession"`
	SampleAccession     string `json:"sample_accession"`
	StudyTitle          string `json:"study_title"`
}

// Lookup searches the ENA portal and normalizes each row into one record
// per accession column, keeping only the target namespace when one is set.
func (a *ENAAdapter) Lookup(ctx context.Context, q Query) ([]types.AccessionRecord, error) {
	filter := enaFilter(q)
	if filter == "" {
		return nil, Errf(a.Name(), KindBadRequest, "no ENA filter for input %q", q.Input)
	}

	params := url.Values{
		"result": {enaResultType},
		"query":  {filter},
		"fields": {enaFields},
		"format": {"json"},
		"limit":  {fmt.Sprintf("%d", enaLimit)},
	}
	reqURL := enaAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, Errf(a.Name(), KindBadRequest, "creating request: %v", err)
	}
	req.Header.Set("User-Agent", a.Config.UserAgent)

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, Errf(a.Name(), KindTransient, "portal request: %v", err)
	}
	defer resp.Body.Close()

	// The portal answers 204 when the filter matches nothing.
	if resp.StatusCode == http.StatusNoContent {
		return nil, Errf(a.Name(), KindNotFound, "no ENA rows for %q", q.Input)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(a.Name(), resp.StatusCode)
	}

	var rows []enaRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, Errf(a.Name(), KindTransient, "parsing portal response: %v", err)
	}

	records := a.rowRecords(rows, q.Target)
	if len(records) == 0 {
		return nil, Errf(a.Name(), KindNotFound, "no %s accessions in ENA rows", targetLabel(q.Target))
	}
	return records, nil
}

func (a *ENAAdapter) rowRecords(rows []enaRow, target types.Namespace) []types.AccessionRecord {
	seen := make(map[string]bool)
	var records []types.AccessionRecord

	for _, row := range rows {
		for _, acc := range []string{
			row.ExperimentAccession,
			row.RunAccession,
			row.StudyAccession,
			row.SampleAccession,
		} {
			ns, canonical := ClassifyAccession(acc)
			if ns == types.NamespaceUnknown {
				continue
			}
			if target != types.NamespaceUnknown && ns != target {
				continue
			}
			key := string(ns) + ":" + strings.ToLower(canonical)
			if seen[key] {
				continue
			}
			seen[key] = true
			records = append(records, types.AccessionRecord{
				Namespace:  ns,
				Accession:  canonical,
				Source:     a.Name(),
				Confidence: enaConfidence,
				Detail:     strings.TrimSpace(row.StudyTitle),
			})
		}
	}
	return records
}

// enaFilter builds the portal query expression for the input accession.
// GEO series and ArrayExpress experiments are indexed under study_alias;
// SRA accessions match their column directly.
func enaFilter(q Query) string {
	switch q.InputNamespace {
	case types.NamespaceGSE, types.NamespaceEMTAB:
		return fmt.Sprintf("study_alias=%q", q.Input)
	case types.NamespaceGSM:
		return fmt.Sprintf("sample_alias=%q", q.Input)
	case types.NamespaceSRP, types.NamespacePRJNA:
		return fmt.Sprintf("study_accession=%q", q.Input)
	case types.NamespaceSRX:
		return fmt.Sprintf("experiment_accession=%q", q.Input)
	case types.NamespaceSRR:
		return fmt.Sprintf("run_accession=%q", q.Input)
	case types.NamespaceSRS, types.NamespaceSAMN:
		return fmt.Sprintf("sample_accession=%q", q.Input)
	default:
		return ""
	}
}
