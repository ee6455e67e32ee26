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

// entrezAPIBase is the NCBI E-utilities endpoint. Declared as a var so
// tests can substitute an httptest server.
var entrezAPIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

const (
	entrezRetMax     = 20
	entrezConfidence = 0.9
)

// EntrezAdapter queries NCBI Entrez: esearch to find database UIDs for an
// accession, then esummary to read linked accessions or elink to find
// associated publications.
type EntrezAdapter struct {
	Client *http.Client
	Config types.EntrezConfig
}

// Name returns the adapter identifier.
func (a *EntrezAdapter) Name() string { return "entrez" }

// RateLimitCeiling returns the throttle tolerance before deprioritization.
func (a *EntrezAdapter) RateLimitCeiling() int {
	if a.Config.RateLimitCeiling > 0 {
		return a.Config.RateLimitCeiling
	}
	return 3
}

// Lookup resolves the query against Entrez. Publication targets (PMID,
// PMCID) go through elink; everything else reads esummary documents and
// extracts accessions of the target namespace.
func (a *EntrezAdapter) Lookup(ctx context.Context, q Query) ([]types.AccessionRecord, error) {
	db := EntrezDatabase(q.InputNamespace)

	ids, err := a.esearch(ctx, db, q.Term)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, Errf(a.Name(), KindNotFound, "no %s entries for %q", db, q.Term)
	}

	if q.Target == types.NamespacePMID || q.Target == types.NamespacePMCID {
		return a.elinkPublications(ctx, db, ids)
	}

	return a.esummaryAccessions(ctx, db, ids, q.Target)
}

// commonParams applies retmode, email, and the optional API key to every
// E-utilities call, per NCBI usage policy.
func (a *EntrezAdapter) commonParams(params url.Values) url.Values {
	params.Set("retmode", "json")
	if a.Config.Email != "" {
		params.Set("email", a.Config.Email)
	}
	if a.Config.APIKey != "" {
		params.Set("api_key", a.Config.APIKey)
	}
	return params
}

func (a *EntrezAdapter) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	reqURL := fmt.Sprintf("%s/%s?%s", entrezAPIBase, endpoint, a.commonParams(params).Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return Errf(a.Name(), KindBadRequest, "creating request: %v", err)
	}
	req.Header.Set("User-Agent", a.Config.UserAgent)

	resp, err := a.Client.Do(req)
	if err != nil {
		return Errf(a.Name(), KindTransient, "%s request: %v", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(a.Name(), resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return Errf(a.Name(), KindTransient, "parsing %s response: %v", endpoint, err)
	}
	return nil
}

// esearch JSON structures.
type esearchResponse struct {
	Result esearchResult `json:"esearchresult"`
}

type esearchResult struct {
	IDList []string `json:"idlist"`
	Error  string   `json:"ERROR"`
}

func (a *EntrezAdapter) esearch(ctx context.Context, db, term string) ([]string, error) {
	params := url.Values{
		"db":     {db},
		"term":   {term},
		"retmax": {fmt.Sprintf("%d", entrezRetMax)},
	}

	var er esearchResponse
	if err := a.get(ctx, "esearch.fcgi", params, &er); err != nil {
		return nil, err
	}
	if er.Result.Error != "" {
		return nil, Errf(a.Name(), KindBadRequest, "esearch: %s", er.Result.Error)
	}
	return er.Result.IDList, nil
}

// esummary returns one document per UID under result, keyed by the UID,
// plus a "uids" index entry. Documents differ by database, so each one is
// decoded separately.
type esummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

// esummaryDoc covers the fields shared by gds and sra summary documents.
// gds documents carry the GEO accession and SRA cross-references in
// extrelations; sra documents embed experiment and run accessions in the
// expxml and runs XML fragments.
type esummaryDoc struct {
	Accession    string        `json:"accession"`
	Title        string        `json:"title"`
	ExtRelations []extRelation `json:"extrelations"`
	ExpXML       string        `json:"expxml"`
	Runs         string        `json:"runs"`
}

type extRelation struct {
	RelationType string `json:"relationtype"`
	TargetObject string `json:"targetobject"`
}

func (a *EntrezAdapter) esummaryAccessions(ctx context.Context, db string, ids []string, target types.Namespace) ([]types.AccessionRecord, error) {
	params := url.Values{
		"db": {db},
		"id": {strings.Join(ids, ",")},
	}

	var es esummaryResponse
	if err := a.get(ctx, "esummary.fcgi", params, &es); err != nil {
		return nil, err
	}

	var records []types.AccessionRecord
	for uid, raw := range es.Result {
		if uid == "uids" {
			continue
		}
		var doc esummaryDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		records = append(records, a.docRecords(doc, target)...)
	}

	if len(records) == 0 {
		return nil, Errf(a.Name(), KindNotFound, "no %s accessions in %s summaries", targetLabel(target), db)
	}
	return records, nil
}

// docRecords normalizes one summary document into records, keeping only the
// target namespace when one is set.
func (a *EntrezAdapter) docRecords(doc esummaryDoc, target types.Namespace) []types.AccessionRecord {
	var out []types.AccessionRecord

	add := func(rec types.AccessionRecord) {
		if target != types.NamespaceUnknown && rec.Namespace != target {
			return
		}
		rec.Source = a.Name()
		rec.Confidence = entrezConfidence
		rec.Detail = strings.TrimSpace(doc.Title)
		out = append(out, rec)
	}

	if ns, acc := ClassifyAccession(doc.Accession); ns != types.NamespaceUnknown {
		add(types.AccessionRecord{Namespace: ns, Accession: acc})
	}
	for _, rel := range doc.ExtRelations {
		if ns, acc := ClassifyAccession(rel.TargetObject); ns != types.NamespaceUnknown {
			add(types.AccessionRecord{Namespace: ns, Accession: acc})
		}
	}
	for _, rec := range ExtractAccessions(doc.ExpXML+" "+doc.Runs, target) {
		add(rec)
	}
	return out
}

// elink JSON structures.
type elinkResponse struct {
	LinkSets []elinkSet `json:"linksets"`
}

type elinkSet struct {
	LinkSetDBs []elinkSetDB `json:"linksetdbs"`
}

type elinkSetDB struct {
	DBTo  string   `json:"dbto"`
	Links []string `json:"links"`
}

// elinkPublications finds PubMed records linked to the database UIDs, the
// same linkage the gds and sra entries expose in the Entrez web UI.
func (a *EntrezAdapter) elinkPublications(ctx context.Context, db string, ids []string) ([]types.AccessionRecord, error) {
	params := url.Values{
		"dbfrom": {db},
		"db":     {"pubmed"},
		"id":     {strings.Join(ids, ",")},
	}

	var el elinkResponse
	if err := a.get(ctx, "elink.fcgi", params, &el); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var records []types.AccessionRecord
	for _, set := range el.LinkSets {
		for _, lsdb := range set.LinkSetDBs {
			if lsdb.DBTo != "pubmed" {
				continue
			}
			for _, pmid := range lsdb.Links {
				if seen[pmid] {
					continue
				}
				seen[pmid] = true
				records = append(records, types.AccessionRecord{
					Namespace:  types.NamespacePMID,
					Accession:  pmid,
					Source:     a.Name(),
					Confidence: entrezConfidence,
				})
			}
		}
	}

	if len(records) == 0 {
		return nil, Errf(a.Name(), KindNotFound, "no linked publications in pubmed")
	}
	return records, nil
}

func targetLabel(ns types.Namespace) string {
	if ns == types.NamespaceUnknown {
		return "linked"
	}
	return string(ns)
}
