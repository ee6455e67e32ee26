// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/sragent/pkg/types"
)

// customSearchAPIBase is the Google Custom Search JSON API endpoint.
// Declared as a var so tests can substitute an httptest server.
var customSearchAPIBase = "https://www.googleapis.com/customsearch/v1"

// Search-derived records score below the accession databases: the accession
// appearing near the query in a page is circumstantial, not authoritative.
const (
	webSearchTopConfidence = 0.6
	webSearchRankStep      = 0.05
	webSearchMinConfidence = 0.3
)

// WebSearchAdapter queries Google Programmable Search and extracts
// accessions of the target namespace from result titles, snippets, and
// links. It is the last-resort strategy when the accession databases hold
// no direct cross-reference.
type WebSearchAdapter struct {
	Client *http.Client
	Config types.WebSearchConfig
}

// Name returns the adapter identifier.
func (a *WebSearchAdapter) Name() string { return "web_search" }

// RateLimitCeiling returns the throttle tolerance before deprioritization.
func (a *WebSearchAdapter) RateLimitCeiling() int {
	if a.Config.RateLimitCeiling > 0 {
		return a.Config.RateLimitCeiling
	}
	return 2
}

// Custom Search JSON structures.
type customSearchResponse struct {
	Items []customSearchItem `json:"items"`
}

type customSearchItem struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Link    string `json:"link"`
}

// Lookup runs the rewritten query and mines the hits for accessions.
func (a *WebSearchAdapter) Lookup(ctx context.Context, q Query) ([]types.AccessionRecord, error) {
	if a.Config.APIKey == "" || a.Config.SearchEngineID == "" {
		return nil, Errf(a.Name(), KindAuth, "missing API key or search engine ID")
	}

	maxResults := a.Config.MaxResults
	if maxResults <= 0 || maxResults > 10 {
		maxResults = 10
	}

	params := url.Values{
		"key": {a.Config.APIKey},
		"cx":  {a.Config.SearchEngineID},
		"q":   {q.Term},
		"num": {fmt.Sprintf("%d", maxResults)},
	}
	reqURL := customSearchAPIBase + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, Errf(a.Name(), KindBadRequest, "creating request: %v", err)
	}
	req.Header.Set("User-Agent", a.Config.UserAgent)

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, Errf(a.Name(), KindTransient, "search request: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(a.Name(), resp.StatusCode)
	}

	var sr customSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, Errf(a.Name(), KindTransient, "parsing search response: %v", err)
	}

	records := a.itemRecords(sr.Items, q)
	if len(records) == 0 {
		return nil, Errf(a.Name(), KindNotFound, "no %s accessions in %d search hits", targetLabel(q.Target), len(sr.Items))
	}
	return records, nil
}

// itemRecords extracts target-namespace accessions from each hit. Earlier
// hits score higher; the accession the query started from is never a result.
func (a *WebSearchAdapter) itemRecords(items []customSearchItem, q Query) []types.AccessionRecord {
	seen := make(map[string]bool)
	var records []types.AccessionRecord

	for rank, item := range items {
		confidence := webSearchTopConfidence - float64(rank)*webSearchRankStep
		if confidence < webSearchMinConfidence {
			confidence = webSearchMinConfidence
		}

		text := item.Title + " " + item.Snippet + " " + item.Link
		for _, rec := range ExtractAccessions(text, q.Target) {
			if rec.Accession == q.Input {
				continue
			}
			key := string(rec.Namespace) + ":" + rec.Accession
			if seen[key] {
				continue
			}
			seen[key] = true
			rec.Source = a.Name()
			rec.Confidence = confidence
			rec.Detail = item.Title
			records = append(records, rec)
		}
	}
	return records
}
