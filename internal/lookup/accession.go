// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package lookup

import (
	"regexp"
	"strings"

	"github.com/pdiddy/sragent/pkg/types"
)

// classifyPatterns match a whole input string against each namespace.
// Order matters: more specific prefixes are listed before generic ones.
var classifyPatterns = []struct {
	ns      types.Namespace
	pattern *regexp.Regexp
}{
	{types.NamespaceGSE, regexp.MustCompile(`^GSE\d+$`)},
	{types.NamespaceGSM, regexp.MustCompile(`^GSM\d+$`)},
	{types.NamespaceGDS, regexp.MustCompile(`^GDS\d+$`)},
	{types.NamespaceSRX, regexp.MustCompile(`^SRX\d+$`)},
	{types.NamespaceSRR, regexp.MustCompile(`^SRR\d+$`)},
	{types.NamespaceSRP, regexp.MustCompile(`^SRP\d+$`)},
	{types.NamespaceSRS, regexp.MustCompile(`^SRS\d+$`)},
	{types.NamespacePRJNA, regexp.MustCompile(`^PRJNA\d+$`)},
	{types.NamespaceSAMN, regexp.MustCompile(`^SAMN\d+$`)},
	{types.NamespaceEMTAB, regexp.MustCompile(`^E-MTAB-\d+$`)},
	{types.NamespacePMCID, regexp.MustCompile(`^PMC\d+$`)},
	{types.NamespacePMID, regexp.MustCompile(`^PMID:?\d+$`)},
	{types.NamespaceDOI, regexp.MustCompile(`^10\.\d{4,9}/\S+$`)},
}

// scanPatterns find accessions of a namespace inside free text, such as a
// search-result title or an Entrez summary document.
var scanPatterns = map[types.Namespace]*regexp.Regexp{
	types.NamespaceGSE:   regexp.MustCompile(`\bGSE\d+\b`),
	types.NamespaceGSM:   regexp.MustCompile(`\bGSM\d+\b`),
	types.NamespaceGDS:   regexp.MustCompile(`\bGDS\d+\b`),
	types.NamespaceSRX:   regexp.MustCompile(`\bSRX\d+\b`),
	types.NamespaceSRR:   regexp.MustCompile(`\bSRR\d+\b`),
	types.NamespaceSRP:   regexp.MustCompile(`\bSRP\d+\b`),
	types.NamespaceSRS:   regexp.MustCompile(`\bSRS\d+\b`),
	types.NamespacePRJNA: regexp.MustCompile(`\bPRJNA\d+\b`),
	types.NamespaceSAMN:  regexp.MustCompile(`\bSAMN\d+\b`),
	types.NamespaceEMTAB: regexp.MustCompile(`\bE-MTAB-\d+\b`),
	types.NamespacePMCID: regexp.MustCompile(`\bPMC\d+\b`),
	types.NamespacePMID:  regexp.MustCompile(`\bPMID:?\s*\d+\b`),
	types.NamespaceDOI:   regexp.MustCompile(`\b10\.\d{4,9}/[^\s"',;]+`),
}

// ClassifyAccession determines the namespace of an input identifier and
// returns its canonical form. Unknown inputs (free text) return
// NamespaceUnknown with the trimmed original.
func ClassifyAccession(input string) (types.Namespace, string) {
	trimmed := strings.TrimSpace(input)
	upper := strings.ToUpper(trimmed)

	for _, cp := range classifyPatterns {
		if cp.ns == types.NamespaceDOI {
			// DOIs are case-sensitive after the prefix.
			if cp.pattern.MatchString(trimmed) {
				return cp.ns, trimmed
			}
			continue
		}
		if cp.pattern.MatchString(upper) {
			return cp.ns, canonicalize(cp.ns, upper)
		}
	}
	return types.NamespaceUnknown, trimmed
}

// ExtractAccessions scans text for accessions of the given namespace and
// returns them in canonical form, in order of first appearance without
// repeats. An empty namespace scans every known namespace.
func ExtractAccessions(text string, ns types.Namespace) []types.AccessionRecord {
	namespaces := []types.Namespace{ns}
	if ns == types.NamespaceUnknown {
		namespaces = namespaces[:0]
		for _, cp := range classifyPatterns {
			namespaces = append(namespaces, cp.ns)
		}
	}

	seen := make(map[string]bool)
	var records []types.AccessionRecord
	for _, n := range namespaces {
		pattern, ok := scanPatterns[n]
		if !ok {
			continue
		}
		for _, match := range pattern.FindAllString(text, -1) {
			acc := canonicalize(n, strings.ToUpper(strings.TrimSpace(match)))
			if n == types.NamespaceDOI {
				acc = strings.TrimSpace(match)
			}
			key := string(n) + ":" + strings.ToLower(acc)
			if seen[key] {
				continue
			}
			seen[key] = true
			records = append(records, types.AccessionRecord{Namespace: n, Accession: acc})
		}
	}
	return records
}

// canonicalize normalizes spacing and prefixes within a namespace
// (e.g. "PMID: 12345" → "12345").
func canonicalize(ns types.Namespace, acc string) string {
	switch ns {
	case types.NamespacePMID:
		acc = strings.TrimPrefix(acc, "PMID")
		acc = strings.TrimPrefix(acc, ":")
		return strings.TrimSpace(acc)
	default:
		return acc
	}
}

// EntrezDatabase maps a namespace to the Entrez database that holds it.
// GEO accessions live in gds, SRA and BioProject accessions in sra, per the
// NCBI linking conventions.
func EntrezDatabase(ns types.Namespace) string {
	switch ns {
	case types.NamespaceGSE, types.NamespaceGSM, types.NamespaceGDS:
		return "gds"
	case types.NamespacePMID, types.NamespacePMCID:
		return "pubmed"
	default:
		return "sra"
	}
}
