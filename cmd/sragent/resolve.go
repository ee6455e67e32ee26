package main

import (
	"bytes"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/sragent/internal/lookup"
	"github.com/pdiddy/sragent/internal/records"
	"github.com/pdiddy/sragent/internal/resolve"
	"github.com/pdiddy/sragent/internal/retry"
	"github.com/pdiddy/sragent/pkg/types"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "sragent/0.1"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [accessions-or-query...]",
	Short: "Resolve accessions to linked accessions or publications",
	Long: `Resolve takes one or more accessions (e.g. GSE121737, SRP309720, PRJNA680646)
or a free-text query and resolves each against NCBI Entrez, the EBI ENA
portal, and web search, in that fallback order.

Examples:
  sragent resolve --target SRX GSE121737
  sragent resolve --goal find-publication SRP557106
  sragent resolve --policy exhaustive --json GSE196830 E-MTAB-11536`,
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().String("goal", string(types.GoalConvert), "resolution goal: convert, find-publication, or lookup")
	resolveCmd.Flags().String("target", "", "target accession namespace (e.g. SRX, SRR, PMID)")
	resolveCmd.Flags().String("policy", "", "aggregation policy: first or exhaustive (default first)")
	resolveCmd.Flags().Int("max-attempts", 0, "adapter invocations per strategy, including the first (default 4)")
	resolveCmd.Flags().Duration("timeout", 0, "per-attempt HTTP timeout (default 30s)")
	resolveCmd.Flags().Int("max-concurrency", 3, "maximum concurrent resolutions")
	resolveCmd.Flags().Bool("json", false, "output results as JSON")
	resolveCmd.Flags().Bool("no-cache", false, "skip the local records store")
	resolveCmd.Flags().String("records-dir", "", "records store directory (default .sragent)")

	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more accessions or a free-text query")
	}

	goal := types.Goal(mustString(cmd, "goal"))
	switch goal {
	case types.GoalConvert, types.GoalFindPublication, types.GoalLookup:
	default:
		return fmt.Errorf("invalid goal %q: use convert, find-publication, or lookup", goal)
	}

	target, err := parseTarget(mustString(cmd, "target"))
	if err != nil {
		return err
	}

	cfg := buildConfig(cmd)
	asJSON, _ := cmd.Flags().GetBool("json")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	maxConcurrency, _ := cmd.Flags().GetInt("max-concurrency")
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}

	health := retry.NewHealth()
	retrier := retry.New(cfg.Retry, health)
	selector := buildSelector(cfg, health)

	var store *records.Store
	if !noCache {
		store, err = records.Open(cfg.Records)
		if err != nil {
			return fmt.Errorf("opening records store: %w", err)
		}
		defer store.Close()
	}

	var mu sync.Mutex
	unresolved := 0

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(maxConcurrency)

	for _, input := range args {
		input := input
		g.Go(func() error {
			req := types.ResolutionRequest{Goal: goal, Input: input, Target: target}

			var result types.ResolutionResult
			cached := false
			if store != nil {
				if prev, ok, lookupErr := store.Latest(req); lookupErr == nil && ok {
					result, cached = prev, true
				}
			}

			var progress bytes.Buffer
			if !cached {
				engine, engErr := resolve.NewEngine(selector, retrier, cfg.Engine, &progress)
				if engErr != nil {
					return engErr
				}
				result = engine.Resolve(ctx, req)
				if store != nil {
					if saveErr := store.Save(result); saveErr != nil {
						fmt.Fprintf(&progress, "warning: saving result: %v\n", saveErr)
					}
				}
			}

			mu.Lock()
			defer mu.Unlock()
			os.Stderr.Write(progress.Bytes())
			if cached {
				fmt.Fprintf(os.Stderr, "using stored resolution for %s\n", input)
			}
			if asJSON {
				if encErr := resolve.FormatJSON(result, os.Stdout); encErr != nil {
					return encErr
				}
			} else {
				resolve.FormatTable(result, os.Stdout)
				fmt.Fprintln(os.Stdout)
			}
			if result.Status == types.StatusUnresolved {
				unresolved++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	if unresolved > 0 {
		return fmt.Errorf("%d input(s) unresolved", unresolved)
	}
	return nil
}

// buildConfig merges viper settings, flags, and loaded secrets into one
// configuration value. Flags override the config file.
func buildConfig(cmd *cobra.Command) types.Config {
	var cfg types.Config

	cfg.Retry.MaxAttempts = viper.GetInt("retry.max_attempts")
	if n, _ := cmd.Flags().GetInt("max-attempts"); n > 0 {
		cfg.Retry.MaxAttempts = n
	}
	cfg.Retry.BaseDelay = viper.GetDuration("retry.base_delay")
	cfg.Retry.MaxDelay = viper.GetDuration("retry.max_delay")

	cfg.Engine.Policy = types.AggregationPolicy(viper.GetString("engine.policy"))
	if p := mustString(cmd, "policy"); p != "" {
		cfg.Engine.Policy = types.AggregationPolicy(p)
	}
	cfg.Engine.ResolvedThreshold = viper.GetFloat64("engine.resolved_threshold")

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = viper.GetDuration("http.timeout")
	}
	if timeout == 0 {
		timeout = defaultTimeout
	}
	httpCfg := types.HTTPConfig{Timeout: timeout, UserAgent: defaultUserAgent}

	cfg.Entrez = types.EntrezConfig{
		HTTPConfig: httpCfg,
		Email:      secretDefault("ncbi-email", "EMAIL", viper.GetString("entrez.email")),
		APIKey:     secretDefault("ncbi-api-key", "NCBI_API_KEY", viper.GetString("entrez.api_key")),
	}
	cfg.ENA = types.ENAConfig{HTTPConfig: httpCfg}
	cfg.WebSearch = types.WebSearchConfig{
		HTTPConfig:     httpCfg,
		APIKey:         secretDefault("google-search-api-key", "GOOGLE_SEARCH_API_KEY", viper.GetString("web_search.api_key")),
		SearchEngineID: secretDefault("google-search-cx", "GOOGLE_SEARCH_CX", viper.GetString("web_search.search_engine_id")),
		MaxResults:     viper.GetInt("web_search.max_results"),
	}

	cfg.Records.Dir = mustString(cmd, "records-dir")
	if cfg.Records.Dir == "" {
		cfg.Records.Dir = viper.GetString("records.dir")
	}
	cfg.Records.MaxAge = viper.GetDuration("records.max_age")

	return cfg
}

// buildSelector wires the adapters. The web-search adapter is only planned
// when its credentials are present.
func buildSelector(cfg types.Config, health *retry.Health) *resolve.Selector {
	client := &http.Client{Timeout: cfg.Entrez.Timeout}

	selector := &resolve.Selector{
		Entrez: &lookup.EntrezAdapter{Client: client, Config: cfg.Entrez},
		ENA:    &lookup.ENAAdapter{Client: client, Config: cfg.ENA},
		Health: health,
	}
	if cfg.WebSearch.APIKey != "" && cfg.WebSearch.SearchEngineID != "" {
		selector.WebSearch = &lookup.WebSearchAdapter{Client: client, Config: cfg.WebSearch}
	}
	return selector
}

func parseTarget(s string) (types.Namespace, error) {
	if s == "" {
		return types.NamespaceUnknown, nil
	}
	upper := strings.ToUpper(strings.TrimSpace(s))
	if upper == "E-MTAB" {
		upper = string(types.NamespaceEMTAB)
	}
	ns := types.Namespace(upper)
	switch ns {
	case types.NamespaceGSE, types.NamespaceGSM, types.NamespaceGDS,
		types.NamespaceSRX, types.NamespaceSRR, types.NamespaceSRP, types.NamespaceSRS,
		types.NamespacePRJNA, types.NamespaceSAMN, types.NamespaceEMTAB,
		types.NamespacePMID, types.NamespacePMCID, types.NamespaceDOI:
		return ns, nil
	default:
		return types.NamespaceUnknown, fmt.Errorf("unknown target namespace %q", s)
	}
}

func mustString(cmd *cobra.Command, name string) string {
	v, _ := cmd.Flags().GetString(name)
	return v
}
