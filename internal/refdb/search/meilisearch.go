// Package search provides an optional Meilisearch-backed accelerator for
// fuzzy administrative-name lookups, grounded on the teacher's
// internal/search/gazetteer_searcher.go. When no endpoint is configured the
// caller simply doesn't construct one and falls back to
// refdb.ReferenceIndex's in-memory composite-similarity scan, which is the
// implementation spec §4.2 actually requires (O(1)-backed hash indexes, no
// external service). The CLI uses this package only to seed the province
// list into Meilisearch at startup; the corrector and parser take a
// concrete *refdb.ReferenceIndex and never call a GazetteerSearcher.
package search

import (
	"fmt"
	"time"

	"github.com/meilisearch/meilisearch-go"
	"go.uber.org/zap"

	"github.com/mtarikozcan/turkish-address-system/internal/refdb"
)

// FuzzyProvider is the shape refdb.ReferenceIndex and GazetteerSearcher both
// satisfy. The parser and corrector do not use it; they depend on the
// concrete *refdb.ReferenceIndex.
type FuzzyProvider interface {
	FuzzyMatchProvince(q string) (string, float64, bool)
	FuzzyMatchDistrict(q, province string) (string, float64, bool)
	FuzzyMatchNeighborhood(q string) (string, float64, bool)
}

// Config mirrors the teacher's SearchConfig.
type Config struct {
	Host      string
	APIKey    string
	IndexName string
	Timeout   time.Duration
}

// GazetteerSearcher fronts Meilisearch with the index pre-seeded from a
// ReferenceIndex, falling back to that same index's in-memory scan whenever
// the remote call errors, so an outage never turns into a per-request
// failure. The configured Timeout is stored but not applied to the search
// calls.
type GazetteerSearcher struct {
	client  meilisearch.ServiceManager
	index   string
	timeout time.Duration
	fallback *refdb.ReferenceIndex
	logger  *zap.SugaredLogger
}

// NewGazetteerSearcher connects to Meilisearch and verifies reachability.
// fallback is consulted whenever the remote search errors or returns no
// hit with a name.
func NewGazetteerSearcher(cfg Config, fallback *refdb.ReferenceIndex, logger *zap.SugaredLogger) (*GazetteerSearcher, error) {
	client := meilisearch.New(cfg.Host, meilisearch.WithAPIKey(cfg.APIKey))
	if _, err := client.Health(); err != nil {
		return nil, fmt.Errorf("search: meilisearch unreachable: %w", err)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 500 * time.Millisecond
	}
	return &GazetteerSearcher{
		client:   client,
		index:    cfg.IndexName,
		timeout:  timeout,
		fallback: fallback,
		logger:   logger,
	}, nil
}

// SeedProvinces pushes the reference index's canonical province names into
// the Meilisearch index so typo-tolerant search has something to search.
func (g *GazetteerSearcher) SeedProvinces() error {
	docs := make([]map[string]string, 0, len(g.fallback.Provinces))
	for norm, canonical := range g.fallback.Provinces {
		docs = append(docs, map[string]string{"id": norm, "name": canonical, "kind": "province"})
	}
	idx := g.client.Index(g.index)
	_, err := idx.AddDocuments(docs, "id")
	return err
}

// FuzzyMatchProvince tries the remote index first and accepts its top hit,
// whatever its rank, with score FuzzyThreshold; on error, no hit, or a hit
// without a name it defers to the in-memory composite-similarity scan.
func (g *GazetteerSearcher) FuzzyMatchProvince(q string) (string, float64, bool) {
	idx := g.client.Index(g.index)
	res, err := idx.Search(q, &meilisearch.SearchRequest{
		Filter: "kind = province",
		Limit:  1,
	})
	if err != nil || res == nil || len(res.Hits) == 0 {
		if g.logger != nil {
			g.logger.Debugw("meilisearch province search fell back to in-memory", "query", q, "err", err)
		}
		return g.fallback.FuzzyMatchProvince(q)
	}
	hit, ok := res.Hits[0].(map[string]interface{})
	if !ok {
		return g.fallback.FuzzyMatchProvince(q)
	}
	name, _ := hit["name"].(string)
	if name == "" {
		return g.fallback.FuzzyMatchProvince(q)
	}
	return name, refdb.FuzzyThreshold, true
}

// FuzzyMatchDistrict delegates straight to the in-memory index: district
// search needs the province-scoped candidate set that the fallback's maps
// already provide in O(1), so a remote round trip buys nothing here.
func (g *GazetteerSearcher) FuzzyMatchDistrict(q, province string) (string, float64, bool) {
	return g.fallback.FuzzyMatchDistrict(q, province)
}

// FuzzyMatchNeighborhood delegates to the in-memory index for the same
// reason as FuzzyMatchDistrict.
func (g *GazetteerSearcher) FuzzyMatchNeighborhood(q string) (string, float64, bool) {
	return g.fallback.FuzzyMatchNeighborhood(q)
}
