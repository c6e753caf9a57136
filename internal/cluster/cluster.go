// Package cluster implements the DuplicateClusterer stage from spec §4.9:
// blocking plus union-find over a batch of addresses, grouping indices
// whose matcher overall similarity clears a threshold. No direct teacher
// analog exists (the teacher has no batch-dedup stage); the blocking
// predicate and union-find are written fresh, reusing internal/match for
// the pairwise score it already implements in the teacher's idiom.
package cluster

import (
	"context"
	"strings"

	"github.com/mtarikozcan/turkish-address-system/internal/match"
	"github.com/mtarikozcan/turkish-address-system/internal/model"
	"github.com/mtarikozcan/turkish-address-system/internal/turkish"
)

// Threshold is spec §4.9's default duplicate-cluster bar.
const Threshold = 0.80

// naiveLimit is the n beyond which blocking by province becomes mandatory
// (spec §4.9: "acceptable only up to n ≤ 500").
const naiveLimit = 500

// Stats are the batch-level statistics spec §4.9 names.
type Stats struct {
	GroupsOfSizeGreaterThanOne int
	UniqueCount                int
	DuplicationRate            float64
}

// Result is the DuplicateClusterer's output.
type Result struct {
	Groups [][]int
	Stats  Stats
}

// Clusterer partitions a batch of raw address strings into duplicate groups.
type Clusterer struct {
	matcher   *match.Matcher
	threshold float64
}

// New constructs a Clusterer bound to a shared Matcher.
func New(matcher *match.Matcher, threshold float64) *Clusterer {
	if threshold <= 0 {
		threshold = Threshold
	}
	return &Clusterer{matcher: matcher, threshold: threshold}
}

type unionFind struct {
	parent []int
}

func newUnionFind(n int) *unionFind {
	uf := &unionFind{parent: make([]int, n)}
	for i := range uf.parent {
		uf.parent[i] = i
	}
	return uf
}

func (uf *unionFind) find(x int) int {
	for uf.parent[x] != x {
		uf.parent[x] = uf.parent[uf.parent[x]]
		x = uf.parent[x]
	}
	return x
}

func (uf *unionFind) union(a, b int) {
	ra, rb := uf.find(a), uf.find(b)
	if ra != rb {
		uf.parent[ra] = rb
	}
}

// Cluster partitions raws into duplicate groups (spec §4.9). Blocking keys
// are computed once per address up front (via the matcher's own
// corrector/parser); each pair that passes blocking is then scored with
// matcher.Compare, which corrects and parses both addresses again.
func (c *Clusterer) Cluster(ctx context.Context, raws []string) Result {
	n := len(raws)
	uf := newUnionFind(n)
	meta := make([]blockKey, n)
	for i, raw := range raws {
		meta[i] = computeBlockKey(c.matcher, raw)
	}

	blockByProvince := n > naiveLimit

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if blockByProvince && meta[i].province != "" && meta[j].province != "" && meta[i].province != meta[j].province {
				continue
			}
			if !candidatesQualify(meta[i], meta[j]) {
				continue
			}
			res := c.matcher.Compare(ctx, raws[i], raws[j])
			if res.Overall >= c.threshold {
				uf.union(i, j)
			}
		}
	}

	groups := map[int][]int{}
	for i := 0; i < n; i++ {
		root := uf.find(i)
		groups[root] = append(groups[root], i)
	}

	var out [][]int
	multi := 0
	for _, g := range groups {
		out = append(out, g)
		if len(g) > 1 {
			multi++
		}
	}

	unique := len(groups)
	rate := 0.0
	if n > 0 {
		rate = 1 - float64(unique)/float64(n)
	}

	return Result{
		Groups: out,
		Stats: Stats{
			GroupsOfSizeGreaterThanOne: multi,
			UniqueCount:                unique,
			DuplicationRate:            rate,
		},
	}
}

// blockKey is the cheap-to-compute summary spec §4.9's blocking predicate
// needs, computed once per address instead of once per pair.
type blockKey struct {
	province string
	coord    model.Coordinate
	hasCoord bool
	tokens   map[string]bool
}

func computeBlockKey(m *match.Matcher, raw string) blockKey {
	corrected, components, coord, hasCoord := m.Inspect(raw)
	return blockKey{
		province: components.Province.Value,
		coord:    coord,
		hasCoord: hasCoord,
		tokens:   tokenSet(corrected),
	}
}

func tokenSet(s string) map[string]bool {
	out := map[string]bool{}
	for _, tok := range strings.Fields(turkish.ASCIIFold(s)) {
		out[tok] = true
	}
	return out
}

// candidatesQualify implements spec §4.9's blocking predicate: same
// province, near coordinate (<=1km when both have coords), or token overlap
// >= 0.5.
func candidatesQualify(a, b blockKey) bool {
	if a.province != "" && a.province == b.province {
		return true
	}
	if a.hasCoord && b.hasCoord && match.HaversineKm(a.coord, b.coord) <= 1.0 {
		return true
	}
	return tokenOverlap(a.tokens, b.tokens) >= 0.5
}

func tokenOverlap(a, b map[string]bool) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	return float64(inter) / float64(maxLen)
}
