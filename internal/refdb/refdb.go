// Package refdb builds and serves the read-only administrative reference
// index (province -> district -> neighborhood, plus postal codes) that every
// other component consults. It is built once per process and never mutated,
// matching the teacher's gazetteer-searcher shape
// (internal/search/gazetteer_searcher.go) but re-expressed as an explicit
// in-memory value instead of a module-level Meilisearch client singleton.
package refdb

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/xrash/smetrics"

	"github.com/mtarikozcan/turkish-address-system/internal/turkish"
)

// FuzzyThreshold is the minimum composite similarity for a fuzzy admin-name
// match to be accepted (spec §4.2).
const FuzzyThreshold = 0.80

// neighborhoodSuffixes are the accepted "Mahallesi" suffix spellings a
// reference row's neighborhood column may carry; each is also stored without
// the suffix for lookup tolerance.
var neighborhoodSuffixes = []string{" mahallesi", " mah.", " mh.", " mah"}

// AdminRecord is one immutable (province, district, neighborhood) row. All
// three must be non-empty for the triple to participate in the hierarchy
// maps; blank/"Merkez"-district rows still register the neighborhood in
// AllNeighborhoods (spec §4.2 build contract).
type AdminRecord struct {
	Province     string
	District     string
	Neighborhood string
	Source       string
}

// Count pairs a canonical name with how many reference rows produced it,
// used to pick the statistical mode in HierarchyCompleter.
type Count struct {
	Name  string
	Count int
}

// PostalEntry is the (province, district) a 5-digit postal code resolves to.
type PostalEntry struct {
	Province string
	District string
}

// ReferenceIndex is the derived, process-wide structure described in spec §3.
// All maps are keyed by turkish.NormalizeForCompare'd strings; values are the
// first-seen canonical (display) spelling.
type ReferenceIndex struct {
	Provinces               map[string]string
	DistrictsOfProvince     map[string]map[string]string
	NeighborhoodsOfDistrict map[pairKey]map[string]string
	AllNeighborhoods        map[string]string
	NeighborhoodToDistricts map[string][]Count
	DistrictToProvinces     map[string][]Count
	PostalCodes             map[string]PostalEntry
	AllDistricts            map[string]string // flat district set, for exact-membership checks independent of province

	provinceList     []string // normalized, for fuzzy scan
	districtByOwner  map[string][]string
	fuzzyCache       *lru.Cache[string, fuzzyResult]
	MalformedRows    int
}

type pairKey struct {
	province string
	district string
}

type fuzzyResult struct {
	name  string
	score float64
	ok    bool
}

// New builds an empty index; use Build for the common CSV-driven path.
func New() *ReferenceIndex {
	cache, _ := lru.New[string, fuzzyResult](4096)
	return &ReferenceIndex{
		Provinces:               map[string]string{},
		DistrictsOfProvince:     map[string]map[string]string{},
		NeighborhoodsOfDistrict: map[pairKey]map[string]string{},
		AllNeighborhoods:        map[string]string{},
		NeighborhoodToDistricts: map[string][]Count{},
		DistrictToProvinces:     map[string][]Count{},
		PostalCodes:             map[string]PostalEntry{},
		AllDistricts:            map[string]string{},
		districtByOwner:         map[string][]string{},
		fuzzyCache:              cache,
	}
}

// Build constructs a ReferenceIndex from a slice of raw admin rows (spec
// §4.2's "Build contract"). Rows with a blank neighborhood are skipped and
// counted in MalformedRows, never fatal — matching spec §7's
// MalformedReference policy. Rows with a blank province or district, or a
// "Merkez" district, register their neighborhood in AllNeighborhoods only.
func Build(rows []AdminRecord) *ReferenceIndex {
	idx := New()

	neighborhoodCounts := map[string]map[string]int{}   // neighborhood -> district -> count
	districtCounts := map[string]map[string]int{}       // district -> province -> count
	districtCountsPerProvince := map[string]map[string]struct{}{}

	for _, row := range rows {
		neigh := strings.TrimSpace(row.Neighborhood)
		if neigh == "" {
			idx.MalformedRows++
			continue
		}
		normNeigh := turkish.NormalizeForCompare(neigh)
		idx.registerNeighborhood(normNeigh, neigh)

		prov := strings.TrimSpace(row.Province)
		dist := strings.TrimSpace(row.District)
		if prov == "" || dist == "" || strings.EqualFold(dist, "merkez") {
			// Blank province/district and "Merkez"-district rows feed
			// AllNeighborhoods only.
			continue
		}

		normProv := turkish.NormalizeForCompare(prov)
		normDist := turkish.NormalizeForCompare(dist)

		if _, ok := idx.Provinces[normProv]; !ok {
			idx.Provinces[normProv] = turkish.TitleWord(prov)
			idx.provinceList = append(idx.provinceList, normProv)
		}
		if idx.DistrictsOfProvince[normProv] == nil {
			idx.DistrictsOfProvince[normProv] = map[string]string{}
		}
		if _, ok := idx.DistrictsOfProvince[normProv][normDist]; !ok {
			idx.DistrictsOfProvince[normProv][normDist] = turkish.TitleWord(dist)
		}
		if _, ok := idx.AllDistricts[normDist]; !ok {
			idx.AllDistricts[normDist] = turkish.TitleWord(dist)
		}

		pk := pairKey{province: normProv, district: normDist}
		if idx.NeighborhoodsOfDistrict[pk] == nil {
			idx.NeighborhoodsOfDistrict[pk] = map[string]string{}
		}
		idx.NeighborhoodsOfDistrict[pk][normNeigh] = turkish.TitleWord(neigh)
		for _, suf := range neighborhoodSuffixes {
			if strings.HasSuffix(" "+normNeigh, suf) {
				if bare := strings.TrimSpace(strings.TrimSuffix(" "+normNeigh, suf)); bare != "" {
					if _, ok := idx.NeighborhoodsOfDistrict[pk][bare]; !ok {
						idx.NeighborhoodsOfDistrict[pk][bare] = turkish.TitleWord(bare)
					}
				}
				break
			}
		}

		if neighborhoodCounts[normNeigh] == nil {
			neighborhoodCounts[normNeigh] = map[string]int{}
		}
		neighborhoodCounts[normNeigh][normDist]++

		if districtCounts[normDist] == nil {
			districtCounts[normDist] = map[string]int{}
		}
		districtCounts[normDist][normProv]++

		if districtCountsPerProvince[normProv] == nil {
			districtCountsPerProvince[normProv] = map[string]struct{}{}
		}
		if _, seen := districtCountsPerProvince[normProv][normDist]; !seen {
			districtCountsPerProvince[normProv][normDist] = struct{}{}
			idx.districtByOwner[normProv] = append(idx.districtByOwner[normProv], normDist)
		}
	}

	idx.NeighborhoodToDistricts = rankCounts(neighborhoodCounts)
	idx.DistrictToProvinces = rankCounts(districtCounts)
	sort.Strings(idx.provinceList)
	return idx
}

// registerNeighborhood stores neigh both with and without a recognized
// "Mahallesi" suffix, per spec §4.2's lookup-tolerance requirement.
func (idx *ReferenceIndex) registerNeighborhood(normNeigh, canonical string) {
	if _, ok := idx.AllNeighborhoods[normNeigh]; !ok {
		idx.AllNeighborhoods[normNeigh] = turkish.TitleWord(canonical)
	}
	lower := " " + normNeigh
	for _, suf := range neighborhoodSuffixes {
		if strings.HasSuffix(lower, suf) {
			bare := strings.TrimSpace(strings.TrimSuffix(lower, suf))
			if _, ok := idx.AllNeighborhoods[bare]; !ok && bare != "" {
				idx.AllNeighborhoods[bare] = turkish.TitleWord(bare)
			}
			return
		}
	}
	// Also register the "+ mahallesi" form so lookups of the bare name
	// succeed against a reference row that was stored with the suffix, and
	// vice versa.
	withSuffix := normNeigh + " mahallesi"
	if _, ok := idx.AllNeighborhoods[withSuffix]; !ok {
		idx.AllNeighborhoods[withSuffix] = turkish.TitleWord(canonical) + " Mahallesi"
	}
}

func rankCounts(counts map[string]map[string]int) map[string][]Count {
	out := make(map[string][]Count, len(counts))
	for key, byName := range counts {
		list := make([]Count, 0, len(byName))
		for name, c := range byName {
			list = append(list, Count{Name: name, Count: c})
		}
		sort.Slice(list, func(i, j int) bool {
			if list[i].Count != list[j].Count {
				return list[i].Count > list[j].Count
			}
			return list[i].Name < list[j].Name
		})
		out[key] = list
	}
	return out
}

// LoadHierarchyCSV parses the `il_adi,ilce_adi,mahalle_adi[,source]` file
// described in spec §6. A header row is required. Individual malformed rows
// are skipped (spec §7 MalformedReference); an unreadable header or a header
// missing il_adi, ilce_adi or mahalle_adi returns an error, on which the CLI
// exits with code 2.
func LoadHierarchyCSV(r io.Reader) ([]AdminRecord, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("refdb: reading header: %w", err)
	}
	col := columnIndex(header, "il_adi", "ilce_adi", "mahalle_adi", "source")
	if col["il_adi"] < 0 || col["ilce_adi"] < 0 || col["mahalle_adi"] < 0 {
		return nil, fmt.Errorf("refdb: hierarchy file missing required columns il_adi/ilce_adi/mahalle_adi")
	}

	var rows []AdminRecord
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue // malformed row, skip
		}
		get := func(name string) string {
			i := col[name]
			if i < 0 || i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		province := get("il_adi")
		district := get("ilce_adi")
		if strings.EqualFold(province, "unknown") {
			province = ""
		}
		if strings.EqualFold(district, "unknown") {
			district = ""
		}
		rows = append(rows, AdminRecord{
			Province:     province,
			District:     district,
			Neighborhood: get("mahalle_adi"),
			Source:       get("source"),
		})
	}
	return rows, nil
}

// LoadPostalCSV parses the `postal_code,il,ilce` file described in spec §6.
func LoadPostalCSV(r io.Reader, idx *ReferenceIndex) error {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	header, err := cr.Read()
	if err != nil {
		return fmt.Errorf("refdb: reading postal header: %w", err)
	}
	col := columnIndex(header, "postal_code", "il", "ilce")
	if col["postal_code"] < 0 {
		return fmt.Errorf("refdb: postal file missing postal_code column")
	}
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		code := strings.TrimSpace(rec[col["postal_code"]])
		if len(code) != 5 {
			continue
		}
		province, district := "", ""
		if i := col["il"]; i >= 0 && i < len(rec) {
			province = strings.TrimSpace(rec[i])
		}
		if i := col["ilce"]; i >= 0 && i < len(rec) {
			district = strings.TrimSpace(rec[i])
		}
		idx.PostalCodes[code] = PostalEntry{Province: province, District: district}
	}
	return nil
}

func columnIndex(header []string, names ...string) map[string]int {
	idx := map[string]int{}
	for _, n := range names {
		idx[n] = -1
	}
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		if _, ok := idx[h]; ok {
			idx[h] = i
		}
	}
	return idx
}

// IsProvince reports O(1) membership after normalization.
func (idx *ReferenceIndex) IsProvince(q string) (string, bool) {
	v, ok := idx.Provinces[turkish.NormalizeForCompare(q)]
	return v, ok
}

// IsDistrictOf reports O(1) membership of district within province.
func (idx *ReferenceIndex) IsDistrictOf(province, district string) (string, bool) {
	m := idx.DistrictsOfProvince[turkish.NormalizeForCompare(province)]
	if m == nil {
		return "", false
	}
	v, ok := m[turkish.NormalizeForCompare(district)]
	return v, ok
}

// IsDistrict reports O(1) membership in the flat district set, independent
// of which province owns it.
func (idx *ReferenceIndex) IsDistrict(q string) (string, bool) {
	v, ok := idx.AllDistricts[turkish.NormalizeForCompare(q)]
	return v, ok
}

// IsNeighborhoodOf reports O(1) membership of neighborhood within (province, district).
func (idx *ReferenceIndex) IsNeighborhoodOf(province, district, neighborhood string) (string, bool) {
	pk := pairKey{province: turkish.NormalizeForCompare(province), district: turkish.NormalizeForCompare(district)}
	m := idx.NeighborhoodsOfDistrict[pk]
	if m == nil {
		return "", false
	}
	v, ok := m[turkish.NormalizeForCompare(neighborhood)]
	return v, ok
}

// IsNeighborhood reports membership in the orphan-tolerant AllNeighborhoods set.
func (idx *ReferenceIndex) IsNeighborhood(q string) (string, bool) {
	v, ok := idx.AllNeighborhoods[turkish.NormalizeForCompare(q)]
	return v, ok
}

// DistrictsIn returns the canonical district names registered under province.
func (idx *ReferenceIndex) DistrictsIn(province string) []string {
	m := idx.DistrictsOfProvince[turkish.NormalizeForCompare(province)]
	out := make([]string, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

// FuzzyMatchProvince returns the best province whose normalized form has
// composite similarity >= FuzzyThreshold against q (spec §4.2). Results are
// memoized in an LRU cache since the same misspelling recurs heavily across
// a batch.
func (idx *ReferenceIndex) FuzzyMatchProvince(q string) (string, float64, bool) {
	return idx.fuzzyScan("p:"+q, q, idx.provinceList, idx.Provinces)
}

// FuzzyMatchDistrict restricts the candidate set to districts of province
// when province is non-empty, else scans every known district.
func (idx *ReferenceIndex) FuzzyMatchDistrict(q, province string) (string, float64, bool) {
	if province != "" {
		normProv := turkish.NormalizeForCompare(province)
		m := idx.DistrictsOfProvince[normProv]
		if m == nil {
			return "", 0, false
		}
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		return idx.fuzzyScan("d:"+normProv+":"+q, q, keys, m)
	}
	all := map[string]string{}
	for _, m := range idx.DistrictsOfProvince {
		for k, v := range m {
			all[k] = v
		}
	}
	keys := make([]string, 0, len(all))
	for k := range all {
		keys = append(keys, k)
	}
	return idx.fuzzyScan("d::"+q, q, keys, all)
}

// FuzzyMatchNeighborhood scans the orphan-tolerant AllNeighborhoods set.
func (idx *ReferenceIndex) FuzzyMatchNeighborhood(q string) (string, float64, bool) {
	keys := make([]string, 0, len(idx.AllNeighborhoods))
	for k := range idx.AllNeighborhoods {
		keys = append(keys, k)
	}
	return idx.fuzzyScan("n:"+q, q, keys, idx.AllNeighborhoods)
}

// FuzzyMatchAny tries province, then district (unscoped), then neighborhood,
// returning the first hit. This is the "union set provinces ∪ districts ∪
// allNeighborhoods" fuzzy-correction target described in spec §4.3 step 4.
func (idx *ReferenceIndex) FuzzyMatchAny(q string) (name, kind string, score float64, ok bool) {
	if name, score, ok := idx.FuzzyMatchProvince(q); ok {
		return name, "province", score, true
	}
	if name, score, ok := idx.FuzzyMatchDistrict(q, ""); ok {
		return name, "district", score, true
	}
	if name, score, ok := idx.FuzzyMatchNeighborhood(q); ok {
		return name, "neighborhood", score, true
	}
	return "", "", 0, false
}

// PrefixMatchProvince resolves a truncated/abbreviated token (e.g. "Ank.")
// to the unique province it is an unambiguous normalized prefix of. Returns
// ok=false if no province starts with the prefix or more than one does
// (an ambiguous abbreviation is left alone rather than guessed). This
// backs spec §4.4 layer 1's "fuzzy-match the first one-or-two-token
// prefix", which names a different matching mode than ReferenceDB's
// composite-similarity fuzzy correction (§4.2) — a 3-4 letter abbreviation
// is too short for the weighted-edit-distance formula to clear the 0.80
// threshold against a much longer canonical name.
func (idx *ReferenceIndex) PrefixMatchProvince(q string) (string, bool) {
	return prefixMatchUnique(turkish.NormalizeForCompare(q), idx.provinceList, idx.Provinces)
}

// PrefixMatchDistrict is PrefixMatchProvince scoped to a province's district
// set (or every district when province is empty).
func (idx *ReferenceIndex) PrefixMatchDistrict(q, province string) (string, bool) {
	normQ := turkish.NormalizeForCompare(q)
	if province != "" {
		m := idx.DistrictsOfProvince[turkish.NormalizeForCompare(province)]
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		return prefixMatchUnique(normQ, keys, m)
	}
	all := map[string]string{}
	var keys []string
	for _, m := range idx.DistrictsOfProvince {
		for k, v := range m {
			if _, seen := all[k]; !seen {
				keys = append(keys, k)
			}
			all[k] = v
		}
	}
	return prefixMatchUnique(normQ, keys, all)
}

func prefixMatchUnique(normQ string, candidates []string, canonical map[string]string) (string, bool) {
	normQ = strings.TrimSuffix(normQ, ".")
	if len([]rune(normQ)) < 3 {
		return "", false
	}
	var match string
	count := 0
	for _, cand := range candidates {
		if strings.HasPrefix(cand, normQ) {
			match = cand
			count++
			if count > 1 {
				return "", false
			}
		}
	}
	if count == 1 {
		return canonical[match], true
	}
	return "", false
}

func (idx *ReferenceIndex) fuzzyScan(cacheKey, q string, candidates []string, canonical map[string]string) (string, float64, bool) {
	if cached, ok := idx.fuzzyCache.Get(cacheKey); ok {
		return cached.name, cached.score, cached.ok
	}
	normQ := turkish.NormalizeForCompare(q)
	bestKey := ""
	bestScore := 0.0
	maxLenAllowance := int(math.Ceil((1 - FuzzyThreshold) * float64(maxInt(len([]rune(normQ)), 1))))
	for _, cand := range candidates {
		if abs(len([]rune(cand))-len([]rune(normQ))) > maxLenAllowance+2 {
			// length prefilter (spec §5); small slack since the allowance is
			// computed against the shorter-side max, not a fixed constant.
			continue
		}
		score := CompositeSimilarity(normQ, cand)
		if score > bestScore {
			bestScore = score
			bestKey = cand
		}
	}
	ok := bestScore >= FuzzyThreshold
	var name string
	if ok {
		name = canonical[bestKey]
	}
	idx.fuzzyCache.Add(cacheKey, fuzzyResult{name: name, score: bestScore, ok: ok})
	return name, bestScore, ok
}

// CompositeSimilarity implements spec §4.2's
// 0.6*levenshtein + 0.3*phonetic + 0.1*substring formula. a and b must
// already be in NormalizeForCompare form. The phonetic term is Jaro-Winkler
// (JaroWinklerSimilarity), which tolerates transposed/shifted characters
// that a pure edit-distance term scores harshly.
func CompositeSimilarity(a, b string) float64 {
	lev := turkish.LevenshteinSimilarity(a, b)
	phon := JaroWinklerSimilarity(a, b)
	sub := 0.0
	if a != "" && b != "" && (strings.Contains(a, b) || strings.Contains(b, a)) {
		sub = 1.0
	}
	return 0.6*lev + 0.3*phon + 0.1*sub
}

// JaroWinklerSimilarity wraps smetrics' Jaro-Winkler for CompositeSimilarity's
// phonetic term.
func JaroWinklerSimilarity(a, b string) float64 {
	return smetrics.JaroWinkler(a, b, 0.7, 4)
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
