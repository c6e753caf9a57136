// Package addrparse implements the Parser stage from spec §4.4: layered
// regex rules, hierarchical sequence logic, and ReferenceDB lookups pulled
// together into one ordered extraction pass over a corrected address
// string. Grounded on the teacher's internal/normalizer/pattern_extractor.go
// (priority-ordered regex maps with a per-pattern confidence) and
// internal/parser/address_matcher.go's fillAdminComponentsFromPath
// (province-then-district-then-neighborhood sequencing).
package addrparse

import (
	"regexp"
	"strings"

	"github.com/mtarikozcan/turkish-address-system/internal/model"
	"github.com/mtarikozcan/turkish-address-system/internal/refdb"
	"github.com/mtarikozcan/turkish-address-system/internal/turkish"
)

// layer numbers the extraction layers from spec §4.4. Each assignment records
// the layer that produced it; Parse does not compare candidates across
// layers, since every field is filled by the one layer that extracts it.
type layer int

const (
	layerProvince layer = iota + 1
	layerNeighborhoodSuffix
	layerDistrictPosition
	layerOrphanNeighborhood
	layerStreet
	layerBuilding
	layerPostal
	layerGeoOverride
)

// assignment is one extracted value for a field, with its confidence and
// the layer that produced it.
type assignment struct {
	value      string
	confidence float64
	layer      layer
}

func (a assignment) betterThan(b assignment) bool {
	if a.confidence != b.confidence {
		return a.confidence > b.confidence
	}
	return a.layer < b.layer
}

// famousStreet is one entry of the fixed geographic-override table (spec
// §4.4 "Geographic validation"). Values confirmed against
// original_source/src/core/address_parser.py's FAMOUS_STREETS /
// GEOGRAPHIC_CORRECTIONS dicts (lines ~1788-1923).
type famousStreet struct {
	province     string
	district     string
	neighborhood string
}

// famousStreets keys are turkish.NormalizeForCompare'd tokens.
var famousStreets = map[string]famousStreet{
	"bagdat":  {province: "İstanbul", district: "Kadıköy", neighborhood: "Moda"},
	"bağdat":  {province: "İstanbul", district: "Kadıköy", neighborhood: "Moda"},
	"konur":   {province: "Ankara", district: "Çankaya", neighborhood: "Kızılay"},
	"tunali":  {province: "Ankara", district: "Çankaya", neighborhood: "Kızılay"},
	"tunalı":  {province: "Ankara", district: "Çankaya", neighborhood: "Kızılay"},
	"kizilay": {province: "Ankara", district: "Çankaya", neighborhood: "Kızılay"},
	"kızılay": {province: "Ankara", district: "Çankaya", neighborhood: "Kızılay"},
	"kordon":  {province: "İzmir", district: "Konak", neighborhood: "Alsancak"},
}

var streetSuffixRe = regexp.MustCompile(`(?i)((?:\S+\s+){0,2}\S+)\s+(caddesi|cadde|cd\.?|sokak|sokağı|sok\.?|sk\.?|bulvarı|bulvar|blv\.?)\b`)

var postalCodeRe = regexp.MustCompile(`\b\d{5}\b`)

var buildingNoRe = regexp.MustCompile(`(?i)\b(?:no\.?:?\s*)?(\d+)([/-])?([A-Za-zİıÖöÜüÇçŞşĞğ])?\b`)
var apartmentRe = regexp.MustCompile(`(?i)\b(?:daire|dair|dr|d)\.?:?\s*(\d+)\b`)
var floorRe = regexp.MustCompile(`(?i)\b(?:kat|k)\.?:?\s*(\d+)\b`)
var blockRe = regexp.MustCompile(`(?i)\b(?:blok|blk)\.?:?\s*([A-Za-zİıÖöÜüÇçŞşĞğ0-9]+)\b`)
var siteRe = regexp.MustCompile(`(?i)((?:\S+\s+){0,2}\S+)\s+(?:site|sitesi)\b`)

// streetTypeCanonical maps a matched suffix keyword to its canonical form
// per the GLOSSARY's "canonical suffix forms".
func streetTypeCanonical(kw string) (model.StreetType, string) {
	switch strings.ToLower(strings.TrimSuffix(kw, ".")) {
	case "sokak", "sok", "sk":
		return model.StreetSokak, "Sokak"
	case "cadde", "caddesi", "cd":
		return model.StreetCadde, "Caddesi"
	case "bulvar", "bulvarı", "blv":
		return model.StreetBulvar, "Bulvarı"
	case "yol", "yolu":
		return model.StreetYol, "Yolu"
	default:
		return "", turkish.TitleWord(kw)
	}
}

// Result is the Parser's output, plus the edit trail the geographic override
// appends to (spec §4.4 "recording an edit in the trail").
type Result struct {
	Components model.AddressComponents
	Edits      []model.CorrectionEdit
	Confidence float64
	Conflict   bool // a GeographicConflict was detected and overridden
}

// Parser extracts typed components from a corrected address string.
type Parser struct {
	refs *refdb.ReferenceIndex
}

// New constructs a Parser bound to a shared ReferenceIndex.
func New(refs *refdb.ReferenceIndex) *Parser {
	return &Parser{refs: refs}
}

// Parse runs the seven extraction layers in order, then the geographic
// override (spec §4.4). Each field takes the value of the single layer that
// extracts it; only the geographic override replaces an extracted value.
func (p *Parser) Parse(corrected string) Result {
	tokens := strings.Fields(corrected)
	used := make([]bool, len(tokens))

	province := p.extractProvince(tokens, used)
	neighborhood, neighTokens := p.extractNeighborhoodSuffix(tokens, used)
	district := p.extractDistrict(tokens, used, province, neighTokens)
	if !neighborhood.present() {
		neighborhood = p.extractOrphanNeighborhood(tokens, used)
	}

	street, streetType := p.extractStreet(tokens, used)
	buildingNo, apartmentNo, floor, block, site := p.extractBuildingLevel(corrected)
	postal := p.extractPostal(corrected)

	comps := model.AddressComponents{}
	setField(&comps.Province, province)
	setField(&comps.District, district)
	setField(&comps.Neighborhood, neighborhood)
	setField(&comps.Street, street)
	if streetType.present() {
		setField(&comps.StreetType, streetType)
	}
	setField(&comps.BuildingNo, buildingNo)
	setField(&comps.ApartmentNo, apartmentNo)
	setField(&comps.Floor, floor)
	setField(&comps.Block, block)
	setField(&comps.Site, site)
	setField(&comps.PostalCode, postal)

	res := Result{Components: comps}
	p.applyGeoOverride(&res, tokens)
	res.Confidence = overallConfidence(res.Components)
	return res
}

func setField(f *model.Field, a assignment) {
	if !a.present() {
		return
	}
	f.Set(a.value, a.confidence)
}

func (a assignment) present() bool { return a.value != "" || a.confidence > 0 }

// extractProvince is layer 1: membership first, then an unambiguous prefix
// match for truncated forms like "Ank.".
func (p *Parser) extractProvince(tokens []string, used []bool) assignment {
	for i, tok := range tokens {
		if used[i] {
			continue
		}
		if name, ok := p.refs.IsProvince(tok); ok {
			used[i] = true
			return assignment{value: name, confidence: 0.95, layer: layerProvince}
		}
	}
	for _, n := range []int{2, 1} {
		for i := 0; i+n <= len(tokens); i++ {
			if anyUsed(used, i, i+n) {
				continue
			}
			candidate := strings.Join(tokens[i:i+n], " ")
			if name, ok := p.refs.PrefixMatchProvince(candidate); ok {
				markUsed(used, i, i+n)
				return assignment{value: name, confidence: 0.85, layer: layerProvince}
			}
		}
	}
	return assignment{}
}

// extractNeighborhoodSuffix is layer 2: rightmost "Mahallesi"/"Mah" keyword,
// with the name built by walking backward from it and stopping at the first
// already-used token or token that is itself a known province/district name
// (spec §4.4 layer 2's "1-3 tokens immediately preceding the suffix
// keyword" bound — a plain greedy regex capture over-consumes the admin
// tokens to its left, since Go's RE2 repetition is greedy with no way to
// prefer the shortest match). Returns the token indices consumed so layer 3
// can exclude them.
func (p *Parser) extractNeighborhoodSuffix(tokens []string, used []bool) (assignment, map[int]bool) {
	keywordIdx := -1
	for i, tok := range tokens {
		if used[i] {
			continue
		}
		low := strings.ToLower(strings.TrimSuffix(tok, "."))
		if low == "mahallesi" || low == "mah" {
			keywordIdx = i
		}
	}
	if keywordIdx == -1 {
		return assignment{}, nil
	}

	start := keywordIdx
	for j := keywordIdx - 1; j >= 0 && keywordIdx-j <= 3; j-- {
		if used[j] {
			break
		}
		if _, ok := p.refs.IsProvince(tokens[j]); ok {
			break
		}
		if _, ok := p.refs.IsDistrict(tokens[j]); ok {
			break
		}
		start = j
	}
	if start == keywordIdx {
		return assignment{}, nil
	}

	nameWords := tokens[start:keywordIdx]
	name := strings.Join(nameWords, " ")
	consumed := make(map[int]bool, len(nameWords)+1)
	for k := start; k <= keywordIdx; k++ {
		consumed[k] = true
	}
	markUsedIdx(used, consumed)
	canon := name
	if c, ok := p.refs.IsNeighborhood(name); ok {
		canon = c
	}
	return assignment{value: canon, confidence: 0.95, layer: layerNeighborhoodSuffix}, consumed
}

// extractDistrict is layer 3: the first unused token outside the
// neighborhood capture that is a district of the extracted province (0.90),
// else the first such token that is any known district (0.80), else a
// unique prefix match among the province's districts (0.80).
func (p *Parser) extractDistrict(tokens []string, used []bool, province assignment, neighTokens map[int]bool) assignment {
	if province.present() {
		for i, tok := range tokens {
			if used[i] || neighTokens[i] {
				continue
			}
			if name, ok := p.refs.IsDistrictOf(province.value, tok); ok {
				used[i] = true
				return assignment{value: name, confidence: 0.90, layer: layerDistrictPosition}
			}
		}
	}
	for i, tok := range tokens {
		if used[i] || neighTokens[i] {
			continue
		}
		if name, ok := p.refs.IsDistrict(tok); ok {
			used[i] = true
			return assignment{value: name, confidence: 0.80, layer: layerDistrictPosition}
		}
	}
	if province.present() {
		for _, n := range []int{2, 1} {
			for i := 0; i+n <= len(tokens); i++ {
				if anyUsed(used, i, i+n) || rangeUsed(neighTokens, i, i+n) {
					continue
				}
				candidate := strings.Join(tokens[i:i+n], " ")
				if name, ok := p.refs.PrefixMatchDistrict(candidate, province.value); ok {
					markUsed(used, i, i+n)
					return assignment{value: name, confidence: 0.80, layer: layerDistrictPosition}
				}
			}
		}
	}
	return assignment{}
}

// extractOrphanNeighborhood is layer 4: any unassigned token that exactly
// normalizes to a known neighborhood, independent of suffix wording.
func (p *Parser) extractOrphanNeighborhood(tokens []string, used []bool) assignment {
	for i, tok := range tokens {
		if used[i] {
			continue
		}
		if name, ok := p.refs.IsNeighborhood(tok); ok {
			used[i] = true
			return assignment{value: name, confidence: 0.80, layer: layerOrphanNeighborhood}
		}
	}
	return assignment{}
}

// extractStreet is layer 5: "(1-3 tokens) StreetTypeKeyword", with tokens
// already assigned to administrative fields excluded from the captured name.
func (p *Parser) extractStreet(tokens []string, used []bool) (assignment, assignment) {
	joined := strings.Join(tokens, " ")
	matches := streetSuffixRe.FindAllStringSubmatchIndex(joined, -1)
	if len(matches) == 0 {
		return assignment{}, assignment{}
	}
	m := matches[0]
	rawName := strings.TrimSpace(joined[m[2]:m[3]])
	kw := joined[m[4]:m[5]]
	consumed := tokenIndicesInRange(tokens, joined, m[0], m[3])
	name := excludeUsedWords(rawName, consumed, used, tokens, joined)
	if name == "" {
		return assignment{}, assignment{}
	}
	markUsedIdx(used, consumed)
	streetType, canonSuffix := streetTypeCanonical(kw)
	full := turkish.TitleWord(name) + " " + canonSuffix
	return assignment{value: full, confidence: 0.85, layer: layerStreet},
		assignment{value: string(streetType), confidence: 0.85, layer: layerStreet}
}

// excludeUsedWords drops words from name that correspond to token positions
// already consumed by an earlier layer (spec §4.4 layer 5's anti-contamination
// rule), by recomputing which words of rawName sit at already-used indices.
func excludeUsedWords(rawName string, consumed map[int]bool, used []bool, tokens []string, joined string) string {
	words := strings.Fields(rawName)
	// Walk tokens in order, keep only the words whose underlying token index
	// was not already used by a prior (non-street) layer.
	var kept []string
	ti := 0
	for _, w := range words {
		for ti < len(tokens) && !strings.EqualFold(tokens[ti], w) {
			ti++
		}
		if ti < len(tokens) {
			if !used[ti] {
				kept = append(kept, w)
			}
			ti++
		} else {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// extractBuildingLevel is layer 6: ordered regexes for buildingNo,
// apartmentNo, floor, block, site, each preserving compound forms.
func (p *Parser) extractBuildingLevel(corrected string) (buildingNo, apartmentNo, floor, block, site assignment) {
	if m := buildingNoRe.FindStringSubmatch(corrected); m != nil {
		val := m[1]
		if m[3] != "" {
			sep := m[2]
			if sep == "" {
				sep = "/"
			}
			val = m[1] + sep + strings.ToUpper(m[3])
		}
		buildingNo = assignment{value: val, confidence: 0.90, layer: layerBuilding}
	}
	if m := apartmentRe.FindStringSubmatch(corrected); m != nil {
		apartmentNo = assignment{value: m[1], confidence: 0.85, layer: layerBuilding}
	}
	if m := floorRe.FindStringSubmatch(corrected); m != nil {
		floor = assignment{value: m[1], confidence: 0.85, layer: layerBuilding}
	}
	if m := blockRe.FindStringSubmatch(corrected); m != nil {
		block = assignment{value: strings.ToUpper(m[1]), confidence: 0.80, layer: layerBuilding}
	}
	if m := siteRe.FindStringSubmatch(corrected); m != nil {
		site = assignment{value: turkish.TitleWord(strings.TrimSpace(m[1])), confidence: 0.75, layer: layerBuilding}
	}
	return
}

// extractPostal is layer 7: a standalone 5-digit token.
func (p *Parser) extractPostal(corrected string) assignment {
	if m := postalCodeRe.FindString(corrected); m != "" {
		return assignment{value: m, confidence: 0.95, layer: layerPostal}
	}
	return assignment{}
}

// applyGeoOverride implements spec §4.4's mandatory geographic validation:
// when a famous-street token disagrees with the extracted province, the
// parser overrides province and district to the table's known values with
// confidence 0.90, fills the neighborhood from the table at 0.80 only when
// none was extracted, and records the province override as an edit.
func (p *Parser) applyGeoOverride(res *Result, tokens []string) {
	for _, tok := range tokens {
		fs, ok := famousStreets[turkish.NormalizeForCompare(tok)]
		if !ok {
			continue
		}
		conflict := res.Components.Province.Present &&
			!strings.EqualFold(turkish.NormalizeForCompare(res.Components.Province.Value), turkish.NormalizeForCompare(fs.province))
		if !conflict {
			// Still fill in an absent province/district from the famous-street
			// table (original_source's "infer mahalle/ilce/il" behaviour) even
			// with no conflict to flag.
			if !res.Components.Province.Present {
				res.Components.Province.Set(fs.province, 0.85)
			}
			if !res.Components.District.Present {
				res.Components.District.Set(fs.district, 0.85)
			}
			continue
		}
		res.Conflict = true
		res.Edits = append(res.Edits, model.CorrectionEdit{
			Kind:        model.EditFuzzyAdminFix,
			Original:    res.Components.Province.Value,
			Replacement: fs.province,
		})
		res.Components.Province = model.Field{Value: fs.province, Confidence: 0.90, Present: true}
		res.Components.District = model.Field{Value: fs.district, Confidence: 0.90, Present: true}
		if !res.Components.Neighborhood.Present {
			res.Components.Neighborhood = model.Field{Value: fs.neighborhood, Confidence: 0.80, Present: true}
		}
		return
	}
}

// overallConfidence is the parser-local formula from spec §4.4: mean of
// per-field confidences plus a completeness bonus, capped at 1.0.
func overallConfidence(c model.AddressComponents) float64 {
	fields := []model.Field{
		c.Province, c.District, c.Neighborhood, c.Street, c.BuildingNo, c.ApartmentNo, c.Floor, c.Block, c.Site, c.PostalCode,
	}
	sum, n := 0.0, 0
	for _, f := range fields {
		if f.Present {
			sum += f.Confidence
			n++
		}
	}
	mean := 0.0
	if n > 0 {
		mean = sum / float64(n)
	}
	bonus := 0.0
	if c.Province.Present && c.District.Present && c.Neighborhood.Present {
		bonus += 0.15
	}
	if c.Street.Present && c.StreetType.Present {
		bonus += 0.10
	}
	if c.BuildingNo.Present {
		bonus += 0.05
	}
	total := mean + bonus
	if total > 1.0 {
		total = 1.0
	}
	return total
}

func anyUsed(used []bool, from, to int) bool {
	for i := from; i < to; i++ {
		if used[i] {
			return true
		}
	}
	return false
}

func rangeUsed(m map[int]bool, from, to int) bool {
	for i := from; i < to; i++ {
		if m[i] {
			return true
		}
	}
	return false
}

func markUsed(used []bool, from, to int) {
	for i := from; i < to; i++ {
		used[i] = true
	}
}

func markUsedIdx(used []bool, idx map[int]bool) {
	for i := range idx {
		used[i] = true
	}
}

// tokenIndicesInRange maps a byte range in joined back to the token indices
// it spans, since the suffix regexes match against the space-joined string.
func tokenIndicesInRange(tokens []string, joined string, from, to int) map[int]bool {
	out := map[int]bool{}
	pos := 0
	for i, tok := range tokens {
		start := pos
		end := pos + len(tok)
		if end > from && start < to {
			out[i] = true
		}
		pos = end + 1 // +1 for the joining space
	}
	return out
}
