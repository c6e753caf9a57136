// Package validate implements the Validator stage from spec §4.6: a
// five-tier plausibility grading of a component set against the reference
// DB, a completeness score, a postal-code cross-check, and suggestion
// emission on failure. Grounded on the teacher's
// internal/parser/address_matcher.go determineStatus/threshold-grading
// ladder (an ordered if-chain picking the best-fitting tier) and
// app/services/address_service.go's calculateScore weighted-completeness
// pattern.
package validate

import (
	"sort"
	"strings"

	"github.com/mtarikozcan/turkish-address-system/internal/model"
	"github.com/mtarikozcan/turkish-address-system/internal/refdb"
	"github.com/mtarikozcan/turkish-address-system/internal/turkish"
)

// NeighborhoodFuzzyThreshold is the check-1 fuzzy-tolerance bar from spec §4.6.
const NeighborhoodFuzzyThreshold = 0.80

// Validator grades AddressComponents against a shared ReferenceIndex.
type Validator struct {
	refs *refdb.ReferenceIndex
}

// New constructs a Validator.
func New(refs *refdb.ReferenceIndex) *Validator {
	return &Validator{refs: refs}
}

// Validate runs the five-tier check ladder in order and returns the
// first-matching verdict, then layers the completeness score and the
// postal-code cross-check on top.
func (v *Validator) Validate(c model.AddressComponents) model.ValidationResult {
	res := v.gradeTier(c)
	res.Completeness = completeness(c)
	v.crossCheckPostal(c, &res)
	if !res.IsValid {
		res.Suggestions = v.suggest(c)
	}
	return res
}

func (v *Validator) gradeTier(c model.AddressComponents) model.ValidationResult {
	prov, dist, neigh := c.Province, c.District, c.Neighborhood

	if prov.Present && dist.Present && neigh.Present {
		if _, ok := v.refs.IsProvince(prov.Value); ok {
			if _, ok := v.refs.IsDistrictOf(prov.Value, dist.Value); ok {
				if _, ok := v.refs.IsNeighborhoodOf(prov.Value, dist.Value, neigh.Value); ok {
					return model.ValidationResult{IsValid: true, Status: model.ValidationCompleteTriple, Confidence: 0.95}
				}
				if best, score, ok := v.bestNeighborhoodOf(prov.Value, dist.Value, neigh.Value); ok && score >= NeighborhoodFuzzyThreshold {
					return model.ValidationResult{
						IsValid: true, Status: model.ValidationCompleteTriple, Confidence: 0.75,
						Warnings: []string{"neighborhood fuzzy-matched to " + best},
					}
				}
			}
		}
	}

	if prov.Present && neigh.Present {
		if _, ok := v.refs.IsProvince(prov.Value); ok {
			for _, d := range v.refs.DistrictsIn(prov.Value) {
				if _, ok := v.refs.IsNeighborhoodOf(prov.Value, d, neigh.Value); ok {
					return model.ValidationResult{IsValid: true, Status: model.ValidationProvinceNeigh, Confidence: 0.70}
				}
			}
		}
	}

	if prov.Present && dist.Present {
		if _, ok := v.refs.IsDistrictOf(prov.Value, dist.Value); ok {
			return model.ValidationResult{IsValid: true, Status: model.ValidationProvinceDist, Confidence: 0.65}
		}
	}

	if prov.Present && !dist.Present && !neigh.Present {
		if _, ok := v.refs.IsProvince(prov.Value); ok {
			return model.ValidationResult{IsValid: true, Status: model.ValidationProvinceOnly, Confidence: 0.30}
		}
	}

	return model.ValidationResult{IsValid: false, Status: model.ValidationInsufficient, Confidence: 0.0}
}

// bestNeighborhoodOf fuzzy-scores neigh against the known neighborhoods of
// (province, district) only, per spec §4.6 check 1's "similarity >= 0.8 on
// neighborhood only" (province/district are already exact-verified by the
// caller, so the fuzzy tolerance is scoped to the third field alone).
func (v *Validator) bestNeighborhoodOf(province, district, neigh string) (string, float64, bool) {
	name, score, ok := v.refs.FuzzyMatchNeighborhood(neigh)
	if !ok {
		return "", 0, false
	}
	if _, member := v.refs.IsNeighborhoodOf(province, district, name); !member {
		return "", 0, false
	}
	return name, score, true
}

// completeness is spec §4.6's independent-of-validity score:
// 0.7*(providedRequired/3) + 0.3*(providedOptional/4).
func completeness(c model.AddressComponents) float64 {
	required := 0
	for _, f := range []model.Field{c.Province, c.District, c.Neighborhood} {
		if f.Present {
			required++
		}
	}
	optional := 0
	for _, f := range []model.Field{c.Street, c.BuildingNo, c.ApartmentNo, c.PostalCode} {
		if f.Present {
			optional++
		}
	}
	return 0.7*(float64(required)/3.0) + 0.3*(float64(optional)/4.0)
}

// crossCheckPostal implements spec §4.6's postal-code cross-check: a
// mismatch between the declared province/district and the postal code's
// registered (province, district) reduces confidence by 0.15 and emits an
// error, without otherwise changing is_valid.
func (v *Validator) crossCheckPostal(c model.AddressComponents, res *model.ValidationResult) {
	if !c.PostalCode.Present || (!c.Province.Present && !c.District.Present) {
		return
	}
	entry, ok := v.refs.PostalCodes[c.PostalCode.Value]
	if !ok {
		return
	}
	mismatch := false
	if c.Province.Present && entry.Province != "" &&
		!strings.EqualFold(turkish.NormalizeForCompare(c.Province.Value), turkish.NormalizeForCompare(entry.Province)) {
		mismatch = true
	}
	if c.District.Present && entry.District != "" &&
		!strings.EqualFold(turkish.NormalizeForCompare(c.District.Value), turkish.NormalizeForCompare(entry.District)) {
		mismatch = true
	}
	if mismatch {
		res.Confidence -= 0.15
		if res.Confidence < 0 {
			res.Confidence = 0
		}
		res.Errors = append(res.Errors, "postal code does not match the declared province/district")
	}
}

// suggest emits up to 3 closest fuzzy candidates per failing required field
// (spec §4.6 "Suggestion emission").
func (v *Validator) suggest(c model.AddressComponents) []model.Suggestion {
	var out []model.Suggestion
	if c.Province.Present {
		out = append(out, topN("province", c.Province.Value, v.refs.Provinces, 3)...)
	}
	if c.District.Present {
		out = append(out, topN("district", c.District.Value, v.refs.AllDistricts, 3)...)
	}
	if c.Neighborhood.Present {
		out = append(out, topN("neighborhood", c.Neighborhood.Value, v.refs.AllNeighborhoods, 3)...)
	}
	return out
}

func topN(field, query string, candidates map[string]string, n int) []model.Suggestion {
	normQ := turkish.NormalizeForCompare(query)
	type scored struct {
		name  string
		score float64
	}
	var all []scored
	for norm, canon := range candidates {
		if norm == normQ {
			continue
		}
		all = append(all, scored{name: canon, score: refdb.CompositeSimilarity(normQ, norm)})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].score > all[j].score })
	if len(all) > n {
		all = all[:n]
	}
	out := make([]model.Suggestion, 0, len(all))
	for _, s := range all {
		out = append(out, model.Suggestion{Field: field, Candidate: s.name, Similarity: s.score})
	}
	return out
}
