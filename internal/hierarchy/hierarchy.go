// Package hierarchy implements the HierarchyCompleter stage from spec §4.5:
// fill in a missing district or province from the statistical mode of the
// reference hierarchy, never overwriting a field the parser already filled.
// No direct teacher analog exists for this stage (the teacher's domain has
// no hierarchy-completion step); it is written fresh in the shape of the
// teacher's modal-count aggregation passes, consuming internal/refdb's
// NeighborhoodToDistricts/DistrictToProvinces tables built at startup.
package hierarchy

import (
	"github.com/mtarikozcan/turkish-address-system/internal/model"
	"github.com/mtarikozcan/turkish-address-system/internal/refdb"
	"github.com/mtarikozcan/turkish-address-system/internal/turkish"
)

// Completer fills missing administrative fields from the reference index's
// modal-count tables.
type Completer struct {
	refs *refdb.ReferenceIndex
}

// New constructs a Completer bound to a shared ReferenceIndex.
func New(refs *refdb.ReferenceIndex) *Completer {
	return &Completer{refs: refs}
}

// Fixed completion confidences (spec §4.5): a completed field's confidence
// depends only on which rule filled it, never on how skewed the modal count
// behind it was.
const (
	confDistrictFromProvinceAndNeighborhood = 0.80
	confProvinceFromNeighborhood            = 0.70
	confProvinceFromDistrict                = 0.75
)

// Complete fills comps.District from comps.Neighborhood and comps.Province
// from comps.District (or, failing that, comps.Neighborhood) when missing,
// using the modal (most frequent) parent in the reference hierarchy. Fields
// already present are never touched (spec invariant "Hierarchy completion
// never changes an already-present field"). Each completion is recorded as a
// fuzzyAdminFix-kind edit with Original=="" (callers inspecting that know
// it's an addition, not a replacement).
func (c *Completer) Complete(comps *model.AddressComponents) []model.CorrectionEdit {
	var edits []model.CorrectionEdit

	if !comps.District.Present && comps.Neighborhood.Present {
		key := turkish.NormalizeForCompare(comps.Neighborhood.Value)
		if counts, ok := c.refs.NeighborhoodToDistricts[key]; ok && len(counts) > 0 {
			if picked, ok := c.pickDistrictForNeighborhood(counts, comps); ok {
				canon := c.canonicalDistrict(picked)
				comps.District.Set(canon, confDistrictFromProvinceAndNeighborhood)
				edits = append(edits, model.CorrectionEdit{
					Kind: model.EditFuzzyAdminFix, Original: "", Replacement: canon,
				})
			}
		}
	}

	if !comps.Province.Present {
		if comps.District.Present {
			key := turkish.NormalizeForCompare(comps.District.Value)
			if counts, ok := c.refs.DistrictToProvinces[key]; ok && len(counts) > 0 {
				canon := c.canonicalProvince(counts[0].Name)
				comps.Province.Set(canon, confProvinceFromDistrict)
				edits = append(edits, model.CorrectionEdit{
					Kind: model.EditFuzzyAdminFix, Original: "", Replacement: canon,
				})
			}
		} else if comps.Neighborhood.Present {
			key := turkish.NormalizeForCompare(comps.Neighborhood.Value)
			if picked, ok := c.modalProvinceForNeighborhood(key); ok {
				canon := c.canonicalProvince(picked)
				comps.Province.Set(canon, confProvinceFromNeighborhood)
				edits = append(edits, model.CorrectionEdit{
					Kind: model.EditFuzzyAdminFix, Original: "", Replacement: canon,
				})
			}
		}
	}

	return edits
}

// pickDistrictForNeighborhood picks the district that maximizes
// count(province, district, neighborhood): the highest-count entry of
// counts (already ranked descending) that also belongs to
// districtsOfProvince[province] when the province is known (spec §4.5).
// With no known province it falls back to the unconstrained mode.
func (c *Completer) pickDistrictForNeighborhood(counts []refdb.Count, comps *model.AddressComponents) (string, bool) {
	if !comps.Province.Present {
		return counts[0].Name, true
	}
	allowed := c.refs.DistrictsOfProvince[turkish.NormalizeForCompare(comps.Province.Value)]
	for _, cnt := range counts {
		if _, ok := allowed[cnt.Name]; ok {
			return cnt.Name, true
		}
	}
	return "", false
}

// modalProvinceForNeighborhood picks the province whose districts contain
// the neighborhood with maximum count (spec §4.5 "missing province + known
// neighborhood"): each of the neighborhood's candidate districts votes for
// its own modal province, weighted by how often the neighborhood maps to
// that district.
func (c *Completer) modalProvinceForNeighborhood(key string) (string, bool) {
	counts, ok := c.refs.NeighborhoodToDistricts[key]
	if !ok || len(counts) == 0 {
		return "", false
	}
	tally := map[string]int{}
	for _, cnt := range counts {
		provCounts, ok := c.refs.DistrictToProvinces[cnt.Name]
		if !ok || len(provCounts) == 0 {
			continue
		}
		tally[provCounts[0].Name] += cnt.Count
	}
	best, bestCount := "", 0
	for prov, n := range tally {
		if n > bestCount || (n == bestCount && (best == "" || prov < best)) {
			best, bestCount = prov, n
		}
	}
	if best == "" {
		return "", false
	}
	return best, true
}

func (c *Completer) canonicalDistrict(normalized string) string {
	if name, ok := c.refs.IsDistrict(normalized); ok {
		return name
	}
	return turkish.TitleWord(normalized)
}

func (c *Completer) canonicalProvince(normalized string) string {
	if name, ok := c.refs.IsProvince(normalized); ok {
		return name
	}
	return turkish.TitleWord(normalized)
}
