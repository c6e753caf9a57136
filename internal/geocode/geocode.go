// Package geocode implements the Geocoder stage from spec §4.7: a
// finest-available-precision lookup across four coordinate tables, with an
// ordered alternatives list. The teacher has no geocoding stage; the
// decimal-degree-pair Coordinate shape borrows the
// googlemaps-google-maps-services-go LatLng{Lat, Lng float64} idiom, and the
// precision-fallback control flow is written fresh in the teacher's
// plain-function style.
package geocode

import (
	"github.com/mtarikozcan/turkish-address-system/internal/model"
	"github.com/mtarikozcan/turkish-address-system/internal/turkish"
)

// Tables holds the four normalize(name)->Coordinate lookup tables loaded
// from the --coords-dir JSON files (spec §6).
type Tables struct {
	Street       map[string]model.Coordinate
	Neighborhood map[string]model.Coordinate // also accepts the "neighborhood_district" composite key
	District     map[string]model.Coordinate
	Province     map[string]model.Coordinate
}

// NewTables returns an empty, ready-to-populate Tables value.
func NewTables() Tables {
	return Tables{
		Street:       map[string]model.Coordinate{},
		Neighborhood: map[string]model.Coordinate{},
		District:     map[string]model.Coordinate{},
		Province:     map[string]model.Coordinate{},
	}
}

// Geocoder resolves AddressComponents to a coordinate with explainable
// precision fallback.
type Geocoder struct {
	tables Tables
}

// New constructs a Geocoder over a fixed set of coordinate tables.
func New(tables Tables) *Geocoder {
	return &Geocoder{tables: tables}
}

// Geocode runs the five-step fallback from spec §4.7 and collects every
// other precision level that also resolved, as alternatives.
func (g *Geocoder) Geocode(c model.AddressComponents) model.GeocodeResult {
	var alts []model.GeocodeAlternative

	tryStreet := func() (model.GeocodeAlternative, bool) {
		if !c.Street.Present {
			return model.GeocodeAlternative{}, false
		}
		if coord, ok := g.tables.Street[turkish.NormalizeForCompare(c.Street.Value)]; ok {
			return model.GeocodeAlternative{Precision: model.PrecisionStreet, Coordinate: coord, Confidence: 0.95}, true
		}
		return model.GeocodeAlternative{}, false
	}
	tryNeighborhood := func() (model.GeocodeAlternative, bool) {
		if !c.Neighborhood.Present {
			return model.GeocodeAlternative{}, false
		}
		key := turkish.NormalizeForCompare(c.Neighborhood.Value)
		if coord, ok := g.tables.Neighborhood[key]; ok {
			return model.GeocodeAlternative{Precision: model.PrecisionNeighborhood, Coordinate: coord, Confidence: 0.85}, true
		}
		if c.District.Present {
			composite := key + "_" + turkish.NormalizeForCompare(c.District.Value)
			if coord, ok := g.tables.Neighborhood[composite]; ok {
				return model.GeocodeAlternative{Precision: model.PrecisionNeighborhood, Coordinate: coord, Confidence: 0.85}, true
			}
		}
		return model.GeocodeAlternative{}, false
	}
	tryDistrict := func() (model.GeocodeAlternative, bool) {
		if !c.District.Present {
			return model.GeocodeAlternative{}, false
		}
		if coord, ok := g.tables.District[turkish.NormalizeForCompare(c.District.Value)]; ok {
			return model.GeocodeAlternative{Precision: model.PrecisionDistrict, Coordinate: coord, Confidence: 0.75}, true
		}
		return model.GeocodeAlternative{}, false
	}
	tryProvince := func() (model.GeocodeAlternative, bool) {
		if !c.Province.Present {
			return model.GeocodeAlternative{}, false
		}
		if coord, ok := g.tables.Province[turkish.NormalizeForCompare(c.Province.Value)]; ok {
			return model.GeocodeAlternative{Precision: model.PrecisionProvince, Coordinate: coord, Confidence: 0.50}, true
		}
		return model.GeocodeAlternative{}, false
	}

	candidates := []func() (model.GeocodeAlternative, bool){tryStreet, tryNeighborhood, tryDistrict, tryProvince}
	var primary model.GeocodeAlternative
	found := false
	for _, try := range candidates {
		alt, ok := try()
		if !ok {
			continue
		}
		if !found {
			primary = alt
			found = true
			continue
		}
		alts = append(alts, alt)
	}

	if !found {
		return model.GeocodeResult{
			Coordinate: model.Coordinate{}, Precision: model.PrecisionNone, Confidence: 0, Alternatives: alts,
		}
	}
	return model.GeocodeResult{
		Coordinate: primary.Coordinate, Precision: primary.Precision, Confidence: primary.Confidence, Alternatives: alts,
	}
}
