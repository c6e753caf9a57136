package geocode

import (
	"testing"

	"github.com/mtarikozcan/turkish-address-system/internal/model"
)

func comps(province, district, neighborhood, street string) model.AddressComponents {
	var c model.AddressComponents
	if province != "" {
		c.Province.Set(province, 0.95)
	}
	if district != "" {
		c.District.Set(district, 0.90)
	}
	if neighborhood != "" {
		c.Neighborhood.Set(neighborhood, 0.85)
	}
	if street != "" {
		c.Street.Set(street, 0.85)
	}
	return c
}

func testTables() Tables {
	t := NewTables()
	t.Province["istanbul"] = model.Coordinate{Latitude: 41.0, Longitude: 28.9}
	t.District["kadıköy"] = model.Coordinate{Latitude: 40.98, Longitude: 29.02}
	t.Neighborhood["moda"] = model.Coordinate{Latitude: 40.98, Longitude: 29.03}
	t.Street["caferağa sokak"] = model.Coordinate{Latitude: 40.981, Longitude: 29.031}
	return t
}

func TestGeocodePrefersFinestPrecision(t *testing.T) {
	g := New(testTables())
	res := g.Geocode(comps("İstanbul", "Kadıköy", "Moda", "Caferağa Sokak"))
	if res.Precision != model.PrecisionStreet {
		t.Fatalf("precision = %v, want street", res.Precision)
	}
	if res.Confidence != 0.95 {
		t.Errorf("confidence = %v, want 0.95", res.Confidence)
	}
	if len(res.Alternatives) == 0 {
		t.Errorf("expected alternatives at coarser precisions")
	}
}

func TestGeocodeFallsBackToProvince(t *testing.T) {
	g := New(testTables())
	res := g.Geocode(comps("İstanbul", "", "", ""))
	if res.Precision != model.PrecisionProvince {
		t.Fatalf("precision = %v, want province", res.Precision)
	}
}

func TestGeocodeNoneWhenNothingResolves(t *testing.T) {
	g := New(testTables())
	res := g.Geocode(comps("Unknown Province", "", "", ""))
	if res.Precision != model.PrecisionNone {
		t.Fatalf("precision = %v, want none", res.Precision)
	}
	if res.Coordinate != (model.Coordinate{}) {
		t.Errorf("expected zero coordinate on miss, got %+v", res.Coordinate)
	}
}
