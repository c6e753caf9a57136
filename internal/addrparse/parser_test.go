package addrparse

import (
	"testing"

	"github.com/mtarikozcan/turkish-address-system/internal/refdb"
)

func testIndex() *refdb.ReferenceIndex {
	return refdb.Build([]refdb.AdminRecord{
		{Province: "İstanbul", District: "Kadıköy", Neighborhood: "Moda Mahallesi"},
		{Province: "İstanbul", District: "Kadıköy", Neighborhood: "Caferağa Mahallesi"},
		{Province: "Ankara", District: "Çankaya", Neighborhood: "Kızılay Mahallesi"},
		{Province: "İzmir", District: "Konak", Neighborhood: "Alsancak Mahallesi"},
	})
}

func TestParseFullTripleWithStreetAndBuilding(t *testing.T) {
	p := New(testIndex())
	res := p.Parse("İstanbul Kadıköy Moda Mahallesi Caferağa Sokak 10")

	if res.Components.Province.Value != "İstanbul" {
		t.Errorf("province = %q", res.Components.Province.Value)
	}
	if res.Components.District.Value != "Kadıköy" {
		t.Errorf("district = %q", res.Components.District.Value)
	}
	if res.Components.Neighborhood.Value != "Moda Mahallesi" && res.Components.Neighborhood.Value != "Moda" {
		t.Errorf("neighborhood = %q", res.Components.Neighborhood.Value)
	}
	if res.Components.BuildingNo.Value != "10" {
		t.Errorf("buildingNo = %q", res.Components.BuildingNo.Value)
	}
}

func TestParseBuildingNumberCompoundForms(t *testing.T) {
	p := New(testIndex())
	res := p.Parse("Kızılay Mahallesi Atatürk Bulvarı No:25/A Daire:3")
	if res.Components.BuildingNo.Value != "25/A" {
		t.Errorf("buildingNo = %q, want 25/A", res.Components.BuildingNo.Value)
	}
	if res.Components.ApartmentNo.Value != "3" {
		t.Errorf("apartmentNo = %q, want 3", res.Components.ApartmentNo.Value)
	}
}

func TestParseProvinceFuzzyPrefix(t *testing.T) {
	p := New(testIndex())
	res := p.Parse("Ank Çankaya Kızılay Mahallesi")
	if res.Components.Province.Value != "Ankara" {
		t.Errorf("province = %q, want Ankara via prefix match", res.Components.Province.Value)
	}
}

func TestParseGeographicConflictOverride(t *testing.T) {
	p := New(testIndex())
	res := p.Parse("Ankara Bagdat Caddesi")
	if !res.Conflict {
		t.Fatalf("expected a geographic conflict to be flagged")
	}
	if res.Components.Province.Value != "İstanbul" {
		t.Errorf("province after override = %q, want İstanbul", res.Components.Province.Value)
	}
	if res.Components.District.Value != "Kadıköy" {
		t.Errorf("district after override = %q, want Kadıköy", res.Components.District.Value)
	}
	if len(res.Edits) == 0 {
		t.Errorf("expected the override to be recorded in the edit trail")
	}
}

func TestParsePostalCode(t *testing.T) {
	p := New(testIndex())
	res := p.Parse("Moda Mahallesi 34710")
	if res.Components.PostalCode.Value != "34710" {
		t.Errorf("postalCode = %q, want 34710", res.Components.PostalCode.Value)
	}
}

func TestParseConfidenceInRange(t *testing.T) {
	p := New(testIndex())
	res := p.Parse("İstanbul Kadıköy Moda Mahallesi Caferağa Sokak 10")
	if res.Confidence < 0 || res.Confidence > 1 {
		t.Errorf("confidence out of range: %v", res.Confidence)
	}
}
