package hierarchy

import (
	"testing"

	"github.com/mtarikozcan/turkish-address-system/internal/model"
	"github.com/mtarikozcan/turkish-address-system/internal/refdb"
)

func testIndex() *refdb.ReferenceIndex {
	return refdb.Build([]refdb.AdminRecord{
		{Province: "İstanbul", District: "Kadıköy", Neighborhood: "Moda Mahallesi"},
		{Province: "İstanbul", District: "Kadıköy", Neighborhood: "Caferağa Mahallesi"},
		{Province: "Ankara", District: "Çankaya", Neighborhood: "Kızılay Mahallesi"},
	})
}

func TestCompleteFillsMissingDistrictAndProvince(t *testing.T) {
	c := New(testIndex())
	comps := model.AddressComponents{}
	comps.Neighborhood.Set("Moda Mahallesi", 0.80)

	edits := c.Complete(&comps)

	if !comps.District.Present || comps.District.Value != "Kadıköy" {
		t.Fatalf("expected district completed to Kadıköy, got %+v", comps.District)
	}
	if !comps.Province.Present || comps.Province.Value != "İstanbul" {
		t.Fatalf("expected province completed to İstanbul, got %+v", comps.Province)
	}
	if len(edits) != 2 {
		t.Errorf("expected 2 completion edits, got %d", len(edits))
	}
}

func TestCompleteNeverOverwritesPresentField(t *testing.T) {
	c := New(testIndex())
	comps := model.AddressComponents{}
	comps.Neighborhood.Set("Moda Mahallesi", 0.80)
	comps.District.Set("SomeOtherDistrict", 0.90)

	c.Complete(&comps)

	if comps.District.Value != "SomeOtherDistrict" {
		t.Errorf("an already-present field was overwritten: %+v", comps.District)
	}
}

func TestCompleteNoOpWithoutNeighborhood(t *testing.T) {
	c := New(testIndex())
	comps := model.AddressComponents{}
	edits := c.Complete(&comps)
	if len(edits) != 0 {
		t.Errorf("expected no edits with nothing to infer from, got %+v", edits)
	}
}
