package validate

import (
	"testing"

	"github.com/mtarikozcan/turkish-address-system/internal/model"
	"github.com/mtarikozcan/turkish-address-system/internal/refdb"
)

func testIndex() *refdb.ReferenceIndex {
	idx := refdb.Build([]refdb.AdminRecord{
		{Province: "İstanbul", District: "Kadıköy", Neighborhood: "Moda Mahallesi"},
		{Province: "İstanbul", District: "Kadıköy", Neighborhood: "Caferağa Mahallesi"},
		{Province: "Ankara", District: "Çankaya", Neighborhood: "Kızılay Mahallesi"},
	})
	idx.PostalCodes["34710"] = refdb.PostalEntry{Province: "İstanbul", District: "Kadıköy"}
	return idx
}

func comps(province, district, neighborhood string) model.AddressComponents {
	var c model.AddressComponents
	if province != "" {
		c.Province.Set(province, 0.95)
	}
	if district != "" {
		c.District.Set(district, 0.90)
	}
	if neighborhood != "" {
		c.Neighborhood.Set(neighborhood, 0.95)
	}
	return c
}

func TestValidateCompleteTripleExact(t *testing.T) {
	v := New(testIndex())
	res := v.Validate(comps("İstanbul", "Kadıköy", "Moda Mahallesi"))
	if !res.IsValid || res.Status != model.ValidationCompleteTriple || res.Confidence != 0.95 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestValidateProvinceDistrictOnly(t *testing.T) {
	v := New(testIndex())
	res := v.Validate(comps("İstanbul", "Kadıköy", ""))
	if !res.IsValid || res.Status != model.ValidationProvinceDist || res.Confidence != 0.65 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestValidateProvinceOnly(t *testing.T) {
	v := New(testIndex())
	res := v.Validate(comps("İstanbul", "", ""))
	if !res.IsValid || res.Status != model.ValidationProvinceOnly || res.Confidence != 0.30 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestValidateInsufficientNeighborhoodAlone(t *testing.T) {
	v := New(testIndex())
	res := v.Validate(comps("", "", "Moda Mahallesi"))
	if res.IsValid || res.Status != model.ValidationInsufficient {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Suggestions) == 0 {
		t.Errorf("expected suggestions on failure")
	}
}

func TestValidateConfidenceAlwaysInRange(t *testing.T) {
	v := New(testIndex())
	for _, c := range []model.AddressComponents{
		comps("İstanbul", "Kadıköy", "Moda Mahallesi"),
		comps("İstanbul", "", ""),
		comps("", "", ""),
	} {
		res := v.Validate(c)
		if res.Confidence < 0 || res.Confidence > 1 {
			t.Errorf("confidence out of range for %+v: %v", c, res.Confidence)
		}
	}
}

func TestValidatePostalMismatchReducesConfidenceAndErrors(t *testing.T) {
	v := New(testIndex())
	c := comps("Ankara", "Çankaya", "")
	c.PostalCode.Set("34710", 0.95)
	res := v.Validate(c)
	if len(res.Errors) == 0 {
		t.Errorf("expected a postal mismatch error")
	}
}

func TestValidateCompletenessScore(t *testing.T) {
	c := comps("İstanbul", "Kadıköy", "Moda Mahallesi")
	got := completeness(c)
	if got != 0.7 {
		t.Errorf("completeness = %v, want 0.7 for a full required triple with no optional fields", got)
	}
}
