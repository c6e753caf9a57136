package pipeline

import (
	"context"
	"testing"

	"github.com/mtarikozcan/turkish-address-system/internal/addrparse"
	"github.com/mtarikozcan/turkish-address-system/internal/config"
	"github.com/mtarikozcan/turkish-address-system/internal/corrector"
	"github.com/mtarikozcan/turkish-address-system/internal/geocode"
	"github.com/mtarikozcan/turkish-address-system/internal/hierarchy"
	"github.com/mtarikozcan/turkish-address-system/internal/match"
	"github.com/mtarikozcan/turkish-address-system/internal/model"
	"github.com/mtarikozcan/turkish-address-system/internal/refdb"
	"github.com/mtarikozcan/turkish-address-system/internal/validate"
)

func testPipeline() *Pipeline {
	idx := refdb.Build([]refdb.AdminRecord{
		{Province: "İstanbul", District: "Kadıköy", Neighborhood: "Moda Mahallesi"},
		{Province: "İstanbul", District: "Kadıköy", Neighborhood: "Caferağa Mahallesi"},
	})
	c := corrector.New(corrector.DefaultTable(), idx)
	p := addrparse.New(idx)
	h := hierarchy.New(idx)
	v := validate.New(idx)
	g := geocode.New(geocode.NewTables())
	m := match.New(match.DefaultWeights(), 0.60, c, p, g, nil)
	return New(c, p, h, v, g, m, config.Default().Pipeline, nil, nil)
}

func TestResolveEndToEndScenario(t *testing.T) {
	p := testPipeline()
	res := p.Resolve(context.Background(), "istbl kadikoy moda mah caferaga sk 10")

	if res.Status != model.StatusCompleted {
		t.Fatalf("status = %v, errors = %v", res.Status, res.Errors)
	}
	if res.Components.Province.Value != "İstanbul" {
		t.Errorf("province = %q", res.Components.Province.Value)
	}
	if res.Components.District.Value != "Kadıköy" {
		t.Errorf("district = %q", res.Components.District.Value)
	}
	if res.Components.BuildingNo.Value != "10" {
		t.Errorf("buildingNo = %q", res.Components.BuildingNo.Value)
	}
	if res.Confidence < 0 || res.Confidence > 1 {
		t.Errorf("confidence out of range: %v", res.Confidence)
	}
}

func TestResolveEmptyInputIsError(t *testing.T) {
	p := testPipeline()
	res := p.Resolve(context.Background(), "   ")
	if res.Status != model.StatusError {
		t.Fatalf("expected error status for blank input, got %v", res.Status)
	}
	if len(res.Errors) == 0 {
		t.Errorf("expected an InvalidInput error recorded")
	}
}

func TestResolveIdempotentUnderReCorrection(t *testing.T) {
	p := testPipeline()
	first := p.Resolve(context.Background(), "istbl kadikoy moda mah caferaga sk 10")
	second := p.Resolve(context.Background(), first.Corrected)
	if second.Corrected != first.Corrected {
		t.Errorf("re-correcting an already-corrected string changed it: %q -> %q", first.Corrected, second.Corrected)
	}
}

func TestResolveAlwaysCarriesStatusErrorsAndSuggestions(t *testing.T) {
	p := testPipeline()
	res := p.Resolve(context.Background(), "some unrelated gibberish text")
	if res.Status == "" {
		t.Errorf("status must always be set")
	}
	if res.Errors == nil && res.Suggestions == nil {
		// both nil is fine (no issues to report); just ensure no panic occurred
		t.Log("no errors or suggestions for this input, which is acceptable")
	}
}
