package match

import (
	"context"
	"testing"

	"github.com/mtarikozcan/turkish-address-system/internal/addrparse"
	"github.com/mtarikozcan/turkish-address-system/internal/corrector"
	"github.com/mtarikozcan/turkish-address-system/internal/geocode"
	"github.com/mtarikozcan/turkish-address-system/internal/model"
	"github.com/mtarikozcan/turkish-address-system/internal/refdb"
)

func testMatcher() *Matcher {
	idx := refdb.Build([]refdb.AdminRecord{
		{Province: "İstanbul", District: "Kadıköy", Neighborhood: "Moda Mahallesi"},
		{Province: "Ankara", District: "Çankaya", Neighborhood: "Kızılay Mahallesi"},
	})
	c := corrector.New(corrector.DefaultTable(), idx)
	p := addrparse.New(idx)
	tables := geocode.NewTables()
	tables.Street["caferağa sokak"] = model.Coordinate{Latitude: 40.981, Longitude: 29.031}
	tables.Neighborhood["moda"] = model.Coordinate{Latitude: 40.98, Longitude: 29.03}
	tables.District["çankaya"] = model.Coordinate{Latitude: 39.92, Longitude: 32.85}
	g := geocode.New(tables)
	return New(DefaultWeights(), 0.60, c, p, g, nil)
}

func TestCompareIdenticalInputsScoreNearOne(t *testing.T) {
	m := testMatcher()
	res := m.Compare(context.Background(), "İstanbul Kadıköy Moda Mahallesi Caferağa Sokak 10", "İstanbul Kadıköy Moda Mahallesi Caferağa Sokak 10")
	if res.Overall < 0.99 {
		t.Errorf("overall = %v, want >= 0.99 for identical inputs", res.Overall)
	}
}

func TestCompareSimilarAddressesMatch(t *testing.T) {
	m := testMatcher()
	res := m.Compare(context.Background(),
		"İstanbul Kadıköy Moda Mah. Caferağa Sk. 10",
		"Istanbul Kadikoy Moda Mahallesi Caferaga Sokak No:10")
	if res.Overall < 0.50 {
		t.Errorf("overall = %v, expected a reasonably high score for near-duplicate addresses", res.Overall)
	}
}

func TestCompareDifferentProvincesScoresLow(t *testing.T) {
	m := testMatcher()
	res := m.Compare(context.Background(), "İstanbul Kadıköy Moda", "Ankara Çankaya Kızılay")
	if res.Overall > 0.40 {
		t.Errorf("overall = %v, expected a low score for unrelated addresses", res.Overall)
	}
	if res.MatchDecision {
		t.Errorf("expected matchDecision=false for unrelated addresses")
	}
}

func TestWeightedSumLaw(t *testing.T) {
	m := testMatcher()
	res := m.Compare(context.Background(), "İstanbul Kadıköy Moda", "Ankara Çankaya Kızılay")
	want := 0.40*res.Breakdown.Semantic + 0.30*res.Breakdown.Geographic + 0.20*res.Breakdown.Textual + 0.10*res.Breakdown.Hierarchical
	if diff := res.Overall - want; diff > 1e-4 || diff < -1e-4 {
		t.Errorf("overall %v does not satisfy the weighted-sum law (want %v)", res.Overall, want)
	}
}

func TestConfidenceAlwaysInRange(t *testing.T) {
	m := testMatcher()
	for _, pair := range [][2]string{
		{"İstanbul Kadıköy Moda", "İstanbul Kadıköy Moda"},
		{"İstanbul Kadıköy Moda", "Ankara Çankaya Kızılay"},
	} {
		res := m.Compare(context.Background(), pair[0], pair[1])
		if res.Confidence < 0 || res.Confidence > 1 {
			t.Errorf("confidence out of range: %v", res.Confidence)
		}
	}
}

func TestHierarchicalChannelExactMatchIsOne(t *testing.T) {
	var a, b model.AddressComponents
	a.Province.Set("İstanbul", 0.95)
	b.Province.Set("İstanbul", 0.95)
	score, _ := hierarchicalChannel(a, b)
	if score != 1.0 {
		t.Errorf("hierarchicalChannel exact match = %v, want 1.0", score)
	}
}
