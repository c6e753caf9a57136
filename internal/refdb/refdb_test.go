package refdb

import "testing"

func sampleRows() []AdminRecord {
	return []AdminRecord{
		{Province: "İstanbul", District: "Kadıköy", Neighborhood: "Moda Mahallesi"},
		{Province: "İstanbul", District: "Kadıköy", Neighborhood: "Caferağa Mahallesi"},
		{Province: "İstanbul", District: "Üsküdar", Neighborhood: "Moda Mahallesi"}, // ambiguous neighborhood
		{Province: "Ankara", District: "Çankaya", Neighborhood: "Kızılay Mahallesi"},
		{Province: "İzmir", District: "Konak", Neighborhood: "Alsancak Mahallesi"},
	}
}

func TestBuildMembership(t *testing.T) {
	idx := Build(sampleRows())
	if _, ok := idx.IsProvince("istanbul"); !ok {
		t.Fatal("expected istanbul to be a known province")
	}
	if _, ok := idx.IsDistrictOf("İstanbul", "Kadıköy"); !ok {
		t.Fatal("expected Kadıköy to be a district of İstanbul")
	}
	if _, ok := idx.IsNeighborhoodOf("İstanbul", "Kadıköy", "Moda"); !ok {
		t.Fatal("expected Moda to resolve without the Mahallesi suffix")
	}
	if _, ok := idx.IsNeighborhood("moda"); !ok {
		t.Fatal("expected orphan lookup of moda to succeed")
	}
}

func TestNeighborhoodToDistrictsIsRankedByCount(t *testing.T) {
	idx := Build(sampleRows())
	ranked := idx.NeighborhoodToDistricts["moda mahallesi"]
	if len(ranked) != 2 {
		t.Fatalf("expected Moda to map to 2 districts, got %d", len(ranked))
	}
}

func TestFuzzyMatchProvince(t *testing.T) {
	idx := Build(sampleRows())
	name, score, ok := idx.FuzzyMatchProvince("istanbl")
	if !ok {
		t.Fatalf("expected istanbl to fuzzy-match a province, score=%v", score)
	}
	if name != "İstanbul" {
		t.Errorf("got %q, want İstanbul", name)
	}
}

func TestFuzzyMatchNeverChangesExactMember(t *testing.T) {
	idx := Build(sampleRows())
	_, score, ok := idx.FuzzyMatchProvince("istanbul")
	if !ok || score < 0.99 {
		t.Errorf("exact member should score ~1.0, got %v ok=%v", score, ok)
	}
}

func TestCompositeSimilarityRange(t *testing.T) {
	s := CompositeSimilarity("istanbul", "istanbul")
	if s < 0.99 {
		t.Errorf("identical strings should score ~1.0, got %v", s)
	}
	s2 := CompositeSimilarity("istanbul", "ankara")
	if s2 > 0.5 {
		t.Errorf("unrelated strings should score low, got %v", s2)
	}
}
