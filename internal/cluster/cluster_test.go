package cluster

import (
	"context"
	"testing"

	"github.com/mtarikozcan/turkish-address-system/internal/addrparse"
	"github.com/mtarikozcan/turkish-address-system/internal/corrector"
	"github.com/mtarikozcan/turkish-address-system/internal/geocode"
	"github.com/mtarikozcan/turkish-address-system/internal/match"
	"github.com/mtarikozcan/turkish-address-system/internal/refdb"
)

func testMatcher() *match.Matcher {
	idx := refdb.Build([]refdb.AdminRecord{
		{Province: "İstanbul", District: "Kadıköy", Neighborhood: "Moda Mahallesi"},
		{Province: "Ankara", District: "Çankaya", Neighborhood: "Kızılay Mahallesi"},
	})
	c := corrector.New(corrector.DefaultTable(), idx)
	p := addrparse.New(idx)
	g := geocode.New(geocode.NewTables())
	return match.New(match.DefaultWeights(), 0.60, c, p, g, nil)
}

func TestClusterIdenticalDuplicatePair(t *testing.T) {
	m := testMatcher()
	cl := New(m, 0.6)
	addr := "İstanbul Kadıköy Moda Mahallesi"
	res := cl.Cluster(context.Background(), []string{addr, addr, "Ankara Çankaya Kızılay Mahallesi"})

	if len(res.Groups) != 2 {
		t.Fatalf("expected 2 groups, got %d: %+v", len(res.Groups), res.Groups)
	}
	sizes := map[int]int{}
	for _, g := range res.Groups {
		sizes[len(g)]++
	}
	if sizes[2] != 1 || sizes[1] != 1 {
		t.Errorf("expected one group of size 2 and one of size 1, got sizes %+v", sizes)
	}
}

func TestClusterDuplicationRate(t *testing.T) {
	m := testMatcher()
	cl := New(m, 0.6)
	addr := "İstanbul Kadıköy Moda Mahallesi"
	res := cl.Cluster(context.Background(), []string{addr, addr, "Ankara Çankaya Kızılay Mahallesi"})
	want := 1.0 / 3.0
	if diff := res.Stats.DuplicationRate - want; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("duplication rate = %v, want %v", res.Stats.DuplicationRate, want)
	}
}

func TestClusterEmptyBatch(t *testing.T) {
	m := testMatcher()
	cl := New(m, 0.6)
	res := cl.Cluster(context.Background(), nil)
	if len(res.Groups) != 0 {
		t.Errorf("expected no groups for an empty batch, got %+v", res.Groups)
	}
}
